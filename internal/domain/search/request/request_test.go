package request

import (
	"errors"
	"strings"
	"testing"

	"github.com/kailas-cloud/semdex/internal/domain"
)

func TestNew_Defaults(t *testing.T) {
	r, err := New("  hello  ", 0, domain.ProviderRemote, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Query() != "hello" {
		t.Errorf("Query() = %q", r.Query())
	}
	if r.Limit() != DefaultLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), DefaultLimit)
	}
	if r.Provider() != domain.ProviderRemote {
		t.Errorf("Provider() = %q", r.Provider())
	}
}

func TestNew_ClampsLimit(t *testing.T) {
	r, err := New("q", 1000, domain.ProviderOnDevice, "hash-384")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Limit() != MaxLimit {
		t.Errorf("Limit() = %d, want %d", r.Limit(), MaxLimit)
	}
	if r.Model() != "hash-384" {
		t.Errorf("Model() = %q", r.Model())
	}
}

func TestNew_EmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := New(q, 10, domain.ProviderRemote, "")
		if !errors.Is(err, domain.ErrInvalidQuery) {
			t.Errorf("New(%q) error = %v, want ErrInvalidQuery", q, err)
		}
	}
}

func TestNew_QueryTooLong(t *testing.T) {
	_, err := New(strings.Repeat("a", MaxQueryLength+1), 10, domain.ProviderRemote, "")
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}
