package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockEmbeddingChecker struct {
	err   error
	block bool
}

func (m *mockEmbeddingChecker) HealthCheck(ctx context.Context) error {
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

func providers(onDevice, remote error) map[string]EmbeddingChecker {
	return map[string]EmbeddingChecker{
		"embedding_on_device": &mockEmbeddingChecker{err: onDevice},
		"embedding_remote":    &mockEmbeddingChecker{err: remote},
	}
}

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("down")
	tests := []struct {
		name     string
		db       error
		onDevice error
		remote   error
		want     Status
	}{
		{"all healthy", nil, nil, nil, Healthy},
		{"remote down", nil, nil, down, Degraded},
		{"on-device down", nil, down, nil, Degraded},
		{"database down", down, nil, nil, Unhealthy},
		{"everything down", down, down, down, Unhealthy},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r := New(&mockDBPinger{err: tc.db}, providers(tc.onDevice, tc.remote), 0).Check(context.Background())
			if r.Status != tc.want {
				t.Errorf("expected %q, got %q", tc.want, r.Status)
			}
			if len(r.Checks) != 3 {
				t.Errorf("expected 3 checks, got %v", r.Checks)
			}
			if (tc.remote != nil) != (r.Checks["embedding_remote"] == CheckError) {
				t.Errorf("remote check = %q", r.Checks["embedding_remote"])
			}
		})
	}
}

func TestCheck_NoEmbedding(t *testing.T) {
	r := New(&mockDBPinger{}, nil, 0).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if len(r.Checks) != 1 {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_SlowProviderTimesOut(t *testing.T) {
	svc := New(&mockDBPinger{}, map[string]EmbeddingChecker{
		"embedding_remote": &mockEmbeddingChecker{block: true},
	}, 20*time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("per-check timeout not applied")
	}
	if r.Status != Degraded || r.Checks["embedding_remote"] != CheckError {
		t.Errorf("unexpected report: %+v", r)
	}
}
