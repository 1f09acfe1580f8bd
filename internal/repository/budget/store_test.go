package budget

import (
	"context"
	"testing"
	"time"

	"github.com/kailas-cloud/semdex/internal/db/badger"
)

func TestStore_CountsAndExpires(t *testing.T) {
	bs, err := badger.NewStore(badger.Config{InMemory: true})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer bs.Close()

	s := New(bs, 48*time.Hour, 62*24*time.Hour)
	ctx := context.Background()
	key := "semdex:budget:remote:daily:2026-10-16"

	if n, err := s.Get(ctx, key); err != nil || n != 0 {
		t.Fatalf("empty counter = %d, %v", n, err)
	}
	for range 3 {
		if err := s.IncrBy(ctx, key, 100); err != nil {
			t.Fatalf("IncrBy: %v", err)
		}
	}
	if n, _ := s.Get(ctx, key); n != 300 {
		t.Errorf("counter = %d, want 300", n)
	}
}

func TestStore_TTLByPeriod(t *testing.T) {
	s := New(nil, time.Hour, 24*time.Hour)
	if got := s.ttlFor("semdex:budget:remote:daily:2026-10-16"); got != time.Hour {
		t.Errorf("daily ttl = %v", got)
	}
	if got := s.ttlFor("semdex:budget:remote:monthly:2026-10"); got != 24*time.Hour {
		t.Errorf("monthly ttl = %v", got)
	}
}
