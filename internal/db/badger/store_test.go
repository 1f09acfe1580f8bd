package badger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kailas-cloud/semdex/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(Config{InMemory: true})
	if err != nil {
		t.Fatalf("open badger: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestNewStore_RequiresPath(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatal("expected error without path")
	}
}

func TestNewStore_OnDisk(t *testing.T) {
	s, err := NewStore(Config{Path: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx := context.Background()
	if err := s.Set(ctx, "k", []byte("v")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	s.Close()
	if err := s.Ping(ctx); !errors.Is(err, db.ErrClosed) {
		t.Errorf("Ping after close = %v, want ErrClosed", err)
	}
}

func TestHash_MergeAndDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.HSet(ctx, "semdex:item:a", map[string]string{"kind": "image", "analyzed": "0"}); err != nil {
		t.Fatalf("HSet: %v", err)
	}
	if err := s.HSet(ctx, "semdex:item:a", map[string]string{"analyzed": "1", "vector": "\x00\x01"}); err != nil {
		t.Fatalf("HSet merge: %v", err)
	}

	h, err := s.HGetAll(ctx, "semdex:item:a")
	if err != nil {
		t.Fatalf("HGetAll: %v", err)
	}
	if h["kind"] != "image" || h["analyzed"] != "1" || h["vector"] != "\x00\x01" {
		t.Errorf("unexpected hash: %v", h)
	}

	if err := s.HDel(ctx, "semdex:item:a", "vector"); err != nil {
		t.Fatalf("HDel: %v", err)
	}
	h, _ = s.HGetAll(ctx, "semdex:item:a")
	if _, ok := h["vector"]; ok {
		t.Error("vector field should be gone")
	}

	if err := s.HDel(ctx, "semdex:item:a", "kind", "analyzed"); err != nil {
		t.Fatalf("HDel all: %v", err)
	}
	if ok, _ := s.Exists(ctx, "semdex:item:a"); ok {
		t.Error("hash without fields should be removed")
	}
}

func TestHGetAll_Missing(t *testing.T) {
	s := newTestStore(t)
	h, err := s.HGetAll(context.Background(), "nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(h) != 0 {
		t.Errorf("expected empty map, got %v", h)
	}
}

func TestHGetAllMulti(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.HSet(ctx, "a", map[string]string{"n": "1"})
	_ = s.HSet(ctx, "b", map[string]string{"n": "2"})

	got, err := s.HGetAllMulti(ctx, []string{"a", "missing", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0]["n"] != "1" || len(got[1]) != 0 || got[2]["n"] != "2" {
		t.Errorf("unexpected results: %v", got)
	}
}

func TestHGetAll_NotAHash(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.Set(ctx, "raw", []byte("not json"))

	_, err := s.HGetAll(ctx, "raw")
	var dbErr *db.Error
	if !errors.As(err, &dbErr) || dbErr.Op != db.OpHGetAll {
		t.Fatalf("expected HGETALL db.Error, got %v", err)
	}
}

func TestScan(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, k := range []string{"semdex:item:docs/a.pdf", "semdex:item:b", "semdex:item:c", "semdex:emb:x"} {
		_ = s.HSet(ctx, k, map[string]string{"k": k})
	}

	keys, err := s.Scan(ctx, "semdex:item:*", 0)
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("keys = %v, want 3", keys)
	}
	if keys[0] != "semdex:item:b" || keys[2] != "semdex:item:docs/a.pdf" {
		t.Errorf("expected lexical order, got %v", keys)
	}

	keys, _ = s.Scan(ctx, "semdex:item:*", 2)
	if len(keys) != 2 {
		t.Errorf("limit: got %v", keys)
	}

	keys, _ = s.Scan(ctx, "semdex:item:?", 0)
	if len(keys) != 2 {
		t.Errorf("single-char glob: got %v", keys)
	}
}

func TestKV(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := s.Set(ctx, "k", []byte{0, 1, 2}); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := s.Get(ctx, "k")
	if err != nil || len(got) != 3 || got[2] != 2 {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if err := s.Del(ctx, "k"); err != nil {
		t.Fatalf("Del missing: %v", err)
	}
}

func TestSetWithTTL_Expires(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetWithTTL(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("SetWithTTL: %v", err)
	}
	if _, err := s.Get(ctx, "k"); err != nil {
		t.Fatalf("fresh key: %v", err)
	}
	time.Sleep(2100 * time.Millisecond)
	if _, err := s.Get(ctx, "k"); !errors.Is(err, db.ErrKeyNotFound) {
		t.Fatalf("expected expiry, got %v", err)
	}
}

func TestIncrBy_ConcurrentAndKeepsTTL(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.IncrBy(ctx, "n", 3)
		}()
	}
	wg.Wait()

	got, _ := s.Get(ctx, "n")
	if string(got) != "60" {
		t.Errorf("counter = %s, want 60", got)
	}

	if err := s.Expire(ctx, "n", time.Hour, true); err != nil {
		t.Fatalf("Expire: %v", err)
	}
	// NX: an existing TTL is not replaced with the shorter one
	if err := s.Expire(ctx, "n", time.Second, true); err != nil {
		t.Fatalf("Expire nx: %v", err)
	}
	_ = s.IncrBy(ctx, "n", 1)
	time.Sleep(1500 * time.Millisecond)
	got, err := s.Get(ctx, "n")
	if err != nil || string(got) != "61" {
		t.Errorf("counter = %s, %v; want 61 still alive", got, err)
	}
}

func TestIncrBy_NotInteger(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	_ = s.Set(ctx, "k", []byte("abc"))
	if err := s.IncrBy(ctx, "k", 1); err == nil {
		t.Fatal("expected error")
	}
}

func TestCancelledContext(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := s.HSet(ctx, "k", map[string]string{"a": "b"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestLiteralPrefix(t *testing.T) {
	tests := map[string]string{
		"semdex:item:*":  "semdex:item:",
		"semdex:item:?x": "semdex:item:",
		"exact":          "exact",
		"*":              "",
	}
	for in, want := range tests {
		if got := literalPrefix(in); got != want {
			t.Errorf("literalPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}
