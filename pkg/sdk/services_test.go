package semdex

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kailas-cloud/semdex/internal/domain"
	dombatch "github.com/kailas-cloud/semdex/internal/domain/batch"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/domain/search/mode"
	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	"github.com/kailas-cloud/semdex/internal/domain/search/result"
	reindexuc "github.com/kailas-cloud/semdex/internal/usecase/reindex"
	searchuc "github.com/kailas-cloud/semdex/internal/usecase/search"
)

// --- Items ---

func TestClient_Put(t *testing.T) {
	created := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock := &mockItemUC{
		putFn: func(_ context.Context, key string, d content.Descriptor, analyzed bool) (*content.Item, error) {
			if key != "q3.pdf" || !analyzed {
				t.Errorf("key = %q analyzed = %v", key, analyzed)
			}
			if d.Kind() != content.KindDocument {
				t.Errorf("kind = %q, want document", d.Kind())
			}
			return &content.Item{
				Key:        key,
				Descriptor: d,
				Analyzed:   analyzed,
				Embedding:  domain.Embedding{Values: []float32{1, 0, 0}, Provider: domain.ProviderOnDevice, Model: "hash-3"},
				CreatedAt:  created,
			}, nil
		},
	}

	c := &Client{itemSvc: mock}
	it, err := c.Put(context.Background(), "q3.pdf", KindDocument, Descriptor{Summary: "Revenue"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Kind != KindDocument || it.Descriptor.Summary != "Revenue" {
		t.Errorf("item = %+v", it)
	}
	if it.Dimensions != 3 || it.Provider != "on-device" || it.Model != "hash-3" {
		t.Errorf("embedding info = %d %q %q", it.Dimensions, it.Provider, it.Model)
	}
	if !it.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt = %v", it.CreatedAt)
	}
}

func TestClient_Put_InvalidKind(t *testing.T) {
	c := &Client{itemSvc: &mockItemUC{}}
	_, err := c.Put(context.Background(), "a.bin", Kind("spreadsheet"), Descriptor{}, false)
	if !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
	}
}

func TestClient_Put_FieldsOfOtherKind(t *testing.T) {
	c := &Client{itemSvc: &mockItemUC{}}
	_, err := c.Put(context.Background(), "notes.txt", KindText, Descriptor{Caption: "a cat"}, false)
	if !errors.Is(err, ErrInvalidDescriptor) {
		t.Fatalf("expected ErrInvalidDescriptor, got %v", err)
	}
}

func TestClient_Get_NotFound(t *testing.T) {
	mock := &mockItemUC{
		getFn: func(_ context.Context, _ string) (*content.Item, error) {
			return nil, domain.ErrItemNotFound
		},
	}
	c := &Client{itemSvc: mock}
	_, err := c.Get(context.Background(), "missing.txt")
	if !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("expected ErrItemNotFound, got %v", err)
	}
}

func TestClient_Get_NoEmbedding(t *testing.T) {
	mock := &mockItemUC{
		getFn: func(_ context.Context, key string) (*content.Item, error) {
			return &content.Item{Key: key, Descriptor: content.Text{}}, nil
		},
	}
	c := &Client{itemSvc: mock}
	it, err := c.Get(context.Background(), "notes.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Dimensions != 0 || it.Provider != "" {
		t.Errorf("expected no embedding info, got %+v", it)
	}
}

// --- Search ---

func TestClient_Search(t *testing.T) {
	mock := &mockSearchUC{
		fn: func(_ context.Context, req *request.Request) searchuc.Response {
			if req.Query() != "revenue" || req.Limit() != 5 {
				t.Errorf("request = %q/%d", req.Query(), req.Limit())
			}
			return searchuc.Response{
				Results: []result.Result{
					result.New("q3.pdf", content.KindDocument, 0.82, mode.Hybrid),
					result.New("chart.png", content.KindImage, 0.4, mode.Keyword),
				},
				VectorSearch: true,
			}
		},
	}

	c := &Client{searchSvc: mock}
	resp, err := c.Search(context.Background(), "revenue", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !resp.VectorSearch || len(resp.Results) != 2 {
		t.Fatalf("resp = %+v", resp)
	}
	if resp.Results[0].MatchType != MatchHybrid || resp.Results[1].Kind != KindImage {
		t.Errorf("results = %+v", resp.Results)
	}
}

func TestClient_Search_EmptyQuery(t *testing.T) {
	c := &Client{searchSvc: &mockSearchUC{}}
	_, err := c.Search(context.Background(), "   ", 0)
	if !errors.Is(err, ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestClient_Search_NoResults(t *testing.T) {
	mock := &mockSearchUC{fn: func(context.Context, *request.Request) searchuc.Response { return searchuc.Response{} }}
	c := &Client{searchSvc: mock}
	resp, err := c.Search(context.Background(), "nothing", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Results == nil || len(resp.Results) != 0 {
		t.Errorf("expected empty non-nil results, got %#v", resp.Results)
	}
}

// --- Recommend ---

func TestClient_Recommend(t *testing.T) {
	mock := &mockRecommendUC{
		fn: func(_ context.Context, key string, useVector bool) ([]domrec.Recommendation, error) {
			if key != "q3.pdf" || useVector {
				t.Errorf("key = %q useVector = %v", key, useVector)
			}
			return []domrec.Recommendation{
				domrec.New("q2.pdf", content.KindDocument, 4.5, domrec.StrategyHeuristic),
			}, nil
		},
	}

	c := &Client{recSvc: mock}
	recs, err := c.Recommend(context.Background(), "q3.pdf", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(recs) != 1 || recs[0].Key != "q2.pdf" || recs[0].Strategy != StrategyHeuristic {
		t.Errorf("recs = %+v", recs)
	}
}

func TestClient_Recommend_Error(t *testing.T) {
	mock := &mockRecommendUC{
		fn: func(context.Context, string, bool) ([]domrec.Recommendation, error) {
			return nil, domain.ErrInvalidKey
		},
	}
	c := &Client{recSvc: mock}
	_, err := c.Recommend(context.Background(), "", true)
	if !errors.Is(err, ErrInvalidKey) {
		t.Fatalf("expected ErrInvalidKey, got %v", err)
	}
}

// --- Reindex ---

func TestClient_Reindex(t *testing.T) {
	writeErr := errors.New("disk full")
	results := []dombatch.Result{
		dombatch.NewUpdated("a.txt"),
		dombatch.NewSkipped("b.bin", dombatch.ReasonNoContent),
		dombatch.NewFailed("c.txt", dombatch.ReasonStoreWriteFailed, writeErr),
	}
	mock := &mockReindexUC{
		fn: func(context.Context) (reindexuc.Report, error) {
			return reindexuc.Report{RunID: "run-1", Results: results, Summary: dombatch.Summarize(results)}, nil
		},
	}

	c := &Client{reindexSvc: mock}
	rep, err := c.Reindex(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rep.RunID != "run-1" || rep.Updated != 1 || rep.Skipped != 1 || rep.Failed != 1 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Results[1].Reason != "no_content" || !errors.Is(rep.Results[2].Err, writeErr) {
		t.Errorf("results = %+v", rep.Results)
	}
}

func TestClient_Reindex_ListFailure(t *testing.T) {
	mock := &mockReindexUC{
		fn: func(context.Context) (reindexuc.Report, error) {
			return reindexuc.Report{}, domain.ErrStoreQueryFailed
		},
	}
	c := &Client{reindexSvc: mock}
	_, err := c.Reindex(context.Background())
	if !errors.Is(err, ErrStoreQueryFailed) {
		t.Fatalf("expected ErrStoreQueryFailed, got %v", err)
	}
}
