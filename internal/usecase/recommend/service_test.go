package recommend

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/semdex/internal/domain"
	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/metrics"
	"github.com/kailas-cloud/semdex/internal/repository/item"
)

// --- Mocks ---

type mockItems struct {
	items   []*content.Item
	getErr  error
	listErr error
}

func (m *mockItems) Get(_ context.Context, key string) (*content.Item, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, it := range m.items {
		if it.Key == key {
			return it, nil
		}
	}
	return nil, domain.ErrItemNotFound
}

func (m *mockItems) List(_ context.Context, _ item.Filter, _ int) ([]*content.Item, error) {
	return m.items, m.listErr
}

type mockEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vec, Provider: domain.ProviderOnDevice, Model: "hash-2"}, nil
}

func withVec(key string, vec ...float32) *content.Item {
	return &content.Item{Key: key, Descriptor: content.Image{}, Embedding: domain.Embedding{Values: vec}}
}

func recKeys(recs []domrec.Recommendation) []string {
	out := make([]string, len(recs))
	for i := range recs {
		out[i] = recs[i].Key()
	}
	return out
}

func newEngine() *Engine {
	return NewEngine(DefaultGates(), DefaultWeights())
}

// --- Tests ---

func TestRecommend_VectorGate(t *testing.T) {
	x := withVec("x.jpg", 1, 0)
	items := []*content.Item{x, withVec("y.jpg", 1, 0), withVec("z.jpg", 0, 1)}

	recs := newEngine().Recommend(context.Background(), items, x, true, nil)

	if got := recKeys(recs); len(got) != 1 || got[0] != "y.jpg" {
		t.Fatalf("expected [y.jpg], got %v", got)
	}
	if recs[0].Strategy() != domrec.StrategyVector || recs[0].Score() < 0.999 {
		t.Errorf("unexpected recommendation: %s %f", recs[0].Strategy(), recs[0].Score())
	}
}

func TestRecommend_BelowVectorGateFallsToHeuristic(t *testing.T) {
	x := &content.Item{Key: "x.jpg", Descriptor: content.Image{Common: content.Common{Tags: []string{"beach", "sunset"}}},
		Embedding: domain.Embedding{Values: []float32{1, 0}}}
	y := &content.Item{Key: "y.jpg", Descriptor: content.Image{Common: content.Common{Tags: []string{"Beach", "sunset"}}},
		Embedding: domain.Embedding{Values: []float32{0.1, 0.995}}}

	recs := newEngine().Recommend(context.Background(), []*content.Item{x, y}, x, true, nil)
	if len(recs) != 1 || recs[0].Strategy() != domrec.StrategyHeuristic {
		t.Fatalf("expected one heuristic recommendation, got %v", recKeys(recs))
	}
	// same kind 0.5 + two shared tags 3.0
	if recs[0].Score() != 3.5 {
		t.Errorf("score = %f, want 3.5", recs[0].Score())
	}
}

func TestRecommend_ExcludesTargetAndCapsResults(t *testing.T) {
	x := withVec("x.jpg", 1, 0)
	items := []*content.Item{x}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g"} {
		items = append(items, withVec(k, 1, 0.1))
	}

	recs := newEngine().Recommend(context.Background(), items, x, true, nil)
	if len(recs) != 5 {
		t.Fatalf("expected 5 results, got %d", len(recs))
	}
	for _, k := range recKeys(recs) {
		if k == "x.jpg" {
			t.Fatal("target must not be recommended")
		}
	}
}

func TestRecommend_DimensionMismatch(t *testing.T) {
	x := &content.Item{Key: "x", Embedding: domain.Embedding{Values: make([]float32, 384)}}
	y := &content.Item{Key: "y", Embedding: domain.Embedding{Values: make([]float32, 1536)}}
	x.Embedding.Values[0], y.Embedding.Values[0] = 1, 1
	before := testutil.ToFloat64(metrics.DimensionMismatchTotal.WithLabelValues("recommend"))

	recs := newEngine().Recommend(context.Background(), []*content.Item{x, y}, x, true, nil)
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %v", recKeys(recs))
	}
	if d := testutil.ToFloat64(metrics.DimensionMismatchTotal.WithLabelValues("recommend")) - before; d != 1 {
		t.Errorf("mismatch metric delta = %v, want 1", d)
	}
}

func TestRecommend_EmbedsTargetOnTheFly(t *testing.T) {
	x := &content.Item{Key: "x.txt", Descriptor: content.Text{Common: content.Common{Summary: "sunset at the beach"}}}
	plain := &content.Item{Key: "plain.txt", Descriptor: content.Text{Common: content.Common{Summary: "sunset"}}}
	items := []*content.Item{x, withVec("y.jpg", 1, 0), plain}
	embed := &mockEmbedder{vec: []float32{1, 0}}

	recs := newEngine().Recommend(context.Background(), items, x, true, embed)
	if got := recKeys(recs); len(got) != 1 || got[0] != "y.jpg" {
		t.Fatalf("expected [y.jpg], got %v", got)
	}
	if embed.calls != 1 {
		t.Errorf("embed calls = %d, want 1 (target only)", embed.calls)
	}
}

func TestRecommend_NoContentTargetIsNotEmbedded(t *testing.T) {
	x := &content.Item{Key: "x", Descriptor: content.Document{}}
	embed := &mockEmbedder{vec: []float32{1, 0}}

	recs := newEngine().Recommend(context.Background(), []*content.Item{x, withVec("y", 1, 0)}, x, true, embed)
	if len(recs) != 0 {
		t.Fatalf("expected no recommendations, got %v", recKeys(recs))
	}
	if embed.calls != 0 {
		t.Errorf("embed calls = %d, want 0", embed.calls)
	}
}

func TestRecommend_EmbedFailureUsesHeuristic(t *testing.T) {
	x := &content.Item{Key: "x.pdf", Descriptor: content.Document{Common: content.Common{
		Summary: "annual budget forecast spreadsheet"}}}
	y := &content.Item{Key: "y.pdf", Descriptor: content.Document{Common: content.Common{
		Summary: "forecast for the annual budget"}}, Embedding: domain.Embedding{Values: []float32{1, 0}}}
	embed := &mockEmbedder{err: domain.ErrProviderUnavailable}

	recs := newEngine().Recommend(context.Background(), []*content.Item{x, y}, x, true, embed)
	if len(recs) != 1 || recs[0].Strategy() != domrec.StrategyHeuristic {
		t.Fatalf("expected heuristic fallback, got %v", recKeys(recs))
	}
	// same kind 0.5 + three shared keywords 6.0 + bonus 2.0
	if recs[0].Score() != 8.5 {
		t.Errorf("score = %f, want 8.5", recs[0].Score())
	}
}

func TestRecommend_UseVectorOff(t *testing.T) {
	x := withVec("x.jpg", 1, 0)
	embed := &mockEmbedder{vec: []float32{1, 0}}
	recs := newEngine().Recommend(context.Background(), []*content.Item{x, withVec("y.jpg", 1, 0)}, x, false, embed)
	if len(recs) != 0 {
		t.Fatalf("expected heuristic with no matches, got %v", recKeys(recs))
	}
	if embed.calls != 0 {
		t.Error("embedder must not be called with vectors off")
	}
}

func TestHeuristic_Factors(t *testing.T) {
	w := DefaultWeights()
	tests := []struct {
		name   string
		target *content.Item
		cand   *content.Item
		want   float64
	}{
		{
			name:   "document summary meets image objects",
			target: &content.Item{Key: "a", Descriptor: content.Document{Common: content.Common{Summary: "quarterly revenue presentation"}}},
			cand:   &content.Item{Key: "b", Descriptor: content.Image{Objects: []string{"revenue chart", "presentation screen"}}},
			want:   4,
		},
		{
			name:   "image objects meet document summary",
			target: &content.Item{Key: "b", Descriptor: content.Image{Objects: []string{"revenue chart"}}},
			cand:   &content.Item{Key: "a", Descriptor: content.Document{Common: content.Common{Summary: "quarterly revenue"}}},
			want:   2,
		},
		{
			name:   "document summary meets video actions",
			target: &content.Item{Key: "a", Descriptor: content.Document{Common: content.Common{Summary: "surfing lessons"}}},
			cand: &content.Item{Key: "v", Descriptor: content.Video{
				Scenes: []content.Scene{{Timestamp: 1, Description: "waves rolling"}}, Actions: []string{"surfing"}}},
			want: 1.5,
		},
		{
			name:   "shared objects",
			target: &content.Item{Key: "a", Descriptor: content.Video{Objects: []string{"Dog", "ball"}}},
			cand:   &content.Item{Key: "b", Descriptor: content.Image{Objects: []string{"dog", "ball", "tree"}}},
			want:   4,
		},
		{
			name:   "image scene and caption words",
			target: &content.Item{Key: "a", Descriptor: content.Image{Caption: "golden sunset", Scene: "quiet beach"}},
			cand:   &content.Item{Key: "b", Descriptor: content.Image{Caption: "sunset over beach"}},
			want:   2.5,
		},
		{
			name:   "document highlights",
			target: &content.Item{Key: "a", Descriptor: content.Document{Common: content.Common{Highlights: []string{"merger approved"}}}},
			cand:   &content.Item{Key: "b", Descriptor: content.Document{Common: content.Common{Highlights: []string{"the merger"}}}},
			want:   3,
		},
		{
			name:   "tabular columns",
			target: &content.Item{Key: "a", Descriptor: content.Tabular{Columns: []string{"Region", "Revenue", "id"}}},
			cand:   &content.Item{Key: "b", Descriptor: content.Tabular{Columns: []string{"region", "revenue"}}},
			want:   4.5,
		},
		{
			name:   "analyzed candidate",
			target: &content.Item{Key: "a", Descriptor: content.Text{}},
			cand:   &content.Item{Key: "b", Descriptor: content.Image{}, Analyzed: true},
			want:   0.5,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := w.heuristicScore(tc.target, tc.cand); got != tc.want {
				t.Errorf("score = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestHeuristic_GateIsInclusive(t *testing.T) {
	target := &content.Item{Key: "t", Descriptor: content.Image{Common: content.Common{Tags: []string{"beach", "sunset"}}}}
	exact := &content.Item{Key: "exact", Descriptor: content.Text{Common: content.Common{Tags: []string{"beach", "sunset"}}}}
	under := &content.Item{Key: "under", Descriptor: content.Text{Common: content.Common{Tags: []string{"beach"}}}, Analyzed: true}

	recs := newEngine().Recommend(context.Background(), []*content.Item{target, exact, under}, target, false, nil)
	if got := recKeys(recs); len(got) != 1 || got[0] != "exact" {
		t.Fatalf("expected [exact], got %v", got)
	}
}

func TestKeywords(t *testing.T) {
	got := keywords("The Beach, the BEACH and sunsets with friends!")
	for _, want := range []string{"beach", "sunsets", "friends"} {
		if _, ok := got[want]; !ok {
			t.Errorf("missing %q in %v", want, got)
		}
	}
	for _, stop := range []string{"the", "and", "with"} {
		if _, ok := got[stop]; ok {
			t.Errorf("unexpected %q", stop)
		}
	}
}

func TestService_RecommendFor(t *testing.T) {
	x := withVec("x.jpg", 1, 0)
	items := &mockItems{items: []*content.Item{x, withVec("y.jpg", 1, 0)}}
	svc := New(items, newEngine(), 100, 0)

	recs, err := svc.RecommendFor(context.Background(), "x.jpg", true, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := recKeys(recs); len(got) != 1 || got[0] != "y.jpg" {
		t.Fatalf("expected [y.jpg], got %v", got)
	}
}

func TestService_RecommendForDegradedInputs(t *testing.T) {
	tests := []struct {
		name  string
		items *mockItems
		key   string
	}{
		{"unknown key", &mockItems{items: []*content.Item{withVec("y", 1, 0)}}, "missing"},
		{"store get failure", &mockItems{getErr: domain.ErrStoreQueryFailed}, "x"},
		{"store list failure", &mockItems{items: []*content.Item{withVec("x", 1, 0)}, listErr: errors.New("timeout")}, "x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			recs, err := New(tc.items, newEngine(), 100, 0).RecommendFor(context.Background(), tc.key, true, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(recs) != 0 {
				t.Errorf("expected empty, got %v", recKeys(recs))
			}
		})
	}
}

func TestService_BlankKey(t *testing.T) {
	_, err := New(&mockItems{}, newEngine(), 100, 0).RecommendFor(context.Background(), "  ", true, nil)
	if !errors.Is(err, domain.ErrInvalidQuery) {
		t.Fatalf("expected ErrInvalidQuery, got %v", err)
	}
}

func TestNewEngine_ZeroGateIsHonored(t *testing.T) {
	g := DefaultGates()
	g.VectorMinSimilarity = 0
	e := NewEngine(g, DefaultWeights())

	if got := e.Gates().VectorMinSimilarity; got != 0 {
		t.Fatalf("VectorMinSimilarity = %v, want 0", got)
	}

	x := withVec("x.jpg", 1, 0)
	items := []*content.Item{x, withVec("y.jpg", 0.1, 1)}
	recs := e.Recommend(context.Background(), items, x, true, nil)
	if got := recKeys(recs); len(got) != 1 || got[0] != "y.jpg" {
		t.Errorf("expected [y.jpg] with a zero gate, got %v", got)
	}
}
