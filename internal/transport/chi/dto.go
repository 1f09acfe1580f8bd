package chi

import (
	"time"

	"github.com/kailas-cloud/semdex/internal/domain/content"
	domrec "github.com/kailas-cloud/semdex/internal/domain/recommend"
	"github.com/kailas-cloud/semdex/internal/domain/search/result"
	domusage "github.com/kailas-cloud/semdex/internal/domain/usage"
	healthuc "github.com/kailas-cloud/semdex/internal/usecase/health"
	reindexuc "github.com/kailas-cloud/semdex/internal/usecase/reindex"
)

// Error codes returned in ErrorResponse.Code.
const (
	codeBadRequest       = "bad_request"
	codeValidationFailed = "validation_failed"
	codeItemNotFound     = "item_not_found"
	codeStoreUnavailable = "store_unavailable"
	codeRateLimited      = "rate_limited"
	codeInternalError    = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// providerFields selects the embedding provider of a request.
type providerFields struct {
	Provider string `json:"provider" validate:"omitempty,oneof=on-device remote"`
	Model    string `json:"model" validate:"omitempty,max=200"`
}

// SearchRequest is the body of POST /search.
type SearchRequest struct {
	Query string `json:"query" validate:"required"`
	Limit int    `json:"limit" validate:"omitempty,min=1,max=100"`
	providerFields
}

// SearchResultItem is one ranked search hit.
type SearchResultItem struct {
	Key       string  `json:"key"`
	Type      string  `json:"type"`
	Score     float64 `json:"score"`
	MatchType string  `json:"match_type"`
}

// SearchResponse is the body of a successful search.
type SearchResponse struct {
	Results      []SearchResultItem `json:"results"`
	Count        int                `json:"count"`
	VectorSearch bool               `json:"vector_search"`
}

// RecommendRequest is the body of POST /recommend. UseVector defaults to true.
type RecommendRequest struct {
	TargetKey string `json:"target_key" validate:"required"`
	UseVector *bool  `json:"use_vector"`
	providerFields
}

// RecommendationItem is one related item.
type RecommendationItem struct {
	Key      string  `json:"key"`
	Type     string  `json:"type"`
	Score    float64 `json:"score"`
	Strategy string  `json:"strategy"`
}

// RecommendResponse is the body of a successful recommendation.
type RecommendResponse struct {
	Recommendations []RecommendationItem `json:"recommendations"`
}

// ReindexRequest is the body of POST /reindex. An empty body uses the default provider.
type ReindexRequest struct {
	providerFields
}

// ReindexItem is the outcome of one item.
type ReindexItem struct {
	Key    string `json:"key"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// ReindexResponse summarizes a reindex run.
type ReindexResponse struct {
	RunID   string        `json:"run_id"`
	Updated int           `json:"updated"`
	Skipped int           `json:"skipped"`
	Failed  int           `json:"failed"`
	Items   []ReindexItem `json:"items"`
}

// ItemRequest is the body of PUT /items/{key}.
type ItemRequest struct {
	Type       string         `json:"type" validate:"omitempty,oneof=text document tabular image video unknown"`
	Analyzed   bool           `json:"analyzed"`
	Descriptor content.Fields `json:"descriptor"`
}

// EmbeddingInfo describes a stored vector without its values.
type EmbeddingInfo struct {
	Dimensions int    `json:"dimensions"`
	Provider   string `json:"provider"`
	Model      string `json:"model"`
}

// ItemResponse is a stored item.
type ItemResponse struct {
	Key        string         `json:"key"`
	Type       string         `json:"type"`
	Analyzed   bool           `json:"analyzed"`
	Descriptor content.Fields `json:"descriptor"`
	Embedding  *EmbeddingInfo `json:"embedding,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// BudgetResponse is the token budget part of a usage report.
type BudgetResponse struct {
	TokensLimit     int64     `json:"tokens_limit"`
	TokensRemaining int64     `json:"tokens_remaining"`
	Unlimited       bool      `json:"unlimited"`
	Exhausted       bool      `json:"exhausted"`
	ResetsAt        time.Time `json:"resets_at"`
}

// UsageResponse is the body of GET /usage.
type UsageResponse struct {
	Provider    string         `json:"provider"`
	Period      string         `json:"period"`
	PeriodStart time.Time      `json:"period_start"`
	PeriodEnd   time.Time      `json:"period_end"`
	TokensUsed  int64          `json:"tokens_used"`
	Budget      BudgetResponse `json:"budget"`
}

func searchResultsToDTO(rs []result.Result) []SearchResultItem {
	items := make([]SearchResultItem, len(rs))
	for i := range rs {
		r := &rs[i]
		items[i] = SearchResultItem{
			Key:       r.Key(),
			Type:      string(r.Kind()),
			Score:     r.Score(),
			MatchType: string(r.Mode()),
		}
	}
	return items
}

func recommendationsToDTO(rs []domrec.Recommendation) []RecommendationItem {
	items := make([]RecommendationItem, len(rs))
	for i := range rs {
		r := &rs[i]
		items[i] = RecommendationItem{
			Key:      r.Key(),
			Type:     string(r.Kind()),
			Score:    r.Score(),
			Strategy: string(r.Strategy()),
		}
	}
	return items
}

func reindexReportToDTO(rep reindexuc.Report) ReindexResponse {
	items := make([]ReindexItem, len(rep.Results))
	for i, r := range rep.Results {
		items[i] = ReindexItem{Key: r.Key(), Status: string(r.Status()), Reason: string(r.Reason())}
	}
	return ReindexResponse{
		RunID:   rep.RunID,
		Updated: rep.Summary.Updated,
		Skipped: rep.Summary.Skipped,
		Failed:  rep.Summary.Failed,
		Items:   items,
	}
}

func itemToDTO(it *content.Item) ItemResponse {
	resp := ItemResponse{
		Key:        it.Key,
		Type:       string(it.Kind()),
		Analyzed:   it.Analyzed,
		Descriptor: content.ToFields(it.Descriptor),
		CreatedAt:  it.CreatedAt,
	}
	if it.HasEmbedding() {
		resp.Embedding = &EmbeddingInfo{
			Dimensions: it.Embedding.Dim(),
			Provider:   string(it.Embedding.Provider),
			Model:      it.Embedding.Model,
		}
	}
	return resp
}

func healthToDTO(rep healthuc.Report) HealthResponse {
	checks := make(map[string]string, len(rep.Checks))
	for k, v := range rep.Checks {
		checks[k] = string(v)
	}
	return HealthResponse{Status: string(rep.Status), Checks: checks}
}

func usageToDTO(rep domusage.Report) UsageResponse {
	b := rep.Budget()
	return UsageResponse{
		Provider:    rep.Provider(),
		Period:      string(rep.Period()),
		PeriodStart: time.UnixMilli(rep.PeriodStart()).UTC(),
		PeriodEnd:   time.UnixMilli(rep.PeriodEnd()).UTC(),
		TokensUsed:  rep.TokensUsed(),
		Budget: BudgetResponse{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			Unlimited:       b.Unlimited(),
			Exhausted:       b.IsExhausted(),
			ResetsAt:        time.UnixMilli(b.ResetsAt()).UTC(),
		},
	}
}
