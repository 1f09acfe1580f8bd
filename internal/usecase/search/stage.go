package search

import (
	"context"

	"github.com/kailas-cloud/semdex/internal/domain/search/request"
	"github.com/kailas-cloud/semdex/internal/domain/search/result"
	"github.com/kailas-cloud/semdex/internal/similarity"
)

// Outcome tags how a stage ended.
type Outcome int

// Stage outcomes. Only Success stops the pipeline.
const (
	Success Outcome = iota
	Skip
	Fail
)

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case Skip:
		return "skip"
	default:
		return "fail"
	}
}

// StageResult is what one stage hands back to the orchestrator.
type StageResult struct {
	Outcome Outcome
	Results []result.Result
	Reason  string
}

// Stage is one step of the fallback ladder.
type Stage interface {
	Name() string
	Run(ctx context.Context, q *query) StageResult
}

// query is the per-request state shared by the stages.
type query struct {
	req   *request.Request
	terms similarity.Query
	embed Embedder
}

func succeeded(rs []result.Result) StageResult {
	return StageResult{Outcome: Success, Results: rs}
}

func skipped(reason string) StageResult {
	return StageResult{Outcome: Skip, Reason: reason}
}

func failed(reason string) StageResult {
	return StageResult{Outcome: Fail, Reason: reason}
}
