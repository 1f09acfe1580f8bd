package semdex

import (
	"context"
	"time"

	domusage "github.com/kailas-cloud/semdex/internal/domain/usage"
)

// UsagePeriod is the aggregation granularity for usage reports.
type UsagePeriod string

// UsagePeriod constants.
const (
	PeriodDay   UsagePeriod = "day"
	PeriodMonth UsagePeriod = "month"
)

// UsageReport contains remote embedding usage for a time period.
type UsageReport struct {
	Provider    string
	Period      UsagePeriod
	PeriodStart time.Time
	PeriodEnd   time.Time
	TokensUsed  int64
	Budget      BudgetStatus
}

// BudgetStatus tracks token quota state.
type BudgetStatus struct {
	TokensLimit     int64
	TokensRemaining int64
	Unlimited       bool
	IsExhausted     bool
	ResetsAt        time.Time
}

// Usage returns remote token usage for the given period. Counters live in
// memory, so they start at zero with each Client. Without WithOpenAI the
// report is empty and unlimited.
// Observer always records success: the underlying use-case is in-memory
// and does not produce errors.
func (c *Client) Usage(ctx context.Context, period UsagePeriod) UsageReport {
	defer c.obs.track("usage", time.Now(), nil)

	report := c.usageSvc.GetReport(ctx, domusage.Period(period))
	b := report.Budget()

	return UsageReport{
		Provider:    report.Provider(),
		Period:      UsagePeriod(report.Period()),
		PeriodStart: time.UnixMilli(report.PeriodStart()).UTC(),
		PeriodEnd:   time.UnixMilli(report.PeriodEnd()).UTC(),
		TokensUsed:  report.TokensUsed(),
		Budget: BudgetStatus{
			TokensLimit:     b.TokensLimit(),
			TokensRemaining: b.TokensRemaining(),
			Unlimited:       b.Unlimited(),
			IsExhausted:     b.IsExhausted(),
			ResetsAt:        time.UnixMilli(b.ResetsAt()).UTC(),
		},
	}
}
