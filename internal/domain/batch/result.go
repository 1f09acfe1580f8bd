package batch

// ItemStatus is the processing outcome of a single item in a reindex run.
type ItemStatus string

// Item status values.
const (
	StatusUpdated ItemStatus = "updated"
	StatusSkipped ItemStatus = "skipped"
	StatusFailed  ItemStatus = "failed"
)

// Reason explains why an item was skipped or failed.
type Reason string

// Skip and failure reasons.
const (
	ReasonNone                Reason = ""
	ReasonNoContent           Reason = "no_content"
	ReasonProviderUnavailable Reason = "provider_unavailable"
	ReasonInvalidEmbedding    Reason = "invalid_embedding"
	ReasonStoreWriteFailed    Reason = "store_write_failed"
)

// Result is the outcome of processing one item in a batch operation.
type Result struct {
	key    string
	status ItemStatus
	reason Reason
	err    error
}

// NewUpdated creates a result for an item whose embedding was replaced.
func NewUpdated(key string) Result { return Result{key: key, status: StatusUpdated} }

// NewSkipped creates a result for an item that was intentionally not embedded.
func NewSkipped(key string, reason Reason) Result {
	return Result{key: key, status: StatusSkipped, reason: reason}
}

// NewFailed creates a result for an item that could not be embedded or stored.
func NewFailed(key string, reason Reason, err error) Result {
	return Result{key: key, status: StatusFailed, reason: reason, err: err}
}

// Key returns the item key.
func (r Result) Key() string { return r.key }

// Status returns the processing outcome.
func (r Result) Status() ItemStatus { return r.status }

// Reason returns the skip or failure reason.
func (r Result) Reason() Reason { return r.reason }

// Err returns the error, if any.
func (r Result) Err() error { return r.err }

// Summary counts outcomes across a batch.
type Summary struct {
	Updated int
	Skipped int
	Failed  int
}

// Summarize counts outcomes of the given results.
func Summarize(results []Result) Summary {
	var s Summary
	for _, r := range results {
		switch r.status {
		case StatusUpdated:
			s.Updated++
		case StatusSkipped:
			s.Skipped++
		case StatusFailed:
			s.Failed++
		}
	}
	return s
}
