// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ItemState is the lifecycle of a single batch item:
// queued -> running -> succeeded | failed.
type ItemState string

const (
	ItemQueued    ItemState = "queued"
	ItemRunning   ItemState = "running"
	ItemSucceeded ItemState = "succeeded"
	ItemFailed    ItemState = "failed"
)

// BatchStatus is the pool-level outcome, decided when all items have settled:
// zero failures is Completed, a success rate above 0.5 is PartiallyCompleted,
// anything worse is Failed.
type BatchStatus string

const (
	BatchReady              BatchStatus = "ready"
	BatchProcessing         BatchStatus = "processing"
	BatchCompleted          BatchStatus = "completed"
	BatchPartiallyCompleted BatchStatus = "partially_completed"
	BatchFailed             BatchStatus = "failed"
)

// ItemResult is the settled outcome of one batch item, in submission order.
type ItemResult struct {
	// Index is the item's position in the submitted document list.
	Index int

	// State is the terminal item state.
	State ItemState

	// Result is the pipeline output; nil unless State is ItemSucceeded.
	Result *AnnotatedDocument

	// Err is the failure cause; nil unless State is ItemFailed.
	Err error
}

// ItemFailure pairs a submission index with its error.
type ItemFailure struct {
	Index int
	Err   error
}

// BatchResult aggregates a batch run. Successes and Failures preserve the
// original submission order regardless of completion order.
type BatchResult struct {
	// Items holds every item's settled outcome, indexed by submission
	// order.
	Items []ItemResult

	// Successes lists the outputs of succeeded items, submission-ordered.
	Successes []*AnnotatedDocument

	// Failures lists (index, error) pairs for failed items,
	// submission-ordered.
	Failures []ItemFailure

	// Succeeded and Failed count settled items by outcome.
	Succeeded int
	Failed    int

	// Retries counts generator retries observed across the whole batch.
	Retries int

	// Status is the pool-level outcome.
	Status BatchStatus
}

// SuccessRate returns the fraction of items that succeeded, or 0 for an
// empty batch.
func (r *BatchResult) SuccessRate() float64 {
	total := r.Succeeded + r.Failed
	if total == 0 {
		return 0
	}
	return float64(r.Succeeded) / float64(total)
}
