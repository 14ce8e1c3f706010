package documents

import "context"

// DocumentsRepo is the persistence contract for documents.
//
// AdvanceStatus, MarkFailed and ResetForRetry are conditional writes:
// they apply only when the row is still in the expected state and
// report whether the write happened. Concurrent cancel and pipeline
// progress race through these predicates rather than through locks.
type DocumentsRepo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, userId, documentID string) (Document, error)
	History(ctx context.Context, userId string, filter HistoryFilter) ([]Document, int, error)

	// AdvanceStatus moves documentID from->to and sets the stage ETA.
	// Returns false when the document is no longer in the from status.
	AdvanceStatus(ctx context.Context, documentID string, from, to Status, etaSeconds int) (bool, error)

	// MarkFailed sets status=failed with an error message unless the
	// document is already terminal. Returns false when it was.
	MarkFailed(ctx context.Context, documentID, errMsg string) (bool, error)

	// ResetForRetry moves a failed document back to uploaded, clearing
	// its error. Returns false when the document is not failed.
	ResetForRetry(ctx context.Context, userId, documentID string, etaSeconds int) (bool, error)
}
