package analyses

import "context"

// AnalysesRepo is the persistence contract for analyses. At most one
// analysis exists per document.
type AnalysesRepo interface {
	Create(ctx context.Context, a Analysis) error
	// GetByDocument fetches the analysis for a document owned by the user.
	GetByDocument(ctx context.Context, userId, documentID string) (Analysis, error)
	// GetByDocumentID fetches the analysis regardless of owner. Used by
	// share-link resolution, which authorizes via the token instead.
	GetByDocumentID(ctx context.Context, documentID string) (Analysis, error)
	// DeleteByDocument removes the analysis for a document, if any.
	DeleteByDocument(ctx context.Context, documentID string) error
}
