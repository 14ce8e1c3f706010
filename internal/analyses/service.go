package analyses

import (
	"context"
	"errors"
	"fmt"

	"healthspectrum-backend/internal/documents"
)

// DocumentGetter looks up a document for ownership and status checks.
type DocumentGetter interface {
	GetByID(ctx context.Context, userId, documentID string) (documents.Document, error)
}

// Service contains business logic for analysis results.
type Service struct {
	Repo AnalysesRepo
	Docs DocumentGetter
}

// ForDocument returns the analysis for a document the user owns. Until
// the document finishes processing no analysis exists and the lookup
// yields ErrNotFound.
func (s *Service) ForDocument(ctx context.Context, userId, documentID string) (Analysis, error) {
	if _, err := s.Docs.GetByID(ctx, userId, documentID); err != nil {
		return Analysis{}, err
	}
	return s.Repo.GetByDocument(ctx, userId, documentID)
}

// Results returns the completed analysis for a document. Documents that
// are still processing yield ErrNotReady wrapped with the current
// status; failed documents yield ErrNotReady with the failure message.
func (s *Service) Results(ctx context.Context, userId, documentID string) (Analysis, documents.Document, error) {
	doc, err := s.Docs.GetByID(ctx, userId, documentID)
	if err != nil {
		return Analysis{}, documents.Document{}, err
	}

	switch doc.Status {
	case documents.StatusDone:
	case documents.StatusFailed:
		msg := doc.Error
		if msg == "" {
			msg = "processing failed"
		}
		return Analysis{}, doc, fmt.Errorf("%w: %s", ErrNotReady, msg)
	default:
		return Analysis{}, doc, fmt.Errorf("%w: document is %s", ErrNotReady, doc.Status)
	}

	a, err := s.Repo.GetByDocument(ctx, userId, documentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			// A done document always carries an analysis; a miss here is
			// a data problem, not a client one.
			return Analysis{}, doc, fmt.Errorf("analysis missing for done document %s", documentID)
		}
		return Analysis{}, doc, err
	}
	return a, doc, nil
}
