package shares

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"healthspectrum-backend/internal/analyses"
	"healthspectrum-backend/internal/documents"
)

// DocumentGetter looks up a document for ownership checks and share
// resolution.
type DocumentGetter interface {
	GetByID(ctx context.Context, userId, documentID string) (documents.Document, error)
}

// AnalysisGetter fetches an analysis by document for share resolution.
type AnalysisGetter interface {
	GetByDocumentID(ctx context.Context, documentID string) (analyses.Analysis, error)
}

// Service contains business logic for share links.
type Service struct {
	Repo     SharesRepo
	Docs     DocumentGetter
	Analyses AnalysisGetter
	// BaseURL is the UI origin the share URL points at.
	BaseURL string
}

// CreateLink mints a share token for a document the user owns and
// returns the share plus the URL to hand out.
func (s *Service) CreateLink(ctx context.Context, userId, documentID string) (Share, string, error) {
	if _, err := s.Docs.GetByID(ctx, userId, documentID); err != nil {
		return Share{}, "", err
	}

	token, err := newToken()
	if err != nil {
		return Share{}, "", err
	}

	now := time.Now().UTC()
	share := Share{
		Token:      token,
		DocumentID: documentID,
		UserID:     userId,
		ExpiresAt:  now.Add(TokenTTL),
		CreatedAt:  now,
	}
	if err := s.Repo.Create(ctx, share); err != nil {
		return Share{}, "", err
	}

	return share, s.shareURL(token), nil
}

// Resolve exchanges a share token for the document and, when the
// document has finished processing, its analysis. Callers are
// authorized by the token alone.
func (s *Service) Resolve(ctx context.Context, token string) (documents.Document, *analyses.Analysis, error) {
	share, err := s.Repo.GetByToken(ctx, strings.TrimSpace(token))
	if err != nil {
		return documents.Document{}, nil, err
	}
	if share.Expired(time.Now().UTC()) {
		return documents.Document{}, nil, ErrExpired
	}

	doc, err := s.Docs.GetByID(ctx, share.UserID, share.DocumentID)
	if err != nil {
		return documents.Document{}, nil, err
	}

	if doc.Status != documents.StatusDone {
		return doc, nil, nil
	}
	a, err := s.Analyses.GetByDocumentID(ctx, share.DocumentID)
	if err != nil {
		if errors.Is(err, analyses.ErrNotFound) {
			return doc, nil, nil
		}
		return documents.Document{}, nil, err
	}
	return doc, &a, nil
}

func (s *Service) shareURL(token string) string {
	base := strings.TrimRight(s.BaseURL, "/")
	return fmt.Sprintf("%s/shared/%s", base, token)
}

func newToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
