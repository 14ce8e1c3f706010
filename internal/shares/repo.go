package shares

import "context"

// SharesRepo is the persistence contract for share tokens.
type SharesRepo interface {
	Create(ctx context.Context, s Share) error
	GetByToken(ctx context.Context, token string) (Share, error)
}
