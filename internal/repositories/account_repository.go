package repositories

import (
	"context"

	"github.com/videotube/backend/internal/models"
)

// AccountRepository defines the data access contract for accounts. It also satisfies
// auth.CredentialStore.
type AccountRepository interface {
	Create(ctx context.Context, account models.Account) error
	FindByLogin(ctx context.Context, login string) (models.Account, error)
	FindByID(ctx context.Context, accountID string) (models.Account, error)
	SetRefreshToken(ctx context.Context, accountID, token string) error
	SwapRefreshToken(ctx context.Context, accountID, current, next string) (bool, error)
	ClearRefreshToken(ctx context.Context, accountID string) error
	RecordView(ctx context.Context, accountID, videoID string) error
}
