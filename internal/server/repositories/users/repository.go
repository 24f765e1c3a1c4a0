package users

import (
	"context"

	"github.com/hevault-io/hevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByIDAndEmail(ctx context.Context, id int64, email string) (*models.User, error)
	SetCredentials(ctx context.Context, id int64, pwVerifier, encSK, encMK string) error
	SetHasEvalKeys(ctx context.Context, id int64) error
}
