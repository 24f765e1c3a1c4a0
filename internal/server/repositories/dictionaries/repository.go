package dictionaries

import (
	"context"

	"github.com/hevault-io/hevault/internal/server/models"
)

type Repository interface {
	GetByVersion(ctx context.Context, ownerID int64, version int) (*models.Dictionary, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]*models.Dictionary, error)
	Upsert(ctx context.Context, dict *models.Dictionary) error
}
