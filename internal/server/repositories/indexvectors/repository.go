package indexvectors

import (
	"context"

	"github.com/hevault-io/hevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, iv *models.IndexVector) (*models.IndexVector, error)
	GetByID(ctx context.Context, ownerID, id int64) (*models.IndexVector, error)
	ListByDoc(ctx context.Context, ownerID, docID int64) ([]*models.IndexVector, error)
	DeleteByDoc(ctx context.Context, ownerID, docID int64) error
}
