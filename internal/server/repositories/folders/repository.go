package folders

import (
	"context"

	"github.com/hevault-io/hevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, folder *models.Folder) (*models.Folder, error)
	GetByID(ctx context.Context, ownerID, id int64) (*models.Folder, error)
	ListChildren(ctx context.Context, ownerID, parentID int64) ([]*models.Folder, error)
	ListChildIDs(ctx context.Context, ownerID, parentID int64) ([]int64, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
