package files

import (
	"context"

	"github.com/hevault-io/hevault/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, file *models.File) (*models.File, error)
	GetByID(ctx context.Context, ownerID, id int64) (*models.File, error)
	ListByFolder(ctx context.Context, ownerID, folderID int64) ([]*models.File, error)
	ListIDsByFolder(ctx context.Context, ownerID, folderID int64) ([]int64, error)
	Delete(ctx context.Context, ownerID, id int64) error
}
