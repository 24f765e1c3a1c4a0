package folders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/models"
)

// PostgresRepository implements folder storage over a dbx.DBTX (*sql.DB or *sql.Tx).
//
// The logical root (id 0) is stored as a NULL parent_id; queries translate in
// both directions with NULLIF/COALESCE so callers only ever see id 0.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	query := `
		INSERT INTO folders (owner_id, enc_name, parent_id)
		VALUES ($1, $2, NULLIF($3, 0))
		RETURNING id, created_at
	`
	err := r.db.QueryRowContext(ctx, query, folder.OwnerID, folder.EncName, folder.ParentID).
		Scan(&folder.ID, &folder.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.Folder, error) {
	query := `
		SELECT id, owner_id, enc_name, COALESCE(parent_id, 0), created_at FROM folders
		WHERE owner_id = $1 AND id = $2
	`
	folder := &models.Folder{}
	err := r.db.QueryRowContext(ctx, query, ownerID, id).
		Scan(&folder.ID, &folder.OwnerID, &folder.EncName, &folder.ParentID, &folder.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return folder, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, ownerID, parentID int64) ([]*models.Folder, error) {
	query := `
		SELECT id, owner_id, enc_name, COALESCE(parent_id, 0), created_at FROM folders
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM NULLIF($2, 0)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select folders: %w", err)
	}
	defer rows.Close()

	var result []*models.Folder
	for rows.Next() {
		var item models.Folder
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.EncName, &item.ParentID, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListChildIDs(ctx context.Context, ownerID, parentID int64) ([]int64, error) {
	query := `
		SELECT id FROM folders
		WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM NULLIF($2, 0)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("failed to select folder ids: %w", err)
	}
	defer rows.Close()

	var result []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the folder row. Zero rows affected is not an error: the
// cascade retry path may delete a folder that is already gone.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM folders WHERE owner_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return nil
}
