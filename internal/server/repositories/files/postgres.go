package files

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx). A zero folder id is stored as NULL (root).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, file *models.File) (*models.File, error) {
	query := `
		INSERT INTO files (owner_id, folder_id, cipher_title, storage_path, mime)
		VALUES ($1, NULLIF($2, 0), $3, $4, $5)
		RETURNING id, uploaded_at
	`
	err := r.db.QueryRowContext(ctx, query,
		file.OwnerID, file.FolderID, file.CipherTitle, file.StoragePath, file.Mime).
		Scan(&file.ID, &file.UploadedAt)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.File, error) {
	query := `
		SELECT id, owner_id, COALESCE(folder_id, 0), cipher_title, storage_path, mime, uploaded_at
		FROM files
		WHERE owner_id = $1 AND id = $2
	`
	file := &models.File{}
	err := r.db.QueryRowContext(ctx, query, ownerID, id).
		Scan(&file.ID, &file.OwnerID, &file.FolderID, &file.CipherTitle,
			&file.StoragePath, &file.Mime, &file.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

func (r *PostgresRepository) ListByFolder(ctx context.Context, ownerID, folderID int64) ([]*models.File, error) {
	query := `
		SELECT id, owner_id, COALESCE(folder_id, 0), cipher_title, storage_path, mime, uploaded_at
		FROM files
		WHERE owner_id = $1 AND folder_id IS NOT DISTINCT FROM NULLIF($2, 0)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		var item models.File
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.FolderID, &item.CipherTitle,
			&item.StoragePath, &item.Mime, &item.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) ListIDsByFolder(ctx context.Context, ownerID, folderID int64) ([]int64, error) {
	query := `
		SELECT id FROM files
		WHERE owner_id = $1 AND folder_id IS NOT DISTINCT FROM NULLIF($2, 0)
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, folderID)
	if err != nil {
		return nil, fmt.Errorf("failed to select file ids: %w", err)
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

// Delete removes the file row. Zero rows affected is not an error: the
// cascade retry path may delete a file that is already gone.
func (r *PostgresRepository) Delete(ctx context.Context, ownerID, id int64) error {
	query := `DELETE FROM files WHERE owner_id = $1 AND id = $2`
	if _, err := r.db.ExecContext(ctx, query, ownerID, id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
