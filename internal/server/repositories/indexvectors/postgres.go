package indexvectors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/models"
)

// PostgresRepository implements index-vector storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, iv *models.IndexVector) (*models.IndexVector, error) {
	query := `
		INSERT INTO index_vectors (owner_id, doc_id, dict_id, vector_dir)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query, iv.OwnerID, iv.DocID, iv.DictID, iv.VectorDir).
		Scan(&iv.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return iv, nil
}

// GetByID maps an engine-emitted index id back to its row, scoped to owner so
// a forged id can never cross accounts.
func (r *PostgresRepository) GetByID(ctx context.Context, ownerID, id int64) (*models.IndexVector, error) {
	query := `
		SELECT id, owner_id, doc_id, dict_id, vector_dir FROM index_vectors
		WHERE owner_id = $1 AND id = $2
	`
	iv := &models.IndexVector{}
	err := r.db.QueryRowContext(ctx, query, ownerID, id).
		Scan(&iv.ID, &iv.OwnerID, &iv.DocID, &iv.DictID, &iv.VectorDir)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return iv, nil
}

func (r *PostgresRepository) ListByDoc(ctx context.Context, ownerID, docID int64) ([]*models.IndexVector, error) {
	query := `
		SELECT id, owner_id, doc_id, dict_id, vector_dir FROM index_vectors
		WHERE owner_id = $1 AND doc_id = $2
		ORDER BY id
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to select index vectors: %w", err)
	}
	defer rows.Close()

	var result []*models.IndexVector
	for rows.Next() {
		var item models.IndexVector
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.DocID, &item.DictID, &item.VectorDir); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteByDoc bulk-removes all index-vector rows of one document. Zero rows
// affected is fine; retried deletes hit this path.
func (r *PostgresRepository) DeleteByDoc(ctx context.Context, ownerID, docID int64) error {
	query := `DELETE FROM index_vectors WHERE owner_id = $1 AND doc_id = $2`
	if _, err := r.db.ExecContext(ctx, query, ownerID, docID); err != nil {
		return fmt.Errorf("failed to delete index vectors: %w", err)
	}
	return nil
}
