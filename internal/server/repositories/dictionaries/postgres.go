package dictionaries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/models"
)

// PostgresRepository implements dictionary storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) GetByVersion(ctx context.Context, ownerID int64, version int) (*models.Dictionary, error) {
	query := `
		SELECT id, owner_id, version, enc_vocab, scheme, poly_degree, slot_count, encoding, created_at
		FROM dictionaries
		WHERE owner_id = $1 AND version = $2
	`
	dict := &models.Dictionary{}
	err := r.db.QueryRowContext(ctx, query, ownerID, version).
		Scan(&dict.ID, &dict.OwnerID, &dict.Version, &dict.EncVocab,
			&dict.Scheme, &dict.PolyDegree, &dict.SlotCount, &dict.Encoding, &dict.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return dict, nil
}

func (r *PostgresRepository) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Dictionary, error) {
	query := `
		SELECT id, owner_id, version, enc_vocab, scheme, poly_degree, slot_count, encoding, created_at
		FROM dictionaries
		WHERE owner_id = $1
		ORDER BY version
	`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to select dictionaries: %w", err)
	}
	defer rows.Close()

	var result []*models.Dictionary
	for rows.Next() {
		var item models.Dictionary
		if err := rows.Scan(&item.ID, &item.OwnerID, &item.Version, &item.EncVocab,
			&item.Scheme, &item.PolyDegree, &item.SlotCount, &item.Encoding, &item.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Upsert inserts a dictionary version or, when (owner_id, version) already
// exists, overwrites the vocabulary blob in place. Scheme parameters are fixed
// at first upload; a re-upload only refreshes the blob.
func (r *PostgresRepository) Upsert(ctx context.Context, dict *models.Dictionary) error {
	query := `
		INSERT INTO dictionaries (owner_id, version, enc_vocab, scheme, poly_degree, slot_count, encoding)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (owner_id, version)
		DO UPDATE SET enc_vocab = EXCLUDED.enc_vocab
	`
	if _, err := r.db.ExecContext(ctx, query,
		dict.OwnerID, dict.Version, dict.EncVocab,
		dict.Scheme, dict.PolyDegree, dict.SlotCount, dict.Encoding); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
