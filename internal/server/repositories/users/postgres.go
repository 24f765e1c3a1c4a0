package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/server/models"
)

// PostgresRepository implements user storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts an unverified user with its public key, KDF parameters, and
// email verification code.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, pk, salt, argon_mem, argon_time, argon_parallel, status, email_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PK, user.Salt, user.ArgonMem, user.ArgonTime, user.ArgonParallel,
		user.Status, user.EmailCode).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

const userColumns = `id, email, pk, enc_sk, enc_mk, pw_verifier, salt,
		argon_mem, argon_time, argon_parallel, status, email_code, has_eval_keys`

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(&user.ID, &user.Email, &user.PK, &user.EncSK, &user.EncMK,
		&user.PwVerifier, &user.Salt, &user.ArgonMem, &user.ArgonTime,
		&user.ArgonParallel, &user.Status, &user.EmailCode, &user.HasEvalKeys)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByIDAndEmail resolves a user by both token claims, so a stale token for a
// re-registered address can never resolve to the new account.
func (r *PostgresRepository) GetByIDAndEmail(ctx context.Context, id int64, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND email = $2`
	return scanUser(r.db.QueryRowContext(ctx, query, id, email))
}

// SetCredentials stores the password verifier and encrypted key material and
// marks the account verified.
func (r *PostgresRepository) SetCredentials(ctx context.Context, id int64, pwVerifier, encSK, encMK string) error {
	query := `
		UPDATE users SET pw_verifier = $2, enc_sk = $3, enc_mk = $4, status = $5
		WHERE id = $1
	`
	res, err := r.db.ExecContext(ctx, query, id, pwVerifier, encSK, encMK, models.UserStatusVerified)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) SetHasEvalKeys(ctx context.Context, id int64) error {
	query := `UPDATE users SET has_eval_keys = TRUE WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
