// Package services contains the server-side business logic: account flows,
// folder/file management, dictionary handling, the cascade deletion engine,
// and search planning.
package services

import (
	"context"
	"database/sql"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/auth"
	"github.com/hevault-io/hevault/internal/server/blobstore"
	"github.com/hevault-io/hevault/internal/server/config"
	"github.com/hevault-io/hevault/internal/server/models"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
)

// KDFParams is returned to the client after email verification so it can
// derive the password verifier locally.
type KDFParams struct {
	Salt          string
	ArgonMem      int
	ArgonTime     int
	ArgonParallel int
}

// LoginResult bundles the access token with the stored key material the
// client needs to unlock its vault.
type LoginResult struct {
	AccessToken   string
	PK            string
	EncSK         string
	EncMK         string
	Salt          string
	ArgonMem      int
	ArgonTime     int
	ArgonParallel int
}

// UserService handles registration, login, token authentication, and
// evaluation-key storage.
type UserService struct {
	db                          *sql.DB
	repos                       repomanager.RepositoryManager
	blobs                       *blobstore.Store
	logger                      logging.Logger
	jwtSecret                   []byte
	accessTokenValidityDuration time.Duration
}

func NewUserService(db *sql.DB, repos repomanager.RepositoryManager, blobs *blobstore.Store, cfg *config.Config, logger logging.Logger) *UserService {
	return &UserService{
		db:                          db,
		repos:                       repos,
		blobs:                       blobs,
		logger:                      logger.With("module", "users"),
		jwtSecret:                   []byte(cfg.SecretKey),
		accessTokenValidityDuration: cfg.AccessTokenValidityDuration,
	}
}

// RegisterEmail creates an unverified account holding the homomorphic public
// key, fresh KDF parameters, and a 6-digit email code. The code goes to the
// operational log; mail delivery is outside this server.
func (s *UserService) RegisterEmail(ctx context.Context, email, pk string) error {
	repo := s.repos.Users(s.db)

	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return common.ErrorConflict
	} else if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	code, err := common.MakeNumericCode(6)
	if err != nil {
		return common.ErrorInternal
	}

	user := &models.User{
		Email:         email,
		PK:            pk,
		Salt:          base64.StdEncoding.EncodeToString(common.GenerateRandByteArray(16)),
		ArgonMem:      auth.DefaultArgonMem,
		ArgonTime:     auth.DefaultArgonTime,
		ArgonParallel: auth.DefaultArgonParallel,
		Status:        models.UserStatusUnverified,
		EmailCode:     code,
	}

	if _, err := repo.Create(ctx, user); err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "verification code issued", "email", email, "code", code)
	return nil
}

// VerifyEmail checks the emailed code and hands back the KDF parameters the
// client needs to derive its verifier.
func (s *UserService) VerifyEmail(ctx context.Context, email, code string) (*KDFParams, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.EmailCode == "" || user.EmailCode != code {
		return nil, common.ErrorUnauthorized
	}
	return &KDFParams{
		Salt:          user.Salt,
		ArgonMem:      user.ArgonMem,
		ArgonTime:     user.ArgonTime,
		ArgonParallel: user.ArgonParallel,
	}, nil
}

// SetPassword finishes registration: the verifier is derived server-side from
// the password and stored KDF parameters, and the client's encrypted key
// material is persisted alongside it.
func (s *UserService) SetPassword(ctx context.Context, email, password, encSK, encMK string) error {
	repo := s.repos.Users(s.db)

	user, err := repo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}

	verifier, err := auth.ComputeVerifier(password, user.Salt, user.ArgonTime, user.ArgonMem, user.ArgonParallel)
	if err != nil {
		return common.ErrorInternal
	}

	return repo.SetCredentials(ctx, user.ID, verifier, encSK, encMK)
}

// Login verifies the password against the stored argon2id verifier and mints
// an access token.
func (s *UserService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.repos.Users(s.db).GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status != models.UserStatusVerified {
		return nil, common.ErrUserNotVerified
	}

	candidate, err := auth.ComputeVerifier(password, user.Salt, user.ArgonTime, user.ArgonMem, user.ArgonParallel)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !auth.CheckVerifier(user.PwVerifier, candidate) {
		return nil, common.ErrorUnauthorized
	}

	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}

	return &LoginResult{
		AccessToken:   token,
		PK:            user.PK,
		EncSK:         user.EncSK,
		EncMK:         user.EncMK,
		Salt:          user.Salt,
		ArgonMem:      user.ArgonMem,
		ArgonTime:     user.ArgonTime,
		ArgonParallel: user.ArgonParallel,
	}, nil
}

// Authenticate resolves a bearer token to its user. Token parse failures map
// to ErrInvalidToken; a token whose identity no longer exists maps to
// ErrorNotFound. Both are distinguished by the search stream's close codes.
func (s *UserService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := auth.ParseToken(token, s.jwtSecret)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	return s.repos.Users(s.db).GetByIDAndEmail(ctx, claims.UserID, claims.Email)
}

// StoreEvalKeys writes the relinearization and Galois keys into the owner's
// key directory and marks the account as search-capable.
func (s *UserService) StoreEvalKeys(ctx context.Context, ownerID int64, relin, galois io.Reader) error {
	keysDir := s.blobs.KeysDir(ownerID)

	if err := s.blobs.Write(filepath.Join(keysDir, blobstore.RelinKeysFileName), relin); err != nil {
		return err
	}
	if err := s.blobs.Write(filepath.Join(keysDir, blobstore.GaloisKeysFileName), galois); err != nil {
		return err
	}

	return s.repos.Users(s.db).SetHasEvalKeys(ctx, ownerID)
}
