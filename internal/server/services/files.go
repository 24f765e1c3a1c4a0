package services

import (
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/blobstore"
	"github.com/hevault-io/hevault/internal/server/models"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
)

// FileService stores and serves encrypted documents together with their
// per-dictionary index vectors.
type FileService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  *blobstore.Store
	logger logging.Logger
}

func NewFileService(db *sql.DB, repos repomanager.RepositoryManager, blobs *blobstore.Store, logger logging.Logger) *FileService {
	return &FileService{db: db, repos: repos, blobs: blobs, logger: logger.With("module", "files")}
}

type pendingBlob struct {
	path string
	data io.Reader
}

// Upload persists one encrypted document and one index vector per named
// dictionary version. The versions and vectors lists must pair up one-to-one;
// a mismatch is rejected before anything is persisted. All rows are created in
// a single transaction; blob writes follow the commit because vector paths
// need the generated row ids.
func (s *FileService) Upload(ctx context.Context, ownerID, folderID int64, cipherTitle, mime string, encFile io.Reader, versions []int, vectors []io.Reader) (*models.File, error) {
	if len(versions) != len(vectors) {
		return nil, common.ErrorConflict
	}

	if folderID != models.RootFolderID {
		if _, err := s.repos.Folders(s.db).GetByID(ctx, ownerID, folderID); err != nil {
			return nil, err
		}
	}

	dictRepo := s.repos.Dictionaries(s.db)
	dicts := make([]*models.Dictionary, len(versions))
	for i, v := range versions {
		dict, err := dictRepo.GetByVersion(ctx, ownerID, v)
		if err != nil {
			return nil, err
		}
		dicts[i] = dict
	}

	var created *models.File
	var pending []pendingBlob

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		file, err := s.repos.Files(tx).Create(ctx, &models.File{
			OwnerID:     ownerID,
			FolderID:    folderID,
			CipherTitle: cipherTitle,
			StoragePath: s.blobs.FileDir(ownerID),
			Mime:        mime,
		})
		if err != nil {
			return err
		}
		created = file
		pending = append(pending, pendingBlob{path: s.blobs.FilePath(ownerID, file.ID), data: encFile})

		ivRepo := s.repos.IndexVectors(tx)
		for i, dict := range dicts {
			vectorDir := s.blobs.VectorDir(ownerID, dict.Version)
			iv, err := ivRepo.Create(ctx, &models.IndexVector{
				OwnerID:   ownerID,
				DocID:     file.ID,
				DictID:    dict.ID,
				VectorDir: vectorDir,
			})
			if err != nil {
				return err
			}
			pending = append(pending, pendingBlob{path: s.blobs.VectorPath(vectorDir, iv.ID), data: vectors[i]})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range pending {
		if err := s.blobs.Write(b.path, b.data); err != nil {
			s.logger.Error(ctx, "blob write failed after commit", "path", b.path, "error", err)
			return nil, common.ErrorInternal
		}
	}

	return created, nil
}

// Info returns the metadata of one owned document.
func (s *FileService) Info(ctx context.Context, ownerID, fileID int64) (*models.File, error) {
	return s.repos.Files(s.db).GetByID(ctx, ownerID, fileID)
}

// Download opens the ciphertext blob of one owned document. The caller must
// close the reader.
func (s *FileService) Download(ctx context.Context, ownerID, fileID int64) (*models.File, io.ReadCloser, error) {
	file, err := s.repos.Files(s.db).GetByID(ctx, ownerID, fileID)
	if err != nil {
		return nil, nil, err
	}

	blob, err := s.blobs.Open(s.blobs.FilePath(ownerID, fileID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, common.ErrorNotFound
		}
		return nil, nil, err
	}
	return file, blob, nil
}
