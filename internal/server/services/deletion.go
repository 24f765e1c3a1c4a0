package services

import (
	"context"
	"database/sql"
	"errors"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/blobstore"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
)

// maxCascadeNodes caps how many folders a single cascade may visit, guarding
// against pathological trees.
const maxCascadeNodes = 100_000

var errCascadeTooLarge = errors.New("folder cascade exceeds node limit")

// DeletionService removes documents and folder subtrees. All row deletes of
// one request run in a single transaction; physical blob removal happens only
// after the commit and is best-effort, so a crash can orphan blobs but never
// rows pointing at missing data the other way around.
type DeletionService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  *blobstore.Store
	logger logging.Logger
}

func NewDeletionService(db *sql.DB, repos repomanager.RepositoryManager, blobs *blobstore.Store, logger logging.Logger) *DeletionService {
	return &DeletionService{db: db, repos: repos, blobs: blobs, logger: logger.With("module", "deletion")}
}

// DeleteFile removes one owned document: its index-vector rows, its file row,
// then (post-commit) the vector blobs and the ciphertext. A missing or
// foreign target aborts with ErrorNotFound before anything is touched.
func (s *DeletionService) DeleteFile(ctx context.Context, ownerID, fileID int64) error {
	var pending []string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repos.Files(tx).GetByID(ctx, ownerID, fileID); err != nil {
			return err
		}
		paths, err := s.deleteFileRows(ctx, tx, ownerID, fileID)
		if err != nil {
			return err
		}
		pending = paths
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, pending)
	return nil
}

// DeleteFolder removes an owned folder and everything beneath it. The walk is
// an explicit worklist, not recursion. Rows go first, children before
// parents, in one transaction; an already-gone target is a success so a
// retried request converges instead of failing.
func (s *DeletionService) DeleteFolder(ctx context.Context, ownerID, folderID int64) error {
	var pending []string

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		folderRepo := s.repos.Folders(tx)
		fileRepo := s.repos.Files(tx)

		// Discovery order: a child is always found after its parent, so the
		// reverse order deletes leaves first.
		var visited []int64
		stack := []int64{folderID}

		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
			if len(visited) >= maxCascadeNodes {
				return errCascadeTooLarge
			}

			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			if _, err := folderRepo.GetByID(ctx, ownerID, id); err != nil {
				if errors.Is(err, common.ErrorNotFound) {
					continue
				}
				return err
			}
			visited = append(visited, id)

			fileIDs, err := fileRepo.ListIDsByFolder(ctx, ownerID, id)
			if err != nil {
				return err
			}
			for _, fid := range fileIDs {
				paths, err := s.deleteFileRows(ctx, tx, ownerID, fid)
				if err != nil {
					return err
				}
				pending = append(pending, paths...)
			}

			children, err := folderRepo.ListChildIDs(ctx, ownerID, id)
			if err != nil {
				return err
			}
			stack = append(stack, children...)
		}

		for i := len(visited) - 1; i >= 0; i-- {
			if err := folderRepo.Delete(ctx, ownerID, visited[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.removeBlobs(ctx, pending)
	return nil
}

// deleteFileRows removes the index-vector rows and the file row of one
// document inside the caller's transaction and returns the blob paths whose
// physical removal is now owed. Vector rows go before the file row.
func (s *DeletionService) deleteFileRows(ctx context.Context, tx dbx.DBTX, ownerID, fileID int64) ([]string, error) {
	ivRepo := s.repos.IndexVectors(tx)

	ivs, err := ivRepo.ListByDoc(ctx, ownerID, fileID)
	if err != nil {
		return nil, err
	}

	paths := make([]string, 0, len(ivs)+1)
	for _, iv := range ivs {
		paths = append(paths, s.blobs.VectorPath(iv.VectorDir, iv.ID))
	}

	if err := ivRepo.DeleteByDoc(ctx, ownerID, fileID); err != nil {
		return nil, err
	}
	if err := s.repos.Files(tx).Delete(ctx, ownerID, fileID); err != nil {
		return nil, err
	}

	paths = append(paths, s.blobs.FilePath(ownerID, fileID))
	return paths, nil
}

// removeBlobs physically deletes blobs after the rows are gone. Failures are
// logged and swallowed: the rows no longer reference these paths, so a
// leftover blob is unreachable garbage, not an inconsistency a client can see.
func (s *DeletionService) removeBlobs(ctx context.Context, paths []string) {
	for _, p := range paths {
		if err := s.blobs.Delete(p); err != nil {
			s.logger.Warn(ctx, "blob removal failed", "path", p, "error", err)
		}
	}
}
