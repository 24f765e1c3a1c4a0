package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/server/models"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
)

// maxFolderDepth bounds the parent-chain walk. The tree invariant makes cycles
// impossible, but a corrupted row must not spin the server.
const maxFolderDepth = 4096

// PathEntry is one step of a folder's path from the root. The root entry has
// id zero and no name.
type PathEntry struct {
	FolderID int64
	EncName  string
}

// FolderListing is the content of one folder: its direct subfolders and files.
type FolderListing struct {
	Folders []*models.Folder
	Files   []*models.File
}

// FolderService manages the per-owner folder tree.
type FolderService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewFolderService(db *sql.DB, repos repomanager.RepositoryManager) *FolderService {
	return &FolderService{db: db, repos: repos}
}

// Create adds a folder under the given parent. A non-root parent must exist
// and belong to the owner.
func (s *FolderService) Create(ctx context.Context, ownerID, parentID int64, encName string) (*models.Folder, error) {
	repo := s.repos.Folders(s.db)

	if parentID != models.RootFolderID {
		if _, err := repo.GetByID(ctx, ownerID, parentID); err != nil {
			return nil, err
		}
	}

	return repo.Create(ctx, &models.Folder{
		OwnerID:  ownerID,
		ParentID: parentID,
		EncName:  encName,
	})
}

// List returns the direct subfolders and files of a folder. The root (id 0)
// always lists; any other folder must exist and belong to the owner.
func (s *FolderService) List(ctx context.Context, ownerID, folderID int64) (*FolderListing, error) {
	folderRepo := s.repos.Folders(s.db)

	if folderID != models.RootFolderID {
		if _, err := folderRepo.GetByID(ctx, ownerID, folderID); err != nil {
			return nil, err
		}
	}

	subfolders, err := folderRepo.ListChildren(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repos.Files(s.db).ListByFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}

	return &FolderListing{Folders: subfolders, Files: docs}, nil
}

// Path reconstructs the chain from the root to the given folder, root first.
// Encrypted names are returned as stored; the client decrypts them to render
// breadcrumbs.
func (s *FolderService) Path(ctx context.Context, ownerID, folderID int64) ([]PathEntry, error) {
	root := PathEntry{FolderID: models.RootFolderID}
	if folderID == models.RootFolderID {
		return []PathEntry{root}, nil
	}

	repo := s.repos.Folders(s.db)

	var chain []PathEntry
	for id := folderID; id != models.RootFolderID; {
		if len(chain) >= maxFolderDepth {
			return nil, fmt.Errorf("folder %d: %w", folderID, errFolderChainTooDeep)
		}
		folder, err := repo.GetByID(ctx, ownerID, id)
		if err != nil {
			// A missing intermediate node means the tree changed underneath us.
			if len(chain) > 0 && errors.Is(err, common.ErrorNotFound) {
				return nil, common.ErrorInternal
			}
			return nil, err
		}
		chain = append(chain, PathEntry{FolderID: folder.ID, EncName: folder.EncName})
		id = folder.ParentID
	}

	// walked leaf-to-root, flip to root-first
	path := make([]PathEntry, 0, len(chain)+1)
	path = append(path, root)
	for i := len(chain) - 1; i >= 0; i-- {
		path = append(path, chain[i])
	}
	return path, nil
}

var errFolderChainTooDeep = errors.New("folder chain exceeds depth limit")
