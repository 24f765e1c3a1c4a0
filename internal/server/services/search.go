package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/blobstore"
	"github.com/hevault-io/hevault/internal/server/engine"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
)

// SearchItem names one requested unit of search work: an uploaded query blob
// against one dictionary version.
type SearchItem struct {
	QueryID     string `json:"query_id"`
	DictVersion int    `json:"dict_version"`
}

// SearchService turns uploaded encrypted queries into executable engine jobs
// and maps engine output back to documents.
type SearchService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	blobs  *blobstore.Store
	logger logging.Logger
}

func NewSearchService(db *sql.DB, repos repomanager.RepositoryManager, blobs *blobstore.Store, logger logging.Logger) *SearchService {
	return &SearchService{db: db, repos: repos, blobs: blobs, logger: logger.With("module", "search")}
}

// SaveQueries stores one encrypted query blob per dictionary version under a
// fresh server-generated id. The versions and blobs lists must pair up
// one-to-one; a mismatch is rejected before anything is written.
func (s *SearchService) SaveQueries(ctx context.Context, ownerID int64, versions []int, blobs []io.Reader) ([]SearchItem, error) {
	if len(versions) != len(blobs) {
		return nil, common.ErrorConflict
	}

	items := make([]SearchItem, 0, len(versions))
	for i, v := range versions {
		qid := uuid.NewString()
		if err := s.blobs.Write(s.blobs.QueryPath(ownerID, qid), blobs[i]); err != nil {
			return nil, err
		}
		items = append(items, SearchItem{QueryID: qid, DictVersion: v})
	}
	return items, nil
}

// Plan validates the requested items in order and resolves each valid one
// into an engine job. Items that cannot be planned are skipped, reported
// through onItemError, and never abort the rest of the plan; an error
// returned by onItemError itself does abort, since it means the report could
// not be delivered.
func (s *SearchService) Plan(ctx context.Context, ownerID int64, items []SearchItem, onItemError func(msg string) error) ([]engine.Job, error) {
	dictRepo := s.repos.Dictionaries(s.db)

	var jobs []engine.Job
	for _, item := range items {
		dict, err := dictRepo.GetByVersion(ctx, ownerID, item.DictVersion)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				if rerr := onItemError(fmt.Sprintf("dictionary version %d not found", item.DictVersion)); rerr != nil {
					return nil, rerr
				}
				continue
			}
			return nil, err
		}

		queryPath := s.blobs.QueryPath(ownerID, item.QueryID)
		if !s.blobs.Exists(queryPath) {
			if rerr := onItemError(fmt.Sprintf("query %s not found", item.QueryID)); rerr != nil {
				return nil, rerr
			}
			continue
		}

		jobs = append(jobs, engine.Job{
			QueryPath:   queryPath,
			VectorDir:   s.blobs.VectorDir(ownerID, dict.Version),
			DictVersion: dict.Version,
			PolyDegree:  dict.PolyDegree,
			KeysDir:     s.blobs.KeysDir(ownerID),
		})
	}
	return jobs, nil
}

// ResolveRecord maps an engine-local index-vector id to the owning document.
// Unknown ids resolve to ok=false: the vector may have been deleted while the
// engine was running, which is not an error worth breaking a stream over.
func (s *SearchService) ResolveRecord(ctx context.Context, ownerID int64, rec engine.Record) (fileID int64, ok bool, err error) {
	iv, err := s.repos.IndexVectors(s.db).GetByID(ctx, ownerID, rec.IndexID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "engine returned unknown index vector", "index_id", rec.IndexID)
			return 0, false, nil
		}
		return 0, false, err
	}
	return iv.DocID, true, nil
}
