package services

import (
	"context"
	"database/sql"

	"github.com/hevault-io/hevault/internal/server/models"
	"github.com/hevault-io/hevault/internal/server/repositories/repomanager"
)

// DictionaryEntry is one uploaded vocabulary version with optional scheme
// parameter overrides; zero values fall back to the defaults.
type DictionaryEntry struct {
	Version    int
	EncVocab   []byte
	Scheme     string
	PolyDegree int
	SlotCount  int
	Encoding   string
}

// DictionaryService manages versioned encrypted vocabularies.
type DictionaryService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewDictionaryService(db *sql.DB, repos repomanager.RepositoryManager) *DictionaryService {
	return &DictionaryService{db: db, repos: repos}
}

// Upload upserts the given vocabulary versions. An existing version only gets
// its blob replaced; scheme parameters are fixed at first upload since already
// stored vectors were encoded with them.
func (s *DictionaryService) Upload(ctx context.Context, ownerID int64, entries []DictionaryEntry) error {
	repo := s.repos.Dictionaries(s.db)

	for _, e := range entries {
		dict := &models.Dictionary{
			OwnerID:    ownerID,
			Version:    e.Version,
			EncVocab:   e.EncVocab,
			Scheme:     e.Scheme,
			PolyDegree: e.PolyDegree,
			SlotCount:  e.SlotCount,
			Encoding:   e.Encoding,
		}
		if dict.Scheme == "" {
			dict.Scheme = models.DefaultScheme
		}
		if dict.PolyDegree == 0 {
			dict.PolyDegree = models.DefaultPolyDegree
		}
		if dict.SlotCount == 0 {
			dict.SlotCount = models.DefaultSlotCount
		}
		if dict.Encoding == "" {
			dict.Encoding = models.DefaultEncoding
		}

		if err := repo.Upsert(ctx, dict); err != nil {
			return err
		}
	}
	return nil
}

// Download returns the owner's dictionaries, optionally narrowed to the given
// versions. An empty filter returns everything.
func (s *DictionaryService) Download(ctx context.Context, ownerID int64, versions []int) ([]*models.Dictionary, error) {
	all, err := s.repos.Dictionaries(s.db).ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if len(versions) == 0 {
		return all, nil
	}

	wanted := make(map[int]bool, len(versions))
	for _, v := range versions {
		wanted[v] = true
	}

	var out []*models.Dictionary
	for _, d := range all {
		if wanted[d.Version] {
			out = append(out, d)
		}
	}
	return out, nil
}
