// Package blobstore maps logical entities to their encrypted artifacts on
// disk and owns creating, locating, and deleting those blobs.
//
// The path scheme is fixed for interop with already-stored data:
//
//	file blobs:    {root}/user_{owner}/{file_id}.enc
//	index vectors: {root}/index/user_{owner}/dict_{version}/{iv_id}.eiv
//	query blobs:   {root}/query/user_{owner}/{query_id}.eiv
//	key material:  {root}/keys/user_{owner}/
//
// Paths are derived only from identifiers that are already persisted, never
// guessed.
package blobstore

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hevault-io/hevault/internal/filex"
)

// Key material file names inside a user's keys directory, as the compute
// engine expects to find them.
const (
	RelinKeysFileName  = "relin_keys.k"
	GaloisKeysFileName = "gal_keys.k"
)

// Store derives artifact paths under a single upload root.
type Store struct {
	root string
}

func New(root string) *Store {
	return &Store{root: root}
}

func (s *Store) userDir(ownerID int64) string {
	return filepath.Join(s.root, fmt.Sprintf("user_%d", ownerID))
}

// FilePath is the location of a file blob.
func (s *Store) FilePath(ownerID, fileID int64) string {
	return filepath.Join(s.userDir(ownerID), fmt.Sprintf("%d.enc", fileID))
}

// FileDir is the directory file blobs of one owner are written under. It is
// recorded on the file row at upload time.
func (s *Store) FileDir(ownerID int64) string {
	return s.userDir(ownerID)
}

// VectorDir is the directory holding all index vectors of one
// (owner, dictionary version) pair. The whole directory is handed to the
// compute engine as its search corpus.
func (s *Store) VectorDir(ownerID int64, version int) string {
	return filepath.Join(s.root, "index", fmt.Sprintf("user_%d", ownerID), fmt.Sprintf("dict_%d", version))
}

// VectorPath is the location of one index-vector blob inside its recorded
// directory.
func (s *Store) VectorPath(vectorDir string, ivID int64) string {
	return filepath.Join(vectorDir, fmt.Sprintf("%d.eiv", ivID))
}

// QueryPath is the location of an uploaded encrypted query blob.
func (s *Store) QueryPath(ownerID int64, queryID string) string {
	return filepath.Join(s.root, "query", fmt.Sprintf("user_%d", ownerID), queryID+".eiv")
}

// KeysDir is the directory holding a user's evaluation key material.
func (s *Store) KeysDir(ownerID int64) string {
	return filepath.Join(s.root, "keys", fmt.Sprintf("user_%d", ownerID))
}

// Write stores the blob at path, creating parent directories as needed.
func (s *Store) Write(path string, r io.Reader) error {
	if err := filex.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Delete removes the blob at path. A missing path is a no-op success:
// idempotent cleanup is required when a failed cascade is retried.
func (s *Store) Delete(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// Exists reports whether the blob at path is present on disk.
func (s *Store) Exists(path string) bool {
	return filex.Exists(path)
}

// Open opens the blob at path for reading.
func (s *Store) Open(path string) (*os.File, error) {
	return os.Open(path)
}
