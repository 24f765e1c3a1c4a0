package httpapi

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/dbx"
	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/blobstore"
	"github.com/hevault-io/hevault/internal/server/config"
	"github.com/hevault-io/hevault/internal/server/engine"
	"github.com/hevault-io/hevault/internal/server/models"
	dictsrepo "github.com/hevault-io/hevault/internal/server/repositories/dictionaries"
	filesrepo "github.com/hevault-io/hevault/internal/server/repositories/files"
	foldersrepo "github.com/hevault-io/hevault/internal/server/repositories/folders"
	ivrepo "github.com/hevault-io/hevault/internal/server/repositories/indexvectors"
	usersrepo "github.com/hevault-io/hevault/internal/server/repositories/users"
	"github.com/hevault-io/hevault/internal/server/services"
)

const testSecret = "test-secret"

// --- in-memory fakes backing the services under test ---

type fakeUsersRepo struct {
	nextID int64
	byID   map[int64]*models.User
}

func (f *fakeUsersRepo) Create(ctx context.Context, u *models.User) (*models.User, error) {
	c := *u
	c.ID = f.nextID
	f.nextID++
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeUsersRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range f.byID {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByIDAndEmail(ctx context.Context, id int64, email string) (*models.User, error) {
	u, ok := f.byID[id]
	if !ok || u.Email != email {
		return nil, common.ErrorNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsersRepo) SetCredentials(ctx context.Context, id int64, pwVerifier, encSK, encMK string) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PwVerifier = pwVerifier
	u.EncSK = encSK
	u.EncMK = encMK
	u.Status = models.UserStatusVerified
	return nil
}

func (f *fakeUsersRepo) SetHasEvalKeys(ctx context.Context, id int64) error {
	u, ok := f.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.HasEvalKeys = true
	return nil
}

type fakeFoldersRepo struct {
	nextID int64
	byID   map[int64]*models.Folder
}

func (f *fakeFoldersRepo) Create(ctx context.Context, folder *models.Folder) (*models.Folder, error) {
	c := *folder
	c.ID = f.nextID
	f.nextID++
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeFoldersRepo) GetByID(ctx context.Context, ownerID, id int64) (*models.Folder, error) {
	folder, ok := f.byID[id]
	if !ok || folder.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	c := *folder
	return &c, nil
}

func (f *fakeFoldersRepo) ListChildren(ctx context.Context, ownerID, parentID int64) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, folder := range f.byID {
		if folder.OwnerID == ownerID && folder.ParentID == parentID {
			c := *folder
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeFoldersRepo) ListChildIDs(ctx context.Context, ownerID, parentID int64) ([]int64, error) {
	children, err := f.ListChildren(ctx, ownerID, parentID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(children))
	for _, c := range children {
		ids = append(ids, c.ID)
	}
	return ids, nil
}

func (f *fakeFoldersRepo) Delete(ctx context.Context, ownerID, id int64) error {
	delete(f.byID, id)
	return nil
}

type fakeFilesRepo struct {
	nextID int64
	byID   map[int64]*models.File
}

func (f *fakeFilesRepo) Create(ctx context.Context, file *models.File) (*models.File, error) {
	c := *file
	c.ID = f.nextID
	f.nextID++
	c.UploadedAt = time.Now()
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeFilesRepo) GetByID(ctx context.Context, ownerID, id int64) (*models.File, error) {
	file, ok := f.byID[id]
	if !ok || file.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	c := *file
	return &c, nil
}

func (f *fakeFilesRepo) ListByFolder(ctx context.Context, ownerID, folderID int64) ([]*models.File, error) {
	var out []*models.File
	for _, file := range f.byID {
		if file.OwnerID == ownerID && file.FolderID == folderID {
			c := *file
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeFilesRepo) ListIDsByFolder(ctx context.Context, ownerID, folderID int64) ([]int64, error) {
	list, err := f.ListByFolder(ctx, ownerID, folderID)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(list))
	for _, file := range list {
		ids = append(ids, file.ID)
	}
	return ids, nil
}

func (f *fakeFilesRepo) Delete(ctx context.Context, ownerID, id int64) error {
	delete(f.byID, id)
	return nil
}

type fakeDictsRepo struct {
	nextID int64
	byID   map[int64]*models.Dictionary
}

func (f *fakeDictsRepo) GetByVersion(ctx context.Context, ownerID int64, version int) (*models.Dictionary, error) {
	for _, d := range f.byID {
		if d.OwnerID == ownerID && d.Version == version {
			c := *d
			return &c, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeDictsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]*models.Dictionary, error) {
	var out []*models.Dictionary
	for _, d := range f.byID {
		if d.OwnerID == ownerID {
			c := *d
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeDictsRepo) Upsert(ctx context.Context, dict *models.Dictionary) error {
	for _, d := range f.byID {
		if d.OwnerID == dict.OwnerID && d.Version == dict.Version {
			d.EncVocab = dict.EncVocab
			return nil
		}
	}
	c := *dict
	c.ID = f.nextID
	f.nextID++
	c.CreatedAt = time.Now()
	f.byID[c.ID] = &c
	return nil
}

type fakeIVRepo struct {
	nextID int64
	byID   map[int64]*models.IndexVector
}

func (f *fakeIVRepo) Create(ctx context.Context, iv *models.IndexVector) (*models.IndexVector, error) {
	c := *iv
	c.ID = f.nextID
	f.nextID++
	f.byID[c.ID] = &c
	out := c
	return &out, nil
}

func (f *fakeIVRepo) GetByID(ctx context.Context, ownerID, id int64) (*models.IndexVector, error) {
	iv, ok := f.byID[id]
	if !ok || iv.OwnerID != ownerID {
		return nil, common.ErrorNotFound
	}
	c := *iv
	return &c, nil
}

func (f *fakeIVRepo) ListByDoc(ctx context.Context, ownerID, docID int64) ([]*models.IndexVector, error) {
	var out []*models.IndexVector
	for _, iv := range f.byID {
		if iv.OwnerID == ownerID && iv.DocID == docID {
			c := *iv
			out = append(out, &c)
		}
	}
	return out, nil
}

func (f *fakeIVRepo) DeleteByDoc(ctx context.Context, ownerID, docID int64) error {
	for id, iv := range f.byID {
		if iv.OwnerID == ownerID && iv.DocID == docID {
			delete(f.byID, id)
		}
	}
	return nil
}

type fakeRepoManager struct {
	users   *fakeUsersRepo
	folders *fakeFoldersRepo
	files   *fakeFilesRepo
	dicts   *fakeDictsRepo
	ivs     *fakeIVRepo
}

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{
		users:   &fakeUsersRepo{nextID: 1, byID: map[int64]*models.User{}},
		folders: &fakeFoldersRepo{nextID: 1, byID: map[int64]*models.Folder{}},
		files:   &fakeFilesRepo{nextID: 1, byID: map[int64]*models.File{}},
		dicts:   &fakeDictsRepo{nextID: 1, byID: map[int64]*models.Dictionary{}},
		ivs:     &fakeIVRepo{nextID: 1, byID: map[int64]*models.IndexVector{}},
	}
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(db dbx.DBTX) usersrepo.Repository        { return m.users }
func (m *fakeRepoManager) Folders(db dbx.DBTX) foldersrepo.Repository    { return m.folders }
func (m *fakeRepoManager) Files(db dbx.DBTX) filesrepo.Repository        { return m.files }
func (m *fakeRepoManager) Dictionaries(db dbx.DBTX) dictsrepo.Repository { return m.dicts }
func (m *fakeRepoManager) IndexVectors(db dbx.DBTX) ivrepo.Repository    { return m.ivs }

// --- test server harness ---

type testEnv struct {
	srv   *httptest.Server
	rm    *fakeRepoManager
	blobs *blobstore.Store
	mock  sqlmock.Sqlmock
}

// newTestEnv wires real services over in-memory repositories behind a real
// router. engineBin may be empty when the test never reaches the engine.
func newTestEnv(t *testing.T, engineBin string) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mock.MatchExpectationsInOrder(false)

	rm := newFakeRepoManager()
	blobs := blobstore.New(t.TempDir())
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg := &config.Config{
		SecretKey:                   testSecret,
		AccessTokenValidityDuration: time.Hour,
	}

	runner := engine.NewRunner(engineBin, engineBin, 1024*1024, logger)

	s := NewHTTPServer(
		"",
		logger,
		services.NewUserService(db, rm, blobs, cfg, logger),
		services.NewFolderService(db, rm),
		services.NewFileService(db, rm, blobs, logger),
		services.NewDictionaryService(db, rm),
		services.NewDeletionService(db, rm, blobs, logger),
		services.NewSearchService(db, rm, blobs, logger),
		runner,
	)

	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)

	return &testEnv{srv: srv, rm: rm, blobs: blobs, mock: mock}
}

// expectTx registers n transaction begin/commit pairs on the sqlmock.
func (e *testEnv) expectTx(n int) {
	for i := 0; i < n; i++ {
		e.mock.ExpectBegin()
		e.mock.ExpectCommit()
	}
}
