// Package httpapi exposes the vault over HTTP: JSON endpoints for account and
// vault management, multipart endpoints for encrypted artifact uploads, and a
// WebSocket stream for homomorphic search.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/hevault-io/hevault/internal/logging"
	"github.com/hevault-io/hevault/internal/server/engine"
	"github.com/hevault-io/hevault/internal/server/services"
)

type HTTPServer struct {
	address string
	logger  logging.Logger

	users    *services.UserService
	folders  *services.FolderService
	files    *services.FileService
	dicts    *services.DictionaryService
	deletion *services.DeletionService
	search   *services.SearchService
	runner   *engine.Runner
}

func NewHTTPServer(
	address string,
	logger logging.Logger,
	users *services.UserService,
	folders *services.FolderService,
	files *services.FileService,
	dicts *services.DictionaryService,
	deletion *services.DeletionService,
	search *services.SearchService,
	runner *engine.Runner,
) *HTTPServer {
	return &HTTPServer{
		address:  address,
		logger:   logger.With("module", "http_server"),
		users:    users,
		folders:  folders,
		files:    files,
		dicts:    dicts,
		deletion: deletion,
		search:   search,
		runner:   runner,
	}
}

func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/register/email", s.handleRegisterEmail)
		r.Post("/register/verify", s.handleRegisterVerify)
		r.Post("/register/password", s.handleRegisterPassword)
		r.Post("/auth/login", s.handleLogin)

		// search stream does its own token handling via close codes
		r.Get("/search/ws", s.handleSearchWS)

		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Post("/folder/create", s.handleFolderCreate)
			r.Get("/folder/list", s.handleFolderList)
			r.Get("/folder/path", s.handleFolderPath)

			r.Post("/file/upload", s.handleFileUpload)
			r.Get("/file/download", s.handleFileDownload)
			r.Get("/file/info", s.handleFileInfo)

			r.Post("/delete", s.handleDelete)

			r.Post("/dict/upload", s.handleDictUpload)
			r.Get("/dict/download", s.handleDictDownload)

			r.Post("/keys/upload", s.handleKeysUpload)
			r.Post("/search/upload/queries", s.handleQueryUpload)
		})
	})

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *HTTPServer) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.Router(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
