package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/hevault-io/hevault/internal/common"
	"github.com/hevault-io/hevault/internal/server/engine"
	"github.com/hevault-io/hevault/internal/server/services"
)

// Application close codes for the search stream. Clients rely on these to
// tell "get a new token" apart from "fix your payload".
const (
	closeNoToken         = 4000
	closeInvalidToken    = 4001
	closeBadPayload      = 4002
	closeUnknownIdentity = 4003
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// the token in the query string is the whole access control story here
	CheckOrigin: func(*http.Request) bool { return true },
}

type searchRequest struct {
	Items []services.SearchItem `json:"items"`
}

// parseSearchRequest accepts both a bare array of items and the wrapped
// {"items": [...]} form.
func parseSearchRequest(raw []byte) (*searchRequest, error) {
	var items []services.SearchItem
	if err := json.Unmarshal(raw, &items); err == nil {
		return &searchRequest{Items: items}, nil
	}

	var req searchRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

type wsItemError struct {
	Error string `json:"error"`
}

type wsResult struct {
	FileID int64  `json:"file_id"`
	Score  string `json:"score"`
}

type wsEnd struct {
	Status string `json:"status"`
}

// handleSearchWS drives one search session: authenticate, read one request,
// plan, run the engine job by job, stream scored results, then send the
// terminal marker. Everything is sequential on purpose; the engine is the
// bottleneck and a single writer keeps the connection simple.
func (s *HTTPServer) handleSearchWS(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// the upgrader already wrote an HTTP error
		return
	}
	defer conn.Close()

	ctx := r.Context()

	closeWith := func(code int, reason string) {
		deadline := time.Now().Add(time.Second)
		_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	}

	token := r.URL.Query().Get("token")
	if token == "" {
		closeWith(closeNoToken, "missing token")
		return
	}

	user, err := s.users.Authenticate(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			closeWith(closeUnknownIdentity, "unknown identity")
		} else {
			closeWith(closeInvalidToken, "invalid token")
		}
		return
	}

	_, raw, err := conn.ReadMessage()
	if err != nil {
		closeWith(closeBadPayload, "invalid payload")
		return
	}
	req, err := parseSearchRequest(raw)
	if err != nil {
		closeWith(closeBadPayload, "invalid payload")
		return
	}

	s.logger.Info(ctx, "search session started", "user_id", user.ID, "items", len(req.Items))

	// After the upgrade net/http no longer watches the connection, so
	// r.Context() alone never fires on client disconnect. Keep a reader
	// pumping; the first read error means the peer is gone and any running
	// engine process must be killed.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	jobs, err := s.search.Plan(ctx, user.ID, req.Items, func(msg string) error {
		return conn.WriteJSON(wsItemError{Error: msg})
	})
	if err != nil {
		s.logger.Error(ctx, "search planning failed", "user_id", user.ID, "error", err)
		_ = conn.WriteJSON(wsItemError{Error: "internal error"})
		return
	}

	for _, job := range jobs {
		err := s.runner.Run(ctx, job, func(rec engine.Record) error {
			fileID, ok, rerr := s.search.ResolveRecord(ctx, user.ID, rec)
			if rerr != nil {
				return rerr
			}
			if !ok {
				return nil
			}
			return conn.WriteJSON(wsResult{FileID: fileID, Score: rec.EncScore})
		})
		if err != nil {
			// a failed job must not take down the rest of the session; if the
			// connection itself is gone, this write fails and we bail out
			s.logger.Error(ctx, "search job failed", "dict_version", job.DictVersion, "error", err)
			if werr := conn.WriteJSON(wsItemError{Error: fmt.Sprintf("search failed for dictionary version %d", job.DictVersion)}); werr != nil {
				return
			}
		}
	}

	_ = conn.WriteJSON(wsEnd{Status: "end"})
	closeWith(websocket.CloseNormalClosure, "")
}
