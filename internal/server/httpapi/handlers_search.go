package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hevault-io/hevault/internal/server/services"
)

type dictUploadRequest struct {
	Dicts []dictEntry `json:"dicts"`
}

type dictEntry struct {
	Version    int    `json:"version"`
	EncVocab   []byte `json:"enc_vocab"`
	Scheme     string `json:"scheme,omitempty"`
	PolyDegree int    `json:"poly_degree,omitempty"`
	SlotCount  int    `json:"slot_count,omitempty"`
	Encoding   string `json:"encoding,omitempty"`
}

type dictResponse struct {
	Version    int    `json:"version"`
	EncVocab   []byte `json:"enc_vocab"`
	Scheme     string `json:"scheme"`
	PolyDegree int    `json:"poly_degree"`
	SlotCount  int    `json:"slot_count"`
	Encoding   string `json:"encoding"`
	CreatedAt  string `json:"created_at"`
}

type queryUploadResponse struct {
	Queries []services.SearchItem `json:"queries"`
}

func (s *HTTPServer) handleDictUpload(w http.ResponseWriter, r *http.Request) {
	var req dictUploadRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if len(req.Dicts) == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "dicts must not be empty"})
		return
	}

	entries := make([]services.DictionaryEntry, 0, len(req.Dicts))
	for _, d := range req.Dicts {
		if d.Version <= 0 || len(d.EncVocab) == 0 {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "each dict needs a positive version and enc_vocab"})
			return
		}
		entries = append(entries, services.DictionaryEntry{
			Version:    d.Version,
			EncVocab:   d.EncVocab,
			Scheme:     d.Scheme,
			PolyDegree: d.PolyDegree,
			SlotCount:  d.SlotCount,
			Encoding:   d.Encoding,
		})
	}

	if err := s.dicts.Upload(r.Context(), currentUser(r).ID, entries); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusOK)
}

func (s *HTTPServer) handleDictDownload(w http.ResponseWriter, r *http.Request) {
	var versions []int
	for _, raw := range r.URL.Query()["versions"] {
		for _, part := range strings.Split(raw, ",") {
			if part == "" {
				continue
			}
			v, err := strconv.Atoi(part)
			if err != nil {
				s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid versions"})
				return
			}
			versions = append(versions, v)
		}
	}

	dicts, err := s.dicts.Download(r.Context(), currentUser(r).ID, versions)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := make([]dictResponse, 0, len(dicts))
	for _, d := range dicts {
		resp = append(resp, dictResponse{
			Version:    d.Version,
			EncVocab:   d.EncVocab,
			Scheme:     d.Scheme,
			PolyDegree: d.PolyDegree,
			SlotCount:  d.SlotCount,
			Encoding:   d.Encoding,
			CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"dicts": resp})
}

func (s *HTTPServer) handleKeysUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	relin, _, err := r.FormFile("relin_keys")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "relin_keys is required"})
		return
	}
	defer relin.Close()

	galois, _, err := r.FormFile("gal_keys")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "gal_keys is required"})
		return
	}
	defer galois.Close()

	if err := s.users.StoreEvalKeys(r.Context(), currentUser(r).ID, relin, galois); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusOK)
}

func (s *HTTPServer) handleQueryUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	versions, err := formVersions(r.MultipartForm)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	blobs, closers, err := openAll(r.MultipartForm.File["queries"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeAll(closers)

	items, err := s.search.SaveQueries(r.Context(), currentUser(r).ID, versions, blobs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if items == nil {
		items = []services.SearchItem{}
	}
	s.writeJSON(w, http.StatusOK, queryUploadResponse{Queries: items})
}
