package httpapi

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hevault-io/hevault/internal/server/models"
)

// maxMultipartMemory bounds how much of a multipart body is buffered in
// memory before spilling to temp files.
const maxMultipartMemory = 32 << 20

type folderCreateRequest struct {
	ParentID int64  `json:"parent_id"`
	EncName  string `json:"enc_name"`
}

type folderResponse struct {
	FolderID int64  `json:"folder_id"`
	EncName  string `json:"enc_name"`
}

type fileResponse struct {
	FileID      int64  `json:"file_id"`
	CipherTitle string `json:"cipher_title"`
	Mime        string `json:"mime"`
	UploadedAt  string `json:"uploaded_at"`
}

type folderListResponse struct {
	Folders []folderResponse `json:"folders"`
	Files   []fileResponse   `json:"files"`
}

type pathEntryResponse struct {
	FolderID int64 `json:"folder_id"`
	// EncName is null for the root entry, which has no name to decrypt.
	EncName *string `json:"folder_enc_name"`
}

type deleteRequest struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

func fileToResponse(f *models.File) fileResponse {
	return fileResponse{
		FileID:      f.ID,
		CipherTitle: f.CipherTitle,
		Mime:        f.Mime,
		UploadedAt:  f.UploadedAt.UTC().Format(time.RFC3339),
	}
}

func queryInt64(r *http.Request, name string) (int64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func (s *HTTPServer) handleFolderCreate(w http.ResponseWriter, r *http.Request) {
	var req folderCreateRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	if req.EncName == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "enc_name is required"})
		return
	}

	folder, err := s.folders.Create(r.Context(), currentUser(r).ID, req.ParentID, req.EncName)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, folderResponse{FolderID: folder.ID, EncName: folder.EncName})
}

func (s *HTTPServer) handleFolderList(w http.ResponseWriter, r *http.Request) {
	folderID, err := queryInt64(r, "folder_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid folder_id"})
		return
	}

	listing, err := s.folders.List(r.Context(), currentUser(r).ID, folderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := folderListResponse{Folders: []folderResponse{}, Files: []fileResponse{}}
	for _, f := range listing.Folders {
		resp.Folders = append(resp.Folders, folderResponse{FolderID: f.ID, EncName: f.EncName})
	}
	for _, f := range listing.Files {
		resp.Files = append(resp.Files, fileToResponse(f))
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) handleFolderPath(w http.ResponseWriter, r *http.Request) {
	folderID, err := queryInt64(r, "folder_id")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid folder_id"})
		return
	}

	path, err := s.folders.Path(r.Context(), currentUser(r).ID, folderID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	entries := make([]pathEntryResponse, 0, len(path))
	for _, p := range path {
		entry := pathEntryResponse{FolderID: p.FolderID}
		if p.FolderID != models.RootFolderID {
			name := p.EncName
			entry.EncName = &name
		}
		entries = append(entries, entry)
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"path": entries})
}

// formVersions parses the repeated "versions" form values of a multipart
// request.
func formVersions(form *multipart.Form) ([]int, error) {
	raw := form.Value["versions"]
	versions := make([]int, 0, len(raw))
	for _, v := range raw {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid version %q", v)
		}
		versions = append(versions, n)
	}
	return versions, nil
}

// openAll opens every file header in order. The caller closes the readers.
func openAll(headers []*multipart.FileHeader) ([]io.Reader, []io.Closer, error) {
	readers := make([]io.Reader, 0, len(headers))
	closers := make([]io.Closer, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			for _, c := range closers {
				c.Close()
			}
			return nil, nil, err
		}
		readers = append(readers, f)
		closers = append(closers, f)
	}
	return readers, closers, nil
}

func closeAll(closers []io.Closer) {
	for _, c := range closers {
		c.Close()
	}
}

func (s *HTTPServer) handleFileUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid multipart body"})
		return
	}
	defer r.MultipartForm.RemoveAll()

	var folderID int64
	if raw := r.FormValue("folder_id"); raw != "" {
		var err error
		folderID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid folder_id"})
			return
		}
	}
	cipherTitle := r.FormValue("cipher_title")
	mime := r.FormValue("mime")
	if cipherTitle == "" {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "cipher_title is required"})
		return
	}

	versions, err := formVersions(r.MultipartForm)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}

	encFile, _, err := r.FormFile("file")
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "file is required"})
		return
	}
	defer encFile.Close()

	vectors, closers, err := openAll(r.MultipartForm.File["vectors"])
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer closeAll(closers)

	file, err := s.files.Upload(r.Context(), currentUser(r).ID, folderID, cipherTitle, mime, encFile, versions, vectors)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fileToResponse(file))
}

func (s *HTTPServer) handleFileInfo(w http.ResponseWriter, r *http.Request) {
	fileID, err := queryInt64(r, "file_id")
	if err != nil || fileID == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid file_id"})
		return
	}

	file, err := s.files.Info(r.Context(), currentUser(r).ID, fileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, fileToResponse(file))
}

func (s *HTTPServer) handleFileDownload(w http.ResponseWriter, r *http.Request) {
	fileID, err := queryInt64(r, "file_id")
	if err != nil || fileID == 0 {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid file_id"})
		return
	}

	file, blob, err := s.files.Download(r.Context(), currentUser(r).ID, fileID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fmt.Sprintf("%d.enc", file.ID)))
	if _, err := io.Copy(w, blob); err != nil {
		s.logger.Error(r.Context(), "download aborted", "file_id", file.ID, "error", err)
	}
}

func (s *HTTPServer) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req deleteRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}

	var err error
	switch strings.ToLower(req.Type) {
	case "file":
		err = s.deletion.DeleteFile(r.Context(), currentUser(r).ID, req.ID)
	case "folder":
		err = s.deletion.DeleteFolder(r.Context(), currentUser(r).ID, req.ID)
	default:
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "type must be file or folder"})
		return
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statusOK)
}
