package api

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/lyricist/internal/models"
)

const (
	audioDir       = "audio"
	maxUploadBytes = 200 << 20 // 200 MB
)

// AudioHandler stores and serves audio takes that documents reference.
// Files land in <root>/audio and are referenced by the locator "audio/<name>".
type AudioHandler struct {
	root string
}

// NewAudioHandler creates a handler rooted at the documents directory.
func NewAudioHandler(root string) *AudioHandler {
	return &AudioHandler{root: root}
}

func (h *AudioHandler) audioPath() string {
	return filepath.Join(h.root, audioDir)
}

// safeName validates that the filename is a plain name with a supported
// audio extension and returns the absolute path under the audio dir.
func (h *AudioHandler) safeName(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("filename is required")
	}
	cleaned := filepath.Clean(name)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("invalid filename: %s", name)
	}
	ext := strings.TrimPrefix(filepath.Ext(cleaned), ".")
	if !slices.Contains(models.SupportedAudioExtensions, ext) {
		return "", fmt.Errorf("unsupported audio type: %s", name)
	}
	abs := filepath.Join(h.audioPath(), cleaned)
	if !strings.HasPrefix(abs, h.audioPath()+string(os.PathSeparator)) {
		return "", fmt.Errorf("path escapes audio directory")
	}
	return abs, nil
}

// ServeFile handles GET /api/audio/{filename}.
func (h *AudioHandler) ServeFile(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	abs, err := h.safeName(filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}
	if _, statErr := os.Stat(abs); os.IsNotExist(statErr) {
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
		return
	}
	http.ServeFile(w, r, abs)
}

// Upload handles POST /api/audio (multipart/form-data, field "file").
func (h *AudioHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("file too large or invalid multipart"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
		return
	}
	defer file.Close()

	abs, err := h.safeName(header.Filename)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	if err := os.MkdirAll(h.audioPath(), 0o755); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create audio dir"))
		return
	}

	dst, err := os.Create(abs)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to create file"))
		return
	}
	defer dst.Close()

	written, err := io.Copy(dst, file)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody("failed to write file"))
		return
	}

	writeJSON(w, http.StatusCreated, AudioUploadResponse{
		Filename: header.Filename,
		Size:     written,
		Locator:  path.Join(audioDir, header.Filename),
		URL:      "/api/audio/" + header.Filename,
	})
}
