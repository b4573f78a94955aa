package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"ghostwriter-backend/internal/models"
	"ghostwriter-backend/internal/services"
)

const maxUploadBytes = 10 << 20 // 10 MB per sample file

// styleProfiler is what the handler needs from the profiling service.
type styleProfiler interface {
	Profile(ctx context.Context, posts []string) (*models.StyleProfile, error)
}

type DNAHandler struct {
	profiler  styleProfiler
	extractor *services.SampleExtractor
	tempDir   string
	logger    zerolog.Logger
}

func NewDNAHandler(profiler styleProfiler, extractor *services.SampleExtractor, tempDir string, logger zerolog.Logger) *DNAHandler {
	return &DNAHandler{
		profiler:  profiler,
		extractor: extractor,
		tempDir:   tempDir,
		logger:    logger,
	}
}

// Profile handles POST /api/v1/dna.
func (h *DNAHandler) Profile(w http.ResponseWriter, r *http.Request) {
	var req models.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		errorResp(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body")
		return
	}

	h.respondProfile(w, r, req.Posts)
}

// ProfileUpload handles POST /api/v1/dna/upload: multipart sample files
// (txt, pdf, docx) are extracted to text and profiled like pasted posts.
func (h *DNAHandler) ProfileUpload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		errorResp(w, r, http.StatusBadRequest, "INVALID_REQUEST", "Invalid multipart form")
		return
	}

	files := r.MultipartForm.File["files"]
	if len(files) == 0 {
		errorRespWithFields(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed",
			map[string]string{"files": "at least one file is required"})
		return
	}

	var posts []string
	for _, fh := range files {
		text, err := h.extractUpload(fh.Filename, fh)
		if err != nil {
			h.logger.Warn().Err(err).Str("filename", fh.Filename).Msg("sample extraction failed")
			errorResp(w, r, http.StatusUnprocessableEntity, "EXTRACTION_FAILED",
				"Could not extract text from "+fh.Filename)
			return
		}
		if strings.TrimSpace(text) != "" {
			posts = append(posts, text)
		}
	}

	h.respondProfile(w, r, posts)
}

func (h *DNAHandler) respondProfile(w http.ResponseWriter, r *http.Request, posts []string) {
	// Samples are optional. A client that sent no usable text gets a null
	// profile and generation falls back to the default voice; the model is
	// never called.
	if services.CombineSamples(posts, 0) == "" {
		writeJSON(w, http.StatusOK, models.ProfileResponse{VoiceJSON: nil})
		return
	}

	profile, err := h.profiler.Profile(r.Context(), posts)
	if err != nil {
		h.logger.Error().Err(err).Msg("style profiling failed")
		if errors.Is(err, services.ErrProfilingFailed) {
			errorResp(w, r, http.StatusBadGateway, "PROFILING_FAILED", "Failed to profile style")
			return
		}
		errorResp(w, r, http.StatusInternalServerError, "PROFILING_FAILED", "Failed to build style profile")
		return
	}

	writeJSON(w, http.StatusOK, models.ProfileResponse{VoiceJSON: profile})
}

func (h *DNAHandler) extractUpload(filename string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	ext := strings.ToLower(filepath.Ext(filename))
	tmp, err := os.CreateTemp(h.tempDir, "sample_*"+ext)
	if err != nil {
		return "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, io.LimitReader(src, maxUploadBytes)); err != nil {
		tmp.Close()
		return "", err
	}
	if err := tmp.Close(); err != nil {
		return "", err
	}

	return h.extractor.ExtractText(tmp.Name())
}
