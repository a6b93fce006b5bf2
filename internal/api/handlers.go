package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/Ammarkarimi/plagarism-detector/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// Analyses is implemented by plagiarism.Service
type Analyses interface {
	Check(ctx context.Context, a, b models.SourceFile, source string) (*models.AnalysisResult, error)
	Get(ctx context.Context, analysisID string) (*models.AnalysisRecord, error)
}

// Handler holds dependencies for handlers
type Handler struct {
	analyses       Analyses
	maxUploadBytes int64
	timeout        time.Duration
}

func NewHandler(analyses Analyses, maxUploadBytes int64, timeout time.Duration) *Handler {
	return &Handler{
		analyses:       analyses,
		maxUploadBytes: maxUploadBytes,
		timeout:        timeout,
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// CheckPlagiarism compares the multipart files file1 and file2
func (h *Handler) CheckPlagiarism(c *gin.Context) {
	// two files plus multipart framing
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, 2*h.maxUploadBytes+1<<20)

	a, ok := h.readFile(c, "file1")
	if !ok {
		return
	}
	b, ok := h.readFile(c, "file2")
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	result, err := h.analyses.Check(ctx, a, b, "http")
	if err != nil {
		h.analysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *Handler) readFile(c *gin.Context, field string) (models.SourceFile, bool) {
	header, err := c.FormFile(field)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			abortWithError(c, http.StatusRequestEntityTooLarge, "Request body too large", "RESOURCE_LIMIT_EXCEEDED")
			return models.SourceFile{}, false
		}
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("%s is required", field), "INVALID_REQUEST")
		return models.SourceFile{}, false
	}

	if header.Size > h.maxUploadBytes {
		abortWithError(c, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("%s exceeds %d bytes", header.Filename, h.maxUploadBytes), "RESOURCE_LIMIT_EXCEEDED")
		return models.SourceFile{}, false
	}

	if models.DetectLanguage(header.Filename) == models.LangUnknown {
		abortWithError(c, http.StatusBadRequest,
			fmt.Sprintf("unsupported file type: %s", header.Filename), "UNSUPPORTED_LANGUAGE")
		return models.SourceFile{}, false
	}

	content, err := readUpload(header)
	if err != nil {
		log.Error().Err(err).Str("field", field).Msg("Failed to read upload")
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("failed to read %s", field), "INVALID_REQUEST")
		return models.SourceFile{}, false
	}

	return models.NewSourceFile(field, header.Filename, content), true
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *Handler) analysisError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrUnsupportedLanguage):
		abortWithError(c, http.StatusBadRequest, err.Error(), "UNSUPPORTED_LANGUAGE")
	case errors.Is(err, models.ErrResourceLimit):
		abortWithError(c, http.StatusUnprocessableEntity, err.Error(), "RESOURCE_LIMIT_EXCEEDED")
	case errors.Is(err, context.DeadlineExceeded):
		abortWithError(c, http.StatusGatewayTimeout, "Analysis timed out", "REQUEST_TIMEOUT")
	case errors.Is(err, context.Canceled):
		abortWithError(c, http.StatusRequestTimeout, "Request cancelled", "REQUEST_TIMEOUT")
	default:
		_ = c.Error(err)
		c.Abort()
	}
}

// GetAnalysis returns a stored analysis record
func (h *Handler) GetAnalysis(c *gin.Context) {
	id := c.Param("id")

	record, err := h.analyses.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			abortWithError(c, http.StatusNotFound, "Analysis not found", "NOT_FOUND")
			return
		}
		_ = c.Error(err)
		c.Abort()
		return
	}

	c.JSON(http.StatusOK, record)
}

func abortWithError(c *gin.Context, status int, message, code string) {
	c.AbortWithStatusJSON(status, models.ErrorResponse{
		Error: message,
		Code:  code,
	})
}
