package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"neurowave-gateway/internal/models"
	"neurowave-gateway/internal/upload"
)

// UploadHandler drives upload sessions through selection, processing and a result
type UploadHandler struct {
	registry *upload.Registry
	uploads  *UploadValidator
	baseCtx  context.Context
	logger   *zap.Logger
}

// NewUploadHandler creates a new upload handler. Background submissions
// run under baseCtx so they outlive the request that started them.
func NewUploadHandler(baseCtx context.Context, registry *upload.Registry, uploads *UploadValidator, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{
		registry: registry,
		uploads:  uploads,
		baseCtx:  baseCtx,
		logger:   logger,
	}
}

// Create opens a session with the uploaded file selected
func (h *UploadHandler) Create(c *gin.Context) {
	file, msg := h.uploads.Read(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	session := h.registry.Create()
	if err := session.SelectFile(file); err != nil {
		_ = h.registry.Remove(session.ID())
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusCreated, session.State())
}

// ReplaceFile selects a new file, discarding any previous outcome
func (h *UploadHandler) ReplaceFile(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	file, msg := h.uploads.Read(c)
	if msg != "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: msg})
		return
	}

	if err := session.SelectFile(file); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, session.State())
}

// Submit starts processing the selected file
func (h *UploadHandler) Submit(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	if err := session.Start(h.baseCtx); err != nil {
		if errors.Is(err, upload.ErrProcessing) || errors.Is(err, upload.ErrNotReady) {
			c.JSON(http.StatusConflict, models.ErrorResponse{Error: err.Error()})
			return
		}
		h.logger.Error("Failed to start upload processing", zap.String("session_id", session.ID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to start processing"})
		return
	}

	c.JSON(http.StatusAccepted, session.State())
}

// Get returns the session state
func (h *UploadHandler) Get(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, session.State())
}

// Preview returns the selected file's bytes
func (h *UploadHandler) Preview(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}

	file, ok := session.Preview()
	if !ok {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "No preview available"})
		return
	}
	c.Data(http.StatusOK, file.ContentType, file.Data)
}

// Delete resets the session and forgets it
func (h *UploadHandler) Delete(c *gin.Context) {
	if err := h.registry.Remove(c.Param("id")); err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UploadHandler) session(c *gin.Context) (*upload.Session, bool) {
	session, err := h.registry.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, models.ErrorResponse{Error: err.Error()})
		return nil, false
	}
	return session, true
}
