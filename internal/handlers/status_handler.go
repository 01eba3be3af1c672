package handlers

import (
	"io"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"neurowave-gateway/internal/models"
	"neurowave-gateway/internal/services"
)

// StatusHandler exposes the inference service status
type StatusHandler struct {
	manager   *services.StatusManager
	done      chan struct{}
	closeOnce sync.Once
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(manager *services.StatusManager) *StatusHandler {
	return &StatusHandler{
		manager: manager,
		done:    make(chan struct{}),
	}
}

// Close ends all open status streams
func (h *StatusHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// GetStatus returns the last known status
func (h *StatusHandler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.GetStatus())
}

// Refresh probes the inference service and returns the new status
func (h *StatusHandler) Refresh(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.UpdateStatus(c.Request.Context()))
}

// TestConnection probes the inference service without touching the shared status
func (h *StatusHandler) TestConnection(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.TestModelConnection(c.Request.Context()))
}

// Stream pushes a "status" event for the current status and every update after it
func (h *StatusHandler) Stream(c *gin.Context) {
	updates := make(chan models.ModelStatus, 8)
	unsubscribe := h.manager.Subscribe(func(status models.ModelStatus) {
		// slow clients miss intermediate updates
		select {
		case updates <- status:
		default:
		}
	})
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.SSEvent("status", h.manager.GetStatus())
	c.Writer.Flush()

	ctx := c.Request.Context()
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.done:
			return false
		case status := <-updates:
			c.SSEvent("status", status)
			return true
		}
	})
}
