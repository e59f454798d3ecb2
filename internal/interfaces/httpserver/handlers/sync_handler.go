package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-archive/internal/domain/sync"
	"chat-archive/internal/interfaces/httpserver/responses"
)

// SyncHandler exposes HTTP entrypoints for the background sync.
type SyncHandler struct {
	service *sync.Service
	log     zerolog.Logger
}

// NewSyncHandler constructs the handler.
func NewSyncHandler(service *sync.Service, log zerolog.Logger) *SyncHandler {
	return &SyncHandler{
		service: service,
		log:     log.With().Str("handler", "sync").Logger(),
	}
}

// Start handles POST /v1/sync/openwebui
// @Summary Start a background sync from OpenWebUI
// @Description Starts a sync run in the background. Only one run can be active at a time.
// @Tags Sync
// @Produce json
// @Success 202 {object} sync.StartStatus
// @Failure 400 {object} sync.StartStatus
// @Failure 409 {object} sync.StartStatus
// @Router /v1/sync/openwebui [post]
func (h *SyncHandler) Start(c *gin.Context) {
	status := h.service.StartBackground(c.Request.Context())
	switch status.Status {
	case "started":
		c.JSON(http.StatusAccepted, status)
	case "already_running":
		c.JSON(http.StatusConflict, status)
	default:
		c.JSON(http.StatusBadRequest, status)
	}
}

// Progress handles GET /v1/sync/progress
// @Summary Get sync progress
// @Description Reports whether a sync is running and its current progress line.
// @Tags Sync
// @Produce json
// @Success 200 {object} sync.Snapshot
// @Router /v1/sync/progress [get]
func (h *SyncHandler) Progress(c *gin.Context) {
	c.JSON(http.StatusOK, h.service.Progress())
}

// Status handles GET /v1/sync/status
// @Summary Get sync status
// @Description Reports the last sync time, conversation counts by source, and configuration state.
// @Tags Sync
// @Produce json
// @Success 200 {object} sync.Status
// @Failure 500 {object} responses.ErrorResponse
// @Router /v1/sync/status [get]
func (h *SyncHandler) Status(c *gin.Context) {
	status, err := h.service.Status(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to get sync status")
		return
	}
	c.JSON(http.StatusOK, status)
}
