package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-archive/internal/domain/importer"
	"chat-archive/internal/domain/sync"
	"chat-archive/internal/infrastructure/metrics"
	"chat-archive/internal/interfaces/httpserver/responses"
	"chat-archive/internal/utils/platformerrors"
)

// ImportHandler exposes HTTP entrypoints for bulk imports.
type ImportHandler struct {
	service *importer.Service
	log     zerolog.Logger
}

// NewImportHandler constructs the handler.
func NewImportHandler(service *importer.Service, log zerolog.Logger) *ImportHandler {
	return &ImportHandler{
		service: service,
		log:     log.With().Str("handler", "import").Logger(),
	}
}

// Import handles POST /v1/import
// @Summary Import conversations from a chat export
// @Description Accepts a ChatGPT or Claude JSON export and imports its conversations. The format is detected from the payload structure.
// @Tags Import
// @Accept json
// @Produce json
// @Success 200 {object} importer.Result
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /v1/import [post]
func (h *ImportHandler) Import(c *gin.Context) {
	raw, err := c.GetRawData()
	if err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "failed to read request body", "import-read-body-error")
		return
	}
	if len(raw) == 0 {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "request body is empty", "import-empty-body-error")
		return
	}

	result, err := h.service.ImportJSON(c.Request.Context(), raw)
	if err != nil {
		metrics.RecordImport("unknown", "failed")
		responses.HandleError(c, err, "import failed")
		return
	}

	metrics.RecordImport(string(result.FormatDetected), "completed")
	c.JSON(http.StatusOK, result)
}

type extractedMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type importExtractedRequest struct {
	Title    string             `json:"title"`
	Messages []extractedMessage `json:"messages" binding:"required"`
}

// ImportExtracted handles POST /v1/import/extracted
// @Summary Import a pre-extracted transcript
// @Description Creates a conversation from messages extracted upstream, e.g. from a DOCX document. Each call creates a new conversation.
// @Tags Import
// @Accept json
// @Produce json
// @Param request body importExtractedRequest true "Extracted transcript"
// @Success 200 {object} importer.Result
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /v1/import/extracted [post]
func (h *ImportHandler) ImportExtracted(c *gin.Context) {
	var req importExtractedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "import-extracted-bad-body")
		return
	}

	incoming := make([]sync.IncomingMessage, 0, len(req.Messages))
	for _, msg := range req.Messages {
		incoming = append(incoming, sync.IncomingMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	result, err := h.service.ImportExtracted(c.Request.Context(), req.Title, incoming)
	if err != nil {
		metrics.RecordImport("docx", "failed")
		responses.HandleError(c, err, "import failed")
		return
	}

	metrics.RecordImport("docx", "completed")
	c.JSON(http.StatusOK, result)
}
