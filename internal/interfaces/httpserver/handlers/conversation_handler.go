package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-archive/internal/domain/conversation"
	"chat-archive/internal/domain/sourcetype"
	"chat-archive/internal/interfaces/httpserver/responses"
	"chat-archive/internal/utils/platformerrors"
)

// ConversationHandler exposes HTTP entrypoints for the archive read surface.
type ConversationHandler struct {
	service conversation.Service
	log     zerolog.Logger
}

// NewConversationHandler constructs the handler.
func NewConversationHandler(service conversation.Service, log zerolog.Logger) *ConversationHandler {
	return &ConversationHandler{
		service: service,
		log:     log.With().Str("handler", "conversation").Logger(),
	}
}

type setSavedRequest struct {
	Saved bool `json:"saved"`
}

// List handles GET /v1/conversations
// @Summary List conversations
// @Description Lists conversations without message bodies, newest first.
// @Tags Conversations
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param page_size query int false "Items per page" default(20)
// @Param source query string false "Filter by source type (openwebui, chatgpt, claude, docx)"
// @Param saved query bool false "Filter by bookmark flag"
// @Success 200 {object} conversation.ListResult
// @Failure 400 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /v1/conversations [get]
func (h *ConversationHandler) List(c *gin.Context) {
	var filter conversation.Filter

	if raw := c.Query("source"); raw != "" {
		source := sourcetype.Normalize(raw)
		if !source.IsKnown() {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "unknown source type "+raw, "list-conversations-bad-source")
			return
		}
		filter.SourceType = &source
	}
	if raw := c.Query("saved"); raw != "" {
		saved, err := strconv.ParseBool(raw)
		if err != nil {
			responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "saved must be a boolean", "list-conversations-bad-saved")
			return
		}
		filter.IsSaved = &saved
	}

	pagination := conversation.Pagination{
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "page_size", 20),
	}

	result, err := h.service.List(c.Request.Context(), filter, pagination)
	if err != nil {
		responses.HandleError(c, err, "failed to list conversations")
		return
	}
	c.JSON(http.StatusOK, result)
}

// Get handles GET /v1/conversations/:id
// @Summary Get a conversation
// @Description Fetches one conversation with its messages and topics.
// @Tags Conversations
// @Produce json
// @Param id path string true "Conversation ID"
// @Success 200 {object} conversation.Conversation
// @Failure 404 {object} responses.ErrorResponse
// @Failure 500 {object} responses.ErrorResponse
// @Router /v1/conversations/{id} [get]
func (h *ConversationHandler) Get(c *gin.Context) {
	conv, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to get conversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}

// SetSaved handles PUT /v1/conversations/:id/saved
// @Summary Set the bookmark flag
// @Description Marks or unmarks a conversation as saved.
// @Tags Conversations
// @Accept json
// @Produce json
// @Param id path string true "Conversation ID"
// @Param request body setSavedRequest true "Bookmark flag"
// @Success 200 {object} conversation.Conversation
// @Failure 400 {object} responses.ErrorResponse
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id}/saved [put]
func (h *ConversationHandler) SetSaved(c *gin.Context) {
	var req setSavedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		responses.HandleNewError(c, platformerrors.ErrorTypeValidation, "invalid request body", "set-saved-bad-body")
		return
	}

	conv, err := h.service.SetSaved(c.Request.Context(), c.Param("id"), req.Saved)
	if err != nil {
		responses.HandleError(c, err, "failed to update conversation")
		return
	}
	c.JSON(http.StatusOK, conv)
}

// Export handles GET /v1/conversations/:id/export
// @Summary Export a conversation as markdown
// @Description Renders the conversation as a markdown document.
// @Tags Conversations
// @Produce plain
// @Param id path string true "Conversation ID"
// @Success 200 {string} string "Markdown document"
// @Failure 404 {object} responses.ErrorResponse
// @Router /v1/conversations/{id}/export [get]
func (h *ConversationHandler) Export(c *gin.Context) {
	doc, err := h.service.ExportMarkdown(c.Request.Context(), c.Param("id"))
	if err != nil {
		responses.HandleError(c, err, "failed to export conversation")
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(doc))
}

// Topics handles GET /v1/topics
// @Summary List topics
// @Description Lists all topics with usage counts, most used first.
// @Tags Topics
// @Produce json
// @Success 200 {array} conversation.TopicCount
// @Failure 500 {object} responses.ErrorResponse
// @Router /v1/topics [get]
func (h *ConversationHandler) Topics(c *gin.Context) {
	topics, err := h.service.Topics(c.Request.Context())
	if err != nil {
		responses.HandleError(c, err, "failed to list topics")
		return
	}
	c.JSON(http.StatusOK, topics)
}

func intQuery(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 1 {
		return fallback
	}
	return value
}
