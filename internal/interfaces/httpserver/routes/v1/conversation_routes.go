package v1

import (
	"github.com/gin-gonic/gin"

	"chat-archive/internal/interfaces/httpserver/handlers"
)

func registerConversationRoutes(router gin.IRoutes, handler *handlers.ConversationHandler) {
	router.GET("/conversations", handler.List)
	router.GET("/conversations/:id", handler.Get)
	router.PUT("/conversations/:id/saved", handler.SetSaved)
	router.GET("/conversations/:id/export", handler.Export)
	router.GET("/topics", handler.Topics)
}
