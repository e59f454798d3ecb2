package v1

import (
	"github.com/gin-gonic/gin"

	"chat-archive/internal/interfaces/httpserver/handlers"
)

func registerSyncRoutes(router gin.IRoutes, handler *handlers.SyncHandler) {
	router.POST("/sync/openwebui", handler.Start)
	router.GET("/sync/progress", handler.Progress)
	router.GET("/sync/status", handler.Status)
}
