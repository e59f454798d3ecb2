package v1

import (
	"github.com/gin-gonic/gin"

	"chat-archive/internal/interfaces/httpserver/handlers"
)

func registerImportRoutes(router gin.IRoutes, handler *handlers.ImportHandler) {
	router.POST("/import", handler.Import)
	router.POST("/import/extracted", handler.ImportExtracted)
}
