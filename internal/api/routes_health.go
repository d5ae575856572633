package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mgallego/posada/internal/handlers"
)

func registerHealthRoutes(router *gin.Engine, db *gorm.DB) {
	router.GET("/health", handlers.Health(db))
	router.GET("/healthz", handlers.Health(db))
}
