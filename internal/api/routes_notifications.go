package api

import (
	"github.com/gin-gonic/gin"

	"github.com/mgallego/posada/internal/handlers"
)

func registerNotificationRoutes(api *gin.RouterGroup, handler *handlers.NotificationHandler) {
	notifications := api.Group("/notifications")
	{
		notifications.GET("", handler.List)
		notifications.GET("/unread-count", handler.UnreadCount)
		notifications.POST("/:id/read", handler.MarkRead)
		notifications.POST("", handler.Create)
	}
}
