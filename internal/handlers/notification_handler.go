package handlers

import (
	"campusride/internal/middleware"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService services.NotificationService
	logger              *logger.Logger
}

func NewNotificationHandler(notificationService services.NotificationService, log *logger.Logger) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService, logger: log}
}

func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	params := utils.GetPaginationParams(c, "created_at")
	notifications, total, err := h.notificationService.List(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Notifications retrieved successfully", notifications, params, total)
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationService.UnreadCount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Unread count retrieved successfully", gin.H{"unread": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	notificationID, ok := paramObjectID(c, "id", "notification")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), middleware.GetUserID(c), notificationID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Notification marked as read", nil)
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Notifications marked as read", gin.H{"updated": updated})
}
