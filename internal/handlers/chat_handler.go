package handlers

import (
	"campusride/internal/middleware"
	"campusride/internal/models"
	"campusride/internal/services"
	"campusride/internal/utils"
	"campusride/internal/validators"
	"campusride/pkg/logger"

	"github.com/gin-gonic/gin"
)

type ChatHandler struct {
	chatService services.ChatService
	logger      *logger.Logger
}

func NewChatHandler(chatService services.ChatService, log *logger.Logger) *ChatHandler {
	return &ChatHandler{chatService: chatService, logger: log}
}

// StartChat finds or creates the caller's chat with another user
func (h *ChatHandler) StartChat(c *gin.Context) {
	var request validators.StartChatRequest
	if !bindJSON(c, &request) {
		return
	}

	chat, err := h.chatService.FindOrCreate(c.Request.Context(), middleware.GetUserID(c), request.OtherUserID,
		models.ChatType(request.ChatType), request.ListingObjectID())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat ready", chat)
}

func (h *ChatHandler) ListChats(c *gin.Context) {
	params := utils.GetPaginationParams(c, "updated_at")
	chats, total, err := h.chatService.ListChats(c.Request.Context(), middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Chats retrieved successfully", chats, params, total)
}

func (h *ChatHandler) GetChat(c *gin.Context) {
	chatID, ok := paramObjectID(c, "id", "chat")
	if !ok {
		return
	}

	chat, err := h.chatService.Get(c.Request.Context(), chatID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat retrieved successfully", chat)
}

func (h *ChatHandler) ListMessages(c *gin.Context) {
	chatID, ok := paramObjectID(c, "id", "chat")
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c, "created_at")
	messages, total, err := h.chatService.ListMessages(c.Request.Context(), chatID, middleware.GetUserID(c), params)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.PaginatedResponse(c, "Messages retrieved successfully", messages, params, total)
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	chatID, ok := paramObjectID(c, "id", "chat")
	if !ok {
		return
	}
	var request validators.SendMessageRequest
	if !bindJSON(c, &request) {
		return
	}

	message, err := h.chatService.SendMessage(c.Request.Context(), chatID, middleware.GetUserID(c), request.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.CreatedResponse(c, "Message sent", message)
}

func (h *ChatHandler) MarkRead(c *gin.Context) {
	chatID, ok := paramObjectID(c, "id", "chat")
	if !ok {
		return
	}

	if err := h.chatService.MarkRead(c.Request.Context(), chatID, middleware.GetUserID(c)); err != nil {
		respondError(c, h.logger, err)
		return
	}

	utils.SuccessResponse(c, "Chat marked as read", nil)
}
