package controller

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/evidark-org/evidark/internal/constant"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/middleware"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/service"
)

type MessageController struct {
	messageService *service.MessageService
}

func NewMessageController(messageService *service.MessageService) *MessageController {
	return &MessageController{
		messageService: messageService,
	}
}

// GetMessages godoc
// @Summary      Get Messages
// @Description  Page through a chat's messages. Page 1 holds the newest messages; each page is returned oldest-first.
// @Tags         message
// @Produce      json
// @Param        chatId path  string true  "Chat ID (UUID)"
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Page size (default 50, max 100)"
// @Success      200  {object}  helper.ResponseWithPagination{data=[]model.MessageResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatId}/messages [get]
func (c *MessageController) GetMessages(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	chatID, err := pathUUID(r, "chatId", "Chat ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	req := model.GetMessagesRequest{
		ChatID: chatID,
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 0),
	}

	messages, meta, err := c.messageService.GetMessages(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccessWithPagination(w, messages, meta)
}

// SendMessage godoc
// @Summary      Send Message
// @Description  Persist a message and deliver it to every connection joined to the chat.
// @Tags         message
// @Accept       json
// @Produce      json
// @Param        chatId  path string true "Chat ID (UUID)"
// @Param        request body model.SendMessageRequest true "Send Message Request"
// @Success      201  {object}  helper.ResponseSuccess{data=model.MessageResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      429  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatId}/messages [post]
func (c *MessageController) SendMessage(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	chatID, err := pathUUID(r, "chatId", "Chat ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	var req model.SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid request body", "error", err)
		helper.WriteError(w, helper.NewBadRequestError(""))
		return
	}
	req.ChatID = chatID

	resp, err := c.messageService.SendMessage(r.Context(), userContext.ID, req, constant.MetricPathHTTP)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteCreated(w, resp)
}

// GetUnreadCount godoc
// @Summary      Get Unread Count
// @Tags         message
// @Produce      json
// @Param        chatId path string true "Chat ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess{data=model.UnreadCountResponse}
// @Failure      403  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatId}/unread [get]
func (c *MessageController) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	chatID, err := pathUUID(r, "chatId", "Chat ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	resp, err := c.messageService.GetUnreadCount(r.Context(), userContext.ID, chatID)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// EditMessage godoc
// @Summary      Edit Message
// @Description  Replace the content of a message. Only the sender may edit.
// @Tags         message
// @Accept       json
// @Produce      json
// @Param        messageId path string true "Message ID (UUID)"
// @Param        request body model.EditMessageRequest true "Edit Message Request"
// @Success      200  {object}  helper.ResponseSuccess{data=model.MessageResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/messages/{messageId} [put]
func (c *MessageController) EditMessage(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	messageID, err := pathUUID(r, "messageId", "Message ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	var req model.EditMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid request body", "error", err)
		helper.WriteError(w, helper.NewBadRequestError(""))
		return
	}

	resp, err := c.messageService.EditMessage(r.Context(), userContext.ID, messageID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// DeleteMessage godoc
// @Summary      Delete Message
// @Description  Soft delete a message. Allowed for the sender and chat admins.
// @Tags         message
// @Produce      json
// @Param        messageId path string true "Message ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/messages/{messageId} [delete]
func (c *MessageController) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	messageID, err := pathUUID(r, "messageId", "Message ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	if err := c.messageService.DeleteMessage(r.Context(), userContext.ID, messageID); err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, map[string]string{"message": "Message deleted"})
}

// SetReaction godoc
// @Summary      React to Message
// @Description  Set the caller's reaction. A second reaction replaces the first.
// @Tags         message
// @Accept       json
// @Produce      json
// @Param        messageId path string true "Message ID (UUID)"
// @Param        request body model.ReactionRequest true "Reaction Request"
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      400  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/messages/{messageId}/reactions [post]
func (c *MessageController) SetReaction(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	messageID, err := pathUUID(r, "messageId", "Message ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	var req model.ReactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid request body", "error", err)
		helper.WriteError(w, helper.NewBadRequestError(""))
		return
	}

	if err := c.messageService.SetReaction(r.Context(), userContext.ID, messageID, req.Emoji); err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, map[string]string{"message": "Reaction saved"})
}

// RemoveReaction godoc
// @Summary      Remove Reaction
// @Tags         message
// @Produce      json
// @Param        messageId path string true "Message ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/messages/{messageId}/reactions [delete]
func (c *MessageController) RemoveReaction(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	messageID, err := pathUUID(r, "messageId", "Message ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	if err := c.messageService.RemoveReaction(r.Context(), userContext.ID, messageID); err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, map[string]string{"message": "Reaction removed"})
}

// MarkAsRead godoc
// @Summary      Mark Message as Read
// @Tags         message
// @Produce      json
// @Param        messageId path string true "Message ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/messages/{messageId}/read [post]
func (c *MessageController) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	messageID, err := pathUUID(r, "messageId", "Message ID")
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	if err := c.messageService.MarkAsRead(r.Context(), userContext.ID, messageID); err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, map[string]string{"message": "Marked as read"})
}
