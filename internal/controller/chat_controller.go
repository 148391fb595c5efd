package controller

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/middleware"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/service"
)

type ChatController struct {
	chatService *service.ChatService
}

func NewChatController(chatService *service.ChatService) *ChatController {
	return &ChatController{
		chatService: chatService,
	}
}

// GetChats godoc
// @Summary      List Chats
// @Description  List the caller's active chats, most recently active first. Search matches the chat name or a participant name.
// @Tags         chat
// @Produce      json
// @Param        page   query int    false "Page (default 1)"
// @Param        limit  query int    false "Page size (default 20, max 100)"
// @Param        search query string false "Search term"
// @Success      200  {object}  helper.ResponseWithPagination{data=[]model.ChatResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats [get]
func (c *ChatController) GetChats(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	req := model.ListChatsRequest{
		Search: r.URL.Query().Get("search"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}

	chats, meta, err := c.chatService.ListChats(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccessWithPagination(w, chats, meta)
}

// CreateChat godoc
// @Summary      Create Chat
// @Description  Create a private chat with one other user or a group chat. A duplicate private chat answers 409 with the existing chat id.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body model.CreateChatRequest true "Create Chat Request"
// @Success      201  {object}  helper.ResponseSuccess{data=model.ChatResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      409  {object}  helper.ResponseError
// @Failure      500  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats [post]
func (c *ChatController) CreateChat(w http.ResponseWriter, r *http.Request) {
	userContext, ok := middleware.UserFromContext(r.Context())
	if !ok {
		helper.WriteError(w, helper.NewUnauthorizedError(""))
		return
	}

	var req model.CreateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid request body", "error", err)
		helper.WriteError(w, helper.NewBadRequestError(""))
		return
	}

	resp, err := c.chatService.CreateChat(r.Context(), userContext.ID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteCreated(w, resp)
}

// GetChat godoc
// @Summary      Get Chat
// @Tags         chat
// @Produce      json
// @Param        chatId path string true "Chat ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      401  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatId} [get]
func (c *ChatController) GetChat(w http.ResponseWriter, r *http.Request) {
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

	resp, err := c.chatService.GetChat(r.Context(), userContext.ID, chatID)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// UpdateChat godoc
// @Summary      Update Chat
// @Description  Update name, description or settings. Admins only.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        chatId path string true "Chat ID (UUID)"
// @Param        request body model.UpdateChatRequest true "Update Chat Request"
// @Success      200  {object}  helper.ResponseSuccess{data=model.ChatResponse}
// @Failure      400  {object}  helper.ResponseError
// @Failure      403  {object}  helper.ResponseError
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatId} [put]
func (c *ChatController) UpdateChat(w http.ResponseWriter, r *http.Request) {
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

	var req model.UpdateChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Warn("Invalid request body", "error", err)
		helper.WriteError(w, helper.NewBadRequestError(""))
		return
	}

	resp, err := c.chatService.UpdateChat(r.Context(), userContext.ID, chatID, req)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	helper.WriteSuccess(w, resp)
}

// DeleteChat godoc
// @Summary      Leave or Delete Chat
// @Description  A group admin deletes the group. Anyone else leaves the chat.
// @Tags         chat
// @Produce      json
// @Param        chatId path string true "Chat ID (UUID)"
// @Success      200  {object}  helper.ResponseSuccess
// @Failure      404  {object}  helper.ResponseError
// @Security     BearerAuth
// @Router       /api/chats/{chatId} [delete]
func (c *ChatController) DeleteChat(w http.ResponseWriter, r *http.Request) {
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

	deleted, err := c.chatService.LeaveOrDeleteChat(r.Context(), userContext.ID, chatID)
	if err != nil {
		helper.WriteError(w, err)
		return
	}

	message := "Left chat"
	if deleted {
		message = "Chat deleted"
	}
	helper.WriteSuccess(w, map[string]interface{}{
		"chatId":  chatID,
		"deleted": deleted,
		"message": message,
	})
}
