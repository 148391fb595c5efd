package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/evidark-org/evidark/internal/constant"
	"github.com/evidark-org/evidark/internal/entity"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RoomManager drops live subscriptions when membership changes. May be nil.
type RoomManager interface {
	EvictUser(chatID, userID uuid.UUID)
	CloseRoom(chatID uuid.UUID)
}

type ChatService struct {
	repo      *repository.Repository
	validator *validator.Validate
	presence  *PresenceService
	rooms     RoomManager
}

func NewChatService(repo *repository.Repository, validator *validator.Validate, presence *PresenceService, rooms RoomManager) *ChatService {
	return &ChatService{
		repo:      repo,
		validator: validator,
		presence:  presence,
		rooms:     rooms,
	}
}

// AuthorizeParticipant refuses users who are not active participants of a
// live chat.
func (s *ChatService) AuthorizeParticipant(ctx context.Context, chatID, userID uuid.UUID) error {
	ok, err := s.repo.Chat.IsParticipant(ctx, chatID, userID)
	if err != nil {
		slog.Error("Failed to check chat participation", "error", err, "chatID", chatID, "userID", userID)
		return helper.NewInternalServerError("")
	}
	if !ok {
		return helper.NewForbiddenError("You are not a participant of this chat")
	}
	return nil
}

func (s *ChatService) ListChats(ctx context.Context, userID uuid.UUID, req model.ListChatsRequest) ([]model.ChatResponse, helper.PaginationMeta, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, helper.PaginationMeta{}, helper.NewBadRequestError(helper.ValidationMessage(err))
	}

	chats, total, err := s.repo.Chat.ListChatsForUser(ctx, userID, req.Search, req.Page, req.Limit)
	if err != nil {
		slog.Error("Failed to list chats", "error", err, "userID", userID)
		return nil, helper.PaginationMeta{}, helper.NewInternalServerError("")
	}

	chatIDs := make([]uuid.UUID, 0, len(chats))
	var userIDs []uuid.UUID
	seen := make(map[uuid.UUID]bool)
	for i := range chats {
		chatIDs = append(chatIDs, chats[i].ID)
		for _, id := range helper.ParticipantIDs(&chats[i]) {
			if !seen[id] {
				seen[id] = true
				userIDs = append(userIDs, id)
			}
		}
	}

	unread, err := s.repo.Message.GetUnreadCounts(ctx, chatIDs, userID)
	if err != nil {
		slog.Error("Failed to count unread messages", "error", err, "userID", userID)
		return nil, helper.PaginationMeta{}, helper.NewInternalServerError("")
	}

	online := s.presence.OnlineMap(ctx, userIDs)

	resp := make([]model.ChatResponse, 0, len(chats))
	for i := range chats {
		resp = append(resp, *helper.ToChatResponse(&chats[i], online, unread[chats[i].ID]))
	}

	return resp, helper.NewPaginationMeta(req.Page, req.Limit, total), nil
}

func (s *ChatService) CreateChat(ctx context.Context, userID uuid.UUID, req model.CreateChatRequest) (*model.ChatResponse, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Description = strings.TrimSpace(req.Description)

	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", userID)
		return nil, helper.NewBadRequestError(helper.ValidationMessage(err))
	}

	others := make([]uuid.UUID, 0, len(req.Participants))
	seen := map[uuid.UUID]bool{userID: true}
	for _, id := range req.Participants {
		if !seen[id] {
			seen[id] = true
			others = append(others, id)
		}
	}

	if req.Type == constant.ChatTypePrivate && len(others) != 1 {
		return nil, helper.NewBadRequestError("Private chat requires exactly one other participant")
	}
	if req.Type == constant.ChatTypeGroup {
		if req.Name == "" {
			return nil, helper.NewBadRequestError("Group chat requires a name")
		}
		if len(others) == 0 {
			return nil, helper.NewBadRequestError("Group chat requires at least one other participant")
		}
	}

	count, err := s.repo.User.CountByIDs(ctx, others)
	if err != nil {
		slog.Error("Failed to check participants", "error", err)
		return nil, helper.NewInternalServerError("")
	}
	if count != int64(len(others)) {
		return nil, helper.NewBadRequestError("Some participants do not exist")
	}

	if req.Type == constant.ChatTypePrivate {
		return s.createPrivateChat(ctx, userID, others[0])
	}

	chat, err := s.repo.Chat.CreateGroupChat(ctx, userID, req.Name, req.Description, others)
	if err != nil {
		slog.Error("Failed to create group chat", "error", err, "userID", userID)
		return nil, helper.NewInternalServerError("")
	}

	return helper.ToChatResponse(chat, nil, 0), nil
}

type privateChatResult struct {
	chat    *entity.Chat
	created bool
}

func (s *ChatService) createPrivateChat(ctx context.Context, userID, otherID uuid.UUID) (*model.ChatResponse, error) {
	result, err := helper.RetryWithBackoff[privateChatResult](ctx, func() (privateChatResult, bool, error) {
		chat, created, err := s.repo.Chat.CreatePrivateChatIfAbsent(ctx, userID, otherID)
		return privateChatResult{chat: chat, created: created}, errors.Is(err, repository.ErrNotFound), err
	}, 2, 50*time.Millisecond)
	if err != nil {
		slog.Error("Failed to create private chat", "error", err, "userID", userID, "otherID", otherID)
		return nil, helper.NewInternalServerError("")
	}

	if result.created {
		return helper.ToChatResponse(result.chat, nil, 0), nil
	}

	existing := result.chat
	if existing.ActiveParticipant(userID) == nil {
		if err := s.repo.Chat.ReactivateParticipant(ctx, existing.ID, userID); err != nil {
			slog.Error("Failed to rejoin private chat", "error", err, "chatID", existing.ID, "userID", userID)
			return nil, helper.NewInternalServerError("")
		}
	}

	return nil, helper.NewChatConflictError("Private chat already exists", existing.ID)
}

func (s *ChatService) GetChat(ctx context.Context, userID, chatID uuid.UUID) (*model.ChatResponse, error) {
	chat, err := s.loadChatForParticipant(ctx, userID, chatID)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.Message.GetUnreadCount(ctx, chatID, userID)
	if err != nil {
		slog.Error("Failed to count unread messages", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}

	return helper.ToChatResponse(chat, s.presence.OnlineMap(ctx, helper.ParticipantIDs(chat)), unread), nil
}

func (s *ChatService) loadChatForParticipant(ctx context.Context, userID, chatID uuid.UUID) (*entity.Chat, error) {
	chat, err := s.repo.Chat.FindChatByID(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load chat", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}

	if chat.ActiveParticipant(userID) == nil {
		return nil, helper.NewNotFoundError("Chat not found")
	}

	return chat, nil
}

func (s *ChatService) UpdateChat(ctx context.Context, userID, chatID uuid.UUID, req model.UpdateChatRequest) (*model.ChatResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, helper.NewBadRequestError(helper.ValidationMessage(err))
	}

	role, err := s.repo.Chat.GetUserRole(ctx, chatID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to load chat role", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}
	if role != constant.ParticipantRoleAdmin {
		return nil, helper.NewForbiddenError("Only admins can update this chat")
	}

	fields := make(map[string]interface{})
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Settings != nil {
		if req.Settings.AllowInvites != nil {
			fields["allow_invites"] = *req.Settings.AllowInvites
		}
		if req.Settings.MuteNotifications != nil {
			fields["mute_notifications"] = *req.Settings.MuteNotifications
		}
	}

	if err := s.repo.Chat.UpdateChat(ctx, chatID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Chat not found")
		}
		slog.Error("Failed to update chat", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}

	return s.GetChat(ctx, userID, chatID)
}

// LeaveOrDeleteChat soft-deletes a group when its admin asks, otherwise marks
// the caller inactive. It reports whether the chat was deleted.
func (s *ChatService) LeaveOrDeleteChat(ctx context.Context, userID, chatID uuid.UUID) (bool, error) {
	chat, err := s.loadChatForParticipant(ctx, userID, chatID)
	if err != nil {
		return false, err
	}

	participant := chat.ActiveParticipant(userID)
	if chat.Type == constant.ChatTypeGroup && participant.Role == constant.ParticipantRoleAdmin {
		if err := s.repo.Chat.SoftDeleteChat(ctx, chatID); err != nil {
			slog.Error("Failed to delete chat", "error", err, "chatID", chatID)
			return false, helper.NewInternalServerError("")
		}
		if s.rooms != nil {
			s.rooms.CloseRoom(chatID)
		}
		return true, nil
	}

	if err := s.repo.Chat.DeactivateParticipant(ctx, chatID, userID); err != nil {
		slog.Error("Failed to leave chat", "error", err, "chatID", chatID, "userID", userID)
		return false, helper.NewInternalServerError("")
	}
	if s.rooms != nil {
		s.rooms.EvictUser(chatID, userID)
	}
	return false, nil
}
