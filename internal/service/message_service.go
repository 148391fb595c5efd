package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/evidark-org/evidark/internal/config"
	"github.com/evidark-org/evidark/internal/constant"
	"github.com/evidark-org/evidark/internal/entity"
	"github.com/evidark-org/evidark/internal/helper"
	"github.com/evidark-org/evidark/internal/model"
	"github.com/evidark-org/evidark/internal/repository"
	"github.com/evidark-org/evidark/internal/telemetry"
	"github.com/evidark-org/evidark/internal/websocket"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// RoomBroadcaster is the real-time fan-out. A nil broadcaster disables
// delivery; persistence still succeeds.
type RoomBroadcaster interface {
	BroadcastToRoom(chatID uuid.UUID, event websocket.Event, exclude *websocket.Client) int
	BroadcastToUser(userID uuid.UUID, event websocket.Event) int
	UserInRoom(chatID, userID uuid.UUID) bool
	IsOnline(userID uuid.UUID) bool
}

type MessageService struct {
	repo        *repository.Repository
	cfg         *config.AppConfig
	validator   *validator.Validate
	chats       *ChatService
	broadcaster RoomBroadcaster
	metrics     *telemetry.Metrics
}

func NewMessageService(repo *repository.Repository, cfg *config.AppConfig, validator *validator.Validate, chats *ChatService, broadcaster RoomBroadcaster, metrics *telemetry.Metrics) *MessageService {
	return &MessageService{
		repo:        repo,
		cfg:         cfg,
		validator:   validator,
		chats:       chats,
		broadcaster: broadcaster,
		metrics:     metrics,
	}
}

// SendMessage validates, persists and then fans out a message. It backs both
// the WebSocket send_message event and the REST send route; path labels the
// entry point in metrics.
func (s *MessageService) SendMessage(ctx context.Context, senderID uuid.UUID, req model.SendMessageRequest, path string) (*model.MessageResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if req.Type == "" {
		req.Type = constant.MessageTypeText
	}

	if err := s.validator.Struct(req); err != nil {
		slog.Warn("Validation failed", "error", err, "userID", senderID)
		return nil, helper.NewBadRequestError(helper.ValidationMessage(err))
	}
	if err := s.checkLength(req.Content); err != nil {
		return nil, err
	}

	if err := s.chats.AuthorizeParticipant(ctx, req.ChatID, senderID); err != nil {
		return nil, err
	}

	if req.ReplyToID != nil {
		reply, err := s.repo.Message.FindMessageByID(ctx, *req.ReplyToID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("Failed to load reply target", "error", err, "messageID", *req.ReplyToID)
			return nil, helper.NewInternalServerError("")
		}
		if reply == nil || reply.ChatID != req.ChatID || reply.IsDeleted {
			return nil, helper.NewBadRequestError("Reply target not found in this chat")
		}
	}

	msg := &entity.Message{
		ChatID:    req.ChatID,
		SenderID:  senderID,
		Content:   req.Content,
		Type:      req.Type,
		ReplyToID: req.ReplyToID,
	}
	for _, att := range req.Attachments {
		msg.Attachments = append(msg.Attachments, entity.MessageAttachment{
			Type:     att.Type,
			URL:      att.URL,
			Filename: att.Filename,
			Size:     att.Size,
			MimeType: att.MimeType,
		})
	}

	if err := s.repo.Message.AppendMessage(ctx, msg); err != nil {
		slog.Error("Failed to persist message", "error", err, "chatID", req.ChatID, "userID", senderID)
		return nil, helper.NewInternalServerError("")
	}
	s.metrics.MessagePersisted(path)

	populated, err := s.repo.Message.FindMessageByID(ctx, msg.ID)
	if err != nil {
		slog.Error("Failed to reload persisted message", "error", err, "messageID", msg.ID)
		populated = msg
	}

	resp := helper.ToMessageResponse(populated)
	s.fanOutNewMessage(ctx, resp, req.ClientID)

	return resp, nil
}

func (s *MessageService) checkLength(content string) error {
	if limit := s.cfg.MessageMaxLength; limit > 0 && utf8.RuneCountInString(content) > limit {
		return helper.NewBadRequestError(fmt.Sprintf("content must be at most %d characters", limit))
	}
	return nil
}

func (s *MessageService) fanOutNewMessage(ctx context.Context, msg *model.MessageResponse, clientID string) {
	if s.broadcaster == nil {
		return
	}

	event := websocket.NewEvent(websocket.EventNewMessage, msg).WithChat(msg.ChatID)
	if msg.Sender != nil {
		event = event.WithSender(msg.Sender.ID)
	}
	if clientID != "" {
		event = event.WithClientID(clientID)
	}
	delivered := s.broadcaster.BroadcastToRoom(msg.ChatID, event, nil)
	slog.Debug("Broadcast new message", "chatID", msg.ChatID, "messageID", msg.ID, "connections", delivered)

	chat, err := s.repo.Chat.FindChatByID(ctx, msg.ChatID)
	if err != nil {
		slog.Warn("Failed to load chat for notifications", "error", err, "chatID", msg.ChatID)
		return
	}

	chatName := chat.Name
	if chat.IsPrivate() && msg.Sender != nil {
		chatName = msg.Sender.Name
	}

	notification := websocket.NewEvent(websocket.EventNewMessageNotification, model.MessageNotificationPayload{
		ChatID: msg.ChatID,
		Message: model.MessageNotificationItem{
			ID:       msg.ID,
			Content:  msg.Content,
			Sender:   msg.Sender,
			ChatName: chatName,
		},
	}).WithChat(msg.ChatID)

	for _, p := range chat.Participants {
		if !p.IsActive || (msg.Sender != nil && p.UserID == msg.Sender.ID) {
			continue
		}
		if s.broadcaster.IsOnline(p.UserID) && !s.broadcaster.UserInRoom(msg.ChatID, p.UserID) {
			s.broadcaster.BroadcastToUser(p.UserID, notification)
		}
	}
}

func (s *MessageService) GetMessages(ctx context.Context, userID uuid.UUID, req model.GetMessagesRequest) ([]model.MessageResponse, helper.PaginationMeta, error) {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit < 1 {
		req.Limit = s.cfg.MessagePageLimitDefault
	}
	if req.Limit > s.cfg.MessagePageLimitMax {
		req.Limit = s.cfg.MessagePageLimitMax
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, helper.PaginationMeta{}, helper.NewBadRequestError(helper.ValidationMessage(err))
	}

	if err := s.chats.AuthorizeParticipant(ctx, req.ChatID, userID); err != nil {
		return nil, helper.PaginationMeta{}, err
	}

	messages, total, err := s.repo.Message.GetPaginatedMessages(ctx, req.ChatID, req.Page, req.Limit)
	if err != nil {
		slog.Error("Failed to load messages", "error", err, "chatID", req.ChatID)
		return nil, helper.PaginationMeta{}, helper.NewInternalServerError("")
	}

	resp := make([]model.MessageResponse, 0, len(messages))
	for i := range messages {
		resp = append(resp, *helper.ToMessageResponse(&messages[i]))
	}

	return resp, helper.NewPaginationMeta(req.Page, req.Limit, total), nil
}

func (s *MessageService) GetUnreadCount(ctx context.Context, userID, chatID uuid.UUID) (*model.UnreadCountResponse, error) {
	if err := s.chats.AuthorizeParticipant(ctx, chatID, userID); err != nil {
		return nil, err
	}

	count, err := s.repo.Message.GetUnreadCount(ctx, chatID, userID)
	if err != nil {
		slog.Error("Failed to count unread messages", "error", err, "chatID", chatID)
		return nil, helper.NewInternalServerError("")
	}

	return &model.UnreadCountResponse{ChatID: chatID, UnreadCount: count}, nil
}

// loadLiveMessage returns a message the user may act on. Soft-deleted
// messages are frozen and read as not found.
func (s *MessageService) loadLiveMessage(ctx context.Context, userID, messageID uuid.UUID) (*entity.Message, error) {
	msg, err := s.repo.Message.FindMessageByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Message not found")
		}
		slog.Error("Failed to load message", "error", err, "messageID", messageID)
		return nil, helper.NewInternalServerError("")
	}
	if msg.IsDeleted {
		return nil, helper.NewNotFoundError("Message not found")
	}

	if err := s.chats.AuthorizeParticipant(ctx, msg.ChatID, userID); err != nil {
		return nil, err
	}

	return msg, nil
}

func (s *MessageService) SetReaction(ctx context.Context, userID, messageID uuid.UUID, emoji string) error {
	req := model.ReactionRequest{Emoji: strings.TrimSpace(emoji)}
	if err := s.validator.Struct(req); err != nil {
		return helper.NewBadRequestError(helper.ValidationMessage(err))
	}

	msg, err := s.loadLiveMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}

	if err := s.repo.Message.SetReaction(ctx, &entity.MessageReaction{
		MessageID: messageID,
		UserID:    userID,
		Emoji:     req.Emoji,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Error("Failed to set reaction", "error", err, "messageID", messageID, "userID", userID)
		return helper.NewInternalServerError("")
	}

	s.broadcast(msg.ChatID, websocket.NewEvent(websocket.EventMessageReaction, model.MessageReactionPayload{
		MessageID: messageID,
		ChatID:    msg.ChatID,
		UserID:    userID,
		Emoji:     req.Emoji,
	}).WithSender(userID))
	return nil
}

func (s *MessageService) RemoveReaction(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.loadLiveMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}

	removed, err := s.repo.Message.RemoveReaction(ctx, messageID, userID)
	if err != nil {
		slog.Error("Failed to remove reaction", "error", err, "messageID", messageID, "userID", userID)
		return helper.NewInternalServerError("")
	}
	if !removed {
		return nil
	}

	s.broadcast(msg.ChatID, websocket.NewEvent(websocket.EventMessageReaction, model.MessageReactionPayload{
		MessageID: messageID,
		ChatID:    msg.ChatID,
		UserID:    userID,
	}).WithSender(userID))
	return nil
}

func (s *MessageService) MarkAsRead(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.loadLiveMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}
	if msg.SenderID == userID {
		return nil
	}

	readAt := time.Now().UTC()
	added, err := s.repo.Message.AddReadReceipt(ctx, &entity.MessageRead{
		MessageID: messageID,
		UserID:    userID,
		ReadAt:    readAt,
	})
	if err != nil {
		slog.Error("Failed to add read receipt", "error", err, "messageID", messageID, "userID", userID)
		return helper.NewInternalServerError("")
	}
	if !added {
		return nil
	}

	s.broadcast(msg.ChatID, websocket.NewEvent(websocket.EventMessageRead, model.MessageReadPayload{
		MessageID: messageID,
		ChatID:    msg.ChatID,
		UserID:    userID,
		ReadAt:    helper.FormatTime(readAt),
	}).WithSender(userID))
	return nil
}

func (s *MessageService) EditMessage(ctx context.Context, userID, messageID uuid.UUID, req model.EditMessageRequest) (*model.MessageResponse, error) {
	req.Content = strings.TrimSpace(req.Content)
	if err := s.validator.Struct(req); err != nil {
		return nil, helper.NewBadRequestError(helper.ValidationMessage(err))
	}
	if err := s.checkLength(req.Content); err != nil {
		return nil, err
	}

	msg, err := s.loadLiveMessage(ctx, userID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != userID {
		return nil, helper.NewForbiddenError("Only the sender can edit this message")
	}

	if err := s.repo.Message.UpdateMessageContent(ctx, messageID, req.Content, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, helper.NewNotFoundError("Message not found")
		}
		slog.Error("Failed to edit message", "error", err, "messageID", messageID)
		return nil, helper.NewInternalServerError("")
	}

	updated, err := s.repo.Message.FindMessageByID(ctx, messageID)
	if err != nil {
		slog.Error("Failed to reload edited message", "error", err, "messageID", messageID)
		return nil, helper.NewInternalServerError("")
	}

	resp := helper.ToMessageResponse(updated)
	s.broadcast(msg.ChatID, websocket.NewEvent(websocket.EventMessageEdited, resp).WithSender(userID))
	return resp, nil
}

// DeleteMessage soft-deletes a message. The sender or a chat admin may do it.
func (s *MessageService) DeleteMessage(ctx context.Context, userID, messageID uuid.UUID) error {
	msg, err := s.loadLiveMessage(ctx, userID, messageID)
	if err != nil {
		return err
	}

	if msg.SenderID != userID {
		role, err := s.repo.Chat.GetUserRole(ctx, msg.ChatID, userID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			slog.Error("Failed to load chat role", "error", err, "chatID", msg.ChatID)
			return helper.NewInternalServerError("")
		}
		if role != constant.ParticipantRoleAdmin {
			return helper.NewForbiddenError("Only the sender or a chat admin can delete this message")
		}
	}

	if err := s.repo.Message.SoftDeleteMessage(ctx, messageID, userID, time.Now().UTC()); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return helper.NewNotFoundError("Message not found")
		}
		slog.Error("Failed to delete message", "error", err, "messageID", messageID)
		return helper.NewInternalServerError("")
	}

	s.broadcast(msg.ChatID, websocket.NewEvent(websocket.EventMessageDeleted, model.MessageDeletedPayload{
		MessageID: messageID,
		ChatID:    msg.ChatID,
	}).WithSender(userID))
	return nil
}

func (s *MessageService) broadcast(chatID uuid.UUID, event websocket.Event) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.BroadcastToRoom(chatID, event.WithChat(chatID), nil)
}
