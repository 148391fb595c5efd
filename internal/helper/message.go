package helper

import (
	"time"

	"github.com/evidark-org/evidark/internal/entity"
	"github.com/evidark-org/evidark/internal/model"
)

func FormatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTime(*t)
	return &s
}

func ToUserDTO(u *entity.User) *model.UserDTO {
	if u == nil {
		return nil
	}
	return &model.UserDTO{
		ID:       u.ID,
		Name:     u.Name,
		Username: u.Username,
		Avatar:   u.Avatar,
		Role:     u.Role,
		IsOnline: u.IsOnline,
		LastSeen: FormatTimePtr(u.LastSeen),
	}
}

func ToMessageResponse(msg *entity.Message) *model.MessageResponse {
	if msg == nil {
		return nil
	}

	resp := &model.MessageResponse{
		ID:          msg.ID,
		ChatID:      msg.ChatID,
		Sender:      ToUserDTO(msg.Sender),
		Content:     msg.Content,
		Type:        msg.Type,
		Attachments: make([]model.AttachmentDTO, 0, len(msg.Attachments)),
		Reactions:   make([]model.ReactionDTO, 0, len(msg.Reactions)),
		ReadBy:      make([]model.ReadReceiptDTO, 0, len(msg.ReadBy)),
		IsEncrypted: msg.IsEncrypted,
		IsEdited:    msg.IsEdited,
		EditedAt:    FormatTimePtr(msg.EditedAt),
		IsDeleted:   msg.IsDeleted,
		DeletedAt:   FormatTimePtr(msg.DeletedAt),
		CreatedAt:   FormatTime(msg.CreatedAt),
	}

	for _, att := range msg.Attachments {
		resp.Attachments = append(resp.Attachments, model.AttachmentDTO{
			Type:     att.Type,
			URL:      att.URL,
			Filename: att.Filename,
			Size:     att.Size,
			MimeType: att.MimeType,
		})
	}

	for _, r := range msg.Reactions {
		resp.Reactions = append(resp.Reactions, model.ReactionDTO{
			UserID:    r.UserID,
			Emoji:     r.Emoji,
			CreatedAt: FormatTime(r.CreatedAt),
		})
	}

	for _, rd := range msg.ReadBy {
		resp.ReadBy = append(resp.ReadBy, model.ReadReceiptDTO{
			UserID: rd.UserID,
			ReadAt: FormatTime(rd.ReadAt),
		})
	}

	if reply := msg.ReplyTo; reply != nil {
		preview := &model.ReplyPreviewDTO{
			ID:        reply.ID,
			SenderID:  reply.SenderID,
			Type:      reply.Type,
			IsDeleted: reply.IsDeleted,
		}
		if !reply.IsDeleted {
			preview.Content = reply.Content
		}
		resp.ReplyTo = preview
	}

	return resp
}
