package helper

import (
	"github.com/evidark-org/evidark/internal/entity"
	"github.com/evidark-org/evidark/internal/model"

	"github.com/google/uuid"
)

// ToChatResponse maps a loaded chat. online overrides the persisted flag of
// participants with the live presence snapshot when non-nil.
func ToChatResponse(c *entity.Chat, online map[uuid.UUID]bool, unreadCount int64) *model.ChatResponse {
	if c == nil {
		return nil
	}

	resp := &model.ChatResponse{
		ID:             c.ID,
		Type:           c.Type,
		Name:           c.Name,
		Description:    c.Description,
		Participants:   make([]model.ParticipantResponse, 0, len(c.Participants)),
		LastMessage:    ToMessageResponse(c.LastMessage),
		LastActivityAt: FormatTime(c.LastActivityAt),
		UnreadCount:    unreadCount,
		IsEncrypted:    c.IsEncrypted,
		Settings: model.ChatSettings{
			AllowInvites:      c.AllowInvites,
			MuteNotifications: c.MuteNotifications,
		},
		CreatedBy: c.CreatedBy,
		CreatedAt: FormatTime(c.CreatedAt),
	}

	for _, p := range c.Participants {
		user := model.UserDTO{ID: p.UserID}
		if dto := ToUserDTO(p.User); dto != nil {
			user = *dto
		}
		if online != nil {
			user.IsOnline = online[p.UserID]
		}

		resp.Participants = append(resp.Participants, model.ParticipantResponse{
			User:       user,
			Role:       p.Role,
			JoinedAt:   FormatTime(p.JoinedAt),
			LastSeenAt: FormatTime(p.LastSeenAt),
			IsActive:   p.IsActive,
		})
	}

	return resp
}

func ParticipantIDs(c *entity.Chat) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(c.Participants))
	for _, p := range c.Participants {
		ids = append(ids, p.UserID)
	}
	return ids
}
