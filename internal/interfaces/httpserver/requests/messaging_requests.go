package requests

import (
	"tieba-server/services/messaging-api/internal/domain/conversation"
	"tieba-server/services/messaging-api/internal/domain/notification"
)

// CreateConversationRequest opens a private or group conversation.
type CreateConversationRequest struct {
	ParticipantIDs   []uint `json:"participant_ids" binding:"required,min=1,dive,max=9223372036854775807"`
	Title            string `json:"title"`
	ConversationType string `json:"conversation_type"`
}

// MuteRequest toggles notifications of a conversation for the requester.
type MuteRequest struct {
	IsMuted *bool `json:"is_muted" binding:"required"`
}

// AttachmentRequest carries a base64 encoded file.
type AttachmentRequest struct {
	FileName string `json:"file_name" binding:"required"`
	Data     []byte `json:"data" binding:"required"`
}

// SendMessageRequest posts into an existing conversation.
type SendMessageRequest struct {
	ConversationID uint                `json:"conversation_id" binding:"required,max=9223372036854775807"`
	Content        string              `json:"content"`
	MessageType    string              `json:"message_type"`
	Attachments    []AttachmentRequest `json:"attachments"`
}

// DirectMessageRequest sends to a user by id.
type DirectMessageRequest struct {
	RecipientID uint   `json:"recipient_id" binding:"required,max=9223372036854775807"`
	Content     string `json:"content" binding:"required"`
	MessageType string `json:"message_type"`
}

// MarkMessagesReadRequest lists the messages to mark read.
type MarkMessagesReadRequest struct {
	MessageIDs []uint `json:"message_ids" binding:"required,min=1,dive,max=9223372036854775807"`
}

// BlockUserRequest blocks a user.
type BlockUserRequest struct {
	BlockedUserID uint `json:"blocked_user_id" binding:"required,max=9223372036854775807"`
}

// MarkNotificationsReadRequest marks the given notifications, or all of them.
type MarkNotificationsReadRequest struct {
	NotificationIDs []uint `json:"notification_ids" binding:"omitempty,dive,max=9223372036854775807"`
	All             bool   `json:"all"`
}

func (r CreateConversationRequest) ToInput() conversation.CreateInput {
	return conversation.CreateInput{
		ParticipantIDs: r.ParticipantIDs,
		Title:          r.Title,
		Type:           conversation.ConversationType(r.ConversationType),
	}
}

func (r SendMessageRequest) ToInput() conversation.SendInput {
	attachments := make([]conversation.AttachmentInput, 0, len(r.Attachments))
	for _, a := range r.Attachments {
		attachments = append(attachments, conversation.AttachmentInput{
			FileName: a.FileName,
			Data:     a.Data,
		})
	}
	return conversation.SendInput{
		ConversationID: r.ConversationID,
		Content:        r.Content,
		Type:           conversation.MessageType(r.MessageType),
		Attachments:    attachments,
	}
}

func (r DirectMessageRequest) ToInput() conversation.DirectInput {
	return conversation.DirectInput{
		RecipientID: r.RecipientID,
		Content:     r.Content,
		Type:        conversation.MessageType(r.MessageType),
	}
}

func (r MarkNotificationsReadRequest) ToInput() notification.MarkReadInput {
	return notification.MarkReadInput{
		IDs: r.NotificationIDs,
		All: r.All,
	}
}
