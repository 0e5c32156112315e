package responses

import (
	"time"

	"tieba-server/services/messaging-api/internal/domain/conversation"
)

// ParticipantResponse is a conversation member with its read state.
type ParticipantResponse struct {
	UserID      uint       `json:"user_id"`
	Username    string     `json:"username"`
	Nickname    string     `json:"nickname,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	IsMuted     bool       `json:"is_muted"`
	IsBlocked   bool       `json:"is_blocked"`
	UnreadCount int        `json:"unread_count"`
	LastReadAt  *time.Time `json:"last_read_at"`
	JoinedAt    time.Time  `json:"joined_at"`
}

// AttachmentResponse describes a stored message file.
type AttachmentResponse struct {
	ID       uint   `json:"id"`
	FileURL  string `json:"file_url"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
	FileType string `json:"file_type"`
}

// MessageResponse is a message as returned to participants.
type MessageResponse struct {
	ID             uint                 `json:"id"`
	Object         string               `json:"object"`
	ConversationID uint                 `json:"conversation_id"`
	SenderID       uint                 `json:"sender_id"`
	SenderName     string               `json:"sender_name"`
	SenderAvatar   string               `json:"sender_avatar,omitempty"`
	Content        string               `json:"content"`
	MessageType    string               `json:"message_type"`
	IsRead         bool                 `json:"is_read"`
	CreatedAt      time.Time            `json:"created_at"`
	Attachments    []AttachmentResponse `json:"attachments"`
}

// ConversationResponse is the list shape of a conversation for one requester.
type ConversationResponse struct {
	ID            uint                  `json:"id"`
	Object        string                `json:"object"`
	Title         string                `json:"title"`
	Type          string                `json:"conversation_type"`
	Participants  []ParticipantResponse `json:"participants"`
	LastMessage   *MessageResponse      `json:"last_message"`
	UnreadCount   int                   `json:"unread_count"`
	MessageCount  int                   `json:"message_count"`
	LastMessageAt *time.Time            `json:"last_message_at"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

// ConversationDetailResponse adds the ordered history to the summary.
type ConversationDetailResponse struct {
	ConversationResponse
	Messages []MessageResponse `json:"messages"`
}

// MuteResponse reports the participant mute state after an update.
type MuteResponse struct {
	ConversationID uint `json:"conversation_id"`
	IsMuted        bool `json:"is_muted"`
}

// MarkReadResponse acknowledges a mark-read request.
type MarkReadResponse struct {
	Success bool `json:"success"`
	Marked  int  `json:"marked"`
}

func NewParticipantResponse(p conversation.Participant) ParticipantResponse {
	return ParticipantResponse{
		UserID:      p.UserID,
		Username:    p.Username,
		Nickname:    p.Nickname,
		Avatar:      p.Avatar,
		IsMuted:     p.IsMuted,
		IsBlocked:   p.IsBlocked,
		UnreadCount: p.UnreadCount,
		LastReadAt:  p.LastReadAt,
		JoinedAt:    p.JoinedAt,
	}
}

func NewMessageResponse(m *conversation.Message) MessageResponse {
	attachments := make([]AttachmentResponse, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		attachments = append(attachments, AttachmentResponse{
			ID:       a.ID,
			FileURL:  a.FileURL,
			FileName: a.FileName,
			FileSize: a.FileSize,
			FileType: a.FileType,
		})
	}
	return MessageResponse{
		ID:             m.ID,
		Object:         "message",
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		SenderName:     m.SenderName,
		SenderAvatar:   m.SenderAvatar,
		Content:        m.Content,
		MessageType:    string(m.Type),
		IsRead:         m.IsRead,
		CreatedAt:      m.CreatedAt,
		Attachments:    attachments,
	}
}

// NewConversationResponse renders a bare conversation, as returned by create.
func NewConversationResponse(c *conversation.Conversation, requesterID uint) ConversationResponse {
	return NewSummaryResponse(&conversation.Summary{
		Conversation: c,
		UnreadCount:  c.UnreadCountFor(requesterID),
	})
}

func NewSummaryResponse(s *conversation.Summary) ConversationResponse {
	c := s.Conversation
	participants := make([]ParticipantResponse, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, NewParticipantResponse(p))
	}

	resp := ConversationResponse{
		ID:            c.ID,
		Object:        "conversation",
		Title:         c.Title,
		Type:          string(c.Type),
		Participants:  participants,
		UnreadCount:   s.UnreadCount,
		MessageCount:  c.MessageCount,
		LastMessageAt: c.LastMessageAt,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
	if s.LastMessage != nil {
		last := NewMessageResponse(s.LastMessage)
		resp.LastMessage = &last
	}
	return resp
}

func NewDetailResponse(d *conversation.Detail) ConversationDetailResponse {
	return ConversationDetailResponse{
		ConversationResponse: NewSummaryResponse(&d.Summary),
		Messages:             MapItems(d.Messages, NewMessageResponse),
	}
}
