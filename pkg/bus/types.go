package bus

import (
	"time"

	"github.com/enessquik/whatsapp-video-bot/pkg/jid"
)

// Message is one inbound chat message as delivered by the transport.
// Immutable once received.
type Message struct {
	ID            string    `json:"id"`
	ChatID        string    `json:"chat_id"`
	SenderID      string    `json:"sender_id"`
	ParticipantID string    `json:"participant_id,omitempty"`
	PushName      string    `json:"push_name,omitempty"`
	Text          string    `json:"text,omitempty"`
	Timestamp     time.Time `json:"timestamp"`

	Quoted *QuotedRef `json:"quoted,omitempty"`

	// Raw carries the transport's original payload for the daily log.
	Raw map[string]interface{} `json:"raw,omitempty"`
}

// QuotedRef describes the message a command message replies to.
type QuotedRef struct {
	ID            string `json:"id"`
	ParticipantID string `json:"participant_id,omitempty"`
	Text          string `json:"text,omitempty"`
	HasImage      bool   `json:"has_image,omitempty"`
}

// Sender returns the acting user: the group participant when present,
// otherwise the chat itself (direct chats).
func (m *Message) Sender() string {
	if m.ParticipantID != "" {
		return m.ParticipantID
	}
	return m.SenderID
}

func (m *Message) IsGroup() bool {
	return jid.IsGroup(m.ChatID)
}

// MessageHandler consumes one accepted message.
type MessageHandler func(Message) error
