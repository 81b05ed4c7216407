package transport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
)

// envelope frames every bridge event and request.
type envelope struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	eventMessages = "messages"
	eventStatus   = "status"
	eventResponse = "response"
)

// wireMessage is one inbound message as the bridge reports it.
type wireMessage struct {
	ID          string          `json:"id"`
	ChatID      string          `json:"chat_id"`
	Participant string          `json:"participant,omitempty"`
	PushName    string          `json:"push_name,omitempty"`
	Text        string          `json:"text,omitempty"`
	Timestamp   int64           `json:"timestamp"`
	Quoted      *wireQuoted     `json:"quoted,omitempty"`
	Raw         json.RawMessage `json:"raw,omitempty"`
}

type wireQuoted struct {
	ID          string `json:"id"`
	Participant string `json:"participant,omitempty"`
	Text        string `json:"text,omitempty"`
	HasImage    bool   `json:"has_image,omitempty"`
}

type statusPayload struct {
	Status    string `json:"status"` // "open" or "closed"
	Reason    string `json:"reason,omitempty"`
	LoggedOut bool   `json:"logged_out,omitempty"`
}

type responsePayload struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// decodeBatch converts a bridge message batch into bus messages.
func decodeBatch(payload json.RawMessage) ([]bus.Message, error) {
	var wires []wireMessage
	if err := json.Unmarshal(payload, &wires); err != nil {
		return nil, fmt.Errorf("decode message batch: %w", err)
	}

	out := make([]bus.Message, 0, len(wires))
	for _, w := range wires {
		msg := bus.Message{
			ID:            w.ID,
			ChatID:        w.ChatID,
			SenderID:      w.ChatID,
			ParticipantID: w.Participant,
			PushName:      w.PushName,
			Text:          w.Text,
			Timestamp:     time.Unix(w.Timestamp, 0).UTC(),
		}
		if w.Quoted != nil {
			msg.Quoted = &bus.QuotedRef{
				ID:            w.Quoted.ID,
				ParticipantID: w.Quoted.Participant,
				Text:          w.Quoted.Text,
				HasImage:      w.Quoted.HasImage,
			}
		}
		if len(w.Raw) > 0 {
			var raw map[string]interface{}
			if err := json.Unmarshal(w.Raw, &raw); err == nil {
				msg.Raw = raw
			}
		}
		out = append(out, msg)
	}
	return out, nil
}
