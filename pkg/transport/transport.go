// Package transport talks to the external WhatsApp bridge process. The
// bridge owns the wire protocol and session pairing; this side sees only a
// message event stream and a set of send/update operations.
package transport

import (
	"context"
	"errors"

	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
)

// ErrLoggedOut is the one terminal disconnect: the session was logged out
// remotely and requires re-pairing, so no reconnect is attempted.
var ErrLoggedOut = errors.New("session logged out, re-pairing required")

// GroupParticipant is one member in group metadata. The same person may be
// reported under several identifier variants.
type GroupParticipant struct {
	ID           string `json:"id"`
	IsAdmin      bool   `json:"is_admin"`
	IsSuperAdmin bool   `json:"is_super_admin"`
}

type GroupInfo struct {
	ID           string             `json:"id"`
	Subject      string             `json:"subject"`
	Participants []GroupParticipant `json:"participants"`
}

// Contact is what the bridge's contact store knows about a user.
type Contact struct {
	Name   string `json:"name,omitempty"`
	Notify string `json:"notify,omitempty"`
	VName  string `json:"vname,omitempty"`
}

// Transport is the full operation surface handlers use. Every send replies
// in the context of the triggering message's chat.
type Transport interface {
	SendText(ctx context.Context, chatID, text string) error
	SendVideo(ctx context.Context, chatID string, video []byte, caption string) error
	SendSticker(ctx context.Context, chatID string, sticker []byte, mimeType string) error

	GroupMetadata(ctx context.Context, chatID string) (*GroupInfo, error)
	SetGroupLocked(ctx context.Context, chatID string, locked bool) error
	RemoveParticipant(ctx context.Context, chatID, userJID string) error

	ProfilePictureURL(ctx context.Context, userJID string) (string, error)
	Contact(ctx context.Context, userJID string) (Contact, error)
	FetchQuotedImage(ctx context.Context, chatID, messageID string) ([]byte, error)
}

// BatchHandler consumes one delivered message batch.
type BatchHandler func(messages []bus.Message)
