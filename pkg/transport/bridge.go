package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
)

// ConnState is the connection lifecycle. Reconnection is driven by a
// supervised loop, never by callbacks re-invoking themselves.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateOpen
	StateClosedRetryable
	StateClosedTerminal
)

const (
	requestTimeout = 60 * time.Second
	reconnectWait  = 5 * time.Second
)

// Bridge implements Transport over a websocket connection to the external
// WhatsApp bridge process.
type Bridge struct {
	url     string
	handler BatchHandler

	writeMu sync.Mutex
	conn    *websocket.Conn

	pendingMu sync.Mutex
	pending   map[string]chan responsePayload

	state atomic.Int32
}

func NewBridge(url string, handler BatchHandler) *Bridge {
	return &Bridge{
		url:     url,
		handler: handler,
		pending: make(map[string]chan responsePayload),
	}
}

func (b *Bridge) State() ConnState {
	return ConnState(b.state.Load())
}

// Run dials the bridge and keeps the connection alive until ctx is
// cancelled or the session is logged out. Any other disconnect is
// retryable: the loop waits and dials again.
func (b *Bridge) Run(ctx context.Context) error {
	for {
		b.state.Store(int32(StateConnecting))
		logger.InfoCF("transport", "Connecting to bridge", map[string]interface{}{
			"url": b.url,
		})

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, b.url, nil)
		if err != nil {
			b.state.Store(int32(StateClosedRetryable))
			logger.WarnCF("transport", "Bridge dial failed, retrying", map[string]interface{}{
				"error": err.Error(),
			})
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(reconnectWait):
				continue
			}
		}

		b.writeMu.Lock()
		b.conn = conn
		b.writeMu.Unlock()
		b.state.Store(int32(StateOpen))
		logger.InfoC("transport", "Bridge connection open")

		err = b.readLoop(ctx, conn)
		conn.Close()
		b.failPending()

		if err == ErrLoggedOut {
			b.state.Store(int32(StateClosedTerminal))
			logger.ErrorC("transport", "Session logged out; re-pair the device and restart")
			return ErrLoggedOut
		}
		if ctx.Err() != nil {
			b.state.Store(int32(StateClosedTerminal))
			return ctx.Err()
		}

		b.state.Store(int32(StateClosedRetryable))
		logger.WarnCF("transport", "Bridge connection lost, reconnecting", map[string]interface{}{
			"error": fmt.Sprintf("%v", err),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectWait):
		}
	}
}

func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			return err
		}

		switch env.Type {
		case eventMessages:
			batch, err := decodeBatch(env.Payload)
			if err != nil {
				logger.WarnCF("transport", "Dropping undecodable batch", map[string]interface{}{
					"error": err.Error(),
				})
				continue
			}
			b.handler(batch)

		case eventStatus:
			var st statusPayload
			if err := json.Unmarshal(env.Payload, &st); err != nil {
				continue
			}
			if st.Status == "closed" {
				if st.LoggedOut {
					return ErrLoggedOut
				}
				return fmt.Errorf("bridge reported close: %s", st.Reason)
			}

		case eventResponse:
			b.dispatchResponse(env)

		default:
			logger.DebugCF("transport", "Ignoring unknown bridge event", map[string]interface{}{
				"type": env.Type,
			})
		}
	}
}

func (b *Bridge) dispatchResponse(env envelope) {
	var resp responsePayload
	if err := json.Unmarshal(env.Payload, &resp); err != nil {
		return
	}
	b.pendingMu.Lock()
	ch, ok := b.pending[env.ID]
	if ok {
		delete(b.pending, env.ID)
	}
	b.pendingMu.Unlock()
	if ok {
		ch <- resp
	}
}

// failPending unblocks every in-flight request after a disconnect.
func (b *Bridge) failPending() {
	b.pendingMu.Lock()
	defer b.pendingMu.Unlock()
	for id, ch := range b.pending {
		delete(b.pending, id)
		close(ch)
	}
}

// request performs one RPC round trip against the bridge.
func (b *Bridge) request(ctx context.Context, reqType string, payload interface{}) (json.RawMessage, error) {
	if b.State() != StateOpen {
		return nil, fmt.Errorf("bridge not connected")
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s request: %w", reqType, err)
	}

	id := uuid.NewString()
	ch := make(chan responsePayload, 1)
	b.pendingMu.Lock()
	b.pending[id] = ch
	b.pendingMu.Unlock()

	env := envelope{Type: reqType, ID: id, Payload: data}
	b.writeMu.Lock()
	conn := b.conn
	var writeErr error
	if conn == nil {
		writeErr = fmt.Errorf("bridge not connected")
	} else {
		writeErr = conn.WriteJSON(env)
	}
	b.writeMu.Unlock()
	if writeErr != nil {
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
		return nil, fmt.Errorf("send %s request: %w", reqType, writeErr)
	}

	select {
	case <-ctx.Done():
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
		return nil, ctx.Err()
	case <-time.After(requestTimeout):
		b.pendingMu.Lock()
		delete(b.pending, id)
		b.pendingMu.Unlock()
		return nil, fmt.Errorf("%s request timed out", reqType)
	case resp, ok := <-ch:
		if !ok {
			return nil, fmt.Errorf("connection lost during %s request", reqType)
		}
		if !resp.OK {
			return nil, fmt.Errorf("bridge error: %s", resp.Error)
		}
		return resp.Payload, nil
	}
}

func (b *Bridge) SendText(ctx context.Context, chatID, text string) error {
	_, err := b.request(ctx, "send_text", map[string]interface{}{
		"chat_id": chatID,
		"text":    text,
	})
	return err
}

func (b *Bridge) SendVideo(ctx context.Context, chatID string, video []byte, caption string) error {
	_, err := b.request(ctx, "send_video", map[string]interface{}{
		"chat_id": chatID,
		"caption": caption,
		"data":    video,
	})
	return err
}

func (b *Bridge) SendSticker(ctx context.Context, chatID string, sticker []byte, mimeType string) error {
	_, err := b.request(ctx, "send_sticker", map[string]interface{}{
		"chat_id":   chatID,
		"mime_type": mimeType,
		"data":      sticker,
	})
	return err
}

func (b *Bridge) GroupMetadata(ctx context.Context, chatID string) (*GroupInfo, error) {
	payload, err := b.request(ctx, "group_metadata", map[string]interface{}{
		"chat_id": chatID,
	})
	if err != nil {
		return nil, err
	}
	var info GroupInfo
	if err := json.Unmarshal(payload, &info); err != nil {
		return nil, fmt.Errorf("decode group metadata: %w", err)
	}
	return &info, nil
}

func (b *Bridge) SetGroupLocked(ctx context.Context, chatID string, locked bool) error {
	setting := "not_announcement"
	if locked {
		setting = "announcement"
	}
	_, err := b.request(ctx, "group_setting", map[string]interface{}{
		"chat_id": chatID,
		"setting": setting,
	})
	return err
}

func (b *Bridge) RemoveParticipant(ctx context.Context, chatID, userJID string) error {
	_, err := b.request(ctx, "remove_participant", map[string]interface{}{
		"chat_id": chatID,
		"user":    userJID,
	})
	return err
}

func (b *Bridge) ProfilePictureURL(ctx context.Context, userJID string) (string, error) {
	payload, err := b.request(ctx, "profile_picture", map[string]interface{}{
		"user": userJID,
	})
	if err != nil {
		return "", err
	}
	var resp struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return "", fmt.Errorf("decode profile picture response: %w", err)
	}
	return resp.URL, nil
}

func (b *Bridge) Contact(ctx context.Context, userJID string) (Contact, error) {
	payload, err := b.request(ctx, "contact", map[string]interface{}{
		"user": userJID,
	})
	if err != nil {
		return Contact{}, err
	}
	var c Contact
	if err := json.Unmarshal(payload, &c); err != nil {
		return Contact{}, fmt.Errorf("decode contact response: %w", err)
	}
	return c, nil
}

func (b *Bridge) FetchQuotedImage(ctx context.Context, chatID, messageID string) ([]byte, error) {
	payload, err := b.request(ctx, "fetch_quoted_image", map[string]interface{}{
		"chat_id":    chatID,
		"message_id": messageID,
	})
	if err != nil {
		return nil, err
	}
	var resp struct {
		Data []byte `json:"data"`
	}
	if err := json.Unmarshal(payload, &resp); err != nil {
		return nil, fmt.Errorf("decode quoted image response: %w", err)
	}
	return resp.Data, nil
}
