package bubble

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
)

const avatarFetchTimeout = 10 * time.Second

// maxAvatarBytes bounds the profile picture fetch; anything larger than
// this is not a profile thumbnail.
const maxAvatarBytes = 5 << 20

// FetchAvatar performs a bounded best-effort fetch of a profile picture.
// Any failure (timeout, non-200, decode error) returns nil so the renderer
// falls back to the default avatar; a missing picture never fails a render.
func FetchAvatar(ctx context.Context, url string) image.Image {
	if url == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, avatarFetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		logger.DebugCF("bubble", "Avatar fetch failed", map[string]interface{}{
			"url":   url,
			"error": err.Error(),
		})
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logger.DebugCF("bubble", "Avatar fetch returned non-200 status", map[string]interface{}{
			"url":    url,
			"status": resp.StatusCode,
		})
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxAvatarBytes))
	if err != nil {
		return nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		logger.DebugCF("bubble", "Avatar decode failed", map[string]interface{}{
			"url":   url,
			"error": fmt.Sprintf("%v", err),
		})
		return nil
	}
	return img
}
