package bubble

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/google/uuid"
)

// Encoder turns a composed image into sticker bytes. The actual codec is an
// external collaborator so it stays swappable (and stubbable in tests).
type Encoder interface {
	Encode(img image.Image) ([]byte, error)
	MimeType() string
}

// CwebpEncoder shells out to the cwebp executable to produce WebP stickers,
// the format WhatsApp expects.
type CwebpEncoder struct {
	Binary  string
	Quality int
	TempDir string
}

func NewCwebpEncoder(tempDir string) *CwebpEncoder {
	return &CwebpEncoder{Binary: "cwebp", Quality: 95, TempDir: tempDir}
}

func (e *CwebpEncoder) MimeType() string { return "image/webp" }

func (e *CwebpEncoder) Encode(img image.Image) ([]byte, error) {
	if err := os.MkdirAll(e.TempDir, 0755); err != nil {
		return nil, fmt.Errorf("create temp directory: %w", err)
	}

	token := uuid.NewString()[:8]
	pngPath := filepath.Join(e.TempDir, "sticker_"+token+".png")
	webpPath := filepath.Join(e.TempDir, "sticker_"+token+".webp")
	defer os.Remove(pngPath)
	defer os.Remove(webpPath)

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode intermediate png: %w", err)
	}
	if err := os.WriteFile(pngPath, buf.Bytes(), 0644); err != nil {
		return nil, fmt.Errorf("write intermediate png: %w", err)
	}

	cmd := exec.CommandContext(context.Background(), e.Binary,
		"-q", fmt.Sprintf("%d", e.Quality),
		pngPath,
		"-o", webpPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("cwebp failed: %w: %s", err, bytes.TrimSpace(out))
	}

	data, err := os.ReadFile(webpPath)
	if err != nil {
		return nil, fmt.Errorf("read encoded webp: %w", err)
	}
	return data, nil
}

// PNGEncoder encodes in-process. Used as a fallback when cwebp is not
// installed, and by tests.
type PNGEncoder struct{}

func (PNGEncoder) MimeType() string { return "image/png" }

func (PNGEncoder) Encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
