// Package backup snapshots the bot's state directories into timestamped
// zip archives.
package backup

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
)

// ErrBusy means a backup is already in flight; the caller should report a
// busy indication instead of waiting.
var ErrBusy = errors.New("a backup is already running")

// Source is one directory captured into the archive under Name.
type Source struct {
	Name string
	Path string
}

// Service produces archives. At most one backup runs at a time: scheduled
// and manual triggers share the same guard.
type Service struct {
	mu      sync.Mutex
	outDir  string
	sources []Source
	now     func() time.Time
}

func NewService(outDir string, sources []Source) *Service {
	return &Service{outDir: outDir, sources: sources, now: time.Now}
}

// Run creates backup-<YYYY-MM-DD>.zip (UTC date) from every source
// directory that exists; missing directories are skipped, not errors.
// A second call while one is in flight returns ErrBusy.
func (s *Service) Run() (string, error) {
	if !s.mu.TryLock() {
		return "", ErrBusy
	}
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.outDir, 0755); err != nil {
		return "", fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("backup-%s.zip", s.now().UTC().Format("2006-01-02"))
	outPath := filepath.Join(s.outDir, name)

	f, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("create archive: %w", err)
	}

	zw := zip.NewWriter(f)
	for _, src := range s.sources {
		info, err := os.Stat(src.Path)
		if err != nil || !info.IsDir() {
			continue
		}
		if err := addDirectory(zw, src.Path, src.Name); err != nil {
			zw.Close()
			f.Close()
			os.Remove(outPath)
			return "", fmt.Errorf("archive %s: %w", src.Name, err)
		}
	}

	if err := zw.Close(); err != nil {
		f.Close()
		os.Remove(outPath)
		return "", fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("close archive: %w", err)
	}

	logger.InfoCF("backup", "Backup archive created", map[string]interface{}{
		"path": outPath,
	})
	return outPath, nil
}

func addDirectory(zw *zip.Writer, root, prefix string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		w, err := zw.Create(filepath.ToSlash(filepath.Join(prefix, rel)))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(w, src)
		return err
	})
}
