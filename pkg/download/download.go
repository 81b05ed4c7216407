// Package download orchestrates size-bounded media downloads through an
// external downloader executable.
package download

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
	"github.com/enessquik/whatsapp-video-bot/pkg/settings"
)

// ErrNotFound means the downloader exited without producing a file.
var ErrNotFound = errors.New("no downloaded file found")

// formatSpec caps the best-effort format at 720p for bandwidth and
// WhatsApp playback compatibility.
const formatSpec = "best[height<=720]/best"

type Status int

const (
	StatusSucceeded Status = iota
	StatusOversized
	StatusFailed
)

// Result is the terminal state of one download job.
type Result struct {
	Status    Status
	FilePath  string // set on success; the caller owns deletion after relay
	SizeBytes int64  // set on success and oversized rejection
	Err       error  // set on failure
}

// Runner invokes the external downloader. maxSizeMB is passed through as a
// hint that reduces wasted bandwidth; it is not a substitute for the
// post-download size check.
type Runner func(ctx context.Context, url, outputTemplate string, maxSizeMB int) error

// Orchestrator generates collision-resistant output names, runs the
// downloader and enforces the configured size ceiling afterwards.
type Orchestrator struct {
	dir      string
	settings *settings.Store
	run      Runner
}

func NewOrchestrator(dir, binary string, st *settings.Store) *Orchestrator {
	return &Orchestrator{
		dir:      dir,
		settings: st,
		run:      execRunner(binary),
	}
}

// SetRunner replaces the downloader invocation, used by tests.
func (o *Orchestrator) SetRunner(run Runner) {
	o.run = run
}

// MediaDir returns the temp directory downloads land in.
func (o *Orchestrator) MediaDir() string {
	return o.dir
}

// Download fetches url and returns the job's terminal state. The temp file
// is deleted here on every path except success, where ownership passes to
// the caller.
func (o *Orchestrator) Download(ctx context.Context, url, platform string) Result {
	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return Result{Status: StatusFailed, Err: fmt.Errorf("create media directory: %w", err)}
	}

	prefix := fmt.Sprintf("%s_%d_%s", platform, time.Now().UnixMilli(), uuid.NewString()[:8])
	template := filepath.Join(o.dir, prefix+".%(ext)s")
	maxMB := o.settings.MaxFileSizeMB()

	logger.InfoCF("download", "Starting download", map[string]interface{}{
		"platform": platform,
		"url":      url,
		"max_mb":   maxMB,
	})

	if err := o.run(ctx, url, template, maxMB); err != nil {
		// The downloader may have left a partial file behind.
		o.removeByPrefix(prefix)
		return Result{Status: StatusFailed, Err: fmt.Errorf("downloader failed: %w", err)}
	}

	// The downloader chooses the extension, so locate the file by prefix.
	path := o.findByPrefix(prefix)
	if path == "" {
		return Result{Status: StatusFailed, Err: ErrNotFound}
	}

	info, err := os.Stat(path)
	if err != nil {
		os.Remove(path)
		return Result{Status: StatusFailed, Err: fmt.Errorf("stat downloaded file: %w", err)}
	}

	if info.Size() > o.settings.MaxFileSizeBytes() {
		os.Remove(path)
		logger.WarnCF("download", "Download rejected: file over size limit", map[string]interface{}{
			"platform":   platform,
			"size_bytes": info.Size(),
			"max_mb":     maxMB,
		})
		return Result{Status: StatusOversized, SizeBytes: info.Size()}
	}

	logger.InfoCF("download", "Download complete", map[string]interface{}{
		"platform":   platform,
		"path":       path,
		"size_bytes": info.Size(),
	})
	return Result{Status: StatusSucceeded, FilePath: path, SizeBytes: info.Size()}
}

func (o *Orchestrator) findByPrefix(prefix string) string {
	entries, err := os.ReadDir(o.dir)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasPrefix(e.Name(), prefix) {
			return filepath.Join(o.dir, e.Name())
		}
	}
	return ""
}

func (o *Orchestrator) removeByPrefix(prefix string) {
	for {
		path := o.findByPrefix(prefix)
		if path == "" {
			return
		}
		if err := os.Remove(path); err != nil {
			logger.WarnCF("download", "Failed to remove partial file", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return
		}
	}
}

func execRunner(binary string) Runner {
	return func(ctx context.Context, url, outputTemplate string, maxSizeMB int) error {
		cmd := exec.CommandContext(ctx, binary,
			url,
			"-o", outputTemplate,
			"-f", formatSpec,
			"--max-filesize", fmt.Sprintf("%dM", maxSizeMB),
			"--no-playlist",
		)
		out, err := cmd.CombinedOutput()
		if err != nil {
			return fmt.Errorf("%w: %s", err, lastLine(out))
		}
		return nil
	}
}

func lastLine(out []byte) string {
	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
