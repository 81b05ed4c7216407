package gateway

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/enessquik/whatsapp-video-bot/pkg/access"
	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
	"github.com/enessquik/whatsapp-video-bot/pkg/chatlog"
	"github.com/enessquik/whatsapp-video-bot/pkg/dedup"
	"github.com/enessquik/whatsapp-video-bot/pkg/detect"
	"github.com/enessquik/whatsapp-video-bot/pkg/download"
	"github.com/enessquik/whatsapp-video-bot/pkg/jid"
	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
	"github.com/enessquik/whatsapp-video-bot/pkg/router"
	"github.com/enessquik/whatsapp-video-bot/pkg/settings"
	"github.com/enessquik/whatsapp-video-bot/pkg/transport"
)

// DefaultConcurrency bounds in-flight handlers. Downloads and renders are
// slow; intake of the next batch must never wait on them.
const DefaultConcurrency = 4

// Gateway runs the message pipeline: log, accept, dispatch, detect, download.
type Gateway struct {
	transport transport.Transport
	router    *router.Router
	detector  *detect.Registry
	guard     *dedup.Guard
	access    *access.Store
	settings  *settings.Store
	chatlog   *chatlog.Writer
	downloads *download.Orchestrator

	sem chan struct{}
	wg  sync.WaitGroup
}

func New(
	tr transport.Transport,
	r *router.Router,
	detector *detect.Registry,
	guard *dedup.Guard,
	acl *access.Store,
	st *settings.Store,
	log *chatlog.Writer,
	dl *download.Orchestrator,
	concurrency int,
) *Gateway {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Gateway{
		transport: tr,
		router:    r,
		detector:  detector,
		guard:     guard,
		access:    acl,
		settings:  st,
		chatlog:   log,
		downloads: dl,
		sem:       make(chan struct{}, concurrency),
	}
}

// SetTransport installs the transport after construction. The bridge needs
// the batch handler at dial time and the gateway needs the bridge to reply,
// so one side is wired late. Call before the first batch arrives.
func (g *Gateway) SetTransport(tr transport.Transport) {
	g.transport = tr
}

// HandleBatch fans the batch out to bounded async handlers. It returns as
// soon as every message is scheduled so the read loop keeps draining.
func (g *Gateway) HandleBatch(ctx context.Context, messages []bus.Message) {
	for _, msg := range messages {
		if err := g.chatlog.Append(msg); err != nil {
			logger.WarnCF("gateway", "Chat log write failed", map[string]interface{}{
				"id":    msg.ID,
				"error": err.Error(),
			})
		}
		if !g.accept(msg) {
			continue
		}
		g.wg.Add(1)
		go func(m bus.Message) {
			defer g.wg.Done()
			g.sem <- struct{}{}
			defer func() { <-g.sem }()
			g.handle(ctx, m)
		}(msg)
	}
}

// Wait blocks until every in-flight handler finishes, for shutdown.
func (g *Gateway) Wait() {
	g.wg.Wait()
}

// accept decides whether a message enters the pipeline. The dedup insert is
// the last check so dropped messages never occupy guard capacity.
func (g *Gateway) accept(msg bus.Message) bool {
	if msg.Text == "" {
		return false
	}
	if jid.IsStatusBroadcast(msg.ChatID) {
		return false
	}
	if g.access.IsBlacklisted(msg.ChatID) {
		logger.DebugCF("gateway", "Dropping blacklisted chat", map[string]interface{}{
			"chat": msg.ChatID,
		})
		return false
	}
	if !g.guard.CheckAndInsert(msg.ID) {
		logger.DebugCF("gateway", "Dropping duplicate message", map[string]interface{}{
			"id": msg.ID,
		})
		return false
	}
	return true
}

// handle runs one accepted message to completion. Failures become chat
// replies; nothing here may take the process down.
func (g *Gateway) handle(ctx context.Context, msg bus.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.ErrorCF("gateway", "Handler panic recovered", map[string]interface{}{
				"id":    msg.ID,
				"panic": fmt.Sprintf("%v", r),
			})
		}
	}()

	matched, err := g.router.Dispatch(ctx, msg)
	if err != nil {
		logger.ErrorCF("gateway", "Command handler failed", map[string]interface{}{
			"id":    msg.ID,
			"error": err.Error(),
		})
		g.reply(ctx, msg, fmt.Sprintf("❌ Command failed: %v", err))
		return
	}
	if matched {
		return
	}

	link := g.detector.Detect(msg.Text)
	if link == nil {
		return
	}
	g.handleDownload(ctx, msg, link)
}

func (g *Gateway) handleDownload(ctx context.Context, msg bus.Message, link *detect.Match) {
	g.reply(ctx, msg, fmt.Sprintf("🎬 Downloading the %s video...", link.Platform))

	result := g.downloads.Download(ctx, link.URL, link.Platform)
	switch result.Status {
	case download.StatusSucceeded:
		defer os.Remove(result.FilePath)
		data, err := os.ReadFile(result.FilePath)
		if err != nil {
			logger.ErrorCF("gateway", "Reading downloaded file failed", map[string]interface{}{
				"path":  result.FilePath,
				"error": err.Error(),
			})
			g.reply(ctx, msg, fmt.Sprintf("❌ Could not download the %s video. The link may be private or geo-blocked.", link.Platform))
			return
		}
		if err := g.transport.SendVideo(ctx, msg.ChatID, data, ""); err != nil {
			logger.ErrorCF("gateway", "Video relay failed", map[string]interface{}{
				"chat":  msg.ChatID,
				"error": err.Error(),
			})
			g.reply(ctx, msg, "❌ Could not send the video.")
		}

	case download.StatusOversized:
		g.reply(ctx, msg, fmt.Sprintf("❌ The video is %.1f MB; the limit is %d MB.",
			float64(result.SizeBytes)/1_000_000, g.settings.MaxFileSizeMB()))

	default:
		logger.WarnCF("gateway", "Download failed", map[string]interface{}{
			"platform": link.Platform,
			"url":      link.URL,
			"error":    fmt.Sprintf("%v", result.Err),
		})
		g.reply(ctx, msg, fmt.Sprintf("❌ Could not download the %s video. The link may be private or geo-blocked.", link.Platform))
	}
}

func (g *Gateway) reply(ctx context.Context, msg bus.Message, text string) {
	if err := g.transport.SendText(ctx, msg.ChatID, text); err != nil {
		logger.WarnCF("gateway", "Reply send failed", map[string]interface{}{
			"chat":  msg.ChatID,
			"error": err.Error(),
		})
	}
}
