package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/enessquik/whatsapp-video-bot/pkg/access"
	"github.com/enessquik/whatsapp-video-bot/pkg/backup"
	"github.com/enessquik/whatsapp-video-bot/pkg/bubble"
	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
	"github.com/enessquik/whatsapp-video-bot/pkg/chatlog"
	"github.com/enessquik/whatsapp-video-bot/pkg/config"
	"github.com/enessquik/whatsapp-video-bot/pkg/dedup"
	"github.com/enessquik/whatsapp-video-bot/pkg/detect"
	"github.com/enessquik/whatsapp-video-bot/pkg/download"
	"github.com/enessquik/whatsapp-video-bot/pkg/gateway"
	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
	"github.com/enessquik/whatsapp-video-bot/pkg/router"
	"github.com/enessquik/whatsapp-video-bot/pkg/settings"
	"github.com/enessquik/whatsapp-video-bot/pkg/transport"
)

func main() {
	configPath := flag.String("config", "config.json", "path to the JSON config file")
	flag.Parse()

	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.FatalCF("main", "Config load failed", map[string]interface{}{"error": err.Error()})
	}
	if err := cfg.EnsureDirs(); err != nil {
		logger.FatalCF("main", "Directory setup failed", map[string]interface{}{"error": err.Error()})
	}
	if cfg.Logging.FileEnabled {
		if err := logger.EnableFileLogging(cfg.Logging.FilePath); err != nil {
			logger.WarnCF("main", "File logging unavailable", map[string]interface{}{"error": err.Error()})
		}
	}

	st := settings.Load(cfg.Paths.SettingsFile)
	acl := access.New(cfg.Access.OwnerJID,
		append([]string(nil), append(cfg.Access.AdminJIDs, st.AdminJIDs()...)...),
		cfg.Access.EnvAdminJIDs, cfg.Paths.BlacklistFile)

	r := router.New()
	backupSvc := backup.NewService(cfg.Paths.BackupsDir, []backup.Source{
		{Name: "auth_info", Path: cfg.Paths.SessionDir},
		{Name: "logs", Path: cfg.Paths.LogsDir},
		{Name: "media", Path: cfg.Paths.MediaDir},
	})
	downloads := download.NewOrchestrator(cfg.Paths.MediaDir, cfg.Downloads.Binary, st)
	encoder := bubble.NewCwebpEncoder(cfg.Paths.MediaDir)
	encoder.Binary = cfg.Sticker.CwebpBinary

	gw := gateway.New(nil, r, detect.DefaultRegistry(), dedup.NewGuard(dedup.DefaultCapacity),
		acl, st, chatlog.NewWriter(cfg.Paths.LogsDir), downloads, cfg.Downloads.Concurrency)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bridge := transport.NewBridge(cfg.Bridge.URL, func(messages []bus.Message) {
		gw.HandleBatch(ctx, messages)
	})
	gw.SetTransport(bridge)

	cmds := &router.Commands{
		Transport: bridge,
		Access:    acl,
		Settings:  st,
		Backup:    backupSvc,
		Encoder:   encoder,
	}
	if err := cmds.RegisterAll(r); err != nil {
		logger.FatalCF("main", "Command registration failed", map[string]interface{}{"error": err.Error()})
	}

	if cfg.Backup.Enabled {
		go backup.NewScheduler(backupSvc, cfg.Backup.Schedule).Start(ctx)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.InfoCF("main", "Shutting down", map[string]interface{}{"signal": sig.String()})
		cancel()
	}()

	logger.InfoCF("main", "Starting WhatsApp video bot", map[string]interface{}{
		"bridge": cfg.Bridge.URL,
		"owner":  acl.Owner(),
	})

	err = bridge.Run(ctx)
	gw.Wait()
	clearMediaDir(cfg.Paths.MediaDir)

	switch {
	case errors.Is(err, transport.ErrLoggedOut):
		logger.FatalC("main", "Session logged out, delete the session store and re-pair")
	case err != nil && !errors.Is(err, context.Canceled):
		logger.FatalCF("main", "Bridge terminated", map[string]interface{}{"error": err.Error()})
	default:
		logger.InfoC("main", "Shutdown complete")
	}
}

// clearMediaDir drops leftover temp downloads on shutdown.
func clearMediaDir(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		os.Remove(filepath.Join(dir, e.Name()))
	}
}
