package gateway

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/enessquik/whatsapp-video-bot/pkg/access"
	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
	"github.com/enessquik/whatsapp-video-bot/pkg/chatlog"
	"github.com/enessquik/whatsapp-video-bot/pkg/dedup"
	"github.com/enessquik/whatsapp-video-bot/pkg/detect"
	"github.com/enessquik/whatsapp-video-bot/pkg/download"
	"github.com/enessquik/whatsapp-video-bot/pkg/router"
	"github.com/enessquik/whatsapp-video-bot/pkg/settings"
	"github.com/enessquik/whatsapp-video-bot/pkg/transport"
)

// fakeTransport is safe for concurrent handler goroutines.
type fakeTransport struct {
	mu     sync.Mutex
	texts  []string
	videos int
}

func (f *fakeTransport) SendText(ctx context.Context, chatID, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return nil
}

func (f *fakeTransport) SendVideo(ctx context.Context, chatID string, video []byte, caption string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos++
	return nil
}

func (f *fakeTransport) SendSticker(ctx context.Context, chatID string, sticker []byte, mimeType string) error {
	return nil
}

func (f *fakeTransport) GroupMetadata(ctx context.Context, chatID string) (*transport.GroupInfo, error) {
	return &transport.GroupInfo{ID: chatID}, nil
}

func (f *fakeTransport) SetGroupLocked(ctx context.Context, chatID string, locked bool) error {
	return nil
}

func (f *fakeTransport) RemoveParticipant(ctx context.Context, chatID, userJID string) error {
	return nil
}

func (f *fakeTransport) ProfilePictureURL(ctx context.Context, userJID string) (string, error) {
	return "", nil
}

func (f *fakeTransport) Contact(ctx context.Context, userJID string) (transport.Contact, error) {
	return transport.Contact{}, nil
}

func (f *fakeTransport) FetchQuotedImage(ctx context.Context, chatID, messageID string) ([]byte, error) {
	return nil, nil
}

func (f *fakeTransport) sentTexts() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.texts...)
}

func (f *fakeTransport) sentVideos() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.videos
}

type fixture struct {
	gw       *Gateway
	ft       *fakeTransport
	acl      *access.Store
	settings *settings.Store
	dl       *download.Orchestrator
	mediaDir string
	router   *router.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dir := t.TempDir()
	mediaDir := filepath.Join(dir, "media")
	os.MkdirAll(mediaDir, 0o755)

	ft := &fakeTransport{}
	acl := access.New("905550001122", nil, "", filepath.Join(dir, "blacklist.json"))
	st := settings.Load(filepath.Join(dir, "settings.json"))
	dl := download.NewOrchestrator(mediaDir, "yt-dlp", st)
	r := router.New()
	reg := detect.NewRegistry().Register("youtube", `(?:https?://)?(?:www\.)?youtube\.com/[^\s]+`)

	gw := New(ft, r, reg, dedup.NewGuard(dedup.DefaultCapacity), acl, st,
		chatlog.NewWriter(filepath.Join(dir, "logs")), dl, 2)
	return &fixture{gw: gw, ft: ft, acl: acl, settings: st, dl: dl, mediaDir: mediaDir, router: r}
}

func msg(id, chatID, text string) bus.Message {
	return bus.Message{ID: id, ChatID: chatID, SenderID: chatID, Text: text, Timestamp: time.Now()}
}

// TestDedupProcessesDuplicateOnce verifies the same ID is handled exactly once.
func TestDedupProcessesDuplicateOnce(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	calls := 0
	f.router.MustRegister(&router.Command{Name: "ping", Aliases: []string{"/ping"}, Handler: func(ctx context.Context, inv *router.Invocation) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}})

	m := msg("DUP1", "905551112233@s.whatsapp.net", "/ping")
	f.gw.HandleBatch(context.Background(), []bus.Message{m, m})
	f.gw.HandleBatch(context.Background(), []bus.Message{m})
	f.gw.Wait()

	if calls != 1 {
		t.Errorf("Expected exactly one handler run, got %d", calls)
	}
}

// TestBlacklistedChatDroppedAtIntake verifies the admin blacklist flow.
func TestBlacklistedChatDroppedAtIntake(t *testing.T) {
	f := newFixture(t)
	var mu sync.Mutex
	calls := 0
	f.router.MustRegister(&router.Command{Name: "ping", Aliases: []string{"/ping"}, Handler: func(ctx context.Context, inv *router.Invocation) error {
		mu.Lock()
		calls++
		mu.Unlock()
		return nil
	}})
	chat := "905559998877@s.whatsapp.net"

	f.acl.AddBlacklist(chat)
	f.gw.HandleBatch(context.Background(), []bus.Message{msg("B1", chat, "/ping")})
	f.gw.Wait()
	if calls != 0 {
		t.Fatal("Blacklisted chat must be dropped before the router")
	}

	f.acl.RemoveBlacklist(chat)
	f.gw.HandleBatch(context.Background(), []bus.Message{msg("B2", chat, "/ping")})
	f.gw.Wait()
	if calls != 1 {
		t.Errorf("Expected normal processing after removal, got %d calls", calls)
	}
}

// TestStatusBroadcastAndEmptyTextDropped verifies intake filters.
func TestStatusBroadcastAndEmptyTextDropped(t *testing.T) {
	f := newFixture(t)
	f.gw.HandleBatch(context.Background(), []bus.Message{
		msg("S1", "status@broadcast", "https://www.youtube.com/watch?v=abc"),
		msg("S2", "905551112233@s.whatsapp.net", ""),
	})
	f.gw.Wait()
	if len(f.ft.sentTexts()) != 0 {
		t.Errorf("Dropped messages must produce no replies, got %v", f.ft.sentTexts())
	}
}

// TestOversizedDownloadRejected verifies both sizes are reported and the file removed.
func TestOversizedDownloadRejected(t *testing.T) {
	f := newFixture(t)
	if err := f.settings.SetMaxFileSizeMB(1); err != nil {
		t.Fatalf("SetMaxFileSizeMB failed: %v", err)
	}
	f.dl.SetRunner(func(ctx context.Context, url, tmpl string, maxSizeMB int) error {
		path := strings.Replace(tmpl, "%(ext)s", "mp4", 1)
		return os.WriteFile(path, make([]byte, 1_500_000), 0o644)
	})

	f.gw.HandleBatch(context.Background(), []bus.Message{
		msg("O1", "905551112233@s.whatsapp.net", "check https://www.youtube.com/watch?v=abc"),
	})
	f.gw.Wait()

	if f.ft.sentVideos() != 0 {
		t.Error("Oversized video must not be relayed")
	}
	texts := f.ft.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("Expected progress + rejection replies, got %v", texts)
	}
	if !strings.Contains(texts[1], "1.5 MB") || !strings.Contains(texts[1], "1 MB") {
		t.Errorf("Rejection must report both sizes, got %q", texts[1])
	}
	entries, _ := os.ReadDir(f.mediaDir)
	if len(entries) != 0 {
		t.Errorf("Temp file must be removed, found %d entries", len(entries))
	}
}

// TestSuccessfulDownloadRelayedAndCleaned verifies the happy path.
func TestSuccessfulDownloadRelayedAndCleaned(t *testing.T) {
	f := newFixture(t)
	f.dl.SetRunner(func(ctx context.Context, url, tmpl string, maxSizeMB int) error {
		path := strings.Replace(tmpl, "%(ext)s", "mp4", 1)
		return os.WriteFile(path, []byte("video-bytes"), 0o644)
	})

	f.gw.HandleBatch(context.Background(), []bus.Message{
		msg("V1", "905551112233@s.whatsapp.net", "https://www.youtube.com/watch?v=abc"),
	})
	f.gw.Wait()

	if f.ft.sentVideos() != 1 {
		t.Errorf("Expected one relayed video, got %d", f.ft.sentVideos())
	}
	texts := f.ft.sentTexts()
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "🎬") {
		t.Errorf("Expected only the progress reply, got %v", texts)
	}
	entries, _ := os.ReadDir(f.mediaDir)
	if len(entries) != 0 {
		t.Errorf("Temp file must be removed after relay, found %d entries", len(entries))
	}
}

// TestFailedDownloadReportsPlatform verifies the failure reply texture.
func TestFailedDownloadReportsPlatform(t *testing.T) {
	f := newFixture(t)
	f.dl.SetRunner(func(ctx context.Context, url, tmpl string, maxSizeMB int) error {
		return nil // produce no file: NotFound
	})

	f.gw.HandleBatch(context.Background(), []bus.Message{
		msg("F1", "905551112233@s.whatsapp.net", "https://www.youtube.com/watch?v=abc"),
	})
	f.gw.Wait()

	texts := f.ft.sentTexts()
	if len(texts) != 2 {
		t.Fatalf("Expected progress + failure replies, got %v", texts)
	}
	if !strings.Contains(texts[1], "youtube") {
		t.Errorf("Failure reply must name the platform, got %q", texts[1])
	}
}

// TestCommandErrorBecomesReply verifies handler failures never escape.
func TestCommandErrorBecomesReply(t *testing.T) {
	f := newFixture(t)
	f.router.MustRegister(&router.Command{Name: "boom", Aliases: []string{"/boom"}, Handler: func(ctx context.Context, inv *router.Invocation) error {
		return os.ErrPermission
	}})

	f.gw.HandleBatch(context.Background(), []bus.Message{
		msg("E1", "905551112233@s.whatsapp.net", "/boom"),
	})
	f.gw.Wait()

	texts := f.ft.sentTexts()
	if len(texts) != 1 || !strings.HasPrefix(texts[0], "❌") {
		t.Errorf("Expected an error reply, got %v", texts)
	}
}
