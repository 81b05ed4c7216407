package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/enessquik/whatsapp-video-bot/pkg/access"
	"github.com/enessquik/whatsapp-video-bot/pkg/backup"
	"github.com/enessquik/whatsapp-video-bot/pkg/bubble"
	"github.com/enessquik/whatsapp-video-bot/pkg/bus"
	"github.com/enessquik/whatsapp-video-bot/pkg/jid"
	"github.com/enessquik/whatsapp-video-bot/pkg/logger"
	"github.com/enessquik/whatsapp-video-bot/pkg/settings"
	"github.com/enessquik/whatsapp-video-bot/pkg/transport"
)

const (
	replyDenied       = "❌ You are not allowed to use this command."
	replyGroupOnly    = "❌ This command only works in groups."
	replyNeedQuote    = "❌ Reply to a text message with this command."
	replyNeedPhoto    = "❌ Reply to a photo with this command."
	replyBackupBusy   = "❌ A backup is already running, try again later."
	replyStickerError = "❌ Could not create the sticker."
)

// Commands holds the dependencies shared by every command handler.
type Commands struct {
	Transport transport.Transport
	Access    *access.Store
	Settings  *settings.Store
	Backup    *backup.Service
	Encoder   bubble.Encoder
}

// RegisterAll installs the full command set on the router. Alias sets are
// bilingual; the original operator community is Turkish-speaking.
func (c *Commands) RegisterAll(r *Router) error {
	cmds := []*Command{
		{Name: "backup", Aliases: []string{"/backup", "/yedekle"}, Handler: c.handleBackup},
		{Name: "quote-sticker", Aliases: []string{"/qm", "/çıkar"}, Handler: c.handleQuoteSticker},
		{Name: "photo-sticker", Aliases: []string{"/q", "/foto", "/fotoçıkar"}, Handler: c.handlePhotoSticker},
		{Name: "blacklist-add", Aliases: []string{"/blacklist", "/karaliste"}, Handler: c.handleBlacklistAdd},
		{Name: "blacklist-remove", Aliases: []string{"/unblacklist", "/karalistencikar", "/karalistedencikar", "/karalisteçikar"}, Handler: c.handleBlacklistRemove},
		{Name: "set-max-filesize", Aliases: []string{"/maxfilesize", "/maksimumdosyasınırı"}, Handler: c.handleMaxFileSize},
		{Name: "lock-group", Aliases: []string{"/lockall", "/kilitle"}, Handler: c.handleLock},
		{Name: "unlock-group", Aliases: []string{"/unlock", "/kilitac", "/kilitaç"}, Handler: c.handleUnlock},
		{Name: "kick-member", Aliases: []string{"/kick", "/at"}, Handler: c.handleKick},
	}
	for _, cmd := range cmds {
		if err := r.Register(cmd); err != nil {
			return err
		}
	}
	return nil
}

func (c *Commands) reply(ctx context.Context, msg bus.Message, text string) error {
	return c.Transport.SendText(ctx, msg.ChatID, text)
}

// isGroupAuthorized accepts group admins and bot admins for group-scoped
// commands. The transport may report the same person under several JID
// variants, so membership is tested against all of them.
func (c *Commands) isGroupAuthorized(ctx context.Context, msg bus.Message) bool {
	sender := msg.Sender()
	if c.Access.IsAdmin(sender) {
		return true
	}
	info, err := c.Transport.GroupMetadata(ctx, msg.ChatID)
	if err != nil {
		logger.WarnCF("router", "Group metadata lookup failed", map[string]interface{}{
			"chat":  msg.ChatID,
			"error": err.Error(),
		})
		return false
	}
	variants := jid.Variants(sender)
	for _, p := range info.Participants {
		if !p.IsAdmin && !p.IsSuperAdmin {
			continue
		}
		for _, v := range variants {
			if p.ID == v {
				return true
			}
		}
	}
	return false
}

func (c *Commands) handleBackup(ctx context.Context, inv *Invocation) error {
	if !c.Access.IsAdmin(inv.Msg.Sender()) {
		return c.reply(ctx, inv.Msg, replyDenied)
	}
	path, err := c.Backup.Run()
	if errors.Is(err, backup.ErrBusy) {
		return c.reply(ctx, inv.Msg, replyBackupBusy)
	}
	if err != nil {
		return c.reply(ctx, inv.Msg, fmt.Sprintf("❌ Backup failed: %v", err))
	}
	return c.reply(ctx, inv.Msg, fmt.Sprintf("✅ Backup created: %s", path))
}

func (c *Commands) handleQuoteSticker(ctx context.Context, inv *Invocation) error {
	msg := inv.Msg
	if msg.Quoted == nil || strings.TrimSpace(msg.Quoted.Text) == "" {
		return c.reply(ctx, msg, replyNeedQuote)
	}

	author := msg.Quoted.ParticipantID
	var contact bubble.Contact
	if tc, err := c.Transport.Contact(ctx, author); err == nil {
		contact = bubble.Contact{Name: tc.Name, Notify: tc.Notify, VName: tc.VName}
	}
	name := bubble.ResolveName(contact, "", author)

	spec := bubble.Spec{
		DisplayName: name,
		BodyText:    msg.Quoted.Text,
		Timestamp:   msg.Timestamp,
	}
	if url, err := c.Transport.ProfilePictureURL(ctx, author); err == nil && url != "" {
		spec.Avatar = bubble.FetchAvatar(ctx, url)
	}

	img, err := bubble.Render(spec)
	if err != nil {
		logger.ErrorCF("router", "Bubble render failed", map[string]interface{}{"error": err.Error()})
		return c.reply(ctx, msg, replyStickerError)
	}
	data, err := c.Encoder.Encode(img)
	if err != nil {
		logger.ErrorCF("router", "Sticker encode failed", map[string]interface{}{"error": err.Error()})
		return c.reply(ctx, msg, replyStickerError)
	}
	return c.Transport.SendSticker(ctx, msg.ChatID, data, c.Encoder.MimeType())
}

func (c *Commands) handlePhotoSticker(ctx context.Context, inv *Invocation) error {
	msg := inv.Msg
	if msg.Quoted == nil || !msg.Quoted.HasImage {
		return c.reply(ctx, msg, replyNeedPhoto)
	}
	raw, err := c.Transport.FetchQuotedImage(ctx, msg.ChatID, msg.Quoted.ID)
	if err != nil {
		return c.reply(ctx, msg, "❌ Could not fetch the quoted photo.")
	}
	img, err := bubble.FitSticker(raw)
	if err != nil {
		return c.reply(ctx, msg, replyStickerError)
	}
	data, err := c.Encoder.Encode(img)
	if err != nil {
		logger.ErrorCF("router", "Sticker encode failed", map[string]interface{}{"error": err.Error()})
		return c.reply(ctx, msg, replyStickerError)
	}
	return c.Transport.SendSticker(ctx, msg.ChatID, data, c.Encoder.MimeType())
}

func (c *Commands) handleBlacklistAdd(ctx context.Context, inv *Invocation) error {
	if !c.Access.IsAdmin(inv.Msg.Sender()) {
		return c.reply(ctx, inv.Msg, replyDenied)
	}
	target := jid.Normalize(inv.Arg(0))
	if target == "" {
		return c.reply(ctx, inv.Msg, "❌ Usage: /blacklist <number or chat id>")
	}
	normalized, changed := c.Access.AddBlacklist(target)
	if !changed {
		return c.reply(ctx, inv.Msg, fmt.Sprintf("✅ %s is already blacklisted.", normalized))
	}
	return c.reply(ctx, inv.Msg, fmt.Sprintf("✅ %s added to the blacklist.", normalized))
}

func (c *Commands) handleBlacklistRemove(ctx context.Context, inv *Invocation) error {
	if !c.Access.IsAdmin(inv.Msg.Sender()) {
		return c.reply(ctx, inv.Msg, replyDenied)
	}
	target := jid.Normalize(inv.Arg(0))
	if target == "" {
		return c.reply(ctx, inv.Msg, "❌ Usage: /unblacklist <number or chat id>")
	}
	normalized, changed := c.Access.RemoveBlacklist(target)
	if !changed {
		return c.reply(ctx, inv.Msg, fmt.Sprintf("✅ %s was not on the blacklist.", normalized))
	}
	return c.reply(ctx, inv.Msg, fmt.Sprintf("✅ %s removed from the blacklist.", normalized))
}

func (c *Commands) handleMaxFileSize(ctx context.Context, inv *Invocation) error {
	if !c.Access.IsAdmin(inv.Msg.Sender()) {
		return c.reply(ctx, inv.Msg, replyDenied)
	}
	value, err := strconv.ParseFloat(inv.Arg(0), 64)
	mb := int(value)
	if err != nil || mb <= 0 {
		return c.reply(ctx, inv.Msg, "❌ Usage: /maxfilesize <MB> (positive number)")
	}
	if err := c.Settings.SetMaxFileSizeMB(mb); err != nil {
		return c.reply(ctx, inv.Msg, fmt.Sprintf("❌ Could not update the limit: %v", err))
	}
	return c.reply(ctx, inv.Msg, fmt.Sprintf("✅ Maximum file size set to %d MB.", mb))
}

func (c *Commands) handleLock(ctx context.Context, inv *Invocation) error {
	return c.setGroupLock(ctx, inv, true, "🔒 Group locked. Only admins can send messages.")
}

func (c *Commands) handleUnlock(ctx context.Context, inv *Invocation) error {
	return c.setGroupLock(ctx, inv, false, "🔓 Group unlocked. Everyone can send messages.")
}

func (c *Commands) setGroupLock(ctx context.Context, inv *Invocation, locked bool, confirmation string) error {
	msg := inv.Msg
	if !msg.IsGroup() {
		return c.reply(ctx, msg, replyGroupOnly)
	}
	if !c.isGroupAuthorized(ctx, msg) {
		return c.reply(ctx, msg, replyDenied)
	}
	if err := c.Transport.SetGroupLocked(ctx, msg.ChatID, locked); err != nil {
		return c.reply(ctx, msg, fmt.Sprintf("❌ Could not change the group setting: %v", err))
	}
	return c.reply(ctx, msg, confirmation)
}

func (c *Commands) handleKick(ctx context.Context, inv *Invocation) error {
	msg := inv.Msg
	if !msg.IsGroup() {
		return c.reply(ctx, msg, replyGroupOnly)
	}
	if !c.isGroupAuthorized(ctx, msg) {
		return c.reply(ctx, msg, replyDenied)
	}
	target := jid.Normalize(inv.Arg(0))
	if target == "" || jid.IsGroup(target) {
		return c.reply(ctx, msg, "❌ Usage: /kick <phone number>")
	}
	if err := c.Transport.RemoveParticipant(ctx, msg.ChatID, target); err != nil {
		return c.reply(ctx, msg, fmt.Sprintf("❌ Could not remove the member: %v", err))
	}
	return c.reply(ctx, msg, fmt.Sprintf("✅ %s removed from the group.", jid.BareNumber(target)))
}
