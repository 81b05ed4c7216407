// Package jid normalizes WhatsApp chat and user identifiers.
package jid

import "strings"

const (
	UserSuffix  = "@s.whatsapp.net"
	GroupSuffix = "@g.us"

	// StatusBroadcast is the pseudo-chat WhatsApp uses for status updates.
	StatusBroadcast = "status@broadcast"

	// Local numbers without a country code are assumed Turkish.
	defaultCountryCode = "90"
)

// Normalize converts a raw identifier (full JID or bare phone number) into
// canonical JID form. Already-qualified identifiers pass through unchanged,
// so Normalize(Normalize(x)) == Normalize(x). Returns "" when the input
// cannot name a user.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if strings.Contains(raw, "@") {
		return raw
	}

	digits := keepDigits(raw)
	if len(digits) < 10 {
		return ""
	}
	if len(digits) == 10 && !strings.HasPrefix(digits, defaultCountryCode) {
		digits = defaultCountryCode + digits
	}
	return digits + UserSuffix
}

// Variants returns the identifier forms the transport may report for the
// same user inside group metadata.
func Variants(j string) []string {
	if !strings.HasSuffix(j, UserSuffix) {
		return []string{j}
	}
	return []string{
		j,
		strings.TrimSuffix(j, UserSuffix) + "@lid",
		strings.TrimSuffix(j, UserSuffix) + "@c.us",
	}
}

// BareNumber strips the server part from a JID.
func BareNumber(j string) string {
	if i := strings.IndexByte(j, '@'); i >= 0 {
		return j[:i]
	}
	return j
}

func IsGroup(chatID string) bool {
	return strings.HasSuffix(chatID, GroupSuffix)
}

func IsStatusBroadcast(chatID string) bool {
	return chatID == StatusBroadcast
}

// IsNumeric reports whether s is a bare numeric identifier of at least
// eight digits, i.e. not a human-readable name.
func IsNumeric(s string) bool {
	if len(s) < 8 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func keepDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
