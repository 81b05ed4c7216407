package bubble

import "github.com/enessquik/whatsapp-video-bot/pkg/jid"

// PlaceholderName is shown when no source yields anything better than a
// bare numeric identifier.
const PlaceholderName = "User"

// Contact is what the transport's contact store knows about a user.
type Contact struct {
	Name   string // explicit contact-book name
	Notify string // self-reported "notify" name
	VName  string // vCard name
}

// NameSource yields a candidate display name, or false when it has none.
type NameSource func() (string, bool)

// ResolveName walks the fallback order: contact name, notify name, vCard
// name, transport push name, bare numeric identifier. A purely numeric
// result with no richer source collapses to the placeholder label.
func ResolveName(contact Contact, pushName, participantJID string) string {
	sources := []NameSource{
		func() (string, bool) { return contact.Name, contact.Name != "" },
		func() (string, bool) { return contact.Notify, contact.Notify != "" },
		func() (string, bool) { return contact.VName, contact.VName != "" },
		func() (string, bool) { return pushName, pushName != "" },
		func() (string, bool) {
			bare := jid.BareNumber(participantJID)
			return bare, bare != ""
		},
	}

	for _, src := range sources {
		name, ok := src()
		if !ok || jid.IsNumeric(name) {
			continue
		}
		return name
	}
	return PlaceholderName
}
