package bubble

import "testing"

// TestResolveName_FallbackOrder verifies the richer source always wins
func TestResolveName_FallbackOrder(t *testing.T) {
	cases := []struct {
		contact  Contact
		pushName string
		jid      string
		want     string
	}{
		{Contact{Name: "Alice", Notify: "ali", VName: "A."}, "push", "905551234567@s.whatsapp.net", "Alice"},
		{Contact{Notify: "ali", VName: "A."}, "push", "905551234567@s.whatsapp.net", "ali"},
		{Contact{VName: "A."}, "push", "905551234567@s.whatsapp.net", "A."},
		{Contact{}, "push", "905551234567@s.whatsapp.net", "push"},
	}
	for _, c := range cases {
		got := ResolveName(c.contact, c.pushName, c.jid)
		if got != c.want {
			t.Errorf("contact=%+v push=%q: expected %q, got %q", c.contact, c.pushName, c.want, got)
		}
	}
}

// TestResolveName_NumericCollapsesToPlaceholder verifies a bare number is
// never shown as the display name
func TestResolveName_NumericCollapsesToPlaceholder(t *testing.T) {
	got := ResolveName(Contact{}, "", "905551234567@s.whatsapp.net")
	if got != PlaceholderName {
		t.Errorf("expected placeholder, got %q", got)
	}
}

// TestResolveName_NumericSourceSkipped verifies a numeric candidate yields
// to a later human-readable one
func TestResolveName_NumericSourceSkipped(t *testing.T) {
	got := ResolveName(Contact{Notify: "905551234567"}, "Bob", "905551234567@s.whatsapp.net")
	if got != "Bob" {
		t.Errorf("expected Bob, got %q", got)
	}
}

// TestResolveName_Empty verifies the placeholder covers the empty case
func TestResolveName_Empty(t *testing.T) {
	if got := ResolveName(Contact{}, "", ""); got != PlaceholderName {
		t.Errorf("expected placeholder, got %q", got)
	}
}
