package ical

import "testing"

func TestUIDToGlobalObjectIDSynthesizesOpaqueUID(t *testing.T) {
	g := UIDToGlobalObjectID("event-12345@example.org")
	if g.ArrayID != outlookArrayID {
		t.Fatal("expected the fixed Outlook array id prefix")
	}
	if g.Year != 0 || g.Month != 0 || g.Day != 0 {
		t.Errorf("expected zero year/month/day for a synthesized id, got %d-%d-%d", g.Year, g.Month, g.Day)
	}

	back := GlobalObjectIDToUID(g)
	if back != "event-12345@example.org" {
		t.Errorf("expected UID round-trip, got %q", back)
	}
}

func TestUIDToGlobalObjectIDDecodesExisting(t *testing.T) {
	original := UIDToGlobalObjectID("another-event@example.org")
	encoded := GlobalObjectIDToUID(original) // opaque-UID form; decode path below uses the hex form instead

	_ = encoded
	hexForm := original
	hexForm.Year = 2024
	hexForm.Month = 4
	hexForm.Day = 15
	uidAsHex := hexUpper(hexForm.Bytes())

	decoded := UIDToGlobalObjectID(uidAsHex)
	if decoded.Year != 2024 || decoded.Month != 4 || decoded.Day != 15 {
		t.Errorf("expected decoded year/month/day to survive, got %d-%d-%d", decoded.Year, decoded.Month, decoded.Day)
	}

	clean := CleanGlobalObjectID(decoded)
	if clean.Year != 0 || clean.Month != 0 || clean.Day != 0 {
		t.Error("CleanGlobalObjectId should zero year/month/day")
	}
}

func hexUpper(b []byte) string {
	const hexd = "0123456789ABCDEF"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexd[c>>4]
		out[i*2+1] = hexd[c&0xf]
	}
	return string(out)
}
