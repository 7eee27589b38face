package ical

import (
	"bytes"
	"encoding/hex"
	"strings"
)

// outlookArrayID is the fixed 16-byte prefix every GLOBALOBJECTID begins
// with, used to detect whether a UID already carries one (spec §4.5.5).
var outlookArrayID = [16]byte{
	0x04, 0x00, 0x00, 0x00, 0x82, 0x00, 0xE0, 0x00,
	0x74, 0xC5, 0xB7, 0x10, 0x1A, 0x82, 0xE0, 0x08,
}

// vCalUIDMarker tags a synthesized GLOBALOBJECTID whose data payload is just
// an opaque iCalendar UID rather than Outlook's own encoding (spec §4.5.5).
var vCalUIDMarker = []byte("vCal-Uid\x01\x00\x00\x00")

// GlobalObjectID is the decoded GLOBALOBJECTID structure (spec §4.5.5).
type GlobalObjectID struct {
	ArrayID [16]byte
	Year    uint16
	Month   uint16
	Day     uint16
	Data    []byte
}

// Bytes renders the wire layout: 16-byte array id, 8 reserved zero bytes
// (original's creation-time/reserved fields, not modeled beyond
// year/month/day here since nothing downstream reads them), 2-byte year,
// 1-byte month, 1-byte day, then the opaque data payload.
func (g GlobalObjectID) Bytes() []byte {
	b := make([]byte, 0, 28+len(g.Data))
	b = append(b, g.ArrayID[:]...)
	b = append(b, make([]byte, 8)...)
	b = append(b, byte(g.Year), byte(g.Year>>8), byte(g.Month), byte(g.Day))
	b = append(b, g.Data...)
	return b
}

// UIDToGlobalObjectID implements spec §4.5.5: decode an existing
// GLOBALOBJECTID-encoded UID, or synthesize one around an opaque UID.
func UIDToGlobalObjectID(uid string) GlobalObjectID {
	if raw, ok := decodeHexPrefixed(uid); ok {
		return raw
	}
	var g GlobalObjectID
	copy(g.ArrayID[:], outlookArrayID[:])
	g.Data = append(append([]byte{}, vCalUIDMarker...), []byte(uid)...)
	return g
}

// CleanGlobalObjectID is the same structure with year/month/day zeroed
// (spec §4.5.5 "CleanGlobalObjectId").
func CleanGlobalObjectID(g GlobalObjectID) GlobalObjectID {
	g.Year, g.Month, g.Day = 0, 0, 0
	return g
}

// GlobalObjectIDToUID renders a GLOBALOBJECTID back to its iCalendar UID
// string: the hex encoding of the raw structure, unless it carries the
// synthesized vCal-Uid marker, in which case the trailing literal UID bytes
// are returned verbatim.
func GlobalObjectIDToUID(g GlobalObjectID) string {
	if bytes.HasPrefix(g.Data, vCalUIDMarker) {
		return string(g.Data[len(vCalUIDMarker):])
	}
	return strings.ToUpper(hex.EncodeToString(g.Bytes()))
}

func decodeHexPrefixed(uid string) (GlobalObjectID, bool) {
	if len(uid) < 32 {
		return GlobalObjectID{}, false
	}
	raw, err := hex.DecodeString(uid)
	if err != nil || len(raw) < 28 {
		return GlobalObjectID{}, false
	}
	var arr [16]byte
	copy(arr[:], raw[:16])
	if arr != outlookArrayID {
		return GlobalObjectID{}, false
	}
	var g GlobalObjectID
	g.ArrayID = arr
	g.Year = uint16(raw[24]) | uint16(raw[25])<<8
	g.Month = uint16(raw[26])
	g.Day = uint16(raw[27])
	g.Data = append([]byte{}, raw[28:]...)
	return g, true
}
