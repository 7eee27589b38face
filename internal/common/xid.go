package common

import "encoding/binary"

// XID is the atomic unit of identity in PCLs and change keys: a replica
// GUID plus a 6-byte global-counter (GC) value (spec GLOSSARY, §9 "keep this
// exact byte layout").
type XID struct {
	GUID GUID
	GC   [6]byte
}

// NewXID packs a 48-bit change number into the 6-byte GC array, big-endian,
// matching the MAPI global counter wire format.
func NewXID(guid GUID, changeNum uint64) XID {
	var gc [6]byte
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], changeNum<<16)
	copy(gc[:], buf[:6])
	return XID{GUID: guid, GC: gc}
}

// Value extracts the 48-bit counter back out of the GC array.
func (x XID) Value() uint64 {
	var buf [8]byte
	copy(buf[:6], x.GC[:])
	return binary.BigEndian.Uint64(buf[:]) >> 16
}

// Bytes renders the 22-byte on-wire XID: 16-byte GUID + 6-byte GC.
func (x XID) Bytes() []byte {
	out := make([]byte, 22)
	copy(out[0:16], x.GUID.Bytes())
	copy(out[16:22], x.GC[:])
	return out
}

// DecodeXID parses a 22-byte XID.
func DecodeXID(b []byte) (XID, bool) {
	if len(b) != 22 {
		return XID{}, false
	}
	var x XID
	x.GUID = DecodeGUID(b[0:16])
	copy(x.GC[:], b[16:22])
	return x, true
}
