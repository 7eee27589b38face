package common

import (
	"crypto/md5"
	"encoding/binary"
	"strings"

	"github.com/google/uuid"
)

// GUID is the 16-byte identifier layout used throughout MAPI: a GUID is
// *not* a straight UUID byte string, it is decomposed into named fields so
// that callers like ab_tree's node_to_guid (spec §4.1.2) can overwrite
// individual fields (time_low, time_hi_and_version, time_mid, node[],
// clock_seq[]) without re-deriving the whole value.
type GUID struct {
	TimeLow          uint32
	TimeMid          uint16
	TimeHiAndVersion uint16
	ClockSeq         [2]byte
	Node             [6]byte
}

// NewGUID returns a random GUID, used e.g. for a freshly constructed AB
// base (spec §3.1) before its last 4 bytes are overwritten with the base id.
func NewGUID() GUID {
	u := uuid.New()
	return DecodeGUID(u[:])
}

// DecodeGUID reads the standard 16-byte wire layout (big-endian time_low,
// time_mid, time_hi_and_version, then clock_seq/node verbatim).
func DecodeGUID(b []byte) GUID {
	var g GUID
	g.TimeLow = binary.BigEndian.Uint32(b[0:4])
	g.TimeMid = binary.BigEndian.Uint16(b[4:6])
	g.TimeHiAndVersion = binary.BigEndian.Uint16(b[6:8])
	copy(g.ClockSeq[:], b[8:10])
	copy(g.Node[:], b[10:16])
	return g
}

// Bytes renders the 16-byte wire layout.
func (g GUID) Bytes() []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint32(b[0:4], g.TimeLow)
	binary.BigEndian.PutUint16(b[4:6], g.TimeMid)
	binary.BigEndian.PutUint16(b[6:8], g.TimeHiAndVersion)
	copy(b[8:10], g.ClockSeq[:])
	copy(b[10:16], g.Node[:])
	return b
}

// WithLast4 returns a copy of g with its final 4 bytes (the tail of Node)
// replaced by the big-endian encoding of v. Used to stamp an AB base's GUID
// with its base id so a GUID->base-id reverse map is O(1) (spec §3.1).
func (g GUID) WithLast4(v uint32) GUID {
	var tail [4]byte
	binary.BigEndian.PutUint32(tail[:], v)
	b := g.Bytes()
	copy(b[12:16], tail[:])
	return DecodeGUID(b)
}

// Last4 extracts the final 4 bytes as a big-endian uint32, the inverse of
// WithLast4.
func (g GUID) Last4() uint32 {
	b := g.Bytes()
	return binary.BigEndian.Uint32(b[12:16])
}

func (g GUID) String() string {
	b := g.Bytes()
	return strings.ToUpper(
		hexEnc(b[0:4]) + "-" + hexEnc(b[4:6]) + "-" + hexEnc(b[6:8]) + "-" +
			hexEnc(b[8:10]) + "-" + hexEnc(b[10:16]))
}

func hexEnc(b []byte) string {
	const hexd = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, c := range b {
		out[i*2] = hexd[c>>4]
		out[i*2+1] = hexd[c&0xf]
	}
	return string(out)
}

// MD5Path64 folds MD5(path) down to 64 bits by taking every other byte of
// the digest the way ab_tree_md5_path does: dgt_buff[0], dgt_buff[2], ...
// dgt_buff[14] become the 8 little-endian bytes of the result. NodeToGUID
// stamps the low 32 bits of this value into the last 4 bytes of a node's
// GUID, which address-book clients persist as a stable identity (spec
// §4.1.2).
func MD5Path64(path string) uint64 {
	sum := md5.Sum([]byte(path))
	var v uint64
	for i := 0; i < 16; i += 2 {
		v |= uint64(sum[i]) << (4 * i)
	}
	return v
}
