package common

import (
	"bytes"
	"sort"
)

// pclRange is one (replica GUID, [low,high] GC range) entry of a
// Predecessor Change List. Consecutive change numbers from the same
// replica are folded into a single range rather than kept as individual
// XIDs, the same compaction the original change-tracking code performs.
type pclRange struct {
	GUID     GUID
	Low, High uint64
}

// PCL is the ordered set of change ranges attached to a message/folder,
// used to decide conflict resolution during replication (spec GLOSSARY).
type PCL struct {
	ranges []pclRange
}

// Append extends the PCL with xid, merging into an existing range for the
// same replica GUID when the new value is contiguous with it, or adding a
// new range otherwise. Ranges are kept sorted by GUID bytes so Serialize is
// deterministic.
func (p *PCL) Append(xid XID) {
	v := xid.Value()
	for i := range p.ranges {
		if p.ranges[i].GUID != xid.GUID {
			continue
		}
		switch {
		case v == p.ranges[i].High+1:
			p.ranges[i].High = v
		case v == p.ranges[i].Low-1:
			p.ranges[i].Low = v
		case v >= p.ranges[i].Low && v <= p.ranges[i].High:
			// already covered
		default:
			p.ranges = append(p.ranges, pclRange{GUID: xid.GUID, Low: v, High: v})
		}
		p.sort()
		return
	}
	p.ranges = append(p.ranges, pclRange{GUID: xid.GUID, Low: v, High: v})
	p.sort()
}

func (p *PCL) sort() {
	sort.Slice(p.ranges, func(i, j int) bool {
		return bytes.Compare(p.ranges[i].GUID.Bytes(), p.ranges[j].GUID.Bytes()) < 0
	})
}

// TailXID returns the highest value recorded for guid across all of its
// ranges; change numbers only grow, so this is the most recently appended
// change for that replica — testable property 3 asserts the new change key
// appears as this tail value.
func (p *PCL) TailXID(guid GUID) (XID, bool) {
	var high uint64
	found := false
	for _, r := range p.ranges {
		if r.GUID == guid && (!found || r.High > high) {
			high, found = r.High, true
		}
	}
	if !found {
		return XID{}, false
	}
	return NewXID(guid, high), true
}

// Serialize renders each range as GUID(16) + Low(6 BE) + High(6 BE), 28
// bytes per range, ordered as kept internally.
func (p *PCL) Serialize() []byte {
	out := make([]byte, 0, len(p.ranges)*28)
	var buf [8]byte
	for _, r := range p.ranges {
		out = append(out, r.GUID.Bytes()...)
		putGC(&buf, r.Low)
		out = append(out, buf[:6]...)
		putGC(&buf, r.High)
		out = append(out, buf[:6]...)
	}
	return out
}

func putGC(buf *[8]byte, v uint64) {
	for i := 5; i >= 0; i-- {
		buf[i] = byte(v)
		v >>= 8
	}
}

// DecodePCL parses the Serialize wire format back into a PCL.
func DecodePCL(b []byte) (PCL, bool) {
	var p PCL
	for len(b) >= 28 {
		guid := DecodeGUID(b[0:16])
		low := getGC(b[16:22])
		high := getGC(b[22:28])
		p.ranges = append(p.ranges, pclRange{GUID: guid, Low: low, High: high})
		b = b[28:]
	}
	if len(b) != 0 {
		return PCL{}, false
	}
	return p, true
}

func getGC(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}
