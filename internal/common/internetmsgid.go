package common

import (
	"crypto/rand"
	"fmt"
)

// NewInternetMessageID generates an INTERNETMESSAGEID of the form
// "<16 hex>@<hostname>" from 8 random bytes (the first 8 bytes of a random
// GUID if the system random source fails), as init_message does for
// brand-new messages (spec §4.3.1).
func NewInternetMessageID(hostname string) string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		g := NewGUID()
		copy(b[:], g.Bytes()[:8])
	}
	return fmt.Sprintf("<%x@%s>", b, hostname)
}

// NewSearchKey returns a random 16-byte search key, one of the properties
// init_message stamps on new messages (spec §4.3.1).
func NewSearchKey() []byte {
	g := NewGUID()
	return g.Bytes()
}
