package common

import (
	"bytes"
	"encoding/binary"
	"errors"
	"strings"
)

// Provider UIDs identify which kind of MAPI object an EntryID addresses
// (spec GLOSSARY). Non-goals excludes the exact NSPI/MAPI wire layout, so
// these are a fixed, internally-consistent encoding rather than a
// byte-for-byte reproduction of the wire protocol.
var (
	ProviderUIDAddressBook = GUID{TimeLow: 0xDCA740C8, TimeMid: 0xC042, TimeHiAndVersion: 0x101A, ClockSeq: [2]byte{0xB4, 0xB9}, Node: [6]byte{0x08, 0x00, 0x2B, 0x2F, 0xE1, 0x82}}
	ProviderUIDOneOff      = GUID{TimeLow: 0x812B1FA4, TimeMid: 0x4BC0, TimeHiAndVersion: 0x11D3, ClockSeq: [2]byte{0x9B, 0xA9}, Node: [6]byte{0x00, 0x50, 0x04, 0x0D, 0x95, 0x15}}
	ProviderUIDStoreMDB    = GUID{TimeLow: 0x00020FF4, TimeMid: 0x0000, TimeHiAndVersion: 0x0000, ClockSeq: [2]byte{0xC0, 0x00}, Node: [6]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}
)

var errBadEntryID = errors.New("malformed entryid")

// EncodeFolderEntryID builds the entryid for a folder in the mailbox
// identified by storeGUID (spec §4.2.1 folder-entryid properties).
func EncodeFolderEntryID(storeGUID GUID, folderID uint64) []byte {
	b := make([]byte, 0, 4+16+6)
	b = append(b, 0, 0, 0, 0) // flags
	b = append(b, ProviderUIDStoreMDB.Bytes()...)
	var gc [8]byte
	putGC(&gc, folderID)
	return append(b, gc[:6]...)
}

// DecodeFolderEntryID is the inverse of EncodeFolderEntryID.
func DecodeFolderEntryID(b []byte) (storeGUID GUID, folderID uint64, ok bool) {
	if len(b) != 26 || !bytes.Equal(b[4:20], ProviderUIDStoreMDB.Bytes()) {
		return GUID{}, 0, false
	}
	return DecodeGUID(b[4:20]), getGC(b[20:26]), true
}

// EncodeMessageEntryID builds the entryid for a message within folderID.
func EncodeMessageEntryID(storeGUID GUID, folderID, messageID uint64) []byte {
	b := make([]byte, 0, 4+16+6+6)
	b = append(b, 0, 0, 0, 0)
	b = append(b, ProviderUIDStoreMDB.Bytes()...)
	var gc [8]byte
	putGC(&gc, folderID)
	b = append(b, gc[:6]...)
	putGC(&gc, messageID)
	return append(b, gc[:6]...)
}

// DecodeMessageEntryID is the inverse of EncodeMessageEntryID.
func DecodeMessageEntryID(b []byte) (storeGUID GUID, folderID, messageID uint64, ok bool) {
	if len(b) != 32 || !bytes.Equal(b[4:20], ProviderUIDStoreMDB.Bytes()) {
		return GUID{}, 0, 0, false
	}
	return DecodeGUID(b[4:20]), getGC(b[20:26]), getGC(b[26:32]), true
}

// EncodeABEntryID builds an address-book entryid wrapping the given X.500
// DN (spec §4.1.2 node_to_dn), used for PR_ENTRYID on AB tree leaves and
// for LASTMODIFIERENTRYID stamping (spec §4.3.2 step 3).
func EncodeABEntryID(dn string) []byte {
	b := make([]byte, 0, 4+16+4+len(dn)+1)
	b = append(b, 0, 0, 0, 0)
	b = append(b, ProviderUIDAddressBook.Bytes()...)
	var ver [4]byte
	binary.LittleEndian.PutUint32(ver[:], 1)
	b = append(b, ver[:]...)
	b = append(b, []byte(dn)...)
	return append(b, 0)
}

// DecodeABEntryID extracts the DN from an address-book entryid.
func DecodeABEntryID(b []byte) (dn string, ok bool) {
	if len(b) < 24 || !bytes.Equal(b[4:20], ProviderUIDAddressBook.Bytes()) {
		return "", false
	}
	raw := b[24:]
	if i := bytes.IndexByte(raw, 0); i >= 0 {
		raw = raw[:i]
	}
	return string(raw), true
}

// EncodeOneOff builds a one-off recipient entryid: a display name, address
// type (SMTP/EX) and address, used when a recipient has no resolvable
// directory entry (spec §4.3.5 step 4).
func EncodeOneOff(displayName, addrType, address string) []byte {
	b := make([]byte, 0, 4+16+2+len(displayName)+1+len(addrType)+1+len(address)+1)
	b = append(b, 0, 0, 0, 0)
	b = append(b, ProviderUIDOneOff.Bytes()...)
	b = append(b, 0, 0) // version + flags, ASCII strings
	b = append(b, []byte(displayName)...)
	b = append(b, 0)
	b = append(b, []byte(addrType)...)
	b = append(b, 0)
	b = append(b, []byte(address)...)
	return append(b, 0)
}

// DecodeOneOff is the inverse of EncodeOneOff.
func DecodeOneOff(b []byte) (displayName, addrType, address string, ok bool) {
	if len(b) < 22 || !bytes.Equal(b[4:20], ProviderUIDOneOff.Bytes()) {
		return "", "", "", false
	}
	parts := strings.SplitN(string(bytes.TrimRight(b[22:], "\x00")), "\x00", 3)
	if len(parts) != 3 {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

// IsOneOff reports whether b is a one-off entryid, part of the recipient
// address resolution ordering in §4.3.5 step 4.
func IsOneOff(b []byte) bool {
	return len(b) >= 20 && bytes.Equal(b[4:20], ProviderUIDOneOff.Bytes())
}
