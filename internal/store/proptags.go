package store

// Calculated proptags the store computes without a DB round trip (spec
// §4.2.1). Spec Non-goals exclude the exact NSPI/MAPI wire layout (see
// internal/common/entryid.go), so these are a self-consistent numbering
// scheme rather than the real MAPI tag ids; callers only need them to agree
// with each other and with message/transport, which they do.
const (
	PropTagMDBProvider  uint32 = 0x34140102
	PropTagDisplayName  uint32 = 0x3001001E
	PropTagAccess       uint32 = 0x0FF40003
	PropTagRights       uint32 = 0x0FF70003
	PropTagObjectType   uint32 = 0x0FFE0003
	PropTagStoreEntryID uint32 = 0x0FFB0102
	PropTagUserEntryID  uint32 = 0x3FFF0102
	PropTagEmailAddress uint32 = 0x3003001E

	PropTagFinderEntryID      uint32 = 0x35E30102
	PropTagIPMOutboxEntryID   uint32 = 0x35E20102
	PropTagIPMSentmailEntryID uint32 = 0x35E40102
	PropTagIPMWastebasketID   uint32 = 0x35E30103 // distinct from finder in this scheme
	PropTagScheduleFolderID   uint32 = 0x36140102

	PropTagOOFState         uint32 = 0x661D0003
	PropTagECOutOfOfficeMsg uint32 = 0x6619001E
	PropTagECOOFSubject     uint32 = 0x661A001E
	PropTagECOOFFrom        uint32 = 0x661B0040
	PropTagECOOFUntil       uint32 = 0x661C0040
	PropTagECAllowExternal  uint32 = 0x661E000B
	PropTagECExternalAud    uint32 = 0x661F001E
	PropTagECExternalReply  uint32 = 0x6620001E
	PropTagECExternalSubj   uint32 = 0x6621001E

	PropTagUserLanguage uint32 = 0x662B001E
)

// MDB provider class UIDs (spec §4.2.1: "16-byte class UID chosen from
// {private-owner, private-delegate, public}"), byte-identical to the
// original's private_uid/public_uid/share_uid tables.
var (
	mdbProviderPrivate = [16]byte{
		0x54, 0x94, 0xA1, 0xC0, 0x29, 0x7F, 0x10, 0x1B,
		0xA5, 0x87, 0x08, 0x00, 0x2B, 0x2A, 0x25, 0x17,
	}
	mdbProviderPublic = [16]byte{
		0x78, 0xB2, 0xFA, 0x70, 0xAF, 0xF7, 0x11, 0xCD,
		0x9B, 0xC8, 0x00, 0xAA, 0x00, 0x2F, 0xC4, 0x5A,
	}
	mdbProviderShare = [16]byte{
		0x9E, 0xB4, 0x77, 0x00, 0x74, 0xE4, 0x11, 0xCE,
		0x8C, 0x5E, 0x00, 0xAA, 0x00, 0x42, 0x54, 0xE2,
	}
)

// WellKnownFolderIDs names the store's fixed folders by the calculated
// entryid property they back (spec §4.2.1 "Folder-entryid properties").
// They're supplied by whatever set up the mailbox (out of this package's
// scope, spec §1 excludes the property DB's folder-creation path) and
// merely echoed back as entryids here.
type WellKnownFolderIDs struct {
	Finder      uint64
	Outbox      uint64
	SentMail    uint64
	Wastebasket uint64
	Schedule    uint64
}
