package message

// Message proptags used by save/init/read-flag/send (spec §4.3.1-§4.3.5).
// Spec Non-goals exclude the exact NSPI/MAPI wire layout (see
// internal/common/entryid.go); these are a self-consistent numbering scheme,
// not the real MAPI tag ids — they only need to agree with each other and
// with store/transport, which they do.
const (
	propTagMessageClass     uint32 = 0x001A001E
	propTagImportance       uint32 = 0x00170003
	propTagSensitivity      uint32 = 0x00360003
	propTagSubject          uint32 = 0x0037001E
	propTagSubjectA         uint32 = 0x0037001F
	propTagNormalizedSubj   uint32 = 0x0E1D001E
	propTagNormalizedSubjA  uint32 = 0x0E1D001F
	propTagDisplayBCC       uint32 = 0x0E02001E
	propTagDisplayCC        uint32 = 0x0E03001E
	propTagDisplayTo        uint32 = 0x0E04001E
	propTagOriginalDispBCC  uint32 = 0x0E3C001E
	propTagOriginalDispCC   uint32 = 0x0E3D001E
	propTagOriginalDispTo   uint32 = 0x0E3E001E
	propTagMessageFlags     uint32 = 0x0E070003
	propTagMessageSize      uint32 = 0x0E080003
	propTagHasAttach        uint32 = 0x0E1B000B
	propTagHasNamedProps    uint32 = 0x664A000B
	propTagRead             uint32 = 0x0E69000B
	propTagReadReceiptReq   uint32 = 0x0029000B
	propTagNonReceiptNotify uint32 = 0x0C06000B
	propTagAssociated       uint32 = 0x36E4000B
	propTagTrustSender      uint32 = 0x0E790003
	propTagCreationTime     uint32 = 0x30070040
	propTagLastModTime      uint32 = 0x30080040
	propTagSearchKey        uint32 = 0x300B0102
	propTagMessageLocaleID  uint32 = 0x3FF10003
	propTagLocaleID         uint32 = 0x66A10003
	propTagCreatorName      uint32 = 0x3FF8001E
	propTagCreatorEntryID   uint32 = 0x3FF90102
	propTagLastModifierName uint32 = 0x3FFA001E
	propTagLastModifierEID  uint32 = 0x3FFB0102
	propTagInternetMsgID    uint32 = 0x1035001E
	propTagLocalCommitTime  uint32 = 0x67020040
	propTagChangeNumber     uint32 = 0x67A40014
	propTagChangeKey        uint32 = 0x65E20102
	propTagPredChangeList   uint32 = 0x65E30102
	propTagSourceKey        uint32 = 0x65E00102
	propTagMessageCodepage  uint32 = 0x3FFD0003
	propTagAccess           uint32 = 0x0FF40003
	propTagAccessLevel      uint32 = 0x0FF70003
	propTagEntryID          uint32 = 0x0FFF0102
	propTagFolderID         uint32 = 0x67480014
	propTagMID              uint32 = 0x674A0014
	propTagObjectType       uint32 = 0x0FFE0003
	propTagParentEntryID    uint32 = 0x0E090102
	propTagParentSourceKey  uint32 = 0x65E10102
	propTagStoreEntryID     uint32 = 0x0FFB0102
	propTagStoreRecordKey   uint32 = 0x0FFA0102
	propTagRecordKey        uint32 = 0x0FF90102
	propTagConversationID   uint32 = 0x3013001E
	propTagMessageStatus    uint32 = 0x0E170003
	propTagMimeSkeleton     uint32 = 0x64F00102
	propTagNativeBody       uint32 = 0x1016000B
	propTagTransportHeaders uint32 = 0x007D001E

	propTagExtRuleMsgCondition uint32 = 0x6649014A

	propTagInternetCPID      uint32 = 0x3FDE0003
	propTagRecipientType     uint32 = 0x0C15000B
	propTagSmtpAddress       uint32 = 0x39FE001E
	propTagAddressType       uint32 = 0x3002001E
	propTagEmailAddress      uint32 = 0x3003001E
	propTagInternetMailOvr   uint32 = 0x5902000B
	propTagDeleteAfterSubmit uint32 = 0x0E010003
	propTagTargetEntryID     uint32 = 0x3010102
)

// MSGFLAG_* bits carried in PR_MESSAGE_FLAGS (spec §4.3.1, §4.3.5).
const (
	msgflagRead        uint32 = 0x00000001
	msgflagUnmodified  uint32 = 0x00000002
	msgflagSubmitted   uint32 = 0x00000004
	msgflagUnsent      uint32 = 0x00000008
	msgflagHasAttach   uint32 = 0x00000010
	msgflagRNPending   uint32 = 0x00000020
	msgflagResend      uint32 = 0x00000080
	msgflagNRNPending  uint32 = 0x00000100
)

// RECIPIENT_TYPE_NEED_RESEND is OR'd into PROP_TAG_RECIPIENTTYPE when a
// recipient still needs a resend (spec §4.3.5 step 3).
const recipientTypeNeedResend uint32 = 0x80000000

// Read-flag bits accepted by SetReadFlag (spec §4.3.4).
const (
	MsgReadFlagDefault               uint8 = 0x00
	MsgReadFlagSuppressReceipt       uint8 = 0x01
	MsgReadFlagClearReadFlag         uint8 = 0x04
	MsgReadFlagGenerateReceiptOnly   uint8 = 0x10
	MsgReadFlagClearNotifyRead       uint8 = 0x20
	MsgReadFlagClearNotifyUnread     uint8 = 0x40
)

// maxExtRuleLength bounds PidLidExtendedRuleMessageCondition (spec §4.3.3).
// The original reads this from a runtime config parameter
// (COMMON_UTIL_MAX_EXTRULE_LENGTH); configuration parsing is out of scope
// here (spec §1), so it is a fixed constant instead.
const maxExtRuleLength = 512 * 1024

// readOnlyTags is the fixed set of properties the setter refuses to mutate
// unconditionally (spec §4.3.3).
var readOnlyTags = map[uint32]bool{
	propTagAccess:           true,
	propTagAccessLevel:      true,
	propTagAssociated:       true,
	propTagChangeNumber:     true,
	propTagConversationID:   true,
	propTagCreatorName:      true,
	propTagCreatorEntryID:   true,
	propTagDisplayBCC:       true,
	propTagDisplayCC:        true,
	propTagDisplayTo:        true,
	propTagEntryID:          true,
	propTagFolderID:         true,
	propTagHasAttach:        true,
	propTagHasNamedProps:    true,
	propTagLastModifierEID:  true,
	propTagMID:              true,
	propTagMimeSkeleton:     true,
	propTagNativeBody:       true,
	propTagObjectType:       true,
	propTagParentEntryID:    true,
	propTagParentSourceKey:  true,
	propTagStoreEntryID:     true,
	propTagStoreRecordKey:   true,
	propTagRecordKey:        true,
	propTagMessageSize:      true,
	propTagMessageStatus:    true,
	propTagTransportHeaders: true,
}

// readOnlyOnExisting is read-only only once the message is no longer new
// (spec §4.3.3: "on non-new messages").
var readOnlyOnExisting = map[uint32]bool{
	propTagChangeKey:       true,
	propTagCreationTime:    true,
	propTagLastModTime:     true,
	propTagPredChangeList:  true,
	propTagSourceKey:       true,
}

// checkReadonlyProperty reports whether tag may never be set by the caller
// (spec §4.3.3). PR_READ is writable only on embedded messages.
func (m *Message) checkReadonlyProperty(tag uint32) bool {
	if tag == propTagRead {
		return m.MessageID != 0
	}
	if readOnlyTags[tag] {
		return true
	}
	if readOnlyOnExisting[tag] && !m.IsNew {
		return true
	}
	return false
}
