package message

import (
	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/propdb"
)

const defaultLocaleID uint32 = 0x0409

// InitMessage writes the canonical initial property set for a brand-new
// message (spec §4.3.1). Only valid on new messages.
func (m *Message) InitMessage(isFAI bool, newCodepage uint32) error {
	if !m.IsNew {
		return errNotNew
	}

	creatorName := m.creatorDisplayName()
	creatorEntryID := common.EncodeABEntryID(m.Caller.Username)

	pvs := []propdb.PropVal{
		{Tag: propTagMessageCodepage, Value: newCodepage},
		{Tag: propTagImportance, Value: uint32(1)},
		{Tag: propTagMessageClass, Value: "IPM.Note"},
		{Tag: propTagSensitivity, Value: uint32(0)},
		{Tag: propTagOriginalDispBCC, Value: ""},
		{Tag: propTagOriginalDispCC, Value: ""},
		{Tag: propTagOriginalDispTo, Value: ""},
		{Tag: propTagMessageFlags, Value: msgflagUnsent | msgflagUnmodified},
		{Tag: propTagRead, Value: uint8(1)},
		{Tag: propTagAssociated, Value: boolByte(isFAI)},
		{Tag: propTagTrustSender, Value: uint32(1)},
		{Tag: propTagCreationTime, Value: nowFunc()},
		{Tag: propTagSearchKey, Value: common.NewSearchKey()},
		{Tag: propTagMessageLocaleID, Value: defaultLocaleID},
		{Tag: propTagLocaleID, Value: defaultLocaleID},
		{Tag: propTagCreatorName, Value: creatorName},
		{Tag: propTagCreatorEntryID, Value: creatorEntryID},
		{Tag: propTagInternetMsgID, Value: common.NewInternetMessageID(m.hostname)},
	}

	if _, err := m.db.SetInstanceProperties(m.Instance, pvs); err != nil {
		return err
	}
	m.touched = true
	return nil
}

// creatorDisplayName resolves the current session's display name,
// falling back to the raw username when the directory has none (spec
// §4.3.1, §4.3.2 step 3).
func (m *Message) creatorDisplayName() string {
	if m.dp != nil {
		if u, ok := m.dp.GetUser(m.Caller.Username); ok {
			if name, ok := u.DisplayName(); ok && name != "" {
				return name
			}
		}
	}
	return m.Caller.Username
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}
