package message

import (
	"fmt"

	"github.com/nexmda/groupcore/internal/propdb"
)

// SetReadFlag implements the Exchange read-flag operation (spec §4.3.4).
// flag is a bitmask over MsgReadFlag* constants. relay, if non-zero (its
// Dial/RelayAddr fields set), is used to submit a generated read receipt;
// a zero SendConfig silently skips receipt generation, since scheduling a
// receipt is itself a best-effort side effect distinct from the read-state
// transition the caller is waiting on.
func (m *Message) SetReadFlag(flag uint8, relay SendConfig) (changed bool, err error) {
	readVal, ok, err := m.db.GetInstanceProperty(m.Instance, propTagRead)
	if err != nil {
		return false, err
	}
	read := ok && asBool(readVal)

	reqVal, ok, err := m.db.GetInstanceProperty(m.Instance, propTagReadReceiptReq)
	if err != nil {
		return false, err
	}
	receiptRequested := ok && asBool(reqVal)

	generateReceipt := false

	switch {
	case flag&MsgReadFlagClearReadFlag != 0:
		if read {
			read = false
			changed = true
		}
	case flag&MsgReadFlagGenerateReceiptOnly != 0:
		generateReceipt = receiptRequested
	default: // MsgReadFlagDefault or MsgReadFlagSuppressReceipt
		if !read {
			read = true
			changed = true
		}
		if flag == MsgReadFlagDefault && receiptRequested {
			generateReceipt = true
		}
	}

	if flag&(MsgReadFlagClearNotifyRead|MsgReadFlagClearNotifyUnread) != 0 {
		if err := m.clearNotifyFlags(); err != nil {
			return changed, err
		}
	}

	if changed {
		if err := m.db.SetInstanceProperty(m.Instance, propdb.PropVal{Tag: propTagRead, Value: boolByte(read)}); err != nil {
			return false, err
		}
		newCN, err := m.db.SetMessageReadState(m.st.Maildir, m.MessageID, read)
		if err != nil {
			return false, err
		}
		m.ChangeNum = newCN
	}

	if generateReceipt && (relay.Dial != nil || relay.RelayAddr != "") {
		if err := m.scheduleReadReceipt(relay); err != nil {
			return changed, fmt.Errorf("message: read receipt: %w", err)
		}
	}

	return changed, nil
}

// clearNotifyFlags clears PR_READ_RECEIPT_REQUESTED and/or
// PR_NON_RECEIPT_NOTIFICATION_REQUESTED on both the instance and the
// persisted message, and drops MSGFLAG_UNMODIFIED if it was set (spec
// §4.3.4 "CLEAR_NOTIFY_READ and/or CLEAR_NOTIFY_UNREAD").
func (m *Message) clearNotifyFlags() error {
	clear := []propdb.PropVal{
		{Tag: propTagReadReceiptReq, Value: boolByte(false)},
		{Tag: propTagNonReceiptNotify, Value: boolByte(false)},
	}
	if _, err := m.db.SetInstanceProperties(m.Instance, clear); err != nil {
		return err
	}

	flagsVal, ok, err := m.db.GetInstanceProperty(m.Instance, propTagMessageFlags)
	if err != nil {
		return err
	}
	flags, _ := flagsVal.(uint32)
	if ok && flags&msgflagUnmodified != 0 {
		flags &^= msgflagUnmodified
		if err := m.db.SetInstanceProperty(m.Instance, propdb.PropVal{Tag: propTagMessageFlags, Value: flags}); err != nil {
			return err
		}
		if err := m.db.MarkModified(m.st.Maildir, m.MessageID); err != nil {
			return err
		}
	}

	if m.MessageID != 0 {
		if _, err := m.db.SetMessageProperties(m.st.Maildir, m.MessageID, clear); err != nil {
			return err
		}
	}
	return nil
}
