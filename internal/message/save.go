package message

import (
	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/propdb"
)

// Save persists this message's changes (spec §4.3.2). It is a no-op
// returning nil when the message is neither new nor touched.
func (m *Message) Save() error {
	if !m.IsNew && !m.touched {
		return nil
	}

	cn, err := m.db.AllocateCN(m.st.Maildir)
	if err != nil {
		return err
	}
	m.ChangeNum = cn

	faiVal, ok, err := m.db.GetInstanceProperty(m.Instance, propTagAssociated)
	if err != nil {
		return err
	}
	isFAI := ok && faiVal != nil && asBool(faiVal)

	now := nowFunc()
	meta := []propdb.PropVal{{Tag: propTagLocalCommitTime, Value: now}}
	if !m.changed.Has(propTagLastModTime) {
		meta = append(meta, propdb.PropVal{Tag: propTagLastModTime, Value: now})
	}
	if !m.changed.Has(propTagLastModifierName) {
		meta = append(meta, propdb.PropVal{Tag: propTagLastModifierName, Value: m.creatorDisplayName()})
	}
	meta = append(meta, propdb.PropVal{Tag: propTagLastModifierEID, Value: common.EncodeABEntryID(m.Caller.Username)})

	if m.MessageID != 0 {
		changeKey, pcl, err := m.appendChangeKey()
		if err != nil {
			return err
		}
		meta = append(meta,
			propdb.PropVal{Tag: propTagChangeKey, Value: changeKey},
			propdb.PropVal{Tag: propTagPredChangeList, Value: pcl},
		)
	}

	if _, err := m.setPropertiesInternal(false, meta); err != nil {
		return err
	}

	if err := m.db.SetInstanceProperty(m.Instance, propdb.PropVal{Tag: propTagChangeNumber, Value: m.ChangeNum}); err != nil {
		return err
	}

	if err := m.db.FlushInstance(m.st.Maildir, m.Instance); err != nil {
		return err
	}

	isNew := m.IsNew
	m.IsNew = false
	m.touched = false

	if m.MessageID == 0 {
		// Embedded message: mark the owning attachment touched and stop;
		// there's no top-level ICS/group-id bookkeeping for it.
		if m.OnEmbeddedSave != nil {
			m.OnEmbeddedSave()
		}
		return nil
	}

	if m.State != nil {
		m.State.Given.Append(m.MessageID)
		if isFAI {
			m.State.SeenFAI.Append(m.ChangeNum)
		} else {
			m.State.Seen.Append(m.ChangeNum)
		}
	}

	if isFAI {
		m.changed.Clear()
		m.removed.Clear()
		return nil
	}

	if isNew {
		return m.saveFullChange(isNew)
	}
	return m.savePartialOrFullChange(isNew)
}

// appendChangeKey computes the new 22-byte change key (store-GUID + GC of
// the change number) and appends it to the predecessor change list (spec
// §4.3.2 step 4).
func (m *Message) appendChangeKey() (changeKey, pclBytes []byte, err error) {
	xid := common.NewXID(m.st.MailboxGUID, m.ChangeNum)
	changeKey = xid.Bytes()

	var pcl common.PCL
	raw, ok, err := m.db.GetInstanceProperty(m.Instance, propTagPredChangeList)
	if err != nil {
		return nil, nil, err
	}
	if ok && raw != nil {
		if b, ok2 := raw.([]byte); ok2 {
			decoded, valid := common.DecodePCL(b)
			if !valid {
				return nil, nil, errBadPCL
			}
			pcl = decoded
		}
	} else if !m.IsNew {
		return nil, nil, errMissingPCL
	}
	pcl.Append(xid)
	return changeKey, pcl.Serialize(), nil
}

// saveFullChange records a full (non-partial) change for this message (spec
// §4.3.2 step 8: "any tag is ungrouped ... fall back to recording a full
// change"). RuleNewMessage only fires for brand-new top-level non-FAI
// messages on public stores (spec §4.3.2 step 9: "is_new && !b_fai &&
// !b_private"); isNew is false on every fallback reached from
// savePartialOrFullChange, which only runs for existing messages.
func (m *Message) saveFullChange(isNew bool) error {
	m.changed.Clear()
	m.removed.Clear()
	if err := m.db.SaveChangeIndices(m.st.Maildir, m.MessageID, m.ChangeNum, nil, nil); err != nil {
		return err
	}

	if isNew && !m.st.Private {
		if err := m.db.RuleNewMessage(m.st.Maildir, m.MessageID); err != nil {
			return err
		}
	}
	return nil
}

// savePartialOrFullChange implements spec §4.3.2 step 8 for an existing
// top-level non-FAI message: ensure a group id, mark modified, partition
// the changed/removed tags, and either persist partial indices or fall back
// to a full change.
func (m *Message) savePartialOrFullChange(isNew bool) error {
	groupID, ok, err := m.db.GetMessageGroupID(m.st.Maildir, m.MessageID)
	if err != nil {
		return err
	}

	var gi propdb.GroupInfo
	if !ok {
		gi, err = m.st.GetLastPropertyGroupInfo()
		if err != nil {
			return err
		}
		if err := m.db.SetMessageGroupID(m.st.Maildir, m.MessageID, gi.GroupID); err != nil {
			return err
		}
	} else {
		gi, err = m.st.GetPropertyGroupInfo(groupID)
		if err != nil {
			return err
		}
	}

	if err := m.db.MarkModified(m.st.Maildir, m.MessageID); err != nil {
		return err
	}

	m.changed.Append(propTagMessageFlags)

	var indices []uint32
	var ungrouped []uint32
	for _, tag := range m.changed.Slice() {
		if idx, ok := gi.TagToIndex[tag]; ok {
			indices = append(indices, idx)
		} else {
			ungrouped = append(ungrouped, tag)
		}
	}
	if len(ungrouped) > 0 {
		return m.saveFullChange(isNew)
	}
	for _, tag := range m.removed.Slice() {
		idx, ok := gi.TagToIndex[tag]
		if !ok {
			return m.saveFullChange(isNew)
		}
		indices = append(indices, idx)
	}

	if err := m.db.SaveChangeIndices(m.st.Maildir, m.MessageID, m.ChangeNum, indices, nil); err != nil {
		return err
	}
	m.changed.Clear()
	m.removed.Clear()
	return nil
}

func asBool(v interface{}) bool {
	switch t := v.(type) {
	case bool:
		return t
	case uint8:
		return t != 0
	case int:
		return t != 0
	}
	return false
}
