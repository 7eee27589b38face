// Package message implements the Message Object facade (spec §3.3, §4.3):
// a single message instance's dirty-tag tracking, change-number allocation,
// ICS state update, and send pipeline, grounded on
// original_source/exch/zcore/message_object.cpp.
package message

import (
	"github.com/nexmda/groupcore/internal/dirprovider"
	"github.com/nexmda/groupcore/internal/propdb"
	"github.com/nexmda/groupcore/internal/store"
)

// Parent names what a new message's construction site is (spec §4.3.1): a
// folder id for a top-level message, or the owning attachment's instance id
// for an embedded one. Exactly one of the two is meaningful, selected by
// whether the caller constructs via New or NewEmbedded.
type Parent struct {
	FolderID           uint64
	AttachmentInstance uint32
}

// tagSet is an append-ordered set of proptags (spec §3.3 "changed_proptags
// and removed_proptags ... set-like with append-ordering"): membership is
// checked with Has, and Remove drops a tag without disturbing the order of
// the rest, mirroring proptag_array_check/_remove/_append on the original's
// PROPTAG_ARRAY.
type tagSet struct {
	tags []uint32
}

func (s *tagSet) Has(tag uint32) bool {
	for _, t := range s.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (s *tagSet) Append(tag uint32) {
	if !s.Has(tag) {
		s.tags = append(s.tags, tag)
	}
}

func (s *tagSet) Remove(tag uint32) {
	for i, t := range s.tags {
		if t == tag {
			s.tags = append(s.tags[:i], s.tags[i+1:]...)
			return
		}
	}
}

func (s *tagSet) Clear() {
	s.tags = nil
}

func (s *tagSet) Slice() []uint32 {
	out := make([]uint32, len(s.tags))
	copy(out, s.tags)
	return out
}

// Message is one message instance (spec §3.3): either a top-level message
// loaded under a folder id, or an embedded message loaded under an
// attachment's instance id.
type Message struct {
	st *store.Store
	db propdb.Client
	dp dirprovider.Provider

	Caller store.Caller

	IsNew     bool
	Codepage  uint32
	MessageID uint64 // 0 for an embedded message
	Parent    Parent
	Access    uint32
	Writable  bool

	Instance  uint32
	ChangeNum uint64

	State *ICSState // nil unless this is a top-level message tracked for ICS

	touched bool
	changed tagSet
	removed tagSet

	hostname string

	// OnEmbeddedSave is invoked after a successful Save of an embedded
	// message, letting the owning attachment object mark itself touched
	// (spec §4.3.2 step 7: "For embedded messages, mark the owning
	// attachment touched"). Modeling the attachment object itself is out of
	// this package's scope; callers that construct via NewEmbedded wire
	// this in if they track one.
	OnEmbeddedSave func()
}

// New constructs a top-level Message loaded under parent folderID (spec
// §4.3.1). When the store is public, the instance is loaded in the name of
// the mailbox owner account rather than the calling session's username.
func New(st *store.Store, db propdb.Client, dp dirprovider.Provider, caller store.Caller, isNew bool, codepage uint32, messageID, folderID uint64, access uint32, writable bool, state *ICSState, hostname string) (*Message, error) {
	m := &Message{
		st:        st,
		db:        db,
		dp:        dp,
		Caller:    caller,
		IsNew:     isNew,
		Codepage:  codepage,
		MessageID: messageID,
		Parent:    Parent{FolderID: folderID},
		Access:    access,
		Writable:  writable,
		State:     state,
		hostname:  hostname,
	}

	instance, err := db.LoadMessageInstance(st.Maildir, folderID, messageID, writable)
	if err != nil {
		return nil, err
	}
	m.Instance = instance

	if !isNew {
		if err := m.loadChangeNum(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// NewEmbedded constructs a Message living inside attachmentInstance,
// loading (or, if isNew, creating) its embedded instance (spec §4.3.1 "If
// message_id == 0 the parent is an attachment").
func NewEmbedded(st *store.Store, db propdb.Client, dp dirprovider.Provider, caller store.Caller, isNew bool, codepage uint32, attachmentInstance uint32, access uint32, writable bool, hostname string) (*Message, error) {
	m := &Message{
		st:       st,
		db:       db,
		dp:       dp,
		Caller:   caller,
		IsNew:    isNew,
		Codepage: codepage,
		Parent:   Parent{AttachmentInstance: attachmentInstance},
		Access:   access,
		Writable: writable,
		hostname: hostname,
	}

	instance, err := db.LoadEmbeddedInstance(attachmentInstance, writable)
	if err != nil {
		return nil, err
	}
	m.Instance = instance
	// "cannot find embedded message in attachment" (spec §4.3.1): the
	// caller checks Instance == 0 themselves, same as the original
	// returning a non-nil MESSAGE_OBJECT with instance_id == 0.
	if !isNew && instance == 0 {
		return m, nil
	}

	if !isNew {
		if err := m.loadChangeNum(); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Message) loadChangeNum() error {
	v, ok, err := m.db.GetInstanceProperty(m.Instance, propTagChangeNumber)
	if err != nil {
		return err
	}
	if ok {
		m.ChangeNum = v.(uint64)
	}
	return nil
}

// Touched reports whether this message has any pending, unsaved property
// changes (spec §4.3.2 step 1).
func (m *Message) Touched() bool { return m.touched }
