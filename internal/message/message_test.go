package message

import (
	"bytes"
	"errors"
	"net"
	"strings"
	"testing"

	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/dirprovider"
	"github.com/nexmda/groupcore/internal/propdb"
	"github.com/nexmda/groupcore/internal/store"
)

// fakeClient is a propdb.Client test double in the same style as
// internal/store/store_test.go's fakeClient: embed the nil interface and
// override only what a given scenario exercises.
type fakeClient struct {
	propdb.Client

	instanceProps map[uint32]interface{}
	messageProps  map[uint32]interface{}
	cn            uint64
	flushed       bool
	groupID       uint32
	haveGroupID   bool
	markedMod     int
	changeIndices []uint32
	removedTags   []uint32
	rcpts         []map[uint32]interface{}
	readStateSet  *bool
	deleted       bool
	cleared       bool
	movedTo       uint64
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		instanceProps: map[uint32]interface{}{},
		messageProps:  map[uint32]interface{}{},
	}
}

func (f *fakeClient) AllocateCN(maildir string) (uint64, error) {
	f.cn++
	return f.cn, nil
}

func (f *fakeClient) GetInstanceProperty(instance uint32, tag uint32) (interface{}, bool, error) {
	v, ok := f.instanceProps[tag]
	return v, ok, nil
}

func (f *fakeClient) SetInstanceProperty(instance uint32, pv propdb.PropVal) error {
	f.instanceProps[pv.Tag] = pv.Value
	return nil
}

func (f *fakeClient) SetInstanceProperties(instance uint32, pvs []propdb.PropVal) ([]propdb.Problem, error) {
	for _, pv := range pvs {
		f.instanceProps[pv.Tag] = pv.Value
	}
	return nil, nil
}

func (f *fakeClient) RemoveInstanceProperties(instance uint32, tags []uint32) ([]propdb.Problem, error) {
	for _, t := range tags {
		delete(f.instanceProps, t)
	}
	return nil, nil
}

func (f *fakeClient) LoadMessageInstance(maildir string, folderID, messageID uint64, writable bool) (uint32, error) {
	return 7, nil
}

func (f *fakeClient) LoadEmbeddedInstance(parentInstance uint32, writable bool) (uint32, error) {
	return 7, nil
}

func (f *fakeClient) UnloadInstance(instance uint32) error { return nil }

func (f *fakeClient) FlushInstance(maildir string, instance uint32) error {
	f.flushed = true
	return nil
}

func (f *fakeClient) GetMessageGroupID(maildir string, messageID uint64) (uint32, bool, error) {
	return f.groupID, f.haveGroupID, nil
}

func (f *fakeClient) SetMessageGroupID(maildir string, messageID uint64, groupID uint32) error {
	f.groupID = groupID
	f.haveGroupID = true
	return nil
}

func (f *fakeClient) MarkModified(maildir string, messageID uint64) error {
	f.markedMod++
	return nil
}

func (f *fakeClient) SaveChangeIndices(maildir string, messageID uint64, cn uint64, indexed, removed []uint32) error {
	f.changeIndices = indexed
	f.removedTags = removed
	return nil
}

func (f *fakeClient) RuleNewMessage(maildir string, messageID uint64) error { return nil }

func (f *fakeClient) GetPropertyGroupInfo(maildir string, groupID uint32, resolve func([]common.PropName) ([]uint16, error)) (propdb.GroupInfo, error) {
	if groupID == propdb.LastGroupID {
		groupID = 1
	}
	return propdb.GroupInfo{GroupID: groupID, TagToIndex: map[uint32]uint32{}}, nil
}

func (f *fakeClient) SetMessageReadState(maildir string, messageID uint64, read bool) (uint64, error) {
	f.readStateSet = &read
	f.cn++
	return f.cn, nil
}

func (f *fakeClient) SetMessageProperties(maildir string, messageID uint64, pvs []propdb.PropVal) ([]propdb.Problem, error) {
	for _, pv := range pvs {
		f.messageProps[pv.Tag] = pv.Value
	}
	return nil, nil
}

func (f *fakeClient) ReadMessage(maildir string, messageID uint64) ([]propdb.PropVal, error) {
	out := make([]propdb.PropVal, 0, len(f.messageProps))
	for tag, v := range f.messageProps {
		out = append(out, propdb.PropVal{Tag: tag, Value: v})
	}
	return out, nil
}

func (f *fakeClient) GetMessageInstanceRcpts(instance uint32) ([]map[uint32]interface{}, error) {
	return f.rcpts, nil
}

func (f *fakeClient) DeleteMessage(maildir string, messageID uint64) error {
	f.deleted = true
	return nil
}

func (f *fakeClient) ClearSubmit(maildir string, messageID uint64) error {
	f.cleared = true
	return nil
}

func (f *fakeClient) MovecopyMessage(maildir string, messageID, dstFolderID uint64, move bool) error {
	f.movedTo = dstFolderID
	return nil
}

func newTestStore(t *testing.T, db propdb.Client) *store.Store {
	t.Helper()
	dir := t.TempDir()
	return store.New(true, 1, "alice", dir, common.NewGUID(),
		store.WellKnownFolderIDs{SentMail: 99}, dirprovider.NewMemProvider(), db, nil)
}

// TestSaveNewMessage exercises scenario S3: a brand-new message's first
// save allocates a change number, appends the change key to the PCL,
// clears is_new/touched, and extends the ICS given/seen sets.
func TestSaveNewMessage(t *testing.T) {
	db := newFakeClient()
	st := newTestStore(t, db)
	msg, err := New(st, db, dirprovider.NewMemProvider(), store.Caller{UserID: 1, Username: "alice"},
		true, 1252, 55, 1, 0xFFFFFFFF, true, &ICSState{}, "host")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := msg.InitMessage(false, 1252); err != nil {
		t.Fatalf("InitMessage: %v", err)
	}
	if _, err := msg.SetProperties([]propdb.PropVal{{Tag: propTagSubject, Value: "Hi"}}); err != nil {
		t.Fatalf("SetProperties: %v", err)
	}

	if !msg.Touched() {
		t.Fatal("expected touched after SetProperties")
	}

	if err := msg.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if msg.IsNew {
		t.Fatal("expected IsNew cleared after save")
	}
	if msg.Touched() {
		t.Fatal("expected touched cleared after save")
	}
	if msg.ChangeNum == 0 {
		t.Fatal("expected a change number to be allocated")
	}
	if !db.flushed {
		t.Fatal("expected FlushInstance to be called")
	}
	if !msg.State.Given.Has(55) {
		t.Fatal("expected ICS given to contain the message id")
	}
	if !msg.State.Seen.Has(msg.ChangeNum) {
		t.Fatal("expected ICS seen to contain the change number")
	}

	pcl, ok := db.instanceProps[propTagPredChangeList].([]byte)
	if !ok {
		t.Fatal("expected PR_PREDECESSOR_CHANGE_LIST to be set")
	}
	decoded, valid := common.DecodePCL(pcl)
	if !valid {
		t.Fatal("expected a decodable PCL")
	}
	tail, ok := decoded.TailXID(st.MailboxGUID)
	if !ok {
		t.Fatal("expected a PCL range for this mailbox's GUID")
	}
	changeKey, _ := db.instanceProps[propTagChangeKey].([]byte)
	if string(tail.Bytes()) != string(changeKey) {
		t.Fatal("expected the PCL's tail XID to equal the new change key")
	}

	// A second immediate save is a no-op.
	prevCN := msg.ChangeNum
	if err := msg.Save(); err != nil {
		t.Fatalf("second Save: %v", err)
	}
	if msg.ChangeNum != prevCN {
		t.Fatal("expected no-op save to leave ChangeNum unchanged")
	}
}

// errDialRefused stands in for "relay unreachable" without opening a real
// socket, so tests that only care about the read-state transition and the
// rest of the pipeline's control flow don't depend on network timing.
var errDialRefused = errors.New("dial refused")

func refusingDial(network, addr string) (net.Conn, error) { return nil, errDialRefused }

// TestSetReadFlagDefault exercises scenario S4: unread with a receipt
// requested transitions to read, schedules a receipt (best-effort; the
// fake relay here always refuses, so Send's own error return is exercised
// without needing a live SMTP dialogue), and the persisted read state is
// updated regardless of the receipt outcome.
func TestSetReadFlagDefault(t *testing.T) {
	db := newFakeClient()
	db.messageProps[propTagSentRepresentingSmtp] = "sender@example.org"
	db.messageProps[propTagSubject] = "Hi"
	db.instanceProps[propTagRead] = uint8(0)
	db.instanceProps[propTagReadReceiptReq] = uint8(1)
	st := newTestStore(t, db)

	msg, err := New(st, db, dirprovider.NewMemProvider(), store.Caller{UserID: 1, Username: "alice"},
		false, 1252, 9, 55, 0xFFFFFFFF, true, nil, "host")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	relay := SendConfig{Dial: refusingDial}

	changed, err := msg.SetReadFlag(MsgReadFlagDefault, relay)
	if err == nil {
		t.Fatal("expected the receipt send attempt to surface the relay failure")
	}
	if !changed {
		t.Fatal("expected changed=true")
	}
	if v, _ := db.instanceProps[propTagRead].(uint8); v != 1 {
		t.Fatal("expected PR_READ=true on instance")
	}
	if db.readStateSet == nil || !*db.readStateSet {
		t.Fatal("expected persisted read state to be set true")
	}
}

// TestSetReadFlagClearReadFlag exercises the CLEAR_READ_FLAG branch: a read
// message is marked unread again, with no receipt attempted.
func TestSetReadFlagClearReadFlag(t *testing.T) {
	db := newFakeClient()
	db.instanceProps[propTagRead] = uint8(1)
	st := newTestStore(t, db)

	msg, err := New(st, db, dirprovider.NewMemProvider(), store.Caller{UserID: 1, Username: "alice"},
		false, 1252, 9, 55, 0xFFFFFFFF, true, nil, "host")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	changed, err := msg.SetReadFlag(MsgReadFlagClearReadFlag, SendConfig{})
	if err != nil {
		t.Fatalf("SetReadFlag: %v", err)
	}
	if !changed {
		t.Fatal("expected changed=true")
	}
	if v, _ := db.instanceProps[propTagRead].(uint8); v != 0 {
		t.Fatal("expected PR_READ=false on instance")
	}
	if db.readStateSet == nil || *db.readStateSet {
		t.Fatal("expected persisted read state to be set false")
	}
}

// TestSendNoRecipients exercises the ErrNoRecipients path without needing
// any network dial at all.
func TestSendNoRecipients(t *testing.T) {
	db := newFakeClient()
	db.messageProps[propTagFolderID] = uint64(42)
	st := newTestStore(t, db)

	msg, err := New(st, db, dirprovider.NewMemProvider(), store.Caller{UserID: 1, Username: "alice"},
		false, 1252, 9, 42, 0xFFFFFFFF, true, nil, "host")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := msg.Send(SendConfig{Dial: refusingDial}, true); err != ErrNoRecipients {
		t.Fatalf("expected ErrNoRecipients, got %v", err)
	}
	if db.cleared {
		t.Fatal("expected no post-processing when there are no recipients")
	}
}

// TestSendDeliveryFailureSkipsPostProcess checks that a relay failure
// propagates the classified error and never runs ClearSubmit/move.
func TestSendDeliveryFailureSkipsPostProcess(t *testing.T) {
	db := newFakeClient()
	db.messageProps[propTagFolderID] = uint64(42)
	db.messageProps[propTagSubject] = "Hello"
	db.messageProps[propTagBody] = "plain body"
	db.rcpts = []map[uint32]interface{}{
		{propTagSmtpAddress: "bob@example.org"},
	}
	st := newTestStore(t, db)

	msg, err := New(st, db, dirprovider.NewMemProvider(), store.Caller{UserID: 1, Username: "alice"},
		false, 1252, 9, 42, 0xFFFFFFFF, true, nil, "host")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	err = msg.Send(SendConfig{Dial: refusingDial}, true)
	if err == nil {
		t.Fatal("expected a delivery error")
	}
	if db.cleared {
		t.Fatal("expected ClearSubmit not to run after a delivery failure")
	}
}

// TestResolveRecipientAddressOrdering exercises spec §4.3.5 step 4's
// ordered resolution strategy.
func TestResolveRecipientAddressOrdering(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	dp.AddDomain(1, dirprovider.DomainInfo{ID: 1, Name: "example.org"})
	dp.AddDomainUser(1, dirprovider.User{ID: 42, Username: "carol@example.org"})

	cases := []struct {
		name string
		rcpt map[uint32]interface{}
		want string
	}{
		{
			name: "direct SMTP address wins",
			rcpt: map[uint32]interface{}{
				propTagSmtpAddress: "direct@example.org",
				propTagAddressType: "SMTP",
				propTagEmailAddress: "ignored@example.org",
			},
			want: "direct@example.org",
		},
		{
			name: "SMTP address type falls back to EMAIL_ADDRESS",
			rcpt: map[uint32]interface{}{
				propTagAddressType:  "SMTP",
				propTagEmailAddress: "fallback@example.org",
			},
			want: "fallback@example.org",
		},
		{
			name: "one-off entryid decodes to its address",
			rcpt: map[uint32]interface{}{
				propTagEntryID: common.EncodeOneOff("Dave", "SMTP", "dave@example.org"),
			},
			want: "dave@example.org",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := resolveRecipientAddress(dp, tc.rcpt)
			if err != nil {
				t.Fatalf("resolveRecipientAddress: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestResolveRecipientAddressUnresolvable(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	if _, err := resolveRecipientAddress(dp, map[uint32]interface{}{}); err == nil {
		t.Fatal("expected an error for an unresolvable recipient")
	}
}

// TestBuildOutgoingMIME checks the plain+HTML default and the HTML-only
// override produce the expected MIME shape (spec §4.3.5 step 5).
func TestBuildOutgoingMIME(t *testing.T) {
	data, err := buildOutgoingMIME("Hi", "alice@example.org", []string{"bob@example.org"}, "plain text", "<p>html</p>", true, true)
	if err != nil {
		t.Fatalf("buildOutgoingMIME: %v", err)
	}
	s := string(data)
	if !strings.Contains(s, "multipart/alternative") {
		t.Fatal("expected a multipart/alternative body for plain+HTML")
	}
	if !strings.Contains(s, "plain text") || !strings.Contains(s, "<p>html</p>") {
		t.Fatal("expected both bodies present")
	}
	if !bytes.Contains(data, []byte("Subject: Hi")) {
		t.Fatal("expected the subject header")
	}

	htmlOnly, err := buildOutgoingMIME("Hi", "alice@example.org", []string{"bob@example.org"}, "plain text", "<p>html</p>", false, true)
	if err != nil {
		t.Fatalf("buildOutgoingMIME html-only: %v", err)
	}
	if strings.Contains(string(htmlOnly), "multipart/alternative") {
		t.Fatal("expected a single-part body for HTML-only")
	}
	if !strings.Contains(string(htmlOnly), "<p>html</p>") {
		t.Fatal("expected the HTML body present")
	}
}
