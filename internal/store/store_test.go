package store

import (
	"testing"
	"time"

	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/configfile"
	"github.com/nexmda/groupcore/internal/dirprovider"
	"github.com/nexmda/groupcore/internal/propdb"
)

// fakeClient is a propdb.Client test double. Embedding the nil interface
// lets a test only override the handful of methods the scenario under test
// actually exercises; calling anything else panics loudly instead of
// silently doing nothing.
type fakeClient struct {
	propdb.Client

	permission    uint32
	permErr       error
	permCalls     int
	namedIDs      map[string]uint16
	nextID        uint16
	groupInfoCall int
	lastFolderSet []propdb.PropVal
}

func (f *fakeClient) CheckMailboxPermission(maildir, username string) (uint32, error) {
	f.permCalls++
	return f.permission, f.permErr
}

func (f *fakeClient) GetNamedPropIDs(maildir string, names []common.PropName, create bool) ([]uint16, error) {
	if f.namedIDs == nil {
		f.namedIDs = make(map[string]uint16)
	}
	out := make([]uint16, len(names))
	for i, n := range names {
		key := n.HashKey()
		id, ok := f.namedIDs[key]
		if !ok {
			f.nextID++
			id = 0x8000 + f.nextID
			f.namedIDs[key] = id
		}
		out[i] = id
	}
	return out, nil
}

func (f *fakeClient) GetNamedPropNames(maildir string, ids []uint16) ([]common.PropName, error) {
	out := make([]common.PropName, len(ids))
	for i, id := range ids {
		out[i] = common.PropName{GUID: common.NewGUID(), Kind: common.KindString, Name: "whatever"}
		_ = id
	}
	return out, nil
}

func (f *fakeClient) GetPropertyGroupInfo(maildir string, groupID uint32, resolve func([]common.PropName) ([]uint16, error)) (propdb.GroupInfo, error) {
	f.groupInfoCall++
	if groupID == propdb.LastGroupID {
		groupID = 1
	}
	return propdb.GroupInfo{GroupID: groupID, TagToIndex: map[uint32]uint32{}}, nil
}

func (f *fakeClient) SetFolderProperties(maildir string, folderID uint64, pvs []propdb.PropVal) ([]propdb.Problem, error) {
	f.lastFolderSet = pvs
	return nil, nil
}

func newTestStore(t *testing.T, private bool, accountID int, account, maildir string, dp dirprovider.Provider, db propdb.Client) *Store {
	t.Helper()
	return New(private, accountID, account, maildir, common.NewGUID(), WellKnownFolderIDs{Finder: 1, Outbox: 2, SentMail: 3, Wastebasket: 4, Schedule: 5}, dp, db, nil)
}

func TestDisplayNamePrivateUsesDirectory(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	dp.AddDomain(1, dirprovider.DomainInfo{ID: 1, Name: "example.org"})
	u := dirprovider.User{ID: 42, Username: "alice@example.org", PropVals: map[uint32]string{dirprovider.PropTagDisplayName: "Alice A."}}
	dp.AddDomainUser(1, u)

	s := newTestStore(t, true, 42, "alice@example.org", "/var/mail/alice", dp, &fakeClient{})
	v, ok, err := s.CalculatedProperty(PropTagDisplayName, Caller{UserID: 42, Username: "alice@example.org"})
	if err != nil || !ok {
		t.Fatalf("CalculatedProperty: ok=%v err=%v", ok, err)
	}
	if v != "Alice A." {
		t.Errorf("expected directory display name, got %v", v)
	}
}

func TestDisplayNamePrivateFallsBackToAccount(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	s := newTestStore(t, true, 42, "bob@example.org", "/var/mail/bob", dp, &fakeClient{})
	v, ok, err := s.CalculatedProperty(PropTagDisplayName, Caller{UserID: 42})
	if err != nil || !ok || v != "bob@example.org" {
		t.Fatalf("expected fallback to account name, got %v, ok=%v, err=%v", v, ok, err)
	}
}

func TestDisplayNamePublic(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	s := newTestStore(t, false, 7, "sales", "/var/mail/public/sales", dp, &fakeClient{})
	v, _, _ := s.CalculatedProperty(PropTagDisplayName, Caller{})
	if v != "Public Folders - sales" {
		t.Errorf("got %v", v)
	}
}

func TestCheckOwnerModeSelfNeverQueriesDB(t *testing.T) {
	db := &fakeClient{}
	s := newTestStore(t, true, 42, "alice@example.org", "/var/mail/alice", dirprovider.NewMemProvider(), db)
	if !s.CheckOwnerMode(Caller{UserID: 42}) {
		t.Fatal("expected self to be owner")
	}
	if db.permCalls != 0 {
		t.Errorf("expected no permission check for self, got %d calls", db.permCalls)
	}
}

func TestCheckOwnerModeDelegateCachesWithinTTL(t *testing.T) {
	db := &fakeClient{permission: frightsGromoxStoreOwner}
	s := newTestStore(t, true, 42, "alice@example.org", "/var/mail/alice", dirprovider.NewMemProvider(), db)

	fixed := time.Unix(1000, 0)
	nowFunc = func() time.Time { return fixed }
	defer func() { nowFunc = time.Now }()

	if !s.CheckOwnerMode(Caller{UserID: 99, Username: "admin"}) {
		t.Fatal("expected delegate owner grant")
	}
	if !s.CheckOwnerMode(Caller{UserID: 99, Username: "admin"}) {
		t.Fatal("expected cached owner grant")
	}
	if db.permCalls != 1 {
		t.Errorf("expected exactly one permission check within the TTL window, got %d", db.permCalls)
	}

	nowFunc = func() time.Time { return fixed.Add(61 * time.Second) }
	s.CheckOwnerMode(Caller{UserID: 99, Username: "admin"})
	if db.permCalls != 2 {
		t.Errorf("expected a fresh permission check after the TTL expired, got %d", db.permCalls)
	}
}

func TestCheckOwnerModePublicStoreNeverOwned(t *testing.T) {
	s := newTestStore(t, false, 7, "sales", "/var/mail/public/sales", dirprovider.NewMemProvider(), &fakeClient{permission: frightsGromoxStoreOwner})
	if s.CheckOwnerMode(Caller{UserID: 7}) {
		t.Fatal("a public store is never owned")
	}
}

func TestMDBProviderVariesByOwnership(t *testing.T) {
	owner := &fakeClient{}
	sOwn := newTestStore(t, true, 42, "alice@example.org", "/var/mail/alice", dirprovider.NewMemProvider(), owner)
	v, _, _ := sOwn.CalculatedProperty(PropTagMDBProvider, Caller{UserID: 42})
	if v.([16]byte) != mdbProviderPrivate {
		t.Errorf("expected private-owner UID for the account itself")
	}

	delegate := &fakeClient{}
	sShare := newTestStore(t, true, 42, "alice@example.org", "/var/mail/alice", dirprovider.NewMemProvider(), delegate)
	v2, _, _ := sShare.CalculatedProperty(PropTagMDBProvider, Caller{UserID: 99, Username: "carol"})
	if v2.([16]byte) != mdbProviderShare {
		t.Errorf("expected share UID for a non-owning caller")
	}

	public := newTestStore(t, false, 7, "sales", "/var/mail/public/sales", dirprovider.NewMemProvider(), &fakeClient{})
	v3, _, _ := public.CalculatedProperty(PropTagMDBProvider, Caller{})
	if v3.([16]byte) != mdbProviderPublic {
		t.Errorf("expected public UID for a public store")
	}
}

func TestGetNamedPropIDsMAPICoreResolvesDirectly(t *testing.T) {
	s := newTestStore(t, true, 1, "a", "/m", dirprovider.NewMemProvider(), &fakeClient{})
	ids, err := s.GetNamedPropIDs(false, []common.PropName{
		{GUID: common.MAPICoreGUID, Kind: common.KindID, LID: 0x8005},
		{GUID: common.MAPICoreGUID, Kind: common.KindString, Name: "ignored"},
	})
	if err != nil {
		t.Fatalf("GetNamedPropIDs: %v", err)
	}
	if ids[0] != 0x8005 {
		t.Errorf("expected MNID_ID core name to resolve to its lid, got %d", ids[0])
	}
	if ids[1] != 0 {
		t.Errorf("expected MNID_STRING core name to resolve to 0, got %d", ids[1])
	}
}

func TestGetNamedPropIDsCachesAcrossCalls(t *testing.T) {
	db := &fakeClient{}
	s := newTestStore(t, true, 1, "a", "/m", dirprovider.NewMemProvider(), db)
	name := common.PropName{GUID: common.NewGUID(), Kind: common.KindString, Name: "MyProp"}

	ids1, err := s.GetNamedPropIDs(true, []common.PropName{name})
	if err != nil {
		t.Fatalf("first GetNamedPropIDs: %v", err)
	}
	ids2, err := s.GetNamedPropIDs(true, []common.PropName{name})
	if err != nil {
		t.Fatalf("second GetNamedPropIDs: %v", err)
	}
	if ids1[0] != ids2[0] {
		t.Errorf("expected the same propid on the second (cached) call, got %d then %d", ids1[0], ids2[0])
	}
	if ids1[0] < 0x8000 {
		t.Errorf("a resolved named-property id must be in the reserved range, got %d", ids1[0])
	}
}

func TestGetPropertyGroupInfoCachesLast(t *testing.T) {
	db := &fakeClient{}
	s := newTestStore(t, true, 1, "a", "/m", dirprovider.NewMemProvider(), db)

	if _, err := s.GetLastPropertyGroupInfo(); err != nil {
		t.Fatalf("GetLastPropertyGroupInfo: %v", err)
	}
	if _, err := s.GetLastPropertyGroupInfo(); err != nil {
		t.Fatalf("GetLastPropertyGroupInfo (cached): %v", err)
	}
	if db.groupInfoCall != 1 {
		t.Errorf("expected the last groupinfo to be built once and cached, got %d builds", db.groupInfoCall)
	}
}

func TestOOFStateRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := New(true, 1, "a", dir, common.NewGUID(), WellKnownFolderIDs{}, dirprovider.NewMemProvider(), &fakeClient{}, nil)

	a := configfile.AutoReply{State: configfile.OOFScheduled, StartTime: 1000, EndTime: 2000, AllowExternalOOF: true, ExternalAudience: "all"}
	if err := s.SetOOFState(a); err != nil {
		t.Fatalf("SetOOFState: %v", err)
	}

	v, ok, err := s.CalculatedProperty(PropTagOOFState, Caller{})
	if err != nil || !ok {
		t.Fatalf("CalculatedProperty(PropTagOOFState): ok=%v err=%v", ok, err)
	}
	if v.(uint32) != uint32(configfile.OOFScheduled) {
		t.Errorf("expected OOFScheduled, got %v", v)
	}

	v, ok, err = s.CalculatedProperty(PropTagECAllowExternal, Caller{})
	if err != nil || !ok || v.(bool) != true {
		t.Errorf("expected ALLOW_EXTERNAL_OOF true, got %v ok=%v err=%v", v, ok, err)
	}
}

func TestReplyBodyRoundTripWithPreamble(t *testing.T) {
	dir := t.TempDir()
	s := New(true, 1, "a", dir, common.NewGUID(), WellKnownFolderIDs{}, dirprovider.NewMemProvider(), &fakeClient{}, nil)

	if err := s.WriteReplyBody(false, "<p>I am out</p>", true); err != nil {
		t.Fatalf("WriteReplyBody: %v", err)
	}

	v, err := s.readReplyBody(internalReplyFile, false)
	if err != nil {
		t.Fatalf("readReplyBody: %v", err)
	}
	if v != "<p>I am out</p>" {
		t.Errorf("expected the MIME fragment body back, got %q", v)
	}
}
