package abtree

import (
	"testing"
	"time"

	"github.com/nexmda/groupcore/internal/dirprovider"
)

func TestManagerGetBaseBuildsAndCaches(t *testing.T) {
	dp := singleDomainProvider()
	mgr := NewManager(dp, "example.org", nil, 1252, time.Hour, 0)

	b1, err := mgr.GetBase(-17)
	if err != nil {
		t.Fatalf("GetBase: %v", err)
	}
	if b1.refCount() != 1 {
		t.Errorf("expected refcount 1 after first GetBase, got %d", b1.refCount())
	}

	b2, err := mgr.GetBase(-17)
	if err != nil {
		t.Fatalf("GetBase second call: %v", err)
	}
	if b1 != b2 {
		t.Error("expected the same cached base on a second GetBase")
	}
	if b2.refCount() != 2 {
		t.Errorf("expected refcount 2 after second GetBase, got %d", b2.refCount())
	}
}

func TestManagerGetBaseCapacityExhausted(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	dp.AddDomain(1, dirprovider.DomainInfo{ID: 17, Name: "a.example", Title: "A"})
	dp.AddDomain(1, dirprovider.DomainInfo{ID: 18, Name: "b.example", Title: "B"})
	mgr := NewManager(dp, "example.org", nil, 1252, time.Hour, 1)

	if _, err := mgr.GetBase(-17); err != nil {
		t.Fatalf("GetBase(-17): %v", err)
	}
	if _, err := mgr.GetBase(-18); err == nil {
		t.Fatal("expected ResourceExhausted once capacity is reached")
	}
}

func TestManagerInvalidateCache(t *testing.T) {
	dp := singleDomainProvider()
	mgr := NewManager(dp, "example.org", nil, 1252, time.Hour, 0)

	b1, err := mgr.GetBase(-17)
	if err != nil {
		t.Fatalf("GetBase: %v", err)
	}
	mgr.InvalidateCache()

	b2, err := mgr.GetBase(-17)
	if err != nil {
		t.Fatalf("GetBase after invalidate: %v", err)
	}
	if b1 == b2 {
		t.Error("expected a fresh base after InvalidateCache")
	}
}

func TestManagerResolveRemote(t *testing.T) {
	dp := dirprovider.NewMemProvider()
	dp.AddDomain(1, dirprovider.DomainInfo{ID: 17, Name: "a.example", Title: "A"})
	dp.AddDomain(2, dirprovider.DomainInfo{ID: 18, Name: "b.example", Title: "B"})
	dp.AddDomainUser(18, dirprovider.User{ID: 7, Username: "bob@b.example"})

	mgr := NewManager(dp, "example.org", nil, 1252, time.Hour, 0)
	if _, err := mgr.GetBase(-17); err != nil {
		t.Fatalf("GetBase(-17): %v", err)
	}
	if _, err := mgr.GetBase(-18); err != nil {
		t.Fatalf("GetBase(-18): %v", err)
	}

	homeBase, node, ok := mgr.ResolveRemote(MakeMinid(MinidAddress, 7))
	if !ok {
		t.Fatal("expected ResolveRemote to find user 7 in base -18")
	}
	if homeBase != -18 {
		t.Errorf("expected home base -18, got %d", homeBase)
	}
	if node.Minid != MakeMinid(MinidAddress, 7) {
		t.Errorf("unexpected resolved node: %+v", node)
	}
}
