package abtree

import (
	"sort"
	"sync"
	"time"

	"github.com/nexmda/groupcore/internal/common"
)

// Status is the lifecycle state of a Base (spec §3.1).
type Status int

const (
	StatusConstructing Status = iota
	StatusLiving
	StatusDestructing
)

// remoteKey dedups cross-base stubs by (home base, minid), an Open Question
// resolved explicitly in DESIGN.md (the spec only requires O(1) lookup for
// locally owned nodes).
type remoteKey struct {
	HomeBase int
	Minid    uint32
}

// Base is a living snapshot for one base id: a positive id is an
// organization (union of its domains), a negative id is a single domain
// (-domain_id) (spec §3.1).
type Base struct {
	ID     int
	GUID   common.GUID
	Status Status

	// guarded by mu
	mu        sync.RWMutex
	domains   []*Node // one DOMAIN root per domain in this base
	gal       []*Node // flat, sorted GAL list of every leaf node
	minidIdx  map[uint32]*Node
	loadTime  time.Time
	reference int

	// remote list has its own lock per spec §4.1.3 ("a separate mutex
	// guards each base's remote list").
	remoteMu  sync.RWMutex
	remote    map[remoteKey]*Node
	remoteByM map[uint32]*Node
}

func newBase(id int) *Base {
	guid := common.NewGUID().WithLast4(uint32(id))
	return &Base{
		ID:        id,
		GUID:      guid,
		Status:    StatusConstructing,
		minidIdx:  make(map[uint32]*Node),
		remote:    make(map[remoteKey]*Node),
		remoteByM: make(map[uint32]*Node),
	}
}

// Ref increments the base's reference count (spec §4.1.3).
func (b *Base) Ref() {
	b.mu.Lock()
	b.reference++
	b.mu.Unlock()
}

// Unref decrements the reference count; a base must not be unloaded while
// it is non-zero (spec §3.1 invariant).
func (b *Base) Unref() {
	b.mu.Lock()
	b.reference--
	b.mu.Unlock()
}

func (b *Base) refCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reference
}

func (b *Base) idle(interval time.Duration) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.reference == 0 && !b.loadTime.IsZero() && time.Since(b.loadTime) > interval
}

// MinidToNode probes the minid hash first, then the remote list (spec
// §4.1.2 minid_to_node).
func (b *Base) MinidToNode(minid uint32) *Node {
	b.mu.RLock()
	n, ok := b.minidIdx[minid]
	b.mu.RUnlock()
	if ok {
		return n
	}
	b.remoteMu.RLock()
	defer b.remoteMu.RUnlock()
	return b.remoteByM[minid]
}

// GAL returns the flat, display-name-sorted list of every leaf node (spec
// §3.1, §4.1.1 step 5).
func (b *Base) GAL() []*Node {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]*Node, len(b.gal))
	copy(out, b.gal)
	return out
}

// addRemoteStub materializes a REMOTE stub for a node found in another
// base, deduping by (homeBase, minid) (spec §4.1.2 dn_to_node, SUPPLEMENTED
// FEATURES in SPEC_FULL.md).
func (b *Base) addRemoteStub(homeBase int, source *Node) *Node {
	key := remoteKey{HomeBase: homeBase, Minid: source.Minid}
	b.remoteMu.Lock()
	defer b.remoteMu.Unlock()
	if existing, ok := b.remote[key]; ok {
		return existing
	}
	stub := &Node{
		Type:           NodeRemote,
		ID:             -homeBase,
		Minid:          source.Minid,
		RemoteHomeBase: homeBase,
		Domain:         source.Domain,
		Group:          source.Group,
		Class:          source.Class,
		User:           source.User,
	}
	b.remote[key] = stub
	b.remoteByM[source.Minid] = stub
	return stub
}

// sortGAL sorts the GAL list by case-folded cp1252 display name (spec
// §4.1.1 step 5, §8 property 2).
func sortGAL(nodes []*Node, getLang func(uint32, string) (string, bool), codepage uint32) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return common.CompareDisplayName(
			nodes[i].DisplayName(getLang, codepage),
			nodes[j].DisplayName(getLang, codepage),
		) < 0
	})
}
