package abtree

import (
	"sync"
	"time"

	"github.com/nexmda/groupcore/framework/exterrors"
	"github.com/nexmda/groupcore/framework/log"
	"github.com/nexmda/groupcore/internal/dirprovider"
)

// maxGetBaseRetries and getBaseRetryInterval bound how long GetBase will
// wait for a concurrent Build to finish before giving up (spec §4.1.3: "a
// caller that requests a still-constructing base retries, capped, rather
// than blocking forever").
const (
	maxGetBaseRetries    = 60
	getBaseRetryInterval = time.Second
)

// Manager owns every loaded Base, keyed by base id, and a background
// goroutine that rebuilds idle bases on a fixed interval (spec §4.1.3).
type Manager struct {
	dp       dirprovider.Provider
	org      string
	lang     LangFunc
	codepage uint32

	cacheInterval time.Duration
	capacity      int

	// Log receives scanner/build events (base construction and background
	// refresh failures, spec §4.1.3). The zero value falls back to
	// log.DefaultLogger.
	Log log.Logger

	mu    sync.Mutex
	bases map[int]*Base

	stop chan struct{}
	done chan struct{}
}

// NewManager constructs a Manager. capacity bounds the number of
// simultaneously loaded bases (spec §4.1.3's "bounded cache"); exceeding it
// on a fresh load is a ResourceExhaustion error.
func NewManager(dp dirprovider.Provider, org string, lang LangFunc, codepage uint32, cacheInterval time.Duration, capacity int) *Manager {
	return &Manager{
		dp:            dp,
		org:           org,
		lang:          lang,
		codepage:      codepage,
		cacheInterval: cacheInterval,
		capacity:      capacity,
		bases:         make(map[int]*Base),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// GetBase returns the base for id, building it on a cold miss. If another
// goroutine is already constructing it, GetBase polls up to
// maxGetBaseRetries times at getBaseRetryInterval before giving up (spec
// §4.1.3).
func (m *Manager) GetBase(id int) (*Base, error) {
	for attempt := 0; attempt < maxGetBaseRetries; attempt++ {
		m.mu.Lock()
		base, ok := m.bases[id]
		if !ok {
			if m.capacity > 0 && len(m.bases) >= m.capacity {
				m.mu.Unlock()
				return nil, exterrors.ErrResourceExhausted
			}
			base = &Base{ID: id, Status: StatusConstructing}
			m.bases[id] = base
			m.mu.Unlock()
			return m.construct(id, base)
		}
		m.mu.Unlock()

		switch base.Status {
		case StatusLiving:
			base.Ref()
			return base, nil
		case StatusDestructing:
			return nil, exterrors.ErrCallFailed
		default: // constructing
			time.Sleep(getBaseRetryInterval)
		}
	}
	return nil, exterrors.ErrResourceExhausted
}

func (m *Manager) construct(id int, placeholder *Base) (*Base, error) {
	built, err := Build(m.dp, id, m.lang, m.codepage)
	if err != nil {
		m.Log.Error("failed to build address book base", err, "base_id", id)
		m.mu.Lock()
		delete(m.bases, id)
		m.mu.Unlock()
		return nil, err
	}
	built.loadTime = nowFunc()
	built.Status = StatusLiving
	built.reference = 1

	m.mu.Lock()
	m.bases[id] = built
	m.mu.Unlock()
	return built, nil
}

// ResolveRemote looks another base up by id to materialize a cross-base
// stub, without triggering a cold build (spec §4.1.2 dn_to_node).
func (m *Manager) ResolveRemote(minid uint32) (homeBase int, node *Node, ok bool) {
	m.mu.Lock()
	snapshot := make([]*Base, 0, len(m.bases))
	for _, b := range m.bases {
		snapshot = append(snapshot, b)
	}
	m.mu.Unlock()

	for _, b := range snapshot {
		if b.Status != StatusLiving {
			continue
		}
		if n := b.MinidToNode(minid); n != nil {
			return b.ID, n, true
		}
	}
	return 0, nil, false
}

// InvalidateCache drops every loaded base unconditionally, forcing the next
// GetBase to rebuild from scratch (spec §4.1.3 invalidate_cache).
func (m *Manager) InvalidateCache() {
	m.mu.Lock()
	m.bases = make(map[int]*Base)
	m.mu.Unlock()
}

// Scan starts the background idle-refresh goroutine, rebuilding any base
// whose reference count has been zero for longer than cacheInterval (spec
// §4.1.3). Call Stop to end it.
func (m *Manager) Scan() {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.cacheInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.refreshIdle()
			}
		}
	}()
}

func (m *Manager) refreshIdle() {
	m.mu.Lock()
	var ids []int
	for id, b := range m.bases {
		if b.Status == StatusLiving && b.idle(m.cacheInterval) {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()

	for _, id := range ids {
		rebuilt, err := Build(m.dp, id, m.lang, m.codepage)
		if err != nil {
			m.Log.Error("failed to refresh idle address book base", err, "base_id", id)
			continue
		}
		rebuilt.loadTime = nowFunc()
		rebuilt.Status = StatusLiving

		m.mu.Lock()
		if old, ok := m.bases[id]; ok && old.refCount() == 0 {
			m.bases[id] = rebuilt
		}
		m.mu.Unlock()
	}
}

// Stop ends the background refresh goroutine and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}

// nowFunc is a seam so tests can control loadTime without relying on
// wall-clock time.
var nowFunc = time.Now
