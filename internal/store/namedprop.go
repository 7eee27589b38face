package store

import "github.com/nexmda/groupcore/internal/common"

// GetNamedPropIDs resolves names to propids (spec §4.2.2). Names under the
// MAPI core GUID resolve without touching the hash or the DB at all: an
// MNID_ID name returns its lid directly, anything else resolves to 0.
// Everything else probes the name->id hash, batches the misses into a
// single DB round trip, and caches both directions before returning.
func (s *Store) GetNamedPropIDs(create bool, names []common.PropName) ([]uint16, error) {
	out := make([]uint16, len(names))
	if len(names) == 0 {
		return out, nil
	}

	var missIdx []int
	var missNames []common.PropName

	s.mu.Lock()
	for i, n := range names {
		if n.IsMAPICore() {
			if n.Kind == common.KindID {
				out[i] = uint16(n.LID)
			}
			continue
		}
		if id, ok := s.nameToID[n.HashKey()]; ok {
			out[i] = id
			continue
		}
		missIdx = append(missIdx, i)
		missNames = append(missNames, n)
	}
	s.mu.Unlock()

	if len(missNames) == 0 {
		return out, nil
	}

	resolved, err := s.db.GetNamedPropIDs(s.Maildir, missNames, create)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for j, idx := range missIdx {
		id := resolved[j]
		out[idx] = id
		if id != 0 {
			s.cachePropNameLocked(id, missNames[j])
		}
	}
	s.mu.Unlock()
	return out, nil
}

// GetNamedPropNames is the dual of GetNamedPropIDs: resolve propids back to
// their (GUID, kind, value) names, caching the same way (spec §4.2.2).
func (s *Store) GetNamedPropNames(ids []uint16) ([]common.PropName, error) {
	out := make([]common.PropName, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var missIdx []int
	var missIDs []uint16

	s.mu.Lock()
	for i, id := range ids {
		if id < 0x8000 {
			out[i] = common.PropName{GUID: common.MAPICoreGUID, Kind: common.KindID, LID: uint32(id)}
			continue
		}
		if n, ok := s.idToName[id]; ok {
			out[i] = n
			continue
		}
		missIdx = append(missIdx, i)
		missIDs = append(missIDs, id)
	}
	s.mu.Unlock()

	if len(missIDs) == 0 {
		return out, nil
	}

	resolved, err := s.db.GetNamedPropNames(s.Maildir, missIDs)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	for j, idx := range missIdx {
		out[idx] = resolved[j]
		if resolved[j].Kind == common.KindID || resolved[j].Kind == common.KindString {
			s.cachePropNameLocked(missIDs[j], resolved[j])
		}
	}
	s.mu.Unlock()
	return out, nil
}

// cachePropNameLocked records both directions of a resolved name<->id pair.
// Callers must hold s.mu. A propid < 0x8000 is never cached (spec §3.2
// invariant: "the reserved range is directly resolvable").
func (s *Store) cachePropNameLocked(id uint16, name common.PropName) {
	if id < 0x8000 {
		return
	}
	s.nameToID[name.HashKey()] = id
	s.idToName[id] = name
}
