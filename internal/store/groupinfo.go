package store

import (
	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/propdb"
)

// maxCachedGroupInfos bounds the "previously requested groupinfos" list
// (spec §3.2). The spec doesn't specify a bound; an unbounded cache is a
// latent leak across a long-lived mailbox session, so this is a fixed-size
// LRU (see DESIGN.md Open Questions).
const maxCachedGroupInfos = 32

// GetLastPropertyGroupInfo lazily constructs and caches the most recent
// groupinfo, used for partial-change encoding on save (spec §4.2.4).
func (s *Store) GetLastPropertyGroupInfo() (propdb.GroupInfo, error) {
	s.groupMu.Lock()
	defer s.groupMu.Unlock()
	if s.lastGroup != nil {
		return *s.lastGroup, nil
	}
	gi, err := s.db.GetPropertyGroupInfo(s.Maildir, propdb.LastGroupID, s.resolveGroupNames)
	if err != nil {
		return propdb.GroupInfo{}, err
	}
	s.lastGroup = &gi
	return gi, nil
}

// GetPropertyGroupInfo returns the cached groupinfo matching groupID,
// building and caching one if absent (spec §4.2.4). groupID ==
// propdb.LastGroupID is forwarded to GetLastPropertyGroupInfo.
func (s *Store) GetPropertyGroupInfo(groupID uint32) (propdb.GroupInfo, error) {
	if groupID == propdb.LastGroupID {
		return s.GetLastPropertyGroupInfo()
	}

	s.groupMu.Lock()
	for i, gi := range s.groups {
		if gi.GroupID == groupID {
			s.groups = append(append(s.groups[:i:i], s.groups[i+1:]...), gi)
			s.groupMu.Unlock()
			return *gi, nil
		}
	}
	s.groupMu.Unlock()

	gi, err := s.db.GetPropertyGroupInfo(s.Maildir, groupID, s.resolveGroupNames)
	if err != nil {
		return propdb.GroupInfo{}, err
	}

	s.groupMu.Lock()
	s.groups = append(s.groups, &gi)
	if len(s.groups) > maxCachedGroupInfos {
		s.groups = s.groups[len(s.groups)-maxCachedGroupInfos:]
	}
	s.groupMu.Unlock()
	return gi, nil
}

// resolveGroupNames adapts this store's own named-propid resolution into
// the groupinfo builder, the same adapter relationship the original wires
// get_last_property_groupinfo through (spec §4.2.4: "adapt the caller's
// get_named_propid").
func (s *Store) resolveGroupNames(names []common.PropName) ([]uint16, error) {
	return s.GetNamedPropIDs(true, names)
}
