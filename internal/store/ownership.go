package store

// frightsGromoxStoreOwner is the internal-only permission bit the directory
// grants to whoever should be treated as this mailbox's owner without
// matching its account id exactly — e.g. an administrator acting on behalf
// of a user (spec §4.2.3). It and frightsGromoxSendAs are stripped from any
// PR_RIGHTS/PR_ACCESS value returned to a caller (spec §4.2.1).
const (
	frightsGromoxStoreOwner = 1 << 24
	frightsGromoxSendAs     = 1 << 25
)

// Folder-level rights bits (well-known MAPI frights* values), used to
// derive PR_ACCESS for non-owner callers (spec §4.2.1).
const (
	frightsOwner          = 0x00000080
	frightsCreate         = 0x00000002
	frightsCreateSubfolder = 0x00000020
	rightsAll             = 0x000000FF
	frightsContact        = 0x00000100
)

// CheckOwnerMode reports whether caller should be treated as this private
// store's owner (spec §4.2.3). Public stores are never "owned". A caller
// whose user id matches the account directly is always the owner; anyone
// else is cached for ownerCacheTTL after a successful permission check
// against the property DB so repeated calls in a short window don't each
// cost a round trip.
func (s *Store) CheckOwnerMode(caller Caller) bool {
	if !s.Private {
		return false
	}
	if caller.UserID == s.AccountID {
		return true
	}

	s.mu.Lock()
	if exp, ok := s.ownerCache[caller.UserID]; ok && nowFunc().Sub(exp) < ownerCacheTTL {
		s.mu.Unlock()
		return true
	}
	s.mu.Unlock()

	perm, err := s.db.CheckMailboxPermission(s.Maildir, caller.Username)
	if err != nil {
		s.Log.Error("failed to check mailbox permission for owner mode", err, "user", caller.Username)
		return false
	}
	if perm&frightsGromoxStoreOwner == 0 {
		return false
	}

	s.mu.Lock()
	s.ownerCache[caller.UserID] = nowFunc()
	s.mu.Unlock()
	return true
}
