// Package store implements the Store Object facade (spec §3.2, §4.2): a
// single mailbox's calculated properties, named-property id resolution,
// ownership determination, and property-groupinfo caching, grounded on
// original_source/exch/zcore/store_object.cpp.
package store

import (
	"sync"
	"time"

	"github.com/nexmda/groupcore/framework/log"
	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/dirprovider"
	"github.com/nexmda/groupcore/internal/propdb"
)

// LangFunc resolves a localization key to a display string for a given
// codepage (spec §4.2.1 folder-name rewrite), the same contract
// abtree.LangFunc uses for GAL display names.
type LangFunc func(codepage uint32, key string) (string, bool)

// Caller identifies whoever is asking the store for a property or
// performing an operation; check_owner_mode and the frights*-derived
// PR_ACCESS/PR_RIGHTS calculations both key off it (spec §4.2.1, §4.2.3).
type Caller struct {
	UserID   int
	Username string
}

// ownerCacheTTL is the "extra owner" cache lifetime (spec §4.2.3: "cached
// with a 60-second TTL").
const ownerCacheTTL = 60 * time.Second

// nowFunc is a seam for deterministic tests.
var nowFunc = time.Now

// Store is one mailbox's Store Object (spec §3.2).
type Store struct {
	Private     bool
	AccountID   int
	Account     string // UTF-8 account name
	Maildir     string
	MailboxGUID common.GUID
	Folders     WellKnownFolderIDs

	// Log receives structured events for this mailbox (e.g. a failed
	// permission lookup during ownership determination, spec §4.2.3). The
	// zero value falls back to log.DefaultLogger, so callers that don't
	// care about store-scoped logging can leave it unset.
	Log log.Logger

	dp   dirprovider.Provider
	db   propdb.Client
	lang LangFunc

	mu         sync.Mutex
	nameToID   map[string]uint16
	idToName   map[uint16]common.PropName
	ownerCache map[int]time.Time

	groupMu   sync.Mutex
	lastGroup *propdb.GroupInfo
	groups    []*propdb.GroupInfo // bounded LRU, most-recently-used last
}

// New constructs a Store for a single mailbox. mailboxGUID is whatever the
// backing directory/property DB reports for this account (spec §3.2
// invariant: "equals either user_guid(account_id) for private or
// domain_guid(account_id) for public" — computing that GUID itself is the
// directory provider's responsibility, not the store's).
func New(private bool, accountID int, account, maildir string, mailboxGUID common.GUID, folders WellKnownFolderIDs, dp dirprovider.Provider, db propdb.Client, lang LangFunc) *Store {
	return &Store{
		Private:     private,
		AccountID:   accountID,
		Account:     account,
		Maildir:     maildir,
		MailboxGUID: mailboxGUID,
		Folders:     folders,
		dp:          dp,
		db:          db,
		lang:        lang,
		nameToID:    make(map[string]uint16),
		idToName:    make(map[uint16]common.PropName),
		ownerCache:  make(map[int]time.Time),
	}
}

// autoReplyPath is where OOF-related calculated properties (spec §4.2.1)
// are read from and written to.
func (s *Store) autoReplyPath() string {
	return s.Maildir + "/config/autoreply.cfg"
}
