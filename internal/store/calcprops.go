package store

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/emersion/go-message"

	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/configfile"
	"github.com/nexmda/groupcore/internal/propdb"
)

// Access bits returned in PR_ACCESS (spec §4.2.1).
const (
	tagAccessModify     uint32 = 0x01
	tagAccessRead       uint32 = 0x02
	tagAccessDelete     uint32 = 0x04
	tagAccessHierarchy  uint32 = 0x08
	tagAccessContents   uint32 = 0x10
	tagAccessFAIContents uint32 = 0x20
)

// CalculatedProperty computes one of the store's calculated properties
// (spec §4.2.1) without a property-DB round trip. ok is false for a
// proptag this function doesn't compute (callers fall through to the
// property DB for everything else).
func (s *Store) CalculatedProperty(tag uint32, caller Caller) (value interface{}, ok bool, err error) {
	switch tag {
	case PropTagMDBProvider:
		return s.mdbProvider(caller), true, nil

	case PropTagDisplayName:
		if s.Private {
			if u, found := s.dp.GetUser(s.Account); found {
				if name, ok := u.DisplayName(); ok && name != "" {
					return name, true, nil
				}
			}
			return s.Account, true, nil
		}
		return fmt.Sprintf("Public Folders - %s", s.Account), true, nil

	case PropTagAccess:
		v, err := s.access(caller)
		return v, err == nil, err

	case PropTagRights:
		v, err := s.rights(caller)
		return v, err == nil, err

	case PropTagObjectType:
		return uint32(objectTypeStore), true, nil

	case PropTagStoreEntryID:
		return common.EncodeFolderEntryID(s.MailboxGUID, 0), true, nil

	case PropTagUserEntryID:
		if !s.Private {
			return nil, false, nil
		}
		return common.EncodeABEntryID(s.Account), true, nil

	case PropTagFinderEntryID:
		return common.EncodeFolderEntryID(s.MailboxGUID, s.Folders.Finder), true, nil
	case PropTagIPMOutboxEntryID:
		return common.EncodeFolderEntryID(s.MailboxGUID, s.Folders.Outbox), true, nil
	case PropTagIPMSentmailEntryID:
		return common.EncodeFolderEntryID(s.MailboxGUID, s.Folders.SentMail), true, nil
	case PropTagIPMWastebasketID:
		return common.EncodeFolderEntryID(s.MailboxGUID, s.Folders.Wastebasket), true, nil
	case PropTagScheduleFolderID:
		return common.EncodeFolderEntryID(s.MailboxGUID, s.Folders.Schedule), true, nil

	case PropTagOOFState, PropTagECOutOfOfficeMsg, PropTagECOOFSubject,
		PropTagECOOFFrom, PropTagECOOFUntil, PropTagECAllowExternal,
		PropTagECExternalAud, PropTagECExternalReply, PropTagECExternalSubj:
		v, err := s.oofProperty(tag)
		return v, err == nil && v != nil, err

	case PropTagUserLanguage:
		locale, found := s.dp.GetUserLang(s.Account)
		if !found {
			return nil, false, nil
		}
		return locale + ".UTF-8", true, nil
	}
	return nil, false, nil
}

const objectTypeStore = 3 // MAPI_STORE, spec GLOSSARY

func (s *Store) mdbProvider(caller Caller) [16]byte {
	if !s.Private {
		return mdbProviderPublic
	}
	if s.CheckOwnerMode(caller) {
		return mdbProviderPrivate
	}
	return mdbProviderShare
}

// access computes PR_ACCESS (spec §4.2.1).
func (s *Store) access(caller Caller) (uint32, error) {
	full := tagAccessModify | tagAccessRead | tagAccessDelete |
		tagAccessHierarchy | tagAccessContents | tagAccessFAIContents

	if s.CheckOwnerMode(caller) {
		return full, nil
	}
	if !s.Private {
		return full, nil
	}

	perm, err := s.db.CheckMailboxPermission(s.Maildir, caller.Username)
	if err != nil {
		return 0, err
	}
	perm &^= frightsGromoxStoreOwner

	access := tagAccessRead
	if perm&frightsOwner != 0 {
		return tagAccessModify | tagAccessDelete | tagAccessHierarchy |
			tagAccessContents | tagAccessFAIContents, nil
	}
	if perm&frightsCreate != 0 {
		access |= tagAccessContents | tagAccessFAIContents
	}
	if perm&frightsCreateSubfolder != 0 {
		access |= tagAccessHierarchy
	}
	return access, nil
}

// rights computes PR_RIGHTS (spec §4.2.1), stripping the internal-only
// frightsGromox* bits before returning.
func (s *Store) rights(caller Caller) (uint32, error) {
	if s.CheckOwnerMode(caller) {
		return rightsAll | frightsContact, nil
	}
	if !s.Private {
		return rightsAll | frightsContact, nil
	}
	perm, err := s.db.CheckMailboxPermission(s.Maildir, caller.Username)
	if err != nil {
		return 0, err
	}
	return perm &^ (frightsGromoxSendAs | frightsGromoxStoreOwner), nil
}

// oofProperty reads one of the OOF-related calculated properties from
// <maildir>/config/autoreply.cfg and its reply-body MIME fragments (spec
// §4.2.1).
func (s *Store) oofProperty(tag uint32) (interface{}, error) {
	f, err := os.Open(s.autoReplyPath())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	a, err := configfile.ParseAutoReply(f)
	if err != nil {
		return nil, err
	}

	switch tag {
	case PropTagOOFState:
		return uint32(a.State), nil
	case PropTagECOOFFrom:
		return a.StartTime, nil
	case PropTagECOOFUntil:
		return a.EndTime, nil
	case PropTagECAllowExternal:
		return a.AllowExternalOOF, nil
	case PropTagECExternalAud:
		return a.ExternalAudience, nil
	case PropTagECOutOfOfficeMsg, PropTagECOOFSubject:
		return s.readReplyBody(internalReplyFile, tag == PropTagECOOFSubject)
	case PropTagECExternalReply, PropTagECExternalSubj:
		return s.readReplyBody(externalReplyFile, tag == PropTagECExternalSubj)
	}
	return nil, nil
}

const (
	internalReplyFile = "internal-reply"
	externalReplyFile = "external-reply"
)

// readReplyBody reads <maildir>/config/<name>, which is either a MIME
// fragment ("Content-Type: text/html; charset=\"utf-8\"" preamble, an
// optional Subject: header, CRLF CRLF and the body) or bare text without the
// preamble, which is returned whole as the body and has no subject (spec
// §4.2.1). wantSubj selects the fragment's Subject: header instead of the
// body.
func (s *Store) readReplyBody(name string, wantSubj bool) (interface{}, error) {
	raw, err := os.ReadFile(s.Maildir + "/config/" + name)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if !bytes.HasPrefix(bytes.TrimLeft(raw, "\r\n"), []byte("Content-Type:")) {
		if wantSubj {
			return nil, nil
		}
		line := strings.TrimRight(string(raw), "\r\n")
		return line, nil
	}
	ent, err := message.Read(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	if wantSubj {
		if subj := ent.Header.Get("Subject"); subj != "" {
			return subj, nil
		}
		return nil, nil
	}
	body, err := io.ReadAll(ent.Body)
	if err != nil {
		return nil, err
	}
	return string(body), nil
}

// WriteReplyBody writes <maildir>/config/<internal|external>-reply,
// preserving the "Content-Type: text/html; charset=\"utf-8\"" preamble when
// the caller asks for one (spec §4.2.1: "writing preserves the preamble
// when present").
func (s *Store) WriteReplyBody(external bool, body string, withPreamble bool) error {
	name := internalReplyFile
	if external {
		name = externalReplyFile
	}
	var out string
	if withPreamble {
		out = "Content-Type: text/html; charset=\"utf-8\"\r\n\r\n" + body
	} else {
		out = body
	}
	if err := os.MkdirAll(s.Maildir+"/config", 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Maildir+"/config/"+name, []byte(out), 0o600)
}

// SetOOFState persists OOF_STATE/START_TIME/END_TIME/ALLOW_EXTERNAL_OOF/
// EXTERNAL_AUDIENCE back to autoreply.cfg (spec §4.2.1).
func (s *Store) SetOOFState(a configfile.AutoReply) error {
	if err := os.MkdirAll(s.Maildir+"/config", 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.autoReplyPath(), []byte(a.Serialize()), 0o600)
}

// wellKnownFolderNames is the localization-table key for each of the 16
// well-known IPM folders, the IPM root included (spec §4.2.1 "Language" —
// writing PROP_TAG_ECUSERLANGUAGE invokes a localized folder-name
// rewrite).
var wellKnownFolderNames = []string{
	"IPM_SUBTREE", "Inbox", "Drafts", "Outbox", "Sent Items",
	"Deleted Items", "Contacts", "Calendar", "Journal", "Notes", "Tasks",
	"Junk Email", "Sync Issues", "Conflicts", "Local Failures",
	"Server Failures",
}

// RewriteFolderNames relocalizes the display name of every well-known IPM
// folder into the language implied by codepage, using this store's
// LangFunc (spec §4.2.1). folderID maps each wellKnownFolderNames entry (by
// index) to its folder id; a zero id is skipped.
func (s *Store) RewriteFolderNames(codepage uint32, folderID []uint64) error {
	if s.lang == nil {
		return nil
	}
	for i, key := range wellKnownFolderNames {
		if i >= len(folderID) || folderID[i] == 0 {
			continue
		}
		name, ok := s.lang(codepage, key)
		if !ok {
			continue
		}
		pv := propdb.PropVal{Tag: PropTagDisplayName, Value: name}
		if _, err := s.db.SetFolderProperties(s.Maildir, folderID[i], []propdb.PropVal{pv}); err != nil {
			return err
		}
	}
	return nil
}
