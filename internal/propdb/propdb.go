// Package propdb specifies the "Property DB client" external collaborator
// (spec §1, §6.2): the abstract exmdb RPC surface that the store and
// message facades forward mailbox property operations to. The exmdb wire
// protocol itself is out of scope (spec Non-goals); only the RPC contract
// the core needs is defined here.
package propdb

import "github.com/nexmda/groupcore/internal/common"

// PropVal is a single property value keyed by its 32-bit proptag.
type PropVal struct {
	Tag   uint32
	Value interface{}
}

// Problem is one entry of a PartialPropertyProblem batch result (spec §7):
// a property set/remove within a batch failed without aborting the rest.
type Problem struct {
	Index uint16
	Tag   uint32
	Code  uint32
}

// NamedPropID pairs a requested name with the id the DB assigned/resolved.
type NamedPropID struct {
	Name common.PropName
	ID   uint16
}

// LastGroupID is the sentinel meaning "the most recently defined
// change-group partition" (spec §4.2.4 get_last_property_groupinfo).
const LastGroupID uint32 = ^uint32(0)

// GroupInfo is the changed-property-group partition used by partial-change
// encoding on save (spec §4.2.4, §4.3.2 step 8).
type GroupInfo struct {
	GroupID uint32
	// TagToIndex maps a proptag to its partition index within the group;
	// a tag absent from this map is "ungrouped" and forces a full change.
	TagToIndex map[uint32]uint32
}

// Client is the set of exmdb RPCs consumed by store/message (spec §6.2).
// Every method surfaces RemoteFailure verbatim as a Go error; nothing here
// retries.
type Client interface {
	AllocateCN(maildir string) (uint64, error)

	GetInstanceProperty(instance uint32, tag uint32) (interface{}, bool, error)
	SetInstanceProperty(instance uint32, pv PropVal) error
	RemoveInstanceProperty(instance uint32, tag uint32) error
	GetInstanceProperties(instance uint32, tags []uint32) ([]PropVal, error)
	SetInstanceProperties(instance uint32, pvs []PropVal) ([]Problem, error)
	RemoveInstanceProperties(instance uint32, tags []uint32) ([]Problem, error)
	GetInstanceAllProptags(instance uint32) ([]uint32, error)

	LoadMessageInstance(maildir string, folderID, messageID uint64, writable bool) (instance uint32, err error)
	LoadEmbeddedInstance(parentInstance uint32, writable bool) (instance uint32, err error)
	ReloadMessageInstance(instance uint32) error
	UnloadInstance(instance uint32) error
	ClearMessageInstance(instance uint32) error
	WriteMessageInstance(instance uint32, pvs []PropVal, force bool) error
	ReadMessageInstance(instance uint32) ([]PropVal, error)
	FlushInstance(maildir string, instance uint32) error

	GetMessageInstanceRcpts(instance uint32) ([]map[uint32]interface{}, error)
	EmptyMessageInstanceRcpts(instance uint32) error
	UpdateMessageInstanceRcpts(instance uint32, rcpts []map[uint32]interface{}) error

	GetMessageInstanceAttachmentsNum(instance uint32) (uint16, error)
	DeleteMessageInstanceAttachment(instance uint32, attachmentID uint32) error

	CheckInstanceCycle(srcInstance, dstInstance uint32) (bool, error)
	GetEmbeddedCN(instance uint32) (uint64, bool, error)

	ReadMessage(maildir string, messageID uint64) ([]PropVal, error)
	WriteMessage(maildir string, folderID uint64, pvs []PropVal) (messageID uint64, err error)
	ClearSubmit(maildir string, messageID uint64) error
	MovecopyMessage(maildir string, messageID, dstFolderID uint64, move bool) error
	MovecopyMessages(maildir string, messageIDs []uint64, dstFolderID uint64, move bool) error
	DeleteMessage(maildir string, messageID uint64) error

	GetMessageGroupID(maildir string, messageID uint64) (uint32, bool, error)
	SetMessageGroupID(maildir string, messageID uint64, groupID uint32) error
	MarkModified(maildir string, messageID uint64) error
	SaveChangeIndices(maildir string, messageID uint64, cn uint64, indexed, removed []uint32) error
	RuleNewMessage(maildir string, messageID uint64) error

	GetMessageBrief(maildir string, messageID uint64) ([]PropVal, error)
	SetMessageProperties(maildir string, messageID uint64, pvs []PropVal) ([]Problem, error)
	SetMessageReadState(maildir string, messageID uint64, read bool) (newCN uint64, err error)

	GetNamedPropIDs(maildir string, names []common.PropName, create bool) ([]uint16, error)
	GetNamedPropNames(maildir string, ids []uint16) ([]common.PropName, error)

	// GetPropertyGroupInfo returns the named-property group partition
	// layout for groupID (or the most recent layout when groupID ==
	// LastGroupID), resolving any property names the layout names through
	// resolve so the caller's own propid cache stays authoritative (spec
	// §4.2.4).
	GetPropertyGroupInfo(maildir string, groupID uint32, resolve func(names []common.PropName) ([]uint16, error)) (GroupInfo, error)

	GetStoreProperties(maildir string, tags []uint32) ([]PropVal, error)
	GetStoreAllProptags(maildir string) ([]uint32, error)

	CheckMailboxPermission(maildir, username string) (uint32, error)
	CheckFolderPermission(maildir string, folderID uint64, username string) (uint32, error)

	LoadHierarchyTable(maildir string, folderID uint64) (tableID uint32, rows uint32, err error)
	LoadContentTable(maildir string, folderID uint64) (tableID uint32, rows uint32, err error)
	LoadPermissionTable(maildir string, folderID uint64) (tableID uint32, rows uint32, err error)
	QueryTable(maildir string, tableID uint32, start, count uint32) ([][]PropVal, error)
	UnloadTable(maildir string, tableID uint32) error

	GetMappingGUID(maildir string, replID uint16) (common.GUID, bool, error)
	GetMappingReplID(maildir string, guid common.GUID) (uint16, bool, error)

	UpdateFolderPermission(maildir string, folderID uint64, freeBusy bool, entries []PropVal) error
	CreateFolderByProperties(maildir string, parentID uint64, pvs []PropVal) (folderID uint64, err error)

	GetFolderAllProptags(maildir string, folderID uint64) ([]uint32, error)
	GetFolderProperties(maildir string, folderID uint64, tags []uint32) ([]PropVal, error)
	SetFolderProperties(maildir string, folderID uint64, pvs []PropVal) ([]Problem, error)
}
