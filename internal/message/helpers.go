package message

import (
	"errors"
	"time"
)

// errNotNew is returned by operations that are only valid on a brand-new
// message (spec §4.3.1 InitMessage).
var errNotNew = errors.New("message: operation only valid on a new message")

// errNotWritable guards property mutation on a message opened without
// write access (spec §3.3 "writable flag").
var errNotWritable = errors.New("message: not opened for write access")

// errBadPCL/errMissingPCL guard the predecessor-change-list bookkeeping on
// save (spec §4.3.2 step 4): a non-new message must already carry one, and
// whatever it carries must decode.
var (
	errBadPCL     = errors.New("message: PR_PREDECESSOR_CHANGE_LIST does not decode")
	errMissingPCL = errors.New("message: non-new message missing PR_PREDECESSOR_CHANGE_LIST")
)

// nowFunc is a seam for deterministic tests. Times are represented as Unix
// nanoseconds rather than the original's 64-bit NTTIME, since the exact wire
// timestamp encoding is out of scope (spec Non-goals: no MAPI wire packet
// layouts).
var nowFunc = func() int64 { return time.Now().UnixNano() }
