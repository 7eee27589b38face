package exterrors

import "errors"

// Sentinel errors for the taxonomy kinds of spec §7 that are not naturally
// represented by a nil return or a typed SMTPError.
var (
	// ErrPermissionDenied is returned when a folder/mailbox permission check
	// fails (§4.2.3, §4.3.3).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvariantViolation marks malformed input that leaves state
	// untouched: a corrupt EntryID, an unparsable X.500 DN, an RRULE using
	// an unsupported clause.
	ErrInvariantViolation = errors.New("invariant violation: malformed input")

	// ErrResourceExhausted marks allocator/cache-capacity failures: the AB
	// base map at capacity, named-prop hash growth failure, throw-stack
	// overflow (§4.4.3).
	ErrResourceExhausted = errors.New("resource exhausted")

	// ErrCallFailed is the generic RemoteFailure surfaced to callers as
	// GXERR_CALL_FAILED in the original design when a property-DB RPC
	// fails without a more specific classification.
	ErrCallFailed = errors.New("remote call failed")

	// ErrLoopDetected marks a throw_context attempt that would re-enter a
	// hook already on the thread's throw stack (§4.4.3).
	ErrLoopDetected = errors.New("hook throw would create an infinite loop")
)
