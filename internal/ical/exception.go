package ical

import "sort"

// OverrideFlag bits mirror EXCEPTIONINFO.overrideflags (spec §4.5.3).
const (
	OverrideSubject uint16 = 1 << iota
	OverrideLocation
	OverrideBusyStatus
	OverrideReminder
	OverrideReminderDelta
	OverrideMeetingType
	OverrideSubtype
)

// ExceptionInfo mirrors EXCEPTIONINFO: the per-instance override record
// (spec §4.5.3).
type ExceptionInfo struct {
	OriginalStartDate int64 // minutes since 1601-01-01
	StartDateTime     int64
	EndDateTime       int64
	OverrideFlags     uint16

	Subject       string
	Location      string
	BusyStatus    int
	Reminder      bool
	ReminderDelta uint32
	MeetingType   uint32
	SubType       bool
}

// ExtendedException carries the wide-string twin fields Outlook stores
// alongside EXCEPTIONINFO for subject/location when they contain non-ASCII
// text; this package keeps them identical to the narrow fields since no
// codepage distinction is modeled at this layer.
type ExtendedException struct {
	Subject  string
	Location string
}

// Exception is one embedded, modified-instance sibling VEVENT (spec
// §4.5.3): ATTACH_EMBEDDED_MSG attachment properties plus its
// EXCEPTIONINFO/EXTENDEDEXCEPTION pair.
type Exception struct {
	OriginalStart int64
	Info          ExceptionInfo
	Extended      ExtendedException
	Hidden        bool
}

// MergeExceptions implements spec §4.5.3's fan-out: each sibling's
// original-start is accumulated into deletedinstancedates, its new start
// into modifiedinstancedates, both lists are de-duplicated against any
// explicit EXDATE/RDATE, sorted ascending, and exceptions themselves are
// sorted by start date.
func MergeExceptions(pattern *RecurrencePattern, exceptions []Exception, exdates, rdates []int64) {
	deleted := append([]int64{}, exdates...)
	modified := append([]int64{}, rdates...)
	for _, ex := range exceptions {
		deleted = append(deleted, ex.OriginalStart)
		modified = append(modified, ex.Info.StartDateTime)
	}
	pattern.DeletedInstanceDates = sortedUnique(deleted)
	pattern.ModifiedInstanceDates = sortedUnique(modified)

	sort.SliceStable(exceptions, func(i, j int) bool {
		return exceptions[i].Info.StartDateTime < exceptions[j].Info.StartDateTime
	})
}

func sortedUnique(in []int64) []int64 {
	if len(in) == 0 {
		return nil
	}
	sorted := append([]int64{}, in...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}

// ComputeOverrideFlags compares a sibling's fields to the master event and
// sets the matching OverrideFlag bits (spec §4.5.3 "EXCEPTIONINFO.
// overrideflags reflecting changed fields").
func ComputeOverrideFlags(master, sibling ExceptionInfo) uint16 {
	var flags uint16
	if sibling.Subject != "" && sibling.Subject != master.Subject {
		flags |= OverrideSubject
	}
	if sibling.Location != "" && sibling.Location != master.Location {
		flags |= OverrideLocation
	}
	if sibling.BusyStatus != master.BusyStatus {
		flags |= OverrideBusyStatus
	}
	if sibling.Reminder != master.Reminder {
		flags |= OverrideReminder
	}
	if sibling.ReminderDelta != master.ReminderDelta {
		flags |= OverrideReminderDelta
	}
	if sibling.MeetingType != master.MeetingType {
		flags |= OverrideMeetingType
	}
	if sibling.SubType != master.SubType {
		flags |= OverrideSubtype
	}
	return flags
}
