// Package ical implements bidirectional translation between iCalendar
// (RFC 5545) and the Outlook recurrence/timezone/appointment property set
// (spec §4.5): VTIMEZONE↔TZSTRUCT, RRULE↔APPOINTMENTRECURRENCEPATTERN, and
// exception/override fan-out. No iCalendar or RRULE library exists anywhere
// in the example pack, so the line scanner and recurrence math below are
// hand-rolled, grounded on original_source/lib/mapi/oxcical.cpp.
package ical

// PatternType mirrors APPOINTMENTRECURRENCEPATTERN.recurrencepattern.patterntype.
type PatternType uint16

const (
	PatternDay PatternType = iota
	PatternWeek
	PatternMonth
	PatternMonthNth
	PatternMonthEnd
	_
	PatternHjMonth
	PatternHjMonthNth
)

// EndType mirrors recurrencepattern.endtype.
type EndType uint32

const (
	EndAfterDate EndType = 0x2021
	EndAfterN    EndType = 0x2022
	EndNever     EndType = 0x2023
)

// Weekday bit positions for the weekrecurrence bitmask (Sunday = bit 0).
const (
	WDSunday = 1 << iota
	WDMonday
	WDTuesday
	WDWednesday
	WDThursday
	WDFriday
	WDSaturday
)

var weekdayBits = map[string]uint32{
	"SU": WDSunday, "MO": WDMonday, "TU": WDTuesday, "WE": WDWednesday,
	"TH": WDThursday, "FR": WDFriday, "SA": WDSaturday,
}

var weekdayNames = []string{"SU", "MO", "TU", "WE", "TH", "FR", "SA"}

// RecurrencePattern is the Go rendering of APPOINTMENTRECURRENCEPATTERN's
// recurrencepattern sub-structure (spec §4.5.2).
type RecurrencePattern struct {
	PatternType     PatternType
	CalendarType    uint32 // 0 = Gregorian (MS calendar type ids are out of scope beyond Hijri tagging)
	Period          uint32 // minutes for DAY, months for MONTH/YEAR variants
	WeekRecurrence  uint32 // 7-bit BYDAY mask for WEEK; the single weekday bit for MONTHNTH/HJMONTHNTH
	RecurrenceNum   uint32 // 1..4 or 5 ("last"), MONTHNTH/HJMONTHNTH only
	DayOfMonth      uint32 // MONTH/HJMONTH only
	FirstDOW        uint32
	EndType         EndType
	OccurrenceCount uint32

	DeletedInstanceDates  []int64 // minutes since 1601-01-01, ascending
	ModifiedInstanceDates []int64
}

// AppointmentRecurrencePattern bundles the recurrence pattern with the
// exception list that rides alongside it on export (spec §4.5.3).
type AppointmentRecurrencePattern struct {
	Pattern    RecurrencePattern
	Exceptions []Exception
}

// SystemTimeRule is a TZSTRUCT transition rule: either absolute (Year=1,
// fixed Month/Day) or floating (Year=0, Day in 1..5 meaning nth/"last"
// weekday of Month) (spec §4.5.1).
type SystemTimeRule struct {
	Year      uint16
	Month     uint16
	DayOfWeek uint16 // 0=Sunday..6=Saturday, floating rules only
	Day       uint16 // nth occurrence 1..4, or 5 meaning "last"
	Hour      uint16
	Minute    uint16
	Second    uint16
}

func (r SystemTimeRule) isFloating() bool { return r.Year == 0 }

// TZStruct is Outlook's transition-pair record (spec §4.5.1).
type TZStruct struct {
	Bias         int32 // minutes, UTC = local + Bias
	StandardBias int32
	DaylightBias int32
	StandardDate SystemTimeRule
	DaylightDate SystemTimeRule
}

// HasDST reports whether both rules are populated.
func (t TZStruct) HasDST() bool {
	return t.DaylightDate != (SystemTimeRule{})
}
