package ical

import (
	"fmt"
	"strings"
)

// Import is the top-level decoded result of a VCALENDAR import: everything
// the message layer needs to populate PidLid* properties on a Message
// Object (spec §4.5, tying together §4.5.2-§4.5.5).
type Import struct {
	MessageClass    string
	CounterProposal bool
	BusyStatus      int
	GlobalObjectID  GlobalObjectID
	CleanGlobalID   GlobalObjectID
	Recurring       bool
	Pattern         RecurrencePattern
	Exceptions      []Exception
	TZID            string
	Timezone        TZStruct
}

// ImportCalendar parses a full iCalendar text blob and decodes its master
// VEVENT (plus any RECURRENCE-ID siblings as exceptions) into an Import
// (spec §4.5.3, testable scenario S6).
func ImportCalendar(text string) (Import, error) {
	root, err := ParseComponent(UnfoldLines(text))
	if err != nil {
		return Import{}, err
	}
	cals := root.ChildrenNamed("VCALENDAR")
	if len(cals) == 0 {
		return Import{}, fmt.Errorf("ical: no VCALENDAR component")
	}
	cal := cals[0]

	method := "PUBLISH"
	if m, ok := cal.Get("METHOD"); ok {
		method = m.Value
	}

	events := cal.ChildrenNamed("VEVENT")
	if len(events) == 0 {
		return Import{}, fmt.Errorf("ical: no VEVENT component")
	}

	var master *Component
	var siblings []*Component
	for _, ev := range events {
		if _, hasRecurID := ev.Get("RECURRENCE-ID"); hasRecurID {
			siblings = append(siblings, ev)
		} else if master == nil {
			master = ev
		} else {
			siblings = append(siblings, ev)
		}
	}
	if master == nil {
		master = events[0]
	}

	var result Import
	uid, _ := master.Get("UID")
	result.GlobalObjectID = UIDToGlobalObjectID(uid.Value)
	result.CleanGlobalID = CleanGlobalObjectID(result.GlobalObjectID)

	partstat := ""
	for _, att := range master.GetAll("ATTENDEE") {
		if p, ok := att.Params["PARTSTAT"]; ok {
			partstat = p
			break
		}
	}
	result.MessageClass, result.CounterProposal = MessageClassForMethod(method, partstat)

	if bs, ok := master.Get("BUSYSTATUS"); ok {
		if v, ok := BusyStatusFromLine(bs.Value); ok {
			result.BusyStatus = v
		}
	} else if t, ok := master.Get("TRANSP"); ok {
		if v, ok := BusyStatusFromTransp(t.Value); ok {
			result.BusyStatus = v
		}
	}

	var exdates, rdates []int64
	for _, ex := range master.GetAll("EXDATE") {
		exdates = append(exdates, parseDateTimeMinutes(ex.Value))
	}
	for _, ex := range master.GetAll("X-MICROSOFT-EXDATE") {
		exdates = append(exdates, parseDateTimeMinutes(ex.Value))
	}
	for _, rd := range master.GetAll("RDATE") {
		rdates = append(rdates, parseDateTimeMinutes(rd.Value))
	}

	if rr, ok := master.Get("RRULE"); ok {
		rule, err := ParseRRule(rr.Value)
		if err != nil {
			return Import{}, err
		}
		hijri := false
		if cs, ok := master.Get("X-MICROSOFT-CALSCALE"); ok && strings.EqualFold(cs.Value, "Hijri") {
			hijri = true
		}
		pattern, err := ImportRRule(rule, hijri)
		if err != nil {
			return Import{}, err
		}
		result.Recurring = true
		result.Pattern = pattern

		exceptions := make([]Exception, 0, len(siblings))
		masterInfo := exceptionInfoOf(master)
		for _, sib := range siblings {
			recurID, _ := sib.Get("RECURRENCE-ID")
			info := exceptionInfoOf(sib)
			info.OriginalStartDate = parseDateTimeMinutes(recurID.Value)
			info.OverrideFlags = ComputeOverrideFlags(masterInfo, info)
			exceptions = append(exceptions, Exception{
				OriginalStart: info.OriginalStartDate,
				Info:          info,
				Extended:      ExtendedException{Subject: info.Subject, Location: info.Location},
				Hidden:        true,
			})
		}
		MergeExceptions(&result.Pattern, exceptions, exdates, rdates)
		result.Exceptions = exceptions
	}

	if tzs := cal.ChildrenNamed("VTIMEZONE"); len(tzs) > 0 {
		if tzid, ok := tzs[0].Get("TZID"); ok {
			result.TZID = tzid.Value
		}
		tz, err := ImportTimezone(tzs[0])
		if err == nil {
			result.Timezone = tz
		}
	}

	return result, nil
}

func exceptionInfoOf(ev *Component) ExceptionInfo {
	var info ExceptionInfo
	if s, ok := ev.Get("SUMMARY"); ok {
		info.Subject = s.Value
	}
	if l, ok := ev.Get("LOCATION"); ok {
		info.Location = l.Value
	}
	if dtstart, ok := ev.Get("DTSTART"); ok {
		info.StartDateTime = parseDateTimeMinutes(dtstart.Value)
	}
	if dtend, ok := ev.Get("DTEND"); ok {
		info.EndDateTime = parseDateTimeMinutes(dtend.Value)
	}
	if bs, ok := ev.Get("BUSYSTATUS"); ok {
		if v, ok := BusyStatusFromLine(bs.Value); ok {
			info.BusyStatus = v
		}
	}
	return info
}

// parseDateTimeMinutes converts a basic-format iCalendar date(-time) value
// into an offset in minutes since 1601-01-01, the unit every
// recurrence/exception timestamp in this package is expressed in. It is a
// simplified Gregorian calendar walk, sufficient for the date ranges this
// system operates over; it does not model leap seconds.
func parseDateTimeMinutes(v string) int64 {
	v = strings.TrimSuffix(v, "Z")
	if len(v) < 8 {
		return 0
	}
	year := atoiSafe(v[0:4])
	month := atoiSafe(v[4:6])
	day := atoiSafe(v[6:8])
	hour, minute := 0, 0
	if len(v) >= 15 && v[8] == 'T' {
		hour = atoiSafe(v[9:11])
		minute = atoiSafe(v[11:13])
	}
	days := daysSinceEpoch(1601, 1, 1, year, month, day)
	return days*24*60 + int64(hour)*60 + int64(minute)
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return n
		}
		n = n*10 + int(c-'0')
	}
	return n
}

func isLeap(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

var monthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

func daysSinceEpoch(epochY, epochM, epochD, y, m, d int) int64 {
	var total int64
	for yy := epochY; yy < y; yy++ {
		total += 365
		if isLeap(yy) {
			total++
		}
	}
	for mm := 1; mm < m; mm++ {
		total += int64(monthDays[mm-1])
		if mm == 2 && isLeap(y) {
			total++
		}
	}
	total += int64(d - epochD)
	return total
}
