package ical

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/emersion/go-message"
)

// Export is the inverse of Import (spec §4.5): everything the message layer
// supplies to render a Message Object back out as a VCALENDAR for delivery
// (SPEC_FULL.md "internal/ical export").
type Export struct {
	MessageClass    string
	CounterProposal bool
	Subject         string
	Location        string
	StartDateTime   int64 // minutes since 1601-01-01
	EndDateTime     int64
	BusyStatus      int
	GlobalObjectID  GlobalObjectID
	Recurring       bool
	Pattern         RecurrencePattern
	Exceptions      []Exception
	TZID            string
	Timezone        TZStruct
	Organizer       string // e-mail address, empty if none
	Attendees       []ExportAttendee
}

// ExportAttendee is one ATTENDEE line to emit.
type ExportAttendee struct {
	Address  string
	PartStat string // ACCEPTED/TENTATIVE/DECLINED/NEEDS-ACTION; empty defers to the METHOD's implied status
}

// ExportCalendar assembles the VCALENDAR component for an Export, the
// inverse of ImportCalendar (spec §4.5).
func ExportCalendar(e Export) *Component {
	method, impliedPartstat := MethodForMessageClass(e.MessageClass, e.CounterProposal)

	cal := &Component{Name: "VCALENDAR"}
	cal.Properties = append(cal.Properties,
		ContentLine{Name: "VERSION", Value: "2.0"},
		ContentLine{Name: "PRODID", Value: "-//Gromox//Groupware Server//EN"},
		ContentLine{Name: "METHOD", Value: method},
	)

	if e.TZID != "" {
		cal.Children = append(cal.Children, ExportTimezone(e.TZID, e.Timezone))
	}

	cal.Children = append(cal.Children, exportMasterEvent(e, method, impliedPartstat))
	for _, ex := range e.Exceptions {
		cal.Children = append(cal.Children, exportExceptionEvent(e, ex))
	}
	return cal
}

func exportMasterEvent(e Export, method, impliedPartstat string) *Component {
	ev := &Component{Name: "VEVENT"}
	ev.Properties = append(ev.Properties,
		ContentLine{Name: "UID", Value: GlobalObjectIDToUID(e.GlobalObjectID)},
		ContentLine{Name: "SUMMARY", Value: e.Subject},
	)
	if e.Location != "" {
		ev.Properties = append(ev.Properties, ContentLine{Name: "LOCATION", Value: e.Location})
	}

	tzParams := map[string]string{}
	if e.TZID != "" {
		tzParams["TZID"] = e.TZID
	}
	ev.Properties = append(ev.Properties,
		ContentLine{Name: "DTSTART", Params: tzParams, Value: minutesToDateTime(e.StartDateTime)},
		ContentLine{Name: "DTEND", Params: tzParams, Value: minutesToDateTime(e.EndDateTime)},
		ContentLine{Name: "BUSYSTATUS", Value: BusyStatusToLine(e.BusyStatus)},
		ContentLine{Name: "X-MICROSOFT-CDO-BUSYSTATUS", Value: BusyStatusToLine(e.BusyStatus)},
		ContentLine{Name: "TRANSP", Value: BusyStatusToTransp(e.BusyStatus)},
	)

	if e.Organizer != "" {
		ev.Properties = append(ev.Properties, ContentLine{Name: "ORGANIZER", Value: "mailto:" + e.Organizer})
	}
	for _, att := range e.Attendees {
		partstat := att.PartStat
		if partstat == "" {
			partstat = impliedPartstat
		}
		params := map[string]string{}
		if partstat != "" {
			params["PARTSTAT"] = partstat
		}
		ev.Properties = append(ev.Properties, ContentLine{Name: "ATTENDEE", Params: params, Value: "mailto:" + att.Address})
	}

	if e.Recurring {
		ev.Properties = append(ev.Properties, ContentLine{Name: "RRULE", Value: ExportRRule(e.Pattern).Value()})
		for _, d := range e.Pattern.DeletedInstanceDates {
			ev.Properties = append(ev.Properties, ContentLine{Name: "EXDATE", Params: tzParams, Value: minutesToDateTime(d)})
		}
	}
	return ev
}

// exportExceptionEvent renders one modified-instance sibling VEVENT carrying
// a RECURRENCE-ID (spec §4.5.3), falling back to the master's subject/
// location when the override didn't touch those fields.
func exportExceptionEvent(e Export, ex Exception) *Component {
	ev := &Component{Name: "VEVENT"}

	subject := e.Subject
	if ex.Info.OverrideFlags&OverrideSubject != 0 && ex.Info.Subject != "" {
		subject = ex.Info.Subject
	}
	location := e.Location
	if ex.Info.OverrideFlags&OverrideLocation != 0 && ex.Info.Location != "" {
		location = ex.Info.Location
	}

	tzParams := map[string]string{}
	if e.TZID != "" {
		tzParams["TZID"] = e.TZID
	}

	ev.Properties = append(ev.Properties,
		ContentLine{Name: "UID", Value: GlobalObjectIDToUID(e.GlobalObjectID)},
		ContentLine{Name: "RECURRENCE-ID", Params: tzParams, Value: minutesToDateTime(ex.OriginalStart)},
		ContentLine{Name: "SUMMARY", Value: subject},
	)
	if location != "" {
		ev.Properties = append(ev.Properties, ContentLine{Name: "LOCATION", Value: location})
	}
	ev.Properties = append(ev.Properties,
		ContentLine{Name: "DTSTART", Params: tzParams, Value: minutesToDateTime(ex.Info.StartDateTime)},
		ContentLine{Name: "DTEND", Params: tzParams, Value: minutesToDateTime(ex.Info.EndDateTime)},
	)
	busyStatus := e.BusyStatus
	if ex.Info.OverrideFlags&OverrideBusyStatus != 0 {
		busyStatus = ex.Info.BusyStatus
	}
	ev.Properties = append(ev.Properties, ContentLine{Name: "BUSYSTATUS", Value: BusyStatusToLine(busyStatus)})
	return ev
}

// BuildCalendarMIME wraps ExportCalendar's rendered VCALENDAR text into an
// RFC-5322 message with a text/calendar body (SPEC_FULL.md "internal/ical
// export"), the same go-message-backed wrapping
// internal/message/send.go's buildOutgoingMIME uses for outgoing mail.
func BuildCalendarMIME(subject, from string, to []string, e Export) ([]byte, error) {
	method, _ := MethodForMessageClass(e.MessageClass, e.CounterProposal)
	body := ExportCalendar(e).Render()

	var buf bytes.Buffer
	var h message.Header
	h.Set("Subject", subject)
	h.Set("From", from)
	h.Set("To", strings.Join(to, ", "))
	h.Set("MIME-Version", "1.0")
	h.SetContentType("text/calendar", map[string]string{
		"charset": "utf-8",
		"method":  method,
	})

	w, err := message.CreateWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := w.Write([]byte(body)); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// minutesToDateTime is the inverse of parseDateTimeMinutes: converts an
// offset in minutes since 1601-01-01 back to an iCalendar basic date-time
// value. It renders a local (floating or TZID-qualified) time, never a
// trailing "Z", matching how DTSTART/DTEND carry a TZID parameter here
// rather than UTC values.
func minutesToDateTime(minutes int64) string {
	days := minutes / (24 * 60)
	rem := minutes % (24 * 60)
	if rem < 0 {
		rem += 24 * 60
		days--
	}
	hour := rem / 60
	minute := rem % 60

	year, month, day := dateFromEpochDays(1601, days)
	return fmt.Sprintf("%04d%02d%02dT%02d%02d00", year, month, day, hour, minute)
}

// dateFromEpochDays is the inverse of daysSinceEpoch for a fixed epoch
// (year epochY, January 1st): it walks forward year by year and then month
// by month, which is adequate for the non-negative day offsets every date
// in this system produces.
func dateFromEpochDays(epochY int, days int64) (int, int, int) {
	y := epochY
	for {
		yearDays := int64(365)
		if isLeap(y) {
			yearDays = 366
		}
		if days < yearDays {
			break
		}
		days -= yearDays
		y++
	}
	m := 1
	for {
		md := int64(monthDays[m-1])
		if m == 2 && isLeap(y) {
			md++
		}
		if days < md {
			break
		}
		days -= md
		m++
	}
	return y, m, int(days) + 1
}
