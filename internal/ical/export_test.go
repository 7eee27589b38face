package ical

import (
	"strings"
	"testing"
)

func TestExportCalendarRoundTripSimple(t *testing.T) {
	start := parseDateTimeMinutes("20240601T140000")
	end := parseDateTimeMinutes("20240601T150000")

	e := Export{
		MessageClass:   "IPM.Appointment",
		Subject:        "Design review",
		Location:       "Room 4",
		StartDateTime:  start,
		EndDateTime:    end,
		BusyStatus:     BusyBusy,
		GlobalObjectID: UIDToGlobalObjectID("meeting-1"),
	}

	cal := ExportCalendar(e)
	rendered := cal.Render()

	reparsed, err := ImportCalendar(rendered)
	if err != nil {
		t.Fatalf("ImportCalendar(rendered export): %v", err)
	}
	if reparsed.MessageClass != "IPM.Appointment" {
		t.Errorf("expected IPM.Appointment, got %s", reparsed.MessageClass)
	}
	if reparsed.BusyStatus != BusyBusy {
		t.Errorf("expected BusyBusy, got %v", reparsed.BusyStatus)
	}
	if GlobalObjectIDToUID(reparsed.GlobalObjectID) != "meeting-1" {
		t.Errorf("expected UID meeting-1 round-trip, got %s", GlobalObjectIDToUID(reparsed.GlobalObjectID))
	}

	events := mustVEVENT(t, cal)
	dtstart, ok := events[0].Get("DTSTART")
	if !ok || dtstart.Value != "20240601T140000" {
		t.Errorf("expected DTSTART 20240601T140000, got %+v", dtstart)
	}
}

func TestExportCalendarRecurring(t *testing.T) {
	start := parseDateTimeMinutes("20240401T090000")
	end := parseDateTimeMinutes("20240401T093000")

	pattern := RecurrencePattern{
		PatternType:     PatternWeek,
		Period:          1,
		WeekRecurrence:  WDMonday,
		EndType:         EndAfterN,
		OccurrenceCount: 10,
	}

	e := Export{
		MessageClass:   "IPM.Appointment",
		Subject:        "Weekly sync",
		StartDateTime:  start,
		EndDateTime:    end,
		BusyStatus:     BusyBusy,
		GlobalObjectID: UIDToGlobalObjectID("event-x"),
		Recurring:      true,
		Pattern:        pattern,
	}

	rendered := ExportCalendar(e).Render()
	reparsed, err := ImportCalendar(rendered)
	if err != nil {
		t.Fatalf("ImportCalendar(rendered export): %v", err)
	}
	if !reparsed.Recurring {
		t.Fatal("expected the re-imported calendar to carry a recurrence pattern")
	}
	if reparsed.Pattern.PatternType != PatternWeek {
		t.Errorf("expected PatternWeek, got %v", reparsed.Pattern.PatternType)
	}
	if reparsed.Pattern.OccurrenceCount != 10 {
		t.Errorf("expected OccurrenceCount 10 to survive the COUNT round-trip, got %d", reparsed.Pattern.OccurrenceCount)
	}
}

func TestExportCalendarMethodAndPartstat(t *testing.T) {
	e := Export{
		MessageClass:   "IPM.Schedule.Meeting.Resp.Tent",
		Subject:        "Design review",
		StartDateTime:  parseDateTimeMinutes("20240601T140000"),
		EndDateTime:    parseDateTimeMinutes("20240601T150000"),
		GlobalObjectID: UIDToGlobalObjectID("meeting-1"),
		Attendees:      []ExportAttendee{{Address: "bob@example.org"}},
	}

	cal := ExportCalendar(e)
	method, ok := cal.Get("METHOD")
	if !ok || method.Value != "REPLY" {
		t.Errorf("expected METHOD:REPLY, got %+v", method)
	}

	events := mustVEVENT(t, cal)
	att := events[0].GetAll("ATTENDEE")
	if len(att) != 1 || att[0].Params["PARTSTAT"] != "TENTATIVE" {
		t.Errorf("expected a single TENTATIVE attendee line, got %+v", att)
	}
}

func TestExportCalendarBusyStatusAndTransp(t *testing.T) {
	e := Export{
		MessageClass:   "IPM.Appointment",
		Subject:        "Out of office block",
		StartDateTime:  parseDateTimeMinutes("20240601T140000"),
		EndDateTime:    parseDateTimeMinutes("20240601T150000"),
		GlobalObjectID: UIDToGlobalObjectID("meeting-2"),
		BusyStatus:     BusyFree,
	}

	events := mustVEVENT(t, ExportCalendar(e))
	transp, ok := events[0].Get("TRANSP")
	if !ok || transp.Value != "TRANSPARENT" {
		t.Errorf("expected TRANSP:TRANSPARENT for BusyFree, got %+v", transp)
	}
	cdo, ok := events[0].Get("X-MICROSOFT-CDO-BUSYSTATUS")
	if !ok || cdo.Value != "FREE" {
		t.Errorf("expected X-MICROSOFT-CDO-BUSYSTATUS:FREE, got %+v", cdo)
	}
}

func TestBuildCalendarMIME(t *testing.T) {
	e := Export{
		MessageClass:   "IPM.Schedule.Meeting.Request",
		Subject:        "Design review",
		StartDateTime:  parseDateTimeMinutes("20240601T140000"),
		EndDateTime:    parseDateTimeMinutes("20240601T150000"),
		GlobalObjectID: UIDToGlobalObjectID("meeting-1"),
		Attendees:      []ExportAttendee{{Address: "bob@example.org"}},
	}

	raw, err := BuildCalendarMIME("Design review", "alice@example.org", []string{"bob@example.org"}, e)
	if err != nil {
		t.Fatalf("BuildCalendarMIME: %v", err)
	}
	text := string(raw)
	for _, want := range []string{"Content-Type: text/calendar", "method=REQUEST", "BEGIN:VCALENDAR", "BEGIN:VEVENT"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected MIME body to contain %q, got:\n%s", want, text)
		}
	}
}

func mustVEVENT(t *testing.T, cal *Component) []*Component {
	t.Helper()
	events := cal.ChildrenNamed("VEVENT")
	if len(events) == 0 {
		t.Fatal("expected at least one VEVENT component")
	}
	return events
}
