package ical

import "testing"

func TestMergeExceptionsScenarioS6(t *testing.T) {
	const originalStart int64 = 1000000
	const newStart int64 = 1000500

	pattern := &RecurrencePattern{}
	exceptions := []Exception{
		{
			OriginalStart: originalStart,
			Info: ExceptionInfo{
				OriginalStartDate: originalStart,
				StartDateTime:     newStart,
				Subject:           "Rescheduled sync",
			},
		},
	}

	MergeExceptions(pattern, exceptions, nil, nil)

	if len(pattern.DeletedInstanceDates) != 1 || pattern.DeletedInstanceDates[0] != originalStart {
		t.Errorf("expected deletedinstancedates = [%d], got %v", originalStart, pattern.DeletedInstanceDates)
	}
	if len(pattern.ModifiedInstanceDates) != 1 || pattern.ModifiedInstanceDates[0] != newStart {
		t.Errorf("expected modifiedinstancedates = [%d], got %v", newStart, pattern.ModifiedInstanceDates)
	}
}

func TestComputeOverrideFlags(t *testing.T) {
	master := ExceptionInfo{Subject: "Standup", BusyStatus: BusyBusy}
	sibling := ExceptionInfo{Subject: "Standup (moved)", BusyStatus: BusyTentative}

	flags := ComputeOverrideFlags(master, sibling)
	if flags&OverrideSubject == 0 {
		t.Error("expected OverrideSubject to be set")
	}
	if flags&OverrideBusyStatus == 0 {
		t.Error("expected OverrideBusyStatus to be set")
	}
	if flags&OverrideLocation != 0 {
		t.Error("did not expect OverrideLocation to be set")
	}
}

func TestMergeExceptionsDedupesAndSorts(t *testing.T) {
	pattern := &RecurrencePattern{}
	exceptions := []Exception{
		{OriginalStart: 300, Info: ExceptionInfo{StartDateTime: 350}},
		{OriginalStart: 100, Info: ExceptionInfo{StartDateTime: 150}},
	}
	MergeExceptions(pattern, exceptions, []int64{100}, nil)

	if len(pattern.DeletedInstanceDates) != 2 {
		t.Fatalf("expected deletedinstancedates deduped to 2 entries, got %v", pattern.DeletedInstanceDates)
	}
	if pattern.DeletedInstanceDates[0] != 100 || pattern.DeletedInstanceDates[1] != 300 {
		t.Errorf("expected ascending sorted dates, got %v", pattern.DeletedInstanceDates)
	}
	if exceptions[0].OriginalStart != 100 {
		t.Errorf("expected exceptions sorted by start date, got %+v", exceptions)
	}
}
