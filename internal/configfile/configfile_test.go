package configfile

import (
	"strings"
	"testing"
)

func TestParseBasicKeyValue(t *testing.T) {
	f, err := Parse(strings.NewReader("# a comment\nKEY1 = value1\nKEY2=value2\n\n[section]\nKEY3 = value3\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(f.Sections) != 2 {
		t.Fatalf("expected 2 sections (implicit + [section]), got %d", len(f.Sections))
	}
	root := f.Sections[0]
	if v, ok := root.Get("KEY1"); !ok || v != "value1" {
		t.Errorf("KEY1 = %q, %v", v, ok)
	}
	if v, ok := root.Get("KEY2"); !ok || v != "value2" {
		t.Errorf("KEY2 = %q, %v", v, ok)
	}

	sec, ok := f.Section("section")
	if !ok {
		t.Fatal("expected [section] to be present")
	}
	if v, _ := sec.Get("KEY3"); v != "value3" {
		t.Errorf("KEY3 = %q", v)
	}
}

func TestParseLaterKeyWins(t *testing.T) {
	f, err := Parse(strings.NewReader("KEY = first\nKEY = second\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	v, _ := f.Sections[0].Get("KEY")
	if v != "second" {
		t.Errorf("expected the later duplicate key to win, got %q", v)
	}
}

func TestParseRejectsGarbageLine(t *testing.T) {
	if _, err := Parse(strings.NewReader("not a key value line\n")); err == nil {
		t.Fatal("expected an error for a non key/value line")
	}
}

func TestAutoReplyScheduledWindow(t *testing.T) {
	a, err := ParseAutoReply(strings.NewReader(
		"OOF_STATE = 2\nSTART_TIME = 1000\nEND_TIME = 2000\nALLOW_EXTERNAL_OOF = 1\nEXTERNAL_AUDIENCE = all\n"))
	if err != nil {
		t.Fatalf("ParseAutoReply: %v", err)
	}
	if a.State != OOFScheduled {
		t.Errorf("expected OOFScheduled, got %v", a.State)
	}
	if !a.Active(1500) {
		t.Error("expected Active(1500) inside the window to be true")
	}
	if a.Active(500) || a.Active(2500) {
		t.Error("expected Active outside the window to be false")
	}
	if !a.AllowExternalOOF {
		t.Error("expected AllowExternalOOF to be true")
	}
}

func TestParseDelegatesLowercasesAndBounds(t *testing.T) {
	delegates, err := ParseDelegates(strings.NewReader("Alice@Example.Org\nbob@example.org\n"))
	if err != nil {
		t.Fatalf("ParseDelegates: %v", err)
	}
	if !IsDelegate(delegates, "ALICE@EXAMPLE.ORG") {
		t.Error("expected case-insensitive delegate match")
	}

	long := strings.Repeat("a", MaxDelegateLineBytes+1)
	if _, err := ParseDelegates(strings.NewReader(long + "\n")); err == nil {
		t.Fatal("expected an error for an over-length delegate line")
	}
}
