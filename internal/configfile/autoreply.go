package configfile

import (
	"fmt"
	"io"
	"strconv"
)

// OOFState mirrors autoreply.cfg's OOF_STATE (spec §6.4).
type OOFState int

const (
	OOFDisabled OOFState = iota
	OOFEnabled
	OOFScheduled
)

// AutoReply is the decoded contents of <maildir>/config/autoreply.cfg (spec
// §6.4).
type AutoReply struct {
	State            OOFState
	StartTime        int64 // unix seconds
	EndTime          int64
	AllowExternalOOF bool
	ExternalAudience string
}

// ParseAutoReply reads autoreply.cfg. Missing keys default to their zero
// value, matching the original's tolerance of a partial file.
func ParseAutoReply(r io.Reader) (AutoReply, error) {
	f, err := Parse(r)
	if err != nil {
		return AutoReply{}, err
	}
	sec, _ := f.Section("")
	var a AutoReply

	if v, ok := sec.Get("OOF_STATE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return AutoReply{}, fmt.Errorf("configfile: bad OOF_STATE: %w", err)
		}
		a.State = OOFState(n)
	}
	if v, ok := sec.Get("START_TIME"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return AutoReply{}, fmt.Errorf("configfile: bad START_TIME: %w", err)
		}
		a.StartTime = n
	}
	if v, ok := sec.Get("END_TIME"); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return AutoReply{}, fmt.Errorf("configfile: bad END_TIME: %w", err)
		}
		a.EndTime = n
	}
	if v, ok := sec.Get("ALLOW_EXTERNAL_OOF"); ok {
		a.AllowExternalOOF = v == "1" || v == "true"
	}
	if v, ok := sec.Get("EXTERNAL_AUDIENCE"); ok {
		a.ExternalAudience = v
	}
	return a, nil
}

// Active reports whether the out-of-office reply should fire for the given
// unix-seconds "now", honoring the scheduled-window state.
func (a AutoReply) Active(now int64) bool {
	switch a.State {
	case OOFEnabled:
		return true
	case OOFScheduled:
		return now >= a.StartTime && now <= a.EndTime
	default:
		return false
	}
}

// Serialize renders an AutoReply back to autoreply.cfg's INI form.
func (a AutoReply) Serialize() string {
	external := 0
	if a.AllowExternalOOF {
		external = 1
	}
	return fmt.Sprintf(
		"OOF_STATE = %d\nSTART_TIME = %d\nEND_TIME = %d\nALLOW_EXTERNAL_OOF = %d\nEXTERNAL_AUDIENCE = %s\n",
		a.State, a.StartTime, a.EndTime, external, a.ExternalAudience)
}
