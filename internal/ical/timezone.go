package ical

import (
	"fmt"
	"strconv"
	"strings"
)

// ExportTimezone renders a TZStruct to a VTIMEZONE component (spec §4.5.1).
// A TZStruct with no DST rule emits a single STANDARD block dated
// 16010101T000000, matching Outlook's "no transitions" convention.
func ExportTimezone(tzid string, tz TZStruct) *Component {
	vt := &Component{Name: "VTIMEZONE"}
	vt.Properties = append(vt.Properties, ContentLine{Name: "TZID", Value: tzid})

	std := standardDaylightBlock("STANDARD", tz.StandardDate, tz.Bias+tz.StandardBias, tz.Bias+tz.DaylightBias, tz.HasDST())
	vt.Children = append(vt.Children, std)

	if tz.HasDST() {
		dl := standardDaylightBlock("DAYLIGHT", tz.DaylightDate, tz.Bias+tz.DaylightBias, tz.Bias+tz.StandardBias, true)
		vt.Children = append(vt.Children, dl)
	}
	return vt
}

func standardDaylightBlock(name string, rule SystemTimeRule, offsetTo, offsetFrom int32, hasDST bool) *Component {
	c := &Component{Name: name}
	if rule == (SystemTimeRule{}) {
		c.Properties = append(c.Properties, ContentLine{Name: "DTSTART", Value: "16010101T000000"})
		c.Properties = append(c.Properties, ContentLine{Name: "TZOFFSETFROM", Value: formatUTCOffset(offsetFrom)})
		c.Properties = append(c.Properties, ContentLine{Name: "TZOFFSETTO", Value: formatUTCOffset(offsetTo)})
		return c
	}

	c.Properties = append(c.Properties,
		ContentLine{Name: "TZOFFSETFROM", Value: formatUTCOffset(offsetFrom)},
		ContentLine{Name: "TZOFFSETTO", Value: formatUTCOffset(offsetTo)},
	)

	if rule.isFloating() {
		dtstart := fmt.Sprintf("16010101T%02d%02d%02d", rule.Hour, rule.Minute, rule.Second)
		c.Properties = append(c.Properties, ContentLine{Name: "DTSTART", Value: dtstart})
		n := "-1"
		if rule.Day != 5 {
			n = strconv.Itoa(int(rule.Day))
		}
		rrule := fmt.Sprintf("FREQ=YEARLY;BYDAY=%s%s;BYMONTH=%d", n, weekdayNames[rule.DayOfWeek], rule.Month)
		c.Properties = append(c.Properties, ContentLine{Name: "RRULE", Value: rrule})
	} else {
		dtstart := fmt.Sprintf("%04dT%02d%02d%02d", rule.Year, rule.Hour, rule.Minute, rule.Second)
		c.Properties = append(c.Properties, ContentLine{Name: "DTSTART", Value: dtstart})
		rrule := fmt.Sprintf("FREQ=YEARLY;BYMONTHDAY=%d;BYMONTH=%d", rule.Day, rule.Month)
		c.Properties = append(c.Properties, ContentLine{Name: "RRULE", Value: rrule})
	}
	return c
}

func formatUTCOffset(minutes int32) string {
	sign := "+"
	if minutes < 0 {
		sign = "-"
		minutes = -minutes
	}
	return fmt.Sprintf("%s%02d%02d", sign, minutes/60, minutes%60)
}

// ImportTimezone collapses a VTIMEZONE's STANDARD/DAYLIGHT sub-components
// (one or more of each, across years) into an effective TZStruct, keeping
// only the latest rule that defines both a STANDARD and DAYLIGHT component;
// rules with only STANDARD, or with identical STANDARD/DAYLIGHT components,
// are discarded and the resulting TZStruct carries no daylight rule (spec
// §4.5.1).
func ImportTimezone(vt *Component) (TZStruct, error) {
	stdBlocks := vt.ChildrenNamed("STANDARD")
	dlBlocks := vt.ChildrenNamed("DAYLIGHT")
	if len(stdBlocks) == 0 {
		return TZStruct{}, fmt.Errorf("ical: VTIMEZONE has no STANDARD component")
	}

	std := stdBlocks[len(stdBlocks)-1]
	offsetTo, err := parseOffsetProp(std, "TZOFFSETTO")
	if err != nil {
		return TZStruct{}, err
	}

	var tz TZStruct
	tz.Bias = offsetTo
	tz.StandardBias = 0
	stdRule, err := parseTransitionRule(std)
	if err != nil {
		return TZStruct{}, err
	}
	tz.StandardDate = stdRule

	if len(dlBlocks) == 0 {
		return tz, nil
	}
	dl := dlBlocks[len(dlBlocks)-1]
	dlOffsetTo, err := parseOffsetProp(dl, "TZOFFSETTO")
	if err != nil {
		return tz, nil
	}
	dlRule, err := parseTransitionRule(dl)
	if err != nil {
		return tz, nil
	}
	if dlRule == stdRule {
		return tz, nil
	}
	tz.DaylightBias = dlOffsetTo - offsetTo
	tz.DaylightDate = dlRule
	return tz, nil
}

func parseOffsetProp(c *Component, name string) (int32, error) {
	p, ok := c.Get(name)
	if !ok {
		return 0, fmt.Errorf("ical: missing %s", name)
	}
	return parseUTCOffset(p.Value)
}

func parseUTCOffset(v string) (int32, error) {
	if len(v) < 5 {
		return 0, fmt.Errorf("ical: bad UTC offset %q", v)
	}
	sign := int32(1)
	if v[0] == '-' {
		sign = -1
	}
	h, err := strconv.Atoi(v[1:3])
	if err != nil {
		return 0, err
	}
	m, err := strconv.Atoi(v[3:5])
	if err != nil {
		return 0, err
	}
	return sign * int32(h*60+m), nil
}

func parseTransitionRule(c *Component) (SystemTimeRule, error) {
	dtstart, ok := c.Get("DTSTART")
	if !ok {
		return SystemTimeRule{}, fmt.Errorf("ical: missing DTSTART")
	}
	hh, mm, ss := parseTimeOfDay(dtstart.Value)

	rruleProp, ok := c.Get("RRULE")
	if !ok {
		return SystemTimeRule{Hour: hh, Minute: mm, Second: ss}, nil
	}
	rule, err := ParseRRule(rruleProp.Value)
	if err != nil {
		return SystemTimeRule{}, err
	}

	var st SystemTimeRule
	st.Hour, st.Minute, st.Second = hh, mm, ss
	st.Month = uint16(rule.ByMonth)
	if len(rule.ByDay) == 1 {
		n, wd, err := parseNthWeekday(rule.ByDay[0])
		if err != nil {
			return SystemTimeRule{}, err
		}
		st.Year = 0
		st.Day = uint16(n)
		st.DayOfWeek = weekdayIndex(wd)
	} else {
		st.Year = 1
		st.Day = uint16(rule.ByMonthDay)
	}
	return st, nil
}

func parseTimeOfDay(dtstart string) (hh, mm, ss uint16) {
	idx := strings.IndexByte(dtstart, 'T')
	if idx < 0 || idx+7 > len(dtstart) {
		return 0, 0, 0
	}
	t := dtstart[idx+1:]
	h, _ := strconv.Atoi(t[0:2])
	m, _ := strconv.Atoi(t[2:4])
	s, _ := strconv.Atoi(t[4:6])
	return uint16(h), uint16(m), uint16(s)
}

func weekdayIndex(bit uint32) uint16 {
	for i, name := range weekdayNames {
		if weekdayBits[name] == bit {
			return uint16(i)
		}
	}
	return 0
}
