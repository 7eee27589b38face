// Package configfile parses the small INI-style files the store facade
// reads directly rather than through the property DB: autoreply.cfg,
// delegates.txt (§6.4). No INI library exists anywhere in the example pack,
// so this is a hand-rolled line scanner, grounded on the teacher's own
// directive-line scanning style in framework/cfgparser (strip comments,
// split on whitespace, one directive per line) generalized to
// "key = value" pairs and section headers instead of maddy's block syntax.
package configfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// File is a parsed INI document: an ordered list of sections, each holding
// its key/value pairs in file order.
type File struct {
	Sections []Section
}

// Section is a "[name]" block (or the implicit unnamed section preceding
// the first header) and its ordered key/value pairs.
type Section struct {
	Name  string
	Pairs []Pair
}

// Pair is one "key = value" line.
type Pair struct {
	Key   string
	Value string
	Line  int
}

// Get returns the value of the last occurrence of key in the section, as
// INI files conventionally let a later line override an earlier one.
func (s Section) Get(key string) (string, bool) {
	val, ok := "", false
	for _, p := range s.Pairs {
		if p.Key == key {
			val, ok = p.Value, true
		}
	}
	return val, ok
}

// Section returns the named section, or the zero Section with ok=false.
func (f File) Section(name string) (Section, bool) {
	for _, s := range f.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Parse reads an INI document: "#" and ";" start a comment that runs to the
// end of the line, blank lines are ignored, "[section]" starts a new
// section, and every other non-blank line must be "key = value" or "key:
// value".
func Parse(r io.Reader) (File, error) {
	var f File
	current := Section{Name: ""}
	hasCurrent := false

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := stripComment(scanner.Text())
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			if hasCurrent || len(current.Pairs) > 0 {
				f.Sections = append(f.Sections, current)
			}
			current = Section{Name: strings.TrimSpace(line[1 : len(line)-1])}
			hasCurrent = true
			continue
		}

		key, value, ok := splitKV(line)
		if !ok {
			return File{}, fmt.Errorf("configfile: line %d: not a key/value pair: %q", lineNo, line)
		}
		current.Pairs = append(current.Pairs, Pair{Key: key, Value: value, Line: lineNo})
	}
	if err := scanner.Err(); err != nil {
		return File{}, err
	}
	if hasCurrent || len(current.Pairs) > 0 {
		f.Sections = append(f.Sections, current)
	}
	return f, nil
}

func stripComment(line string) string {
	for i, c := range line {
		if c == '#' || c == ';' {
			return line[:i]
		}
	}
	return line
}

func splitKV(line string) (key, value string, ok bool) {
	if idx := strings.IndexByte(line, '='); idx >= 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
	}
	if idx := strings.IndexByte(line, ':'); idx >= 0 {
		return strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]), true
	}
	return "", "", false
}
