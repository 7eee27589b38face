package log

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

// LogFormatter lets a value control its own structured-log representation.
type LogFormatter interface {
	FormatLog() string
}

// marshalOrderedJSON renders m with keys sorted so that log lines for
// similar events line up column-by-column when read side by side.
func marshalOrderedJSON(out *strings.Builder, m map[string]interface{}) error {
	order := make([]string, 0, len(m))
	for k := range m {
		order = append(order, k)
	}
	sort.Strings(order)

	out.WriteRune('{')
	for i, key := range order {
		if i != 0 {
			out.WriteRune(',')
		}

		jsonKey, err := json.Marshal(key)
		if err != nil {
			return err
		}
		out.Write(jsonKey)
		out.WriteRune(':')

		val := m[key]
		switch v := val.(type) {
		case time.Time:
			val = v.Format("2006-01-02T15:04:05.000")
		case time.Duration:
			val = v.String()
		case LogFormatter:
			val = v.FormatLog()
		case error:
			val = v.Error()
		case fmt.Stringer:
			val = v.String()
		}

		jsonVal, err := json.Marshal(val)
		if err != nil {
			return err
		}
		out.Write(jsonVal)
	}
	out.WriteRune('}')
	return nil
}
