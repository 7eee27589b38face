package configfile

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// MaxDelegateLineBytes bounds each line of delegates.txt (spec §6.4: "up to
// 324 bytes").
const MaxDelegateLineBytes = 324

// ParseDelegates reads delegates.txt: one case-insensitive account username
// per line (spec §6.4).
func ParseDelegates(r io.Reader) ([]string, error) {
	var out []string
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if len(line) > MaxDelegateLineBytes {
			return nil, fmt.Errorf("configfile: delegates.txt line %d exceeds %d bytes", lineNo, MaxDelegateLineBytes)
		}
		out = append(out, strings.ToLower(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// IsDelegate reports whether account is present in delegates
// (case-insensitively; delegates is expected to already be normalized by
// ParseDelegates, but this tolerates raw input too).
func IsDelegate(delegates []string, account string) bool {
	account = strings.ToLower(account)
	for _, d := range delegates {
		if strings.ToLower(d) == account {
			return true
		}
	}
	return false
}
