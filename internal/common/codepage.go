// Package common mirrors the "Common Util" row of the component table:
// entryid<->username/folder/message conversions, PCL append, XID/GUID
// encoding, codepage handling and the MIME parsing pool shared by the
// transport and store packages.
package common

import (
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// FoldDisplayName renders s the way the address book folds display names
// for GAL ordering and for MLIST language-template lookups (spec §4.1.1):
// codepage 1252, case-insensitive. Windows-1252 and Unicode case-folding
// agree on every character actually seen in display names (Latin-1
// supplement plus the cp1252 upper range), so we case-fold in Go's native
// UTF-8 domain after round-tripping the input through charmap.Windows1252,
// matching the original's assumption that stored display names are cp1252.
// Input that has no cp1252 encoding is folded unchanged.
func FoldDisplayName(s string) string {
	clean := s
	if enc, err := charmap.Windows1252.NewEncoder().String(s); err == nil {
		if dec, err := charmap.Windows1252.NewDecoder().String(enc); err == nil {
			clean = dec
		}
	}
	return strings.ToLower(clean)
}

// CompareDisplayName implements the GAL list's sort predicate (spec §3.1,
// §4.1.1 step 4/5): case-insensitive comparison of cp1252-folded display
// names.
func CompareDisplayName(a, b string) int {
	fa, fb := FoldDisplayName(a), FoldDisplayName(b)
	switch {
	case fa < fb:
		return -1
	case fa > fb:
		return 1
	default:
		return 0
	}
}

// Codepage1252 is the default codepage used for calculated language
// properties and for freshly initialized messages (spec §4.3.1).
const Codepage1252 = 1252

// LocaleToCodepage maps a handful of the locale tags the directory provider
// can return for PROP_TAG_ECUSERLANGUAGE (spec §4.2.1) onto an MS codepage.
// Unknown locales fall back to Codepage1252, which is always a safe default
// for the Latin-script folder names this module renders.
func LocaleToCodepage(locale string) uint32 {
	switch {
	case strings.HasPrefix(locale, "ja"):
		return 932
	case strings.HasPrefix(locale, "zh_CN"), strings.HasPrefix(locale, "zh-CN"):
		return 936
	case strings.HasPrefix(locale, "ko"):
		return 949
	case strings.HasPrefix(locale, "zh_TW"), strings.HasPrefix(locale, "zh-TW"):
		return 950
	case strings.HasPrefix(locale, "ru"):
		return 1251
	default:
		return Codepage1252
	}
}
