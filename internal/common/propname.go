package common

import (
	"fmt"
	"strings"
)

// PropNameKind distinguishes the two MAPI named-property forms (spec
// GLOSSARY "MAPI named property").
type PropNameKind int

const (
	KindID PropNameKind = iota
	KindString
)

// PropName is a MAPI named property key: (GUID, kind, value) (spec
// GLOSSARY).
type PropName struct {
	GUID GUID
	Kind PropNameKind
	LID  uint32 // valid when Kind == KindID
	Name string // valid when Kind == KindString
}

// MAPICoreGUID is the well-known PS_MAPI namespace: named properties under
// it with MNID_ID kind resolve directly to their lid (spec §4.2.2).
var MAPICoreGUID = GUID{TimeLow: 0x00020328, TimeMid: 0x0000, TimeHiAndVersion: 0x0000, ClockSeq: [2]byte{0xC0, 0x00}, Node: [6]byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x46}}

// HashKey builds the text key used to probe the store's name->propid hash
// (spec §4.2.2): "<guid>:lid:<n>" or "<guid>:name:<lowercased name>".
func (p PropName) HashKey() string {
	if p.Kind == KindID {
		return fmt.Sprintf("%s:lid:%d", p.GUID.String(), p.LID)
	}
	return fmt.Sprintf("%s:name:%s", p.GUID.String(), strings.ToLower(p.Name))
}

// IsMAPICore reports whether p lives under the core MAPI namespace, the
// case §4.2.2 resolves without consulting the DB at all.
func (p PropName) IsMAPICore() bool { return p.GUID == MAPICoreGUID }
