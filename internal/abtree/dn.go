package abtree

import (
	"fmt"
	"strconv"
	"strings"
)

const ouPrefix = "/ou=Exchange Administrative Group (FYDIBOHF23SPDLT)"

func orgPrefix(org string) string { return "/o=" + org + ouPrefix }

// NodeToDN re-synthesizes the X.500 DN for a PERSON/ROOM/EQUIPMENT/MLIST
// leaf (spec §4.1.2 node_to_dn, testable scenario S1). Returns false for
// non-recipient node types, mirroring the original's restriction.
func NodeToDN(org string, n *Node) (string, bool) {
	switch n.Type {
	case NodePerson, NodeRoom, NodeEquipment, NodeMlist:
	default:
		return "", false
	}
	if n.User == nil || n.Parent == nil {
		return "", false
	}

	domain := n.Parent
	for domain != nil && domain.Type != NodeDomain {
		domain = domain.Parent
	}
	if domain == nil {
		return "", false
	}

	local := localPart(n.User.User.Username)
	dn := fmt.Sprintf("%s/cn=Recipients/cn=%08X%08X-%s",
		orgPrefix(org), domain.ID, n.ID, local)
	return strings.ToUpper(dn), true
}

// DnToNode parses the fixed X.500 prefix and either a server DN
// ("/cn=Configuration/cn=Servers/cn=...") or a recipient DN
// ("/cn=Recipients/cn=<8hex domain_id><8hex user_id>-<local>") and resolves
// it against base's local nodes, materializing a REMOTE stub if the node is
// found in another base (spec §4.1.2 dn_to_node).
//
// resolveElsewhere is called only on a local miss, to search the other
// loaded bases; it returns the owning base id and the found node.
func DnToNode(org string, base *Base, dn string, resolveElsewhere func(minid uint32) (homeBase int, node *Node, ok bool)) (*Node, bool) {
	prefix := orgPrefix(org)
	if len(dn) < len(prefix) || !strings.EqualFold(dn[:len(prefix)], prefix) {
		return nil, false
	}
	rest := dn[len(prefix):]

	const serversPrefix = "/cn=Configuration/cn=Servers/cn="
	if strings.HasPrefix(strings.ToLower(rest), strings.ToLower(serversPrefix)) && len(rest) >= len(serversPrefix)+8 {
		idHex := rest[len(serversPrefix) : len(serversPrefix)+8]
		id, err := strconv.ParseUint(idHex, 16, 32)
		if err != nil {
			return nil, false
		}
		minid := MakeMinid(MinidAddress, uint32(id))
		return lookupLocalThenRemote(base, minid, resolveElsewhere)
	}

	const rcptPrefix = "/cn=Recipients/cn="
	if !strings.HasPrefix(strings.ToLower(rest), strings.ToLower(rcptPrefix)) {
		return nil, false
	}
	tail := rest[len(rcptPrefix):]
	if len(tail) < 16 {
		return nil, false
	}
	domainID, err1 := strconv.ParseUint(tail[0:8], 16, 32)
	userID, err2 := strconv.ParseUint(tail[8:16], 16, 32)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	_ = domainID
	minid := MakeMinid(MinidAddress, uint32(userID))
	return lookupLocalThenRemote(base, minid, resolveElsewhere)
}

func lookupLocalThenRemote(base *Base, minid uint32, resolveElsewhere func(uint32) (int, *Node, bool)) (*Node, bool) {
	base.mu.RLock()
	n, ok := base.minidIdx[minid]
	base.mu.RUnlock()
	if ok {
		return n, true
	}

	base.remoteMu.RLock()
	stub, ok := base.remoteByM[minid]
	base.remoteMu.RUnlock()
	if ok {
		return stub, true
	}

	if resolveElsewhere == nil {
		return nil, false
	}
	homeBase, found, ok := resolveElsewhere(minid)
	if !ok {
		return nil, false
	}
	return base.addRemoteStub(homeBase, found), true
}
