package abtree

import (
	"fmt"
	"strings"

	"github.com/nexmda/groupcore/internal/common"
)

// NodeToGUID derives a stable per-node GUID by MD5-folding the node's path
// from root to leaf, then stamping the base's own GUID's low 4 bytes with
// that fold (spec §4.1.2 node_to_guid, grounded on
// original_source/exch/exchange_nsp/ab_tree.cpp's ab_tree_node_to_guid).
//
// The DOMAIN root itself just reuses the base GUID: its path has nothing to
// fold over.
func NodeToGUID(base *Base, n *Node) common.GUID {
	if n.Type == NodeDomain {
		return base.GUID
	}
	path := nodePath(n)
	folded := common.MD5Path64(path)
	return base.GUID.WithLast4(uint32(folded))
}

// nodePath builds the root-to-leaf path string folded into a node's GUID:
// each ancestor contributes "<type>:<id>", joined with '/'.
func nodePath(n *Node) string {
	var parts []string
	for cur := n; cur != nil; cur = cur.Parent {
		parts = append(parts, fmt.Sprintf("%d:%d", cur.Type, cur.ID))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, "/")
}
