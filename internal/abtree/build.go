package abtree

import (
	"golang.org/x/sync/errgroup"

	"github.com/nexmda/groupcore/internal/dirprovider"
)

// LangFunc resolves a localization key to a display string for a given
// codepage, mirroring the "get_lang(codepage, key)" service used to render
// MLIST display names (spec §4.1.1).
type LangFunc func(codepage uint32, key string) (string, bool)

// buildDomainIDs picks the id list a base is made of (spec §4.1.1 step 1).
func buildDomainIDs(dp dirprovider.Provider, baseID int) ([]int, bool) {
	if baseID > 0 {
		return dp.GetOrgDomains(baseID)
	}
	return []int{-baseID}, true
}

// Build constructs a Base from scratch (spec §4.1.1). A failed org-domain or
// domain-info lookup aborts the whole base and no partially built state is
// returned. A false result from the group, class or user enumerations is
// treated as an empty list: it is not told apart from a record with no
// members and does not abort the build.
func Build(dp dirprovider.Provider, baseID int, lang LangFunc, codepage uint32) (*Base, error) {
	domainIDs, ok := buildDomainIDs(dp, baseID)
	if !ok {
		return nil, errBuildFailed("base has no domains")
	}

	base := newBase(baseID)
	domainRoots := make([]*Node, len(domainIDs))

	g := new(errgroup.Group)
	for i, domainID := range domainIDs {
		i, domainID := i, domainID
		g.Go(func() error {
			root, err := buildDomainTree(dp, domainID, lang, codepage)
			if err != nil {
				return err
			}
			domainRoots[i] = root
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	base.domains = domainRoots
	indexNodes(base, domainRoots)
	base.gal = collectGAL(domainRoots)
	sortGAL(base.gal, lang, codepage)
	return base, nil
}

func indexNodes(base *Base, roots []*Node) {
	var walk func(n *Node)
	walk = func(n *Node) {
		base.minidIdx[n.Minid] = n
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
}

func collectGAL(roots []*Node) []*Node {
	var out []*Node
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.Type.IsLeaf() {
			out = append(out, n)
		}
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, r := range roots {
		walk(r)
	}
	return out
}

// buildDomainTree builds one domain's SIMPLE_TREE: root = DOMAIN; children
// = GROUPs; GROUP children = top-level CLASSes plus domain users directly;
// each CLASS recursively expands sub-classes and member users (spec §4.1.1
// step 2).
func buildDomainTree(dp dirprovider.Provider, domainID int, lang LangFunc, codepage uint32) (*Node, error) {
	info, ok := dp.GetDomainInfo(domainID)
	if !ok {
		return nil, errBuildFailed("domain info missing")
	}

	root := &Node{
		Type:   NodeDomain,
		ID:     domainID,
		Minid:  MakeMinid(MinidDomain, uint32(domainID)),
		Domain: &DomainPayload{DomainID: domainID, Info: info},
	}

	groups, _ := dp.GetDomainGroups(domainID)
	for _, gi := range groups {
		groupNode := &Node{
			Type:   NodeGroup,
			ID:     gi.ID,
			Minid:  MakeMinid(MinidGroup, uint32(gi.ID)),
			Group:  &GroupPayload{Info: gi},
			Parent: root,
		}

		classes, _ := dp.GetGroupClasses(gi.ID)
		for _, ci := range classes {
			classNode, err := buildClassTree(dp, ci, groupNode)
			if err != nil {
				return nil, err
			}
			groupNode.Children = append(groupNode.Children, classNode)
		}

		groupUsers, _ := dp.GetGroupUsers(gi.ID)
		userLeaves := buildUserLeaves(groupUsers, groupNode)
		sortSiblings(userLeaves, lang, codepage)
		groupNode.Children = append(groupNode.Children, userLeaves...)

		root.Children = append(root.Children, groupNode)
	}

	domainUsers, _ := dp.GetDomainUsers(domainID)
	userLeaves := buildUserLeaves(domainUsers, root)
	sortSiblings(userLeaves, lang, codepage)
	root.Children = append(root.Children, userLeaves...)

	return root, nil
}

func buildClassTree(dp dirprovider.Provider, ci dirprovider.ClassInfo, parent *Node) (*Node, error) {
	node := &Node{
		Type:   NodeClass,
		ID:     ci.ChildID,
		Minid:  MakeMinid(MinidClass, uint32(ci.ChildID)),
		Class:  &ClassPayload{Info: ci},
		Parent: parent,
	}

	subs, _ := dp.GetSubClasses(ci.ChildID)
	for _, sub := range subs {
		child, err := buildClassTree(dp, sub, node)
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}

	users, _ := dp.GetClassUsers(ci.ChildID)
	node.Children = append(node.Children, buildUserLeaves(users, node)...)
	return node, nil
}

// buildUserLeaves maps directory user records onto leaf node types: MLISTs
// to NODE_TYPE_MLIST, rooms/equipment to their dedicated types, others to
// PERSON (spec §4.1.1 step 3).
func buildUserLeaves(users []dirprovider.User, parent *Node) []*Node {
	out := make([]*Node, 0, len(users))
	for _, u := range users {
		nt := NodePerson
		switch u.DTypX {
		case dirprovider.DTDistList:
			nt = NodeMlist
		case dirprovider.DTRoom:
			nt = NodeRoom
		case dirprovider.DTEquipment:
			nt = NodeEquipment
		}
		out = append(out, &Node{
			Type:   nt,
			ID:     u.ID,
			Minid:  MakeMinid(MinidAddress, uint32(u.ID)),
			User:   &UserPayload{User: u},
			Parent: parent,
		})
	}
	return out
}

// sortSiblings sorts a sibling group of leaves by display name right after
// loading, per spec §4.1.1 step 4.
func sortSiblings(nodes []*Node, lang LangFunc, codepage uint32) {
	sortGAL(nodes, lang, codepage)
}

type buildError string

func (e buildError) Error() string { return string(e) }

func errBuildFailed(msg string) error { return buildError(msg) }
