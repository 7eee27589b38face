package abtree

import "github.com/nexmda/groupcore/internal/dirprovider"

// DomainPayload is the DOMAIN node's typed payload (spec §9 "Deep
// structural payload variants on tree nodes").
type DomainPayload struct {
	DomainID int
	Info     dirprovider.DomainInfo
}

// GroupPayload is the GROUP node's typed payload.
type GroupPayload struct {
	Info dirprovider.GroupInfo
}

// ClassPayload is the CLASS node's typed payload.
type ClassPayload struct {
	Info dirprovider.ClassInfo
}

// UserPayload is shared by PERSON/ROOM/EQUIPMENT/MLIST nodes, which "differ
// only in the node tag" (spec §9).
type UserPayload struct {
	User dirprovider.User
}

// Node is a single AB_NODE: a tagged union over {domain_info, group_info,
// class_info, user_info} plus tree links (spec §3.1, §9).
type Node struct {
	Type   NodeType
	ID     int
	Minid  uint32

	Domain *DomainPayload
	Group  *GroupPayload
	Class  *ClassPayload
	User   *UserPayload

	// RemoteHomeBase is set on NODE_TYPE_REMOTE stubs: the base id the
	// referenced node actually lives in (spec §4.1.2 dn_to_node).
	RemoteHomeBase int

	Parent   *Node
	Children []*Node
}

// DisplayName renders the node's display name per the rules in spec
// §4.1.1: DOMAIN/GROUP use title, CLASS uses name, PERSON/ROOM/EQUIPMENT
// prefer PR_DISPLAY_NAME else the local part of username, MLIST uses a
// localized template.
func (n *Node) DisplayName(getLang func(codepage uint32, key string) (string, bool), codepage uint32) string {
	switch n.Type {
	case NodeDomain:
		if n.Domain != nil {
			return n.Domain.Info.Title
		}
	case NodeGroup:
		if n.Group != nil {
			return n.Group.Info.Title
		}
	case NodeClass:
		if n.Class != nil {
			return n.Class.Info.Name
		}
	case NodePerson, NodeRoom, NodeEquipment:
		if n.User != nil {
			if dn, ok := n.User.User.DisplayName(); ok && dn != "" {
				return dn
			}
			return localPart(n.User.User.Username)
		}
	case NodeMlist:
		if n.User != nil {
			key := mlistTemplateKey(n.User.User.ListType)
			if getLang != nil {
				if v, ok := getLang(codepage, key); ok {
					return v
				}
			}
			return localPart(n.User.User.Username)
		}
	}
	return ""
}

func mlistTemplateKey(lt dirprovider.ListType) string {
	switch lt {
	case dirprovider.ListGroup:
		return "mlist.group"
	case dirprovider.ListDomain:
		return "mlist.domain"
	case dirprovider.ListClass:
		return "mlist.class"
	default:
		return "mlist.normal"
	}
}

func localPart(username string) string {
	for i := 0; i < len(username); i++ {
		if username[i] == '@' {
			return username[:i]
		}
	}
	return username
}
