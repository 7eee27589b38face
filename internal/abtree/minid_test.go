package abtree

import "testing"

func TestMakeMinidAddressRemapsReserved(t *testing.T) {
	for id := uint32(0); id <= reservedAddressCeiling; id++ {
		m := MakeMinid(MinidAddress, id)
		if MinidTypeOf(m) != MinidReserved {
			t.Errorf("id %d: want RESERVED tag, got %v", id, MinidTypeOf(m))
		}
		if MinidValue(m) != id {
			t.Errorf("id %d: value round-trip got %d", id, MinidValue(m))
		}
	}
}

func TestMakeMinidAddressAboveCeiling(t *testing.T) {
	m := MakeMinid(MinidAddress, 42)
	if MinidTypeOf(m) != MinidAddress {
		t.Errorf("want ADDRESS tag, got %v", MinidTypeOf(m))
	}
	if MinidValue(m) != 42 {
		t.Errorf("want value 42, got %d", MinidValue(m))
	}
	if m != 42 {
		t.Errorf("scenario S1: minid for user 42 should be 42, got %d", m)
	}
}

func TestMakeMinidDomainGroupClass(t *testing.T) {
	cases := []struct {
		typ MinidType
		id  uint32
	}{
		{MinidDomain, 17},
		{MinidGroup, 3},
		{MinidClass, 9},
	}
	for _, c := range cases {
		m := MakeMinid(c.typ, c.id)
		if MinidTypeOf(m) != c.typ {
			t.Errorf("type %v id %d: got tag %v", c.typ, c.id, MinidTypeOf(m))
		}
		if MinidValue(m) != c.id {
			t.Errorf("type %v id %d: got value %d", c.typ, c.id, MinidValue(m))
		}
	}
}

func TestNodeTypeIsLeaf(t *testing.T) {
	leaf := []NodeType{NodePerson, NodeMlist, NodeRoom, NodeEquipment}
	notLeaf := []NodeType{NodeDomain, NodeGroup, NodeClass, NodeRemote}
	for _, nt := range leaf {
		if !nt.IsLeaf() {
			t.Errorf("%v should be a leaf", nt)
		}
	}
	for _, nt := range notLeaf {
		if nt.IsLeaf() {
			t.Errorf("%v should not be a leaf", nt)
		}
	}
}
