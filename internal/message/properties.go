package message

import (
	"github.com/nexmda/groupcore/internal/propdb"
)

// SetProperties writes pvs, honoring the fixed read-only list and the
// special writer rules (spec §4.3.3). Per-property failures are reported as
// Problems; the call itself only fails on a DB error.
func (m *Message) SetProperties(pvs []propdb.PropVal) ([]propdb.Problem, error) {
	return m.setPropertiesInternal(true, resolveSubjectConflict(pvs))
}

// resolveSubjectConflict drops PR_NORMALIZED_SUBJECT from pvs when it is
// empty and PR_SUBJECT is not, so the two don't fight over the display
// subject (spec §4.3.3).
func resolveSubjectConflict(pvs []propdb.PropVal) []propdb.PropVal {
	var subject string
	haveSubject := false
	for _, pv := range pvs {
		if pv.Tag == propTagSubject || pv.Tag == propTagSubjectA {
			if s, ok := pv.Value.(string); ok {
				subject = s
				haveSubject = true
			}
		}
	}
	if !haveSubject || subject == "" {
		return pvs
	}

	drop := -1
	for i, pv := range pvs {
		if pv.Tag == propTagNormalizedSubj || pv.Tag == propTagNormalizedSubjA {
			if s, ok := pv.Value.(string); ok && s == "" {
				drop = i
			}
		}
	}
	if drop < 0 {
		return pvs
	}
	out := make([]propdb.PropVal, 0, len(pvs)-1)
	out = append(out, pvs[:drop]...)
	out = append(out, pvs[drop+1:]...)
	return out
}

// setPropertiesInternal is the shared body of SetProperties (bCheck=true)
// and the metadata writes Save performs on itself (bCheck=false, spec
// §4.3.2 step 5 "apply all metadata via the internal property setter").
func (m *Message) setPropertiesInternal(bCheck bool, pvs []propdb.PropVal) ([]propdb.Problem, error) {
	if !m.Writable {
		return nil, errNotWritable
	}

	var problems []propdb.Problem
	accepted := make([]propdb.PropVal, 0, len(pvs))
	acceptedIdx := make([]int, 0, len(pvs))

	for i, pv := range pvs {
		if bCheck {
			if m.checkReadonlyProperty(pv.Tag) {
				problems = append(problems, propdb.Problem{Index: uint16(i), Tag: pv.Tag})
				continue
			}
			if pv.Tag == propTagExtRuleMsgCondition {
				if rejected, err := m.checkExtRuleCondition(pv); err != nil {
					return nil, err
				} else if rejected {
					problems = append(problems, propdb.Problem{Index: uint16(i), Tag: pv.Tag})
					continue
				}
			}
			if pv.Tag == propTagMessageFlags {
				if err := m.derivePrePassFlags(pv); err != nil {
					return nil, err
				}
			}
		}
		accepted = append(accepted, pv)
		acceptedIdx = append(acceptedIdx, i)
	}

	if len(accepted) == 0 {
		return problems, nil
	}

	setProblems, err := m.db.SetInstanceProperties(m.Instance, accepted)
	if err != nil {
		return nil, err
	}
	for _, p := range setProblems {
		p.Index = uint16(acceptedIdx[p.Index])
		problems = append(problems, p)
	}

	if m.IsNew || m.MessageID == 0 {
		return problems, nil
	}

	rejected := make(map[int]bool, len(problems))
	for _, p := range problems {
		rejected[int(p.Index)] = true
	}
	for i, pv := range pvs {
		if rejected[i] {
			continue
		}
		m.touched = true
		m.removed.Remove(pv.Tag)
		m.changed.Append(pv.Tag)
	}
	return problems, nil
}

// checkExtRuleCondition enforces that PidLidExtendedRuleMessageCondition is
// only writable on FAI messages and fits the configured length cap (spec
// §4.3.3).
func (m *Message) checkExtRuleCondition(pv propdb.PropVal) (rejected bool, err error) {
	v, ok, err := m.db.GetInstanceProperty(m.Instance, propTagAssociated)
	if err != nil {
		return false, err
	}
	if !ok || v == nil || !asBool(v) {
		return true, nil
	}
	b, ok := pv.Value.([]byte)
	if !ok || len(b) > maxExtRuleLength {
		return true, nil
	}
	return false, nil
}

// derivePrePassFlags translates a PR_MESSAGE_FLAGS write into the three
// derived boolean properties, written as a pre-pass (spec §4.3.3).
func (m *Message) derivePrePassFlags(pv propdb.PropVal) error {
	flags, ok := pv.Value.(uint32)
	if !ok {
		return nil
	}
	derived := []propdb.PropVal{
		{Tag: propTagRead, Value: boolByte(flags&msgflagRead != 0)},
		{Tag: propTagReadReceiptReq, Value: boolByte(flags&msgflagRNPending != 0)},
		{Tag: propTagNonReceiptNotify, Value: boolByte(flags&msgflagNRNPending != 0)},
	}
	_, err := m.db.SetInstanceProperties(m.Instance, derived)
	return err
}

// RemoveProperties deletes tags, honoring the same read-only list as
// SetProperties (spec §4.3.3).
func (m *Message) RemoveProperties(tags []uint32) ([]propdb.Problem, error) {
	if !m.Writable {
		return nil, errNotWritable
	}

	var problems []propdb.Problem
	var accepted []uint32
	acceptedIdx := make([]int, 0, len(tags))

	for i, tag := range tags {
		if m.checkReadonlyProperty(tag) {
			problems = append(problems, propdb.Problem{Index: uint16(i), Tag: tag})
			continue
		}
		accepted = append(accepted, tag)
		acceptedIdx = append(acceptedIdx, i)
	}
	if len(accepted) == 0 {
		return problems, nil
	}

	setProblems, err := m.db.RemoveInstanceProperties(m.Instance, accepted)
	if err != nil {
		return nil, err
	}
	for _, p := range setProblems {
		p.Index = uint16(acceptedIdx[p.Index])
		problems = append(problems, p)
	}

	if m.IsNew || m.MessageID == 0 {
		return problems, nil
	}

	rejected := make(map[int]bool, len(problems))
	for _, p := range problems {
		rejected[int(p.Index)] = true
	}
	for i, tag := range tags {
		if rejected[i] {
			continue
		}
		m.touched = true
		m.changed.Remove(tag)
		m.removed.Append(tag)
	}
	return problems, nil
}
