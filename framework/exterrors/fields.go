// Package exterrors implements the structured error values used throughout
// this module to carry the abstract error taxonomy from spec §7
// (NotFound/PermissionDenied/InvariantViolation/ResourceExhaustion/
// RemoteFailure/PartialPropertyProblem) as concrete Go error values.
package exterrors

import "github.com/nexmda/groupcore/framework/log"

func init() {
	log.RegisterFielder(Fields)
}

type fieldsErr interface {
	Fields() map[string]interface{}
}

type unwrapper interface {
	Unwrap() error
}

type fieldsWrap struct {
	err    error
	fields map[string]interface{}
}

func (fw fieldsWrap) Error() string  { return fw.err.Error() }
func (fw fieldsWrap) Unwrap() error  { return fw.err }
func (fw fieldsWrap) Fields() map[string]interface{} { return fw.fields }

// Fields walks the Unwrap chain of err and merges every Fields() map it
// finds, outermost wins on key collision.
func Fields(err error) map[string]interface{} {
	fields := make(map[string]interface{}, 5)
	for err != nil {
		if fe, ok := err.(fieldsErr); ok {
			for k, v := range fe.Fields() {
				if fields[k] != nil {
					continue
				}
				fields[k] = v
			}
		}
		uw, ok := err.(unwrapper)
		if !ok {
			break
		}
		err = uw.Unwrap()
	}
	return fields
}

// WithFields annotates err with structured fields for later logging.
func WithFields(err error, fields map[string]interface{}) error {
	return fieldsWrap{err: err, fields: fields}
}
