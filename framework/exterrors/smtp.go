package exterrors

import (
	"errors"
	"fmt"
	"net"

	"github.com/emersion/go-smtp"
)

// EnhancedCode is an RFC 3463 enhanced status code, e.g. {4, 4, 2}.
type EnhancedCode [3]int

// SMTPError is the RemoteFailure representation (spec §7) for failures
// encountered while the send pipeline (message §4.3.5) talks to a
// downstream SMTP server: it carries the reply code classification needed
// to decide whether the failure is permanent, temporary, or a protocol
// timeout, exactly like maddy's internal/smtpconn wraps *smtp.SMTPError.
type SMTPError struct {
	Code         int
	EnhancedCode EnhancedCode
	Message      string
	Misc         map[string]interface{}
	Err          error
}

func (e *SMTPError) Error() string {
	return fmt.Sprintf("%d %d.%d.%d %s", e.Code, e.EnhancedCode[0], e.EnhancedCode[1], e.EnhancedCode[2], e.Message)
}

func (e *SMTPError) Unwrap() error { return e.Err }

func (e *SMTPError) Temporary() bool { return e.Code/100 == 4 }

func (e *SMTPError) Fields() map[string]interface{} {
	f := make(map[string]interface{}, len(e.Misc)+2)
	for k, v := range e.Misc {
		f[k] = v
	}
	f["smtp_code"] = e.Code
	f["smtp_enhanced_code"] = e.EnhancedCode
	return f
}

// ClassifySMTP turns a raw error from a *smtp.Client round-trip into a
// SMTPError, distinguishing permanent 5xx, temporary 4xx, network timeouts,
// and unclassified failures, per spec §4.3.5 step 6.
func ClassifySMTP(err error, remote string) error {
	if err == nil {
		return nil
	}

	var smtpErr *smtp.SMTPError
	if errors.As(err, &smtpErr) {
		return &SMTPError{
			Code:         smtpErr.Code,
			EnhancedCode: EnhancedCode(smtpErr.EnhancedCode),
			Message:      smtpErr.Message,
			Misc:         map[string]interface{}{"remote_server": remote},
			Err:          err,
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &SMTPError{
			Code:         451,
			EnhancedCode: EnhancedCode{4, 4, 2},
			Message:      "connection timed out",
			Misc:         map[string]interface{}{"remote_server": remote},
			Err:          err,
		}
	}

	return &SMTPError{
		Code:         450,
		EnhancedCode: EnhancedCode{4, 4, 0},
		Message:      "unclassified delivery error",
		Misc:         map[string]interface{}{"remote_server": remote},
		Err:          err,
	}
}
