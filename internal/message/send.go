package message

import (
	"bytes"
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-smtp"

	"github.com/nexmda/groupcore/framework/exterrors"
	"github.com/nexmda/groupcore/internal/common"
	"github.com/nexmda/groupcore/internal/dirprovider"
	"github.com/nexmda/groupcore/internal/propdb"
)

// ErrNoRecipients is returned by Send when a message has no resolvable
// recipient (spec §9 open question: "common_util_send_message tolerates
// zero-recipient messages with only a log warning" — resolved here as a
// distinguished error rather than a silent success, recorded in DESIGN.md).
var ErrNoRecipients = errors.New("message: no recipients to send to")

// PROP_TAG_INTERNETMAILOVERRIDEFORMAT values consulted by Send (spec
// §4.3.5 step 5). Only the HTML-only case collapses the body to one part;
// every other value, including an absent property, defaults to plain+HTML.
const mailOverrideHTMLOnly uint32 = 0x00010000

// propTagBody/propTagBodyHTML are the plain-text and HTML body properties
// read by Send (spec §4.3.5 step 5). Not part of proptags.go's save/init
// set because nothing else in this package touches them.
const (
	propTagBody                 uint32 = 0x1000001E
	propTagBodyHTML             uint32 = 0x1013001E
	propTagSentRepresentingSmtp uint32 = 0x5D02001E
)

// SendConfig is the local SMTP relay this mailbox submits outgoing mail to
// (spec §4.3.5 step 6: "submit the serialized bytes via an SMTP client").
// A zero value dials 127.0.0.1:25, the conventional local submission
// service address; Dial is a seam for tests.
type SendConfig struct {
	Dial      func(network, addr string) (net.Conn, error)
	RelayAddr string
	Hostname  string
}

func (cfg SendConfig) dial(network, addr string) (net.Conn, error) {
	if cfg.Dial != nil {
		return cfg.Dial(network, addr)
	}
	return net.Dial(network, addr)
}

func (cfg SendConfig) relayAddr() string {
	if cfg.RelayAddr != "" {
		return cfg.RelayAddr
	}
	return "127.0.0.1:25"
}

func (cfg SendConfig) helloName() string {
	if cfg.Hostname != "" {
		return cfg.Hostname
	}
	return "localhost"
}

// deliver opens a TCP connection to the relay and runs the HELO/MAIL
// FROM/RCPT TO/DATA/QUIT state machine (spec §4.3.5 step 6), classifying
// any failure via exterrors.ClassifySMTP so the caller can tell a timeout
// from a permanent 5xx from a temporary 4xx. Any non-2xx aborts the send.
func (cfg SendConfig) deliver(from string, to []string, data []byte) error {
	addr := cfg.relayAddr()

	conn, err := cfg.dial("tcp", addr)
	if err != nil {
		return exterrors.ClassifySMTP(err, addr)
	}

	cl, err := smtp.NewClient(conn, cfg.helloName())
	if err != nil {
		conn.Close()
		return exterrors.ClassifySMTP(err, addr)
	}
	defer cl.Close()

	if err := cl.Hello(cfg.helloName()); err != nil {
		return exterrors.ClassifySMTP(err, addr)
	}
	if err := cl.Mail(from, nil); err != nil {
		return exterrors.ClassifySMTP(err, addr)
	}
	for _, rcpt := range to {
		if !strings.Contains(rcpt, "@") {
			rcpt += "@none"
		}
		if err := cl.Rcpt(rcpt); err != nil {
			return exterrors.ClassifySMTP(err, addr)
		}
	}

	wc, err := cl.Data()
	if err != nil {
		return exterrors.ClassifySMTP(err, addr)
	}
	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return exterrors.ClassifySMTP(err, addr)
	}
	if err := wc.Close(); err != nil {
		return exterrors.ClassifySMTP(err, addr)
	}

	if err := cl.Quit(); err != nil {
		return exterrors.ClassifySMTP(err, addr)
	}
	return nil
}

// Send is common_util_send_message (spec §4.3.5): read the message and its
// recipients, export to RFC-5322, submit to the relay, then post-process
// per the submit flags.
// isSubmit distinguishes a client-initiated submit from a direct programmatic
// send for callers outside this package; both follow the same pipeline here.
func (m *Message) Send(cfg SendConfig, isSubmit bool) error {
	props, err := m.db.ReadMessage(m.st.Maildir, m.MessageID)
	if err != nil {
		return err
	}
	pv := propMap(props)

	folderID, _ := pv[propTagFolderID].(uint64)

	if cpid, ok := pv[propTagInternetCPID].(uint32); !ok || cpid == 0 {
		cpid = m.Codepage
		if cpid == 0 {
			cpid = 1252
		}
		if _, err := m.db.SetMessageProperties(m.st.Maildir, m.MessageID, []propdb.PropVal{{Tag: propTagInternetCPID, Value: cpid}}); err != nil {
			return err
		}
	}

	flags, _ := pv[propTagMessageFlags].(uint32)
	resendOnly := flags&msgflagResend != 0

	instance, err := m.db.LoadMessageInstance(m.st.Maildir, folderID, m.MessageID, false)
	if err != nil {
		return err
	}
	defer m.db.UnloadInstance(instance)

	rcpts, err := m.db.GetMessageInstanceRcpts(instance)
	if err != nil {
		return err
	}

	var toAddrs []string
	for _, r := range rcpts {
		if resendOnly {
			rt, _ := r[propTagRecipientType].(uint32)
			if rt&recipientTypeNeedResend == 0 {
				continue
			}
		}
		addr, err := resolveRecipientAddress(m.dp, r)
		if err != nil {
			return err
		}
		toAddrs = append(toAddrs, addr)
	}
	if len(toAddrs) == 0 {
		return ErrNoRecipients
	}

	wantHTML := true
	wantPlain := true
	if overrideFmt, ok := pv[propTagInternetMailOvr].(uint32); ok && overrideFmt == mailOverrideHTMLOnly {
		wantPlain = false
	}

	subject, _ := pv[propTagSubject].(string)
	plainBody, _ := pv[propTagBody].(string)
	htmlBody, _ := pv[propTagBodyHTML].(string)
	from, _ := pv[propTagSentRepresentingSmtp].(string)
	if from == "" {
		from = m.Caller.Username
	}

	data, err := buildOutgoingMIME(subject, from, toAddrs, plainBody, htmlBody, wantPlain, wantHTML)
	if err != nil {
		return err
	}

	if err := cfg.deliver(from, toAddrs, data); err != nil {
		m.st.Log.Error("smtp submission failed", err, "from", from, "rcpt_count", len(toAddrs))
		return err
	}

	return m.postProcessAfterSend(pv, from)
}

// postProcessAfterSend implements spec §4.3.5 step 7: delete, move to an
// explicit target, or move to Sent Items, in that priority order.
func (m *Message) postProcessAfterSend(pv map[uint32]interface{}, from string) error {
	if deleteAfter, ok := pv[propTagDeleteAfterSubmit].(bool); ok && deleteAfter {
		return m.db.DeleteMessage(m.st.Maildir, m.MessageID)
	}

	if target, ok := pv[propTagTargetEntryID].([]byte); ok && len(target) > 0 {
		if _, targetFolder, ok := common.DecodeFolderEntryID(target); ok {
			if err := m.db.ClearSubmit(m.st.Maildir, m.MessageID); err != nil {
				return err
			}
			return m.db.MovecopyMessage(m.st.Maildir, m.MessageID, targetFolder, true)
		}
	}

	if err := m.db.ClearSubmit(m.st.Maildir, m.MessageID); err != nil {
		return err
	}
	return m.db.MovecopyMessage(m.st.Maildir, m.MessageID, m.st.Folders.SentMail, true)
}

// scheduleReadReceipt builds and submits a minimal read-receipt message to
// the original sender (spec §4.3.4, testable scenario S4).
func (m *Message) scheduleReadReceipt(cfg SendConfig) error {
	props, err := m.db.ReadMessage(m.st.Maildir, m.MessageID)
	if err != nil {
		return err
	}
	pv := propMap(props)

	to, _ := pv[propTagSentRepresentingSmtp].(string)
	if to == "" {
		return ErrNoRecipients
	}
	subject, _ := pv[propTagSubject].(string)

	body := fmt.Sprintf("Your message titled %q was read.", subject)
	data, err := buildOutgoingMIME("Read: "+subject, m.Caller.Username, []string{to}, body, "", true, false)
	if err != nil {
		return err
	}
	return cfg.deliver(m.Caller.Username, []string{to}, data)
}

// propMap flattens a PropVal slice into a map for convenience lookups; the
// fields Send reads are all singly-valued so last-write-wins is fine.
func propMap(pvs []propdb.PropVal) map[uint32]interface{} {
	out := make(map[uint32]interface{}, len(pvs))
	for _, pv := range pvs {
		out[pv.Tag] = pv.Value
	}
	return out
}

// resolveRecipientAddress derives a recipient's SMTP address by the
// ordered strategy in spec §4.3.5 step 4: PR_SMTP_ADDRESS, else
// ADDRESSTYPE-qualified EMAIL_ADDRESS (SMTP directly, EX via ESSDN
// resolution), else decoding PR_ENTRYID (one-off or address-book).
func resolveRecipientAddress(dp dirprovider.Provider, rcpt map[uint32]interface{}) (string, error) {
	if s, ok := rcpt[propTagSmtpAddress].(string); ok && s != "" {
		return s, nil
	}

	addrType, _ := rcpt[propTagAddressType].(string)
	switch addrType {
	case "SMTP":
		if s, ok := rcpt[propTagEmailAddress].(string); ok && s != "" {
			return s, nil
		}
	case "EX":
		if essdn, ok := rcpt[propTagEmailAddress].(string); ok && essdn != "" {
			if addr, ok := resolveESSDN(dp, essdn); ok {
				return addr, nil
			}
		}
	}

	if eid, ok := rcpt[propTagEntryID].([]byte); ok {
		if common.IsOneOff(eid) {
			_, _, addr, ok := common.DecodeOneOff(eid)
			if ok && addr != "" {
				return addr, nil
			}
		}
		if dn, ok := common.DecodeABEntryID(eid); ok {
			if addr, ok := resolveESSDN(dp, dn); ok {
				return addr, nil
			}
		}
	}

	return "", fmt.Errorf("message: cannot resolve recipient address")
}

// resolveESSDN extracts the 8-hex-digit user id from a recipient DN of the
// form used by abtree.NodeToDN ("/cn=Recipients/cn=<domain><user>-<local>",
// spec §4.1.2) and resolves it to a username through the directory
// provider, without pulling in the AB tree's node/base machinery (that
// resolves local nodes by minid, not bare directory ids by ESSDN).
func resolveESSDN(dp dirprovider.Provider, dn string) (string, bool) {
	if dp == nil {
		return "", false
	}
	const rcptMarker = "/cn=Recipients/cn="
	idx := strings.Index(strings.ToUpper(dn), strings.ToUpper(rcptMarker))
	if idx < 0 {
		return "", false
	}
	tail := dn[idx+len(rcptMarker):]
	if len(tail) < 16 {
		return "", false
	}
	userID, err := strconv.ParseUint(tail[8:16], 16, 32)
	if err != nil {
		return "", false
	}
	return dp.GetUsernameFromID(int(userID))
}

// buildOutgoingMIME renders subject/from/to plus a plain and/or HTML body
// into an RFC-5322 byte stream (spec §4.3.5 step 5-6), grounded on
// go-message's Writer the same way internal/common/mimepool.go uses
// go-message for parsing the inbound side.
func buildOutgoingMIME(subject, from string, to []string, plainBody, htmlBody string, wantPlain, wantHTML bool) ([]byte, error) {
	var buf bytes.Buffer

	var h message.Header
	h.Set("Subject", subject)
	h.Set("From", from)
	h.Set("To", strings.Join(to, ", "))
	h.Set("MIME-Version", "1.0")

	switch {
	case wantPlain && wantHTML:
		h.SetContentType("multipart/alternative", nil)
		w, err := message.CreateWriter(&buf, h)
		if err != nil {
			return nil, err
		}
		if err := writeBodyPart(w, "text/plain", plainBody); err != nil {
			return nil, err
		}
		if err := writeBodyPart(w, "text/html", htmlBody); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	case wantHTML:
		h.SetContentType("text/html", map[string]string{"charset": "utf-8"})
		w, err := message.CreateWriter(&buf, h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(htmlBody)); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	default:
		h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
		w, err := message.CreateWriter(&buf, h)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(plainBody)); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
	}

	return buf.Bytes(), nil
}

func writeBodyPart(w *message.Writer, contentType, body string) error {
	var ph message.Header
	ph.SetContentType(contentType, map[string]string{"charset": "utf-8"})
	pw, err := w.CreatePart(ph)
	if err != nil {
		return err
	}
	if _, err := pw.Write([]byte(body)); err != nil {
		return err
	}
	return pw.Close()
}
