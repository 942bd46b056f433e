package mailview

import (
	"bytes"
	"io"
	"net"
	"net/textproto"
	"time"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"
)

// UndefinedSubject is stored for messages without a Subject header.
const UndefinedSubject = "<undefined>"

type Session struct {
	remote  net.Addr
	backend Backend
	from    string
	to      []string
}

// NewSession starts an SMTP session delivering into backend.
func NewSession(backend Backend, remote net.Addr) *Session {
	return &Session{
		remote:  remote,
		backend: backend,
	}
}

func (s *Session) log() *logrus.Entry {
	return Log.WithField("remote", s.remote)
}

func (s *Session) Mail(from string, opts smtp.MailOptions) error {
	s.log().WithField("from", from).Debug("mail from")
	s.from = from
	return nil
}

func (s *Session) Rcpt(to string) error {
	if !s.backend.IsAcceptedDomain(to) {
		s.log().WithField("to", to).Info("recipient not in accepted domains")
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 1, 1},
			Message:      "Invalid recipient",
		}
	}
	s.log().WithField("to", to).Debug("mail to")
	s.to = append(s.to, to)

	return nil
}

func (s *Session) Data(r io.Reader) error {
	m, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	email, err := parseEmail(m)
	if err != nil {
		s.log().WithError(err).Warn("could not parse message, storing raw content")
		email = &EMail{
			Header:  map[string][]string{},
			Body:    m,
			Subject: UndefinedSubject,
		}
	}
	email.Time = time.Now()
	email.From = s.from
	email.To = s.to
	email.Data = m

	s.backend.SaveEmail(email)
	s.log().WithFields(logrus.Fields{
		"from":  s.from,
		"to":    s.to,
		"bytes": len(email.Body),
	}).Info("saved e-mail message")

	return nil
}

// parseEmail reads the header and body of a raw message. Unknown charsets
// and transfer encodings are tolerated.
func parseEmail(m []byte) (*EMail, error) {
	entity, err := message.Read(bytes.NewReader(m))
	if err != nil && !message.IsUnknownCharset(err) && !message.IsUnknownEncoding(err) {
		return nil, err
	}

	b, err := io.ReadAll(entity.Body)
	if err != nil {
		return nil, err
	}

	header := mail.Header{Header: entity.Header}
	subject, err := header.Subject()
	if err != nil {
		subject = header.Get("Subject")
	}
	if !header.Has("Subject") {
		subject = UndefinedSubject
	}

	return &EMail{
		Header:  headerMap(entity.Header),
		Body:    b,
		Subject: subject,
	}, nil
}

func headerMap(h message.Header) map[string][]string {
	fields := h.Fields()
	result := make(map[string][]string, fields.Len())
	for fields.Next() {
		key := textproto.CanonicalMIMEHeaderKey(fields.Key())
		result[key] = append(result[key], fields.Value())
	}
	return result
}

func (s *Session) Reset() {
	s.from = ""
	s.to = nil
}

func (s *Session) Logout() error {
	return nil
}
