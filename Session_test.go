package mailview_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/jonas-koeritz/mailview"
)

const sampleMessage = "From: Sender <sender@example.com>\r\n" +
	"To: box@example.com\r\n" +
	"Subject: =?UTF-8?Q?Caf=C3=A9_report?=\r\n" +
	"Content-Type: text/plain; charset=utf-8\r\n" +
	"\r\n" +
	"Hello there.\r\n"

func deliver(t *testing.T, backend mailview.Backend, message string, rcpts ...string) {
	t.Helper()

	session := mailview.NewSession(backend, nil)
	if err := session.Mail("sender@example.com", smtp.MailOptions{}); err != nil {
		t.Fatalf("Mail() error: %v", err)
	}
	for _, rcpt := range rcpts {
		if err := session.Rcpt(rcpt); err != nil {
			t.Fatalf("Rcpt(%q) error: %v", rcpt, err)
		}
	}
	if err := session.Data(strings.NewReader(message)); err != nil {
		t.Fatalf("Data() error: %v", err)
	}
}

func TestSessionData(t *testing.T) {
	backend := &mailview.InMemoryBackend{MaxStoredMessage: 10}
	deliver(t, backend, sampleMessage, "box@example.com")

	e := backend.GetEmailById(0)
	if e == nil {
		t.Fatal("email was not stored")
	}
	if e.Subject != "Café report" {
		t.Errorf("Subject = %q, want %q", e.Subject, "Café report")
	}
	if e.From != "sender@example.com" {
		t.Errorf("From = %q", e.From)
	}
	if len(e.To) != 1 || e.To[0] != "box@example.com" {
		t.Errorf("To = %v", e.To)
	}
	if strings.TrimSpace(string(e.Body)) != "Hello there." {
		t.Errorf("Body = %q", e.Body)
	}
	if string(e.Data) != sampleMessage {
		t.Errorf("raw data was not kept verbatim")
	}
	if got := e.Header["Content-Type"]; len(got) != 1 || got[0] != "text/plain; charset=utf-8" {
		t.Errorf("Content-Type header = %v", got)
	}
	if time.Since(e.Time) > time.Minute {
		t.Errorf("received time %v is not current", e.Time)
	}
}

func TestSessionMissingSubject(t *testing.T) {
	backend := &mailview.InMemoryBackend{MaxStoredMessage: 10}
	deliver(t, backend, "From: sender@example.com\r\n\r\nbody\r\n", "box@example.com")

	e := backend.GetEmailById(0)
	if e == nil {
		t.Fatal("email was not stored")
	}
	if e.Subject != mailview.UndefinedSubject {
		t.Errorf("Subject = %q, want %q", e.Subject, mailview.UndefinedSubject)
	}
}

func TestSessionRejectsForeignDomain(t *testing.T) {
	backend := &mailview.InMemoryBackend{
		MaxStoredMessage: 10,
		AcceptedDomains:  []string{"example.com"},
	}
	session := mailview.NewSession(backend, nil)

	err := session.Rcpt("someone@elsewhere.org")
	var smtpErr *smtp.SMTPError
	if !errors.As(err, &smtpErr) || smtpErr.Code != 550 {
		t.Errorf("Rcpt error = %v, want SMTP 550", err)
	}
}

func TestSessionReset(t *testing.T) {
	backend := &mailview.InMemoryBackend{MaxStoredMessage: 10}
	session := mailview.NewSession(backend, nil)
	session.Mail("first@example.com", smtp.MailOptions{})
	session.Rcpt("old@example.com")
	session.Reset()

	session.Mail("second@example.com", smtp.MailOptions{})
	session.Rcpt("new@example.com")
	if err := session.Data(strings.NewReader(sampleMessage)); err != nil {
		t.Fatalf("Data() error: %v", err)
	}

	e := backend.GetEmailById(0)
	if e == nil || len(e.To) != 1 || e.To[0] != "new@example.com" || e.From != "second@example.com" {
		t.Errorf("reset did not clear the envelope: %+v", e)
	}
}

func TestSessionStoresUnparseableMessage(t *testing.T) {
	backend := &mailview.InMemoryBackend{MaxStoredMessage: 10}
	raw := "this is not a header line\r\n\r\nbody\r\n"
	deliver(t, backend, raw, "box@example.com")

	e := backend.GetEmailById(0)
	if e == nil {
		t.Fatal("unparseable email was not stored")
	}
	if e.Subject != mailview.UndefinedSubject {
		t.Errorf("Subject = %q, want %q", e.Subject, mailview.UndefinedSubject)
	}
	if string(e.Body) != raw || string(e.Data) != raw {
		t.Errorf("raw content was not kept as body: %q", e.Body)
	}
	if e.From != "sender@example.com" || len(e.To) != 1 {
		t.Errorf("envelope lost: from %q to %v", e.From, e.To)
	}
}
