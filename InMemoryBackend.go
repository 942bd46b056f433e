package mailview

import (
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/sirupsen/logrus"
)

// InMemoryBackend keeps the newest MaxStoredMessage messages in memory.
type InMemoryBackend struct {
	currentID        uint64
	emails           []*EMail
	MaxStoredMessage int
	mailMutex        sync.Mutex
	AcceptedDomains  []string
	AcceptSubdomains bool
}

func (backend *InMemoryBackend) AnonymousLogin(c *smtp.ConnectionState) (smtp.Session, error) {
	Log.WithField("remote", c.RemoteAddr).Debug("anonymous login")
	return NewSession(backend, c.RemoteAddr), nil
}

func (backend *InMemoryBackend) Login(_ *smtp.ConnectionState, username, password string) (smtp.Session, error) {
	return nil, smtp.ErrAuthUnsupported
}

func (b *InMemoryBackend) SaveEmail(email *EMail) {
	b.mailMutex.Lock()
	defer b.mailMutex.Unlock()

	if b.emails == nil {
		b.emails = make([]*EMail, 0)
	}

	if b.MaxStoredMessage > 0 && len(b.emails) >= b.MaxStoredMessage {
		b.emails = b.emails[len(b.emails)-b.MaxStoredMessage+1:]
	}

	email.ID = b.currentID
	b.currentID++

	b.emails = append(b.emails, email)
}

func (b *InMemoryBackend) GetEmailsByAlias(alias string) []*EMail {
	b.mailMutex.Lock()
	defer b.mailMutex.Unlock()

	emails := make([]*EMail, 0)
	for _, e := range b.emails {
		for _, recipient := range e.To {
			if strings.HasPrefix(recipient, alias+"@") {
				emails = append(emails, e)
				break
			}
		}
	}
	return sortNewestFirst(emails)
}

func (b *InMemoryBackend) GetEmailById(id uint64) *EMail {
	b.mailMutex.Lock()
	defer b.mailMutex.Unlock()

	for _, e := range b.emails {
		if e.ID == id {
			return e
		}
	}
	return nil
}

func (b *InMemoryBackend) Cleanup(deadline time.Time) {
	b.mailMutex.Lock()
	defer b.mailMutex.Unlock()

	unexpiredMails := make([]*EMail, 0, len(b.emails))
	for _, e := range b.emails {
		if !e.Time.Before(deadline) {
			unexpiredMails = append(unexpiredMails, e)
		}
	}
	removed := len(b.emails) - len(unexpiredMails)
	b.emails = unexpiredMails

	Log.WithFields(logrus.Fields{
		"deadline": deadline,
		"removed":  removed,
	}).Debug("in-memory cleanup finished")
}

func (b *InMemoryBackend) IsAcceptedDomain(email string) bool {
	return isAcceptedDomain(b.AcceptedDomains, b.AcceptSubdomains, email)
}

func (b *InMemoryBackend) GetProcessedEmails() int {
	b.mailMutex.Lock()
	defer b.mailMutex.Unlock()
	return int(b.currentID)
}
