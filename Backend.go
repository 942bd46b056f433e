package mailview

import (
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
)

// Backend stores received messages and hands out SMTP sessions that deliver
// into it.
type Backend interface {
	smtp.Backend
	SaveEmail(*EMail)
	IsAcceptedDomain(email string) bool
	GetProcessedEmails() int
	GetEmailsByAlias(alias string) []*EMail
	GetEmailById(id uint64) *EMail
	Cleanup(deadline time.Time)
}

func isAcceptedDomain(acceptedDomains []string, acceptSubdomains bool, email string) bool {
	if len(acceptedDomains) == 0 {
		return true
	}

	emailParts := strings.Split(email, "@")
	domain := emailParts[len(emailParts)-1]

	for _, d := range acceptedDomains {
		if strings.EqualFold(d, domain) {
			return true
		} else if acceptSubdomains && strings.HasSuffix(strings.ToLower(domain), "."+strings.ToLower(d)) {
			return true
		}
	}

	return false
}

func getAlias(email string) string {
	return strings.Split(email, "@")[0]
}

// sortNewestFirst orders listings by received time, newest first. Equal
// times fall back to the higher ID first.
func sortNewestFirst(emails []*EMail) []*EMail {
	sort.SliceStable(emails, func(i, j int) bool {
		if !emails[i].Time.Equal(emails[j].Time) {
			return emails[i].Time.After(emails[j].Time)
		}
		return emails[i].ID > emails[j].ID
	})
	return emails
}
