package mailview

import (
	"strings"
	"time"
)

type EMail struct {
	ID      uint64
	Time    time.Time
	From    string
	To      []string
	Body    []byte
	Header  map[string][]string
	Subject string
	Data    []byte
}

// Record projects the message onto the fields shown in its header view.
func (e *EMail) Record() EmailRecord {
	return EmailRecord{
		FromAddress: e.From,
		ToAddress:   strings.Join(e.To, ", "),
		ReceivedOn:  FormatJSONTime(e.Time),
		Subject:     e.Subject,
	}
}
