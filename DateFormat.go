package mailview

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// ErrInvalidTimestamp is returned when a receivedOn value cannot be read as a
// calendar date-time.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

const (
	displayLayout = "2006-01-02 15:04:05"
	jsonLayout    = "2006-01-02T15:04:05.000Z"
)

var jsonTimestamp = regexp.MustCompile(
	`^(\d{4})-(\d{2})-(\d{2})[T ](\d{2}):(\d{2}):(\d{2})(?:\.(\d*))?(Z|([+-])(\d{2})(?::?(\d{2}))?)?$`,
)

// ParseReceivedOn reads a JSON-style timestamp. Values without a zone are
// taken as UTC and fractions are cut to millisecond precision.
func ParseReceivedOn(s string) (time.Time, error) {
	m := jsonTimestamp.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, s)
	}

	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	hour, _ := strconv.Atoi(m[4])
	minute, _ := strconv.Atoi(m[5])
	second, _ := strconv.Atoi(m[6])
	millis, _ := strconv.Atoi((m[7] + "000")[:3])

	if month < 1 || month > 12 || hour > 23 || minute > 59 || second > 59 {
		return time.Time{}, fmt.Errorf("%w: %q out of range", ErrInvalidTimestamp, s)
	}

	t := time.Date(year, time.Month(month), day, hour, minute, second, millis*int(time.Millisecond), time.UTC)
	if t.Day() != day {
		return time.Time{}, fmt.Errorf("%w: %q is not a calendar date", ErrInvalidTimestamp, s)
	}

	if m[9] != "" {
		offsetHours, _ := strconv.Atoi(m[10])
		offsetMinutes, _ := strconv.Atoi(m[11])
		if offsetHours > 23 || offsetMinutes > 59 {
			return time.Time{}, fmt.Errorf("%w: %q has an invalid zone offset", ErrInvalidTimestamp, s)
		}
		offset := time.Duration(offsetHours)*time.Hour + time.Duration(offsetMinutes)*time.Minute
		if m[9] == "-" {
			offset = -offset
		}
		t = t.Add(-offset)
	}

	return t, nil
}

// FormatTimestamp prints t as "YYYY-MM-DD HH:mm:ss" in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(displayLayout)
}

func FormatReceivedOn(s string) (string, error) {
	t, err := ParseReceivedOn(s)
	if err != nil {
		return "", err
	}
	return FormatTimestamp(t), nil
}

// FormatJSONTime serializes t the way receivedOn values are produced.
func FormatJSONTime(t time.Time) string {
	return t.UTC().Format(jsonLayout)
}
