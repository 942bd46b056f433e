package mailview_test

import (
	"errors"
	"testing"
	"time"

	"github.com/jonas-koeritz/mailview"
)

func TestFormatReceivedOn(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "UTC with milliseconds", input: "2023-05-02T14:07:09.000Z", expected: "2023-05-02 14:07:09"},
		{name: "UTC without fraction", input: "2023-12-31T23:59:00Z", expected: "2023-12-31 23:59:00"},
		{name: "no zone is UTC", input: "2023-05-02T14:07:09", expected: "2023-05-02 14:07:09"},
		{name: "space separator", input: "2023-05-02 14:07:09Z", expected: "2023-05-02 14:07:09"},
		{name: "positive offset", input: "2023-05-02T16:07:09+02:00", expected: "2023-05-02 14:07:09"},
		{name: "negative offset without colon", input: "2023-05-02T09:37:09-0430", expected: "2023-05-02 14:07:09"},
		{name: "hour-only offset", input: "2023-01-01T01:00:00+05", expected: "2022-12-31 20:00:00"},
		{name: "long fraction", input: "2023-05-02T14:07:09.999999Z", expected: "2023-05-02 14:07:09"},
		{name: "leap day", input: "2024-02-29T00:00:00Z", expected: "2024-02-29 00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := mailview.FormatReceivedOn(tt.input)
			if err != nil {
				t.Fatalf("FormatReceivedOn(%q) error: %v", tt.input, err)
			}
			if got != tt.expected {
				t.Errorf("FormatReceivedOn(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestFormatReceivedOnInvalid(t *testing.T) {
	inputs := []string{
		"not-a-date",
		"",
		"2023-13-01T00:00:00Z",
		"2023-02-30T00:00:00Z",
		"2023-05-02T24:00:00Z",
		"2023-05-02T14:07:09Zgarbage",
		"2023-05-02",
		"2023-05-02T14:07:09+25:00",
		"2023-05-02T14:07:09+05:",
		"2023-05-02T14:07:09+05:3",
	}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := mailview.FormatReceivedOn(input)
			if !errors.Is(err, mailview.ErrInvalidTimestamp) {
				t.Errorf("FormatReceivedOn(%q) error = %v, want ErrInvalidTimestamp", input, err)
			}
		})
	}
}

func TestParseReceivedOnMilliseconds(t *testing.T) {
	got, err := mailview.ParseReceivedOn("2023-05-02T14:07:09.5Z")
	if err != nil {
		t.Fatalf("ParseReceivedOn error: %v", err)
	}
	want := time.Date(2023, time.May, 2, 14, 7, 9, 500*int(time.Millisecond), time.UTC)
	if !got.Equal(want) {
		t.Errorf("ParseReceivedOn = %v, want %v", got, want)
	}
}

func TestFormatTimestampIgnoresLocation(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*60*60)
	ts := time.Date(2023, time.May, 2, 23, 7, 9, 0, loc)

	if got := mailview.FormatTimestamp(ts); got != "2023-05-02 14:07:09" {
		t.Errorf("FormatTimestamp = %q, want %q", got, "2023-05-02 14:07:09")
	}
}

func TestFormatJSONTimeRoundTrip(t *testing.T) {
	ts := time.Date(2023, time.May, 2, 14, 7, 9, 0, time.UTC)

	serialized := mailview.FormatJSONTime(ts)
	if serialized != "2023-05-02T14:07:09.000Z" {
		t.Fatalf("FormatJSONTime = %q", serialized)
	}

	parsed, err := mailview.ParseReceivedOn(serialized)
	if err != nil {
		t.Fatalf("ParseReceivedOn error: %v", err)
	}
	if !parsed.Equal(ts) {
		t.Errorf("round trip gave %v, want %v", parsed, ts)
	}
}
