package clock

import (
	"fmt"
	"time"
)

const DateLayout = "2006-01-02"

// Now is the wall clock used by every expiry and reservation calculation.
// Tests replace it to pin "today".
var Now = time.Now

// Location is the business timezone that decides which calendar day "today" is.
var Location = time.UTC

// SetLocation loads an IANA zone name such as Europe/Budapest.
func SetLocation(name string) error {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", name, err)
	}
	Location = loc
	return nil
}

// DateOf truncates t to its calendar day, represented as midnight UTC.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Today is the current business day as midnight UTC.
func Today() time.Time {
	return DateOf(Now().In(Location))
}

// DaysUntil returns the signed number of whole days from today to d.
func DaysUntil(d time.Time) int {
	return int(DateOf(d).Sub(Today()).Hours() / 24)
}

func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

func FormatDatePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}

func FormatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// StartOfDay is the instant a business day begins, for comparing timestamps.
func StartOfDay(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, Location)
}
