// Package expiry classifies stock by the number of days left until its use-by date.
package expiry

import (
	"fmt"
	"time"

	"wms-backend/internal/clock"
)

type Urgency string

const (
	Expired  Urgency = "expired"
	Critical Urgency = "critical"
	High     Urgency = "high"
	Medium   Urgency = "medium"
	Low      Urgency = "low"
)

const (
	CriticalDays = 7
	HighDays     = 14
	MediumDays   = 30
)

// Classify maps days until expiry to an urgency bucket.
func Classify(days int) Urgency {
	switch {
	case days < 0:
		return Expired
	case days < CriticalDays:
		return Critical
	case days < HighDays:
		return High
	case days < MediumDays:
		return Medium
	default:
		return Low
	}
}

// Message is the Hungarian warning text shown next to a stock line.
func Message(days int) string {
	switch Classify(days) {
	case Expired:
		return fmt.Sprintf("Lejárt %d napja", -days)
	case Critical:
		return fmt.Sprintf("KRITIKUS! Lejárat %d nap múlva", days)
	case High:
		return fmt.Sprintf("FIGYELEM! Lejárat közel (%d nap)", days)
	case Medium:
		return fmt.Sprintf("Figyelem: lejárat %d nap múlva", days)
	default:
		return fmt.Sprintf("Lejárat: %d nap múlva", days)
	}
}

type Info struct {
	DaysUntilExpiry int     `json:"days_until_expiry"`
	Urgency         Urgency `json:"urgency"`
	Message         string  `json:"message"`
}

// Of classifies a use-by date against today.
func Of(useBy time.Time) Info {
	days := clock.DaysUntil(useBy)
	return Info{DaysUntilExpiry: days, Urgency: Classify(days), Message: Message(days)}
}

// Summary counts warnings per bucket.
type Summary struct {
	Critical int `json:"critical"`
	High     int `json:"high"`
	Medium   int `json:"medium"`
	Low      int `json:"low"`
	Expired  int `json:"expired"`
	Total    int `json:"total"`
}

func (s *Summary) Add(u Urgency) {
	switch u {
	case Expired:
		s.Expired++
	case Critical:
		s.Critical++
	case High:
		s.High++
	case Medium:
		s.Medium++
	default:
		s.Low++
	}
	s.Total++
}
