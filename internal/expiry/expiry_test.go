package expiry

import (
	"testing"
	"time"

	"wms-backend/internal/clock"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		days int
		want Urgency
	}{
		{-5, Expired},
		{-1, Expired},
		{0, Critical},
		{6, Critical},
		{7, High},
		{13, High},
		{14, Medium},
		{29, Medium},
		{30, Low},
		{365, Low},
	}
	for _, tt := range tests {
		if got := Classify(tt.days); got != tt.want {
			t.Errorf("Classify(%d) = %s, want %s", tt.days, got, tt.want)
		}
	}
}

func TestMessage(t *testing.T) {
	tests := []struct {
		days int
		want string
	}{
		{-3, "Lejárt 3 napja"},
		{2, "KRITIKUS! Lejárat 2 nap múlva"},
		{10, "FIGYELEM! Lejárat közel (10 nap)"},
		{20, "Figyelem: lejárat 20 nap múlva"},
		{45, "Lejárat: 45 nap múlva"},
	}
	for _, tt := range tests {
		if got := Message(tt.days); got != tt.want {
			t.Errorf("Message(%d) = %q, want %q", tt.days, got, tt.want)
		}
	}
}

func TestOfUsesClock(t *testing.T) {
	orig := clock.Now
	defer func() { clock.Now = orig }()
	clock.Now = func() time.Time { return time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) }

	info := Of(time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC))
	if info.DaysUntilExpiry != 5 || info.Urgency != Critical {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestSummaryAdd(t *testing.T) {
	var s Summary
	for _, u := range []Urgency{Critical, Critical, High, Low, Expired} {
		s.Add(u)
	}
	if s.Critical != 2 || s.High != 1 || s.Low != 1 || s.Expired != 1 || s.Total != 5 {
		t.Fatalf("unexpected summary: %+v", s)
	}
}
