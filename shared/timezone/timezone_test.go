package timezone_test

import (
	"testing"
	"time"

	"berth/shared/timezone"
)

func TestNow(t *testing.T) {
	now := timezone.Now()
	if now.IsZero() {
		t.Error("Now() returned zero time")
	}

	if timezone.GetLocation() == nil {
		t.Error("GetLocation() returned nil")
	}
}

func TestToAppTime(t *testing.T) {
	utcTime := time.Now().UTC()
	appTime := timezone.ToAppTime(utcTime)

	if !appTime.Equal(utcTime) {
		t.Error("expected converted time to represent the same instant")
	}
}

func TestFormatAndParse(t *testing.T) {
	testTime := time.Date(2025, 10, 22, 9, 0, 0, 0, time.UTC)

	formatted := timezone.Format(testTime, time.RFC3339)
	if formatted == "" {
		t.Error("Format() returned empty string")
	}

	parsed, err := timezone.Parse("2006-01-02", "2025-10-22")
	if err != nil {
		t.Fatalf("Parse() returned error: %v", err)
	}

	if parsed.Year() != 2025 || parsed.Month() != time.October || parsed.Day() != 22 {
		t.Errorf("unexpected parsed date: %v", parsed)
	}
}
