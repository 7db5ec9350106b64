package timeutil

import (
	"errors"
	"testing"
	"time"
)

func TestLocalToUTC(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		tz   string
		want time.Time
	}{
		{"winter los angeles", time.Date(2027, 12, 29, 0, 0, 0, 0, time.UTC), "America/Los_Angeles", time.Date(2027, 12, 29, 8, 0, 0, 0, time.UTC)},
		{"summer los angeles", time.Date(2022, 7, 1, 9, 30, 0, 0, time.UTC), "America/Los_Angeles", time.Date(2022, 7, 1, 16, 30, 0, 0, time.UTC)},
		{"ahead of utc", time.Date(2022, 1, 1, 3, 0, 0, 0, time.UTC), "Asia/Tokyo", time.Date(2021, 12, 31, 18, 0, 0, 0, time.UTC)},
		{"location of input ignored", time.Date(2022, 1, 1, 12, 0, 0, 0, time.FixedZone("X", 3600)), "UTC", time.Date(2022, 1, 1, 12, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := LocalToUTC(tt.in, tt.tz)
			if err != nil {
				t.Fatalf("LocalToUTC failed: %v", err)
			}
			if !got.Equal(tt.want) || got.Location() != time.UTC {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestInvalidZone(t *testing.T) {
	t.Parallel()

	if _, err := LocalToUTC(time.Now(), "Mars/Olympus_Mons"); !errors.Is(err, ErrInvalidTimeZone) {
		t.Errorf("Expected ErrInvalidTimeZone, got %v", err)
	}
	if _, err := ToWire(time.Now(), ""); !errors.Is(err, ErrInvalidTimeZone) {
		t.Errorf("Expected ErrInvalidTimeZone for empty zone, got %v", err)
	}
	if ValidZone("Nowhere/Town") {
		t.Error("Expected Nowhere/Town to be invalid")
	}
	if !ValidZone("Europe/Berlin") {
		t.Error("Expected Europe/Berlin to be valid")
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	zones := []string{"America/Los_Angeles", "Europe/London", "Asia/Kolkata", "UTC"}
	in := time.Date(2023, 3, 14, 15, 9, 26, 0, time.UTC)
	for _, tz := range zones {
		local, err := UTCToLocal(in, tz)
		if err != nil {
			t.Fatalf("UTCToLocal(%s) failed: %v", tz, err)
		}
		back, err := LocalToUTC(local, tz)
		if err != nil {
			t.Fatalf("LocalToUTC(%s) failed: %v", tz, err)
		}
		if !back.Equal(in) {
			t.Errorf("%s: expected %v, got %v", tz, in, back)
		}
	}
}

func TestToWire(t *testing.T) {
	t.Parallel()

	got, err := ToWire(time.Date(2027, 12, 29, 0, 0, 0, 0, time.UTC), "America/Los_Angeles")
	if err != nil {
		t.Fatalf("ToWire failed: %v", err)
	}
	if got != "2027-12-29T08:00:00+0000" {
		t.Errorf("Expected 2027-12-29T08:00:00+0000, got %s", got)
	}
}

func TestIsAllDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   time.Time
		want bool
	}{
		{"midnight", time.Date(2022, 5, 1, 0, 0, 0, 0, time.UTC), true},
		{"hour", time.Date(2022, 5, 1, 1, 0, 0, 0, time.UTC), false},
		{"minute", time.Date(2022, 5, 1, 0, 1, 0, 0, time.UTC), false},
		{"second", time.Date(2022, 5, 1, 0, 0, 1, 0, time.UTC), false},
		{"microsecond", time.Date(2022, 5, 1, 0, 0, 0, 1000, time.UTC), false},
	}
	for _, tt := range tests {
		tt := tt
		if got := IsAllDay(tt.in); got != tt.want {
			t.Errorf("%s: expected %v, got %v", tt.name, tt.want, got)
		}
	}
}

func TestNextDay(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Time
		want time.Time
	}{
		{time.Date(2027, 12, 31, 0, 0, 0, 0, time.UTC), time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 2, 28, 0, 0, 0, 0, time.UTC), time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)},
		{time.Date(2023, 4, 30, 10, 0, 0, 0, time.UTC), time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		tt := tt
		if got := NextDay(tt.in); !got.Equal(tt.want) {
			t.Errorf("NextDay(%v): expected %v, got %v", tt.in, tt.want, got)
		}
	}
}

func TestStamp(t *testing.T) {
	t.Parallel()

	day := time.Date(2022, 1, 9, 17, 0, 0, 0, time.UTC)
	if got := Stamp(day); got != 20220109 {
		t.Errorf("Expected 20220109, got %d", got)
	}
	parsed, err := ParseStamp(20220109)
	if err != nil {
		t.Fatalf("ParseStamp failed: %v", err)
	}
	if parsed.Year() != 2022 || parsed.Month() != time.January || parsed.Day() != 9 {
		t.Errorf("Unexpected parsed stamp %v", parsed)
	}
	if _, err := ParseStamp(20221399); err == nil {
		t.Error("Expected error for invalid stamp")
	}
}
