package quarter

import (
	"testing"
	"time"
)

func TestBounds(t *testing.T) {
	utc := time.UTC

	tests := []struct {
		name      string
		in        time.Time
		wantStart time.Time
		wantEnd   time.Time
	}{
		{
			name:      "Mid Quarter",
			in:        time.Date(2025, time.August, 14, 12, 30, 0, 0, utc),
			wantStart: time.Date(2025, time.July, 1, 0, 0, 0, 0, utc),
			wantEnd:   time.Date(2025, time.October, 1, 0, 0, 0, 0, utc),
		},
		{
			name:      "First Instant Of Year",
			in:        time.Date(2025, time.January, 1, 0, 0, 0, 0, utc),
			wantStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, utc),
			wantEnd:   time.Date(2025, time.April, 1, 0, 0, 0, 0, utc),
		},
		{
			name:      "Last Instant Of Q1",
			in:        time.Date(2025, time.March, 31, 23, 59, 59, 999999999, utc),
			wantStart: time.Date(2025, time.January, 1, 0, 0, 0, 0, utc),
			wantEnd:   time.Date(2025, time.April, 1, 0, 0, 0, 0, utc),
		},
		{
			name:      "Q4 Crosses Year End",
			in:        time.Date(2025, time.December, 31, 18, 0, 0, 0, utc),
			wantStart: time.Date(2025, time.October, 1, 0, 0, 0, 0, utc),
			wantEnd:   time.Date(2026, time.January, 1, 0, 0, 0, 0, utc),
		},
		{
			name:      "Leap Day",
			in:        time.Date(2024, time.February, 29, 9, 0, 0, 0, utc),
			wantStart: time.Date(2024, time.January, 1, 0, 0, 0, 0, utc),
			wantEnd:   time.Date(2024, time.April, 1, 0, 0, 0, 0, utc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := Bounds(tt.in)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			if !end.Equal(tt.wantEnd) {
				t.Errorf("end = %v, want %v", end, tt.wantEnd)
			}
		})
	}
}

func TestBoundsUsesLocation(t *testing.T) {
	// 23:30 on Mar 31 in UTC is already Q2 in a UTC+10 calendar.
	brisbane := time.FixedZone("AEST", 10*60*60)
	in := time.Date(2025, time.March, 31, 23, 30, 0, 0, time.UTC).In(brisbane)

	start, end := Bounds(in)
	if start.Month() != time.April {
		t.Fatalf("start month = %v, want April", start.Month())
	}
	if got := end.Month(); got != time.July {
		t.Fatalf("end month = %v, want July", got)
	}
	if _, offset := start.Zone(); offset != 10*60*60 {
		t.Errorf("start offset = %d, want %d", offset, 10*60*60)
	}
}

func TestContains(t *testing.T) {
	start := time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   time.Time
		want bool
	}{
		{"Start Is Inclusive", start, true},
		{"End Is Exclusive", end, false},
		{"Inside", time.Date(2025, time.August, 15, 0, 0, 0, 0, time.UTC), true},
		{"Just Before Start", start.Add(-time.Nanosecond), false},
		{"Just Before End", end.Add(-time.Nanosecond), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Contains(tt.ts, start, end); got != tt.want {
				t.Errorf("Contains(%v) = %v, want %v", tt.ts, got, tt.want)
			}
		})
	}
}

func TestLabelParseRoundTrip(t *testing.T) {
	start := time.Date(2025, time.October, 1, 0, 0, 0, 0, time.UTC)

	label := Label(start)
	if label != "2025-Q4" {
		t.Fatalf("Label = %q, want %q", label, "2025-Q4")
	}

	parsed, err := Parse(label, time.UTC)
	if err != nil {
		t.Fatalf("Parse(%q) returned error: %v", label, err)
	}
	if !parsed.Equal(start) {
		t.Errorf("Parse(%q) = %v, want %v", label, parsed, start)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, label := range []string{"", "2025", "2025-Q5", "2025-Q0", "Q2-2025", "20a5-Q1"} {
		if _, err := Parse(label, time.UTC); err == nil {
			t.Errorf("Parse(%q) succeeded, want error", label)
		}
	}
}
