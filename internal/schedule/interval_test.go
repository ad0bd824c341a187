package schedule

import (
	"errors"
	"testing"
)

func TestParseClockStrict(t *testing.T) {
	cases := []struct {
		in      string
		want    ClockTime
		wantErr bool
	}{
		{in: "09:00", want: 9 * 60},
		{in: "9:30", want: 9*60 + 30},
		{in: "00:00", want: 0},
		{in: "23:59", want: 23*60 + 59},
		{in: "10:15:30", want: 10*60 + 15},
		{in: "24:00", want: 24 * 60},
		{in: "24:00:00", want: 24 * 60},
		{in: "", wantErr: true},
		{in: "9am", wantErr: true},
		{in: "24:01", wantErr: true},
		{in: "25:00", wantErr: true},
		{in: "09:65", wantErr: true},
		{in: "09-00", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseClock(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error, got %v", tc.in, got)
			} else if !errors.Is(err, ErrInvalidTimeFormat) {
				t.Errorf("ParseClock(%q): error %v is not ErrInvalidTimeFormat", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseClockNeverDefaults(t *testing.T) {
	// A malformed time must fail loudly, not fall back to some opening
	// time and silently admit a wrong-time booking.
	if _, err := ParseClock("garbage"); err == nil {
		t.Fatal("expected malformed clock to be rejected")
	}
}

func TestClockAdd(t *testing.T) {
	c, err := ParseClock("23:00")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	end, err := c.Add(60)
	if err != nil {
		t.Fatalf("23:00 + 60m should reach end of day, got %v", err)
	}
	if end.String() != "24:00" {
		t.Fatalf("end = %s, want 24:00", end)
	}
	// A stored day-end round-trips through the parser.
	back, err := ParseClock(end.String())
	if err != nil || back != end {
		t.Fatalf("ParseClock(%q) = %d, %v; want %d", end.String(), back, err, end)
	}
	if _, err := c.Add(61); err == nil {
		t.Fatal("expected cross-midnight addition to fail")
	}
	if _, err := ClockTime(30).Add(-60); err == nil {
		t.Fatal("expected negative clock to fail")
	}
}

func TestParseDate(t *testing.T) {
	if _, err := ParseDate("2026-02-30"); err == nil {
		t.Fatal("expected impossible date to fail")
	}
	if _, err := ParseDate("03/15/2026"); err == nil {
		t.Fatal("expected non-ISO date to fail")
	}
	got, err := ParseDate("2026-03-15")
	if err != nil || got != "2026-03-15" {
		t.Fatalf("ParseDate = %q, %v", got, err)
	}
}

func mustInterval(t *testing.T, start string, duration int) Interval {
	t.Helper()
	c, err := ParseClock(start)
	if err != nil {
		t.Fatalf("parse %q: %v", start, err)
	}
	iv, err := NewInterval(c, duration)
	if err != nil {
		t.Fatalf("interval %q+%d: %v", start, duration, err)
	}
	return iv
}

func TestOverlaps(t *testing.T) {
	base := mustInterval(t, "10:00", 60)
	cases := []struct {
		name  string
		other Interval
		want  bool
	}{
		{"identical", mustInterval(t, "10:00", 60), true},
		{"contained", mustInterval(t, "10:15", 15), true},
		{"straddles start", mustInterval(t, "09:30", 60), true},
		{"straddles end", mustInterval(t, "10:30", 60), true},
		{"touching before", mustInterval(t, "09:00", 60), false},
		{"touching after", mustInterval(t, "11:00", 60), false},
		{"disjoint", mustInterval(t, "13:00", 30), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := base.Overlaps(tc.other); got != tc.want {
				t.Fatalf("Overlaps = %v, want %v", got, tc.want)
			}
			// Overlap is symmetric.
			if got := tc.other.Overlaps(base); got != tc.want {
				t.Fatalf("reversed Overlaps = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGapAndWithinBuffer(t *testing.T) {
	a := mustInterval(t, "10:00", 60) // 10:00-11:00
	b := mustInterval(t, "11:10", 30) // 11:10-11:40

	if got := a.Gap(b); got != 10 {
		t.Fatalf("Gap = %d, want 10", got)
	}
	if got := b.Gap(a); got != 10 {
		t.Fatalf("reversed Gap = %d, want 10", got)
	}
	if !a.WithinBuffer(b, 15) {
		t.Fatal("10-minute gap should violate a 15-minute buffer")
	}

	// Gap equal to the buffer satisfies the policy.
	c := mustInterval(t, "11:15", 30)
	if a.WithinBuffer(c, 15) {
		t.Fatal("15-minute gap should satisfy a 15-minute buffer")
	}

	// Overlap is not a buffer violation; it is an overlap.
	d := mustInterval(t, "10:30", 60)
	if a.WithinBuffer(d, 15) {
		t.Fatal("overlapping intervals must not report a buffer violation")
	}
}
