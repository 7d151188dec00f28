package media

import "testing"

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero", 0, "00:00:00.000"},
		{"sub-second", 0.5, "00:00:00.500"},
		{"seconds only", 15, "00:00:15.000"},
		{"minutes", 132.482, "00:02:12.482"},
		{"hours", 3725.04, "01:02:05.040"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTimestamp(tt.seconds); got != tt.want {
				t.Errorf("FormatTimestamp(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestFormatSeconds(t *testing.T) {
	tests := []struct {
		name    string
		seconds float64
		want    string
	}{
		{"zero keeps fraction", 0, "0.0"},
		{"whole keeps fraction", 15, "15.0"},
		{"fraction preserved", 132.482, "132.482"},
		{"trailing zeros trimmed", 7.50, "7.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSeconds(tt.seconds); got != tt.want {
				t.Errorf("FormatSeconds(%v) = %q, want %q", tt.seconds, got, tt.want)
			}
		})
	}
}

func TestRound3(t *testing.T) {
	if got := Round3(1.23456); got != 1.235 {
		t.Errorf("Round3(1.23456) = %v, want 1.235", got)
	}
	if got := Round3(15.0); got != 15.0 {
		t.Errorf("Round3(15.0) = %v, want 15.0", got)
	}
}
