package media

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// FormatTimestamp renders seconds as HH:MM:SS.mmm, the format used in
// time_info records.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	h := int(seconds) / 3600
	m := (int(seconds) % 3600) / 60
	s := seconds - float64(h*3600+m*60)
	return fmt.Sprintf("%02d:%02d:%06.3f", h, m, s)
}

// FormatSeconds renders a seconds value the way it appears in serialized
// scenes: shortest decimal form, but always with a fractional part, so
// 0 renders as "0.0" and 15 as "15.0".
func FormatSeconds(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// Round3 rounds a seconds value to millisecond precision for persisted
// records.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
