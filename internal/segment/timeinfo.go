package segment

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/media"
)

// WriteTimeInfo writes the per-chunk time_info record. The field set and
// order are fixed; downstream stages and external consumers parse this file.
func WriteTimeInfo(path string, chunk domain.Chunk) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "set_number: %d\n", chunk.Ordinal)
	fmt.Fprintf(w, "start_time_seconds: %.3f\n", chunk.StartTime)
	fmt.Fprintf(w, "end_time_seconds: %.3f\n", chunk.EndTime)
	fmt.Fprintf(w, "start_time_formatted: %s\n", media.FormatTimestamp(chunk.StartTime))
	fmt.Fprintf(w, "end_time_formatted: %s\n", media.FormatTimestamp(chunk.EndTime))
	return w.Flush()
}

// ReadTimeInfo parses a time_info record back into start/end times. Missing
// or malformed fields are an error; callers treat that as a skip condition
// for the chunk, not a fatal one.
func ReadTimeInfo(path string) (start, end float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, err
	}
	defer f.Close()

	var haveStart, haveEnd bool
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "start_time_seconds:"):
			start, err = parseSecondsField(line)
			if err != nil {
				return 0, 0, err
			}
			haveStart = true
		case strings.HasPrefix(line, "end_time_seconds:"):
			end, err = parseSecondsField(line)
			if err != nil {
				return 0, 0, err
			}
			haveEnd = true
		}
	}
	if err := sc.Err(); err != nil {
		return 0, 0, err
	}
	if !haveStart || !haveEnd {
		return 0, 0, fmt.Errorf("time info %s: missing start or end time", path)
	}
	return start, end, nil
}

func parseSecondsField(line string) (float64, error) {
	_, value, ok := strings.Cut(line, ":")
	if !ok {
		return 0, fmt.Errorf("malformed time info line %q", line)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0, fmt.Errorf("malformed time info line %q: %w", line, err)
	}
	return v, nil
}
