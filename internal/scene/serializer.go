package scene

import (
	"fmt"
	"strings"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/media"
)

// Serialize renders a summarized scene as the canonical text that gets
// embedded and indexed. The rendering is a pure function of the record, so
// identical records always embed identically.
//
// The first scene of a video opens with "This is the first scene."; every
// later one opens with "Previously: <carried summary>".
func Serialize(rec domain.SummarizedChunkRecord) string {
	var contextPart string
	if rec.PreviousDescription == nil {
		contextPart = "This is the first scene."
	} else {
		contextPart = fmt.Sprintf("Previously: %s", *rec.PreviousDescription)
	}

	text := fmt.Sprintf("%s In this scene from %ss to %ss, %s The dialogue includes: \"%s\"",
		contextPart,
		media.FormatSeconds(rec.StartTime),
		media.FormatSeconds(rec.EndTime),
		rec.SceneSummary,
		rec.Transcript,
	)
	return strings.TrimSpace(text)
}
