package prompts

import (
	"fmt"
	"strings"

	"github.com/clipquery/clipquery/internal/domain"
	"github.com/clipquery/clipquery/internal/media"
)

// ============================================================================
// Frame Captioning Prompts (Vision Language Model)
// ============================================================================

// CaptionSystemPrompt defines the role and rules for frame description.
// The captions feed the scene summarizer, so they favor concrete, searchable
// detail over commentary.
const CaptionSystemPrompt = `You are a video frame analyst. Describe exactly what is visible in the frame for a downstream scene summarizer.

Rules:
- One to two sentences of plain prose, no lists or headers.
- Name the setting, the people or objects present, and any visible action.
- Transcribe any on-screen text verbatim.
- Describe only what is visible; never speculate about what happens before or after this frame.`

// CaptionUserPrompt is the per-frame instruction sent with the image.
const CaptionUserPrompt = `Describe this video frame.`

// ============================================================================
// Scene Summarization Prompts
// ============================================================================

// SummarySystemPrompt defines the role for scene summarization. The model
// sees the running context, the dialogue, and the timestamped visuals, and
// must compress them into one sentence.
const SummarySystemPrompt = `You are a video scene summarizer. Given the story so far, a scene's dialogue, and timestamped visual observations, write exactly ONE sentence that captures what happens in this scene.

Rules:
- Output a single declarative sentence, nothing else.
- Weave together the dialogue and the visuals; do not quote timestamps.
- Stay consistent with the story so far, but summarize only the current scene.
- Never mention frames, captions, transcripts, or that you are summarizing.`

// summaryUserTemplate renders the per-scene payload. Visual observations are
// listed one per line as "- At <ts>s: <description>".
const summaryUserTemplate = `Story so far:
%s

Scene from %ss to %ss.

Dialogue:
%s

Visual observations:
%s

Write one sentence summarizing this scene:`

const firstSceneContext = "This is the first scene of the video."

// SummaryUserPrompt builds the user message for one scene. A nil
// PreviousContext marks the first scene of the video.
func SummaryUserPrompt(rec domain.ContextRecord) string {
	contextPart := firstSceneContext
	if rec.PreviousContext != nil {
		contextPart = *rec.PreviousContext
	}

	dialogue := strings.TrimSpace(rec.Transcript)
	if dialogue == "" {
		dialogue = "(no dialogue)"
	}

	visuals := renderVisuals(rec.Visuals)

	return fmt.Sprintf(summaryUserTemplate,
		contextPart,
		media.FormatSeconds(rec.StartTime),
		media.FormatSeconds(rec.EndTime),
		dialogue,
		visuals,
	)
}

func renderVisuals(visuals []domain.VisualCaption) string {
	if len(visuals) == 0 {
		return "(no visual observations)"
	}
	lines := make([]string, 0, len(visuals))
	for _, v := range visuals {
		lines = append(lines, fmt.Sprintf("- At %ss: %s", media.FormatSeconds(v.Timestamp), v.Description))
	}
	return strings.Join(lines, "\n")
}
