package prompts

import (
	"strings"
	"testing"

	"github.com/clipquery/clipquery/internal/domain"
)

func TestSummaryUserPromptFirstScene(t *testing.T) {
	rec := domain.ContextRecord{
		ChunkRecord: domain.ChunkRecord{
			StartTime:  0,
			EndTime:    15,
			Transcript: "Hello there.",
			Visuals: []domain.VisualCaption{
				{Timestamp: 0, Description: "A man waves at the camera."},
				{Timestamp: 2, Description: "He sits down at a desk."},
			},
		},
	}

	got := SummaryUserPrompt(rec)

	if !strings.Contains(got, firstSceneContext) {
		t.Errorf("first scene prompt missing opening context:\n%s", got)
	}
	if !strings.Contains(got, "Scene from 0.0s to 15.0s.") {
		t.Errorf("prompt missing scene time range:\n%s", got)
	}
	if !strings.Contains(got, "- At 0.0s: A man waves at the camera.") {
		t.Errorf("prompt missing first visual line:\n%s", got)
	}
	if !strings.Contains(got, "- At 2.0s: He sits down at a desk.") {
		t.Errorf("prompt missing second visual line:\n%s", got)
	}
}

func TestSummaryUserPromptCarriedContext(t *testing.T) {
	prev := "A man introduced himself."
	rec := domain.ContextRecord{
		ChunkRecord:     domain.ChunkRecord{StartTime: 15, EndTime: 30},
		PreviousContext: &prev,
	}

	got := SummaryUserPrompt(rec)

	if !strings.Contains(got, prev) {
		t.Errorf("prompt missing carried context:\n%s", got)
	}
	if strings.Contains(got, firstSceneContext) {
		t.Errorf("prompt should not claim to be the first scene:\n%s", got)
	}
	if !strings.Contains(got, "(no dialogue)") {
		t.Errorf("prompt missing empty-dialogue placeholder:\n%s", got)
	}
	if !strings.Contains(got, "(no visual observations)") {
		t.Errorf("prompt missing empty-visuals placeholder:\n%s", got)
	}
}
