package scene

import (
	"strings"
	"testing"

	"github.com/clipquery/clipquery/internal/domain"
)

func TestSerializeFirstScene(t *testing.T) {
	rec := domain.SummarizedChunkRecord{
		StartTime:    0,
		EndTime:      15,
		SceneSummary: "A man walks into a dimly lit bar.",
		Transcript:   "Give me the usual.",
	}

	got := Serialize(rec)
	want := `This is the first scene. In this scene from 0.0s to 15.0s, A man walks into a dimly lit bar. The dialogue includes: "Give me the usual."`
	if got != want {
		t.Errorf("Serialize:\n got %q\nwant %q", got, want)
	}
}

func TestSerializeWithCarriedContext(t *testing.T) {
	prev := "A man walks into a dimly lit bar."
	rec := domain.SummarizedChunkRecord{
		StartTime:           15,
		EndTime:             30,
		PreviousDescription: &prev,
		SceneSummary:        "The bartender pours him a drink.",
		Transcript:          "Rough day?",
	}

	got := Serialize(rec)
	if !strings.HasPrefix(got, "Previously: A man walks into a dimly lit bar.") {
		t.Errorf("serialized text does not open with carried context: %q", got)
	}
	if !strings.Contains(got, "from 15.0s to 30.0s") {
		t.Errorf("serialized text missing time range: %q", got)
	}
	if !strings.Contains(got, `The dialogue includes: "Rough day?"`) {
		t.Errorf("serialized text missing dialogue: %q", got)
	}
}

func TestSerializeDeterministic(t *testing.T) {
	prev := "Previous summary."
	rec := domain.SummarizedChunkRecord{
		StartTime:           30,
		EndTime:             40.5,
		PreviousDescription: &prev,
		SceneSummary:        "The scene summary.",
		Transcript:          "Some dialogue.",
	}

	first := Serialize(rec)
	for i := 0; i < 10; i++ {
		if got := Serialize(rec); got != first {
			t.Fatalf("serialization not deterministic: %q vs %q", got, first)
		}
	}
}

func TestSerializeEmptyTranscript(t *testing.T) {
	rec := domain.SummarizedChunkRecord{
		StartTime:    0,
		EndTime:      15,
		SceneSummary: "Silent opening shot of a skyline.",
	}

	got := Serialize(rec)
	if !strings.HasSuffix(got, `The dialogue includes: ""`) {
		t.Errorf("empty transcript should serialize as empty quotes: %q", got)
	}
}
