package segment

import (
	"math"
	"testing"
)

func TestPlanChunkCount(t *testing.T) {
	tests := []struct {
		name         string
		duration     float64
		chunkSeconds float64
		wantChunks   int
		wantLastLen  float64
	}{
		{"exact multiple", 30, 15, 2, 15},
		{"short tail", 40, 15, 3, 10},
		{"single short video", 7, 15, 1, 7},
		{"one second chunks", 5, 1, 5, 1},
		{"tiny tail", 30.5, 15, 3, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks, err := Plan(tt.duration, tt.chunkSeconds)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(chunks) != tt.wantChunks {
				t.Fatalf("got %d chunks, want %d", len(chunks), tt.wantChunks)
			}

			last := chunks[len(chunks)-1]
			if math.Abs(last.Duration()-tt.wantLastLen) > 1e-9 {
				t.Errorf("last chunk duration = %v, want %v", last.Duration(), tt.wantLastLen)
			}
			if last.EndTime != tt.duration {
				t.Errorf("last chunk ends at %v, want %v", last.EndTime, tt.duration)
			}
		})
	}
}

func TestPlanContiguity(t *testing.T) {
	chunks, err := Plan(100, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if chunks[0].StartTime != 0 {
		t.Errorf("first chunk starts at %v, want 0", chunks[0].StartTime)
	}
	for i := 1; i < len(chunks); i++ {
		if chunks[i].StartTime != chunks[i-1].EndTime {
			t.Errorf("gap between chunk %d and %d: %v != %v",
				i, i+1, chunks[i-1].EndTime, chunks[i].StartTime)
		}
		if chunks[i].Ordinal != i+1 {
			t.Errorf("chunk %d has ordinal %d", i, chunks[i].Ordinal)
		}
	}
}

func TestPlanChunkNames(t *testing.T) {
	chunks, err := Plan(40, 15)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"chunk_001", "chunk_002", "chunk_003"}
	for i, chunk := range chunks {
		if chunk.Name() != want[i] {
			t.Errorf("chunk %d name = %q, want %q", i, chunk.Name(), want[i])
		}
	}
}

func TestPlanRejectsNonPositiveDuration(t *testing.T) {
	for _, duration := range []float64{0, -1} {
		if _, err := Plan(duration, 15); err == nil {
			t.Errorf("Plan(%v, 15) succeeded, want error", duration)
		}
	}
}

func TestPlanRejectsNonPositiveChunkLength(t *testing.T) {
	if _, err := Plan(40, 0); err == nil {
		t.Error("Plan(40, 0) succeeded, want error")
	}
}
