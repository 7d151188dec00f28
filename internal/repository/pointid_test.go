package repository

import "testing"

// TestDeterministicPointID verifies that the same input always produces the same UUID
func TestDeterministicPointID(t *testing.T) {
	testCases := []struct {
		name       string
		sceneID    string
		collection string
	}{
		{
			name:       "typical scene",
			sceneID:    "movie.mp4_chunk_001",
			collection: "video_scenes",
		},
		{
			name:       "late chunk",
			sceneID:    "lecture.mp4_chunk_042",
			collection: "video_scenes",
		},
		{
			name:       "filename with spaces",
			sceneID:    "my holiday video.mp4_chunk_003",
			collection: "video_scenes",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			uuid1 := DeterministicPointID(tc.sceneID, tc.collection)
			uuid2 := DeterministicPointID(tc.sceneID, tc.collection)
			uuid3 := DeterministicPointID(tc.sceneID, tc.collection)

			if uuid1 != uuid2 {
				t.Errorf("UUID mismatch: first=%s, second=%s", uuid1, uuid2)
			}
			if uuid1 != uuid3 {
				t.Errorf("UUID mismatch: first=%s, third=%s", uuid1, uuid3)
			}

			if len(uuid1) != 36 {
				t.Errorf("unexpected UUID length: %d (%s)", len(uuid1), uuid1)
			}
		})
	}
}

func TestDeterministicPointIDUniqueness(t *testing.T) {
	uuid1 := DeterministicPointID("movie.mp4_chunk_001", "video_scenes")
	uuid2 := DeterministicPointID("movie.mp4_chunk_002", "video_scenes")
	uuid3 := DeterministicPointID("movie.mp4_chunk_001", "video_scenes_test")

	if uuid1 == uuid2 {
		t.Error("different scenes produced the same UUID")
	}
	if uuid1 == uuid3 {
		t.Error("different collections produced the same UUID")
	}
}
