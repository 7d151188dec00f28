package media

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Tools invokes ffmpeg/ffprobe for duration probing and per-chunk extraction.
// The binaries are looked up on PATH unless explicit paths are configured.
type Tools struct {
	FFmpegPath  string
	FFprobePath string
}

// NewTools returns a Tools using the default binary names.
func NewTools() *Tools {
	return &Tools{FFmpegPath: "ffmpeg", FFprobePath: "ffprobe"}
}

// ProbeDuration returns the total duration of the media file in seconds.
// A missing file, an unreadable container, or a non-positive duration is an
// error; callers treat this as fatal for the whole video.
func (t *Tools) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, t.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	var out, errOut bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w (%s)", path, err, strings.TrimSpace(errOut.String()))
	}
	s := strings.TrimSpace(out.String())
	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: unparsable duration %q: %w", path, s, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("ffprobe %s: non-positive duration %v", path, d)
	}
	return d, nil
}

// ExtractClipAudio writes the [start, start+duration) audio of the video to
// audioOut as mono mp3.
func (t *Tools) ExtractClipAudio(ctx context.Context, videoPath, audioOut string, start, duration float64) error {
	args := []string{
		"-y",
		"-ss", formatArg(start),
		"-i", videoPath,
		"-t", formatArg(duration),
		"-vn", "-q:a", "2",
		audioOut,
	}
	return t.runFFmpeg(ctx, args)
}

// ExtractClipFrames samples frames from [start, start+duration) at one frame
// every intervalSec seconds, writing frame_0001.png, frame_0002.png, ... into
// framesDir. The first frame is grabbed at the clip start, so frame n sits at
// offset (n-1)*intervalSec from the chunk start.
func (t *Tools) ExtractClipFrames(ctx context.Context, videoPath, framesDir string, start, duration, intervalSec float64) error {
	pattern := filepath.Join(framesDir, "frame_%04d.png")
	args := []string{
		"-y",
		"-ss", formatArg(start),
		"-i", videoPath,
		"-t", formatArg(duration),
		"-vf", fmt.Sprintf("fps=1/%s", formatArg(intervalSec)),
		"-q:v", "2",
		pattern,
	}
	return t.runFFmpeg(ctx, args)
}

func (t *Tools) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, t.FFmpegPath, args...)
	var errOut bytes.Buffer
	cmd.Stderr = &errOut
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s: %w (%s)", strings.Join(args, " "), err, tail(errOut.String(), 512))
	}
	return nil
}

func formatArg(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// tail returns the last n bytes of s, for keeping ffmpeg stderr in errors
// without flooding logs.
func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
