// Package thumbs shells out to ffmpeg/ffprobe for thumbnail frames and
// duration probing.
package thumbs

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes an external binary and returns its stdout.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// Generator wraps the ffmpeg and ffprobe binaries with a per-file timeout.
type Generator struct {
	FFmpegPath  string
	FFprobePath string
	Timeout     time.Duration
	Run         CommandRunner
}

// NewGenerator constructs a Generator using the provided binary paths.
func NewGenerator(ffmpegPath, ffprobePath string, timeout time.Duration) *Generator {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	if ffprobePath == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Generator{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,
		Timeout:     timeout,
		Run:         defaultCommandRunner,
	}
}

// Capture extracts a single JPEG frame from three seconds into the video.
func (g *Generator) Capture(ctx context.Context, videoPath string) ([]byte, error) {
	if g.Run == nil {
		g.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	out, err := g.Run(execCtx, g.FFmpegPath,
		"-v", "error",
		"-ss", "00:00:03",
		"-i", videoPath,
		"-frames:v", "1",
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"pipe:1",
	)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg capture %s: %w", videoPath, err)
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("ffmpeg capture %s: produced no frame", videoPath)
	}

	return out, nil
}

// Duration probes the container duration in seconds.
func (g *Generator) Duration(ctx context.Context, videoPath string) (float64, error) {
	if g.Run == nil {
		g.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	out, err := g.Run(execCtx, g.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		videoPath,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", videoPath, err)
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: parse duration: %w", videoPath, err)
	}

	return seconds, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return nil, fmt.Errorf("%w: %s", err, detail)
		}
		return nil, err
	}

	return stdout.Bytes(), nil
}
