// Package thumbnail derives a still-frame preview from a stored video.
// Extraction shells out to ffmpeg; the frame is then downscaled before
// upload so first-request derivation stays cheap to serve afterwards.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"image/jpeg"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/disintegration/imaging"
)

const (
	frameTimestamp = "00:00:01"
	maxWidth       = 480
	jpegQuality    = 85
)

type Extractor struct {
	ffmpegPath string
}

func NewExtractor(ffmpegPath string) *Extractor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Extractor{ffmpegPath: ffmpegPath}
}

// Extract grabs one frame from the video at videoPath and returns it as
// a downscaled JPEG. The intermediate frame file lives next to the video
// and is removed on every exit path.
func (e *Extractor) Extract(ctx context.Context, videoPath string) ([]byte, error) {
	framePath := filepath.Join(filepath.Dir(videoPath), "frame-"+filepath.Base(videoPath)+".jpg")
	defer os.Remove(framePath)

	cmd := exec.CommandContext(ctx, e.ffmpegPath,
		"-y",
		"-ss", frameTimestamp,
		"-i", videoPath,
		"-frames:v", "1",
		"-q:v", "2",
		framePath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg frame extraction failed: %w (%s)", err, stderr.String())
	}

	frame, err := imaging.Open(framePath)
	if err != nil {
		return nil, fmt.Errorf("failed to decode extracted frame: %w", err)
	}
	if frame.Bounds().Dx() > maxWidth {
		frame = imaging.Resize(frame, maxWidth, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, frame, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
