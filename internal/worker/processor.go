// Package worker consumes variant jobs and writes processed videos back
// to object storage. Writing the output object is the only completion
// signal it emits; the gateway's status probe discovers it there.
package worker

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"video-orchestrator/internal/models"
)

// ObjectStore is the slice of the storage client the processor needs.
type ObjectStore interface {
	OpenVideo(ctx context.Context, key string) (io.ReadCloser, int64, error)
	UploadVideo(ctx context.Context, key string, r io.Reader, size int64) error
}

type Processor struct {
	store      ObjectStore
	ffmpegPath string
	log        *zap.Logger
}

func NewProcessor(store ObjectStore, ffmpegPath string, log *zap.Logger) *Processor {
	if ffmpegPath == "" {
		ffmpegPath = "ffmpeg"
	}
	return &Processor{store: store, ffmpegPath: ffmpegPath, log: log}
}

// variantArgs builds the ffmpeg invocation for a variant. v1 is a 720p
// re-encode, v2 a stylized grayscale/contrast pass.
func variantArgs(variant models.Variant, inPath, outPath string) ([]string, error) {
	common := []string{"-y", "-i", inPath}
	switch variant {
	case models.VariantV1:
		return append(common,
			"-vf", "scale=-2:720",
			"-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
			"-c:a", "copy",
			outPath,
		), nil
	case models.VariantV2:
		return append(common,
			"-vf", "hue=s=0,eq=contrast=1.2",
			"-c:v", "libx264", "-preset", "veryfast", "-crf", "23",
			"-c:a", "copy",
			outPath,
		), nil
	default:
		return nil, fmt.Errorf("unknown variant %q", variant)
	}
}

// ProcessJob downloads the original, applies the variant transform and
// uploads the result under the job's output key. Temp files are removed
// on every exit path.
func (p *Processor) ProcessJob(ctx context.Context, job models.JobMessage) error {
	p.log.Info("processing variant job",
		zap.String("task_id", job.TaskID),
		zap.String("variant", string(job.Variant)),
		zap.String("input_key", job.InputKey))

	workDir, err := os.MkdirTemp("", "variant-*")
	if err != nil {
		return fmt.Errorf("create work dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	inPath := filepath.Join(workDir, "input.mp4")
	outPath := filepath.Join(workDir, "output.mp4")

	obj, _, err := p.store.OpenVideo(ctx, job.InputKey)
	if err != nil {
		return fmt.Errorf("download input: %w", err)
	}
	defer obj.Close()

	in, err := os.Create(inPath)
	if err != nil {
		return fmt.Errorf("create input file: %w", err)
	}
	if _, err := io.Copy(in, obj); err != nil {
		in.Close()
		return fmt.Errorf("write input file: %w", err)
	}
	in.Close()

	args, err := variantArgs(job.Variant, inPath, outPath)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, p.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg %s transform failed: %w (%s)", job.Variant, err, stderr.String())
	}

	out, err := os.Open(outPath)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer out.Close()

	stat, err := out.Stat()
	if err != nil {
		return fmt.Errorf("stat output file: %w", err)
	}

	if err := p.store.UploadVideo(ctx, job.OutputKey, out, stat.Size()); err != nil {
		return fmt.Errorf("upload output: %w", err)
	}

	p.log.Info("variant job done",
		zap.String("task_id", job.TaskID),
		zap.String("variant", string(job.Variant)),
		zap.String("output_key", job.OutputKey))
	return nil
}
