package convert

import (
	"context"

	"github.com/pkg/errors"
)

type audioAdapter struct {
	runner Runner
}

func (a *audioAdapter) convert(ctx context.Context, inputPath, outputPath, targetExt string) error {
	if !a.runner.LookPath("ffmpeg") {
		return errors.New("ffmpeg is not installed")
	}
	_, err := a.runner.Run(ctx, "ffmpeg", "-i", inputPath, "-y", outputPath)
	return err
}

type videoAdapter struct {
	runner Runner
}

func (a *videoAdapter) convert(ctx context.Context, inputPath, outputPath, targetExt string) error {
	if !a.runner.LookPath("ffmpeg") {
		return errors.New("ffmpeg is not installed")
	}
	if targetExt == "gif" {
		// Reduced frame rate and bounded width keep GIF output sizes sane.
		_, err := a.runner.Run(ctx, "ffmpeg",
			"-i", inputPath,
			"-vf", "fps=10,scale=480:-1:flags=lanczos",
			"-c:v", "gif",
			"-y", outputPath,
		)
		return err
	}
	_, err := a.runner.Run(ctx, "ffmpeg", "-i", inputPath, "-y", outputPath)
	return err
}
