package convert

import (
	"context"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"

	"github.com/simplelearn-uz/convertbot/internal/formats"
)

// imageAdapter re-encodes raster images. Formats imaging can encode are
// handled in process; webp and raster->pdf go through ImageMagick.
type imageAdapter struct {
	runner Runner
}

func (a *imageAdapter) convert(ctx context.Context, inputPath, outputPath, targetExt string) error {
	src := formats.Extension(inputPath)
	if targetExt == "pdf" || targetExt == "webp" || src == "webp" {
		return runMagick(ctx, a.runner, inputPath, outputPath)
	}

	img, err := imaging.Open(inputPath)
	if err != nil {
		return errors.Wrap(err, "decode image")
	}

	// JPEG and BMP carry no alpha channel; matte transparent and palette
	// sources onto white before encoding.
	if targetExt == "jpg" || targetExt == "jpeg" || targetExt == "bmp" {
		img = flattenAlpha(img)
	}

	if err := imaging.Save(img, outputPath); err != nil {
		return errors.Wrapf(err, "encode %s", targetExt)
	}
	return nil
}

func flattenAlpha(img image.Image) image.Image {
	bounds := img.Bounds()
	flat := imaging.New(bounds.Dx(), bounds.Dy(), color.White)
	draw.Draw(flat, flat.Bounds(), img, bounds.Min, draw.Over)
	return flat
}

// vectorAdapter rasterizes SVG via ImageMagick. The background stays
// transparent instead of being matted to white.
type vectorAdapter struct {
	runner Runner
}

func (a *vectorAdapter) convert(ctx context.Context, inputPath, outputPath, targetExt string) error {
	name, ok := magickCommand(a.runner)
	if !ok {
		return errors.New("ImageMagick is not installed")
	}
	_, err := a.runner.Run(ctx, name, "-background", "none", inputPath, outputPath)
	return err
}

func magickCommand(runner Runner) (string, bool) {
	if runner.LookPath("magick") {
		return "magick", true
	}
	if runner.LookPath("convert") {
		return "convert", true
	}
	return "", false
}

func runMagick(ctx context.Context, runner Runner, args ...string) error {
	name, ok := magickCommand(runner)
	if !ok {
		return errors.New("ImageMagick is not installed")
	}
	_, err := runner.Run(ctx, name, args...)
	return err
}
