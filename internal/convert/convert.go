package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/simplelearn-uz/convertbot/internal/formats"
	"github.com/simplelearn-uz/convertbot/types"
)

// adapter performs one conversion for its media family, writing the result
// to outputPath. It must never leave a half-written outputPath behind a nil
// error; the dispatcher removes outputPath whenever the adapter fails.
type adapter interface {
	convert(ctx context.Context, inputPath, outputPath, targetExt string) error
}

// Timeouts scale with media duration risk.
var familyTimeouts = map[formats.Family]time.Duration{
	formats.FamilyImage:      30 * time.Second,
	formats.FamilyVector:     30 * time.Second,
	formats.FamilyDocument:   30 * time.Second,
	formats.FamilyStructured: 30 * time.Second,
	formats.FamilyAudio:      5 * time.Minute,
	formats.FamilyVideo:      10 * time.Minute,
}

// Dispatcher routes an input file to the adapter owning its extension's
// family. Format-pair legality is enforced at menu time by the format graph;
// an illegal pair that slips through surfaces as the adapter's own failure.
type Dispatcher struct {
	tempDir  string
	adapters map[formats.Family]adapter
}

func NewDispatcher(tempDir string, runner Runner) *Dispatcher {
	if tempDir == "" {
		tempDir = filepath.Join(os.TempDir(), "convertbot")
	}
	_ = os.MkdirAll(tempDir, 0o755)

	return &Dispatcher{
		tempDir: tempDir,
		adapters: map[formats.Family]adapter{
			formats.FamilyImage:      &imageAdapter{runner: runner},
			formats.FamilyVector:     &vectorAdapter{runner: runner},
			formats.FamilyDocument:   &documentAdapter{runner: runner},
			formats.FamilyAudio:      &audioAdapter{runner: runner},
			formats.FamilyVideo:      &videoAdapter{runner: runner},
			formats.FamilyStructured: &dataAdapter{runner: runner},
		},
	}
}

// TempDir is where the dispatcher writes outputs; callers place inputs here
// too so everything lives under one cleanup root.
func (d *Dispatcher) TempDir() string {
	return d.tempDir
}

// Convert runs one conversion and returns the output path. The caller owns
// deletion of both input and output on every exit path; on failure Convert
// guarantees the output path is already gone.
func (d *Dispatcher) Convert(ctx context.Context, inputPath, targetExt string) (string, error) {
	ext := formats.Extension(inputPath)
	targetExt = formats.Normalize(targetExt)

	family := formats.FamilyOf(ext)
	if family == formats.FamilyUnknown {
		return "", errors.Wrapf(types.ErrUnsupportedFormat, "no adapter family for .%s", ext)
	}
	a := d.adapters[family]

	outputPath := filepath.Join(d.tempDir, fmt.Sprintf("%s_result.%s", uuid.NewString(), targetExt))

	ctx, cancel := context.WithTimeout(ctx, familyTimeouts[family])
	defer cancel()

	start := time.Now()
	if err := a.convert(ctx, inputPath, outputPath, targetExt); err != nil {
		_ = os.Remove(outputPath)
		return "", errors.Wrapf(types.ErrConversionFailed, "%s -> %s: %v", ext, targetExt, err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return "", errors.Wrapf(types.ErrConversionFailed, "result file missing: %v", err)
	}
	if info.Size() == 0 {
		_ = os.Remove(outputPath)
		return "", errors.Wrapf(types.ErrConversionFailed, "result file empty: %s", outputPath)
	}

	log.Infof("converted %s -> %s in %s (%d bytes)", ext, targetExt, time.Since(start).Round(time.Millisecond), info.Size())
	return outputPath, nil
}
