package convert

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simplelearn-uz/convertbot/types"
)

// fakeRunner stands in for external tools. Each call is recorded; handler
// decides the outcome.
type fakeRunner struct {
	calls   [][]string
	missing map[string]bool
	handler func(name string, args []string) ([]byte, error)
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	if f.handler != nil {
		return f.handler(name, args)
	}
	return nil, nil
}

func (f *fakeRunner) LookPath(name string) bool {
	return !f.missing[name]
}

func writeTestPNG(t *testing.T, dir string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 10, B: 10, A: 128}) // semi-transparent
		}
	}
	path := filepath.Join(dir, "input.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestConvertUnknownFamily(t *testing.T) {
	d := NewDispatcher(t.TempDir(), &fakeRunner{})

	_, err := d.Convert(context.Background(), "/tmp/input.exe", "pdf")
	assert.ErrorIs(t, err, types.ErrUnsupportedFormat)
}

func TestConvertImageInProcess(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{}
	d := NewDispatcher(dir, runner)

	input := writeTestPNG(t, dir)
	out, err := d.Convert(context.Background(), input, "jpg")
	require.NoError(t, err)
	defer os.Remove(out)

	info, err := os.Stat(out)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	assert.Empty(t, runner.calls, "raster re-encode must not spawn external tools")
}

func TestConvertToolFailureIsNormalized(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			return []byte("boom"), errors.New("exit status 1")
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "song.mp3")
	require.NoError(t, os.WriteFile(input, []byte("not really audio"), 0o644))

	_, err := d.Convert(context.Background(), input, "wav")
	assert.ErrorIs(t, err, types.ErrConversionFailed)
}

func TestConvertHalfWrittenOutputRemoved(t *testing.T) {
	dir := t.TempDir()
	var partial string
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			// simulate ffmpeg dying after writing part of the output
			partial = args[len(args)-1]
			_ = os.WriteFile(partial, []byte("partial"), 0o644)
			return nil, errors.New("killed")
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	_, err := d.Convert(context.Background(), input, "mkv")
	assert.ErrorIs(t, err, types.ErrConversionFailed)
	_, statErr := os.Stat(partial)
	assert.True(t, os.IsNotExist(statErr), "failed output must not survive")
}

func TestConvertEmptyResultIsFailure(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			_ = os.WriteFile(args[len(args)-1], nil, 0o644)
			return nil, nil
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "song.flac")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	_, err := d.Convert(context.Background(), input, "mp3")
	assert.ErrorIs(t, err, types.ErrConversionFailed)
}

func TestConvertVideoToGIFArgs(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			return nil, os.WriteFile(args[len(args)-1], []byte("gif"), 0o644)
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "clip.mp4")
	require.NoError(t, os.WriteFile(input, []byte("x"), 0o644))

	out, err := d.Convert(context.Background(), input, "gif")
	require.NoError(t, err)
	defer os.Remove(out)

	require.Len(t, runner.calls, 1)
	call := runner.calls[0]
	assert.Equal(t, "ffmpeg", call[0])
	assert.Contains(t, call, "fps=10,scale=480:-1:flags=lanczos")
}

func TestPDFToTextPageSeparators(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			if name == "pdftotext" {
				return nil, os.WriteFile(args[len(args)-1], []byte("page one\fpage two\f"), 0o644)
			}
			return nil, nil
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "doc.pdf")
	require.NoError(t, os.WriteFile(input, []byte("%PDF"), 0o644))

	out, err := d.Convert(context.Background(), input, "txt")
	require.NoError(t, err)
	defer os.Remove(out)

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "page one\n\npage two\n\n", string(text))
}

func TestSVGKeepsTransparentBackground(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			return nil, os.WriteFile(args[len(args)-1], []byte("png"), 0o644)
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "logo.svg")
	require.NoError(t, os.WriteFile(input, []byte("<svg/>"), 0o644))

	out, err := d.Convert(context.Background(), input, "png")
	require.NoError(t, err)
	defer os.Remove(out)

	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0], "-background")
	assert.Contains(t, runner.calls[0], "none")
}
