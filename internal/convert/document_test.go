package convert

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestDocx(t *testing.T, dir string, paragraphs []string) string {
	t.Helper()
	path := filepath.Join(dir, "input.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)

	body := `<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`
	for _, p := range paragraphs {
		body += `<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`
	}
	body += `</w:body></w:document>`
	_, err = doc.Write([]byte(body))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return path
}

func TestDocxToTextParagraphSeparators(t *testing.T) {
	dir := t.TempDir()
	d := NewDispatcher(dir, &fakeRunner{})

	input := writeTestDocx(t, dir, []string{"first paragraph", "second paragraph"})
	out, err := d.Convert(context.Background(), input, "txt")
	require.NoError(t, err)
	defer os.Remove(out)

	text, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "first paragraph\n\nsecond paragraph", string(text))
}

func TestDocxSplitRunsJoinWithinParagraph(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "split.docx")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	doc, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = doc.Write([]byte(`<?xml version="1.0"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body><w:p><w:r><w:t>hello </w:t></w:r><w:r><w:t>world</w:t></w:r></w:p></w:body></w:document>`))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	paragraphs, err := docxParagraphs(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"hello world"}, paragraphs)
}

func TestLibreOfficeOutputRenamed(t *testing.T) {
	dir := t.TempDir()
	runner := &fakeRunner{
		handler: func(name string, args []string) ([]byte, error) {
			// libreoffice writes <input base>.pdf into --outdir
			outdir := ""
			for i, a := range args {
				if a == "--outdir" && i+1 < len(args) {
					outdir = args[i+1]
				}
			}
			return nil, os.WriteFile(filepath.Join(outdir, "notes.pdf"), []byte("%PDF"), 0o644)
		},
	}
	d := NewDispatcher(dir, runner)

	input := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(input, []byte("hello"), 0o644))

	out, err := d.Convert(context.Background(), input, "pdf")
	require.NoError(t, err)
	defer os.Remove(out)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(raw))
}
