package formats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSupportedTargetsUnknown(t *testing.T) {
	for _, ext := range []string{"", "exe", "tar.gz", ".unknown", "PNG2"} {
		assert.Empty(t, SupportedTargets(ext), "ext %q", ext)
	}
}

func TestSupportedTargetsCaseInsensitive(t *testing.T) {
	assert.Equal(t, SupportedTargets("png"), SupportedTargets("PNG"))
	assert.Equal(t, SupportedTargets("jpg"), SupportedTargets(".JPG"))
	assert.Contains(t, SupportedTargets("Pdf"), "docx")
}

func TestGraphIsDirected(t *testing.T) {
	// pdf->docx exists, but docx does not go back to images.
	assert.True(t, IsLegalPair("pdf", "docx"))
	assert.True(t, IsLegalPair("docx", "pdf"))
	assert.False(t, IsLegalPair("docx", "jpg"))

	// svg rasterizes but nothing converts into svg.
	assert.True(t, IsLegalPair("svg", "png"))
	assert.False(t, IsLegalPair("png", "svg"))
}

func TestFamilyOf(t *testing.T) {
	cases := map[string]Family{
		"jpg":  FamilyImage,
		"SVG":  FamilyVector,
		".pdf": FamilyDocument,
		"mp3":  FamilyAudio,
		"mkv":  FamilyVideo,
		"json": FamilyStructured,
		"exe":  FamilyUnknown,
	}
	for ext, want := range cases {
		assert.Equal(t, want, FamilyOf(ext), "ext %q", ext)
	}
}

func TestExtension(t *testing.T) {
	assert.Equal(t, "pdf", Extension("report.final.PDF"))
	assert.Equal(t, "jpg", Extension("photo.jpg"))
	assert.Equal(t, "", Extension("noext"))
}
