package formats

import (
	"path/filepath"
	"strings"
)

// Family is the adapter family that owns one media category.
type Family string

const (
	FamilyImage      Family = "image"
	FamilyVector     Family = "vector"
	FamilyDocument   Family = "document"
	FamilyAudio      Family = "audio"
	FamilyVideo      Family = "video"
	FamilyStructured Family = "structured"
	FamilyUnknown    Family = ""
)

// graph is the directed adjacency table of legal input -> output pairs.
// Not symmetric: pdf->docx exists while docx only goes back to pdf/txt.
var graph = map[string][]string{
	// images
	"jpg":  {"png", "webp", "bmp", "pdf"},
	"jpeg": {"png", "webp", "bmp", "pdf"},
	"png":  {"jpg", "webp", "bmp", "pdf"},
	"webp": {"jpg", "png", "bmp", "pdf"},
	"bmp":  {"jpg", "png", "webp", "pdf"},
	"svg":  {"png", "jpg", "pdf"},

	// documents
	"pdf":  {"docx", "txt", "jpg", "png"},
	"docx": {"pdf", "txt"},
	"doc":  {"pdf", "txt"},
	"txt":  {"pdf", "docx"},

	// audio
	"mp3":  {"wav", "aac", "ogg", "flac"},
	"wav":  {"mp3", "aac", "ogg", "flac"},
	"aac":  {"mp3", "wav", "ogg", "flac"},
	"ogg":  {"mp3", "wav", "aac", "flac"},
	"flac": {"mp3", "wav", "aac", "ogg"},

	// video
	"mp4": {"mkv", "avi", "mov", "gif"},
	"mkv": {"mp4", "avi", "mov"},
	"avi": {"mp4", "mkv", "mov"},
	"mov": {"mp4", "mkv", "avi"},

	// structured data
	"json": {"csv", "xml", "txt"},
	"csv":  {"xlsx", "json", "xml"},
	"xml":  {"json", "csv", "txt"},
}

var families = map[string]Family{
	"jpg": FamilyImage, "jpeg": FamilyImage, "png": FamilyImage,
	"webp": FamilyImage, "bmp": FamilyImage,

	"svg": FamilyVector,

	"pdf": FamilyDocument, "docx": FamilyDocument, "doc": FamilyDocument,
	"txt": FamilyDocument,

	"mp3": FamilyAudio, "wav": FamilyAudio, "aac": FamilyAudio,
	"ogg": FamilyAudio, "flac": FamilyAudio,

	"mp4": FamilyVideo, "mkv": FamilyVideo, "avi": FamilyVideo,
	"mov": FamilyVideo,

	"json": FamilyStructured, "csv": FamilyStructured, "xml": FamilyStructured,
}

func Normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// Extension returns the lowercase extension of a file name, without the dot.
func Extension(filename string) string {
	return Normalize(filepath.Ext(filename))
}

// SupportedTargets returns the legal output formats for an input extension.
// Unknown extensions yield an empty slice, never an error.
func SupportedTargets(ext string) []string {
	targets := graph[Normalize(ext)]
	out := make([]string, len(targets))
	copy(out, targets)
	return out
}

// IsLegalPair reports whether ext -> target is an edge in the graph.
func IsLegalPair(ext, target string) bool {
	target = Normalize(target)
	for _, t := range graph[Normalize(ext)] {
		if t == target {
			return true
		}
	}
	return false
}

// FamilyOf maps an extension to its adapter family; FamilyUnknown if no
// family owns it.
func FamilyOf(ext string) Family {
	return families[Normalize(ext)]
}

type Category struct {
	Key     string
	Icon    string
	Formats []string
}

// Categories drive the /help catalogue and the advisory category menu.
var Categories = []Category{
	{Key: "images", Icon: "📷", Formats: []string{"JPG", "JPEG", "PNG", "WEBP", "BMP", "SVG"}},
	{Key: "documents", Icon: "💼", Formats: []string{"PDF", "DOCX", "DOC", "TXT"}},
	{Key: "audio", Icon: "🔊", Formats: []string{"MP3", "WAV", "AAC", "OGG", "FLAC"}},
	{Key: "video", Icon: "📹", Formats: []string{"MP4", "MKV", "AVI", "MOV"}},
	{Key: "data", Icon: "🗂", Formats: []string{"JSON", "CSV", "XML"}},
}
