package convert

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/simplelearn-uz/convertbot/internal/formats"
)

// documentAdapter owns the txt/docx/pdf family. Text extraction runs in
// process where the format allows it; layout-preserving output shells out to
// LibreOffice or pandoc.
type documentAdapter struct {
	runner Runner
}

func (a *documentAdapter) convert(ctx context.Context, inputPath, outputPath, targetExt string) error {
	src := formats.Extension(inputPath)

	switch {
	case src == "pdf" && targetExt == "txt":
		return a.pdfToText(ctx, inputPath, outputPath)
	case src == "pdf" && targetExt == "docx":
		return a.pdfToDocx(ctx, inputPath, outputPath)
	case src == "pdf" && (targetExt == "jpg" || targetExt == "png"):
		return a.pdfFirstPageImage(ctx, inputPath, outputPath)
	case src == "docx" && targetExt == "txt":
		return docxToText(inputPath, outputPath)
	case targetExt == "pdf" || targetExt == "docx" || targetExt == "txt":
		return a.libreOffice(ctx, inputPath, outputPath, targetExt)
	default:
		return errors.Errorf("document conversion %s -> %s is not supported", src, targetExt)
	}
}

// pdfToText extracts concatenated page text; pdftotext separates pages with
// form feeds, which become blank lines.
func (a *documentAdapter) pdfToText(ctx context.Context, inputPath, outputPath string) error {
	if !a.runner.LookPath("pdftotext") {
		return errors.New("poppler-utils is not installed")
	}
	if _, err := a.runner.Run(ctx, "pdftotext", inputPath, outputPath); err != nil {
		return err
	}
	raw, err := os.ReadFile(outputPath)
	if err != nil {
		return err
	}
	text := strings.ReplaceAll(string(raw), "\f", "\n\n")
	return os.WriteFile(outputPath, []byte(text), 0o644)
}

func (a *documentAdapter) pdfToDocx(ctx context.Context, inputPath, outputPath string) error {
	if !a.runner.LookPath("pandoc") {
		return errors.New("pandoc is not installed")
	}
	_, err := a.runner.Run(ctx, "pandoc", inputPath, "-o", outputPath)
	return err
}

func (a *documentAdapter) pdfFirstPageImage(ctx context.Context, inputPath, outputPath string) error {
	return runMagick(ctx, a.runner, "-density", "300", inputPath+"[0]", "-quality", "90", outputPath)
}

func (a *documentAdapter) libreOffice(ctx context.Context, inputPath, outputPath, targetExt string) error {
	name := "libreoffice"
	if !a.runner.LookPath(name) {
		if !a.runner.LookPath("soffice") {
			return errors.New("LibreOffice is not installed")
		}
		name = "soffice"
	}

	convertTo := targetExt
	if targetExt == "txt" {
		convertTo = "txt:Text"
	}

	outputDir := filepath.Dir(outputPath)
	output, err := a.runner.Run(ctx, name, "--headless", "--convert-to", convertTo, "--outdir", outputDir, inputPath)
	if err != nil {
		return err
	}

	// LibreOffice names the result after the input; move it where we want it.
	base := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	generated := filepath.Join(outputDir, base+"."+targetExt)
	if _, err := os.Stat(generated); err != nil {
		return errors.Errorf("LibreOffice produced no output: %s", string(output))
	}
	if filepath.Clean(generated) == filepath.Clean(outputPath) {
		return nil
	}
	defer func() { _ = os.Remove(generated) }()
	return copyFile(generated, outputPath)
}

// docx wraps paragraphs in w:p elements inside word/document.xml; paragraph
// texts join with blank-line separators.
func docxToText(inputPath, outputPath string) error {
	paragraphs, err := docxParagraphs(inputPath)
	if err != nil {
		return err
	}
	return os.WriteFile(outputPath, []byte(strings.Join(paragraphs, "\n\n")), 0o644)
}

func docxParagraphs(inputPath string) ([]string, error) {
	zr, err := zip.OpenReader(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "open docx")
	}
	defer zr.Close()

	var doc io.ReadCloser
	for _, f := range zr.File {
		if f.Name == "word/document.xml" {
			doc, err = f.Open()
			if err != nil {
				return nil, err
			}
			break
		}
	}
	if doc == nil {
		return nil, errors.New("docx has no word/document.xml")
	}
	defer doc.Close()

	decoder := xml.NewDecoder(doc)
	var (
		paragraphs []string
		current    bytes.Buffer
		inPara     bool
		inText     bool
	)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "parse document.xml")
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "p":
				inPara = true
				current.Reset()
			case "t":
				inText = inPara
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "p":
				if inPara {
					paragraphs = append(paragraphs, current.String())
				}
				inPara = false
			case "t":
				inText = false
			}
		case xml.CharData:
			if inText {
				current.Write(t)
			}
		}
	}
	return paragraphs, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	_, err = io.Copy(out, in)
	return err
}
