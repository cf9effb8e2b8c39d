// Package extract detects supported file types and pulls plain text out of
// them. Only plain-text formats are read here; formats that need a dedicated
// extractor (PDF, Word, OCR, video) yield a marker text that is still ingested.
package extract

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"docrag/internal/domain"
)

// File types reported in chunk metadata.
const (
	TypePDF      = "pdf"
	TypeDocument = "document"
	TypeImage    = "image"
	TypeVideo    = "video"
)

var formats = map[string]string{
	".pdf":  TypePDF,
	".docx": TypeDocument,
	".doc":  TypeDocument,
	".txt":  TypeDocument,
	".md":   TypeDocument,
	".png":  TypeImage,
	".jpg":  TypeImage,
	".jpeg": TypeImage,
	".webp": TypeImage,
	".bmp":  TypeImage,
	".mp4":  TypeVideo,
	".avi":  TypeVideo,
	".mkv":  TypeVideo,
	".mov":  TypeVideo,
}

// Result is the extracted text plus the metadata that travels with its chunks.
type Result struct {
	Text     string
	Metadata domain.Metadata
}

// FileType returns the type for path's extension.
func FileType(path string) (string, bool) {
	t, ok := formats[strings.ToLower(filepath.Ext(path))]
	return t, ok
}

// IsSupported reports whether path has a known extension.
func IsSupported(path string) bool {
	_, ok := FileType(path)
	return ok
}

// File extracts text from path. A missing file or unknown extension is an
// error; a supported format without a local extractor is not.
func File(path string) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return Result{}, fmt.Errorf("%s is a directory", path)
	}
	fileType, ok := FileType(path)
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	res := Result{Metadata: domain.Metadata{
		Filename: filepath.Base(path),
		Type:     fileType,
		Filepath: abs,
		Extra:    map[string]string{"size": strconv.FormatInt(info.Size(), 10)},
	}}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == ".md" {
		text, err := readPlainText(path)
		if err != nil {
			res.Text = fmt.Sprintf("Error processing file: %v", err)
			res.Metadata.Extra["error"] = err.Error()
			return res, nil
		}
		res.Text = text
		return res, nil
	}

	res.Text = fmt.Sprintf("no text extractor available for %s files: %s", fileType, res.Metadata.Filename)
	res.Metadata.Extra["error"] = "extractor unavailable"
	return res, nil
}

// readPlainText reads UTF-8 text, decoding as Latin-1 when the bytes are not
// valid UTF-8.
func readPlainText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode latin-1: %w", err)
	}
	return string(decoded), nil
}

// Preview shortens text to at most max characters for display, marking the cut.
func Preview(text string, max int) string {
	if max <= 0 || utf8.RuneCountInString(text) <= max {
		return text
	}
	runes := []rune(text)
	return string(runes[:max]) + "...\n\n[Full text available in context]"
}
