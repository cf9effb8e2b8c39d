package extract_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docrag/internal/domain"
	"docrag/internal/extract"
)

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestFileType(t *testing.T) {
	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{path: "report.PDF", want: extract.TypePDF, ok: true},
		{path: "notes.md", want: extract.TypeDocument, ok: true},
		{path: "letter.docx", want: extract.TypeDocument, ok: true},
		{path: "scan.jpeg", want: extract.TypeImage, ok: true},
		{path: "talk.mkv", want: extract.TypeVideo, ok: true},
		{path: "archive.zip", ok: false},
		{path: "README", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := extract.FileType(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, extract.IsSupported(tt.path))
		})
	}
}

func TestFilePlainText(t *testing.T) {
	path := writeFile(t, "notes.txt", []byte("Hello రాము. Second line."))
	res, err := extract.File(path)
	require.NoError(t, err)

	assert.Equal(t, "Hello రాము. Second line.", res.Text)
	assert.Equal(t, "notes.txt", res.Metadata.Filename)
	assert.Equal(t, extract.TypeDocument, res.Metadata.Type)
	assert.True(t, filepath.IsAbs(res.Metadata.Filepath))
	assert.Equal(t, "32", res.Metadata.Extra["size"])
}

func TestFileLatin1Fallback(t *testing.T) {
	path := writeFile(t, "old.md", []byte{'c', 'a', 'f', 0xe9})
	res, err := extract.File(path)
	require.NoError(t, err)
	assert.Equal(t, "café", res.Text)
}

func TestFileWithoutExtractorYieldsMarker(t *testing.T) {
	path := writeFile(t, "paper.pdf", []byte("%PDF-1.7"))
	res, err := extract.File(path)
	require.NoError(t, err)
	assert.Equal(t, extract.TypePDF, res.Metadata.Type)
	assert.Contains(t, res.Text, "no text extractor available for pdf files")
	assert.NotEmpty(t, res.Metadata.Extra["error"])
}

func TestFileErrors(t *testing.T) {
	_, err := extract.File(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = extract.File(writeFile(t, "data.bin", []byte{1, 2, 3}))
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)

	_, err = extract.File(t.TempDir())
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", extract.Preview("short", 10))
	long := strings.Repeat("ä", 20)
	got := extract.Preview(long, 5)
	assert.True(t, strings.HasPrefix(got, "äääää..."))
	assert.Contains(t, got, "[Full text available in context]")
}
