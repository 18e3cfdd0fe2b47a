// ABOUTME: Tests for text extraction and batch preprocessing
// ABOUTME: Fixtures are generated in the test so no binary files are checked in
package preprocess

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func docxFixture(t *testing.T, paragraphs ...string) []byte {
	t.Helper()
	var body strings.Builder
	for _, p := range paragraphs {
		body.WriteString(`<w:p><w:r><w:t>` + p + `</w:t></w:r></w:p>`)
	}
	return docxDocument(t, body.String())
}

// docxDocument zips bodyXML into a minimal word/document.xml
func docxDocument(t *testing.T, bodyXML string) []byte {
	t.Helper()
	doc := `<?xml version="1.0" encoding="UTF-8"?><w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>` +
		bodyXML + `</w:body></w:document>`

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write([]byte(doc))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func xlsxFixture(t *testing.T) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "quarter"))
	require.NoError(t, f.SetCellValue("Sheet1", "B1", "revenue"))
	require.NoError(t, f.SetCellValue("Sheet1", "A2", "Q1"))
	require.NoError(t, f.SetCellValue("Sheet1", "B2", "4.2M"))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestProcessByType(t *testing.T) {
	p := New(Options{})
	ctx := context.Background()

	tests := []struct {
		name     string
		data     []byte
		fileType string
		want     []string
	}{
		{"text", []byte("plain words"), "txt", []string{"plain words"}},
		{"json is pretty printed", []byte(`{"a":1,"b":[2]}`), "json", []string{"{\n  \"a\": 1,\n  \"b\": [\n    2\n  ]\n}"}},
		{"csv", []byte("quarter,revenue\nQ1,4.2M\n"), "csv", []string{"quarter", "Q1", "4.2M"}},
		{"docx", docxFixture(t, "Title", "Body text"), "docx", []string{"Title\n\nBody text"}},
		{"xlsx", xlsxFixture(t), "xlsx", []string{"quarter", "revenue", "Q1", "4.2M"}},
		{"type is case insensitive", []byte("x"), ".TXT", []string{"x"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.Process(ctx, tt.data, tt.fileType)
			require.NoError(t, err)
			for _, w := range tt.want {
				assert.Contains(t, got, w)
			}
		})
	}
}

func TestExtractDOCX(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "tab stops in paragraph properties add no text",
			body: `<w:p><w:pPr><w:tabs><w:tab w:val="left" w:pos="720"/><w:tab w:val="right" w:pos="9000"/></w:tabs></w:pPr>` +
				`<w:r><w:t>Revenue</w:t></w:r></w:p>`,
			want: "Revenue",
		},
		{
			name: "tab inside a run is kept",
			body: `<w:p><w:r><w:t>Q1</w:t><w:tab/><w:t>4.2M</w:t></w:r></w:p>`,
			want: "Q1\t4.2M",
		},
		{
			name: "line break",
			body: `<w:p><w:r><w:t>first</w:t><w:br/><w:t>second</w:t></w:r></w:p>`,
			want: "first\nsecond",
		},
		{
			name: "table rows become aligned lines",
			body: `<w:tbl><w:tr><w:tc><w:p><w:r><w:t>quarter</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>revenue</w:t></w:r></w:p></w:tc></w:tr>` +
				`<w:tr><w:tc><w:p><w:r><w:t>Q1</w:t></w:r></w:p></w:tc><w:tc><w:p><w:r><w:t>4.2M</w:t></w:r></w:p></w:tc></w:tr></w:tbl>`,
			want: "quarter  revenue\nQ1       4.2M",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(Options{}).Process(context.Background(), docxDocument(t, tt.body), "docx")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestProcessErrors(t *testing.T) {
	p := New(Options{})
	ctx := context.Background()

	_, err := p.Process(ctx, []byte("x"), "exe")
	assert.True(t, errors.Is(err, ErrUnsupportedType))

	_, err = p.Process(ctx, []byte("not a pdf"), "pdf")
	assert.Error(t, err)

	_, err = p.Process(ctx, []byte("{broken"), "json")
	assert.Error(t, err)

	_, err = p.Process(ctx, []byte("not a zip"), "docx")
	assert.Error(t, err)

	_, err = New(Options{MaxFileSize: 2}).Process(ctx, []byte("too long"), "txt")
	assert.Error(t, err)
}

func TestProcessFilesToleratesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	first := writeFile(t, dir, "notes.txt", []byte("meeting notes"))
	second := writeFile(t, dir, "report.pdf", []byte("%PDF-garbage that is not a real pdf"))
	third := writeFile(t, dir, "data.json", []byte(`{"revenue":"4.2M"}`))

	results := New(Options{Concurrency: 2}).ProcessFiles(context.Background(), []string{first, second, third})

	require.Len(t, results, 3)
	assert.Equal(t, "meeting notes", results[first])
	assert.Equal(t, "", results[second])
	assert.Contains(t, results[third], `"revenue": "4.2M"`)
}

func TestProcessFilesMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.txt")
	results := New(Options{}).ProcessFiles(context.Background(), []string{missing})
	assert.Equal(t, map[string]string{missing: ""}, results)
}

func TestProcessFilesCancelled(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.txt", []byte("a"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := New(Options{}).ProcessFiles(ctx, []string{path})
	assert.Equal(t, map[string]string{path: ""}, results)
}

func TestProcessUploads(t *testing.T) {
	results := New(Options{}).ProcessUploads(context.Background(), []Upload{
		{Name: "a.txt", Data: []byte("one")},
		{Name: "a.txt", Data: []byte("two")},
		{Name: "photo.png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "one", results["a.txt"])
	assert.Equal(t, "two", results["a.txt#2"])
	_, ok := results["photo.png"]
	assert.True(t, ok)
}

func TestProcessUploadsSuffixSkipsTakenNames(t *testing.T) {
	results := New(Options{}).ProcessUploads(context.Background(), []Upload{
		{Name: "a.txt", Data: []byte("one")},
		{Name: "a.txt", Data: []byte("two")},
		{Name: "a.txt#2", Data: []byte("three")},
	})

	require.Len(t, results, 3)
	assert.Equal(t, "one", results["a.txt"])
	assert.Equal(t, "two", results["a.txt#2"])
	assert.Equal(t, "three", results["a.txt#2#2"])
}

func TestUniqueNames(t *testing.T) {
	uploads := func(names ...string) []Upload {
		out := make([]Upload, len(names))
		for i, n := range names {
			out[i] = Upload{Name: n}
		}
		return out
	}

	assert.Equal(t, []string{"a.txt", "a.txt#2", "a.txt#3"}, uniqueNames(uploads("a.txt", "a.txt", "a.txt")))
	assert.Equal(t, []string{"a.txt#2", "a.txt", "a.txt#3"}, uniqueNames(uploads("a.txt#2", "a.txt", "a.txt")))
	assert.Equal(t, []string{"a.txt", "a.txt#2", "a.txt#2#2"}, uniqueNames(uploads("a.txt", "a.txt", "a.txt#2")))
}

func TestTypeOf(t *testing.T) {
	assert.Equal(t, "pdf", TypeOf("/tmp/Report.PDF"))
	assert.Equal(t, "", TypeOf("README"))
}
