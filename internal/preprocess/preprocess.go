// ABOUTME: Extracts plain text from uploaded documents by file type
// ABOUTME: Batch helpers record per-file failures as empty text instead of failing the batch
package preprocess

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/harper/doccy/internal/logging"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrUnsupportedType is returned for file types with no extractor
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrOCRUnavailable is returned for images when OCR support is not built in
	ErrOCRUnavailable = errors.New("OCR support not built in (rebuild with -tags ocr)")
)

// Options configures a Processor
type Options struct {
	// OCRLang is the tesseract language code
	OCRLang string
	// Concurrency bounds parallel extraction in batch mode
	Concurrency int
	// MaxFileSize rejects larger inputs, zero means unlimited
	MaxFileSize int64
	Logger      *slog.Logger
}

// Processor extracts text from documents. It is safe for concurrent use.
type Processor struct {
	opts Options
}

// Upload is an in-memory file, for example from a multipart form
type Upload struct {
	Name string
	Data []byte
}

// New returns a processor
func New(opts Options) *Processor {
	if opts.OCRLang == "" {
		opts.OCRLang = "eng"
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 4
	}
	if opts.Logger == nil {
		opts.Logger = logging.Discard()
	}
	return &Processor{opts: opts}
}

// TypeOf returns the normalized type of name, taken from its extension
func TypeOf(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

// ProcessFile extracts text from the file at path
func (p *Processor) ProcessFile(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.opts.MaxFileSize > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", err
		}
		if info.Size() > p.opts.MaxFileSize {
			return "", fmt.Errorf("%s: size %d exceeds limit %d", path, info.Size(), p.opts.MaxFileSize)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return p.Process(ctx, data, TypeOf(path))
}

// Process extracts text from data of the given type (an extension without the dot)
func (p *Processor) Process(ctx context.Context, data []byte, fileType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if p.opts.MaxFileSize > 0 && int64(len(data)) > p.opts.MaxFileSize {
		return "", fmt.Errorf("size %d exceeds limit %d", len(data), p.opts.MaxFileSize)
	}

	switch strings.ToLower(strings.TrimPrefix(fileType, ".")) {
	case "pdf":
		return extractPDF(data)
	case "docx", "doc":
		return extractDOCX(data)
	case "jpg", "jpeg", "png", "tiff", "bmp":
		return ocr(data, p.opts.OCRLang)
	case "xlsx", "xls":
		return extractXLSX(data)
	case "csv":
		return extractCSV(data)
	case "txt":
		return extractText(data), nil
	case "json":
		return extractJSON(data)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
}

// ProcessFiles extracts every path. The result has one entry per path; a
// file that fails maps to "".
func (p *Processor) ProcessFiles(ctx context.Context, paths []string) map[string]string {
	return p.batch(ctx, paths, func(ctx context.Context, i int) (string, error) {
		return p.ProcessFile(ctx, paths[i])
	})
}

// ProcessUploads is ProcessFiles for in-memory files, keyed by name.
// Repeated names get a numeric suffix so no result is lost.
func (p *Processor) ProcessUploads(ctx context.Context, uploads []Upload) map[string]string {
	names := uniqueNames(uploads)
	return p.batch(ctx, names, func(ctx context.Context, i int) (string, error) {
		return p.Process(ctx, uploads[i].Data, TypeOf(uploads[i].Name))
	})
}

func (p *Processor) batch(ctx context.Context, names []string, fn func(context.Context, int) (string, error)) map[string]string {
	results := make(map[string]string, len(names))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)
	for i, name := range names {
		g.Go(func() error {
			text, err := fn(gctx, i)
			if err != nil {
				p.opts.Logger.Error("preprocess failed", "file", name, "error", err)
				text = ""
			}
			mu.Lock()
			results[name] = text
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func uniqueNames(uploads []Upload) []string {
	taken := make(map[string]bool, len(uploads))
	next := make(map[string]int, len(uploads))
	names := make([]string, len(uploads))
	for i, u := range uploads {
		name := u.Name
		for n := max(next[u.Name], 2); taken[name]; n++ {
			name = fmt.Sprintf("%s#%d", u.Name, n)
			next[u.Name] = n + 1
		}
		taken[name] = true
		names[i] = name
	}
	return names
}
