// ABOUTME: PromptStore loads prompt templates by logical key
// ABOUTME: Embedded defaults can be overridden from a directory; parsed templates are cached
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"text/template"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Logical prompt keys
const (
	Router        = "router"
	Documentation = "agents/documentation"
	Retrieval     = "agents/retrieval"
	Feedback      = "agents/feedback"
	Tags          = "organizer/tags"
	Category      = "organizer/category"
	EnrichFresh   = "enrich/fresh"
	EnrichUpdate  = "enrich/update"
	EnrichMerge   = "enrich/transform"
	Generate      = "chains/generate"
	Research      = "chains/research"
	Intent        = "chains/intent"
)

//go:embed templates
var embedded embed.FS

// ErrNotFound is returned when no template exists for a key
var ErrNotFound = errors.New("prompt template not found")

const cacheSize = 64

var funcs = template.FuncMap{
	"join": strings.Join,
}

// Template is a parsed prompt template
type Template struct {
	key  string
	tmpl *template.Template
}

// Key returns the logical key the template was loaded from
func (t *Template) Key() string {
	return t.key
}

// Render executes the template against vars. Referencing a missing map key
// is an error rather than an empty substitution.
func (t *Template) Render(vars any) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("render prompt %s: %w", t.key, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Store resolves keys to templates. It is safe for concurrent use.
type Store struct {
	layers []fs.FS
	cache  *lru.Cache[string, *Template]
}

// NewStore returns a store backed by the embedded templates, with files in
// overrideDir (if non-empty) taking precedence
func NewStore(overrideDir string) (*Store, error) {
	base, err := fs.Sub(embedded, "templates")
	if err != nil {
		return nil, fmt.Errorf("embedded prompts: %w", err)
	}
	layers := []fs.FS{base}
	if overrideDir != "" {
		info, err := os.Stat(overrideDir)
		if err != nil {
			return nil, fmt.Errorf("prompts dir: %w", err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("prompts dir %s is not a directory", overrideDir)
		}
		layers = append([]fs.FS{os.DirFS(overrideDir)}, layers...)
	}
	return NewStoreFS(layers...)
}

// NewStoreFS returns a store that searches the given file systems in order
func NewStoreFS(layers ...fs.FS) (*Store, error) {
	cache, err := lru.New[string, *Template](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Store{layers: layers, cache: cache}, nil
}

// Load returns the template for key
func (s *Store) Load(key string) (*Template, error) {
	if t, ok := s.cache.Get(key); ok {
		return t, nil
	}

	name := path.Clean(key) + ".txt"
	if !fs.ValidPath(name) {
		return nil, fmt.Errorf("%w: invalid key %q", ErrNotFound, key)
	}

	for _, layer := range s.layers {
		data, err := fs.ReadFile(layer, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", key, err)
		}
		tmpl, err := template.New(key).Option("missingkey=error").Funcs(funcs).Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parse prompt %s: %w", key, err)
		}
		t := &Template{key: key, tmpl: tmpl}
		s.cache.Add(key, t)
		return t, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
}

// Text loads key and renders it without variables
func (s *Store) Text(key string) (string, error) {
	t, err := s.Load(key)
	if err != nil {
		return "", err
	}
	return t.Render(nil)
}
