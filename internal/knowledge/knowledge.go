// Package knowledge selects course documents relevant to a learner's
// question by keyword.
package knowledge

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/swiftcourse/swiftcourse/internal/logger"
)

// NoContent is returned by Relevant when no document could be read.
const NoContent = "No specific knowledge base content found for this query."

const (
	indexFile   = "index.yaml"
	contentDir  = "content"
	fallbackDoc = "general-info.md"
)

//go:embed index.yaml content/*.md
var embedded embed.FS

// Topic maps a set of keywords to one document.
type Topic struct {
	Key         string   `yaml:"key"`
	File        string   `yaml:"file"`
	Description string   `yaml:"description"`
	Keywords    []string `yaml:"keywords"`
}

// matches reports whether any keyword occurs in the lowercased query.
func (t Topic) matches(lowerQuery string) bool {
	for _, kw := range t.Keywords {
		if strings.Contains(lowerQuery, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Base is a keyword index over a set of markdown documents. The file system
// holds index.yaml at its root and documents under content/.
type Base struct {
	fsys   fs.FS
	topics []Topic
	log    *logger.Logger
}

// Default returns the built-in course knowledge base.
func Default(log *logger.Logger) (*Base, error) {
	return New(embedded, log)
}

// New loads the index from fsys.
func New(fsys fs.FS, log *logger.Logger) (*Base, error) {
	if log == nil {
		log = logger.NewNop()
	}
	data, err := fs.ReadFile(fsys, indexFile)
	if err != nil {
		return nil, fmt.Errorf("read knowledge index: %w", err)
	}
	var idx struct {
		Topics []Topic `yaml:"topics"`
	}
	if err := yaml.Unmarshal(data, &idx); err != nil {
		return nil, fmt.Errorf("decode knowledge index: %w", err)
	}
	return &Base{fsys: fsys, topics: idx.Topics, log: log.With("component", "KnowledgeBase")}, nil
}

// Topics returns the index in authoring order.
func (b *Base) Topics() []Topic {
	return append([]Topic(nil), b.topics...)
}

// Files returns the documents whose keywords occur in query, in index
// order. With no match it returns the general document.
func (b *Base) Files(query string) []string {
	lower := strings.ToLower(query)
	var files []string
	for _, t := range b.topics {
		if t.matches(lower) {
			files = append(files, t.File)
		}
	}
	if len(files) == 0 {
		files = append(files, fallbackDoc)
	}
	return files
}

// Relevant returns the concatenated text of every document matching query.
// Each document is preceded by a "--- <file> ---" header. Unreadable
// documents are logged and skipped.
func (b *Base) Relevant(query string) string {
	var sb strings.Builder
	for _, file := range b.Files(query) {
		content, err := fs.ReadFile(b.fsys, path.Join(contentDir, file))
		if err != nil {
			b.log.Error("Failed to read knowledge document", "file", file, "error", err)
			continue
		}
		fmt.Fprintf(&sb, "\n\n--- %s ---\n%s", file, content)
	}
	if sb.Len() == 0 {
		return NoContent
	}
	return sb.String()
}
