package crawler

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mohammad-safakhou/campusbot/internal/helpers"
)

const (
	urlHeader     = "URL: "
	contentHeader = "CONTENT:"
)

// Writer persists one text file per page under a directory.
type Writer struct {
	dir string
}

func NewWriter(dir string) (*Writer, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir}, nil
}

func (w *Writer) Dir() string { return w.dir }

// Write stores text for source and returns the file path.
func (w *Writer) Write(source, text string) (string, error) {
	path := filepath.Join(w.dir, helpers.CanonicalFilename(source))
	if err := os.WriteFile(path, []byte(FormatPage(source, text)), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

// FormatPage renders the on-disk page format.
func FormatPage(source, text string) string {
	return urlHeader + source + "\n" + contentHeader + "\n" + text
}

// ParsePage reverses FormatPage. Content without the header is returned whole with an empty source.
func ParsePage(content string) (source, text string) {
	content = strings.TrimPrefix(content, "\ufeff")
	if !strings.HasPrefix(content, urlHeader) {
		return "", content
	}
	first, rest, _ := strings.Cut(content, "\n")
	source = strings.TrimSpace(strings.TrimPrefix(first, urlHeader))
	if strings.HasPrefix(rest, contentHeader) {
		rest = strings.TrimPrefix(rest, contentHeader)
		rest = strings.TrimPrefix(rest, "\r")
		rest = strings.TrimPrefix(rest, "\n")
	}
	return source, rest
}
