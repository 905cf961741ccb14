package pdfextract

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mohammad-safakhou/campusbot/internal/logging"
	"github.com/mohammad-safakhou/campusbot/models"
)

// ErrNoPages is returned for a document that reports zero pages.
var ErrNoPages = errors.New("pdf has no pages")

// Extractor turns PDF files into one document per non-empty page.
type Extractor struct {
	// Open defaults to OpenLayout.
	Open func(path string) (Layout, error)
	log  *logrus.Entry
}

func NewExtractor(logger *logrus.Logger) *Extractor {
	return &Extractor{Open: OpenLayout, log: logging.WithComponent(logger, "pdfextract")}
}

func (e *Extractor) ExtractFile(ctx context.Context, path string) ([]models.Document, error) {
	open := e.Open
	if open == nil {
		open = OpenLayout
	}
	layout, err := open(path)
	if err != nil {
		return nil, err
	}
	defer layout.Close()

	n := layout.NumPages()
	if n <= 0 {
		return nil, fmt.Errorf("%s: %w", path, ErrNoPages)
	}

	docs := make([]models.Document, 0, n)
	for page := 1; page <= n; page++ {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		log := e.logger().WithFields(logrus.Fields{"file": path, "page": page})

		block, blockErr := layout.BlockText(page)
		plain, plainErr := layout.PlainText(page)
		if blockErr != nil && plainErr != nil {
			log.WithError(errors.Join(blockErr, plainErr)).Warn("page unreadable, skipping")
			continue
		}
		if blockErr != nil {
			log.WithError(blockErr).Debug("block mode failed, using plain text")
			block = ""
		}
		if plainErr != nil {
			log.WithError(plainErr).Debug("text mode failed, using blocks")
			plain = ""
		}

		text := MergePageText(block, plain)
		if text == "" {
			continue
		}
		docs = append(docs, models.Document{Text: text, Source: path, Page: page})
	}
	return docs, nil
}

// ExtractDir extracts every *.pdf under dir in lexical order. Files that fail are logged and skipped.
func (e *Extractor) ExtractDir(ctx context.Context, dir string) ([]models.Document, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	var docs []models.Document
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return docs, err
		}
		fileDocs, err := e.ExtractFile(ctx, p)
		if err != nil {
			e.logger().WithField("file", p).WithError(err).Warn("pdf extraction failed")
			continue
		}
		e.logger().WithField("file", p).WithField("pages", len(fileDocs)).Info("pdf extracted")
		docs = append(docs, fileDocs...)
	}
	return docs, nil
}

func (e *Extractor) logger() *logrus.Entry {
	if e.log == nil {
		e.log = logging.WithComponent(nil, "pdfextract")
	}
	return e.log
}
