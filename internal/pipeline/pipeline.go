// Package pipeline wires crawl output and PDFs through chunking into a persisted vector index.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mohammad-safakhou/campusbot/internal/chunker"
	"github.com/mohammad-safakhou/campusbot/internal/crawler"
	"github.com/mohammad-safakhou/campusbot/internal/logging"
	"github.com/mohammad-safakhou/campusbot/internal/pdfextract"
	"github.com/mohammad-safakhou/campusbot/internal/vectorindex"
	"github.com/mohammad-safakhou/campusbot/models"
	"github.com/mohammad-safakhou/campusbot/tools/embedding"
)

// LoadCrawlDir reads every *.txt page file under dir. A missing directory yields no documents.
func LoadCrawlDir(dir string) ([]models.Document, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, nil
	}
	if _, err := os.Stat(dir); errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	var paths []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".txt") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, err)
	}
	sort.Strings(paths)

	docs := make([]models.Document, 0, len(paths))
	for _, p := range paths {
		raw, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		source, text := crawler.ParsePage(string(raw))
		if source == "" {
			source = filepath.Base(p)
		}
		doc := models.Document{Text: strings.TrimSpace(text), Source: source}
		if doc.Empty() {
			continue
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Builder produces the vector index from on-disk sources.
type Builder struct {
	CrawlDir  string
	PDFDir    string
	IndexPath string
	Splitter  *chunker.Splitter
	Embedder  embedding.Embedder
	PDF       *pdfextract.Extractor
	log       *logrus.Entry
}

func NewBuilder(crawlDir, pdfDir, indexPath string, splitter *chunker.Splitter, embedder embedding.Embedder, logger *logrus.Logger) *Builder {
	return &Builder{
		CrawlDir:  crawlDir,
		PDFDir:    pdfDir,
		IndexPath: indexPath,
		Splitter:  splitter,
		Embedder:  embedder,
		PDF:       pdfextract.NewExtractor(logger),
		log:       logging.WithComponent(logger, "pipeline"),
	}
}

// Documents gathers crawl pages followed by PDF pages.
func (b *Builder) Documents(ctx context.Context) ([]models.Document, error) {
	docs, err := LoadCrawlDir(b.CrawlDir)
	if err != nil {
		return nil, err
	}
	b.logger().WithField("count", len(docs)).Info("loaded crawl documents")

	if b.PDFDir != "" && b.PDF != nil {
		if _, err := os.Stat(b.PDFDir); err == nil {
			pdfDocs, err := b.PDF.ExtractDir(ctx, b.PDFDir)
			if err != nil {
				return nil, err
			}
			b.logger().WithField("count", len(pdfDocs)).Info("loaded pdf pages")
			docs = append(docs, pdfDocs...)
		}
	}
	return docs, nil
}

// Run rebuilds the index from scratch and persists it. Nothing is written on failure.
func (b *Builder) Run(ctx context.Context) (*vectorindex.Index, error) {
	docs, err := b.Documents(ctx)
	if err != nil {
		return nil, err
	}
	splitter := b.Splitter
	if splitter == nil {
		splitter = chunker.Default()
	}
	chunks := splitter.SplitDocuments(docs)
	b.logger().WithFields(logrus.Fields{"documents": len(docs), "chunks": len(chunks)}).Info("chunked documents")

	ix, err := vectorindex.Build(ctx, b.Embedder, chunks)
	if err != nil {
		return nil, fmt.Errorf("build index: %w", err)
	}
	if b.IndexPath != "" {
		if err := ix.Persist(b.IndexPath); err != nil {
			return nil, fmt.Errorf("persist index: %w", err)
		}
		b.logger().WithField("path", b.IndexPath).Info("index persisted")
	}
	return ix, nil
}

// LoadOrBuild loads the persisted index and falls back to Run when none is usable.
func (b *Builder) LoadOrBuild(ctx context.Context) (*vectorindex.Index, error) {
	ix, err := vectorindex.Load(ctx, b.IndexPath, b.Embedder)
	if err == nil {
		b.logger().WithField("chunks", ix.Len()).Info("index loaded")
		return ix, nil
	}
	if !errors.Is(err, vectorindex.ErrIndexNotFound) {
		return nil, err
	}
	b.logger().WithError(err).Warn("no usable index, rebuilding")
	return b.Run(ctx)
}

func (b *Builder) logger() *logrus.Entry {
	if b.log == nil {
		b.log = logging.WithComponent(nil, "pipeline")
	}
	return b.log
}
