package pdfextract

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mohammad-safakhou/campusbot/internal/logging"
)

type fakePage struct {
	block, plain       string
	blockErr, plainErr error
}

type fakeLayout struct {
	pages  []fakePage
	closed bool
}

func (f *fakeLayout) NumPages() int { return len(f.pages) }
func (f *fakeLayout) BlockText(n int) (string, error) {
	p := f.pages[n-1]
	return p.block, p.blockErr
}
func (f *fakeLayout) PlainText(n int) (string, error) {
	p := f.pages[n-1]
	return p.plain, p.plainErr
}
func (f *fakeLayout) Close() error { f.closed = true; return nil }

func newTestExtractor(layouts map[string]*fakeLayout) *Extractor {
	e := NewExtractor(logging.Discard())
	e.Open = func(path string) (Layout, error) {
		l, ok := layouts[filepath.Base(path)]
		if !ok {
			return nil, errors.New("corrupt pdf")
		}
		return l, nil
	}
	return e
}

func TestExtractFilePerPageDocuments(t *testing.T) {
	boom := errors.New("boom")
	layout := &fakeLayout{pages: []fakePage{
		{block: "Admission\n\nRequirements", plain: "Admission\n\nRequirements"},
		{block: "", plain: "   "},
		{blockErr: boom, plain: "Fees page"},
		{blockErr: boom, plainErr: boom},
		{block: "Calendar", plainErr: boom},
	}}
	e := newTestExtractor(map[string]*fakeLayout{"guide.pdf": layout})

	docs, err := e.ExtractFile(context.Background(), "guide.pdf")
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if !layout.closed {
		t.Fatalf("layout not closed")
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 documents, got %d: %+v", len(docs), docs)
	}
	wantPages := []int{1, 3, 5}
	for i, d := range docs {
		if d.Page != wantPages[i] || d.Source != "guide.pdf" || d.Empty() {
			t.Fatalf("doc %d = %+v", i, d)
		}
	}
	if docs[0].Text != "Admission\n\nRequirements" {
		t.Fatalf("merged text = %q", docs[0].Text)
	}
}

func TestExtractFileNoPages(t *testing.T) {
	e := newTestExtractor(map[string]*fakeLayout{"empty.pdf": {}})
	if _, err := e.ExtractFile(context.Background(), "empty.pdf"); !errors.Is(err, ErrNoPages) {
		t.Fatalf("expected ErrNoPages, got %v", err)
	}
}

func TestExtractDirSkipsBadFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.pdf", "b.PDF", "broken.pdf", "notes.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	e := newTestExtractor(map[string]*fakeLayout{
		"a.pdf": {pages: []fakePage{{plain: "from a"}}},
		"b.PDF": {pages: []fakePage{{block: "from b"}}},
	})
	docs, err := e.ExtractDir(context.Background(), dir)
	if err != nil {
		t.Fatalf("extract dir: %v", err)
	}
	if len(docs) != 2 || docs[0].Text != "from a" || docs[1].Text != "from b" {
		t.Fatalf("unexpected docs %+v", docs)
	}
}

func TestOpenLayoutMissingFile(t *testing.T) {
	if _, err := OpenLayout(filepath.Join(t.TempDir(), "nope.pdf")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}
