package pdfextract

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/ledongthuc/pdf"
)

// Layout is an opened PDF that can render each page in two modes.
// Pages are numbered from 1.
type Layout interface {
	NumPages() int
	// BlockText renders the page as layout blocks separated by blank lines.
	BlockText(page int) (string, error)
	// PlainText renders the page as a plain text stream.
	PlainText(page int) (string, error)
	Close() error
}

var errMissingPage = errors.New("page not found")

type pdfLayout struct {
	file   *os.File
	reader *pdf.Reader
}

// OpenLayout opens path with the ledongthuc/pdf reader.
func OpenLayout(path string) (l Layout, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("open %s: %v", path, r)
		}
	}()
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &pdfLayout{file: f, reader: r}, nil
}

func (l *pdfLayout) NumPages() int { return l.reader.NumPage() }

func (l *pdfLayout) Close() error { return l.file.Close() }

func (l *pdfLayout) page(n int) (pdf.Page, error) {
	p := l.reader.Page(n)
	if p.V.IsNull() {
		return p, fmt.Errorf("page %d: %w", n, errMissingPage)
	}
	return p, nil
}

func (l *pdfLayout) PlainText(n int) (string, error) {
	p, err := l.page(n)
	if err != nil {
		return "", err
	}
	return p.GetPlainText(nil)
}

func (l *pdfLayout) BlockText(n int) (string, error) {
	p, err := l.page(n)
	if err != nil {
		return "", err
	}
	rows, err := p.GetTextByRow()
	if err != nil {
		return "", err
	}
	lines := make([]line, 0, len(rows))
	for _, r := range rows {
		frags := make([]fragment, 0, len(r.Content))
		for _, t := range r.Content {
			frags = append(frags, fragment{X: t.X, W: t.W, Size: t.FontSize, S: t.S})
		}
		lines = append(lines, line{Y: float64(r.Position), Text: joinFragments(frags)})
	}
	return groupBlocks(lines), nil
}

type fragment struct {
	X, W, Size float64
	S          string
}

type line struct {
	Y    float64
	Text string
}

// joinFragments concatenates fragments left to right, inserting a space where the
// horizontal gap is wider than a fraction of the font size.
func joinFragments(frags []fragment) string {
	sort.SliceStable(frags, func(i, j int) bool { return frags[i].X < frags[j].X })
	var b strings.Builder
	var prevEnd float64
	for i, f := range frags {
		if f.S == "" {
			continue
		}
		if i > 0 && b.Len() > 0 {
			gap := f.X - prevEnd
			threshold := 0.15 * f.Size
			if threshold <= 0 {
				threshold = 1
			}
			if gap > threshold && !endsWithSpace(b.String()) && !unicode.IsSpace([]rune(f.S)[0]) {
				b.WriteByte(' ')
			}
		}
		b.WriteString(f.S)
		prevEnd = f.X + f.W
	}
	return strings.TrimSpace(b.String())
}

func endsWithSpace(s string) bool {
	r := []rune(s)
	return len(r) > 0 && unicode.IsSpace(r[len(r)-1])
}

// groupBlocks joins top-to-bottom lines, starting a new block wherever the vertical gap
// exceeds 1.5 times the median gap.
func groupBlocks(lines []line) string {
	var kept []line
	for _, l := range lines {
		if strings.TrimSpace(l.Text) != "" {
			kept = append(kept, l)
		}
	}
	if len(kept) == 0 {
		return ""
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].Y > kept[j].Y })

	gaps := make([]float64, 0, len(kept)-1)
	for i := 1; i < len(kept); i++ {
		gaps = append(gaps, math.Abs(kept[i-1].Y-kept[i].Y))
	}
	limit := 1.5 * median(gaps)

	var b strings.Builder
	b.WriteString(kept[0].Text)
	for i := 1; i < len(kept); i++ {
		if limit > 0 && gaps[i-1] > limit {
			b.WriteString("\n\n")
		} else {
			b.WriteByte('\n')
		}
		b.WriteString(kept[i].Text)
	}
	return b.String()
}

func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	mid := len(s) / 2
	if len(s)%2 == 1 {
		return s[mid]
	}
	return (s[mid-1] + s[mid]) / 2
}
