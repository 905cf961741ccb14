package chunker

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mohammad-safakhou/campusbot/models"
)

func words(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("word%03d", i)
	}
	return strings.Join(parts, " ")
}

func TestSplitTextShortTextUnchanged(t *testing.T) {
	s := Default()
	in := "Ajman University offers scholarships."
	got := s.SplitText(in)
	if len(got) != 1 || got[0] != in {
		t.Fatalf("got %q", got)
	}
	if got := s.SplitText("   \n\n "); len(got) != 0 {
		t.Fatalf("whitespace-only text should yield nothing, got %q", got)
	}
}

func TestSplitTextBounds(t *testing.T) {
	tests := []struct {
		name          string
		size, overlap int
		text          string
	}{
		{"words", 50, 10, words(200)},
		{"paragraphs", 120, 30, strings.Repeat("First line of a paragraph.\nSecond line here.\n\n", 40)},
		{"sentences", 80, 20, strings.Repeat("Students must apply before the deadline. ", 30)},
		{"no separators", 10, 3, strings.Repeat("x", 95)},
		{"zero overlap", 40, 0, words(60)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := New(tt.size, tt.overlap, nil)
			if err != nil {
				t.Fatalf("new: %v", err)
			}
			chunks := s.SplitText(tt.text)
			if len(chunks) < 2 {
				t.Fatalf("expected several chunks, got %d", len(chunks))
			}
			for i, c := range chunks {
				if n := utf8.RuneCountInString(c); n > tt.size {
					t.Fatalf("chunk %d has %d chars > %d", i, n, tt.size)
				}
				if strings.TrimSpace(c) == "" {
					t.Fatalf("chunk %d is blank", i)
				}
			}
		})
	}
}

func TestSplitTextOverlapAndCoverage(t *testing.T) {
	s, err := New(60, 15, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := words(50)
	chunks := s.SplitText(text)

	for i := 1; i < len(chunks); i++ {
		prev := strings.Fields(chunks[i-1])
		next := strings.Fields(chunks[i])
		// the next chunk begins with a (possibly empty) tail of the previous one
		shared := 0
		for k := 1; k <= len(prev) && k <= len(next); k++ {
			if strings.Join(prev[len(prev)-k:], " ") == strings.Join(next[:k], " ") {
				shared = len(strings.Join(next[:k], " "))
			}
		}
		if shared > 15 {
			t.Fatalf("overlap %d exceeds 15 between %q and %q", shared, chunks[i-1], chunks[i])
		}
	}

	joined := strings.Join(chunks, " ")
	for _, w := range strings.Fields(text) {
		if !strings.Contains(joined, w) {
			t.Fatalf("word %s lost", w)
		}
	}
}

func TestSplitTextOverlapIsCarried(t *testing.T) {
	s, err := New(20, 8, []string{" "})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	chunks := s.SplitText("aaaa bbbb cccc dddd eeee ffff")
	want := []string{"aaaa bbbb cccc dddd", "dddd eeee ffff"}
	if strings.Join(chunks, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", chunks, want)
	}
}

func TestSplitTextCustomSeparatorsRespectSize(t *testing.T) {
	s, err := New(10, 2, []string{"\n\n", " "})
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	text := "short words\n\naveryveryverylongtokenwithoutspaces end"
	chunks := s.SplitText(text)
	for i, c := range chunks {
		if n := utf8.RuneCountInString(c); n > 10 {
			t.Fatalf("chunk %d %q has %d chars > 10", i, c, n)
		}
	}
	joined := strings.Join(chunks, "")
	for _, part := range []string{"short", "averyvery", "end"} {
		if !strings.Contains(joined, part) {
			t.Fatalf("text %q lost from %q", part, chunks)
		}
	}
}

func TestSplitTextKeepsSentenceEnds(t *testing.T) {
	s, err := New(40, 0, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	chunks := s.SplitText("Fees are due in September. Late payment incurs a fine. Refunds take a month.")
	want := []string{"Fees are due in September.", "Late payment incurs a fine.", "Refunds take a month."}
	if strings.Join(chunks, "|") != strings.Join(want, "|") {
		t.Fatalf("got %q, want %q", chunks, want)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cases := [][2]int{{0, 0}, {-5, 0}, {100, 100}, {100, -1}, {10, 20}}
	for _, c := range cases {
		if _, err := New(c[0], c[1], nil); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("size=%d overlap=%d: expected ErrInvalidConfig, got %v", c[0], c[1], err)
		}
	}
}

func TestSplitDocumentsKeepsMetadata(t *testing.T) {
	s, err := New(30, 5, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	docs := []models.Document{
		{Text: words(20), Source: "https://www.ajman.ac.ae/en/admission"},
		{Text: "  ", Source: "empty"},
		{Text: "short page text", Source: "guide.pdf", Page: 3},
	}
	chunks := s.SplitDocuments(docs)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	last := chunks[len(chunks)-1]
	if last.Source != "guide.pdf" || last.Page != 3 || last.Text != "short page text" || last.Index != 0 {
		t.Fatalf("unexpected last chunk %+v", last)
	}
	ids := map[string]bool{}
	for i, c := range chunks {
		if ids[c.ID] {
			t.Fatalf("duplicate id %s", c.ID)
		}
		ids[c.ID] = true
		if c.Source == "empty" {
			t.Fatalf("empty document produced a chunk")
		}
		if c.Source == docs[0].Source && !strings.HasSuffix(c.ID, fmt.Sprintf("#%d", i)) {
			t.Fatalf("chunk %d id %s does not carry its index", i, c.ID)
		}
	}
}
