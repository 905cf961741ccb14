// Package chunker splits document text into overlapping windows that fit an embedding call.
package chunker

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/campusbot/models"
)

const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
)

// DefaultSeparators are tried in order, coarsest first. The empty separator splits into characters.
var DefaultSeparators = []string{"\n\n", "\n", ". ", " ", ""}

var ErrInvalidConfig = errors.New("invalid chunker configuration")

// Splitter is a recursive character splitter. Sizes are measured in characters (runes).
type Splitter struct {
	ChunkSize    int
	ChunkOverlap int
	Separators   []string
}

func New(size, overlap int, separators []string) (*Splitter, error) {
	s := &Splitter{ChunkSize: size, ChunkOverlap: overlap, Separators: separators}
	if len(s.Separators) == 0 {
		s.Separators = DefaultSeparators
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

func Default() *Splitter {
	return &Splitter{ChunkSize: DefaultChunkSize, ChunkOverlap: DefaultChunkOverlap, Separators: DefaultSeparators}
}

func (s *Splitter) Validate() error {
	if s.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, s.ChunkSize)
	}
	if s.ChunkOverlap < 0 || s.ChunkOverlap >= s.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, %d), got %d", ErrInvalidConfig, s.ChunkSize, s.ChunkOverlap)
	}
	return nil
}

// SplitText splits text into chunks of at most ChunkSize characters, where consecutive
// chunks share up to ChunkOverlap characters. Text that already fits is returned as is.
func (s *Splitter) SplitText(text string) []string {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}
	if runeLen(trimmed) <= s.ChunkSize {
		return []string{trimmed}
	}
	seps := s.Separators
	if len(seps) == 0 {
		seps = DefaultSeparators
	}
	var out []string
	for _, c := range s.split(trimmed, seps) {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

func (s *Splitter) split(text string, seps []string) []string {
	sep, rest := seps[len(seps)-1], []string(nil)
	for i, candidate := range seps {
		if candidate == "" || strings.Contains(text, candidate) {
			sep, rest = candidate, seps[i+1:]
			break
		}
	}

	// joiner is what merge puts back between pieces. Punctuation separators such as
	// ". " stay on the end of the piece before them.
	var pieces []string
	joiner := sep
	switch {
	case sep == "":
		for _, r := range text {
			pieces = append(pieces, string(r))
		}
	case strings.TrimSpace(sep) == "":
		pieces = strings.Split(text, sep)
	default:
		pieces = strings.SplitAfter(text, sep)
		joiner = ""
	}

	var chunks, pending []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) <= s.ChunkSize {
			pending = append(pending, p)
			continue
		}
		if len(pending) > 0 {
			chunks = append(chunks, s.merge(pending, joiner)...)
			pending = nil
		}
		if len(rest) == 0 {
			// no finer separator left, fall back to characters
			rest = []string{""}
		}
		chunks = append(chunks, s.split(p, rest)...)
	}
	if len(pending) > 0 {
		chunks = append(chunks, s.merge(pending, joiner)...)
	}
	return chunks
}

// merge packs pieces greedily into windows no longer than ChunkSize. When a window is full,
// pieces are dropped from its front until what remains fits in ChunkOverlap, and the next
// window starts from that tail.
func (s *Splitter) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	var out, window []string
	total := 0

	for _, p := range pieces {
		n := runeLen(p)
		extra := 0
		if len(window) > 0 {
			extra = sepLen
		}
		if total+n+extra > s.ChunkSize && len(window) > 0 {
			out = append(out, strings.Join(window, sep))
			for len(window) > 0 && (total > s.ChunkOverlap || (total+n+sepLen > s.ChunkSize && total > 0)) {
				// drop from the front until the tail fits the overlap and leaves room for p
				total -= runeLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, p)
		total += n
	}
	if len(window) > 0 {
		out = append(out, strings.Join(window, sep))
	}
	return out
}

// SplitDocuments chunks each document independently. Chunks inherit their parent's source and page.
func (s *Splitter) SplitDocuments(docs []models.Document) []models.Chunk {
	var chunks []models.Chunk
	for _, d := range docs {
		if d.Empty() {
			continue
		}
		prefix := docID(d)
		for i, text := range s.SplitText(d.Text) {
			chunks = append(chunks, models.Chunk{
				ID:     fmt.Sprintf("%s#%d", prefix, i),
				Text:   text,
				Source: d.Source,
				Page:   d.Page,
				Index:  i,
			})
		}
	}
	return chunks
}

func docID(d models.Document) string {
	sum := sha1.Sum([]byte(d.Key()))
	return hex.EncodeToString(sum[:])[:12]
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
