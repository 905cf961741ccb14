package models

import (
	"fmt"
	"strings"
)

// Document is one unit of extracted text: a crawled page or a single PDF page.
type Document struct {
	Text   string `json:"text"`
	Source string `json:"source"`         // URL or file path
	Page   int    `json:"page,omitempty"` // 1-based PDF page, 0 when not paged
}

// Empty reports whether the document carries no text after trimming.
func (d Document) Empty() bool {
	return strings.TrimSpace(d.Text) == ""
}

// Key identifies the document by source and page.
func (d Document) Key() string {
	if d.Page > 0 {
		return fmt.Sprintf("%s#page=%d", d.Source, d.Page)
	}
	return d.Source
}

// Chunk is a bounded slice of one document's text and the unit of retrieval.
type Chunk struct {
	ID     string `json:"id"`
	Text   string `json:"text"`
	Source string `json:"source"`
	Page   int    `json:"page,omitempty"`
	Index  int    `json:"index"` // position within the parent document
}

// SearchHit is a ranked retrieval result.
type SearchHit struct {
	Chunk
	Score float64 `json:"score"`
	Rank  int     `json:"rank"`
}

// Snippet returns at most n leading characters of the hit text.
func (h SearchHit) Snippet(n int) string {
	r := []rune(h.Text)
	if n <= 0 || len(r) <= n {
		return h.Text
	}
	return string(r[:n]) + "..."
}

// ChatMessage is one role-tagged turn sent to the language model.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
