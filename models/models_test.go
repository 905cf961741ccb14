package models

import "testing"

func TestDocumentKey(t *testing.T) {
	if got := (Document{Source: "a.pdf", Page: 3}).Key(); got != "a.pdf#page=3" {
		t.Fatalf("unexpected key %q", got)
	}
	if got := (Document{Source: "https://x.test/"}).Key(); got != "https://x.test/" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestDocumentEmpty(t *testing.T) {
	if !(Document{Text: " \n\t"}).Empty() {
		t.Fatalf("whitespace document should be empty")
	}
	if (Document{Text: "x"}).Empty() {
		t.Fatalf("non-empty document reported empty")
	}
}

func TestSnippet(t *testing.T) {
	h := SearchHit{Chunk: Chunk{Text: "héllo world"}}
	if got := h.Snippet(5); got != "héllo..." {
		t.Fatalf("unexpected snippet %q", got)
	}
	if got := h.Snippet(50); got != "héllo world" {
		t.Fatalf("unexpected snippet %q", got)
	}
}
