package helpers

import "testing"

func TestFormatCitation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		in   Citation
		opts []CitationOption
		want string
	}{
		{
			name: "web page",
			in: Citation{Rank: 1, Score: 0.91234, Source: "https://www.ajman.ac.ae:443/en/admissions",
				Snippet: "Applications   open\nin March."},
			want: `[1] 0.9123 www.ajman.ac.ae - "Applications open in March." <https://www.ajman.ac.ae:443/en/admissions>`,
		},
		{
			name: "pdf page",
			in:   Citation{Rank: 2, Score: 0.5, Source: "data/pdf/catalog.pdf", Page: 3, Snippet: "Course list"},
			want: `[2] 0.5000 catalog.pdf (p. 3) - "Course list" <data/pdf/catalog.pdf>`,
		},
		{
			name: "truncated",
			in:   Citation{Rank: 3, Score: 0.1, Source: "https://uni.test/x", Snippet: "abcdefghij"},
			opts: []CitationOption{WithMaxSnippetLength(4)},
			want: `[3] 0.1000 uni.test - "abcd…" <https://uni.test/x>`,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatCitation(tc.in, tc.opts...); got != tc.want {
				t.Fatalf("FormatCitation() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestFormatCitationsBatch(t *testing.T) {
	t.Parallel()
	if FormatCitations(nil) != nil {
		t.Fatalf("expected nil for empty input")
	}
	items := FormatCitations([]Citation{{Rank: 1, Source: "https://a.test"}, {Rank: 2, Source: "https://b.test"}})
	if len(items) != 2 || items[0] == items[1] {
		t.Fatalf("unexpected citations %#v", items)
	}
}
