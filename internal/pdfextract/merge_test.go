package pdfextract

import "testing"

func TestMergePageText(t *testing.T) {
	tests := []struct {
		name  string
		block string
		plain string
		want  string
	}{
		{
			name:  "identical modes yield one copy",
			block: "Tuition Fees\n\nAED 45,000 per year",
			plain: "Tuition Fees\n\nAED 45,000 per year",
			want:  "Tuition Fees\n\nAED 45,000 per year",
		},
		{
			name:  "shorter mode contained in longer is not appended",
			block: "Tuition",
			plain: "Tuition Fees\n\nAED 45,000",
			want:  "Tuition Fees\n\nAED 45,000",
		},
		{
			name:  "disjoint text is appended after the richer baseline",
			block: "Scholarships cover 50%",
			plain: "Deadline: 1 August\n\nLate fee applies",
			want:  "Deadline: 1 August\n\nLate fee applies\n\nScholarships cover 50%",
		},
		{
			name:  "duplicate paragraphs across modes dropped keeping order",
			block: "A para\n\nB para",
			plain: "B para\n\nC para\n\nA para",
			want:  "B para\n\nC para\n\nA para",
		},
		{
			name:  "lines already emitted are not repeated",
			block: "Fees\nAED 10",
			plain: "Intro text here\n\nFees\nAED 10\nPayable yearly",
			want:  "Intro text here\n\nFees\nAED 10\nPayable yearly",
		},
		{
			name:  "both empty",
			block: "  ",
			plain: "\n",
			want:  "",
		},
		{
			name:  "one mode empty",
			block: "",
			plain: "Only text",
			want:  "Only text",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := MergePageText(tt.block, tt.plain); got != tt.want {
				t.Fatalf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMergePageTextNoRepeatedParagraphs(t *testing.T) {
	got := MergePageText("X\n\nY\n\nX", "Y\n\nZ")
	seen := map[string]bool{}
	for _, p := range blankLine.Split(got, -1) {
		if seen[p] {
			t.Fatalf("paragraph %q repeated in %q", p, got)
		}
		seen[p] = true
	}
}

func TestGroupBlocks(t *testing.T) {
	lines := []line{
		{Y: 700, Text: "Title"},
		{Y: 688, Text: "subtitle"},
		{Y: 640, Text: "Body one"},
		{Y: 628, Text: "Body two"},
		{Y: 616, Text: ""},
	}
	want := "Title\nsubtitle\n\nBody one\nBody two"
	if got := groupBlocks(lines); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
	if got := groupBlocks(nil); got != "" {
		t.Fatalf("expected empty, got %q", got)
	}
}

func TestJoinFragments(t *testing.T) {
	frags := []fragment{
		{X: 40, W: 20, Size: 10, S: "Fees"},
		{X: 10, W: 25, Size: 10, S: "Tuition"},
		{X: 35, W: 2, Size: 10, S: ""},
	}
	if got := joinFragments(frags); got != "Tuition Fees" {
		t.Fatalf("got %q", got)
	}
	glued := []fragment{{X: 0, W: 5, Size: 10, S: "A"}, {X: 5, W: 5, Size: 10, S: "B"}}
	if got := joinFragments(glued); got != "AB" {
		t.Fatalf("adjacent fragments should not get a space, got %q", got)
	}
}
