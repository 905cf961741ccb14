package pdfextract

import (
	"regexp"
	"strings"
)

var blankLine = regexp.MustCompile(`\n[ \t]*\n`)

// MergePageText combines the block and plain renderings of one page.
// The longer rendering is the baseline; the other is appended only when it is not
// already contained in it. Repeated paragraphs, and lines already emitted by an
// earlier paragraph, are dropped keeping first-seen order.
func MergePageText(block, plain string) string {
	block = normalizeNewlines(strings.TrimSpace(block))
	plain = normalizeNewlines(strings.TrimSpace(plain))

	base, other := block, plain
	if len(plain) > len(block) {
		base, other = plain, block
	}
	combined := base
	if other != "" && !strings.Contains(base, other) {
		combined = base + "\n\n" + other
	}
	return dedupParagraphs(combined)
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}

func dedupParagraphs(text string) string {
	seenPara := make(map[string]bool)
	seenLine := make(map[string]bool)
	var out []string

	for _, para := range blankLine.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" || seenPara[para] {
			continue
		}
		seenPara[para] = true

		var kept []string
		for _, l := range strings.Split(para, "\n") {
			l = strings.TrimSpace(l)
			if l == "" || seenLine[l] {
				continue
			}
			kept = append(kept, l)
		}
		if len(kept) == 0 {
			continue
		}
		for _, l := range kept {
			seenLine[l] = true
		}
		out = append(out, strings.Join(kept, "\n"))
	}
	return strings.Join(out, "\n\n")
}
