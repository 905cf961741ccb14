package crawler

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/mohammad-safakhou/campusbot/internal/helpers"
)

// StripLevel selects how aggressively non-content markup is removed.
type StripLevel string

const (
	StripFull  StripLevel = "full"
	StripLight StripLevel = "light"
)

var stripSelectors = map[StripLevel]string{
	StripFull:  "script, style, nav, footer, iframe, noscript",
	StripLight: "script, style, noscript",
}

var blockElements = map[string]bool{
	"address": true, "article": true, "aside": true, "blockquote": true, "br": true,
	"dd": true, "div": true, "dl": true, "dt": true, "figcaption": true, "form": true,
	"h1": true, "h2": true, "h3": true, "h4": true, "h5": true, "h6": true,
	"header": true, "hr": true, "li": true, "main": true, "ol": true, "p": true,
	"pre": true, "section": true, "table": true, "td": true, "th": true, "tr": true, "ul": true,
}

type ExtractOptions struct {
	Strip       StripLevel
	Readability bool
}

// Page is the text and outgoing links of one fetched HTML page.
type Page struct {
	URL   string
	Title string
	Text  string
	Links []string
}

// ExtractPage parses html, collects absolute http(s) links in document order and returns the
// visible text with one line per block element.
func ExtractPage(pageURL, html string, opts ExtractOptions) (Page, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return Page{}, fmt.Errorf("parse page url: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Page{}, fmt.Errorf("parse html: %w", err)
	}

	page := Page{URL: pageURL, Title: strings.TrimSpace(doc.Find("title").First().Text())}
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		if link, ok := helpers.ResolveLink(base, href); ok {
			page.Links = append(page.Links, link)
		}
	})

	if opts.Readability {
		if article, err := readability.FromReader(strings.NewReader(html), base); err == nil {
			if text := normalizeLines(article.TextContent); text != "" {
				page.Text = text
				return page, nil
			}
		}
	}

	sel, ok := stripSelectors[opts.Strip]
	if !ok {
		sel = stripSelectors[StripFull]
	}
	doc.Find(sel).Remove()

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	var b strings.Builder
	writeText(&b, root)
	page.Text = normalizeLines(b.String())
	return page, nil
}

func writeText(b *strings.Builder, sel *goquery.Selection) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		name := goquery.NodeName(node)
		switch {
		case name == "#text":
			b.WriteString(node.Text())
		case name == "#comment":
		case blockElements[name]:
			b.WriteByte('\n')
			writeText(b, node)
			b.WriteByte('\n')
		default:
			writeText(b, node)
		}
	})
}

// normalizeLines collapses runs of whitespace inside each line and drops blank lines.
func normalizeLines(s string) string {
	lines := strings.Split(s, "\n")
	out := lines[:0]
	for _, line := range lines {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			out = append(out, line)
		}
	}
	return strings.Join(out, "\n")
}
