// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package distill extracts the main content of a web page as Markdown.
//
// Noise (scripts, navigation, ads, social widgets) is stripped first, then
// the main content region is chosen from a fixed, ordered selector table and
// converted with ATX headings and fenced code blocks.
package distill

import (
	"log/slog"
	"net/url"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

const untitled = "Untitled"

// noiseElements are removed wherever they appear.
const noiseElements = "script, style, iframe, nav, footer, header, aside"

// attrMatch removes an element whose attribute value contains substr,
// compared case-insensitively.
type attrMatch struct {
	attr   string
	substr string
}

// noiseAttrs lists ad and social widget markers, checked in order.
var noiseAttrs = []attrMatch{
	{"class", "ad"},
	{"class", "advertisement"},
	{"id", "ad-"},
	{"id", "advertisement"},
	{"class", "social"},
	{"id", "social"},
}

// protectedElements are never removed by attribute matching.
var protectedElements = map[string]bool{
	"html":  true,
	"head":  true,
	"body":  true,
	"title": true,
}

// contentSelectors locate the main content region. The first selector
// matching any element wins.
var contentSelectors = []string{
	"article",
	`[role="main"]`,
	".post-content",
	".article-content",
	".entry-content",
	".content-area",
	"main",
	"#main-content",
}

// Result is a distilled page.
type Result struct {
	Title    string
	Markdown string
}

// Distiller turns raw HTML into a title and a Markdown body.
type Distiller struct {
	logger *slog.Logger
}

// New creates a Distiller. A nil logger discards log output.
func New(logger *slog.Logger) *Distiller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Distiller{logger: logger}
}

// Distill extracts the title and main content of rawHTML. pageURL, when
// set, is used to resolve relative links. Malformed HTML never fails: the
// parser is lenient, and anything it cannot make sense of yields an
// "Untitled" page with an empty body.
func (d *Distiller) Distill(rawHTML, pageURL string) Result {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		d.logger.Warn("parsing HTML failed", "url", pageURL, "error", err)
		return Result{Title: untitled}
	}

	stripNoise(doc)
	region, selector := mainContent(doc)
	title := extractTitle(doc)

	inner, err := region.Html()
	if err != nil {
		d.logger.Warn("rendering content region failed", "url", pageURL, "selector", selector, "error", err)
		return Result{Title: title}
	}

	markdown, err := newConverter(pageURL).ConvertString(inner)
	if err != nil {
		d.logger.Warn("converting to Markdown failed", "url", pageURL, "error", err)
		return Result{Title: title}
	}

	d.logger.Debug("page distilled",
		"url", pageURL,
		"selector", selector,
		"title", title,
		"html_bytes", len(rawHTML),
		"markdown_bytes", len(markdown),
	)
	return Result{Title: title, Markdown: markdown}
}

// stripNoise removes noise elements and elements carrying ad or social
// markers in their class or id.
func stripNoise(doc *goquery.Document) {
	doc.Find(noiseElements).Remove()
	doc.Find("[class], [id]").FilterFunction(func(_ int, s *goquery.Selection) bool {
		if protectedElements[goquery.NodeName(s)] {
			return false
		}
		for _, m := range noiseAttrs {
			if v, ok := s.Attr(m.attr); ok && strings.Contains(strings.ToLower(v), m.substr) {
				return true
			}
		}
		return false
	}).Remove()
}

// mainContent returns the first element matched by the selector table, or
// the body when nothing matches, along with the selector used.
func mainContent(doc *goquery.Document) (*goquery.Selection, string) {
	for _, sel := range contentSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			return found.First(), sel
		}
	}
	return doc.Find("body").First(), "body"
}

// extractTitle prefers the <title> element, then the first <h1>.
func extractTitle(doc *goquery.Document) string {
	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}
	if h1 := strings.TrimSpace(doc.Find("h1").First().Text()); h1 != "" {
		return h1
	}
	return untitled
}

func newConverter(pageURL string) *md.Converter {
	var host string
	if u, err := url.Parse(pageURL); err == nil {
		host = u.Host
	}
	return md.NewConverter(host, true, &md.Options{
		HeadingStyle:   "atx",
		CodeBlockStyle: "fenced",
	})
}
