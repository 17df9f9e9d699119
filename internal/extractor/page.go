package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Page is the read-only view of a fetched document that extraction needs.
type Page interface {
	URL() string
	// Text returns the trimmed text of the first match, or "".
	Text(selector string) string
	// Texts returns the trimmed text of every match in document order.
	Texts(selector string) []string
}

// DocumentPage adapts a goquery selection to Page.
type DocumentPage struct {
	url string
	sel *goquery.Selection
}

// NewDocumentPage wraps sel, usually the html element of a fetched document.
func NewDocumentPage(url string, sel *goquery.Selection) *DocumentPage {
	return &DocumentPage{url: url, sel: sel}
}

// NewPageFromHTML parses body and wraps the whole document.
func NewPageFromHTML(url, body string) (*DocumentPage, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	return NewDocumentPage(url, doc.Selection), nil
}

func (p *DocumentPage) URL() string { return p.url }

func (p *DocumentPage) Text(selector string) string {
	return strings.TrimSpace(p.sel.Find(selector).First().Text())
}

func (p *DocumentPage) Texts(selector string) []string {
	var out []string
	p.sel.Find(selector).Each(func(_ int, s *goquery.Selection) {
		out = append(out, strings.TrimSpace(s.Text()))
	})
	return out
}
