// Package parser extracts text and anchor targets from HTML pages.
package parser

import (
	"bytes"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"

	crawlerrors "github.com/PentesterFlow/icscrawl/internal/errors"
)

// HTMLParser parses HTML documents. It holds no state and is safe for
// concurrent use.
type HTMLParser struct{}

// NewHTMLParser creates a new HTML parser.
func NewHTMLParser() *HTMLParser {
	return &HTMLParser{}
}

// Parse decodes body using the charset from contentType or the document's
// meta tags, and returns its text and links resolved against base.
func (p *HTMLParser) Parse(base string, body []byte, contentType string) (*Document, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return nil, crawlerrors.NewParseError(base, "invalid base url", err)
	}

	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return nil, crawlerrors.NewParseError(base, "unsupported charset", err)
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, crawlerrors.NewParseError(base, "invalid html", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			baseURL = baseURL.ResolveReference(ref)
		}
	}

	result := &Document{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
		Links: make([]string, 0),
	}

	doc.Find("a[href]").Each(func(i int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		if resolved := resolveURL(baseURL, href); resolved != "" {
			result.Links = append(result.Links, resolved)
		}
	})

	doc.Find("script, style, noscript, template").Remove()
	result.Text = visibleText(doc.Selection)

	return result, nil
}

// resolveURL returns href as an absolute URL, or "" for hrefs that do not
// name a fetchable page.
func resolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}

	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") ||
		strings.HasPrefix(lower, "mailto:") ||
		strings.HasPrefix(lower, "tel:") ||
		strings.HasPrefix(lower, "data:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// visibleText joins every text node under sel with single spaces so
// adjacent elements never merge into one token.
func visibleText(sel *goquery.Selection) string {
	var b strings.Builder

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				if b.Len() > 0 {
					b.WriteByte(' ')
				}
				b.WriteString(t)
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	for _, n := range sel.Nodes {
		walk(n)
	}
	return b.String()
}
