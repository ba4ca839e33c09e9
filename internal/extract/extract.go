// Package extract parses an episode page into its title, publish timestamp,
// outbound links and article text.
package extract

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Extraction errors.
var (
	ErrMissingPublishedAt = errors.New("page has no publish timestamp")
	ErrBadPublishedAt     = errors.New("unparseable publish timestamp")
)

// timeLayouts are tried in order when parsing publish timestamps.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Page is the structured content of one episode page.
type Page struct {
	Title       string
	PublishedAt time.Time
	Links       []string // raw hrefs in document order; "" for anchors without href
	ArticleText string
}

// Options tunes extraction.
type Options struct {
	// ResolveRelative resolves hrefs against the page URL instead of keeping them raw.
	ResolveRelative bool
}

// Parse extracts a Page from HTML. pageURL is only used to resolve relative
// links when opts.ResolveRelative is set.
func Parse(pageURL string, r io.Reader, opts Options) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing html: %w", err)
	}

	published, err := findPublishedAt(doc)
	if err != nil {
		return nil, err
	}

	var base *url.URL
	if opts.ResolveRelative {
		base, err = url.Parse(pageURL)
		if err != nil {
			return nil, fmt.Errorf("parsing page url: %w", err)
		}
	}

	content := findContent(doc)
	return &Page{
		Title:       findTitle(doc),
		PublishedAt: published,
		Links:       collectLinks(content, base),
		ArticleText: collectText(content),
	}, nil
}

// findTitle prefers the first <h1>, then og:title, then <title>.
func findTitle(doc *html.Node) string {
	if h1 := findFirst(doc, atom.H1); h1 != nil {
		if t := normalizeSpace(textOf(h1)); t != "" {
			return t
		}
	}
	if og := findMeta(doc, "og:title"); og != "" {
		return normalizeSpace(og)
	}
	if title := findFirst(doc, atom.Title); title != nil {
		return normalizeSpace(textOf(title))
	}
	return ""
}

// findPublishedAt reads <time datetime> or the article:published_time meta tag.
func findPublishedAt(doc *html.Node) (time.Time, error) {
	raw := findMeta(doc, "article:published_time")
	if raw == "" {
		if t := findFirst(doc, atom.Time); t != nil {
			raw = attr(t, "datetime")
		}
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrMissingPublishedAt
	}

	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadPublishedAt, raw)
}

// findContent returns the element holding the article body.
func findContent(doc *html.Node) *html.Node {
	for _, a := range []atom.Atom{atom.Article, atom.Main, atom.Body} {
		if n := findFirst(doc, a); n != nil {
			return n
		}
	}
	return doc
}

func collectLinks(root *html.Node, base *url.URL) []string {
	links := []string{}
	walk(root, func(n *html.Node) bool {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return true
		}
		href := strings.TrimSpace(attr(n, "href"))
		if href != "" && base != nil {
			if ref, err := url.Parse(href); err == nil {
				href = base.ResolveReference(ref).String()
			}
		}
		links = append(links, href)
		return true
	})
	return links
}

// blockAtoms end a paragraph of article text.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true, atom.Blockquote: true, atom.Pre: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Section: true, atom.Br: true, atom.Tr: true,
}

// collectText flattens the visible text of root into paragraphs separated by blank lines.
func collectText(root *html.Node) string {
	var paragraphs []string
	var current strings.Builder

	flush := func() {
		if p := normalizeSpace(current.String()); p != "" {
			paragraphs = append(paragraphs, p)
		}
		current.Reset()
	}

	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			current.WriteString(n.Data)
			current.WriteString(" ")
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}

		block := n.Type == html.ElementNode && blockAtoms[n.DataAtom]
		if block {
			flush()
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
		if block {
			flush()
		}
	}
	visit(root)
	flush()

	return strings.Join(paragraphs, "\n\n")
}

func findMeta(doc *html.Node, property string) string {
	var content string
	walk(doc, func(n *html.Node) bool {
		if content != "" {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Meta {
			if attr(n, "property") == property || attr(n, "name") == property {
				content = attr(n, "content")
				return false
			}
		}
		return true
	})
	return content
}

func findFirst(doc *html.Node, a atom.Atom) *html.Node {
	var found *html.Node
	walk(doc, func(n *html.Node) bool {
		if found != nil {
			return false
		}
		if n.Type == html.ElementNode && n.DataAtom == a {
			found = n
			return false
		}
		return true
	})
	return found
}

// walk visits n and its descendants depth-first; returning false skips children.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textOf(n *html.Node) string {
	var b strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		}
		return true
	})
	return b.String()
}

func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
