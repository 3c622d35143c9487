package corpus

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Page is the content extracted from one HTML document.
type Page struct {
	Title string
	Tags  []string
	Body  string
}

// ExtractPage parses an HTML document and pulls out the title, the category
// tags (anchors marked rel="category tag"), and the visible body text with
// script and style content dropped.
func ExtractPage(r io.Reader) (*Page, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	page := &Page{}
	var sb strings.Builder
	var walk func(n *html.Node, skip bool)
	walk = func(n *html.Node, skip bool) {
		switch n.Type {
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "noscript":
				skip = true
			case "title":
				if page.Title == "" {
					page.Title = NormalizeWhitespace(nodeText(n))
				}
				skip = true
			case "a":
				if attrValue(n, "rel") == "category tag" {
					if tag := NormalizeWhitespace(nodeText(n)); tag != "" {
						page.Tags = append(page.Tags, tag)
					}
				}
			}
		case html.TextNode:
			if !skip {
				sb.WriteString(n.Data)
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, skip)
		}
	}
	walk(doc, false)

	page.Body = NormalizeWhitespace(sb.String())
	return page, nil
}

// NormalizeWhitespace collapses runs of whitespace into single spaces and
// trims the ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func nodeText(n *html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
