package acquire

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Text returns the visible text of an HTML document. Script and style
// contents are skipped and block boundaries become spaces.
func Text(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	return nodeText(doc), nil
}

func nodeText(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			buf.WriteString(n.Data)
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Head:
				return
			case atom.Br, atom.P, atom.Div, atom.Li:
				buf.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

// Description extracts the application description from a store page. It
// prefers an element marked itemprop="description", then the description
// meta tag, then the whole page text.
func Description(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}

	var itemprop, meta string
	var find func(*html.Node)
	find = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case itemprop == "" && attr(n, "itemprop") == "description":
				if n.DataAtom == atom.Meta {
					itemprop = strings.TrimSpace(attr(n, "content"))
				} else {
					itemprop = nodeText(n)
				}
			case meta == "" && n.DataAtom == atom.Meta && strings.EqualFold(attr(n, "name"), "description"):
				meta = strings.TrimSpace(attr(n, "content"))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			find(c)
		}
	}
	find(doc)

	switch {
	case itemprop != "":
		return itemprop, nil
	case meta != "":
		return meta, nil
	default:
		return nodeText(doc), nil
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
