package markdown

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
)

// htmlAnchors returns every <a href> element found in an HTML fragment.
//
// Bodies converted from HTML drafts keep some anchors as raw HTML, so these
// count as links just like Markdown ones.
func htmlAnchors(fragment []byte) []Link {
	if !bytes.Contains(bytes.ToLower(fragment), []byte("<a")) {
		return nil
	}

	doc, err := html.Parse(bytes.NewReader(fragment))
	if err != nil {
		return nil
	}

	var links []Link
	var visit func(*html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			if href := attr(n, "href"); href != "" {
				links = append(links, Link{Kind: LinkKindHTML, Destination: href, Text: textContent(n)})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(doc)
	return links
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.Join(strings.Fields(sb.String()), " ")
}
