package markdown

import (
	"bytes"
	"sort"
	"strings"

	"github.com/yuin/goldmark"
	gmast "github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
)

// ExtractLinks parses a Markdown body (frontmatter already removed) and extracts
// link-like constructs in document order.
//
// Links inside code spans and code blocks are not reported. Reference
// definitions come last, ordered by label.
func ExtractLinks(body []byte, opts Options) ([]Link, error) {
	md := goldmark.New()
	ctx := parser.NewContext()
	root := md.Parser().Parse(text.NewReader(body), parser.WithContext(ctx))

	links := make([]Link, 0)
	err := gmast.Walk(root, func(n gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}

		switch node := n.(type) {
		case *gmast.AutoLink:
			links = append(links, Link{Kind: LinkKindAuto, Destination: string(node.URL(body)), Text: string(node.Label(body)), Offset: inlineOffset(node)})
		case *gmast.Image:
			links = append(links, Link{Kind: LinkKindImage, Destination: string(node.Destination), Text: nodeText(node, body), Offset: inlineOffset(node)})
			return gmast.WalkSkipChildren, nil
		case *gmast.Link:
			// Goldmark resolves reference-style links to a Link node with a Destination.
			links = append(links, Link{Kind: LinkKindInline, Destination: string(node.Destination), Text: nodeText(node, body), Offset: inlineOffset(node)})
			return gmast.WalkSkipChildren, nil
		case *gmast.RawHTML:
			if !opts.SkipHTML {
				if l, ok := rawAnchor(node, body); ok {
					links = append(links, l)
				}
			}
		case *gmast.HTMLBlock:
			if !opts.SkipHTML {
				start := blockStart(node)
				for _, l := range htmlAnchors(blockSource(node, body)) {
					l.Offset = start
					links = append(links, l)
				}
			}
			return gmast.WalkSkipChildren, nil
		}
		return gmast.WalkContinue, nil
	})
	if err != nil {
		return nil, err
	}

	// Goldmark follows CommonMark strictly; generated articles sometimes carry
	// destinations with spaces that a regex scan would still treat as links.
	links = append(links, extractPermissiveLinks(body)...)
	sort.SliceStable(links, func(i, j int) bool { return links[i].Offset < links[j].Offset })

	// Reference definitions are stored in the parse context (not represented as AST nodes).
	refs := ctx.References()
	sort.Slice(refs, func(i, j int) bool {
		return string(refs[i].Label()) < string(refs[j].Label())
	})
	for _, ref := range refs {
		links = append(links, Link{Kind: LinkKindReferenceDefinition, Destination: string(ref.Destination()), Offset: len(body)})
	}

	return links, nil
}

// nodeText concatenates the literal text below n.
func nodeText(n gmast.Node, source []byte) string {
	var buf bytes.Buffer
	writeText(&buf, n, source)
	return strings.TrimSpace(buf.String())
}

func writeText(buf *bytes.Buffer, n gmast.Node, source []byte) {
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			buf.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *gmast.String:
			buf.Write(t.Value)
		}
		return gmast.WalkContinue, nil
	})
}

// inlineOffset approximates where an inline node starts. Inline links carry no
// position of their own, so the first text inside them is used, then the end
// of the text before them, then the start of the enclosing block.
func inlineOffset(n gmast.Node) int {
	if off, ok := firstTextStart(n); ok {
		return off
	}
	for prev := n.PreviousSibling(); prev != nil; prev = prev.PreviousSibling() {
		if off, ok := lastTextStop(prev); ok {
			return off
		}
	}
	for p := n.Parent(); p != nil; p = p.Parent() {
		if p.Type() == gmast.TypeBlock {
			return blockStart(p)
		}
	}
	return 0
}

func firstTextStart(n gmast.Node) (int, bool) {
	off, found := 0, false
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			off, found = t.Segment.Start, true
			return gmast.WalkStop, nil
		case *gmast.RawHTML:
			if t.Segments.Len() > 0 {
				off, found = t.Segments.At(0).Start, true
				return gmast.WalkStop, nil
			}
		}
		return gmast.WalkContinue, nil
	})
	return off, found
}

func lastTextStop(n gmast.Node) (int, bool) {
	off, found := 0, false
	_ = gmast.Walk(n, func(c gmast.Node, entering bool) (gmast.WalkStatus, error) {
		if !entering {
			return gmast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *gmast.Text:
			off, found = t.Segment.Stop, true
		case *gmast.RawHTML:
			if l := t.Segments.Len(); l > 0 {
				off, found = t.Segments.At(l-1).Stop, true
			}
		}
		return gmast.WalkContinue, nil
	})
	return off, found
}

func blockStart(n gmast.Node) int {
	if lines := n.Lines(); lines != nil && lines.Len() > 0 {
		return lines.At(0).Start
	}
	if off, ok := firstTextStart(n); ok {
		return off
	}
	return 0
}

// rawAnchor turns an inline <a href> opening tag into a link whose text runs
// up to the matching </a>.
func rawAnchor(n *gmast.RawHTML, source []byte) (Link, bool) {
	if n.Segments.Len() == 0 {
		return Link{}, false
	}
	raw := rawValue(n, source)
	z := html.NewTokenizer(bytes.NewReader(raw))
	if z.Next() != html.StartTagToken {
		return Link{}, false
	}
	name, hasAttr := z.TagName()
	if string(name) != "a" {
		return Link{}, false
	}
	href := ""
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = z.TagAttr()
		if string(key) == "href" {
			href = strings.TrimSpace(string(val))
		}
	}
	if href == "" {
		return Link{}, false
	}

	var buf bytes.Buffer
	for s := n.NextSibling(); s != nil; s = s.NextSibling() {
		if r, ok := s.(*gmast.RawHTML); ok {
			if bytes.HasPrefix(bytes.ToLower(rawValue(r, source)), []byte("</a")) {
				break
			}
			continue
		}
		writeText(&buf, s, source)
	}

	return Link{
		Kind:        LinkKindHTML,
		Destination: href,
		Text:        strings.Join(strings.Fields(buf.String()), " "),
		Offset:      n.Segments.At(0).Start,
	}, true
}

func rawValue(n *gmast.RawHTML, source []byte) []byte {
	var buf bytes.Buffer
	for i := 0; i < n.Segments.Len(); i++ {
		seg := n.Segments.At(i)
		buf.Write(seg.Value(source))
	}
	return buf.Bytes()
}

func blockSource(n gmast.Node, source []byte) []byte {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(source))
	}
	if hb, ok := n.(*gmast.HTMLBlock); ok && hb.HasClosure() {
		buf.Write(hb.ClosureLine.Value(source))
	}
	return buf.Bytes()
}
