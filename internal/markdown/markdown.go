package markdown

// Options controls how Markdown is parsed for link analysis.
type Options struct {
	// SkipHTML disables extraction of <a href> anchors from raw HTML in the body.
	SkipHTML bool
}

type LinkKind string

const (
	LinkKindInline              LinkKind = "inline"
	LinkKindImage               LinkKind = "image"
	LinkKindAuto                LinkKind = "auto"
	LinkKindReferenceDefinition LinkKind = "reference_definition"
	LinkKindHTML                LinkKind = "html"
)

// Link is a link-like construct found in a Markdown body.
type Link struct {
	Kind        LinkKind
	Destination string
	// Text is the plain anchor text (empty for reference definitions).
	Text string
	// Offset is the byte position in the body where the link begins.
	Offset int
}
