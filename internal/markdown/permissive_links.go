package markdown

import "strings"

// extractPermissiveLinks scans line by line for inline links whose destination
// contains whitespace, e.g. [Next](/articles/next post). CommonMark rejects
// those, so goldmark never reports them.
func extractPermissiveLinks(body []byte) []Link {
	var out []Link
	fence := ""
	next := 0
	for _, line := range strings.Split(string(body), "\n") {
		start := next
		next += len(line) + 1
		trimmed := strings.TrimSpace(line)
		if marker := fenceMarker(trimmed); marker != "" {
			switch fence {
			case "":
				fence = marker
			case marker:
				fence = ""
			}
			continue
		}
		if fence != "" || strings.HasPrefix(line, "    ") || strings.HasPrefix(line, "\t") {
			continue
		}
		for _, l := range spacedInlineLinks(blankCodeSpans(line)) {
			l.Offset += start
			out = append(out, l)
		}
	}
	return out
}

func fenceMarker(line string) string {
	for _, m := range []string{"```", "~~~"} {
		if strings.HasPrefix(line, m) {
			return m
		}
	}
	return ""
}

// blankCodeSpans replaces `code` spans with spaces so byte positions are
// kept; an unmatched backtick run is kept.
func blankCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}
		n := 1
		for i+n < len(b) && b[i+n] == '`' {
			n++
		}
		end := strings.Index(s[i+n:], s[i:i+n])
		if end < 0 {
			i += n
			continue
		}
		stop := i + n + end + n
		for k := i; k < stop; k++ {
			b[k] = ' '
		}
		i = stop
	}
	return string(b)
}

// spacedInlineLinks returns [text](dest) links in line whose dest has a space
// or tab once an optional "title" is removed. Images are ignored.
func spacedInlineLinks(line string) []Link {
	var out []Link
	for i := 0; i+1 < len(line); i++ {
		if line[i] != ']' || line[i+1] != '(' {
			continue
		}
		open := strings.LastIndexByte(line[:i], '[')
		if open < 0 || (open > 0 && line[open-1] == '!') {
			continue
		}
		closing := strings.IndexByte(line[i+2:], ')')
		if closing < 0 {
			continue
		}

		dest := strings.TrimSpace(line[i+2 : i+2+closing])
		for _, quote := range []string{` "`, ` '`} {
			if before, _, ok := strings.Cut(dest, quote); ok {
				dest = strings.TrimSpace(before)
				break
			}
		}
		if !strings.ContainsAny(dest, " \t") {
			continue
		}
		out = append(out, Link{
			Kind:        LinkKindInline,
			Destination: dest,
			Text:        strings.TrimSpace(line[open+1 : i]),
			Offset:      open + 1,
		})
	}
	return out
}
