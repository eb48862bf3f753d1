package frontmatter

import "github.com/inful/mdfp"

// Fingerprint hashes the full document (frontmatter and body) so callers can
// detect that a file changed between reading and rewriting it.
func (d *Document) Fingerprint() string {
	return mdfp.CalculateFingerprintFromParts(string(d.Raw), string(d.Body))
}

// FingerprintBytes is a convenience for Parse(content).Fingerprint().
// Content that cannot be split is hashed as a body-only document.
func FingerprintBytes(content []byte) string {
	doc, err := Parse(content)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", string(content))
	}
	return doc.Fingerprint()
}
