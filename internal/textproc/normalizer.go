// Package textproc implements the pure, I/O-free text primitives the
// pipeline relies on for its zero-tolerance post-conditions: HTML-entity
// encoding of text nodes, AI-marker dash removal, and citation marker
// linkification. Tag/text-run boundaries are found with
// golang.org/x/net/html's tokenizer, used here as a rewriter rather than
// an extractor.
package textproc

import (
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// knownEntityPrefix matches the entities EncodeEntities must not double-encode.
var knownEntityPrefix = regexp.MustCompile(`^&(amp|lt|gt|quot|#[0-9]+|#x[0-9a-fA-F]+|[a-zA-Z]+);`)

// EncodeEntities replaces bare '&' characters in text nodes with '&amp;',
// leaving tag tokens and already-valid entities untouched. It is idempotent:
// EncodeEntities(EncodeEntities(s)) == EncodeEntities(s).
func EncodeEntities(s string) string {
	var out strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			// tokenizer.Err == io.EOF in the normal case; any remaining
			// buffered bytes (malformed trailing markup) are flushed as text
			// so they still go through entity encoding rather than vanishing.
			if rest, err := io.ReadAll(tokenizer.Buffered()); err == nil && len(rest) > 0 {
				out.WriteString(encodeTextRun(string(rest)))
			}
			return out.String()
		}

		raw := string(tokenizer.Raw())
		if tt == html.TextToken {
			out.WriteString(encodeTextRun(raw))
		} else {
			// Tag tokens (start/end/self-closing/comment/doctype) pass
			// through byte-for-byte.
			out.WriteString(raw)
		}
	}
}

// encodeTextRun encodes bare '&' in a text-only run, skipping ones that
// already begin a recognized entity.
func encodeTextRun(s string) string {
	if !strings.Contains(s, "&") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '&' {
			b.WriteByte(c)
			continue
		}
		if knownEntityPrefix.MatchString(s[i:]) {
			b.WriteByte(c)
			continue
		}
		b.WriteString("&amp;")
	}
	return b.String()
}

const (
	emDash = '—'
	enDash = '–'
)

// StripDashes removes U+2014 (em dash) and U+2013 (en dash) from s,
// replacing each with '-', using ' - ' (space-hyphen-space) when the dash
// sits directly between two letters so words don't get jammed together.
// Existing hyphens are left untouched. Idempotent.
func StripDashes(s string) string {
	if !strings.ContainsRune(s, emDash) && !strings.ContainsRune(s, enDash) {
		return s
	}
	runes := []rune(s)
	var b strings.Builder
	b.Grow(len(s) + 8)
	for i, r := range runes {
		if r != emDash && r != enDash {
			b.WriteRune(r)
			continue
		}
		prevLetter := i > 0 && isLetter(runes[i-1])
		nextLetter := i+1 < len(runes) && isLetter(runes[i+1])
		if prevLetter && nextLetter {
			b.WriteString(" - ")
		} else {
			b.WriteRune('-')
		}
	}
	return b.String()
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// HasDash reports whether s contains an em dash or en dash. Used by Stage 3's
// post-condition scan and Stage 10's hard invariant check.
func HasDash(s string) bool {
	return strings.ContainsRune(s, emDash) || strings.ContainsRune(s, enDash)
}

// tagPattern matches a single HTML tag, used by HasHTMLTag for the
// plain-text-field invariant (: "MUST NOT contain HTML tags at
// any observable boundary").
var tagPattern = regexp.MustCompile(`<[^>]*>`)

// HasHTMLTag reports whether s contains anything that looks like an HTML
// tag boundary. Used to validate fields declared plain-text.
func HasHTMLTag(s string) bool {
	return strings.ContainsRune(s, '<') || tagPattern.MatchString(s)
}

// StripHTMLTags removes tag tokens from s and returns the concatenated text
// runs, used by Stage 2 to strip tags from fields declared plain-text
// immediately on extraction, and by Stage 7's word-count computation.
func StripHTMLTags(s string) string {
	var out strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			return strings.TrimSpace(out.String())
		}
		if tt == html.TextToken {
			out.Write(tokenizer.Text())
		}
	}
}
