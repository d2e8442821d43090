// Package ingestion turns raw documents into classified, concept-tagged,
// embedded chunks and runs batch jobs over many documents at once.
package ingestion

import (
	"regexp"
	"strings"
)

// Format of a raw document, detected by cheap content sniffing.
type Format string

const (
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
	FormatPlain    Format = "plain"
)

// DetectFormat sniffs the input: a tag start wins over a heading marker,
// anything else is plain text.
func DetectFormat(raw string) Format {
	if strings.Contains(raw, "<") {
		return FormatHTML
	}
	if strings.Contains(raw, "#") {
		return FormatMarkdown
	}
	return FormatPlain
}

var (
	htmlTagRe       = regexp.MustCompile(`<[^>]*>`)
	mdImageRe       = regexp.MustCompile(`!\[([^\]]*)\]\([^)]*\)`)
	mdLinkRe        = regexp.MustCompile(`\[([^\]]*)\]\([^)]*\)`)
	mdHeadingLineRe = regexp.MustCompile(`(?m)^(#{1,6}) (.+)$`)
	headingLineRe   = regexp.MustCompile(`^#{1,6} (.+)$`)
	bracketLineRe   = regexp.MustCompile(`^\[(.+)\]$`)
)

// Parse normalizes raw input to plain text according to its format.
func Parse(raw string) (string, Format) {
	format := DetectFormat(raw)
	switch format {
	case FormatHTML:
		return parseHTML(raw), format
	case FormatMarkdown:
		return parseMarkdown(raw), format
	default:
		return raw, format
	}
}

// parseHTML strips tags and decodes the five basic entities.
func parseHTML(raw string) string {
	text := htmlTagRe.ReplaceAllString(raw, "")
	replacer := strings.NewReplacer(
		"&lt;", "<",
		"&gt;", ">",
		"&quot;", `"`,
		"&#39;", "'",
		"&amp;", "&",
	)
	return replacer.Replace(text)
}

// parseMarkdown keeps alt/link text, drops inline code backticks and turns
// "# Heading" lines into "[Heading]" markers so section boundaries survive
// into the chunked text.
func parseMarkdown(raw string) string {
	text := mdImageRe.ReplaceAllString(raw, "$1")
	text = mdLinkRe.ReplaceAllString(text, "$1")
	text = strings.ReplaceAll(text, "`", "")
	text = mdHeadingLineRe.ReplaceAllString(text, "[$2]")
	return text
}

// SectionAt scans backwards from offset to the nearest heading at or before
// it, recognizing both raw "# Heading" lines and the "[Heading]" markers the
// markdown parser emits. The line containing the offset counts, so a chunk
// that begins on a heading belongs to that section. Without any heading the
// section is "introduction".
func SectionAt(text string, offset int) string {
	if offset > len(text) {
		offset = len(text)
	}
	end := strings.IndexByte(text[offset:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += offset
	}
	lines := strings.Split(text[:end], "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if m := headingLineRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
		if m := bracketLineRe.FindStringSubmatch(line); m != nil {
			return m[1]
		}
	}
	return "introduction"
}
