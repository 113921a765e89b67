package generation

import (
	"strings"

	"golang.org/x/net/html"
)

// CleanContent strips HTML from raw article content and reflows it into
// readable sections. Heading-like lines (ending with ":") and list items
// (starting with "- ") stand alone; everything between them is joined into a
// single section. Sections are separated by blank lines.
func CleanContent(raw string) string {
	var cleanLines []string
	var section []string

	flush := func() {
		if len(section) > 0 {
			cleanLines = append(cleanLines, strings.Join(section, " "))
			section = section[:0]
		}
	}

	for _, line := range strippedStrings(raw) {
		if strings.HasSuffix(line, ":") || strings.HasPrefix(line, "- ") {
			flush()
			cleanLines = append(cleanLines, line)
			continue
		}
		section = append(section, line)
	}
	flush()

	return strings.Join(cleanLines, "\n\n")
}

// CleanSignatories strips HTML from the signatory block, one signatory per
// line. The upstream markup wraps each signatory in its own paragraph.
func CleanSignatories(raw string) string {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return strings.TrimSpace(raw)
	}

	var signatories []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "p" {
			if text := joinText(n); text != "" {
				signatories = append(signatories, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	if len(signatories) == 0 {
		// No paragraph structure: fall back to the flat text.
		return strings.Join(strippedStrings(raw), "\n")
	}
	return strings.Join(signatories, "\n")
}

// strippedStrings parses the HTML fragment and returns every non-empty text
// node with surrounding whitespace removed, in document order.
func strippedStrings(raw string) []string {
	root, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		line := strings.TrimSpace(raw)
		if line == "" {
			return nil
		}
		return []string{line}
	}

	var lines []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if line := strings.TrimSpace(n.Data); line != "" {
				lines = append(lines, collapseSpaces(line))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return lines
}

// joinText collects the stripped text nodes under n into one space-joined
// string.
func joinText(n *html.Node) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if line := strings.TrimSpace(n.Data); line != "" {
				parts = append(parts, collapseSpaces(line))
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
