package browser

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// snapshotMaxLength caps diagnostic HTML snapshots; the interesting
// selectors sit well inside the first part of the document.
const snapshotMaxLength = 200000

// Elements dropped from snapshots entirely.
var snapshotSkippedElements = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"svg":      true,
	"embed":    true,
	"object":   true,
}

// Attributes kept in snapshots: the ones selectors are built from.
var snapshotKeptAttributes = map[string]bool{
	"id":          true,
	"class":       true,
	"role":        true,
	"type":        true,
	"name":        true,
	"placeholder": true,
	"href":        true,
	"src":         true,
	"aria-label":  true,
}

// cleanSnapshot strips scripts, styles and presentation noise from raw
// HTML, keeping structure and the attributes element probes target.
func cleanSnapshot(raw string, maxLength int) (string, error) {
	doc, err := html.Parse(strings.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("failed to parse page HTML: %w", err)
	}

	var builder strings.Builder
	writeSnapshotNode(doc, &builder, maxLength)
	return builder.String(), nil
}

func writeSnapshotNode(n *html.Node, builder *strings.Builder, maxLength int) {
	if builder.Len() >= maxLength {
		return
	}

	switch n.Type {
	case html.CommentNode:
		return

	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return
		}
		// A single huge text node must not blow past the cap.
		if remaining := maxLength - builder.Len(); len(text) > remaining {
			text = text[:remaining] + "..."
		}
		builder.WriteString(text)
		return

	case html.ElementNode:
		tag := strings.ToLower(n.Data)
		if snapshotSkippedElements[tag] {
			return
		}

		builder.WriteString("<")
		builder.WriteString(tag)
		for _, attr := range n.Attr {
			key := strings.ToLower(attr.Key)
			if snapshotKeptAttributes[key] || strings.HasPrefix(key, "data-") {
				fmt.Fprintf(builder, " %s=%q", key, attr.Val)
			}
		}
		builder.WriteString(">")

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeSnapshotNode(c, builder, maxLength)
		}

		builder.WriteString("</")
		builder.WriteString(tag)
		builder.WriteString(">\n")
		return

	default:
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			writeSnapshotNode(c, builder, maxLength)
		}
	}
}
