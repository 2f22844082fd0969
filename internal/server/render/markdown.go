// Package render derives the parsed content stored next to raw revision
// content.
package render

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
)

// Markdown converts CommonMark source to HTML. Raw HTML in the source is
// dropped by goldmark's default renderer.
func Markdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
