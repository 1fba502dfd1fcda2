// Package render turns mail content into text for the terminal.
package render

import (
	"strings"

	"github.com/jaytaylor/html2text"
	"github.com/microcosm-cc/bluemonday"

	"github.com/nhle/throwmail/internal/model"
)

var policy = bluemonday.UGCPolicy()

// Body returns the readable body of a message. HTML content is sanitized
// and converted to text; the plain text body is used when there is no
// HTML or the conversion yields nothing.
func Body(d *model.MessageDetails) string {
	if d == nil {
		return ""
	}
	if html := d.HTMLBody(); strings.TrimSpace(html) != "" {
		if text, err := HTMLToText(html); err == nil && text != "" {
			return text
		}
	}
	if text := strings.TrimSpace(d.Text); text != "" {
		return normalizeNewlines(text)
	}
	return d.Intro
}

// HTMLToText sanitizes html with a user-content policy and converts what
// remains to plain text. Links are kept as "text ( url )".
func HTMLToText(html string) (string, error) {
	clean := policy.Sanitize(html)
	text, err := html2text.FromString(clean, html2text.Options{})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(normalizeNewlines(text)), nil
}

func normalizeNewlines(s string) string {
	return strings.ReplaceAll(s, "\r\n", "\n")
}
