// Package content renders post bodies and strips markup from plain-text fields.
package content

import (
	"bytes"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

var (
	md = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
			gmhtml.WithXHTML(),
		),
	)
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

func init() {
	ugc.AllowImages()
	ugc.AddTargetBlankToFullyQualifiedLinks(true)
	ugc.RequireNoReferrerOnLinks(true)
}

// RenderMarkdown converts a markdown post body to sanitized HTML.
func RenderMarkdown(source string) string {
	var buf bytes.Buffer
	if err := md.Convert([]byte(source), &buf); err != nil {
		return html.EscapeString(source)
	}
	return string(ugc.SanitizeBytes(buf.Bytes()))
}

// StripHTML removes every tag from s and trims surrounding whitespace. Used
// for titles, tags and comments, which are stored and shown as plain text.
func StripHTML(s string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
