package zeen

import (
	"github.com/microcosm-cc/bluemonday"
	"github.com/russross/blackfriday"
)

var sanitationPolicy = bluemonday.UGCPolicy()

// RenderMarkdown converts a post body to sanitized HTML
func RenderMarkdown(body string) string {
	renderer := blackfriday.HtmlRenderer(
		blackfriday.HTML_SAFELINK|blackfriday.HTML_NOFOLLOW_LINKS,
		"", "",
	)
	md := blackfriday.Markdown([]byte(body), renderer,
		blackfriday.EXTENSION_NO_INTRA_EMPHASIS|
			blackfriday.EXTENSION_AUTOLINK|
			blackfriday.EXTENSION_FENCED_CODE|
			blackfriday.EXTENSION_STRIKETHROUGH)
	return string(sanitationPolicy.SanitizeBytes(md))
}
