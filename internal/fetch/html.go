package fetch

import (
	"regexp"
	"strings"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// stripTags reduces an HTML fragment to its visible text, collapsing
// whitespace. Intentionally not a full HTML parse: article and comment
// extraction only needs readable text, never a DOM.
func stripTags(html string) string {
	text := tagPattern.ReplaceAllString(html, " ")
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")
	fields := strings.Fields(text)
	return strings.Join(fields, " ")
}

var commentBlockPattern = regexp.MustCompile(`(?s)<div id="comment-\d+"[^>]*>(.*?)</div>\s*</div>`)
var commentHeaderPattern = regexp.MustCompile(`(?s)<h4[^>]*>(.*?)</h4>`)

// extractComments is a best-effort scrape of the AUR package page's comment
// markup. The AUR's HTML structure is not guaranteed stable; a failed match
// simply yields zero comments rather than an error, matching the fetchers'
// general "omit the record, don't fail the page" policy for parse errors.
func extractComments(html string) []AURComment {
	blocks := commentBlockPattern.FindAllStringSubmatch(html, -1)
	out := make([]AURComment, 0, len(blocks))
	for _, b := range blocks {
		body := stripTags(b[1])
		if body == "" {
			continue
		}
		author := ""
		if h := commentHeaderPattern.FindStringSubmatch(b[1]); h != nil {
			author = stripTags(h[1])
		}
		out = append(out, AURComment{Author: author, Body: body})
	}
	return out
}
