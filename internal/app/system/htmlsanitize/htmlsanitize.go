// internal/app/system/htmlsanitize/htmlsanitize.go
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every tag. It is safe for concurrent use.
var strict = bluemonday.StrictPolicy()

// StripTags removes all markup from user-supplied free text (event labels,
// rejection reasons, form answers). The result is plain text: entities that
// bluemonday escapes are decoded again so "Tom & Jerry" is stored as typed.
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}

// IsPlainText reports whether s contains no markup.
func IsPlainText(s string) bool {
	return !strings.ContainsAny(s, "<>")
}
