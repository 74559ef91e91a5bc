package cart

import (
	"regexp"
	"strings"
)

const noSizeSlug = "no-size"

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugInvalid.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// GenerateItemID derives a stable id for products that arrive without one.
func GenerateItemID(name, size string) string {
	sizePart := slugify(size)
	if sizePart == "" {
		sizePart = noSizeSlug
	}
	return slugify(name) + "-" + sizePart
}
