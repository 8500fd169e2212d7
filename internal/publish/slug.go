package publish

import (
	"strings"
	"unicode"
)

const maxSlugLen = 60

// Slug derives a URL slug from the post title and the item's stable ID.
// The ID suffix keeps slugs unique across items with identical titles and
// identical across retries of the same item, which is what lets the blog
// API detect a replay as a conflict.
func Slug(title, itemID string) string {
	var b strings.Builder
	prevDash := true

	for _, r := range strings.ToLower(title) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			prevDash = false
		case !prevDash:
			b.WriteByte('-')
			prevDash = true
		}
	}

	slug := strings.Trim(b.String(), "-")
	if runes := []rune(slug); len(runes) > maxSlugLen {
		cut := string(runes[:maxSlugLen])
		if idx := strings.LastIndex(cut, "-"); idx > 0 {
			cut = cut[:idx]
		}
		slug = cut
	}

	id := strings.ReplaceAll(itemID, "-", "")
	if len(id) > 8 {
		id = id[:8]
	}

	if slug == "" {
		return id
	}
	return slug + "-" + id
}
