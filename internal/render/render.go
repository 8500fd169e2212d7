// Package render turns a selected story into the blog post payload and
// the Telegram announcement for it.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/microcosm-cc/bluemonday"

	"github.com/upliftnews/uplift/internal/news"
	"github.com/upliftnews/uplift/internal/publish"
)

const announceBodyRunes = 900

var (
	postPolicy = bluemonday.UGCPolicy()

	mdConverter = converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
)

// BuildPost renders the story into the payload the blog API accepts. body
// is the plain article text with blank lines between paragraphs; when the
// article could not be scraped the caller passes the feed description.
func BuildPost(item news.ScoredItem, body, excerpt, imageURL string) publish.Post {
	var b strings.Builder

	for _, paragraph := range strings.Split(body, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		fmt.Fprintf(&b, "<p>%s</p>\n", html.EscapeString(paragraph))
	}

	fmt.Fprintf(&b, `<p>Originally reported by <a href="%s">%s</a>.</p>`,
		html.EscapeString(item.Link), html.EscapeString(item.SourceName))

	return publish.Post{
		Title:      item.Title,
		Slug:       publish.Slug(item.Title, item.ID),
		Body:       postPolicy.Sanitize(b.String()),
		Excerpt:    excerpt,
		Tags:       item.Categories,
		ImageURL:   imageURL,
		SourceURL:  item.Link,
		SourceName: item.SourceName,
	}
}

// TelegramMessage renders the channel announcement for a published post.
func TelegramMessage(post publish.Post, postURL string) string {
	body, err := mdConverter.ConvertString(post.Body)
	if err != nil || strings.TrimSpace(body) == "" {
		body = post.Excerpt
	}
	body = truncateRunes(strings.TrimSpace(body), announceBodyRunes)

	var b strings.Builder
	fmt.Fprintf(&b, "🌞 *%s*\n\n", escapeMarkdown(post.Title))
	b.WriteString(body)
	fmt.Fprintf(&b, "\n\n[Read the full story](%s)", postURL)
	if post.SourceName != "" {
		fmt.Fprintf(&b, "\n_via %s_", escapeMarkdown(post.SourceName))
	}
	return b.String()
}

// escapeMarkdown neutralizes the characters Telegram's Markdown mode
// treats as formatting.
func escapeMarkdown(s string) string {
	replacer := strings.NewReplacer(
		"*", "\\*",
		"_", "\\_",
		"[", "\\[",
		"]", "\\]",
		"`", "\\`",
	)
	return replacer.Replace(s)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	trimmed := string(runes[:max])
	if idx := strings.LastIndex(trimmed, " "); idx > 0 {
		trimmed = trimmed[:idx]
	}
	return trimmed + "…"
}
