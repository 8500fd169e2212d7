package summary

import "strings"

// Extract builds an excerpt from the article's own opening sentences.
// It is the last step of the provider chain and cannot fail.
func Extract(body string, maxRunes int) string {
	body = strings.Join(strings.Fields(body), " ")
	if body == "" {
		return ""
	}

	var b strings.Builder
	for _, sentence := range strings.SplitAfter(body, ". ") {
		sentence = strings.TrimSpace(sentence)
		if len(sentence) < 25 {
			continue
		}
		if len([]rune(b.String()))+len([]rune(sentence))+1 > maxRunes {
			break
		}
		if b.Len() > 0 {
			b.WriteString(" ")
		}
		b.WriteString(sentence)
	}

	if b.Len() > 0 {
		return b.String()
	}
	return Truncate(body, maxRunes)
}

// Truncate cuts s to maxRunes on a rune boundary with a trailing ellipsis.
func Truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 1 {
		return string(runes[:maxRunes])
	}
	return strings.TrimSpace(string(runes[:maxRunes-1])) + "…"
}
