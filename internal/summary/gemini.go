package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const geminiModel = "gemini-1.5-flash"

// GeminiProvider summarizes through the Gemini API.
type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(apiKey string) (*GeminiProvider, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Name() string { return "gemini" }

func (p *GeminiProvider) Close() {
	if p.client != nil {
		p.client.Close()
	}
}

func (p *GeminiProvider) Summarize(ctx context.Context, title, body string) (string, error) {
	model := p.client.GenerativeModel(geminiModel)

	prompt := fmt.Sprintf(`Write a short, warm summary of this news story in two or three sentences.
Keep the facts exact, keep the uplifting tone, and do not invent details.
Do not start with phrases like "This article is about". Answer with the summary only.

Title: %s

Story:
%s`, title, prepareBody(body))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from gemini")
	}

	return strings.TrimSpace(fmt.Sprintf("%v", resp.Candidates[0].Content.Parts[0])), nil
}

// prepareBody collapses whitespace and cuts over-long articles on a rune
// boundary, preferring to end at a sentence.
func prepareBody(body string) string {
	body = strings.ReplaceAll(body, "\r", "")
	body = strings.Join(strings.Fields(body), " ")

	const maxRunes = 6000
	runes := []rune(body)
	if len(runes) <= maxRunes {
		return body
	}

	trimmed := string(runes[:maxRunes])
	if idx := strings.LastIndex(trimmed, ". "); idx > 1200 {
		trimmed = trimmed[:idx+1]
	}
	return trimmed
}
