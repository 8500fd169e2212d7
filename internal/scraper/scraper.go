// Package scraper fetches article pages and extracts their readable text.
package scraper

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/temoto/robotstxt"
	"golang.org/x/net/html/charset"

	"github.com/upliftnews/uplift/internal/logger"
)

const (
	defaultUserAgent = "UpliftBot/1.0 (+https://github.com/upliftnews/uplift)"
	maxBodyBytes     = 2 << 20
	minContentLen    = 200
	maxContentLen    = 6000
)

// Article is the readable part of a fetched page.
type Article struct {
	Title   string
	Content string
	URL     string
}

// Scraper downloads pages and pulls out their article text. robots.txt
// groups are cached per host for the lifetime of the scraper.
type Scraper struct {
	client    *http.Client
	userAgent string

	mu     sync.Mutex
	robots map[string]*robotstxt.Group
}

func New(timeout time.Duration) *Scraper {
	return &Scraper{
		client:    &http.Client{Timeout: timeout},
		userAgent: defaultUserAgent,
		robots:    make(map[string]*robotstxt.Group),
	}
}

// Extract fetches pageURL and returns its title and cleaned body text.
// Pages disallowed by robots.txt are refused.
func (s *Scraper) Extract(ctx context.Context, pageURL string) (*Article, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}

	if !s.allowed(ctx, u) {
		return nil, fmt.Errorf("disallowed by robots.txt: %s", pageURL)
	}

	body, err := s.fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := extractTitle(doc)
	content := extractParagraphs(doc)

	// Selector extraction misses pages with unusual markup; readability
	// handles those.
	if len(content) < minContentLen {
		if article, err := readability.FromReader(strings.NewReader(body), u); err == nil {
			if text := strings.TrimSpace(article.TextContent); len(text) > len(content) {
				content = text
			}
			if title == "" {
				title = article.Title
			}
		}
	}

	content = cleanContent(content)
	if content == "" {
		return nil, fmt.Errorf("no readable content at %s", pageURL)
	}

	return &Article{Title: title, Content: content, URL: pageURL}, nil
}

// allowed consults the host's robots.txt. Hosts whose robots.txt cannot
// be fetched or parsed are treated as allowing everything.
func (s *Scraper) allowed(ctx context.Context, u *url.URL) bool {
	s.mu.Lock()
	group, ok := s.robots[u.Host]
	s.mu.Unlock()

	if !ok {
		group = s.fetchRobots(ctx, u)
		s.mu.Lock()
		s.robots[u.Host] = group
		s.mu.Unlock()
	}

	if group == nil {
		return true
	}
	return group.Test(u.Path)
}

func (s *Scraper) fetchRobots(ctx context.Context, u *url.URL) *robotstxt.Group {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Debug("robots.txt fetch failed", "host", u.Host, "error", err)
		return nil
	}
	defer resp.Body.Close()

	data, err := robotstxt.FromResponse(resp)
	if err != nil {
		logger.Debug("robots.txt parse failed", "host", u.Host, "error", err)
		return nil
	}
	return data.FindGroup(s.userAgent)
}

func (s *Scraper) fetch(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch page: HTTP %d", resp.StatusCode)
	}

	reader, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		reader = resp.Body
	}

	body, err := io.ReadAll(io.LimitReader(reader, maxBodyBytes))
	if err != nil {
		return "", fmt.Errorf("read page: %w", err)
	}
	return string(body), nil
}

// extractParagraphs tries common article selectors, most specific first.
func extractParagraphs(doc *goquery.Document) string {
	selectors := []string{
		"article p",
		".article-body p",
		".article-content p",
		".post-content p",
		".entry-content p",
		".content p",
		"main p",
		"p",
	}

	for _, selector := range selectors {
		var paragraphs []string
		doc.Find(selector).Each(func(i int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if len(text) > 20 {
				paragraphs = append(paragraphs, text)
			}
		})
		if len(paragraphs) >= 2 {
			return strings.Join(paragraphs, "\n\n")
		}
	}
	return ""
}

func extractTitle(doc *goquery.Document) string {
	selectors := []string{"h1", ".article-title", ".headline", ".entry-title", "title"}

	for _, selector := range selectors {
		if title := strings.TrimSpace(doc.Find(selector).First().Text()); title != "" {
			return title
		}
	}
	return ""
}

var junkIndicators = []string{
	"cookie", "subscribe to our newsletter", "sign up for",
	"follow us on", "read more:", "click here", "advertisement",
	"share this article", "all rights reserved", "privacy policy",
}

// cleanContent drops navigation junk and rebuilds tidy paragraphs, then
// caps the length at a paragraph boundary.
func cleanContent(content string) string {
	if content == "" {
		return ""
	}

	var paragraphs []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 30 {
			continue
		}

		lower := strings.ToLower(line)
		junk := false
		for _, indicator := range junkIndicators {
			if strings.Contains(lower, indicator) {
				junk = true
				break
			}
		}
		if junk {
			continue
		}

		paragraphs = append(paragraphs, strings.Join(strings.Fields(line), " "))
	}

	var kept []string
	total := 0
	for _, paragraph := range paragraphs {
		if total+len(paragraph) > maxContentLen && len(kept) > 0 {
			break
		}
		kept = append(kept, paragraph)
		total += len(paragraph) + 2
	}

	return strings.Join(kept, "\n\n")
}
