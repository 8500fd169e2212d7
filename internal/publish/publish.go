// Package publish posts finished stories to the blog API.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/upliftnews/uplift/internal/retry"
)

// ErrSlugConflict means a post with the same slug already exists. Slugs are
// derived from the item, so a conflict is a finished earlier attempt, not a
// failure worth retrying.
var ErrSlugConflict = errors.New("slug already exists")

// Post is the payload sent to the blog API.
type Post struct {
	Title      string   `json:"title"`
	Slug       string   `json:"slug"`
	Body       string   `json:"body"`
	Excerpt    string   `json:"excerpt"`
	Tags       []string `json:"tags,omitempty"`
	ImageURL   string   `json:"image_url,omitempty"`
	SourceURL  string   `json:"source_url"`
	SourceName string   `json:"source_name"`
}

// Result identifies the created post.
type Result struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to the blog API.
type Client struct {
	baseURL    string
	token      string
	client     *http.Client
	retryDelay time.Duration
}

func NewClient(baseURL, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		client:     &http.Client{Timeout: timeout},
		retryDelay: 2 * time.Second,
	}
}

// CreatePost publishes the post. Transport errors and 5xx responses are
// retried with backoff; a slug conflict is returned as ErrSlugConflict
// immediately and never retried.
func (c *Client) CreatePost(ctx context.Context, post Post) (*Result, error) {
	var result *Result

	cfg := retry.RetryConfig{
		MaxAttempts: 3,
		Delay:       c.retryDelay,
		Backoff:     true,
		ShouldRetry: func(err error) bool {
			return !errors.Is(err, ErrSlugConflict)
		},
	}

	err := retry.WithRetry(ctx, cfg, func() error {
		r, err := c.createPost(ctx, post)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) createPost(ctx context.Context, post Post) (*Result, error) {
	payload, err := json.Marshal(post)
	if err != nil {
		return nil, fmt.Errorf("marshal post: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/posts", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("post to blog: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var result Result
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode response: %w", err)
		}
		return &result, nil
	case http.StatusConflict:
		return nil, fmt.Errorf("%w: %s", ErrSlugConflict, post.Slug)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("blog API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
}
