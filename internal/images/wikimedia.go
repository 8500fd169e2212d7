package images

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const wikimediaBaseURL = "https://commons.wikimedia.org"

// Wikimedia searches Wikimedia Commons for freely licensed photos.
type Wikimedia struct {
	BaseURL string
	Client  *http.Client
}

func NewWikimedia() *Wikimedia {
	return &Wikimedia{
		BaseURL: wikimediaBaseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (w *Wikimedia) Name() string { return "wikimedia" }

func (w *Wikimedia) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrnamespace", "6")
	params.Set("gsrlimit", "5")
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url")

	reqURL := w.BaseURL + "/w/api.php?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := w.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("wikimedia request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("wikimedia request: HTTP %d", resp.StatusCode)
	}

	var result struct {
		Query struct {
			Pages map[string]struct {
				ImageInfo []struct {
					URL string `json:"url"`
				} `json:"imageinfo"`
			} `json:"pages"`
		} `json:"query"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("wikimedia response: %w", err)
	}

	for _, page := range result.Query.Pages {
		for _, info := range page.ImageInfo {
			if info.URL != "" {
				return info.URL, nil
			}
		}
	}
	return "", errors.New("wikimedia: no results")
}
