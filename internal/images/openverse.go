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

const openverseBaseURL = "https://api.openverse.org"

// Openverse searches the Openverse API for openly licensed photos.
type Openverse struct {
	BaseURL string
	Client  *http.Client
}

func NewOpenverse() *Openverse {
	return &Openverse{
		BaseURL: openverseBaseURL,
		Client:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (o *Openverse) Name() string { return "openverse" }

func (o *Openverse) Search(ctx context.Context, query string) (string, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("page_size", "5")
	params.Set("license_type", "commercial")

	reqURL := o.BaseURL + "/v1/images/?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openverse request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("openverse request: HTTP %d", resp.StatusCode)
	}

	var result struct {
		Results []struct {
			URL string `json:"url"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("openverse response: %w", err)
	}

	for _, r := range result.Results {
		if r.URL != "" {
			return r.URL, nil
		}
	}
	return "", errors.New("openverse: no results")
}
