package publish

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func testPost() Post {
	return Post{
		Title:      "Community garden opens",
		Slug:       "community-garden-opens-1a2b3c4d",
		Body:       "<p>The garden is open.</p>",
		Excerpt:    "The garden is open.",
		SourceURL:  "https://example.com/garden",
		SourceName: "Example News",
	}
}

func TestCreatePost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/posts" {
			t.Errorf("%s %s, want POST /api/posts", r.Method, r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer secret" {
			t.Errorf("Authorization = %q", auth)
		}

		var got Post
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if got.Slug != "community-garden-opens-1a2b3c4d" {
			t.Errorf("slug = %q", got.Slug)
		}

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"42","url":"https://blog.example.com/posts/42"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "secret", 5*time.Second)
	result, err := c.CreatePost(context.Background(), testPost())
	if err != nil {
		t.Fatalf("CreatePost(): %v", err)
	}
	if result.ID != "42" || result.URL != "https://blog.example.com/posts/42" {
		t.Errorf("result = %+v", result)
	}
}

func TestCreatePost_ConflictIsNotRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.WriteHeader(http.StatusConflict)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	_, err := c.CreatePost(context.Background(), testPost())
	if !errors.Is(err, ErrSlugConflict) {
		t.Fatalf("CreatePost() = %v, want ErrSlugConflict", err)
	}
	if requests != 1 {
		t.Errorf("requests = %d, a conflict must not be retried", requests)
	}
}

func TestCreatePost_ServerErrorIsRetried(t *testing.T) {
	var requests int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{"id":"7","url":"https://blog.example.com/posts/7"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	c.retryDelay = 10 * time.Millisecond

	result, err := c.CreatePost(context.Background(), testPost())
	if err != nil {
		t.Fatalf("CreatePost(): %v", err)
	}
	if result.ID != "7" {
		t.Errorf("result = %+v", result)
	}
	if requests != 3 {
		t.Errorf("requests = %d, want 3", requests)
	}
}

func TestCreatePost_ExhaustedRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", 5*time.Second)
	c.retryDelay = 10 * time.Millisecond

	if _, err := c.CreatePost(context.Background(), testPost()); err == nil {
		t.Error("CreatePost() = nil error from a dead API")
	}
}

func TestSlug(t *testing.T) {
	id := "0f8fad5b-d9cb-469f-a165-70867728950e"

	tests := []struct {
		title string
		want  string
	}{
		{"Community garden opens", "community-garden-opens-0f8fad5b"},
		{"Breaking: 100 trees planted!", "breaking-100-trees-planted-0f8fad5b"},
		{"  Spaces   everywhere  ", "spaces-everywhere-0f8fad5b"},
		{"???", "0f8fad5b"},
	}

	for _, tt := range tests {
		if got := Slug(tt.title, id); got != tt.want {
			t.Errorf("Slug(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestSlug_Deterministic(t *testing.T) {
	a := Slug("Same title", "0f8fad5b-d9cb-469f-a165-70867728950e")
	b := Slug("Same title", "0f8fad5b-d9cb-469f-a165-70867728950e")
	if a != b {
		t.Errorf("Slug() not deterministic: %q vs %q", a, b)
	}

	c := Slug("Same title", "11111111-2222-3333-4444-555555555555")
	if a == c {
		t.Error("Slug() identical for different items")
	}
}

func TestSlug_LengthCap(t *testing.T) {
	long := strings.Repeat("wonderful ", 20)
	got := Slug(long, "0f8fad5b-d9cb-469f-a165-70867728950e")

	if len(got) > maxSlugLen+9 {
		t.Errorf("Slug() length = %d, want at most %d", len(got), maxSlugLen+9)
	}
	if strings.Contains(got, "--") {
		t.Errorf("Slug() = %q contains a double dash", got)
	}
	if !strings.HasSuffix(got, "-0f8fad5b") {
		t.Errorf("Slug() = %q missing the id suffix", got)
	}
}
