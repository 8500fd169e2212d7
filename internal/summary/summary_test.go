package summary

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/upliftnews/uplift/internal/ratelimit"
)

type stubProvider struct {
	name  string
	out   string
	err   error
	calls int
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Summarize(ctx context.Context, title, body string) (string, error) {
	s.calls++
	return s.out, s.err
}

const storyBody = "The old swimming pool reopened this weekend after volunteers raised the last of the repair money. " +
	"More than two hundred families came for the first swim. " +
	"The council said the pool will stay free for school groups all summer."

func TestExcerpt_FirstProviderWins(t *testing.T) {
	first := &stubProvider{name: "first", out: "A lovely pool reopened thanks to volunteers."}
	second := &stubProvider{name: "second", out: "should not be used"}

	g := NewGenerator([]Provider{first, second}, nil, 300)
	got := g.Excerpt(context.Background(), "Pool reopens", storyBody)

	if got != "A lovely pool reopened thanks to volunteers." {
		t.Errorf("Excerpt() = %q", got)
	}
	if second.calls != 0 {
		t.Errorf("second provider was called %d times after a success", second.calls)
	}
}

func TestExcerpt_FailingProviderFallsThrough(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("api down")}
	working := &stubProvider{name: "working", out: "Neighbours saved their pool."}

	g := NewGenerator([]Provider{broken, working}, nil, 300)
	got := g.Excerpt(context.Background(), "Pool reopens", storyBody)

	if got != "Neighbours saved their pool." {
		t.Errorf("Excerpt() = %q", got)
	}
	if broken.calls != 1 {
		t.Errorf("broken provider calls = %d, want 1", broken.calls)
	}
}

func TestExcerpt_ExtractiveWhenAllProvidersFail(t *testing.T) {
	broken := &stubProvider{name: "broken", err: errors.New("api down")}
	empty := &stubProvider{name: "empty", out: "   "}

	g := NewGenerator([]Provider{broken, empty}, nil, 300)
	got := g.Excerpt(context.Background(), "Pool reopens", storyBody)

	if !strings.Contains(got, "swimming pool reopened") {
		t.Errorf("Excerpt() = %q, want extractive text from the story", got)
	}
}

func TestExcerpt_NoProviders(t *testing.T) {
	g := NewGenerator(nil, nil, 300)
	got := g.Excerpt(context.Background(), "Pool reopens", storyBody)
	if got == "" {
		t.Error("Excerpt() = empty, extractive step must always answer")
	}
}

func TestExcerpt_RespectsRateLimit(t *testing.T) {
	provider := &stubProvider{name: "limited", out: "Summary."}

	limiter := ratelimit.New(time.Hour, 10)
	limiter.SetLimit("limited", 1)

	g := NewGenerator([]Provider{provider}, limiter, 300)

	if got := g.Excerpt(context.Background(), "t", storyBody); got != "Summary." {
		t.Fatalf("first Excerpt() = %q", got)
	}

	got := g.Excerpt(context.Background(), "t", storyBody)
	if got == "Summary." {
		t.Error("second Excerpt() used the provider past its budget")
	}
	if provider.calls != 1 {
		t.Errorf("provider calls = %d, want 1 (budget exhausted)", provider.calls)
	}
}

func TestExtract(t *testing.T) {
	got := Extract(storyBody, 300)
	if !strings.HasPrefix(got, "The old swimming pool reopened") {
		t.Errorf("Extract() = %q, want the opening sentence first", got)
	}

	short := Extract(storyBody, 120)
	if len([]rune(short)) > 120 {
		t.Errorf("Extract() produced %d runes, want at most 120", len([]rune(short)))
	}
	if !strings.HasSuffix(strings.TrimSpace(short), ".") {
		t.Errorf("Extract() = %q, want whole sentences", short)
	}
}

func TestExtract_Empty(t *testing.T) {
	if got := Extract("", 300); got != "" {
		t.Errorf("Extract(\"\") = %q, want empty", got)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate() changed a short string: %q", got)
	}

	long := strings.Repeat("å", 50)
	got := Truncate(long, 10)
	if n := len([]rune(got)); n != 10 {
		t.Errorf("Truncate() = %d runes, want 10", n)
	}
	if !strings.HasSuffix(got, "…") {
		t.Errorf("Truncate() = %q, want ellipsis suffix", got)
	}
}
