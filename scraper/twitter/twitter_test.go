package twitter

import (
	"context"
	"strings"
	"sync"
	"testing"

	"sentiflow/config"
	"sentiflow/scraper"
)

func TestFetchAlwaysEmptyByDefault(t *testing.T) {
	s := New(config.TwitterSourceConfig{Enabled: true})

	for _, ticker := range []string{"NVDA", "AAPL", "X"} {
		for _, limit := range []int{0, 1, 20, 500} {
			res := s.Fetch(context.Background(), ticker, limit)
			if len(res.Posts) != 0 {
				t.Fatalf("ticker %s limit %d: got %d posts, want 0", ticker, limit, len(res.Posts))
			}
			if res.Fallback != scraper.FallbackEmpty {
				t.Fatalf("fallback = %s, want empty", res.Fallback)
			}
		}
	}
}

func TestPlaceholderPathBehindFlag(t *testing.T) {
	s := New(config.TwitterSourceConfig{Enabled: true, AllowPlaceholder: true})

	res := s.Fetch(context.Background(), "NVDA", 50)
	if res.Fallback != scraper.FallbackPlaceholder {
		t.Fatalf("fallback = %s, want placeholder", res.Fallback)
	}
	if len(res.Posts) != maxPlaceholderPosts {
		t.Fatalf("got %d posts, want cap of %d", len(res.Posts), maxPlaceholderPosts)
	}

	seen := map[string]bool{}
	for _, p := range res.Posts {
		if !strings.Contains(p.Text, "$NVDA") {
			t.Errorf("text not parameterized by ticker: %q", p.Text)
		}
		if p.ImpactScore < 0 || p.ImpactScore > 10 {
			t.Errorf("impact %f out of bounds", p.ImpactScore)
		}
		if seen[p.ID] {
			t.Errorf("duplicate post id %s", p.ID)
		}
		seen[p.ID] = true
	}
}

func TestConcurrentPlaceholderFetches(t *testing.T) {
	// One scraper instance serves every request goroutine; the shared rng
	// must be safe under that access pattern.
	s := New(config.TwitterSourceConfig{Enabled: true, AllowPlaceholder: true})

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := s.Fetch(context.Background(), "NVDA", 20)
			if len(res.Posts) != maxPlaceholderPosts {
				t.Errorf("got %d posts, want %d", len(res.Posts), maxPlaceholderPosts)
			}
			for _, p := range res.Posts {
				if p.ImpactScore < 0 || p.ImpactScore > 10 {
					t.Errorf("impact %f out of bounds", p.ImpactScore)
				}
			}
		}()
	}
	wg.Wait()
}
