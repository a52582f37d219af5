package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"sentiflow/models"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) Summarize(ctx context.Context, req Request) (string, error) {
	return s.text, s.err
}

func bullishPosts(bullish, bearish, neutral int) []models.SocialPost {
	posts := make([]models.SocialPost, 0, bullish+bearish+neutral)
	add := func(n int, s models.Sentiment) {
		for i := 0; i < n; i++ {
			posts = append(posts, models.SocialPost{Sentiment: s, ImpactScore: 5})
		}
	}
	add(bullish, models.SentimentBullish)
	add(bearish, models.SentimentBearish)
	add(neutral, models.SentimentNeutral)
	return posts
}

func TestFallbackBullishBand(t *testing.T) {
	// 72 with 8/10 bullish posts: the bullish template must be produced
	// verbatim modulo the computed percentage.
	posts := bullishPosts(8, 1, 1)
	got := Fallback("NVDA", posts, 72)
	want := "Strong bullish momentum detected for NVDA with 80% positive sentiment across social channels. Retail traders showing increased conviction with elevated call activity."
	if got != want {
		t.Errorf("got:\n%s\nwant:\n%s", got, want)
	}
}

func TestFallbackBearishBand(t *testing.T) {
	posts := bullishPosts(1, 3, 0)
	got := Fallback("TSLA", posts, 20)
	if !strings.Contains(got, "Bearish pressure building on TSLA") {
		t.Errorf("unexpected template: %s", got)
	}
	if !strings.Contains(got, "75% negative sentiment") {
		t.Errorf("bearish percentage wrong: %s", got)
	}
}

func TestFallbackMixedBand(t *testing.T) {
	posts := bullishPosts(1, 1, 2)
	got := Fallback("AAPL", posts, 50)
	if !strings.Contains(got, "Mixed sentiment on AAPL") {
		t.Errorf("unexpected template: %s", got)
	}
	if !strings.Contains(got, "25% bullish vs 25% bearish") {
		t.Errorf("percentages wrong: %s", got)
	}
}

func TestFallbackEmptyPosts(t *testing.T) {
	got := Fallback("NVDA", nil, 50)
	if !strings.Contains(got, "0% bullish vs 0% bearish") {
		t.Errorf("division by zero not guarded: %s", got)
	}
}

func TestComposeUsesGenerator(t *testing.T) {
	text, degraded := Compose(context.Background(), stubGenerator{text: "AI analysis here."}, Request{Ticker: "NVDA"})
	if degraded {
		t.Error("expected AI path")
	}
	if text != "AI analysis here." {
		t.Errorf("text = %q", text)
	}
}

func TestComposeDegradesOnError(t *testing.T) {
	req := Request{Ticker: "NVDA", OverallScore: 72, Posts: bullishPosts(8, 1, 1)}
	text, degraded := Compose(context.Background(), stubGenerator{err: errors.New("quota exceeded")}, req)
	if !degraded {
		t.Fatal("expected template path")
	}
	if !strings.Contains(text, "Strong bullish momentum detected for NVDA") {
		t.Errorf("wrong fallback: %s", text)
	}
}

func TestComposeDegradesOnEmptyOutput(t *testing.T) {
	_, degraded := Compose(context.Background(), stubGenerator{text: "   "}, Request{Ticker: "NVDA", OverallScore: 50})
	if !degraded {
		t.Fatal("empty completion must degrade")
	}
}

func TestComposeNilGenerator(t *testing.T) {
	text, degraded := Compose(context.Background(), nil, Request{Ticker: "NVDA", OverallScore: 50})
	if !degraded || text == "" {
		t.Fatalf("nil generator must use template, got degraded=%v text=%q", degraded, text)
	}
}

func TestBuildPromptBounded(t *testing.T) {
	posts := make([]models.SocialPost, 0, 30)
	for i := 0; i < 30; i++ {
		posts = append(posts, models.SocialPost{
			Source:    models.SourceReddit,
			Sentiment: models.SentimentBullish,
			Text:      fmt.Sprintf("post number %d %s", i, strings.Repeat("x", 300)),
		})
	}
	prompt := BuildPrompt(Request{
		Ticker:       "NVDA",
		OverallScore: 72,
		Posts:        posts,
		Stats:        models.DeepStats{Momentum: models.MomentumBullish, Volatility: models.VolatilityLow},
	})

	if strings.Contains(prompt, "post number 10 ") {
		t.Error("prompt sample should stop at 10 posts")
	}
	if strings.Contains(prompt, strings.Repeat("x", 150)) {
		t.Error("post text should be truncated to 100 runes")
	}
	if !strings.Contains(prompt, "Sentiment Score: 72/100") {
		t.Error("score missing from prompt")
	}
}
