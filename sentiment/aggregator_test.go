package sentiment

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"sentiflow/logger"
	"sentiflow/models"
	"sentiflow/scraper"
)

type stubScraper struct {
	name   string
	result scraper.Result
	delay  time.Duration
}

func (s stubScraper) Name() string { return s.name }

func (s stubScraper) Fetch(ctx context.Context, ticker string, limit int) scraper.Result {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	return s.result
}

func post(source models.Source, sentiment models.Sentiment, impact float64) models.SocialPost {
	return models.SocialPost{
		ID:          "p",
		Source:      source,
		Author:      "tester",
		Text:        "text",
		Sentiment:   sentiment,
		ImpactScore: impact,
		Timestamp:   "Now",
	}
}

func testAggregator(scrapers []scraper.Scraper) *Aggregator {
	a := New(scrapers, nil, 20)
	a.rng = rand.New(rand.NewSource(1))
	a.now = func() time.Time { return time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC) }
	a.log = logger.GetLogger()
	return a
}

func TestNormalizeTicker(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{"nvda", "NVDA", true},
		{" tsla ", "TSLA", true},
		{"BRK.B", "BRK.B", true},
		{"BF-B", "BF-B", true},
		{"", "", false},
		{"123", "", false},
		{"TOOLONGTICKER", "", false},
		{"NV DA", "", false},
	}
	for _, tt := range tests {
		got, err := NormalizeTicker(tt.raw)
		if tt.ok {
			if err != nil {
				t.Errorf("NormalizeTicker(%q) error: %v", tt.raw, err)
			}
			if got != tt.want {
				t.Errorf("NormalizeTicker(%q) = %q, want %q", tt.raw, got, tt.want)
			}
			continue
		}
		if err == nil {
			t.Errorf("NormalizeTicker(%q) expected error", tt.raw)
		}
		if !errors.Is(err, ErrInvalidTicker) {
			t.Errorf("NormalizeTicker(%q) error not ErrInvalidTicker: %v", tt.raw, err)
		}
	}
}

func TestOverallScoreWeighting(t *testing.T) {
	// One high-impact bullish post outweighs two low-impact bearish ones:
	// (75*10 + 25*1 + 25*1) / 12 = 66.67 -> 67.
	posts := []models.SocialPost{
		post(models.SourceReddit, models.SentimentBullish, 10),
		post(models.SourceReddit, models.SentimentBearish, 1),
		post(models.SourceStockTwits, models.SentimentBearish, 1),
	}
	if got := OverallScore(posts); got != 67 {
		t.Errorf("OverallScore = %d, want 67", got)
	}
}

func TestOverallScoreEmptyAndZeroWeight(t *testing.T) {
	if got := OverallScore(nil); got != 50 {
		t.Errorf("empty OverallScore = %d, want 50", got)
	}
	posts := []models.SocialPost{
		post(models.SourceReddit, models.SentimentBullish, 0),
		post(models.SourceReddit, models.SentimentBearish, 0),
	}
	if got := OverallScore(posts); got != 50 {
		t.Errorf("zero-weight OverallScore = %d, want 50", got)
	}
}

func TestMomentumThresholds(t *testing.T) {
	tests := []struct {
		score int
		want  models.Momentum
	}{
		{61, models.MomentumBullish},
		{60, models.MomentumNeutral},
		{40, models.MomentumNeutral},
		{39, models.MomentumBearish},
	}
	for _, tt := range tests {
		if got := Momentum(tt.score); got != tt.want {
			t.Errorf("Momentum(%d) = %s, want %s", tt.score, got, tt.want)
		}
	}
}

func TestRunMergesAllSources(t *testing.T) {
	a := testAggregator([]scraper.Scraper{
		stubScraper{name: "reddit", result: scraper.Result{Posts: []models.SocialPost{
			post(models.SourceReddit, models.SentimentBullish, 8),
			post(models.SourceReddit, models.SentimentNeutral, 2),
		}}},
		stubScraper{name: "twitter", result: scraper.Result{Fallback: scraper.FallbackEmpty}},
		stubScraper{name: "stocktwits", result: scraper.Result{Posts: []models.SocialPost{
			post(models.SourceStockTwits, models.SentimentBearish, 5),
		}}, delay: 20 * time.Millisecond},
	})

	report, err := a.Run(context.Background(), "nvda")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Ticker != "NVDA" {
		t.Errorf("ticker = %q", report.Ticker)
	}
	if report.Volume != 3 {
		t.Errorf("volume = %d, want 3", report.Volume)
	}
	if len(report.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(report.Items))
	}
	// Ranked by impact descending.
	if report.Items[0].ImpactScore != 8 || report.Items[1].ImpactScore != 5 || report.Items[2].ImpactScore != 2 {
		t.Errorf("items not ranked by impact: %v %v %v",
			report.Items[0].ImpactScore, report.Items[1].ImpactScore, report.Items[2].ImpactScore)
	}
	if report.Summary == "" {
		t.Error("summary empty")
	}
	if report.GeneratedAt.IsZero() {
		t.Error("generatedAt not set")
	}
}

func TestRunTiesKeepScraperOrder(t *testing.T) {
	tied := func(ids ...string) []models.SocialPost {
		posts := make([]models.SocialPost, 0, len(ids))
		for _, id := range ids {
			posts = append(posts, models.SocialPost{
				ID:          id,
				Source:      models.SourceReddit,
				Sentiment:   models.SentimentNeutral,
				ImpactScore: 5,
			})
		}
		return posts
	}

	// The first scraper finishes last; slot order, not completion order,
	// must decide how equal-impact posts rank.
	a := testAggregator([]scraper.Scraper{
		stubScraper{name: "reddit", result: scraper.Result{Posts: tied("r1", "r2")}, delay: 20 * time.Millisecond},
		stubScraper{name: "stocktwits", result: scraper.Result{Posts: tied("s1", "s2")}},
	})

	report, err := a.Run(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"r1", "r2", "s1", "s2"}
	if len(report.Items) != len(want) {
		t.Fatalf("items = %d, want %d", len(report.Items), len(want))
	}
	for i, id := range want {
		if report.Items[i].ID != id {
			t.Errorf("items[%d].ID = %q, want %q", i, report.Items[i].ID, id)
		}
	}
}

func TestRunInvalidTicker(t *testing.T) {
	a := testAggregator(nil)
	_, err := a.Run(context.Background(), "not a ticker")
	if !errors.Is(err, ErrInvalidTicker) {
		t.Fatalf("expected ErrInvalidTicker, got %v", err)
	}
}

func TestRunCapsItemsAndKeepsVolume(t *testing.T) {
	posts := make([]models.SocialPost, 0, 45)
	for i := 0; i < 45; i++ {
		posts = append(posts, post(models.SourceReddit, models.SentimentBullish, float64(i%10)+1))
	}
	a := testAggregator([]scraper.Scraper{
		stubScraper{name: "reddit", result: scraper.Result{Posts: posts}},
	})

	report, err := a.Run(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(report.Items) != 30 {
		t.Errorf("items = %d, want 30", len(report.Items))
	}
	if report.Volume != 45 {
		t.Errorf("volume = %d, want 45 (pre-cap)", report.Volume)
	}
}

func TestRunEmptySourcesNeutral(t *testing.T) {
	a := testAggregator([]scraper.Scraper{
		stubScraper{name: "reddit", result: scraper.Result{Fallback: scraper.FallbackEmpty}},
		stubScraper{name: "twitter", result: scraper.Result{Fallback: scraper.FallbackEmpty}},
	})

	report, err := a.Run(context.Background(), "NVDA")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.OverallScore != 50 {
		t.Errorf("score = %d, want neutral 50", report.OverallScore)
	}
	if report.Volume != 0 {
		t.Errorf("volume = %d, want 0", report.Volume)
	}
	if !strings.Contains(report.Summary, "Mixed sentiment") {
		t.Errorf("summary = %q, want mixed template", report.Summary)
	}
}

func TestTrendSeriesShape(t *testing.T) {
	a := testAggregator(nil)
	now := time.Date(2025, 1, 8, 12, 0, 0, 0, time.UTC)
	points := a.trendSeries(now)

	if len(points) != 7 {
		t.Fatalf("points = %d, want 7", len(points))
	}
	if points[0].Date != "01-02" {
		t.Errorf("first label = %q, want 01-02", points[0].Date)
	}
	if points[5].Date != "01-07" {
		t.Errorf("sixth label = %q, want 01-07", points[5].Date)
	}
	if points[6].Date != "Now" {
		t.Errorf("last label = %q, want Now", points[6].Date)
	}
	for i, p := range points {
		if p.Score < 40 || p.Score > 80 {
			t.Errorf("point %d score %d outside plausible band", i, p.Score)
		}
	}
}

func TestDeepStatsBands(t *testing.T) {
	a := testAggregator(nil)

	// 9 bullish vs 1 bearish: variance 0.8 -> HIGH.
	skewed := append(repeat(models.SentimentBullish, 9), repeat(models.SentimentBearish, 1)...)
	stats := a.deepStats(skewed, 70)
	if stats.Volatility != models.VolatilityHigh {
		t.Errorf("volatility = %s, want HIGH", stats.Volatility)
	}
	if stats.Momentum != models.MomentumBullish {
		t.Errorf("momentum = %s, want BULLISH", stats.Momentum)
	}
	if stats.RetailSentiment != 90 {
		t.Errorf("retail = %d, want 90", stats.RetailSentiment)
	}
	if stats.PutCallRatio != 0.8 {
		t.Errorf("putCall = %v, want 0.8", stats.PutCallRatio)
	}

	// Balanced: variance 0 -> LOW.
	balanced := append(repeat(models.SentimentBullish, 5), repeat(models.SentimentBearish, 5)...)
	stats = a.deepStats(balanced, 50)
	if stats.Volatility != models.VolatilityLow {
		t.Errorf("volatility = %s, want LOW", stats.Volatility)
	}

	// 7 bullish vs 3 bearish: variance 0.4 -> MEDIUM.
	mid := append(repeat(models.SentimentBullish, 7), repeat(models.SentimentBearish, 3)...)
	stats = a.deepStats(mid, 60)
	if stats.Volatility != models.VolatilityMedium {
		t.Errorf("volatility = %s, want MEDIUM", stats.Volatility)
	}
}

func TestDeepStatsPutCallClamp(t *testing.T) {
	a := testAggregator(nil)
	if got := a.deepStats(nil, 0).PutCallRatio; got != 1.5 {
		t.Errorf("putCall at score 0 = %v, want 1.5", got)
	}
	if got := a.deepStats(nil, 100).PutCallRatio; got != 0.5 {
		t.Errorf("putCall at score 100 = %v, want 0.5", got)
	}
	// Clamp bounds hold for any score in range.
	for score := 0; score <= 100; score += 5 {
		got := a.deepStats(nil, score).PutCallRatio
		if got < 0.3 || got > 2.0 {
			t.Errorf("putCall(%d) = %v outside [0.3, 2.0]", score, got)
		}
	}
}

func TestDeepStatsPriceLevels(t *testing.T) {
	a := testAggregator(nil)
	stats := a.deepStats(nil, 50)
	if !strings.HasPrefix(stats.SupportLevel, "$") || !strings.HasPrefix(stats.ResistanceLevel, "$") {
		t.Errorf("levels not dollar-formatted: %s %s", stats.SupportLevel, stats.ResistanceLevel)
	}
	if stats.SupportLevel >= stats.ResistanceLevel && len(stats.SupportLevel) == len(stats.ResistanceLevel) {
		t.Errorf("support %s not below resistance %s", stats.SupportLevel, stats.ResistanceLevel)
	}
}

func repeat(s models.Sentiment, n int) []models.SocialPost {
	posts := make([]models.SocialPost, 0, n)
	for i := 0; i < n; i++ {
		posts = append(posts, post(models.SourceReddit, s, 5))
	}
	return posts
}
