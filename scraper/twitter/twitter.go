// Package twitter is a policy scraper: the X API requires paid
// authentication, so without credentials this source contributes nothing
// rather than polluting the aggregate with synthetic data. A templated
// placeholder generator exists behind AllowPlaceholder for environments
// that explicitly opt in; every shipped config leaves it off.
package twitter

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentiflow/config"
	"sentiflow/logger"
	"sentiflow/models"
	"sentiflow/scraper"
)

const maxPlaceholderPosts = 20

type template struct {
	text      string
	sentiment models.Sentiment
	impact    float64
}

var placeholderTemplates = []template{
	{"$%s showing strong momentum into the close. Volume picking up significantly.", models.SentimentBullish, 7.5},
	{"Breaking: Major institutional buyer spotted on $%s. This could be huge.", models.SentimentBullish, 9.2},
	{"$%s rejecting at resistance. Looking weak here, might see a pullback.", models.SentimentBearish, 6.8},
	{"Interesting price action on $%s. Watching closely for breakout confirmation.", models.SentimentNeutral, 5.5},
	{"$%s earnings report exceeded expectations. Upgrading position.", models.SentimentBullish, 8.9},
	{"Technical breakdown on $%s. Stop loss hit, exiting position.", models.SentimentBearish, 7.2},
	{"$%s forming cup and handle pattern. Could see breakout next week.", models.SentimentBullish, 6.5},
	{"Sold my $%s calls for 40%% profit. Taking chips off the table.", models.SentimentNeutral, 6.0},
	{"$%s volume drying up. Looks like consolidation phase incoming.", models.SentimentNeutral, 4.8},
	{"Big red candle on $%s. Someone knows something...", models.SentimentBearish, 7.8},
}

var placeholderAuthors = []string{
	"TradingGuru", "AlphaSeeker", "MarketMaven", "ChartWizard", "OptionKing",
	"DayTrader_Pro", "BullRun2025", "ValueInvestor", "TechStocks", "SwingTrade_Mike",
}

type Scraper struct {
	cfg config.TwitterSourceConfig
	log *logger.Log
	now func() time.Time

	mu  sync.Mutex // guards rng; Fetch runs on a goroutine per request
	rng *rand.Rand
}

func New(cfg config.TwitterSourceConfig) *Scraper {
	return &Scraper{
		cfg: cfg,
		log: logger.GetLogger(),
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
		now: time.Now,
	}
}

func (s *Scraper) Name() string {
	return "twitter"
}

// Fetch returns an empty result unless placeholder data has been explicitly
// enabled in config.
func (s *Scraper) Fetch(ctx context.Context, ticker string, limit int) scraper.Result {
	log := s.log.WithComponent("twitter_scraper").WithFields(logger.Fields{"ticker": ticker})

	var result scraper.Result
	if s.cfg.AllowPlaceholder {
		result = scraper.Result{
			Posts:    s.placeholderPosts(ticker, limit),
			Fallback: scraper.FallbackPlaceholder,
		}
	} else {
		log.Debug("no API credentials configured, skipping")
		result = scraper.Result{Fallback: scraper.FallbackEmpty}
	}

	logger.RecordSourceFetch(s.Name(), len(result.Posts), result.Degraded())
	return result
}

func (s *Scraper) placeholderPosts(ticker string, limit int) []models.SocialPost {
	if limit > maxPlaceholderPosts {
		limit = maxPlaceholderPosts
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	posts := make([]models.SocialPost, 0, limit)
	for i := 0; i < limit; i++ {
		tpl := placeholderTemplates[i%len(placeholderTemplates)]
		minutesAgo := s.rng.Intn(480) + 5
		impact := tpl.impact + (s.rng.Float64()*1.5 - 0.75)

		posts = append(posts, models.SocialPost{
			ID:          fmt.Sprintf("twitter-%s", uuid.NewString()),
			Source:      models.SourceTwitter,
			Author:      placeholderAuthors[i%len(placeholderAuthors)],
			Text:        fmt.Sprintf(tpl.text, ticker),
			Sentiment:   tpl.sentiment,
			ImpactScore: clampImpact(impact),
			Timestamp:   models.FormatRelativeTime(now.Add(-time.Duration(minutesAgo)*time.Minute), now),
		})
	}
	return posts
}

func clampImpact(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 10 {
		return 10
	}
	return v
}
