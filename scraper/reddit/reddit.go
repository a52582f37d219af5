// Package reddit collects ticker mentions from a set of stock-focused
// subreddits through Reddit's public JSON search API.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"sentiflow/config"
	"sentiflow/logger"
	"sentiflow/models"
	"sentiflow/scraper"

	"golang.org/x/time/rate"
)

var bullishKeywords = []string{"moon", "buy", "calls", "bullish", "up", "gain", "long", "rocket", "pump", "breakout", "surge"}

var bearishKeywords = []string{"puts", "bearish", "down", "loss", "short", "crash", "dump", "fall", "tank", "drop"}

type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Score      int     `json:"score"`
	Subreddit  string  `json:"subreddit"`
}

// Scraper queries several fixed community buckets, splitting the requested
// limit evenly across them.
type Scraper struct {
	cfg        config.RedditSourceConfig
	client     *http.Client
	limiter    *rate.Limiter
	userAgent  string
	log        *logger.Log
	now        func() time.Time
}

func New(cfg config.RedditSourceConfig, scraperCfg config.ScraperConfig) *Scraper {
	return &Scraper{
		cfg:       cfg,
		client:    scraper.NewHTTPClient(scraperCfg),
		limiter:   scraper.NewLimiter(scraperCfg.RateLimit),
		userAgent: scraperCfg.UserAgent,
		log:       logger.GetLogger(),
		now:       time.Now,
	}
}

func (s *Scraper) Name() string {
	return "reddit"
}

// Fetch searches every configured subreddit for the ticker and merges the
// results. Individual bucket failures skip that bucket; a fetch that yields
// nothing degrades to an empty result.
func (s *Scraper) Fetch(ctx context.Context, ticker string, limit int) scraper.Result {
	log := s.log.WithComponent("reddit_scraper").WithFields(logger.Fields{"ticker": ticker})

	perBucket := limit / len(s.cfg.Subreddits)
	if perBucket < 1 {
		perBucket = 1
	}

	posts := make([]models.SocialPost, 0, limit)
	failures := 0
	for _, sub := range s.cfg.Subreddits {
		bucket, err := s.fetchSubreddit(ctx, sub, ticker, perBucket)
		if err != nil {
			failures++
			log.WithError(err).WithFields(logger.Fields{"subreddit": sub}).Warn("subreddit fetch failed")
			continue
		}
		posts = append(posts, bucket...)
	}

	if len(posts) > limit {
		posts = posts[:limit]
	}

	result := scraper.Result{Posts: posts, Fallback: scraper.FallbackNone}
	if len(posts) == 0 && failures == len(s.cfg.Subreddits) {
		result.Fallback = scraper.FallbackEmpty
	}
	logger.RecordSourceFetch(s.Name(), len(result.Posts), result.Degraded())
	return result
}

func (s *Scraper) fetchSubreddit(ctx context.Context, subreddit, ticker string, limit int) ([]models.SocialPost, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	searchURL := fmt.Sprintf("%s/r/%s/search.json?q=%s&restrict_sr=1&sort=new&limit=%d",
		s.cfg.URL, subreddit, url.QueryEscape(ticker), limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, searchURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch subreddit: %w", err)
	}
	defer resp.Body.Close()
	logger.LogPerformanceEntry(s.log.WithComponent("reddit_scraper"), "reddit_scraper", "api_request", time.Since(start), logger.Fields{"subreddit": subreddit})

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit api status %d", resp.StatusCode)
	}

	var body listing
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode listing: %w", err)
	}

	now := s.now()
	posts := make([]models.SocialPost, 0, len(body.Data.Children))
	for i, child := range body.Data.Children {
		p := child.Data
		text := p.Title
		if p.Selftext != "" {
			text += ": " + models.TruncateText(p.Selftext, 200)
		}
		author := p.Author
		if author == "" {
			author = "Anonymous"
		}
		posts = append(posts, models.SocialPost{
			ID:          fmt.Sprintf("reddit-%d-%d", now.UnixMilli(), i),
			Source:      models.SourceReddit,
			Author:      author,
			Text:        text,
			Sentiment:   DetectSentiment(p.Title + " " + p.Selftext),
			ImpactScore: ImpactScore(p.Score),
			Timestamp:   models.FormatRelativeTime(time.Unix(int64(p.CreatedUTC), 0), now),
		})
	}
	return posts, nil
}

// DetectSentiment counts bullish and bearish vocabulary occurrences in the
// lower-cased text. A strict majority wins; ties and zero matches are
// Neutral.
func DetectSentiment(text string) models.Sentiment {
	lower := strings.ToLower(text)

	bullish := 0
	for _, word := range bullishKeywords {
		if strings.Contains(lower, word) {
			bullish++
		}
	}
	bearish := 0
	for _, word := range bearishKeywords {
		if strings.Contains(lower, word) {
			bearish++
		}
	}

	switch {
	case bullish > bearish && bullish > 0:
		return models.SentimentBullish
	case bearish > bullish && bearish > 0:
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// ImpactScore converts a Reddit vote score to the 0-10 impact scale.
func ImpactScore(score int) float64 {
	normalized := math.Log10(math.Max(float64(score), 1) + 1)
	return math.Min(normalized*2, 10)
}
