// Package stocktwits collects posts from the public StockTwits symbol
// stream. Unlike the other sources it degrades to a templated placeholder
// set on failure, so the feed stays populated even when the API is down.
package stocktwits

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sentiflow/config"
	"sentiflow/logger"
	"sentiflow/models"
	"sentiflow/scraper"

	"golang.org/x/time/rate"
)

const maxPlaceholderPosts = 15

type streamResponse struct {
	Messages []message `json:"messages"`
}

type message struct {
	ID   int64  `json:"id"`
	Body string `json:"body"`
	User struct {
		Username  string `json:"username"`
		Followers int    `json:"followers"`
	} `json:"user"`
	CreatedAt string `json:"created_at"`
	Entities  struct {
		Sentiment *struct {
			Basic string `json:"basic"`
		} `json:"sentiment"`
	} `json:"entities"`
	Likes struct {
		Total int `json:"total"`
	} `json:"likes"`
}

type template struct {
	text      string
	sentiment models.Sentiment
	impact    float64
}

var placeholderTemplates = []template{
	{"$%s Looking at a clean breakout setup here. Buy zone active.", models.SentimentBullish, 7.2},
	{"Watching $%s closely. Volume profile suggests accumulation phase.", models.SentimentNeutral, 6.0},
	{"$%s broke major support. Risk-off until we see stabilization.", models.SentimentBearish, 8.1},
	{"Added to my $%s position on this dip. Great risk/reward here.", models.SentimentBullish, 6.8},
	{"$%s showing bearish divergence on RSI. Caution warranted.", models.SentimentBearish, 7.5},
	{"Strong institutional buying on $%s. Follow the smart money.", models.SentimentBullish, 8.9},
	{"$%s consolidating nicely. Expecting move soon.", models.SentimentNeutral, 5.5},
	{"Just took profits on $%s. Nice 25%% gain in 2 weeks.", models.SentimentBullish, 7.0},
	{"$%s earnings next week. Sitting this one out, too risky.", models.SentimentNeutral, 4.5},
	{"Heavy selling pressure on $%s. Might test lower levels.", models.SentimentBearish, 6.9},
}

var placeholderAuthors = []string{
	"ChartMaster", "SwingKing", "TechnicalTrader", "MomentumPlay", "OptionsFlow",
	"DayTrade_Boss", "PatternScout", "BreakoutAlert", "TrendFollower", "RiskManager",
}

type Scraper struct {
	cfg       config.StockTwitsSourceConfig
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	log       *logger.Log
	now       func() time.Time

	mu  sync.Mutex // guards rng; Fetch runs on a goroutine per request
	rng *rand.Rand
}

func New(cfg config.StockTwitsSourceConfig, scraperCfg config.ScraperConfig) *Scraper {
	return &Scraper{
		cfg:       cfg,
		client:    scraper.NewHTTPClient(scraperCfg),
		limiter:   scraper.NewLimiter(scraperCfg.RateLimit),
		userAgent: scraperCfg.UserAgent,
		log:       logger.GetLogger(),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		now:       time.Now,
	}
}

func (s *Scraper) Name() string {
	return "stocktwits"
}

// Fetch pulls the symbol stream. Any failure, including a timeout, yields
// the placeholder set instead of an error.
func (s *Scraper) Fetch(ctx context.Context, ticker string, limit int) scraper.Result {
	log := s.log.WithComponent("stocktwits_scraper").WithFields(logger.Fields{"ticker": ticker})

	posts, err := s.fetchStream(ctx, ticker, limit)
	var result scraper.Result
	if err != nil {
		log.WithError(err).Warn("stream fetch failed, using placeholder data")
		result = scraper.Result{
			Posts:    s.placeholderPosts(ticker, limit),
			Fallback: scraper.FallbackPlaceholder,
		}
	} else {
		result = scraper.Result{Posts: posts, Fallback: scraper.FallbackNone}
	}

	logger.RecordSourceFetch(s.Name(), len(result.Posts), result.Degraded())
	return result
}

func (s *Scraper) fetchStream(ctx context.Context, ticker string, limit int) ([]models.SocialPost, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}

	streamURL := fmt.Sprintf("%s/streams/symbol/%s.json?limit=%d", s.cfg.URL, ticker, limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stream: %w", err)
	}
	defer resp.Body.Close()
	logger.LogPerformanceEntry(s.log.WithComponent("stocktwits_scraper"), "stocktwits_scraper", "api_request", time.Since(start), logger.Fields{"ticker": ticker})

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("stocktwits api status %d", resp.StatusCode)
	}

	var body streamResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode stream: %w", err)
	}

	now := s.now()
	posts := make([]models.SocialPost, 0, len(body.Messages))
	for i, msg := range body.Messages {
		if i >= limit {
			break
		}
		author := msg.User.Username
		if author == "" {
			author = "Anonymous"
		}
		var native string
		if msg.Entities.Sentiment != nil {
			native = msg.Entities.Sentiment.Basic
		}
		posts = append(posts, models.SocialPost{
			ID:          fmt.Sprintf("stocktwits-%d-%d", msg.ID, i),
			Source:      models.SourceStockTwits,
			Author:      author,
			Text:        msg.Body,
			Sentiment:   MapSentiment(native),
			ImpactScore: ImpactScore(msg.User.Followers, msg.Likes.Total),
			Timestamp:   formatCreatedAt(msg.CreatedAt, now),
		})
	}
	return posts, nil
}

// MapSentiment converts the provider's native sentiment tag; anything
// unrecognized or absent is Neutral.
func MapSentiment(basic string) models.Sentiment {
	switch strings.ToLower(basic) {
	case "bullish":
		return models.SentimentBullish
	case "bearish":
		return models.SentimentBearish
	default:
		return models.SentimentNeutral
	}
}

// ImpactScore derives the 0-10 impact weight from user influence and post
// engagement, each log-scaled.
func ImpactScore(followers, likes int) float64 {
	followerScore := math.Log10(float64(followers)+1) * 2
	likeScore := math.Log10(float64(likes)+1) * 3
	return math.Min((followerScore+likeScore)/2, 10)
}

func formatCreatedAt(createdAt string, now time.Time) string {
	ts, err := time.Parse(time.RFC3339, createdAt)
	if err != nil {
		if ts, err = time.Parse("2006-01-02T15:04:05Z", createdAt); err != nil {
			return "Just now"
		}
	}
	return models.FormatRelativeTime(ts, now)
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
		minutesAgo := s.rng.Intn(360) + 5
		impact := tpl.impact + (s.rng.Float64() - 0.5)

		posts = append(posts, models.SocialPost{
			ID:          fmt.Sprintf("stocktwits-%s", uuid.NewString()),
			Source:      models.SourceStockTwits,
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
