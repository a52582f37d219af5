// Package summary produces the 1-2 sentence market analysis attached to a
// sentiment report. An AI-backed generator is used when configured; any
// failure downgrades to a deterministic template keyed by score band.
package summary

import (
	"context"
	"fmt"
	"math"
	"strings"

	"sentiflow/logger"
	"sentiflow/models"
)

// Request carries everything a generator may cite in its summary.
type Request struct {
	Ticker       string
	OverallScore int
	Posts        []models.SocialPost
	Stats        models.DeepStats
}

// Generator turns a request into a short natural-language summary. An
// empty string with a nil error counts as failure for Compose.
type Generator interface {
	Summarize(ctx context.Context, req Request) (string, error)
}

// Compose runs the generator when one is provided and falls back to the
// deterministic template on nil generator, error, or empty output. The
// returned flag reports whether the template path was used, so callers and
// tests can tell which path fired.
func Compose(ctx context.Context, gen Generator, req Request) (string, bool) {
	log := logger.GetLogger().WithComponent("summary").WithFields(logger.Fields{"ticker": req.Ticker})

	if gen != nil {
		text, err := gen.Summarize(ctx, req)
		if err != nil {
			log.WithError(err).Warn("AI summary failed, using template")
		} else if strings.TrimSpace(text) == "" {
			log.Warn("AI summary empty, using template")
		} else {
			logger.IncrementSummary(true)
			return strings.TrimSpace(text), false
		}
	}

	logger.IncrementSummary(false)
	return Fallback(req.Ticker, req.Posts, req.OverallScore), true
}

// Fallback renders the deterministic template for the score band. The
// cited percentages are computed the same way as retail sentiment.
func Fallback(ticker string, posts []models.SocialPost, score int) string {
	bullish := 0
	bearish := 0
	for _, p := range posts {
		switch p.Sentiment {
		case models.SentimentBullish:
			bullish++
		case models.SentimentBearish:
			bearish++
		}
	}
	total := len(posts)
	if total == 0 {
		total = 1
	}

	bullishPct := int(math.Round(float64(bullish) / float64(total) * 100))
	bearishPct := int(math.Round(float64(bearish) / float64(total) * 100))

	switch {
	case score > 65:
		return fmt.Sprintf("Strong bullish momentum detected for %s with %d%% positive sentiment across social channels. Retail traders showing increased conviction with elevated call activity.", ticker, bullishPct)
	case score < 35:
		return fmt.Sprintf("Bearish pressure building on %s with %d%% negative sentiment. Risk-off positioning evident across retail and institutional flows.", ticker, bearishPct)
	default:
		return fmt.Sprintf("Mixed sentiment on %s with balanced %d%% bullish vs %d%% bearish positioning. Market awaiting catalyst for directional move.", ticker, bullishPct, bearishPct)
	}
}
