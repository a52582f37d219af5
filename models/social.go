package models

import (
	"fmt"
	"time"
)

// Sentiment is the coarse directional label assigned to a post.
type Sentiment string

const (
	SentimentBullish Sentiment = "Bullish"
	SentimentBearish Sentiment = "Bearish"
	SentimentNeutral Sentiment = "Neutral"
)

// Source identifies the provider a post was collected from.
type Source string

const (
	SourceReddit        Source = "Reddit"
	SourceTwitter       Source = "Twitter"
	SourceStockTwits    Source = "StockTwits"
	SourceInstitutional Source = "Institutional"
)

// SocialPost is one normalized post or comment about a ticker. Posts are
// created fresh per request inside a scraper and are never persisted.
type SocialPost struct {
	ID          string    `json:"id"`
	Source      Source    `json:"source"`
	Author      string    `json:"author"`
	Text        string    `json:"text"`
	Sentiment   Sentiment `json:"sentiment"`
	ImpactScore float64   `json:"impactScore"`
	Timestamp   string    `json:"timestamp"`
}

// FormatRelativeTime renders a provider timestamp as a display string
// relative to now. The result is a presentation artifact and must not be
// used for ordering.
func FormatRelativeTime(ts, now time.Time) string {
	mins := int(now.Sub(ts).Minutes())
	if mins < 0 {
		mins = 0
	}
	switch {
	case mins < 60:
		return fmt.Sprintf("%dm ago", mins)
	case mins < 24*60:
		return fmt.Sprintf("%dh ago", mins/60)
	default:
		return ts.Local().Format("15:04")
	}
}

// TruncateText bounds free-form provider text to max runes.
func TruncateText(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
