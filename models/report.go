package models

import "time"

// Volatility classifies the spread of the sentiment distribution.
type Volatility string

const (
	VolatilityLow    Volatility = "LOW"
	VolatilityMedium Volatility = "MEDIUM"
	VolatilityHigh   Volatility = "HIGH"
)

// Momentum classifies the direction of the aggregate score.
type Momentum string

const (
	MomentumBullish Momentum = "BULLISH"
	MomentumBearish Momentum = "BEARISH"
	MomentumNeutral Momentum = "NEUTRAL"
)

// TrendPoint is one point of the 7-day trend series. The last point of a
// series carries the sentinel label "Now".
type TrendPoint struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

// DeepStats is the derived market-sentiment snapshot attached to a report.
// PutCallRatio is clamped to [0.3, 2.0].
type DeepStats struct {
	Volatility             Volatility `json:"volatility"`
	Momentum               Momentum   `json:"momentum"`
	SupportLevel           string     `json:"supportLevel"`
	ResistanceLevel        string     `json:"resistanceLevel"`
	RetailSentiment        int        `json:"retailSentiment"`
	InstitutionalSentiment int        `json:"institutionalSentiment"`
	PutCallRatio           float64    `json:"putCallRatio"`
}

// SentimentReport is the unit returned to clients and the unit cached.
//
// OverallScore is always within [0, 100] with 50 as the neutral default.
// Volume counts all collected posts before truncation; Items holds the top
// posts by impact, at most 30, sorted non-increasing.
type SentimentReport struct {
	Ticker       string       `json:"ticker"`
	OverallScore int          `json:"overallScore"`
	Summary      string       `json:"summary"`
	Volume       int          `json:"volume"`
	Trend        []TrendPoint `json:"trend"`
	Items        []SocialPost `json:"items"`
	DeepStats    DeepStats    `json:"deepStats"`
	GeneratedAt  time.Time    `json:"generatedAt"`
}

// CacheStats is a diagnostic snapshot of the response cache.
type CacheStats struct {
	Total   int `json:"total"`
	Active  int `json:"active"`
	Expired int `json:"expired"`
}
