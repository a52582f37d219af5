package summary

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"sentiflow/config"
)

const promptSampleSize = 10

// GeminiGenerator calls the Gemini API with a bounded prompt and bounded
// output length.
type GeminiGenerator struct {
	client *genai.Client
	cfg    config.GeminiConfig
}

// NewGemini builds a generator from config. Returns an error when the
// client cannot be constructed; callers treat that as "no generator" and
// run template-only.
func NewGemini(ctx context.Context, cfg config.GeminiConfig) (*GeminiGenerator, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiGenerator{client: client, cfg: cfg}, nil
}

func (g *GeminiGenerator) Summarize(ctx context.Context, req Request) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.cfg.Model,
		genai.Text(BuildPrompt(req)),
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(float32(g.cfg.Temperature)),
			MaxOutputTokens: int32(g.cfg.MaxOutputTokens),
		})
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("empty completion")
	}
	return text, nil
}

// BuildPrompt renders the bounded prompt: score, momentum, up to ten
// sample posts with truncated text, and the deep stats.
func BuildPrompt(req Request) string {
	var sample strings.Builder
	for i, p := range req.Posts {
		if i >= promptSampleSize {
			break
		}
		fmt.Fprintf(&sample, "[%s] %s: %s\n", p.Source, p.Sentiment, truncate(p.Text, 100))
	}

	return fmt.Sprintf(`Analyze the market sentiment for %s based on this social media data:

Sentiment Score: %d/100
Overall Sentiment: %s
Comment Sample:
%s
Deep Stats:
- Volatility: %s
- Retail Sentiment: %d%%
- Put/Call Ratio: %.2f

Write a concise 1-2 sentence professional market analysis summary. Focus on the key drivers and market positioning. Use a technical trading perspective.`,
		req.Ticker, req.OverallScore, req.Stats.Momentum, sample.String(),
		req.Stats.Volatility, req.Stats.RetailSentiment, req.Stats.PutCallRatio)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}
