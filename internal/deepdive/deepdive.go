// Package deepdive wraps the two LLM calls that sit outside the ranking
// engine: the "deep-dive" text analysis pass for a single article, and a
// taxonomy-extraction chat-completion call. internal/collector does not call
// ExtractTaxonomy; collected articles keep the category tags their feed
// supplies. Neither output feeds back into ranking — internal/engine never imports
// this package.
package deepdive

import (
	"context"
	"fmt"
	"time"

	"newsengine/internal/config"
	"newsengine/internal/core"

	"github.com/go-resty/resty/v2"
	"google.golang.org/genai"
)

const analysisPromptTemplate = "Provide a deep-dive analysis of the following article. Explain its background, significance, and broader context in 3-4 paragraphs:\n\n---\n%s\n---"

// Client performs deep-dive text analysis (genai) and taxonomy extraction
// (Groq chat completion).
type Client struct {
	genaiClient *genai.Client
	model       string

	groq          *resty.Client
	groqModel     string
	groqRateLimit time.Duration
	lastGroqCall  time.Time
}

// NewClient builds a deep-dive client from the given configuration. The
// genai client is required for Analyze; the Groq client is optional and
// ExtractTaxonomy returns an error if GroqAPIKey is unset.
func NewClient(ctx context.Context, cfg config.DeepDive, geminiAPIKey string) (*Client, error) {
	gClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("deepdive: failed to create genai client: %w", err)
	}

	c := &Client{
		genaiClient:   gClient,
		model:         cfg.Model,
		groqRateLimit: cfg.RateLimit,
	}

	if cfg.GroqAPIKey != "" {
		c.groq = resty.New().
			SetBaseURL("https://api.groq.com/openai/v1").
			SetAuthToken(cfg.GroqAPIKey).
			SetTimeout(cfg.Timeout)
		c.groqModel = cfg.Model
	}

	return c, nil
}

// Analyze produces a deep-dive text analysis for an article. Bounded by a
// 30s timeout per spec §5; never called from internal/engine.
func (c *Client) Analyze(ctx context.Context, article core.Article) (string, error) {
	if article.Summary == "" && article.Title == "" {
		return "", fmt.Errorf("deepdive: article %s has no content to analyze", article.ID)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	text := article.Title + "\n\n" + article.Summary
	prompt := fmt.Sprintf(analysisPromptTemplate, text)

	contents := []*genai.Content{{
		Parts: []*genai.Part{{Text: prompt}},
		Role:  "user",
	}}

	resp, err := c.genaiClient.Models.GenerateContent(ctx, c.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("deepdive: generate content for article %s: %w", article.ID, err)
	}

	out := resp.Text()
	if out == "" {
		return "", fmt.Errorf("deepdive: empty analysis response for article %s", article.ID)
	}
	return out, nil
}

type groqChatRequest struct {
	Model    string            `json:"model"`
	Messages []groqChatMessage `json:"messages"`
}

type groqChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type groqChatResponse struct {
	Choices []struct {
		Message groqChatMessage `json:"message"`
	} `json:"choices"`
}

// ExtractTaxonomy asks the Groq chat-completion endpoint to extract coarse
// taxonomy labels from raw text. Callers are responsible for iterating a
// batch; ExtractTaxonomy itself sleeps to respect the 30 RPM / 2.1s
// inter-request budget (spec §7) before issuing its request.
func (c *Client) ExtractTaxonomy(ctx context.Context, text string) (string, error) {
	if c.groq == nil {
		return "", fmt.Errorf("deepdive: GROQ_API_KEY not configured")
	}

	if wait := c.groqRateLimit - time.Since(c.lastGroqCall); wait > 0 {
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	c.lastGroqCall = time.Now()

	reqBody := groqChatRequest{
		Model: c.groqModel,
		Messages: []groqChatMessage{
			{Role: "system", Content: "Extract the coarse news category label(s) for the following text. Reply with a comma-separated list of labels only."},
			{Role: "user", Content: text},
		},
	}

	var result groqChatResponse
	resp, err := c.groq.R().
		SetContext(ctx).
		SetBody(reqBody).
		SetResult(&result).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("deepdive: groq request failed: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("deepdive: groq returned status %d", resp.StatusCode())
	}
	if len(result.Choices) == 0 {
		return "", fmt.Errorf("deepdive: groq returned no choices")
	}

	return result.Choices[0].Message.Content, nil
}
