// Package embedding wraps the Cloudflare Workers AI text-embedding endpoint
// used to turn collected article text into the dense vectors the engine
// ranks on. The engine never calls this package directly — it's the
// collector and the backfill command that produce embeddings and hand them
// to persistence.
package embedding

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultBatchSize caps how many texts go into one Workers AI request.
const DefaultBatchSize = 50

// DefaultTimeout bounds a single batch call; the caller is expected to
// retry at a higher level (internal/backfill) rather than this package
// retrying internally.
const DefaultTimeout = 120 * time.Second

// Client calls the Cloudflare Workers AI embedding model for a fixed
// account/model pair.
type Client struct {
	http      *resty.Client
	accountID string
	model     string
}

// NewClient builds a Client against the given Cloudflare account, API
// token, and model path (e.g. "@cf/baai/bge-base-en-v1.5").
func NewClient(accountID, apiToken, model string) *Client {
	http := resty.New().
		SetBaseURL(fmt.Sprintf("https://api.cloudflare.com/client/v4/accounts/%s/ai/run", accountID)).
		SetAuthToken(apiToken).
		SetTimeout(DefaultTimeout)
	return &Client{http: http, accountID: accountID, model: model}
}

type embedRequest struct {
	Text []string `json:"text"`
}

type embedResponse struct {
	Success bool `json:"success"`
	Errors  []struct {
		Message string `json:"message"`
	} `json:"errors"`
	Result struct {
		Data [][]float64 `json:"data"`
	} `json:"result"`
}

// Embed returns one embedding vector per input text, in the same order.
// texts longer than DefaultBatchSize are chunked into multiple requests.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	var out [][]float64
	for start := 0; start < len(texts); start += DefaultBatchSize {
		end := start + DefaultBatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch, err := c.embedBatch(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("embed batch [%d:%d]: %w", start, end, err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

func (c *Client) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var result embedResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embedRequest{Text: texts}).
		SetResult(&result).
		Post("/" + c.model)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("embedding request returned status %d", resp.StatusCode())
	}
	if !result.Success {
		if len(result.Errors) > 0 {
			return nil, fmt.Errorf("embedding API error: %s", result.Errors[0].Message)
		}
		return nil, fmt.Errorf("embedding API reported failure with no message")
	}
	if len(result.Result.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(result.Result.Data))
	}
	return result.Result.Data, nil
}
