package inference

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Client submits raw image bytes to a remote classification endpoint
// (HuggingFace-style inference API) and parses the ranked results.
type Client struct {
	endpointURL  string
	authToken    string
	modelName    string
	modelVersion string
	httpClient   *http.Client
	logger       *zap.Logger
	maxRetries   int
	retryDelay   time.Duration
}

// Config for the inference client
type Config struct {
	URL          string
	AuthToken    string
	ModelName    string
	ModelVersion string
	Timeout      time.Duration
	MaxRetries   int
	RetryDelay   time.Duration
}

// result is one candidate in the endpoint's ranked response. Score is
// kept as json.Number so the decimal digits survive parsing untouched.
type result struct {
	Label string      `json:"label"`
	Score json.Number `json:"score"`
}

// Classification is the top-ranked result with the label lower-cased
// and the score as an exact decimal.
type Classification struct {
	Label string
	Score decimal.Decimal
}

// NewClient creates a new inference client
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("inference endpoint URL is required")
	}

	if cfg.ModelName == "" {
		cfg.ModelName = "deepfake-detector"
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}

	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 2 * time.Second
	}

	logger.Info("Inference client initialized",
		zap.String("model", cfg.ModelName),
		zap.String("model_version", cfg.ModelVersion),
		zap.Int("max_retries", cfg.MaxRetries))

	return &Client{
		endpointURL:  cfg.URL,
		authToken:    cfg.AuthToken,
		modelName:    cfg.ModelName,
		modelVersion: cfg.ModelVersion,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger,
		maxRetries:   cfg.MaxRetries,
		retryDelay:   cfg.RetryDelay,
	}, nil
}

// ModelName returns the configured model identifier.
func (c *Client) ModelName() string {
	return c.modelName
}

// ModelVersion returns the configured model version tag.
func (c *Client) ModelVersion() string {
	return c.modelVersion
}

// Classify submits the image bytes and returns the top-ranked result.
// Transient faults (transport errors, 5xx, 429) are retried with a
// fixed delay; malformed responses are not.
func (c *Client) Classify(ctx context.Context, data []byte, contentType string) (*Classification, error) {
	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying inference request",
				zap.Int("attempt", attempt+1),
				zap.Int("max_retries", c.maxRetries))

			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("inference cancelled: %w", ctx.Err())
			case <-time.After(c.retryDelay):
			}
		}

		classification, retryable, err := c.classifyOnce(ctx, data, contentType)
		if err == nil {
			return classification, nil
		}

		lastErr = err
		c.logger.Error("Inference request failed",
			zap.Error(err),
			zap.Int("attempt", attempt+1))

		if !retryable {
			return nil, err
		}
	}

	return nil, fmt.Errorf("failed after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) classifyOnce(ctx context.Context, data []byte, contentType string) (*Classification, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpointURL, bytes.NewReader(data))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", contentType)
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, true, fmt.Errorf("inference request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// 5xx and 429 cover cold starts and rate limits on hosted
		// inference endpoints.
		retryable := resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests
		return nil, retryable, fmt.Errorf("inference endpoint returned status %d: %s",
			resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var results []result
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, false, fmt.Errorf("failed to parse inference response: %w", err)
	}

	if len(results) == 0 {
		return nil, false, fmt.Errorf("empty result list from inference endpoint")
	}

	top := results[0]
	if top.Label == "" || top.Score == "" {
		return nil, false, fmt.Errorf("inference result missing label or score")
	}

	score, err := decimal.NewFromString(top.Score.String())
	if err != nil {
		return nil, false, fmt.Errorf("invalid score %q: %w", top.Score, err)
	}

	if score.IsNegative() || score.GreaterThan(decimal.NewFromInt(1)) {
		return nil, false, fmt.Errorf("score %s is outside [0, 1]", score)
	}

	return &Classification{
		Label: strings.ToLower(top.Label),
		Score: score,
	}, false, nil
}
