package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Fetcher downloads image bytes from caller-supplied URLs. Downloads
// are capped at MaxBytes so a hostile URL cannot exhaust memory.
type Fetcher struct {
	httpClient *http.Client
	maxBytes   int64
	logger     *zap.Logger
}

// Config for the image fetcher
type Config struct {
	Timeout  time.Duration
	MaxBytes int64
}

// New creates a new image fetcher
func New(cfg Config, logger *zap.Logger) *Fetcher {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}

	if cfg.MaxBytes == 0 {
		cfg.MaxBytes = 10 << 20
	}

	return &Fetcher{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		maxBytes:   cfg.MaxBytes,
		logger:     logger,
	}
}

// Fetch retrieves the raw bytes behind url. Any transport fault or
// non-2xx status is a fetch failure.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("failed to fetch %s: unexpected status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", url, err)
	}

	if int64(len(data)) > f.maxBytes {
		return nil, fmt.Errorf("image at %s exceeds the %d byte limit", url, f.maxBytes)
	}

	if len(data) == 0 {
		return nil, fmt.Errorf("empty body fetched from %s", url)
	}

	f.logger.Debug("Fetched image",
		zap.String("url", url),
		zap.Int("size_bytes", len(data)))

	return data, nil
}
