package snapshot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"feedwatch/internal/config"
	"feedwatch/internal/logger"
	"feedwatch/pkg/utils"
)

// Fetch errors.
var (
	ErrNotFound             = errors.New("snapshot not found")
	ErrUnexpectedStatusCode = errors.New("unexpected status code")
	ErrTooLarge             = errors.New("snapshot exceeds buffer size")
)

// Metrics describes one fetch.
type Metrics struct {
	StatusCode int
	Attempts   int
	Size       int64
	Duration   time.Duration
}

// Fetcher reads snapshots over HTTP with config-driven retries, or from disk.
type Fetcher struct {
	client       *http.Client
	retryPolicy  *config.RetryPolicy
	bufferSizeKb int
	http         *utils.HTTPHelper
	log          *logger.Logger
}

// NewFetcher creates a fetcher using the retry policy and read limit of cfg.
func NewFetcher(cfg *config.FetchConfig, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.Discard()
	}

	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Retry.GetTimeout(),
		},
		retryPolicy:  &cfg.Retry,
		bufferSizeKb: cfg.BufferSizeKb,
		http:         utils.NewHTTPHelper(),
		log:          log,
	}
}

// FetchWithMetrics downloads url. 404 and 410 map to ErrNotFound and are not
// retried; transport errors and 408/429/503/504 are retried with backoff.
func (f *Fetcher) FetchWithMetrics(ctx context.Context, url string) ([]byte, Metrics, error) {
	var (
		lastErr error
		metrics Metrics
	)

	start := time.Now()

	for attempt := 1; attempt <= f.retryPolicy.MaxAttempts; attempt++ {
		if attempt > 1 {
			delay := f.retryPolicy.GetRetryDelay(attempt)
			f.log.Debug("retrying snapshot fetch", "url", url, "attempt", attempt, "delay", delay)

			if err := sleep(ctx, delay); err != nil {
				return nil, metrics, err
			}
		}

		metrics.Attempts = attempt

		body, status, err := f.fetchOnce(ctx, url)
		metrics.StatusCode = status
		metrics.Duration = time.Since(start)

		if err == nil {
			metrics.Size = int64(len(body))
			return body, metrics, nil
		}

		lastErr = fmt.Errorf("request failed (attempt %d/%d): %w", attempt, f.retryPolicy.MaxAttempts, err)

		if status != 0 && !isRetryableStatus(status) {
			break
		}

		if ctx.Err() != nil {
			break
		}
	}

	return nil, metrics, lastErr
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header = f.http.BuildHeaders(nil)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		return nil, resp.StatusCode, fmt.Errorf("%w: %s returned %d", ErrNotFound, url, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, resp.StatusCode, fmt.Errorf("%w: %d", ErrUnexpectedStatusCode, resp.StatusCode)
	}

	body, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}

	return body, resp.StatusCode, nil
}

// ReadLocalFile reads path, mapping a missing file to ErrNotFound.
func (f *Fetcher) ReadLocalFile(path string) ([]byte, Metrics, error) {
	start := time.Now()

	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, Metrics{}, fmt.Errorf("%w: %s", ErrNotFound, path)
	}

	if err != nil {
		return nil, Metrics{}, fmt.Errorf("failed to read local file %s: %w", path, err)
	}
	defer file.Close()

	body, err := f.readLimited(file)
	if err != nil {
		return nil, Metrics{}, fmt.Errorf("failed to read local file %s: %w", path, err)
	}

	return body, Metrics{Attempts: 1, Size: int64(len(body)), Duration: time.Since(start)}, nil
}

// readLimited reads at most bufferSizeKb. Larger documents are an error, never truncated.
func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	limit := int64(f.bufferSizeKb) * 1024

	body, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	if int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: limit %d KB", ErrTooLarge, f.bufferSizeKb)
	}

	return body, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// isRetryableStatus determines if we should retry based on HTTP status code.
func isRetryableStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusServiceUnavailable,
		http.StatusGatewayTimeout,
		http.StatusTooManyRequests,
		http.StatusRequestTimeout:
		return true
	}

	return false
}
