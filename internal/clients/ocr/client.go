// Package ocr provides the client for the image-to-holdings extraction service.
package ocr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aristath/checkup/internal/modules/checkup/domain"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// ErrNotConfigured is returned when no service URL is set
var ErrNotConfigured = errors.New("ocr service not configured")

// Config configures the OCR client
type Config struct {
	BaseURL       string
	APIKey        string
	RatePerMinute int // Requests allowed per minute; <= 0 disables limiting
	Timeout       time.Duration
}

// Client posts screenshots to the extraction service
type Client struct {
	client  *resty.Client
	limiter *rate.Limiter
	enabled bool
	log     zerolog.Logger
}

// extractResponse is the body returned by POST /extract
type extractResponse struct {
	Holdings []domain.RawHolding `json:"holdings"`
}

// NewClient creates an OCR client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client := resty.New()
	client.SetBaseURL(strings.TrimRight(cfg.BaseURL, "/"))
	client.SetTimeout(cfg.Timeout)
	client.SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		client.SetAuthToken(cfg.APIKey)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RatePerMinute > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RatePerMinute)), 1)
	}

	return &Client{
		client:  client,
		limiter: limiter,
		enabled: cfg.BaseURL != "",
		log:     log.With().Str("client", "ocr").Logger(),
	}
}

// Extract uploads one image and returns the holdings the service read from it.
// It waits for the rate limiter, honoring ctx.
func (c *Client) Extract(ctx context.Context, filename string, image []byte) ([]domain.RawHolding, error) {
	if !c.enabled {
		return nil, ErrNotConfigured
	}
	if len(image) == 0 {
		return nil, fmt.Errorf("image %s is empty", filename)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var out extractResponse
	start := time.Now()
	resp, err := c.client.R().
		SetContext(ctx).
		SetFileReader("image", filename, bytes.NewReader(image)).
		SetResult(&out).
		Post("/extract")
	if err != nil {
		return nil, fmt.Errorf("ocr request for %s failed: %w", filename, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("ocr service error %d for %s: %s", resp.StatusCode(), filename, strings.TrimSpace(resp.String()))
	}

	c.log.Debug().
		Str("file", filename).
		Int("holdings", len(out.Holdings)).
		Dur("elapsed", time.Since(start)).
		Msg("Image extracted")

	if out.Holdings == nil {
		return []domain.RawHolding{}, nil
	}
	return out.Holdings, nil
}
