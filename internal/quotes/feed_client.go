package quotes

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"fx-arbitrage-service/internal/config"
	"fx-arbitrage-service/internal/models"
)

// FeedClient is a Provider backed by an external quote feed's REST API.
type FeedClient struct {
	client    *resty.Client
	sources   []string
	logger    *zap.Logger
	limiter   *rate.Limiter
	clock     Clock
	retryWait time.Duration
}

var _ Provider = (*FeedClient)(nil)

// NewFeedClient creates a rate-limited quote feed client.
func NewFeedClient(cfg *config.Feed, sources []string, logger *zap.Logger) *FeedClient {
	client := resty.New().SetBaseURL(cfg.BaseURL)

	// rate.Limit is requests per second.
	limiter := rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateLimitBurst)

	return &FeedClient{
		client:    client,
		sources:   sources,
		logger:    logger,
		limiter:   limiter,
		clock:     time.Now,
		retryWait: time.Second,
	}
}

func (c *FeedClient) Sources() []string {
	return c.sources
}

// feedQuote is a single source's quote as returned by the feed API. Prices
// come over the wire as strings.
type feedQuote struct {
	Source string `json:"source"`
	Price  string `json:"price"`
}

type feedQuotesResponse struct {
	Symbol string      `json:"symbol"`
	Quotes []feedQuote `json:"quotes"`
}

// GetQuotes fetches the current quotes for a symbol from the feed. If some
// configured sources are missing from the response or carry unparsable
// prices, the remaining quotes are returned with ErrSourceUnavailable.
func (c *FeedClient) GetQuotes(ctx context.Context, symbol string) ([]models.PriceQuote, error) {
	var body feedQuotesResponse
	req := c.client.R().
		SetContext(ctx).
		SetQueryParam("symbol", symbol).
		SetResult(&body).
		SetHeader("Content-Type", "application/json")

	if _, err := c.doRequest(ctx, http.MethodGet, "/quotes", req); err != nil {
		return nil, fmt.Errorf("failed to get quotes for %s: %w", symbol, err)
	}

	observedAt := c.clock().UTC()
	result := make([]models.PriceQuote, 0, len(body.Quotes))
	for _, q := range body.Quotes {
		price, err := strconv.ParseFloat(q.Price, 64)
		if err != nil || price <= 0 {
			c.logger.Warn("Dropping quote with invalid price",
				zap.String("symbol", symbol),
				zap.String("source", q.Source),
				zap.String("price", q.Price))
			continue
		}
		result = append(result, models.PriceQuote{
			Source:     q.Source,
			Price:      price,
			ObservedAt: observedAt,
		})
	}

	if len(result) < len(c.sources) {
		return result, fmt.Errorf("feed returned %d of %d sources for %s: %w",
			len(result), len(c.sources), symbol, ErrSourceUnavailable)
	}
	return result, nil
}

// doRequest executes the request with rate limiting and retry on 429/5xx.
func (c *FeedClient) doRequest(ctx context.Context, method, url string, req *resty.Request) (*resty.Response, error) {
	var resp *resty.Response
	var err error
	const maxRetries = 3

	for i := 0; i < maxRetries; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter wait failed: %w", err)
		}

		resp, err = req.Execute(method, url)
		if err == nil && !resp.IsError() {
			return resp, nil
		}

		shouldRetry := false
		var retryAfter time.Duration

		if resp != nil && resp.StatusCode() > 0 {
			statusCode := resp.StatusCode()
			if statusCode == http.StatusTooManyRequests {
				shouldRetry = true
				if seconds, err := strconv.Atoi(resp.Header().Get("Retry-After")); err == nil {
					retryAfter = time.Duration(seconds) * time.Second
				}
			} else if statusCode >= 500 {
				shouldRetry = true
			}
		} else {
			// Network or other client-side errors
			shouldRetry = true
		}

		if !shouldRetry {
			return nil, fmt.Errorf("feed request failed with status %s: %s", resp.Status(), resp.String())
		}

		if retryAfter == 0 {
			// Exponential backoff: 1x, 2x, 4x the base wait
			retryAfter = time.Duration(math.Pow(2, float64(i))) * c.retryWait
		}

		c.logger.Warn("Feed request failed, retrying...",
			zap.Int("attempt", i+1),
			zap.Duration("retry_after", retryAfter),
			zap.Error(err))

		select {
		case <-time.After(retryAfter):
			continue
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	if err == nil && resp != nil {
		return nil, fmt.Errorf("feed request failed after %d attempts: status %s", maxRetries, resp.Status())
	}
	return nil, fmt.Errorf("feed request failed after %d attempts: %w", maxRetries, err)
}
