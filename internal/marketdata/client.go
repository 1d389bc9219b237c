package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"goldcast/internal/config"
	"goldcast/internal/errs"
	"goldcast/models"
)

// Client fetches daily bars from the Twelve Data time series API.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	config     *config.Config
	baseURL    string
	logger     zerolog.Logger
}

// NewClient creates a new market data client with rate limiting
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(time.Second), 5), // 5 requests per second
		config:  cfg,
		baseURL: "https://api.twelvedata.com",
		logger:  log.With().Str("component", "marketdata").Logger(),
	}
}

// SetBaseURL points the client at a different API host. Used in tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// twelveResponse mirrors the Twelve Data time_series payload
type twelveResponse struct {
	Meta struct {
		Symbol   string `json:"symbol"`
		Interval string `json:"interval"`
	} `json:"meta"`
	Values []struct {
		Datetime string  `json:"datetime"`
		Open     float64 `json:"open,string"`
		High     float64 `json:"high,string"`
		Low      float64 `json:"low,string"`
		Close    float64 `json:"close,string"`
		Volume   int64   `json:"volume,string,omitempty"`
	} `json:"values"`
	Status string `json:"status"`
}

// GetDailyBars returns the most recent daily bars in ascending date order.
// Transient upstream failures are retried with backoff before the whole
// fetch is reported as a transient service error.
func (c *Client) GetDailyBars(ctx context.Context) ([]models.Bar, error) {
	// Wait for rate limiter
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	url := fmt.Sprintf(
		"%s/time_series?symbol=%s&interval=%s&outputsize=%d&apikey=%s",
		c.baseURL,
		c.config.Symbol,
		c.config.Interval,
		c.config.BarCount,
		c.config.TwelveAPIKey,
	)

	c.logger.Debug().Str("symbol", c.config.Symbol).Int("outputsize", c.config.BarCount).Msg("Fetching daily bars")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	// Use exponential backoff for retries
	var resp *http.Response
	operation := func() error {
		var err error
		resp, err = c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("HTTP request failed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return fmt.Errorf("non-200 status code: %d", resp.StatusCode)
		}
		return nil
	}

	backoffStrategy := backoff.NewExponentialBackOff()
	backoffStrategy.MaxElapsedTime = 30 * time.Second

	if err := backoff.Retry(operation, backoff.WithContext(backoffStrategy, ctx)); err != nil {
		return nil, errs.New(errs.KindTransient, "market data fetch failed after retries: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.New(errs.KindTransient, "reading response body: %v", err)
	}

	if strings.Contains(string(body), `"status":"error"`) {
		c.logger.Error().Str("response", string(body)).Msg("Twelve Data API error")
		return nil, errs.New(errs.KindTransient, "Twelve Data API error: %s", string(body))
	}

	var data twelveResponse
	if err := json.Unmarshal(body, &data); err != nil {
		c.logger.Error().Err(err).Str("response", string(body)).Msg("Error parsing JSON")
		return nil, errs.New(errs.KindTransient, "parsing JSON: %v", err)
	}

	if len(data.Values) == 0 {
		c.logger.Warn().Str("response", string(body)).Msg("No bars in response")
		return nil, errs.New(errs.KindInsufficientHistory, "empty data returned for %s", c.config.Symbol)
	}

	// Sort bars by date (oldest first for proper indicator calculations)
	sort.Slice(data.Values, func(i, j int) bool {
		return data.Values[i].Datetime < data.Values[j].Datetime
	})

	bars := make([]models.Bar, 0, len(data.Values))
	for _, v := range data.Values {
		bars = append(bars, models.Bar{
			Date:   v.Datetime,
			Open:   v.Open,
			High:   v.High,
			Low:    v.Low,
			Close:  v.Close,
			Volume: v.Volume,
		})
	}

	c.logger.Debug().Int("count", len(bars)).Msg("Fetched daily bars")
	return bars, nil
}
