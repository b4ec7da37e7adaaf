// Package yahoo fetches daily adjusted-close history from the Yahoo Finance chart API.
package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/aristath/rotation/internal/domain"
)

// DefaultBaseURL is the public chart API host
const DefaultBaseURL = "https://query1.finance.yahoo.com"

// Config holds client settings
type Config struct {
	BaseURL           string
	RequestsPerSecond float64
	Timeout           time.Duration
}

// Client is a Yahoo Finance chart API client.
// Requests are rate limited and pass through a circuit breaker.
type Client struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	log     zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	l := log.With().Str("client", "yahoo").Logger()

	settings := gobreaker.Settings{
		Name:     "yahoo",
		Interval: 60 * time.Second,
		Timeout:  60 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.ConsecutiveFailures >= 3 {
				return true
			}
			if counts.Requests < 20 {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) > 0.05
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			l.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state changed")
		},
	}

	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker: gobreaker.NewCircuitBreaker(settings),
		log:     l,
	}
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
				AdjClose []struct {
					AdjClose []*float64 `json:"adjclose"`
				} `json:"adjclose"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// FetchHistory returns daily adjusted closes for symbol between from and to (inclusive).
// Sessions where Yahoo reports null are skipped.
func (c *Client) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for rate limiter: %w", err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetchChart(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch history for %s: %w", symbol, err)
	}

	points := result.([]domain.PricePoint)
	c.log.Debug().
		Str("symbol", symbol).
		Time("from", from).
		Time("to", to).
		Int("count", len(points)).
		Msg("Fetched price history")

	return points, nil
}

func (c *Client) fetchChart(ctx context.Context, symbol string, from, to time.Time) ([]domain.PricePoint, error) {
	params := url.Values{}
	params.Set("interval", "1d")
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	// period2 is exclusive on Yahoo's side
	params.Set("period2", strconv.FormatInt(to.AddDate(0, 0, 1).Unix(), 10))
	params.Set("events", "div,splits")

	reqURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch chart: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	var parsed chartResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("yahoo returned status %d: %s", resp.StatusCode, string(body))
		}
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	if parsed.Chart.Error != nil {
		return nil, fmt.Errorf("yahoo chart error %s: %s", parsed.Chart.Error.Code, parsed.Chart.Error.Description)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("yahoo returned status %d", resp.StatusCode)
	}
	if len(parsed.Chart.Result) == 0 {
		return []domain.PricePoint{}, nil
	}

	chart := parsed.Chart.Result[0]
	var closes, adjCloses []*float64
	if len(chart.Indicators.Quote) > 0 {
		closes = chart.Indicators.Quote[0].Close
	}
	if len(chart.Indicators.AdjClose) > 0 {
		adjCloses = chart.Indicators.AdjClose[0].AdjClose
	}

	points := make([]domain.PricePoint, 0, len(chart.Timestamp))
	for i, ts := range chart.Timestamp {
		var value *float64
		if i < len(adjCloses) && adjCloses[i] != nil {
			value = adjCloses[i]
		} else if i < len(closes) {
			value = closes[i]
		}
		if value == nil {
			continue
		}

		t := time.Unix(ts, 0).UTC()
		points = append(points, domain.PricePoint{
			Date:  time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC),
			Close: *value,
		})
	}
	return points, nil
}
