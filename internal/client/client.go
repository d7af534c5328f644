// Package client fetches current conditions from OpenWeatherMap on behalf of
// the companion and maps them onto the four-field weather message.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kjstillabower/watchface-status/internal/models"
	"github.com/kjstillabower/watchface-status/internal/observability"
)

// ConditionsClient fetches the current weather message for a location.
type ConditionsClient interface {
	FetchConditions(ctx context.Context, location string) (models.WeatherMessage, error)
}

var (
	ErrInvalidAPIKey    = errors.New("invalid API key")
	ErrLocationNotFound = errors.New("location not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrRateLimited      = errors.New("rate limited")
)

// Options configure an OpenWeatherClient. Zero values take the defaults below.
type Options struct {
	APIKey  string
	URL     string
	Timeout time.Duration
	// Attempts is the total number of tries per fetch. 1 means no retry.
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

const (
	DefaultURL       = "https://api.openweathermap.org/data/2.5/weather"
	defaultTimeout   = 5 * time.Second
	defaultBaseDelay = 100 * time.Millisecond
	defaultMaxDelay  = 2 * time.Second
)

type OpenWeatherClient struct {
	opts   Options
	client *http.Client
}

func NewOpenWeatherClient(opts Options) (*OpenWeatherClient, error) {
	if opts.APIKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(opts.APIKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = defaultBaseDelay
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = defaultMaxDelay
	}
	return &OpenWeatherClient{
		opts:   opts,
		client: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// conditionsResponse holds the fields we read. Pointers distinguish absent
// from zero so a sparse upstream body yields a partial message.
type conditionsResponse struct {
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		ID *int32 `json:"id"`
	} `json:"weather"`
	Sys struct {
		Sunrise *int64 `json:"sunrise"`
		Sunset  *int64 `json:"sunset"`
	} `json:"sys"`
}

// FetchConditions calls the current weather endpoint for location. Fields the
// upstream omits are left nil in the returned message.
func (c *OpenWeatherClient) FetchConditions(ctx context.Context, location string) (models.WeatherMessage, error) {
	var lastErr error
	for attempt := 0; attempt < c.opts.Attempts; attempt++ {
		if attempt > 0 {
			observability.WeatherAPIRetriesTotal.Inc()
			select {
			case <-ctx.Done():
				return models.WeatherMessage{}, ctx.Err()
			case <-time.After(c.backoff(attempt)):
			}
		}

		msg, err := c.fetchOnce(ctx, location)
		if err == nil {
			return msg, nil
		}
		lastErr = err
		if !isRetryable(err) {
			return models.WeatherMessage{}, err
		}
	}
	if c.opts.Attempts == 1 {
		return models.WeatherMessage{}, lastErr
	}
	return models.WeatherMessage{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (c *OpenWeatherClient) fetchOnce(ctx context.Context, location string) (models.WeatherMessage, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	req, err := c.newRequest(reqCtx, location)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		return models.WeatherMessage{}, fmt.Errorf("build request: %w", err)
	}
	if corrID := correlationID(ctx); corrID != "" {
		req.Header.Set("X-Correlation-ID", corrID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		observability.WeatherAPICallsTotal.WithLabelValues("error").Inc()
		observability.WeatherAPIDuration.WithLabelValues("error").Observe(time.Since(start).Seconds())
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return models.WeatherMessage{}, fmt.Errorf("request timeout: %w", err)
		}
		return models.WeatherMessage{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	status := statusLabel(resp.StatusCode)
	observability.WeatherAPICallsTotal.WithLabelValues(status).Inc()
	observability.WeatherAPIDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err := checkStatus(resp.StatusCode); err != nil {
		return models.WeatherMessage{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.WeatherMessage{}, fmt.Errorf("read response body: %w", err)
	}
	var out conditionsResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return models.WeatherMessage{}, fmt.Errorf("parse response: %w", err)
	}
	return toMessage(out), nil
}

func (c *OpenWeatherClient) newRequest(ctx context.Context, location string) (*http.Request, error) {
	u, err := url.Parse(c.opts.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}
	params := url.Values{}
	params.Set("q", location)
	params.Set("appid", c.opts.APIKey)
	params.Set("units", "metric")
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// toMessage converts an upstream body. Temperature is rounded to whole
// degrees; sun times outside the uint32 range are treated as absent.
func toMessage(r conditionsResponse) models.WeatherMessage {
	var msg models.WeatherMessage
	if r.Main.Temp != nil {
		t := int32(math.Round(*r.Main.Temp))
		msg.Temperature = &t
	}
	if len(r.Weather) > 0 && r.Weather[0].ID != nil {
		id := *r.Weather[0].ID
		msg.Conditions = &id
	}
	msg.Sunrise = unixSeconds(r.Sys.Sunrise)
	msg.Sunset = unixSeconds(r.Sys.Sunset)
	return msg
}

func unixSeconds(v *int64) *uint32 {
	if v == nil || *v < 0 || *v > math.MaxUint32 {
		return nil
	}
	u := uint32(*v)
	return &u
}

func checkStatus(code int) error {
	switch code {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: invalid API key", ErrInvalidAPIKey)
	case http.StatusNotFound:
		return ErrLocationNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	}
	if code < 200 || code >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, code)
	}
	return nil
}

func isRetryable(err error) bool {
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	return strings.Contains(err.Error(), "timeout")
}

func (c *OpenWeatherClient) backoff(attempt int) time.Duration {
	delay := float64(c.opts.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(c.opts.MaxDelay) {
		delay = float64(c.opts.MaxDelay)
	}
	jitter := delay * 0.1 * rand.Float64()
	return time.Duration(delay + jitter)
}

type ctxKey string

// CorrelationIDKey is the context key the HTTP middleware stores request ids under.
const CorrelationIDKey ctxKey = "correlation_id"

func correlationID(ctx context.Context) string {
	if v, ok := ctx.Value(CorrelationIDKey).(string); ok {
		return v
	}
	return ""
}

func statusLabel(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "success"
	case code == http.StatusTooManyRequests:
		return "rate_limited"
	case code >= 400 && code < 500:
		return "client_error"
	case code >= 500:
		return "server_error"
	}
	return "error"
}
