// Package weather wraps the weatherapi.com current-conditions endpoint for
// use as an LLM tool. The model consumes the raw provider JSON, so no
// response decoding happens here.
package weather

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/doyensec/safeurl"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/vulval/vulval-backend/internal/config"
)

// FailureSentinel is what the model sees when a lookup fails. The tool
// contract never surfaces an error to the model, only this fixed string.
const FailureSentinel = "Failed to fetching weather data!"

const maxResponseBytes = 1 << 20

// Lookup fetches current weather for a free-form location string.
type Lookup interface {
	Current(ctx context.Context, location string) string
}

// Client calls weatherapi.com through an SSRF-hardened HTTP client.
// Lookups are rate limited because the model decides when to call the tool
// and a single conversation can trigger several.
type Client struct {
	apiKey  string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     *logrus.Logger
}

func NewClient(cfg config.WeatherConfig, log *logrus.Logger) *Client {
	safeConfig := safeurl.GetConfigBuilder().
		SetTimeout(10 * time.Second).
		SetAllowedSchemes("http", "https").
		SetAllowedPorts(80, 443).
		Build()

	perMinute := cfg.RatePerMinute
	if perMinute <= 0 {
		perMinute = 30
	}

	return &Client{
		apiKey:  cfg.APIKey,
		baseURL: cfg.BaseURL,
		http:    safeurl.Client(safeConfig).Client,
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), perMinute),
		log:     log,
	}
}

// Current returns the provider's raw JSON for the location, or
// FailureSentinel on any failure.
func (c *Client) Current(ctx context.Context, location string) string {
	if !c.limiter.Allow() {
		c.log.WithField("location", location).Warn("weather lookup rate limit hit")
		return FailureSentinel
	}

	endpoint := fmt.Sprintf("%s/current.json?key=%s&q=%s",
		c.baseURL, url.QueryEscape(c.apiKey), url.QueryEscape(location))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		c.log.WithError(err).Warn("weather request build failed")
		return FailureSentinel
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).Warn("weather lookup failed")
		return FailureSentinel
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		c.log.WithError(err).Warn("weather response read failed")
		return FailureSentinel
	}

	if resp.StatusCode != http.StatusOK {
		c.log.WithField("status", resp.StatusCode).Warn("weather provider returned non-200")
		return FailureSentinel
	}

	return string(body)
}
