package weather

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func testClient(baseURL string, limiter *rate.Limiter) *Client {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return &Client{
		apiKey:  "test-key",
		baseURL: baseURL,
		http:    http.DefaultClient,
		limiter: limiter,
		log:     log,
	}
}

func TestCurrentReturnsRawProviderJSON(t *testing.T) {
	const payload = `{"location":{"name":"Paris"},"current":{"temp_c":18.0}}`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/current.json", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		assert.Equal(t, "Paris", r.URL.Query().Get("q"))
		io.WriteString(w, payload)
	}))
	defer server.Close()

	c := testClient(server.URL, rate.NewLimiter(rate.Inf, 1))
	assert.Equal(t, payload, c.Current(context.Background(), "Paris"))
}

func TestCurrentFailuresReturnSentinel(t *testing.T) {
	t.Run("provider error status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such location", http.StatusBadRequest)
		}))
		defer server.Close()

		c := testClient(server.URL, rate.NewLimiter(rate.Inf, 1))
		assert.Equal(t, FailureSentinel, c.Current(context.Background(), "Nowhere"))
	})

	t.Run("unreachable host", func(t *testing.T) {
		c := testClient("http://127.0.0.1:1", rate.NewLimiter(rate.Inf, 1))
		assert.Equal(t, FailureSentinel, c.Current(context.Background(), "Paris"))
	})

	t.Run("rate limited", func(t *testing.T) {
		c := testClient("http://example.invalid", rate.NewLimiter(0, 0))
		assert.Equal(t, FailureSentinel, c.Current(context.Background(), "Paris"))
	})
}
