package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRecordDecision(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordDecision(true, "")
	m.RecordDecision(false, "invalid_token")
	m.RecordDecision(false, "invalid_token")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.decisions.WithLabelValues("authorized", "none")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.decisions.WithLabelValues("rejected", "invalid_token")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.RecordDecision(true, "")
	m.RecordError("/me", "GET", "UNAUTHORIZED")
	m.RecordRequest("/me", "GET", 200, time.Millisecond)
}

func TestRequestLoggerRecordsRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	app := fiber.New()
	app.Use(RequestID(), RequestLogger(zap.NewNop(), m))
	app.Get("/ping", func(c *fiber.Ctx) error {
		return c.SendString("pong")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/ping", nil))
	require.NoError(t, err)

	assert.Equal(t, 200, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/ping", "200")))
}

func TestRequestIDReusesIncomingHeader(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(RequestIDFromContext(c))
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	resp, err := app.Test(req)
	require.NoError(t, err)

	assert.Equal(t, "abc-123", resp.Header.Get(RequestIDHeader))
}
