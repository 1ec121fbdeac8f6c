package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrecon/openrecon/config"
	"github.com/openrecon/openrecon/probe"
	"github.com/openrecon/openrecon/scanner"
)

// stubProbe records the target it was invoked with.
type stubProbe struct {
	name    string
	lastRun string
	payload any
	err     error
}

func (p *stubProbe) Name() string { return p.name }

func (p *stubProbe) Run(_ context.Context, target string) (any, error) {
	p.lastRun = target
	return p.payload, p.err
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Server.RatePerMinute = 60
	cfg.Server.RateBurst = 100
	cfg.Server.AllowedOrigins = "*"
	return cfg
}

func newTestEngine(t *testing.T, probes ...probe.Probe) *gin.Engine {
	t.Helper()
	if len(probes) == 0 {
		probes = []probe.Probe{
			&stubProbe{name: "dns", payload: map[string]string{"ok": "true"}},
		}
	}
	sc := scanner.New(probes, time.Second)
	return NewEngine(testConfig(), sc, "openrecon", "0.0.1-test")
}

func doRequest(t *testing.T, engine *gin.Engine, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), "response must be JSON: %s", rec.Body.String())
	return rec, body
}

func TestIndex(t *testing.T) {
	engine := newTestEngine(t)
	rec, body := doRequest(t, engine, "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "openrecon", body["name"])
	assert.Equal(t, "0.0.1-test", body["version"])
	assert.Contains(t, body["probes"], "dns")
}

func TestHealth(t *testing.T) {
	engine := newTestEngine(t)
	rec, body := doRequest(t, engine, "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestScanFull(t *testing.T) {
	engine := newTestEngine(t,
		&stubProbe{name: "dns", payload: map[string]string{"a": "1"}},
		&stubProbe{name: "broken", err: assert.AnError},
	)

	rec, body := doRequest(t, engine, "/scan/full?target=example.com")

	require.Equal(t, http.StatusOK, rec.Code)

	scan, ok := body["scan"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "example.com", scan["target"])
	assert.NotEmpty(t, scan["scan_id"])

	results, ok := scan["results"].(map[string]any)
	require.True(t, ok)
	require.Len(t, results, 2, "failed probes still appear in the aggregate")

	broken := results["broken"].(map[string]any)
	assert.Equal(t, "failed", broken["status"])

	assert.Contains(t, body, "risk")
	assert.Contains(t, body, "attack_surface")
}

func TestScanFull_InvalidTarget(t *testing.T) {
	engine := newTestEngine(t)

	tests := []struct {
		name   string
		target string
	}{
		{"empty", ""},
		{"url", "https%3A%2F%2Fexample.com"},
		{"private ip", "192.168.1.1"},
		{"internal name", "router.local"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := doRequest(t, engine, "/scan/full?target="+tt.target)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			errObj, ok := body["error"].(map[string]any)
			require.True(t, ok, "error envelope expected")
			assert.Equal(t, "INVALID_TARGET", errObj["code"])
			assert.NotEmpty(t, errObj["message"])
		})
	}
}

func TestScanFull_EmailScansDomainPart(t *testing.T) {
	p := &stubProbe{name: "dns", payload: "x"}
	engine := newTestEngine(t, p)

	rec, _ := doRequest(t, engine, "/scan/full?target=user%40example.com")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "example.com", p.lastRun)
}

func TestScanProbe(t *testing.T) {
	engine := newTestEngine(t, &stubProbe{name: "dns", payload: map[string]string{"a": "1"}})

	rec, body := doRequest(t, engine, "/scan/dns?target=example.com")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "example.com", body["target"])
	assert.Equal(t, "dns", body["probe"])

	result := body["result"].(map[string]any)
	assert.Equal(t, "ok", result["status"])
}

func TestScanProbe_Unknown(t *testing.T) {
	engine := newTestEngine(t)

	rec, body := doRequest(t, engine, "/scan/nonexistent?target=example.com")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "UNKNOWN_PROBE", errObj["code"])
}

func TestScanProbe_InvalidTargetBeforeDispatch(t *testing.T) {
	p := &stubProbe{name: "dns", payload: "x"}
	engine := newTestEngine(t, p)

	rec, _ := doRequest(t, engine, "/scan/dns?target=*.example.com")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, p.lastRun, "invalid targets never reach a probe")
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateBurst = 2
	cfg.Server.RatePerMinute = 1
	sc := scanner.New([]probe.Probe{&stubProbe{name: "dns", payload: "x"}}, time.Second)
	engine := NewEngine(cfg, sc, "openrecon", "test")

	for i := 0; i < 2; i++ {
		rec, _ := doRequest(t, engine, "/scan/dns?target=example.com")
		require.Equal(t, http.StatusOK, rec.Code, "request %d within burst", i)
	}

	rec, body := doRequest(t, engine, "/scan/dns?target=example.com")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	errObj := body["error"].(map[string]any)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errObj["code"])
}

func TestRateLimit_DoesNotApplyToHealth(t *testing.T) {
	cfg := testConfig()
	cfg.Server.RateBurst = 1
	cfg.Server.RatePerMinute = 1
	sc := scanner.New([]probe.Probe{&stubProbe{name: "dns", payload: "x"}}, time.Second)
	engine := NewEngine(cfg, sc, "openrecon", "test")

	_, _ = doRequest(t, engine, "/scan/dns?target=example.com")
	for i := 0; i < 5; i++ {
		rec, _ := doRequest(t, engine, "/health")
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestRateLimiter_Allow(t *testing.T) {
	rl := NewRateLimiter(60, 2)

	assert.True(t, rl.Allow("10.1.1.1"))
	assert.True(t, rl.Allow("10.1.1.1"))
	assert.False(t, rl.Allow("10.1.1.1"), "burst exhausted")

	// A different client has its own bucket.
	assert.True(t, rl.Allow("10.1.1.2"))
}
