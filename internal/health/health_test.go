package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixed(s Status) Check {
	return func(context.Context) CheckResult { return CheckResult{Status: s} }
}

func TestOverallStatus(t *testing.T) {
	tests := []struct {
		name     string
		critical Status
		optional Status
		want     Status
	}{
		{"all healthy", StatusHealthy, StatusHealthy, StatusHealthy},
		{"optional down", StatusHealthy, StatusUnhealthy, StatusDegraded},
		{"critical degraded", StatusDegraded, StatusHealthy, StatusDegraded},
		{"critical down", StatusUnhealthy, StatusHealthy, StatusUnhealthy},
		{"critical unknown", StatusUnknown, StatusDegraded, StatusUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := NewChecker()
			c.Register("critical", true, fixed(tc.critical))
			c.Register("optional", false, fixed(tc.optional))
			c.Check(context.Background())
			assert.Equal(t, tc.want, c.OverallStatus())
		})
	}
}

func TestCheckRecoversPanic(t *testing.T) {
	c := NewChecker()
	c.Register("boom", true, func(context.Context) CheckResult { panic("kaput") })

	r := c.Check(context.Background())["boom"]
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "kaput", r.Error)
}

func TestCheckTimesOut(t *testing.T) {
	c := NewChecker()
	c.Register("slow", false, func(ctx context.Context) CheckResult {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		return Healthy("late", nil)
	})
	c.components["slow"].timeout = 20 * time.Millisecond

	r := c.Check(context.Background())["slow"]
	assert.Equal(t, StatusUnhealthy, r.Status)
	assert.Equal(t, "check timed out", r.Message)
}

func TestReadinessHandler(t *testing.T) {
	c := NewChecker()
	c.Register("bridge", true, BridgeCheck(func() int { return 2 }, 0))

	rec := httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	c.SetReady(true)
	rec = httptest.NewRecorder()
	c.ReadinessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandlerReportsComponents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  hangul:\n    layout: nowhere\n"), 0600))

	c := NewChecker()
	c.SetReady(true)
	c.Register("config", false, ConfigCheck(path))
	c.Register("bridge", true, BridgeCheck(func() int { return 3 }, 3))

	rec := httptest.NewRecorder()
	c.HealthHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, StatusDegraded, resp.Status)
	assert.Equal(t, StatusDegraded, resp.Components["config"].Status)
	assert.Contains(t, resp.Components["config"].Error, "unknown layout")
	assert.Equal(t, StatusDegraded, resp.Components["bridge"].Status)
}

func TestConfigCheckHealthy(t *testing.T) {
	r := ConfigCheck(filepath.Join(t.TempDir(), "missing.yaml"))(context.Background())
	assert.Equal(t, StatusHealthy, r.Status)
	assert.Equal(t, "dubeolsik", r.Details["layout"])
}

func TestFromError(t *testing.T) {
	assert.Equal(t, StatusHealthy, FromError(nil, StatusUnhealthy).Status)
	r := FromError(errors.New("nope"), StatusDegraded)
	assert.Equal(t, StatusDegraded, r.Status)
	assert.Equal(t, "nope", r.Error)
}
