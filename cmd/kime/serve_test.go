package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kimeweb/internal/config"
	"kimeweb/internal/health"
	"kimeweb/internal/logging"
	"kimeweb/internal/wsbridge"
)

func TestServeMuxEndpoints(t *testing.T) {
	log, err := logging.NewWriter(&bytes.Buffer{}, logging.DefaultConfig())
	require.NoError(t, err)

	bridge := wsbridge.NewServer(config.DefaultConfig, log, nil)
	defer bridge.Close()
	checker := health.NewChecker()
	checker.Register("bridge", true, health.BridgeCheck(bridge.ClientCount, 0))
	checker.SetReady(true)

	srv := httptest.NewServer(newServeMux(bridge, checker))
	defer srv.Close()

	for path, want := range map[string]int{
		"/livez":   http.StatusOK,
		"/readyz":  http.StatusOK,
		"/healthz": http.StatusOK,
		"/metrics": http.StatusOK,
		"/ws":      http.StatusBadRequest,
	} {
		t.Run(path, func(t *testing.T) {
			resp, err := http.Get(srv.URL + path)
			require.NoError(t, err)
			resp.Body.Close()
			assert.Equal(t, want, resp.StatusCode)
		})
	}
}
