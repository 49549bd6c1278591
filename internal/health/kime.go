package health

import (
	"context"
	"fmt"

	"kimeweb/internal/config"
	"kimeweb/internal/hangul"
)

// ConfigCheck re-reads the config file at path and builds its engine. A
// broken file degrades the host: running sessions keep the last good
// config.
func ConfigCheck(path string) Check {
	return func(context.Context) CheckResult {
		cfg, err := config.Load(path)
		if err == nil {
			_, err = hangul.New(cfg)
		}
		if err != nil {
			r := FromError(err, StatusDegraded)
			r.Message = "config file is invalid"
			return r
		}
		return Healthy("config file is valid", map[string]any{
			"path":     path,
			"category": cfg.Engine.DefaultCategory,
			"layout":   cfg.Engine.Hangul.Layout,
		})
	}
}

// BridgeCheck reports the number of live connections. limit of zero means
// unlimited; at or above it the bridge is degraded.
func BridgeCheck(clients func() int, limit int) Check {
	return func(context.Context) CheckResult {
		n := clients()
		details := map[string]any{"clients": n}
		if limit > 0 && n >= limit {
			return CheckResult{
				Status:  StatusDegraded,
				Message: fmt.Sprintf("%d connections, limit %d", n, limit),
				Details: details,
			}
		}
		return Healthy("accepting connections", details)
	}
}
