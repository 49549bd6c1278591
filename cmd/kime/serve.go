package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"kimeweb/internal/config"
	"kimeweb/internal/health"
	"kimeweb/internal/wsbridge"
)

const shutdownTimeout = 5 * time.Second

type serveOptions struct {
	addr        string
	origins     []string
	watch       bool
	clientLimit int
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve composition sessions over WebSocket",
		Long: `Serve composition sessions over WebSocket at /ws. Each connection gets its
own session built from the current config; with --watch, edits to the
config file apply to new connections.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.addr, "addr", "127.0.0.1:7766", "Listen address")
	cmd.Flags().StringSliceVar(&opts.origins, "allow-origin", nil, "Allowed browser Origin (repeatable)")
	cmd.Flags().BoolVar(&opts.watch, "watch", true, "Reload the config file when it changes")
	cmd.Flags().IntVar(&opts.clientLimit, "client-limit", 0, "Report degraded health at this many connections (0 disables)")
	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, root *rootOptions, opts *serveOptions) error {
	log, err := root.logger(cmd)
	if err != nil {
		return err
	}
	defer log.Close()

	loader := config.NewLoader(root.resolvedConfigPath())
	defer loader.Close()
	if _, err := loader.Load(); err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	bridge := wsbridge.NewServer(loader.Config, log, originMatcher(opts.origins))

	if opts.watch {
		if err := loader.Watch(); err != nil {
			return err
		}
		loader.OnChange(func(cfg *config.Config) {
			bridge.Metrics().ConfigReloads.Inc()
			log.Info("config reloaded", "path", loader.Path(), "layout", cfg.Engine.Hangul.Layout)
		})
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-loader.Errors():
					log.Warn("config reload failed", "error", err)
				}
			}
		}()
	}

	checker := health.NewChecker()
	checker.Register("config", false, health.ConfigCheck(loader.Path()))
	checker.Register("bridge", true, health.BridgeCheck(bridge.ClientCount, opts.clientLimit))

	mux := newServeMux(bridge, checker)

	srv := &http.Server{
		Addr:              opts.addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", opts.addr, "config", loader.Path())
		errCh <- srv.ListenAndServe()
	}()
	checker.SetReady(true)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	checker.SetReady(false)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	bridge.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newServeMux routes the bridge, metrics and health endpoints.
func newServeMux(bridge *wsbridge.Server, checker *health.Checker) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", bridge.HandleWebSocket)
	mux.Handle("/metrics", bridge.Registry().HTTPHandler())
	mux.Handle("/livez", checker.LivenessHandler())
	mux.Handle("/readyz", checker.ReadinessHandler())
	mux.Handle("/healthz", checker.HealthHandler())
	return mux
}

// originMatcher accepts the listed origins, or any origin when the list
// contains "*".
func originMatcher(origins []string) func(string) bool {
	if len(origins) == 0 {
		return nil
	}
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.TrimSuffix(o, "/")] = true
	}
	return func(origin string) bool {
		return allowed["*"] || allowed[strings.TrimSuffix(origin, "/")]
	}
}
