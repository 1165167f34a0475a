package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/api"
	persistence "github.com/khanhnv2901/siteaudit/internal/infrastructure/persistence/json"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve saved reports and screenshots over a read-only HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil {
			return fmt.Errorf("application context not initialized")
		}
		addr, _ := cmd.Flags().GetString("addr")
		telemetryLimit, _ := cmd.Flags().GetInt("telemetry-limit")
		shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")
		corsOrigins, _ := cmd.Flags().GetStringSlice("cors-origins")
		rateLimit, _ := cmd.Flags().GetInt("rate-limit")
		rateBurst, _ := cmd.Flags().GetInt("rate-burst")
		trustedProxies, _ := cmd.Flags().GetStringSlice("trusted-proxies")

		logger := zap.NewNop()
		if appCtx.Logger != nil {
			logger = appCtx.Logger.Desugar()
		}

		repo, err := persistence.NewReportRepository(appCtx.ResultsDir)
		if err != nil {
			return err
		}

		server := api.NewServer(api.Config{
			Reports:        repo,
			Telemetry:      &telemetryFile{path: filepath.Join(appCtx.ResultsDir, telemetryFilename)},
			TelemetryLimit: telemetryLimit,
			Logger:         logger,
			CORSOrigins:    corsOrigins,
			TrustedProxies: trustedProxies,
			RateLimit:      rateLimit,
			RateBurst:      rateBurst,
		})
		defer server.Close()

		httpServer := &http.Server{
			Addr:         addr,
			Handler:      server,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		}

		serverErrors := make(chan error, 1)
		go func() {
			fmt.Fprintf(cmd.OutOrStdout(), "%s API server listening on %s (results dir: %s)\n", colorInfo("→"), addr, appCtx.ResultsDir)
			serverErrors <- httpServer.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(shutdown)

		select {
		case err := <-serverErrors:
			if !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
		case sig := <-shutdown:
			fmt.Fprintf(cmd.OutOrStdout(), "\n%s Received signal %v, shutting down...\n", colorInfo("→"), sig)

			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := httpServer.Shutdown(ctx); err != nil {
				if closeErr := httpServer.Close(); closeErr != nil {
					return fmt.Errorf("failed to gracefully shutdown server: %w (close error: %v)", err, closeErr)
				}
				return fmt.Errorf("failed to gracefully shutdown server: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s Server shutdown complete\n", colorSuccess("✓"))
		}

		return nil
	},
}

// telemetryFile reads run metrics back from telemetry.jsonl.
type telemetryFile struct {
	path string
}

// Recent returns up to limit records, oldest first. A missing file yields none.
func (t *telemetryFile) Recent(ctx context.Context, limit int) ([]json.RawMessage, error) {
	f, err := os.Open(t.path)
	if errors.Is(err, fs.ErrNotExist) {
		return []json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open telemetry: %w", err)
	}
	defer f.Close()

	records := []json.RawMessage{}
	if limit <= 0 {
		return records, nil
	}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		line := scanner.Bytes()
		if !json.Valid(line) {
			continue
		}
		records = append(records, json.RawMessage(append([]byte(nil), line...)))
		if len(records) > limit {
			records = records[1:]
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read telemetry: %w", err)
	}
	return records, nil
}

func init() {
	serveCmd.Flags().String("addr", "127.0.0.1:8080", "address for the API server")
	serveCmd.Flags().Int("telemetry-limit", 10, "default number of telemetry records to return")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "graceful shutdown timeout")
	serveCmd.Flags().StringSlice("cors-origins", nil, "allowed CORS origins (empty allows all)")
	serveCmd.Flags().Int("rate-limit", 10, "requests per second per client IP (0 disables)")
	serveCmd.Flags().Int("rate-burst", 20, "burst size for the per-IP rate limiter")
	serveCmd.Flags().StringSlice("trusted-proxies", nil, "proxy IPs whose X-Forwarded-For header is honoured")
}
