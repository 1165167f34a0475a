package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khanhnv2901/siteaudit/internal/application"
	auditapp "github.com/khanhnv2901/siteaudit/internal/application/audit"
	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/render"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
)

// extraAllowedDomains is appended to allowed_domains from the config file.
var extraAllowedDomains []string

// newBrowserSession starts the headless browser. Tests swap it for a fake.
var newBrowserSession = func(ctx context.Context, opts browser.Options, logger *zap.SugaredLogger) (auditapp.Session, error) {
	session, err := browser.NewSession(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	return session, nil
}

var runCmd = &cobra.Command{
	Use:   "run <url> <label>",
	Short: "Audit one page and write <results-dir>/<label>/report.json",
	Long: `Loads the URL in a headless browser, probes its external links, lists disabled
buttons, renders it on six device profiles and runs a passive security audit.

The URL's domain (without a leading "www.") must be listed in allowed_domains
or passed with --allow-domain.`,
	Example: `  siteaudit run https://example.com homepage
  siteaudit run https://www.example.com/pricing pricing-v2 --delay-ms 0 --progress`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			return fmt.Errorf("%w: expected <url> <label>, got %d argument(s)", sharedErrors.ErrMissingArgument, len(args))
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		appCtx := getAppContext(cmd)
		if appCtx == nil {
			return fmt.Errorf("application context not initialized")
		}
		cfg := appCtx.Config
		if cfg == nil {
			cfg = cliConfig
		}
		logger := appCtx.Logger
		if logger == nil {
			logger = zap.NewNop().Sugar()
		}

		target, label := args[0], args[1]
		if err := validateLabel(label); err != nil {
			return err
		}
		domain, err := checkDomainAllowed(target, cfg.AllowedDomains)
		if err != nil {
			return err
		}

		settings := application.Settings{
			ResultsDir:    appCtx.ResultsDir,
			PageLoad:      time.Duration(cfg.Timeouts.PageLoadSecs) * time.Second,
			LinkTimeout:   time.Duration(cfg.Timeouts.LinkSecs) * time.Second,
			AdminTimeout:  time.Duration(cfg.Timeouts.AdminSecs) * time.Second,
			Delay:         time.Duration(cfg.DelayMs) * time.Millisecond,
			LinkRateLimit: cfg.Links.RateLimit,
			LinkRateBurst: cfg.Links.Burst,
		}

		var progress *progressPrinter
		if progressEnabled(cfg.Progress) {
			progress = newProgressPrinter(os.Stdout, 0, "links")
			settings.OnLinkProbe = progress.Observe
			settings.OnLinkTotal = progress.SetTotal
		}

		container, err := application.NewContainer(settings, logger)
		if err != nil {
			return err
		}
		runDir, err := container.ReportRepo.PrepareRun(label)
		if err != nil {
			return fmt.Errorf("failed to prepare run directory: %w", err)
		}

		parent := cmd.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
		defer stop()

		session, err := newBrowserSession(ctx, browser.Options{
			Headless: cfg.Browser.Headless,
			ExecPath: cfg.Browser.ExecPath,
		}, logger)
		if err != nil {
			return err
		}

		if progress != nil {
			progress.Start()
		}
		started := time.Now()
		rep, saveErr := container.Orchestrator.Run(ctx, session, auditapp.Request{
			URL:    target,
			Domain: domain,
			Label:  label,
		}, runDir)
		if progress != nil {
			progress.Stop()
		}

		out := cmd.OutOrStdout()
		if err := render.RenderText(out, rep); err != nil {
			logger.Warnw("Failed to print summary", "error", err)
		}

		if saveErr == nil {
			writeMarkdownReport(container, rep, logger)
		}

		status := runStatus(rep, saveErr)
		if cfg.Telemetry {
			record := newTelemetryRecord("run", status, rep, time.Since(started))
			if err := recordTelemetry(appCtx.ResultsDir, record); err != nil {
				logger.Warnw("Failed to record telemetry", "error", err)
			}
		}

		fmt.Fprintf(out, "\n%s %s\n", colorInfo("Run status:"), formatStatusWithColor(status))
		return nil
	},
}

func writeMarkdownReport(container *application.Container, rep *report.Report, logger *zap.SugaredLogger) {
	var buf bytes.Buffer
	if err := render.WriteMarkdown(&buf, rep); err != nil {
		logger.Warnw("Failed to render markdown report", "label", rep.Label, "error", err)
		return
	}
	path, err := container.ReportRepo.WriteArtifact(rep.Label, consts.MarkdownFilename, buf.Bytes())
	if err != nil {
		logger.Warnw("Failed to write markdown report", "label", rep.Label, "error", err)
		return
	}
	logger.Debugw("Markdown report written", "path", path)
}

// runStatus summarises a finished run for the final console line.
func runStatus(rep *report.Report, saveErr error) string {
	switch {
	case rep.Error != "":
		return "failed"
	case saveErr != nil:
		return "partial"
	default:
		return "complete"
	}
}

func init() {
	flags := runCmd.Flags()
	flags.IntVar(&cliConfig.DelayMs, "delay-ms", defaultDelayMillis, "wait before releasing the browser, in milliseconds")
	flags.IntVar(&cliConfig.Timeouts.PageLoadSecs, "page-timeout", defaultPageLoadSeconds, "page load timeout in seconds")
	flags.IntVar(&cliConfig.Timeouts.LinkSecs, "link-timeout", defaultLinkSeconds, "external link probe timeout in seconds")
	flags.IntVar(&cliConfig.Timeouts.AdminSecs, "admin-timeout", defaultAdminSeconds, "admin path probe timeout in seconds")
	flags.Float64Var(&cliConfig.Links.RateLimit, "rate-limit", defaultLinkRatePerSecond, "max external link probes per second (0 = unlimited)")
	flags.BoolVar(&cliConfig.Browser.Headless, "headless", defaultBrowserHeadless, "run the browser without a window")
	flags.StringVar(&cliConfig.Browser.ExecPath, "chrome-path", "", "path to the Chrome/Chromium binary")
	flags.BoolVar(&cliConfig.Telemetry, "telemetry", false, "append run metrics to <results-dir>/telemetry.jsonl")
	flags.BoolVar(&cliConfig.Progress, "progress", false, "show link probe progress when stdout is a terminal")
	flags.StringSliceVar(&extraAllowedDomains, "allow-domain", nil, "additional allowed domain (repeatable)")
}
