package audit

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/browser"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/checker"
	consts "github.com/khanhnv2901/siteaudit/internal/shared/constants"
)

// skipReason is recorded on every section the checks never reached.
const skipReason = "page did not load"

// Request identifies one audit run.
type Request struct {
	URL    string
	Domain string
	Label  string
}

// Session is the browser session a run drives and finally releases.
type Session interface {
	Page() browser.Page
	Close()
}

// Repository persists finished reports.
type Repository interface {
	Save(ctx context.Context, r *report.Report) (string, error)
}

// Checkers groups the four page checks.
type Checkers struct {
	Links          *checker.LinkProber
	Buttons        *checker.ButtonScanner
	Responsiveness *checker.ResponsivenessChecker
	Security       *checker.SecurityAuditor
}

// DefaultCheckers builds every checker with its default settings.
func DefaultCheckers(logger *zap.SugaredLogger) Checkers {
	return Checkers{
		Links:          checker.NewLinkProber(logger),
		Buttons:        checker.NewButtonScanner(logger),
		Responsiveness: checker.NewResponsivenessChecker(logger),
		Security:       checker.NewSecurityAuditor(logger),
	}
}

// Options tunes the orchestrator.
type Options struct {
	// NavTimeout bounds the main page load.
	NavTimeout time.Duration
	// Delay is waited before the browser session is released.
	Delay time.Duration
}

// Orchestrator runs one audit: navigate, check, report, clean up.
type Orchestrator struct {
	checkers Checkers
	repo     Repository
	logger   *zap.SugaredLogger
	opts     Options

	sleep func(ctx context.Context, d time.Duration)
	now   func() time.Time
}

// NewOrchestrator creates an orchestrator. A zero NavTimeout means the default
// page load timeout and a negative Delay means the default run delay.
func NewOrchestrator(checkers Checkers, repo Repository, logger *zap.SugaredLogger, opts Options) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	if opts.NavTimeout <= 0 {
		opts.NavTimeout = consts.PageLoadTimeout
	}
	if opts.Delay < 0 {
		opts.Delay = consts.DefaultRunDelay
	}
	return &Orchestrator{
		checkers: checkers,
		repo:     repo,
		logger:   logger,
		opts:     opts,
		sleep:    sleepContext,
		now:      time.Now,
	}
}

// Run audits req.URL using session and always returns a complete report. The
// returned error only reports a persistence failure; the report is still valid.
// The session is closed before Run returns.
func (o *Orchestrator) Run(ctx context.Context, session Session, req Request, shots checker.ScreenshotWriter) (*report.Report, error) {
	rep := report.New(req.URL, req.Domain, req.Label)
	page := session.Page()

	if o.navigate(ctx, page, rep) {
		o.runChecks(ctx, page, req, shots, rep)
	} else {
		o.skipChecks(rep)
	}

	if err := ctx.Err(); err != nil && rep.Error == "" {
		rep.Error = "run interrupted: " + err.Error()
	}

	_, saveErr := o.persist(ctx, rep)
	o.cleanup(ctx, session)
	return rep, saveErr
}

// navigate performs the main page load and reports whether checks can run.
func (o *Orchestrator) navigate(ctx context.Context, page browser.Page, rep *report.Report) bool {
	o.logger.Infow("Navigating", "url", rep.URL, "label", rep.Label)

	navCtx, cancel := context.WithTimeout(ctx, o.opts.NavTimeout)
	defer cancel()

	start := o.now()
	resp, err := page.Navigate(navCtx, rep.URL, browser.WaitNetworkIdle)
	rep.SetLoadDuration(o.now().Sub(start))
	if resp != nil {
		rep.Status = resp.Status
	}
	if err != nil {
		o.logger.Errorw("Navigation failed", "url", rep.URL, "error", err)
		rep.Error = err.Error()
		return false
	}

	title, err := page.Title(navCtx)
	if err != nil {
		o.logger.Warnw("Could not read page title", "url", rep.URL, "error", err)
	}
	rep.Title = title
	o.logger.Infow("Page loaded", "status", rep.Status, "title", rep.Title, "load_time", rep.LoadTime)
	return true
}

// runChecks scans links and buttons side by side against the untouched page,
// then renders each device profile, then runs the security audit.
func (o *Orchestrator) runChecks(ctx context.Context, page browser.Page, req Request, shots checker.ScreenshotWriter, rep *report.Report) {
	o.runFunctionality(ctx, page, rep)

	o.logger.Infow("Running check", "check", o.checkers.Responsiveness.Name(), "devices", len(checker.Devices))
	rep.Responsiveness = o.checkers.Responsiveness.Check(ctx, page, req.URL, shots)

	o.logger.Infow("Running check", "check", o.checkers.Security.Name(), "url", req.URL)
	rep.SecurityAudit = o.checkers.Security.Audit(ctx, page, req.URL)
}

func (o *Orchestrator) runFunctionality(ctx context.Context, page browser.Page, rep *report.Report) {
	o.logger.Infow("Running checks", "checks", []string{o.checkers.Links.Name(), o.checkers.Buttons.Name()})

	var links []report.BrokenLink
	var buttons []report.DisabledButton

	var g errgroup.Group
	g.Go(func() error {
		links = o.checkers.Links.Check(ctx, page)
		return nil
	})
	g.Go(func() error {
		buttons = o.checkers.Buttons.Check(ctx, page)
		return nil
	})
	_ = g.Wait()

	rep.Functionality.BrokenLinks = links
	rep.Functionality.DisabledButtons = buttons
	o.logger.Infow("Functionality checked", "broken_links", len(links), "disabled_buttons", len(buttons))
}

func (o *Orchestrator) skipChecks(rep *report.Report) {
	rep.Functionality.Error = "skipped: " + skipReason
	rep.Responsiveness = checker.SkippedResponsiveness(skipReason, o.now().UTC())
	rep.SecurityAudit = checker.SkippedSecurity(rep.URL, skipReason)
}

// persist saves the report even when ctx was cancelled by an interrupt.
func (o *Orchestrator) persist(ctx context.Context, rep *report.Report) (string, error) {
	if o.repo == nil {
		return "", nil
	}
	path, err := o.repo.Save(context.WithoutCancel(ctx), rep)
	if err != nil {
		o.logger.Errorw("Failed to save report", "label", rep.Label, "error", err)
		return "", err
	}
	o.logger.Infow("Report saved", "path", path)
	return path, nil
}

// cleanup waits the configured delay, cut short by cancellation, then closes the session.
func (o *Orchestrator) cleanup(ctx context.Context, session Session) {
	if o.opts.Delay > 0 {
		o.logger.Debugw("Waiting before releasing browser", "delay", o.opts.Delay)
		o.sleep(ctx, o.opts.Delay)
	}
	session.Close()
}

func sleepContext(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
