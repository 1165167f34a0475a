package application

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	auditapp "github.com/khanhnv2901/siteaudit/internal/application/audit"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/checker"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/persistence/json"
)

// Settings carries the tunables a run reads from configuration.
type Settings struct {
	ResultsDir    string
	PageLoad      time.Duration
	LinkTimeout   time.Duration
	AdminTimeout  time.Duration
	Delay         time.Duration
	LinkRateLimit float64
	LinkRateBurst int

	// OnLinkProbe is notified after every external link probe.
	OnLinkProbe checker.ProbeFunc
	// OnLinkTotal receives the external link count once the page is parsed.
	OnLinkTotal func(total int)
}

// Container holds the repository and the orchestrator wired from Settings.
// This is a simple dependency injection container
type Container struct {
	ReportRepo   *json.ReportRepository
	Orchestrator *auditapp.Orchestrator
}

// NewContainer creates the results directory and wires every checker.
func NewContainer(settings Settings, logger *zap.SugaredLogger) (*Container, error) {
	reportRepo, err := json.NewReportRepository(settings.ResultsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create report repository: %w", err)
	}

	checkers := auditapp.DefaultCheckers(logger)
	if settings.LinkTimeout > 0 {
		checkers.Links.Timeout = settings.LinkTimeout
	}
	if settings.LinkRateLimit > 0 {
		burst := settings.LinkRateBurst
		if burst <= 0 {
			burst = 1
		}
		checkers.Links.Limiter = rate.NewLimiter(rate.Limit(settings.LinkRateLimit), burst)
	}
	checkers.Links.OnProbe = settings.OnLinkProbe
	checkers.Links.OnTotal = settings.OnLinkTotal
	if settings.PageLoad > 0 {
		checkers.Responsiveness.NavTimeout = settings.PageLoad
		checkers.Security.NavTimeout = settings.PageLoad
	}
	if settings.AdminTimeout > 0 {
		checkers.Security.AdminTimeout = settings.AdminTimeout
	}

	orchestrator := auditapp.NewOrchestrator(checkers, reportRepo, logger, auditapp.Options{
		NavTimeout: settings.PageLoad,
		Delay:      settings.Delay,
	})

	return &Container{
		ReportRepo:   reportRepo,
		Orchestrator: orchestrator,
	}, nil
}
