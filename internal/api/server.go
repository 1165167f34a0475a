// Package api serves saved audit reports over a read-only HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/khanhnv2901/siteaudit/internal/api/middleware"
	"github.com/khanhnv2901/siteaudit/internal/domain/report"
	"github.com/khanhnv2901/siteaudit/internal/infrastructure/render"
	sharedErrors "github.com/khanhnv2901/siteaudit/internal/shared/errors"
)

const (
	defaultTelemetryLimit = 10
	maxTelemetryLimit     = 1000
)

// ReportSummary is one row of the report listing.
type ReportSummary struct {
	Label           string    `json:"label"`
	URL             string    `json:"url"`
	Status          int       `json:"status"`
	Timestamp       time.Time `json:"timestamp"`
	Error           string    `json:"error,omitempty"`
	BrokenLinks     int       `json:"brokenLinks"`
	DisabledButtons int       `json:"disabledButtons"`
	DeviceErrors    int       `json:"deviceErrors"`
	MissingHeaders  int       `json:"missingHeaders"`
	Findings        int       `json:"findings"`
}

// Summarize condenses a report into its listing row.
func Summarize(r *report.Report) ReportSummary {
	s := ReportSummary{
		Label:           r.Label,
		URL:             r.URL,
		Status:          r.Status,
		Timestamp:       r.Timestamp,
		Error:           r.Error,
		BrokenLinks:     len(r.Functionality.BrokenLinks),
		DisabledButtons: len(r.Functionality.DisabledButtons),
		Findings: len(r.SecurityAudit.ExposedTechnologies) +
			len(r.SecurityAudit.InsecureCookies) +
			len(r.SecurityAudit.OpenAdminPaths),
	}
	for _, e := range r.Responsiveness {
		if e.Error != "" {
			s.DeviceErrors++
		}
	}
	for _, h := range r.SecurityAudit.Headers {
		if !h.Present {
			s.MissingHeaders++
		}
	}
	return s
}

// ReportStore is the saved-report storage the server reads from.
type ReportStore interface {
	List(ctx context.Context) ([]string, error)
	Load(ctx context.Context, label string) (*report.Report, error)
	ScreenshotFile(label, name string) (string, error)
}

// TelemetryService returns the most recent run metrics, newest last.
type TelemetryService interface {
	Recent(ctx context.Context, limit int) ([]json.RawMessage, error)
}

type Config struct {
	Reports        ReportStore
	Telemetry      TelemetryService
	TelemetryLimit int
	Logger         *zap.Logger
	CORSOrigins    []string // Allowed CORS origins (empty = allow all)
	RateLimit      int      // Requests per second per IP (0 = disabled)
	RateBurst      int      // Burst size for rate limiter
	TrustedProxies []string // Peers whose X-Forwarded-For is honoured
}

type Server struct {
	cfg      Config
	mux      *http.ServeMux
	handler  http.Handler
	limiters *rateLimiterMap
}

func NewServer(cfg Config) *Server {
	srv := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		limiters: newRateLimiterMap(),
	}
	srv.routes()
	// RequestID -> Logging -> RateLimit -> CORS -> mux
	srv.handler = middleware.RequestID(srv.withLogging(srv.withRateLimit(srv.withCORS(srv.mux))))
	return srv
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Close stops the limiter cleanup goroutine.
func (s *Server) Close() {
	s.limiters.stop()
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /api/v1/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/v1/reports", s.handleReports)
	s.mux.HandleFunc("GET /api/v1/reports/{label}", s.handleReport)
	s.mux.HandleFunc("GET /api/v1/reports/{label}/markdown", s.handleMarkdown)
	s.mux.HandleFunc("GET /api/v1/reports/{label}/screenshots/{file}", s.handleScreenshot)
	s.mux.HandleFunc("GET /api/v1/telemetry", s.handleTelemetry)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Reports != nil {
		if _, err := s.cfg.Reports.List(r.Context()); err != nil {
			s.writeError(w, r, http.StatusServiceUnavailable, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	labels, err := s.cfg.Reports.List(r.Context())
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}

	summaries := make([]ReportSummary, 0, len(labels))
	for _, label := range labels {
		rep, err := s.cfg.Reports.Load(r.Context(), label)
		if err != nil {
			s.requestLogger(r).Warn("skipping unreadable report", zap.String("label", label), zap.Error(err))
			continue
		}
		summaries = append(summaries, Summarize(rep))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) handleMarkdown(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.loadReport(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if err := render.WriteMarkdown(w, rep); err != nil {
		s.requestLogger(r).Error("failed to write markdown", zap.Error(err))
	}
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	path, err := s.cfg.Reports.ScreenshotFile(r.PathValue("label"), r.PathValue("file"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	http.ServeFile(w, r, path)
}

func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Telemetry == nil {
		s.writeError(w, r, http.StatusNotFound, errors.New("telemetry not available"))
		return
	}
	limit := s.cfg.TelemetryLimit
	if limit <= 0 {
		limit = defaultTelemetryLimit
	}
	if q := r.URL.Query().Get("limit"); q != "" {
		if parsed, err := strconv.Atoi(q); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > maxTelemetryLimit {
		limit = maxTelemetryLimit
	}
	records, err := s.cfg.Telemetry.Recent(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) loadReport(w http.ResponseWriter, r *http.Request) (*report.Report, bool) {
	rep, err := s.cfg.Reports.Load(r.Context(), r.PathValue("label"))
	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return nil, false
	}
	return rep, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, sharedErrors.ErrReportNotFound):
		return http.StatusNotFound
	case errors.Is(err, sharedErrors.ErrInvalidLabel), errors.Is(err, sharedErrors.ErrInvalidArtifact):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.RateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		clientIP := clientAddr(r, s.cfg.TrustedProxies)
		limiter := s.limiters.getLimiter(clientIP, s.cfg.RateLimit, s.cfg.RateBurst)
		if !limiter.Allow() {
			s.requestLogger(r).Warn("rate_limit_exceeded", zap.String("client_ip", clientIP))
			s.writeError(w, r, http.StatusTooManyRequests, errors.New("rate limit exceeded"))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// clientAddr returns the peer host. The first X-Forwarded-For hop is used only
// when the peer is one of the trusted proxies.
func clientAddr(r *http.Request, trusted []string) string {
	peer := hostOnly(r.RemoteAddr)
	forwarded := r.Header.Get("X-Forwarded-For")
	if forwarded == "" || !slices.Contains(trusted, peer) {
		return peer
	}
	first, _, _ := strings.Cut(forwarded, ",")
	if first = strings.TrimSpace(first); first == "" {
		return peer
	}
	return hostOnly(first)
}

func hostOnly(addr string) string {
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowOrigin := "*"
		if len(s.cfg.CORSOrigins) > 0 {
			allowOrigin = ""
			for _, allowedOrigin := range s.cfg.CORSOrigins {
				if allowedOrigin == origin {
					allowOrigin = origin
					break
				}
			}
		}

		if allowOrigin != "" {
			w.Header().Set("Access-Control-Allow-Origin", allowOrigin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "3600")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(lrw, r)

		if s.cfg.Logger != nil {
			s.cfg.Logger.Info("http_request",
				zap.String("request_id", middleware.GetRequestID(r.Context())),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Int("status", lrw.statusCode),
				zap.Duration("duration", time.Since(start)),
				zap.Int64("bytes", lrw.bytesWritten),
			)
		}
	})
}

// loggingResponseWriter wraps http.ResponseWriter to capture status code and bytes written
type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int64
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lrw.ResponseWriter.Write(b)
	lrw.bytesWritten += int64(n)
	return n, err
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	msg := err.Error()

	// 5xx details stay in the server log.
	if status >= 500 {
		s.requestLogger(r).Error("internal_server_error",
			zap.Error(err),
			zap.Int("status", status),
		)
		msg = "internal server error"
	}

	writeJSON(w, status, map[string]string{"error": msg})
}

// requestLogger creates a logger with request context (request ID, method, path)
func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	if s.cfg.Logger == nil {
		return zap.NewNop()
	}
	return s.cfg.Logger.With(
		zap.String("request_id", middleware.GetRequestID(r.Context())),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
}

// rateLimiterMap manages per-IP rate limiters with automatic cleanup
type rateLimiterMap struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiter
	done     chan struct{}
	stopOnce sync.Once
}

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newRateLimiterMap() *rateLimiterMap {
	m := &rateLimiterMap{
		limiters: make(map[string]*ipLimiter),
		done:     make(chan struct{}),
	}
	go m.cleanupLoop()
	return m
}

func (m *rateLimiterMap) getLimiter(ip string, rps, burst int) *rate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists := m.limiters[ip]
	if !exists {
		if burst <= 0 {
			burst = rps
		}
		limiter = &ipLimiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
		m.limiters[ip] = limiter
	}
	limiter.lastSeen = time.Now()
	return limiter.limiter
}

func (m *rateLimiterMap) stop() {
	m.stopOnce.Do(func() { close(m.done) })
}

// cleanupLoop removes limiters that haven't been used in 5 minutes
func (m *rateLimiterMap) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.mu.Lock()
			for ip, limiter := range m.limiters {
				if time.Since(limiter.lastSeen) > 5*time.Minute {
					delete(m.limiters, ip)
				}
			}
			m.mu.Unlock()
		}
	}
}
