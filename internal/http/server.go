package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	applog "journal/internal/log"
	"journal/internal/middleware/ratelimit"
	"journal/internal/middleware/security"
	"journal/internal/middleware/trace"
	"journal/internal/services"
	"journal/internal/session"
	appweb "journal/web"
)

// Options tunes a Server. Zero values fall back to defaults.
type Options struct {
	Currency           string
	RateLimitPerMinute int
	SessionTTL         time.Duration
	Logger             *applog.Logger
	Now                func() time.Time
}

type Server struct {
	http.Server
	templates  *template.Template
	entries    *services.EntryService
	sessions   *session.Store
	limiter    *ratelimit.Limiter
	clientIPs  *security.ClientIPResolver
	events     *applog.StructuredLogger
	currency   string
	sessionTTL time.Duration
	now        func() time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, entries *services.EntryService, sessions *session.Store, opts Options) (*Server, error) {
	if opts.Currency == "" {
		opts.Currency = "CFA"
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 12 * time.Hour
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	s := &Server{
		templates:  t,
		entries:    entries,
		sessions:   sessions,
		limiter:    ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		clientIPs:  security.NewClientIPResolver(),
		events:     applog.NewStructuredLogger(opts.Logger.WithComponent(applog.ComponentJournal)),
		currency:   opts.Currency,
		sessionTTL: opts.SessionTTL,
		now:        opts.Now,
	}

	mux := http.NewServeMux()

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.Handle("POST /entries", s.limiter.Middleware(s.clientIPs.ClientIP, s.handleRateLimited)(
		http.HandlerFunc(s.handleSubmit)))
	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(opts.Logger, s.clientIPs.ClientIP)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           tracer.Middleware(headers.Middleware(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Shutdown stops background cleanup and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		s.sessions.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
