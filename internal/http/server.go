package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"mfdash/internal/cache"
	"mfdash/internal/chart"
	"mfdash/internal/export"
	"mfdash/internal/log"
	"mfdash/internal/middleware/ratelimit"
	"mfdash/internal/middleware/security"
	"mfdash/internal/middleware/trace"
	"mfdash/internal/services"
	"mfdash/internal/sheets"
	appweb "mfdash/web"
)

// Options configures the dashboard server.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	RateLimitRPM   int
	// TrustedProxies are CIDRs allowed to set forwarding headers.
	TrustedProxies []string
	Export         export.Options
	// Cache sweeps the dashboard cache when set.
	Cache *cache.Manager
}

type Server struct {
	http.Server
	templates *template.Template
	datasets  *services.DatasetService
	sources   []sheets.Source
	opts      Options
	logger    *log.Logger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	tracer      *trace.Middleware

	// Built dashboards keyed by session and selection.
	dashCache *cache.LRUCache[chart.Dashboard]

	mu             sync.RWMutex
	defaultSession string
	started        time.Time
	shutdownOnce   sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server. Sources feed the default session through Reload.
func NewServer(opts Options, datasets *services.DatasetService, logger *log.Logger, sources ...sheets.Source) *Server {
	if logger == nil {
		logger = log.Discard()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 32 << 20
	}
	s := &Server{
		datasets:    datasets,
		sources:     sources,
		opts:        opts,
		logger:      logger.WithComponent(log.ComponentHTTP),
		detector:    security.NewDetector(logger),
		rateLimiter: ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		dashCache:   cache.NewLRUCache[chart.Dashboard](64, 10*time.Minute),
		started:     time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	if opts.Cache != nil {
		opts.Cache.Register(s.dashCache)
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

var templateFuncs = template.FuncMap{
	"yen":     formatYen,
	"percent": formatPercent,
	"join":    strings.Join,
	"contains": func(list []string, v string) bool {
		for _, x := range list {
			if x == v {
				return true
			}
		}
		return false
	},
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.tracer.Middleware)
	r.Use(s.detector.Middleware)
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.StaticAssetMiddleware(3600)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Group(func(r chi.Router) {
		r.Use(security.NoStore)
		r.Use(middleware.Compress(5, "text/html", "application/json", "text/csv"))

		r.Get("/", s.handleIndex)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/export/{format}", s.handleExport)

		r.Route("/api", func(r chi.Router) {
			r.Get("/charts", s.handleCharts)
			r.Get("/series", s.handleSeries)
			r.Get("/search", s.handleSearch)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.rateLimiter.Middleware(s.detector.ExtractClientIP, nil))
			r.Post("/upload", s.handleUpload)
			r.Post("/reload", s.handleReload)
		})
	})
	return r
}

// DefaultSession is the session loaded from the configured sources, if any.
func (s *Server) DefaultSession() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.defaultSession
}

func (s *Server) setDefaultSession(id string) {
	s.mu.Lock()
	s.defaultSession = id
	s.mu.Unlock()
}

// Reload fetches every configured source and loads the files into one new
// default session.
func (s *Server) Reload(ctx context.Context) (string, error) {
	d, err := s.datasets.LoadSources(ctx, s.sources...)
	if err != nil {
		return "", err
	}
	s.setDefaultSession(d.ID)
	return d.ID, nil
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
