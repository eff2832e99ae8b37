package http

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"nickel/internal/budget"
	"nickel/internal/items"
	nlog "nickel/internal/log"
	"nickel/internal/middleware/ratelimit"
	"nickel/internal/middleware/security"
	"nickel/internal/middleware/trace"
	appweb "nickel/web"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of the server.
type Deps struct {
	Session *budget.Session
	Items   items.Store
	// Ready is probed by /readyz; nil means always ready.
	Ready              Pinger
	Logger             *nlog.Logger
	RateLimitPerMinute int
	// CORSOrigins may call the JSON endpoints from a browser. Empty
	// disables CORS handling.
	CORSOrigins []string
	// TrustedProxies are CIDRs whose X-Forwarded-For is believed, on top
	// of loopback and private ranges.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template
	session   *budget.Session
	items     items.Store
	ready     Pinger
	logger    *nlog.Logger
	limiter   *ratelimit.Limiter
	tracer    *trace.Middleware
	detector  *security.Detector
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(addr string, deps Deps) (*Server, error) {
	logger := deps.Logger
	if logger == nil {
		logger = nlog.New(nlog.DefaultConfig())
	}
	logger = logger.WithComponent(nlog.ComponentHTTP)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	detector := security.NewDetector(logger.Logger)
	for _, cidr := range deps.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	// nothing below may fail: the limiter starts its cleanup goroutine
	s := &Server{
		templates: t,
		session:   deps.Session,
		items:     deps.Items,
		ready:     deps.Ready,
		logger:    logger,
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector:  detector,
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)

	mux := http.NewServeMux()
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /api/stats", s.handleStats)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/ledger", s.handleLedgerPartial)
	mux.HandleFunc("GET /api/ledger", s.handleLedgerJSON)
	mux.HandleFunc("POST /income", s.handleAdd(true))
	mux.HandleFunc("POST /expenses", s.handleAdd(false))
	mux.HandleFunc("POST /transactions/{id}", s.handleEditTransaction)
	mux.HandleFunc("POST /month/previous", s.handleMonth(-1))
	mux.HandleFunc("POST /month/next", s.handleMonth(1))

	mux.HandleFunc("GET /items", s.handleListItems)
	mux.HandleFunc("POST /items", s.handleCreateItem)
	mux.HandleFunc("DELETE /items/{id}", s.handleDeleteItem)

	var handler http.Handler = mux
	if len(deps.CORSOrigins) > 0 {
		handler = cors.Handler(cors.Options{
			AllowedOrigins:   deps.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type", "HX-Request", trace.HeaderRequestID},
			ExposedHeaders:   []string{"HX-Trigger", trace.HeaderRequestID},
			AllowCredentials: false,
			MaxAge:           300,
		})(handler)
	}
	handler = s.limiter.Middleware(s.detector.ExtractClientIP, s.onRateLimited)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.tracer.Middleware(handler)
	handler = s.detector.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops background goroutines and drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	nlog.FromContext(r.Context()).Warn("Rate limit exceeded",
		nlog.FieldClientIP, s.detector.ExtractClientIP(r),
		nlog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, "Too many changes, slow down a little.").Write(w)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready.Ping(ctx); err != nil {
			nlog.FromContext(r.Context()).Error("Readiness check failed", nlog.FieldError, err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// Stats are the counters of the HTTP middleware.
type Stats struct {
	Requests  trace.Metrics             `json:"requests"`
	RateLimit ratelimit.Metrics         `json:"rate_limit"`
	Security  security.DetectionMetrics `json:"security"`
}

func (s *Server) Stats() Stats {
	return Stats{
		Requests:  s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	}
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.Stats())
}

// render executes a template into memory first so that a failure never
// leaves a half-written page.
func (s *Server) render(r *http.Request, name string, data any) ([]byte, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		nlog.FromContext(r.Context()).Error("Template execution failed",
			"template", name,
			nlog.FieldOperation, nlog.OpRender,
			nlog.FieldError, err)
		return nil, err
	}
	return buf.Bytes(), nil
}

var templateFuncs = template.FuncMap{
	"isoTime": func(t time.Time) string { return t.Format(time.RFC3339) },
}
