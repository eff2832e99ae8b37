package trace

import (
	"context"
	"crypto/rand"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	nlog "nickel/internal/log"
)

type contextKey struct{}

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// Middleware assigns request ids and logs every request.
type Middleware struct {
	logger    *nlog.Logger
	extractIP func(*http.Request) string
	metrics   Metrics
}

// Metrics are cumulative request counters.
type Metrics struct {
	TotalRequests int64
	ServerErrors  int64
	// AverageResponseTime is the running mean in microseconds.
	AverageResponseTime int64
}

func NewMiddleware(logger *nlog.Logger, extractIP func(*http.Request) string) *Middleware {
	if logger == nil {
		logger = nlog.New(nlog.DefaultConfig())
	}
	return &Middleware{logger: logger.WithComponent(nlog.ComponentHTTP), extractIP: extractIP}
}

// Middleware returns HTTP middleware for request tracing. A well-formed
// incoming X-Request-ID is reused; otherwise a new one is generated.
func (m *Middleware) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := ""
		if m.extractIP != nil {
			clientIP = m.extractIP(r)
		}

		requestID := r.Header.Get(HeaderRequestID)
		if !validRequestID(requestID) {
			requestID = GenerateRequestID()
		}
		w.Header().Set(HeaderRequestID, requestID)

		logger := m.logger.With(nlog.FieldRequestID, requestID)
		ctx := context.WithValue(r.Context(), contextKey{}, requestID)
		ctx = nlog.WithContext(ctx, logger)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		m.record(rw.statusCode, duration)

		level := slog.LevelInfo
		switch {
		case rw.statusCode >= 500:
			level = slog.LevelError
		case rw.statusCode >= 400:
			level = slog.LevelWarn
		case r.URL.Path == "/healthz" || r.URL.Path == "/readyz":
			level = slog.LevelDebug
		}

		fields := nlog.NewFields().
			WithHTTP(r.Method, r.URL.Path, rw.statusCode, duration.Milliseconds()).
			WithClientIP(clientIP)
		logger.Log(ctx, level, "HTTP request completed", fields.Args()...)
	})
}

func (m *Middleware) record(status int, d time.Duration) {
	n := atomic.AddInt64(&m.metrics.TotalRequests, 1)
	if status >= 500 {
		atomic.AddInt64(&m.metrics.ServerErrors, 1)
	}
	// running mean; concurrent updates may lose a sample, which is fine for a gauge
	prev := atomic.LoadInt64(&m.metrics.AverageResponseTime)
	atomic.StoreInt64(&m.metrics.AverageResponseTime, prev+(d.Microseconds()-prev)/n)
}

// GetMetrics returns a snapshot of the counters.
func (m *Middleware) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:       atomic.LoadInt64(&m.metrics.TotalRequests),
		ServerErrors:        atomic.LoadInt64(&m.metrics.ServerErrors),
		AverageResponseTime: atomic.LoadInt64(&m.metrics.AverageResponseTime),
	}
}

type responseWriter struct {
	http.ResponseWriter
	statusCode  int
	wroteHeader bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if !rw.wroteHeader {
		rw.statusCode = code
		rw.wroteHeader = true
	}
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.wroteHeader = true
	return rw.ResponseWriter.Write(b)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// GenerateRequestID returns a ULID, sortable by arrival time.
func GenerateRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func validRequestID(id string) bool {
	if id == "" || len(id) > 64 {
		return false
	}
	for _, c := range id {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '-' || c == '_') {
			return false
		}
	}
	return true
}

// GetRequestID extracts the request ID from context
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(contextKey{}).(string); ok {
		return id
	}
	return ""
}
