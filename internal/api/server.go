// Package api exposes the HTTP surface: the streaming chat endpoint,
// conversation management, knowledge base management, and health probes.
package api

import (
	"errors"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asterhq/aster/internal/chat"
	"github.com/asterhq/aster/internal/faq"
	"github.com/asterhq/aster/internal/knowledge"
	"github.com/asterhq/aster/internal/log"
	"github.com/asterhq/aster/internal/session"
)

// ServerConfig contains the dependencies of the API server.
type ServerConfig struct {
	Logger        log.Logger
	Agent         *chat.Agent        // Required
	Conversations *session.Store     // Required
	FAQ           *faq.Matcher       // Required (may be empty)
	Knowledge     *knowledge.Store   // Optional: nil disables knowledge endpoints
	Ingester      *knowledge.Ingester
	Pool          *pgxpool.Pool // Optional: nil disables DB readiness check
	CORSOrigins   []string
	TrustProxy    bool // Trust X-Real-IP/X-Forwarded-For (behind reverse proxy)
	RateBurst     int  // Rate limiter burst size per IP (0 = default 60)
}

// Server is the JSON/SSE API HTTP server.
type Server struct {
	mux *http.ServeMux
}

// NewServer creates an API server with all routes and middleware configured.
func NewServer(cfg ServerConfig) (*Server, error) {
	if cfg.Agent == nil {
		return nil, errors.New("agent is required")
	}
	if cfg.Conversations == nil {
		return nil, errors.New("conversation store is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.NewNop()
	}
	matcher := cfg.FAQ
	if matcher == nil {
		matcher = faq.New(nil)
	}

	ch := &chatHandler{
		agent:         cfg.Agent,
		conversations: cfg.Conversations,
		faq:           matcher,
		logger:        logger,
	}
	cv := &conversationHandler{store: cfg.Conversations, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/chat", ch.send)
	mux.HandleFunc("GET /api/conversations", cv.list)
	mux.HandleFunc("GET /api/conversations/{id}/messages", cv.messages)
	mux.HandleFunc("DELETE /api/conversations/{id}", cv.delete)

	if cfg.Knowledge != nil && cfg.Ingester != nil {
		kh := &knowledgeHandler{store: cfg.Knowledge, ingester: cfg.Ingester, logger: logger}
		mux.HandleFunc("POST /api/knowledge/ingest", kh.ingest)
		mux.HandleFunc("GET /api/knowledge/search", kh.search)
	}

	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 60
	}
	rl := newRateLimiter(1.0, burst)

	// Middleware stack (outermost first):
	//   Recovery -> RequestID -> Logging -> CORS -> RateLimit -> Routes
	// RequestID must be before Logging so request_id is available in log
	// attributes. CORS must be before RateLimit so preflight OPTIONS gets
	// proper CORS headers.
	var handler http.Handler = mux
	handler = rateLimitMiddleware(rl, cfg.TrustProxy, logger)(handler)
	handler = corsMiddleware(cfg.CORSOrigins)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = requestIDMiddleware()(handler)
	handler = recoveryMiddleware(logger)(handler)

	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setSecurityHeaders(w)
		handler.ServeHTTP(w, r)
	})

	// Health probes bypass the middleware stack.
	topMux := http.NewServeMux()
	topMux.HandleFunc("GET /health", health(logger))
	topMux.Handle("GET /ready", readiness(cfg.Pool, logger))
	topMux.Handle("/", final)

	return &Server{mux: topMux}, nil
}

// Handler returns the server as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}
