package server

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-tenant-guard/auth"
	"github.com/jrsteele09/go-tenant-guard/internal/config"
	"github.com/jrsteele09/go-tenant-guard/internal/metrics"
	"github.com/jrsteele09/go-tenant-guard/records"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

type Server struct {
	env         string // Environment (e.g., "DEV", "production")
	mux         *http.ServeMux
	handler     http.Handler
	routes      []string
	config      config.Config
	auth        *auth.Service
	records     records.Repo
	loginLimit  *ipRateLimiter
	healthCheck func(*http.Request) error
}

type ServerOption func(*Server)

// WithHealthCheck makes /healthz report the result of check, e.g. a database ping.
func WithHealthCheck(check func(*http.Request) error) ServerOption {
	return func(s *Server) {
		s.healthCheck = check
	}
}

func New(cfg config.Config, service *auth.Service, recordRepo records.Repo, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[server.New] config is required")
	}
	if service == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if recordRepo == nil {
		return nil, errors.New("[server.New] record repo is required")
	}

	s := &Server{
		env:     cfg.GetEnv(),
		mux:     http.NewServeMux(),
		config:  cfg,
		auth:    service,
		records: recordRepo,
	}
	if cfg.GetEnableRateLimiting() {
		s.loginLimit = newIPRateLimiter(cfg.GetLoginRatePerSecond(), cfg.GetLoginRateBurst(), cfg.GetTrustedProxies())
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initRoutes()
	s.logRoutes()
	s.handler = metrics.Instrument(s.CorsMiddleware(s.mux.ServeHTTP))
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	colour, ok := methodColours[method]
	if !ok {
		colour = colourOther
	}
	log.Debug().Msgf("[%s] %s", colour+paddedMethod+colourReset, path)
}
