package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/social-listening/mentions-dashboard/internal/chat"
	"github.com/social-listening/mentions-dashboard/internal/config"
	"github.com/social-listening/mentions-dashboard/internal/dashboard"
	"github.com/social-listening/mentions-dashboard/internal/ingest"
	"github.com/social-listening/mentions-dashboard/internal/reporting"
	"github.com/social-listening/mentions-dashboard/internal/sources"
)

const requestIDHeader = "X-Request-ID"

// Dependencies are the services the HTTP API exposes. Sheet may be nil when no
// sheet is configured.
type Dependencies struct {
	Dashboard  *dashboard.Service
	Loader     *ingest.Loader
	Normalizer *sources.RowNormalizer
	Sample     sources.Source
	Sheet      sources.Source
	Chat       *chat.Service
	Reports    *reporting.Service
}

// Server is the dashboard HTTP API
type Server struct {
	config *config.Config
	deps   Dependencies
	router *mux.Router
}

// New builds the router for every API route
func New(cfg *config.Config, deps Dependencies) *Server {
	s := &Server{
		config: cfg,
		deps:   deps,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(requestLogger)

	r.HandleFunc("/health", healthCheckHandler).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.metricsHandler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/dashboard", s.getDashboard()).Methods(http.MethodGet)
	api.HandleFunc("/mentions", s.getMentions()).Methods(http.MethodGet)
	api.HandleFunc("/kpis", s.getKPIs()).Methods(http.MethodGet)
	api.HandleFunc("/charts", s.getCharts()).Methods(http.MethodGet)
	api.HandleFunc("/influencers", s.getInfluencers()).Methods(http.MethodGet)
	api.HandleFunc("/audience", s.getAudience()).Methods(http.MethodGet)
	api.HandleFunc("/sentiment", s.getSentiment()).Methods(http.MethodGet)
	api.HandleFunc("/performance", s.getPerformance()).Methods(http.MethodGet)

	api.HandleFunc("/filters", s.getFilters()).Methods(http.MethodGet)
	api.HandleFunc("/filters", s.patchFilters()).Methods(http.MethodPatch)
	api.HandleFunc("/filters", s.clearFilters()).Methods(http.MethodDelete)
	api.HandleFunc("/filters/{dimension}", s.addFilterValue()).Methods(http.MethodPost)
	api.HandleFunc("/filters/{dimension}/{value}", s.removeFilterValue()).Methods(http.MethodDelete)
	api.HandleFunc("/view", s.putView()).Methods(http.MethodPut)

	api.HandleFunc("/data/sample", s.loadSample()).Methods(http.MethodPost)
	api.HandleFunc("/data/upload", s.uploadFile()).Methods(http.MethodPost)
	api.HandleFunc("/data/sheet", s.loadSheet()).Methods(http.MethodPost)

	api.HandleFunc("/chat", s.getChat()).Methods(http.MethodGet)
	api.HandleFunc("/chat", s.postChat()).Methods(http.MethodPost)
	api.HandleFunc("/chat", s.clearChat()).Methods(http.MethodDelete)
	api.HandleFunc("/chat/settings", s.patchChatSettings()).Methods(http.MethodPatch)

	api.HandleFunc("/reports", s.listReports()).Methods(http.MethodGet)
	api.HandleFunc("/reports", s.createReport()).Methods(http.MethodPost)
	api.HandleFunc("/reports/{name}", s.getReport()).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// HTTPServer wraps the router with the configured address and timeouts
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%s", s.config.Port),
		Handler:      s,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger tags each request with an ID and logs its outcome
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     r.Method,
			"path":       r.URL.Path,
			"status":     rec.status,
			"duration":   time.Since(start).String(),
		})
		if rec.status >= http.StatusInternalServerError {
			entry.Error("Request failed")
			return
		}
		entry.Debug("Request served")
	})
}
