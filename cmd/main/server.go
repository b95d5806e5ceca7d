package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/CTAG07/trigram/pkg/corpus"
)

// Server wires the source store and every API onto one mux.
type Server struct {
	cm          *ConfigManager
	db          *sql.DB
	logger      *slog.Logger
	store       *corpus.Store
	authAPI     *AuthAPI
	sourcesAPI  *SourcesAPI
	generateAPI *GenerateAPI
	usageAPI    *UsageAPI
	serverAPI   *ServerAPI
	apiMux      *http.ServeMux
}

// NewServer creates the store and APIs and registers their routes. The
// schemas must already exist in db.
func NewServer(cm *ConfigManager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	store, err := corpus.NewStore(db)
	if err != nil {
		return nil, fmt.Errorf("error creating source store: %w", err)
	}
	store.SetLogger(logger)

	usageAPI := NewUsageAPI(db, logger)
	server := &Server{
		cm:          cm,
		db:          db,
		logger:      logger,
		store:       store,
		authAPI:     NewAuthAPI(db, logger),
		sourcesAPI:  NewSourcesAPI(store, logger),
		generateAPI: NewGenerateAPI(store, cm, usageAPI, logger),
		usageAPI:    usageAPI,
		serverAPI:   NewServerAPI(cm, actionChan, logger),
		apiMux:      http.NewServeMux(),
	}

	authedMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(authedMux)
	server.sourcesAPI.RegisterRoutes(authedMux)
	server.generateAPI.RegisterRoutes(authedMux)
	server.usageAPI.RegisterRoutes(authedMux)
	server.serverAPI.RegisterRoutes(authedMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(authedMux)
	// ... except for the health check, which is unauthed so something like docker can use it
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/api/", authedAPI)
	server.apiMux.HandleFunc("/favicon.ico", handleFavicon)
	server.apiMux.HandleFunc("/", handleNotFound)

	return server, nil
}

// Handler returns the root handler with request logging applied.
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.apiMux)
}

// Close releases the store's prepared statements.
func (s *Server) Close() {
	s.store.Close()
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Debug("Request served",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"remote_addr", s.getClientIP(r),
			"duration", time.Since(start),
		)
	})
}

// getClientIP returns the client address, honoring forwarding headers only
// when the direct peer is a trusted proxy.
func (s *Server) getClientIP(r *http.Request) string {
	return clientIP(s.cm, r)
}

func clientIP(cm *ConfigManager, r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// If splitting fails (e.g., no port), use the address as is.
		ip = r.RemoteAddr
	}
	if !cm.IsTrusted(ip) {
		return ip
	}

	// The X-Real-Ip header contains the forwarded IP in some cases (like from nginx)
	if realIP := r.Header.Get("X-Real-Ip"); realIP != "" {
		return realIP
	}

	// The first IP in X-Forwarded-For is the original client.
	if forwardedFor := r.Header.Get("X-Forwarded-For"); forwardedFor != "" {
		ips := strings.Split(forwardedFor, ",")
		return strings.TrimSpace(ips[0])
	}
	return ip
}

func handleNotFound(w http.ResponseWriter, _ *http.Request) {
	respondWithError(w, http.StatusNotFound, "Not found")
}

// handleFavicon returns no content so browsers stop asking.
func handleFavicon(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}
