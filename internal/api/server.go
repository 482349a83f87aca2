// Package api is the HTTP surface of the comment and core services.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/npezzotti/go-classroom/internal/config"
)

type pinger interface {
	Ping() error
}

// server holds what the comment and core apps share: the HTTP server, token
// verification and response helpers.
type server struct {
	log        *log.Logger
	srv        *http.Server
	signingKey []byte
	db         pinger
}

func newServer(mux *http.ServeMux, logger *log.Logger, db pinger, cfg *config.Config) *server {
	s := &server{
		log:        logger,
		db:         db,
		signingKey: cfg.SigningKey,
	}

	mux.HandleFunc("GET /healthz", s.healthCheck)

	h := handlers.CORS(
		handlers.MaxAge(3600),
		handlers.AllowedOrigins(cfg.AllowedOrigins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Origin", "Content-Type", "Accept", "Authorization"}),
		handlers.AllowCredentials(),
	)(mux)

	h = s.errorHandler(h)

	s.srv = &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: h,
	}

	return s
}

func (s *server) Start() error {
	s.log.Printf("starting server on %s\n", s.srv.Addr)
	return s.srv.ListenAndServe()
}

func (s *server) Shutdown(ctx context.Context) error {
	s.log.Println("shutting down HTTP server...")
	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	return nil
}

func (s *server) Handler() http.Handler {
	return s.srv.Handler
}

func (s *server) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := s.db.Ping(); err != nil {
		s.log.Printf("health check: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

func (s *server) writeJson(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if v == nil {
		return
	}

	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Printf("json encode: %v", err)
	}
}

// writeError answers with the status mapped from err. Unexpected errors
// are logged.
func (s *server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errResp := ErrorFor(err)
	if errResp.StatusCode == http.StatusInternalServerError {
		s.log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *server) badRequest(w http.ResponseWriter) {
	errResp := NewBadRequestError()
	s.writeJson(w, errResp.StatusCode, errResp)
}

func (s *server) decodeJson(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.badRequest(w)
		return false
	}
	return true
}
