// Package server assembles the webhook HTTP server: routing, middleware,
// and lifecycle.
package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/Beny9313/whatsapp-ai-bot/internal/api/handlers"
	"github.com/Beny9313/whatsapp-ai-bot/internal/config"
	"github.com/Beny9313/whatsapp-ai-bot/internal/errors"
	"github.com/Beny9313/whatsapp-ai-bot/internal/logger"
	"github.com/Beny9313/whatsapp-ai-bot/internal/twilio"
)

// Server is the webhook HTTP server
type Server struct {
	cfg        *config.Config
	router     *mux.Router
	httpServer *http.Server
}

// New builds the server and its routes
func New(cfg *config.Config, a handlers.Agent, version string) *Server {
	router := mux.NewRouter()

	var validator handlers.SignatureValidator
	if cfg.Twilio.AuthToken != "" {
		validator = twilio.NewValidator(cfg.Twilio.AuthToken)
	}

	health := handlers.NewHealthHandler(version)
	webhook := handlers.NewWebhookHandler(a, validator, cfg)

	router.HandleFunc("/", health.Handle).Methods(http.MethodGet)
	router.HandleFunc("/health", health.Handle).Methods(http.MethodGet)
	router.HandleFunc("/webhook", webhook.Handle).Methods(http.MethodPost)

	router.Use(requestLogging)
	router.Use(recovery)

	return &Server{
		cfg:    cfg,
		router: router,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr(),
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout(),
			WriteTimeout: cfg.Server.WriteTimeout(),
		},
	}
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until the context is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Infow("webhook server listening", "addr", s.cfg.Server.Addr())
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		return errors.Wrap(err, "webhook server failed")
	case <-ctx.Done():
	}

	logger.Infow("shutting down webhook server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "webhook server shutdown")
	}
	return nil
}

// statusRecorder captures the response status for logging
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func requestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()

		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)

		logger.Infow("request handled",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(start),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// recovery converts handler panics into the generic error response. The
// webhook path answers TwiML so Twilio renders something for the user;
// other paths answer JSON.
func recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Errorw("handler panicked",
					"panic", rec,
					"path", r.URL.Path,
				)

				if strings.HasPrefix(r.URL.Path, "/webhook") {
					out, err := twilio.MessagingResponse(handlers.InternalErrorMessage)
					if err == nil {
						w.Header().Set("Content-Type", twilio.ContentType)
						w.WriteHeader(http.StatusInternalServerError)
						w.Write(out)
						return
					}
				}

				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte(`{"error":"internal server error"}`))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
