package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expertdesk/internal/service"

	"github.com/rs/zerolog"
)

// HTTPServer serves the booking API consumed by the portal frontend.
type HTTPServer struct {
	svc *service.Service
	log *zerolog.Logger
	srv *http.Server
}

// NewHTTPServer creates the API server on addr.
func NewHTTPServer(addr string, svc *service.Service, logger *zerolog.Logger) *HTTPServer {
	s := &HTTPServer{
		svc: svc,
		log: logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/experts", s.handleExperts)
	mux.HandleFunc("/api/experts/", s.handleExpertSubtree)
	mux.HandleFunc("/api/bookings", s.handleCreateBooking)
	mux.HandleFunc("/api/bookings/", s.handleCancelBooking)

	s.srv = &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return s
}

// Handler exposes the routed handler, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *HTTPServer) Start(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.srv.Shutdown(ctxShutdown)
	}()

	s.log.Info().Str("addr", s.srv.Addr).Msg("API server listening")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}

// writeServiceError maps service failures onto HTTP statuses and attaches the
// Hebrew user-facing message.
func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrPastDate):
		writeError(w, http.StatusBadRequest, "date is in the past")
		return
	case errors.Is(err, service.ErrTooFarAhead):
		writeError(w, http.StatusBadRequest, "date is beyond the booking horizon")
		return
	case errors.Is(err, service.ErrSlotMisaligned):
		writeError(w, http.StatusBadRequest, "times do not match a bookable slot")
		return
	}

	status := http.StatusInternalServerError
	switch service.KindOf(err) {
	case service.KindNotFound:
		status = http.StatusNotFound
	case service.KindAlreadyExists:
		status = http.StatusConflict
	case service.KindPermissionDenied:
		status = http.StatusForbidden
	case service.KindUnavailable:
		status = http.StatusServiceUnavailable
	}

	if status == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("unhandled service error")
	}
	writeJSON(w, status, map[string]any{
		"error":   err.Error(),
		"message": service.UserMessage(err),
	})
}
