package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"expertdesk/internal/metrics"
	"expertdesk/internal/service"
)

// CreateBookingRequest is the request body for POST /api/bookings.
type CreateBookingRequest struct {
	ExpertID     int64  `json:"expert_id"`
	Date         string `json:"date"`       // Format: YYYY-MM-DD
	StartTime    string `json:"start_time"` // Format: HH:MM
	EndTime      string `json:"end_time"`   // Format: HH:MM
	StudentName  string `json:"student_name"`
	StudentGrade string `json:"student_grade,omitempty"`
	Topic        string `json:"topic,omitempty"`
}

// handleCreateBooking reserves a slot.
// POST /api/bookings
func (s *HTTPServer) handleCreateBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("create_booking")
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use POST")
		return
	}

	var req CreateBookingRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.ExpertID <= 0 {
		writeError(w, http.StatusBadRequest, "expert_id is required")
		return
	}
	if req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		writeError(w, http.StatusBadRequest, "date, start_time and end_time are required")
		return
	}
	if req.StudentName == "" {
		writeError(w, http.StatusBadRequest, "student_name is required")
		return
	}

	booking, err := s.svc.CreateBooking(r.Context(), service.CreateBookingRequest{
		ExpertID:     req.ExpertID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		StudentName:  req.StudentName,
		StudentGrade: req.StudentGrade,
		Topic:        req.Topic,
	})
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, booking)
}

// handleCancelBooking cancels a booking by its public reference.
// DELETE /api/bookings/{ref}
func (s *HTTPServer) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("cancel_booking")
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed; use DELETE")
		return
	}

	ref := strings.TrimPrefix(r.URL.Path, "/api/bookings/")
	if ref == "" || strings.Contains(ref, "/") {
		writeError(w, http.StatusBadRequest, "booking ref is required")
		return
	}

	booking, err := s.svc.CancelBooking(r.Context(), ref)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, booking)
}
