package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"expertdesk/internal/export"
	"expertdesk/internal/metrics"
)

// handleExperts returns the list of bookable experts.
// GET /api/experts
func (s *HTTPServer) handleExperts(w http.ResponseWriter, r *http.Request) {
	metrics.IncHTTP("experts")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	experts, err := s.svc.ListExperts(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"experts": experts})
}

// handleExpertSubtree routes /api/experts/{id}/{action}.
func (s *HTTPServer) handleExpertSubtree(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/experts/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	expertID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil || expertID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid expert id")
		return
	}

	switch parts[1] {
	case "slots":
		s.handleExpertSlots(w, r, expertID)
	case "availability":
		s.handleExpertAvailability(w, r, expertID)
	case "report":
		s.handleExpertReport(w, r, expertID)
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleExpertSlots returns the slot sheet for one date.
// GET /api/experts/{id}/slots?date=YYYY-MM-DD
func (s *HTTPServer) handleExpertSlots(w http.ResponseWriter, r *http.Request, expertID int64) {
	metrics.IncHTTP("expert_slots")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	date := r.URL.Query().Get("date")
	if date == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeError(w, http.StatusBadRequest, "invalid date format; expected YYYY-MM-DD")
		return
	}

	day, err := s.svc.DaySlots(r.Context(), expertID, date)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, day)
}

// handleExpertAvailability returns the per-date status map for a month.
// GET /api/experts/{id}/availability?year=2026&month=9
func (s *HTTPServer) handleExpertAvailability(w http.ResponseWriter, r *http.Request, expertID int64) {
	metrics.IncHTTP("expert_availability")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	availability, err := s.svc.MonthStatus(r.Context(), expertID, year, month)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, availability)
}

// handleExpertReport streams a month's bookings as an .xlsx workbook.
// GET /api/experts/{id}/report?year=2026&month=9
func (s *HTTPServer) handleExpertReport(w http.ResponseWriter, r *http.Request, expertID int64) {
	metrics.IncHTTP("expert_report")
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	year, month, ok := parseYearMonth(w, r)
	if !ok {
		return
	}

	expert, bookings, err := s.svc.MonthBookings(r.Context(), expertID, year, month)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}

	report, err := export.MonthReport(expert, bookings, year, month, s.svc.Formatter())
	if err != nil {
		s.log.Error().Err(err).Int64("expert_id", expertID).Msg("build report")
		writeError(w, http.StatusInternalServerError, "failed to build report")
		return
	}
	defer report.Close()

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="bookings.xlsx"`)
	if _, err := report.WriteTo(w); err != nil {
		s.log.Error().Err(err).Msg("stream report")
	}
}

func parseYearMonth(w http.ResponseWriter, r *http.Request) (int, time.Month, bool) {
	year, err := strconv.Atoi(r.URL.Query().Get("year"))
	if err != nil || year < 2000 || year > 2200 {
		writeError(w, http.StatusBadRequest, "invalid year")
		return 0, 0, false
	}
	monthNum, err := strconv.Atoi(r.URL.Query().Get("month"))
	if err != nil || monthNum < 1 || monthNum > 12 {
		writeError(w, http.StatusBadRequest, "invalid month; expected 1..12")
		return 0, 0, false
	}
	return year, time.Month(monthNum), true
}
