package models

import (
	"fmt"
	"time"

	"expertdesk/internal/slotengine"
)

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCanceled  = "canceled"
)

// Expert is a program mentor students can book consultations with.
type Expert struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	Subject        string    `json:"subject"`
	Bio            string    `json:"bio,omitempty"`
	TelegramChatID int64     `json:"telegram_chat_id,omitempty"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// AvailabilityRule is a weekly recurring open-for-booking window.
// DayOfWeek follows ISO order: 1 = Monday .. 7 = Sunday.
type AvailabilityRule struct {
	ID        int64     `json:"id"`
	ExpertID  int64     `json:"expert_id"`
	DayOfWeek int       `json:"day_of_week"`
	StartTime string    `json:"start_time"` // "HH:MM"
	EndTime   string    `json:"end_time"`   // "HH:MM"
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the rule's day and time window.
func (r *AvailabilityRule) Validate() error {
	if r.DayOfWeek < 1 || r.DayOfWeek > 7 {
		return fmt.Errorf("day_of_week must be 1..7, got %d", r.DayOfWeek)
	}
	start, err := slotengine.ParseTime(r.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := slotengine.ParseTime(r.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if start >= end {
		return fmt.Errorf("start_time %s must be before end_time %s", r.StartTime, r.EndTime)
	}
	return nil
}

// Range returns the rule's window as a slot-engine time range.
func (r *AvailabilityRule) Range() slotengine.TimeRange {
	return slotengine.TimeRange{Start: r.StartTime, End: r.EndTime}
}

// AvailabilityOverride replaces the weekly rules for a single date: either
// the expert is closed, or special hours apply.
type AvailabilityOverride struct {
	ID        int64     `json:"id"`
	ExpertID  int64     `json:"expert_id"`
	Date      string    `json:"date"` // "YYYY-MM-DD"
	IsClosed  bool      `json:"is_closed"`
	StartTime string    `json:"start_time,omitempty"`
	EndTime   string    `json:"end_time,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ExpertBooking is a reservation of one generated slot. StartTime/EndTime are
// kept as "HH:MM" strings and must exactly match a slot produced for the same
// date's ranges.
type ExpertBooking struct {
	ID           int64     `json:"id"`
	Ref          string    `json:"ref"`
	ExpertID     int64     `json:"expert_id"`
	Date         string    `json:"date"` // "YYYY-MM-DD"
	StartTime    string    `json:"start_time"`
	EndTime      string    `json:"end_time"`
	StudentName  string    `json:"student_name"`
	StudentGrade string    `json:"student_grade,omitempty"`
	Topic        string    `json:"topic,omitempty"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SlotTimes implements slotengine.Booking.
func (b *ExpertBooking) SlotTimes() (string, string) {
	return b.StartTime, b.EndTime
}

// IsActive reports whether the booking still blocks its slot.
func (b *ExpertBooking) IsActive() bool {
	return b.Status != StatusCanceled
}

// Validate checks the fields a caller must supply before persisting.
func (b *ExpertBooking) Validate() error {
	if b.ExpertID <= 0 {
		return fmt.Errorf("expert_id is required")
	}
	if _, err := time.Parse("2006-01-02", b.Date); err != nil {
		return fmt.Errorf("date: expected YYYY-MM-DD, got %q", b.Date)
	}
	start, err := slotengine.ParseTime(b.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := slotengine.ParseTime(b.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if end-start != slotengine.SlotDuration {
		return fmt.Errorf("booking must cover exactly one %d-minute slot", slotengine.SlotDuration)
	}
	if b.StudentName == "" {
		return fmt.Errorf("student_name is required")
	}
	return nil
}
