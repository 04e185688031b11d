package db

import (
	"context"
	"path/filepath"
	"testing"

	"expertdesk/internal/models"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	database, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func createTestExpert(t *testing.T, database *DB) *models.Expert {
	t.Helper()
	e := &models.Expert{Name: "ד\"ר כהן", Subject: "robotics", IsActive: true}
	if err := database.CreateExpert(context.Background(), e); err != nil {
		t.Fatalf("create expert: %v", err)
	}
	return e
}

func TestRangesForDate(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	expert := createTestExpert(t, database)

	// 2026-09-02 is a Wednesday (day 3).
	const date = "2026-09-02"

	rule := &models.AvailabilityRule{
		ExpertID:  expert.ID,
		DayOfWeek: 3,
		StartTime: "10:00",
		EndTime:   "12:00",
	}
	if err := database.CreateRule(ctx, rule); err != nil {
		t.Fatalf("create rule: %v", err)
	}

	t.Run("weekly rule applies without override", func(t *testing.T) {
		ranges, err := database.RangesForDate(ctx, expert.ID, date)
		if err != nil {
			t.Fatalf("ranges for date: %v", err)
		}
		if len(ranges) != 1 || ranges[0].Start != "10:00" || ranges[0].End != "12:00" {
			t.Fatalf("unexpected ranges: %+v", ranges)
		}
	})

	t.Run("no rules on other weekdays", func(t *testing.T) {
		ranges, err := database.RangesForDate(ctx, expert.ID, "2026-09-03")
		if err != nil {
			t.Fatalf("ranges for date: %v", err)
		}
		if len(ranges) != 0 {
			t.Fatalf("expected no ranges, got %+v", ranges)
		}
	})

	t.Run("special hours replace the weekly rule", func(t *testing.T) {
		if err := database.SetSpecialHours(ctx, expert.ID, date, "14:00", "15:00"); err != nil {
			t.Fatalf("set special hours: %v", err)
		}
		ranges, err := database.RangesForDate(ctx, expert.ID, date)
		if err != nil {
			t.Fatalf("ranges for date: %v", err)
		}
		if len(ranges) != 1 || ranges[0].Start != "14:00" || ranges[0].End != "15:00" {
			t.Fatalf("unexpected ranges: %+v", ranges)
		}
	})

	t.Run("day off removes all ranges", func(t *testing.T) {
		if err := database.SetDayOff(ctx, expert.ID, date, "חופשה"); err != nil {
			t.Fatalf("set day off: %v", err)
		}
		ranges, err := database.RangesForDate(ctx, expert.ID, date)
		if err != nil {
			t.Fatalf("ranges for date: %v", err)
		}
		if len(ranges) != 0 {
			t.Fatalf("expected no ranges on a closed day, got %+v", ranges)
		}
	})
}

func TestBookings(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	expert := createTestExpert(t, database)

	const date = "2026-09-02"

	booking := &models.ExpertBooking{
		Ref:         "ref-1",
		ExpertID:    expert.ID,
		Date:        date,
		StartTime:   "10:00",
		EndTime:     "10:10",
		StudentName: "יואב",
		Status:      models.StatusPending,
	}
	if err := database.CreateBooking(ctx, booking); err != nil {
		t.Fatalf("create booking: %v", err)
	}
	if booking.ID == 0 {
		t.Fatal("booking id not filled in")
	}

	t.Run("exact slot is booked", func(t *testing.T) {
		booked, err := database.IsSlotBooked(ctx, expert.ID, date, "10:00", "10:10")
		if err != nil {
			t.Fatalf("is slot booked: %v", err)
		}
		if !booked {
			t.Error("slot should be booked")
		}
	})

	t.Run("adjacent slot is free", func(t *testing.T) {
		booked, err := database.IsSlotBooked(ctx, expert.ID, date, "10:10", "10:20")
		if err != nil {
			t.Fatalf("is slot booked: %v", err)
		}
		if booked {
			t.Error("adjacent slot should be free")
		}
	})

	t.Run("bookings for date", func(t *testing.T) {
		bookings, err := database.BookingsForDate(ctx, expert.ID, date)
		if err != nil {
			t.Fatalf("bookings for date: %v", err)
		}
		if len(bookings) != 1 || bookings[0].Ref != "ref-1" {
			t.Fatalf("unexpected bookings: %+v", bookings)
		}
	})

	t.Run("canceled booking frees the slot", func(t *testing.T) {
		if err := database.UpdateBookingStatus(ctx, "ref-1", models.StatusCanceled); err != nil {
			t.Fatalf("cancel: %v", err)
		}
		booked, err := database.IsSlotBooked(ctx, expert.ID, date, "10:00", "10:10")
		if err != nil {
			t.Fatalf("is slot booked: %v", err)
		}
		if booked {
			t.Error("canceled booking should not block the slot")
		}
	})

	t.Run("unknown ref", func(t *testing.T) {
		if err := database.UpdateBookingStatus(ctx, "no-such-ref", models.StatusCanceled); err == nil {
			t.Error("expected error for unknown ref")
		}
	})
}
