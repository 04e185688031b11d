package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expertdesk/internal/models"
)

// BookingsForDate returns non-canceled bookings for an expert on a date,
// ordered by start time.
func (db *DB) BookingsForDate(ctx context.Context, expertID int64, date string) ([]models.ExpertBooking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, ref, expert_id, date, start_time, end_time,
		       student_name, student_grade, topic, status, created_at, updated_at
		FROM expert_bookings
		WHERE expert_id = ? AND date = ? AND status != 'canceled'
		ORDER BY start_time`,
		expertID, date,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// BookingsForPeriod returns non-canceled bookings for an expert between two
// dates inclusive, ordered by date then start time.
func (db *DB) BookingsForPeriod(ctx context.Context, expertID int64, from, to string) ([]models.ExpertBooking, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, ref, expert_id, date, start_time, end_time,
		       student_name, student_grade, topic, status, created_at, updated_at
		FROM expert_bookings
		WHERE expert_id = ? AND date >= ? AND date <= ? AND status != 'canceled'
		ORDER BY date, start_time`,
		expertID, from, to,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectBookings(rows)
}

// IsSlotBooked checks whether an exact slot is taken by an active booking.
func (db *DB) IsSlotBooked(ctx context.Context, expertID int64, date, startTime, endTime string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM expert_bookings
		WHERE expert_id = ? AND date = ?
		AND start_time = ? AND end_time = ?
		AND status != 'canceled'`,
		expertID, date, startTime, endTime,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateBooking inserts a booking and fills in its id.
func (db *DB) CreateBooking(ctx context.Context, b *models.ExpertBooking) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.Ref == "" {
		return fmt.Errorf("booking ref is required")
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO expert_bookings (
			ref, expert_id, date, start_time, end_time,
			student_name, student_grade, topic, status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.Ref, b.ExpertID, b.Date, b.StartTime, b.EndTime,
		b.StudentName, b.StudentGrade, b.Topic, b.Status, now, now,
	)
	if err != nil {
		return err
	}
	b.ID, err = res.LastInsertId()
	return err
}

// GetBookingByRef returns a booking by its public reference.
func (db *DB) GetBookingByRef(ctx context.Context, ref string) (*models.ExpertBooking, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, ref, expert_id, date, start_time, end_time,
		       student_name, student_grade, topic, status, created_at, updated_at
		FROM expert_bookings
		WHERE ref = ?
		LIMIT 1`, ref)
	return scanBooking(row)
}

// UpdateBookingStatus sets the status of a booking by reference.
func (db *DB) UpdateBookingStatus(ctx context.Context, ref, status string) error {
	res, err := db.ExecContext(ctx, `
		UPDATE expert_bookings
		SET status = ?, updated_at = ?
		WHERE ref = ?`,
		status, time.Now(), ref,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func collectBookings(rows *sql.Rows) ([]models.ExpertBooking, error) {
	var bookings []models.ExpertBooking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *b)
	}
	return bookings, rows.Err()
}

func scanBooking(row rowScanner) (*models.ExpertBooking, error) {
	var b models.ExpertBooking
	var grade, topic sql.NullString
	err := row.Scan(
		&b.ID, &b.Ref, &b.ExpertID, &b.Date, &b.StartTime, &b.EndTime,
		&b.StudentName, &grade, &topic, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if grade.Valid {
		b.StudentGrade = grade.String
	}
	if topic.Valid {
		b.Topic = topic.String
	}
	return &b, nil
}
