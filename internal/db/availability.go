package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"expertdesk/internal/models"
	"expertdesk/internal/slotengine"
)

// ListActiveExperts returns all experts currently open for booking.
func (db *DB) ListActiveExperts(ctx context.Context) ([]models.Expert, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, name, subject, bio, telegram_chat_id, is_active, created_at, updated_at
		FROM experts
		WHERE is_active = 1
		ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var experts []models.Expert
	for rows.Next() {
		e, err := scanExpert(rows)
		if err != nil {
			return nil, err
		}
		experts = append(experts, *e)
	}
	return experts, rows.Err()
}

// GetExpert returns one expert by id.
func (db *DB) GetExpert(ctx context.Context, id int64) (*models.Expert, error) {
	row := db.QueryRowContext(ctx, `
		SELECT id, name, subject, bio, telegram_chat_id, is_active, created_at, updated_at
		FROM experts
		WHERE id = ?
		LIMIT 1`, id)
	return scanExpert(row)
}

// CreateExpert inserts a new expert and fills in its id.
func (db *DB) CreateExpert(ctx context.Context, e *models.Expert) error {
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO experts (name, subject, bio, telegram_chat_id, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Name, e.Subject, e.Bio, e.TelegramChatID, e.IsActive, now, now,
	)
	if err != nil {
		return err
	}
	e.ID, err = res.LastInsertId()
	return err
}

// RulesForDay returns active weekly rules for an expert on a day of week
// (1 = Monday .. 7 = Sunday), ordered by start time.
func (db *DB) RulesForDay(ctx context.Context, expertID int64, dayOfWeek int) ([]models.AvailabilityRule, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, expert_id, day_of_week, start_time, end_time, is_active, created_at, updated_at
		FROM availability_rules
		WHERE expert_id = ? AND day_of_week = ? AND is_active = 1
		ORDER BY start_time`,
		expertID, dayOfWeek,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []models.AvailabilityRule
	for rows.Next() {
		var r models.AvailabilityRule
		if err := rows.Scan(
			&r.ID, &r.ExpertID, &r.DayOfWeek, &r.StartTime, &r.EndTime,
			&r.IsActive, &r.CreatedAt, &r.UpdatedAt,
		); err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, rows.Err()
}

// CreateRule inserts a weekly availability rule.
func (db *DB) CreateRule(ctx context.Context, r *models.AvailabilityRule) error {
	if err := r.Validate(); err != nil {
		return err
	}
	now := time.Now()
	res, err := db.ExecContext(ctx, `
		INSERT INTO availability_rules (expert_id, day_of_week, start_time, end_time, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, 1, ?, ?)`,
		r.ExpertID, r.DayOfWeek, r.StartTime, r.EndTime, now, now,
	)
	if err != nil {
		return err
	}
	r.ID, err = res.LastInsertId()
	return err
}

// GetOverride returns the override for a specific date, if any.
func (db *DB) GetOverride(ctx context.Context, expertID int64, date string) (*models.AvailabilityOverride, error) {
	var o models.AvailabilityOverride
	var startTime, endTime, reason sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT id, expert_id, date, is_closed, start_time, end_time, reason, created_at, updated_at
		FROM availability_overrides
		WHERE expert_id = ? AND date = ?
		LIMIT 1`,
		expertID, date,
	).Scan(
		&o.ID, &o.ExpertID, &o.Date, &o.IsClosed, &startTime, &endTime,
		&reason, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if startTime.Valid {
		o.StartTime = startTime.String
	}
	if endTime.Valid {
		o.EndTime = endTime.String
	}
	if reason.Valid {
		o.Reason = reason.String
	}
	return &o, nil
}

// SetOverride creates or updates the override for a date.
func (db *DB) SetOverride(ctx context.Context, o *models.AvailabilityOverride) error {
	if o == nil {
		return fmt.Errorf("override is nil")
	}
	now := time.Now()
	_, err := db.ExecContext(ctx, `
		INSERT INTO availability_overrides (
			expert_id, date, is_closed, start_time, end_time, reason, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(expert_id, date) DO UPDATE SET
			is_closed = excluded.is_closed,
			start_time = excluded.start_time,
			end_time = excluded.end_time,
			reason = excluded.reason,
			updated_at = excluded.updated_at`,
		o.ExpertID, o.Date, o.IsClosed, o.StartTime, o.EndTime, o.Reason, now, now,
	)
	return err
}

// SetDayOff marks a date as closed for an expert.
func (db *DB) SetDayOff(ctx context.Context, expertID int64, date, reason string) error {
	return db.SetOverride(ctx, &models.AvailabilityOverride{
		ExpertID: expertID,
		Date:     date,
		IsClosed: true,
		Reason:   reason,
	})
}

// SetSpecialHours sets a single special window for a date, replacing the
// weekly rules.
func (db *DB) SetSpecialHours(ctx context.Context, expertID int64, date, startTime, endTime string) error {
	return db.SetOverride(ctx, &models.AvailabilityOverride{
		ExpertID:  expertID,
		Date:      date,
		IsClosed:  false,
		StartTime: startTime,
		EndTime:   endTime,
	})
}

// RangesForDate resolves the open time ranges for an expert on a date.
// An override wins over the weekly rules: a closed date has no ranges, a
// special-hours date has exactly the override window.
func (db *DB) RangesForDate(ctx context.Context, expertID int64, date string) ([]slotengine.TimeRange, error) {
	override, err := db.GetOverride(ctx, expertID, date)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("get override: %w", err)
	}
	if override != nil {
		if override.IsClosed {
			return nil, nil
		}
		return []slotengine.TimeRange{{Start: override.StartTime, End: override.EndTime}}, nil
	}

	d, err := time.ParseInLocation("2006-01-02", date, time.Local)
	if err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	dayOfWeek := int(d.Weekday())
	if dayOfWeek == 0 {
		dayOfWeek = 7 // Sunday = 7
	}

	rules, err := db.RulesForDay(ctx, expertID, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("rules for day: %w", err)
	}

	ranges := make([]slotengine.TimeRange, 0, len(rules))
	for _, r := range rules {
		ranges = append(ranges, r.Range())
	}
	return ranges, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpert(row rowScanner) (*models.Expert, error) {
	var e models.Expert
	var bio sql.NullString
	err := row.Scan(
		&e.ID, &e.Name, &e.Subject, &bio, &e.TelegramChatID,
		&e.IsActive, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if bio.Valid {
		e.Bio = bio.String
	}
	return &e, nil
}
