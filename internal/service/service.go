package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"expertdesk/internal/metrics"
	"expertdesk/internal/models"
	"expertdesk/internal/slotengine"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Store is the persistence surface the service needs. *db.DB implements it.
type Store interface {
	ListActiveExperts(ctx context.Context) ([]models.Expert, error)
	GetExpert(ctx context.Context, id int64) (*models.Expert, error)
	RangesForDate(ctx context.Context, expertID int64, date string) ([]slotengine.TimeRange, error)
	BookingsForDate(ctx context.Context, expertID int64, date string) ([]models.ExpertBooking, error)
	BookingsForPeriod(ctx context.Context, expertID int64, from, to string) ([]models.ExpertBooking, error)
	IsSlotBooked(ctx context.Context, expertID int64, date, startTime, endTime string) (bool, error)
	CreateBooking(ctx context.Context, b *models.ExpertBooking) error
	GetBookingByRef(ctx context.Context, ref string) (*models.ExpertBooking, error)
	UpdateBookingStatus(ctx context.Context, ref, status string) error
}

// Notifier delivers booking events to experts. Implementations must be safe
// for concurrent use.
type Notifier interface {
	BookingCreated(ctx context.Context, expert *models.Expert, booking *models.ExpertBooking) error
	BookingCanceled(ctx context.Context, expert *models.Expert, booking *models.ExpertBooking) error
}

// Config holds booking policy knobs.
type Config struct {
	// MaxAdvance bounds how far ahead a booking may be created.
	MaxAdvance time.Duration
}

// Service computes availability and manages bookings on top of a Store.
type Service struct {
	store     Store
	cfg       Config
	formatter slotengine.DateFormatter
	notifier  Notifier
	log       *zerolog.Logger

	redis    *redis.Client
	cacheTTL time.Duration
}

// New creates an availability service with the Hebrew date formatter.
func New(store Store, cfg Config, logger *zerolog.Logger) *Service {
	if cfg.MaxAdvance <= 0 {
		cfg.MaxAdvance = 60 * 24 * time.Hour
	}
	return &Service{
		store:     store,
		cfg:       cfg,
		formatter: slotengine.HebrewFormatter{},
		log:       logger,
	}
}

// UseRedisCache enables read-through caching of computed day slots.
func (s *Service) UseRedisCache(client *redis.Client, ttl time.Duration) {
	s.redis = client
	s.cacheTTL = ttl
}

// UseNotifier enables booking notifications.
func (s *Service) UseNotifier(n Notifier) {
	s.notifier = n
}

// SlotView is one generated slot in an API-friendly shape.
type SlotView struct {
	StartTime  string `json:"start_time"`
	EndTime    string `json:"end_time"`
	IsBooked   bool   `json:"is_booked"`
	BookingRef string `json:"booking_ref,omitempty"`
}

// DayAvailability is the computed slot sheet for one expert and date.
type DayAvailability struct {
	ExpertID    int64             `json:"expert_id"`
	Date        string            `json:"date"`
	DateLabel   string            `json:"date_label"`
	Slots       []SlotView        `json:"slots"`
	TotalSlots  int               `json:"total_slots"`
	BookedSlots int               `json:"booked_slots"`
	Status      slotengine.Status `json:"status"`
}

// ListExperts returns all active experts.
func (s *Service) ListExperts(ctx context.Context) ([]models.Expert, error) {
	experts, err := s.store.ListActiveExperts(ctx)
	if err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	return experts, nil
}

// DaySlots computes the slot sheet for an expert on a date. Results are
// cached when a redis client is configured; the cache is invalidated on any
// booking write.
func (s *Service) DaySlots(ctx context.Context, expertID int64, date string) (*DayAvailability, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}

	cacheKey := s.slotsCacheKey(expertID, date)
	var cached DayAvailability
	if s.readCache(ctx, cacheKey, &cached) {
		metrics.IncSlotCache("hit")
		return &cached, nil
	}
	metrics.IncSlotCache("miss")

	if _, err := s.getActiveExpert(ctx, expertID); err != nil {
		return nil, err
	}

	day, err := s.computeDay(ctx, expertID, date)
	if err != nil {
		return nil, err
	}

	s.writeCache(ctx, cacheKey, day)
	return day, nil
}

func (s *Service) computeDay(ctx context.Context, expertID int64, date string) (*DayAvailability, error) {
	ranges, err := s.store.RangesForDate(ctx, expertID, date)
	if err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	bookings, err := s.store.BookingsForDate(ctx, expertID, date)
	if err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}

	engineBookings := make([]slotengine.Booking, 0, len(bookings))
	for i := range bookings {
		if bookings[i].IsActive() {
			engineBookings = append(engineBookings, &bookings[i])
		}
	}

	slots, err := slotengine.GenerateSlots(ranges, engineBookings)
	if err != nil {
		return nil, fmt.Errorf("generate slots: %w", err)
	}

	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		v := SlotView{
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			IsBooked:  slot.IsBooked,
		}
		if b, ok := slot.Booking.(*models.ExpertBooking); ok {
			v.BookingRef = b.Ref
		}
		views = append(views, v)
	}

	booked := slotengine.CountBooked(slots)
	return &DayAvailability{
		ExpertID:    expertID,
		Date:        date,
		DateLabel:   s.formatter.FormatDate(date),
		Slots:       views,
		TotalSlots:  len(slots),
		BookedSlots: booked,
		Status:      slotengine.ClassifyAvailability(len(slots), booked),
	}, nil
}

// MonthAvailability is the per-date status map used by the booking calendar.
type MonthAvailability struct {
	ExpertID int64                        `json:"expert_id"`
	Year     int                          `json:"year"`
	Month    int                          `json:"month"`
	Label    string                       `json:"label"`
	Days     map[string]slotengine.Status `json:"days"`
}

// MonthStatus classifies every date of a month for an expert. Dates without
// any open ranges classify as full.
func (s *Service) MonthStatus(ctx context.Context, expertID int64, year int, month time.Month) (*MonthAvailability, error) {
	if _, err := s.getActiveExpert(ctx, expertID); err != nil {
		return nil, err
	}

	m := slotengine.MonthDates(year, month)
	out := &MonthAvailability{
		ExpertID: expertID,
		Year:     year,
		Month:    int(month),
		Label:    s.formatter.MonthYear(year, month),
		Days:     make(map[string]slotengine.Status, len(m.Dates)),
	}

	for _, date := range m.Dates {
		day, err := s.computeDay(ctx, expertID, date)
		if err != nil {
			return nil, fmt.Errorf("day %s: %w", date, err)
		}
		out.Days[date] = day.Status
	}
	return out, nil
}

// CreateBookingRequest carries the caller-supplied booking fields.
type CreateBookingRequest struct {
	ExpertID     int64
	Date         string
	StartTime    string
	EndTime      string
	StudentName  string
	StudentGrade string
	Topic        string
}

// CreateBooking reserves a slot. The requested times must exactly match a
// slot generated from the expert's ranges for that date.
func (s *Service) CreateBooking(ctx context.Context, req CreateBookingRequest) (*models.ExpertBooking, error) {
	expert, err := s.getActiveExpert(ctx, req.ExpertID)
	if err != nil {
		return nil, err
	}

	if _, err := time.Parse("2006-01-02", req.Date); err != nil {
		return nil, fmt.Errorf("parse date: %w", err)
	}
	if slotengine.IsDateInPast(req.Date) {
		return nil, ErrPastDate
	}
	if d, _ := time.ParseInLocation("2006-01-02", req.Date, time.Local); time.Until(d) > s.cfg.MaxAdvance {
		return nil, ErrTooFarAhead
	}

	ranges, err := s.store.RangesForDate(ctx, req.ExpertID, req.Date)
	if err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	slots, err := slotengine.GenerateSlots(ranges, nil)
	if err != nil {
		return nil, fmt.Errorf("generate slots: %w", err)
	}
	if !slotExists(slots, req.StartTime, req.EndTime) {
		return nil, ErrSlotMisaligned
	}

	booked, err := s.store.IsSlotBooked(ctx, req.ExpertID, req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	if booked {
		return nil, alreadyExists("המועד כבר תפוס", nil)
	}

	booking := &models.ExpertBooking{
		Ref:          uuid.New().String(),
		ExpertID:     req.ExpertID,
		Date:         req.Date,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		StudentName:  req.StudentName,
		StudentGrade: req.StudentGrade,
		Topic:        req.Topic,
		Status:       models.StatusPending,
	}
	if err := s.store.CreateBooking(ctx, booking); err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}

	metrics.IncBookingCreated(booking.Status)
	s.invalidateCache(ctx, req.ExpertID, req.Date)

	s.log.Info().
		Str("ref", booking.Ref).
		Int64("expert_id", booking.ExpertID).
		Str("date", booking.Date).
		Str("slot", booking.StartTime+"-"+booking.EndTime).
		Msg("booking created")

	if s.notifier != nil {
		if err := s.notifier.BookingCreated(ctx, expert, booking); err != nil {
			s.log.Warn().Err(err).Str("ref", booking.Ref).Msg("booking notification failed")
		}
	}
	return booking, nil
}

// CancelBooking cancels a booking by reference and frees its slot.
func (s *Service) CancelBooking(ctx context.Context, ref string) (*models.ExpertBooking, error) {
	booking, err := s.store.GetBookingByRef(ctx, ref)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("ההזמנה לא נמצאה", err)
		}
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	if booking.Status == models.StatusCanceled {
		return nil, alreadyExists("ההזמנה כבר בוטלה", nil)
	}

	if err := s.store.UpdateBookingStatus(ctx, ref, models.StatusCanceled); err != nil {
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	booking.Status = models.StatusCanceled

	metrics.IncBookingCancelled()
	s.invalidateCache(ctx, booking.ExpertID, booking.Date)

	s.log.Info().
		Str("ref", ref).
		Int64("expert_id", booking.ExpertID).
		Str("date", booking.Date).
		Msg("booking canceled")

	if s.notifier != nil {
		if expert, err := s.store.GetExpert(ctx, booking.ExpertID); err == nil {
			if err := s.notifier.BookingCanceled(ctx, expert, booking); err != nil {
				s.log.Warn().Err(err).Str("ref", ref).Msg("cancel notification failed")
			}
		}
	}
	return booking, nil
}

// MonthBookings returns an expert and all their active bookings for a month,
// for report export.
func (s *Service) MonthBookings(ctx context.Context, expertID int64, year int, month time.Month) (*models.Expert, []models.ExpertBooking, error) {
	expert, err := s.getActiveExpert(ctx, expertID)
	if err != nil {
		return nil, nil, err
	}
	m := slotengine.MonthDates(year, month)
	bookings, err := s.store.BookingsForPeriod(ctx, expertID, m.StartDate, m.EndDate)
	if err != nil {
		return nil, nil, unavailable("השירות אינו זמין כרגע", err)
	}
	return expert, bookings, nil
}

// Formatter exposes the service's date formatter for presentation layers.
func (s *Service) Formatter() slotengine.DateFormatter {
	return s.formatter
}

func (s *Service) getActiveExpert(ctx context.Context, id int64) (*models.Expert, error) {
	expert, err := s.store.GetExpert(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, notFound("המומחה לא נמצא", err)
		}
		return nil, unavailable("השירות אינו זמין כרגע", err)
	}
	if !expert.IsActive {
		return nil, notFound("המומחה לא נמצא", nil)
	}
	return expert, nil
}

func slotExists(slots []slotengine.Slot, start, end string) bool {
	for _, s := range slots {
		if s.StartTime == start && s.EndTime == end {
			return true
		}
	}
	return false
}

func (s *Service) slotsCacheKey(expertID int64, date string) string {
	return fmt.Sprintf("slots:%d:%s", expertID, date)
}

func (s *Service) readCache(ctx context.Context, key string, out any) bool {
	if s.redis == nil || s.cacheTTL <= 0 {
		return false
	}
	val, err := s.redis.Get(ctx, key).Result()
	if err != nil {
		return false
	}
	return json.Unmarshal([]byte(val), out) == nil
}

func (s *Service) writeCache(ctx context.Context, key string, value any) {
	if s.redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		s.log.Debug().Err(err).Str("key", key).Msg("cache write failed")
	}
}

func (s *Service) invalidateCache(ctx context.Context, expertID int64, date string) {
	if s.redis == nil {
		return
	}
	if err := s.redis.Del(ctx, s.slotsCacheKey(expertID, date)).Err(); err != nil {
		s.log.Debug().Err(err).Msg("cache invalidation failed")
	}
}
