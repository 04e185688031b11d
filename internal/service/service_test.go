package service

import (
	"context"
	"database/sql"
	"io"
	"testing"
	"time"

	"expertdesk/internal/models"
	"expertdesk/internal/slotengine"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListActiveExperts(ctx context.Context) ([]models.Expert, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Expert), args.Error(1)
}

func (m *mockStore) GetExpert(ctx context.Context, id int64) (*models.Expert, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Expert), args.Error(1)
}

func (m *mockStore) RangesForDate(ctx context.Context, expertID int64, date string) ([]slotengine.TimeRange, error) {
	args := m.Called(ctx, expertID, date)
	return args.Get(0).([]slotengine.TimeRange), args.Error(1)
}

func (m *mockStore) BookingsForDate(ctx context.Context, expertID int64, date string) ([]models.ExpertBooking, error) {
	args := m.Called(ctx, expertID, date)
	return args.Get(0).([]models.ExpertBooking), args.Error(1)
}

func (m *mockStore) BookingsForPeriod(ctx context.Context, expertID int64, from, to string) ([]models.ExpertBooking, error) {
	args := m.Called(ctx, expertID, from, to)
	return args.Get(0).([]models.ExpertBooking), args.Error(1)
}

func (m *mockStore) IsSlotBooked(ctx context.Context, expertID int64, date, startTime, endTime string) (bool, error) {
	args := m.Called(ctx, expertID, date, startTime, endTime)
	return args.Bool(0), args.Error(1)
}

func (m *mockStore) CreateBooking(ctx context.Context, b *models.ExpertBooking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *mockStore) GetBookingByRef(ctx context.Context, ref string) (*models.ExpertBooking, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExpertBooking), args.Error(1)
}

func (m *mockStore) UpdateBookingStatus(ctx context.Context, ref, status string) error {
	return m.Called(ctx, ref, status).Error(0)
}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) BookingCreated(ctx context.Context, expert *models.Expert, booking *models.ExpertBooking) error {
	return m.Called(ctx, expert, booking).Error(0)
}

func (m *mockNotifier) BookingCanceled(ctx context.Context, expert *models.Expert, booking *models.ExpertBooking) error {
	return m.Called(ctx, expert, booking).Error(0)
}

func newTestService(store Store) *Service {
	logger := zerolog.New(io.Discard)
	return New(store, Config{}, &logger)
}

var testExpert = &models.Expert{ID: 1, Name: "ד\"ר כהן", Subject: "robotics", IsActive: true}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestDaySlots(t *testing.T) {
	date := futureDate(7)

	t.Run("computes counts and status", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
		store.On("RangesForDate", mock.Anything, int64(1), date).
			Return([]slotengine.TimeRange{{Start: "10:00", End: "11:00"}}, nil)
		store.On("BookingsForDate", mock.Anything, int64(1), date).
			Return([]models.ExpertBooking{
				{Ref: "ref-1", StartTime: "10:20", EndTime: "10:30", Status: models.StatusPending},
			}, nil)

		svc := newTestService(store)
		day, err := svc.DaySlots(context.Background(), 1, date)
		require.NoError(t, err)

		assert.Equal(t, 6, day.TotalSlots)
		assert.Equal(t, 1, day.BookedSlots)
		assert.Equal(t, slotengine.StatusAvailable, day.Status)
		assert.Equal(t, "10:20", day.Slots[2].StartTime)
		assert.True(t, day.Slots[2].IsBooked)
		assert.Equal(t, "ref-1", day.Slots[2].BookingRef)
		assert.NotEmpty(t, day.DateLabel)
	})

	t.Run("two free slots classify as limited", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
		store.On("RangesForDate", mock.Anything, int64(1), date).
			Return([]slotengine.TimeRange{{Start: "10:00", End: "10:30"}}, nil)
		store.On("BookingsForDate", mock.Anything, int64(1), date).
			Return([]models.ExpertBooking{
				{Ref: "ref-1", StartTime: "10:00", EndTime: "10:10", Status: models.StatusPending},
			}, nil)

		svc := newTestService(store)
		day, err := svc.DaySlots(context.Background(), 1, date)
		require.NoError(t, err)
		assert.Equal(t, slotengine.StatusLimited, day.Status)
	})

	t.Run("canceled bookings do not block slots", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
		store.On("RangesForDate", mock.Anything, int64(1), date).
			Return([]slotengine.TimeRange{{Start: "10:00", End: "10:10"}}, nil)
		store.On("BookingsForDate", mock.Anything, int64(1), date).
			Return([]models.ExpertBooking{
				{Ref: "ref-1", StartTime: "10:00", EndTime: "10:10", Status: models.StatusCanceled},
			}, nil)

		svc := newTestService(store)
		day, err := svc.DaySlots(context.Background(), 1, date)
		require.NoError(t, err)
		assert.Equal(t, 0, day.BookedSlots)
	})

	t.Run("unknown expert", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(9)).Return(nil, sql.ErrNoRows)

		svc := newTestService(store)
		_, err := svc.DaySlots(context.Background(), 9, date)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("malformed date", func(t *testing.T) {
		store := new(mockStore)
		svc := newTestService(store)
		_, err := svc.DaySlots(context.Background(), 1, "2026/09/01")
		require.Error(t, err)
	})
}

func TestCreateBooking(t *testing.T) {
	date := futureDate(7)

	baseReq := CreateBookingRequest{
		ExpertID:    1,
		Date:        date,
		StartTime:   "10:00",
		EndTime:     "10:10",
		StudentName: "יואב",
	}

	t.Run("happy path notifies the expert", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
		store.On("RangesForDate", mock.Anything, int64(1), date).
			Return([]slotengine.TimeRange{{Start: "10:00", End: "11:00"}}, nil)
		store.On("IsSlotBooked", mock.Anything, int64(1), date, "10:00", "10:10").Return(false, nil)
		store.On("CreateBooking", mock.Anything, mock.Anything).Return(nil)

		notifier := new(mockNotifier)
		notifier.On("BookingCreated", mock.Anything, testExpert, mock.Anything).Return(nil)

		svc := newTestService(store)
		svc.UseNotifier(notifier)

		booking, err := svc.CreateBooking(context.Background(), baseReq)
		require.NoError(t, err)
		assert.NotEmpty(t, booking.Ref)
		assert.Equal(t, models.StatusPending, booking.Status)
		notifier.AssertCalled(t, "BookingCreated", mock.Anything, testExpert, mock.Anything)
	})

	t.Run("misaligned times are rejected", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
		store.On("RangesForDate", mock.Anything, int64(1), date).
			Return([]slotengine.TimeRange{{Start: "10:00", End: "11:00"}}, nil)

		req := baseReq
		req.StartTime, req.EndTime = "10:05", "10:15"

		svc := newTestService(store)
		_, err := svc.CreateBooking(context.Background(), req)
		assert.ErrorIs(t, err, ErrSlotMisaligned)
	})

	t.Run("past dates are rejected", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)

		req := baseReq
		req.Date = "2000-01-01"

		svc := newTestService(store)
		_, err := svc.CreateBooking(context.Background(), req)
		assert.ErrorIs(t, err, ErrPastDate)
	})

	t.Run("dates beyond the horizon are rejected", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)

		req := baseReq
		req.Date = futureDate(365)

		svc := newTestService(store)
		_, err := svc.CreateBooking(context.Background(), req)
		assert.ErrorIs(t, err, ErrTooFarAhead)
	})

	t.Run("taken slot conflicts", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
		store.On("RangesForDate", mock.Anything, int64(1), date).
			Return([]slotengine.TimeRange{{Start: "10:00", End: "11:00"}}, nil)
		store.On("IsSlotBooked", mock.Anything, int64(1), date, "10:00", "10:10").Return(true, nil)

		svc := newTestService(store)
		_, err := svc.CreateBooking(context.Background(), baseReq)
		require.Error(t, err)
		assert.Equal(t, KindAlreadyExists, KindOf(err))
	})

	t.Run("inactive expert is hidden", func(t *testing.T) {
		inactive := &models.Expert{ID: 2, Name: "x", IsActive: false}
		store := new(mockStore)
		store.On("GetExpert", mock.Anything, int64(2)).Return(inactive, nil)

		req := baseReq
		req.ExpertID = 2

		svc := newTestService(store)
		_, err := svc.CreateBooking(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("unknown ref", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetBookingByRef", mock.Anything, "nope").Return(nil, sql.ErrNoRows)

		svc := newTestService(store)
		_, err := svc.CancelBooking(context.Background(), "nope")
		require.Error(t, err)
		assert.Equal(t, KindNotFound, KindOf(err))
	})

	t.Run("already canceled", func(t *testing.T) {
		store := new(mockStore)
		store.On("GetBookingByRef", mock.Anything, "ref-1").
			Return(&models.ExpertBooking{Ref: "ref-1", Status: models.StatusCanceled}, nil)

		svc := newTestService(store)
		_, err := svc.CancelBooking(context.Background(), "ref-1")
		require.Error(t, err)
		assert.Equal(t, KindAlreadyExists, KindOf(err))
	})

	t.Run("happy path", func(t *testing.T) {
		booking := &models.ExpertBooking{
			Ref: "ref-1", ExpertID: 1, Date: futureDate(3),
			StartTime: "10:00", EndTime: "10:10", Status: models.StatusPending,
		}
		store := new(mockStore)
		store.On("GetBookingByRef", mock.Anything, "ref-1").Return(booking, nil)
		store.On("UpdateBookingStatus", mock.Anything, "ref-1", models.StatusCanceled).Return(nil)
		store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)

		notifier := new(mockNotifier)
		notifier.On("BookingCanceled", mock.Anything, testExpert, mock.Anything).Return(nil)

		svc := newTestService(store)
		svc.UseNotifier(notifier)

		canceled, err := svc.CancelBooking(context.Background(), "ref-1")
		require.NoError(t, err)
		assert.Equal(t, models.StatusCanceled, canceled.Status)
		store.AssertCalled(t, "UpdateBookingStatus", mock.Anything, "ref-1", models.StatusCanceled)
	})
}

func TestMonthStatus(t *testing.T) {
	store := new(mockStore)
	store.On("GetExpert", mock.Anything, int64(1)).Return(testExpert, nil)
	store.On("RangesForDate", mock.Anything, int64(1), mock.Anything).
		Return([]slotengine.TimeRange{}, nil)
	store.On("BookingsForDate", mock.Anything, int64(1), mock.Anything).
		Return([]models.ExpertBooking{}, nil)

	svc := newTestService(store)
	month, err := svc.MonthStatus(context.Background(), 1, 2024, time.February)
	require.NoError(t, err)

	assert.Len(t, month.Days, 29)
	assert.Equal(t, "פברואר 2024", month.Label)
	for date, status := range month.Days {
		assert.Equalf(t, slotengine.StatusFull, status, "date %s with no ranges should be full", date)
	}
}
