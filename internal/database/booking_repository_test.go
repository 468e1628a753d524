package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var bookingRowColumns = []string{
	"booking_id", "headcount", "check_in_date", "check_out_date", "status",
	"tourist_id", "tour_id", "user_id", "event_id", "version", "created_at", "updated_at",
}

func TestCreateBooking(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	checkIn := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
	tourID := int64(5)
	booking := &models.Booking{
		Headcount:    2,
		CheckInDate:  checkIn,
		CheckOutDate: checkIn.AddDate(0, 0, 7),
		Status:       models.BookingStatusPending,
		TouristID:    11,
		TourID:       &tourID,
	}

	now := time.Now()
	mock.ExpectQuery(`INSERT INTO bookings`).
		WithArgs(2, checkIn, checkIn.AddDate(0, 0, 7), models.BookingStatusPending, int64(11), tourID, nil, nil).
		WillReturnRows(sqlmock.NewRows([]string{"booking_id", "version", "created_at", "updated_at"}).
			AddRow(int64(100), 1, now, now))

	require.NoError(t, repo.Create(context.Background(), booking))
	assert.Equal(t, int64(100), booking.ID)
	assert.Equal(t, 1, booking.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateBookingStatus(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)
	ctx := context.Background()

	t.Run("Advances version", func(t *testing.T) {
		booking := &models.Booking{ID: 7, Status: models.BookingStatusPending, Version: 3}
		guideID := int64(4)
		checkOut := time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(models.BookingStatusConfirmed, false, guideID, int64(7), 3).
			WillReturnRows(sqlmock.NewRows([]string{"check_out_date", "user_id", "version", "updated_at"}).
				AddRow(checkOut, guideID, 4, time.Now()))

		require.NoError(t, repo.UpdateStatus(ctx, booking, models.BookingStatusConfirmed, &guideID))
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Equal(t, 4, booking.Version)
		require.NotNil(t, booking.UserID)
		assert.Equal(t, guideID, *booking.UserID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Closing status stamps check-out", func(t *testing.T) {
		booking := &models.Booking{ID: 7, Status: models.BookingStatusConfirmed, Version: 4}

		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(models.BookingStatusCancelled, true, nil, int64(7), 4).
			WillReturnRows(sqlmock.NewRows([]string{"check_out_date", "user_id", "version", "updated_at"}).
				AddRow(time.Now(), nil, 5, time.Now()))

		require.NoError(t, repo.UpdateStatus(ctx, booking, models.BookingStatusCancelled, nil))
		assert.Equal(t, models.BookingStatusCancelled, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Stale version", func(t *testing.T) {
		booking := &models.Booking{ID: 7, Status: models.BookingStatusPending, Version: 1}

		mock.ExpectQuery(`UPDATE bookings`).
			WithArgs(models.BookingStatusConfirmed, false, nil, int64(7), 1).
			WillReturnError(sql.ErrNoRows)

		err := repo.UpdateStatus(ctx, booking, models.BookingStatusConfirmed, nil)
		assert.ErrorIs(t, err, ErrVersionConflict)
		assert.Equal(t, models.BookingStatusPending, booking.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestListBookings(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	status := models.BookingStatusConfirmed
	start := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE status = \$1 AND check_in_date >= \$2 ORDER BY .* LIMIT \$3 OFFSET \$4`).
		WithArgs(status, start, 50, 0).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(
			int64(1), 2, start, start.AddDate(0, 0, 3), "confirmed",
			int64(3), nil, int64(4), nil, 2, time.Now(), time.Now(),
		))

	bookings, err := repo.List(context.Background(), models.BookingFilter{Status: &status, StartDate: &start})
	require.NoError(t, err)
	require.Len(t, bookings, 1)
	assert.Equal(t, models.BookingStatusConfirmed, bookings[0].Status)
	assert.Nil(t, bookings[0].TourID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBooking(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectExec(`DELETE FROM bookings WHERE booking_id = \$1`).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 404), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListHistory(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewBookingRepository(db)

	now := time.Now()
	actor := int64(9)
	mock.ExpectQuery(`FROM booking_status_history`).
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "from_status", "to_status", "acted_by", "created_at"}).
			AddRow(int64(1), int64(7), nil, "pending", nil, now).
			AddRow(int64(2), int64(7), "pending", "confirmed", actor, now))

	history, err := repo.ListHistory(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Nil(t, history[0].FromStatus)
	require.NotNil(t, history[1].FromStatus)
	assert.Equal(t, models.BookingStatusPending, *history[1].FromStatus)
	assert.Equal(t, models.BookingStatusConfirmed, history[1].ToStatus)
	require.NotNil(t, history[1].ActedBy)
	assert.Equal(t, actor, *history[1].ActedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReleaseBooking(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(`DELETE FROM assigned_guides WHERE booking_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM assigned_vehicles WHERE booking_id = \$1`).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	released, err := repo.ReleaseBooking(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, int64(1), released)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListGuideAssignments(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewAssignmentRepository(db)

	start := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM assigned_guides`).
		WithArgs(int64(41)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "booking_id", "start_date", "end_date"}).
			AddRow(int64(3), int64(41), int64(12), start, start.AddDate(0, 0, 4)))

	assignments, err := repo.ListGuideAssignments(context.Background(), 41)
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, int64(12), assignments[0].BookingID)
	assert.Equal(t, start.AddDate(0, 0, 4), assignments[0].EndDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentUpdate(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPaymentRepository(db)
	ctx := context.Background()

	update := models.PaymentUpdate{PaymentID: 8, From: models.PaymentStatusPending, To: models.PaymentStatusCompleted}

	t.Run("Success", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(models.PaymentStatusCompleted, int64(8), models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.ApplyUpdate(ctx, update))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Row changed underneath", func(t *testing.T) {
		mock.ExpectExec(`UPDATE payments`).
			WithArgs(models.PaymentStatusCompleted, int64(8), models.PaymentStatusPending).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ApplyUpdate(ctx, update)
		assert.ErrorContains(t, err, "no longer pending")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGuideResponseUpsert(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewGuideResponseRepository(db)
	ctx := context.Background()

	first := time.Now().Add(-time.Hour)
	second := time.Now()

	mock.ExpectQuery(`ON CONFLICT \(guide_id, booking_id\)\s+DO UPDATE SET sent_at = NOW\(\)`).
		WithArgs(int64(4), int64(9), nil).
		WillReturnRows(sqlmock.NewRows([]string{"status", "sent_at", "updated_at"}).AddRow(false, first, first))
	mock.ExpectQuery(`ON CONFLICT \(guide_id, booking_id\)\s+DO UPDATE SET sent_at = NOW\(\)`).
		WithArgs(int64(4), int64(9), nil).
		WillReturnRows(sqlmock.NewRows([]string{"status", "sent_at", "updated_at"}).AddRow(false, second, second))

	resp := &models.GuideResponse{GuideID: 4, BookingID: 9}
	require.NoError(t, repo.Upsert(ctx, resp))
	assert.Equal(t, first, resp.SentAt)

	require.NoError(t, repo.Upsert(ctx, resp))
	assert.Equal(t, second, resp.SentAt)
	assert.False(t, resp.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindPackagesByLinks(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewCatalogRepository(db)
	ctx := context.Background()

	t.Run("Empty links skip the query", func(t *testing.T) {
		packages, err := repo.FindPackagesByLinks(ctx, nil, []int64{1})
		require.NoError(t, err)
		assert.Empty(t, packages)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Cheapest first", func(t *testing.T) {
		mock.ExpectQuery(`ORDER BY price ASC, package_id ASC`).
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"package_id", "package_name", "price", "duration", "destination_id", "accommodation_id", "status",
			}).AddRow(int64(2), "Coast", 80.0, 3, int64(1), int64(1), "Active"))

		packages, err := repo.FindPackagesByLinks(ctx, []int64{1}, []int64{1})
		require.NoError(t, err)
		require.Len(t, packages, 1)
		assert.True(t, packages[0].HasDuration())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestIsConflict(t *testing.T) {
	exclusion := &pq.Error{Code: "23P01", Constraint: GuideOverlapConstraint}

	assert.True(t, IsConflict(exclusion, GuideOverlapConstraint))
	assert.True(t, IsConflict(exclusion, ""))
	assert.False(t, IsConflict(exclusion, VehicleOverlapConstraint))
	assert.True(t, IsConflict(&pq.Error{Code: "23505"}, ""))
	assert.False(t, IsConflict(&pq.Error{Code: "23503"}, ""))
	assert.False(t, IsConflict(sql.ErrNoRows, ""))
}

func TestReferenceField(t *testing.T) {
	field, ok := ReferenceField(fmt.Errorf("failed to record booking status change: %w",
		&pq.Error{Code: "23503", Constraint: "booking_status_history_acted_by_fkey"}))
	assert.True(t, ok)
	assert.Equal(t, "userId", field)

	field, ok = ReferenceField(&pq.Error{Code: "23503", Constraint: "some_other_fkey"})
	assert.True(t, ok)
	assert.Empty(t, field)

	_, ok = ReferenceField(&pq.Error{Code: "23505"})
	assert.False(t, ok)
	_, ok = ReferenceField(sql.ErrNoRows)
	assert.False(t, ok)
}
