package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPackageFinder struct {
	links    *models.TourLinks
	packages []models.Package
	err      error
}

func (s *stubPackageFinder) GetTourLinks(ctx context.Context, tourID int64) (*models.TourLinks, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.links == nil {
		return &models.TourLinks{TourID: tourID}, nil
	}
	return s.links, nil
}

func (s *stubPackageFinder) FindPackagesByLinks(ctx context.Context, d, a []int64) ([]models.Package, error) {
	return s.packages, nil
}

func intPtr(v int) *int       { return &v }
func int64Ptr(v int64) *int64 { return &v }

func TestTripWindowResolver(t *testing.T) {
	resolver := NewTripWindowResolver(3)
	ctx := context.Background()
	checkIn := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	withTour := &models.Booking{ID: 1, CheckInDate: checkIn, TourID: int64Ptr(2)}
	noTour := &models.Booking{ID: 2, CheckInDate: checkIn}

	t.Run("Uses package duration", func(t *testing.T) {
		finder := &stubPackageFinder{packages: []models.Package{
			{ID: 9, Price: 200, Duration: intPtr(6)},
			{ID: 4, Price: 120, Duration: intPtr(4)},
		}}

		for _, policy := range []WindowPolicy{WindowFallback, WindowStrict} {
			window, err := resolver.Resolve(ctx, finder, withTour, policy)
			require.NoError(t, err)
			assert.Equal(t, "2025-07-01", window.StartDate())
			assert.Equal(t, "2025-07-05", window.EndDate())
			assert.Equal(t, int64(4), *window.PackageID)
			assert.False(t, window.Fallback)
		}
	})

	t.Run("Fallback without tour", func(t *testing.T) {
		window, err := resolver.Resolve(ctx, &stubPackageFinder{}, noTour, WindowFallback)
		require.NoError(t, err)
		assert.Equal(t, "2025-07-04", window.EndDate())
		assert.True(t, window.Fallback)
		assert.Nil(t, window.PackageID)
	})

	t.Run("Fallback when package lacks duration", func(t *testing.T) {
		finder := &stubPackageFinder{packages: []models.Package{{ID: 3, Price: 10}}}
		window, err := resolver.Resolve(ctx, finder, withTour, WindowFallback)
		require.NoError(t, err)
		assert.True(t, window.Fallback)
		assert.Equal(t, int64(3), *window.PackageID)
	})

	t.Run("Strict refuses to guess", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, &stubPackageFinder{}, noTour, WindowStrict)
		assert.ErrorIs(t, err, ErrMissingPackageDuration)

		finder := &stubPackageFinder{packages: []models.Package{{ID: 3, Price: 10}}}
		_, err = resolver.Resolve(ctx, finder, withTour, WindowStrict)
		assert.ErrorIs(t, err, ErrMissingPackageDuration)
	})

	t.Run("Lookup errors propagate", func(t *testing.T) {
		_, err := resolver.Resolve(ctx, &stubPackageFinder{err: fmt.Errorf("db down")}, withTour, WindowFallback)
		assert.EqualError(t, err, "db down")
	})
}

func TestSelectRepresentativePackage(t *testing.T) {
	assert.Nil(t, SelectRepresentativePackage(nil))

	picked := SelectRepresentativePackage([]models.Package{
		{ID: 7, Price: 100},
		{ID: 5, Price: 100},
		{ID: 2, Price: 150},
	})
	require.NotNil(t, picked)
	assert.Equal(t, int64(5), picked.ID)
}

func TestWindowsOverlapMatchesSQLPredicate(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	day := func(n int) time.Time { return base.AddDate(0, 0, n) }

	// exhaustive over small windows: overlap iff some day lies in both inclusive ranges
	for aStart := 0; aStart < 6; aStart++ {
		for aLen := 0; aLen < 4; aLen++ {
			for bStart := 0; bStart < 6; bStart++ {
				for bLen := 0; bLen < 4; bLen++ {
					shared := false
					for d := aStart; d <= aStart+aLen; d++ {
						if d >= bStart && d <= bStart+bLen {
							shared = true
						}
					}
					got := models.WindowsOverlap(day(aStart), day(aStart+aLen), day(bStart), day(bStart+bLen))
					assert.Equal(t, shared, got, "a=[%d,%d] b=[%d,%d]", aStart, aStart+aLen, bStart, bStart+bLen)
				}
			}
		}
	}
}
