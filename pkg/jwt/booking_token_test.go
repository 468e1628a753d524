package jwt

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBookingSecret = "test-booking-secret-key-for-testing-purposes"

func sampleDetails() BookingDetails {
	accommodation := int64(12)
	return BookingDetails{
		PackageID:       3,
		PackageName:     "Hill Country Explorer",
		Price:           240.5,
		Duration:        4,
		AccommodationID: &accommodation,
		StartDate:       "2025-07-01",
	}
}

func fixedIssuer(at time.Time) *BookingTokenIssuer {
	issuer := NewBookingTokenIssuer(testBookingSecret, time.Hour)
	issuer.now = func() time.Time { return at }
	return issuer
}

func TestBookingTokenIssueVerify(t *testing.T) {
	issuer := NewBookingTokenIssuer(testBookingSecret, time.Hour)
	details := sampleDetails()

	token, err := issuer.Issue(details)
	require.NoError(t, err)

	claims, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, details, claims.BookingDetails)
	assert.Nil(t, claims.Headcount)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 2*time.Second)
}

func TestBookingTokenAmend(t *testing.T) {
	issuedAt := time.Now().Add(-20 * time.Minute).Truncate(time.Second)
	issuer := fixedIssuer(issuedAt)

	token, err := issuer.Issue(sampleDetails())
	require.NoError(t, err)

	// the amendment happens later than the issue
	issuer.now = func() time.Time { return issuedAt.Add(15 * time.Minute) }

	t.Run("Merges headcount and keeps expiry", func(t *testing.T) {
		amended, claims, err := issuer.Amend(token, 3)
		require.NoError(t, err)
		require.NotNil(t, claims.Headcount)
		assert.Equal(t, 3, *claims.Headcount)

		verified, err := issuer.Verify(amended)
		require.NoError(t, err)
		require.NotNil(t, verified.Headcount)
		assert.Equal(t, 3, *verified.Headcount)
		assert.True(t, verified.ExpiresAt.Time.Equal(issuedAt.Add(time.Hour)))
		assert.True(t, verified.IssuedAt.Time.Equal(issuedAt))
		assert.Equal(t, sampleDetails().Price, verified.Price)
	})

	t.Run("Rejects zero headcount", func(t *testing.T) {
		_, _, err := issuer.Amend(token, 0)
		assert.Error(t, err)
	})

	t.Run("Cannot amend an expired token", func(t *testing.T) {
		issuer.now = func() time.Time { return issuedAt.Add(2 * time.Hour) }
		_, _, err := issuer.Amend(token, 2)
		assert.ErrorIs(t, err, ErrBookingTokenExpired)
	})
}

func TestBookingTokenVerifyFailures(t *testing.T) {
	issuer := NewBookingTokenIssuer(testBookingSecret, time.Hour)

	t.Run("Expired after two hours", func(t *testing.T) {
		old := fixedIssuer(time.Now().Add(-2 * time.Hour))
		token, err := old.Issue(sampleDetails())
		require.NoError(t, err)

		claims, err := issuer.Verify(token)
		assert.Nil(t, claims)
		assert.True(t, errors.Is(err, ErrBookingTokenExpired))
		assert.False(t, errors.Is(err, ErrInvalidBookingToken))
	})

	t.Run("Tampered payload", func(t *testing.T) {
		token, err := issuer.Issue(sampleDetails())
		require.NoError(t, err)

		parts := strings.Split(token, ".")
		require.Len(t, parts, 3)
		other, err := issuer.Issue(BookingDetails{PackageID: 3, Price: 1, StartDate: "2025-07-01"})
		require.NoError(t, err)
		parts[1] = strings.Split(other, ".")[1]

		_, err = issuer.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, ErrInvalidBookingToken)
	})

	t.Run("Wrong secret", func(t *testing.T) {
		other := NewBookingTokenIssuer("some-other-secret", time.Hour)
		token, err := other.Issue(sampleDetails())
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidBookingToken)
	})

	t.Run("Staff token is not a booking token", func(t *testing.T) {
		staff := NewService(testBookingSecret, testRefreshSecret, time.Hour, time.Hour)
		token, err := staff.GenerateAccessToken(1, "a@example.com", nil)
		require.NoError(t, err)

		_, err = issuer.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidBookingToken)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := issuer.Verify("")
		assert.ErrorIs(t, err, ErrInvalidBookingToken)
	})
}
