package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrBookingTokenExpired is returned when the booking token lifetime has passed
	ErrBookingTokenExpired = errors.New("booking token has expired")

	// ErrInvalidBookingToken is returned for malformed, tampered or wrongly signed tokens
	ErrInvalidBookingToken = errors.New("invalid booking token")
)

const bookingIssuer = "tms-booking"

// BookingDetails is the package configuration threaded through checkout.
// Price and duration are only ever read back from a verified token.
type BookingDetails struct {
	PackageID       int64   `json:"pkgId"`
	PackageName     string  `json:"pkgName"`
	Price           float64 `json:"price"`
	Duration        int     `json:"duration"`
	AccommodationID *int64  `json:"accommodationId,omitempty"`
	StartDate       string  `json:"startDate"`
	Headcount       *int    `json:"headcount,omitempty"`
}

// BookingClaims is the signed form of BookingDetails
type BookingClaims struct {
	BookingDetails
	jwt.RegisteredClaims
}

// BookingTokenIssuer mints, amends and verifies short-lived booking tokens
type BookingTokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewBookingTokenIssuer creates an issuer; ttl is normally one hour
func NewBookingTokenIssuer(secret string, ttl time.Duration) *BookingTokenIssuer {
	return &BookingTokenIssuer{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the lifetime of newly issued tokens
func (i *BookingTokenIssuer) TTL() time.Duration {
	return i.ttl
}

// Issue signs details with a fresh expiry of now + ttl
func (i *BookingTokenIssuer) Issue(details BookingDetails) (string, error) {
	now := i.now()
	return i.sign(BookingClaims{
		BookingDetails: details,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    bookingIssuer,
		},
	})
}

// Amend verifies the token and re-signs it with headcount merged in.
// The original issue and expiry timestamps are kept: amending never extends the lifetime.
func (i *BookingTokenIssuer) Amend(tokenString string, headcount int) (string, *BookingClaims, error) {
	claims, err := i.Verify(tokenString)
	if err != nil {
		return "", nil, err
	}
	if headcount < 1 {
		return "", nil, fmt.Errorf("headcount must be at least 1")
	}

	claims.Headcount = &headcount
	signed, err := i.sign(*claims)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// Verify returns the decoded claims or ErrBookingTokenExpired / ErrInvalidBookingToken
func (i *BookingTokenIssuer) Verify(tokenString string) (*BookingClaims, error) {
	if tokenString == "" {
		return nil, ErrInvalidBookingToken
	}

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(bookingIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &BookingClaims{}, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrBookingTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidBookingToken, err)
	}

	claims, ok := token.Claims.(*BookingClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidBookingToken
	}

	return claims, nil
}

func (i *BookingTokenIssuer) sign(claims BookingClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign booking token: %w", err)
	}
	return signed, nil
}
