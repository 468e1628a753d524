package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/shenal-anthony/TMS-sub000/internal/database"
	"github.com/shenal-anthony/TMS-sub000/internal/metrics"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// PackageReader loads a live package record
type PackageReader interface {
	GetPackage(ctx context.Context, id int64) (*models.Package, error)
}

// BookingTokenService issues booking tokens for live packages and rejects tokens
// whose price or duration no longer match the package
type BookingTokenService struct {
	issuer   *jwt.BookingTokenIssuer
	packages PackageReader
	logger   *logrus.Logger
	now      func() time.Time
}

// NewBookingTokenService creates a new BookingTokenService
func NewBookingTokenService(issuer *jwt.BookingTokenIssuer, packages PackageReader, logger *logrus.Logger) *BookingTokenService {
	return &BookingTokenService{
		issuer:   issuer,
		packages: packages,
		logger:   logger,
		now:      time.Now,
	}
}

// CheckAvailability reserves a slot for packageID starting on startDate and returns a token
func (s *BookingTokenService) CheckAvailability(ctx context.Context, packageID int64, startDate string) (string, *jwt.BookingDetails, error) {
	start, err := models.ParseDate(startDate)
	if err != nil {
		return "", nil, ErrInvalidDate
	}
	if start.Before(models.TruncateToDate(s.now())) {
		return "", nil, ErrStartDateInPast
	}

	pkg, err := s.packages.GetPackage(ctx, packageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return "", nil, ErrPackageNotFound
		}
		return "", nil, fmt.Errorf("failed to load package: %w", err)
	}
	if pkg.Status != models.PackageStatusActive {
		return "", nil, ErrPackageInactive
	}

	details := jwt.BookingDetails{
		PackageID:       pkg.ID,
		PackageName:     pkg.Name,
		Price:           pkg.Price,
		Duration:        packageDuration(pkg),
		AccommodationID: pkg.AccommodationID,
		StartDate:       start.Format(models.DateLayout),
	}

	token, err := s.issuer.Issue(details)
	if err != nil {
		metrics.RecordBookingToken("issue", "error")
		return "", nil, err
	}

	metrics.RecordBookingToken("issue", "ok")
	s.logger.WithFields(logrus.Fields{
		"package_id": pkg.ID,
		"start_date": details.StartDate,
	}).Info("Booking token issued")

	return token, &details, nil
}

// VerifyOrAmend checks the token against the live package. With a headcount the token is
// re-signed carrying it, keeping the original expiry.
func (s *BookingTokenService) VerifyOrAmend(ctx context.Context, token string, headcount *int) (string, *jwt.BookingClaims, error) {
	claims, _, err := s.Resolve(ctx, token)
	if err != nil {
		metrics.RecordBookingToken("verify", tokenResult(err))
		return "", nil, err
	}

	if headcount == nil {
		metrics.RecordBookingToken("verify", "ok")
		return token, claims, nil
	}

	amended, amendedClaims, err := s.issuer.Amend(token, *headcount)
	if err != nil {
		metrics.RecordBookingToken("amend", tokenResult(err))
		return "", nil, err
	}

	metrics.RecordBookingToken("amend", "ok")
	s.logger.WithFields(logrus.Fields{
		"package_id": amendedClaims.PackageID,
		"headcount":  *headcount,
	}).Info("Booking token amended")

	return amended, amendedClaims, nil
}

// Resolve verifies the token and returns its claims with the live package
func (s *BookingTokenService) Resolve(ctx context.Context, token string) (*jwt.BookingClaims, *models.Package, error) {
	claims, err := s.issuer.Verify(token)
	if err != nil {
		return nil, nil, err
	}

	pkg, err := s.packages.GetPackage(ctx, claims.PackageID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, nil, ErrStaleBookingToken
		}
		return nil, nil, fmt.Errorf("failed to load package: %w", err)
	}

	if !samePrice(pkg.Price, claims.Price) || packageDuration(pkg) != claims.Duration {
		s.logger.WithFields(logrus.Fields{
			"package_id":     pkg.ID,
			"token_price":    claims.Price,
			"package_price":  pkg.Price,
			"token_duration": claims.Duration,
		}).Warn("Stale booking token rejected")
		return nil, nil, ErrStaleBookingToken
	}

	return claims, pkg, nil
}

func packageDuration(pkg *models.Package) int {
	if pkg.Duration == nil {
		return 0
	}
	return *pkg.Duration
}

func samePrice(a, b float64) bool {
	return math.Abs(a-b) < 0.005
}

func tokenResult(err error) string {
	switch {
	case errors.Is(err, jwt.ErrBookingTokenExpired):
		return "expired"
	case errors.Is(err, jwt.ErrInvalidBookingToken):
		return "invalid"
	case errors.Is(err, ErrStaleBookingToken):
		return "stale"
	default:
		return "error"
	}
}
