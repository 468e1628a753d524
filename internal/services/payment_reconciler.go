package services

import (
	"fmt"

	"github.com/shenal-anthony/TMS-sub000/internal/models"
)

// ReconcilePath selects how payments follow a booking transition
type ReconcilePath string

const (
	// ReconcileAdvance is used for pending->confirmed and confirmed->finalized
	ReconcileAdvance ReconcilePath = "advance"
	// ReconcileCancel is used for any transition into cancelled
	ReconcileCancel ReconcilePath = "cancel"
)

// ReconcilePathFor returns the path used when a booking enters target
func ReconcilePathFor(target models.BookingStatus) ReconcilePath {
	if target == models.BookingStatusCancelled {
		return ReconcileCancel
	}
	return ReconcileAdvance
}

// ReconcilePayments plans the payment status changes for a booking transition.
//
// Valid shapes are no rows, one row, or a split pair {half_paid, pending} / {half_paid, completed}.
// Any other shape yields ErrInconsistentPaymentState and no updates; the caller must roll back.
func ReconcilePayments(payments []models.Payment, path ReconcilePath) ([]models.PaymentUpdate, error) {
	switch len(payments) {
	case 0:
		return nil, nil

	case 1:
		p := payments[0]
		if path == ReconcileAdvance {
			return nil, nil
		}
		if p.Status != models.PaymentStatusCompleted {
			return nil, fmt.Errorf("%w: single payment %d is %s, expected %s",
				ErrInconsistentPaymentState, p.ID, p.Status, models.PaymentStatusCompleted)
		}
		return []models.PaymentUpdate{refund(p)}, nil

	case 2:
		half, other, ok := splitPair(payments)
		if !ok {
			return nil, fmt.Errorf("%w: split payments are %s and %s",
				ErrInconsistentPaymentState, payments[0].Status, payments[1].Status)
		}

		switch {
		case path == ReconcileAdvance && other.Status == models.PaymentStatusPending:
			return []models.PaymentUpdate{{PaymentID: other.ID, From: other.Status, To: models.PaymentStatusCompleted}}, nil
		case path == ReconcileAdvance:
			return nil, nil
		case other.Status == models.PaymentStatusPending:
			return []models.PaymentUpdate{
				refund(half),
				{PaymentID: other.ID, From: other.Status, To: models.PaymentStatusCancelled},
			}, nil
		default:
			return []models.PaymentUpdate{refund(half), refund(other)}, nil
		}

	default:
		return nil, fmt.Errorf("%w: booking has %d payment rows", ErrInconsistentPaymentState, len(payments))
	}
}

// splitPair returns the half_paid row and its partner when the pair is a valid split
func splitPair(payments []models.Payment) (half, other models.Payment, ok bool) {
	a, b := payments[0], payments[1]
	if b.Status == models.PaymentStatusHalfPaid {
		a, b = b, a
	}
	if a.Status != models.PaymentStatusHalfPaid {
		return half, other, false
	}
	if b.Status != models.PaymentStatusPending && b.Status != models.PaymentStatusCompleted {
		return half, other, false
	}
	return a, b, true
}

func refund(p models.Payment) models.PaymentUpdate {
	return models.PaymentUpdate{PaymentID: p.ID, From: p.Status, To: models.PaymentStatusRefunded}
}
