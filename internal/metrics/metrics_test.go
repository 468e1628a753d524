package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordTransition(t *testing.T) {
	before := testutil.ToFloat64(BookingTransitionsTotal.WithLabelValues("pending", "confirmed", "ok"))
	RecordTransition("pending", "confirmed", "ok")
	after := testutil.ToFloat64(BookingTransitionsTotal.WithLabelValues("pending", "confirmed", "ok"))
	assert.Equal(t, before+1, after)
}

func TestRecordStaleOffersSwept(t *testing.T) {
	before := testutil.ToFloat64(StaleOffersSweptTotal)
	RecordStaleOffersSwept(3)
	assert.Equal(t, before+3, testutil.ToFloat64(StaleOffersSweptTotal))
}

func TestRecordHTTPRequest(t *testing.T) {
	RecordHTTPRequest("GET", "/health", "200", 0.01)
	assert.GreaterOrEqual(t, testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/health", "200")), 1.0)
	assert.GreaterOrEqual(t, testutil.CollectAndCount(HTTPRequestDuration), 1)
}
