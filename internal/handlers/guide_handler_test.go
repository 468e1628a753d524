package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shenal-anthony/TMS-sub000/internal/middleware"
	"github.com/shenal-anthony/TMS-sub000/internal/models"
	"github.com/shenal-anthony/TMS-sub000/internal/services"
	"github.com/shenal-anthony/TMS-sub000/pkg/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAssigner struct {
	err         error
	assignments []models.AssignedGuide

	bookingID int64
	guideID   int64
	vehicleID *int64
	actorID   *int64
}

func (s *stubAssigner) Assign(ctx context.Context, bookingID, guideID int64, vehicleID *int64, actorID *int64) (*models.AssignmentResult, error) {
	s.bookingID, s.guideID, s.vehicleID, s.actorID = bookingID, guideID, vehicleID, actorID
	if s.err != nil {
		return nil, s.err
	}
	return &models.AssignmentResult{
		BookingID: bookingID,
		GuideID:   guideID,
		VehicleID: vehicleID,
		StartDate: "2030-07-01",
		EndDate:   "2030-07-04",
		Status:    models.BookingStatusConfirmed,
	}, nil
}

func (s *stubAssigner) GuideAssignments(ctx context.Context, guideID int64) ([]models.AssignedGuide, error) {
	s.guideID = guideID
	return s.assignments, s.err
}

// stubNotifier records calls and streams from an in-process broker
type stubNotifier struct {
	broker *realtime.MemoryBroker
	err    error

	notified  models.NotifyGuideRequest
	responder int64
	accept    bool
	offers    []models.GuideOffer
}

func (s *stubNotifier) Notify(ctx context.Context, bookingID int64, req models.NotifyGuideRequest) (*models.GuideResponse, error) {
	s.notified = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.GuideResponse{GuideID: req.GuideID, BookingID: bookingID, VehicleID: req.VehicleID}, nil
}

func (s *stubNotifier) Respond(ctx context.Context, guideID, bookingID int64, accept bool) (*realtime.Event, error) {
	s.responder, s.accept = guideID, accept
	if s.err != nil {
		return nil, s.err
	}
	event := realtime.NewEvent(realtime.EventRequestAccepted, bookingID, guideID)
	event.Status = "submitted"
	return &event, nil
}

func (s *stubNotifier) PendingOffers(ctx context.Context, guideID int64) ([]models.GuideOffer, error) {
	s.responder = guideID
	return s.offers, s.err
}

func (s *stubNotifier) Stream(ctx context.Context, guideID int64) (*realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, realtime.GuideChannel(guideID))
}

func (s *stubNotifier) StreamAdmin(ctx context.Context) (*realtime.Subscription, error) {
	return s.broker.Subscribe(ctx, realtime.AdminChannel)
}

func setupGuideRouter(assigner *stubAssigner, notifier *stubNotifier, audit *recordingAudit) (*gin.Engine, *GuideHandler) {
	h := NewGuideHandler(assigner, notifier, audit, testResponder(), testLogger())

	router := gin.New()
	guides := router.Group("/api/guides")

	admin := guides.Group("", authenticated(middleware.RoleAdmin)...)
	admin.POST("/:bookingId/assign", h.Assign)
	admin.POST("/:bookingId/notify", h.Notify)
	admin.GET("/events/stream", h.StreamAdmin)

	guides.GET("/assignments", append(authenticated(middleware.RoleGuide), h.ListAssignments)...)

	guide := guides.Group("/requests", authenticated(middleware.RoleGuide)...)
	guide.GET("", h.ListRequests)
	guide.GET("/stream", h.Stream)
	guide.POST("/:bookingId/respond", h.Respond)

	return router, h
}

func TestGuideHandlerAssign(t *testing.T) {
	t.Run("Commits with vehicle", func(t *testing.T) {
		assigner := &stubAssigner{}
		audit := &recordingAudit{}
		router, _ := setupGuideRouter(assigner, &stubNotifier{}, audit)

		req := jsonRequest(t, http.MethodPost, "/api/guides/12/assign", models.AssignRequest{GuideID: 41, VehicleID: int64Ptr(5)})
		withStaff(t, req, 1, middleware.RoleAdmin)
		w := serve(router, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, int64(12), assigner.bookingID)
		assert.Equal(t, int64(41), assigner.guideID)
		assert.Equal(t, int64(5), *assigner.vehicleID)
		assert.Equal(t, int64(1), *assigner.actorID)
		assert.Contains(t, w.Body.String(), `"status":"confirmed"`)

		require.Len(t, audit.events, 1)
		assert.Equal(t, "guide_assigned", audit.events[0].Action)
		assert.Equal(t, int64(5), audit.events[0].Details["vehicle_id"])
	})

	errCases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"Guide busy", services.ErrGuideUnavailable, http.StatusBadRequest, "guide_unavailable"},
		{"Vehicle busy", services.ErrVehicleUnavailable, http.StatusBadRequest, "vehicle_unavailable"},
		{"No duration", services.ErrMissingPackageDuration, http.StatusBadRequest, "missing_package_duration"},
		{"Not pending", services.ErrBookingNotPending, http.StatusBadRequest, "invalid_transition"},
		{"Unknown guide", services.ErrGuideNotFound, http.StatusNotFound, "guide_not_found"},
	}
	for _, tc := range errCases {
		t.Run(tc.name, func(t *testing.T) {
			router, _ := setupGuideRouter(&stubAssigner{err: tc.err}, &stubNotifier{}, &recordingAudit{})

			req := jsonRequest(t, http.MethodPost, "/api/guides/12/assign", models.AssignRequest{GuideID: 41})
			withStaff(t, req, 1, middleware.RoleAdmin)
			w := serve(router, req)

			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, tc.wantCode, decodeError(t, w).Error)
		})
	}

	t.Run("Missing guide id", func(t *testing.T) {
		router, _ := setupGuideRouter(&stubAssigner{}, &stubNotifier{}, &recordingAudit{})

		req := jsonRequest(t, http.MethodPost, "/api/guides/12/assign", map[string]interface{}{"vehicleId": 5})
		withStaff(t, req, 1, middleware.RoleAdmin)
		w := serve(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "is required", decodeError(t, w).Fields["guideId"])
	})
}

func TestGuideHandlerNotify(t *testing.T) {
	notifier := &stubNotifier{}
	router, _ := setupGuideRouter(&stubAssigner{}, notifier, &recordingAudit{})

	req := jsonRequest(t, http.MethodPost, "/api/guides/12/notify", models.NotifyGuideRequest{GuideID: 41, VehicleID: int64Ptr(5)})
	withStaff(t, req, 1, middleware.RoleAdmin)
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(41), notifier.notified.GuideID)
	assert.Contains(t, w.Body.String(), `"vehicleId":5`)

	req = jsonRequest(t, http.MethodPost, "/api/guides/12/notify", models.NotifyGuideRequest{GuideID: 41})
	withStaff(t, req, 41, middleware.RoleGuide)
	w = serve(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGuideHandlerRespond(t *testing.T) {
	t.Run("Accept is queued", func(t *testing.T) {
		notifier := &stubNotifier{}
		router, _ := setupGuideRouter(&stubAssigner{}, notifier, &recordingAudit{})

		req := jsonRequest(t, http.MethodPost, "/api/guides/requests/12/respond", map[string]bool{"accept": true})
		withStaff(t, req, 41, middleware.RoleGuide)
		w := serve(router, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.Equal(t, int64(41), notifier.responder)
		assert.True(t, notifier.accept)
		assert.Contains(t, w.Body.String(), `"type":"request-accepted"`)
	})

	t.Run("Explicit reject", func(t *testing.T) {
		notifier := &stubNotifier{}
		router, _ := setupGuideRouter(&stubAssigner{}, notifier, &recordingAudit{})

		req := jsonRequest(t, http.MethodPost, "/api/guides/requests/12/respond", map[string]bool{"accept": false})
		withStaff(t, req, 41, middleware.RoleGuide)
		w := serve(router, req)

		assert.Equal(t, http.StatusAccepted, w.Code)
		assert.False(t, notifier.accept)
	})

	t.Run("Accept is required", func(t *testing.T) {
		router, _ := setupGuideRouter(&stubAssigner{}, &stubNotifier{}, &recordingAudit{})

		req := jsonRequest(t, http.MethodPost, "/api/guides/requests/12/respond", map[string]string{})
		withStaff(t, req, 41, middleware.RoleGuide)
		w := serve(router, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("No offer", func(t *testing.T) {
		router, _ := setupGuideRouter(&stubAssigner{}, &stubNotifier{err: services.ErrOfferNotFound}, &recordingAudit{})

		req := jsonRequest(t, http.MethodPost, "/api/guides/requests/12/respond", map[string]bool{"accept": true})
		withStaff(t, req, 41, middleware.RoleGuide)
		w := serve(router, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, "offer_not_found", decodeError(t, w).Error)
	})
}

func TestGuideHandlerListRequests(t *testing.T) {
	notifier := &stubNotifier{}
	router, _ := setupGuideRouter(&stubAssigner{}, notifier, &recordingAudit{})

	req := jsonRequest(t, http.MethodGet, "/api/guides/requests", nil)
	withStaff(t, req, 41, middleware.RoleGuide)
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(41), notifier.responder)
	assert.JSONEq(t, `{"requests":[]}`, w.Body.String())
}

func TestGuideHandlerListAssignments(t *testing.T) {
	start := time.Date(2030, 7, 1, 0, 0, 0, 0, time.UTC)
	assigner := &stubAssigner{assignments: []models.AssignedGuide{
		{ID: 3, GuideID: 41, BookingID: 12, StartDate: start, EndDate: start.AddDate(0, 0, 4)},
	}}
	router, _ := setupGuideRouter(assigner, &stubNotifier{}, &recordingAudit{})

	req := jsonRequest(t, http.MethodGet, "/api/guides/assignments", nil)
	withStaff(t, req, 41, middleware.RoleGuide)
	w := serve(router, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(41), assigner.guideID)
	assert.Contains(t, w.Body.String(), `"bookingId":12`)

	req = jsonRequest(t, http.MethodGet, "/api/guides/assignments", nil)
	withStaff(t, req, 1, middleware.RoleAdmin)
	w = serve(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestGuideHandlerStream(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	router, h := setupGuideRouter(&stubAssigner{}, &stubNotifier{broker: broker}, &recordingAudit{})
	h.heartbeat = time.Hour

	req := jsonRequest(t, http.MethodGet, "/api/guides/requests/stream", nil)
	withStaff(t, req, 41, middleware.RoleGuide)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(w, req)
	}()

	channel := realtime.GuideChannel(41)
	require.Eventually(t, func() bool { return broker.SubscriberCount(channel) == 1 }, time.Second, 5*time.Millisecond)

	event := realtime.NewEvent(realtime.EventNewRequest, 12, 41)
	require.NoError(t, broker.Publish(context.Background(), channel, event))
	require.NoError(t, broker.Close())

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the broker closed")
	}

	body := w.Body.String()
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"))
	assert.Contains(t, body, "event:ready")
	assert.Contains(t, body, "event:new-request")
	assert.Contains(t, body, `"bookingId":12`)
}

func TestGuideHandlerStreamClientDisconnect(t *testing.T) {
	broker := realtime.NewMemoryBroker()
	defer broker.Close()
	router, _ := setupGuideRouter(&stubAssigner{}, &stubNotifier{broker: broker}, &recordingAudit{})

	ctx, cancel := context.WithCancel(context.Background())
	req := jsonRequest(t, http.MethodGet, "/api/guides/events/stream", nil).WithContext(ctx)
	withStaff(t, req, 1, middleware.RoleAdmin)
	w := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(w, req)
	}()

	require.Eventually(t, func() bool { return broker.SubscriberCount(realtime.AdminChannel) == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not end after the client went away")
	}
	assert.Eventually(t, func() bool { return broker.SubscriberCount(realtime.AdminChannel) == 0 }, time.Second, 5*time.Millisecond)
}
