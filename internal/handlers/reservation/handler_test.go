package reservation

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"berth/infras/otel/mocks"
	"berth/internal/domains/reservation/model/dto"
	domainMocks "berth/internal/domains/reservation/mocks"
	"berth/shared/failure"
)

func newRouter(ctrl *gomock.Controller) (*chi.Mux, *domainMocks.MockReservationService) {
	service := domainMocks.NewMockReservationService(ctrl)
	handler := New(service, mocks.NewOtel())

	router := chi.NewRouter()
	router.Route("/v1", func(routerGroup chi.Router) {
		handler.Router(routerGroup)
	})

	return router, service
}

func TestApproveReservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("approves a pending reservation", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().Approve(gomock.Any(), "42").Return(nil)

		request := httptest.NewRequest(http.MethodPost, "/v1/reservations/42/approve", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("propagates a provider failure", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().Approve(gomock.Any(), "42").Return(failure.Upstream("scheduler: status 500: boom"))

		request := httptest.NewRequest(http.MethodPost, "/v1/reservations/42/approve", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadGateway, recorder.Code)
	})
}

func TestRejectReservation(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("passes the rejection reason through", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().
			Reject(gomock.Any(), "42", dto.ReasonRequest{Reason: "double booked"}).
			Return(nil)

		request := httptest.NewRequest(http.MethodPost, "/v1/reservations/42/reject", strings.NewReader(`{"reason":"double booked"}`))
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("accepts an empty body", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().Reject(gomock.Any(), "42", dto.ReasonRequest{}).Return(nil)

		request := httptest.NewRequest(http.MethodPost, "/v1/reservations/42/reject", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}

func TestGetSlotSummary(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("returns the live summary", func(t *testing.T) {
		router, service := newRouter(ctrl)

		capacity := 10
		free := 7
		service.EXPECT().SlotSummary(gomock.Any(), "slot-1").Return(dto.SlotSummaryResponse{
			SlotID:      "slot-1",
			Capacity:    &capacity,
			BookedCount: 3,
			FreeSeats:   &free,
		}, nil)

		request := httptest.NewRequest(http.MethodGet, "/v1/slots/slot-1/summary", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"booked_count":3`)
	})

	t.Run("returns not found for an unknown slot", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().SlotSummary(gomock.Any(), "ghost").Return(dto.SlotSummaryResponse{}, failure.NotFound("slot not found"))

		request := httptest.NewRequest(http.MethodGet, "/v1/slots/ghost/summary", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}

func TestGetSlotUsage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("splits and trims the ids parameter", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().
			PerSlotUsage(gomock.Any(), []string{"a", "b"}).
			Return(dto.SlotUsageResponse{Usage: map[string]int{"a": 2, "b": 0}}, nil)

		request := httptest.NewRequest(http.MethodGet, "/v1/slots/usage?ids=a,%20b,", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"b":0`)
	})

	t.Run("requires the ids parameter", func(t *testing.T) {
		router, _ := newRouter(ctrl)

		request := httptest.NewRequest(http.MethodGet, "/v1/slots/usage", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}

func TestGetReservations(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("rejects an unknown status filter", func(t *testing.T) {
		router, _ := newRouter(ctrl)

		request := httptest.NewRequest(http.MethodGet, "/v1/reservations?status=no_show", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("folds a status synonym before filtering", func(t *testing.T) {
		router, service := newRouter(ctrl)

		service.EXPECT().
			GetAll(gomock.Any(), gomock.Any(), gomock.Any()).
			Return(dto.GetReservationsResponse{}, nil)

		request := httptest.NewRequest(http.MethodGet, "/v1/reservations?status=confirmed", nil)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
	})
}
