package webhook

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"berth/config"
	"berth/infras/otel/mocks"
	"berth/internal/domains/reservation/model/dto"
	domainMocks "berth/internal/domains/reservation/mocks"
	"berth/shared/constant"
)

const testWebhookSecret = "webhook-secret"

func sign(body []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(body)

	return hex.EncodeToString(mac.Sum(nil))
}

func newHandler(ctrl *gomock.Controller) (Handler, *domainMocks.MockReservationService) {
	service := domainMocks.NewMockReservationService(ctrl)

	cfg := &config.Config{}
	cfg.External.Scheduler.WebhookSecret = testWebhookSecret

	return New(service, cfg, mocks.NewOtel()), service
}

func TestHandleSchedulerEvent(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	t.Run("applies a signed event", func(t *testing.T) {
		handler, service := newHandler(ctrl)

		body, err := json.Marshal(map[string]any{
			"provider_reservation_id": "uid-123",
			"slot_id":                 "slot-1",
			"status":                  "confirmed",
		})
		require.NoError(t, err)

		service.EXPECT().
			ApplyProviderEvent(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ any, req dto.ProviderEventRequest) (dto.ReservationResponse, error) {
				assert.Equal(t, "uid-123", req.ProviderReservationID)
				assert.Equal(t, "slot-1", req.SlotID)
				assert.Equal(t, "confirmed", req.Status)
				assert.Equal(t, "slot-1", req.Raw["slot_id"])

				return dto.ReservationResponse{ProviderReservationID: "uid-123"}, nil
			})

		request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/scheduler", bytes.NewReader(body))
		request.Header.Set(constant.RequestHeaderWebhookSignature, sign(body))

		recorder := httptest.NewRecorder()
		handler.HandleSchedulerEvent(recorder, request)

		assert.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "uid-123")
	})

	t.Run("rejects a tampered body", func(t *testing.T) {
		handler, _ := newHandler(ctrl)

		body := []byte(`{"provider_reservation_id":"uid-123"}`)

		request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/scheduler", bytes.NewReader([]byte(`{"provider_reservation_id":"uid-666"}`)))
		request.Header.Set(constant.RequestHeaderWebhookSignature, sign(body))

		recorder := httptest.NewRecorder()
		handler.HandleSchedulerEvent(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a missing signature", func(t *testing.T) {
		handler, _ := newHandler(ctrl)

		request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/scheduler", bytes.NewReader([]byte(`{"provider_reservation_id":"uid-123"}`)))

		recorder := httptest.NewRecorder()
		handler.HandleSchedulerEvent(recorder, request)

		assert.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("rejects a payload without the provider identifier", func(t *testing.T) {
		handler, _ := newHandler(ctrl)

		body := []byte(`{"status":"confirmed"}`)

		request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/scheduler", bytes.NewReader(body))
		request.Header.Set(constant.RequestHeaderWebhookSignature, sign(body))

		recorder := httptest.NewRecorder()
		handler.HandleSchedulerEvent(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		handler, _ := newHandler(ctrl)

		body := []byte(`{"provider_reservation_id":`)

		request := httptest.NewRequest(http.MethodPost, "/v1/webhooks/scheduler", bytes.NewReader(body))
		request.Header.Set(constant.RequestHeaderWebhookSignature, sign(body))

		recorder := httptest.NewRecorder()
		handler.HandleSchedulerEvent(recorder, request)

		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})
}
