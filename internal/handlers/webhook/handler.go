package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"berth/config"
	"berth/infras/otel"
	"berth/internal/domains/reservation/model/dto"
	"berth/internal/domains/reservation/service"
	"berth/shared/constant"
	"berth/shared/failure"
	"berth/shared/validator"
	"berth/transport/http/response"
)

type Handler struct {
	service service.Reservation
	cfg     *config.Config
	otel    otel.Otel
}

func New(service service.Reservation, cfg *config.Config, otel otel.Otel) Handler {
	return Handler{
		service: service,
		cfg:     cfg,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/webhooks", func(routerGroup chi.Router) {
		routerGroup.Post("/scheduler", handler.HandleSchedulerEvent)
	})
}

// HandleSchedulerEvent ingests a reservation event pushed by the scheduling
// provider and reconciles it into the ledger.
// @Summary Ingest a scheduler webhook event
// @Description Verify the delivery signature and apply the provider's reservation state to the ledger. Replayed deliveries converge on the same row.
// @Tags Webhook
// @Accept json
// @Produce json
// @Param X-Scheduler-Signature header string true "Hex HMAC-SHA256 of the request body"
// @Param request body dto.ProviderEventRequest true "Provider reservation event"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reconciled reservation"
// @Failure 400 {object} response.Error
// @Failure 401 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/webhooks/scheduler [post]
func (handler *Handler) HandleSchedulerEvent(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".HandleSchedulerEvent")
	defer scope.End()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to read webhook body")

		response.WithError(w, failure.BadRequestFromString("failed to read request body"))

		return
	}

	if !handler.verifySignature(body, r.Header.Get(constant.RequestHeaderWebhookSignature)) {
		log.Warn().Msg("webhook delivery with invalid signature rejected")

		response.WithError(w, failure.Unauthorized("invalid webhook signature"))

		return
	}

	req := dto.ProviderEventRequest{}
	if err = json.Unmarshal(body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to decode webhook body")

		response.WithError(w, failure.BadRequestFromString("malformed webhook payload"))

		return
	}

	if err = validator.ValidateStruct(&req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate webhook payload")

		response.WithError(w, err)

		return
	}

	// The full delivery is kept as the event's raw payload unless the
	// provider nested one explicitly.
	if req.Raw == nil {
		raw := map[string]any{}
		if err = json.Unmarshal(body, &raw); err == nil {
			req.Raw = raw
		}
	}

	reservation, err := handler.service.ApplyProviderEvent(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to apply provider event")

		response.WithError(w, err)

		return
	}

	scope.AddEvent("Provider event reconciled for reservation " + req.ProviderReservationID)

	response.WithJSON(w, http.StatusOK, reservation)
}

func (handler *Handler) verifySignature(body []byte, signature string) bool {
	secret := handler.cfg.External.Scheduler.WebhookSecret
	if secret == constant.Empty {
		return true
	}

	if signature == constant.Empty {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)

	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
