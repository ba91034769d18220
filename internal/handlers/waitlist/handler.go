package waitlist

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"berth/infras/otel"
	"berth/internal/domains/waitlist/model/dto"
	"berth/internal/domains/waitlist/service"
	"berth/shared/constant"
	"berth/shared/validator"
	"berth/transport/http/response"
)

type Handler struct {
	service service.Waitlist
	otel    otel.Otel
}

func New(service service.Waitlist, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/waitlist", func(routerGroup chi.Router) {
		routerGroup.Post("/", handler.JoinWaitlist)
		routerGroup.Get("/slots/{slotId}", handler.GetSlotWaitlist)
		routerGroup.Post("/{id}/promote", handler.PromoteWaitlistEntry)
		routerGroup.Post("/{id}/cancel", handler.CancelWaitlistEntry)
	})
}

// JoinWaitlist adds the caller to a slot's waitlist.
// @Summary Join a waitlist
// @Description Add an attendee to a full slot's waitlist. Joining twice with the same identity returns the existing entry.
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param request body dto.JoinWaitlistRequest true "Waitlist entry data"
// @Success 200 {object} response.Data[dto.JoinWaitlistResponse] "Waitlist entry"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/waitlist [post]
// @Security BearerAuth
func (handler *Handler) JoinWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".JoinWaitlist")
	defer scope.End()

	req := dto.JoinWaitlistRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if req.RegistrantID == constant.Empty {
		if userID, ok := ctx.Value(constant.ContextKeyUserID).(string); ok {
			req.RegistrantID = userID
		}
	}

	entry, err := handler.service.Join(ctx, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to join waitlist")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, entry)
}

// GetSlotWaitlist lists the waitlist of one slot.
// @Summary List a slot's waitlist
// @Description List a slot's waitlist entries in join order, with per-status counts.
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Success 200 {object} response.Data[dto.GetWaitlistResponse] "Waitlist entries and counts"
// @Failure 500 {object} response.Error
// @Router /v1/waitlist/slots/{slotId} [get]
// @Security BearerAuth
func (handler *Handler) GetSlotWaitlist(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotWaitlist")
	defer scope.End()

	slotID := chi.URLParam(r, constant.RequestParamSlotID)

	waitlist, err := handler.service.ListBySlot(ctx, slotID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot waitlist")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, waitlist)
}

// PromoteWaitlistEntry books a reservation for a waiting entry.
// @Summary Promote a waitlist entry
// @Description Create a provider reservation for a waiting entry and record it against the slot's capacity.
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param id path string true "Waitlist entry ID"
// @Param request body dto.PromoteWaitlistRequest true "Promotion slot times"
// @Success 200 {object} response.Data[reservationDto.ReservationResponse] "Created reservation"
// @Failure 400 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/waitlist/{id}/promote [post]
// @Security BearerAuth
func (handler *Handler) PromoteWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".PromoteWaitlistEntry")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req := dto.PromoteWaitlistRequest{}
	if err := validator.Validate(r.Body, &req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	reservation, err := handler.service.Promote(ctx, id, req)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to promote waitlist entry")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Waitlist entry promoted by user " + user)

	response.WithJSON(w, http.StatusOK, reservation)
}

// CancelWaitlistEntry removes a waiting entry.
// @Summary Cancel a waitlist entry
// @Description Cancel a waiting entry. Cancelling an already cancelled entry is a no-op.
// @Tags Waitlist
// @Accept json
// @Produce json
// @Param id path string true "Waitlist entry ID"
// @Success 200 {object} response.Message "Waitlist entry cancelled successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Router /v1/waitlist/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelWaitlistEntry(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelWaitlistEntry")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Cancel(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel waitlist entry")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Waitlist entry cancelled successfully")
}
