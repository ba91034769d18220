package reservation

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"berth/infras/otel"
	"berth/internal/domains/reservation/model"
	"berth/internal/domains/reservation/model/dto"
	"berth/internal/domains/reservation/service"
	"berth/shared"
	"berth/shared/constant"
	gDto "berth/shared/dto"
	"berth/shared/failure"
	"berth/shared/validator"
	"berth/transport/http/response"
)

type Handler struct {
	service service.Reservation
	otel    otel.Otel
}

func New(service service.Reservation, otel otel.Otel) Handler {
	return Handler{
		service: service,
		otel:    otel,
	}
}

func (handler *Handler) Router(router chi.Router) {
	router.Route("/reservations", func(routerGroup chi.Router) {
		routerGroup.Get("/", handler.GetReservations)
		routerGroup.Get("/my", handler.GetMyReservations)
		routerGroup.Get("/{id}", handler.GetReservationByID)
		routerGroup.Post("/{id}/approve", handler.ApproveReservation)
		routerGroup.Post("/{id}/reject", handler.RejectReservation)
		routerGroup.Post("/{id}/cancel", handler.CancelReservation)
	})

	router.Route("/slots", func(routerGroup chi.Router) {
		routerGroup.Get("/usage", handler.GetSlotUsage)
		routerGroup.Get("/{slotId}/summary", handler.GetSlotSummary)
		routerGroup.Get("/{slotId}/reservations", handler.GetSlotReservations)
	})
}

// GetReservations retrieves all reservations based on query parameters.
// @Summary Get all reservations
// @Description Retrieve all reservations with optional filtering and pagination.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param pagination query gDto.QueryParams false "Pagination parameters"
// @Param slot_id query string false "Filter by slot ID"
// @Param status query string false "Filter by status (pending, accepted, rejected, cancelled)"
// @Success 200 {object} response.Data[dto.GetReservationsResponse] "List of reservations"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations [get]
// @Security BearerAuth
func (handler *Handler) GetReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservations")
	defer scope.End()

	queryParams := gDto.QueryParams{}
	queryParams.FromRequest(r, true)

	filterGroup := gDto.FilterGroup{
		Operator: gDto.FilterGroupOperatorAnd,
		Filters:  []any{},
	}

	if slotID := r.URL.Query().Get(model.FieldSlotID); slotID != "" {
		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldSlotID,
			Operator: gDto.FilterOperatorEq,
			Value:    slotID,
			Table:    model.TableName,
		})
	}

	if status := r.URL.Query().Get(model.FieldStatus); status != "" {
		parsed, ok := model.ParseStatus(status)
		if !ok {
			response.WithError(w, failure.BadRequestFromString("unknown status filter"))

			return
		}

		filterGroup.Filters = append(filterGroup.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Operator: gDto.FilterOperatorEq,
			Value:    parsed,
			Table:    model.TableName,
		})
	}

	reservations, err := handler.service.GetAll(ctx, queryParams, filterGroup)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservations")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, reservations)
}

// GetMyReservations retrieves the reservations of the calling registrant.
// @Summary Get my reservations
// @Description Retrieve all reservations belonging to the calling registrant.
// @Tags Reservation
// @Accept json
// @Produce json
// @Success 200 {object} response.Data[[]dto.ReservationResponse] "List of the caller's reservations"
// @Failure 401 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/my [get]
// @Security BearerAuth
func (handler *Handler) GetMyReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetMyReservations")
	defer scope.End()

	userID, ok := ctx.Value(constant.ContextKeyUserID).(string)
	if !ok || userID == constant.Empty {
		log.Error().Msg("failed to get user ID from context")
		response.WithError(w, failure.Unauthorized("unauthorized"))

		return
	}

	reservations, err := handler.service.ListByRegistrant(ctx, userID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get user reservations")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, reservations)
}

// GetReservationByID retrieves a reservation by its ID.
// @Summary Get a reservation by ID
// @Description Retrieve a reservation by its unique identifier.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Data[dto.ReservationResponse] "Reservation details"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/reservations/{id} [get]
// @Security BearerAuth
func (handler *Handler) GetReservationByID(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetReservationByID")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	reservation, err := handler.service.Get(ctx, id)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get reservation by ID")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, reservation)
}

// ApproveReservation confirms a pending reservation with the provider.
// @Summary Approve a reservation
// @Description Confirm a pending reservation upstream and mark it accepted.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Success 200 {object} response.Message "Reservation approved successfully"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 422 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/reservations/{id}/approve [post]
// @Security BearerAuth
func (handler *Handler) ApproveReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".ApproveReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	if err := handler.service.Approve(ctx, id); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to approve reservation")

		response.WithError(w, err)

		return
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	scope.AddEvent("Reservation approved successfully by user " + user)

	response.WithMessage(w, http.StatusOK, "Reservation approved successfully")
}

// RejectReservation declines a pending reservation with the provider.
// @Summary Reject a reservation
// @Description Decline a pending reservation upstream and mark it rejected.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.ReasonRequest false "Optional rejection reason"
// @Success 200 {object} response.Message "Reservation rejected successfully"
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/reservations/{id}/reject [post]
// @Security BearerAuth
func (handler *Handler) RejectReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".RejectReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req, err := optionalReason(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.Reject(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to reject reservation")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Reservation rejected successfully")
}

// CancelReservation cancels a reservation on behalf of its owner.
// @Summary Cancel a reservation
// @Description Cancel an active reservation owned by the caller. The seat stays occupied if the provider call fails.
// @Tags Reservation
// @Accept json
// @Produce json
// @Param id path string true "Reservation ID"
// @Param request body dto.ReasonRequest false "Optional cancellation reason"
// @Success 200 {object} response.Message "Reservation cancelled successfully"
// @Failure 403 {object} response.Error
// @Failure 404 {object} response.Error
// @Failure 409 {object} response.Error
// @Failure 502 {object} response.Error
// @Router /v1/reservations/{id}/cancel [post]
// @Security BearerAuth
func (handler *Handler) CancelReservation(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".CancelReservation")
	defer scope.End()

	id := chi.URLParam(r, constant.RequestParamID)

	req, err := optionalReason(r)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to validate request body")

		response.WithError(w, err)

		return
	}

	if err := handler.service.CancelByOwner(ctx, id, req); err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to cancel reservation")

		response.WithError(w, err)

		return
	}

	response.WithMessage(w, http.StatusOK, "Reservation cancelled successfully")
}

// GetSlotSummary returns the live seat summary for one slot.
// @Summary Get slot capacity summary
// @Description Recompute capacity, booked count and free seats for a slot from the current ledger.
// @Tags Slot
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Success 200 {object} response.Data[dto.SlotSummaryResponse] "Slot capacity summary"
// @Failure 404 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/slots/{slotId}/summary [get]
func (handler *Handler) GetSlotSummary(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotSummary")
	defer scope.End()

	slotID := chi.URLParam(r, constant.RequestParamSlotID)

	summary, err := handler.service.SlotSummary(ctx, slotID)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot summary")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, summary)
}

// GetSlotUsage returns booked counts for a set of slots.
// @Summary Get per-slot usage
// @Description Return the active reservation count per slot for calendar views. Slots without reservations report zero.
// @Tags Slot
// @Accept json
// @Produce json
// @Param ids query string true "Comma-separated slot IDs"
// @Success 200 {object} response.Data[dto.SlotUsageResponse] "Booked count per slot"
// @Failure 400 {object} response.Error
// @Failure 500 {object} response.Error
// @Router /v1/slots/usage [get]
func (handler *Handler) GetSlotUsage(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotUsage")
	defer scope.End()

	ids := strings.Split(r.URL.Query().Get(constant.RequestParamIDs), ",")

	slotIDs := make([]string, 0, len(ids))

	for _, id := range ids {
		if trimmed := strings.TrimSpace(id); trimmed != "" {
			slotIDs = append(slotIDs, trimmed)
		}
	}

	if len(slotIDs) == 0 {
		response.WithError(w, failure.BadRequestFromString("ids query parameter is required"))

		return
	}

	usage, err := handler.service.PerSlotUsage(ctx, slotIDs)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot usage")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, usage)
}

// GetSlotReservations lists the reservations of one slot.
// @Summary List slot reservations
// @Description List the reservations of a slot, optionally restricted to seat-occupying statuses.
// @Tags Slot
// @Accept json
// @Produce json
// @Param slotId path string true "Slot ID"
// @Param active query bool false "Only seat-occupying reservations"
// @Success 200 {object} response.Data[[]dto.ReservationResponse] "Reservations for the slot"
// @Failure 500 {object} response.Error
// @Router /v1/slots/{slotId}/reservations [get]
// @Security BearerAuth
func (handler *Handler) GetSlotReservations(w http.ResponseWriter, r *http.Request) {
	ctx, scope := handler.otel.NewScope(r.Context(), constant.OtelHandlerScopeName, constant.OtelHandlerScopeName+".GetSlotReservations")
	defer scope.End()

	slotID := chi.URLParam(r, constant.RequestParamSlotID)

	activeOnly := false
	if active := shared.ConvertStringToBool(r.URL.Query().Get("active")); active != nil {
		activeOnly = *active
	}

	reservations, err := handler.service.ListBySlot(ctx, slotID, activeOnly)
	if err != nil {
		scope.TraceError(err)
		log.Error().Err(err).Msg("failed to get slot reservations")

		response.WithError(w, err)

		return
	}

	response.WithJSON(w, http.StatusOK, reservations)
}

func optionalReason(r *http.Request) (dto.ReasonRequest, error) {
	req := dto.ReasonRequest{}

	if r.ContentLength <= 0 {
		return req, nil
	}

	if err := validator.Validate(r.Body, &req); err != nil {
		return req, err // nolint:wrapcheck
	}

	return req, nil
}
