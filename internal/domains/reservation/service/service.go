package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Reservation=MockReservationService

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"berth/config"
	"berth/infras/kafka"
	"berth/infras/otel"
	s3Infra "berth/infras/s3"
	"berth/infras/scheduler"
	catalogModel "berth/internal/domains/catalog/model"
	catalogRepo "berth/internal/domains/catalog/repository"
	"berth/internal/domains/reservation/model"
	"berth/internal/domains/reservation/model/dto"
	"berth/internal/domains/reservation/repository"
	"berth/shared"
	"berth/shared/cache"
	"berth/shared/constant"
	gDto "berth/shared/dto"
	"berth/shared/failure"
	"berth/shared/timezone"
)

const (
	cacheGetReservation    = "reservation:get"
	cacheGetAllReservation = "reservation:gets"
)

type Reservation interface {
	Approve(ctx context.Context, id string) error
	Reject(ctx context.Context, id string, req dto.ReasonRequest) error
	CancelByOwner(ctx context.Context, id string, req dto.ReasonRequest) error
	Get(ctx context.Context, id string) (dto.ReservationResponse, error)
	GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (dto.GetReservationsResponse, error)
	ListBySlot(ctx context.Context, slotID string, activeOnly bool) ([]dto.ReservationResponse, error)
	ListByRegistrant(ctx context.Context, registrantID string) ([]dto.ReservationResponse, error)
	SlotSummary(ctx context.Context, slotID string) (dto.SlotSummaryResponse, error)
	PerSlotUsage(ctx context.Context, slotIDs []string) (dto.SlotUsageResponse, error)
	ApplyProviderEvent(ctx context.Context, req dto.ProviderEventRequest) (dto.ReservationResponse, error)
}

type serviceImpl struct {
	repo        repository.Reservation
	catalogRepo catalogRepo.Catalog
	scheduler   scheduler.Scheduler
	kafka       kafka.Client
	s3          s3Infra.S3
	cfg         *config.Config
	cache       cache.RedisCache
	otel        otel.Otel
}

func New(
	repo repository.Reservation,
	catalogRepo catalogRepo.Catalog,
	schedulerClient scheduler.Scheduler,
	kafkaClient kafka.Client,
	s3Client s3Infra.S3,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Reservation {
	return &serviceImpl{
		repo:        repo,
		catalogRepo: catalogRepo,
		scheduler:   schedulerClient,
		kafka:       kafkaClient,
		s3:          s3Client,
		cfg:         cfg,
		cache:       cache,
		otel:        otel,
	}
}

// Approve confirms a pending reservation upstream, then records the accepted
// status locally. The local write only happens after the provider confirmed;
// a failed provider call leaves the stored status untouched.
func (s *serviceImpl) Approve(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Approve")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation, err := s.loadForTransition(ctx, id, model.StatusAccepted)
	if err != nil {
		return err
	}

	if err = s.scheduler.ConfirmReservation(ctx, reservation.ProviderReservationID); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to confirm reservation upstream")

		return providerFailure(err)
	}

	return s.applyTransition(ctx, reservation, model.StatusAccepted)
}

// Reject declines a pending reservation upstream, then records rejected.
func (s *serviceImpl) Reject(ctx context.Context, id string, req dto.ReasonRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Reject")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation, err := s.loadForTransition(ctx, id, model.StatusRejected)
	if err != nil {
		return err
	}

	if err = s.scheduler.DeclineReservation(ctx, reservation.ProviderReservationID, req.Reason); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to decline reservation upstream")

		return providerFailure(err)
	}

	return s.applyTransition(ctx, reservation, model.StatusRejected)
}

// CancelByOwner cancels an active reservation on behalf of its registrant.
// If the provider call fails the seat stays counted as occupied; releasing
// it before the provider confirmed would allow the same seat to be handed
// out twice.
func (s *serviceImpl) CancelByOwner(ctx context.Context, id string, req dto.ReasonRequest) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".CancelByOwner")
	defer scope.End()
	defer scope.TraceIfError(err)

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get reservation")

		return fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	if !isOwner(ctx, reservation) {
		return failure.Forbidden("reservation belongs to another registrant") // nolint:wrapcheck
	}

	if !reservation.Status.IsActive() {
		return failure.InvalidState(fmt.Sprintf("cannot cancel reservation in status %s", reservation.Status)) // nolint:wrapcheck
	}

	if reservation.ProviderReservationID != constant.Empty {
		if err = s.scheduler.CancelReservation(ctx, reservation.ProviderReservationID, req.Reason); err != nil {
			log.Error().Err(err).Str("id", id).Msg("failed to cancel reservation upstream")

			return providerFailure(err)
		}
	}

	return s.applyTransition(ctx, reservation, model.StatusCancelled)
}

func (s *serviceImpl) Get(ctx context.Context, id string) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Get")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKey(cacheGetReservation, id)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservation")

		return res, nil
	}

	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation")

		return res, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return res, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	res.FromModel(reservation)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservation to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) GetAll(ctx context.Context, params gDto.QueryParams, filter gDto.FilterGroup) (res dto.GetReservationsResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".GetAll")
	defer scope.End()
	defer scope.TraceIfError(err)

	cacheKey := shared.BuildCacheKeyWithQuery(cacheGetAllReservation, params, filter)

	err = s.cache.Get(ctx, cacheKey, &res)
	if err == nil {
		log.Info().Str("cacheKey", cacheKey).Msg("cache hit for reservations")

		return res, nil
	}

	total, err := s.repo.Count(ctx, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to count reservations")

		return res, fmt.Errorf("failed to count reservations: %w", err)
	}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return res, fmt.Errorf("failed to get reservations: %w", err)
	}

	res.FromModels(models, total, params.Limit)

	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Save(c, cacheKey, res, s.cfg.Cache.TTL); err != nil {
			log.Error().Err(err).Msg("failed to save reservations to cache")
		}
	}()

	return res, nil
}

func (s *serviceImpl) ListBySlot(ctx context.Context, slotID string, activeOnly bool) (res []dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListBySlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	filter := gDto.FilterGroup{
		Filters: []any{
			gDto.Filter{Field: model.FieldSlotID, Value: slotID, Operator: gDto.FilterOperatorEq, Table: model.TableName},
		},
	}

	if activeOnly {
		filter.Filters = append(filter.Filters, gDto.Filter{
			Field:    model.FieldStatus,
			Value:    model.ActiveStatuses,
			Operator: gDto.FilterOperatorIn,
			Table:    model.TableName,
		})
	}

	return s.list(ctx, filter)
}

func (s *serviceImpl) ListByRegistrant(ctx context.Context, registrantID string) (res []dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListByRegistrant")
	defer scope.End()
	defer scope.TraceIfError(err)

	return s.list(ctx, shared.FilterByID(registrantID, model.FieldRegistrantID, model.TableName))
}

// SlotSummary recomputes seat usage from the current ledger on every call.
// It is deliberately uncached: a stale count here is exactly the
// over-booking hazard the capacity guard exists to prevent.
func (s *serviceImpl) SlotSummary(ctx context.Context, slotID string) (res dto.SlotSummaryResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".SlotSummary")
	defer scope.End()
	defer scope.TraceIfError(err)

	slot, err := s.catalogRepo.Get(ctx, shared.FilterByID(slotID, catalogModel.FieldID, catalogModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot not found") // nolint:wrapcheck
	}

	booked, err := s.repo.CountActiveBySlot(ctx, slotID, timezone.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to count active reservations")

		return res, fmt.Errorf("failed to count active reservations: %w", err)
	}

	res.FromCapacity(slotID, model.Summarize(slot.Capacity, booked))

	return res, nil
}

func (s *serviceImpl) PerSlotUsage(ctx context.Context, slotIDs []string) (res dto.SlotUsageResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".PerSlotUsage")
	defer scope.End()
	defer scope.TraceIfError(err)

	usage, err := s.repo.PerSlotUsage(ctx, slotIDs, timezone.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot usage")

		return res, fmt.Errorf("failed to get slot usage: %w", err)
	}

	// Slots without active reservations are absent from the aggregate;
	// report them as zero rather than omitting them.
	for _, slotID := range slotIDs {
		if _, ok := usage[slotID]; !ok {
			usage[slotID] = 0
		}
	}

	res.Usage = usage

	return res, nil
}

// ApplyProviderEvent is the reconciliation entry point shared by webhook
// deliveries and internal repair. It funnels into the same upsert as the
// direct call paths, so replaying an event is always safe.
func (s *serviceImpl) ApplyProviderEvent(ctx context.Context, req dto.ProviderEventRequest) (res dto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ApplyProviderEvent")
	defer scope.End()
	defer scope.TraceIfError(err)

	var status model.Status

	if req.Status != constant.Empty {
		parsed, ok := model.ParseStatus(req.Status)
		if !ok {
			return res, failure.BadRequestFromString(fmt.Sprintf("unknown reservation status %q", req.Status)) // nolint:wrapcheck
		}

		status = parsed
	}

	existing, err := s.repo.Get(ctx, filterByProviderID(req.ProviderReservationID))
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservation by provider id")

		return res, fmt.Errorf("failed to get reservation by provider id: %w", err)
	}

	if existing.ID == constant.Empty {
		if req.ResolveSlotID() == constant.Empty {
			s.flagReconciliation(ctx, req.ProviderReservationID, "event has no slot reference")

			return res, failure.Unprocessable("event cannot be tied to a slot") // nolint:wrapcheck
		}

		if status == constant.Empty {
			status = model.StatusAccepted
		}
	}

	reservation, err := s.repo.Upsert(ctx, req.ToModel(status))
	if err != nil {
		log.Error().Err(err).Msg("failed to upsert reservation")
		s.flagReconciliation(ctx, req.ProviderReservationID, "upsert failed")

		return res, fmt.Errorf("failed to upsert reservation: %w", err)
	}

	s.archiveEvent(ctx, req)
	s.publishEvent(ctx, reservation)
	s.invalidate(ctx, reservation.ID)

	res.FromModel(reservation)

	return res, nil
}

func (s *serviceImpl) list(ctx context.Context, filter gDto.FilterGroup) ([]dto.ReservationResponse, error) {
	params := gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: "ASC"}

	models, err := s.repo.GetAll(ctx, params, filter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get reservations")

		return nil, fmt.Errorf("failed to get reservations: %w", err)
	}

	res := make([]dto.ReservationResponse, len(models))
	for i, mod := range models {
		res[i].FromModel(mod)
	}

	return res, nil
}

// loadForTransition fetches the reservation and runs every precondition that
// must hold before the provider is called.
func (s *serviceImpl) loadForTransition(ctx context.Context, id string, to model.Status) (model.Reservation, error) {
	reservation, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to get reservation")

		return reservation, fmt.Errorf("failed to get reservation: %w", err)
	}

	if reservation.ID == constant.Empty {
		return reservation, failure.NotFound("reservation not found") // nolint:wrapcheck
	}

	if !reservation.Status.CanTransition(to) {
		return reservation, failure.InvalidState(fmt.Sprintf("cannot move reservation from %s to %s", reservation.Status, to)) // nolint:wrapcheck
	}

	if reservation.ProviderReservationID == constant.Empty {
		return reservation, failure.Unprocessable("reservation has no provider identifier") // nolint:wrapcheck
	}

	return reservation, nil
}

// applyTransition records the new status after the provider already agreed
// to it. A failed write here leaves an upstream record without a matching
// local one, so the event is flagged for reconciliation instead of being
// silently dropped.
func (s *serviceImpl) applyTransition(ctx context.Context, reservation model.Reservation, to model.Status) error {
	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	fields := map[string]any{
		model.FieldStatus:        to,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}

	if err := s.repo.Update(ctx, fields, shared.FilterByID(reservation.ID, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("id", reservation.ID).Msg("failed to update reservation status")
		s.flagReconciliation(ctx, reservation.ProviderReservationID, "status update failed after provider success")

		return fmt.Errorf("failed to update reservation status: %w", err)
	}

	reservation.Status = to

	s.publishEvent(ctx, reservation)
	s.invalidate(ctx, reservation.ID)

	return nil
}

func (s *serviceImpl) publishEvent(ctx context.Context, reservation model.Reservation) {
	go func() {
		c := context.WithoutCancel(ctx)
		now := timezone.Now()

		event := dto.ReservationEvent{
			ReservationID:         reservation.ID,
			ProviderReservationID: reservation.ProviderReservationID,
			SlotID:                reservation.SlotID,
			Status:                reservation.Status.String(),
			OccurredAt:            &now,
		}

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.ReservationEvents, kafka.Message{
			Key:   reservation.ProviderReservationID,
			Value: event,
		}); err != nil {
			log.Error().Err(err).Str("id", reservation.ID).Msg("failed to publish reservation event")
		}
	}()
}

// flagReconciliation records a provider-side record that could not be fully
// persisted locally. The webhook path re-applies the same upsert later, so
// the flagged entry is a pointer for operators, not the recovery mechanism.
func (s *serviceImpl) flagReconciliation(ctx context.Context, providerReservationID, reason string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.kafka.SendMessages(c, s.cfg.Kafka.Topics.ReconciliationCandidates, kafka.Message{
			Key: providerReservationID,
			Value: map[string]string{
				"provider_reservation_id": providerReservationID,
				"reason":                  reason,
			},
		}); err != nil {
			log.Error().Err(err).Str("providerReservationId", providerReservationID).Msg("failed to publish reconciliation candidate")
		}
	}()
}

func (s *serviceImpl) archiveEvent(ctx context.Context, req dto.ProviderEventRequest) {
	go func() {
		c := context.WithoutCancel(ctx)

		payload, err := json.Marshal(req)
		if err != nil {
			log.Error().Err(err).Msg("failed to encode provider event for archive")

			return
		}

		objectName := fmt.Sprintf("%s-%d.json", req.ProviderReservationID, timezone.Now().UnixNano())

		if _, err := s.s3.UploadBytes(c, constant.Empty, s.cfg.External.S3.AuditPrefix, objectName, constant.ContentTypeJSON, payload); err != nil {
			log.Error().Err(err).Msg("failed to archive provider event")
		}
	}()
}

func (s *serviceImpl) invalidate(ctx context.Context, id string) {
	go func() {
		c := context.WithoutCancel(ctx)

		if err := s.cache.Delete(c, shared.BuildCacheKey(cacheGetReservation, id)); err != nil {
			log.Error().Err(err).Msg("failed to delete reservation from cache")
		}

		shared.InvalidateCaches(c, s.cache, cacheGetAllReservation)
	}()
}

func isOwner(ctx context.Context, reservation model.Reservation) bool {
	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	userEmail, _ := ctx.Value(constant.ContextKeyUserEmail).(string)

	if reservation.RegistrantID != nil {
		return userID != constant.Empty && *reservation.RegistrantID == userID
	}

	return userEmail != constant.Empty && reservation.AttendeeEmail == shared.NormalizeEmail(userEmail)
}

func providerFailure(err error) error {
	var provErr *scheduler.Error
	if errors.As(err, &provErr) {
		return failure.Upstream(provErr.Message) // nolint:wrapcheck
	}

	return failure.Upstream(err.Error()) // nolint:wrapcheck
}

func filterByProviderID(providerReservationID string) gDto.FilterGroup {
	return shared.FilterByID(providerReservationID, model.FieldProviderReservationID, model.TableName)
}
