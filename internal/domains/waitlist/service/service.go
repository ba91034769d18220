package service

//go:generate go run go.uber.org/mock/mockgen -source=./service.go -destination=../mocks/service_mock.go -package=mocks -mock_names=Waitlist=MockWaitlistService

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"berth/config"
	"berth/infras/kafka"
	"berth/infras/otel"
	"berth/infras/scheduler"
	catalogModel "berth/internal/domains/catalog/model"
	catalogRepo "berth/internal/domains/catalog/repository"
	reservationModel "berth/internal/domains/reservation/model"
	reservationDto "berth/internal/domains/reservation/model/dto"
	reservationRepo "berth/internal/domains/reservation/repository"
	"berth/internal/domains/waitlist/model"
	"berth/internal/domains/waitlist/model/dto"
	"berth/internal/domains/waitlist/repository"
	"berth/shared"
	"berth/shared/cache"
	"berth/shared/constant"
	gDto "berth/shared/dto"
	"berth/shared/failure"
	gModel "berth/shared/model"
	"berth/shared/timezone"
)

const (
	defaultSlotDurationMinutes = 60

	metadataSource = "waitlist"
)

type Waitlist interface {
	Join(ctx context.Context, req dto.JoinWaitlistRequest) (dto.JoinWaitlistResponse, error)
	Promote(ctx context.Context, id string, req dto.PromoteWaitlistRequest) (reservationDto.ReservationResponse, error)
	Cancel(ctx context.Context, id string) error
	ListBySlot(ctx context.Context, slotID string) (dto.GetWaitlistResponse, error)
}

type serviceImpl struct {
	repo            repository.Waitlist
	reservationRepo reservationRepo.Reservation
	catalogRepo     catalogRepo.Catalog
	scheduler       scheduler.Scheduler
	kafka           kafka.Client
	cfg             *config.Config
	cache           cache.RedisCache
	otel            otel.Otel
}

func New(
	repo repository.Waitlist,
	reservationRepository reservationRepo.Reservation,
	catalogRepository catalogRepo.Catalog,
	schedulerClient scheduler.Scheduler,
	kafkaClient kafka.Client,
	cfg *config.Config,
	cache cache.RedisCache,
	otel otel.Otel,
) Waitlist {
	return &serviceImpl{
		repo:            repo,
		reservationRepo: reservationRepository,
		catalogRepo:     catalogRepository,
		scheduler:       schedulerClient,
		kafka:           kafkaClient,
		cfg:             cfg,
		cache:           cache,
		otel:            otel,
	}
}

// Join is idempotent: a second join for the same slot and identity returns
// the existing waiting entry instead of creating another one. Concurrent
// first joins are resolved by the partial unique indexes; the loser of that
// race re-reads the winner's row.
func (s *serviceImpl) Join(ctx context.Context, req dto.JoinWaitlistRequest) (res dto.JoinWaitlistResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Join")
	defer scope.End()
	defer scope.TraceIfError(err)

	email := shared.NormalizeEmail(req.AttendeeEmail)

	if req.RegistrantID == constant.Empty && email == constant.Empty {
		return res, failure.BadRequestFromString("either registrant id or attendee email is required") // nolint:wrapcheck
	}

	slot, err := s.catalogRepo.Get(ctx, shared.FilterByID(req.SlotID, catalogModel.FieldID, catalogModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot not found") // nolint:wrapcheck
	}

	if !slot.Active {
		return res, failure.BadRequestFromString("slot is not accepting waitlist entries") // nolint:wrapcheck
	}

	existing, err := s.repo.FindWaiting(ctx, req.SlotID, req.RegistrantID, email)
	if err != nil {
		log.Error().Err(err).Msg("failed to look up existing waitlist entry")

		return res, fmt.Errorf("failed to look up existing waitlist entry: %w", err)
	}

	if existing.ID != constant.Empty {
		res.Existing = true
		res.Entry.FromModel(existing)

		return res, nil
	}

	user, _ := ctx.Value(constant.ContextKeyUserID).(string)
	entry := req.ToModel(user)

	if err = s.repo.Insert(ctx, entry); err != nil {
		if isUniqueViolation(err) {
			return s.joinRaceFallback(ctx, req.SlotID, req.RegistrantID, email)
		}

		log.Error().Err(err).Msg("failed to insert waitlist entry")

		return res, fmt.Errorf("failed to insert waitlist entry: %w", err)
	}

	res.Entry.FromModel(entry)

	return res, nil
}

// Promote creates a provider reservation for a waiting entry, records it in
// the ledger with the capacity guard, and marks the entry promoted. A
// provider failure leaves everything untouched; the caller may retry.
func (s *serviceImpl) Promote(ctx context.Context, id string, req dto.PromoteWaitlistRequest) (res reservationDto.ReservationResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Promote")
	defer scope.End()
	defer scope.TraceIfError(err)

	entry, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get waitlist entry")

		return res, fmt.Errorf("failed to get waitlist entry: %w", err)
	}

	if entry.ID == constant.Empty {
		return res, failure.NotFound("waitlist entry not found") // nolint:wrapcheck
	}

	if entry.Status != model.StatusWaiting {
		return res, failure.InvalidState(fmt.Sprintf("cannot promote waitlist entry in status %s", entry.Status)) // nolint:wrapcheck
	}

	slot, err := s.catalogRepo.Get(ctx, shared.FilterByID(entry.SlotID, catalogModel.FieldID, catalogModel.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get slot")

		return res, fmt.Errorf("failed to get slot: %w", err)
	}

	if slot.ID == constant.Empty {
		return res, failure.NotFound("slot not found") // nolint:wrapcheck
	}

	if slot.EventTypeID == nil || *slot.EventTypeID == constant.Empty {
		return res, failure.Unprocessable("slot has no provider event type mapping") // nolint:wrapcheck
	}

	if req.SlotStart == nil {
		return res, failure.BadRequestFromString("slot_start is required") // nolint:wrapcheck
	}

	// Cheap pre-check. The authoritative guard runs inside the ledger write;
	// this one just avoids creating provider reservations that would be
	// compensated right away.
	if err = s.checkFreeSeat(ctx, slot); err != nil {
		return res, err
	}

	slotEnd := req.SlotEnd
	if slotEnd == nil {
		end := req.SlotStart.Add(slotDuration(slot))
		slotEnd = &end
	}

	registrantID := constant.Empty
	if entry.RegistrantID != nil {
		registrantID = *entry.RegistrantID
	}

	providerReservation, err := s.scheduler.CreateReservation(ctx, scheduler.CreateReservationRequest{
		EventTypeID: *slot.EventTypeID,
		Start:       *req.SlotStart,
		End:         slotEnd,
		Attendee: scheduler.Attendee{
			Name:     entry.AttendeeName,
			Email:    entry.AttendeeEmail,
			TimeZone: slot.TimeZone,
		},
		TimeZone: slot.TimeZone,
		Metadata: &scheduler.Metadata{
			Source:          metadataSource,
			SlotID:          entry.SlotID,
			RegistrantID:    registrantID,
			WaitlistEntryID: entry.ID,
		},
	})
	if err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to create reservation upstream")

		return res, providerFailure(err)
	}

	reservation, err := s.recordPromotion(ctx, entry, slot, providerReservation, *req.SlotStart, slotEnd)
	if err != nil {
		return res, err
	}

	res.FromModel(reservation)

	return res, nil
}

// Cancel withdraws a waiting entry. Cancelling twice is a no-op; a promoted
// entry can no longer be withdrawn.
func (s *serviceImpl) Cancel(ctx context.Context, id string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".Cancel")
	defer scope.End()
	defer scope.TraceIfError(err)

	entry, err := s.repo.Get(ctx, shared.FilterByID(id, model.FieldID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get waitlist entry")

		return fmt.Errorf("failed to get waitlist entry: %w", err)
	}

	if entry.ID == constant.Empty {
		return failure.NotFound("waitlist entry not found") // nolint:wrapcheck
	}

	if !isEntryOwner(ctx, entry) {
		return failure.Forbidden("waitlist entry belongs to another registrant") // nolint:wrapcheck
	}

	if entry.Status == model.StatusCancelled {
		return nil
	}

	if entry.Status == model.StatusPromoted {
		return failure.InvalidState("waitlist entry has already been promoted") // nolint:wrapcheck
	}

	return s.updateStatus(ctx, entry.ID, model.StatusCancelled)
}

func (s *serviceImpl) ListBySlot(ctx context.Context, slotID string) (res dto.GetWaitlistResponse, err error) {
	ctx, scope := s.otel.NewScope(ctx, constant.OtelServiceScopeName, constant.OtelServiceScopeName+".ListBySlot")
	defer scope.End()
	defer scope.TraceIfError(err)

	params := gDto.QueryParams{SortBy: constant.FieldCreatedAt, SortDir: "ASC"}

	entries, err := s.repo.GetAll(ctx, params, shared.FilterByID(slotID, model.FieldSlotID, model.TableName))
	if err != nil {
		log.Error().Err(err).Msg("failed to get waitlist entries")

		return res, fmt.Errorf("failed to get waitlist entries: %w", err)
	}

	counts, err := s.repo.CountsBySlot(ctx, slotID)
	if err != nil {
		log.Error().Err(err).Msg("failed to count waitlist entries")

		return res, fmt.Errorf("failed to count waitlist entries: %w", err)
	}

	res.FromModels(entries, counts)

	return res, nil
}

func (s *serviceImpl) joinRaceFallback(ctx context.Context, slotID, registrantID, email string) (res dto.JoinWaitlistResponse, err error) {
	existing, err := s.repo.FindWaiting(ctx, slotID, registrantID, email)
	if err != nil {
		log.Error().Err(err).Msg("failed to resolve concurrent waitlist join")

		return res, fmt.Errorf("failed to resolve concurrent waitlist join: %w", err)
	}

	if existing.ID == constant.Empty {
		return res, failure.Conflict("waitlist entry already exists") // nolint:wrapcheck
	}

	res.Existing = true
	res.Entry.FromModel(existing)

	return res, nil
}

func (s *serviceImpl) checkFreeSeat(ctx context.Context, slot catalogModel.Slot) error {
	if slot.Capacity == nil {
		return nil
	}

	booked, err := s.reservationRepo.CountActiveBySlot(ctx, slot.ID, timezone.Now())
	if err != nil {
		log.Error().Err(err).Msg("failed to count active reservations")

		return fmt.Errorf("failed to count active reservations: %w", err)
	}

	if booked >= *slot.Capacity {
		return failure.Conflict("slot has no free seats") // nolint:wrapcheck
	}

	return nil
}

// recordPromotion writes the ledger row and marks the entry promoted. The
// provider reservation already exists at this point, so every failure path
// here must stay recoverable: capacity exhaustion compensates by cancelling
// upstream, and write failures are flagged for webhook-driven repair.
func (s *serviceImpl) recordPromotion(
	ctx context.Context,
	entry model.WaitlistEntry,
	slot catalogModel.Slot,
	providerReservation *scheduler.Reservation,
	slotStart time.Time,
	slotEnd *time.Time,
) (reservationModel.Reservation, error) {
	user, _ := ctx.Value(constant.ContextKeyUserID).(string)

	mod := buildReservation(entry, providerReservation, slotStart, slotEnd, user)

	reservation, err := s.reservationRepo.UpsertWithCapacity(ctx, mod, slot.Capacity, timezone.Now())
	if errors.Is(err, reservationRepo.ErrCapacityExceeded) {
		s.compensateUpstream(ctx, mod.ProviderReservationID)

		return reservation, failure.Conflict("slot has no free seats") // nolint:wrapcheck
	}

	if err != nil {
		log.Error().Err(err).Str("providerReservationId", mod.ProviderReservationID).Msg("failed to record promoted reservation")
		s.flagReconciliation(ctx, mod.ProviderReservationID, "ledger upsert failed after provider create")

		return reservation, fmt.Errorf("failed to record promoted reservation: %w", err)
	}

	if err = s.updateStatus(ctx, entry.ID, model.StatusPromoted); err != nil {
		log.Error().Err(err).Str("id", entry.ID).Msg("failed to mark waitlist entry promoted")
		s.flagReconciliation(ctx, mod.ProviderReservationID, "waitlist entry not marked promoted")

		return reservation, err
	}

	s.publishEvent(ctx, reservation)

	return reservation, nil
}

func (s *serviceImpl) updateStatus(ctx context.Context, id string, status model.Status) error {
	actor, _ := ctx.Value(constant.ContextKeyUserID).(string)

	fields := map[string]any{
		model.FieldStatus:        status,
		constant.FieldModifiedAt: timezone.Now(),
		constant.FieldModifiedBy: actor,
	}

	if err := s.repo.Update(ctx, fields, shared.FilterByID(id, model.FieldID, model.TableName)); err != nil {
		log.Error().Err(err).Str("id", id).Msg("failed to update waitlist entry status")

		return fmt.Errorf("failed to update waitlist entry status: %w", err)
	}

	return nil
}

// compensateUpstream cancels a provider reservation that lost the local
// capacity race. Best effort: if the cancel fails too, the webhook path
// still sees the flagged candidate.
func (s *serviceImpl) compensateUpstream(ctx context.Context, providerReservationID string) {
	if err := s.scheduler.CancelReservation(ctx, providerReservationID, "slot capacity exhausted"); err != nil {
		log.Error().Err(err).Str("providerReservationId", providerReservationID).Msg("failed to cancel over-capacity reservation upstream")
		s.flagReconciliation(ctx, providerReservationID, "over-capacity reservation not cancelled upstream")
	}
}

func (s *serviceImpl) publishEvent(ctx context.Context, reservation reservationModel.Reservation) {
	go func() {
		c := context.WithoutCancel(ctx)
		now := timezone.Now()

		event := reservationDto.ReservationEvent{
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

// buildReservation merges the provider response over the locally-held entry
// fields. The provider is authoritative once a reservation exists upstream,
// so echoed values win.
func buildReservation(
	entry model.WaitlistEntry,
	providerReservation *scheduler.Reservation,
	slotStart time.Time,
	slotEnd *time.Time,
	user string,
) reservationModel.Reservation {
	attendeeName := entry.AttendeeName
	attendeeEmail := entry.AttendeeEmail

	if len(providerReservation.Attendees) > 0 {
		if providerReservation.Attendees[0].Name != constant.Empty {
			attendeeName = providerReservation.Attendees[0].Name
		}

		if providerReservation.Attendees[0].Email != constant.Empty {
			attendeeEmail = providerReservation.Attendees[0].Email
		}
	}

	status := reservationModel.StatusAccepted
	if parsed, ok := reservationModel.ParseStatus(providerReservation.Status); ok {
		status = parsed
	}

	start := &slotStart
	if providerReservation.StartTime != nil {
		start = providerReservation.StartTime
	}

	end := slotEnd
	if providerReservation.EndTime != nil {
		end = providerReservation.EndTime
	}

	return reservationModel.Reservation{
		ID:                    uuid.NewString(),
		SlotID:                entry.SlotID,
		RegistrantID:          entry.RegistrantID,
		ProviderReservationID: providerReservation.ExternalID(),
		AttendeeName:          attendeeName,
		AttendeeEmail:         shared.NormalizeEmail(attendeeEmail),
		SlotStart:             start,
		SlotEnd:               end,
		Status:                status,
		Raw: reservationModel.RawPayload{
			"source": metadataSource,
			"metadata": map[string]any{
				"slotId":          entry.SlotID,
				"waitlistEntryId": entry.ID,
			},
			"provider_status": providerReservation.Status,
		},
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

func slotDuration(slot catalogModel.Slot) time.Duration {
	minutes := slot.DefaultDurationMinutes
	if minutes <= 0 {
		minutes = defaultSlotDurationMinutes
	}

	return time.Duration(minutes) * time.Minute
}

func isEntryOwner(ctx context.Context, entry model.WaitlistEntry) bool {
	role, _ := ctx.Value(constant.ContextKeyUserRole).(string)
	if role == constant.RoleAdmin || role == constant.RoleSuperAdmin {
		return true
	}

	userID, _ := ctx.Value(constant.ContextKeyUserID).(string)
	userEmail, _ := ctx.Value(constant.ContextKeyUserEmail).(string)

	if entry.RegistrantID != nil {
		return userID != constant.Empty && *entry.RegistrantID == userID
	}

	return userEmail != constant.Empty && entry.AttendeeEmail == shared.NormalizeEmail(userEmail)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error

	return errors.As(err, &pqErr) && string(pqErr.Code) == constant.PqErrorCodeUniqueViolation
}

func providerFailure(err error) error {
	var provErr *scheduler.Error
	if errors.As(err, &provErr) {
		return failure.Upstream(provErr.Message) // nolint:wrapcheck
	}

	return failure.Upstream(err.Error()) // nolint:wrapcheck
}
