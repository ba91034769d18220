package service_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"berth/config"
	kafkaMocks "berth/infras/kafka/mocks"
	"berth/infras/otel/mocks"
	"berth/infras/scheduler"
	schedulerMocks "berth/infras/scheduler/mocks"
	catalogMocks "berth/internal/domains/catalog/mocks"
	catalogModel "berth/internal/domains/catalog/model"
	reservationMocks "berth/internal/domains/reservation/mocks"
	reservationModel "berth/internal/domains/reservation/model"
	reservationRepo "berth/internal/domains/reservation/repository"
	waitlistMocks "berth/internal/domains/waitlist/mocks"
	"berth/internal/domains/waitlist/model"
	"berth/internal/domains/waitlist/model/dto"
	"berth/internal/domains/waitlist/service"
	cacheMocks "berth/shared/cache/mocks"
	"berth/shared/constant"
	"berth/shared/failure"
)

type serviceMocks struct {
	repo            *waitlistMocks.MockWaitlist
	reservationRepo *reservationMocks.MockReservation
	catalog         *catalogMocks.MockCatalog
	scheduler       *schedulerMocks.MockScheduler
	kafka           *kafkaMocks.MockClient
}

func newService(ctrl *gomock.Controller) (service.Waitlist, *serviceMocks) {
	m := &serviceMocks{
		repo:            waitlistMocks.NewMockWaitlist(ctrl),
		reservationRepo: reservationMocks.NewMockReservation(ctrl),
		catalog:         catalogMocks.NewMockCatalog(ctrl),
		scheduler:       schedulerMocks.NewMockScheduler(ctrl),
		kafka:           kafkaMocks.NewMockClient(ctrl),
	}

	cfg := &config.Config{}
	cfg.Kafka.Topics.ReservationEvents = "reservation-events"
	cfg.Kafka.Topics.ReconciliationCandidates = "reconciliation-candidates"

	m.kafka.EXPECT().SendMessages(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	mockCache := cacheMocks.NewMockRedisCache(ctrl)

	svc := service.New(m.repo, m.reservationRepo, m.catalog, m.scheduler, m.kafka, cfg, mockCache, mocks.NewOtel())

	return svc, m
}

func linkedSlot() catalogModel.Slot {
	eventType := "et-9"
	capacity := 5

	return catalogModel.Slot{
		ID:                     "slot-3",
		Title:                  "Community Workshop",
		EventTypeID:            &eventType,
		Capacity:               &capacity,
		DefaultDurationMinutes: 45,
		TimeZone:               "UTC",
		Active:                 true,
	}
}

func waitingEntry() model.WaitlistEntry {
	registrant := "member-7"

	return model.WaitlistEntry{
		ID:            "7",
		SlotID:        "slot-3",
		RegistrantID:  &registrant,
		AttendeeName:  "Jo",
		AttendeeEmail: "jo@example.org",
		Status:        model.StatusWaiting,
	}
}

func TestWaitlistService_Join(t *testing.T) {
	tests := []struct {
		name         string
		req          dto.JoinWaitlistRequest
		setupMock    func(m *serviceMocks)
		wantErr      bool
		wantCode     int
		wantStatus   string
		wantID       string
		wantExisting bool
	}{
		{
			name: "new entry created",
			req:  dto.JoinWaitlistRequest{SlotID: "slot-3", RegistrantID: "member-7", AttendeeEmail: "JO@example.org"},
			setupMock: func(m *serviceMocks) {
				m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
				m.repo.EXPECT().FindWaiting(gomock.Any(), "slot-3", "member-7", "jo@example.org").
					Return(model.WaitlistEntry{}, nil)
				m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, entry model.WaitlistEntry) error {
						assert.Equal(t, model.StatusWaiting, entry.Status)
						assert.Equal(t, "jo@example.org", entry.AttendeeEmail)

						return nil
					})
			},
			wantStatus: "waiting",
		},
		{
			name: "duplicate join returns existing entry",
			req:  dto.JoinWaitlistRequest{SlotID: "slot-3", RegistrantID: "member-7"},
			setupMock: func(m *serviceMocks) {
				m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
				m.repo.EXPECT().FindWaiting(gomock.Any(), "slot-3", "member-7", "").
					Return(waitingEntry(), nil)
			},
			wantStatus:   "waiting",
			wantID:       "7",
			wantExisting: true,
		},
		{
			name:      "missing identity",
			req:       dto.JoinWaitlistRequest{SlotID: "slot-3"},
			setupMock: func(m *serviceMocks) {},
			wantErr:   true,
			wantCode:  http.StatusBadRequest,
		},
		{
			name: "slot not found",
			req:  dto.JoinWaitlistRequest{SlotID: "missing", AttendeeEmail: "jo@example.org"},
			setupMock: func(m *serviceMocks) {
				m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(catalogModel.Slot{}, nil)
			},
			wantErr:  true,
			wantCode: http.StatusNotFound,
		},
		{
			name: "inactive slot",
			req:  dto.JoinWaitlistRequest{SlotID: "slot-3", AttendeeEmail: "jo@example.org"},
			setupMock: func(m *serviceMocks) {
				inactive := linkedSlot()
				inactive.Active = false

				m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(inactive, nil)
			},
			wantErr:  true,
			wantCode: http.StatusBadRequest,
		},
		{
			name: "concurrent join resolved by unique index",
			req:  dto.JoinWaitlistRequest{SlotID: "slot-3", RegistrantID: "member-7"},
			setupMock: func(m *serviceMocks) {
				m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
				m.repo.EXPECT().FindWaiting(gomock.Any(), "slot-3", "member-7", "").
					Return(model.WaitlistEntry{}, nil)
				m.repo.EXPECT().Insert(gomock.Any(), gomock.Any()).
					Return(&pq.Error{Code: pq.ErrorCode(constant.PqErrorCodeUniqueViolation)})
				m.repo.EXPECT().FindWaiting(gomock.Any(), "slot-3", "member-7", "").
					Return(waitingEntry(), nil)
			},
			wantStatus:   "waiting",
			wantID:       "7",
			wantExisting: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc, m := newService(ctrl)
			tt.setupMock(m)

			res, err := svc.Join(context.Background(), tt.req)

			if tt.wantErr {
				require.Error(t, err)

				if tt.wantCode != 0 {
					assert.Equal(t, tt.wantCode, failure.GetCode(err))
				}

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Entry.Status)
			assert.Equal(t, tt.wantExisting, res.Existing)

			if tt.wantID != "" {
				assert.Equal(t, tt.wantID, res.Entry.ID)
			}
		})
	}
}

func TestWaitlistService_Promote(t *testing.T) {
	slotStart := time.Date(2025, 10, 22, 9, 0, 0, 0, time.UTC)

	t.Run("successful promotion", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
		m.reservationRepo.EXPECT().CountActiveBySlot(gomock.Any(), "slot-3", gomock.Any()).Return(2, nil)

		m.scheduler.EXPECT().CreateReservation(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, req scheduler.CreateReservationRequest) (*scheduler.Reservation, error) {
				assert.Equal(t, "et-9", req.EventTypeID)
				assert.Equal(t, slotStart, req.Start)
				require.NotNil(t, req.End)
				assert.Equal(t, slotStart.Add(45*time.Minute), *req.End)
				require.NotNil(t, req.Metadata)
				assert.Equal(t, "7", req.Metadata.WaitlistEntryID)
				assert.Equal(t, "slot-3", req.Metadata.SlotID)

				return &scheduler.Reservation{UID: "uid-999", Status: "ACCEPTED", StartTime: &slotStart}, nil
			})

		m.reservationRepo.EXPECT().UpsertWithCapacity(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, mod reservationModel.Reservation, capacity *int, _ time.Time) (reservationModel.Reservation, error) {
				assert.Equal(t, "uid-999", mod.ProviderReservationID)
				assert.Equal(t, "slot-3", mod.SlotID)
				assert.Equal(t, reservationModel.StatusAccepted, mod.Status)
				require.NotNil(t, capacity)
				assert.Equal(t, 5, *capacity)

				return mod, nil
			})

		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, model.StatusPromoted, fields[model.FieldStatus])

				return nil
			})

		res, err := svc.Promote(context.Background(), "7", dto.PromoteWaitlistRequest{SlotStart: &slotStart})

		require.NoError(t, err)
		assert.Equal(t, "uid-999", res.ProviderReservationID)
		assert.Equal(t, "accepted", res.Status)
	})

	t.Run("slot without event type mapping", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		unlinked := linkedSlot()
		unlinked.EventTypeID = nil

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(unlinked, nil)

		_, err := svc.Promote(context.Background(), "7", dto.PromoteWaitlistRequest{SlotStart: &slotStart})

		require.Error(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, failure.GetCode(err))
	})

	t.Run("provider failure leaves entry waiting", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
		m.reservationRepo.EXPECT().CountActiveBySlot(gomock.Any(), "slot-3", gomock.Any()).Return(2, nil)
		m.scheduler.EXPECT().CreateReservation(gomock.Any(), gomock.Any()).
			Return(nil, &scheduler.Error{StatusCode: 503, Message: "provider unavailable"})
		// No ledger or waitlist writes expected.

		_, err := svc.Promote(context.Background(), "7", dto.PromoteWaitlistRequest{SlotStart: &slotStart})

		require.Error(t, err)
		assert.Equal(t, http.StatusBadGateway, failure.GetCode(err))
	})

	t.Run("full slot rejected before the provider call", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
		m.reservationRepo.EXPECT().CountActiveBySlot(gomock.Any(), "slot-3", gomock.Any()).Return(5, nil)

		_, err := svc.Promote(context.Background(), "7", dto.PromoteWaitlistRequest{SlotStart: &slotStart})

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("capacity race compensates upstream", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.catalog.EXPECT().Get(gomock.Any(), gomock.Any()).Return(linkedSlot(), nil)
		m.reservationRepo.EXPECT().CountActiveBySlot(gomock.Any(), "slot-3", gomock.Any()).Return(4, nil)
		m.scheduler.EXPECT().CreateReservation(gomock.Any(), gomock.Any()).
			Return(&scheduler.Reservation{UID: "uid-999", Status: "ACCEPTED"}, nil)
		m.reservationRepo.EXPECT().UpsertWithCapacity(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
			Return(reservationModel.Reservation{}, reservationRepo.ErrCapacityExceeded)
		m.scheduler.EXPECT().CancelReservation(gomock.Any(), "uid-999", gomock.Any()).Return(nil)

		_, err := svc.Promote(context.Background(), "7", dto.PromoteWaitlistRequest{SlotStart: &slotStart})

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("already promoted", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		promoted := waitingEntry()
		promoted.Status = model.StatusPromoted

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promoted, nil)

		_, err := svc.Promote(context.Background(), "7", dto.PromoteWaitlistRequest{SlotStart: &slotStart})

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})
}

func TestWaitlistService_Cancel(t *testing.T) {
	ownerCtx := func() context.Context {
		return context.WithValue(context.Background(), constant.ContextKeyUserID, "member-7")
	}

	t.Run("owner cancels waiting entry", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, fields map[string]any, _ any) error {
				assert.Equal(t, model.StatusCancelled, fields[model.FieldStatus])

				return nil
			})

		assert.NoError(t, svc.Cancel(ownerCtx(), "7"))
	})

	t.Run("cancelling twice is a no-op", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		cancelled := waitingEntry()
		cancelled.Status = model.StatusCancelled

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(cancelled, nil)

		assert.NoError(t, svc.Cancel(ownerCtx(), "7"))
	})

	t.Run("promoted entry cannot be withdrawn", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		promoted := waitingEntry()
		promoted.Status = model.StatusPromoted

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(promoted, nil)

		err := svc.Cancel(ownerCtx(), "7")

		require.Error(t, err)
		assert.Equal(t, http.StatusConflict, failure.GetCode(err))
	})

	t.Run("not the owner", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "someone-else")
		err := svc.Cancel(ctx, "7")

		require.Error(t, err)
		assert.Equal(t, http.StatusForbidden, failure.GetCode(err))
	})

	t.Run("admin can cancel on behalf of a registrant", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		svc, m := newService(ctrl)

		m.repo.EXPECT().Get(gomock.Any(), gomock.Any()).Return(waitingEntry(), nil)
		m.repo.EXPECT().Update(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)

		ctx := context.WithValue(context.Background(), constant.ContextKeyUserID, "admin-1")
		ctx = context.WithValue(ctx, constant.ContextKeyUserRole, constant.RoleAdmin)

		assert.NoError(t, svc.Cancel(ctx, "7"))
	})
}

func TestWaitlistService_ListBySlot(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, m := newService(ctrl)

	entries := []model.WaitlistEntry{waitingEntry()}
	counts := model.StatusCounts{Waiting: 1, Promoted: 2, Cancelled: 1, Total: 4}

	m.repo.EXPECT().GetAll(gomock.Any(), gomock.Any(), gomock.Any()).Return(entries, nil)
	m.repo.EXPECT().CountsBySlot(gomock.Any(), "slot-3").Return(counts, nil)

	res, err := svc.ListBySlot(context.Background(), "slot-3")

	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "7", res.Entries[0].ID)
	assert.Equal(t, counts, res.Counts)
}
