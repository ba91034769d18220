package dto

import (
	"time"

	"github.com/google/uuid"

	"berth/internal/domains/reservation/model"
	"berth/shared"
	"berth/shared/constant"
	gDto "berth/shared/dto"
	gModel "berth/shared/model"
	"berth/shared/timezone"
)

type ReasonRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

// ProviderEventRequest is the payload shape shared by webhook deliveries and
// the internal reconciliation path. Everything but the provider identifier
// is optional; absent fields leave the stored values untouched.
type ProviderEventRequest struct {
	ProviderReservationID string         `json:"provider_reservation_id" validate:"required,max=128"`
	SlotID                string         `json:"slot_id"                 validate:"omitempty,max=64"`
	RegistrantID          string         `json:"registrant_id"           validate:"omitempty,max=64"`
	Status                string         `json:"status"                  validate:"omitempty,max=32"`
	AttendeeName          string         `json:"attendee_name"           validate:"omitempty,max=100"`
	AttendeeEmail         string         `json:"attendee_email"          validate:"omitempty,email,max=100"`
	SlotStart             *time.Time     `json:"slot_start"`
	SlotEnd               *time.Time     `json:"slot_end"`
	Raw                   map[string]any `json:"raw"`
}

// ResolveSlotID falls back to the slot reference we plant in provider
// metadata on create, so webhook deliveries for reservations this service
// originated can always be tied back to a slot.
func (r *ProviderEventRequest) ResolveSlotID() string {
	if r.SlotID != "" {
		return r.SlotID
	}

	metadata, ok := r.Raw["metadata"].(map[string]any)
	if !ok {
		return constant.Empty
	}

	slotID, _ := metadata["slotId"].(string)

	return slotID
}

func (r *ProviderEventRequest) ToModel(status model.Status) model.Reservation {
	var registrantID *string
	if r.RegistrantID != "" {
		registrantID = &r.RegistrantID
	}

	raw := model.RawPayload(r.Raw)
	if raw == nil {
		raw = model.RawPayload{}
	}

	return model.Reservation{
		ID:                    uuid.NewString(),
		SlotID:                r.ResolveSlotID(),
		RegistrantID:          registrantID,
		ProviderReservationID: r.ProviderReservationID,
		AttendeeName:          r.AttendeeName,
		AttendeeEmail:         shared.NormalizeEmail(r.AttendeeEmail),
		SlotStart:             r.SlotStart,
		SlotEnd:               r.SlotEnd,
		Status:                status,
		Raw:                   raw,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
		},
	}
}

type ReservationResponse struct {
	ID                    string     `json:"id"`
	SlotID                string     `json:"slot_id"`
	RegistrantID          *string    `json:"registrant_id"`
	ProviderReservationID string     `json:"provider_reservation_id"`
	AttendeeName          string     `json:"attendee_name"`
	AttendeeEmail         string     `json:"attendee_email"`
	SlotStart             *time.Time `json:"slot_start"`
	SlotEnd               *time.Time `json:"slot_end"`
	Status                string     `json:"status"`
	gDto.Metadata
}

func (r *ReservationResponse) FromModel(model model.Reservation) {
	r.ID = model.ID
	r.SlotID = model.SlotID
	r.RegistrantID = model.RegistrantID
	r.ProviderReservationID = model.ProviderReservationID
	r.AttendeeName = model.AttendeeName
	r.AttendeeEmail = model.AttendeeEmail
	r.SlotStart = model.SlotStart
	r.SlotEnd = model.SlotEnd
	r.Status = model.Status.String()
	r.Metadata.FromModel(model.Metadata)
}

type GetReservationsResponse struct {
	Reservations []ReservationResponse `json:"reservations"`
	TotalPage    int                   `json:"total_page"`
	TotalData    int                   `json:"total_data"`
}

func (r *GetReservationsResponse) FromModels(models []model.Reservation, totalData, limit int) {
	r.TotalData = totalData
	r.TotalPage = shared.CalculateTotalPage(totalData, limit)

	r.Reservations = make([]ReservationResponse, len(models))
	for i, mod := range models {
		r.Reservations[i].FromModel(mod)
	}
}

type SlotSummaryResponse struct {
	SlotID      string `json:"slot_id"`
	Capacity    *int   `json:"capacity"`
	BookedCount int    `json:"booked_count"`
	FreeSeats   *int   `json:"free_seats"`
}

func (r *SlotSummaryResponse) FromCapacity(slotID string, capacity model.SlotCapacity) {
	r.SlotID = slotID
	r.Capacity = capacity.Capacity
	r.BookedCount = capacity.BookedCount
	r.FreeSeats = capacity.FreeSeats
}

type SlotUsageResponse struct {
	Usage map[string]int `json:"usage"`
}

// ReservationEvent is published to Kafka after every successful transition.
type ReservationEvent struct {
	ReservationID         string     `json:"reservation_id"`
	ProviderReservationID string     `json:"provider_reservation_id"`
	SlotID                string     `json:"slot_id"`
	Status                string     `json:"status"`
	OccurredAt            *time.Time `json:"occurred_at"`
}
