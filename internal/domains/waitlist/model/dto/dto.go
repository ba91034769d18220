package dto

import (
	"time"

	"github.com/google/uuid"

	"berth/internal/domains/waitlist/model"
	"berth/shared"
	gDto "berth/shared/dto"
	gModel "berth/shared/model"
	"berth/shared/timezone"
)

type JoinWaitlistRequest struct {
	SlotID        string `json:"slot_id"        validate:"required,max=64"`
	RegistrantID  string `json:"registrant_id"  validate:"omitempty,max=64"`
	AttendeeName  string `json:"attendee_name"  validate:"omitempty,max=100"`
	AttendeeEmail string `json:"attendee_email" validate:"omitempty,email,max=100"`
}

func (r *JoinWaitlistRequest) ToModel(user string) model.WaitlistEntry {
	var registrantID *string
	if r.RegistrantID != "" {
		registrantID = &r.RegistrantID
	}

	return model.WaitlistEntry{
		ID:            uuid.NewString(),
		SlotID:        r.SlotID,
		RegistrantID:  registrantID,
		AttendeeName:  r.AttendeeName,
		AttendeeEmail: shared.NormalizeEmail(r.AttendeeEmail),
		Status:        model.StatusWaiting,
		Metadata: gModel.Metadata{
			CreatedAt:  timezone.Now(),
			ModifiedAt: timezone.Now(),
			CreatedBy:  user,
			ModifiedBy: user,
		},
	}
}

type PromoteWaitlistRequest struct {
	SlotStart *time.Time `json:"slot_start" validate:"required"`
	SlotEnd   *time.Time `json:"slot_end"`
}

// JoinWaitlistResponse flags whether the join found an earlier waiting entry
// instead of creating a new one.
type JoinWaitlistResponse struct {
	Existing bool                  `json:"existing"`
	Entry    WaitlistEntryResponse `json:"waitlist"`
}

type WaitlistEntryResponse struct {
	ID            string  `json:"id"`
	SlotID        string  `json:"slot_id"`
	RegistrantID  *string `json:"registrant_id"`
	AttendeeName  string  `json:"attendee_name"`
	AttendeeEmail string  `json:"attendee_email"`
	Status        string  `json:"status"`
	gDto.Metadata
}

func (r *WaitlistEntryResponse) FromModel(model model.WaitlistEntry) {
	r.ID = model.ID
	r.SlotID = model.SlotID
	r.RegistrantID = model.RegistrantID
	r.AttendeeName = model.AttendeeName
	r.AttendeeEmail = model.AttendeeEmail
	r.Status = model.Status.String()
	r.Metadata.FromModel(model.Metadata)
}

type GetWaitlistResponse struct {
	Entries []WaitlistEntryResponse `json:"entries"`
	Counts  model.StatusCounts      `json:"counts"`
}

func (r *GetWaitlistResponse) FromModels(models []model.WaitlistEntry, counts model.StatusCounts) {
	r.Counts = counts

	r.Entries = make([]WaitlistEntryResponse, len(models))
	for i, mod := range models {
		r.Entries[i].FromModel(mod)
	}
}
