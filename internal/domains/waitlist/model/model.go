package model

import (
	"berth/shared/model"
)

const (
	TableName  = "waitlist_entries"
	EntityName = "waitlist_entry"

	FieldID            = "id"
	FieldSlotID        = "slot_id"
	FieldRegistrantID  = "registrant_id"
	FieldAttendeeName  = "attendee_name"
	FieldAttendeeEmail = "attendee_email"
	FieldStatus        = "status"
)

type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusPromoted  Status = "promoted"
	StatusCancelled Status = "cancelled"
)

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the entry can still change state. Promoted and
// cancelled entries never return to waiting.
func (s Status) IsTerminal() bool {
	return s == StatusPromoted || s == StatusCancelled
}

// WaitlistEntry records a registrant's interest in a slot with no free
// seat. At most one waiting entry exists per slot and registrant (or
// normalized email for guests); duplicate joins return the existing row.
type WaitlistEntry struct {
	ID            string  `db:"id"`
	SlotID        string  `db:"slot_id"`
	RegistrantID  *string `db:"registrant_id"`
	AttendeeName  string  `db:"attendee_name"`
	AttendeeEmail string  `db:"attendee_email"`
	Status        Status  `db:"status"`
	model.Metadata
}

// StatusCounts is the per-slot tally shown alongside the entry list.
type StatusCounts struct {
	Waiting   int `json:"waiting"`
	Promoted  int `json:"promoted"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}
