package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"berth/shared/model"
)

const (
	TableName  = "reservations"
	EntityName = "reservation"

	FieldID                    = "id"
	FieldSlotID                = "slot_id"
	FieldRegistrantID          = "registrant_id"
	FieldProviderReservationID = "provider_reservation_id"
	FieldAttendeeName          = "attendee_name"
	FieldAttendeeEmail         = "attendee_email"
	FieldSlotStart             = "slot_start"
	FieldSlotEnd               = "slot_end"
	FieldStatus                = "status"
	FieldRaw                   = "raw"
)

// Reservation mirrors one seat-occupying registration between the local
// ledger and the scheduling provider. ProviderReservationID is the upsert
// key; a row only exists after the provider call succeeded.
type Reservation struct {
	ID                    string     `db:"id"`
	SlotID                string     `db:"slot_id"`
	RegistrantID          *string    `db:"registrant_id"`
	ProviderReservationID string     `db:"provider_reservation_id"`
	AttendeeName          string     `db:"attendee_name"`
	AttendeeEmail         string     `db:"attendee_email"`
	SlotStart             *time.Time `db:"slot_start"`
	SlotEnd               *time.Time `db:"slot_end"`
	Status                Status     `db:"status"`
	Raw                   RawPayload `db:"raw"`
	model.Metadata
}

// RawPayload is the opaque provider payload kept for audit. On upsert
// conflicts it is merged key-by-key rather than replaced, so provenance from
// earlier deliveries survives later, partial ones.
type RawPayload map[string]any

func (p RawPayload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}

	encoded, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encoding raw payload: %w", err)
	}

	return encoded, nil
}

func (p *RawPayload) Scan(src any) error {
	if src == nil {
		*p = RawPayload{}

		return nil
	}

	var raw []byte

	switch v := src.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported raw payload source type %T", src)
	}

	if len(raw) == 0 {
		*p = RawPayload{}

		return nil
	}

	if err := json.Unmarshal(raw, p); err != nil {
		return fmt.Errorf("decoding raw payload: %w", err)
	}

	return nil
}
