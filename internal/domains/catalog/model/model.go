package model

import (
	"berth/shared/model"
)

const (
	TableName  = "slots"
	EntityName = "slot"

	FieldID                     = "id"
	FieldTitle                  = "title"
	FieldEventTypeID            = "event_type_id"
	FieldCapacity               = "capacity"
	FieldDefaultDurationMinutes = "default_duration_minutes"
	FieldTimeZone               = "time_zone"
	FieldActive                 = "active"
)

// Slot is a catalog entry registrants book into. EventTypeID links the slot
// to the scheduling provider's event type; a nil value means the slot has no
// upstream mapping and cannot be promoted into. A nil Capacity means
// unlimited seats.
type Slot struct {
	ID                     string  `db:"id"`
	Title                  string  `db:"title"`
	EventTypeID            *string `db:"event_type_id"`
	Capacity               *int    `db:"capacity"`
	DefaultDurationMinutes int     `db:"default_duration_minutes"`
	TimeZone               string  `db:"time_zone"`
	Active                 bool    `db:"active"`
	model.Metadata
}
