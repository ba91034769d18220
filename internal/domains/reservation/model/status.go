package model

import (
	"strings"
)

// Status is the closed reservation state set. Provider payloads use several
// synonyms; ParseStatus folds them into the canonical values before anything
// is stored or compared.
type Status string

const (
	StatusPending   Status = "pending"
	StatusAccepted  Status = "accepted"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

// ActiveStatuses are the states that occupy a seat. Pending reservations do
// not hold a seat until they are accepted.
var ActiveStatuses = []string{string(StatusAccepted)}

var statusSynonyms = map[string]Status{
	"pending":   StatusPending,
	"requested": StatusPending,
	"accepted":  StatusAccepted,
	"confirmed": StatusAccepted,
	"booked":    StatusAccepted,
	"rejected":  StatusRejected,
	"declined":  StatusRejected,
	"cancelled": StatusCancelled,
	"canceled":  StatusCancelled,
}

// ParseStatus normalizes a provider or caller supplied status,
// case-insensitively. Unknown values report ok=false.
func ParseStatus(raw string) (Status, bool) {
	status, ok := statusSynonyms[strings.ToLower(strings.TrimSpace(raw))]

	return status, ok
}

func (s Status) String() string {
	return string(s)
}

// IsActive reports whether the reservation occupies a seat.
func (s Status) IsActive() bool {
	return s == StatusAccepted
}

// IsTerminal reports whether the status admits no further transition.
func (s Status) IsTerminal() bool {
	return s == StatusRejected || s == StatusCancelled
}

// CanTransition enforces the legal state machine: pending may become
// accepted or rejected, accepted may become cancelled, terminal states are
// immutable.
func (s Status) CanTransition(to Status) bool {
	switch s {
	case StatusPending:
		return to == StatusAccepted || to == StatusRejected
	case StatusAccepted:
		return to == StatusCancelled
	default:
		return false
	}
}
