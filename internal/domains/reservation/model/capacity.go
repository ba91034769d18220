package model

// SlotCapacity is derived at read time from the catalog capacity and the
// current active-reservation count. It is never stored or cached; stale
// seat counts would defeat the over-booking guard.
type SlotCapacity struct {
	Capacity    *int `json:"capacity"`
	BookedCount int  `json:"booked_count"`
	FreeSeats   *int `json:"free_seats"`
}

// Summarize computes the seat summary. A nil capacity means unlimited, which
// yields nil free seats rather than zero. FreeSeats never goes negative even
// if historical data over-booked the slot.
func Summarize(capacity *int, bookedCount int) SlotCapacity {
	summary := SlotCapacity{
		Capacity:    capacity,
		BookedCount: bookedCount,
	}

	if capacity == nil {
		return summary
	}

	free := *capacity - bookedCount
	if free < 0 {
		free = 0
	}

	summary.FreeSeats = &free

	return summary
}
