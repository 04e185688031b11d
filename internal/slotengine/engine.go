package slotengine

import (
	"fmt"
	"sort"
)

// TimeRange is an open-for-booking interval within a single day.
// Both bounds are zero-padded 24-hour "HH:MM" strings with Start < End.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Booking is implemented by reservation records that can cover a slot.
// A booking covers a slot only when both returned strings are exactly
// equal to the slot's bounds; partial overlap does not count.
type Booking interface {
	SlotTimes() (start, end string)
}

// Slot is a fixed-length time window derived from a range. Slots are
// recomputed on every call and never stored.
type Slot struct {
	StartTime string
	EndTime   string
	IsBooked  bool
	Booking   Booking // nil when the slot is free
}

// GenerateSlots walks every range in SlotDuration-minute steps and emits one
// slot per step while the slot still fits inside the range; a remainder
// shorter than SlotDuration is dropped. Each slot is matched against bookings
// by exact start/end string equality. Ranges may overlap; no de-duplication
// is performed. The result is sorted by start time across all ranges.
func GenerateSlots(ranges []TimeRange, bookings []Booking) ([]Slot, error) {
	var slots []Slot
	for _, r := range ranges {
		start, err := ParseTime(r.Start)
		if err != nil {
			return nil, fmt.Errorf("range start: %w", err)
		}
		end, err := ParseTime(r.End)
		if err != nil {
			return nil, fmt.Errorf("range end: %w", err)
		}

		for t := start; t+SlotDuration <= end; t += SlotDuration {
			slot := Slot{
				StartTime: FormatTime(t),
				EndTime:   FormatTime(t + SlotDuration),
			}
			for _, b := range bookings {
				bs, be := b.SlotTimes()
				if bs == slot.StartTime && be == slot.EndTime {
					slot.IsBooked = true
					slot.Booking = b
					break
				}
			}
			slots = append(slots, slot)
		}
	}

	// Generated times are canonical "HH:MM", so lexical order equals
	// numeric minute order.
	sort.SliceStable(slots, func(i, j int) bool {
		return slots[i].StartTime < slots[j].StartTime
	})
	return slots, nil
}

// CountBooked returns the number of booked slots.
func CountBooked(slots []Slot) int {
	n := 0
	for _, s := range slots {
		if s.IsBooked {
			n++
		}
	}
	return n
}

// Status is a three-tier classification of remaining free slots.
type Status string

const (
	StatusAvailable Status = "available"
	StatusLimited   Status = "limited"
	StatusFull      Status = "full"
)

// ClassifyAvailability derives a Status from slot counts. Callers must keep
// bookedSlots <= totalSlots; a negative remainder is not validated and lands
// in the limited branch because only zero is tested by equality.
func ClassifyAvailability(totalSlots, bookedSlots int) Status {
	free := totalSlots - bookedSlots
	switch {
	case free == 0:
		return StatusFull
	case free <= 2:
		return StatusLimited
	default:
		return StatusAvailable
	}
}
