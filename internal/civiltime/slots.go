package civiltime

import "time"

// DefaultSlot is the metering and scheduling interval.
const DefaultSlot = 15 * time.Minute

// RoundDown snaps i to the start of its step-long slot, counted from civil midnight.
func (r *Resolver) RoundDown(i Instant, step time.Duration) Instant {
	if step <= 0 {
		return i
	}
	midnight := r.StartOfDay(i)
	since := i.Sub(midnight)
	return midnight.Add(since - since%step)
}

// Slots lists slot starts from RoundDown(start) up to, not including, end.
func (r *Resolver) Slots(start, end Instant, step time.Duration) []Instant {
	if step <= 0 {
		return nil
	}
	var slots []Instant
	for cur := r.RoundDown(start, step); cur.Before(end); cur = cur.Add(step) {
		slots = append(slots, cur)
	}
	return slots
}
