package services

import (
	"iter"
	"time"

	"hackathon-platform/models"
)

// overlaps is the half-open interval test: [aStart,aEnd) and [bStart,bEnd) share time.
func overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// HasConflict reports whether [start,end) overlaps any non-cancelled booking.
// Callers pass bookings of a single host.
func HasConflict(start, end time.Time, existing []models.Meeting) bool {
	for _, m := range existing {
		if m.Status == models.MeetingCancelled {
			continue
		}
		if overlaps(start, end, m.ScheduledAt, m.EndTime) {
			return true
		}
	}
	return false
}

type SlotConfig struct {
	StartHour    int
	EndHour      int
	SlotDuration time.Duration
}

var DefaultSlotConfig = SlotConfig{StartHour: 9, EndHour: 17, SlotDuration: 30 * time.Minute}

func (c SlotConfig) Validate() error {
	if c.StartHour < 0 || c.EndHour > 24 || c.StartHour >= c.EndHour {
		return Invalid("working hours must satisfy 0 <= start_hour < end_hour <= 24")
	}
	if c.SlotDuration < 5*time.Minute || c.SlotDuration > time.Duration(c.EndHour-c.StartHour)*time.Hour {
		return Invalid("slot duration must be between 5 minutes and the working window")
	}
	return nil
}

type Slot struct {
	TimeLabel string    `json:"time"`
	Start     time.Time `json:"start"`
	End       time.Time `json:"end"`
	Available bool      `json:"available"`
}

// AvailableSlots partitions the working window of day (in day's location) into
// fixed slots. The sequence is computed on demand and can be ranged over repeatedly.
func AvailableSlots(day time.Time, existing []models.Meeting, cfg SlotConfig) iter.Seq[Slot] {
	return func(yield func(Slot) bool) {
		if cfg.SlotDuration <= 0 {
			return
		}
		y, m, d := day.Date()
		loc := day.Location()
		windowEnd := time.Date(y, m, d, cfg.EndHour, 0, 0, 0, loc)
		for start := time.Date(y, m, d, cfg.StartHour, 0, 0, 0, loc); !start.Add(cfg.SlotDuration).After(windowEnd); start = start.Add(cfg.SlotDuration) {
			end := start.Add(cfg.SlotDuration)
			slot := Slot{
				TimeLabel: start.Format("15:04"),
				Start:     start,
				End:       end,
				Available: !HasConflict(start, end, existing),
			}
			if !yield(slot) {
				return
			}
		}
	}
}

// DayBounds returns [00:00:00.000, 23:59:59.999] of day's calendar date in loc.
func DayBounds(day time.Time, loc *time.Location) (time.Time, time.Time) {
	y, m, d := day.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc)
	end := time.Date(y, m, d+1, 0, 0, 0, 0, loc).Add(-time.Millisecond)
	return start, end
}
