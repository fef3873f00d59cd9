package services

import (
	"testing"
	"time"

	"hackathon-platform/models"
)

func at(hour, min int) time.Time {
	return time.Date(2024, 6, 3, hour, min, 0, 0, time.UTC)
}

func booking(start, end time.Time) models.Meeting {
	return models.Meeting{ScheduledAt: start, EndTime: end, Status: models.MeetingScheduled}
}

func TestHasConflict(t *testing.T) {
	existing := []models.Meeting{booking(at(10, 0), at(10, 30))}
	tests := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"partial overlap at end", at(10, 15), at(10, 45), true},
		{"partial overlap at start", at(9, 45), at(10, 15), true},
		{"identical", at(10, 0), at(10, 30), true},
		{"contained", at(10, 5), at(10, 10), true},
		{"containing", at(9, 0), at(11, 0), true},
		{"adjacent after", at(10, 30), at(11, 0), false},
		{"adjacent before", at(9, 30), at(10, 0), false},
		{"disjoint", at(14, 0), at(15, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasConflict(tt.start, tt.end, existing); got != tt.want {
				t.Fatalf("HasConflict = %v, want %v", got, tt.want)
			}
			// swapping the roles of new and existing gives the same answer
			swapped := []models.Meeting{booking(tt.start, tt.end)}
			if got := HasConflict(at(10, 0), at(10, 30), swapped); got != tt.want {
				t.Fatalf("swapped HasConflict = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHasConflictIgnoresCancelled(t *testing.T) {
	m := booking(at(10, 0), at(10, 30))
	m.Status = models.MeetingCancelled
	if HasConflict(at(10, 0), at(10, 30), []models.Meeting{m}) {
		t.Fatal("cancelled bookings must not conflict")
	}
	m.Status = models.MeetingConfirmed
	if !HasConflict(at(10, 0), at(10, 30), []models.Meeting{m}) {
		t.Fatal("confirmed bookings conflict")
	}
}

func TestAvailableSlots(t *testing.T) {
	existing := []models.Meeting{booking(at(10, 0), at(10, 30)), booking(at(13, 15), at(13, 45))}
	var slots []Slot
	for s := range AvailableSlots(at(0, 0), existing, DefaultSlotConfig) {
		slots = append(slots, s)
	}
	if len(slots) != 16 {
		t.Fatalf("got %d slots, want 16", len(slots))
	}
	if slots[0].TimeLabel != "09:00" || slots[15].TimeLabel != "16:30" {
		t.Fatalf("labels %s..%s", slots[0].TimeLabel, slots[15].TimeLabel)
	}
	busy := map[string]bool{}
	for _, s := range slots {
		if !s.Available {
			busy[s.TimeLabel] = true
		}
	}
	for _, label := range []string{"10:00", "13:00", "13:30"} {
		if !busy[label] {
			t.Errorf("slot %s should be busy", label)
		}
	}
	if len(busy) != 3 {
		t.Errorf("busy slots = %v", busy)
	}
}

func TestAvailableSlotsRestartableAndLazy(t *testing.T) {
	seq := AvailableSlots(at(0, 0), nil, SlotConfig{StartHour: 9, EndHour: 12, SlotDuration: time.Hour})
	count := func() int {
		n := 0
		for range seq {
			n++
		}
		return n
	}
	if a, b := count(), count(); a != 3 || b != 3 {
		t.Fatalf("counts = %d, %d", a, b)
	}
	n := 0
	for range seq {
		n++
		if n == 1 {
			break
		}
	}
	if n != 1 {
		t.Fatal("early break should stop iteration")
	}
}

func TestAvailableSlotsDropsPartialTail(t *testing.T) {
	n := 0
	for range AvailableSlots(at(0, 0), nil, SlotConfig{StartHour: 9, EndHour: 10, SlotDuration: 40 * time.Minute}) {
		n++
	}
	if n != 1 {
		t.Fatalf("got %d slots, want 1", n)
	}
}

func TestSlotConfigValidate(t *testing.T) {
	if err := DefaultSlotConfig.Validate(); err != nil {
		t.Fatal(err)
	}
	for _, c := range []SlotConfig{
		{StartHour: 17, EndHour: 9, SlotDuration: time.Hour},
		{StartHour: 9, EndHour: 25, SlotDuration: time.Hour},
		{StartHour: 9, EndHour: 10, SlotDuration: time.Minute},
		{StartHour: 9, EndHour: 10, SlotDuration: 2 * time.Hour},
	} {
		if err := c.Validate(); err == nil {
			t.Errorf("config %+v should be invalid", c)
		}
	}
}

func TestDayBounds(t *testing.T) {
	start, end := DayBounds(time.Date(2024, 6, 3, 15, 4, 5, 0, time.UTC), time.UTC)
	if !start.Equal(at(0, 0)) {
		t.Errorf("start = %s", start)
	}
	want := time.Date(2024, 6, 3, 23, 59, 59, int(999*time.Millisecond), time.UTC)
	if !end.Equal(want) {
		t.Errorf("end = %s", end)
	}
}
