package services

import (
	"testing"
	"time"

	"hackathon-platform/models"
)

func day(y int, m time.Month, d, hour int) time.Time {
	return time.Date(y, m, d, hour, 0, 0, 0, time.UTC)
}

func sampleDates() StatusDates {
	results := day(2024, 7, 10, 12)
	return StatusDates{
		RegistrationStart: day(2024, 6, 1, 9),
		RegistrationEnd:   day(2024, 6, 10, 18),
		HackathonStart:    day(2024, 6, 15, 9),
		HackathonEnd:      day(2024, 6, 17, 18),
		ResultsDate:       &results,
	}
}

func TestComputeStatus(t *testing.T) {
	d := sampleDates()
	tests := []struct {
		name string
		now  time.Time
		want models.HackathonStatus
	}{
		{"before registration", day(2024, 5, 31, 23), models.HackathonStatusPublished},
		{"registration start day before opening hour", day(2024, 6, 1, 0), models.HackathonStatusRegistrationOpen},
		{"registration end day after closing hour", day(2024, 6, 10, 23), models.HackathonStatusRegistrationOpen},
		{"between registration and start", day(2024, 6, 12, 12), models.HackathonStatusRegistrationClosed},
		{"start day", day(2024, 6, 15, 1), models.HackathonStatusInProgress},
		{"end day late evening", day(2024, 6, 17, 23), models.HackathonStatusInProgress},
		{"day after end", day(2024, 6, 18, 0), models.HackathonStatusJudging},
		{"results day itself", day(2024, 7, 10, 23), models.HackathonStatusJudging},
		{"after results", day(2024, 7, 11, 0), models.HackathonStatusCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStatus(d, models.HackathonStatusPublished, tt.now, time.UTC)
			if got != tt.want {
				t.Fatalf("ComputeStatus at %s = %s, want %s", tt.now, got, tt.want)
			}
		})
	}
}

func TestComputeStatusWithoutResultsStaysJudging(t *testing.T) {
	d := sampleDates()
	d.ResultsDate = nil
	got := ComputeStatus(d, models.HackathonStatusInProgress, day(2025, 1, 1, 0), time.UTC)
	if got != models.HackathonStatusJudging {
		t.Fatalf("got %s, want JUDGING", got)
	}
}

func TestComputeStatusManualPins(t *testing.T) {
	d := sampleDates()
	for _, pinned := range []models.HackathonStatus{models.HackathonStatusDraft, models.HackathonStatusCancelled} {
		if got := ComputeStatus(d, pinned, day(2024, 6, 16, 12), time.UTC); got != pinned {
			t.Errorf("ComputeStatus(%s) = %s, want unchanged", pinned, got)
		}
	}
}

func TestComputeStatusUsesLocalCalendarDay(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skip("tzdata not available")
	}
	d := sampleDates()
	// 2024-06-14T20:00Z is already June 15th in Tokyo.
	now := day(2024, 6, 14, 20)
	if got := ComputeStatus(d, models.HackathonStatusPublished, now, time.UTC); got != models.HackathonStatusRegistrationClosed {
		t.Errorf("UTC: got %s", got)
	}
	if got := ComputeStatus(d, models.HackathonStatusPublished, now, tokyo); got != models.HackathonStatusInProgress {
		t.Errorf("Tokyo: got %s", got)
	}
}

// statusRank orders derived statuses along the event timeline.
var statusRank = map[models.HackathonStatus]int{
	models.HackathonStatusPublished:          1,
	models.HackathonStatusRegistrationOpen:   2,
	models.HackathonStatusRegistrationClosed: 3,
	models.HackathonStatusInProgress:         4,
	models.HackathonStatusJudging:            5,
	models.HackathonStatusCompleted:          6,
}

func TestComputeStatusIsMonotonic(t *testing.T) {
	d := sampleDates()
	prev := 0
	for now := day(2024, 5, 20, 0); now.Before(day(2024, 7, 20, 0)); now = now.Add(5 * time.Hour) {
		got := ComputeStatus(d, models.HackathonStatusPublished, now, time.UTC)
		rank, ok := statusRank[got]
		if !ok {
			t.Fatalf("unexpected status %s at %s", got, now)
		}
		if rank < prev {
			t.Fatalf("status moved backwards to %s at %s", got, now)
		}
		prev = rank
	}
	if prev != statusRank[models.HackathonStatusCompleted] {
		t.Fatalf("final rank = %d, want COMPLETED", prev)
	}
}

func TestStatusDatesValidate(t *testing.T) {
	d := sampleDates()
	if err := d.Validate(); err != nil {
		t.Fatalf("valid dates rejected: %v", err)
	}
	d.RegistrationEnd = d.RegistrationStart.Add(-time.Hour)
	if err := d.Validate(); err == nil {
		t.Fatal("expected registration ordering error")
	}
	d = sampleDates()
	d.HackathonEnd = d.HackathonStart.Add(-time.Hour)
	if err := d.Validate(); err == nil {
		t.Fatal("expected hackathon ordering error")
	}
}
