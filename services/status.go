package services

import (
	"time"

	"hackathon-platform/models"
)

// timeNow is swapped in tests.
var timeNow = time.Now

type StatusDates struct {
	RegistrationStart time.Time
	RegistrationEnd   time.Time
	HackathonStart    time.Time
	HackathonEnd      time.Time
	ResultsDate       *time.Time
}

func DatesOf(h models.Hackathon) StatusDates {
	return StatusDates{
		RegistrationStart: h.RegistrationStart,
		RegistrationEnd:   h.RegistrationEnd,
		HackathonStart:    h.HackathonStart,
		HackathonEnd:      h.HackathonEnd,
		ResultsDate:       h.ResultsDate,
	}
}

// Validate enforces registrationStart <= registrationEnd and hackathonStart <= hackathonEnd.
func (d StatusDates) Validate() error {
	if d.RegistrationEnd.Before(d.RegistrationStart) {
		return Invalid("registration_end must not be before registration_start")
	}
	if d.HackathonEnd.Before(d.HackathonStart) {
		return Invalid("hackathon_end must not be before hackathon_start")
	}
	return nil
}

// calendarDay drops the clock so that two instants on the same local day compare equal.
func calendarDay(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ComputeStatus derives the lifecycle status from the configured dates. DRAFT and
// CANCELLED are pinned by organizers and returned as is.
func ComputeStatus(d StatusDates, current models.HackathonStatus, now time.Time, loc *time.Location) models.HackathonStatus {
	if current.IsManual() {
		return current
	}
	if loc == nil {
		loc = time.UTC
	}

	today := calendarDay(now, loc)
	regStart := calendarDay(d.RegistrationStart, loc)
	regEnd := calendarDay(d.RegistrationEnd, loc)
	start := calendarDay(d.HackathonStart, loc)
	end := calendarDay(d.HackathonEnd, loc)

	switch {
	case today.After(end):
		if d.ResultsDate != nil && today.After(calendarDay(*d.ResultsDate, loc)) {
			return models.HackathonStatusCompleted
		}
		return models.HackathonStatusJudging
	case !today.Before(start) && !today.After(end):
		return models.HackathonStatusInProgress
	case today.After(regEnd) && today.Before(start):
		return models.HackathonStatusRegistrationClosed
	case !today.Before(regStart) && !today.After(regEnd):
		return models.HackathonStatusRegistrationOpen
	case today.Before(regStart):
		return models.HackathonStatusPublished
	}
	return current
}
