package services

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"time"

	"hackathon-platform/config"
	"hackathon-platform/metrics"
	"hackathon-platform/models"
	"hackathon-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const maxMeetingDuration = 8 * time.Hour

type MeetingService struct {
	DB      *gorm.DB
	Policy  *Policy
	BaseURL string
}

func NewMeetingService(db *gorm.DB, policy *Policy, baseURL string) *MeetingService {
	return &MeetingService{DB: db, Policy: policy, BaseURL: baseURL}
}

type MeetingInput struct {
	HostID          string             `json:"host_id"`
	TeamID          *string            `json:"team_id"`
	Title           string             `json:"title" validate:"required,max=160"`
	Description     string             `json:"description" validate:"max=5000"`
	Type            models.MeetingType `json:"type" validate:"omitempty,oneof=MENTORING EVALUATION PRESENTATION"`
	ScheduledAt     time.Time          `json:"scheduled_at" validate:"required"`
	EndTime         *time.Time         `json:"end_time"`
	DurationMinutes int                `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
}

// Window resolves [start,end) from either end_time or duration_minutes.
func (in MeetingInput) Window() (time.Time, time.Time, error) {
	start := in.ScheduledAt
	var end time.Time
	switch {
	case in.EndTime != nil:
		end = *in.EndTime
	case in.DurationMinutes > 0:
		end = start.Add(time.Duration(in.DurationMinutes) * time.Minute)
	default:
		return time.Time{}, time.Time{}, Invalid("end_time or duration_minutes is required")
	}
	if !end.After(start) {
		return time.Time{}, time.Time{}, Invalid("end_time must be after scheduled_at")
	}
	if end.Sub(start) > maxMeetingDuration {
		return time.Time{}, time.Time{}, Invalid("meetings cannot be longer than 8 hours")
	}
	return start, end, nil
}

// lockHost serialises scheduling per host for the rest of tx. Only PostgreSQL has
// advisory locks; elsewhere the conflict check stays best-effort.
func lockHost(tx *gorm.DB, hostID string) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", "meeting-host:"+hostID).Error
}

// hostBookings loads the host's non-cancelled meetings that could touch [start,end).
func hostBookings(tx *gorm.DB, hostID string, start, end time.Time) ([]models.Meeting, error) {
	var list []models.Meeting
	err := tx.Where("host_id = ? AND status <> ?", hostID, models.MeetingCancelled).
		Where("scheduled_at < ? AND end_time > ?", end.Add(maxMeetingDuration), start.Add(-maxMeetingDuration)).
		Order("scheduled_at ASC").
		Find(&list).Error
	return list, err
}

var errMeetingConflict = errors.New("meeting conflict")

func (s *MeetingService) ScheduleMeeting(c *fiber.Ctx) error {
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	var in MeetingInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := utils.ValidateStruct(in); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}
	start, end, err := in.Window()
	if err != nil {
		return respond(c, err)
	}
	if in.HostID == "" {
		in.HostID = userID
	}
	if in.Type == "" {
		in.Type = models.MeetingTypeMentoring
	}

	if in.HostID != userID {
		ok, err := s.Policy.IsOrganizer(userID, h.OrganizationID)
		if err != nil {
			return respond(c, Unexpected("MEETING", err))
		}
		if !ok {
			return respond(c, Forbidden("only organizers can schedule meetings for another host"))
		}
	}
	canHost, err := s.Policy.CanHost(in.HostID, h)
	if err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	if !canHost {
		return respond(c, Forbidden("host must be a mentor, judge or organizer of this hackathon"))
	}

	var teamMembers []string
	if in.TeamID != nil {
		var team models.Team
		if err := s.DB.Preload("Members").First(&team, "id = ? AND hackathon_id = ?", *in.TeamID, h.ID).Error; err != nil {
			return respond(c, notFoundOr("MEETING", "team not found", err))
		}
		for _, m := range team.Members {
			teamMembers = append(teamMembers, m.UserID)
		}
	}

	meeting := models.Meeting{
		ID:              uuid.NewString(),
		HackathonID:     h.ID,
		HostID:          in.HostID,
		TeamID:          in.TeamID,
		Title:           in.Title,
		Description:     in.Description,
		Type:            in.Type,
		ScheduledAt:     start,
		EndTime:         end,
		DurationMinutes: int(end.Sub(start) / time.Minute),
		Status:          models.MeetingScheduled,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := lockHost(tx, meeting.HostID); err != nil {
			return err
		}
		existing, err := hostBookings(tx, meeting.HostID, start, end)
		if err != nil {
			return err
		}
		if HasConflict(start, end, existing) {
			return errMeetingConflict
		}
		if err := tx.Create(&meeting).Error; err != nil {
			return err
		}
		if err := AddOutboxEvent(tx, models.EventMeetingLinkRequested, meeting.ID, meeting); err != nil {
			return err
		}
		notes := s.meetingNotifications(h, meeting, teamMembers, models.NotificationMeetingScheduled)
		if len(notes) == 0 {
			return nil
		}
		if err := tx.Create(&notes).Error; err != nil {
			return err
		}
		return AddNotificationEvents(tx, notes)
	})
	if errors.Is(err, errMeetingConflict) {
		metrics.MeetingConflicts.Inc()
		return respond(c, Invalid("host already has a meeting in this time range"))
	}
	if err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	log.Printf("📅 [MEETING] %s scheduled for host %s %s–%s", meeting.ID, meeting.HostID, start.Format(time.RFC3339), end.Format(time.RFC3339))
	return c.Status(fiber.StatusCreated).JSON(meeting)
}

func (s *MeetingService) meetingNotifications(h *models.Hackathon, m models.Meeting, recipients []string, kind models.NotificationType) []models.Notification {
	title := "Meeting scheduled: " + m.Title
	msg := fmt.Sprintf("%s on %s.", m.Title, m.ScheduledAt.In(config.Location).Format("Mon 2 Jan 15:04 MST"))
	if kind == models.NotificationMeetingCancelled {
		title = "Meeting cancelled: " + m.Title
		msg = fmt.Sprintf("%s on %s was cancelled.", m.Title, m.ScheduledAt.In(config.Location).Format("Mon 2 Jan 15:04 MST"))
		if m.CancelReason != "" {
			msg += " Reason: " + m.CancelReason
		}
	}
	link := fmt.Sprintf("%s/hackathons/%s/meetings/%s", s.BaseURL, h.ID, m.ID)
	out := make([]models.Notification, 0, len(recipients))
	for _, uid := range recipients {
		out = append(out, models.Notification{
			ID:          uuid.NewString(),
			UserID:      uid,
			HackathonID: h.ID,
			Type:        kind,
			Title:       title,
			Message:     msg,
			Link:        link,
		})
	}
	return out
}

// CancelMeeting soft-deletes a meeting; cancelled rows are kept for audit.
func (s *MeetingService) CancelMeeting(c *fiber.Ctx) error {
	type Req struct {
		Reason string `json:"reason" validate:"max=500"`
	}
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var meeting models.Meeting
	if err := s.DB.First(&meeting, "id = ? AND hackathon_id = ?", c.Params("meeting_id"), h.ID).Error; err != nil {
		return respond(c, notFoundOr("MEETING", "meeting not found", err))
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	if meeting.HostID != userID {
		ok, err := s.Policy.CanManageHackathon(userID, h.ID)
		if err != nil {
			return respond(c, Unexpected("MEETING", err))
		}
		if !ok {
			return respond(c, Forbidden("only the host or an organizer can cancel this meeting"))
		}
	}
	if meeting.Status == models.MeetingCancelled {
		return respond(c, Invalid("meeting is already cancelled"))
	}
	var req Req
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return respond(c, err)
		}
	}
	if err := utils.ValidateStruct(req); err != nil {
		return respond(c, Invalid(utils.FormatValidationErrors(err)))
	}

	now := timeNow()
	meeting.Status = models.MeetingCancelled
	meeting.CancelledAt = &now
	meeting.CancelReason = req.Reason

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(&meeting).Error; err != nil {
			return err
		}
		if err := AddOutboxEvent(tx, models.EventMeetingCancelled, meeting.ID, meeting); err != nil {
			return err
		}
		if meeting.TeamID == nil {
			return nil
		}
		var members []string
		if err := tx.Model(&models.TeamMember{}).Where("team_id = ?", *meeting.TeamID).Pluck("user_id", &members).Error; err != nil {
			return err
		}
		notes := s.meetingNotifications(h, meeting, members, models.NotificationMeetingCancelled)
		if len(notes) == 0 {
			return nil
		}
		if err := tx.Create(&notes).Error; err != nil {
			return err
		}
		return AddNotificationEvents(tx, notes)
	})
	if err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	return c.JSON(meeting)
}

// parseDay reads ?date=YYYY-MM-DD in the configured zone.
func parseDay(raw string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", raw, config.Location)
	if err != nil {
		return time.Time{}, Invalid("date must be YYYY-MM-DD")
	}
	return d, nil
}

type ScheduledTime struct {
	ID          string               `json:"id"`
	ScheduledAt time.Time            `json:"scheduled_at"`
	EndTime     time.Time            `json:"end_time"`
	Status      models.MeetingStatus `json:"status"`
}

// HostScheduledTimes lists the host's non-cancelled bookings: future ones by
// default, or those on ?date= when given.
func (s *MeetingService) HostScheduledTimes(c *fiber.Ctx) error {
	if _, err := requireUser(c); err != nil {
		return respond(c, err)
	}
	if _, _, err := s.Policy.RequireViewer(c, c.Params("id")); err != nil {
		return respond(c, err)
	}
	q := s.DB.Model(&models.Meeting{}).
		Where("host_id = ? AND status <> ?", c.Params("host_id"), models.MeetingCancelled)
	if raw := c.Query("date"); raw != "" {
		day, err := parseDay(raw)
		if err != nil {
			return respond(c, err)
		}
		from, to := DayBounds(day, config.Location)
		q = q.Where("scheduled_at >= ? AND scheduled_at <= ?", from, to)
	} else {
		q = q.Where("scheduled_at >= ?", timeNow())
	}
	var times []ScheduledTime
	if err := q.Select("id", "scheduled_at", "end_time", "status").Order("scheduled_at ASC").Scan(&times).Error; err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	if times == nil {
		times = []ScheduledTime{}
	}
	return c.JSON(times)
}

// HostAvailability returns the host's slots for ?date= within working hours.
func (s *MeetingService) HostAvailability(c *fiber.Ctx) error {
	if _, err := requireUser(c); err != nil {
		return respond(c, err)
	}
	if _, _, err := s.Policy.RequireViewer(c, c.Params("id")); err != nil {
		return respond(c, err)
	}
	day, err := parseDay(c.Query("date"))
	if err != nil {
		return respond(c, err)
	}
	cfg := SlotConfig{
		StartHour:    c.QueryInt("start_hour", DefaultSlotConfig.StartHour),
		EndHour:      c.QueryInt("end_hour", DefaultSlotConfig.EndHour),
		SlotDuration: time.Duration(c.QueryInt("slot_minutes", int(DefaultSlotConfig.SlotDuration/time.Minute))) * time.Minute,
	}
	if err := cfg.Validate(); err != nil {
		return respond(c, err)
	}

	from, to := DayBounds(day, config.Location)
	var existing []models.Meeting
	if err := s.DB.Where("host_id = ? AND status <> ?", c.Params("host_id"), models.MeetingCancelled).
		Where("scheduled_at <= ? AND end_time > ?", to, from).
		Find(&existing).Error; err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	return c.JSON(slices.Collect(AvailableSlots(day, existing, cfg)))
}

// TeamMeetings is visible to the team's members, staff and organizers.
func (s *MeetingService) TeamMeetings(c *fiber.Ctx) error {
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	teamID := c.Params("team_id")
	var team models.Team
	if err := s.DB.First(&team, "id = ? AND hackathon_id = ?", teamID, h.ID).Error; err != nil {
		return respond(c, notFoundOr("MEETING", "team not found", err))
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	member, err := s.Policy.TeamOf(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	if member == nil || member.TeamID != team.ID {
		ok, err := s.Policy.CanHost(userID, h)
		if err != nil {
			return respond(c, Unexpected("MEETING", err))
		}
		if !ok {
			return respond(c, Forbidden("not a member of this team"))
		}
	}
	var meetings []models.Meeting
	if err := s.DB.Where("team_id = ?", team.ID).Order("scheduled_at ASC").Find(&meetings).Error; err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return c.JSON(meetings)
}

// MyMeetings lists meetings the caller hosts in this hackathon.
func (s *MeetingService) MyMeetings(c *fiber.Ctx) error {
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	q := s.DB.Where("hackathon_id = ? AND host_id = ?", h.ID, userID)
	if !c.QueryBool("include_cancelled", false) {
		q = q.Where("status <> ?", models.MeetingCancelled)
	}
	var meetings []models.Meeting
	if err := q.Order("scheduled_at ASC").Find(&meetings).Error; err != nil {
		return respond(c, Unexpected("MEETING", err))
	}
	if meetings == nil {
		meetings = []models.Meeting{}
	}
	return c.JSON(meetings)
}
