package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"hackathon-platform/elastic"
	"hackathon-platform/metrics"
	"hackathon-platform/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ObjectStore stores uploaded files and returns their public URL.
type ObjectStore interface {
	Upload(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error)
}

// SearchFunc queries the submission index of one hackathon.
type SearchFunc func(ctx context.Context, hackathonID, q string, size int) ([]elastic.SubmissionHit, error)

const maxAttachmentBytes = 25 << 20

type SubmissionService struct {
	DB      *gorm.DB
	Policy  *Policy
	Store   ObjectStore
	Search  SearchFunc
	BaseURL string
}

func NewSubmissionService(db *gorm.DB, policy *Policy, store ObjectStore, search SearchFunc, baseURL string) *SubmissionService {
	return &SubmissionService{DB: db, Policy: policy, Store: store, Search: search, BaseURL: baseURL}
}

// isDuplicate recognises unique violations whether or not the dialect translated them.
func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value")
}

func rejectSubmission(reason string, err error) error {
	metrics.SubmissionsRejected.WithLabelValues(reason).Inc()
	return err
}

func (s *SubmissionService) CreateSubmission(c *fiber.Ctx) error {
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	stage, err := s.Policy.LoadStage(h.ID, c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	approved, err := s.Policy.IsApprovedParticipant(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	if !approved {
		return respond(c, rejectSubmission("not_participant", Forbidden("only approved participants can submit")))
	}

	var in SubmissionContent
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, rejectSubmission("invalid_content", err))
	}

	now := timeNow()
	late, err := CheckCreate(*stage, now)
	if err != nil {
		return respond(c, rejectSubmission("stage_policy", err))
	}
	team, err := s.Policy.TeamOf(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	author, err := ResolveAuthor(*stage, userID, team)
	if err != nil {
		return respond(c, rejectSubmission("no_team", err))
	}

	var existing int64
	if err := s.DB.Model(&models.Submission{}).
		Where("stage_id = ? AND author_key = ?", stage.ID, author.Key).
		Count(&existing).Error; err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	if existing > 0 {
		return respond(c, rejectSubmission("duplicate", Invalid("duplicate submission")))
	}

	sub := models.Submission{
		ID:          uuid.NewString(),
		StageID:     stage.ID,
		HackathonID: h.ID,
		AuthorKey:   author.Key,
		UserID:      author.UserID,
		TeamID:      author.TeamID,
		SubmittedBy: userID,
		Status:      models.SubmissionSubmitted,
		IsLate:      late,
		SubmittedAt: now,
	}
	in.ApplyTo(&sub)

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&sub).Error; err != nil {
			return err
		}
		return AddOutboxEvent(tx, models.EventSubmissionUpserted, sub.ID, fiber.Map{"stage_id": sub.StageID})
	})
	if err != nil {
		if isDuplicate(err) {
			return respond(c, rejectSubmission("duplicate", Invalid("duplicate submission")))
		}
		return respond(c, Unexpected("SUBMISSION", err))
	}

	metrics.SubmissionsCreated.WithLabelValues(strconv.FormatBool(late)).Inc()
	log.Printf("✅ [SUBMISSION] %s created for stage %s by %s (late=%t)", sub.ID, stage.ID, author.Key, late)
	return c.Status(fiber.StatusCreated).JSON(sub)
}

type AuthorInfo struct {
	Kind        string   `json:"kind"`
	UserID      string   `json:"user_id,omitempty"`
	Username    string   `json:"username,omitempty"`
	DisplayName string   `json:"display_name,omitempty"`
	TeamID      string   `json:"team_id,omitempty"`
	TeamName    string   `json:"team_name,omitempty"`
	MemberIDs   []string `json:"member_ids,omitempty"`
}

type SubmissionView struct {
	models.Submission
	Author *AuthorInfo `json:"author,omitempty"`
}

// attachAuthors resolves user and team identity for organizer listings.
func (s *SubmissionService) attachAuthors(subs []models.Submission) ([]SubmissionView, error) {
	var userIDs, teamIDs []string
	for _, sub := range subs {
		if sub.UserID != nil {
			userIDs = append(userIDs, *sub.UserID)
		}
		if sub.TeamID != nil {
			teamIDs = append(teamIDs, *sub.TeamID)
		}
	}

	profiles := map[string]models.UserProfile{}
	if len(userIDs) > 0 {
		var list []models.UserProfile
		if err := s.DB.Where("external_user_id IN ?", userIDs).Find(&list).Error; err != nil {
			return nil, err
		}
		for _, p := range list {
			profiles[p.ExternalUserID] = p
		}
	}
	teams := map[string]models.Team{}
	if len(teamIDs) > 0 {
		var list []models.Team
		if err := s.DB.Preload("Members").Where("id IN ?", teamIDs).Find(&list).Error; err != nil {
			return nil, err
		}
		for _, t := range list {
			teams[t.ID] = t
		}
	}

	views := make([]SubmissionView, 0, len(subs))
	for _, sub := range subs {
		info := &AuthorInfo{}
		switch {
		case sub.TeamID != nil:
			info.Kind = "team"
			info.TeamID = *sub.TeamID
			if t, ok := teams[*sub.TeamID]; ok {
				info.TeamName = t.Name
				for _, m := range t.Members {
					info.MemberIDs = append(info.MemberIDs, m.UserID)
				}
			}
		case sub.UserID != nil:
			info.Kind = "user"
			info.UserID = *sub.UserID
			if p, ok := profiles[*sub.UserID]; ok {
				info.Username = p.Username
				info.DisplayName = p.DisplayName
			}
		}
		views = append(views, SubmissionView{Submission: sub, Author: info})
	}
	return views, nil
}

// ListSubmissions returns every submission of the stage to organizers and at most
// the caller's own submission to everyone else.
func (s *SubmissionService) ListSubmissions(c *fiber.Ctx) error {
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	stage, err := s.Policy.LoadStage(h.ID, c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	organizer, err := s.Policy.IsOrganizer(userID, h.OrganizationID)
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}

	if organizer {
		var subs []models.Submission
		if err := s.DB.Where("stage_id = ?", stage.ID).Order("submitted_at ASC").Find(&subs).Error; err != nil {
			return respond(c, Unexpected("SUBMISSION", err))
		}
		views, err := s.attachAuthors(subs)
		if err != nil {
			return respond(c, Unexpected("SUBMISSION", err))
		}
		return c.JSON(views)
	}

	team, err := s.Policy.TeamOf(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	keys := []string{models.UserAuthorKey(userID)}
	if team != nil {
		keys = append(keys, models.TeamAuthorKey(team.TeamID))
	}
	var own []models.Submission
	if err := s.DB.Where("stage_id = ? AND author_key IN ?", stage.ID, keys).Limit(1).Find(&own).Error; err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	if own == nil {
		own = []models.Submission{}
	}
	return c.JSON(own)
}

// loadForCaller loads the submission in the URL and resolves the caller's rights on it.
func (s *SubmissionService) loadForCaller(c *fiber.Ctx) (*models.Hackathon, *models.Submission, string, bool, *models.TeamMember, error) {
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return nil, nil, "", false, nil, err
	}
	var sub models.Submission
	if err := s.DB.First(&sub, "id = ? AND hackathon_id = ?", c.Params("submission_id"), h.ID).Error; err != nil {
		return nil, nil, "", false, nil, notFoundOr("SUBMISSION", "submission not found", err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return nil, nil, "", false, nil, err
	}
	organizer, err := s.Policy.IsOrganizer(userID, h.OrganizationID)
	if err != nil {
		return nil, nil, "", false, nil, Unexpected("SUBMISSION", err)
	}
	team, err := s.Policy.TeamOf(h.ID, userID)
	if err != nil {
		return nil, nil, "", false, nil, Unexpected("SUBMISSION", err)
	}
	return h, &sub, userID, organizer, team, nil
}

func (s *SubmissionService) GetSubmission(c *fiber.Ctx) error {
	_, sub, userID, organizer, team, err := s.loadForCaller(c)
	if err != nil {
		return respond(c, err)
	}
	if !organizer && !IsAuthor(*sub, userID, team) {
		return respond(c, Forbidden("not your submission"))
	}
	return c.JSON(sub)
}

// EditSubmission is the author's content edit.
func (s *SubmissionService) EditSubmission(c *fiber.Ctx) error {
	h, sub, userID, _, team, err := s.loadForCaller(c)
	if err != nil {
		return respond(c, err)
	}
	if !IsAuthor(*sub, userID, team) {
		return respond(c, Forbidden("only the author can edit this submission"))
	}
	stage, err := s.Policy.LoadStage(h.ID, sub.StageID)
	if err != nil {
		return respond(c, err)
	}

	var in SubmissionContent
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, rejectSubmission("invalid_content", err))
	}
	now := timeNow()
	if err := CheckAuthorEdit(*stage, *sub, now); err != nil {
		return respond(c, rejectSubmission("edit_window", err))
	}

	in.ApplyTo(sub)
	sub.SubmittedAt = now
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sub).Error; err != nil {
			return err
		}
		return AddOutboxEvent(tx, models.EventSubmissionUpserted, sub.ID, fiber.Map{"stage_id": sub.StageID})
	})
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	return c.JSON(sub)
}

// ReviewSubmission lets organizers set any field, including status, score and
// feedback. A status change notifies the author.
func (s *SubmissionService) ReviewSubmission(c *fiber.Ctx) error {
	h, sub, userID, organizer, _, err := s.loadForCaller(c)
	if err != nil {
		return respond(c, err)
	}
	if !organizer {
		return respond(c, Forbidden("only organizers can review submissions"))
	}
	var in ReviewInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}

	statusChanged := ApplyReview(sub, in, userID, timeNow())
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(sub).Error; err != nil {
			return err
		}
		if err := AddOutboxEvent(tx, models.EventSubmissionUpserted, sub.ID, fiber.Map{"stage_id": sub.StageID}); err != nil {
			return err
		}
		if !statusChanged {
			return nil
		}
		recipients, err := s.authorUsers(tx, *sub)
		if err != nil {
			return err
		}
		notes := s.reviewNotifications(h, *sub, recipients)
		if len(notes) == 0 {
			return nil
		}
		if err := tx.Create(&notes).Error; err != nil {
			return err
		}
		return AddNotificationEvents(tx, notes)
	})
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	log.Printf("📝 [SUBMISSION] %s reviewed by %s (status %s)", sub.ID, userID, sub.Status)
	return c.JSON(sub)
}

func (s *SubmissionService) authorUsers(tx *gorm.DB, sub models.Submission) ([]string, error) {
	if sub.TeamID == nil {
		if sub.UserID == nil {
			return nil, nil
		}
		return []string{*sub.UserID}, nil
	}
	var ids []string
	err := tx.Model(&models.TeamMember{}).Where("team_id = ?", *sub.TeamID).Pluck("user_id", &ids).Error
	return ids, err
}

func (s *SubmissionService) reviewNotifications(h *models.Hackathon, sub models.Submission, recipients []string) []models.Notification {
	msg := fmt.Sprintf("Your submission %q is now %s.", sub.Title, sub.Status)
	if sub.Feedback != nil && *sub.Feedback != "" {
		msg += " Feedback: " + Preview(*sub.Feedback)
	}
	link := fmt.Sprintf("%s/hackathons/%s/stages/%s/submissions/%s", s.BaseURL, h.ID, sub.StageID, sub.ID)
	out := make([]models.Notification, 0, len(recipients))
	for _, uid := range recipients {
		out = append(out, models.Notification{
			ID:          uuid.NewString(),
			UserID:      uid,
			HackathonID: h.ID,
			Type:        models.NotificationSubmissionReviewed,
			Title:       "Submission reviewed: " + h.Name,
			Message:     msg,
			Link:        link,
		})
	}
	return out
}

func (s *SubmissionService) DeleteSubmission(c *fiber.Ctx) error {
	_, sub, userID, organizer, team, err := s.loadForCaller(c)
	if err != nil {
		return respond(c, err)
	}
	if !organizer {
		if !IsAuthor(*sub, userID, team) {
			return respond(c, Forbidden("only the author or an organizer can delete this submission"))
		}
		if err := CheckAuthorDelete(*sub); err != nil {
			return respond(c, err)
		}
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(sub).Error; err != nil {
			return err
		}
		return AddOutboxEvent(tx, models.EventSubmissionDeleted, sub.ID, fiber.Map{"stage_id": sub.StageID})
	})
	if err != nil {
		return respond(c, Unexpected("SUBMISSION", err))
	}
	log.Printf("🗑️ [SUBMISSION] %s deleted by %s", sub.ID, userID)
	return success(c)
}

// UploadAttachment stores one file for later reference from a submission's attachments.
func (s *SubmissionService) UploadAttachment(c *fiber.Ctx) error {
	h, err := s.Policy.LoadHackathon(c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	stage, err := s.Policy.LoadStage(h.ID, c.Params("stage_id"))
	if err != nil {
		return respond(c, err)
	}
	userID, err := requireUser(c)
	if err != nil {
		return respond(c, err)
	}
	approved, err := s.Policy.IsApprovedParticipant(h.ID, userID)
	if err != nil {
		return respond(c, Unexpected("UPLOAD", err))
	}
	if !approved {
		return respond(c, Forbidden("only approved participants can upload files"))
	}
	if s.Store == nil {
		return respond(c, fiber.NewError(fiber.StatusServiceUnavailable, "file storage is not configured"))
	}

	file, err := c.FormFile("file")
	if err != nil || file.Size == 0 {
		return respond(c, Invalid("file is required"))
	}
	if file.Size > maxAttachmentBytes {
		return respond(c, Invalid("file exceeds the 25MB limit"))
	}
	ext := filepath.Ext(file.Filename)
	key := fmt.Sprintf("submissions/%s/%s/%s%s", h.ID, stage.ID, uuid.NewString(), ext)
	url, err := s.Store.Upload(c.UserContext(), file, key)
	if err != nil {
		return respond(c, Unexpected("UPLOAD", err))
	}
	return c.Status(fiber.StatusCreated).JSON(models.Attachment{
		Name:        file.Filename,
		URL:         url,
		ContentType: file.Header.Get("Content-Type"),
	})
}

// SearchSubmissions runs a full-text query over the hackathon's indexed submissions.
func (s *SubmissionService) SearchSubmissions(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		return respond(c, Invalid("q is required"))
	}
	if s.Search == nil {
		return respond(c, fiber.NewError(fiber.StatusServiceUnavailable, "search is not configured"))
	}
	size := c.QueryInt("size", 20)
	if size < 1 || size > 100 {
		size = 20
	}
	hits, err := s.Search(c.UserContext(), h.ID, q, size)
	if err != nil {
		return respond(c, Unexpected("SEARCH", err))
	}
	return c.JSON(hits)
}
