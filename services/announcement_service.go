package services

import (
	"errors"
	"log"
	"time"

	"hackathon-platform/metrics"
	"hackathon-platform/models"
	"hackathon-platform/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnnouncementService struct {
	DB      *gorm.DB
	Policy  *Policy
	BaseURL string
}

func NewAnnouncementService(db *gorm.DB, policy *Policy, baseURL string) *AnnouncementService {
	return &AnnouncementService{DB: db, Policy: policy, BaseURL: baseURL}
}

type AnnouncementInput struct {
	Title          string                      `json:"title" validate:"required,max=200"`
	Content        string                      `json:"content" validate:"required,max=20000"`
	TargetAudience models.AnnouncementAudience `json:"target_audience" validate:"omitempty,oneof=ALL REGISTERED APPROVED"`
	IsPinned       bool                        `json:"is_pinned"`
	PublishAt      *time.Time                  `json:"publish_at"`
	ExpiresAt      *time.Time                  `json:"expires_at"`
	Publish        bool                        `json:"publish"`
}

func (in AnnouncementInput) Validate() error {
	if err := utils.ValidateStruct(in); err != nil {
		return Invalid(utils.FormatValidationErrors(err))
	}
	if in.PublishAt != nil && in.ExpiresAt != nil && !in.ExpiresAt.After(*in.PublishAt) {
		return Invalid("expires_at must be after publish_at")
	}
	return nil
}

// fanOut creates the missing notification rows for a published announcement and
// queues their delivery. Rows are unique per (announcement, user), so running it
// again only reaches recipients that were not notified yet.
func (s *AnnouncementService) fanOut(tx *gorm.DB, a *models.Announcement, now time.Time) (int, error) {
	var locked models.Announcement
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", a.ID).Error; err != nil {
		return 0, err
	}

	var recipients []string
	if err := tx.Model(&models.Registration{}).
		Where("hackathon_id = ? AND status IN ?", a.HackathonID, RecipientStatuses(a.TargetAudience)).
		Order("created_at ASC").
		Pluck("user_id", &recipients).Error; err != nil {
		return 0, err
	}
	var already []string
	if err := tx.Model(&models.Notification{}).Where("announcement_id = ?", a.ID).Pluck("user_id", &already).Error; err != nil {
		return 0, err
	}
	seen := make(map[string]struct{}, len(already))
	for _, id := range already {
		seen[id] = struct{}{}
	}
	fresh := recipients[:0]
	for _, id := range recipients {
		if _, ok := seen[id]; !ok {
			fresh = append(fresh, id)
		}
	}

	notes := BuildNotifications(*a, fresh, s.BaseURL, uuid.NewString)
	if len(notes) > 0 {
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "announcement_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).CreateInBatches(&notes, 500).Error; err != nil {
			return 0, err
		}
		if err := AddNotificationEvents(tx, notes); err != nil {
			return 0, err
		}
	}
	if a.FannedOutAt == nil {
		a.FannedOutAt = &now
		if err := tx.Model(&models.Announcement{}).Where("id = ?", a.ID).Update("fanned_out_at", now).Error; err != nil {
			return 0, err
		}
	}
	metrics.NotificationsFannedOut.Add(float64(len(notes)))
	return len(notes), nil
}

func (s *AnnouncementService) CreateAnnouncement(c *fiber.Ctx) error {
	h, userID, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	var in AnnouncementInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}

	now := timeNow()
	a := models.Announcement{
		ID:             uuid.NewString(),
		HackathonID:    h.ID,
		AuthorID:       userID,
		Title:          in.Title,
		Content:        in.Content,
		TargetAudience: in.TargetAudience,
		IsPinned:       in.IsPinned,
		IsPublished:    in.Publish,
		PublishAt:      now,
		ExpiresAt:      in.ExpiresAt,
	}
	if a.TargetAudience == "" {
		a.TargetAudience = models.AudienceAll
	}
	if in.PublishAt != nil {
		a.PublishAt = *in.PublishAt
	}

	sent := 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&a).Error; err != nil {
			return err
		}
		if !a.IsPublished || a.PublishAt.After(now) {
			return nil
		}
		n, err := s.fanOut(tx, &a, now)
		sent = n
		return err
	})
	if err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}
	log.Printf("📣 [ANNOUNCEMENT] %s created in %s (published=%t, notified=%d)", a.ID, h.ID, a.IsPublished, sent)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"announcement": a, "notified": sent})
}

func (s *AnnouncementService) loadAnnouncement(hackathonID, id string) (*models.Announcement, error) {
	var a models.Announcement
	if err := s.DB.First(&a, "id = ? AND hackathon_id = ?", id, hackathonID).Error; err != nil {
		return nil, notFoundOr("ANNOUNCEMENT", "announcement not found", err)
	}
	return &a, nil
}

// PublishAnnouncement marks the announcement published. Fan-out runs once its
// publish time is reached; repeating the call does not notify anyone twice.
func (s *AnnouncementService) PublishAnnouncement(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	a, err := s.loadAnnouncement(h.ID, c.Params("announcement_id"))
	if err != nil {
		return respond(c, err)
	}
	if a.FannedOutAt != nil {
		return c.JSON(fiber.Map{"announcement": a, "notified": 0})
	}

	now := timeNow()
	sent := 0
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(a).Update("is_published", true).Error; err != nil {
			return err
		}
		a.IsPublished = true
		if a.PublishAt.After(now) {
			return nil
		}
		n, err := s.fanOut(tx, a, now)
		sent = n
		return err
	})
	if err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}
	return c.JSON(fiber.Map{"announcement": a, "notified": sent})
}

// RepublishAnnouncement re-queues delivery of the existing notifications and
// reaches recipients who registered since the first fan-out.
func (s *AnnouncementService) RepublishAnnouncement(c *fiber.Ctx) error {
	h, userID, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	a, err := s.loadAnnouncement(h.ID, c.Params("announcement_id"))
	if err != nil {
		return respond(c, err)
	}
	now := timeNow()
	if a.FannedOutAt == nil || !a.IsPublished {
		return respond(c, Invalid("announcement has not been published yet"))
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return respond(c, Invalid("announcement has expired"))
	}

	var resent, added int
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		var existing []models.Notification
		if err := tx.Where("announcement_id = ?", a.ID).Find(&existing).Error; err != nil {
			return err
		}
		if err := AddNotificationEvents(tx, existing); err != nil {
			return err
		}
		resent = len(existing)
		n, err := s.fanOut(tx, a, now)
		added = n
		return err
	})
	if err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}
	log.Printf("📣 [ANNOUNCEMENT] %s republished by %s (resent=%d, new=%d)", a.ID, userID, resent, added)
	return c.JSON(fiber.Map{"announcement": a, "resent": resent, "notified": added})
}

func (s *AnnouncementService) UpdateAnnouncement(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	a, err := s.loadAnnouncement(h.ID, c.Params("announcement_id"))
	if err != nil {
		return respond(c, err)
	}
	var in AnnouncementInput
	if err := parseBody(c, &in); err != nil {
		return respond(c, err)
	}
	if err := in.Validate(); err != nil {
		return respond(c, err)
	}
	a.Title = in.Title
	a.Content = in.Content
	a.IsPinned = in.IsPinned
	a.ExpiresAt = in.ExpiresAt
	if in.TargetAudience != "" {
		a.TargetAudience = in.TargetAudience
	}
	if in.PublishAt != nil && a.FannedOutAt == nil {
		a.PublishAt = *in.PublishAt
	}
	if err := s.DB.Save(a).Error; err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}
	return c.JSON(a)
}

func (s *AnnouncementService) DeleteAnnouncement(c *fiber.Ctx) error {
	h, _, err := s.Policy.RequireManager(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	a, err := s.loadAnnouncement(h.ID, c.Params("announcement_id"))
	if err != nil {
		return respond(c, err)
	}
	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("announcement_id = ?", a.ID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(a).Error
	})
	if err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}
	return success(c)
}

// ListAnnouncements applies the visibility filter for the caller. Organizers may
// pass ?all=true to include drafts, scheduled and expired announcements.
func (s *AnnouncementService) ListAnnouncements(c *fiber.Ctx) error {
	h, userID, err := s.Policy.RequireViewer(c, c.Params("id"))
	if err != nil {
		return respond(c, err)
	}
	organizer, err := s.Policy.IsOrganizer(userID, h.OrganizationID)
	if err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}

	var list []models.Announcement
	if err := s.DB.Where("hackathon_id = ?", h.ID).Find(&list).Error; err != nil {
		return respond(c, Unexpected("ANNOUNCEMENT", err))
	}
	if list == nil {
		list = []models.Announcement{}
	}
	if organizer && c.QueryBool("all", false) {
		SortAnnouncements(list)
		return c.JSON(list)
	}

	tier := TierApproved
	if !organizer {
		reg, err := s.Policy.Registration(h.ID, userID)
		if err != nil {
			return respond(c, Unexpected("ANNOUNCEMENT", err))
		}
		tier = TierOf(reg)
	}
	return c.JSON(VisibleAnnouncements(list, tier, timeNow()))
}

// PublishDue fans out published announcements whose publish time has arrived.
func (s *AnnouncementService) PublishDue(now time.Time) (int, error) {
	var due []models.Announcement
	if err := s.DB.Where("is_published = ? AND fanned_out_at IS NULL AND publish_at <= ?", true, now).
		Find(&due).Error; err != nil {
		return 0, err
	}
	total := 0
	var errs []error
	for i := range due {
		a := &due[i]
		var n int
		err := s.DB.Transaction(func(tx *gorm.DB) error {
			var err error
			n, err = s.fanOut(tx, a, now)
			return err
		})
		if err != nil {
			errs = append(errs, err)
			log.Printf("[Scheduler] Failed to fan out announcement %s: %v", a.ID, err)
			continue
		}
		total += n
		log.Printf("✅ Auto-published announcement: %s", a.Title)
	}
	return total, errors.Join(errs...)
}
