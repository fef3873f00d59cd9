package services

import (
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"hackathon-platform/models"

	"golang.org/x/text/unicode/norm"
)

// ViewerTier is a reader's standing in a hackathon for audience matching.
type ViewerTier int

const (
	TierAnonymous ViewerTier = iota
	TierPending
	TierApproved
)

const previewLimit = 200

// TierOf maps a registration (possibly nil) to a tier. Rejected and withdrawn
// registrations count as anonymous.
func TierOf(r *models.Registration) ViewerTier {
	if r == nil {
		return TierAnonymous
	}
	switch r.Status {
	case models.RegistrationApproved:
		return TierApproved
	case models.RegistrationPending:
		return TierPending
	}
	return TierAnonymous
}

// AudienceIncludes reports whether tier is part of the audience's resolved tier set.
func AudienceIncludes(audience models.AnnouncementAudience, tier ViewerTier) bool {
	switch audience {
	case models.AudienceAll:
		return true
	case models.AudienceRegistered:
		return tier == TierPending || tier == TierApproved
	case models.AudienceApproved:
		return tier == TierApproved
	}
	return false
}

func IsVisible(a models.Announcement, tier ViewerTier, now time.Time) bool {
	if !a.IsPublished || a.PublishAt.After(now) {
		return false
	}
	if a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
		return false
	}
	return AudienceIncludes(a.TargetAudience, tier)
}

// SortAnnouncements puts pinned first, then newest PublishAt first.
func SortAnnouncements(list []models.Announcement) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].IsPinned != list[j].IsPinned {
			return list[i].IsPinned
		}
		return list[i].PublishAt.After(list[j].PublishAt)
	})
}

// VisibleAnnouncements filters and orders list for a viewer.
func VisibleAnnouncements(list []models.Announcement, tier ViewerTier, now time.Time) []models.Announcement {
	out := make([]models.Announcement, 0, len(list))
	for _, a := range list {
		if IsVisible(a, tier, now) {
			out = append(out, a)
		}
	}
	SortAnnouncements(out)
	return out
}

// RecipientStatuses lists the registration statuses that receive an announcement.
func RecipientStatuses(audience models.AnnouncementAudience) []models.RegistrationStatus {
	switch audience {
	case models.AudienceApproved:
		return []models.RegistrationStatus{models.RegistrationApproved}
	case models.AudienceRegistered:
		return []models.RegistrationStatus{models.RegistrationPending, models.RegistrationApproved}
	default:
		return []models.RegistrationStatus{models.RegistrationPending, models.RegistrationApproved, models.RegistrationRejected}
	}
}

// Preview truncates body to 200 characters and appends "..." when cut.
func Preview(body string) string {
	body = strings.TrimSpace(norm.NFC.String(body))
	if utf8.RuneCountInString(body) <= previewLimit {
		return body
	}
	runes := []rune(body)
	return string(runes[:previewLimit]) + "..."
}

func AnnouncementLink(baseURL, hackathonID, announcementID string) string {
	return fmt.Sprintf("%s/hackathons/%s/announcements#%s", baseURL, hackathonID, announcementID)
}

// BuildNotifications synthesizes one notification per recipient.
func BuildNotifications(a models.Announcement, recipients []string, baseURL string, newID func() string) []models.Notification {
	preview := Preview(a.Content)
	link := AnnouncementLink(baseURL, a.HackathonID, a.ID)
	annID := a.ID
	out := make([]models.Notification, 0, len(recipients))
	for _, userID := range recipients {
		out = append(out, models.Notification{
			ID:             newID(),
			UserID:         userID,
			HackathonID:    a.HackathonID,
			AnnouncementID: &annID,
			Type:           models.NotificationAnnouncement,
			Title:          a.Title,
			Message:        preview,
			Link:           link,
		})
	}
	return out
}
