// workers/profile_sync_worker.go
package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"hackathon-platform/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemoteProfile matches the JSON served by the identity sync endpoint.
type RemoteProfile struct {
	ExternalID        string    `json:"external_id"`
	Username          string    `json:"username"`
	Email             string    `json:"email"`
	FirstName         *string   `json:"first_name,omitempty"`
	LastName          *string   `json:"last_name,omitempty"`
	ProfilePictureURL *string   `json:"profile_picture_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type profileChangesResponse struct {
	Users []RemoteProfile `json:"users"`
}

// ProfileSyncWorker mirrors identity-service profiles into user_profiles so
// organizer listings can show who authored a submission.
type ProfileSyncWorker struct {
	db           *gorm.DB
	interval     time.Duration
	baseURL      string
	endpointPath string
	serviceToken string
	httpClient   *http.Client
}

func NewProfileSyncWorker(db *gorm.DB, baseURL, endpointPath, serviceToken string) *ProfileSyncWorker {
	return &ProfileSyncWorker{
		db:           db,
		interval:     1 * time.Minute,
		baseURL:      baseURL,
		endpointPath: endpointPath,
		serviceToken: serviceToken,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (w *ProfileSyncWorker) Start(ctx context.Context) {
	log.Println("🔁 Starting profile sync worker (identity → user_profiles)…")
	go w.run(ctx)
}

func (w *ProfileSyncWorker) run(ctx context.Context) {
	if _, err := w.SyncSince(ctx, time.Time{}); err != nil {
		log.Printf("⚠️ Initial profile sync failed: %v", err)
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := w.SyncSince(ctx, w.lastSyncTime()); err != nil {
				log.Printf("❌ Profile sync batch failed: %v", err)
			}
		case <-ctx.Done():
			log.Println("⏹️ Profile sync worker stopped")
			return
		}
	}
}

func (w *ProfileSyncWorker) lastSyncTime() time.Time {
	var latest models.UserProfile
	if err := w.db.Order("updated_at DESC").Limit(1).Find(&latest).Error; err != nil || latest.UpdatedAt.IsZero() {
		return time.Unix(0, 0)
	}
	return latest.UpdatedAt
}

// SyncSince fetches profiles changed after since and upserts them by external id.
// It returns the number of profiles written.
func (w *ProfileSyncWorker) SyncSince(ctx context.Context, since time.Time) (int, error) {
	sinceStr := since.UTC().Format(time.RFC3339)

	base, err := url.Parse(w.baseURL)
	if err != nil {
		return 0, fmt.Errorf("invalid profile sync URL '%s': %w", w.baseURL, err)
	}
	endpointURL := base.JoinPath(w.endpointPath)
	q := endpointURL.Query()
	q.Set("since", sinceStr)
	endpointURL.RawQuery = q.Encode()
	finalURL := endpointURL.String()

	log.Printf("[SYNC] ➡️  GET %s", finalURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, finalURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request to %s: %w", finalURL, err)
	}
	req.Header.Set("X-Service-Token", w.serviceToken)

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("HTTP request to profile service failed: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return 0, fmt.Errorf("profile service non-200 response: %d: %s", resp.StatusCode, string(body))
	}

	var response profileChangesResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return 0, fmt.Errorf("failed to decode profile service response: %w", err)
	}
	if len(response.Users) == 0 {
		return 0, nil
	}

	var upsertCount, errorCount int
	for _, remote := range response.Users {
		if remote.ExternalID == "" {
			errorCount++
			continue
		}
		local := models.UserProfile{
			ID:                uuid.NewString(),
			ExternalUserID:    remote.ExternalID,
			Username:          remote.Username,
			Email:             remote.Email,
			DisplayName:       displayName(remote),
			ProfilePictureURL: remote.ProfilePictureURL,
			CreatedAt:         remote.CreatedAt,
			UpdatedAt:         remote.UpdatedAt,
		}
		if err := w.db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"username", "email", "display_name", "profile_picture_url", "updated_at",
			}),
		}).Create(&local).Error; err != nil {
			errorCount++
			log.Printf("[SYNC] ⚠️ Failed to upsert user_profile (external_id=%q): %v", remote.ExternalID, err)
			continue
		}
		upsertCount++
	}

	log.Printf("[SYNC] ✅ Synced %d profiles (%d upserted, %d errors)", len(response.Users), upsertCount, errorCount)
	return upsertCount, nil
}

func displayName(p RemoteProfile) string {
	var parts []string
	if p.FirstName != nil && strings.TrimSpace(*p.FirstName) != "" {
		parts = append(parts, strings.TrimSpace(*p.FirstName))
	}
	if p.LastName != nil && strings.TrimSpace(*p.LastName) != "" {
		parts = append(parts, strings.TrimSpace(*p.LastName))
	}
	if len(parts) == 0 {
		return p.Username
	}
	return strings.Join(parts, " ")
}
