package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hackathon-platform/models"
)

func TestProfileSyncUpsertsByExternalID(t *testing.T) {
	db := testDB(t)
	first := "Ada"
	last := "Lovelace"
	updated := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	users := []RemoteProfile{
		{ExternalID: "ext-1", Username: "ada", Email: "ada@example.com", FirstName: &first, LastName: &last, UpdatedAt: updated},
		{ExternalID: "ext-2", Username: "grace", UpdatedAt: updated},
		{ExternalID: "", Username: "ghost"},
	}

	var gotToken, gotSince string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Service-Token")
		gotSince = r.URL.Query().Get("since")
		_ = json.NewEncoder(w).Encode(profileChangesResponse{Users: users})
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, srv.URL, "/api/v1/public/profiles", "svc")
	n, err := w.SyncSince(context.Background(), time.Time{})
	if err != nil {
		t.Fatalf("SyncSince: %v", err)
	}
	if n != 2 {
		t.Fatalf("upserted %d, want 2", n)
	}
	if gotToken != "svc" || gotSince != "0001-01-01T00:00:00Z" {
		t.Fatalf("token=%q since=%q", gotToken, gotSince)
	}

	var ada models.UserProfile
	db.First(&ada, "external_user_id = ?", "ext-1")
	if ada.DisplayName != "Ada Lovelace" || ada.Email != "ada@example.com" {
		t.Fatalf("unexpected profile %+v", ada)
	}

	// a second sync updates in place
	users = []RemoteProfile{{ExternalID: "ext-1", Username: "ada_l", UpdatedAt: updated.Add(time.Hour)}}
	if _, err := w.SyncSince(context.Background(), updated); err != nil {
		t.Fatal(err)
	}
	var count int64
	db.Model(&models.UserProfile{}).Count(&count)
	if count != 2 {
		t.Fatalf("profiles = %d, want 2", count)
	}
	db.First(&ada, "external_user_id = ?", "ext-1")
	if ada.Username != "ada_l" || ada.DisplayName != "ada_l" {
		t.Fatalf("profile not updated: %+v", ada)
	}
	if !w.lastSyncTime().Equal(updated.Add(time.Hour)) {
		t.Fatalf("lastSyncTime = %v", w.lastSyncTime())
	}
}

func TestProfileSyncNon200(t *testing.T) {
	db := testDB(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	w := NewProfileSyncWorker(db, srv.URL, "/profiles", "bad")
	if _, err := w.SyncSince(context.Background(), time.Time{}); err == nil {
		t.Fatal("expected error for 403")
	}
}
