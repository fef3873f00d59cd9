package workers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"hackathon-platform/models"

	"github.com/glebarez/sqlite"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "workers.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.OutboxEvent{}, &models.DeliveryFailure{}, &models.Meeting{}, &models.Submission{}, &models.UserProfile{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func enqueue(t *testing.T, db *gorm.DB, eventType, entityID string, payload any) models.OutboxEvent {
	t.Helper()
	data, _ := json.Marshal(payload)
	e := models.OutboxEvent{EventType: eventType, EntityID: entityID, Payload: datatypes.JSON(data)}
	if err := db.Create(&e).Error; err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	return e
}

type recorder struct {
	mu       sync.Mutex
	received []webhookEnvelope
	fail     bool
}

func (r *recorder) handler(reply any) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.fail {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		var env webhookEnvelope
		_ = json.NewDecoder(req.Body).Decode(&env)
		r.received = append(r.received, env)
		_ = json.NewEncoder(w).Encode(reply)
	}
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.received)
}

func TestProcessOnceDeliversEvents(t *testing.T) {
	db := testDB(t)
	notify := &recorder{}
	notifySrv := httptest.NewServer(notify.handler(map[string]bool{"ok": true}))
	defer notifySrv.Close()
	links := &recorder{}
	linkSrv := httptest.NewServer(links.handler(meetingLinkResponse{MeetingLink: "https://meet.example/abc"}))
	defer linkSrv.Close()

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	meeting := models.Meeting{
		ID: "m1", HackathonID: "h1", HostID: "mentor", Title: "Sync",
		Type: models.MeetingTypeMentoring, ScheduledAt: start, EndTime: start.Add(30 * time.Minute),
		Status: models.MeetingScheduled,
	}
	if err := db.Create(&meeting).Error; err != nil {
		t.Fatal(err)
	}

	enqueue(t, db, models.EventNotificationCreated, "n1", map[string]string{"user_id": "u1"})
	enqueue(t, db, models.EventMeetingLinkRequested, "m1", meeting)
	enqueue(t, db, models.EventSubmissionUpserted, "s1", map[string]string{"stage_id": "st1"})

	w := &DeliveryWorker{DB: db, NotifyURL: notifySrv.URL, MeetingLinkURL: linkSrv.URL, ServiceToken: "svc"}
	n, err := w.ProcessOnce(context.Background())
	if err != nil {
		t.Fatalf("ProcessOnce: %v", err)
	}
	if n != 3 {
		t.Fatalf("claimed %d events, want 3", n)
	}
	if notify.count() != 1 || notify.received[0].EntityID != "n1" || notify.received[0].EventType != models.EventNotificationCreated {
		t.Fatalf("notify webhook got %+v", notify.received)
	}

	var got models.Meeting
	db.First(&got, "id = ?", "m1")
	if got.MeetingLink != "https://meet.example/abc" {
		t.Fatalf("meeting link = %q", got.MeetingLink)
	}

	var pending int64
	db.Model(&models.OutboxEvent{}).Where("processed = ?", false).Count(&pending)
	if pending != 0 {
		t.Fatalf("%d events left unprocessed", pending)
	}
	var failures int64
	db.Model(&models.DeliveryFailure{}).Count(&failures)
	if failures != 0 {
		t.Fatalf("unexpected delivery failures: %d", failures)
	}

	// nothing left to claim
	if n, _ := w.ProcessOnce(context.Background()); n != 0 {
		t.Fatalf("second pass claimed %d", n)
	}
}

func TestMeetingLinkKeepsExistingLink(t *testing.T) {
	db := testDB(t)
	links := &recorder{}
	srv := httptest.NewServer(links.handler(meetingLinkResponse{MeetingLink: "https://meet.example/new"}))
	defer srv.Close()

	start := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	db.Create(&models.Meeting{
		ID: "m1", HackathonID: "h1", HostID: "mentor", Title: "Sync",
		Type: models.MeetingTypeMentoring, ScheduledAt: start, EndTime: start.Add(time.Hour),
		Status: models.MeetingScheduled, MeetingLink: "https://host.example/own",
	})
	enqueue(t, db, models.EventMeetingLinkRequested, "m1", nil)

	w := &DeliveryWorker{DB: db, MeetingLinkURL: srv.URL}
	if _, err := w.ProcessOnce(context.Background()); err != nil {
		t.Fatal(err)
	}
	var got models.Meeting
	db.First(&got, "id = ?", "m1")
	if got.MeetingLink != "https://host.example/own" {
		t.Fatalf("host link overwritten: %q", got.MeetingLink)
	}
}

func TestFailedDeliveryIsRetriedFromDLQ(t *testing.T) {
	db := testDB(t)
	notify := &recorder{fail: true}
	srv := httptest.NewServer(notify.handler(nil))
	defer srv.Close()

	enqueue(t, db, models.EventHackathonStatus, "h1", map[string]string{"to": "JUDGING"})
	enqueue(t, db, "something.unknown", "x", nil)

	w := &DeliveryWorker{DB: db, NotifyURL: srv.URL}
	if _, err := w.ProcessOnce(context.Background()); err != nil {
		t.Fatal(err)
	}

	var failures []models.DeliveryFailure
	db.Order("id").Find(&failures)
	if len(failures) != 2 {
		t.Fatalf("want 2 delivery failures, got %d", len(failures))
	}
	if failures[0].EventType != models.EventHackathonStatus || failures[0].Resolved {
		t.Fatalf("unexpected failure record %+v", failures[0])
	}

	notify.mu.Lock()
	notify.fail = false
	notify.mu.Unlock()

	resolved, err := w.RetryOnce(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if resolved != 1 {
		t.Fatalf("resolved %d, want 1 (unknown events stay in the DLQ)", resolved)
	}
	if notify.count() != 1 || notify.received[0].EntityID != "h1" {
		t.Fatalf("retry did not redeliver: %+v", notify.received)
	}

	var open []models.DeliveryFailure
	db.Where("resolved = ?", false).Find(&open)
	if len(open) != 1 || open[0].EventType != "something.unknown" || open[0].RetriedAt == nil {
		t.Fatalf("unexpected open failures %+v", open)
	}
}

func TestUnconfiguredCollaboratorsAreSkipped(t *testing.T) {
	db := testDB(t)
	enqueue(t, db, models.EventNotificationCreated, "n1", nil)
	enqueue(t, db, models.EventMeetingCancelled, "m1", nil)
	enqueue(t, db, models.EventSubmissionDeleted, "s1", nil)

	w := &DeliveryWorker{DB: db}
	n, err := w.ProcessOnce(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("ProcessOnce = %d, %v", n, err)
	}
	var failures int64
	db.Model(&models.DeliveryFailure{}).Count(&failures)
	if failures != 0 {
		t.Fatalf("skipped events should not fail, got %d", failures)
	}
}

func TestFetchOutboxBatchRespectsLimitAndOrder(t *testing.T) {
	db := testDB(t)
	for _, id := range []string{"a", "b", "c"} {
		enqueue(t, db, models.EventNotificationCreated, id, nil)
	}
	batch, err := FetchOutboxBatch(context.Background(), db, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(batch.Events) != 2 || batch.Events[0].EntityID != "a" || batch.Events[1].EntityID != "b" {
		t.Fatalf("unexpected batch %+v", batch.Events)
	}
	var claimed models.OutboxEvent
	db.First(&claimed, "entity_id = ?", "a")
	if !claimed.Processed || claimed.Attempts != 1 || claimed.ProcessedAt == nil {
		t.Fatalf("event not claimed: %+v", claimed)
	}
	batch, _ = FetchOutboxBatch(context.Background(), db, 10)
	if len(batch.Events) != 1 || batch.Events[0].EntityID != "c" {
		t.Fatalf("second batch %+v", batch.Events)
	}
}
