// services/scheduler.go
package services

import (
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// StartScheduler runs the periodic jobs: status reconciliation and scheduled
// announcement publishing. Callers shut the scheduler down on exit.
func StartScheduler(hackathons *HackathonService, announcements *AnnouncementService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	// Every minute: persist derived status changes
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			n, err := hackathons.ReconcileStatuses(timeNow())
			if err != nil {
				log.Printf("[Scheduler] status reconciliation error: %v", err)
				return
			}
			if n > 0 {
				log.Printf("[Scheduler] %d hackathon status change(s) persisted", n)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}

	// Every minute: fan out announcements whose publish time arrived
	if _, err := sched.NewJob(
		gocron.DurationJob(1*time.Minute),
		gocron.NewTask(func() {
			if _, err := announcements.PublishDue(timeNow()); err != nil {
				log.Printf("[Scheduler] announcement publishing error: %v", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		return nil, err
	}

	sched.Start()
	return sched, nil
}
