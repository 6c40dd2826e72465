package cron

import (
	"context"
	"log"
	"time"

	"github.com/ensina-app/ensina-backend/internal/service"
	"github.com/robfig/cron/v3"
)

// Scheduler handles scheduled tasks
type Scheduler struct {
	cron     *cron.Cron
	services *service.Services
}

// NewScheduler creates a new scheduler
func NewScheduler(services *service.Services) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		services: services,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	// Run every hour - mark pending invitations past their expiry
	s.cron.AddFunc("0 * * * *", func() {
		log.Println("[Cron] Running invitation expiry sweep...")
		s.expireInvitations()
	})

	s.cron.Start()
	log.Println("[Cron] ✅ Scheduler started")
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.cron.Stop()
	log.Println("[Cron] Scheduler stopped")
}

func (s *Scheduler) expireInvitations() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := s.services.Invitation.ExpireOld(ctx)
	if err != nil {
		log.Printf("[Cron] ❌ Invitation expiry sweep failed: %v", err)
		return
	}
	if count > 0 {
		log.Printf("[Cron] Expired %d invitation(s)", count)
	}
}
