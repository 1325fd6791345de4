// Package notify delivers hearing reminders and serves the notification
// feed. The scheduler sweeps every user's docket on a fixed interval and
// writes reminder records with deterministic ids, so re-running a sweep can
// never duplicate an alert.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/lextrack/lextrack/internal/models"
	"github.com/lextrack/lextrack/internal/settings"
	"github.com/lextrack/lextrack/internal/vault"
)

// Reminder thresholds in hours by role. Advocates get a short-fuse alert,
// clients a day-of heads-up.
const (
	AdvocateThresholdHours = 2
	ClientThresholdHours   = 12
)

const sweepTimeout = 2 * time.Minute

type Scheduler struct {
	cron     *cron.Cron
	db       *gorm.DB
	vault    *vault.Store
	settings *settings.Store
	interval time.Duration
	loc      *time.Location
}

func NewScheduler(db *gorm.DB, store *vault.Store, cfg *settings.Store, interval time.Duration, loc *time.Location) *Scheduler {
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(loc)),
		db:       db,
		vault:    store,
		settings: cfg,
		interval: interval,
		loc:      loc,
	}
}

// Start registers the sweep job and begins ticking.
func (s *Scheduler) Start() {
	_, err := s.cron.AddFunc(fmt.Sprintf("@every %s", s.interval), s.sweep)
	if err != nil {
		zap.S().Errorw("failed to register hearing reminder job", "error", err)
		return
	}
	s.cron.Start()
	zap.S().Infow("hearing reminder scheduler started", "interval", s.interval)
}

// Stop waits for a running sweep to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("hearing reminder scheduler stopped")
}

func (s *Scheduler) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
	defer cancel()
	if err := s.RunOnce(ctx, time.Now()); err != nil {
		zap.S().Errorw("hearing reminder sweep failed", "error", err)
	}
}

// RunOnce performs one sweep over all users at the given instant.
func (s *Scheduler) RunOnce(ctx context.Context, now time.Time) error {
	var users []models.User
	if err := s.db.WithContext(ctx).Find(&users).Error; err != nil {
		return fmt.Errorf("list users: %w", err)
	}

	for _, u := range users {
		if err := s.sweepUser(ctx, u, now); err != nil {
			zap.S().Warnw("hearing reminder sweep skipped user", "user_id", u.ID, "error", err)
		}
	}
	return nil
}

func (s *Scheduler) sweepUser(ctx context.Context, u models.User, now time.Time) error {
	prefs, err := s.settings.Load(ctx, u.ID)
	if err != nil {
		return err
	}
	if !prefs.NotificationsEnabled {
		return nil
	}

	cases, err := s.vault.LoadCases(ctx, u.ID)
	if err != nil {
		return err
	}
	if len(cases) == 0 {
		return nil
	}

	notifs, err := s.vault.LoadNotifications(ctx, u.ID)
	if err != nil {
		return err
	}
	seen := make(map[string]bool, len(notifs))
	for _, n := range notifs {
		seen[n.ID] = true
	}

	threshold := ClientThresholdHours
	if u.Role == models.RoleAdvocate {
		threshold = AdvocateThresholdHours
	}

	var fired []vault.Notification
	for _, c := range cases {
		hearing, ok := c.HearingAt(s.loc)
		if !ok {
			continue
		}
		diffHours := hearing.Sub(now).Hours()
		if diffHours <= 0 || diffHours > float64(threshold) {
			continue
		}
		id := ReminderID(c.ID, threshold, u.ID)
		if seen[id] {
			continue
		}
		fired = append(fired, vault.Notification{
			ID:        id,
			UserID:    u.ID,
			Text:      reminderText(u.Role, c.Title),
			Type:      vault.NotifUrgent,
			Timestamp: now,
			IsRead:    false,
		})
		seen[id] = true
	}
	if len(fired) == 0 {
		return nil
	}
	return s.vault.SaveNotifications(ctx, u.ID, append(fired, notifs...))
}

// ReminderID is the deterministic id for a (case, threshold, user) alert.
// Its stability across sweeps is what makes reminders fire at most once.
func ReminderID(caseID string, thresholdHours int, userID string) string {
	return fmt.Sprintf("alert-%s-%dh-%s", caseID, thresholdHours, userID)
}

func reminderText(role, caseTitle string) string {
	if role == models.RoleAdvocate {
		return fmt.Sprintf("URGENT: Case %q hearing in < 2h. Neural strategy ready.", caseTitle)
	}
	return fmt.Sprintf("REMINDER: Your hearing for %q is in 12h. Check your vault documents.", caseTitle)
}
