package notify

import (
	"context"
	"errors"
	"sort"

	"github.com/lextrack/lextrack/internal/vault"
)

var ErrNotificationNotFound = errors.New("notify: notification not found")

// Service is the read/ack surface over the notification feed.
type Service struct {
	vault *vault.Store
}

func NewService(store *vault.Store) *Service {
	return &Service{vault: store}
}

// List returns the user's notifications, newest first.
func (s *Service) List(ctx context.Context, userID string) ([]vault.Notification, error) {
	notifs, err := s.vault.LoadNotifications(ctx, userID)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(notifs, func(i, j int) bool {
		return notifs[i].Timestamp.After(notifs[j].Timestamp)
	})
	return notifs, nil
}

func (s *Service) MarkRead(ctx context.Context, userID, notifID string) error {
	notifs, err := s.vault.LoadNotifications(ctx, userID)
	if err != nil {
		return err
	}
	found := false
	for i := range notifs {
		if notifs[i].ID == notifID {
			notifs[i].IsRead = true
			found = true
			break
		}
	}
	if !found {
		return ErrNotificationNotFound
	}
	return s.vault.SaveNotifications(ctx, userID, notifs)
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	notifs, err := s.vault.LoadNotifications(ctx, userID)
	if err != nil {
		return err
	}
	if len(notifs) == 0 {
		return nil
	}
	for i := range notifs {
		notifs[i].IsRead = true
	}
	return s.vault.SaveNotifications(ctx, userID, notifs)
}
