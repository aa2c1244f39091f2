// internal/store/notification_memory.go
package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications []*models.AdminNotification
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{}
}

func (s *MemoryNotificationStore) Create(_ context.Context, notification *models.AdminNotification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prepareNotification(notification)
	copied := *notification
	s.notifications = append(s.notifications, &copied)
	return nil
}

func (s *MemoryNotificationStore) List(_ context.Context, status models.NotificationStatus, params utils.PaginationParams) ([]models.AdminNotification, int64, error) {
	s.mu.RLock()
	matched := make([]models.AdminNotification, 0, len(s.notifications))
	for i := len(s.notifications) - 1; i >= 0; i-- {
		n := s.notifications[i]
		if status != "" && n.Status != status {
			continue
		}
		matched = append(matched, *n)
	}
	s.mu.RUnlock()

	start, end := utils.PageBounds(params, len(matched))
	return matched[start:end], int64(len(matched)), nil
}

func (s *MemoryNotificationStore) MarkRead(_ context.Context, id uuid.UUID) (*models.AdminNotification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.ID != id {
			continue
		}
		if n.Status != models.NotificationStatusRead {
			now := time.Now().UTC()
			n.Status = models.NotificationStatusRead
			n.ReadAt = &now
		}
		copied := *n
		return &copied, nil
	}
	return nil, models.ErrRecordNotFound
}
