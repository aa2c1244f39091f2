// internal/store/notification_postgres.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

type GormNotificationStore struct {
	db *gorm.DB
}

func NewGormNotificationStore(db *gorm.DB) *GormNotificationStore {
	return &GormNotificationStore{db: db}
}

func (s *GormNotificationStore) Create(ctx context.Context, notification *models.AdminNotification) error {
	prepareNotification(notification)
	if err := s.db.WithContext(ctx).Create(notification).Error; err != nil {
		return models.PersistenceError("create notification", err)
	}
	return nil
}

func (s *GormNotificationStore) List(ctx context.Context, status models.NotificationStatus, params utils.PaginationParams) ([]models.AdminNotification, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.AdminNotification{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, models.PersistenceError("count notifications", err)
	}

	var notifications []models.AdminNotification
	query = utils.ApplySort(query, params, []string{"created_at", "priority"})
	if err := utils.ApplyPagination(query, params).Find(&notifications).Error; err != nil {
		return nil, 0, models.PersistenceError("list notifications", err)
	}

	return notifications, total, nil
}

func (s *GormNotificationStore) MarkRead(ctx context.Context, id uuid.UUID) (*models.AdminNotification, error) {
	var notification models.AdminNotification
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Set("gorm:query_option", "FOR UPDATE").First(&notification, "id = ?", id).Error; err != nil {
			return err
		}
		if notification.Status == models.NotificationStatusRead {
			return nil
		}

		now := time.Now().UTC()
		notification.Status = models.NotificationStatusRead
		notification.ReadAt = &now
		return tx.Model(&notification).Updates(map[string]interface{}{
			"status":  notification.Status,
			"read_at": now,
		}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrRecordNotFound
		}
		return nil, models.PersistenceError("mark notification read", err)
	}

	return &notification, nil
}

func prepareNotification(n *models.AdminNotification) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	if n.Status == "" {
		n.Status = models.NotificationStatusUnread
	}
	if n.Priority == "" {
		n.Priority = models.NotificationPriorityMedium
	}
	n.CreatedAt = time.Now().UTC()
}
