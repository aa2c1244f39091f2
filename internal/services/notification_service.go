// internal/services/notification_service.go
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/digital-marketplace/internal/models"
	"github.com/javajoker/digital-marketplace/internal/utils"
)

// NotificationService raises admin notifications for failures that need an
// operator.
type NotificationService struct {
	store  NotificationStore
	logger *logrus.Logger
}

// ReconciliationRequest describes a purchase left in an inconsistent state.
type ReconciliationRequest struct {
	AssetID int64
	BuyerID int64
	SaleID  *uuid.UUID
	Amount  string
	Step    string
	Cause   error
	Failure error
}

func NewNotificationService(store NotificationStore, logger *logrus.Logger) *NotificationService {
	return &NotificationService{
		store:  store,
		logger: logger,
	}
}

// EscalatePurchaseReconciliation persists a high priority notification. It
// uses its own timeout so a cancelled request cannot drop the escalation.
func (s *NotificationService) EscalatePurchaseReconciliation(ctx context.Context, req ReconciliationRequest) (*models.AdminNotification, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	data := models.JSONB{
		"asset_id": req.AssetID,
		"buyer_id": req.BuyerID,
		"amount":   req.Amount,
		"step":     req.Step,
	}
	if req.Cause != nil {
		data["cause"] = req.Cause.Error()
	}
	if req.Failure != nil {
		data["error"] = req.Failure.Error()
	}
	if req.SaleID != nil {
		data["sale_id"] = req.SaleID.String()
	}

	notification := &models.AdminNotification{
		Type:     models.NotificationTypePurchaseReconciliation,
		Title:    "Purchase requires manual reconciliation",
		Message:  fmt.Sprintf("Compensation step %q failed for buyer %d on asset %d; the wallet may hold an unreversed debit of %s.", req.Step, req.BuyerID, req.AssetID, req.Amount),
		Priority: models.NotificationPriorityHigh,
		Status:   models.NotificationStatusUnread,
		Data:     data,
	}
	if req.SaleID != nil {
		notification.RelatedResourceType = "sale"
		notification.RelatedResourceID = req.SaleID
	}

	if err := s.store.Create(ctx, notification); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields(data)).
			Error("Failed to persist reconciliation notification")
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": notification.ID,
		"asset_id":        req.AssetID,
		"buyer_id":        req.BuyerID,
		"step":            req.Step,
	}).Warn("Reconciliation notification created")
	return notification, nil
}

func (s *NotificationService) ListNotifications(ctx context.Context, status models.NotificationStatus, params utils.PaginationParams) ([]models.AdminNotification, int64, error) {
	return s.store.List(ctx, status, params)
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) (*models.AdminNotification, error) {
	return s.store.MarkRead(ctx, id)
}
