// internal/models/admin.go
package models

import (
	"time"

	"github.com/google/uuid"
)

const NotificationTypePurchaseReconciliation = "purchase_reconciliation"

type AdminNotification struct {
	BaseModel
	Type                string               `json:"type" gorm:"type:varchar(50);not null;index"`
	Title               string               `json:"title" gorm:"size:255;not null"`
	Message             string               `json:"message" gorm:"type:text;not null"`
	Priority            NotificationPriority `json:"priority" gorm:"type:varchar(20);default:'medium';index"`
	Status              NotificationStatus   `json:"status" gorm:"type:varchar(20);default:'unread';index"`
	RelatedResourceType string               `json:"related_resource_type,omitempty" gorm:"size:50"`
	RelatedResourceID   *uuid.UUID           `json:"related_resource_id" gorm:"type:uuid"`
	Data                JSONB                `json:"data,omitempty" gorm:"type:jsonb"`
	ReadAt              *time.Time           `json:"read_at"`
}
