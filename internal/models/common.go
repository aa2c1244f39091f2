// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"created_at"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type UserRole string

const (
	UserRoleClient UserRole = "client"
	UserRoleArtist UserRole = "artist"
	UserRoleAdmin  UserRole = "admin"
)

type AssetStatus string

const (
	AssetStatusDraft     AssetStatus = "draft"
	AssetStatusPublished AssetStatus = "published"
	AssetStatusRejected  AssetStatus = "rejected"
)

type SaleKind string

const (
	SaleKindSale     SaleKind = "sale"
	SaleKindReversal SaleKind = "reversal"
)

type PurchaseState string

const (
	PurchaseStateInitiated PurchaseState = "initiated"
	PurchaseStateValidated PurchaseState = "validated"
	PurchaseStateDebited   PurchaseState = "debited"
	PurchaseStateRecorded  PurchaseState = "recorded"
	PurchaseStateGranted   PurchaseState = "granted"
	PurchaseStateCompleted PurchaseState = "completed"
	PurchaseStateFailed    PurchaseState = "failed"
)

type NotificationPriority string

const (
	NotificationPriorityLow    NotificationPriority = "low"
	NotificationPriorityMedium NotificationPriority = "medium"
	NotificationPriorityHigh   NotificationPriority = "high"
)

type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)
