package models

import (
	"time"

	"gorm.io/datatypes"
)

// AuditLog records admin car changes and completed bookings made through the storefront.
type AuditLog struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	Actor        string         `json:"actor" gorm:"size:64;index"`
	Action       string         `json:"action" gorm:"size:64;index"`
	ResourceType string         `json:"resourceType" gorm:"size:64;index"`
	ResourceID   uint           `json:"resourceID" gorm:"index"`
	Before       datatypes.JSON `json:"before"`
	After        datatypes.JSON `json:"after"`
	IPAddress    string         `json:"ipAddress" gorm:"size:64"`
	CreatedAt    time.Time      `json:"createdAt" gorm:"index"`
}
