// internal/models/studio_event.go
package models

import (
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Event names recorded by the studio.
const (
	EventSessionOpened  = "session_opened"
	EventSessionClosed  = "session_closed"
	EventImagePublished = "image_published"
	EventImageDeleted   = "image_deleted"
)

// StudioEvent is a best-effort analytics record. Writes never block a
// lifecycle operation and are skipped entirely when the database is
// disabled.
type StudioEvent struct {
	BaseModel
	InstanceID string         `json:"instance_id" gorm:"size:100;not null;index"`
	SessionID  *uuid.UUID     `json:"session_id" gorm:"type:uuid;index"`
	EventName  string         `json:"event_name" gorm:"size:100;not null;index"`
	ProductID  string         `json:"product_id,omitempty" gorm:"size:100;index"`
	ImageIDs   pq.StringArray `json:"image_ids,omitempty" gorm:"type:text[]"`
	Attributes JSONB          `json:"attributes,omitempty" gorm:"type:jsonb"`
}

type AuditLog struct {
	BaseModel
	InstanceID   string     `json:"instance_id" gorm:"size:100;index"`
	SessionID    *uuid.UUID `json:"session_id" gorm:"type:uuid;index"`
	Action       string     `json:"action" gorm:"size:100;not null;index"`
	ResourceType string     `json:"resource_type" gorm:"size:50;not null;index"`
	ResourceID   string     `json:"resource_id,omitempty" gorm:"size:128;index"`
	NewValues    JSONB      `json:"new_values" gorm:"type:jsonb"`
	IPAddress    string     `json:"ip_address" gorm:"size:45"`
	UserAgent    string     `json:"user_agent" gorm:"type:text"`
}
