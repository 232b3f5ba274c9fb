// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID      `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
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

	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums

// ImageState is the lifecycle state of an image inside a studio session.
// Empty string means the image is at rest; every record holds at most one
// state at a time.
type ImageState string

const (
	ImageStateNone       ImageState = ""
	ImageStateUploaded   ImageState = "uploaded"
	ImageStateEdit       ImageState = "edit"
	ImageStateProcessing ImageState = "processing"
	ImageStatePublishing ImageState = "publishing"
	ImageStateConfirm    ImageState = "confirm"
	ImageStateSelected   ImageState = "selected"
	ImageStateReference  ImageState = "reference"
	ImageStateError      ImageState = "error"
	ImageStateDeleting   ImageState = "deleting"
)

// AllImageStates lists every lifecycle state, including the zero state.
var AllImageStates = []ImageState{
	ImageStateNone,
	ImageStateUploaded,
	ImageStateEdit,
	ImageStateProcessing,
	ImageStatePublishing,
	ImageStateConfirm,
	ImageStateSelected,
	ImageStateReference,
	ImageStateError,
	ImageStateDeleting,
}

type PlanTier string

const (
	PlanTierFree    PlanTier = "free"
	PlanTierPremium PlanTier = "premium"
)

// Entitlement is the billing snapshot attached to a studio session. It is
// resolved from the payment provider and falls back to the free tier when
// the lookup fails.
type Entitlement struct {
	PlanTier   PlanTier `json:"plan_tier"`
	ImageQuota int      `json:"image_quota"`
	Active     bool     `json:"active"`
	Source     string   `json:"source,omitempty"`
}
