package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ActivityLog struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID    *string        `gorm:"index" json:"userId,omitempty"`
	Action    string         `gorm:"index" json:"action"`
	Details   datatypes.JSON `json:"details,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}
