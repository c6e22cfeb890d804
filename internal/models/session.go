package models

import (
	"time"

	"github.com/google/uuid"
)

// ScanSession is one bounded reconciliation exercise: an expected item set
// uploaded as a manifest, plus the scan state accumulated against it.
type ScanSession struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"isActive"`
	CreatedBy *string   `json:"createdBy,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	Items []SessionItem `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}
