package models

import (
	"time"

	"github.com/google/uuid"
)

// Item scan states. The only transition is UNSCANNED -> SCANNED; there is no
// way back.
const (
	StatusUnscanned = "UNSCANNED"
	StatusScanned   = "SCANNED"
)

// SessionItem is a single expected package inside a session.
// (session_id, tracking_id) is the natural key.
type SessionItem struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	SessionID   uuid.UUID  `gorm:"uniqueIndex:idx_session_tracking" json:"sessionId"`
	TrackingID  string     `gorm:"uniqueIndex:idx_session_tracking" json:"trackingId"`
	ProductName string     `json:"productName"`
	Recipient   string     `json:"recipient"`
	Status      string     `gorm:"index" json:"status"`
	ScannedAt   *time.Time `json:"scannedAt"`
	ScannedBy   *string    `json:"scannedBy,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
