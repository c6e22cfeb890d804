package scanning

import (
	"time"

	"warehouse-scan-backend/internal/models"

	"github.com/google/uuid"
)

// SessionSummary is a session row for list views, carrying counts that the
// store computes in a single grouped query.
type SessionSummary struct {
	models.ScanSession
	ItemCount    int64 `json:"itemCount"`
	ScannedCount int64 `json:"scannedCount"`
}

// SessionStore is the persistence port for sessions. Lookups return
// (nil, nil) when the session does not exist.
type SessionStore interface {
	// Create persists the session together with its items, all-or-nothing.
	Create(session *models.ScanSession, items []models.SessionItem) error
	GetByID(id uuid.UUID) (*models.ScanSession, error)
	ListSummaries() ([]SessionSummary, error)
	SetActive(id uuid.UUID, active bool) error
	Delete(id uuid.UUID) error
}

// ItemStore is the persistence port for session items.
type ItemStore interface {
	// Find looks an item up by its natural key; (nil, nil) when absent.
	Find(sessionID uuid.UUID, trackingID string) (*models.SessionItem, error)
	BySession(sessionID uuid.UUID) ([]models.SessionItem, error)
	// MarkScanned conditionally transitions the item from UNSCANNED to
	// SCANNED and reports how many rows changed. Zero rows means the item
	// is absent or already scanned; the caller re-reads to tell the two
	// apart. This conditional update is what keeps concurrent scans of the
	// same tracking id from both winning.
	MarkScanned(sessionID uuid.UUID, trackingID string, at time.Time, actor *string) (int64, error)
}

// ActivityRecorder is notified of significant events. Implementations are
// fire-and-forget; a failing recorder never fails the primary operation.
type ActivityRecorder interface {
	Record(action string, actor *string, details map[string]interface{})
}
