package activity

import (
	"encoding/json"
	"log"
	"time"

	"warehouse-scan-backend/internal/models"
	"warehouse-scan-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Recorder writes activity log entries in the background. Failures are
// logged and swallowed so the primary operation never fails because of
// logging.
type Recorder struct {
	logs *repository.ActivityLogRepository
}

func NewRecorder(logs *repository.ActivityLogRepository) *Recorder {
	return &Recorder{logs: logs}
}

func (r *Recorder) Record(action string, actor *string, details map[string]interface{}) {
	entry := &models.ActivityLog{
		ID:        uuid.New(),
		UserID:    actor,
		Action:    action,
		CreatedAt: time.Now(),
	}
	if details != nil {
		if raw, err := json.Marshal(details); err == nil {
			entry.Details = datatypes.JSON(raw)
		}
	}

	go func() {
		if err := r.logs.Create(entry); err != nil {
			log.Println("activity log write failed:", err)
		}
	}()
}
