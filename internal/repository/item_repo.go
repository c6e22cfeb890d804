package repository

import (
	"errors"
	"time"

	"warehouse-scan-backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ItemRepository struct {
	db *gorm.DB
}

func NewItemRepository(db *gorm.DB) *ItemRepository {
	return &ItemRepository{db: db}
}

func (r *ItemRepository) Find(sessionID uuid.UUID, trackingID string) (*models.SessionItem, error) {
	var item models.SessionItem
	err := r.db.First(&item, "session_id = ? AND tracking_id = ?", sessionID, trackingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *ItemRepository) BySession(sessionID uuid.UUID) ([]models.SessionItem, error) {
	var items []models.SessionItem
	err := r.db.
		Where("session_id = ?", sessionID).
		Order("created_at ASC, tracking_id ASC").
		Find(&items).Error
	return items, err
}

// MarkScanned is the compare-and-swap on item status: the status guard in
// the WHERE clause means at most one concurrent scan of the same tracking id
// can see a row change.
func (r *ItemRepository) MarkScanned(sessionID uuid.UUID, trackingID string, at time.Time, actor *string) (int64, error) {
	res := r.db.Model(&models.SessionItem{}).
		Where("session_id = ? AND tracking_id = ? AND status = ?", sessionID, trackingID, models.StatusUnscanned).
		Updates(map[string]interface{}{
			"status":     models.StatusScanned,
			"scanned_at": at,
			"scanned_by": actor,
		})
	return res.RowsAffected, res.Error
}
