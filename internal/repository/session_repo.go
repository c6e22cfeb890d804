package repository

import (
	"errors"

	"warehouse-scan-backend/internal/models"
	"warehouse-scan-backend/internal/services/scanning"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionRepository struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create persists the session and its items in one transaction so a partial
// manifest is never committed.
func (r *SessionRepository) Create(session *models.ScanSession, items []models.SessionItem) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(session).Error; err != nil {
			return err
		}
		return tx.CreateInBatches(items, 500).Error
	})
}

func (r *SessionRepository) GetByID(id uuid.UUID) (*models.ScanSession, error) {
	var session models.ScanSession
	err := r.db.First(&session, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &session, nil
}

type sessionCountRow struct {
	SessionID    uuid.UUID
	ItemCount    int64
	ScannedCount int64
}

// ListSummaries returns all sessions newest first, with item and scanned
// counts aggregated in a single grouped query.
func (r *SessionRepository) ListSummaries() ([]scanning.SessionSummary, error) {
	var sessions []models.ScanSession
	if err := r.db.Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, err
	}

	var rows []sessionCountRow
	err := r.db.Model(&models.SessionItem{}).
		Select("session_id, COUNT(*) AS item_count, SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS scanned_count", models.StatusScanned).
		Group("session_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[uuid.UUID]sessionCountRow, len(rows))
	for _, row := range rows {
		counts[row.SessionID] = row
	}

	summaries := make([]scanning.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		row := counts[session.ID]
		summaries = append(summaries, scanning.SessionSummary{
			ScanSession:  session,
			ItemCount:    row.ItemCount,
			ScannedCount: row.ScannedCount,
		})
	}
	return summaries, nil
}

func (r *SessionRepository) SetActive(id uuid.UUID, active bool) error {
	return r.db.Model(&models.ScanSession{}).
		Where("id = ?", id).
		Update("is_active", active).
		Error
}

// Delete removes the session and all items it owns.
func (r *SessionRepository) Delete(id uuid.UUID) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", id).Delete(&models.SessionItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.ScanSession{}, "id = ?", id).Error
	})
}
