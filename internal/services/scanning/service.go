package scanning

import (
	"sort"
	"strings"
	"time"

	"warehouse-scan-backend/internal/manifest"
	"warehouse-scan-backend/internal/models"

	"github.com/google/uuid"
)

// Scan outcomes. All three are successful completions of the classify
// operation, not errors.
const (
	ScanSuccess   = "SUCCESS"
	ScanDuplicate = "DUPLICATE"
	ScanInvalid   = "INVALID"
)

// ScanResult is the classification of a single scan event.
type ScanResult struct {
	Status  string              `json:"status"`
	Message string              `json:"message"`
	Item    *models.SessionItem `json:"item,omitempty"`
}

// SessionStats is derived from item state on every read, never persisted.
type SessionStats struct {
	Total        int     `json:"total"`
	ScannedCount int     `json:"scannedCount"`
	MissingCount int     `json:"missingCount"`
	Progress     float64 `json:"progress"`
}

// SessionDetail is a session with its items and freshly computed stats.
type SessionDetail struct {
	models.ScanSession
	Stats SessionStats `json:"stats"`
}

// Report feeds spreadsheet/PDF exporters: the scanned partition sorted
// most-recently-scanned first, and the items still missing.
type Report struct {
	Session   *models.ScanSession  `json:"session"`
	Stats     SessionStats         `json:"stats"`
	Scanned   []models.SessionItem `json:"scanned"`
	Unscanned []models.SessionItem `json:"unscanned"`
}

// Service is the reconciliation engine: session lifecycle, the per-scan
// classifier, and stats/report aggregation.
type Service struct {
	sessions SessionStore
	items    ItemStore
	activity ActivityRecorder
}

func NewService(sessions SessionStore, items ItemStore, activity ActivityRecorder) *Service {
	return &Service{
		sessions: sessions,
		items:    items,
		activity: activity,
	}
}

// CreateSession persists a new session with the parsed manifest as its
// immutable item set.
func (s *Service) CreateSession(name string, rows []manifest.Row, owner *string) (*models.ScanSession, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ValidationError{Msg: "session name is required"}
	}
	if len(rows) == 0 {
		return nil, &ValidationError{Msg: "manifest has no items"}
	}

	now := time.Now()
	session := &models.ScanSession{
		ID:        uuid.New(),
		Name:      name,
		IsActive:  true,
		CreatedBy: owner,
		CreatedAt: now,
	}

	items := make([]models.SessionItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, models.SessionItem{
			ID:          uuid.New(),
			SessionID:   session.ID,
			TrackingID:  row.TrackingID,
			ProductName: row.ProductName,
			Recipient:   row.Recipient,
			Status:      models.StatusUnscanned,
			CreatedAt:   now,
		})
	}

	if err := s.sessions.Create(session, items); err != nil {
		return nil, err
	}

	s.record("CREATE_SESSION", owner, map[string]interface{}{
		"sessionId":   session.ID.String(),
		"sessionName": session.Name,
		"itemCount":   len(items),
	})

	return session, nil
}

// Scan classifies one scan event against a session.
//
// The conditional update runs first: if it changed a row this scan won the
// transition and reports SUCCESS. If it changed nothing, a follow-up read
// decides between DUPLICATE (item exists, already scanned) and INVALID
// (tracking id not in the manifest). Unknown ids never create items.
func (s *Service) Scan(sessionID uuid.UUID, trackingID string, actor *string) (*ScanResult, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, &ValidationError{Msg: "tracking id is required"}
	}

	affected, err := s.items.MarkScanned(sessionID, trackingID, time.Now(), actor)
	if err != nil {
		return nil, err
	}

	var result *ScanResult
	if affected > 0 {
		item, err := s.items.Find(sessionID, trackingID)
		if err != nil {
			return nil, err
		}
		result = &ScanResult{Status: ScanSuccess, Message: "scanned", Item: item}
	} else {
		item, err := s.items.Find(sessionID, trackingID)
		if err != nil {
			return nil, err
		}
		if item == nil {
			result = &ScanResult{Status: ScanInvalid, Message: "not registered"}
		} else {
			result = &ScanResult{Status: ScanDuplicate, Message: "already scanned", Item: item}
		}
	}

	s.record("SCAN", actor, map[string]interface{}{
		"sessionId":  sessionID.String(),
		"trackingId": trackingID,
		"status":     result.Status,
	})

	return result, nil
}

// GetSession returns the session with its items and stats. Items are ordered
// most-recently-scanned first, with unscanned items after.
func (s *Service) GetSession(id uuid.UUID) (*SessionDetail, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	items, err := s.items.BySession(id)
	if err != nil {
		return nil, err
	}

	scanned, unscanned := partitionItems(items)
	session.Items = append(scanned, unscanned...)

	return &SessionDetail{
		ScanSession: *session,
		Stats:       ComputeStats(items),
	}, nil
}

// ListSessions returns all sessions with pre-aggregated counts.
func (s *Service) ListSessions() ([]SessionSummary, error) {
	return s.sessions.ListSummaries()
}

// ToggleActive flips the session's active flag.
func (s *Service) ToggleActive(id uuid.UUID, actor *string) (*models.ScanSession, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	session.IsActive = !session.IsActive
	if err := s.sessions.SetActive(id, session.IsActive); err != nil {
		return nil, err
	}

	s.record("TOGGLE_SESSION", actor, map[string]interface{}{
		"sessionId": id.String(),
		"isActive":  session.IsActive,
	})

	return session, nil
}

// DeleteSession removes the session and all of its items.
func (s *Service) DeleteSession(id uuid.UUID, actor *string) error {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return err
	}
	if session == nil {
		return ErrSessionNotFound
	}

	if err := s.sessions.Delete(id); err != nil {
		return err
	}

	s.record("DELETE_SESSION", actor, map[string]interface{}{
		"sessionId":   id.String(),
		"sessionName": session.Name,
	})

	return nil
}

// ReportData partitions the session's items for exporters.
func (s *Service) ReportData(id uuid.UUID) (*Report, error) {
	session, err := s.sessions.GetByID(id)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	items, err := s.items.BySession(id)
	if err != nil {
		return nil, err
	}

	scanned, unscanned := partitionItems(items)

	return &Report{
		Session:   session,
		Stats:     ComputeStats(items),
		Scanned:   scanned,
		Unscanned: unscanned,
	}, nil
}

// ComputeStats derives session stats in a single pass.
func ComputeStats(items []models.SessionItem) SessionStats {
	stats := SessionStats{Total: len(items)}
	for i := range items {
		if items[i].Status == models.StatusScanned {
			stats.ScannedCount++
		}
	}
	stats.MissingCount = stats.Total - stats.ScannedCount
	if stats.Total > 0 {
		stats.Progress = float64(stats.ScannedCount) / float64(stats.Total) * 100
	}
	return stats
}

// partitionItems splits items by status. The scanned partition is sorted
// most-recently-scanned first; ties and the unscanned partition keep the
// store's insertion order.
func partitionItems(items []models.SessionItem) (scanned, unscanned []models.SessionItem) {
	scanned = make([]models.SessionItem, 0)
	unscanned = make([]models.SessionItem, 0)
	for _, item := range items {
		if item.Status == models.StatusScanned && item.ScannedAt != nil {
			scanned = append(scanned, item)
		} else {
			unscanned = append(unscanned, item)
		}
	}
	sort.SliceStable(scanned, func(i, j int) bool {
		return scanned[i].ScannedAt.After(*scanned[j].ScannedAt)
	})
	return scanned, unscanned
}

func (s *Service) record(action string, actor *string, details map[string]interface{}) {
	if s.activity == nil {
		return
	}
	s.activity.Record(action, actor, details)
}
