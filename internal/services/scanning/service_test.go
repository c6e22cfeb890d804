package scanning_test

import (
	"sync"
	"testing"
	"time"

	"warehouse-scan-backend/internal/manifest"
	"warehouse-scan-backend/internal/models"
	"warehouse-scan-backend/internal/repository"
	"warehouse-scan-backend/internal/services/scanning"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB creates an in-memory SQLite database for testing. The pool is
// pinned to one connection so concurrent test writes serialize instead of
// hitting SQLITE_BUSY.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(&models.ScanSession{}, &models.SessionItem{}, &models.ActivityLog{})
	require.NoError(t, err)

	return db
}

func newTestService(t *testing.T) (*scanning.Service, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	svc := scanning.NewService(
		repository.NewSessionRepository(db),
		repository.NewItemRepository(db),
		nil,
	)
	return svc, db
}

func manifestRows(trackingIDs ...string) []manifest.Row {
	rows := make([]manifest.Row, 0, len(trackingIDs))
	for _, id := range trackingIDs {
		rows = append(rows, manifest.Row{TrackingID: id, ProductName: "N/A", Recipient: "N/A"})
	}
	return rows
}

func TestCreateSessionValidation(t *testing.T) {
	svc, _ := newTestService(t)

	var verr *scanning.ValidationError

	_, err := svc.CreateSession("", manifestRows("ABC123"), nil)
	require.ErrorAs(t, err, &verr)

	_, err = svc.CreateSession("Morning batch", nil, nil)
	require.ErrorAs(t, err, &verr)
}

func TestCreateSessionPersistsItems(t *testing.T) {
	svc, _ := newTestService(t)

	owner := "admin-1"
	session, err := svc.CreateSession("Morning batch", manifestRows("ABC123", "XYZ999"), &owner)
	require.NoError(t, err)
	assert.True(t, session.IsActive)
	require.NotNil(t, session.CreatedBy)
	assert.Equal(t, "admin-1", *session.CreatedBy)

	detail, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Morning batch", detail.Name)
	require.Len(t, detail.Items, 2)
	for _, item := range detail.Items {
		assert.Equal(t, models.StatusUnscanned, item.Status)
		assert.Nil(t, item.ScannedAt)
	}
	assert.Equal(t, scanning.SessionStats{Total: 2, ScannedCount: 0, MissingCount: 2, Progress: 0}, detail.Stats)
}

func TestScanStateMachine(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession("Dock 3", manifestRows("ABC123", "XYZ999"), nil)
	require.NoError(t, err)

	actor := "operator-7"

	result, err := svc.Scan(session.ID, "ABC123", &actor)
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanSuccess, result.Status)
	require.NotNil(t, result.Item)
	assert.Equal(t, models.StatusScanned, result.Item.Status)
	require.NotNil(t, result.Item.ScannedAt)
	require.NotNil(t, result.Item.ScannedBy)
	assert.Equal(t, "operator-7", *result.Item.ScannedBy)

	result, err = svc.Scan(session.ID, "ABC123", &actor)
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanDuplicate, result.Status)
	assert.Equal(t, "already scanned", result.Message)
	require.NotNil(t, result.Item)

	result, err = svc.Scan(session.ID, "QQQ000", &actor)
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanInvalid, result.Status)
	assert.Equal(t, "not registered", result.Message)
	assert.Nil(t, result.Item)

	detail, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, scanning.SessionStats{Total: 2, ScannedCount: 1, MissingCount: 1, Progress: 50}, detail.Stats)
}

func TestScanIdempotence(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession("Dock 1", manifestRows("PKG-1"), nil)
	require.NoError(t, err)

	first, err := svc.Scan(session.ID, "PKG-1", nil)
	require.NoError(t, err)
	require.Equal(t, scanning.ScanSuccess, first.Status)
	firstScannedAt := *first.Item.ScannedAt

	for i := 0; i < 3; i++ {
		result, err := svc.Scan(session.ID, "PKG-1", nil)
		require.NoError(t, err)
		assert.Equal(t, scanning.ScanDuplicate, result.Status)
		require.NotNil(t, result.Item.ScannedAt)
		assert.True(t, result.Item.ScannedAt.Equal(firstScannedAt), "scannedAt must never change after the first success")
	}

	detail, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Stats.ScannedCount)
}

func TestScanUnknownNeverCreatesItem(t *testing.T) {
	svc, db := newTestService(t)

	session, err := svc.CreateSession("Dock 2", manifestRows("PKG-1"), nil)
	require.NoError(t, err)

	result, err := svc.Scan(session.ID, "NOPE", nil)
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanInvalid, result.Status)

	var count int64
	require.NoError(t, db.Model(&models.SessionItem{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.EqualValues(t, 1, count)

	detail, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, detail.Stats.ScannedCount)
}

func TestScanValidation(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession("Dock 4", manifestRows("PKG-1"), nil)
	require.NoError(t, err)

	var verr *scanning.ValidationError
	_, err = svc.Scan(session.ID, "   ", nil)
	require.ErrorAs(t, err, &verr)
}

func TestScanUnknownSessionIsInvalid(t *testing.T) {
	svc, _ := newTestService(t)

	result, err := svc.Scan(uuid.New(), "PKG-1", nil)
	require.NoError(t, err)
	assert.Equal(t, scanning.ScanInvalid, result.Status)
}

func TestConcurrentScansSingleWinner(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession("Dock 5", manifestRows("HOT-1"), nil)
	require.NoError(t, err)

	const workers = 16
	results := make([]string, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			result, err := svc.Scan(session.ID, "HOT-1", nil)
			if err != nil {
				errs[i] = err
				return
			}
			results[i] = result.Status
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	success, duplicate := 0, 0
	for _, status := range results {
		switch status {
		case scanning.ScanSuccess:
			success++
		case scanning.ScanDuplicate:
			duplicate++
		}
	}
	assert.Equal(t, 1, success, "exactly one concurrent scan must win")
	assert.Equal(t, workers-1, duplicate)

	detail, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, detail.Stats.ScannedCount)
}

func TestListSessionsSummaries(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.CreateSession("First", manifestRows("A-1", "A-2", "A-3"), nil)
	require.NoError(t, err)
	second, err := svc.CreateSession("Second", manifestRows("B-1"), nil)
	require.NoError(t, err)

	_, err = svc.Scan(first.ID, "A-1", nil)
	require.NoError(t, err)
	_, err = svc.Scan(first.ID, "A-2", nil)
	require.NoError(t, err)

	summaries, err := svc.ListSessions()
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	byID := make(map[uuid.UUID]scanning.SessionSummary)
	for _, s := range summaries {
		byID[s.ID] = s
	}
	assert.EqualValues(t, 3, byID[first.ID].ItemCount)
	assert.EqualValues(t, 2, byID[first.ID].ScannedCount)
	assert.EqualValues(t, 1, byID[second.ID].ItemCount)
	assert.EqualValues(t, 0, byID[second.ID].ScannedCount)
}

func TestToggleActive(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession("Toggle me", manifestRows("PKG-1"), nil)
	require.NoError(t, err)
	require.True(t, session.IsActive)

	updated, err := svc.ToggleActive(session.ID, nil)
	require.NoError(t, err)
	assert.False(t, updated.IsActive)

	updated, err = svc.ToggleActive(session.ID, nil)
	require.NoError(t, err)
	assert.True(t, updated.IsActive)

	_, err = svc.ToggleActive(uuid.New(), nil)
	require.ErrorIs(t, err, scanning.ErrSessionNotFound)
}

func TestDeleteSessionCascades(t *testing.T) {
	svc, db := newTestService(t)

	session, err := svc.CreateSession("Doomed", manifestRows("PKG-1", "PKG-2"), nil)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteSession(session.ID, nil))

	_, err = svc.GetSession(session.ID)
	require.ErrorIs(t, err, scanning.ErrSessionNotFound)

	var count int64
	require.NoError(t, db.Model(&models.SessionItem{}).Where("session_id = ?", session.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	require.ErrorIs(t, svc.DeleteSession(uuid.New(), nil), scanning.ErrSessionNotFound)
}

func TestReportDataPartitionsAndOrders(t *testing.T) {
	svc, _ := newTestService(t)

	session, err := svc.CreateSession("Report", manifestRows("R-1", "R-2", "R-3"), nil)
	require.NoError(t, err)

	_, err = svc.Scan(session.ID, "R-1", nil)
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = svc.Scan(session.ID, "R-3", nil)
	require.NoError(t, err)

	report, err := svc.ReportData(session.ID)
	require.NoError(t, err)

	require.Len(t, report.Scanned, 2)
	assert.Equal(t, "R-3", report.Scanned[0].TrackingID, "most recent scan first")
	assert.Equal(t, "R-1", report.Scanned[1].TrackingID)

	require.Len(t, report.Unscanned, 1)
	assert.Equal(t, "R-2", report.Unscanned[0].TrackingID)

	assert.Equal(t, 3, report.Stats.Total)
	assert.Equal(t, 2, report.Stats.ScannedCount)
	assert.Equal(t, 1, report.Stats.MissingCount)
	assert.InDelta(t, 66.67, report.Stats.Progress, 0.01)

	_, err = svc.ReportData(uuid.New())
	require.ErrorIs(t, err, scanning.ErrSessionNotFound)
}

func TestStatsInvariantHoldsAcrossScans(t *testing.T) {
	svc, _ := newTestService(t)

	ids := []string{"S-1", "S-2", "S-3", "S-4"}
	session, err := svc.CreateSession("Invariant", manifestRows(ids...), nil)
	require.NoError(t, err)

	for _, id := range ids {
		detail, err := svc.GetSession(session.ID)
		require.NoError(t, err)
		assert.Equal(t, detail.Stats.Total, detail.Stats.ScannedCount+detail.Stats.MissingCount)

		_, err = svc.Scan(session.ID, id, nil)
		require.NoError(t, err)
	}

	detail, err := svc.GetSession(session.ID)
	require.NoError(t, err)
	assert.Equal(t, scanning.SessionStats{Total: 4, ScannedCount: 4, MissingCount: 0, Progress: 100}, detail.Stats)
}

func TestComputeStatsEmpty(t *testing.T) {
	stats := scanning.ComputeStats(nil)
	assert.Equal(t, scanning.SessionStats{}, stats)
	assert.Zero(t, stats.Progress)
}
