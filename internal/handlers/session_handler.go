package handler

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"warehouse-scan-backend/internal/manifest"
	"warehouse-scan-backend/internal/repository"
	"warehouse-scan-backend/internal/services/scanning"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type SessionHandler struct {
	service *scanning.Service
	logs    *repository.ActivityLogRepository
}

func NewSessionHandler(service *scanning.Service, logs *repository.ActivityLogRepository) *SessionHandler {
	return &SessionHandler{service: service, logs: logs}
}

// CreateSession ingests a manifest upload and creates a session from it.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	name := strings.TrimSpace(c.PostForm("name"))
	file, header, err := c.Request.FormFile("file")
	if err != nil || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and file are required"})
		return
	}
	defer file.Close()

	log.Println("Received manifest:", header.Filename, "size:", header.Size)

	table, err := decodeTable(file, header.Filename)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot read manifest file: " + err.Error()})
		return
	}

	rows, err := manifest.Parse(table)
	if err != nil {
		respondError(c, err)
		return
	}

	session, err := h.service.CreateSession(name, rows, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":   session,
		"itemCount": len(rows),
	})
}

// ListSessions returns session summaries for the dashboard.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	summaries, err := h.service.ListSessions()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetSession returns one session with its items and stats.
func (h *SessionHandler) GetSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	detail, err := h.service.GetSession(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

// Scan classifies a single scan event.
func (h *SessionHandler) Scan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	var payload struct {
		TrackingID string `json:"trackingId"`
	}
	if err := c.BindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result, err := h.service.Scan(id, payload.TrackingID, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ToggleActive flips the session's active flag.
func (h *SessionHandler) ToggleActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	session, err := h.service.ToggleActive(id, actorFrom(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session updated", "session": session})
}

// DeleteSession removes a session and all of its items.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	if err := h.service.DeleteSession(id, actorFrom(c)); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "session deleted"})
}

// GetReport returns the scanned/unscanned partitions for exporters.
func (h *SessionHandler) GetReport(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session ID"})
		return
	}

	report, err := h.service.ReportData(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListLogs returns activity log entries with optional filters and paging.
func (h *SessionHandler) ListLogs(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit <= 0 {
		limit = 100
	}
	offset, err := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err != nil || offset < 0 {
		offset = 0
	}

	logs, total, err := h.logs.List(c.Query("userId"), c.Query("action"), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":   logs,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	})
}

// actorFrom pulls the opaque actor identity supplied by the auth layer.
func actorFrom(c *gin.Context) *string {
	actor := strings.TrimSpace(c.GetHeader("X-Actor"))
	if actor == "" {
		return nil
	}
	return &actor
}

func respondError(c *gin.Context, err error) {
	var parseErr *manifest.ParseError
	var validationErr *scanning.ValidationError
	switch {
	case errors.As(err, &parseErr), errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, scanning.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		log.Println("request failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// decodeTable turns an uploaded spreadsheet into a 2-D cell array. Excel
// files go through excelize; anything else is treated as delimited text.
func decodeTable(r io.Reader, filename string) ([][]manifest.Cell, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".xls":
		return decodeExcel(r)
	default:
		return decodeCSV(r)
	}
}

func decodeExcel(r io.Reader) ([][]manifest.Cell, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, err
	}

	table := make([][]manifest.Cell, len(rows))
	for i, row := range rows {
		cells := make([]manifest.Cell, len(row))
		for j, value := range row {
			cells[j] = manifest.StringCell(value)
		}
		table[i] = cells
	}
	return table, nil
}

func decodeCSV(r io.Reader) ([][]manifest.Cell, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	// Sniff the delimiter from the first chunk
	sample := data
	if len(sample) > 1024 {
		sample = sample[:1024]
	}
	if !bytes.ContainsRune(sample, ',') && bytes.ContainsRune(sample, '\t') {
		reader.Comma = '\t'
	}

	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	table := make([][]manifest.Cell, len(records))
	for i, record := range records {
		cells := make([]manifest.Cell, len(record))
		for j, value := range record {
			cells[j] = manifest.StringCell(value)
		}
		table[i] = cells
	}
	return table, nil
}
