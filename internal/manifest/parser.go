package manifest

import (
	"fmt"
	"strings"
)

// Row is one canonical manifest entry after parsing.
type Row struct {
	TrackingID  string
	ProductName string
	Recipient   string
}

// ParseError reports a manifest that cannot be ingested. Ingestion is
// all-or-nothing: a ParseError means no session is created.
type ParseError struct {
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("manifest parse failed: %s", e.Reason)
}

// Header pattern families, matched by substring against lower-cased headers.
// Tracking is mandatory; product and recipient fall back to "N/A".
var (
	trackingPatterns  = []string{"tracking id", "resi", "barcode", "no resi", "nomor resi", "awb"}
	productPatterns   = []string{"product name", "nama produk", "produk", "item", "barang"}
	recipientPatterns = []string{"recipient", "penerima", "nama penerima", "customer"}
)

const missingValue = "N/A"

// Parse turns a decoded 2-D cell table into a deduplicated set of manifest
// rows. Row 0 is the header row. Duplicate tracking identifiers keep the
// first occurrence; rows with an empty tracking cell are skipped.
func Parse(table [][]Cell) ([]Row, error) {
	if len(table) < 2 {
		return nil, &ParseError{Reason: "need a header row and at least one data row"}
	}

	headers := make([]string, len(table[0]))
	for i, cell := range table[0] {
		headers[i] = strings.ToLower(strings.TrimSpace(cell.String()))
	}

	trackingIdx := findColumn(headers, trackingPatterns)
	if trackingIdx == -1 {
		return nil, &ParseError{Reason: "tracking column not found"}
	}
	productIdx := findColumn(headers, productPatterns)
	recipientIdx := findColumn(headers, recipientPatterns)

	var rows []Row
	seen := make(map[string]struct{})

	for _, record := range table[1:] {
		trackingID := strings.TrimSpace(cellAt(record, trackingIdx).String())
		if trackingID == "" {
			continue
		}
		if _, dup := seen[trackingID]; dup {
			continue
		}
		seen[trackingID] = struct{}{}

		rows = append(rows, Row{
			TrackingID:  trackingID,
			ProductName: fieldAt(record, productIdx),
			Recipient:   fieldAt(record, recipientIdx),
		})
	}

	if len(rows) == 0 {
		return nil, &ParseError{Reason: "no valid items"}
	}

	return rows, nil
}

// findColumn returns the index of the first header containing any of the
// patterns, or -1.
func findColumn(headers []string, patterns []string) int {
	for i, h := range headers {
		for _, p := range patterns {
			if strings.Contains(h, p) {
				return i
			}
		}
	}
	return -1
}

func cellAt(record []Cell, idx int) Cell {
	if idx < 0 || idx >= len(record) {
		return EmptyCell()
	}
	return record[idx]
}

func fieldAt(record []Cell, idx int) string {
	if idx == -1 {
		return missingValue
	}
	v := strings.TrimSpace(cellAt(record, idx).String())
	if v == "" {
		return missingValue
	}
	return v
}
