package manifest

import "strconv"

type cellKind int

const (
	cellEmpty cellKind = iota
	cellString
	cellNumber
)

// Cell is one spreadsheet cell value: a string, a number, or empty.
// Decoders produce Cells; the parser normalizes them to strings explicitly
// instead of relying on implicit coercion.
type Cell struct {
	kind cellKind
	str  string
	num  float64
}

func EmptyCell() Cell {
	return Cell{kind: cellEmpty}
}

func StringCell(s string) Cell {
	if s == "" {
		return EmptyCell()
	}
	return Cell{kind: cellString, str: s}
}

func NumberCell(f float64) Cell {
	return Cell{kind: cellNumber, num: f}
}

func (c Cell) IsEmpty() bool {
	return c.kind == cellEmpty
}

// String renders the cell as text. Numbers are formatted in plain decimal
// notation so numeric tracking identifiers never collapse into exponent form.
func (c Cell) String() string {
	switch c.kind {
	case cellNumber:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case cellString:
		return c.str
	default:
		return ""
	}
}
