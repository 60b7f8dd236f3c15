package models

import (
	"errors"
	"strings"
)

// Column names used by the published result tables
const (
	ColDepartmentCode  = "Code du département"
	ColDepartmentLabel = "Libellé du département"
	ColRegionCode      = "Code de la région"
	ColRegionLabel     = "Libellé de la région"

	ColRegistered  = "Inscrits"
	ColVoters      = "Votants"
	ColAbstentions = "Abstentions"
	ColBlank       = "Blancs"
	ColNull        = "Nuls"
	ColExpressed   = "Exprimés"

	ColPctAbstentions = "% Abs/Ins"
	ColPctVoters      = "% Vot/Ins"
	ColPctBlank       = "% Blancs/Vot"
	ColPctNull        = "% Nuls/Vot"
	ColPctExpressed   = "% Exp/Vot"

	ColCandidateName      = "Nom"
	ColCandidateFirstName = "Prénom"
	ColVotes              = "Voix"
	ColPctVotesRegistered = "% Voix/Ins"
	ColPctVotesExpressed  = "% Voix/Exp"
)

// ErrUnknownColumn is returned when a row has no column with the requested name
var ErrUnknownColumn = errors.New("unknown column")

// IsPercentColumn reports whether values of the column are locale formatted percentages
func IsPercentColumn(name string) bool {
	return strings.Contains(name, "%")
}

// CellKind describes how a field was interpreted at load time
type CellKind int

const (
	CellText CellKind = iota
	CellInteger
	CellFloat
	CellMissing
)

// Cell is one parsed field of a result row
type Cell struct {
	Raw    string
	Number float64
	Kind   CellKind
}

// Numeric reports whether the cell carries a number
func (c Cell) Numeric() bool {
	return c.Kind == CellInteger || c.Kind == CellFloat
}

// Header is the column layout shared by all rows of one loaded file
type Header struct {
	Level   Level
	Source  string
	columns []string
	index   map[string]int
}

// NewHeader builds an immutable header from the column names
func NewHeader(level Level, source string, columns []string) *Header {
	h := &Header{
		Level:   level,
		Source:  source,
		columns: append([]string(nil), columns...),
		index:   make(map[string]int, len(columns)),
	}
	for i, c := range h.columns {
		if _, dup := h.index[c]; !dup {
			h.index[c] = i
		}
	}
	return h
}

// Columns returns a copy of the column names
func (h *Header) Columns() []string {
	return append([]string(nil), h.columns...)
}

// Has reports whether the header contains the column
func (h *Header) Has(column string) bool {
	_, ok := h.index[column]
	return ok
}

// Index returns the position of the column
func (h *Header) Index(column string) (int, bool) {
	i, ok := h.index[column]
	return i, ok
}

// Len returns the number of columns
func (h *Header) Len() int {
	return len(h.columns)
}

// ResultRow represents one row of a results table, either aggregate
// statistics for a unit or one candidate within a unit
type ResultRow struct {
	Line   int
	header *Header
	cells  []Cell
}

// NewResultRow binds parsed cells to their header
func NewResultRow(header *Header, line int, cells []Cell) ResultRow {
	return ResultRow{Line: line, header: header, cells: cells}
}

// Header returns the header the row was loaded with
func (r ResultRow) Header() *Header {
	return r.header
}

// Cell returns the field for the column
func (r ResultRow) Cell(column string) (Cell, bool) {
	if r.header == nil {
		return Cell{}, false
	}
	i, ok := r.header.index[column]
	if !ok || i >= len(r.cells) {
		return Cell{}, false
	}
	return r.cells[i], true
}

// Has reports whether the row has the column
func (r ResultRow) Has(column string) bool {
	_, ok := r.Cell(column)
	return ok
}

// Text returns the raw text of the column, or "" when absent
func (r ResultRow) Text(column string) string {
	c, _ := r.Cell(column)
	return c.Raw
}

// Float returns the numeric value of the column. ok is false when the
// column is absent, missing or textual.
func (r ResultRow) Float(column string) (float64, bool) {
	c, found := r.Cell(column)
	if !found || !c.Numeric() {
		return 0, false
	}
	return c.Number, true
}

// Int returns the integer value of the column, or 0
func (r ResultRow) Int(column string) int64 {
	v, ok := r.Float(column)
	if !ok {
		return 0
	}
	return int64(v)
}

// Level returns the geography level of the row
func (r ResultRow) Level() Level {
	if r.header == nil {
		return LevelNation
	}
	return r.header.Level
}

// Unit returns the geographic unit the row belongs to
func (r ResultRow) Unit() GeographicUnit {
	u := GeographicUnit{Level: r.Level()}
	switch {
	case r.Has(ColDepartmentLabel) || r.Has(ColDepartmentCode):
		u.Label, u.Code = r.Text(ColDepartmentLabel), r.Text(ColDepartmentCode)
	case r.Has(ColRegionLabel) || r.Has(ColRegionCode):
		u.Label, u.Code = r.Text(ColRegionLabel), r.Text(ColRegionCode)
	default:
		u.Label = LevelNation.Label()
	}
	return u
}

// CandidateName returns the candidate surname, or "" for statistics rows
func (r ResultRow) CandidateName() string {
	return r.Text(ColCandidateName)
}

// ResultRecord is the typed form of a row
type ResultRecord struct {
	Unit            GeographicUnit `json:"unit"`
	Registered      int64          `json:"registered"`
	Voters          int64          `json:"voters"`
	Abstentions     int64          `json:"abstentions"`
	Blank           int64          `json:"blank"`
	NullVotes       int64          `json:"null_votes"`
	Expressed       int64          `json:"expressed"`
	CandidateName   string         `json:"candidate_name,omitempty"`
	Votes           int64          `json:"votes,omitempty"`
	PctOfRegistered *float64       `json:"pct_of_registered,omitempty"`
	PctOfExpressed  *float64       `json:"pct_of_expressed,omitempty"`
}

// Record converts the row to its typed form
func (r ResultRow) Record() ResultRecord {
	rec := ResultRecord{
		Unit:          r.Unit(),
		Registered:    r.Int(ColRegistered),
		Voters:        r.Int(ColVoters),
		Abstentions:   r.Int(ColAbstentions),
		Blank:         r.Int(ColBlank),
		NullVotes:     r.Int(ColNull),
		Expressed:     r.Int(ColExpressed),
		CandidateName: r.CandidateName(),
		Votes:         r.Int(ColVotes),
	}
	if v, ok := r.Float(ColPctVotesRegistered); ok {
		rec.PctOfRegistered = &v
	}
	if v, ok := r.Float(ColPctVotesExpressed); ok {
		rec.PctOfExpressed = &v
	}
	return rec
}

// MajorityCount is the number of units won by a candidate
type MajorityCount struct {
	CandidateName string `json:"candidate_name"`
	Count         int    `json:"count"`
}
