package dashboard

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"presidentielle/internal/aggregate"
	"presidentielle/internal/models"
	"presidentielle/internal/parser"
)

// Finding kinds reported by Audit
const (
	FindingOutOfRange    = "pct_out_of_range"
	FindingExcludedCode  = "excluded_code"
	FindingMissingColumn = "missing_column"
	FindingEmptyTable    = "empty_table"
	FindingNoBoundary    = "no_boundary"
)

// Finding is one data quality problem of the bundle. Findings describe
// the data, not failures of the code.
type Finding struct {
	Kind    string `json:"kind"`
	File    string `json:"file"`
	Line    int    `json:"line,omitempty"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}

// AuditReport summarizes a pass over every configured table
type AuditReport struct {
	Files    int       `json:"files"`
	Rows     int       `json:"rows"`
	Findings []Finding `json:"findings"`
}

var candidateColumns = []string{
	models.ColCandidateName,
	models.ColVotes,
	models.ColPctVotesRegistered,
	models.ColPctVotesExpressed,
}

// Audit loads every configured table and checks the properties the
// dashboard relies on. Parse errors and missing files abort the audit.
func (s *Service) Audit(ctx context.Context) (*AuditReport, error) {
	report := &AuditReport{Findings: []Finding{}}
	for _, src := range s.tables.Sources() {
		for _, kind := range []models.Kind{models.KindStats, models.KindCandidates} {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			rows, err := s.tables.Load(src.Round, src.Level, kind)
			if err != nil {
				return nil, err
			}
			file, _ := src.File(kind)
			report.Files++
			report.Rows += len(rows)
			report.Findings = append(report.Findings, s.auditTable(file, src, kind, rows)...)
		}
	}

	s.logger.Info("audit finished",
		zap.Int("files", report.Files),
		zap.Int("rows", report.Rows),
		zap.Int("findings", len(report.Findings)))
	return report, nil
}

func (s *Service) requiredColumns(src models.Source, kind models.Kind) []string {
	var cols []string
	if src.IDColumn != "" {
		cols = append(cols, src.IDColumn)
	}
	if kind == models.KindCandidates {
		return append(cols, candidateColumns...)
	}
	for _, stat := range aggregate.Stats {
		for _, pct := range []bool{false, true} {
			col, err := s.engine.SelectStatColumn(stat, pct)
			if err == nil {
				cols = append(cols, col)
			}
		}
	}
	return cols
}

func (s *Service) auditTable(file string, src models.Source, kind models.Kind, rows []models.ResultRow) []Finding {
	if len(rows) == 0 {
		return []Finding{{Kind: FindingEmptyTable, File: file, Message: "table has no rows"}}
	}

	var findings []Finding
	header := rows[0].Header()
	seen := make(map[string]bool)
	for _, col := range s.requiredColumns(src, kind) {
		if seen[col] {
			continue
		}
		seen[col] = true
		if !header.Has(col) {
			findings = append(findings, Finding{
				Kind:    FindingMissingColumn,
				File:    file,
				Column:  col,
				Message: fmt.Sprintf("column %q is required for %s tables", col, kind),
			})
		}
	}

	columns := header.Columns()
	for _, row := range rows {
		if parser.IsExcluded(row) {
			findings = append(findings, Finding{
				Kind:    FindingExcludedCode,
				File:    file,
				Line:    row.Line,
				Message: fmt.Sprintf("unit %q should have been excluded", row.Unit().Code),
			})
		}
		for _, col := range columns {
			if !models.IsPercentColumn(col) {
				continue
			}
			if v, ok := row.Float(col); ok && (v < 0 || v > 100) {
				findings = append(findings, Finding{
					Kind:    FindingOutOfRange,
					File:    file,
					Line:    row.Line,
					Column:  col,
					Message: fmt.Sprintf("percentage %v outside [0,100]", v),
				})
			}
		}
	}

	if src.Geo != "" && header.Has(src.IDColumn) {
		idx, err := s.geo.LoadGeoIndex(src.Geo, s.featureIDKey)
		if err != nil {
			return append(findings, Finding{Kind: FindingNoBoundary, File: src.Geo, Message: err.Error()})
		}
		reported := make(map[string]bool)
		for _, row := range rows {
			label := row.Text(src.IDColumn)
			if reported[label] || idx.Contains(label) {
				continue
			}
			reported[label] = true
			findings = append(findings, Finding{
				Kind:    FindingNoBoundary,
				File:    file,
				Line:    row.Line,
				Column:  src.IDColumn,
				Message: fmt.Sprintf("no feature named %q in %s", label, src.Geo),
			})
		}
	}
	return findings
}
