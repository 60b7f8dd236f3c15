package parser

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"presidentielle/internal/models"
)

const delimiter = ';'

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVLoader implements Loader for the semicolon separated tables
// published by the Ministry of the Interior
type CSVLoader struct {
	src    Opener
	logger *zap.Logger
}

// NewCSVLoader creates a new CSV loader reading from src
func NewCSVLoader(src Opener, logger *zap.Logger) *CSVLoader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVLoader{src: src, logger: logger}
}

// Load opens and parses the named table. Nothing is cached.
func (l *CSVLoader) Load(name string, level models.Level) ([]models.ResultRow, error) {
	rc, err := l.src.Open(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	rows, excluded, err := parse(rc, name, level)
	if err != nil {
		l.logger.Error("failed to parse results table", zap.String("file", name), zap.Error(err))
		return nil, err
	}

	l.logger.Debug("loaded results table",
		zap.String("file", name),
		zap.Stringer("level", level),
		zap.Int("rows", len(rows)),
		zap.Int("excluded", excluded))
	return rows, nil
}

// Parse reads a table from r. name only labels errors and rows.
func Parse(r io.Reader, name string, level models.Level) ([]models.ResultRow, error) {
	rows, _, err := parse(r, name, level)
	return rows, err
}

func parse(r io.Reader, name string, level models.Level) ([]models.ResultRow, int, error) {
	br := bufio.NewReader(r)
	if b, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.Comma = delimiter

	headers, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, 0, NewParseError("header", name, 1, errors.New("empty file"))
		}
		return nil, 0, NewParseError("header", name, 1, err)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}
	header := models.NewHeader(level, name, headers)
	excludes := exclusionFor(header)

	var rows []models.ResultRow
	excluded := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			line := 0
			var csvErr *csv.ParseError
			if errors.As(err, &csvErr) {
				line = csvErr.StartLine
			}
			return nil, 0, NewParseError("read", name, line, err)
		}
		line, _ := reader.FieldPos(0)

		cells := make([]models.Cell, len(record))
		for i, raw := range record {
			cell, err := parseCell(headers[i], raw)
			if err != nil {
				pe := NewParseError("field", name, line, err)
				pe.Column = headers[i]
				pe.Value = raw
				return nil, 0, pe
			}
			cells[i] = cell
		}

		row := models.NewResultRow(header, line, cells)
		if excludes(row) {
			excluded++
			continue
		}
		rows = append(rows, row)
	}
	return rows, excluded, nil
}

// parseCell converts a percentage column with a decimal comma to a
// float and fails on anything else. Other columns become integers when
// they look like one and stay text otherwise.
func parseCell(column, raw string) (models.Cell, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return models.Cell{Raw: raw, Kind: models.CellMissing}, nil
	}

	if models.IsPercentColumn(column) {
		f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
		if err != nil {
			return models.Cell{}, fmt.Errorf("not a number: %w", err)
		}
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return models.Cell{}, errors.New("not a finite number")
		}
		return models.Cell{Raw: raw, Number: f, Kind: models.CellFloat}, nil
	}

	if n, err := strconv.ParseInt(v, 10, 64); err == nil {
		return models.Cell{Raw: raw, Number: float64(n), Kind: models.CellInteger}, nil
	}
	return models.Cell{Raw: raw, Kind: models.CellText}, nil
}
