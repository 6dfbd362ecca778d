// Package importer turns spreadsheet exports of the cellar into raw record
// maps for CellarService.ImportRecords.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ignoredColumns are spreadsheet helper columns with no record field.
var ignoredColumns = map[string]bool{
	"ignore_bottle_date": true,
	"is_cold":            true,
	"sell":               true,
}

// ErrNoHeader is returned for an input without a header row.
var ErrNoHeader = errors.New("csv has no header row")

// ReadCSV reads a header row followed by one record per row. year and qty
// become integers (empty cells are omitted), for_trade is true for any
// non-empty cell and rows without a producer are skipped.
func ReadCSV(r io.Reader) ([]map[string]any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]any
	for line := 2; ; line++ {
		cells, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv line %d: %w", line, err)
		}

		row, err := convertRow(header, cells)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if producer(row) == "" {
			continue
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func convertRow(header, cells []string) (map[string]any, error) {
	row := make(map[string]any, len(header))
	for i, cell := range cells {
		if i >= len(header) {
			break
		}
		column := header[i]
		if column == "" || ignoredColumns[column] {
			continue
		}
		switch column {
		case "year", "qty":
			// An empty cell is left out so the record constructor sees
			// the field as absent.
			if strings.TrimSpace(cell) == "" {
				continue
			}
			n, err := parseCount(cell)
			if err != nil {
				return nil, fmt.Errorf("column %s: %w", column, err)
			}
			row[column] = n
		case "for_trade":
			row[column] = cell != ""
		default:
			row[column] = cell
		}
	}
	return row, nil
}

// parseCount reads the year and quantity cells. Uncertain values are
// written with a question mark ("2019?", or just "?" for unknown), and
// vintages are sometimes a month label such as "Jun-19".
func parseCount(cell string) (int, error) {
	cell = strings.TrimSpace(cell)
	if cell == "?" {
		return 0, nil
	}
	cell = strings.ReplaceAll(cell, "?", "")
	if n, err := strconv.Atoi(cell); err == nil {
		return n, nil
	}
	if _, yy, ok := strings.Cut(cell, "-"); ok {
		if n, err := strconv.Atoi("20" + yy); err == nil {
			return n, nil
		}
	}
	return 0, fmt.Errorf("%q is not a number", cell)
}

func producer(row map[string]any) string {
	for _, k := range []string{"producer", "brewery"} {
		if s, ok := row[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}
