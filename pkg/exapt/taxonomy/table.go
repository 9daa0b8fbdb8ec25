package taxonomy

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cognicore/exapt/pkg/exapt/internalerr"
)

// Column layout of the taxonomy table.
const (
	colCategoryID = iota
	colParentID
	colName
	colTier1
	colTier2
	colTier3
	colTier4
	tableColumns
)

// Row is one line of the taxonomy table: a category plus the names along its
// path from tier 1 down to itself.
type Row struct {
	CategoryID string
	ParentID   string
	Name       string
	Path       [MaxTier]string
}

// Tier infers the row's depth from the last non-empty path column.
func (r Row) Tier() int {
	switch {
	case r.Path[1] == "":
		return 1
	case r.Path[2] == "":
		return 2
	case r.Path[3] == "":
		return 3
	default:
		return 4
	}
}

// LoadTable reads a taxonomy table from disk.
func LoadTable(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open taxonomy table: %w", err)
	}
	defer f.Close()
	return ReadTable(f)
}

// ReadTable parses a ';'-separated taxonomy table. The first line is a
// header and is skipped.
func ReadTable(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: taxonomy table is empty", internalerr.ErrInvalidInput)
		}
		return nil, fmt.Errorf("read taxonomy header: %w", err)
	}

	var rows []Row
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("read taxonomy line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}
		row, err := parseRow(record)
		if err != nil {
			return nil, fmt.Errorf("taxonomy line %d: %w", line, err)
		}
		rows = append(rows, row)
	}

	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: taxonomy table has no categories", internalerr.ErrInvalidInput)
	}
	return rows, nil
}

func parseRow(record []string) (Row, error) {
	if len(record) <= colTier1 {
		return Row{}, fmt.Errorf("%w: expected %d columns, got %d", internalerr.ErrInvalidInput, tableColumns, len(record))
	}
	cells := make([]string, tableColumns)
	for i := 0; i < len(record) && i < tableColumns; i++ {
		cells[i] = strings.TrimSpace(strings.TrimPrefix(record[i], "\ufeff"))
	}

	row := Row{
		CategoryID: cells[colCategoryID],
		ParentID:   cells[colParentID],
		Name:       cells[colName],
		Path:       [MaxTier]string{cells[colTier1], cells[colTier2], cells[colTier3], cells[colTier4]},
	}
	if row.CategoryID == "" || row.Name == "" {
		return Row{}, fmt.Errorf("%w: category id and name are required", internalerr.ErrInvalidInput)
	}
	if row.Path[0] == "" {
		return Row{}, fmt.Errorf("%w: %q has no tier 1 name", internalerr.ErrInvalidInput, row.Name)
	}
	return row, nil
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
