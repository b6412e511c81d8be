// Package table loads the input spreadsheet into validated [models.Row] values.
//
// CSV and XLSX are supported. The header row is required, video_id is the only
// required column, and every row must carry a video_id; any violation rejects the
// whole file before a job is created.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/ytmeta/internal/models"
	"github.com/desertthunder/ytmeta/internal/shared"
	"github.com/xuri/excelize/v2"
)

// Table is a loaded input file.
type Table struct {
	Path    string
	Columns []string // Header as found in the file, trimmed
	Missing []string // Optional columns not present, backfilled as absent
	Rows    []models.Row
}

// Load reads path, choosing the decoder by extension.
func Load(path string) (*Table, error) {
	var (
		t   *Table
		err error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		var f *os.File
		if f, err = os.Open(path); err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		t, err = ReadCSV(f)
	case ".xlsx":
		t, err = readXLSX(path)
	case ".xls":
		return nil, fmt.Errorf("%w: %s (save the workbook as .xlsx or .csv)", shared.ErrUnsupportedFormat, ext)
	default:
		return nil, fmt.Errorf("%w: %q (use .csv or .xlsx)", shared.ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, err
	}
	t.Path = path
	return t, nil
}

// ReadCSV decodes a CSV stream. Rows may have fewer or more cells than the header.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	b := &builder{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
		}

		line, _ := reader.FieldPos(0)
		if err := b.add(line, record); err != nil {
			return nil, err
		}
	}
	return b.table()
}

func readXLSX(path string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("%w: workbook has no sheets", shared.ErrInvalidInput)
	}

	records, err := f.GetRows(sheets[0], excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	b := &builder{publishAt: excelPublishAt}
	for i, record := range records {
		if err := b.add(i+1, record); err != nil {
			return nil, err
		}
	}
	return b.table()
}

// excelPublishAt converts a date serial into RFC 3339 UTC. Text passes through;
// a serial that cannot be converted becomes blank.
func excelPublishAt(raw string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return raw
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return ""
	}
	return t.Round(time.Second).UTC().Format(time.RFC3339)
}

type builder struct {
	header    map[string]int
	columns   []string
	rows      []models.Row
	publishAt func(string) string
}

func (b *builder) add(line int, record []string) error {
	if blank(record) {
		return nil
	}

	if b.header == nil {
		return b.setHeader(record)
	}

	cells := make(map[string]string, len(b.header))
	for name, i := range b.header {
		if i < len(record) {
			cells[name] = record[i]
		}
	}
	if b.publishAt != nil && cells[models.PublishAtColumn] != "" {
		cells[models.PublishAtColumn] = b.publishAt(cells[models.PublishAtColumn])
	}

	row := models.NewRow(len(b.rows), cells)
	if row.VideoID == "" {
		return fmt.Errorf("%w: %w on line %d", shared.ErrInvalidInput, shared.ErrMissingVideoID, line)
	}
	b.rows = append(b.rows, row)
	return nil
}

func (b *builder) setHeader(record []string) error {
	b.header = make(map[string]int, len(record))
	for i, name := range record {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\uFEFF"))
		b.columns = append(b.columns, name)
		if _, dup := b.header[name]; !dup && name != "" {
			b.header[name] = i
		}
	}
	if _, ok := b.header[models.VideoIDColumn]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrMissingColumn, models.VideoIDColumn)
	}
	return nil
}

func (b *builder) table() (*Table, error) {
	if b.header == nil {
		return nil, fmt.Errorf("%w: no header row", shared.ErrInvalidInput)
	}

	t := &Table{Columns: b.columns, Rows: b.rows}
	for _, col := range models.OptionalColumns {
		if _, ok := b.header[col]; !ok {
			t.Missing = append(t.Missing, col)
		}
	}
	return t, nil
}

func blank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
