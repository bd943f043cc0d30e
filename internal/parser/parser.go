// Package parser loads a raw match statistics export and splits it into its
// data block and trailing metadata block.
package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/pable/matchstats/internal/model"
)

// MetadataRows is the number of trailing key/value rows in every export.
const MetadataRows = 4

// LabelColumns is the number of leading label columns (category, subcategory).
const LabelColumns = 2

var (
	// ErrInputParse is returned when the input cannot be read as a table.
	ErrInputParse = errors.New("input is not a readable table")
	// ErrShortInput is returned when the table has fewer rows than the
	// metadata block needs.
	ErrShortInput = errors.New("input has fewer rows than the metadata block")
)

// Cells treated as missing, as a spreadsheet export writes them.
var nanValues = []string{"", "NA", "N/A", "NaN", "nan", "null", "<nil>"}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Block is a rectangular slice of the raw table. Missing cells are invalid
// NullStrings.
type Block struct {
	Columns []string
	Rows    [][]model.NullString
}

// Len returns the number of rows.
func (b Block) Len() int { return len(b.Rows) }

// Cell returns the cell at row i, column j, or an invalid value when out of range.
func (b Block) Cell(i, j int) model.NullString {
	if i < 0 || i >= len(b.Rows) || j < 0 || j >= len(b.Rows[i]) {
		return model.NullString{}
	}
	return b.Rows[i][j]
}

// MetricColumns returns the column names after the label columns.
func (b Block) MetricColumns() []string {
	if len(b.Columns) <= LabelColumns {
		return nil
	}
	return b.Columns[LabelColumns:]
}

// RawTable is a loaded export split into its two parts.
type RawTable struct {
	Data     Block
	Metadata Block
}

// Load reads the export at path.
func Load(path string) (*RawTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrInputParse, path, err)
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Read parses an export from r. The first record is the header; the last
// MetadataRows records below it form the metadata block.
func Read(r io.Reader) (*RawTable, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	raw = bytes.TrimPrefix(raw, utf8BOM)

	records, err := readRecords(raw)
	if err != nil {
		return nil, err
	}

	// The header is loaded as an ordinary record so duplicate or blank column
	// names survive untouched.
	df := dataframe.LoadRecords(records,
		dataframe.HasHeader(false),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(nanValues),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, df.Err)
	}
	if df.Ncol() < LabelColumns {
		return nil, fmt.Errorf("%w: need at least %d columns, got %d", ErrInputParse, LabelColumns, df.Ncol())
	}

	rows := cells(df)
	header := make([]string, len(rows[0]))
	for j, c := range rows[0] {
		header[j] = c.OrEmpty()
	}
	body := rows[1:]
	if len(body) < MetadataRows {
		return nil, fmt.Errorf("%w: %d rows, need at least %d", ErrShortInput, len(body), MetadataRows)
	}

	split := len(body) - MetadataRows
	return &RawTable{
		Data:     Block{Columns: header, Rows: body[:split]},
		Metadata: Block{Columns: header, Rows: body[split:]},
	}, nil
}

// readRecords splits raw into records of the header's width. Rows shorter
// than the header are padded with empty cells; longer rows are an error.
func readRecords(raw []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInputParse, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrInputParse)
	}
	width := len(records[0])
	for i, rec := range records {
		switch {
		case len(rec) > width:
			return nil, fmt.Errorf("%w: record %d has %d fields, header has %d", ErrInputParse, i+1, len(rec), width)
		case len(rec) < width:
			padded := make([]string, width)
			copy(padded, rec)
			records[i] = padded
		}
	}
	return records, nil
}

func cells(df dataframe.DataFrame) [][]model.NullString {
	out := make([][]model.NullString, df.Nrow())
	for i := range out {
		row := make([]model.NullString, df.Ncol())
		for j := range row {
			e := df.Elem(i, j)
			if !e.IsNA() {
				row[j] = model.NewNullString(e.String())
			}
		}
		out[i] = row
	}
	return out
}
