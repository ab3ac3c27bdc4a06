package source

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// Format identifies the physical file format of a source.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatTSV  Format = "tsv"
	FormatXLSX Format = "xlsx"
)

// rowReader yields a header row followed by data rows, regardless of the
// underlying file format.
type rowReader interface {
	Header() ([]string, error)
	Next() ([]string, error) // io.EOF when exhausted
	Close() error
}

type csvReader struct {
	f *os.File
	r *csv.Reader
}

func newCSVReader(path string, comma rune) (*csvReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open source: %w", err)
	}
	r := csv.NewReader(f)
	r.Comma = comma
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return &csvReader{f: f, r: r}, nil
}

func (c *csvReader) Header() ([]string, error) { return c.r.Read() }
func (c *csvReader) Next() ([]string, error)   { return c.r.Read() }
func (c *csvReader) Close() error              { return c.f.Close() }

type xlsxReader struct {
	f    *excelize.File
	rows *excelize.Rows
}

func newXLSXReader(path, sheet string) (*xlsxReader, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}
	return &xlsxReader{f: f, rows: rows}, nil
}

func (x *xlsxReader) Header() ([]string, error) { return x.Next() }

func (x *xlsxReader) Next() ([]string, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return x.rows.Columns()
}

func (x *xlsxReader) Close() error {
	_ = x.rows.Close()
	return x.f.Close()
}

func openReader(desc Descriptor) (rowReader, error) {
	switch desc.Format {
	case FormatCSV:
		return newCSVReader(desc.Path, ',')
	case FormatTSV:
		return newCSVReader(desc.Path, '\t')
	case FormatXLSX:
		return newXLSXReader(desc.Path, desc.Sheet)
	default:
		return nil, fmt.Errorf("unsupported source format %q", desc.Format)
	}
}
