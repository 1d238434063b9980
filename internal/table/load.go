package table

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"crossmap/internal/common"
)

// Table roles. RoleData is the default.
const (
	RoleData      = "data"
	RoleHierarchy = "hierarchy"
)

// Spec describes one file to load into a mapping context.
type Spec struct {
	Path  string `yaml:"path" json:"path"`
	Alias string `yaml:"alias,omitempty" json:"alias,omitempty"`
	Role  string `yaml:"role,omitempty" json:"role,omitempty"`
	Sheet string `yaml:"sheet,omitempty" json:"sheet,omitempty"`
}

// WithDefaults fills the alias from the file name and the role with RoleData.
func (s Spec) WithDefaults() Spec {
	if s.Alias == "" {
		s.Alias = common.FileAlias(s.Path)
	}

	if s.Role == "" {
		s.Role = RoleData
	}

	return s
}

// Loader reads a table described by a Spec.
type Loader interface {
	Load(spec Spec) (*Table, error)
}

// FileLoader loads tables from local CSV, TSV, and XLSX files.
type FileLoader struct {
	// MaxRows limits rows read per file; 0 means unlimited.
	MaxRows int
}

// Load implements Loader.
func (l FileLoader) Load(spec Spec) (*Table, error) {
	spec = spec.WithDefaults()

	var (
		header  []string
		records [][]string
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(spec.Path)); ext {
	case ".csv":
		header, records, err = l.readDelimited(spec.Path, 0)
	case ".tsv", ".tab":
		header, records, err = l.readDelimited(spec.Path, '\t')
	case ".xlsx", ".xlsm":
		header, records, err = l.readWorkbook(spec.Path, spec.Sheet)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, err
	}

	t, err := FromRecords(spec.Alias, header, records)
	if err != nil {
		return nil, err
	}

	t.Path = spec.Path
	t.Role = spec.Role

	return t, nil
}

func (l FileLoader) readDelimited(path string, delim rune) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	if delim == 0 {
		delim = sniffDelimiter(br)
	}

	r := csv.NewReader(br)
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("read %s: no header row", path)
		}

		return nil, nil, fmt.Errorf("read header %s: %w", path, err)
	}

	var records [][]string

	for l.MaxRows <= 0 || len(records) < l.MaxRows {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, nil, fmt.Errorf("read %s: %w", path, err)
		}

		records = append(records, rec)
	}

	return header, records, nil
}

// sniffDelimiter picks the most frequent of ',', ';' and tab on the first line.
func sniffDelimiter(br *bufio.Reader) rune {
	line, _ := br.Peek(4096)
	if i := strings.IndexByte(string(line), '\n'); i >= 0 {
		line = line[:i]
	}

	best, bestCount := ',', 0
	for _, d := range []rune{',', ';', '\t'} {
		if n := strings.Count(string(line), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}

	return best
}

func (l FileLoader) readWorkbook(path, sheet string) ([]string, [][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
		}

		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q of %s: %w", sheet, path, err)
	}

	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q of %s: no header row", sheet, path)
	}

	records := rows[1:]
	if l.MaxRows > 0 && len(records) > l.MaxRows {
		records = records[:l.MaxRows]
	}

	return rows[0], records, nil
}
