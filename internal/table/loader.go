package table

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/kaikelopes301-code/portal-performance/internal/textnorm"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"
	"github.com/shakinm/xlsReader/xls"
	"github.com/xuri/excelize/v2"
	"golang.org/x/text/encoding/charmap"
)

// SheetPrefix is the conventional prefix of regional billing sheets.
const SheetPrefix = "Faturamento"

// LoadConfig holds configuration for table loading
type LoadConfig struct {
	// Delimiter for CSV sources; 0 sniffs "," or ";" from the header line.
	Delimiter rune
	// Sheet selects a workbook sheet by exact name.
	Sheet string
	// Region selects the sheet named "Faturamento <Region>" when Sheet is empty.
	Region string
}

// DefaultLoadConfig returns a configuration with sensible defaults
func DefaultLoadConfig() *LoadConfig {
	return &LoadConfig{}
}

// Loader reads tables from CSV and workbook files.
type Loader struct {
	config *LoadConfig
	logger logger.Logger
}

// NewLoader creates a Loader with the given configuration
func NewLoader(config *LoadConfig) *Loader {
	if config == nil {
		config = DefaultLoadConfig()
	}

	log := logger.GetGlobalLogger().WithComponent("table_loader")
	log.WithFields(logger.Fields{
		"delimiter": string(config.Delimiter),
		"sheet":     config.Sheet,
		"region":    config.Region,
	}).Debug("Created table loader")

	return &Loader{config: config, logger: log}
}

// Load reads the file at path, dispatching on its extension.
func (l *Loader) Load(path string) (*Table, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv", ".txt":
		return l.LoadCSV(bytes.NewReader(data), path)
	case ".xlsx", ".xlsm":
		return l.LoadXLSX(bytes.NewReader(data), path)
	case ".xls":
		return l.LoadXLS(data, path)
	default:
		return nil, errors.FileError(errors.CodeUnsupportedFormat, path, nil)
	}
}

// Sheets lists the sheet names of a workbook file.
func (l *Loader) Sheets(path string) ([]string, error) {
	data, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
		}
		defer f.Close()
		return f.GetSheetList(), nil
	case ".xls":
		workbook, err := xls.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
		}
		var names []string
		for _, sheet := range workbook.GetSheets() {
			names = append(names, sheet.GetName())
		}
		return names, nil
	default:
		return nil, errors.FileError(errors.CodeUnsupportedFormat, path, nil)
	}
}

func (l *Loader) readFile(path string) ([]byte, error) {
	l.logger.WithField("file_path", path).Debug("Opening table file")

	data, err := os.ReadFile(path)
	if err != nil {
		l.logger.WithError(err).WithField("file_path", path).Error("Failed to open table file")
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, path, err)
	}
	return data, nil
}

// LoadCSV reads a CSV source. Input that is not valid UTF-8 is decoded as
// Windows-1252.
func (l *Loader) LoadCSV(r io.Reader, name string) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	if !utf8.Valid(data) {
		l.logger.WithField("source", name).Debug("Decoding CSV as Windows-1252")
		decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return nil, errors.ParseError(errors.CodeEncodingError, name, "", err)
		}
		data = decoded
	}

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = l.delimiter(data)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, "", err)
	}
	return l.build(records, name, "")
}

func (l *Loader) delimiter(data []byte) rune {
	if l.config.Delimiter != 0 {
		return l.config.Delimiter
	}
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	if bytes.Count(line, []byte(";")) > bytes.Count(line, []byte(",")) {
		return ';'
	}
	return ','
}

// LoadXLSX reads the selected sheet of an XLSX workbook. Cells are read raw
// so dates arrive as serial numbers and amounts without display masks.
func (l *Loader) LoadXLSX(r io.Reader, name string) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}
	defer f.Close()

	sheet, err := l.pickSheet(f.GetSheetList(), name)
	if err != nil {
		return nil, err
	}

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, sheet, err)
	}
	return l.build(records, name, sheet)
}

// LoadXLS reads the selected sheet of a legacy XLS workbook. Data that turns
// out to be XLSX is handed to LoadXLSX.
func (l *Loader) LoadXLS(data []byte, name string) (*Table, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data))
	if err != nil {
		if f, errX := excelize.OpenReader(bytes.NewReader(data)); errX == nil {
			f.Close()
			return l.LoadXLSX(bytes.NewReader(data), name)
		}
		return nil, errors.FileError(errors.CodeFileCorrupted, name, err)
	}

	sheets := workbook.GetSheets()
	names := make([]string, len(sheets))
	for i := range sheets {
		names[i] = sheets[i].GetName()
	}
	picked, err := l.pickSheet(names, name)
	if err != nil {
		return nil, err
	}

	var records [][]string
	for i := range sheets {
		if names[i] != picked {
			continue
		}
		for _, row := range sheets[i].GetRows() {
			var rec []string
			for _, cell := range row.GetCols() {
				rec = append(rec, cell.GetString())
			}
			records = append(records, rec)
		}
		break
	}
	return l.build(records, name, picked)
}

// pickSheet applies Sheet, then Region, then falls back to the first sheet.
func (l *Loader) pickSheet(names []string, file string) (string, error) {
	if len(names) == 0 {
		return "", errors.ParseError(errors.CodeEmptyTable, file, "", fmt.Errorf("workbook has no sheets"))
	}

	if l.config.Sheet != "" {
		for _, n := range names {
			if n == l.config.Sheet {
				return n, nil
			}
		}
		return "", errors.ParseError(errors.CodeSheetNotFound, file, l.config.Sheet, nil)
	}

	if l.config.Region != "" {
		want := RegionSheetName(l.config.Region)
		key := textnorm.KeyEquivalent(want)
		for _, n := range names {
			if textnorm.KeyEquivalent(n) == key {
				return n, nil
			}
		}
		return "", errors.ParseError(errors.CodeSheetNotFound, file, want, nil).
			WithContext("available_sheets", names)
	}

	return names[0], nil
}

// RegionSheetName returns the billing sheet name of a region.
func RegionSheetName(region string) string {
	return SheetPrefix + " " + strings.TrimSpace(region)
}

func (l *Loader) build(records [][]string, name, sheet string) (*Table, error) {
	start := 0
	for start < len(records) && isEmptyRecord(records[start]) {
		start++
	}
	if start == len(records) {
		return nil, errors.ParseError(errors.CodeEmptyTable, name, sheet, nil)
	}

	t := FromStrings(records[start:])
	l.logger.WithFields(logger.Fields{
		"source":  name,
		"sheet":   sheet,
		"columns": len(t.Headers),
		"rows":    t.Len(),
	}).Debug("Loaded table")
	return t, nil
}
