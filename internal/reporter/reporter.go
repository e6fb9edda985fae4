// Package reporter renders extraction results.
//
// Supported output formats:
//   - Console: human-readable tables for terminal display
//   - JSON: the full result, summary included, for programmatic consumption
//   - CSV: display rows only, for spreadsheet applications
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatJSON})
//	err = generator.GenerateReport(results, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/extractor"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// Encodings accepted for CSV output.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format"`

	IncludeSummary    bool `json:"include_summary" mapstructure:"include_summary"`
	IncludeRecipients bool `json:"include_recipients" mapstructure:"include_recipients"`

	// Console options
	MaxRows int `json:"max_rows" mapstructure:"max_rows"`

	// CSV options
	CSVDelimiter rune   `json:"csv_delimiter" mapstructure:"csv_delimiter"`
	CSVHeaders   bool   `json:"csv_headers" mapstructure:"csv_headers"`
	CSVEncoding  string `json:"csv_encoding" mapstructure:"csv_encoding"`
	// CSVUnitColumn prefixes each CSV record with the unit it was extracted for.
	CSVUnitColumn bool `json:"csv_unit_column" mapstructure:"csv_unit_column"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:            FormatConsole,
		IncludeSummary:    true,
		IncludeRecipients: true,
		MaxRows:           50,
		CSVDelimiter:      ';',
		CSVHeaders:        true,
		CSVEncoding:       EncodingUTF8,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxRows < 0 {
		return fmt.Errorf("max rows cannot be negative, got %d", c.MaxRows)
	}

	if c.Format == FormatCSV {
		switch c.CSVDelimiter {
		case ',', ';', '\t', '|':
		default:
			return fmt.Errorf("unsupported CSV delimiter %q", c.CSVDelimiter)
		}
		switch c.CSVEncoding {
		case "", EncodingUTF8, EncodingWindows1252:
		default:
			return fmt.Errorf("unsupported CSV encoding %q", c.CSVEncoding)
		}
	}

	return nil
}

// ReportGenerator generates extraction reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{config: config}, nil
}

// GenerateReport writes results, one per extracted unit, to writer.
func (rg *ReportGenerator) GenerateReport(results []*extractor.Result, writer io.Writer) error {
	if results == nil {
		return fmt.Errorf("extraction results cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(results, writer)
	case FormatJSON:
		return rg.generateJSONReport(results, writer)
	case FormatCSV:
		return rg.generateCSVReport(results, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) generateConsoleReport(results []*extractor.Result, writer io.Writer) error {
	for i, res := range results {
		if i > 0 {
			fmt.Fprintf(writer, "\n")
		}
		s := res.Summary

		fmt.Fprintf(writer, "EXTRACTION REPORT\n")
		fmt.Fprintf(writer, "Unit:  %s\n", s.Unit)
		fmt.Fprintf(writer, "Month: %s\n", s.Month)
		fmt.Fprintf(writer, "Rows:  %d\n\n", s.RowCount)

		if s.RowCount > 0 {
			fmt.Fprintf(writer, "=== ROWS ===\n")
			if err := rg.printRows(res, writer); err != nil {
				return err
			}
			fmt.Fprintf(writer, "\n")
		}

		if rg.config.IncludeSummary {
			fmt.Fprintf(writer, "=== TOTALS ===\n")
			rg.printTotals(s, writer)
			rg.printNotes(s, writer)
		}

		if rg.config.IncludeRecipients && len(res.Recipients) > 0 {
			fmt.Fprintf(writer, "\n=== RECIPIENTS ===\n")
			for _, r := range res.Recipients {
				fmt.Fprintf(writer, "  %s\n", r)
			}
		}
	}
	return nil
}

func (rg *ReportGenerator) printRows(res *extractor.Result, writer io.Writer) error {
	tw := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	cols := res.Summary.DisplayColumns
	fmt.Fprintln(tw, strings.Join(cols, "\t"))

	for i, row := range res.Rows {
		if rg.config.MaxRows > 0 && i >= rg.config.MaxRows {
			fmt.Fprintf(tw, "... and %d more\n", len(res.Rows)-i)
			break
		}
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = row[c]
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func (rg *ReportGenerator) printTotals(s extractor.Summary, writer io.Writer) {
	cat, err := catalog.Default()
	if err != nil {
		return
	}
	for _, f := range cat.SummedFields() {
		if d, ok := s.Sums[f.ID]; ok {
			fmt.Fprintf(writer, "%-40s %s\n", f.Name+":", values.FormatBRL(d))
		}
	}
	if d, ok := s.Sums[catalog.GeneralDiscounts]; ok {
		fmt.Fprintf(writer, "%-40s %s\n", "Descontos gerais:", values.FormatBRL(d))
	}
}

func (rg *ReportGenerator) printNotes(s extractor.Summary, writer io.Writer) {
	var rescued []string
	for id, src := range s.RescueProvenance {
		if src != "" {
			rescued = append(rescued, fmt.Sprintf("%s <- %s", id, src))
		}
	}
	sort.Strings(rescued)
	if len(rescued) > 0 {
		fmt.Fprintf(writer, "\nRescued columns:\n")
		for _, r := range rescued {
			fmt.Fprintf(writer, "  %s\n", r)
		}
	}

	if len(s.MissingColumns) > 0 {
		fmt.Fprintf(writer, "\nMissing columns:\n")
		for _, m := range s.MissingColumns {
			if hint, ok := s.Suggestions[m]; ok {
				fmt.Fprintf(writer, "  %s (did you mean %q?)\n", m, hint)
			} else {
				fmt.Fprintf(writer, "  %s\n", m)
			}
		}
	}

	if s.FallbackUsed {
		fmt.Fprintf(writer, "\nNOTE: no requested column was found, default columns shown\n")
	}

	var pending []string
	for col, n := range s.PendingCounts {
		pending = append(pending, fmt.Sprintf("%s: %d", col, n))
	}
	sort.Strings(pending)
	if len(pending) > 0 {
		fmt.Fprintf(writer, "\nPending cells:\n")
		for _, p := range pending {
			fmt.Fprintf(writer, "  %s\n", p)
		}
	}
}

func (rg *ReportGenerator) generateJSONReport(results []*extractor.Result, writer io.Writer) error {
	output := make([]map[string]interface{}, 0, len(results))
	for _, res := range results {
		entry := map[string]interface{}{
			"unit":  res.Summary.Unit,
			"month": res.Summary.Month,
			"rows":  res.Rows,
		}
		if rg.config.IncludeRecipients {
			entry["recipients"] = res.Recipients
		}
		if rg.config.IncludeSummary {
			entry["summary"] = res.Summary
		}
		output = append(output, entry)
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(output)
}

// generateCSVReport writes one header row for the union of display columns,
// in first-seen order, then every row of every result.
func (rg *ReportGenerator) generateCSVReport(results []*extractor.Result, writer io.Writer) error {
	if rg.config.CSVEncoding == EncodingWindows1252 {
		tw := transform.NewWriter(writer, charmap.Windows1252.NewEncoder())
		defer tw.Close()
		writer = tw
	}

	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	var cols []string
	seen := make(map[string]bool)
	for _, res := range results {
		for _, c := range res.Summary.DisplayColumns {
			if !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}

	if rg.config.CSVHeaders {
		headers := cols
		if rg.config.CSVUnitColumn {
			headers = append([]string{"Unidade consultada"}, cols...)
		}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, res := range results {
		for _, row := range res.Rows {
			record := make([]string, 0, len(cols)+1)
			if rg.config.CSVUnitColumn {
				record = append(record, res.Summary.Unit)
			}
			for _, c := range cols {
				record = append(record, row[c])
			}
			if err := csvWriter.Write(record); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
