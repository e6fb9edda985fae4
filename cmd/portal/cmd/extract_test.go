package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/kaikelopes301-code/portal-performance/pkg/errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const billingCSV = "Unidade;Mês de emissão da NF;E-mail;Valor Mensal Final\n" +
	"Shopping Leste;2025-08;leste@x.com;R$ 1.000,00\n" +
	"Shopping Leste;2025-08;;R$ 500,00\n" +
	"Shopping Norte;08/2025;norte@x.com;R$ 20,00\n" +
	"Shopping Leste;2025-07;old@x.com;R$ 1,00\n"

func writeSheet(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "faturamento.csv")
	if err := os.WriteFile(path, []byte(billingCSV), 0644); err != nil {
		t.Fatalf("failed to create sheet: %v", err)
	}
	return path
}

// resetExtractFlags restores flag globals to their defaults.
func resetExtractFlags(t *testing.T) {
	t.Helper()
	inputFile, region, sheet = "", "", ""
	units, allUnits = nil, false
	month, forceMonth = "", ""
	columns = nil
	outputFormat, outputFile = "console", ""
	formatExtras, overridesPath = false, ""
	cacheSize, maxRows, csvEncoding = 0, 50, "utf-8"
	now = func() time.Time { return time.Date(2025, time.September, 10, 0, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = time.Now })
}

func TestValidateFileExists(t *testing.T) {
	tmpDir := t.TempDir()
	validFile := filepath.Join(tmpDir, "valid.csv")
	if err := os.WriteFile(validFile, []byte("test"), 0644); err != nil {
		t.Fatalf("failed to create test file: %v", err)
	}

	tests := []struct {
		name     string
		filePath string
		code     errors.ErrorCode
	}{
		{"valid file", validFile, ""},
		{"empty path", "", errors.CodeMissingConfig},
		{"non-existent file", "/non/existent/file.csv", errors.CodeFileNotFound},
		{"directory instead of file", tmpDir, errors.CodeUnsupportedFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateFileExists(tt.filePath, "test file")
			if tt.code == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %v", err)
			}
			if appErr.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, appErr.Code)
			}
		})
	}
}

func TestValidateExtractFlags(t *testing.T) {
	sheetPath := writeSheet(t)

	valid := func() {
		viper.Set("file", sheetPath)
		viper.Set("unit", []string{"Shopping Leste"})
		viper.Set("output-format", "console")
		viper.Set("csv-encoding", "utf-8")
	}

	tests := []struct {
		name          string
		setupFlags    func()
		args          []string
		errorContains string
	}{
		{"valid flags", valid, nil, ""},
		{"file as argument", func() {
			valid()
			viper.Set("file", "")
		}, []string{sheetPath}, ""},
		{"missing file", func() {
			valid()
			viper.Set("file", "")
		}, nil, "missing required configuration: file"},
		{"no unit", func() {
			valid()
			viper.Set("unit", []string{" "})
		}, nil, "missing required configuration: unit"},
		{"unit and all units", func() {
			valid()
			viper.Set("all-units", true)
		}, nil, "configuration conflict"},
		{"invalid month", func() {
			valid()
			viper.Set("month", "someday")
		}, nil, "invalid month in 'month'"},
		{"invalid forced month", func() {
			valid()
			viper.Set("force-month", "2025-13")
		}, nil, "invalid month in 'force-month'"},
		{"invalid output format", func() {
			valid()
			viper.Set("output-format", "xml")
		}, nil, "invalid configuration for 'output-format'"},
		{"negative max rows", func() {
			valid()
			viper.Set("max-rows", -1)
		}, nil, "invalid configuration for 'max-rows'"},
		{"missing output directory", func() {
			valid()
			viper.Set("output-file", "/non/existent/dir/out.csv")
		}, nil, "file not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			viper.Reset()
			t.Cleanup(viper.Reset)
			tt.setupFlags()

			err := validateExtractFlags(&cobra.Command{}, tt.args)
			if tt.errorContains == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errorContains)
			}
			if !strings.Contains(err.Error(), tt.errorContains) {
				t.Errorf("expected error to contain %q, got: %v", tt.errorContains, err)
			}
		})
	}
}

func runJSON(t *testing.T) []map[string]interface{} {
	t.Helper()
	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)

	if err := runExtract(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var report []map[string]interface{}
	if err := json.Unmarshal(out.Bytes(), &report); err != nil {
		t.Fatalf("failed to decode report %q: %v", out.String(), err)
	}
	return report
}

func TestRunExtractSingleUnit(t *testing.T) {
	resetExtractFlags(t)
	inputFile = writeSheet(t)
	units = []string{"shopping leste"}
	month = "2025-08"
	outputFormat = "json"

	report := runJSON(t)
	if len(report) != 1 {
		t.Fatalf("expected one result, got %d", len(report))
	}
	if report[0]["month"] != "2025-08" {
		t.Errorf("expected month 2025-08, got %v", report[0]["month"])
	}
	rows, _ := report[0]["rows"].([]interface{})
	if len(rows) != 2 {
		t.Errorf("expected 2 rows, got %d", len(rows))
	}
	recipients, _ := report[0]["recipients"].([]interface{})
	if len(recipients) != 1 || recipients[0] != "leste@x.com" {
		t.Errorf("expected [leste@x.com], got %v", recipients)
	}
}

func TestRunExtractAllUnitsWithOverrides(t *testing.T) {
	resetExtractFlags(t)
	inputFile = writeSheet(t)
	allUnits = true
	outputFormat = "json"

	overrides := filepath.Join(t.TempDir(), "overrides.json")
	content := `{"units": {"Shopping Norte": {"visible_columns": ["Valor Mensal Final"]}}}`
	if err := os.WriteFile(overrides, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write overrides: %v", err)
	}
	overridesPath = overrides

	report := runJSON(t)
	if len(report) != 2 {
		t.Fatalf("expected two units for 2025-08, got %d", len(report))
	}
	if report[0]["unit"] != "Shopping Leste" || report[1]["unit"] != "Shopping Norte" {
		t.Errorf("expected units in key order, got %v and %v", report[0]["unit"], report[1]["unit"])
	}

	summary, _ := report[1]["summary"].(map[string]interface{})
	requested, _ := summary["requested_columns"].([]interface{})
	if len(requested) != 1 || requested[0] != "Valor Mensal Final" {
		t.Errorf("expected unit override columns, got %v", requested)
	}
}

func TestRunExtractWritesOutputFile(t *testing.T) {
	resetExtractFlags(t)
	inputFile = writeSheet(t)
	units = []string{"Shopping Norte"}
	month = "2025-08"
	outputFormat = "csv"
	outputFile = filepath.Join(t.TempDir(), "out.csv")

	cmd := &cobra.Command{}
	cmd.SetOut(&bytes.Buffer{})
	if err := runExtract(cmd, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if !strings.Contains(string(data), "Shopping Norte") {
		t.Errorf("expected unit row in CSV, got %q", data)
	}
}

func TestRunExtractBadOverrides(t *testing.T) {
	resetExtractFlags(t)
	inputFile = writeSheet(t)
	units = []string{"Shopping Leste"}

	overrides := filepath.Join(t.TempDir(), "overrides.json")
	if err := os.WriteFile(overrides, []byte(`{"defaults": {"month_reference": "later"}}`), 0644); err != nil {
		t.Fatalf("failed to write overrides: %v", err)
	}
	overridesPath = overrides

	err := runExtract(&cobra.Command{}, nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}
}

func TestUnitsCommand(t *testing.T) {
	unitsRegion, unitsSheet, unitsMonth = "", "", "2025-08"
	unitsAllMonths, unitsJSON = false, false
	t.Cleanup(func() { unitsMonth = "" })

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := runUnits(cmd, []string{writeSheet(t)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	text := out.String()
	for _, want := range []string{"Month: 2025-08", "UNIT", "Shopping Leste", "shopping norte"} {
		if !strings.Contains(text, want) {
			t.Errorf("expected output to contain %q\n%s", want, text)
		}
	}
}

func TestUnitsCommandAllMonthsJSON(t *testing.T) {
	unitsRegion, unitsSheet, unitsMonth = "", "", ""
	unitsAllMonths, unitsJSON = true, true
	t.Cleanup(func() { unitsAllMonths, unitsJSON = false, false })

	cmd := &cobra.Command{}
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := runUnits(cmd, []string{writeSheet(t)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var payload struct {
		Units []struct {
			Name string `json:"name"`
			Rows int    `json:"rows"`
		} `json:"units"`
	}
	if err := json.Unmarshal(out.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode %q: %v", out.String(), err)
	}
	if len(payload.Units) != 2 || payload.Units[0].Rows != 3 {
		t.Errorf("expected Shopping Leste with 3 rows across months, got %+v", payload.Units)
	}
}

func TestExtractCommandHelp(t *testing.T) {
	var helpOutput bytes.Buffer
	extractCmd.SetOut(&helpOutput)
	extractCmd.Help()

	helpText := helpOutput.String()
	for _, section := range []string{"Usage:", "Examples:", "Flags:", "--unit", "--month", "--overrides", "--output-format"} {
		if !strings.Contains(helpText, section) {
			t.Errorf("help text should contain '%s'", section)
		}
	}
}

func TestFlagBinding(t *testing.T) {
	for _, name := range []string{"file", "region", "sheet", "unit", "all-units", "month", "force-month", "columns", "overrides", "output-format", "output-file", "format-extras"} {
		if extractCmd.Flags().Lookup(name) == nil {
			t.Errorf("flag '%s' not found", name)
		}
	}
}
