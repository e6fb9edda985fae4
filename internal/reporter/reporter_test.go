package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/extractor"
	"github.com/shopspring/decimal"
)

func sampleResults() []*extractor.Result {
	return []*extractor.Result{
		{
			Rows: []map[string]string{
				{"Unidade": "São Paulo", "Valor Mensal Final": "R$ 100,00"},
				{"Unidade": "São Paulo", "Valor Mensal Final": "R$ -50,00"},
			},
			Recipients: []string{"ana@x.com"},
			Summary: extractor.Summary{
				Unit:           "São Paulo",
				Month:          "2025-08",
				RowCount:       2,
				DisplayColumns: []string{"Unidade", "Valor Mensal Final"},
				MissingColumns: []string{"Coluna Inexistente"},
				Suggestions:    map[string]string{"Coluna Inexistente": "Unidade"},
				Sums: map[string]decimal.Decimal{
					catalog.FieldFinalMonthlyValue: decimal.RequireFromString("50"),
					catalog.GeneralDiscounts:       decimal.RequireFromString("1234.5"),
				},
				RescueProvenance: map[string]string{
					catalog.FieldSLARetroactive: "Retroativo SLA (desconto)",
					catalog.FieldInstallment:    "",
				},
				PendingCounts: map[string]int{"Valor Mensal Final": 1},
			},
		},
		{
			Rows: []map[string]string{
				{"Unidade": "Rio", "Desconto SLA Mês": "R$ 1,00"},
			},
			Summary: extractor.Summary{
				Unit:           "Rio",
				Month:          "2025-08",
				RowCount:       1,
				DisplayColumns: []string{"Unidade", "Desconto SLA Mês"},
			},
		},
	}
}

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{"default config", nil, false},
		{"valid config", DefaultReportConfig(), false},
		{"invalid format", &ReportConfig{Format: "xml"}, true},
		{"negative max rows", &ReportConfig{Format: FormatConsole, MaxRows: -1}, true},
		{"bad delimiter", &ReportConfig{Format: FormatCSV, CSVDelimiter: 'x'}, true},
		{"bad encoding", &ReportConfig{Format: FormatCSV, CSVDelimiter: ';', CSVEncoding: "latin9"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Errorf("expected generator but got nil")
			}
		})
	}
}

func TestConsoleReport(t *testing.T) {
	generator, err := NewReportGenerator(DefaultReportConfig())
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := buf.String()

	expected := []string{
		"Unit:  São Paulo",
		"=== ROWS ===",
		"R$ -50,00",
		"R$ 50,00",
		"R$ 1.234,50",
		"sla_retroactive_discount <- Retroativo SLA (desconto)",
		`Coluna Inexistente (did you mean "Unidade"?)`,
		"Valor Mensal Final: 1",
		"ana@x.com",
		"Unit:  Rio",
	}
	for _, want := range expected {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "installment <-") {
		t.Error("extras without provenance must not be listed")
	}
}

func TestConsoleReportMaxRows(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{Format: FormatConsole, MaxRows: 1})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults()[:1], &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "... and 1 more") {
		t.Errorf("expected truncation notice, got\n%s", buf.String())
	}
}

func TestJSONReport(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{Format: FormatJSON, IncludeSummary: true})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded []struct {
		Unit       string              `json:"unit"`
		Rows       []map[string]string `json:"rows"`
		Recipients []string            `json:"recipients"`
		Summary    struct {
			RowCount         int               `json:"row_count"`
			Sums             map[string]string `json:"sums"`
			RescueProvenance map[string]string `json:"rescue_provenance"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}

	if len(decoded) != 2 || decoded[0].Unit != "São Paulo" {
		t.Fatalf("unexpected results %+v", decoded)
	}
	if decoded[0].Summary.Sums[catalog.FieldFinalMonthlyValue] != "50" {
		t.Errorf("expected decimal sum encoded as string, got %v", decoded[0].Summary.Sums)
	}
	if decoded[0].Recipients != nil {
		t.Error("recipients must be omitted when not requested")
	}
}

func TestCSVReport(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{
		Format:        FormatCSV,
		CSVDelimiter:  ';',
		CSVHeaders:    true,
		CSVUnitColumn: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults(), &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	r := csv.NewReader(&buf)
	r.Comma = ';'
	records, err := r.ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}

	expected := [][]string{
		{"Unidade consultada", "Unidade", "Valor Mensal Final", "Desconto SLA Mês"},
		{"São Paulo", "São Paulo", "R$ 100,00", ""},
		{"São Paulo", "São Paulo", "R$ -50,00", ""},
		{"Rio", "Rio", "", "R$ 1,00"},
	}
	if !reflect.DeepEqual(records, expected) {
		t.Errorf("expected %v, got %v", expected, records)
	}
}

func TestCSVReportWindows1252(t *testing.T) {
	generator, err := NewReportGenerator(&ReportConfig{
		Format:       FormatCSV,
		CSVDelimiter: ';',
		CSVEncoding:  EncodingWindows1252,
	})
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReport(sampleResults()[:1], &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Contains(buf.Bytes(), []byte("S\xe3o Paulo")) {
		t.Errorf("expected Windows-1252 output, got %q", buf.String())
	}
}

type failingWriter struct {
	calls int
}

func (w *failingWriter) Write(p []byte) (int, error) {
	w.calls++
	if w.calls == 1 {
		return 0, errors.New("broken pipe")
	}
	return len(p), nil
}

func TestSafeReportGeneratorFallsBackToConsole(t *testing.T) {
	srg, err := NewSafeReportGenerator(&ReportConfig{Format: FormatJSON}, nil)
	if err != nil {
		t.Fatal(err)
	}

	w := &failingWriter{}
	if err := srg.GenerateReportSafely(sampleResults(), w); err != nil {
		t.Errorf("expected fallback to succeed, got %v", err)
	}
	if w.calls < 2 {
		t.Errorf("expected fallback output to be written, got %d writes", w.calls)
	}
}

func TestSafeReportGeneratorRejectsBadConfig(t *testing.T) {
	if _, err := NewSafeReportGenerator(&ReportConfig{Format: "pdf"}, nil); err == nil {
		t.Error("expected configuration error")
	}
}
