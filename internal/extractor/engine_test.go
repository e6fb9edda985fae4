package extractor

import (
	"encoding/json"
	"reflect"
	"sync"
	"testing"

	"github.com/kaikelopes301-code/portal-performance/internal/catalog"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"
	"github.com/shopspring/decimal"
)

const (
	retroCol = "Desconto SLA Retroativo"
	vmfCol   = "Valor Mensal Final"
	nfCol    = "Mês de emissão da NF"
)

func billingSheet() *table.Table {
	return table.New(
		[]string{
			"Unidade", "Mês de emissão da NF", "E-mail", "Desconto SLA Mês",
			"Desc. SLA Ret.", "Retroativo SLA (desconto)", "Valor Mensal Final",
		},
		[][]any{
			{"São Paulo", "2025-08", "Ana <ana@x.com>; bob@y.com.br", "R$ 100,00", "", "150,00", "R$ 100,00"},
			{"sao paulo", "31/08/2025", "ANA@x.com", "(R$ 50,00)", "", "", "(R$ 50,00)"},
			{"SÃO PAULO", "Agosto/2025", "", "Informação pendente", "", "", "Informação pendente"},
			{"Rio de Janeiro", "2025-08", "rio@x.com", "R$ 10,00", "", "99,00", "R$ 10,00"},
			{"São Paulo", "2025-07", "old@x.com", "R$ 1,00", "", "1,00", "R$ 1,00"},
		},
	)
}

func newEngine(t *testing.T, config *Config) *Engine {
	t.Helper()
	e, err := NewEngine(config, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func TestResolveAndExtract(t *testing.T) {
	e := newEngine(t, nil)
	sheet := billingSheet()

	res, err := e.ResolveAndExtract(sheet, "São Paulo", "2025-08", []string{"Unidade", retroCol, "Coluna Inexistente"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := res.Summary
	if s.RowCount != 3 || len(res.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d (%d)", s.RowCount, len(res.Rows))
	}

	wantColumns := []string{"Unidade", retroCol, vmfCol, "Mês referência para faturamento", nfCol}
	if !reflect.DeepEqual(s.DisplayColumns, wantColumns) {
		t.Errorf("expected columns %v, got %v", wantColumns, s.DisplayColumns)
	}
	if !reflect.DeepEqual(s.MissingColumns, []string{"Coluna Inexistente"}) {
		t.Errorf("expected missing column, got %v", s.MissingColumns)
	}
	if s.FallbackUsed {
		t.Error("fallback must not be used when some columns resolve")
	}

	if got := s.RescueProvenance[catalog.FieldSLARetroactive]; got != "Retroativo SLA (desconto)" {
		t.Errorf("unexpected rescue provenance %q", got)
	}
	if got := s.RescueProvenance[catalog.FieldEquipmentDiscount]; got != "" {
		t.Errorf("expected no provenance for equipment discount, got %q", got)
	}

	rows := []struct {
		retro, vmf, nf, billing string
	}{
		{"150,00", "R$ 100,00", "2025/08", "2025/08"},
		{"", "R$ -50,00", "2025/08", "2025/08"},
		{"", "Preenchimento pendente", "2025/08", "2025/08"},
	}
	for i, want := range rows {
		got := res.Rows[i]
		if got[retroCol] != want.retro {
			t.Errorf("row %d: expected retro %q, got %q", i, want.retro, got[retroCol])
		}
		if got[vmfCol] != want.vmf {
			t.Errorf("row %d: expected final value %q, got %q", i, want.vmf, got[vmfCol])
		}
		if got[nfCol] != want.nf {
			t.Errorf("row %d: expected NF month %q, got %q", i, want.nf, got[nfCol])
		}
		if got["Mês referência para faturamento"] != want.billing {
			t.Errorf("row %d: expected billing month %q, got %q", i, want.billing, got["Mês referência para faturamento"])
		}
		if len(got) != len(wantColumns) {
			t.Errorf("row %d: expected %d cells, got %v", i, len(wantColumns), got)
		}
	}

	sums := []struct {
		key  string
		want string
	}{
		{catalog.FieldFinalMonthlyValue, "50.00"},
		{catalog.FieldSLAMonth, "50.00"},
		{catalog.FieldSLARetroactive, "150"},
		{catalog.GeneralDiscounts, "200"},
	}
	for _, tt := range sums {
		if got := s.Sums[tt.key]; !got.Equal(decimal.RequireFromString(tt.want)) {
			t.Errorf("sum %s: expected %s, got %s", tt.key, tt.want, got)
		}
	}

	if !reflect.DeepEqual(res.Recipients, []string{"ana@x.com", "bob@y.com.br"}) {
		t.Errorf("unexpected recipients %v", res.Recipients)
	}
	if s.PendingCounts[vmfCol] != 1 {
		t.Errorf("expected one pending final value, got %v", s.PendingCounts)
	}
	if _, ok := s.Suggestions["Coluna Inexistente"]; ok && s.Suggestions["Coluna Inexistente"] == "" {
		t.Error("suggestions must not hold empty names")
	}

	if sheet.Headers[4] != "Desc. SLA Ret." || sheet.Rows[0]["Desc. SLA Ret."] != "" {
		t.Error("input table must not be modified")
	}
}

func TestResolveAndExtractUnitAccentInsensitive(t *testing.T) {
	e := newEngine(t, nil)

	a, err := e.ResolveAndExtract(billingSheet(), "São Paulo", "2025-08", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, err := e.ResolveAndExtract(billingSheet(), "sao paulo", "2025-08", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !reflect.DeepEqual(a.Rows, b.Rows) {
		t.Errorf("rows differ:\n%v\n%v", a.Rows, b.Rows)
	}
	if !reflect.DeepEqual(a.Summary.DisplayColumns, b.Summary.DisplayColumns) {
		t.Errorf("display columns differ")
	}
	if len(a.Summary.DisplayColumns) != 13 {
		t.Errorf("expected the 13 default columns, got %v", a.Summary.DisplayColumns)
	}
}

func TestResolveAndExtractEmptyResults(t *testing.T) {
	noMonth := table.New([]string{"Unidade", "Valor Mensal Final"}, [][]any{{"São Paulo", "1"}})

	tests := []struct {
		name  string
		sheet *table.Table
		unit  string
		month string
	}{
		{"required column missing", noMonth, "São Paulo", "2025-08"},
		{"invalid month", billingSheet(), "São Paulo", "sem mês"},
		{"unknown unit", billingSheet(), "Curitiba", "2025-08"},
		{"no rows for month", billingSheet(), "São Paulo", "2024-01"},
	}

	e := newEngine(t, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := e.ResolveAndExtract(tt.sheet, tt.unit, tt.month, []string{"Unidade"})
			if err != nil {
				t.Fatalf("absent data must not be an error, got %v", err)
			}
			if res.Summary.RowCount != 0 || len(res.Rows) != 0 {
				t.Errorf("expected no rows, got %v", res.Rows)
			}
			if res.Rows == nil || res.Recipients == nil {
				t.Error("empty results must use empty slices")
			}
			if !res.Summary.Sums[catalog.FieldFinalMonthlyValue].IsZero() {
				t.Errorf("expected zero sum, got %s", res.Summary.Sums[catalog.FieldFinalMonthlyValue])
			}
			if len(res.Summary.RescueProvenance) != 9 {
				t.Errorf("expected provenance for every extra, got %v", res.Summary.RescueProvenance)
			}
		})
	}
}

func TestFormatExtras(t *testing.T) {
	e := newEngine(t, &Config{FormatExtras: true})

	res, err := e.ResolveAndExtract(billingSheet(), "São Paulo", "2025-08", []string{retroCol})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := res.Rows[0][retroCol]; got != "R$ 150,00" {
		t.Errorf("expected formatted extra, got %q", got)
	}
	if got := res.Rows[1][retroCol]; got != "" {
		t.Errorf("expected blank extra to stay blank, got %q", got)
	}
}

func TestUnits(t *testing.T) {
	e := newEngine(t, nil)

	units := e.Units(billingSheet(), "2025-08")
	if len(units) != 2 {
		t.Fatalf("expected 2 units, got %v", units)
	}
	if units[0].Key != "rio de janeiro" || units[1].Key != "sao paulo" || units[1].Rows != 3 {
		t.Errorf("unexpected units %v", units)
	}
}

func TestConfigValidate(t *testing.T) {
	_, err := NewEngine(&Config{CacheSize: -1}, nil)
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Category != errors.CategoryConfiguration {
		t.Errorf("expected configuration error, got %v", err)
	}

	if _, err := NewEngine(&Config{CacheSize: 0}, nil); err != nil {
		t.Errorf("expected caching to be optional, got %v", err)
	}
}

func TestResolveAndExtractConcurrent(t *testing.T) {
	// A tiny cache keeps evicting while goroutines share it.
	e := newEngine(t, &Config{CacheSize: 2})
	sheet := billingSheet()
	requested := []string{"Unidade", retroCol, "Valor Mensal Finl"}

	encode := func(unit string) ([]byte, error) {
		res, err := e.ResolveAndExtract(sheet, unit, "2025-08", requested)
		if err != nil {
			return nil, err
		}
		return json.Marshal(res)
	}

	want := make(map[string][]byte)
	for _, unit := range []string{"São Paulo", "Rio de Janeiro"} {
		b, err := encode(unit)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want[unit] = b
	}
	headersBefore := append([]string{}, sheet.Headers...)

	var wg sync.WaitGroup
	errs := make(chan string, 64)
	for i := 0; i < 32; i++ {
		unit := "São Paulo"
		if i%2 == 1 {
			unit = "Rio de Janeiro"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := encode(unit)
			if err != nil {
				errs <- err.Error()
				return
			}
			if string(got) != string(want[unit]) {
				errs <- unit + ": result differs from the sequential run"
			}
		}()
	}
	wg.Wait()
	close(errs)

	for msg := range errs {
		t.Error(msg)
	}
	if !reflect.DeepEqual(sheet.Headers, headersBefore) {
		t.Errorf("input table modified: %v", sheet.Headers)
	}
}
