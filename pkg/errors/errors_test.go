package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name       string
		category   ErrorCategory
		code       ErrorCode
		message    string
		cause      error
		expectCode int
		expectText string
	}{
		{
			name:       "file error",
			category:   CategoryFile,
			code:       CodeFileNotFound,
			message:    "file not found",
			cause:      errors.New("no such file"),
			expectCode: 2,
			expectText: "file not found: no such file",
		},
		{
			name:       "parse error",
			category:   CategoryParse,
			code:       CodeSheetNotFound,
			message:    "sheet missing",
			expectCode: 3,
			expectText: "sheet missing",
		},
		{
			name:       "configuration error",
			category:   CategoryConfiguration,
			code:       CodeInvalidConfig,
			message:    "invalid config",
			cause:      errors.New("bad month_reference"),
			expectCode: 4,
			expectText: "invalid config: bad month_reference",
		},
		{
			name:       "catalog error",
			category:   CategoryCatalog,
			code:       CodeDuplicateField,
			message:    "duplicate field",
			expectCode: 5,
			expectText: "duplicate field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err *AppError
			if tt.cause != nil {
				err = Wrap(tt.cause, tt.category, tt.code, tt.message)
			} else {
				err = New(tt.category, tt.code, tt.message)
			}

			if err.Category != tt.category {
				t.Errorf("expected category %s, got %s", tt.category, err.Category)
			}
			if err.Code != tt.code {
				t.Errorf("expected code %s, got %s", tt.code, err.Code)
			}
			if err.GetExitCode() != tt.expectCode {
				t.Errorf("expected exit code %d, got %d", tt.expectCode, err.GetExitCode())
			}
			if err.Error() != tt.expectText {
				t.Errorf("expected error string %q, got %q", tt.expectText, err.Error())
			}
			if tt.cause != nil && err.Unwrap() != tt.cause {
				t.Errorf("expected to unwrap to %v, got %v", tt.cause, err.Unwrap())
			}
			if len(err.StackTrace) == 0 {
				t.Error("expected stack trace to be captured")
			}
		})
	}
}

func TestAppErrorWithContext(t *testing.T) {
	err := New(CategoryValidation, CodeInvalidMonth, "bad month").
		WithContext("unit", "Shopping Leste").
		WithContext("row", 4).
		WithSuggestion("use YYYY-MM")

	if err.Context["unit"] != "Shopping Leste" {
		t.Errorf("expected unit context, got %v", err.Context["unit"])
	}
	if err.Context["row"] != 4 {
		t.Errorf("expected row context 4, got %v", err.Context["row"])
	}

	expected := "bad month (suggestion: use YYYY-MM)"
	if err.Error() != expected {
		t.Errorf("expected error string '%s', got '%s'", expected, err.Error())
	}
}

func TestSpecificErrorConstructors(t *testing.T) {
	t.Run("FileError", func(t *testing.T) {
		cause := errors.New("permission denied")
		err := FileError(CodeFilePermission, "/data/planilha.xlsx", cause)

		if err.Category != CategoryFile {
			t.Errorf("expected file category, got %s", err.Category)
		}
		if err.Context["file_path"] != "/data/planilha.xlsx" {
			t.Errorf("expected file_path context, got %v", err.Context["file_path"])
		}
		if err.Suggestion == "" {
			t.Error("expected suggestion to be set")
		}
		if err.Cause != cause {
			t.Errorf("expected cause to be %v, got %v", cause, err.Cause)
		}
	})

	t.Run("ParseError with sheet", func(t *testing.T) {
		err := ParseError(CodeSheetNotFound, "planilha.xlsx", "Faturamento SP", nil)

		if err.Category != CategoryParse {
			t.Errorf("expected parse category, got %s", err.Category)
		}
		if err.Context["sheet"] != "Faturamento SP" {
			t.Errorf("expected sheet context, got %v", err.Context["sheet"])
		}
		if !strings.Contains(err.Message, "Faturamento SP") {
			t.Errorf("expected message to name the sheet, got %s", err.Message)
		}
	})

	t.Run("ParseError without sheet", func(t *testing.T) {
		err := ParseError(CodeEmptyTable, "dados.csv", "", nil)
		if _, ok := err.Context["sheet"]; ok {
			t.Error("expected no sheet context for csv source")
		}
	})

	t.Run("ValidationError", func(t *testing.T) {
		err := ValidationError(CodeInvalidMonth, "ym", "2025-13", nil)

		if err.Category != CategoryValidation {
			t.Errorf("expected validation category, got %s", err.Category)
		}
		if err.Context["value"] != "2025-13" {
			t.Errorf("expected value context, got %v", err.Context["value"])
		}
	})

	t.Run("CatalogError", func(t *testing.T) {
		err := CatalogError(CodeDuplicateField, "sla_month_discount", nil)
		if err.GetExitCode() != 5 {
			t.Errorf("expected exit code 5, got %d", err.GetExitCode())
		}
	})
}

func TestErrorSummary(t *testing.T) {
	errs := []*AppError{
		New(CategoryFile, CodeFileNotFound, "error 1"),
		New(CategoryFile, CodeFilePermission, "error 2"),
		New(CategoryParse, CodeInvalidFormat, "error 3"),
		New(CategoryConfiguration, CodeInvalidConfig, "error 4"),
	}

	summary := NewErrorSummary(errs)

	if summary.Total != 4 {
		t.Errorf("expected total 4, got %d", summary.Total)
	}
	if summary.ByCategory[CategoryFile] != 2 {
		t.Errorf("expected 2 file errors, got %d", summary.ByCategory[CategoryFile])
	}
	if !summary.HasCategory(CategoryParse) {
		t.Error("expected to have parse category")
	}
	if summary.HasCategory(CategoryCatalog) {
		t.Error("expected not to have catalog category")
	}
	if summary.GetExitCode() != 4 {
		t.Errorf("expected exit code 4, got %d", summary.GetExitCode())
	}
	if !strings.HasPrefix(summary.Error(), "4 errors occurred") {
		t.Errorf("unexpected summary text %q", summary.Error())
	}
}

func TestEmptyErrorSummary(t *testing.T) {
	summary := NewErrorSummary(nil)

	if summary.Error() != "no errors" {
		t.Errorf("expected 'no errors', got '%s'", summary.Error())
	}
	if summary.GetExitCode() != 0 {
		t.Errorf("expected exit code 0, got %d", summary.GetExitCode())
	}
}

func TestAsAppError(t *testing.T) {
	appErr := New(CategoryFile, CodeFileNotFound, "test")
	wrapped := fmt.Errorf("loading: %w", appErr)

	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if IsAppError(errors.New("generic")) {
		t.Error("expected IsAppError to return false for generic error")
	}
	if extracted, ok := AsAppError(wrapped); !ok || extracted != appErr {
		t.Error("expected AsAppError to find AppError in chain")
	}
	if _, ok := AsAppError(nil); ok {
		t.Error("expected AsAppError to return false for nil")
	}
}

func TestWrapIfNeeded(t *testing.T) {
	appErr := New(CategoryFile, CodeFileNotFound, "test")
	genericErr := errors.New("generic error")

	if WrapIfNeeded(appErr, CategoryParse, CodeInvalidFormat, "wrapped") != appErr {
		t.Error("expected WrapIfNeeded to return original AppError")
	}

	result := WrapIfNeeded(genericErr, CategoryParse, CodeInvalidFormat, "wrapped")
	if result.Cause != genericErr || result.Category != CategoryParse {
		t.Error("expected WrapIfNeeded to wrap generic error")
	}

	if WrapIfNeeded(nil, CategoryParse, CodeInvalidFormat, "wrapped") != nil {
		t.Error("expected WrapIfNeeded to return nil for nil input")
	}
}
