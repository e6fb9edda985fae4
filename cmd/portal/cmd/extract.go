package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kaikelopes301-code/portal-performance/cmd/portal/config"
	"github.com/kaikelopes301-code/portal-performance/internal/extractor"
	"github.com/kaikelopes301-code/portal-performance/internal/reporter"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/internal/values"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"
	"github.com/kaikelopes301-code/portal-performance/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the extract command
var (
	inputFile     string
	region        string
	sheet         string
	units         []string
	allUnits      bool
	month         string
	forceMonth    string
	columns       []string
	outputFormat  string
	outputFile    string
	formatExtras  bool
	overridesPath string
	cacheSize     int
	maxRows       int
	csvEncoding   string
)

// now is replaced in tests.
var now = time.Now

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract [file]",
	Short: "Extract the billing rows of one or more units",
	Long: `Extract loads a billing sheet (.xlsx, .xls or .csv), resolves its headers
against the canonical field catalog and prints the rows of each requested unit
for one NF issuance month, with totals, recipients and notes.

The month is taken, in order, from --force-month, the overrides file, --month
and finally defaults to the previous month.

Examples:
  # One unit, one month
  portal extract faturamento.xlsx --region RJ --unit "Shopping Barra" --month 2025-08

  # Every unit of a region sheet, as CSV for Excel
  portal extract faturamento.xlsx --region SP1 --all-units \
    --output-format csv --csv-encoding windows-1252 -o sp1.csv

  # Choose the columns to show
  portal extract faturamento.xlsx --region RJ --unit "Shopping Barra" \
    --columns "Unidade,Desconto SLA Mês,Valor Mensal Final"

  # Per-unit columns and months from an overrides file
  portal extract faturamento.xlsx --region RJ --all-units --overrides overrides.json`,
	Args:    cobra.MaximumNArgs(1),
	PreRunE: validateExtractFlags,
	RunE:    runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	// Input flags
	extractCmd.Flags().StringVar(&inputFile, "file", "", "billing sheet to read (or pass it as the argument)")
	extractCmd.Flags().StringVarP(&region, "region", "r", "", "region whose 'Faturamento <REGION>' sheet is read")
	extractCmd.Flags().StringVar(&sheet, "sheet", "", "exact sheet name, overrides --region")

	// Selection flags
	extractCmd.Flags().StringSliceVarP(&units, "unit", "u", []string{}, "unit to extract (repeatable)")
	extractCmd.Flags().BoolVar(&allUnits, "all-units", false, "extract every unit of the month")
	extractCmd.Flags().StringVarP(&month, "month", "m", "", "NF issuance month (YYYY-MM)")
	extractCmd.Flags().StringVar(&forceMonth, "force-month", "", "month used for every unit, ignoring overrides (YYYY-MM)")
	extractCmd.Flags().StringSliceVarP(&columns, "columns", "c", []string{}, "columns to display, in order")
	extractCmd.Flags().StringVar(&overridesPath, "overrides", "", "per-unit overrides file (JSON or YAML)")

	// Output flags
	extractCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	extractCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	extractCmd.Flags().BoolVar(&formatExtras, "format-extras", false, "render money extras as R$ and the extension fee as a percentage")
	extractCmd.Flags().IntVar(&maxRows, "max-rows", 50, "rows printed per unit on the console (0 for all)")
	extractCmd.Flags().StringVar(&csvEncoding, "csv-encoding", reporter.EncodingUTF8, "CSV encoding: utf-8, windows-1252")

	// Engine flags
	extractCmd.Flags().IntVar(&cacheSize, "cache-size", extractor.DefaultConfig().CacheSize, "normalization cache entries (0 disables)")

	// Bind flags to viper
	for _, name := range []string{
		"file", "region", "sheet", "unit", "all-units", "month", "force-month", "columns",
		"overrides", "output-format", "output-file", "format-extras", "max-rows",
		"csv-encoding", "cache-size",
	} {
		viper.BindPFlag(name, extractCmd.Flags().Lookup(name))
	}
}

func validateExtractFlags(cmd *cobra.Command, args []string) error {
	// Get values from viper (allows override from config file)
	inputFile = viper.GetString("file")
	region = viper.GetString("region")
	sheet = viper.GetString("sheet")
	units = viper.GetStringSlice("unit")
	allUnits = viper.GetBool("all-units")
	month = viper.GetString("month")
	forceMonth = viper.GetString("force-month")
	columns = viper.GetStringSlice("columns")
	overridesPath = viper.GetString("overrides")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	formatExtras = viper.GetBool("format-extras")
	maxRows = viper.GetInt("max-rows")
	csvEncoding = viper.GetString("csv-encoding")
	cacheSize = viper.GetInt("cache-size")

	if len(args) == 1 {
		inputFile = args[0]
	}
	if inputFile == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, "file", nil, nil).
			WithSuggestion("pass the billing sheet as the argument or with --file")
	}
	if err := validateFileExists(inputFile, "billing sheet"); err != nil {
		return err
	}
	if overridesPath != "" {
		if err := validateFileExists(overridesPath, "overrides file"); err != nil {
			return err
		}
	}

	units = cleanList(units)
	columns = cleanList(columns)
	if len(units) == 0 && !allUnits {
		return errors.ConfigurationError(errors.CodeMissingConfig, "unit", nil, nil).
			WithSuggestion("name a unit with --unit or use --all-units")
	}
	if len(units) > 0 && allUnits {
		return errors.ConfigurationError(errors.CodeConfigConflict, "all-units", units, nil).
			WithSuggestion("use either --unit or --all-units")
	}

	if err := validateMonthFlag("month", month); err != nil {
		return err
	}
	if err := validateMonthFlag("force-month", forceMonth); err != nil {
		return err
	}

	if !reporter.OutputFormat(outputFormat).IsValid() {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", outputFormat, nil).
			WithSuggestion("valid formats: console, json, csv")
	}
	if maxRows < 0 {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "max-rows", maxRows, nil)
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return errors.FileError(errors.CodeFileNotFound, dir, err).
					WithSuggestion("create the output directory first")
			}
		}
	}

	return nil
}

func validateMonthFlag(name, value string) error {
	if value == "" {
		return nil
	}
	if _, ok := values.ParseYearMonth(value); !ok {
		return errors.ValidationError(errors.CodeInvalidMonth, name, value, nil)
	}
	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return errors.ConfigurationError(errors.CodeMissingConfig, description, nil, nil)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, filePath, err)
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}

	if info.IsDir() {
		return errors.FileError(errors.CodeUnsupportedFormat, filePath, nil).
			WithSuggestion(fmt.Sprintf("%s is a directory, expected a file", description))
	}

	// Check if file is readable
	file, err := os.Open(filePath)
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, filePath, err)
	}
	file.Close()

	return nil
}

func cleanList(items []string) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func runExtract(cmd *cobra.Command, args []string) error {
	log := logger.GetGlobalLogger().WithComponent("cli")
	log.WithFields(logger.Fields{
		"file":          inputFile,
		"region":        region,
		"sheet":         sheet,
		"units":         units,
		"all_units":     allUnits,
		"month":         month,
		"output_format": outputFormat,
	}).Debug("Starting extraction")

	overrides, err := config.LoadOverrides(overridesPath)
	if err != nil {
		return err
	}

	var t *table.Table
	loader := table.NewLoader(&table.LoadConfig{Sheet: sheet, Region: region})
	err = logger.TimedOperation("load", log, func() error {
		var loadErr error
		t, loadErr = loader.Load(inputFile)
		return loadErr
	})
	if err != nil {
		return err
	}

	engine, err := extractor.NewEngine(&extractor.Config{
		CacheSize:    cacheSize,
		FormatExtras: formatExtras,
	}, nil)
	if err != nil {
		return err
	}

	today := now()
	targets := units
	if allUnits {
		res, err := overrides.Resolve(region, "", month, forceMonth, today)
		if err != nil {
			return err
		}
		for _, u := range engine.Units(t, res.Month) {
			targets = append(targets, u.Name)
		}
		if len(targets) == 0 {
			log.WithField("month", res.Month).Warn("No units found for month")
		}
	}

	results, err := extractUnits(engine, t, targets, overrides, today, log)
	if err != nil {
		return err
	}

	return writeReport(results, cmd.OutOrStdout(), log)
}

// extractUnits runs one extraction per unit. A unit whose overrides cannot be
// resolved is skipped; a catalog failure aborts the batch.
func extractUnits(engine *extractor.Engine, t *table.Table, targets []string, overrides *config.Overrides, today time.Time, log logger.Logger) ([]*extractor.Result, error) {
	batch := logger.NewBatchTracker("extract", len(targets), log)
	results := make([]*extractor.Result, 0, len(targets))
	var failures []*errors.AppError

	for _, unit := range targets {
		resolved, err := overrides.Resolve(region, unit, month, forceMonth, today)
		if err != nil {
			batch.Done(unit, err)
			failures = append(failures, errors.WrapIfNeeded(err, errors.CategoryConfiguration, errors.CodeInvalidConfig, "cannot resolve overrides for "+unit))
			continue
		}

		requested := columns
		if len(requested) == 0 {
			requested = resolved.VisibleColumns
		}

		res, err := engine.ResolveAndExtract(t, unit, resolved.Month, requested)
		if err != nil {
			batch.Done(unit, err)
			batch.Complete()
			return nil, err
		}
		if res.Summary.RowCount == 0 {
			log.WithFields(logger.Fields{
				"unit":         unit,
				"month":        resolved.Month,
				"month_source": resolved.MonthSource,
			}).Warn("No rows for unit")
		}
		batch.Done(unit, nil)
		results = append(results, res)
	}

	stats := batch.Complete()
	log.Debug(stats.String())

	if len(results) == 0 && len(failures) > 0 {
		return nil, errors.NewErrorSummary(failures)
	}
	return results, nil
}

func reportConfig() *reporter.ReportConfig {
	rc := reporter.DefaultReportConfig()
	rc.Format = reporter.OutputFormat(outputFormat)
	rc.MaxRows = maxRows
	rc.CSVEncoding = csvEncoding
	rc.CSVUnitColumn = len(units) != 1
	return rc
}

func writeReport(results []*extractor.Result, stdout io.Writer, log logger.Logger) error {
	generator, err := reporter.NewSafeReportGenerator(reportConfig(), log)
	if err != nil {
		return err
	}

	var output io.Writer = stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer file.Close()
		output = file
	}

	if err := generator.GenerateReportSafely(results, output); err != nil {
		return err
	}

	if outputFile != "" && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	}
	return nil
}
