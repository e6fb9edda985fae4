package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kaikelopes301-code/portal-performance/cmd/portal/config"
	"github.com/kaikelopes301-code/portal-performance/internal/extractor"
	"github.com/kaikelopes301-code/portal-performance/internal/filter"
	"github.com/kaikelopes301-code/portal-performance/internal/table"
	"github.com/kaikelopes301-code/portal-performance/pkg/errors"

	"github.com/spf13/cobra"
)

// Flags for the units and sheets commands. They are not bound to viper so
// they do not shadow the extract flags of the same name.
var (
	unitsRegion    string
	unitsSheet     string
	unitsMonth     string
	unitsAllMonths bool
	unitsJSON      bool
)

var unitsCmd = &cobra.Command{
	Use:   "units <file>",
	Short: "List the units of a billing sheet",
	Long: `Units lists the distinct units found in a billing sheet for one NF issuance
month, with their normalized keys and row counts. Without --month the previous
month is used; --all-months lists every row.

Examples:
  portal units faturamento.xlsx --region RJ --month 2025-08
  portal units faturamento.csv --all-months --json`,
	Args:    cobra.ExactArgs(1),
	PreRunE: validateUnitsFlags,
	RunE:    runUnits,
}

var sheetsCmd = &cobra.Command{
	Use:   "sheets <file>",
	Short: "List the sheets of a workbook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateFileExists(args[0], "workbook"); err != nil {
			return err
		}
		names, err := table.NewLoader(nil).Sheets(args[0])
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(unitsCmd)
	rootCmd.AddCommand(sheetsCmd)

	unitsCmd.Flags().StringVarP(&unitsRegion, "region", "r", "", "region whose 'Faturamento <REGION>' sheet is read")
	unitsCmd.Flags().StringVar(&unitsSheet, "sheet", "", "exact sheet name, overrides --region")
	unitsCmd.Flags().StringVarP(&unitsMonth, "month", "m", "", "NF issuance month (YYYY-MM, default: previous month)")
	unitsCmd.Flags().BoolVar(&unitsAllMonths, "all-months", false, "ignore the month and list every unit")
	unitsCmd.Flags().BoolVar(&unitsJSON, "json", false, "print JSON instead of a table")
}

func validateUnitsFlags(cmd *cobra.Command, args []string) error {
	if err := validateFileExists(args[0], "billing sheet"); err != nil {
		return err
	}
	if unitsAllMonths && unitsMonth != "" {
		return errors.ConfigurationError(errors.CodeConfigConflict, "all-months", unitsMonth, nil).
			WithSuggestion("use either --month or --all-months")
	}
	return validateMonthFlag("month", unitsMonth)
}

func runUnits(cmd *cobra.Command, args []string) error {
	t, err := table.NewLoader(&table.LoadConfig{Sheet: unitsSheet, Region: unitsRegion}).Load(args[0])
	if err != nil {
		return err
	}

	engine, err := extractor.NewEngine(nil, nil)
	if err != nil {
		return err
	}

	ym := ""
	if !unitsAllMonths {
		if ym, err = config.ResolveMonth(unitsMonthOrAuto(), now()); err != nil {
			return err
		}
	}

	list := engine.Units(t, ym)
	if unitsJSON {
		return writeUnitsJSON(cmd.OutOrStdout(), ym, list)
	}
	return writeUnitsTable(cmd.OutOrStdout(), ym, list)
}

func unitsMonthOrAuto() string {
	if unitsMonth == "" {
		return config.MonthAuto
	}
	return unitsMonth
}

func writeUnitsJSON(w io.Writer, ym string, list []filter.Unit) error {
	if list == nil {
		list = []filter.Unit{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Month string        `json:"month,omitempty"`
		Units []filter.Unit `json:"units"`
	}{ym, list})
}

func writeUnitsTable(w io.Writer, ym string, list []filter.Unit) error {
	if ym == "" {
		ym = "all"
	}
	fmt.Fprintf(w, "Month: %s\n", ym)
	if len(list) == 0 {
		fmt.Fprintln(w, "No units found.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "UNIT\tKEY\tROWS")
	for _, u := range list {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", u.Name, u.Key, u.Rows)
	}
	return tw.Flush()
}
