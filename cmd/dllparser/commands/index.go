package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/errors"
	"github.com/publicrust/DotnetDllParser/index"
	"github.com/publicrust/DotnetDllParser/logger"
)

// IndexCmd queries the run ledger
var IndexCmd = &cobra.Command{
	Use:   "index",
	Short: "Query the ledger of past runs",
	Long: `Query the SQLite ledger that decompile and watch write when
index.enabled is set.

Examples:
  dllparser index runs                 # Most recent runs
  dllparser index show <run-id>        # Full report of one run
  dllparser index find PlayerInventory # Where a type was written`,
}

var indexRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runIndexRuns,
}

var indexShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show the report of one run",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexShow,
}

var indexFindCmd = &cobra.Command{
	Use:   "find <name>",
	Short: "Find types by simple or full name",
	Args:  cobra.ExactArgs(1),
	RunE:  runIndexFind,
}

var (
	indexPath  string
	indexLimit int
)

func init() {
	IndexCmd.PersistentFlags().StringVar(&indexPath, "db", "", "Index database path (overrides index.path)")
	IndexCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	indexRunsCmd.Flags().IntVarP(&indexLimit, "limit", "n", index.DefaultListLimit, "Maximum number of runs")
	indexFindCmd.Flags().IntVarP(&indexLimit, "limit", "n", index.DefaultListLimit, "Maximum number of results")

	IndexCmd.AddCommand(indexRunsCmd)
	IndexCmd.AddCommand(indexShowCmd)
	IndexCmd.AddCommand(indexFindCmd)
}

// openStore opens the ledger for reading. The index does not have to be
// enabled to be queried.
func openStore() (*index.Store, func(), error) {
	path := indexPath
	if path == "" {
		cfg, err := am.Load()
		if err != nil {
			return nil, func() {}, errors.Wrap(err, "failed to load config")
		}
		path = cfg.GetIndexPath()
	}
	return openIndexAt(path, logger.ComponentLogger("index"))
}

func runIndexRuns(cmd *cobra.Command, args []string) error {
	store, done, err := openStore()
	if err != nil {
		return err
	}
	defer done()

	runs, err := store.ListRuns(context.Background(), indexLimit)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(runs)
	}
	if len(runs) == 0 {
		pterm.Info.Println("No runs recorded yet")
		return nil
	}

	data := pterm.TableData{{"Run", "Started", "Modules", "Failed", "Written", "Generated", "Failed types", ""}}
	for _, r := range runs {
		mark := ""
		if r.Interrupted {
			mark = "interrupted"
		}
		data = append(data, []string{
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			strconv.Itoa(r.Modules),
			strconv.Itoa(r.FailedModules),
			strconv.Itoa(r.Processed),
			strconv.Itoa(r.SkippedGenerated),
			strconv.Itoa(r.FailedTypes),
			mark,
		})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func runIndexShow(cmd *cobra.Command, args []string) error {
	store, done, err := openStore()
	if err != nil {
		return err
	}
	defer done()

	report, err := store.GetRun(context.Background(), args[0])
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(report)
	}

	pterm.Info.Printf("Run %s: %s -> %s\n", report.RunID, report.SourceDir, report.OutputDir)
	table, err := display.RunTable(report)
	if err != nil {
		return errors.Wrap(err, "failed to render run table")
	}
	fmt.Print(table)
	if details := display.RunDetails(report, verbosityOf(cmd)); details != "" {
		pterm.Println()
		fmt.Print(details)
	}
	return nil
}

func runIndexFind(cmd *cobra.Command, args []string) error {
	store, done, err := openStore()
	if err != nil {
		return err
	}
	defer done()

	records, err := store.FindTypes(context.Background(), args[0], indexLimit)
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(records)
	}
	if len(records) == 0 {
		pterm.Info.Printf("No types matching %q\n", args[0])
		return nil
	}

	data := pterm.TableData{{"Module", "Type", "Status", "Where"}}
	for _, r := range records {
		where := r.Path
		if where == "" {
			where = r.Rule
		}
		data = append(data, []string{r.Module, r.FullName, string(r.Status), where})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
