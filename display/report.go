package display

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/publicrust/DotnetDllParser/logger"
	"github.com/publicrust/DotnetDllParser/output"
	"github.com/publicrust/DotnetDllParser/pipeline"
)

// RunTable renders one row per module that was not skipped as unimportant,
// plus a totals row.
func RunTable(r *pipeline.RunReport) (string, error) {
	data := pterm.TableData{{"Module", "Status", "Written", "Generated", "Failed", "Collisions", "Time"}}
	for i := range r.Modules {
		m := &r.Modules[i]
		if m.Status == pipeline.StatusSkippedUnimportant {
			continue
		}
		data = append(data, []string{
			m.Module,
			string(m.Status),
			strconv.Itoa(m.Processed),
			strconv.Itoa(m.SkippedGenerated),
			strconv.Itoa(len(m.Failed)),
			strconv.Itoa(m.Collisions),
			m.Duration().Round(time.Millisecond).String(),
		})
	}

	t := r.Totals()
	data = append(data, []string{
		"total",
		fmt.Sprintf("%d/%d", t.Completed, t.Modules-t.SkippedUnimportant),
		strconv.Itoa(t.Processed),
		strconv.Itoa(t.SkippedGenerated),
		strconv.Itoa(t.FailedTypes),
		strconv.Itoa(t.Collisions),
		r.EndTime.Sub(r.StartTime).Round(time.Millisecond).String(),
	})

	return pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
}

// RunDetails lists failures, and at higher verbosity every type outcome
func RunDetails(r *pipeline.RunReport, verbosity int) string {
	var sb strings.Builder
	for i := range r.Modules {
		m := &r.Modules[i]
		if m.Status == pipeline.StatusFailed && logger.ShouldOutput(verbosity, logger.OutputErrors) {
			fmt.Fprintf(&sb, "%s: %s\n", m.Module, m.Error)
		}
		for _, f := range m.Failed {
			if logger.ShouldOutput(verbosity, logger.OutputErrors) {
				fmt.Fprintf(&sb, "%s: %s: %s\n", m.Module, f.FullName, f.Error)
			}
		}
		for _, o := range m.Outcomes {
			if o.Status == pipeline.TypeSkippedUnaddressable && logger.ShouldOutput(verbosity, logger.OutputErrors) {
				fmt.Fprintf(&sb, "%s: %s: skipped, not addressable by the decompiler\n", m.Module, o.FullName)
			}
		}
		if !logger.ShouldOutput(verbosity, logger.OutputTypeOutcomes) {
			continue
		}
		for _, o := range m.Outcomes {
			switch {
			case o.Status == pipeline.TypeWritten:
				fmt.Fprintf(&sb, "  %-18s %s -> %s\n", o.Status, o.FullName, o.Path)
			case o.Status == pipeline.TypeSkippedGenerated && logger.ShouldOutput(verbosity, logger.OutputRuleHits):
				fmt.Fprintf(&sb, "  %-18s %s [%s]\n", o.Status, o.FullName, o.Rule)
			case o.Status == pipeline.TypeSkippedGenerated:
				fmt.Fprintf(&sb, "  %-18s %s\n", o.Status, o.FullName)
			}
		}
	}
	return sb.String()
}

// CompareSummary renders an up-to-date check result
func CompareSummary(c *output.CompareResult) string {
	if c.UpToDate {
		return "output is up to date\n"
	}
	var sb strings.Builder
	section := func(title string, files []string) {
		if len(files) == 0 {
			return
		}
		fmt.Fprintf(&sb, "%s (%d):\n", title, len(files))
		for _, f := range files {
			fmt.Fprintf(&sb, "  %s\n", f)
		}
	}
	section("changed", c.Changed)
	section("missing", c.Missing)
	section("stale", c.Stale)
	return sb.String()
}
