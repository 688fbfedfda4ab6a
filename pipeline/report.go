package pipeline

import (
	"time"
)

// ModuleStatus is the terminal state of one module in a run
type ModuleStatus string

const (
	StatusCompleted          ModuleStatus = "completed"
	StatusSkippedUnimportant ModuleStatus = "skipped_unimportant"
	StatusFailed             ModuleStatus = "failed"
)

// TypeStatus is the terminal state of one type within a module
type TypeStatus string

const (
	TypeWritten          TypeStatus = "written"
	TypeSkippedEmpty     TypeStatus = "skipped_empty"
	TypeSkippedGenerated TypeStatus = "skipped_generated"
	TypeFailed           TypeStatus = "failed"

	// The engine listed the type but could not resolve it by name
	TypeSkippedUnaddressable TypeStatus = "skipped_unaddressable"
)

// TypeFailure records one type that could not be decompiled or written
type TypeFailure struct {
	FullName string `json:"full_name"`
	Error    string `json:"error"`
}

// TypeOutcome is what happened to one type
type TypeOutcome struct {
	Name     string     `json:"name"`
	FullName string     `json:"full_name"`
	Status   TypeStatus `json:"status"`
	Rule     string     `json:"rule,omitempty"` // Classifier rule, for skipped_generated
	Path     string     `json:"path,omitempty"` // Output file, for written
	Error    string     `json:"error,omitempty"`
}

// ModuleReport represents the result of processing a single module
type ModuleReport struct {
	Module               string        `json:"module"`
	Path                 string        `json:"path"`
	Status               ModuleStatus  `json:"status"`
	Processed            int           `json:"processed"`
	SkippedGenerated     int           `json:"skipped_generated"`
	SkippedEmpty         int           `json:"skipped_empty"`
	SkippedUnaddressable int           `json:"skipped_unaddressable"`
	Collisions           int           `json:"collisions"`
	Failed               []TypeFailure `json:"failed,omitempty"`
	Pruned               []string      `json:"pruned,omitempty"`
	Error                string        `json:"error,omitempty"` // Module-level failure (open, list)
	Outcomes             []TypeOutcome `json:"outcomes,omitempty"`
	StartTime            time.Time     `json:"start_time"`
	EndTime              time.Time     `json:"end_time"`
}

// Duration returns the wall time spent on the module
func (r *ModuleReport) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// RunReport represents the result of one pipeline run
type RunReport struct {
	RunID       string         `json:"run_id"`
	SourceDir   string         `json:"source_dir"`
	OutputDir   string         `json:"output_dir"`
	Modules     []ModuleReport `json:"modules"`
	Interrupted bool           `json:"interrupted"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     time.Time      `json:"end_time"`
}

// Totals aggregates module reports
type Totals struct {
	Modules              int `json:"modules"`
	Completed            int `json:"completed"`
	SkippedUnimportant   int `json:"skipped_unimportant"`
	FailedModules        int `json:"failed_modules"`
	Processed            int `json:"processed"`
	SkippedGenerated     int `json:"skipped_generated"`
	SkippedEmpty         int `json:"skipped_empty"`
	SkippedUnaddressable int `json:"skipped_unaddressable"`
	FailedTypes          int `json:"failed_types"`
	Collisions           int `json:"collisions"`
}

// Totals sums the counters of every module in the run
func (r *RunReport) Totals() Totals {
	var t Totals
	for i := range r.Modules {
		m := &r.Modules[i]
		t.Modules++
		switch m.Status {
		case StatusCompleted:
			t.Completed++
		case StatusSkippedUnimportant:
			t.SkippedUnimportant++
		case StatusFailed:
			t.FailedModules++
		}
		t.Processed += m.Processed
		t.SkippedGenerated += m.SkippedGenerated
		t.SkippedEmpty += m.SkippedEmpty
		t.SkippedUnaddressable += m.SkippedUnaddressable
		t.FailedTypes += len(m.Failed)
		t.Collisions += m.Collisions
	}
	return t
}

// Module returns the report for the named module, or nil
func (r *RunReport) Module(baseName string) *ModuleReport {
	for i := range r.Modules {
		if r.Modules[i].Module == baseName {
			return &r.Modules[i]
		}
	}
	return nil
}
