package logger

// OutputCategory is a class of CLI output that is shown or hidden depending
// on verbosity, independent of log severity.
type OutputCategory int

const (
	// Level 0 - always shown
	OutputResults OutputCategory = iota // Run summary, command results
	OutputErrors                        // Module and type failures

	// Level 1 (-v)
	OutputProgress // Per-module progress lines
	OutputConfig   // Where configuration was loaded from

	// Level 2 (-vv)
	OutputTypeOutcomes   // One line per type written/skipped
	OutputEngineCommands // Decompiler command lines

	// Level 3 (-vvv)
	OutputEngineStderr // Decompiler stderr forwarding
	OutputRuleHits     // Which classifier rule matched each generated type
)

var categoryLevels = map[OutputCategory]int{
	OutputResults:        VerbosityUser,
	OutputErrors:         VerbosityUser,
	OutputProgress:       VerbosityInfo,
	OutputConfig:         VerbosityInfo,
	OutputTypeOutcomes:   VerbosityDebug,
	OutputEngineCommands: VerbosityDebug,
	OutputEngineStderr:   VerbosityTrace,
	OutputRuleHits:       VerbosityTrace,
}

// ShouldOutput returns true if the category should be shown at verbosity
func ShouldOutput(verbosity int, category OutputCategory) bool {
	minLevel, ok := categoryLevels[category]
	if !ok {
		return verbosity >= VerbosityTrace
	}
	return verbosity >= minLevel
}
