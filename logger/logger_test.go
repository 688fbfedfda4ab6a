package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name       string
		jsonOutput bool
		verbosity  int
		wantLevel  zapcore.Level
	}{
		{name: "console default", jsonOutput: false, verbosity: 0, wantLevel: zapcore.InfoLevel},
		{name: "console -vv", jsonOutput: false, verbosity: 2, wantLevel: zapcore.DebugLevel},
		{name: "json default", jsonOutput: true, verbosity: 0, wantLevel: zapcore.InfoLevel},
		{name: "json -vvv", jsonOutput: true, verbosity: 3, wantLevel: zapcore.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			previous := Logger
			t.Cleanup(func() { Logger = previous; JSONOutput = false })

			require.NoError(t, Initialize(tt.jsonOutput, tt.verbosity))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.jsonOutput, JSONOutput)
			assert.True(t, Logger.Desugar().Core().Enabled(tt.wantLevel))
			if tt.wantLevel == zapcore.InfoLevel {
				assert.False(t, Logger.Desugar().Core().Enabled(zapcore.DebugLevel))
			}
		})
	}
}

func TestVerbosityToLevel(t *testing.T) {
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityUser))
	assert.Equal(t, zapcore.InfoLevel, VerbosityToLevel(VerbosityInfo))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityDebug))
	assert.Equal(t, zapcore.DebugLevel, VerbosityToLevel(VerbosityTrace+5))
	assert.Equal(t, "Debug (-vv)", LevelName(VerbosityDebug))
}

func TestShouldOutput(t *testing.T) {
	tests := []struct {
		verbosity int
		category  OutputCategory
		want      bool
	}{
		{VerbosityUser, OutputResults, true},
		{VerbosityUser, OutputErrors, true},
		{VerbosityUser, OutputProgress, false},
		{VerbosityInfo, OutputProgress, true},
		{VerbosityInfo, OutputTypeOutcomes, false},
		{VerbosityDebug, OutputTypeOutcomes, true},
		{VerbosityDebug, OutputRuleHits, false},
		{VerbosityTrace, OutputRuleHits, true},
		{VerbosityDebug, OutputCategory(999), false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldOutput(tt.verbosity, tt.category),
			"ShouldOutput(%d, %d)", tt.verbosity, tt.category)
	}
}

func TestFieldsFromContext(t *testing.T) {
	ctx := context.Background()
	assert.Empty(t, FieldsFromContext(ctx))

	ctx = WithRunID(ctx, "run-1")
	ctx = WithComponent(ctx, "pipeline")
	assert.Equal(t, []interface{}{FieldRunID, "run-1", FieldComponent, "pipeline"}, FieldsFromContext(ctx))

	base := zaptest.NewLogger(t).Sugar()
	assert.NotSame(t, base, LoggerFromContext(ctx, base))
	assert.Same(t, base, LoggerFromContext(context.Background(), base))
}

func TestChildLogger(t *testing.T) {
	parent := zaptest.NewLogger(t).Sugar()
	child := ChildLogger(parent, FieldModule, "Facepunch.Core")
	require.NotNil(t, child)
	child.Infow("Module completed", FieldProcessed, 2)
}

func TestPackageFunctionsWithNopLogger(t *testing.T) {
	previous := Logger
	t.Cleanup(func() { Logger = previous })
	Logger = zap.NewNop().Sugar()

	Infow("info", "k", "v")
	Warnw("warn", "k", "v")
	Errorw("error", "k", "v")
	Debugw("debug", "k", "v")
	Infof("info %d", 1)
	Warnf("warn %d", 1)
	Cleanup()
}
