package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/classify"
	"github.com/publicrust/DotnetDllParser/errors"
)

func TestRunFlagsApply(t *testing.T) {
	base := am.DefaultConfig()

	t.Run("unset flags keep config", func(t *testing.T) {
		var f runFlags
		cmd := &cobra.Command{Use: "test"}
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags(nil))

		got := f.apply(cmd, base)
		assert.Equal(t, base, got)
		assert.NotSame(t, base, got)
	})

	t.Run("set flags override", func(t *testing.T) {
		var f runFlags
		cmd := &cobra.Command{Use: "test"}
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags([]string{"-s", "/srv/Managed", "-o", "/srv/curated", "--collisions", "fail", "--prune"}))

		got := f.apply(cmd, base)
		assert.Equal(t, "/srv/Managed", got.Source.Dir)
		assert.Equal(t, "/srv/curated", got.Output.Dir)
		assert.Equal(t, am.CollisionFail, got.Output.Collisions)
		assert.True(t, got.Output.Prune)

		assert.Equal(t, am.DefaultOutputDir, base.Output.Dir, "base config is not modified")
		assert.False(t, base.Output.Prune)
	})

	t.Run("explicit empty output is kept for validation", func(t *testing.T) {
		var f runFlags
		cmd := &cobra.Command{Use: "test"}
		f.register(cmd)
		require.NoError(t, cmd.ParseFlags([]string{"--output="}))

		got := f.apply(cmd, base)
		assert.Empty(t, got.Output.Dir)
		assert.True(t, errors.Is(got.Validate(), errors.ErrInvalidConfig))
	})
}

func TestClassifyNames(t *testing.T) {
	results := classifyNames(classify.Default(), []string{"PlayerInventory", "<Start>d__12", "<>c"})
	require.Len(t, results, 3)

	assert.Equal(t, Classification{Name: "PlayerInventory"}, results[0])
	assert.True(t, results[1].Generated)
	assert.Equal(t, classify.RuleStateMachine, results[1].Rule)
	assert.True(t, results[2].Generated)
	assert.NotEmpty(t, results[2].Rule)
}

func TestWriteClassifications(t *testing.T) {
	var buf bytes.Buffer
	writeClassifications(&buf, []Classification{
		{Name: "BasePlayer"},
		{Name: "<Tick>d__3", Generated: true, Rule: classify.RuleStateMachine},
	})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "authored   BasePlayer", lines[0])
	assert.Equal(t, "generated  <Tick>d__3  [state-machine]", lines[1])
}

func TestReadNames(t *testing.T) {
	names, err := readNames(strings.NewReader("BasePlayer\n\n  <Tick>d__3  \n"))
	require.NoError(t, err)
	assert.Equal(t, []string{"BasePlayer", "<Tick>d__3"}, names)

	names, err = readNames(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestWriteConfig(t *testing.T) {
	cfg := am.DefaultConfig()
	cfg.Publish.SecretKey = "hunter2"

	tests := []struct {
		format string
		decode func([]byte, *am.Config) error
	}{
		{"toml", func(b []byte, c *am.Config) error { return toml.Unmarshal(b, c) }},
		{"yaml", func(b []byte, c *am.Config) error { return yaml.Unmarshal(b, c) }},
		{"json", func(b []byte, c *am.Config) error { return json.Unmarshal(b, c) }},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, writeConfig(&buf, cfg, tt.format))
			assert.NotContains(t, buf.String(), "hunter2")

			var got am.Config
			require.NoError(t, tt.decode(buf.Bytes(), &got))
			assert.Equal(t, cfg.Output.Dir, got.Output.Dir)
			assert.Equal(t, cfg.Filter.ImportantPrefixes, got.Filter.ImportantPrefixes)
		})
	}

	t.Run("unsupported", func(t *testing.T) {
		err := writeConfig(&bytes.Buffer{}, cfg, "ini")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
	})
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	VersionCmd.SetOut(&buf)
	defer VersionCmd.SetOut(nil)

	require.NoError(t, VersionCmd.RunE(VersionCmd, nil))
	assert.Contains(t, buf.String(), "dllparser")
	assert.Contains(t, buf.String(), "Platform:")
}
