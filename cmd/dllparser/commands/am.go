package commands

import (
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/publicrust/DotnetDllParser/am"
	"github.com/publicrust/DotnetDllParser/display"
	"github.com/publicrust/DotnetDllParser/errors"
)

// AmCmd represents the am (configuration) command
var AmCmd = &cobra.Command{
	Use:   "am",
	Short: "Manage dllparser configuration",
	Long: `Display and manage dllparser configuration.

Configuration sources (later overrides earlier):
1. Built-in defaults
2. User config (~/.config/dllparser/dllparser.toml)
3. Project config (./dllparser.toml, searched up from the working directory)
4. Explicit config (--config)
5. Environment variables (DLLPARSER_* prefix, .env in the working directory)
6. Command line flags

Examples:
  dllparser am show                    # Show current configuration
  dllparser am show --format json      # Show configuration in JSON format
  dllparser am get output.collisions   # Get specific config value
  dllparser am validate                # Validate current configuration
  dllparser am init                    # Write a starter dllparser.toml`,
}

var amShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  "Display the effective dllparser configuration merged from all sources",
	RunE:  runAmShow,
}

var amGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a specific configuration value",
	Long:  "Get a specific configuration value using dot notation (e.g., output.dir, filter.important_prefixes)",
	Args:  cobra.ExactArgs(1),
	RunE:  runAmGet,
}

var amValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate current configuration",
	RunE:  runAmValidate,
}

var amInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write a starter configuration file",
	Long:  "Write the default configuration to path (default ./dllparser.toml). An existing file is kept unless --force is given.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAmInit,
}

var amWhereCmd = &cobra.Command{
	Use:   "where",
	Short: "Show where configuration is loaded from",
	RunE:  runAmWhere,
}

var (
	configFormat string
	initForce    bool
)

func init() {
	amShowCmd.Flags().StringVar(&configFormat, "format", "toml", "Output format: toml, json, yaml")
	amInitCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing file (keeps .back1..3 copies)")
	amWhereCmd.Flags().Bool("json", false, "Output as JSON")

	AmCmd.AddCommand(amShowCmd)
	AmCmd.AddCommand(amGetCmd)
	AmCmd.AddCommand(amValidateCmd)
	AmCmd.AddCommand(amInitCmd)
	AmCmd.AddCommand(amWhereCmd)
}

func runAmShow(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	return writeConfig(cmd.OutOrStdout(), cfg, configFormat)
}

// writeConfig renders cfg in format. Credentials are never rendered.
func writeConfig(w io.Writer, cfg *am.Config, format string) error {
	switch format {
	case "json":
		data, err := display.MarshalJSON(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to JSON")
		}
		fmt.Fprintln(w, string(data))

	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to YAML")
		}
		fmt.Fprintf(w, "# dllparser configuration\n%s", data)

	case "toml":
		data, err := toml.Marshal(cfg)
		if err != nil {
			return errors.Wrap(err, "failed to marshal config to TOML")
		}
		fmt.Fprintf(w, "# dllparser configuration\n%s", data)

	default:
		return errors.InvalidConfigf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	return nil
}

func runAmGet(cmd *cobra.Command, args []string) error {
	value, err := am.Get(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runAmValidate(cmd *cobra.Command, args []string) error {
	cfg, err := am.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return errors.Wrap(err, "configuration validation failed")
	}
	pterm.Success.Println("Configuration is valid")
	return nil
}

func runAmInit(cmd *cobra.Command, args []string) error {
	path := am.ConfigFileName
	if len(args) == 1 {
		path = args[0]
	}
	if err := am.WriteDefault(path, initForce); err != nil {
		return err
	}
	pterm.Success.Printf("Wrote %s\n", path)
	return nil
}

func runAmWhere(cmd *cobra.Command, args []string) error {
	intro, err := am.GetConfigIntrospection()
	if err != nil {
		return err
	}
	if display.ShouldOutputJSON(cmd) {
		return display.OutputJSON(intro)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "Configuration cascade (later overrides earlier):")
	fmt.Fprintln(w, "  1. [default]      Built-in defaults")
	fmt.Fprintln(w, "  2. [user]         ~/.config/dllparser/dllparser.toml")
	fmt.Fprintln(w, "  3. [project]      ./dllparser.toml (searches up directories)")
	fmt.Fprintln(w, "  4. [explicit]     --config")
	fmt.Fprintf(w, "  5. [environment]  %s_* environment variables\n", am.EnvPrefix)
	fmt.Fprintln(w)

	if len(intro.Files) == 0 {
		fmt.Fprintln(w, "No config files loaded")
	} else {
		fmt.Fprintln(w, "Loaded files:")
		for _, f := range intro.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}

	order := []am.ConfigSource{am.SourceDefault, am.SourceUser, am.SourceProject, am.SourceExplicit, am.SourceEnvironment}
	for _, src := range order {
		var lines []string
		for _, s := range intro.Settings {
			if s.Source != src {
				continue
			}
			value := fmt.Sprintf("%v", s.Value)
			if len(value) > 50 {
				value = value[:47] + "..."
			}
			line := fmt.Sprintf("  %s = %s", s.Key, value)
			if s.SourcePath != "" && src != am.SourceDefault {
				line += "  (" + s.SourcePath + ")"
			}
			lines = append(lines, line)
		}
		if len(lines) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s: %d settings\n", src, len(lines))
		for _, l := range lines {
			fmt.Fprintln(w, l)
		}
	}
	return nil
}
