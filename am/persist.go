package am

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"github.com/publicrust/DotnetDllParser/errors"
)

// DefaultConfig returns the configuration produced by SetDefaults alone
func DefaultConfig() *Config {
	return &Config{
		Source: SourceConfig{Dir: DefaultSourceDir, Pattern: DefaultSourcePattern},
		Output: OutputConfig{
			Dir:        DefaultOutputDir,
			Extension:  DefaultOutputExtension,
			Collisions: CollisionQualify,
		},
		Filter: FilterConfig{ImportantPrefixes: append([]string(nil), DefaultImportantPrefixes...)},
		Classifier: ClassifierConfig{
			LiteralPrefixes: append([]string(nil), DefaultGeneratedPrefixes...),
			DisabledRules:   []string{},
			Patterns:        []PatternConfig{},
			CacheSize:       DefaultCacheSize,
		},
		Decompiler: DecompilerConfig{
			Command:           DefaultDecompilerCommand,
			ReferencePaths:    []string{},
			VersionConstraint: DefaultVersionConstraint,
		},
		Index:   IndexConfig{Path: DefaultIndexPath},
		Publish: PublishConfig{Region: "us-east-1", UseSSL: true},
		Watch:   WatchConfig{DebounceMS: DefaultDebounceMS},
	}
}

const defaultHeader = `# dllparser configuration
# Precedence: defaults < ~/.config/dllparser/dllparser.toml < ./dllparser.toml < --config < DLLPARSER_* env
# Publish credentials belong in DLLPARSER_PUBLISH_ACCESS_KEY / DLLPARSER_PUBLISH_SECRET_KEY, not here.

`

// WriteDefault writes a starter config to path. An existing file is only
// replaced when force is set, after rotating it into .back1..3.
func WriteDefault(path string, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		return errors.WithHint(
			errors.Newf("config file %s already exists", path),
			"use --force to overwrite (a .back1 copy is kept)")
	}

	if err := os.MkdirAll(filepath.Dir(path), DefaultDirPermissions); err != nil {
		return errors.Wrapf(err, "failed to create directory for %s", path)
	}

	if err := createBackup(path); err != nil {
		return errors.Wrap(err, "failed to create backup")
	}

	cfg := DefaultConfig()
	var buf bytes.Buffer
	buf.WriteString(defaultHeader)
	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)
	if err := enc.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to marshal default config")
	}

	if err := os.WriteFile(path, buf.Bytes(), DefaultFilePermissions); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}

// createBackup creates rotating backups (.back1, .back2, .back3) before modifying config
func createBackup(configPath string) error {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil
	}

	back3 := configPath + ".back3"
	back2 := configPath + ".back2"
	back1 := configPath + ".back1"

	if err := os.Remove(back3); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "failed to delete oldest backup")
	}

	if _, err := os.Stat(back2); err == nil {
		if err := os.Rename(back2, back3); err != nil {
			return errors.Wrap(err, "failed to rotate .back2 to .back3")
		}
	}

	if _, err := os.Stat(back1); err == nil {
		if err := os.Rename(back1, back2); err != nil {
			return errors.Wrap(err, "failed to rotate .back1 to .back2")
		}
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return errors.Wrap(err, "failed to read config for backup")
	}

	if err := os.WriteFile(back1, content, DefaultFilePermissions); err != nil {
		return errors.Wrap(err, "failed to create .back1")
	}

	return nil
}
