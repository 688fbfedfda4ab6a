package am

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// DefaultImportantPrefixes are the module name prefixes decompiled when
// filter.important_prefixes is not configured.
var DefaultImportantPrefixes = []string{
	"Facepunch",
	"Assembly-CSharp",
	"Oxide",
	"Rust",
	"0Harmony",
}

// DefaultGeneratedPrefixes are the literal type-name prefixes of compiler and
// tooling artifacts.
var DefaultGeneratedPrefixes = []string{
	"__StaticArrayInit",
	"<>",
	"<PrivateImplementationDetails>",
	"EmbeddedAttribute",
	"IsReadOnlyAttribute",
	"<Module>",
	"$ArrayType=",
}

const (
	DefaultSourceDir         = "dlls"
	DefaultSourcePattern     = "*.dll"
	DefaultOutputDir         = "output"
	DefaultOutputExtension   = ".cstxt"
	DefaultDecompilerCommand = "ilspycmd"
	DefaultVersionConstraint = ">= 7.0.0"
	DefaultIndexPath         = "dllparser.db"
	DefaultCacheSize         = 4096
	DefaultDebounceMS        = 500
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("source.dir", DefaultSourceDir)
	v.SetDefault("source.pattern", DefaultSourcePattern)
	v.SetDefault("source.url", "")

	v.SetDefault("output.dir", DefaultOutputDir)
	v.SetDefault("output.extension", DefaultOutputExtension)
	v.SetDefault("output.collisions", CollisionQualify)
	v.SetDefault("output.prune", false)

	v.SetDefault("filter.important_prefixes", DefaultImportantPrefixes)

	v.SetDefault("classifier.literal_prefixes", DefaultGeneratedPrefixes)
	v.SetDefault("classifier.disabled_rules", []string{})
	v.SetDefault("classifier.patterns", []map[string]interface{}{})
	v.SetDefault("classifier.rules_file", "")
	v.SetDefault("classifier.cache_size", DefaultCacheSize)

	v.SetDefault("decompiler.command", DefaultDecompilerCommand)
	v.SetDefault("decompiler.extra_args", "")
	v.SetDefault("decompiler.reference_paths", []string{})
	v.SetDefault("decompiler.type_timeout_seconds", 0)
	v.SetDefault("decompiler.version_constraint", DefaultVersionConstraint)

	v.SetDefault("index.enabled", false)
	v.SetDefault("index.path", DefaultIndexPath)

	// Every key needs a default so DLLPARSER_* overrides reach Unmarshal.
	v.SetDefault("publish.endpoint", "")
	v.SetDefault("publish.region", "us-east-1")
	v.SetDefault("publish.bucket", "")
	v.SetDefault("publish.access_key", "")
	v.SetDefault("publish.secret_key", "")
	v.SetDefault("publish.use_ssl", true)
	v.SetDefault("publish.prefix", "")

	v.SetDefault("watch.debounce_ms", DefaultDebounceMS)
}

// BindSensitiveEnvVars explicitly binds credentials to environment variables
// so they never have to live in a config file.
func BindSensitiveEnvVars(v *viper.Viper) {
	v.BindEnv("publish.access_key", "DLLPARSER_PUBLISH_ACCESS_KEY", "AWS_ACCESS_KEY_ID")
	v.BindEnv("publish.secret_key", "DLLPARSER_PUBLISH_SECRET_KEY", "AWS_SECRET_ACCESS_KEY")
	v.BindEnv("publish.endpoint", "DLLPARSER_PUBLISH_ENDPOINT")
}

// GetOutputExtension returns the output file extension (default: .cstxt)
func (c *Config) GetOutputExtension() string {
	if c.Output.Extension == "" {
		return DefaultOutputExtension
	}
	return c.Output.Extension
}

// GetCollisionPolicy returns the collision policy (default: qualify)
func (c *Config) GetCollisionPolicy() string {
	if c.Output.Collisions == "" {
		return CollisionQualify
	}
	return c.Output.Collisions
}

// GetSourcePattern returns the discovery glob (default: *.dll)
func (c *Config) GetSourcePattern() string {
	if c.Source.Pattern == "" {
		return DefaultSourcePattern
	}
	return c.Source.Pattern
}

// GetTypeTimeout returns the per-type decompile timeout; zero means none
func (c *Config) GetTypeTimeout() time.Duration {
	return time.Duration(c.Decompiler.TypeTimeoutSeconds) * time.Second
}

// GetDebounce returns the watch debounce period
func (c *Config) GetDebounce() time.Duration {
	if c.Watch.DebounceMS <= 0 {
		return DefaultDebounceMS * time.Millisecond
	}
	return time.Duration(c.Watch.DebounceMS) * time.Millisecond
}

// GetIndexPath returns the index database path
func (c *Config) GetIndexPath() string {
	if c.Index.Path == "" {
		return DefaultIndexPath
	}
	return c.Index.Path
}

// String returns a string representation of the config
func (c *Config) String() string {
	return fmt.Sprintf("Config{Source: %s, Output: %s (%s), Filter: %v, Decompiler: %s}",
		c.Source.Dir, c.Output.Dir, c.GetOutputExtension(), c.Filter.ImportantPrefixes, c.Decompiler.Command)
}
