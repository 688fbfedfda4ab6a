package am

// Config represents the dllparser configuration
type Config struct {
	Source     SourceConfig     `mapstructure:"source" toml:"source" json:"source" yaml:"source"`
	Output     OutputConfig     `mapstructure:"output" toml:"output" json:"output" yaml:"output"`
	Filter     FilterConfig     `mapstructure:"filter" toml:"filter" json:"filter" yaml:"filter"`
	Classifier ClassifierConfig `mapstructure:"classifier" toml:"classifier" json:"classifier" yaml:"classifier"`
	Decompiler DecompilerConfig `mapstructure:"decompiler" toml:"decompiler" json:"decompiler" yaml:"decompiler"`
	Index      IndexConfig      `mapstructure:"index" toml:"index" json:"index" yaml:"index"`
	Publish    PublishConfig    `mapstructure:"publish" toml:"publish" json:"publish" yaml:"publish"`
	Watch      WatchConfig      `mapstructure:"watch" toml:"watch" json:"watch" yaml:"watch"`
}

// SourceConfig configures where compiled modules are read from
type SourceConfig struct {
	Dir     string `mapstructure:"dir" toml:"dir" json:"dir" yaml:"dir"`
	Pattern string `mapstructure:"pattern" toml:"pattern" json:"pattern" yaml:"pattern"` // Glob matched against file names in Dir (default: *.dll)
	URL     string `mapstructure:"url" toml:"url,omitempty" json:"url,omitempty" yaml:"url,omitempty"` // Optional go-getter source fetched into Dir before discovery
}

// OutputConfig configures the curated source-text tree
type OutputConfig struct {
	Dir        string `mapstructure:"dir" toml:"dir" json:"dir" yaml:"dir"`
	Extension  string `mapstructure:"extension" toml:"extension" json:"extension" yaml:"extension"`    // default: .cstxt
	Collisions string `mapstructure:"collisions" toml:"collisions" json:"collisions" yaml:"collisions"` // qualify | overwrite | fail
	Prune      bool   `mapstructure:"prune" toml:"prune" json:"prune" yaml:"prune"`                     // Remove stale type files after a module completes
}

// FilterConfig configures the importance filter
type FilterConfig struct {
	ImportantPrefixes []string `mapstructure:"important_prefixes" toml:"important_prefixes" json:"important_prefixes" yaml:"important_prefixes"`
}

// ClassifierConfig configures the generated-type classifier
type ClassifierConfig struct {
	LiteralPrefixes []string        `mapstructure:"literal_prefixes" toml:"literal_prefixes" json:"literal_prefixes" yaml:"literal_prefixes"`
	DisabledRules   []string        `mapstructure:"disabled_rules" toml:"disabled_rules" json:"disabled_rules" yaml:"disabled_rules"`
	Patterns        []PatternConfig `mapstructure:"patterns" toml:"patterns" json:"patterns" yaml:"patterns"`
	RulesFile       string          `mapstructure:"rules_file" toml:"rules_file,omitempty" json:"rules_file,omitempty" yaml:"rules_file,omitempty"`
	CacheSize       int             `mapstructure:"cache_size" toml:"cache_size" json:"cache_size" yaml:"cache_size"` // 0 = no memoization
}

// PatternConfig is an extra named regular-expression rule
type PatternConfig struct {
	Name    string `mapstructure:"name" toml:"name" json:"name" yaml:"name"`
	Pattern string `mapstructure:"pattern" toml:"pattern" json:"pattern" yaml:"pattern"`
}

// DecompilerConfig configures the external decompiler engine
type DecompilerConfig struct {
	Command            string   `mapstructure:"command" toml:"command" json:"command" yaml:"command"`
	ExtraArgs          string   `mapstructure:"extra_args" toml:"extra_args" json:"extra_args" yaml:"extra_args"`
	ReferencePaths     []string `mapstructure:"reference_paths" toml:"reference_paths" json:"reference_paths" yaml:"reference_paths"`
	TypeTimeoutSeconds int      `mapstructure:"type_timeout_seconds" toml:"type_timeout_seconds" json:"type_timeout_seconds" yaml:"type_timeout_seconds"` // 0 = no timeout
	VersionConstraint  string   `mapstructure:"version_constraint" toml:"version_constraint" json:"version_constraint" yaml:"version_constraint"`
}

// IndexConfig configures the SQLite run ledger
type IndexConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled" json:"enabled" yaml:"enabled"`
	Path    string `mapstructure:"path" toml:"path" json:"path" yaml:"path"`
}

// PublishConfig configures mirroring of the output tree to an S3-compatible bucket
type PublishConfig struct {
	Endpoint  string `mapstructure:"endpoint" toml:"endpoint" json:"endpoint" yaml:"endpoint"`
	Region    string `mapstructure:"region" toml:"region" json:"region" yaml:"region"`
	Bucket    string `mapstructure:"bucket" toml:"bucket" json:"bucket" yaml:"bucket"`
	AccessKey string `mapstructure:"access_key" toml:"-" json:"-" yaml:"-"`
	SecretKey string `mapstructure:"secret_key" toml:"-" json:"-" yaml:"-"`
	UseSSL    bool   `mapstructure:"use_ssl" toml:"use_ssl" json:"use_ssl" yaml:"use_ssl"`
	Prefix    string `mapstructure:"prefix" toml:"prefix" json:"prefix" yaml:"prefix"`
}

// WatchConfig configures the watch command
type WatchConfig struct {
	DebounceMS int `mapstructure:"debounce_ms" toml:"debounce_ms" json:"debounce_ms" yaml:"debounce_ms"`
}

// Collision policies for output.collisions
const (
	CollisionQualify   = "qualify"
	CollisionOverwrite = "overwrite"
	CollisionFail      = "fail"
)

// File system constants
const (
	DefaultDirPermissions  = 0755 // Standard directory permissions (rwxr-xr-x)
	DefaultFilePermissions = 0644 // Standard file permissions (rw-r--r--)
)
