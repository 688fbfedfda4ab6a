package am

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/publicrust/DotnetDllParser/errors"
)

// ConfigFileName is the project and user config file name
const ConfigFileName = "dllparser.toml"

// EnvPrefix is prepended to environment variable overrides (DLLPARSER_OUTPUT_DIR, ...)
const EnvPrefix = "DLLPARSER"

var (
	globalConfig  *Config
	viperInstance *viper.Viper
	explicitFile  string
	loadedFiles   []string

	// ConfigSources records, per dotted key, which file last set it.
	// Keys absent from the map come from defaults or the environment.
	ConfigSources = map[string]SourceInfo{}
)

// SetConfigFile selects an explicit config file (the --config flag). It is
// merged above user and project files. Resets any cached configuration.
func SetConfigFile(path string) {
	Reset()
	explicitFile = path
}

// Load reads the dllparser configuration using Viper
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	v, err := initViper()
	if err != nil {
		return nil, err
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, err
	}

	globalConfig = config
	return globalConfig, nil
}

// GetViper returns the Viper instance for advanced configuration access
func GetViper() (*viper.Viper, error) {
	return initViper()
}

// LoadWithViper loads configuration using a provided Viper instance
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}
	return &config, nil
}

// LoadFromFile loads configuration from a specific file path, on top of
// defaults only. Environment variables are not consulted.
func LoadFromFile(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("toml")

	SetDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read config file %s", configPath)
	}

	config, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load config from %s", configPath)
	}
	return config, nil
}

// Reset clears the cached configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viperInstance = nil
	explicitFile = ""
	loadedFiles = nil
	ConfigSources = map[string]SourceInfo{}
}

// LoadedFiles returns the config files merged by the last load, lowest
// precedence first.
func LoadedFiles() []string {
	return append([]string(nil), loadedFiles...)
}

// initViper initializes Viper with configuration sources and defaults
func initViper() (*viper.Viper, error) {
	if viperInstance != nil {
		return viperInstance, nil
	}

	// .env in the working directory feeds the environment layer; existing
	// variables win over the file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "failed to read .env")
	}

	v := viper.New()

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	BindSensitiveEnvVars(v)

	SetDefaults(v)

	if err := mergeConfigFiles(v); err != nil {
		return nil, err
	}

	viperInstance = v
	return v, nil
}

// findProjectConfig searches for dllparser.toml by walking up the directory tree.
// Returns the path to the first config file found, or empty string if none found.
func findProjectConfig() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// userConfigPath returns ~/.config/dllparser/dllparser.toml
func userConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dllparser", ConfigFileName)
}

// mergeConfigFiles merges configuration files in precedence order.
// Precedence (lowest to highest): defaults < user < project < --config < env vars.
// Files are merged into viper's config layer, so env vars stay above them.
func mergeConfigFiles(v *viper.Viper) error {
	type candidate struct {
		path   string
		source ConfigSource
	}

	var candidates []candidate
	if p := userConfigPath(); p != "" {
		candidates = append(candidates, candidate{p, SourceUser})
	}
	if p := findProjectConfig(); p != "" {
		candidates = append(candidates, candidate{p, SourceProject})
	}

	for _, c := range candidates {
		if _, err := os.Stat(c.path); err != nil {
			continue
		}
		if err := mergeFile(v, c.path, c.source); err != nil {
			return err
		}
	}

	// An explicit file that cannot be read is a startup error, unlike the
	// discovered ones which are optional.
	if explicitFile != "" {
		if err := mergeFile(v, explicitFile, SourceExplicit); err != nil {
			return err
		}
	}

	return nil
}

func mergeFile(v *viper.Viper, path string, source ConfigSource) error {
	tempViper := viper.New()
	tempViper.SetConfigFile(path)
	tempViper.SetConfigType("toml")

	if err := tempViper.ReadInConfig(); err != nil {
		return errors.Wrapf(err, "failed to read config file %s", path)
	}

	settings := tempViper.AllSettings()
	if err := v.MergeConfigMap(settings); err != nil {
		return errors.Wrapf(err, "failed to merge config file %s", path)
	}

	for _, key := range flattenKeys(settings, "") {
		ConfigSources[key] = SourceInfo{Source: source, Path: path}
	}
	loadedFiles = append(loadedFiles, path)
	return nil
}

// flattenKeys returns the sorted dotted leaf keys of a nested settings map
func flattenKeys(settings map[string]interface{}, prefix string) []string {
	var keys []string
	for key, value := range settings {
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}
		if nested, ok := value.(map[string]interface{}); ok {
			keys = append(keys, flattenKeys(nested, fullKey)...)
			continue
		}
		keys = append(keys, fullKey)
	}
	sort.Strings(keys)
	return keys
}

// Get returns a configuration value using dot notation
func Get(key string) (interface{}, error) {
	v, err := initViper()
	if err != nil {
		return nil, err
	}
	if !v.IsSet(key) {
		return nil, errors.NewNotFoundError("config key %q", key)
	}
	return v.Get(key), nil
}
