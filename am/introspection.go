package am

import (
	"os"
	"sort"
	"strings"

	"github.com/publicrust/DotnetDllParser/errors"
)

// ConfigSource represents where a configuration value came from
type ConfigSource string

const (
	SourceDefault     ConfigSource = "default"
	SourceUser        ConfigSource = "user"        // ~/.config/dllparser/dllparser.toml
	SourceProject     ConfigSource = "project"     // dllparser.toml found walking up from cwd
	SourceExplicit    ConfigSource = "explicit"    // --config
	SourceEnvironment ConfigSource = "environment" // DLLPARSER_* env vars (and .env)
)

// SourceInfo tracks where a configuration value originated
type SourceInfo struct {
	Source ConfigSource
	Path   string // File path or environment variable name
}

// SettingInfo contains metadata about a configuration setting
type SettingInfo struct {
	Key        string       `json:"key" yaml:"key"`
	Value      interface{}  `json:"value" yaml:"value"`
	Source     ConfigSource `json:"source" yaml:"source"`
	SourcePath string       `json:"source_path,omitempty" yaml:"source_path,omitempty"`
}

// ConfigIntrospection provides metadata about the active configuration
type ConfigIntrospection struct {
	Files    []string      `json:"files" yaml:"files"`
	Settings []SettingInfo `json:"settings" yaml:"settings"`
}

// sensitiveKeys are never shown with their value
var sensitiveKeys = map[string]bool{
	"publish.access_key": true,
	"publish.secret_key": true,
}

// GetConfigIntrospection returns every effective setting with the layer it came from
func GetConfigIntrospection() (*ConfigIntrospection, error) {
	v, err := GetViper()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config for introspection")
	}

	introspection := &ConfigIntrospection{
		Files:    LoadedFiles(),
		Settings: make([]SettingInfo, 0),
	}

	flattenSettingsWithSources(v.AllSettings(), "", introspection, ConfigSources)
	return introspection, nil
}

// flattenSettingsWithSources flattens settings and assigns sources from sourceMap
func flattenSettingsWithSources(settings map[string]interface{}, prefix string, introspection *ConfigIntrospection, sourceMap map[string]SourceInfo) {
	keys := make([]string, 0, len(settings))
	for k := range settings {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := settings[key]
		fullKey := key
		if prefix != "" {
			fullKey = prefix + "." + key
		}

		if nestedMap, ok := value.(map[string]interface{}); ok {
			flattenSettingsWithSources(nestedMap, fullKey, introspection, sourceMap)
			continue
		}

		sourceInfo := SourceInfo{Source: SourceDefault, Path: "built-in default"}
		if si, ok := sourceMap[fullKey]; ok {
			sourceInfo = si
		}

		envKey := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(fullKey, ".", "_"))
		if _, ok := os.LookupEnv(envKey); ok {
			sourceInfo = SourceInfo{Source: SourceEnvironment, Path: envKey}
		}

		if sensitiveKeys[fullKey] && value != "" && value != nil {
			value = "********"
		}

		introspection.Settings = append(introspection.Settings, SettingInfo{
			Key:        fullKey,
			Value:      value,
			Source:     sourceInfo.Source,
			SourcePath: sourceInfo.Path,
		})
	}
}
