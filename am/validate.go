package am

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/publicrust/DotnetDllParser/errors"
)

// Validate checks that the configuration can drive a run.
// Errors are marked with errors.ErrInvalidConfig.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Source.Dir) == "" {
		return errors.InvalidConfigf("source.dir cannot be empty")
	}
	if c.Source.Pattern != "" {
		if _, err := filepath.Match(c.Source.Pattern, "probe"); err != nil {
			return errors.InvalidConfigf("source.pattern %q is not a valid glob: %v", c.Source.Pattern, err)
		}
	}

	if strings.TrimSpace(c.Output.Dir) == "" {
		return errors.InvalidConfigf("output.dir cannot be empty")
	}
	ext := c.GetOutputExtension()
	if !strings.HasPrefix(ext, ".") || len(ext) < 2 {
		return errors.InvalidConfigf("output.extension must start with '.', got %q", ext)
	}
	// Output must never be picked up as compilable source by tooling.
	if strings.EqualFold(ext, ".cs") {
		return errors.InvalidConfigf("output.extension cannot be .cs")
	}
	switch c.GetCollisionPolicy() {
	case CollisionQualify, CollisionOverwrite, CollisionFail:
	default:
		return errors.InvalidConfigf("output.collisions must be one of qualify, overwrite, fail; got %q", c.Output.Collisions)
	}

	if len(c.Filter.ImportantPrefixes) == 0 {
		return errors.InvalidConfigf("filter.important_prefixes cannot be empty (no module would be processed)")
	}
	for i, p := range c.Filter.ImportantPrefixes {
		if p == "" {
			return errors.InvalidConfigf("filter.important_prefixes[%d] cannot be empty (it would match every module)", i)
		}
	}

	for i, p := range c.Classifier.LiteralPrefixes {
		if p == "" {
			return errors.InvalidConfigf("classifier.literal_prefixes[%d] cannot be empty (it would mark every type generated)", i)
		}
	}
	for i, p := range c.Classifier.Patterns {
		if p.Name == "" {
			return errors.InvalidConfigf("classifier.patterns[%d].name cannot be empty", i)
		}
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return errors.InvalidConfigf("classifier.patterns[%d] (%s): invalid regular expression: %v", i, p.Name, err)
		}
	}
	if c.Classifier.CacheSize < 0 {
		return errors.InvalidConfigf("classifier.cache_size must be >= 0, got %d", c.Classifier.CacheSize)
	}

	if strings.TrimSpace(c.Decompiler.Command) == "" {
		return errors.InvalidConfigf("decompiler.command cannot be empty")
	}
	if c.Decompiler.TypeTimeoutSeconds < 0 {
		return errors.InvalidConfigf("decompiler.type_timeout_seconds must be >= 0, got %d", c.Decompiler.TypeTimeoutSeconds)
	}
	if c.Decompiler.VersionConstraint != "" {
		if _, err := semver.NewConstraint(c.Decompiler.VersionConstraint); err != nil {
			return errors.InvalidConfigf("decompiler.version_constraint %q: %v", c.Decompiler.VersionConstraint, err)
		}
	}

	if c.Index.Enabled && c.GetIndexPath() == "" {
		return errors.InvalidConfigf("index.path cannot be empty when index is enabled")
	}

	if c.Watch.DebounceMS < 0 {
		return errors.InvalidConfigf("watch.debounce_ms must be >= 0, got %d", c.Watch.DebounceMS)
	}

	return nil
}

// ValidatePublish checks the publish section. It is separate from Validate
// because only the publish command needs a bucket.
func (c *Config) ValidatePublish() error {
	if c.Publish.Endpoint == "" {
		return errors.InvalidConfigf("publish.endpoint cannot be empty")
	}
	if c.Publish.Bucket == "" {
		return errors.InvalidConfigf("publish.bucket cannot be empty")
	}
	if c.Publish.AccessKey == "" || c.Publish.SecretKey == "" {
		return errors.WithHint(
			errors.InvalidConfigf("publish credentials are missing"),
			"set DLLPARSER_PUBLISH_ACCESS_KEY and DLLPARSER_PUBLISH_SECRET_KEY")
	}
	return nil
}
