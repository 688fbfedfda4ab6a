package logger

import (
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset = "\x1b[0m"
	colorBold  = "\x1b[1m"
)

// palette holds the ANSI colors for one theme
type palette struct {
	fg     string
	time   string
	name   string
	id     string
	number string
	warn   string
	warnBg string
	err    string
	errBg  string
}

var themes = map[string]palette{
	"everforest": {
		fg:     "\x1b[38;5;223m",
		time:   "\x1b[38;5;107m",
		name:   "\x1b[38;5;208m",
		id:     "\x1b[38;5;109m",
		number: "\x1b[38;5;108m",
		warn:   "\x1b[38;5;179m",
		warnBg: "\x1b[48;5;58m",
		err:    "\x1b[38;5;167m",
		errBg:  "\x1b[48;5;52m",
	},
	"gruvbox": {
		fg:     "\x1b[38;5;223m",
		time:   "\x1b[38;5;108m",
		name:   "\x1b[38;5;214m",
		id:     "\x1b[38;5;109m",
		number: "\x1b[38;5;175m",
		warn:   "\x1b[38;5;214m",
		warnBg: "\x1b[48;5;58m",
		err:    "\x1b[38;5;167m",
		errBg:  "\x1b[48;5;88m",
	},
}

var currentTheme = "everforest"

var bufferPool = buffer.NewPool()

// SetTheme configures the color scheme for console output.
// Unknown names are ignored.
func SetTheme(theme string) {
	if _, ok := themes[theme]; ok {
		currentTheme = theme
	}
}

func colors() palette {
	return themes[currentTheme]
}

// minimalEncoder is a compact console encoder:
//
//	13:04:35  pipeline  Module completed  module=Facepunch.Core processed=412 skipped_generated=97 failed=0
//
// Context fields added through With are kept in the embedded map encoder and
// printed before the entry's own fields. Every field is printed; nothing is
// dropped silently.
type minimalEncoder struct {
	*zapcore.MapObjectEncoder
}

func newMinimalEncoder() *minimalEncoder {
	return &minimalEncoder{MapObjectEncoder: zapcore.NewMapObjectEncoder()}
}

func (enc *minimalEncoder) Clone() zapcore.Encoder {
	clone := zapcore.NewMapObjectEncoder()
	for k, v := range enc.Fields {
		clone.Fields[k] = v
	}
	return &minimalEncoder{MapObjectEncoder: clone}
}

func (enc *minimalEncoder) EncodeEntry(ent zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	c := colors()
	line := bufferPool.Get()

	line.AppendString(c.time)
	line.AppendString(ent.Time.Format("15:04:05"))
	line.AppendString(colorReset)

	if lvl := levelString(ent.Level, c); lvl != "" {
		line.AppendString("  ")
		line.AppendString(lvl)
	}

	if ent.LoggerName != "" {
		line.AppendString("  ")
		line.AppendString(c.name)
		line.AppendString(abbreviateName(ent.LoggerName))
		line.AppendString(colorReset)
	}

	line.AppendString("  ")
	line.AppendString(c.fg)
	line.AppendString(ent.Message)
	line.AppendString(colorReset)

	var pairs []string
	for _, key := range sortedKeys(enc.Fields) {
		pairs = append(pairs, formatPair(key, enc.Fields[key], c))
	}

	entryFields := zapcore.NewMapObjectEncoder()
	for _, f := range fields {
		f.AddTo(entryFields)
	}
	for _, f := range fields {
		val, ok := entryFields.Fields[f.Key]
		if !ok || strings.HasSuffix(f.Key, "Verbose") {
			continue
		}
		pairs = append(pairs, formatPair(f.Key, val, c))
	}

	if len(pairs) > 0 {
		line.AppendString("  ")
		line.AppendString(strings.Join(pairs, " "))
	}

	line.AppendString("\n")
	return line, nil
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		if strings.HasSuffix(k, "Verbose") {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatPair renders key=value with a color chosen by the key's meaning
func formatPair(key string, val interface{}, c palette) string {
	text := fmt.Sprint(val)
	color := c.fg
	switch key {
	case FieldModule, FieldRunID, FieldType, FieldFullName:
		color = c.id
	case FieldProcessed, FieldSkippedGenerated, FieldFailed, FieldCount, FieldDurationMS:
		color = c.number
	case FieldError:
		color = c.err
	}
	return key + "=" + color + text + colorReset
}

// levelString returns a bold badge for WARN and above; info and debug stay quiet
func levelString(level zapcore.Level, c palette) string {
	switch level {
	case zapcore.DebugLevel:
		return "DEBUG"
	case zapcore.InfoLevel:
		return ""
	case zapcore.WarnLevel:
		return colorBold + c.warnBg + c.warn + "WARN" + colorReset
	default:
		return colorBold + c.errBg + c.err + level.CapitalString() + colorReset
	}
}

// abbreviateName shortens dotted component names: pipeline.module -> p.module
func abbreviateName(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) > 1 && parts[0] != "" {
		return string(parts[0][0]) + "." + strings.Join(parts[1:], ".")
	}
	return name
}
