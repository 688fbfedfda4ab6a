package display

import (
	"encoding/json"
	"os"
)

// CompactEnv requests single-line JSON, for piping into line-oriented tools
const CompactEnv = "DLLPARSER_JSON_COMPACT"

// MarshalJSON marshals JSON with pretty formatting, or compact formatting
// when DLLPARSER_JSON_COMPACT is set.
func MarshalJSON(v interface{}) ([]byte, error) {
	if os.Getenv(CompactEnv) != "" {
		return json.Marshal(v)
	}
	return json.MarshalIndent(v, "", "  ")
}
