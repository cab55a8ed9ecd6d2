package util

import (
	"bytes"
	"encoding/json"
)

// MarshalJSON encodes doc without HTML escaping and without a trailing
// newline. A non-empty indent switches to indented output.
func MarshalJSON(doc any, indent string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(doc); err != nil {
		return "", err
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}
