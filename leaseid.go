package isbclient

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
)

// LeaseKey is the composite key a lease identifier encodes.
type LeaseKey struct {
	UserEmail string `json:"userEmail"`
	UUID      string `json:"uuid"`
}

// ConstructLeaseID builds the ISB lease identifier for (userEmail, uuid):
// standard base64 of the JSON object {"userEmail":...,"uuid":...}.
// The same pair always yields the same identifier.
func ConstructLeaseID(userEmail, uuid string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	// The API decodes with a plain JSON parser; keep <, > and & literal
	enc.SetEscapeHTML(false)
	// Encoding two strings cannot fail
	_ = enc.Encode(LeaseKey{UserEmail: userEmail, UUID: uuid})
	encoded := unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
	return base64.StdEncoding.EncodeToString(encoded)
}

// unescapeLineSeparators writes U+2028 and U+2029 as raw UTF-8, the way
// the API's own encoder does. encoding/json always escapes them.
func unescapeLineSeparators(b []byte) []byte {
	if !bytes.Contains(b, []byte(`\u202`)) {
		return b
	}

	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] != '\\' || i+1 >= len(b) {
			out = append(out, b[i])
			continue
		}
		switch rest := b[i:]; {
		case bytes.HasPrefix(rest, []byte(`\u2028`)):
			out = append(out, "\u2028"...)
			i += 5
		case bytes.HasPrefix(rest, []byte(`\u2029`)):
			out = append(out, "\u2029"...)
			i += 5
		default:
			// Copy both bytes so an escaped backslash is never re-read
			out = append(out, b[i], b[i+1])
			i++
		}
	}
	return out
}

// ParseLeaseID reverses ConstructLeaseID. It reports false when id is not
// base64, not a JSON object, or lacks either field. Keys must match exactly.
func ParseLeaseID(id string) (LeaseKey, bool) {
	raw, err := base64.StdEncoding.DecodeString(id)
	if err != nil {
		return LeaseKey{}, false
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return LeaseKey{}, false
	}

	var key LeaseKey
	if !stringField(fields, "userEmail", &key.UserEmail) || !stringField(fields, "uuid", &key.UUID) {
		return LeaseKey{}, false
	}
	return key, true
}

// stringField reads fields[name] into dst and reports whether it was a
// non-empty string.
func stringField(fields map[string]json.RawMessage, name string, dst *string) bool {
	value, ok := fields[name]
	if !ok {
		return false
	}
	if err := json.Unmarshal(value, dst); err != nil {
		return false
	}
	return *dst != ""
}

// leaseIDPrefix shortens a lease identifier for log output.
func leaseIDPrefix(id string) string {
	runes := []rune(id)
	if len(runes) <= 8 {
		return id + "..."
	}
	return string(runes[:8]) + "..."
}
