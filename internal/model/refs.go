package model

import (
	"encoding/json"
	"strings"
)

// ParseRefs decodes the refs column into a string list. The canonical
// encoding is a JSON array; older databases stored a comma-separated
// string. Never fails: unrecognized data yields an empty list with
// malformed=true so the doctor sweep can flag the row.
func ParseRefs(raw string) (refs []string, malformed bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "[]" {
		return nil, false
	}

	if strings.HasPrefix(raw, "[") {
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, true
		}
		return out, false
	}

	// Legacy comma-separated encoding. A stray "{" or "}" means the row
	// holds something that was never a ref list at all.
	if strings.ContainsAny(raw, "{}") {
		return nil, true
	}
	for _, r := range strings.Split(raw, ",") {
		r = strings.TrimSpace(r)
		if r != "" {
			refs = append(refs, r)
		}
	}
	return refs, false
}

// EncodeRefs serializes a ref list to the canonical JSON array encoding.
func EncodeRefs(refs []string) string {
	if len(refs) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(refs)
	return string(b)
}
