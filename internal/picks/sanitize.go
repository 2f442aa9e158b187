package picks

import (
	"encoding/json"
	"strings"
)

// strippedSuffixes mark keys that are internal-only. Public payloads carry
// ET-zoned ISO timestamps instead; a bare "timestamp" key is allowed.
var strippedSuffixes = []string{"_utc", "_iso", "_epoch", "_timestamp"}

// Sanitize deep-copies v through JSON and removes every key ending in one of
// the internal suffixes, at any depth. Call it on every public payload.
func Sanitize(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var tree any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, err
	}
	return scrub(tree), nil
}

func scrub(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			if strippedKey(k) {
				delete(t, k)
				continue
			}
			t[k] = scrub(val)
		}
		return t
	case []any:
		for i := range t {
			t[i] = scrub(t[i])
		}
		return t
	}
	return v
}

func strippedKey(k string) bool {
	lower := strings.ToLower(k)
	for _, suffix := range strippedSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return false
}
