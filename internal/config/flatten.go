package config

import (
	"encoding/json"
	"sort"
	"strings"
)

// secretKeys lists the dot-separated keys whose values should be masked.
// Both feed the storage key derivation.
var secretKeys = map[string]bool{
	"crypto.passphrase": true,
	"crypto.salt":       true,
}

const (
	// maskDefault marks a secret still at its built-in value, which anyone
	// with the binary knows.
	maskDefault   = "(default)"
	// maskShort hides secrets too short to reveal a suffix of.
	maskShort     = "********"
	minRevealable = 8
)

// IsSecretKey returns true if the given dot-separated key is a secret.
func IsSecretKey(key string) bool {
	return secretKeys[key]
}

// Flatten converts a nested map into a flat map with dot-separated keys.
// For example, {"capture": {"camera": true}} becomes {"capture.camera": true}.
func Flatten(m map[string]any) map[string]any {
	out := make(map[string]any)
	flatten("", m, out)
	return out
}

func flatten(prefix string, m map[string]any, out map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if child, ok := v.(map[string]any); ok {
			flatten(key, child, out)
			continue
		}
		out[key] = v
	}
}

// Unflatten converts a flat map with dot-separated keys back into a nested map.
// For example, {"crypto.salt": "x"} becomes {"crypto": {"salt": "x"}}.
// A leaf on the path of a longer key is replaced by a section.
func Unflatten(flat map[string]any) map[string]any {
	out := make(map[string]any)
	for _, k := range Keys(flat) {
		parts := strings.Split(k, ".")
		current := out
		for _, part := range parts[:len(parts)-1] {
			next, ok := current[part].(map[string]any)
			if !ok {
				next = make(map[string]any)
				current[part] = next
			}
			current = next
		}
		current[parts[len(parts)-1]] = flat[k]
	}
	return out
}

// Keys returns the keys of a flat map in sorted order.
func Keys(flat map[string]any) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Coerce turns a command-line value for key into the value stored in the
// file. Keys that hold strings in Config keep the text verbatim, so a
// numeric passphrase or a camera index such as "0" stays a string. Other
// values are parsed as JSON when possible and kept as text otherwise.
func Coerce(key, value string) any {
	if _, ok := defaultValues()[key].(string); ok {
		return value
	}
	var parsed any
	if err := json.Unmarshal([]byte(value), &parsed); err != nil {
		return value
	}
	return parsed
}

func defaultValues() map[string]any {
	m, err := ToMap(Default())
	if err != nil {
		return nil
	}
	return Flatten(m)
}

// MaskSecrets returns a copy of the flat map with secret values masked.
// A secret still at its built-in value is shown as "(default)". Short
// secrets are hidden entirely; longer ones show "***" and their last 4
// characters. Empty values are left empty.
func MaskSecrets(flat map[string]any) map[string]any {
	defaults := defaultValues()
	out := make(map[string]any, len(flat))
	for k, v := range flat {
		s, ok := v.(string)
		if !secretKeys[k] || !ok || s == "" {
			out[k] = v
			continue
		}
		switch {
		case s == defaults[k]:
			out[k] = maskDefault
		case len(s) < minRevealable:
			out[k] = maskShort
		default:
			out[k] = "***" + s[len(s)-4:]
		}
	}
	return out
}
