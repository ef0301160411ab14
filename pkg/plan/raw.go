package plan

import (
	"encoding/json"
	"fmt"
)

// Raw is a plan object as it arrives from the interpreter or from a caller:
// any subset of the plan keys, with arbitrary JSON value types.
type Raw map[string]any

var keyAliases = map[string]string{
	"field_level":     KeyLabelLevel,
	"field_score_min": KeyLabelScoreMin,
}

// ParseRaw decodes a JSON object into a Raw with legacy keys canonicalized.
func ParseRaw(data []byte) (Raw, error) {
	var r Raw
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse plan object: %w", err)
	}
	if r == nil {
		return nil, fmt.Errorf("failed to parse plan object: not a JSON object")
	}
	return r.Canonical(), nil
}

// Canonical returns a copy with legacy key aliases renamed. A canonical key
// that is present and non-null wins over its alias.
func (r Raw) Canonical() Raw {
	if r == nil {
		return nil
	}
	out := make(Raw, len(r))
	for k, v := range r {
		if _, ok := keyAliases[k]; ok {
			continue
		}
		out[k] = v
	}
	for alias, key := range keyAliases {
		v, ok := r[alias]
		if !ok {
			continue
		}
		if cur, ok := out[key]; ok && cur != nil {
			continue
		}
		out[key] = v
	}
	return out
}

// Lookup returns the value for key when it is present and not null.
func (r Raw) Lookup(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[key]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

func (r Raw) Clone() Raw {
	if r == nil {
		return nil
	}
	out := make(Raw, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
