package config

import (
	"encoding/json"
	"fmt"

	"dario.cat/mergo"
	"github.com/cespare/xxhash/v2"
)

// Raw is the host-supplied configuration document: a mapping from provided
// name to that producer's configuration value. It is typically parsed from
// an external format upstream (see the configload package) and passed
// through unexamined.
type Raw map[string]any

// Slice returns the configuration value for one provided name as a map.
// A missing name yields an empty map. A value that is not a mapping is
// wrapped under the "value" key so producers always receive a map they can
// index into.
func (r Raw) Slice(name string) map[string]any {
	v, ok := r[name]
	if !ok || v == nil {
		return map[string]any{}
	}
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{"value": v}
}

// Merge deep-merges a producer's default configuration with its raw slice.
// Raw values win over defaults at every nested key; keys present only in
// the defaults survive. Neither input is mutated.
func Merge(defaults, raw map[string]any) (map[string]any, error) {
	merged := deepCopy(defaults)
	if merged == nil {
		merged = map[string]any{}
	}
	if err := mergo.Merge(&merged, raw, mergo.WithOverride); err != nil {
		return nil, fmt.Errorf("failed to merge configuration: %w", err)
	}
	return merged, nil
}

// Fingerprint hashes a merged configuration for change detection and log
// correlation. Non-serializable values degrade to an empty fingerprint
// rather than an error; the hash is diagnostic only.
func Fingerprint(cfg map[string]any) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}

// deepCopy clones a configuration map so merging never writes back into a
// producer definition's Defaults.
func deepCopy(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		switch t := v.(type) {
		case map[string]any:
			out[k] = deepCopy(t)
		case []any:
			cp := make([]any, len(t))
			for i, e := range t {
				if m, ok := e.(map[string]any); ok {
					cp[i] = deepCopy(m)
				} else {
					cp[i] = e
				}
			}
			out[k] = cp
		default:
			out[k] = v
		}
	}
	return out
}
