package artifact

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/cespare/xxhash/v2"
)

// Artifact is the opaque value a producer yields once built. The container
// owns it after production; producers never see the map directly.
type Artifact = any

// entry records the outcome for one provided name.
type entry struct {
	value   Artifact
	present bool
}

// Map records artifacts by provided name. It grows append-only during a
// single build: the container writes each outcome exactly once, in
// topological order, and producers only ever receive read copies of the
// slice they declared.
type Map struct {
	entries map[string]entry

	// order preserves insertion order so fingerprints and snapshots are
	// reproducible for a given build sequence.
	order []string
}

// NewMap returns an empty artifact map.
func NewMap() *Map {
	return &Map{
		entries: make(map[string]entry),
	}
}

// Set records a produced artifact under name. Recording the same name twice
// is a programming error in the caller and is rejected.
func (m *Map) Set(name string, value Artifact) error {
	if _, exists := m.entries[name]; exists {
		return fmt.Errorf("artifact %q already recorded", name)
	}
	m.entries[name] = entry{value: value, present: true}
	m.order = append(m.order, name)
	return nil
}

// SetAbsent records an explicit absence under name. This is how a disabled
// producer is remembered: the name is known, but there is no artifact.
func (m *Map) SetAbsent(name string) error {
	if _, exists := m.entries[name]; exists {
		return fmt.Errorf("artifact %q already recorded", name)
	}
	m.entries[name] = entry{}
	m.order = append(m.order, name)
	return nil
}

// Get returns the artifact stored under name. The second return is true only
// if the name was recorded at all (present or absent); an absent entry
// returns (nil, true).
func (m *Map) Get(name string) (Artifact, bool) {
	e, ok := m.entries[name]
	if !ok {
		return nil, false
	}
	return e.value, true
}

// Present reports whether name was recorded with a real artifact, as opposed
// to never recorded or recorded absent.
func (m *Map) Present(name string) bool {
	e, ok := m.entries[name]
	return ok && e.present
}

// Known reports whether name was recorded at all, present or absent.
func (m *Map) Known(name string) bool {
	_, ok := m.entries[name]
	return ok
}

// Names returns the recorded names in insertion order, absent entries
// included.
func (m *Map) Names() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// Len returns the number of recorded entries, absent entries included.
func (m *Map) Len() int {
	return len(m.entries)
}

// Snapshot returns a copy of the map containing only present artifacts.
// Absent entries are deliberately omitted; absence is observable through
// Present and through the container's Fetch error.
func (m *Map) Snapshot() map[string]Artifact {
	out := make(map[string]Artifact, len(m.entries))
	for name, e := range m.entries {
		if e.present {
			out[name] = e.value
		}
	}
	return out
}

// Fingerprint computes a hash over the recorded names and their
// present/absent status for change detection across builds. Artifact values
// themselves are not hashed; they are opaque and need not be serializable.
func (m *Map) Fingerprint() string {
	type record struct {
		Name    string `json:"name"`
		Present bool   `json:"present"`
	}

	records := make([]record, 0, len(m.entries))
	for name, e := range m.entries {
		records = append(records, record{Name: name, Present: e.present})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Name < records[j].Name })

	data, err := json.Marshal(records)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%x", xxhash.Sum64(data))
}
