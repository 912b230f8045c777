package configload

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/cespare/xxhash/v2"
	"gopkg.in/yaml.v3"

	"github.com/chazu/loom/pkg/config"
)

// Loader parses raw-configuration documents. CUE sources are compiled
// through a shared context and cached by content digest; YAML sources are
// decoded directly.
type Loader struct {
	ctx   *cue.Context
	cache *Cache
}

// NewLoader creates a new configuration loader with caching.
func NewLoader() *Loader {
	return &Loader{
		ctx:   cuecontext.New(),
		cache: NewCache(),
	}
}

// LoadFile loads a raw-configuration document from path, dispatching on the
// file extension: .cue is compiled as CUE, .yaml and .yml are decoded as
// YAML.
func (l *Loader) LoadFile(path string) (config.Raw, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".cue":
		return l.LoadCUE(content)
	case ".yaml", ".yml":
		return l.LoadYAML(content)
	default:
		return nil, fmt.Errorf("unsupported configuration format %q", filepath.Ext(path))
	}
}

// LoadCUE compiles CUE source and exports the resulting struct as the
// raw-configuration document. The top level must be a struct whose fields
// are provided names.
func (l *Loader) LoadCUE(content []byte) (config.Raw, error) {
	digest := fmt.Sprintf("cue:%x", xxhash.Sum64(content))

	value, found := l.cache.Get(digest)
	if !found {
		value = l.ctx.CompileBytes(content)
		if value.Err() != nil {
			return nil, fmt.Errorf("failed to compile configuration: %w", value.Err())
		}
		l.cache.Set(digest, value)
	}

	var doc map[string]any
	if err := value.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}
	return config.Raw(doc), nil
}

// LoadYAML decodes a YAML document into the raw-configuration mapping.
func (l *Loader) LoadYAML(content []byte) (config.Raw, error) {
	var doc map[string]any
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %w", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return config.Raw(doc), nil
}
