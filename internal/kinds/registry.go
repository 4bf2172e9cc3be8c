package kinds

import (
	"embed"
	"fmt"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFiles embed.FS

// Registry holds the closed set of document kinds plus the supported
// languages and quality levels. It is read-only after construction.
type Registry struct {
	kinds     map[string]*KindDefinition
	langs     map[string]struct{}
	qualities map[string]struct{}
}

// NewRegistry creates a registry from the embedded YAML configuration
func NewRegistry() (*Registry, error) {
	data, err := configFiles.ReadFile("config/kinds.yaml")
	if err != nil {
		return nil, fmt.Errorf("failed to read kinds config: %w", err)
	}

	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to unmarshal kinds config: %w", err)
	}
	if len(file.Kinds) == 0 {
		return nil, fmt.Errorf("kinds config declares no kinds")
	}

	r := &Registry{
		kinds:     make(map[string]*KindDefinition, len(file.Kinds)),
		langs:     make(map[string]struct{}, len(file.Langs)),
		qualities: make(map[string]struct{}, len(file.Qualities)),
	}
	for id, def := range file.Kinds {
		d := def
		d.ID = id
		r.kinds[id] = &d
	}
	for _, l := range file.Langs {
		r.langs[l] = struct{}{}
	}
	for _, q := range file.Qualities {
		r.qualities[q] = struct{}{}
	}
	return r, nil
}

// GetKind returns the definition of a kind
func (r *Registry) GetKind(id string) (*KindDefinition, error) {
	def, ok := r.kinds[id]
	if !ok {
		return nil, fmt.Errorf("unknown document kind: %s", id)
	}
	return def, nil
}

// IsKind reports whether id is a registered document kind
func (r *Registry) IsKind(id string) bool {
	_, ok := r.kinds[id]
	return ok
}

// IsWaypointType reports whether t is an allowed waypoint_type for the kind
func (r *Registry) IsWaypointType(kind, t string) bool {
	def, ok := r.kinds[kind]
	if !ok {
		return false
	}
	for _, wt := range def.WaypointTypes {
		if wt == t {
			return true
		}
	}
	return false
}

// IsLang reports whether lang is a supported language code
func (r *Registry) IsLang(lang string) bool {
	_, ok := r.langs[lang]
	return ok
}

// IsQuality reports whether q is a known quality level
func (r *Registry) IsQuality(q string) bool {
	_, ok := r.qualities[q]
	return ok
}

// Langs returns the supported language codes in ascending order
func (r *Registry) Langs() []string {
	langs := make([]string, 0, len(r.langs))
	for l := range r.langs {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	return langs
}
