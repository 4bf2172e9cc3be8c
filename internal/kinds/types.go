package kinds

// KindDefinition describes one document kind and the values its
// type-specific fields may take.
type KindDefinition struct {
	// Kind identifier (set during YAML unmarshaling)
	ID string `yaml:"-" json:"id"`

	DisplayName string `yaml:"display_name" json:"display_name"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`

	// WaypointTypes lists the allowed waypoint_type values; empty for kinds
	// without waypoint attributes
	WaypointTypes []string `yaml:"waypoint_types,omitempty" json:"waypoint_types,omitempty"`
}

// registryFile is the shape of the embedded YAML configuration
type registryFile struct {
	Kinds     map[string]KindDefinition `yaml:"kinds"`
	Langs     []string                  `yaml:"langs"`
	Qualities []string                  `yaml:"qualities"`
}
