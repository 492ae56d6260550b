package content

// Raw catalog document loaded from YAML. Optional scalars are pointers so
// absent fields can fall back to authoring defaults instead of zero
// values.
type CatalogFile struct {
	Modifiers []ModifierDoc `yaml:"modifiers"`
}

type ModifierDoc struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Rarity      string      `yaml:"rarity"`
	Tags        []string    `yaml:"tags,omitempty"`
	Effects     []EffectDoc `yaml:"effects"`
	Priority    *int        `yaml:"priority,omitempty"`  // default 100
	Stackable   bool        `yaml:"stackable,omitempty"`
	Duration    *int        `yaml:"duration,omitempty"` // default -1 (permanent)
}

type EffectDoc struct {
	Hook      string        `yaml:"hook"`
	Operation string        `yaml:"operation"`
	Value     float64       `yaml:"value"`
	Priority  *int          `yaml:"priority,omitempty"` // default 100
	Condition *ConditionDoc `yaml:"condition,omitempty"`
}

type ConditionDoc struct {
	Type         string  `yaml:"type"`
	Threshold    float64 `yaml:"threshold,omitempty"`
	Flag         string  `yaml:"flag,omitempty"`
	Counter      string  `yaml:"counter,omitempty"`
	ModifierID   string  `yaml:"modifier_id,omitempty"`
	TurnMultiple int     `yaml:"turn_multiple,omitempty"`
}
