package modifier

import (
	"strings"
	"testing"
)

func validDef(id string) *Definition {
	return &Definition{
		ID:          id,
		Name:        "Test " + id,
		Description: "test modifier",
		Rarity:      RarityCommon,
		Effects: []Effect{
			{Hook: HookComputeGain, Operation: OpAdd, Value: 1, Priority: 100},
		},
		Priority: 100,
		Duration: -1,
	}
}

func TestOperationApply(t *testing.T) {
	cases := []struct {
		op      Operation
		current float64
		value   float64
		want    float64
	}{
		{OpAdd, 10, 5, 15},
		{OpAdd, 10, -5, 5},
		{OpMultiply, 10, 2.5, 25},
		{OpMultiply, 10, 0, 0},
		{OpSet, 10, 3, 3},
		{OpAddPercent, 100, 0.5, 150},
		{OpAddPercent, 100, -0.25, 75},
		{Operation(99), 10, 5, 10}, // unknown ops are identity
	}
	for _, tc := range cases {
		if got := tc.op.Apply(tc.current, tc.value); got != tc.want {
			t.Fatalf("%s.Apply(%v, %v) = %v, want %v", tc.op, tc.current, tc.value, got, tc.want)
		}
	}
}

func TestRarityPayouts(t *testing.T) {
	if got := RarityCommon.SacrificeRiskReduction(); got != 0.10 {
		t.Fatalf("common risk reduction = %v, want 0.10", got)
	}
	if got := RarityUncommon.SacrificeRiskReduction(); got != 0.20 {
		t.Fatalf("uncommon risk reduction = %v, want 0.20", got)
	}
	if got := RarityRare.SacrificeRiskReduction(); got != 0.30 {
		t.Fatalf("rare risk reduction = %v, want 0.30", got)
	}
	if got := RarityCommon.SacrificeScoreGain(); got != 50 {
		t.Fatalf("common score gain = %v, want 50", got)
	}
	if got := RarityUncommon.SacrificeScoreGain(); got != 150 {
		t.Fatalf("uncommon score gain = %v, want 150", got)
	}
	if got := RarityRare.SacrificeScoreGain(); got != 400 {
		t.Fatalf("rare score gain = %v, want 400", got)
	}
	// unknown rarity pays out like common
	if got := Rarity(99).SacrificeRiskReduction(); got != 0.10 {
		t.Fatalf("unknown rarity risk reduction = %v, want common 0.10", got)
	}
	if got := Rarity(99).SacrificeScoreGain(); got != 50 {
		t.Fatalf("unknown rarity score gain = %v, want common 50", got)
	}
}

func TestInstanceClone(t *testing.T) {
	def := validDef("coin")
	def.Duration = 3

	inst := NewInstance(def)
	if inst.ModifierID != "coin" || inst.StackCount != 1 || inst.TurnsRemaining != 3 {
		t.Fatalf("unexpected fresh instance: %+v", inst)
	}

	inst.Counters["uses"] = 2
	clone := inst.Clone()
	clone.StackCount = 5
	clone.Counters["uses"] = 9

	if inst.StackCount != 1 || inst.Counters["uses"] != 2 {
		t.Fatalf("clone shares state with original: %+v", inst)
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	registry := NewRegistry()
	first := validDef("coin")
	second := validDef("coin")
	second.Name = "Replacement"

	registry.Register(first)
	registry.Register(second)

	if registry.Len() != 1 {
		t.Fatalf("len = %d, want 1", registry.Len())
	}
	def, ok := registry.Get("coin")
	if !ok || def.Name != "Replacement" {
		t.Fatalf("got %+v, want the replacement", def)
	}
}

func TestRegistryPreservesOrder(t *testing.T) {
	registry := NewRegistry()
	ids := []string{"zeta", "alpha", "mid"}
	for _, id := range ids {
		registry.Register(validDef(id))
	}
	// re-registering must not move the id
	registry.Register(validDef("zeta"))

	all := registry.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, id := range ids {
		if all[i].ID != id {
			t.Fatalf("all[%d] = %q, want %q", i, all[i].ID, id)
		}
	}
}

func TestRegistryByRarity(t *testing.T) {
	registry := NewRegistry()
	common := validDef("coin")
	rare := validDef("crown")
	rare.Rarity = RarityRare
	registry.RegisterAll([]*Definition{common, rare})

	rares := registry.ByRarity(RarityRare)
	if len(rares) != 1 || rares[0].ID != "crown" {
		t.Fatalf("by rarity = %+v, want crown only", rares)
	}
	if _, ok := registry.Get("ghost"); ok {
		t.Fatalf("lookup of unknown id succeeded")
	}
}

func TestValidateDefinitionOK(t *testing.T) {
	if err := ValidateDefinition(validDef("coin")); err != nil {
		t.Fatalf("valid definition rejected: %v", err)
	}
}

func TestValidateDefinitionErrors(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Definition)
		want   string
	}{
		{"missing id", func(d *Definition) { d.ID = " " }, "id is required"},
		{"missing name", func(d *Definition) { d.Name = "" }, "name is required"},
		{"missing description", func(d *Definition) { d.Description = "" }, "description is required"},
		{"no effects", func(d *Definition) { d.Effects = nil }, "at least one effect"},
		{"zero duration", func(d *Definition) { d.Duration = 0 }, "duration cannot be 0"},
		{"bust without set", func(d *Definition) {
			d.Effects = []Effect{{Hook: HookBust, Operation: OpAdd, Value: 0.5}}
		}, "must use Set"},
		{"bust value out of range", func(d *Definition) {
			d.Effects = []Effect{{Hook: HookBust, Operation: OpSet, Value: 1.0}}
		}, "must be in [0,1)"},
		{"risk threshold out of range", func(d *Definition) {
			d.Effects[0].Condition = &Condition{Type: CondRiskAbove, Threshold: 1.5}
		}, "risk threshold"},
		{"flag condition without flag", func(d *Definition) {
			d.Effects[0].Condition = &Condition{Type: CondFlagSet}
		}, "flag name is required"},
		{"counter condition without counter", func(d *Definition) {
			d.Effects[0].Condition = &Condition{Type: CondCounterAbove, Threshold: 2}
		}, "counter name is required"},
		{"has-modifier condition without id", func(d *Definition) {
			d.Effects[0].Condition = &Condition{Type: CondHasModifier}
		}, "modifier id is required"},
		{"non-positive turn multiple", func(d *Definition) {
			d.Effects[0].Condition = &Condition{Type: CondTurnMultiple, TurnMultiple: 0}
		}, "turn multiple must be positive"},
	}
	for _, tc := range cases {
		def := validDef("coin")
		tc.mutate(def)
		err := ValidateDefinition(def)
		if err == nil {
			t.Fatalf("%s: validation passed", tc.name)
		}
		if !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s: error %q does not mention %q", tc.name, err, tc.want)
		}
	}
}

func TestValidateAllReportsDuplicatesAndCollects(t *testing.T) {
	a := validDef("coin")
	b := validDef("coin")
	c := validDef("broken")
	c.Description = ""

	err := ValidateAll([]*Definition{a, b, c})
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(err.Error(), "duplicate modifier id: coin") {
		t.Fatalf("error %q does not report the duplicate", err)
	}
	if !strings.Contains(err.Error(), "description is required") {
		t.Fatalf("error %q does not collect the second problem", err)
	}

	if err := ValidateAll([]*Definition{validDef("a"), validDef("b")}); err != nil {
		t.Fatalf("valid set rejected: %v", err)
	}
}
