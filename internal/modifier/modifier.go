// Package modifier holds the static modifier catalog: definitions, their
// effects and conditions, and the runtime instances attached to a run.
// Definitions are immutable once registered; instances are owned by run
// state and cloned with it.
package modifier

// Rarity drives sacrifice payouts.
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityUncommon
	RarityRare
)

func (r Rarity) String() string {
	switch r {
	case RarityCommon:
		return "common"
	case RarityUncommon:
		return "uncommon"
	case RarityRare:
		return "rare"
	default:
		return "unknown"
	}
}

// SacrificeRiskReduction returns the base risk reduction for sacrificing a
// modifier of this rarity. Unknown rarities pay out like common.
func (r Rarity) SacrificeRiskReduction() float64 {
	switch r {
	case RarityUncommon:
		return 0.20
	case RarityRare:
		return 0.30
	default:
		return 0.10
	}
}

// SacrificeScoreGain returns the base score gain for sacrificing a modifier
// of this rarity.
func (r Rarity) SacrificeScoreGain() int64 {
	switch r {
	case RarityUncommon:
		return 150
	case RarityRare:
		return 400
	default:
		return 50
	}
}

// Hook names a point in the turn/action pipeline where effects attach.
type Hook int

const (
	HookPreTurn Hook = iota
	HookComputeGain
	HookComputeRiskDelta
	HookPostTurn
	HookBank
	HookPush
	HookSacrifice
	HookBust
)

func (h Hook) String() string {
	switch h {
	case HookPreTurn:
		return "OnPreTurn"
	case HookComputeGain:
		return "OnComputeGain"
	case HookComputeRiskDelta:
		return "OnComputeRiskDelta"
	case HookPostTurn:
		return "OnPostTurn"
	case HookBank:
		return "OnBank"
	case HookPush:
		return "OnPush"
	case HookSacrifice:
		return "OnSacrifice"
	case HookBust:
		return "OnBust"
	default:
		return "Unknown"
	}
}

// Operation is the numeric transform an effect applies.
type Operation int

const (
	OpAdd Operation = iota
	OpMultiply
	OpSet
	OpAddPercent
)

func (op Operation) String() string {
	switch op {
	case OpAdd:
		return "Add"
	case OpMultiply:
		return "Multiply"
	case OpSet:
		return "Set"
	case OpAddPercent:
		return "AddPercent"
	default:
		return "Unknown"
	}
}

// Apply transforms current by this operation. This one primitive backs tax
// rates, risk costs, gains, risk deltas, and sacrifice payouts alike, so
// the semantics here are shared by every call site.
func (op Operation) Apply(current, value float64) float64 {
	switch op {
	case OpAdd:
		return current + value
	case OpMultiply:
		return current * value
	case OpSet:
		return value
	case OpAddPercent:
		return current + current*value
	default:
		return current
	}
}

// ConditionType tags a condition variant.
type ConditionType int

const (
	CondNone ConditionType = iota
	CondRiskAbove
	CondRiskBelow
	CondTurnAbove
	CondTurnBelow
	CondTurnMultiple
	CondFlagSet
	CondFlagNotSet
	CondCounterAbove
	CondCounterBelow
	CondHasModifier
	CondScoreAbove
	CondScoreBelow
)

// Condition gates a single effect. Only the fields relevant to Type are
// meaningful; the rest stay at their zero values.
type Condition struct {
	Type         ConditionType
	Threshold    float64
	Flag         string
	Counter      string
	ModifierID   string
	TurnMultiple int
}

// Effect is one transform declared by a definition.
type Effect struct {
	Hook      Hook
	Operation Operation
	Value     float64
	Condition *Condition // nil means always applies
	Priority  int        // lower applies earlier; ties keep declaration order
}

// Definition is the static archetype of a modifier. Created once at load
// time, registered, never mutated.
type Definition struct {
	ID          string
	Name        string
	Description string
	Rarity      Rarity
	Tags        []string
	Effects     []Effect
	Priority    int
	Stackable   bool
	Duration    int // turns; negative = permanent
}

// Instance is one acquired copy of a definition, owned by a run. It refers
// to its definition by id so the run state stays self-contained and
// serializable.
type Instance struct {
	ModifierID     string
	StackCount     int
	TurnsRemaining int // negative = permanent
	Counters       map[string]int
}

// NewInstance creates a fresh instance from a definition.
func NewInstance(def *Definition) *Instance {
	return &Instance{
		ModifierID:     def.ID,
		StackCount:     1,
		TurnsRemaining: def.Duration,
		Counters:       make(map[string]int),
	}
}

// Clone deep-copies the instance.
func (in *Instance) Clone() *Instance {
	counters := make(map[string]int, len(in.Counters))
	for k, v := range in.Counters {
		counters[k] = v
	}
	return &Instance{
		ModifierID:     in.ModifierID,
		StackCount:     in.StackCount,
		TurnsRemaining: in.TurnsRemaining,
		Counters:       counters,
	}
}
