package engine

import "github.com/xtding233/onemoreturn-backend/internal/modifier"

// Tuning constants for the base rule set.
const (
	MaxPushStacks = 2
	PushRiskCost  = 0.15
	PushGainBonus = 1.0 // +100% gain per push stack
	BankTaxRate   = 0.20
)

// EndReason records how a run ended.
type EndReason int

const (
	EndNone EndReason = iota
	EndBust
	EndCashOut
)

func (r EndReason) String() string {
	switch r {
	case EndBust:
		return "bust"
	case EndCashOut:
		return "cash_out"
	default:
		return "none"
	}
}

// FlagFirstTurn is set on a fresh run and cleared after the first resolved
// turn.
const FlagFirstTurn = "first_turn"

// RunState is the complete snapshot of one run. The resolver clones it on
// every transition, so previous states remain valid history entries.
type RunState struct {
	Seed int64
	Turn int
	Risk float64 // always in [0,1]
	Rand *SeededRand

	AtRiskScore int64
	BankedScore int64

	// Per-turn action tracking, reset by turn resolution.
	HasBankedThisTurn  bool
	PushStacksThisTurn int

	ActiveModifiers []*modifier.Instance

	Counters map[string]int
	Flags    map[string]bool

	GameOver  bool
	EndReason EndReason
}

// NewRun creates a fresh run at turn 1 with zero risk and score. The
// starting modifiers slice is taken over by the state (callers hand over
// ownership, e.g. draft picks).
func NewRun(seed int64, startingModifiers []*modifier.Instance) *RunState {
	if startingModifiers == nil {
		startingModifiers = []*modifier.Instance{}
	}
	return &RunState{
		Seed:            seed,
		Turn:            1,
		Rand:            NewSeededRand(seed),
		ActiveModifiers: startingModifiers,
		Counters:        make(map[string]int),
		Flags:           map[string]bool{FlagFirstTurn: true},
	}
}

// Clone deep-copies the state, including every modifier instance and the
// random source position.
func (s *RunState) Clone() *RunState {
	mods := make([]*modifier.Instance, len(s.ActiveModifiers))
	for i, inst := range s.ActiveModifiers {
		mods[i] = inst.Clone()
	}
	counters := make(map[string]int, len(s.Counters))
	for k, v := range s.Counters {
		counters[k] = v
	}
	flags := make(map[string]bool, len(s.Flags))
	for k, v := range s.Flags {
		flags[k] = v
	}
	return &RunState{
		Seed:               s.Seed,
		Turn:               s.Turn,
		Risk:               s.Risk,
		Rand:               s.Rand.Clone(),
		AtRiskScore:        s.AtRiskScore,
		BankedScore:        s.BankedScore,
		HasBankedThisTurn:  s.HasBankedThisTurn,
		PushStacksThisTurn: s.PushStacksThisTurn,
		ActiveModifiers:    mods,
		Counters:           counters,
		Flags:              flags,
		GameOver:           s.GameOver,
		EndReason:          s.EndReason,
	}
}

// TotalScore is the run's score if it ended right now.
func (s *RunState) TotalScore() int64 {
	return s.AtRiskScore + s.BankedScore
}

func (s *RunState) Counter(name string) int {
	return s.Counters[name]
}

func (s *RunState) SetCounter(name string, value int) {
	s.Counters[name] = value
}

func (s *RunState) IncrementCounter(name string, delta int) {
	s.Counters[name] += delta
}

func (s *RunState) HasFlag(flag string) bool {
	return s.Flags[flag]
}

func (s *RunState) SetFlag(flag string) {
	s.Flags[flag] = true
}

func (s *RunState) ClearFlag(flag string) {
	delete(s.Flags, flag)
}

// HasModifier reports whether any active instance references the id.
func (s *RunState) HasModifier(modifierID string) bool {
	for _, inst := range s.ActiveModifiers {
		if inst.ModifierID == modifierID {
			return true
		}
	}
	return false
}

func (s *RunState) findModifier(modifierID string) int {
	for i, inst := range s.ActiveModifiers {
		if inst.ModifierID == modifierID {
			return i
		}
	}
	return -1
}
