package engine_test

import (
	"testing"

	"github.com/xtding233/onemoreturn-backend/internal/engine"
	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

func condState(t *testing.T) *engine.RunState {
	t.Helper()
	state := engine.NewRun(1, []*modifier.Instance{
		{ModifierID: "lucky_coin", StackCount: 1, TurnsRemaining: -1, Counters: map[string]int{}},
	})
	state.Turn = 6
	state.Risk = 0.5
	state.AtRiskScore = 300
	state.BankedScore = 200
	state.SetFlag("pushed_this_turn")
	state.SetCounter("pushes_made", 3)
	return state
}

func TestEvaluateConditionVariants(t *testing.T) {
	state := condState(t)

	cases := []struct {
		name string
		cond *modifier.Condition
		want bool
	}{
		{"nil always true", nil, true},
		{"none", &modifier.Condition{Type: modifier.CondNone}, true},
		{"risk above hit", &modifier.Condition{Type: modifier.CondRiskAbove, Threshold: 0.4}, true},
		{"risk above strict", &modifier.Condition{Type: modifier.CondRiskAbove, Threshold: 0.5}, false},
		{"risk below hit", &modifier.Condition{Type: modifier.CondRiskBelow, Threshold: 0.6}, true},
		{"risk below strict", &modifier.Condition{Type: modifier.CondRiskBelow, Threshold: 0.5}, false},
		{"turn above hit", &modifier.Condition{Type: modifier.CondTurnAbove, Threshold: 5}, true},
		{"turn above strict", &modifier.Condition{Type: modifier.CondTurnAbove, Threshold: 6}, false},
		{"turn below miss", &modifier.Condition{Type: modifier.CondTurnBelow, Threshold: 6}, false},
		{"turn multiple hit", &modifier.Condition{Type: modifier.CondTurnMultiple, TurnMultiple: 3}, true},
		{"turn multiple miss", &modifier.Condition{Type: modifier.CondTurnMultiple, TurnMultiple: 4}, false},
		{"turn multiple zero never", &modifier.Condition{Type: modifier.CondTurnMultiple, TurnMultiple: 0}, false},
		{"flag set hit", &modifier.Condition{Type: modifier.CondFlagSet, Flag: "pushed_this_turn"}, true},
		{"flag set miss", &modifier.Condition{Type: modifier.CondFlagSet, Flag: "banked_this_turn"}, false},
		{"flag set empty name", &modifier.Condition{Type: modifier.CondFlagSet}, false},
		{"flag not set hit", &modifier.Condition{Type: modifier.CondFlagNotSet, Flag: "banked_this_turn"}, true},
		{"flag not set miss", &modifier.Condition{Type: modifier.CondFlagNotSet, Flag: "pushed_this_turn"}, false},
		{"counter above hit", &modifier.Condition{Type: modifier.CondCounterAbove, Counter: "pushes_made", Threshold: 2}, true},
		{"counter above strict", &modifier.Condition{Type: modifier.CondCounterAbove, Counter: "pushes_made", Threshold: 3}, false},
		{"counter below missing counter", &modifier.Condition{Type: modifier.CondCounterBelow, Counter: "nope", Threshold: 1}, true},
		{"has modifier hit", &modifier.Condition{Type: modifier.CondHasModifier, ModifierID: "lucky_coin"}, true},
		{"has modifier miss", &modifier.Condition{Type: modifier.CondHasModifier, ModifierID: "nope"}, false},
		{"score above total", &modifier.Condition{Type: modifier.CondScoreAbove, Threshold: 499}, true},
		{"score above strict", &modifier.Condition{Type: modifier.CondScoreAbove, Threshold: 500}, false},
		{"score below miss", &modifier.Condition{Type: modifier.CondScoreBelow, Threshold: 500}, false},
	}

	for _, tc := range cases {
		if got := engine.EvaluateCondition(tc.cond, state); got != tc.want {
			t.Fatalf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

// Unknown condition variants must evaluate true: malformed content gates
// nothing rather than blocking a run.
func TestEvaluateConditionUnknownTypePermissive(t *testing.T) {
	state := condState(t)
	cond := &modifier.Condition{Type: modifier.ConditionType(99)}
	if !engine.EvaluateCondition(cond, state) {
		t.Fatalf("unknown condition type must default to true")
	}
}
