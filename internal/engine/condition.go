package engine

import "github.com/xtding233/onemoreturn-backend/internal/modifier"

// EvaluateCondition reports whether a condition holds against the state.
// A nil condition always holds. Threshold comparisons are strict. Unknown
// variants evaluate true on purpose: malformed content gates nothing
// rather than blocking a run.
func EvaluateCondition(cond *modifier.Condition, state *RunState) bool {
	if cond == nil {
		return true
	}

	switch cond.Type {
	case modifier.CondNone:
		return true
	case modifier.CondRiskAbove:
		return state.Risk > cond.Threshold
	case modifier.CondRiskBelow:
		return state.Risk < cond.Threshold
	case modifier.CondTurnAbove:
		return float64(state.Turn) > cond.Threshold
	case modifier.CondTurnBelow:
		return float64(state.Turn) < cond.Threshold
	case modifier.CondTurnMultiple:
		// Multiple-of-zero is never satisfied; guards the modulo below.
		return cond.TurnMultiple > 0 && state.Turn%cond.TurnMultiple == 0
	case modifier.CondFlagSet:
		return cond.Flag != "" && state.HasFlag(cond.Flag)
	case modifier.CondFlagNotSet:
		return cond.Flag == "" || !state.HasFlag(cond.Flag)
	case modifier.CondCounterAbove:
		return float64(state.Counter(cond.Counter)) > cond.Threshold
	case modifier.CondCounterBelow:
		return float64(state.Counter(cond.Counter)) < cond.Threshold
	case modifier.CondHasModifier:
		return cond.ModifierID != "" && state.HasModifier(cond.ModifierID)
	case modifier.CondScoreAbove:
		return state.TotalScore() > int64(cond.Threshold)
	case modifier.CondScoreBelow:
		return state.TotalScore() < int64(cond.Threshold)
	default:
		return true
	}
}
