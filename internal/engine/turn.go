package engine

import (
	"errors"
	"fmt"
	"math"

	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

// ErrRunOver reports a ResolveTurn call against a terminal state. That is
// a caller bug: actions on a finished run fail as values, but resolving a
// turn there means the orchestrator lost track of the run's status.
var ErrRunOver = errors.New("engine: cannot resolve turn on a finished run")

// ResolveTurn advances the run by one turn: pre-turn hooks, base gain and
// risk delta from the pre-increment turn number, push multiplier, the
// gain and risk effect pipelines, state application, bust check with
// one-shot prevention, post-turn hooks, expiry, and turn increment.
func (r *Resolver) ResolveTurn(state *RunState) (*RunState, TurnResult, error) {
	if state.GameOver {
		return nil, TurnResult{}, ErrRunOver
	}

	newState := state.Clone()
	result := TurnResult{TurnNumber: state.Turn, PushMultiplier: 1.0}

	// Step 1: clear per-turn flags. Per-turn counters were carried over by
	// the clone and reset at the end of the previous resolution.
	newState.ClearFlag("banked_this_turn")
	newState.ClearFlag("pushed_this_turn")
	newState.ClearFlag("sacrificed_this_turn")

	// Step 2: pre-turn hooks. Setup-only in the current rule set, but the
	// traversal runs so content that reads flags or counters keeps working.
	r.runSetupHooks(newState, modifier.HookPreTurn)

	// Step 3: base values from the pre-increment turn number.
	result.BaseGain = baseGain(newState.Turn)
	result.BaseRiskDelta = baseRiskDelta(newState.Turn)

	// Step 4: push multiplier on top of the base gain.
	result.PushMultiplier = 1.0 + float64(newState.PushStacksThisTurn)*PushGainBonus
	currentGain := float64(result.BaseGain) * result.PushMultiplier

	result.GainContributions = append(result.GainContributions, EffectContribution{
		SourceName: "Base",
		Operation:  modifier.OpSet,
		Value:      float64(result.BaseGain),
		After:      float64(result.BaseGain),
	})
	if newState.PushStacksThisTurn > 0 {
		result.GainContributions = append(result.GainContributions, EffectContribution{
			SourceName: fmt.Sprintf("Push x%d", newState.PushStacksThisTurn),
			Operation:  modifier.OpMultiply,
			Value:      result.PushMultiplier,
			Before:     float64(result.BaseGain),
			After:      currentGain,
		})
	}

	// Step 5: gain pipeline.
	var skipped int
	currentGain, skipped = r.applyValuePipeline(newState, modifier.HookComputeGain, currentGain, &result.GainContributions)
	result.SkippedInstances = skipped
	result.FinalGain = int64(math.Max(0, currentGain))

	// Step 6: risk delta pipeline.
	currentRisk := result.BaseRiskDelta
	result.RiskContributions = append(result.RiskContributions, EffectContribution{
		SourceName: "Base",
		Operation:  modifier.OpSet,
		Value:      result.BaseRiskDelta,
		After:      result.BaseRiskDelta,
	})
	currentRisk, _ = r.applyValuePipeline(newState, modifier.HookComputeRiskDelta, currentRisk, &result.RiskContributions)
	result.FinalRiskDelta = currentRisk

	// Step 7: apply to the clone.
	newState.AtRiskScore += result.FinalGain
	newState.Risk += result.FinalRiskDelta
	newState.Risk = clamp01(newState.Risk)

	result.AtRiskScoreAfter = newState.AtRiskScore
	result.BankedScoreAfter = newState.BankedScore
	result.RiskAfter = newState.Risk

	// Step 8: bust check.
	if newState.Risk >= 1.0 {
		result.BustPrevented = r.tryPreventBust(newState)
		if !result.BustPrevented {
			result.DidBust = true
			newState.AtRiskScore = 0
			newState.GameOver = true
			newState.EndReason = EndBust
			result.AtRiskScoreAfter = 0
			result.RiskAfter = newState.Risk
		} else {
			result.RiskAfter = newState.Risk
		}
	}

	// Step 9: end-of-turn bookkeeping, skipped when the run just ended.
	if !newState.GameOver {
		r.runSetupHooks(newState, modifier.HookPostTurn)
		expireModifiers(newState)
		newState.Turn++
		newState.HasBankedThisTurn = false
		newState.PushStacksThisTurn = 0
		newState.ClearFlag(FlagFirstTurn)
	}

	return newState, result, nil
}

// baseGain follows the engine's rounding rule: half rounds away from zero,
// so turn 1 gives round(11.5) = 12.
func baseGain(turn int) int64 {
	return int64(math.Round(10 * (1 + float64(turn)*0.15)))
}

func baseRiskDelta(turn int) float64 {
	return 0.03 + float64(turn)*0.002
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// applyValuePipeline runs the ordered, condition-gated effect pipeline for
// one hook over a numeric value, recording a contribution per applied
// effect. Effect values scale with the owning instance's stack count.
// Conditions see the state as already mutated by earlier effects in the
// same pass, so ordering dependence is intentional and available to
// content.
func (r *Resolver) applyValuePipeline(state *RunState, hook modifier.Hook, current float64, contributions *[]EffectContribution) (float64, int) {
	effects, skipped := r.collectEffects(state, hook)

	for _, be := range effects {
		if !EvaluateCondition(be.effect.Condition, state) {
			continue
		}
		value := be.effect.Value * float64(be.inst.StackCount)
		before := current
		current = be.effect.Operation.Apply(current, value)

		*contributions = append(*contributions, EffectContribution{
			SourceID:   be.def.ID,
			SourceName: be.def.Name,
			Operation:  be.effect.Operation,
			Value:      value,
			Before:     before,
			After:      current,
		})
	}
	return current, skipped
}

// runSetupHooks executes the condition-gated traversal for the reserved
// pre/post-turn hooks. The current rule set attaches no numeric output
// here.
func (r *Resolver) runSetupHooks(state *RunState, hook modifier.Hook) {
	effects, _ := r.collectEffects(state, hook)
	for _, be := range effects {
		if !EvaluateCondition(be.effect.Condition, state) {
			continue
		}
		_ = be
	}
}

// tryPreventBust scans the priority-ordered OnBust effects for the first
// condition-passing Set; it rewrites risk to that literal value and
// consumes the owning instance. Returns false when nothing prevented the
// bust.
func (r *Resolver) tryPreventBust(state *RunState) bool {
	effects, _ := r.collectEffects(state, modifier.HookBust)
	for _, be := range effects {
		if !EvaluateCondition(be.effect.Condition, state) {
			continue
		}
		if be.effect.Operation != modifier.OpSet {
			continue
		}
		state.Risk = be.effect.Value
		removeInstance(state, be.inst)
		return true
	}
	return false
}

func removeInstance(state *RunState, target *modifier.Instance) {
	for i, inst := range state.ActiveModifiers {
		if inst == target {
			state.ActiveModifiers = append(state.ActiveModifiers[:i], state.ActiveModifiers[i+1:]...)
			return
		}
	}
}

// expireModifiers decrements positive remaining-turn counts and removes
// instances that reach zero. Permanent instances (negative count) are
// never touched.
func expireModifiers(state *RunState) {
	for i := len(state.ActiveModifiers) - 1; i >= 0; i-- {
		inst := state.ActiveModifiers[i]
		if inst.TurnsRemaining > 0 {
			inst.TurnsRemaining--
			if inst.TurnsRemaining == 0 {
				state.ActiveModifiers = append(state.ActiveModifiers[:i], state.ActiveModifiers[i+1:]...)
			}
		}
	}
}
