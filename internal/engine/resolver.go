package engine

import (
	"math"
	"sort"

	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

// SacrificeChoice selects which sacrifice benefit to take.
type SacrificeChoice int

const (
	SacrificeReduceRisk SacrificeChoice = iota
	SacrificeGainScore
)

// Resolver applies player actions and turn resolution. It is stateless:
// the only thing it holds is the shared read-only registry, so one
// resolver can serve any number of sequential runs.
type Resolver struct {
	registry *modifier.Registry
}

func NewResolver(registry *modifier.Registry) *Resolver {
	return &Resolver{registry: registry}
}

// boundEffect ties an effect to the definition and instance it came from.
type boundEffect struct {
	def    *modifier.Definition
	effect *modifier.Effect
	inst   *modifier.Instance
}

// collectEffects gathers every effect for a hook across active instances
// whose definitions still resolve, ordered by effect priority ascending.
// The sort is stable: equal priorities keep the stored instance order and,
// within an instance, declaration order. Instances with missing
// definitions are skipped and counted, never fatal.
func (r *Resolver) collectEffects(state *RunState, hook modifier.Hook) ([]boundEffect, int) {
	var collected []boundEffect
	skipped := 0

	for _, inst := range state.ActiveModifiers {
		def, ok := r.registry.Get(inst.ModifierID)
		if !ok {
			skipped++
			continue
		}
		for i := range def.Effects {
			if def.Effects[i].Hook == hook {
				collected = append(collected, boundEffect{def: def, effect: &def.Effects[i], inst: inst})
			}
		}
	}

	sort.SliceStable(collected, func(a, b int) bool {
		return collected[a].effect.Priority < collected[b].effect.Priority
	})
	return collected, skipped
}

// Bank secures a portion (25% or 50%) of the at-risk score, minus tax.
// OnBank effects transform the tax rate before it applies.
func (r *Resolver) Bank(state *RunState, percentage float64) ActionResult {
	if state.GameOver {
		return failAction("game is over")
	}
	if state.HasBankedThisTurn {
		return failAction("already banked this turn")
	}
	if state.AtRiskScore <= 0 {
		return failAction("no at-risk score to bank")
	}
	if percentage != 0.25 && percentage != 0.5 {
		return failAction("must bank 25%% or 50%%")
	}

	newState := state.Clone()

	amount := int64(float64(state.AtRiskScore) * percentage)
	taxRate := BankTaxRate

	effects, _ := r.collectEffects(newState, modifier.HookBank)
	for _, be := range effects {
		if !EvaluateCondition(be.effect.Condition, newState) {
			continue
		}
		taxRate = be.effect.Operation.Apply(taxRate, be.effect.Value)
	}
	if taxRate < 0 {
		taxRate = 0
	}
	taxed := int64(float64(amount) * (1 - taxRate))

	newState.AtRiskScore -= amount
	newState.BankedScore += taxed
	newState.HasBankedThisTurn = true
	newState.SetFlag("banked_this_turn")
	newState.IncrementCounter("total_banked", int(taxed))

	return ActionResult{Success: true, NewState: newState, AmountBanked: taxed}
}

// Push trades risk now for a same-turn gain multiplier, up to
// MaxPushStacks per turn. A push that would reach risk 1.0 is rejected
// outright; pushing never busts the run by itself.
func (r *Resolver) Push(state *RunState) ActionResult {
	if state.GameOver {
		return failAction("game is over")
	}
	if state.PushStacksThisTurn >= MaxPushStacks {
		return failAction("already at max push stacks (%d)", MaxPushStacks)
	}

	newState := state.Clone()

	riskCost := PushRiskCost
	effects, _ := r.collectEffects(newState, modifier.HookPush)
	for _, be := range effects {
		if !EvaluateCondition(be.effect.Condition, newState) {
			continue
		}
		riskCost = be.effect.Operation.Apply(riskCost, be.effect.Value)
	}

	if newState.Risk+riskCost >= 1.0 {
		return failAction("push would cause bust")
	}

	newState.Risk += riskCost
	newState.PushStacksThisTurn++
	newState.SetFlag("pushed_this_turn")
	newState.IncrementCounter("pushes_made", 1)

	return ActionResult{Success: true, NewState: newState, RiskAdded: riskCost}
}

// Sacrifice removes an active modifier in exchange for one immediate
// benefit: a risk reduction or a score gain, both rarity-derived and both
// transformed by every OnSacrifice effect before the caller's choice picks
// which one lands.
func (r *Resolver) Sacrifice(state *RunState, modifierID string, choice SacrificeChoice) ActionResult {
	if state.GameOver {
		return failAction("game is over")
	}

	index := state.findModifier(modifierID)
	if index < 0 {
		return failAction("modifier %q not found", modifierID)
	}
	def, ok := r.registry.Get(modifierID)
	if !ok {
		return failAction("modifier definition %q not found", modifierID)
	}

	newState := state.Clone()

	riskReduction := def.Rarity.SacrificeRiskReduction()
	scoreGain := float64(def.Rarity.SacrificeScoreGain())

	// The target is still active here: its own OnSacrifice effects count.
	effects, _ := r.collectEffects(newState, modifier.HookSacrifice)
	for _, be := range effects {
		if !EvaluateCondition(be.effect.Condition, newState) {
			continue
		}
		riskReduction = be.effect.Operation.Apply(riskReduction, be.effect.Value)
		scoreGain = be.effect.Operation.Apply(scoreGain, be.effect.Value)
	}

	newState.ActiveModifiers = append(newState.ActiveModifiers[:index], newState.ActiveModifiers[index+1:]...)

	if choice == SacrificeReduceRisk {
		newState.Risk = math.Max(0, newState.Risk-riskReduction)
	} else {
		newState.AtRiskScore += int64(math.Round(scoreGain))
	}

	newState.SetFlag("sacrificed_this_turn")
	newState.IncrementCounter("sacrifices_made", 1)

	return ActionResult{Success: true, NewState: newState, SacrificedModifierID: modifierID}
}

// Grant adds a modifier to the run mid-flight. Granting a duplicate stacks
// it when the definition allows stacking, otherwise fails.
func (r *Resolver) Grant(state *RunState, modifierID string) ActionResult {
	if state.GameOver {
		return failAction("game is over")
	}
	def, ok := r.registry.Get(modifierID)
	if !ok {
		return failAction("modifier definition %q not found", modifierID)
	}

	if index := state.findModifier(modifierID); index >= 0 {
		if !def.Stackable {
			return failAction("modifier %q is already active and not stackable", modifierID)
		}
		newState := state.Clone()
		newState.ActiveModifiers[index].StackCount++
		return ActionResult{Success: true, NewState: newState, GrantedModifierID: modifierID}
	}

	newState := state.Clone()
	newState.ActiveModifiers = append(newState.ActiveModifiers, modifier.NewInstance(def))
	return ActionResult{Success: true, NewState: newState, GrantedModifierID: modifierID}
}

// CashOut ends the run voluntarily. The final score is the untaxed sum of
// at-risk and banked score; both survive.
func (r *Resolver) CashOut(state *RunState) *RunState {
	newState := state.Clone()
	newState.GameOver = true
	newState.EndReason = EndCashOut
	return newState
}
