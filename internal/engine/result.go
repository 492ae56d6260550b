package engine

import (
	"fmt"

	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

// EffectContribution records one step of a computed value's breakdown:
// either the base rule or a single applied effect, with before/after
// values so a UI can explain the final number.
type EffectContribution struct {
	SourceID   string // empty for base contributions
	SourceName string
	Operation  modifier.Operation
	Value      float64
	Before     float64
	After      float64
}

// Display renders the contribution the way a breakdown list shows it.
func (c EffectContribution) Display() string {
	switch c.Operation {
	case modifier.OpAdd:
		return fmt.Sprintf("+%.2f", c.Value)
	case modifier.OpMultiply:
		return fmt.Sprintf("x%.2f", c.Value)
	case modifier.OpSet:
		return fmt.Sprintf("=%.2f", c.Value)
	case modifier.OpAddPercent:
		return fmt.Sprintf("+%.1f%%", c.Value*100)
	default:
		return fmt.Sprintf("%.2f", c.Value)
	}
}

// TurnResult reports everything a single turn resolution computed. Created
// fresh per call, consumed by the caller, never stored in run state.
type TurnResult struct {
	TurnNumber int

	BaseGain          int64
	PushMultiplier    float64
	FinalGain         int64
	GainContributions []EffectContribution

	BaseRiskDelta     float64
	FinalRiskDelta    float64
	RiskContributions []EffectContribution

	RiskAfter        float64
	AtRiskScoreAfter int64
	BankedScoreAfter int64

	DidBust       bool
	BustPrevented bool

	// SkippedInstances counts active instances whose definitions were
	// missing from the registry during this resolution. The turn still
	// resolves; this is the diagnostic surface for misconfigured content.
	SkippedInstances int
}

// ActionResult reports a player action. Failed actions are expected
// outcomes, not errors: Success is false, FailureReason says why, and
// NewState is nil (the input state is untouched).
type ActionResult struct {
	Success       bool
	FailureReason string
	NewState      *RunState

	// Action-specific payloads.
	AmountBanked         int64   // Bank
	RiskAdded            float64 // Push
	SacrificedModifierID string  // Sacrifice
	GrantedModifierID    string  // Grant
}

func failAction(format string, args ...any) ActionResult {
	return ActionResult{FailureReason: fmt.Sprintf(format, args...)}
}
