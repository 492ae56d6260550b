package modifier

import (
	"fmt"
	"strings"
)

// ValidateDefinition checks semantic constraints of a single definition.
func ValidateDefinition(def *Definition) error {
	errs := validateDefinition(def)
	if len(errs) > 0 {
		return fmt.Errorf("modifier validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ValidateAll checks every definition plus cross-definition constraints
// (duplicate ids). All problems are reported in one error.
func ValidateAll(defs []*Definition) error {
	var errs []string
	seen := make(map[string]bool)

	for _, def := range defs {
		if def != nil && def.ID != "" {
			if seen[def.ID] {
				errs = append(errs, fmt.Sprintf("duplicate modifier id: %s", def.ID))
			}
			seen[def.ID] = true
		}
		errs = append(errs, validateDefinition(def)...)
	}

	if len(errs) > 0 {
		return fmt.Errorf("modifier validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDefinition(def *Definition) []string {
	if def == nil {
		return []string{"modifier definition is nil"}
	}

	var errs []string
	if strings.TrimSpace(def.ID) == "" {
		errs = append(errs, "modifier id is required")
	}
	if strings.TrimSpace(def.Name) == "" {
		errs = append(errs, fmt.Sprintf("[%s] name is required", def.ID))
	}
	if strings.TrimSpace(def.Description) == "" {
		errs = append(errs, fmt.Sprintf("[%s] description is required", def.ID))
	}
	if len(def.Effects) == 0 {
		errs = append(errs, fmt.Sprintf("[%s] must have at least one effect", def.ID))
	}
	for i := range def.Effects {
		errs = append(errs, validateEffect(def.ID, i, &def.Effects[i])...)
	}
	if def.Duration == 0 {
		errs = append(errs, fmt.Sprintf("[%s] duration cannot be 0 (use -1 for permanent)", def.ID))
	}
	return errs
}

func validateEffect(modID string, index int, effect *Effect) []string {
	prefix := fmt.Sprintf("[%s] effect %d:", modID, index)

	var errs []string
	switch effect.Hook {
	case HookBust:
		// Bust prevention sets risk to a literal value, so it must stay a
		// valid non-busting risk.
		if effect.Operation != OpSet {
			errs = append(errs, prefix+" OnBust hook must use Set operation")
		}
		if effect.Value < 0 || effect.Value >= 1 {
			errs = append(errs, prefix+" OnBust value must be in [0,1)")
		}
	}

	if effect.Condition != nil {
		errs = append(errs, validateCondition(prefix, effect.Condition)...)
	}
	return errs
}

func validateCondition(prefix string, cond *Condition) []string {
	var errs []string
	switch cond.Type {
	case CondRiskAbove, CondRiskBelow:
		if cond.Threshold < 0 || cond.Threshold > 1 {
			errs = append(errs, prefix+" risk threshold must be in [0,1]")
		}
	case CondFlagSet, CondFlagNotSet:
		if strings.TrimSpace(cond.Flag) == "" {
			errs = append(errs, prefix+" flag name is required")
		}
	case CondCounterAbove, CondCounterBelow:
		if strings.TrimSpace(cond.Counter) == "" {
			errs = append(errs, prefix+" counter name is required")
		}
	case CondHasModifier:
		if strings.TrimSpace(cond.ModifierID) == "" {
			errs = append(errs, prefix+" modifier id is required")
		}
	case CondTurnMultiple:
		if cond.TurnMultiple <= 0 {
			errs = append(errs, prefix+" turn multiple must be positive")
		}
	}
	return errs
}
