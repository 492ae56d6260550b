// Package content loads modifier catalogs from YAML and turns them into
// validated definitions. The engine never sees raw text: everything it
// receives has already passed through ParseCatalog and the modifier
// validator.
package content

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

const defaultPriority = 100

// LoadFile reads one YAML catalog and returns its validated definitions.
func LoadFile(path string) ([]*modifier.Definition, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	var file CatalogFile
	if err := yaml.Unmarshal(b, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", filepath.Base(path), err)
	}
	defs, err := ParseCatalog(file)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", filepath.Base(path), err)
	}
	return defs, nil
}

// LoadDir loads every .yaml/.yml file in a directory, in name order, and
// validates the combined catalog (duplicate ids across files are errors).
func LoadDir(dir string) ([]*modifier.Definition, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read catalog dir: %w", err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if ext == ".yaml" || ext == ".yml" {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	var all []*modifier.Definition
	for _, name := range names {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog: %w", err)
		}
		var file CatalogFile
		if err := yaml.Unmarshal(b, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", name, err)
		}
		defs, err := convertCatalog(file)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %w", name, err)
		}
		all = append(all, defs...)
	}

	if err := modifier.ValidateAll(all); err != nil {
		return nil, err
	}
	return all, nil
}

// ParseCatalog converts one decoded catalog into validated definitions.
func ParseCatalog(file CatalogFile) ([]*modifier.Definition, error) {
	defs, err := convertCatalog(file)
	if err != nil {
		return nil, err
	}
	if err := modifier.ValidateAll(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

func convertCatalog(file CatalogFile) ([]*modifier.Definition, error) {
	defs := make([]*modifier.Definition, 0, len(file.Modifiers))
	for i := range file.Modifiers {
		def, err := convertModifier(&file.Modifiers[i])
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func convertModifier(doc *ModifierDoc) (*modifier.Definition, error) {
	rarity, err := parseRarity(doc.Rarity)
	if err != nil {
		return nil, fmt.Errorf("[%s] %w", doc.ID, err)
	}

	effects := make([]modifier.Effect, 0, len(doc.Effects))
	for i := range doc.Effects {
		effect, err := convertEffect(&doc.Effects[i])
		if err != nil {
			return nil, fmt.Errorf("[%s] effect %d: %w", doc.ID, i, err)
		}
		effects = append(effects, effect)
	}

	return &modifier.Definition{
		ID:          doc.ID,
		Name:        doc.Name,
		Description: doc.Description,
		Rarity:      rarity,
		Tags:        doc.Tags,
		Effects:     effects,
		Priority:    intOr(doc.Priority, defaultPriority),
		Stackable:   doc.Stackable,
		Duration:    intOr(doc.Duration, -1),
	}, nil
}

func convertEffect(doc *EffectDoc) (modifier.Effect, error) {
	hook, err := parseHook(doc.Hook)
	if err != nil {
		return modifier.Effect{}, err
	}
	op, err := parseOperation(doc.Operation)
	if err != nil {
		return modifier.Effect{}, err
	}

	var cond *modifier.Condition
	if doc.Condition != nil {
		cond = &modifier.Condition{
			Type:         parseConditionType(doc.Condition.Type),
			Threshold:    doc.Condition.Threshold,
			Flag:         doc.Condition.Flag,
			Counter:      doc.Condition.Counter,
			ModifierID:   doc.Condition.ModifierID,
			TurnMultiple: doc.Condition.TurnMultiple,
		}
	}

	return modifier.Effect{
		Hook:      hook,
		Operation: op,
		Value:     doc.Value,
		Condition: cond,
		Priority:  intOr(doc.Priority, defaultPriority),
	}, nil
}

func intOr(p *int, fallback int) int {
	if p == nil {
		return fallback
	}
	return *p
}

func parseRarity(s string) (modifier.Rarity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "common":
		return modifier.RarityCommon, nil
	case "uncommon":
		return modifier.RarityUncommon, nil
	case "rare":
		return modifier.RarityRare, nil
	default:
		return modifier.RarityCommon, fmt.Errorf("unknown rarity %q", s)
	}
}

func parseHook(s string) (modifier.Hook, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "onpreturn":
		return modifier.HookPreTurn, nil
	case "oncomputegain":
		return modifier.HookComputeGain, nil
	case "oncomputeriskdelta":
		return modifier.HookComputeRiskDelta, nil
	case "onpostturn":
		return modifier.HookPostTurn, nil
	case "onbank":
		return modifier.HookBank, nil
	case "onpush":
		return modifier.HookPush, nil
	case "onsacrifice":
		return modifier.HookSacrifice, nil
	case "onbust":
		return modifier.HookBust, nil
	default:
		return 0, fmt.Errorf("unknown hook %q", s)
	}
}

func parseOperation(s string) (modifier.Operation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "add":
		return modifier.OpAdd, nil
	case "multiply":
		return modifier.OpMultiply, nil
	case "set":
		return modifier.OpSet, nil
	case "addpercent":
		return modifier.OpAddPercent, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", s)
	}
}

// parseConditionType is permissive: an unknown type maps to CondNone,
// which always evaluates true. Malformed conditions gate nothing instead
// of blocking a catalog.
func parseConditionType(s string) modifier.ConditionType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "riskabove":
		return modifier.CondRiskAbove
	case "riskbelow":
		return modifier.CondRiskBelow
	case "turnabove":
		return modifier.CondTurnAbove
	case "turnbelow":
		return modifier.CondTurnBelow
	case "turnmultiple":
		return modifier.CondTurnMultiple
	case "flagset":
		return modifier.CondFlagSet
	case "flagnotset":
		return modifier.CondFlagNotSet
	case "counterabove":
		return modifier.CondCounterAbove
	case "counterbelow":
		return modifier.CondCounterBelow
	case "hasmodifier":
		return modifier.CondHasModifier
	case "scoreabove":
		return modifier.CondScoreAbove
	case "scorebelow":
		return modifier.CondScoreBelow
	default:
		return modifier.CondNone
	}
}
