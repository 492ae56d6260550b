package content

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xtding233/onemoreturn-backend/internal/modifier"
)

func writeCatalog(t *testing.T, dir, name, body string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

const luckyCoinYAML = `modifiers:
  - id: lucky_coin
    name: Lucky Coin
    description: Adds a flat bonus to every gain.
    rarity: common
    effects:
      - hook: OnComputeGain
        operation: Add
        value: 5
`

func TestLoadFileDefaults(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "base.yaml", luckyCoinYAML)

	defs, err := LoadFile(filepath.Join(dir, "base.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(defs) != 1 {
		t.Fatalf("defs = %d, want 1", len(defs))
	}

	def := defs[0]
	if def.ID != "lucky_coin" || def.Rarity != modifier.RarityCommon {
		t.Fatalf("unexpected definition: %+v", def)
	}
	if def.Priority != 100 {
		t.Fatalf("priority = %d, want default 100", def.Priority)
	}
	if def.Duration != -1 {
		t.Fatalf("duration = %d, want default -1", def.Duration)
	}
	if def.Stackable {
		t.Fatalf("stackable defaulted to true")
	}
	if len(def.Effects) != 1 {
		t.Fatalf("effects = %d, want 1", len(def.Effects))
	}
	eff := def.Effects[0]
	if eff.Hook != modifier.HookComputeGain || eff.Operation != modifier.OpAdd || eff.Value != 5 {
		t.Fatalf("unexpected effect: %+v", eff)
	}
	if eff.Priority != 100 {
		t.Fatalf("effect priority = %d, want default 100", eff.Priority)
	}
	if eff.Condition != nil {
		t.Fatalf("absent condition decoded as %+v", eff.Condition)
	}
}

func TestLoadFileFullFields(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "full.yaml", `modifiers:
  - id: panic_button
    name: Panic Button
    description: Halves risk growth when already in danger.
    rarity: Rare
    tags: [defense, clutch]
    priority: 50
    stackable: true
    duration: 3
    effects:
      - hook: onComputeRiskDelta
        operation: multiply
        value: 0.5
        priority: 10
        condition:
          type: RiskAbove
          threshold: 0.6
`)

	defs, err := LoadFile(filepath.Join(dir, "full.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	def := defs[0]
	if def.Rarity != modifier.RarityRare {
		t.Fatalf("rarity = %v, want rare (case-insensitive)", def.Rarity)
	}
	if def.Priority != 50 || !def.Stackable || def.Duration != 3 {
		t.Fatalf("scalar fields not honored: %+v", def)
	}
	if len(def.Tags) != 2 || def.Tags[0] != "defense" {
		t.Fatalf("tags = %v", def.Tags)
	}
	eff := def.Effects[0]
	if eff.Hook != modifier.HookComputeRiskDelta || eff.Operation != modifier.OpMultiply {
		t.Fatalf("hooks/operations not parsed case-insensitively: %+v", eff)
	}
	if eff.Priority != 10 {
		t.Fatalf("effect priority = %d, want 10", eff.Priority)
	}
	if eff.Condition == nil || eff.Condition.Type != modifier.CondRiskAbove || eff.Condition.Threshold != 0.6 {
		t.Fatalf("condition not decoded: %+v", eff.Condition)
	}
}

func TestLoadFileRejectsUnknownHook(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "bad.yaml", `modifiers:
  - id: broken
    name: Broken
    description: Bad hook name.
    effects:
      - hook: OnTeleport
        operation: Add
        value: 1
`)

	_, err := LoadFile(filepath.Join(dir, "bad.yaml"))
	if err == nil || !strings.Contains(err.Error(), "unknown hook") {
		t.Fatalf("err = %v, want unknown hook", err)
	}
}

func TestLoadFileRejectsUnknownOperationAndRarity(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "op.yaml", `modifiers:
  - id: broken
    name: Broken
    description: Bad operation.
    effects:
      - hook: OnComputeGain
        operation: Divide
        value: 2
`)
	if _, err := LoadFile(filepath.Join(dir, "op.yaml")); err == nil || !strings.Contains(err.Error(), "unknown operation") {
		t.Fatalf("err = %v, want unknown operation", err)
	}

	writeCatalog(t, dir, "rarity.yaml", `modifiers:
  - id: broken
    name: Broken
    description: Bad rarity.
    rarity: mythic
    effects:
      - hook: OnComputeGain
        operation: Add
        value: 2
`)
	if _, err := LoadFile(filepath.Join(dir, "rarity.yaml")); err == nil || !strings.Contains(err.Error(), "unknown rarity") {
		t.Fatalf("err = %v, want unknown rarity", err)
	}
}

func TestUnknownConditionTypeIsPermissive(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "cond.yaml", `modifiers:
  - id: odd
    name: Odd
    description: Condition type nobody knows.
    effects:
      - hook: OnComputeGain
        operation: Add
        value: 1
        condition:
          type: MoonPhase
`)

	defs, err := LoadFile(filepath.Join(dir, "cond.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	cond := defs[0].Effects[0].Condition
	if cond == nil || cond.Type != modifier.CondNone {
		t.Fatalf("unknown condition type = %+v, want CondNone", cond)
	}
}

func TestLoadDirMergesInNameOrder(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "b_second.yaml", `modifiers:
  - id: second
    name: Second
    description: Loaded after a_first.
    effects:
      - hook: OnComputeGain
        operation: Add
        value: 1
`)
	writeCatalog(t, dir, "a_first.yml", `modifiers:
  - id: first
    name: First
    description: Loaded before b_second.
    effects:
      - hook: OnComputeGain
        operation: Add
        value: 1
`)
	writeCatalog(t, dir, "notes.txt", "ignored")

	defs, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("load dir: %v", err)
	}
	if len(defs) != 2 {
		t.Fatalf("defs = %d, want 2", len(defs))
	}
	if defs[0].ID != "first" || defs[1].ID != "second" {
		t.Fatalf("order = %s, %s; want first, second", defs[0].ID, defs[1].ID)
	}
}

func TestLoadDirRejectsDuplicateAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeCatalog(t, dir, "a.yaml", luckyCoinYAML)
	writeCatalog(t, dir, "b.yaml", luckyCoinYAML)

	_, err := LoadDir(dir)
	if err == nil || !strings.Contains(err.Error(), "duplicate modifier id") {
		t.Fatalf("err = %v, want duplicate id", err)
	}
}

func TestLoadDirMissingDirectory(t *testing.T) {
	_, err := LoadDir(filepath.Join(t.TempDir(), "nope"))
	if err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
