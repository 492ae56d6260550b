package engine

import "github.com/xtding233/onemoreturn-backend/internal/modifier"

// DraftOptions returns up to count definitions chosen by a seeded shuffle
// of the registry. The same seed always deals the same options, so a run's
// draft is part of its replay.
func DraftOptions(registry *modifier.Registry, rng *SeededRand, count int) []*modifier.Definition {
	all := registry.All()

	// Fisher-Yates over the registration-ordered catalog.
	for i := len(all) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		all[i], all[j] = all[j], all[i]
	}

	if count > len(all) {
		count = len(all)
	}
	if count < 0 {
		count = 0
	}
	return all[:count]
}

// InstancesFor turns drafted definitions into starting instances for
// NewRun.
func InstancesFor(defs []*modifier.Definition) []*modifier.Instance {
	out := make([]*modifier.Instance, 0, len(defs))
	for _, def := range defs {
		out = append(out, modifier.NewInstance(def))
	}
	return out
}
