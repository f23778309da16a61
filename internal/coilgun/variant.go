package coilgun

import (
	"sort"

	"github.com/san-kum/coilgun/internal/genome"
)

// Genome tags selecting the physical variants.
const (
	CoilTypeTag        = "coil_type"
	PowerSourceTypeTag = "power_source_type"
	ProjectileTypeTag  = "projectile_type"
)

type CoilKind int

const (
	SolenoidCoil CoilKind = iota
)

type PowerSourceKind int

const (
	CapacitorBankSource PowerSourceKind = iota
)

type ProjectileKind int

const (
	FerromagneticProjectile ProjectileKind = iota
)

var (
	coilKinds = map[string]CoilKind{
		"solenoid": SolenoidCoil,
	}
	powerSourceKinds = map[string]PowerSourceKind{
		"capacitor_bank": CapacitorBankSource,
	}
	projectileKinds = map[string]ProjectileKind{
		"ferromagnetic": FerromagneticProjectile,
	}
)

func (k CoilKind) String() string        { return nameOf(coilKinds, k) }
func (k PowerSourceKind) String() string { return nameOf(powerSourceKinds, k) }
func (k ProjectileKind) String() string  { return nameOf(projectileKinds, k) }

// parseKind resolves a tag of the genome. A missing tag selects def.
func parseKind[K comparable](d *genome.DNA, tag string, kinds map[string]K, def K) (K, error) {
	v, ok := d.Tag(tag)
	if !ok {
		return def, nil
	}
	k, ok := kinds[v]
	if !ok {
		return def, &UnknownVariantError{Tag: tag, Value: v, Known: names(kinds)}
	}
	return k, nil
}

func names[K comparable](kinds map[string]K) []string {
	out := make([]string, 0, len(kinds))
	for name := range kinds {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func nameOf[K comparable](kinds map[string]K, k K) string {
	for name, v := range kinds {
		if v == k {
			return name
		}
	}
	return "unknown"
}
