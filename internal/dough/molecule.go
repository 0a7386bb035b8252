package dough

import (
	"fmt"
	"strings"
)

// MoleculeID is a unique identifier for a molecule. IDs are assigned by the
// SpatialGrid3D starting at 1 and are never reused.
type MoleculeID uint64

// Kind is the category of a molecule. The set is closed: every kind has a
// fixed radius and mass used by physics and by renderers.
type Kind uint8

const (
	Gliadin Kind = iota
	Glutenin
	Water
	Yeast
	CO2
	Ethanol
	Sugar
	Salt
	Ash
)

// Kinds lists every kind in declaration order.
var Kinds = []Kind{Gliadin, Glutenin, Water, Yeast, CO2, Ethanol, Sugar, Salt, Ash}

type kindInfo struct {
	name   string
	radius float32
	mass   float32
}

var kindTable = [...]kindInfo{
	Gliadin:  {"gliadin", 3.0, 10.0},
	Glutenin: {"glutenin", 4.0, 12.0},
	Water:    {"water", 1.5, 1.0},
	Yeast:    {"yeast", 5.0, 15.0},
	CO2:      {"co2", 8.0, 2.0},
	Ethanol:  {"ethanol", 2.0, 3.0},
	Sugar:    {"sugar", 2.5, 4.0},
	Salt:     {"salt", 1.8, 2.0},
	Ash:      {"ash", 2.0, 2.0},
}

func (k Kind) valid() bool {
	return int(k) < len(kindTable)
}

func (k Kind) String() string {
	if !k.valid() {
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
	return kindTable[k].name
}

// Radius is the collision margin used against the domain walls.
func (k Kind) Radius() float32 {
	if !k.valid() {
		return 0
	}
	return kindTable[k].radius
}

func (k Kind) Mass() float32 {
	if !k.valid() {
		return 1
	}
	return kindTable[k].mass
}

// IsProtein reports whether the kind counts as flour protein.
func (k Kind) IsProtein() bool {
	return k == Gliadin || k == Glutenin
}

// ParseKind resolves a kind from its name (case-insensitive).
func ParseKind(s string) (Kind, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, info := range kindTable {
		if info.name == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown molecule kind: %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.valid() {
		return nil, fmt.Errorf("invalid molecule kind %d", uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Molecule is a point particle living in the simulation domain.
// Reactive is only meaningful for Glutenin: it marks a free thiol site
// still available to form a disulfide bridge.
type Molecule struct {
	ID       MoleculeID
	Pos      Vec3
	Vel      Vec3
	Kind     Kind
	Reactive bool
}

// NewMolecule creates a molecule without an ID; the grid assigns one on insert.
// Glutenin starts reactive.
func NewMolecule(kind Kind, pos, vel Vec3) Molecule {
	return Molecule{
		Pos:      pos,
		Vel:      vel,
		Kind:     kind,
		Reactive: kind == Glutenin,
	}
}

func (m *Molecule) Radius() float32 {
	return m.Kind.Radius()
}

func (m *Molecule) Mass() float32 {
	return m.Kind.Mass()
}

// isReactiveGlutenin reports whether m can still take part in a bridge.
func (m *Molecule) isReactiveGlutenin() bool {
	return m.Kind == Glutenin && m.Reactive
}
