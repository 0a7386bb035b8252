package dough

import (
	"encoding/json"
	"fmt"
)

// MoleculeView is the read-only form of a molecule handed to renderers.
type MoleculeView struct {
	ID       MoleculeID `json:"id"`
	Kind     Kind       `json:"kind"`
	Pos      Vec3       `json:"pos"`
	Vel      Vec3       `json:"vel"`
	Radius   float32    `json:"radius"`
	Mass     float32    `json:"mass"`
	Reactive bool       `json:"reactive,omitempty"`
}

func viewOf(m Molecule) MoleculeView {
	return MoleculeView{
		ID:       m.ID,
		Kind:     m.Kind,
		Pos:      m.Pos,
		Vel:      m.Vel,
		Radius:   m.Radius(),
		Mass:     m.Mass(),
		Reactive: m.Reactive,
	}
}

// Snapshot represents a point-in-time capture of a simulation: every live
// molecule, every bond with both endpoints alive, and the environment.
type Snapshot struct {
	Time        float32        `json:"time"`
	Temperature float32        `json:"temperature"`
	Phase       Phase          `json:"phase"`
	SaltAdded   bool           `json:"salt_added"`
	YeastAdded  bool           `json:"yeast_added"`
	Width       float32        `json:"width"`
	Height      float32        `json:"height"`
	Depth       float32        `json:"depth"`
	Recipe      RecipeConfig   `json:"recipe"`
	Molecules   []MoleculeView `json:"molecules"`
	Bonds       []BondLine     `json:"bonds"`
	// BondCount includes bonds whose endpoints are gone.
	BondCount int `json:"bond_count"`
}

// Snapshot copies the current state. The result shares nothing with the
// simulation.
func (s *Simulation) Snapshot() Snapshot {
	mols := s.grid.All()
	views := make([]MoleculeView, len(mols))
	for i, m := range mols {
		views[i] = viewOf(m)
	}
	return Snapshot{
		Time:        s.timeElapsed,
		Temperature: s.temperature,
		Phase:       s.Phase(),
		SaltAdded:   s.saltAdded,
		YeastAdded:  s.yeastAdded,
		Width:       s.width,
		Height:      s.height,
		Depth:       s.depth,
		Recipe:      s.recipe,
		Molecules:   views,
		Bonds:       s.BondLines(),
		BondCount:   len(s.bonds),
	}
}

// Stats is a compact summary of a simulation.
type Stats struct {
	Time        float32      `json:"time"`
	Temperature float32      `json:"temperature"`
	Phase       Phase        `json:"phase"`
	SaltAdded   bool         `json:"salt_added"`
	YeastAdded  bool         `json:"yeast_added"`
	Molecules   int          `json:"molecules"`
	Flour       int          `json:"flour"`
	Counts      map[Kind]int `json:"counts"`
	Bonds       int          `json:"bonds"`
}

// Stats counts molecules per kind. Every kind is present in Counts, even at zero.
func (s *Simulation) Stats() Stats {
	counts := make(map[Kind]int, len(Kinds))
	for _, k := range Kinds {
		counts[k] = 0
	}
	for _, m := range s.grid.molecules {
		counts[m.Kind]++
	}
	return Stats{
		Time:        s.timeElapsed,
		Temperature: s.temperature,
		Phase:       s.Phase(),
		SaltAdded:   s.saltAdded,
		YeastAdded:  s.yeastAdded,
		Molecules:   s.grid.Len(),
		Flour:       counts[Gliadin] + counts[Glutenin],
		Counts:      counts,
		Bonds:       len(s.bonds),
	}
}

// ValidateSnapshot performs validation checks on a snapshot.
// It verifies that:
//   - all molecule IDs are non-zero and unique
//   - all positions and velocities are finite
//   - every bond references molecules present in the snapshot
func ValidateSnapshot(snapshot Snapshot) error {
	seenIDs := make(map[MoleculeID]struct{}, len(snapshot.Molecules))

	for i, mol := range snapshot.Molecules {
		if mol.ID == 0 {
			return fmt.Errorf("molecule at index %d has zero ID", i)
		}
		if _, exists := seenIDs[mol.ID]; exists {
			return fmt.Errorf("duplicate molecule ID: %d", mol.ID)
		}
		seenIDs[mol.ID] = struct{}{}

		if !mol.Pos.IsFinite() || !mol.Vel.IsFinite() {
			return fmt.Errorf("molecule %d has non-finite position or velocity", mol.ID)
		}
	}

	for i, b := range snapshot.Bonds {
		if _, ok := seenIDs[b.A]; !ok {
			return fmt.Errorf("bond at index %d references missing molecule %d", i, b.A)
		}
		if _, ok := seenIDs[b.B]; !ok {
			return fmt.Errorf("bond at index %d references missing molecule %d", i, b.B)
		}
	}

	return nil
}

// DiffIDs compares the molecule sets of two snapshots, the way a renderer
// decides which proxies to create and which to drop between frames.
func DiffIDs(prev, next Snapshot) (added, removed []MoleculeID) {
	before := make(map[MoleculeID]struct{}, len(prev.Molecules))
	for _, m := range prev.Molecules {
		before[m.ID] = struct{}{}
	}
	after := make(map[MoleculeID]struct{}, len(next.Molecules))
	for _, m := range next.Molecules {
		after[m.ID] = struct{}{}
		if _, ok := before[m.ID]; !ok {
			added = append(added, m.ID)
		}
	}
	for _, m := range prev.Molecules {
		if _, ok := after[m.ID]; !ok {
			removed = append(removed, m.ID)
		}
	}
	return added, removed
}

// EncodeSnapshotJSON encodes a snapshot to JSON format.
func EncodeSnapshotJSON(snapshot Snapshot) ([]byte, error) {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return data, nil
}

// DecodeSnapshotJSON decodes a snapshot from JSON format.
func DecodeSnapshotJSON(data []byte) (Snapshot, error) {
	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return Snapshot{}, fmt.Errorf("failed to decode snapshot: %w", err)
	}
	return snapshot, nil
}
