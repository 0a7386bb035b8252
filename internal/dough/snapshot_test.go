package dough

import (
	"strings"
	"testing"
)

func TestSimulation_Snapshot(t *testing.T) {
	s := newTestSimulation(100, 100, 100)
	a := s.grid.Insert(NewMolecule(Glutenin, V3(10, 10, 10), V3(1, 0, 0)))
	b := s.grid.Insert(NewMolecule(Glutenin, V3(14, 10, 10), Vec3{}))
	s.addBond(Bond{A: a, B: b, RestDistance: 4})
	s.addBond(Bond{A: a, B: 77, RestDistance: 4})

	snap := s.Snapshot()

	if len(snap.Molecules) != 2 {
		t.Fatalf("Expected 2 molecules, got %d", len(snap.Molecules))
	}
	mv := snap.Molecules[0]
	if mv.ID != a || mv.Kind != Glutenin || mv.Radius != 4 || mv.Mass != 12 || !mv.Reactive {
		t.Errorf("Unexpected molecule view: %+v", mv)
	}
	if len(snap.Bonds) != 1 {
		t.Errorf("Expected 1 drawable bond, got %d", len(snap.Bonds))
	}
	if snap.BondCount != 2 {
		t.Errorf("Expected bond count 2, got %d", snap.BondCount)
	}
	if snap.Bonds[0].PosA != V3(10, 10, 10) || snap.Bonds[0].PosB != V3(14, 10, 10) {
		t.Errorf("Expected endpoint positions resolved, got %+v", snap.Bonds[0])
	}
	if snap.Phase != PhaseAutolyse {
		t.Errorf("Expected phase %s, got %s", PhaseAutolyse, snap.Phase)
	}

	// Snapshots are detached from the simulation.
	snap.Molecules[0].Pos = V3(0, 0, 0)
	if m, _ := s.Molecule(a); m.Pos != V3(10, 10, 10) {
		t.Error("Expected snapshot edits not to leak into the simulation")
	}
}

func TestSimulation_Stats(t *testing.T) {
	s := newTestSimulation(100, 100, 100)
	s.grid.Insert(NewMolecule(Gliadin, V3(10, 10, 10), Vec3{}))
	s.grid.Insert(NewMolecule(Glutenin, V3(20, 10, 10), Vec3{}))
	s.grid.Insert(NewMolecule(Water, V3(30, 10, 10), Vec3{}))

	st := s.Stats()
	if st.Molecules != 3 || st.Flour != 2 {
		t.Errorf("Expected 3 molecules and 2 flour, got %d and %d", st.Molecules, st.Flour)
	}
	if len(st.Counts) != len(Kinds) {
		t.Errorf("Expected every kind counted, got %d entries", len(st.Counts))
	}
	if st.Counts[Ash] != 0 || st.Counts[Water] != 1 {
		t.Errorf("Unexpected counts: %+v", st.Counts)
	}
}

func TestValidateSnapshot(t *testing.T) {
	valid := Snapshot{
		Molecules: []MoleculeView{{ID: 1}, {ID: 2}},
		Bonds:     []BondLine{{Bond: Bond{A: 1, B: 2}}},
	}
	if err := ValidateSnapshot(valid); err != nil {
		t.Fatalf("Expected valid snapshot, got %v", err)
	}

	tests := []struct {
		name string
		snap Snapshot
		want string
	}{
		{"zero id", Snapshot{Molecules: []MoleculeView{{ID: 0}}}, "zero ID"},
		{"duplicate id", Snapshot{Molecules: []MoleculeView{{ID: 3}, {ID: 3}}}, "duplicate"},
		{"missing endpoint", Snapshot{
			Molecules: []MoleculeView{{ID: 1}},
			Bonds:     []BondLine{{Bond: Bond{A: 1, B: 9}}},
		}, "missing molecule 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSnapshot(tt.snap)
			if err == nil {
				t.Fatal("Expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestDiffIDs(t *testing.T) {
	prev := Snapshot{Molecules: []MoleculeView{{ID: 1}, {ID: 2}, {ID: 3}}}
	next := Snapshot{Molecules: []MoleculeView{{ID: 1}, {ID: 3}, {ID: 4}, {ID: 5}}}

	added, removed := DiffIDs(prev, next)
	if len(added) != 2 || added[0] != 4 || added[1] != 5 {
		t.Errorf("Expected added [4 5], got %v", added)
	}
	if len(removed) != 1 || removed[0] != 2 {
		t.Errorf("Expected removed [2], got %v", removed)
	}
}

func TestSnapshotJSON(t *testing.T) {
	s := NewSimulationWithRand(200, 200, 200, NewRand(8))
	s.InitializeClassicRecipe()
	s.AddSalt()
	snap := s.Snapshot()

	data, err := EncodeSnapshotJSON(snap)
	if err != nil {
		t.Fatalf("EncodeSnapshotJSON failed: %v", err)
	}
	if !strings.Contains(string(data), `"kind":"glutenin"`) {
		t.Error("Expected kinds encoded by name")
	}
	if !strings.Contains(string(data), `"phase":"salted"`) {
		t.Error("Expected phase in payload")
	}

	decoded, err := DecodeSnapshotJSON(data)
	if err != nil {
		t.Fatalf("DecodeSnapshotJSON failed: %v", err)
	}
	if len(decoded.Molecules) != len(snap.Molecules) {
		t.Errorf("Expected %d molecules, got %d", len(snap.Molecules), len(decoded.Molecules))
	}
	if err := ValidateSnapshot(decoded); err != nil {
		t.Errorf("Expected decoded snapshot to validate, got %v", err)
	}

	if _, err := DecodeSnapshotJSON([]byte(`{"molecules":[{"id":1,"kind":"flour"}]}`)); err == nil {
		t.Error("Expected error for unknown kind")
	}
}
