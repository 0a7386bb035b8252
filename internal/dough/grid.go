package dough

import (
	"math"
	"slices"
)

// DefaultCellSize is the edge length of a grid cell.
const DefaultCellSize float32 = 15.0

// cellKey addresses one cube of the grid: floor(coord / cellSize) per axis.
type cellKey struct {
	X, Y, Z int32
}

// SpatialGrid3D owns every live molecule and buckets their IDs into uniform
// cubic cells for neighbour queries. Molecules live in one arena keyed by ID;
// cells only hold IDs.
//
// The grid is the sole authority for IDs and for position bookkeeping:
// position changes must go through UpdatePosition so that every molecule is
// registered in exactly the cell of its current position.
type SpatialGrid3D struct {
	cellSize  float32
	cells     map[cellKey][]MoleculeID
	molecules map[MoleculeID]*Molecule
	cellOf    map[MoleculeID]cellKey
	nextID    MoleculeID
}

// NewSpatialGrid3D creates an empty grid. A non-positive cellSize falls back
// to DefaultCellSize.
func NewSpatialGrid3D(cellSize float32) *SpatialGrid3D {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &SpatialGrid3D{
		cellSize:  cellSize,
		cells:     make(map[cellKey][]MoleculeID),
		molecules: make(map[MoleculeID]*Molecule),
		cellOf:    make(map[MoleculeID]cellKey),
		nextID:    1,
	}
}

func (g *SpatialGrid3D) CellSize() float32 {
	return g.cellSize
}

func (g *SpatialGrid3D) cellAt(pos Vec3) cellKey {
	return cellKey{
		X: int32(math.Floor(float64(pos.X / g.cellSize))),
		Y: int32(math.Floor(float64(pos.Y / g.cellSize))),
		Z: int32(math.Floor(float64(pos.Z / g.cellSize))),
	}
}

func (g *SpatialGrid3D) register(id MoleculeID, key cellKey) {
	g.cells[key] = append(g.cells[key], id)
	g.cellOf[id] = key
}

// unregister swap-removes id from its recorded cell and drops empty cells.
func (g *SpatialGrid3D) unregister(id MoleculeID) {
	key, ok := g.cellOf[id]
	if !ok {
		return
	}
	delete(g.cellOf, id)

	ids := g.cells[key]
	for i, other := range ids {
		if other != id {
			continue
		}
		last := len(ids) - 1
		ids[i] = ids[last]
		ids = ids[:last]
		break
	}
	if len(ids) == 0 {
		delete(g.cells, key)
		return
	}
	g.cells[key] = ids
}

// Insert stores a copy of m under the next sequential ID and returns it.
// Any ID already set on m is ignored.
func (g *SpatialGrid3D) Insert(m Molecule) MoleculeID {
	id := g.nextID
	g.nextID++

	m.ID = id
	stored := m
	g.molecules[id] = &stored
	g.register(id, g.cellAt(m.Pos))
	return id
}

// Remove deletes the molecule and its cell registration. Unknown IDs are ignored.
func (g *SpatialGrid3D) Remove(id MoleculeID) {
	if _, ok := g.molecules[id]; !ok {
		return
	}
	g.unregister(id)
	delete(g.molecules, id)
}

// UpdatePosition moves a molecule to pos and re-buckets it. The old cell
// registration is dropped before the new one is added, with no query able to
// run in between. Unknown IDs are ignored.
func (g *SpatialGrid3D) UpdatePosition(id MoleculeID, pos Vec3) {
	m, ok := g.molecules[id]
	if !ok {
		return
	}
	g.unregister(id)
	m.Pos = pos
	g.register(id, g.cellAt(pos))
}

// Neighbors returns every molecule registered in the 3x3x3 block of cells
// centred on the cell containing pos. This is a broad phase: callers still
// have to filter by distance.
func (g *SpatialGrid3D) Neighbors(pos Vec3) []*Molecule {
	return g.collect(g.cellAt(pos), 1)
}

// NeighborsWithin is a broad phase wide enough to cover a sphere of the
// given radius around pos (never narrower than Neighbors).
func (g *SpatialGrid3D) NeighborsWithin(pos Vec3, radius float32) []*Molecule {
	span := int32(math.Ceil(float64(radius / g.cellSize)))
	if span < 1 {
		span = 1
	}
	return g.collect(g.cellAt(pos), span)
}

// QueryRadius runs the broad phase and keeps molecules strictly closer than radius.
func (g *SpatialGrid3D) QueryRadius(pos Vec3, radius float32) []*Molecule {
	candidates := g.NeighborsWithin(pos, radius)
	out := candidates[:0]
	for _, m := range candidates {
		if Distance(m.Pos, pos) < radius {
			out = append(out, m)
		}
	}
	return out
}

func (g *SpatialGrid3D) collect(center cellKey, span int32) []*Molecule {
	var out []*Molecule
	for dx := -span; dx <= span; dx++ {
		for dy := -span; dy <= span; dy++ {
			for dz := -span; dz <= span; dz++ {
				key := cellKey{center.X + dx, center.Y + dy, center.Z + dz}
				for _, id := range g.cells[key] {
					if m, ok := g.molecules[id]; ok {
						out = append(out, m)
					}
				}
			}
		}
	}
	return out
}

// Get returns a copy of the molecule with the given ID.
func (g *SpatialGrid3D) Get(id MoleculeID) (Molecule, bool) {
	m, ok := g.molecules[id]
	if !ok {
		return Molecule{}, false
	}
	return *m, true
}

// GetMut returns the stored molecule, or nil when absent. Callers may change
// velocity and flags through it but must use UpdatePosition for positions.
func (g *SpatialGrid3D) GetMut(id MoleculeID) *Molecule {
	return g.molecules[id]
}

// All returns copies of every live molecule ordered by ID.
func (g *SpatialGrid3D) All() []Molecule {
	out := make([]Molecule, 0, len(g.molecules))
	for _, m := range g.AllMut() {
		out = append(out, *m)
	}
	return out
}

// AllMut returns the stored molecules ordered by ID. Ordering keeps seeded
// runs reproducible even though the arena is a map.
func (g *SpatialGrid3D) AllMut() []*Molecule {
	out := make([]*Molecule, 0, len(g.molecules))
	for _, m := range g.molecules {
		out = append(out, m)
	}
	slices.SortFunc(out, func(a, b *Molecule) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// Len returns the number of live molecules.
func (g *SpatialGrid3D) Len() int {
	return len(g.molecules)
}
