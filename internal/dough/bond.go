package dough

// Bond is an undirected constraint between two molecules. A bond between
// (a, b) is the same bond as (b, a).
type Bond struct {
	A            MoleculeID `json:"a"`
	B            MoleculeID `json:"b"`
	RestDistance float32    `json:"rest_distance"`
}

// bondKey is the canonical, order-independent key of a bond.
type bondKey struct {
	lo, hi MoleculeID
}

func makeBondKey(a, b MoleculeID) bondKey {
	if a > b {
		a, b = b, a
	}
	return bondKey{lo: a, hi: b}
}

func (b Bond) key() bondKey {
	return makeBondKey(b.A, b.B)
}

// Connects reports whether the bond joins a and b in either order.
func (b Bond) Connects(a, c MoleculeID) bool {
	return b.key() == makeBondKey(a, c)
}
