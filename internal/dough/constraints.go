package dough

// applyBondConstraints relaxes bonded pairs toward their rest distance.
//
// Corrections are velocity impulses, not position snaps. All contributions
// are summed per molecule first and applied once, so a molecule in several
// bonds is not biased by bond order. Bonds with a missing endpoint are
// skipped and kept; zero-length bonds apply no correction.
func (s *Simulation) applyBondConstraints() {
	if len(s.bonds) == 0 {
		return
	}

	impulses := make(map[MoleculeID]Vec3)
	for _, b := range s.bonds {
		a := s.grid.GetMut(b.A)
		c := s.grid.GetMut(b.B)
		if a == nil || c == nil {
			continue
		}

		diff := c.Pos.Sub(a.Pos)
		dist := diff.Len()
		if dist == 0 {
			continue
		}

		correction := diff.Scale((b.RestDistance - dist) / dist * BondRelaxation)
		// A stretched bond gives a negative correction: A moves toward B and
		// B toward A. A compressed bond pushes them apart.
		impulses[a.ID] = impulses[a.ID].Sub(correction)
		impulses[c.ID] = impulses[c.ID].Add(correction)
	}

	for id, impulse := range impulses {
		m := s.grid.GetMut(id)
		if m == nil {
			continue
		}
		m.Vel = m.Vel.Add(impulse.Scale(1 / m.Mass())).ClampLen(MaxBondSpeed)
	}
}
