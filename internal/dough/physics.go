package dough

// reflectAxis keeps one coordinate within [lo, hi]. On a crossing the
// coordinate is clamped and the velocity component is inverted and scaled
// by Restitution.
func reflectAxis(pos, vel *float32, lo, hi float32) bool {
	switch {
	case *pos < lo:
		*pos = lo
		*vel = -*vel * Restitution
		return true
	case *pos > hi:
		*pos = hi
		*vel = -*vel * Restitution
		return true
	}
	return false
}

// resolveBoundaries applies the walls of a width x height x depth domain,
// using the molecule radius as margin.
func resolveBoundaries(pos, vel *Vec3, radius, width, height, depth float32) {
	reflectAxis(&pos.X, &vel.X, radius, width-radius)
	reflectAxis(&pos.Y, &vel.Y, radius, height-radius)
	reflectAxis(&pos.Z, &vel.Z, radius, depth-radius)
}

type relocation struct {
	id  MoleculeID
	pos Vec3
}

// integrate moves every molecule by its velocity, bounces it off the walls,
// damps its velocity and re-buckets it. Every molecule goes back through
// UpdatePosition, whether or not it changed cell.
func (s *Simulation) integrate(dt float32) {
	molecules := s.grid.AllMut()
	moves := make([]relocation, 0, len(molecules))

	for _, m := range molecules {
		pos := m.Pos.Add(m.Vel.Scale(dt))
		vel := m.Vel
		resolveBoundaries(&pos, &vel, m.Radius(), s.width, s.height, s.depth)
		m.Vel = vel.Scale(Damping)
		moves = append(moves, relocation{id: m.ID, pos: pos})
	}

	for _, mv := range moves {
		s.grid.UpdatePosition(mv.id, mv.pos)
	}
}
