package dough

// metabolize lets yeast feed on nearby sugar and release gas.
//
// The scan only records what to remove and what to create; sugar is removed
// and products are inserted once every yeast has been visited, so neighbour
// lists stay valid during the scan. Products get fresh IDs on insert.
func (s *Simulation) metabolize(dt float32) {
	consumed := make(map[MoleculeID]struct{})
	var eaten []MoleculeID
	var produced []Molecule

	rate := FermentBaseRate * s.temperatureFactor(FermentRefTemperature) * dt

	for _, y := range s.grid.AllMut() {
		if y.Kind != Yeast {
			continue
		}

		for _, n := range s.grid.QueryRadius(y.Pos, FeedDistance) {
			if n.Kind != Sugar || n.ID == y.ID {
				continue
			}
			if _, done := consumed[n.ID]; !done {
				consumed[n.ID] = struct{}{}
				eaten = append(eaten, n.ID)
			}

			if s.rng.Float32() >= rate {
				continue
			}
			produced = append(produced, NewMolecule(CO2,
				y.Pos.Add(jitter(s.rng, co2Jitter)),
				jitter(s.rng, co2Speed)))

			if s.rng.Float32() < EthanolChance {
				produced = append(produced, NewMolecule(Ethanol,
					y.Pos.Add(jitter(s.rng, ethanolJitter)),
					jitter(s.rng, ethanolSpeed)))
			}
		}
	}

	for _, m := range produced {
		s.grid.Insert(m)
	}
	// Removal order shapes cell order, so it must not follow map order.
	for _, id := range eaten {
		s.grid.Remove(id)
	}

	if len(consumed) > 0 || len(produced) > 0 {
		s.logger.Debugf("yeast activity: sugar_consumed=%d products=%d", len(consumed), len(produced))
	}

	s.riseBubbles()
}

// riseBubbles applies buoyancy and a little horizontal wobble to every CO2
// molecule, every tick, for as long as it exists.
func (s *Simulation) riseBubbles() {
	for _, m := range s.grid.AllMut() {
		if m.Kind != CO2 {
			continue
		}
		m.Vel.Y -= Buoyancy
		m.Vel.X += uniform(s.rng, -BubbleWobble, BubbleWobble)
	}
}
