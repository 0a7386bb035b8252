package dough

// bridgeChance is the per-pair probability of a disulfide bridge before
// throttling: base chance scaled by temperature, boosted by nearby salt.
func (s *Simulation) bridgeChance(saltNearby bool) float32 {
	p := BridgeBaseChance * s.temperatureFactor(BridgeRefTemperature)
	if saltNearby {
		p *= BridgeSaltBoost
	}
	return p
}

// formDisulfideBridges links pairs of reactive glutenin.
//
// Plan: every reactive glutenin scans its neighbourhood; each unordered pair
// within BridgeDistance gets one draw per tick. Flags are not touched while
// scanning, so one molecule can be picked by several pairings in the same
// tick.
//
// Commit: accepted bonds not already present are appended, then every
// endpoint of an accepted bond loses its reactive site.
func (s *Simulation) formDisulfideBridges() {
	var planned []Bond

	for _, m := range s.grid.AllMut() {
		if !m.isReactiveGlutenin() {
			continue
		}

		neighbors := s.grid.Neighbors(m.Pos)
		saltNearby := false
		for _, n := range neighbors {
			if n.Kind == Salt {
				saltNearby = true
				break
			}
		}
		threshold := s.bridgeChance(saltNearby) * BridgeThrottle

		for _, n := range neighbors {
			// Each unordered pair is visited from its lower ID only.
			if n.ID <= m.ID || !n.isReactiveGlutenin() {
				continue
			}
			dist := Distance(m.Pos, n.Pos)
			if dist >= BridgeDistance {
				continue
			}
			if s.rng.Float32() < threshold {
				planned = append(planned, Bond{A: m.ID, B: n.ID, RestDistance: dist})
			}
		}
	}

	if len(planned) == 0 {
		return
	}

	bonded := make(map[MoleculeID]struct{})
	accepted := 0
	for _, b := range planned {
		if !s.addBond(b) {
			continue
		}
		accepted++
		bonded[b.A] = struct{}{}
		bonded[b.B] = struct{}{}
	}

	for id := range bonded {
		if m := s.grid.GetMut(id); m != nil && m.Kind == Glutenin {
			m.Reactive = false
		}
	}

	if accepted > 0 {
		s.logger.Debugf("disulfide bridges formed: count=%d total=%d", accepted, len(s.bonds))
	}
}

// addBond appends b unless a bond between the same pair already exists.
func (s *Simulation) addBond(b Bond) bool {
	if b.A == b.B {
		return false
	}
	k := b.key()
	if _, exists := s.bondSet[k]; exists {
		return false
	}
	s.bondSet[k] = struct{}{}
	s.bonds = append(s.bonds, b)
	return true
}
