package sim

import (
	"math"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

// strongholdReach is how close to a stronghold an enemy must be for the
// attacking faction to prioritise it.
const strongholdReach = 100.0

func (s *Simulation) needsTarget(u *command.Unit) bool {
	t := s.Units.Get(u.Target)
	return t == nil || !t.Active() || t.Faction == u.Faction
}

// acquireTargets gives every active unit without a live enemy target a new one.
func (s *Simulation) acquireTargets() {
	for _, u := range s.Units.Active() {
		if !s.needsTarget(u) {
			continue
		}
		u.Target = command.NoTarget
		if t := s.selectTarget(u); t != nil {
			u.Target = t.ID
		}
	}
}

func (s *Simulation) enemies(u *command.Unit) []*command.Unit {
	var out []*command.Unit
	for _, o := range s.Units.Active() {
		if o.Faction != u.Faction {
			out = append(out, o)
		}
	}
	return out
}

// selectTarget applies the faction's priority rule and falls back to the
// nearest enemy. Equal distances keep the lower id.
func (s *Simulation) selectTarget(u *command.Unit) *command.Unit {
	enemies := s.enemies(u)
	if len(enemies) == 0 {
		return nil
	}
	var pick *command.Unit
	switch u.Faction {
	case command.Red:
		pick = s.strongholdTarget(enemies)
		if pick == nil {
			if t := s.Shelter(u, 0); t != nil {
				pick = nearestTo(enemies, t.End)
			}
		}
	case command.Green:
		if s.home != nil {
			pick = nearestTo(enemies, s.home.Position)
		}
	}
	if pick == nil {
		pick = nearestTo(enemies, u.Position)
	}
	return pick
}

// strongholdTarget is the enemy closest to any stronghold, within reach.
func (s *Simulation) strongholdTarget(enemies []*command.Unit) *command.Unit {
	strongholds := s.Field.OfType(terrain.Stronghold)
	var pick *command.Unit
	best := math.Inf(1)
	for _, e := range enemies {
		for _, f := range strongholds {
			d := e.Position.DistanceTo(f.Position)
			if d <= strongholdReach && d < best {
				best = d
				pick = e
			}
		}
	}
	return pick
}

func nearestTo(units []*command.Unit, p terrain.Position) *command.Unit {
	var pick *command.Unit
	best := math.Inf(1)
	for _, u := range units {
		if d := u.Position.DistanceTo(p); d < best {
			best = d
			pick = u
		}
	}
	return pick
}

func (s *Simulation) targetName(u *command.Unit) string {
	if t := s.Units.Get(u.Target); t != nil {
		return t.Name
	}
	return "None"
}
