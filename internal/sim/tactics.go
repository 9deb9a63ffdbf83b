package sim

import (
	"HistoricalBattleSimulator/internal/combat"
	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/oracle"
	"HistoricalBattleSimulator/internal/terrain"
)

// occupancy counts the troops of every other active unit standing within
// the buffer of a tunnel.
func (s *Simulation) occupancy(u *command.Unit) terrain.Occupancy {
	return func(t *terrain.Feature) int {
		n := 0
		for _, o := range s.Units.Active() {
			if o.ID == u.ID {
				continue
			}
			if t.Distance(o.Position) <= s.buffer {
				n += o.Remaining()
			}
		}
		return n
	}
}

// Shelter returns the tunnel sheltering u, searching extra beyond the buffer.
func (s *Simulation) Shelter(u *command.Unit, extra float64) *terrain.Feature {
	return s.Field.Shelter(u.Position, extra, s.buffer, s.turn, s.occupancy(u))
}

func (s *Simulation) InTunnel(u *command.Unit) bool {
	return s.Shelter(u, 0) != nil
}

func (s *Simulation) TacticalScore(u *command.Unit) float64 {
	return s.Field.TacticalScore(u.Position, s.InTunnel(u))
}

// IsEnemyWithin reports an active enemy inside d, shortened by visibility
// and by the stealth of a tunnel the enemy hides in.
func (s *Simulation) IsEnemyWithin(u *command.Unit, d float64) bool {
	for _, e := range s.Units.Active() {
		if e.Faction == u.Faction {
			continue
		}
		r := d * s.Field.Weather.Visibility
		if t := s.Shelter(e, 0); t != nil {
			r *= 1 - clamp01(t.StealthBonus)
		}
		if u.Position.DistanceTo(e.Position) <= r {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func (s *Simulation) side(u *command.Unit, troops int) combat.Side {
	return combat.Side{
		Faction:   u.Faction,
		Troops:    troops,
		Tactics:   u.Tactics,
		Morale:    u.Morale,
		TroopType: u.TroopType,
		Tactical:  s.TacticalScore(u),
		Sheltered: s.InTunnel(u),
	}
}

// estimate forecasts troops of att fighting its current target under action.
// Waiting units and units without a live target do not fight.
func (s *Simulation) estimate(att *command.Unit, troops int, action string) combat.Estimate {
	def := s.Units.Get(att.Target)
	if action == oracle.Wait || def == nil || !def.Active() || def.Faction == att.Faction {
		return combat.Estimate{}
	}
	if troops > att.Remaining() {
		troops = att.Remaining()
	}
	if troops <= 0 {
		return combat.Estimate{}
	}
	return combat.Resolve(combat.Engagement{
		Attacker:      s.side(att, troops),
		Defender:      s.side(def, def.Remaining()),
		DefenderCover: s.Field.Nearest(def.Position),
		Action:        action,
		Visibility:    s.Field.Weather.Visibility,
		Artillery:     s.Field.Weather.Artillery,
		Round:         s.turn,
	}, s.coeffs)
}
