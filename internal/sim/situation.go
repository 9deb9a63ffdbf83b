package sim

import (
	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/oracle"
)

const (
	// sightRange is how far enemies are reported in clear weather.
	sightRange    = 500.0
	landmarkRange = 300.0
	contactRange  = 100.0
)

func brief(u *command.Unit) oracle.Brief {
	return oracle.Brief{
		Name:     u.Name,
		Troops:   u.Remaining(),
		Position: u.Position,
		Action:   u.Action,
		Stage:    u.Stage,
		Morale:   u.Morale,
	}
}

func (s *Simulation) contact(o *command.Unit, dist float64) oracle.Contact {
	return oracle.Contact{
		Name:      o.Name,
		Faction:   o.Faction.String(),
		Troops:    o.Remaining(),
		Position:  o.Position,
		Distance:  dist,
		Stage:     o.Stage,
		Morale:    o.Morale,
		Sheltered: s.InTunnel(o),
	}
}

func (s *Simulation) chain(u *command.Unit) oracle.Chain {
	var c oracle.Chain
	if p := s.Units.Get(u.Parent); p != nil {
		b := brief(p)
		c.Parent = &b
		for _, sib := range s.Units.Children(p.ID) {
			if sib.ID != u.ID && sib.Active() {
				c.Siblings = append(c.Siblings, brief(sib))
			}
		}
	}
	for _, child := range s.Units.Children(u.ID) {
		c.Children = append(c.Children, brief(child))
	}
	return c
}

// situation snapshots what u can see of the battle this turn.
func (s *Simulation) situation(u *command.Unit) oracle.Situation {
	typ, _ := s.Field.At(u.Position)
	sit := oracle.Situation{
		Weather:       s.Field.Weather,
		Terrain:       typ,
		TacticalScore: s.TacticalScore(u),
		SupplyLine:    u.SupplyLine,
		Encircled:     u.Encircled,
		InContact:     s.IsEnemyWithin(u, contactRange),
		Events:        s.scn.EventsAt(s.turn),
	}
	if t := s.Shelter(u, 0); t != nil {
		sit.InTunnel = true
		sit.Tunnel = t.Name
	}

	sight := sightRange * s.Field.Weather.Visibility
	for _, o := range s.Units.Active() {
		if o.ID == u.ID {
			continue
		}
		d := u.Position.DistanceTo(o.Position)
		if o.Faction == u.Faction {
			if d <= sightRange {
				sit.Allies = append(sit.Allies, s.contact(o, d))
			}
			continue
		}
		if o.ID == u.Target {
			c := s.contact(o, d)
			sit.Target = &c
		}
		if d <= sight {
			sit.Enemies = append(sit.Enemies, s.contact(o, d))
		}
	}

	for _, f := range s.Field.Features {
		if d := f.Distance(u.Position); d <= landmarkRange {
			sit.Landmarks = append(sit.Landmarks, oracle.Landmark{
				Name:     f.Name,
				Type:     f.Type,
				Position: f.Position,
				Distance: d,
				Captured: s.captured[f],
			})
		}
	}
	return sit
}

func (s *Simulation) request(u *command.Unit) oracle.Request {
	return oracle.Request{
		Round:     s.turn,
		Rounds:    s.rounds,
		Unit:      s.Units.Profile(u),
		Chain:     s.chain(u),
		Situation: s.situation(u),
		History:   u.LastRecords(s.scn.Battle.HistorySummary),
		Actions:   s.actions,
		Stages:    s.labels,
		Guidance:  s.guidance,
		Prompt:    s.scn.Prompt,
	}
}
