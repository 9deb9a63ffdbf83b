package sim

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/logging"
	"HistoricalBattleSimulator/internal/terrain"
)

// Below lowVisibility every deciding unit's stealth is raised to nightStealth.
const (
	lowVisibility = 0.7
	nightStealth  = 0.8
)

// Step plays one turn and reports whether the run is over.
func (s *Simulation) Step(ctx context.Context) bool {
	if s.done {
		return true
	}
	s.turn++
	log := logging.ForTurn(s.log, s.turn)
	log.Info("turn started", zap.Int("of", s.rounds), zap.String("weather", s.Field.Weather.Type))

	for _, e := range s.scn.EventsAt(s.turn) {
		log.Info("historical event", zap.String("event", e))
	}
	if w, ok := s.scn.WeatherAt(s.turn); ok {
		s.setWeather(w)
		log.Info("weather changed",
			zap.String("weather", s.Field.Weather.Type),
			zap.Float64("visibility", s.Field.Weather.Visibility),
			zap.Float64("artillery", s.Field.Weather.Artillery),
			zap.Float64("speed", s.Field.Weather.Speed),
			zap.Float64("airdrop", s.Field.Weather.AirdropSuccess()),
		)
	}
	s.updateOccupancy(log)

	for _, id := range s.Units.ActiveIDs() {
		u := s.Units.Get(id)
		if !u.Active() {
			continue
		}
		s.act(ctx, log, u)
	}

	s.acquireTargets()
	s.markFeatures()
	for _, row := range s.Deployment() {
		log.Info("deployment", zap.String("row", row))
	}
	s.record()
	s.checkVictory(log)
	if s.turn >= s.rounds {
		s.done = true
	}
	if s.done {
		log.Info("run finished", zap.String("winner", s.winnerLabel()))
	}
	return s.done
}

// act runs one unit's decide and execute cycle. A panic is confined to the
// unit and recorded in its history.
func (s *Simulation) act(ctx context.Context, log *zap.Logger, u *command.Unit) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("unit turn failed", zap.String("unit", u.Name), zap.Any("panic", r))
			u.Remember(command.Record{
				Turn:     s.turn,
				Action:   u.Action,
				Stage:    u.Stage,
				Position: u.Position,
				Target:   s.targetName(u),
				Morale:   u.Morale,
				Remarks:  fmt.Sprintf("Error: %v", r),
				Failed:   true,
			}, s.scn.Battle.HistoryLimit)
		}
	}()
	if s.Field.Weather.Visibility < lowVisibility {
		u.Tactics.Raise("stealth", nightStealth)
	}
	s.execute(ctx, log, u)
	s.updateSupply(u)
}

// updateOccupancy fills tunnels in id order. A unit that would overflow its
// tunnel waits this turn; the others take the tunnel's stealth.
func (s *Simulation) updateOccupancy(log *zap.Logger) {
	s.pinned = make(map[int]bool)
	load := make(map[*terrain.Feature]int)
	for _, u := range s.Units.Active() {
		t := s.Field.Nearest(u.Position)
		if t == nil || t.Type != terrain.Tunnel || !t.Completed(s.turn) || t.Capacity <= 0 {
			continue
		}
		if load[t]+u.Remaining() > t.Capacity {
			s.pinned[u.ID] = true
			log.Warn("tunnel over capacity",
				zap.String("unit", u.Name),
				zap.String("tunnel", t.Name),
				zap.Int("load", load[t]),
				zap.Int("capacity", t.Capacity),
			)
			continue
		}
		load[t] += u.Remaining()
		u.Tactics.Raise("stealth", t.StealthBonus)
	}
}

// updateSupply marks the line to the faction root severed when the unit's
// target threatens the root or the unit has strayed too far.
func (s *Simulation) updateSupply(u *command.Unit) {
	root := s.Units.FactionRoot(u.Faction)
	if root == nil || !u.Active() {
		u.SupplyLine = false
		return
	}
	if t := s.Units.Get(u.Target); t != nil && t.Active() && t.Faction != u.Faction &&
		t.Position.DistanceTo(root.Position) < s.scn.Battle.SupplyThreatRadius {
		u.SupplyLine = false
		return
	}
	u.SupplyLine = u.Position.DistanceTo(root.Position) <= s.scn.Battle.SupplyRadius
}

func (s *Simulation) record() {
	red, redUnits := s.Units.Totals(command.Red)
	green, greenUnits := s.Units.Totals(command.Green)
	s.series.Labels = append(s.series.Labels, fmt.Sprintf("Turn %d", s.turn))
	s.series.RedTroops = append(s.series.RedTroops, red)
	s.series.GreenTroops = append(s.series.GreenTroops, green)
	s.series.RedUnits = append(s.series.RedUnits, redUnits)
	s.series.GreenUnits = append(s.series.GreenUnits, greenUnits)
}

func (s *Simulation) checkVictory(log *zap.Logger) {
	red, _ := s.Units.Totals(command.Red)
	green, _ := s.Units.Totals(command.Green)
	switch {
	case green < s.scn.Victory.GreenFloor:
		s.winner = command.Red.String()
	case red < s.scn.Victory.RedFloor:
		s.winner = command.Green.String()
	default:
		return
	}
	s.done = true
	log.Info("victory", zap.String("winner", s.winner), zap.Int("red", red), zap.Int("green", green))
}

func (s *Simulation) winnerLabel() string {
	if s.winner == "" {
		return "none"
	}
	return s.winner
}
