package sim

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/oracle"
	"HistoricalBattleSimulator/internal/terrain"
)

const defaultRemarks = "Action executed."

// order is a decision after every field has been checked against the
// battlefield.
type order struct {
	action   string
	stage    command.Stage
	position *terrain.Position
	target   int
	morale   command.Morale
	speed    int
	remarks  string
}

func (s *Simulation) decide(ctx context.Context, log *zap.Logger, u *command.Unit) oracle.Decision {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	d, err := s.oracle.Decide(ctx, s.request(u))
	if err != nil {
		log.Warn("decision unavailable, waiting", zap.String("unit", u.Name), zap.Error(err))
		return oracle.DefaultDecision("Decision unavailable: " + err.Error())
	}
	return d
}

func (s *Simulation) recognized(action string) bool {
	return s.known[action]
}

// validate replaces every unusable field of d with its fallback.
func (s *Simulation) validate(log *zap.Logger, u *command.Unit, d oracle.Decision) order {
	o := order{
		action:  d.Action,
		target:  command.NoTarget,
		morale:  command.Medium,
		speed:   s.scn.Battle.CombatSpeed,
		remarks: strings.TrimSpace(d.Remarks),
	}
	if !s.recognized(o.action) {
		if o.action != "" {
			log.Debug("unknown action", zap.String("unit", u.Name), zap.String("action", o.action))
		}
		o.action = oracle.Wait
	}
	if s.pinned[u.ID] {
		o.action = oracle.Wait
	}

	if st, ok := command.ParseStage(d.Stage); ok && (s.stages == nil || s.stages[st]) {
		o.stage = st
	} else {
		o.stage = command.InBattle
	}
	if d.Position != nil && s.Field.IsValidPosition(*d.Position) {
		p := *d.Position
		o.position = &p
	} else if d.Position != nil {
		log.Debug("position rejected", zap.String("unit", u.Name), zap.Stringer("position", *d.Position))
	}
	if t := s.Units.Lookup(strings.TrimSpace(d.Target)); t != nil && t.Active() && t.Faction != u.Faction {
		o.target = t.ID
	}
	if m, ok := command.ParseMorale(d.Morale); ok {
		o.morale = m
	}
	if d.Speed != nil && *d.Speed >= 0 && *d.Speed <= maxSpeed {
		o.speed = *d.Speed
	}
	if o.remarks == "" {
		o.remarks = defaultRemarks
	}
	return o
}

// execute asks the oracle for u's decision and carries it out: movement,
// passive morale effects, combat, sub-orders and recalls, in that order.
func (s *Simulation) execute(ctx context.Context, log *zap.Logger, u *command.Unit) {
	d := s.decide(ctx, log, u)
	o := s.validate(log, u, d)

	u.Action = o.action
	u.SetStage(o.stage, o.remarks)
	u.StageTurns++
	if o.position != nil {
		u.MoveTo(s.turn, *o.position)
	}
	u.Target = o.target
	u.Morale = o.morale
	u.Speed = o.speed

	s.applyMorale(u)

	rec := command.Record{
		Turn:     s.turn,
		Action:   u.Action,
		Stage:    u.Stage,
		Position: u.Position,
		Target:   s.targetName(u),
		Morale:   u.Morale,
		Remarks:  o.remarks,
	}
	if u.Active() {
		own, enemy := s.engage(log, u, u.Remaining(), u.Action, d.OwnLoss, d.EnemyLoss)
		rec.OwnLoss += own
		rec.EnemyLoss += enemy
	}

	recalling := make(map[string]bool, len(d.Recall))
	for _, name := range d.Recall {
		recalling[name] = true
	}
	for _, so := range d.SubOrders {
		if so.Deploy {
			s.deploy(log, u, so, recalling, &rec)
		} else {
			s.update(log, u, so, recalling, &rec)
		}
	}
	for _, name := range d.Recall {
		res, err := s.Units.Recall(u.ID, name)
		if err != nil {
			log.Debug("recall ignored", zap.String("unit", u.Name), zap.String("sub", name), zap.Error(err))
			continue
		}
		log.Info("sub-unit recalled", zap.String("unit", u.Name), zap.Stringer("result", res))
		rec.Recalled = append(rec.Recalled, name)
	}

	u.Remember(rec, s.scn.Battle.HistoryLimit)
	log.Info("unit acted",
		zap.String("unit", u.Name),
		zap.String("action", rec.Action),
		zap.Stringer("stage", rec.Stage),
		zap.Stringer("position", rec.Position),
		zap.String("target", rec.Target),
		zap.Int("remaining", u.Remaining()),
		zap.Int("ownLoss", rec.OwnLoss),
		zap.Int("enemyLoss", rec.EnemyLoss),
	)
}

// applyMorale bleeds low morale units, more so when isolated from cover,
// and lets high morale units recover.
func (s *Simulation) applyMorale(u *command.Unit) {
	b := s.scn.Battle
	switch u.Morale {
	case command.Low:
		dmg := b.LowMoraleAttrition
		if u.Target != command.NoTarget && !s.Field.AnyWithin(u.Position, contactRange) {
			dmg += b.IsolationPenalty
		}
		u.TakeDamage(dmg)
	case command.High:
		u.Recover(b.HighMoraleRecovery)
	}
}

func firstPositive(explicit, estimated int) int {
	if explicit > 0 {
		return explicit
	}
	return estimated
}

// engage books one exchange between u and its target. Explicit loss figures
// win; zero figures are filled from the resolver's estimate.
func (s *Simulation) engage(log *zap.Logger, u *command.Unit, troops int, action string, ownLoss, enemyLoss int) (int, int) {
	est := s.estimate(u, troops, action)
	own := u.TakeDamage(firstPositive(ownLoss, est.Own))
	enemy := 0
	if t := s.Units.Get(u.Target); t != nil && t.Active() && t.Faction != u.Faction {
		committed := t.Remaining()
		enemy = t.TakeDamage(firstPositive(enemyLoss, est.Enemy))
		if est.Heavy(troops, committed) {
			log.Warn("heavy casualties expected",
				zap.String("unit", u.Name),
				zap.String("target", t.Name),
				zap.Int("own", est.Own),
				zap.Int("enemy", est.Enemy),
				zap.Float64("ratio", est.Ratio),
			)
		}
		if !t.Active() {
			log.Info("unit destroyed", zap.String("unit", t.Name), zap.String("by", u.Name))
		}
	}
	return own, enemy
}

func (s *Simulation) subAction(requested, fallback string) string {
	if s.recognized(requested) {
		return requested
	}
	return fallback
}

func validSpeed(v int) int {
	if v > 0 && v <= maxSpeed {
		return v
	}
	return 0
}

// deploy spawns a sub-unit, renaming it when the requested name is taken or
// is being recalled this turn.
func (s *Simulation) deploy(log *zap.Logger, u *command.Unit, so oracle.SubOrder, recalling map[string]bool, rec *command.Record) {
	if so.Name == "" || so.Position == nil {
		log.Debug("malformed deployment dropped", zap.String("unit", u.Name), zap.String("sub", so.Name))
		return
	}
	name := so.Name
	if recalling[name] || s.Units.Lookup(name) != nil {
		name = s.Units.UniqueName(u.ID)
		log.Debug("sub-unit renamed", zap.String("requested", so.Name), zap.String("name", name))
	}
	child, err := s.Units.Spawn(u.ID, command.SpawnSpec{
		Name:      name,
		TroopType: so.TroopType,
		Action:    s.subAction(so.Action, u.Action),
		Troops:    so.Troops,
		Position:  *so.Position,
		Speed:     validSpeed(so.Speed),
	})
	if err != nil {
		log.Warn("deployment rejected", zap.String("unit", u.Name), zap.String("sub", name), zap.Error(err))
		return
	}
	log.Info("sub-unit deployed",
		zap.String("unit", u.Name),
		zap.String("sub", child.Name),
		zap.Int("troops", child.Initial),
		zap.Stringer("position", child.Position),
	)
	own, enemy := s.engage(log, child, child.Remaining(), child.Action, so.OwnLoss, so.EnemyLoss)
	rec.OwnLoss += own
	rec.EnemyLoss += enemy
	rec.SubOrders = append(rec.SubOrders, fmt.Sprintf("deploy %s (%d): %s", child.Name, child.Initial, child.Action))
}

// update moves, re-tasks and resizes an existing child.
func (s *Simulation) update(log *zap.Logger, u *command.Unit, so oracle.SubOrder, recalling map[string]bool, rec *command.Record) {
	if so.Name == "" {
		log.Debug("unnamed sub-unit update dropped", zap.String("unit", u.Name))
		return
	}
	if recalling[so.Name] {
		return
	}
	c := s.Units.FindChild(u.ID, so.Name)
	if c == nil || !c.Active() {
		log.Debug("update for unknown or inactive sub-unit", zap.String("unit", u.Name), zap.String("sub", so.Name))
		return
	}
	if so.Position != nil && s.Field.IsValidPosition(*so.Position) {
		c.MoveTo(s.turn, *so.Position)
	}
	if v := validSpeed(so.Speed); v > 0 {
		c.Speed = v
	}
	c.Action = s.subAction(so.Action, c.Action)
	if so.Troops > 0 {
		delta, err := s.Units.Reinforce(u.ID, c.ID, so.Troops)
		if err != nil {
			log.Warn("reinforcement rejected", zap.String("unit", u.Name), zap.String("sub", c.Name), zap.Error(err))
		} else if delta != 0 {
			log.Info("sub-unit resized", zap.String("sub", c.Name), zap.Int("delta", delta))
		}
	}
	own, enemy := s.engage(log, c, c.Remaining(), c.Action, so.OwnLoss, so.EnemyLoss)
	rec.OwnLoss += own
	rec.EnemyLoss += enemy
	rec.SubOrders = append(rec.SubOrders, fmt.Sprintf("update %s: %s", c.Name, c.Action))
}
