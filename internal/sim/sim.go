package sim

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"HistoricalBattleSimulator/internal/combat"
	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/config"
	"HistoricalBattleSimulator/internal/oracle"
	"HistoricalBattleSimulator/internal/terrain"
)

// maxSpeed bounds the speed an oracle may order.
const maxSpeed = 200

// Simulation runs one scenario turn by turn. It is not safe for concurrent
// use; every mutation happens on the caller's goroutine.
type Simulation struct {
	Field *terrain.Field
	Units *command.Hierarchy

	scn      *config.Scenario
	oracle   oracle.Oracle
	log      *zap.Logger
	coeffs   combat.Coefficients
	actions  []string
	known    map[string]bool
	stages   map[command.Stage]bool
	labels   []string
	guidance map[string]interface{}
	buffer   float64
	timeout  time.Duration
	rounds   int
	home     *terrain.Feature

	turn      int
	done      bool
	winner    string
	runID     string
	series    Series
	pinned    map[int]bool
	captured  map[*terrain.Feature]bool
	encircled map[*terrain.Feature]bool
}

type Option func(*Simulation)

// WithOracle replaces the default offline doctrine.
func WithOracle(o oracle.Oracle) Option {
	return func(s *Simulation) { s.oracle = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Simulation) { s.log = l }
}

// WithRounds overrides the scenario's round limit when n is positive.
func WithRounds(n int) Option {
	return func(s *Simulation) {
		if n > 0 {
			s.rounds = n
		}
	}
}

// WithDecisionTimeout bounds each oracle call.
func WithDecisionTimeout(d time.Duration) Option {
	return func(s *Simulation) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New builds the battlefield and both command trees from scn. The scenario
// should already have passed Validate.
func New(scn *config.Scenario, opts ...Option) (*Simulation, error) {
	field, err := scn.Field()
	if err != nil {
		return nil, err
	}
	s := &Simulation{
		Field:     field,
		Units:     command.NewHierarchy(field, scn.Battle.DeployCap),
		scn:       scn,
		oracle:    oracle.DefaultDoctrine(),
		log:       zap.NewNop(),
		actions:   scn.ActionNames(),
		known:     make(map[string]bool),
		labels:    scn.StageLabels(),
		guidance:  scn.Guidance(),
		buffer:    scn.TunnelBuffer(),
		timeout:   scn.Oracle.Timeout,
		rounds:    scn.RoundLimit(),
		runID:     uuid.NewString(),
		pinned:    make(map[int]bool),
		captured:  make(map[*terrain.Feature]bool),
		encircled: make(map[*terrain.Feature]bool),
	}
	for _, opt := range opts {
		opt(s)
	}
	for _, a := range s.actions {
		s.known[a] = true
	}
	for _, label := range s.labels {
		if st, ok := command.ParseStage(label); ok {
			if s.stages == nil {
				s.stages = make(map[command.Stage]bool)
			}
			s.stages[st] = true
		}
	}
	if len(s.labels) == 0 {
		s.labels = command.Stages()
	}

	s.coeffs = combat.Coefficients{
		Casualty:           scn.Battle.CasualtyCoeff,
		ArtilleryDominance: scn.Battle.ArtilleryDominance,
		DecayRound:         scn.Battle.ArtilleryDecayRound,
		DecayFactor:        scn.Battle.ArtilleryDecayFactor,
		ActionModifiers:    combat.DefaultActionModifiers(),
	}
	for name, m := range scn.CasualtyModifiers() {
		s.coeffs.ActionModifiers[name] = m
	}

	if w, ok := scn.WeatherAt(1); ok {
		s.setWeather(w)
	}
	if err := s.seedFaction(command.Red, scn.Red); err != nil {
		return nil, err
	}
	if err := s.seedFaction(command.Green, scn.Green); err != nil {
		return nil, err
	}
	s.home = s.homeStronghold()

	s.acquireTargets()
	for _, u := range s.Units.Active() {
		s.updateSupply(u)
	}
	s.markFeatures()
	s.log.Info("simulation ready",
		zap.String("run", s.runID),
		zap.String("scenario", scn.Name),
		zap.Int("rounds", s.rounds),
		zap.Int("units", len(s.Units.Units())),
		zap.Int("features", len(field.Features)),
	)
	return s, nil
}

func (s *Simulation) seed(u config.Unit) command.Seed {
	morale, ok := command.ParseMorale(u.Morale)
	if !ok {
		morale = command.Medium
	}
	stage, ok := command.ParseStage(u.Stage)
	if !ok {
		stage = command.InBattle
	}
	var pos terrain.Position
	if u.Position != nil {
		pos = *u.Position
	}
	speed := u.Speed
	if speed <= 0 {
		speed = s.scn.Battle.CombatSpeed
	}
	action := u.Action
	if action == "" {
		action = oracle.Wait
	}
	return command.Seed{
		Name:       u.Name,
		Commander:  u.Commander,
		Mission:    u.Mission,
		Background: u.Background(),
		TroopType:  u.TroopType,
		Troops:     u.InitialTroops(),
		Position:   pos,
		Speed:      speed,
		Morale:     morale,
		Tactics:    command.Tactics(u.Tactics),
		Equipment:  u.Equipment,
		Ammo:       u.Ammo,
		Action:     action,
		Stage:      stage,
	}
}

func (s *Simulation) seedFaction(f command.Faction, cfg config.Faction) error {
	root, err := s.Units.AddRoot(f, s.seed(cfg.Unit))
	if err != nil {
		return fmt.Errorf("%s root: %w", f, err)
	}
	for _, sub := range cfg.SubAgents {
		if _, err := s.Units.AddSeed(root.ID, s.seed(sub)); err != nil {
			return fmt.Errorf("%s sub-unit: %w", f, err)
		}
	}
	return nil
}

// homeStronghold is the defending faction's named stronghold, or the one
// nearest its root.
func (s *Simulation) homeStronghold() *terrain.Feature {
	if name := s.scn.Green.HomeStronghold; name != "" {
		if f := s.Field.Named(name); f != nil {
			return f
		}
	}
	root := s.Units.FactionRoot(command.Green)
	if root == nil {
		return nil
	}
	return s.Field.NearestOfType(root.Position, terrain.Stronghold)
}

// setWeather installs w, treating unset modifiers as neutral.
func (s *Simulation) setWeather(w terrain.Weather) {
	if w.Visibility <= 0 {
		w.Visibility = 1
	}
	if w.Artillery <= 0 {
		w.Artillery = 1
	}
	if w.Speed <= 0 {
		w.Speed = 1
	}
	if w.Type == "" {
		w.Type = "Clear"
	}
	s.Field.Weather = w
}

func (s *Simulation) Turn() int      { return s.turn }
func (s *Simulation) Rounds() int    { return s.rounds }
func (s *Simulation) Done() bool     { return s.done }
func (s *Simulation) Winner() string { return s.winner }
func (s *Simulation) RunID() string  { return s.runID }

// Run steps until a faction falls below its floor or the round limit is
// reached. A cancelled ctx stops the run between turns.
func (s *Simulation) Run(ctx context.Context) (Summary, error) {
	for !s.done {
		if err := ctx.Err(); err != nil {
			s.log.Warn("run interrupted", zap.Int("turn", s.turn), zap.Error(err))
			return s.Summary(), err
		}
		s.Step(ctx)
	}
	for _, u := range s.Units.Active() {
		s.log.Info("final unit state",
			zap.String("unit", u.Name),
			zap.Stringer("faction", u.Faction),
			zap.Int("remaining", u.Remaining()),
			zap.Stringer("stage", u.Stage),
			zap.Stringer("position", u.Position),
		)
	}
	return s.Summary(), nil
}
