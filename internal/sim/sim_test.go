package sim

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"go.uber.org/zap/zaptest"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/config"
	"HistoricalBattleSimulator/internal/oracle"
	"HistoricalBattleSimulator/internal/terrain"
)

const valleyScenario = `
name: Test Valley
num_rounds: 5
battle_config:
  combat_speed: 80
victory:
  red_floor: 100
  green_floor: 100
red_configs:
  name: Red
  initial_troops: 1000
  initial_position: [-400, 0]
  moral: Medium
  troopType: infantry
green_configs:
  name: Green
  initial_troops: 1500
  initial_position: [400, 0]
  moral: Medium
  troopType: infantry
  home_stronghold: Keep
terrain_config:
  width: 2000
  height: 2000
  terrains:
    - {type: Stronghold, name: Keep, position: [600, 600], defense_bonus: 20}
    - {type: River, name: Ford, position: [0, 800]}
  tunnels:
    - {name: Sap, start: [-600, -600], end: [-300, -600], capacity: 1000, stealth_bonus: 0.5}
oracle:
  offline: true
`

type fixture func(*config.Scenario)

func withRedSub(name string, troops int, pos terrain.Position) fixture {
	return func(s *config.Scenario) {
		s.Red.SubAgents = append(s.Red.SubAgents, config.Unit{Name: name, Troops: troops, Position: &pos, TroopType: "infantry", Morale: "Medium"})
	}
}

func withGreenSub(name string, troops int, pos terrain.Position) fixture {
	return func(s *config.Scenario) {
		s.Green.SubAgents = append(s.Green.SubAgents, config.Unit{Name: name, Troops: troops, Position: &pos, TroopType: "infantry", Morale: "Medium"})
	}
}

func withRedAt(pos terrain.Position) fixture {
	return func(s *config.Scenario) { s.Red.Position = &pos }
}

func withRedTroops(n int) fixture {
	return func(s *config.Scenario) { s.Red.Troops = n }
}

func newTestSim(t *testing.T, o oracle.Oracle, fixtures ...fixture) *Simulation {
	t.Helper()
	scn, err := config.Parse([]byte(valleyScenario))
	if err != nil {
		t.Fatalf("parse scenario: %v", err)
	}
	for _, f := range fixtures {
		f(scn)
	}
	if err := scn.Validate(); err != nil {
		t.Fatalf("validate scenario: %v", err)
	}
	opts := []Option{WithLogger(zaptest.NewLogger(t))}
	if o != nil {
		opts = append(opts, WithOracle(o))
	}
	s, err := New(scn, opts...)
	if err != nil {
		t.Fatalf("new simulation: %v", err)
	}
	return s
}

// byFaction answers with red for red units and green for green ones.
func byFaction(red, green func(oracle.Request) oracle.Decision) oracle.Oracle {
	return oracle.Func(func(_ context.Context, req oracle.Request) (oracle.Decision, error) {
		if req.Unit.Faction == command.Red.String() {
			return red(req), nil
		}
		return green(req), nil
	})
}

func wait(oracle.Request) oracle.Decision {
	return oracle.DefaultDecision("holding")
}

func mustVerify(t *testing.T, s *Simulation) {
	t.Helper()
	if err := s.Units.Verify(); err != nil {
		t.Fatalf("hierarchy invariants: %v", err)
	}
	for _, u := range s.Units.Units() {
		want := u.Initial - u.Deployed - u.Lost
		if want < 0 {
			want = 0
		}
		if u.Remaining() != want {
			t.Fatalf("%s remaining %d, want %d", u.Name, u.Remaining(), want)
		}
	}
}

func TestNew_SeedsBothFactions(t *testing.T) {
	s := newTestSim(t, nil, withRedSub("Red Vanguard", 300, terrain.Position{X: -200, Y: 0}))

	red := s.Units.FactionRoot(command.Red)
	green := s.Units.FactionRoot(command.Green)
	if red == nil || green == nil {
		t.Fatalf("missing roots")
	}
	sub := s.Units.Lookup("Red Vanguard")
	if sub == nil || sub.Parent != red.ID || !sub.Seeded {
		t.Fatalf("seeded sub-unit not attached: %+v", sub)
	}
	if red.Deployed != 0 {
		t.Fatalf("seeded troops counted against root: %d", red.Deployed)
	}
	if red.Target != green.ID || green.Target == command.NoTarget {
		t.Fatalf("targets not acquired at setup: red=%d green=%d", red.Target, green.Target)
	}
	if red.Speed != 80 {
		t.Fatalf("default speed = %d, want 80", red.Speed)
	}
	mustVerify(t, s)
}

func TestTunnelCapacityLimitsShelter(t *testing.T) {
	s := newTestSim(t, nil,
		withRedAt(terrain.Position{X: -500, Y: -600}),
		withRedSub("Sappers", 500, terrain.Position{X: -450, Y: -600}),
	)
	red := s.Units.FactionRoot(command.Red)
	sappers := s.Units.Lookup("Sappers")

	if !s.InTunnel(red) {
		t.Fatalf("first unit at capacity should be sheltered")
	}
	if s.InTunnel(sappers) {
		t.Fatalf("unit beyond capacity should not be sheltered")
	}

	s.updateOccupancy(zaptest.NewLogger(t))
	if s.pinned[red.ID] {
		t.Fatalf("root pinned although it fits")
	}
	if !s.pinned[sappers.ID] {
		t.Fatalf("overflowing unit not pinned")
	}
	if got := red.Tactics.Get("stealth"); got < 0.5 {
		t.Fatalf("stealth = %v, want at least the tunnel's 0.5", got)
	}
}

func TestTunnelOccupantKeepsShelterFromLaterArrival(t *testing.T) {
	s := newTestSim(t, nil,
		withRedTroops(500),
		withRedSub("Holders", 1000, terrain.Position{X: -400, Y: -600}),
	)
	red := s.Units.FactionRoot(command.Red)
	holders := s.Units.Lookup("Holders")
	if holders.ID < red.ID {
		t.Fatalf("occupant should carry the higher id: holders=%d red=%d", holders.ID, red.ID)
	}
	if !s.InTunnel(holders) {
		t.Fatalf("holders not sheltered in an otherwise empty tunnel")
	}

	red.MoveTo(1, terrain.Position{X: -500, Y: -600})
	if s.InTunnel(red) {
		t.Fatalf("arrival sheltered in a tunnel already at capacity")
	}
	if !s.InTunnel(holders) {
		t.Fatalf("occupant lost its shelter to a lower id arrival")
	}
}

func TestPinnedUnitWaits(t *testing.T) {
	assault := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("go")
		d.Action = "Launch Full Assault"
		d.Target = req.Unit.Target
		return d
	}
	s := newTestSim(t, byFaction(assault, wait),
		withRedAt(terrain.Position{X: -500, Y: -600}),
		withRedSub("Sappers", 500, terrain.Position{X: -450, Y: -600}),
	)
	s.Step(context.Background())

	if got := s.Units.Lookup("Sappers").Action; got != oracle.Wait {
		t.Fatalf("pinned unit action = %q, want wait", got)
	}
	if got := s.Units.FactionRoot(command.Red).Action; got != "Launch Full Assault" {
		t.Fatalf("sheltered root action = %q", got)
	}
}

func TestExplicitLossesWin(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("strike")
		d.Action = "Launch Full Assault"
		d.Target = "Green"
		d.OwnLoss = 10
		d.EnemyLoss = 20
		return d
	}
	s := newTestSim(t, byFaction(red, wait))
	s.Step(context.Background())

	if got := s.Units.Lookup("Red").Lost; got != 10 {
		t.Fatalf("red lost %d, want 10", got)
	}
	if got := s.Units.Lookup("Green").Lost; got != 20 {
		t.Fatalf("green lost %d, want 20", got)
	}
	rec := s.Units.Lookup("Red").History[0]
	if rec.OwnLoss != 10 || rec.EnemyLoss != 20 || rec.Target != "Green" {
		t.Fatalf("record = %+v", rec)
	}
	mustVerify(t, s)
}

func TestEstimatedLossesFillZeroFields(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("strike")
		d.Action = "Launch Full Assault"
		d.Target = "Green"
		return d
	}
	s := newTestSim(t, byFaction(red, wait))
	s.Step(context.Background())

	if s.Units.Lookup("Red").Lost == 0 || s.Units.Lookup("Green").Lost == 0 {
		t.Fatalf("assault without figures should fall back to the resolver")
	}
}

func TestVictoryEndsRunAtEndOfTurn(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("crush")
		d.Action = "Human Wave Assault"
		d.Target = "Green"
		d.OwnLoss = 1
		d.EnemyLoss = 1450
		return d
	}
	greenActed := false
	green := func(req oracle.Request) oracle.Decision {
		greenActed = true
		return wait(req)
	}
	s := newTestSim(t, byFaction(red, green))

	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Rounds != 1 || sum.Winner != "red" {
		t.Fatalf("rounds=%d winner=%q, want 1 red", sum.Rounds, sum.Winner)
	}
	if !greenActed {
		t.Fatalf("turn ended before every unit acted")
	}
	if len(sum.Series.GreenTroops) != 1 || sum.Series.GreenTroops[0] != 50 {
		t.Fatalf("green series = %v, want [50]", sum.Series.GreenTroops)
	}
	if sum.Series.Labels[0] != "Turn 1" {
		t.Fatalf("labels = %v", sum.Series.Labels)
	}
}

func TestRunStopsAtRoundLimit(t *testing.T) {
	s := newTestSim(t, byFaction(wait, wait))
	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Rounds != 5 || sum.Winner != "" || !s.Done() {
		t.Fatalf("rounds=%d winner=%q done=%v", sum.Rounds, sum.Winner, s.Done())
	}
	if len(sum.Units) != 2 {
		t.Fatalf("final units = %d, want 2", len(sum.Units))
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	s := newTestSim(t, byFaction(wait, wait))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s.Turn() != 0 {
		t.Fatalf("played %d turns after cancellation", s.Turn())
	}
}

func TestTargetAcquisitionPriorities(t *testing.T) {
	s := newTestSim(t, nil, withGreenSub("Keep Garrison", 200, terrain.Position{X: 620, Y: 600}))
	red := s.Units.FactionRoot(command.Red)
	garrison := s.Units.Lookup("Keep Garrison")
	if red.Target != garrison.ID {
		t.Fatalf("red target = %s, want the stronghold garrison", s.targetName(red))
	}

	green := s.Units.FactionRoot(command.Green)
	if green.Target != red.ID {
		t.Fatalf("green target = %s, want Red", s.targetName(green))
	}
}

func TestTargetTieKeepsLowestID(t *testing.T) {
	s := newTestSim(t, nil,
		withRedAt(terrain.Position{X: 0, Y: 300}),
		withRedSub("Twin", 500, terrain.Position{X: 0, Y: -300}),
	)
	green := s.Units.FactionRoot(command.Green)
	green.Position = terrain.Position{X: 0, Y: 0}
	s.home = nil
	green.Target = command.NoTarget
	s.acquireTargets()

	if got := s.targetName(green); got != "Red" {
		t.Fatalf("tie broken toward %s, want Red", got)
	}
}

func TestRedTargetsEnemyNearestTunnelExit(t *testing.T) {
	s := newTestSim(t, nil,
		withRedAt(terrain.Position{X: -500, Y: -600}),
		withGreenSub("Rear Guard", 200, terrain.Position{X: -700, Y: -400}),
		withGreenSub("Exit Watch", 200, terrain.Position{X: -200, Y: -500}),
	)
	red := s.Units.FactionRoot(command.Red)
	if !s.InTunnel(red) {
		t.Fatalf("red root not sheltered in the sap")
	}
	if got := s.targetName(red); got != "Exit Watch" {
		t.Fatalf("red target = %s, want the enemy nearest the tunnel exit", got)
	}

	red.MoveTo(1, terrain.Position{X: -500, Y: -300})
	red.Target = command.NoTarget
	s.acquireTargets()
	if got := s.targetName(red); got != "Rear Guard" {
		t.Fatalf("red target outside the tunnel = %s, want the nearest enemy", got)
	}
}

func TestEnemyDetectionRange(t *testing.T) {
	s := newTestSim(t, nil, withGreenSub("Sentries", 200, terrain.Position{X: -400, Y: -600}))
	red := s.Units.FactionRoot(command.Red)
	sentries := s.Units.Lookup("Sentries")

	if !s.IsEnemyWithin(red, 900) {
		t.Fatalf("green root at 800 not seen within 900")
	}
	s.Field.Weather.Visibility = 0.8
	if s.IsEnemyWithin(red, 900) {
		t.Fatalf("range not shortened by visibility")
	}

	s.Field.Weather.Visibility = 1
	if s.IsEnemyWithin(red, 700) {
		t.Fatalf("sentries at 600 seen although the tunnel halves the range")
	}
	sentries.MoveTo(1, terrain.Position{X: -400, Y: -500})
	if !s.IsEnemyWithin(red, 700) {
		t.Fatalf("sentries at 500 outside the tunnel not seen within 700")
	}
}

func TestSupplyLine(t *testing.T) {
	s := newTestSim(t, nil,
		withRedSub("Raiders", 300, terrain.Position{X: -400, Y: 300}),
		withGreenSub("Infiltrators", 100, terrain.Position{X: -300, Y: 0}),
	)
	raiders := s.Units.Lookup("Raiders")
	raiders.Target = command.NoTarget

	s.updateSupply(raiders)
	if !raiders.SupplyLine {
		t.Fatalf("supply severed within radius of the root")
	}

	raiders.MoveTo(1, terrain.Position{X: 800, Y: -800})
	s.updateSupply(raiders)
	if raiders.SupplyLine {
		t.Fatalf("supply active beyond radius of the root")
	}

	raiders.MoveTo(2, terrain.Position{X: -400, Y: 300})
	raiders.Target = s.Units.Lookup("Infiltrators").ID
	s.updateSupply(raiders)
	if raiders.SupplyLine {
		t.Fatalf("supply active although the target threatens the root")
	}
}

func TestCaptureAndEncirclement(t *testing.T) {
	s := newTestSim(t, nil,
		withGreenSub("Keep Garrison", 200, terrain.Position{X: 620, Y: 600}),
		withRedSub("Left Pincer", 300, terrain.Position{X: 500, Y: 600}),
		withRedSub("Right Pincer", 300, terrain.Position{X: 700, Y: 650}),
	)
	keep := s.Field.Named("Keep")
	ford := s.Field.Named("Ford")
	garrison := s.Units.Lookup("Keep Garrison")

	if !s.captured[keep] || s.captured[ford] {
		t.Fatalf("captured: keep=%v ford=%v", s.captured[keep], s.captured[ford])
	}
	if !s.encircled[keep] || !garrison.Encircled {
		t.Fatalf("keep not encircled by two pincers: keep=%v garrison=%v", s.encircled[keep], garrison.Encircled)
	}

	s.Units.Lookup("Right Pincer").Target = command.NoTarget
	s.markFeatures()
	if s.encircled[keep] || garrison.Encircled {
		t.Fatalf("one infantry unit encircled the keep")
	}
}

func TestRecallThroughDecision(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("reorganise")
		switch req.Round {
		case 1:
			pos := terrain.Position{X: -350, Y: 0}
			d.SubOrders = []oracle.SubOrder{{Deploy: true, Name: "Red_Detachment", Troops: 300, Position: &pos}}
		case 2:
			d.Recall = []string{"Red_Detachment"}
		}
		return d
	}
	s := newTestSim(t, byFaction(red, wait))
	root := s.Units.FactionRoot(command.Red)

	s.Step(context.Background())
	child := s.Units.Lookup("Red_Detachment")
	if child == nil || child.Parent != root.ID {
		t.Fatalf("detachment not deployed")
	}
	if root.Deployed != 300 || root.Remaining() != 700 {
		t.Fatalf("root deployed=%d remaining=%d", root.Deployed, root.Remaining())
	}
	mustVerify(t, s)

	s.Step(context.Background())
	if !child.Recalled || child.Active() {
		t.Fatalf("detachment still active after recall")
	}
	if root.Deployed != 0 || root.Remaining() != 1000 {
		t.Fatalf("root deployed=%d remaining=%d after merge", root.Deployed, root.Remaining())
	}
	last := root.History[len(root.History)-1]
	if len(last.Recalled) != 1 || last.Recalled[0] != "Red_Detachment" {
		t.Fatalf("recall not recorded: %+v", last)
	}
	mustVerify(t, s)
}

func TestDeployNameCollisionIsRenamed(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("detach")
		pos := terrain.Position{X: -350, Y: 50}
		d.SubOrders = []oracle.SubOrder{{Deploy: true, Name: "Green", Troops: 100, Position: &pos}}
		return d
	}
	s := newTestSim(t, byFaction(red, wait))
	s.Step(context.Background())

	sub := s.Units.Lookup("Red_Sub1")
	if sub == nil || sub.Parent != s.Units.FactionRoot(command.Red).ID {
		t.Fatalf("colliding name was not regenerated")
	}
	if sub.Faction != command.Red {
		t.Fatalf("renamed sub-unit faction = %s", sub.Faction)
	}
}

func TestOverCapDeploymentDropped(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("detach")
		pos := terrain.Position{X: -350, Y: 50}
		ok := terrain.Position{X: -350, Y: -50}
		d.SubOrders = []oracle.SubOrder{
			{Deploy: true, Name: "Too Big", Troops: 401, Position: &pos},
			{Deploy: true, Name: "Just Right", Troops: 100, Position: &ok},
		}
		return d
	}
	s := newTestSim(t, byFaction(red, wait))
	s.Step(context.Background())

	if s.Units.Lookup("Too Big") != nil {
		t.Fatalf("over-cap deployment applied")
	}
	if s.Units.Lookup("Just Right") == nil {
		t.Fatalf("valid deployment dropped with the invalid one")
	}
	if got := s.Units.FactionRoot(command.Red).Deployed; got != 100 {
		t.Fatalf("deployed = %d, want 100", got)
	}
	mustVerify(t, s)
}

func TestMalformedSubOrdersDroppedOneAtATime(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("detach")
		if req.Round != 1 {
			return d
		}
		ok := terrain.Position{X: -300, Y: 0}
		d.SubOrders = []oracle.SubOrder{
			{Deploy: true, Name: "Lost Orders", Troops: 10},
			{Deploy: true, Troops: 10, Position: &ok},
			{Name: "", Troops: 50},
			{Deploy: true, Name: "Good", Troops: 10, Position: &ok},
		}
		return d
	}
	s := newTestSim(t, byFaction(red, wait))
	s.Step(context.Background())

	if s.Units.Lookup("Lost Orders") != nil {
		t.Fatalf("deployment without a position applied")
	}
	if s.Units.Lookup("Good") == nil {
		t.Fatalf("valid deployment lost behind malformed ones")
	}
	root := s.Units.FactionRoot(command.Red)
	if last := root.History[len(root.History)-1]; last.Failed {
		t.Fatalf("turn failed: %+v", last)
	}
	if root.Deployed != 10 {
		t.Fatalf("deployed = %d, want 10", root.Deployed)
	}
	mustVerify(t, s)
}

func TestInvalidFieldsFallBack(t *testing.T) {
	red := func(req oracle.Request) oracle.Decision {
		river := terrain.Position{X: 0, Y: 800}
		speed := 500
		return oracle.Decision{
			Action:   "Dance",
			Stage:    "Party",
			Position: &river,
			Target:   "Nobody",
			Morale:   "Ecstatic",
			Speed:    &speed,
		}
	}
	s := newTestSim(t, byFaction(red, wait))
	red0 := s.Units.FactionRoot(command.Red)
	start := red0.Position
	s.Step(context.Background())

	if red0.Action != oracle.Wait || red0.Stage != command.InBattle || red0.Morale != command.Medium {
		t.Fatalf("action=%q stage=%s morale=%s", red0.Action, red0.Stage, red0.Morale)
	}
	if red0.Position != start || red0.Speed != 80 {
		t.Fatalf("position=%s speed=%d", red0.Position, red0.Speed)
	}
	rec := red0.History[0]
	if rec.Target != "None" || rec.Remarks != "Action executed." {
		t.Fatalf("record = %+v", rec)
	}
}

func TestOracleErrorFallsBackToWait(t *testing.T) {
	failing := oracle.Func(func(context.Context, oracle.Request) (oracle.Decision, error) {
		return oracle.Decision{}, errors.New("backend down")
	})
	s := newTestSim(t, failing)
	s.Step(context.Background())

	for _, u := range s.Units.Active() {
		if u.Action != oracle.Wait || u.Lost != 0 {
			t.Fatalf("%s action=%q lost=%d", u.Name, u.Action, u.Lost)
		}
		if !strings.HasPrefix(u.History[0].Remarks, "Decision unavailable") {
			t.Fatalf("remarks = %q", u.History[0].Remarks)
		}
	}
}

func TestPanicIsConfinedToUnit(t *testing.T) {
	flaky := oracle.Func(func(_ context.Context, req oracle.Request) (oracle.Decision, error) {
		if req.Unit.Faction == command.Red.String() {
			panic("corrupt briefing")
		}
		return wait(req), nil
	})
	s := newTestSim(t, flaky)
	s.Step(context.Background())

	red := s.Units.FactionRoot(command.Red)
	if len(red.History) != 1 || !red.History[0].Failed || !strings.HasPrefix(red.History[0].Remarks, "Error:") {
		t.Fatalf("red history = %+v", red.History)
	}
	if green := s.Units.FactionRoot(command.Green); len(green.History) != 1 || green.History[0].Failed {
		t.Fatalf("green turn lost to another unit's failure")
	}
}

func TestLowMoraleAttrition(t *testing.T) {
	low := func(req oracle.Request) oracle.Decision {
		d := oracle.DefaultDecision("shaken")
		d.Morale = "Low"
		d.Target = "Green"
		return d
	}
	s := newTestSim(t, byFaction(low, wait))
	s.Step(context.Background())

	if got := s.Units.FactionRoot(command.Red).Lost; got != 75 {
		t.Fatalf("isolated low morale loss = %d, want 50+25", got)
	}
}

func TestDoctrineBattleKeepsInvariants(t *testing.T) {
	s := newTestSim(t, nil)
	for i := 0; i < 5; i++ {
		s.Step(context.Background())
		mustVerify(t, s)
	}
	if len(s.Deployment()) != 20 {
		t.Fatalf("deployment rows = %d, want 20", len(s.Deployment()))
	}
}

func TestDeploymentMarksFeatureByFirstLetter(t *testing.T) {
	s := newTestSim(t, nil)
	pos := terrain.Position{X: -950, Y: 950}
	s.Field.Add(terrain.Feature{Type: terrain.Hills, Name: "Độc Lập", Position: pos})

	if got := s.terrainCell(pos); got != "Đ" {
		t.Fatalf("cell = %q, want the first letter", got)
	}
	for i, row := range s.Deployment() {
		if !utf8.ValidString(row) {
			t.Fatalf("row %d is not valid UTF-8: %q", i, row)
		}
	}
	if row := s.Deployment()[0]; !strings.HasPrefix(row, "Đ") {
		t.Fatalf("north-west cell = %q", row)
	}
}

func TestWriteSummary(t *testing.T) {
	s := newTestSim(t, byFaction(wait, wait), func(scn *config.Scenario) { scn.Rounds = 2 })
	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "chart.json")
	if err := WriteSummary(jsonPath, sum); err != nil {
		t.Fatalf("write json: %v", err)
	}
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var got Summary
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if got.RunID == "" || got.Rounds != 2 || len(got.Series.RedTroops) != 2 {
		t.Fatalf("summary = %+v", got)
	}

	yamlPath := filepath.Join(dir, "chart.yaml")
	if err := WriteSummary(yamlPath, sum); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	data, err = os.ReadFile(yamlPath)
	if err != nil {
		t.Fatalf("read yaml: %v", err)
	}
	if !strings.Contains(string(data), "rounds_played: 2") {
		t.Fatalf("yaml summary missing rounds:\n%s", data)
	}
}

func TestExampleScenarioRuns(t *testing.T) {
	scn, err := config.Load(filepath.Join("..", "..", "scenarios", "dien_bien_phu.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := scn.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	s, err := New(scn, WithLogger(zaptest.NewLogger(t)), WithRounds(6))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	sum, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if sum.Rounds == 0 || len(sum.Series.Labels) != sum.Rounds {
		t.Fatalf("rounds=%d labels=%d", sum.Rounds, len(sum.Series.Labels))
	}
	mustVerify(t, s)
}
