package combat

import (
	"testing"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

func baseEngagement() Engagement {
	return Engagement{
		Attacker: Side{
			Faction: command.Red,
			Troops:  1000,
			Tactics: command.Tactics{"attack": 0.6},
			Morale:  command.Medium,
		},
		Defender: Side{
			Faction: command.Green,
			Troops:  1500,
			Tactics: command.Tactics{"defense": 0.5},
			Morale:  command.Medium,
		},
		DefenderCover: &terrain.Feature{Type: terrain.Flat, Name: "open", SpeedMultiplier: 1},
		Visibility:    1,
		Artillery:     1,
		Round:         1,
	}
}

func TestResolve_OpenGround(t *testing.T) {
	est := Resolve(baseEngagement(), DefaultCoefficients())
	if est.Ratio <= minRatio || est.Ratio >= maxRatio {
		t.Fatalf("ratio %v not strictly inside bounds", est.Ratio)
	}
	if est.Own <= 0 || est.Own > 1000 {
		t.Fatalf("own loss %d out of range", est.Own)
	}
	if est.Enemy <= 0 || est.Enemy > 1500 {
		t.Fatalf("enemy loss %d out of range", est.Enemy)
	}
	if est.Own != 57 || est.Enemy != 54 {
		t.Fatalf("estimate = %+v, want own 57 enemy 54", est)
	}
}

func TestResolve_ZeroCases(t *testing.T) {
	c := DefaultCoefficients()

	e := baseEngagement()
	e.Attacker.Troops = 0
	if est := Resolve(e, c); est != (Estimate{}) {
		t.Fatalf("no attacker troops: %+v", est)
	}

	e = baseEngagement()
	e.Defender.Troops = 0
	if est := Resolve(e, c); est != (Estimate{}) {
		t.Fatalf("destroyed defender: %+v", est)
	}

	e = baseEngagement()
	e.Attacker.Tactical = 0
	e.Attacker.Tactics = command.Tactics{"assault": -10}
	if est := Resolve(e, c); est != (Estimate{}) {
		t.Fatalf("non-positive attack power: %+v", est)
	}
}

func TestResolve_Modifiers(t *testing.T) {
	c := DefaultCoefficients()
	open := Resolve(baseEngagement(), c)

	e := baseEngagement()
	e.Defender.Sheltered = true
	if sheltered := Resolve(e, c); sheltered.Enemy >= open.Enemy {
		t.Fatalf("sheltered defender should lose fewer troops: %d vs %d", sheltered.Enemy, open.Enemy)
	}

	e = baseEngagement()
	e.DefenderCover = &terrain.Feature{Type: terrain.Stronghold, DefenseBonus: 40}
	if fort := Resolve(e, c); fort.Own <= open.Own || fort.Enemy >= open.Enemy {
		t.Fatalf("stronghold should favour the defender: %+v vs %+v", fort, open)
	}

	e = baseEngagement()
	e.Action = "Human Wave Assault"
	if wave := Resolve(e, c); wave.Own <= open.Own {
		t.Fatalf("human wave should cost the attacker more: %d vs %d", wave.Own, open.Own)
	}

	e = baseEngagement()
	e.Attacker.Faction = command.Green
	e.Round = 25
	if decayed := Resolve(e, c); decayed.Enemy >= open.Enemy {
		t.Fatalf("late green artillery should be degraded: %d vs %d", decayed.Enemy, open.Enemy)
	}
}

func TestResolve_RatioClamp(t *testing.T) {
	e := baseEngagement()
	e.Attacker.Troops = 1
	e.Defender.Troops = 100000
	if est := Resolve(e, DefaultCoefficients()); est.Ratio != minRatio {
		t.Fatalf("ratio = %v, want %v", est.Ratio, minRatio)
	}
}

func TestTerrainModifiers(t *testing.T) {
	if a, d := TerrainModifiers(nil); a != 1 || d != 1 {
		t.Fatalf("no cover = %v, %v", a, d)
	}
	if a, d := TerrainModifiers(&terrain.Feature{Type: terrain.Hills}); a != 1.2 || d != 0.8 {
		t.Fatalf("hills = %v, %v", a, d)
	}
	if a, d := TerrainModifiers(&terrain.Feature{Type: terrain.River}); a != 1 || d != 1 {
		t.Fatalf("river = %v, %v", a, d)
	}
}
