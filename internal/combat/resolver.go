package combat

import (
	"math"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

const (
	minRatio = 0.05
	maxRatio = 0.95
	// shelterFactor scales the losses of a side sheltered in a tunnel.
	shelterFactor = 0.5
)

// Side is one party to an engagement as seen at the moment of resolution.
// Tactical is the multiplier from the field's tactical score.
type Side struct {
	Faction   command.Faction
	Troops    int
	Tactics   command.Tactics
	Morale    command.Morale
	TroopType string
	Tactical  float64
	Sheltered bool
}

// Engagement pairs an attacker with its target. Defender terrain is the
// feature nearest the defender, if any.
type Engagement struct {
	Attacker      Side
	Defender      Side
	DefenderCover *terrain.Feature
	Action        string
	Visibility    float64
	Artillery     float64
	Round         int
}

type Coefficients struct {
	Casualty           float64
	ArtilleryDominance float64
	DecayRound         int
	DecayFactor        float64
	ActionModifiers    map[string]float64
}

func DefaultCoefficients() Coefficients {
	return Coefficients{
		Casualty:        0.08,
		DecayRound:      20,
		DecayFactor:     0.3,
		ActionModifiers: DefaultActionModifiers(),
	}
}

// DefaultActionModifiers scales losses on both sides by declared action.
func DefaultActionModifiers() map[string]float64 {
	return map[string]float64{
		"Launch Full Assault":  1.50,
		"Launch Night Assault": 1.35,
		"Human Wave Assault":   1.80,
		"Hold Position":        0.70,
		"Fortify Position":     0.65,
		"Dig Assault Tunnel":   0.80,
		"Move to Tunnel":       0.75,
	}
}

// Estimate is a casualty forecast. It is never applied by the resolver.
type Estimate struct {
	Own   int
	Enemy int
	Ratio float64
}

// Heavy reports losses above half of either side's committed strength.
func (e Estimate) Heavy(attacker, defender int) bool {
	return (attacker > 0 && e.Own*2 > attacker) || (defender > 0 && e.Enemy*2 > defender)
}

func attackEffectiveness(s Side) float64 {
	eff := 1 + s.Tactics.Get("assault")*0.5 + s.Tactics.Get("stealth")*0.3 + s.Tactics.Get("attack")
	switch s.TroopType {
	case "artillery":
		eff *= 1.3
	case "scout":
		eff *= 0.8
	}
	return eff
}

func defenseEffectiveness(s Side, cover *terrain.Feature) float64 {
	eff := 1 + s.Tactics.Get("defense")*0.6
	if cover != nil && cover.DefenseBonus > 0 {
		eff += float64(cover.DefenseBonus) / 20
	}
	return eff
}

// TerrainModifiers returns the attacker and defender casualty multipliers for
// the defender's cover.
func TerrainModifiers(cover *terrain.Feature) (attacker, defender float64) {
	if cover == nil {
		return 1, 1
	}
	switch cover.Type {
	case terrain.Stronghold:
		return 1.4, 0.65
	case terrain.Hills:
		return 1.2, 0.8
	case terrain.Forest:
		return 1.15, 0.85
	case terrain.Flat:
		return 1.3, 1.0
	}
	return 1, 1
}

func (c Coefficients) actionModifier(action string) float64 {
	if m, ok := c.ActionModifiers[action]; ok {
		return m
	}
	return 1
}

// artilleryAdvantage favours the red faction when a dominance coefficient is
// configured and wears down green fire after the decay round.
func (c Coefficients) artilleryAdvantage(e Engagement) float64 {
	adv := e.Artillery
	if e.Attacker.Faction == command.Red && c.ArtilleryDominance > 0 {
		adv *= c.ArtilleryDominance
	}
	if e.Attacker.Faction == command.Green && c.DecayRound > 0 && e.Round >= c.DecayRound {
		adv *= c.DecayFactor
	}
	return adv
}

func tactical(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// Resolve estimates the casualties of one engagement. Attacker troops must
// already be clamped to what the attacker has available.
func Resolve(e Engagement, c Coefficients) Estimate {
	att, def := e.Attacker, e.Defender
	if att.Troops <= 0 || def.Troops <= 0 {
		return Estimate{}
	}

	attMorale := att.Morale.Multiplier()
	defMorale := def.Morale.Multiplier()
	attPower := float64(att.Troops) * attackEffectiveness(att) * attMorale * tactical(att.Tactical)
	defPower := float64(def.Troops) * defenseEffectiveness(def, e.DefenderCover) * defMorale * tactical(def.Tactical)
	if attPower <= 0 || defPower <= 0 {
		return Estimate{}
	}
	ratio := math.Max(minRatio, math.Min(maxRatio, attPower/(attPower+defPower)))

	terrAtt, terrDef := TerrainModifiers(e.DefenderCover)
	tunAtt, tunDef := 1.0, 1.0
	if att.Sheltered {
		tunAtt = shelterFactor
	}
	if def.Sheltered {
		tunDef = shelterFactor
	}
	action := c.actionModifier(e.Action)

	own := int(float64(att.Troops) * c.Casualty * (1 - ratio) * terrAtt * e.Visibility * tunAtt / attMorale * action)
	enemy := int(float64(def.Troops) * c.Casualty * ratio * terrDef * c.artilleryAdvantage(e) * tunDef / defMorale * action)

	return Estimate{
		Own:   clamp(own, 0, att.Troops),
		Enemy: clamp(enemy, 0, def.Troops),
		Ratio: ratio,
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
