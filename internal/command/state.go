package command

import (
	"fmt"
	"strings"
)

// Morale is a unit's fighting spirit.
type Morale int

const (
	Low Morale = iota
	Medium
	High
)

func (m Morale) String() string {
	switch m {
	case Low:
		return "Low"
	case High:
		return "High"
	default:
		return "Medium"
	}
}

// Multiplier is the combat power factor for m.
func (m Morale) Multiplier() float64 {
	switch m {
	case High:
		return 1.2
	case Low:
		return 0.8
	default:
		return 1.0
	}
}

// ParseMorale reports false for anything other than High, Medium or Low.
func ParseMorale(s string) (Morale, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high":
		return High, true
	case "medium":
		return Medium, true
	case "low":
		return Low, true
	}
	return Medium, false
}

func (m Morale) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Morale) UnmarshalText(b []byte) error {
	parsed, ok := ParseMorale(string(b))
	if !ok {
		return fmt.Errorf("unknown morale %q", b)
	}
	*m = parsed
	return nil
}

// Stage is the closed set of operational states a unit can be in.
type Stage int

const (
	InBattle Stage = iota
	Advancing
	Defending
	Retreating
	Besieging
	Regrouping
	CrushingDefeat
	FleeingOffMap
)

var stageNames = [...]string{
	"In Battle",
	"Advancing",
	"Defending",
	"Retreating",
	"Besieging",
	"Regrouping",
	"Crushing Defeat",
	"Fleeing Off the Map",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return "Unknown"
	}
	return stageNames[s]
}

// Terminal stages remove a unit from targeting, occupancy and scheduling.
func (s Stage) Terminal() bool {
	return s == CrushingDefeat || s == FleeingOffMap
}

// ParseStage matches stage labels ignoring case and surrounding space.
func ParseStage(label string) (Stage, bool) {
	label = strings.TrimSpace(label)
	for i, name := range stageNames {
		if strings.EqualFold(label, name) {
			return Stage(i), true
		}
	}
	return InBattle, false
}

// Stages lists every label in declaration order.
func Stages() []string {
	out := make([]string, len(stageNames))
	copy(out, stageNames[:])
	return out
}

func (s Stage) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *Stage) UnmarshalText(b []byte) error {
	parsed, ok := ParseStage(string(b))
	if !ok {
		return fmt.Errorf("unknown stage %q", b)
	}
	*s = parsed
	return nil
}

// Faction identifies one side. Red is the attacking-priority faction.
type Faction int

const (
	Red Faction = iota
	Green
)

func (f Faction) String() string {
	if f == Green {
		return "green"
	}
	return "red"
}

func (f Faction) Opponent() Faction {
	if f == Red {
		return Green
	}
	return Red
}

// Tactics are named weights such as assault, defense and stealth.
type Tactics map[string]float64

func DefaultTactics() Tactics {
	return Tactics{"stealth": 0.5, "assault": 0.5, "defense": 0.5}
}

func (t Tactics) Get(name string) float64 {
	return t[name]
}

// Raise lifts a weight to at least v.
func (t Tactics) Raise(name string, v float64) {
	if t[name] < v {
		t[name] = v
	}
}

func (t Tactics) Clone() Tactics {
	out := make(Tactics, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}
