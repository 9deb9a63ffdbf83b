package terrain

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Type classifies a terrain feature.
type Type int

const (
	Flat Type = iota
	Hills
	Valley
	River
	Forest
	Stronghold
	Airfield
	Tunnel
)

var typeNames = [...]string{"Flat", "Hills", "Valley", "River", "Forest", "Stronghold", "Airfield", "Tunnel"}

func (t Type) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return "Unknown"
	}
	return typeNames[t]
}

// ParseType accepts the scenario spelling of a terrain type, ignoring case.
func ParseType(s string) (Type, error) {
	for i, name := range typeNames {
		if strings.EqualFold(strings.TrimSpace(s), name) {
			return Type(i), nil
		}
	}
	return Flat, fmt.Errorf("unknown terrain type %q", s)
}

func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Position is a point on the field. It serializes as a two element array.
type Position struct {
	X, Y float64
}

func (p Position) DistanceTo(o Position) float64 {
	return math.Hypot(p.X-o.X, p.Y-o.Y)
}

func (p Position) String() string {
	return fmt.Sprintf("[%.0f,%.0f]", p.X, p.Y)
}

func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

func (p *Position) UnmarshalJSON(b []byte) error {
	var xy []float64
	if err := json.Unmarshal(b, &xy); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("position: want 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

func (p Position) MarshalYAML() (interface{}, error) {
	return []float64{p.X, p.Y}, nil
}

func (p *Position) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var xy []float64
	if err := unmarshal(&xy); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("position: want 2 coordinates, got %d", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// SegmentDistance returns the distance from p to the segment a-b, projecting
// p onto the segment and clamping the projection to its end points.
func SegmentDistance(p, a, b Position) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length < 1e-6 {
		return p.DistanceTo(a)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / (length * length)
	t = math.Max(0, math.Min(1, t))
	return p.DistanceTo(Position{X: a.X + t*dx, Y: a.Y + t*dy})
}

// Feature is a static terrain object. Tunnels are segments from Position to
// End; every other feature is a point with a square footprint.
type Feature struct {
	Type                 Type
	Name                 string
	Position             Position
	End                  Position
	SpeedMultiplier      float64
	HealthBonus          int
	LossPenalty          int
	DefenseBonus         int
	ArtilleryRange       int
	Capacity             int // tunnel capacity, "power" elsewhere
	StealthBonus         float64
	ConstructionStart    int
	ConstructionComplete int
}

// Distance is the segment distance for tunnels and the centre distance otherwise.
func (f *Feature) Distance(p Position) float64 {
	if f.Type == Tunnel {
		return SegmentDistance(p, f.Position, f.End)
	}
	return p.DistanceTo(f.Position)
}

// Completed reports whether the feature is usable at round.
func (f *Feature) Completed(round int) bool {
	return f.ConstructionComplete <= 0 || round >= f.ConstructionComplete
}

// Weather holds the modifiers currently applied to the whole field.
type Weather struct {
	Type       string  `json:"type" yaml:"type"`
	Visibility float64 `json:"visibilityModifier" yaml:"visibilityModifier"`
	Artillery  float64 `json:"artilleryModifier" yaml:"artilleryModifier"`
	Speed      float64 `json:"speed_modifier" yaml:"speed_modifier"`
}

func ClearWeather() Weather {
	return Weather{Type: "Clear", Visibility: 1, Artillery: 1, Speed: 1}
}

func (w Weather) AirdropSuccess() float64 {
	return w.Artillery * 0.9
}
