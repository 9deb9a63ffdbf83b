package terrain

import (
	"math"
)

const (
	// FootprintRadius is the half-width of a point feature's square footprint.
	FootprintRadius = 50.0
	// NearestRadius bounds Nearest lookups.
	NearestRadius = 100.0
	// InfluenceRadius bounds the features counted by TacticalScore.
	InfluenceRadius = 150.0
	// DefaultTunnelBuffer is used when the scenario does not set one.
	DefaultTunnelBuffer = 50.0

	shelterBonus = 150.0
	minScore     = 10.0
	maxScore     = 500.0
)

// Field is the rectangular battlefield, centred on the origin.
type Field struct {
	Width    float64
	Height   float64
	Features []*Feature
	Weather  Weather
}

func NewField(width, height float64) *Field {
	return &Field{Width: width, Height: height, Weather: ClearWeather()}
}

func (f *Field) Add(feature Feature) *Feature {
	feat := feature
	f.Features = append(f.Features, &feat)
	return &feat
}

func (f *Field) InBounds(p Position) bool {
	return p.X >= -f.Width/2 && p.X <= f.Width/2 && p.Y >= -f.Height/2 && p.Y <= f.Height/2
}

// At returns the first feature overlapping p and its type, or Flat and nil.
func (f *Field) At(p Position) (Type, *Feature) {
	for _, feat := range f.Features {
		if feat.Type == Tunnel {
			if feat.Distance(p) <= FootprintRadius {
				return Tunnel, feat
			}
			continue
		}
		if math.Abs(feat.Position.X-p.X) < FootprintRadius && math.Abs(feat.Position.Y-p.Y) < FootprintRadius {
			return feat.Type, feat
		}
	}
	return Flat, nil
}

// Nearest returns the closest feature within NearestRadius of p.
func (f *Field) Nearest(p Position) *Feature {
	var nearest *Feature
	best := NearestRadius
	for _, feat := range f.Features {
		if d := feat.Distance(p); d < best {
			best = d
			nearest = feat
		}
	}
	return nearest
}

// IsValidPosition rejects out-of-bounds points and points whose nearest
// feature is a river or a tunnel without capacity.
func (f *Field) IsValidPosition(p Position) bool {
	if !f.InBounds(p) {
		return false
	}
	feat := f.Nearest(p)
	if feat == nil {
		return true
	}
	switch feat.Type {
	case River:
		return false
	case Tunnel:
		return feat.Capacity > 0
	}
	return true
}

func (f *Field) Named(name string) *Feature {
	for _, feat := range f.Features {
		if feat.Name == name {
			return feat
		}
	}
	return nil
}

func (f *Field) OfType(t Type) []*Feature {
	var out []*Feature
	for _, feat := range f.Features {
		if feat.Type == t {
			out = append(out, feat)
		}
	}
	return out
}

// NearestOfType returns the feature of type t with the smallest centre
// distance to p, regardless of range.
func (f *Field) NearestOfType(p Position, t Type) *Feature {
	var nearest *Feature
	best := math.Inf(1)
	for _, feat := range f.OfType(t) {
		if d := p.DistanceTo(feat.Position); d < best {
			best = d
			nearest = feat
		}
	}
	return nearest
}

// AnyWithin reports whether any feature centre lies closer than radius to p.
func (f *Field) AnyWithin(p Position, radius float64) bool {
	for _, feat := range f.Features {
		if p.DistanceTo(feat.Position) < radius {
			return true
		}
	}
	return false
}

// Occupancy reports the troops currently counted against a tunnel.
type Occupancy func(tunnel *Feature) int

// Shelter returns the first completed tunnel within extra+buffer of p that is
// still under capacity, or nil.
func (f *Field) Shelter(p Position, extra, buffer float64, round int, occupied Occupancy) *Feature {
	if extra < 0 {
		extra = 0
	}
	for _, feat := range f.Features {
		if feat.Type != Tunnel || !feat.Completed(round) {
			continue
		}
		if feat.Distance(p) > extra+buffer {
			continue
		}
		if feat.Capacity > 0 && occupied != nil && occupied(feat) >= feat.Capacity {
			continue
		}
		return feat
	}
	return nil
}

// TacticalScore rates p by the features within InfluenceRadius, with linear
// falloff, and returns a combat multiplier in [0.1, 5.0].
func (f *Field) TacticalScore(p Position, sheltered bool) float64 {
	score := 100.0
	for _, feat := range f.Features {
		dist := p.DistanceTo(feat.Position)
		if dist > InfluenceRadius {
			continue
		}
		prox := (InfluenceRadius - dist) / InfluenceRadius
		switch feat.Type {
		case Flat:
			score += 10 * feat.SpeedMultiplier * prox
			score -= 30 * prox
		case Hills:
			score += float64(feat.ArtilleryRange) * 1.2 * prox
			score += float64(feat.DefenseBonus) * 0.8 * prox
			score += 40 * prox
		case Valley:
			score += feat.StealthBonus * 60 * prox
			score -= float64(feat.LossPenalty) * 0.5 * prox
		case River:
			score -= 80 * prox
			score -= float64(feat.LossPenalty) * 0.8 * prox
		case Forest:
			score += feat.StealthBonus * 100 * prox
			score += float64(feat.DefenseBonus) * 0.5 * prox
			score -= 20 * (1 - feat.SpeedMultiplier) * prox
		case Stronghold:
			score += float64(feat.DefenseBonus) * 2 * prox
			score += float64(feat.ArtilleryRange) * prox
			score += 100 * prox
		case Airfield:
			score += 50 * prox
			score -= 40 * (1 - float64(feat.DefenseBonus)/100) * prox
		case Tunnel:
			score += float64(feat.DefenseBonus) * 1.5 * prox
			score += feat.StealthBonus * 120 * prox
			score += float64(feat.Capacity) * 0.5 * prox
		}
	}
	if sheltered {
		score += shelterBonus
	}
	return math.Max(minScore, math.Min(maxScore, score)) / 100
}
