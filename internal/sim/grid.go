package sim

import (
	"fmt"
	"math"
	"strings"
	"unicode/utf8"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

const (
	cellSize  = 100.0
	cellWidth = 8
	// siegeRadius is how close attacking infantry must be to besiege a feature.
	siegeRadius = 150.0
	maxShown    = 999
)

var terrainLetters = map[terrain.Type]string{
	terrain.Hills:      "H",
	terrain.Valley:     "V",
	terrain.River:      "R",
	terrain.Forest:     "F",
	terrain.Tunnel:     "T",
	terrain.Airfield:   "A",
	terrain.Stronghold: "S",
}

func inFootprint(p, centre terrain.Position) bool {
	return math.Abs(p.X-centre.X) < terrain.FootprintRadius && math.Abs(p.Y-centre.Y) < terrain.FootprintRadius
}

// Captured reports whether any active unit stands on f.
func (s *Simulation) Captured(f *terrain.Feature) bool {
	for _, u := range s.Units.Active() {
		if inFootprint(u.Position, f.Position) {
			return true
		}
	}
	return false
}

// Encircled reports at least two attacking infantry units near f whose
// targets are defenders holding f.
func (s *Simulation) Encircled(f *terrain.Feature) bool {
	n := 0
	for _, u := range s.Units.Active() {
		if u.Faction != command.Red || !strings.EqualFold(u.TroopType, "infantry") {
			continue
		}
		if u.Position.DistanceTo(f.Position) > siegeRadius {
			continue
		}
		t := s.Units.Get(u.Target)
		if t == nil || !t.Active() || t.Faction != command.Green {
			continue
		}
		if t.Position.DistanceTo(f.Position) <= terrain.FootprintRadius {
			n++
		}
	}
	return n >= 2
}

// markFeatures refreshes capture and encirclement and flags defenders
// standing on an encircled feature.
func (s *Simulation) markFeatures() {
	for _, f := range s.Field.Features {
		s.captured[f] = s.Captured(f)
		s.encircled[f] = s.Encircled(f)
	}
	for _, u := range s.Units.Active() {
		if u.Faction != command.Green {
			continue
		}
		u.Encircled = false
		for f, ok := range s.encircled {
			if ok && inFootprint(u.Position, f.Position) {
				u.Encircled = true
				break
			}
		}
	}
}

func unitSymbol(u *command.Unit) string {
	switch strings.ToLower(u.TroopType) {
	case "artillery":
		return "Ar"
	case "anti-aircraft", "antiaircraft":
		return "a"
	case "scout":
		if u.Faction == command.Red {
			return "v"
		}
		return "f"
	}
	if u.Faction == command.Red {
		return "V"
	}
	return "F"
}

func (s *Simulation) terrainCell(centre terrain.Position) string {
	for _, f := range s.Field.Features {
		if f.Type != terrain.Tunnel && inFootprint(centre, f.Position) && f.Name != "" {
			r, _ := utf8.DecodeRuneInString(f.Name)
			mark := string(r)
			if s.encircled[f] {
				mark += "*"
			}
			return mark
		}
	}
	if f := s.Field.Nearest(centre); f != nil {
		if l, ok := terrainLetters[f.Type]; ok {
			return l
		}
	}
	return "."
}

// Deployment renders the field as rows of cellSize squares, north first.
// Each cell shows its strongest visible unit, else the terrain under it.
func (s *Simulation) Deployment() []string {
	cols := int(math.Ceil(s.Field.Width / cellSize))
	rows := int(math.Ceil(s.Field.Height / cellSize))
	if cols <= 0 || rows <= 0 {
		return nil
	}
	strongest := make(map[[2]int]*command.Unit)
	for _, u := range s.Units.Active() {
		if u.Stage == command.Retreating || s.InTunnel(u) {
			continue
		}
		c := clampIndex(int((u.Position.X+s.Field.Width/2)/cellSize), cols)
		r := clampIndex(int((s.Field.Height/2-u.Position.Y)/cellSize), rows)
		key := [2]int{r, c}
		if cur, ok := strongest[key]; !ok || u.Remaining() > cur.Remaining() {
			strongest[key] = u
		}
	}

	out := make([]string, 0, rows)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		b.Reset()
		for c := 0; c < cols; c++ {
			var cell string
			if u, ok := strongest[[2]int{r, c}]; ok {
				cell = fmt.Sprintf("%s%d", unitSymbol(u), min(u.Remaining(), maxShown))
			} else {
				cell = s.terrainCell(terrain.Position{
					X: -s.Field.Width/2 + (float64(c)+0.5)*cellSize,
					Y: s.Field.Height/2 - (float64(r)+0.5)*cellSize,
				})
			}
			fmt.Fprintf(&b, "%-*s", cellWidth, cell)
		}
		out = append(out, strings.TrimRight(b.String(), " "))
	}
	return out
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
