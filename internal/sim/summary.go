package sim

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v2"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

// Series holds per-turn faction totals, one entry per played turn.
type Series struct {
	Labels      []string `json:"labels" yaml:"labels"`
	RedTroops   []int    `json:"red_troops" yaml:"red_troops"`
	GreenTroops []int    `json:"green_troops" yaml:"green_troops"`
	RedUnits    []int    `json:"red_units" yaml:"red_units"`
	GreenUnits  []int    `json:"green_units" yaml:"green_units"`
}

type UnitState struct {
	Name      string           `json:"name" yaml:"name"`
	Faction   string           `json:"faction" yaml:"faction"`
	Parent    string           `json:"parent,omitempty" yaml:"parent,omitempty"`
	TroopType string           `json:"troop_type,omitempty" yaml:"troop_type,omitempty"`
	Troops    int              `json:"remaining" yaml:"remaining"`
	Lost      int              `json:"lost" yaml:"lost"`
	Morale    string           `json:"morale" yaml:"morale"`
	Stage     string           `json:"stage" yaml:"stage"`
	Action    string           `json:"action" yaml:"action"`
	Position  terrain.Position `json:"position" yaml:"position"`
}

// Summary is the artifact written once at the end of a run.
type Summary struct {
	RunID    string      `json:"run_id" yaml:"run_id"`
	Scenario string      `json:"scenario" yaml:"scenario"`
	Rounds   int         `json:"rounds_played" yaml:"rounds_played"`
	Winner   string      `json:"winner,omitempty" yaml:"winner,omitempty"`
	Series   Series      `json:"series" yaml:"series"`
	Units    []UnitState `json:"final_units" yaml:"final_units"`
}

func (s *Simulation) unitState(u *command.Unit) UnitState {
	st := UnitState{
		Name:      u.Name,
		Faction:   u.Faction.String(),
		TroopType: u.TroopType,
		Troops:    u.Remaining(),
		Lost:      u.Lost,
		Morale:    u.Morale.String(),
		Stage:     u.Stage.String(),
		Action:    u.Action,
		Position:  u.Position,
	}
	if p := s.Units.Get(u.Parent); p != nil {
		st.Parent = p.Name
	}
	return st
}

// Summary reports the run so far. Final units are those still active.
func (s *Simulation) Summary() Summary {
	sum := Summary{
		RunID:    s.runID,
		Scenario: s.scn.Name,
		Rounds:   s.turn,
		Winner:   s.winner,
		Series:   s.series,
	}
	for _, u := range s.Units.Active() {
		sum.Units = append(sum.Units, s.unitState(u))
	}
	return sum
}

// WriteSummary writes sum as YAML when path ends in .yaml or .yml and as
// indented JSON otherwise.
func WriteSummary(path string, sum Summary) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(sum)
	default:
		data, err = json.MarshalIndent(sum, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
