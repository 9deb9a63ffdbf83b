package command

import (
	"HistoricalBattleSimulator/internal/terrain"
)

// Profile is the serialized view of a unit sent to the decision oracle.
type Profile struct {
	Name       string           `json:"agentName"`
	Commander  string           `json:"commander,omitempty"`
	Faction    string           `json:"faction"`
	TroopType  string           `json:"troopType"`
	Mission    string           `json:"initialMission,omitempty"`
	Background string           `json:"background,omitempty"`
	Initial    int              `json:"initialTroops"`
	Deployed   int              `json:"deployedTroops"`
	Lost       int              `json:"lostTroops"`
	Remaining  int              `json:"remainingTroops"`
	Position   terrain.Position `json:"position"`
	Speed      int              `json:"speed"`
	Morale     Morale           `json:"morale"`
	Tactics    Tactics          `json:"tactics"`
	Equipment  map[string]int   `json:"equipment,omitempty"`
	Ammo       map[string]int   `json:"ammo,omitempty"`
	Action     string           `json:"currentAction"`
	Stage      Stage            `json:"currentStage"`
	StageNote  string           `json:"stageNote,omitempty"`
	StageTurns int              `json:"stageTurns"`
	Target     string           `json:"targetedAgentName"`
	Encircled  bool             `json:"encircled"`
	SupplyLine bool             `json:"supplyLine"`
	Waypoints  []Waypoint       `json:"positionHistory,omitempty"`
}

// Profile snapshots u. Target names are resolved through h.
func (h *Hierarchy) Profile(u *Unit) Profile {
	target := "None"
	if t := h.Get(u.Target); t != nil {
		target = t.Name
	}
	return Profile{
		Name:       u.Name,
		Commander:  u.Commander,
		Faction:    u.Faction.String(),
		TroopType:  u.TroopType,
		Mission:    u.Mission,
		Background: u.Background,
		Initial:    u.Initial,
		Deployed:   u.Deployed,
		Lost:       u.Lost,
		Remaining:  u.Remaining(),
		Position:   u.Position,
		Speed:      u.Speed,
		Morale:     u.Morale,
		Tactics:    u.Tactics.Clone(),
		Equipment:  u.Equipment,
		Ammo:       u.Ammo,
		Action:     u.Action,
		Stage:      u.Stage,
		StageNote:  u.StageNote,
		StageTurns: u.StageTurns,
		Target:     target,
		Encircled:  u.Encircled,
		SupplyLine: u.SupplyLine,
		Waypoints:  u.Waypoints,
	}
}

// Apply copies the mutable unit state carried by p back onto u.
func (p Profile) Apply(u *Unit) {
	u.Initial = p.Initial
	u.Deployed = p.Deployed
	u.Lost = p.Lost
	u.Position = p.Position
	u.Speed = p.Speed
	u.Morale = p.Morale
	u.Tactics = p.Tactics.Clone()
	u.Action = p.Action
	u.Stage = p.Stage
	u.StageNote = p.StageNote
}
