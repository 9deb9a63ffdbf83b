package oracle

import (
	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

// Contact is another unit as the deciding unit sees it.
type Contact struct {
	Name      string           `json:"name"`
	Faction   string           `json:"faction"`
	Troops    int              `json:"troops"`
	Position  terrain.Position `json:"position"`
	Distance  float64          `json:"distance"`
	Stage     command.Stage    `json:"stage"`
	Morale    command.Morale   `json:"morale"`
	Sheltered bool             `json:"inTunnel"`
}

// Landmark is a terrain feature near the deciding unit.
type Landmark struct {
	Name     string           `json:"name"`
	Type     terrain.Type     `json:"type"`
	Position terrain.Position `json:"position"`
	Distance float64          `json:"distance"`
	Captured bool             `json:"captured,omitempty"`
}

// Situation is the battlefield snapshot refreshed before every decision.
type Situation struct {
	Weather       terrain.Weather `json:"weather"`
	Terrain       terrain.Type    `json:"terrain"`
	TacticalScore float64         `json:"tacticalScore"`
	InTunnel      bool            `json:"inTunnel"`
	Tunnel        string          `json:"tunnel,omitempty"`
	SupplyLine    bool            `json:"supplyLine"`
	Encircled     bool            `json:"encircled"`
	InContact     bool            `json:"enemyInContact"`
	Target        *Contact        `json:"target,omitempty"`
	Enemies       []Contact       `json:"enemiesNearby"`
	Allies        []Contact       `json:"alliesNearby"`
	Landmarks     []Landmark      `json:"terrainNearby"`
	Events        []string        `json:"historicalEvents,omitempty"`
}

// Brief summarizes a unit in the chain of command.
type Brief struct {
	Name     string           `json:"name"`
	Troops   int              `json:"troops"`
	Position terrain.Position `json:"position"`
	Action   string           `json:"action"`
	Stage    command.Stage    `json:"stage"`
	Morale   command.Morale   `json:"morale"`
}

// Chain is the deciding unit's place in the hierarchy.
type Chain struct {
	Parent   *Brief  `json:"parent,omitempty"`
	Siblings []Brief `json:"siblings,omitempty"`
	Children []Brief `json:"children,omitempty"`
}

// Request is everything a decision oracle is told about one unit's turn.
type Request struct {
	Round     int                    `json:"round"`
	Rounds    int                    `json:"rounds"`
	Unit      command.Profile        `json:"unit"`
	Chain     Chain                  `json:"chain"`
	Situation Situation              `json:"situation"`
	History   []command.Record       `json:"history,omitempty"`
	Actions   []string               `json:"actionList"`
	Stages    []string               `json:"stageList"`
	Guidance  map[string]interface{} `json:"guidance,omitempty"`
	Prompt    string                 `json:"-"`
}
