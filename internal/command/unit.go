package command

import (
	"HistoricalBattleSimulator/internal/terrain"
)

const (
	NoParent = -1
	NoTarget = -1
)

// Record is one turn of a unit's decision history.
type Record struct {
	Turn      int              `json:"turn" yaml:"turn"`
	Action    string           `json:"action" yaml:"action"`
	Stage     Stage            `json:"stage" yaml:"stage"`
	Position  terrain.Position `json:"position" yaml:"position"`
	Target    string           `json:"target" yaml:"target"`
	Morale    Morale           `json:"morale" yaml:"morale"`
	OwnLoss   int              `json:"ownLoss" yaml:"ownLoss"`
	EnemyLoss int              `json:"enemyLoss" yaml:"enemyLoss"`
	SubOrders []string         `json:"subOrders,omitempty" yaml:"subOrders,omitempty"`
	Recalled  []string         `json:"recalled,omitempty" yaml:"recalled,omitempty"`
	Remarks   string           `json:"remarks" yaml:"remarks"`
	Failed    bool             `json:"failed,omitempty" yaml:"failed,omitempty"`
}

// Waypoint is a position a unit occupied at the end of a turn.
type Waypoint struct {
	Turn     int              `json:"round"`
	Position terrain.Position `json:"position"`
}

// Unit is a commanding agent. Parent and Target are arena ids.
type Unit struct {
	ID      int
	Name    string
	Faction Faction
	Parent  int
	Target  int

	Initial  int
	Deployed int
	Lost     int

	Position   terrain.Position
	Waypoints  []Waypoint
	Speed      int
	Morale     Morale
	Tactics    Tactics
	TroopType  string
	Commander  string
	Mission    string
	Background string
	Equipment  map[string]int
	Ammo       map[string]int

	Action     string
	Stage      Stage
	StageNote  string
	StageTurns int

	Encircled  bool
	SupplyLine bool
	Recalled   bool
	Seeded     bool

	History []Record
}

// Remaining is initial minus deployed and lost, never negative.
func (u *Unit) Remaining() int {
	r := u.Initial - u.Deployed - u.Lost
	if r < 0 {
		return 0
	}
	return r
}

// Terminal reports a stage that takes the unit out of the fight.
func (u *Unit) Terminal() bool {
	return u.Stage.Terminal()
}

// Active units are neither recalled nor terminal.
func (u *Unit) Active() bool {
	return !u.Recalled && !u.Terminal()
}

// TakeDamage books up to dmg losses and returns the amount applied. A unit
// left without troops is routed.
func (u *Unit) TakeDamage(dmg int) int {
	if dmg <= 0 {
		return 0
	}
	if r := u.Remaining(); dmg > r {
		dmg = r
	}
	u.Lost += dmg
	if u.Remaining() == 0 {
		u.SetStage(CrushingDefeat, "")
	}
	return dmg
}

// Recover returns up to n lost troops to the ranks.
func (u *Unit) Recover(n int) int {
	if n <= 0 {
		return 0
	}
	if n > u.Lost {
		n = u.Lost
	}
	u.Lost -= n
	return n
}

// SetStage changes stage and restarts the duration counter on a change.
func (u *Unit) SetStage(s Stage, note string) {
	if s != u.Stage {
		u.StageTurns = 0
	}
	u.Stage = s
	u.StageNote = note
}

func (u *Unit) MoveTo(turn int, p terrain.Position) {
	u.Position = p
	u.Waypoints = append(u.Waypoints, Waypoint{Turn: turn, Position: p})
}

// Remember appends r, keeping at most limit records.
func (u *Unit) Remember(r Record, limit int) {
	u.History = append(u.History, r)
	if limit > 0 && len(u.History) > limit {
		u.History = append([]Record(nil), u.History[len(u.History)-limit:]...)
	}
}

// LastRecords returns up to n of the most recent records, oldest first.
func (u *Unit) LastRecords(n int) []Record {
	if n <= 0 || len(u.History) == 0 {
		return nil
	}
	if n > len(u.History) {
		n = len(u.History)
	}
	return u.History[len(u.History)-n:]
}
