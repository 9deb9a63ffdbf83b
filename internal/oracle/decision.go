package oracle

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"

	"HistoricalBattleSimulator/internal/terrain"
)

// Wait is the action every unit may always take.
const Wait = "Wait without Action"

var ErrNoObject = errors.New("no JSON object in response")

// SubOrder deploys a new sub-unit or adjusts an existing child.
type SubOrder struct {
	Deploy    bool              `json:"deploySubAgent"`
	Name      string            `json:"agentName"`
	Action    string            `json:"actionType,omitempty"`
	TroopType string            `json:"troopType,omitempty"`
	Troops    int               `json:"deployedNum,omitempty"`
	Position  *terrain.Position `json:"position,omitempty"`
	Speed     int               `json:"speed,omitempty"`
	OwnLoss   int               `json:"ownLoss,omitempty"`
	EnemyLoss int               `json:"enemyLoss,omitempty"`
	Remarks   string            `json:"remarks,omitempty"`
}

// Decision is a parsed oracle response. Fields the oracle left out or got
// wrong are zero; the caller validates and substitutes fallbacks.
type Decision struct {
	Action    string            `json:"agentNextActionType"`
	Stage     string            `json:"agentStage"`
	Position  *terrain.Position `json:"agentNextPosition,omitempty"`
	Target    string            `json:"targetedAgentName"`
	Morale    string            `json:"agentMoral"`
	Speed     *int              `json:"speed,omitempty"`
	OwnLoss   int               `json:"mainOwnLoss"`
	EnemyLoss int               `json:"mainEnemyLoss"`
	SubOrders []SubOrder        `json:"actions"`
	Recall    []string          `json:"SubAgentsRecall"`
	Remarks   string            `json:"remarks"`
}

func DefaultDecision(remarks string) Decision {
	return Decision{Action: Wait, Stage: "In Battle", Target: "None", Morale: "Medium", Remarks: remarks}
}

// extractObject trims chatter and code fences around the outermost object.
func extractObject(text []byte) ([]byte, error) {
	start := bytes.IndexByte(text, '{')
	end := bytes.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return nil, ErrNoObject
	}
	return text[start : end+1], nil
}

func field[T any](fields map[string]json.RawMessage, key string) (T, bool) {
	var v T
	raw, ok := fields[key]
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

func intField(fields map[string]json.RawMessage, key string) (int, bool) {
	f, ok := field[float64](fields, key)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return int(f), true
}

func nonNegative(n int) int {
	if n < 0 {
		return 0
	}
	return n
}

// ParseDecision decodes an oracle response field by field. Only a response
// without a JSON object is an error.
func ParseDecision(text []byte) (Decision, error) {
	obj, err := extractObject(text)
	if err != nil {
		return Decision{}, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(obj, &fields); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}

	var d Decision
	d.Action, _ = field[string](fields, "agentNextActionType")
	d.Stage, _ = field[string](fields, "agentStage")
	d.Target, _ = field[string](fields, "targetedAgentName")
	d.Morale, _ = field[string](fields, "agentMoral")
	d.Remarks, _ = field[string](fields, "remarks")
	if p, ok := field[terrain.Position](fields, "agentNextPosition"); ok {
		d.Position = &p
	}
	if s, ok := intField(fields, "speed"); ok {
		d.Speed = &s
	}
	own, _ := intField(fields, "mainOwnLoss")
	enemy, _ := intField(fields, "mainEnemyLoss")
	d.OwnLoss, d.EnemyLoss = nonNegative(own), nonNegative(enemy)

	if raws, ok := field[[]json.RawMessage](fields, "actions"); ok {
		for _, raw := range raws {
			if so, ok := parseSubOrder(raw); ok {
				d.SubOrders = append(d.SubOrders, so)
			}
		}
	}
	if raws, ok := field[[]json.RawMessage](fields, "SubAgentsRecall"); ok {
		for _, raw := range raws {
			var name string
			if json.Unmarshal(raw, &name) == nil && strings.TrimSpace(name) != "" {
				d.Recall = append(d.Recall, strings.TrimSpace(name))
			}
		}
	}
	return d, nil
}

// parseSubOrder rejects entries missing what their kind requires. A deploy
// needs a name, troops and a position; an update needs a name.
func parseSubOrder(raw json.RawMessage) (SubOrder, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return SubOrder{}, false
	}
	var so SubOrder
	so.Deploy, _ = field[bool](fields, "deploySubAgent")
	so.Name, _ = field[string](fields, "agentName")
	so.Name = strings.TrimSpace(so.Name)
	so.Action, _ = field[string](fields, "actionType")
	so.TroopType, _ = field[string](fields, "troopType")
	so.Remarks, _ = field[string](fields, "remarks")
	so.Troops, _ = intField(fields, "deployedNum")
	so.Speed, _ = intField(fields, "speed")
	own, _ := intField(fields, "ownLoss")
	enemy, _ := intField(fields, "enemyLoss")
	so.OwnLoss, so.EnemyLoss = nonNegative(own), nonNegative(enemy)
	if p, ok := field[terrain.Position](fields, "position"); ok {
		so.Position = &p
	}

	if so.Name == "" {
		return SubOrder{}, false
	}
	if so.Deploy && (so.Troops <= 0 || so.Position == nil) {
		return SubOrder{}, false
	}
	return so, true
}
