package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v2"

	"HistoricalBattleSimulator/internal/terrain"
)

// Battle holds the numeric knobs of the combat and scheduling rules.
type Battle struct {
	CombatSpeed          int     `yaml:"combat_speed"`
	MaxRounds            int     `yaml:"max_rounds"`
	CasualtyCoeff        float64 `yaml:"casualty_coeff"`
	ArtilleryDominance   float64 `yaml:"artillery_dominance_vn"`
	ArtilleryDecayRound  int     `yaml:"artillery_decay_round"`
	ArtilleryDecayFactor float64 `yaml:"artillery_decay_factor"`
	LowMoraleAttrition   int     `yaml:"low_morale_attrition"`
	IsolationPenalty     int     `yaml:"isolation_penalty"`
	HighMoraleRecovery   int     `yaml:"high_morale_recovery"`
	DeployCap            float64 `yaml:"deploy_cap"`
	HistoryLimit         int     `yaml:"history_limit"`
	HistorySummary       int     `yaml:"history_summary"`
	SupplyRadius         float64 `yaml:"supply_radius"`
	SupplyThreatRadius   float64 `yaml:"supply_threat_radius"`
}

// Victory floors: a faction whose remaining troops fall below its floor loses.
type Victory struct {
	RedFloor   int `yaml:"red_floor"`
	GreenFloor int `yaml:"green_floor"`
}

// Unit is a root or seeded sub-unit profile.
type Unit struct {
	Name           string             `yaml:"name"`
	Commander      string             `yaml:"commander"`
	Position       *terrain.Position  `yaml:"initial_position"`
	Troops         int                `yaml:"initial_troops"`
	TroopsAlt      int                `yaml:"initialNumOfTroops"`
	Morale         string             `yaml:"moral"`
	TroopType      string             `yaml:"troopType"`
	Speed          int                `yaml:"speed"`
	Tactics        map[string]float64 `yaml:"tactics"`
	Equipment      map[string]int     `yaml:"equipment"`
	Ammo           map[string]int     `yaml:"ammo"`
	Mission        string             `yaml:"initialMission"`
	HistorySetting string             `yaml:"historySetting"`
	ArmySetting    string             `yaml:"armySetting"`
	AmySetting     string             `yaml:"AmySetting"`
	RoleSetting    string             `yaml:"roleSetting"`
	Action         string             `yaml:"currentAction"`
	Stage          string             `yaml:"currentStage"`
}

// InitialTroops accepts either spelling of the troop count.
func (u Unit) InitialTroops() int {
	if u.Troops > 0 {
		return u.Troops
	}
	return u.TroopsAlt
}

// Background joins the free-text history, army and role settings.
func (u Unit) Background() string {
	var parts []string
	for _, s := range []string{u.HistorySetting, u.ArmySetting, u.AmySetting, u.RoleSetting} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

// Faction is a faction root plus its seeded sub-units.
type Faction struct {
	Unit           `yaml:",inline"`
	HomeStronghold string `yaml:"home_stronghold"`
	SubAgents      []Unit `yaml:"sub_agents"`
}

type Feature struct {
	Type            string           `yaml:"type"`
	Name            string           `yaml:"name"`
	Position        terrain.Position `yaml:"position"`
	SpeedMultiplier float64          `yaml:"speed_multiplier"`
	HealthBonus     int              `yaml:"health_bonus"`
	LossPenalty     int              `yaml:"loss_penalty"`
	DefenseBonus    int              `yaml:"defense_bonus"`
	ArtilleryRange  int              `yaml:"artillery_range"`
	Power           int              `yaml:"power"`
	StealthBonus    float64          `yaml:"stealth_bonus"`
}

type Tunnel struct {
	Name                 string           `yaml:"name"`
	Start                terrain.Position `yaml:"start"`
	End                  terrain.Position `yaml:"end"`
	Capacity             int              `yaml:"capacity"`
	StealthBonus         float64          `yaml:"stealth_bonus"`
	DefenseBonus         int              `yaml:"defense_bonus"`
	SpeedMultiplier      float64          `yaml:"speed_multiplier"`
	ConstructionStart    int              `yaml:"construction_start"`
	ConstructionComplete int              `yaml:"construction_complete"`
}

type WeatherChange struct {
	Turn            int `yaml:"turn"`
	terrain.Weather `yaml:",inline"`
}

type Terrain struct {
	Width    float64         `yaml:"width"`
	Height   float64         `yaml:"height"`
	Features []Feature       `yaml:"terrains"`
	Tunnels  []Tunnel        `yaml:"tunnels"`
	Weather  []WeatherChange `yaml:"weather"`
}

type Event struct {
	Round int    `yaml:"round"`
	Event string `yaml:"event"`
}

// Oracle configures the decision oracle. Offline selects the built-in doctrine.
type Oracle struct {
	Endpoints   []string      `yaml:"endpoints"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"api_key"`
	Timeout     time.Duration `yaml:"timeout"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Offline     bool          `yaml:"offline"`
}

// Scenario is a complete battle description.
type Scenario struct {
	Name             string                    `yaml:"name"`
	Prompt           string                    `yaml:"prompt"`
	Rounds           int                       `yaml:"num_rounds"`
	Battle           Battle                    `yaml:"battle_config"`
	Victory          Victory                   `yaml:"victory"`
	Red              Faction                   `yaml:"red_configs"`
	Green            Faction                   `yaml:"green_configs"`
	Terrain          Terrain                   `yaml:"terrain_config"`
	Actions          []string                  `yaml:"actionList"`
	ActionProperties map[string]ActionProperty `yaml:"actionPropertyDefinition"`
	StageProperties  interface{}               `yaml:"stagePropertyDefinition"`
	Instructions     interface{}               `yaml:"actionInstructionBlock"`
	ResponseFormat   interface{}               `yaml:"jsonConstraintVariable"`
	KeyDefinitions   interface{}               `yaml:"definitionOfJsonKeys"`
	Events           []Event                   `yaml:"historical_events"`
	Oracle           Oracle                    `yaml:"oracle"`
	SummaryPath      string                    `yaml:"summary_path"`
	LogLevel         string                    `yaml:"log_level"`
}

// Load reads a YAML or JSON scenario file and fills defaults. It does not
// validate; call Validate before running.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func Parse(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario: %w", err)
	}
	s.StageProperties = normalize(s.StageProperties)
	s.Instructions = normalize(s.Instructions)
	s.ResponseFormat = normalize(s.ResponseFormat)
	s.KeyDefinitions = normalize(s.KeyDefinitions)
	s.applyDefaults()
	return &s, nil
}

func (s *Scenario) applyDefaults() {
	b := &s.Battle
	if b.CombatSpeed <= 0 {
		b.CombatSpeed = 80
	}
	if b.CasualtyCoeff <= 0 {
		b.CasualtyCoeff = 0.08
	}
	if b.ArtilleryDecayRound <= 0 {
		b.ArtilleryDecayRound = 20
	}
	if b.ArtilleryDecayFactor <= 0 {
		b.ArtilleryDecayFactor = 0.3
	}
	if b.LowMoraleAttrition <= 0 {
		b.LowMoraleAttrition = 50
	}
	if b.IsolationPenalty <= 0 {
		b.IsolationPenalty = 25
	}
	if b.HighMoraleRecovery <= 0 {
		b.HighMoraleRecovery = 50
	}
	if b.DeployCap <= 0 {
		b.DeployCap = 0.4
	}
	if b.HistoryLimit <= 0 {
		b.HistoryLimit = 10
	}
	if b.HistorySummary <= 0 {
		b.HistorySummary = 5
	}
	if b.SupplyRadius <= 0 {
		b.SupplyRadius = 1000
	}
	if b.SupplyThreatRadius <= 0 {
		b.SupplyThreatRadius = 200
	}
	if s.Victory.RedFloor <= 0 {
		s.Victory.RedFloor = 1200
	}
	if s.Victory.GreenFloor <= 0 {
		s.Victory.GreenFloor = 600
	}
	if s.Terrain.Width <= 0 {
		s.Terrain.Width = 2000
	}
	if s.Terrain.Height <= 0 {
		s.Terrain.Height = 2000
	}
	if s.Oracle.Timeout <= 0 {
		s.Oracle.Timeout = 90 * time.Second
	}
	if s.Oracle.Temperature <= 0 {
		s.Oracle.Temperature = 0.8
	}
	if s.Oracle.MaxTokens <= 0 {
		s.Oracle.MaxTokens = 2048
	}
	if s.SummaryPath == "" {
		s.SummaryPath = "troop_loss_chart.json"
	}
	if s.Name == "" {
		s.Name = fmt.Sprintf("%s vs %s", s.Red.Name, s.Green.Name)
	}
}

// RoundLimit is num_rounds, further capped by max_rounds when set.
func (s *Scenario) RoundLimit() int {
	if s.Battle.MaxRounds > 0 && s.Battle.MaxRounds < s.Rounds {
		return s.Battle.MaxRounds
	}
	return s.Rounds
}

// Field builds the battlefield described by terrain_config.
func (s *Scenario) Field() (*terrain.Field, error) {
	f := terrain.NewField(s.Terrain.Width, s.Terrain.Height)
	for _, ft := range s.Terrain.Features {
		typ, err := terrain.ParseType(ft.Type)
		if err != nil {
			return nil, fmt.Errorf("terrain %q: %w", ft.Name, err)
		}
		speed := ft.SpeedMultiplier
		if speed == 0 {
			speed = 1
		}
		f.Add(terrain.Feature{
			Type:            typ,
			Name:            ft.Name,
			Position:        ft.Position,
			End:             ft.Position,
			SpeedMultiplier: speed,
			HealthBonus:     ft.HealthBonus,
			LossPenalty:     ft.LossPenalty,
			DefenseBonus:    ft.DefenseBonus,
			ArtilleryRange:  ft.ArtilleryRange,
			Capacity:        ft.Power,
			StealthBonus:    ft.StealthBonus,
		})
	}
	for _, tn := range s.Terrain.Tunnels {
		speed := tn.SpeedMultiplier
		if speed == 0 {
			speed = 1
		}
		f.Add(terrain.Feature{
			Type:                 terrain.Tunnel,
			Name:                 tn.Name,
			Position:             tn.Start,
			End:                  tn.End,
			SpeedMultiplier:      speed,
			DefenseBonus:         tn.DefenseBonus,
			Capacity:             tn.Capacity,
			StealthBonus:         tn.StealthBonus,
			ConstructionStart:    tn.ConstructionStart,
			ConstructionComplete: tn.ConstructionComplete,
		})
	}
	return f, nil
}

// WeatherAt returns the weather scheduled for turn, if any.
func (s *Scenario) WeatherAt(turn int) (terrain.Weather, bool) {
	for _, w := range s.Terrain.Weather {
		if w.Turn == turn {
			return w.Weather, true
		}
	}
	return terrain.Weather{}, false
}

// EventsAt lists the historical events of round.
func (s *Scenario) EventsAt(round int) []string {
	var out []string
	for _, e := range s.Events {
		if e.Round == round {
			out = append(out, e.Event)
		}
	}
	return out
}

// DefaultActions is used when the scenario lists none.
var DefaultActions = []string{
	"Advance",
	"Attack",
	"Retreat",
	"Hold Position",
	"Fortify Position",
	"Launch Full Assault",
	"Launch Night Assault",
	"Human Wave Assault",
	"Dig Assault Tunnel",
	"Move to Tunnel",
	"Artillery Barrage",
	"Request Airdrop",
	"Wait without Action",
}

// ActionNames is actionList followed by any other actionPropertyDefinition
// keys in sorted order, always including the wait action.
func (s *Scenario) ActionNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(a string) {
		if a != "" && !seen[a] {
			seen[a] = true
			out = append(out, a)
		}
	}
	for _, a := range s.Actions {
		add(a)
	}
	keys := make([]string, 0, len(s.ActionProperties))
	for k := range s.ActionProperties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		add(k)
	}
	if len(out) == 0 {
		for _, a := range DefaultActions {
			add(a)
		}
	}
	add("Wait without Action")
	return out
}

// StageLabels are the keys of stagePropertyDefinition, if it is a mapping.
func (s *Scenario) StageLabels() []string {
	m, ok := s.StageProperties.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// TunnelBuffer is the occupancy buffer around tunnels.
func (s *Scenario) TunnelBuffer() float64 {
	if p, ok := s.ActionProperties["Move to Tunnel"]; ok && p.TunnelBuffer > 0 {
		return p.TunnelBuffer
	}
	return terrain.DefaultTunnelBuffer
}

// CasualtyModifiers lists per-action overrides of the casualty multiplier.
func (s *Scenario) CasualtyModifiers() map[string]float64 {
	out := make(map[string]float64)
	for name, p := range s.ActionProperties {
		if p.CasualtyModifier > 0 {
			out[name] = p.CasualtyModifier
		}
	}
	return out
}

// Guidance is the opaque material passed through to the decision oracle.
func (s *Scenario) Guidance() map[string]interface{} {
	g := make(map[string]interface{})
	if len(s.ActionProperties) > 0 {
		defs := make(map[string]interface{}, len(s.ActionProperties))
		for k, v := range s.ActionProperties {
			defs[k] = v.Raw
		}
		g["actionPropertyDefinition"] = defs
	}
	for key, v := range map[string]interface{}{
		"stagePropertyDefinition": s.StageProperties,
		"actionInstructionBlock":  s.Instructions,
		"jsonConstraintVariable":  s.ResponseFormat,
		"definitionOfJsonKeys":    s.KeyDefinitions,
	} {
		if v != nil {
			g[key] = v
		}
	}
	return g
}
