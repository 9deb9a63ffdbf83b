package config

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"HistoricalBattleSimulator/internal/terrain"
)

// Validate reports every defect in the scenario at once.
func (s *Scenario) Validate() error {
	var err error
	if s.Rounds <= 0 {
		err = multierr.Append(err, fmt.Errorf("num_rounds must be positive, got %d", s.Rounds))
	}
	if s.Battle.DeployCap > 1 {
		err = multierr.Append(err, fmt.Errorf("battle_config.deploy_cap must be at most 1, got %v", s.Battle.DeployCap))
	}

	names := make(map[string]string)
	checkUnit := func(where string, u Unit) {
		if strings.TrimSpace(u.Name) == "" {
			err = multierr.Append(err, fmt.Errorf("%s: name is required", where))
		} else if prev, dup := names[u.Name]; dup {
			err = multierr.Append(err, fmt.Errorf("%s: name %q already used by %s", where, u.Name, prev))
		} else {
			names[u.Name] = where
		}
		if u.InitialTroops() <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s: initial_troops must be positive", where))
		}
		if u.Position == nil {
			err = multierr.Append(err, fmt.Errorf("%s: initial_position is required", where))
		}
		if u.Morale != "" && !oneOf(u.Morale, "High", "Medium", "Low") {
			err = multierr.Append(err, fmt.Errorf("%s: unknown moral %q", where, u.Morale))
		}
	}
	for _, side := range []struct {
		key string
		f   Faction
	}{{"red_configs", s.Red}, {"green_configs", s.Green}} {
		checkUnit(side.key, side.f.Unit)
		for i, sub := range side.f.SubAgents {
			checkUnit(fmt.Sprintf("%s.sub_agents[%d]", side.key, i), sub)
		}
	}

	strongholds := make(map[string]bool)
	for i, ft := range s.Terrain.Features {
		typ, perr := terrain.ParseType(ft.Type)
		if perr != nil {
			err = multierr.Append(err, fmt.Errorf("terrain_config.terrains[%d]: %w", i, perr))
			continue
		}
		if typ == terrain.Tunnel {
			err = multierr.Append(err, fmt.Errorf("terrain_config.terrains[%d]: tunnels belong under terrain_config.tunnels", i))
		}
		if typ == terrain.Stronghold {
			strongholds[ft.Name] = true
		}
	}
	for i, tn := range s.Terrain.Tunnels {
		if tn.Capacity < 0 {
			err = multierr.Append(err, fmt.Errorf("terrain_config.tunnels[%d]: capacity must not be negative", i))
		}
		if tn.ConstructionComplete > 0 && tn.ConstructionComplete < tn.ConstructionStart {
			err = multierr.Append(err, fmt.Errorf("terrain_config.tunnels[%d]: construction completes before it starts", i))
		}
	}
	for i, w := range s.Terrain.Weather {
		if w.Visibility < 0 || w.Artillery < 0 || w.Speed < 0 {
			err = multierr.Append(err, fmt.Errorf("terrain_config.weather[%d]: modifiers must not be negative", i))
		}
	}
	for _, side := range []Faction{s.Red, s.Green} {
		if side.HomeStronghold != "" && !strongholds[side.HomeStronghold] {
			err = multierr.Append(err, fmt.Errorf("%s: home_stronghold %q is not a stronghold", side.Name, side.HomeStronghold))
		}
	}
	if !s.Oracle.Offline {
		for i, ep := range s.Oracle.Endpoints {
			if !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
				err = multierr.Append(err, fmt.Errorf("oracle.endpoints[%d]: %q is not an http(s) URL", i, ep))
			}
		}
	}
	return err
}

func oneOf(s string, options ...string) bool {
	for _, o := range options {
		if strings.EqualFold(s, o) {
			return true
		}
	}
	return false
}
