package oracle

import (
	"context"
	"fmt"
	"math"

	"HistoricalBattleSimulator/internal/command"
	"HistoricalBattleSimulator/internal/terrain"
)

// Doctrine is a rule based oracle used when no model endpoint is configured.
// Aggression is 0..1; higher values close and assault from further away.
type Doctrine struct {
	Aggression float64
	// DeployEvery spawns a detachment on rounds divisible by it.
	DeployEvery int
	// DeployShare is the fraction of remaining troops a detachment takes.
	DeployShare float64
	// RecallBelow folds back children weaker than this.
	RecallBelow int
}

func DefaultDoctrine() Doctrine {
	return Doctrine{Aggression: 0.5, DeployEvery: 5, DeployShare: 0.25, RecallBelow: 100}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Validate clamps the doctrine's knobs to their usable ranges.
func (d *Doctrine) Validate() {
	d.Aggression = clamp(d.Aggression, 0, 1)
	d.DeployShare = clamp(d.DeployShare, 0, 0.4)
	if d.DeployEvery < 0 {
		d.DeployEvery = 0
	}
	if d.RecallBelow < 0 {
		d.RecallBelow = 0
	}
}

func pick(actions []string, preferred ...string) string {
	for _, want := range preferred {
		for _, a := range actions {
			if a == want {
				return a
			}
		}
	}
	return Wait
}

// step moves from p toward q by at most dist.
func step(p, q terrain.Position, dist float64) terrain.Position {
	total := p.DistanceTo(q)
	if total <= dist || total == 0 {
		return q
	}
	f := dist / total
	return terrain.Position{X: p.X + (q.X-p.X)*f, Y: p.Y + (q.Y-p.Y)*f}
}

func nearestTunnel(s Situation) *Landmark {
	var best *Landmark
	for i := range s.Landmarks {
		l := &s.Landmarks[i]
		if l.Type == terrain.Tunnel && (best == nil || l.Distance < best.Distance) {
			best = l
		}
	}
	return best
}

func (d Doctrine) Decide(ctx context.Context, req Request) (Decision, error) {
	if err := ctx.Err(); err != nil {
		return Decision{}, err
	}
	d.Validate()
	u, s := req.Unit, req.Situation

	dec := Decision{
		Action: Wait,
		Stage:  command.InBattle.String(),
		Morale: u.Morale.String(),
		Target: "None",
	}
	speed := u.Speed
	dec.Speed = &speed

	ratio := math.Inf(1)
	if s.Target != nil && s.Target.Troops > 0 {
		ratio = float64(u.Remaining) / float64(s.Target.Troops)
	}
	if s.Target != nil {
		dec.Target = s.Target.Name
		switch {
		case ratio >= 1.5:
			dec.Morale = command.High.String()
		case ratio < 0.5:
			dec.Morale = command.Low.String()
		default:
			dec.Morale = command.Medium.String()
		}
	}
	lowVisibility := s.Weather.Visibility > 0 && s.Weather.Visibility < 0.7
	engageRange := 100 + 400*d.Aggression
	tunnel := nearestTunnel(s)

	switch {
	case u.Initial > 0 && u.Remaining*5 < u.Initial:
		dec.Action = pick(req.Actions, "Retreat", "Move to Tunnel", "Hold Position")
		dec.Stage = command.Retreating.String()
	case s.Target == nil:
		dec.Action = pick(req.Actions, "Fortify Position", "Hold Position")
		dec.Stage = command.Defending.String()
	case ratio < 1 && s.Target.Distance <= engageRange:
		dec.Action = pick(req.Actions, "Fortify Position", "Hold Position")
		dec.Stage = command.Defending.String()
	case lowVisibility && tunnel != nil && !s.InTunnel:
		dec.Action = pick(req.Actions, "Move to Tunnel", "Advance")
		dec.Stage = command.Advancing.String()
		pos := tunnel.Position
		dec.Position = &pos
	case s.Target.Distance <= engageRange:
		if lowVisibility {
			dec.Action = pick(req.Actions, "Launch Night Assault", "Launch Full Assault")
		} else {
			dec.Action = pick(req.Actions, "Launch Full Assault", "Human Wave Assault", "Attack")
		}
	default:
		dec.Action = pick(req.Actions, "Advance", "Move to Tunnel", "Hold Position")
		dec.Stage = command.Advancing.String()
		next := step(u.Position, s.Target.Position, float64(speed)*s.Weather.Speed)
		dec.Position = &next
	}

	if d.DeployEvery > 0 && req.Round%d.DeployEvery == 0 && ratio >= 1.5 && len(req.Chain.Children) < 2 && s.Target != nil {
		if troops := int(float64(u.Remaining) * d.DeployShare); troops > 0 {
			pos := step(u.Position, s.Target.Position, 50)
			dec.SubOrders = append(dec.SubOrders, SubOrder{
				Deploy:    true,
				Name:      fmt.Sprintf("%s_Sub%d", u.Name, req.Round),
				Action:    dec.Action,
				TroopType: u.TroopType,
				Troops:    troops,
				Position:  &pos,
				Speed:     speed,
			})
		}
	}
	for _, c := range req.Chain.Children {
		if c.Morale == command.Low || c.Troops < d.RecallBelow {
			dec.Recall = append(dec.Recall, c.Name)
		}
	}

	dec.Remarks = fmt.Sprintf("Doctrine: %s.", dec.Action)
	return dec, nil
}
