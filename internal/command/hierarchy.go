package command

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"HistoricalBattleSimulator/internal/terrain"
)

// DefaultDeployCap is the largest share of remaining troops one order may deploy.
const DefaultDeployCap = 0.4

// PositionValidator decides whether a unit may stand at a position.
type PositionValidator interface {
	IsValidPosition(p terrain.Position) bool
}

// Seed describes a unit created at setup: a faction root or a seeded
// sub-unit.
type Seed struct {
	Name       string
	Commander  string
	Mission    string
	Background string
	TroopType  string
	Troops     int
	Position   terrain.Position
	Speed      int
	Morale     Morale
	Tactics    Tactics
	Equipment  map[string]int
	Ammo       map[string]int
	Action     string
	Stage      Stage
}

// SpawnSpec is an order to detach part of a unit as a new sub-unit.
type SpawnSpec struct {
	Name      string
	TroopType string
	Action    string
	Troops    int
	Position  terrain.Position
	Speed     int
}

// RecallAction says how a recalled sub-unit was folded back.
type RecallAction int

const (
	Merge RecallAction = iota
	Prune
)

func (a RecallAction) String() string {
	if a == Prune {
		return "Prune"
	}
	return "Merge"
}

type RecallResult struct {
	Action    RecallAction
	Child     string
	Relocated int
}

func (r RecallResult) String() string {
	return fmt.Sprintf("sub-unit %s was %sd, %d children relocated", r.Child, strings.ToLower(r.Action.String()), r.Relocated)
}

// Hierarchy is an arena of units addressed by stable ids. Units are never
// removed; recalled units stay in the arena detached and inert.
type Hierarchy struct {
	DeployCap float64

	units    []*Unit
	byName   map[string]int
	children map[int][]int
	roots    map[Faction]int
	valid    PositionValidator
	suffix   int
}

func NewHierarchy(valid PositionValidator, deployCap float64) *Hierarchy {
	if deployCap <= 0 {
		deployCap = DefaultDeployCap
	}
	return &Hierarchy{
		DeployCap: deployCap,
		byName:    make(map[string]int),
		children:  make(map[int][]int),
		roots:     make(map[Faction]int),
		valid:     valid,
		suffix:    1,
	}
}

func (h *Hierarchy) insert(u *Unit) *Unit {
	u.ID = len(h.units)
	h.units = append(h.units, u)
	h.byName[u.Name] = u.ID
	if u.Parent != NoParent {
		h.children[u.Parent] = append(h.children[u.Parent], u.ID)
	}
	return u
}

func fromSeed(s Seed) *Unit {
	tactics := s.Tactics
	if len(tactics) == 0 {
		tactics = DefaultTactics()
	}
	return &Unit{
		Name:       s.Name,
		Parent:     NoParent,
		Target:     NoTarget,
		Initial:    s.Troops,
		Position:   s.Position,
		Speed:      s.Speed,
		Morale:     s.Morale,
		Tactics:    tactics.Clone(),
		TroopType:  s.TroopType,
		Commander:  s.Commander,
		Mission:    s.Mission,
		Background: s.Background,
		Equipment:  s.Equipment,
		Ammo:       s.Ammo,
		Action:     s.Action,
		Stage:      s.Stage,
	}
}

// AddRoot creates the top-level unit of a faction.
func (h *Hierarchy) AddRoot(f Faction, s Seed) (*Unit, error) {
	if _, ok := h.roots[f]; ok {
		return nil, fmt.Errorf("%w: %s", ErrRootLimit, f)
	}
	if _, ok := h.byName[s.Name]; ok || s.Name == "" {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, s.Name)
	}
	u := fromSeed(s)
	u.Faction = f
	h.insert(u)
	h.roots[f] = u.ID
	return u, nil
}

// AddSeed attaches a seeded sub-unit under parent. Its troops are its own
// and do not count against the parent.
func (h *Hierarchy) AddSeed(parent int, s Seed) (*Unit, error) {
	p := h.Get(parent)
	if p == nil || p.Recalled {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUnit, parent)
	}
	if _, ok := h.byName[s.Name]; ok || s.Name == "" {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, s.Name)
	}
	u := fromSeed(s)
	u.Faction = p.Faction
	u.Parent = p.ID
	u.Seeded = true
	return h.insert(u), nil
}

// Spawn detaches spec.Troops from parent into a new sub-unit. Nothing changes
// when the order fails.
func (h *Hierarchy) Spawn(parent int, spec SpawnSpec) (*Unit, error) {
	p := h.Get(parent)
	if p == nil {
		return nil, fmt.Errorf("%w: id %d", ErrUnknownUnit, parent)
	}
	if !p.Active() {
		return nil, fmt.Errorf("%w: %s", ErrNotActive, p.Name)
	}
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrNameTaken)
	}
	if spec.Troops <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrNoTroops, spec.Troops)
	}
	if float64(spec.Troops) > float64(p.Remaining())*h.DeployCap {
		return nil, fmt.Errorf("%w: %d of %d remaining", ErrDeployCap, spec.Troops, p.Remaining())
	}
	if h.valid != nil && !h.valid.IsValidPosition(spec.Position) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidPosition, spec.Position)
	}
	if _, ok := h.byName[spec.Name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameTaken, spec.Name)
	}

	troopType := spec.TroopType
	if troopType == "" {
		troopType = p.TroopType
	}
	action := spec.Action
	if action == "" {
		action = p.Action
	}
	speed := spec.Speed
	if speed <= 0 {
		speed = p.Speed
	}
	u := &Unit{
		Name:      spec.Name,
		Faction:   p.Faction,
		Parent:    p.ID,
		Target:    p.Target,
		Initial:   spec.Troops,
		Position:  spec.Position,
		Speed:     speed,
		Morale:    p.Morale,
		Tactics:   p.Tactics.Clone(),
		TroopType: troopType,
		Commander: p.Commander,
		Equipment: p.Equipment,
		Ammo:      p.Ammo,
		Action:    action,
		Stage:     InBattle,
	}
	p.Deployed += spec.Troops
	return h.insert(u), nil
}

// returnTroops hands n troops back to u, first from its deployed pool and
// then as fresh strength once the pool is empty.
func returnTroops(u *Unit, n int) {
	if n <= 0 {
		return
	}
	if u.Deployed >= n {
		u.Deployed -= n
		return
	}
	u.Initial += n - u.Deployed
	u.Deployed = 0
}

// Recall folds the named child back into parent. Low morale children are
// pruned, every other child is merged. Grandchildren move up to parent.
// A pruned child is charged only the troops it still held, not its initial
// strength, since its grandchildren carry the rest over to parent.
func (h *Hierarchy) Recall(parent int, name string) (RecallResult, error) {
	p := h.Get(parent)
	if p == nil {
		return RecallResult{}, fmt.Errorf("%w: id %d", ErrUnknownUnit, parent)
	}
	c := h.FindChild(parent, name)
	if c == nil {
		return RecallResult{}, fmt.Errorf("%w: %q under %s", ErrNotChild, name, p.Name)
	}

	res := RecallResult{Action: Merge, Child: c.Name}
	held := c.Initial - c.Deployed
	returnTroops(p, held)
	if c.Morale == Low {
		res.Action = Prune
		p.Lost += held
		c.SetStage(CrushingDefeat, "pruned by "+p.Name)
	} else {
		p.Lost += c.Lost
	}

	for _, gid := range h.children[c.ID] {
		h.units[gid].Parent = p.ID
		h.children[p.ID] = append(h.children[p.ID], gid)
		res.Relocated++
	}
	delete(h.children, c.ID)
	h.detach(c)
	return res, nil
}

func (h *Hierarchy) detach(c *Unit) {
	siblings := h.children[c.Parent]
	for i, id := range siblings {
		if id == c.ID {
			h.children[c.Parent] = append(siblings[:i:i], siblings[i+1:]...)
			break
		}
	}
	c.Parent = NoParent
	c.Recalled = true
}

// Reinforce resizes an active child to strength troops, moving the
// difference to or from the parent. Growth is subject to the deploy cap.
func (h *Hierarchy) Reinforce(parent, child, strength int) (int, error) {
	p, c := h.Get(parent), h.Get(child)
	if p == nil || c == nil {
		return 0, ErrUnknownUnit
	}
	if c.Parent != p.ID || c.Recalled {
		return 0, fmt.Errorf("%w: %s under %s", ErrNotChild, c.Name, p.Name)
	}
	if strength <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrNoTroops, strength)
	}
	delta := strength - c.Remaining()
	switch {
	case delta > 0:
		if float64(delta) > float64(p.Remaining())*h.DeployCap {
			return 0, fmt.Errorf("%w: %d of %d remaining", ErrDeployCap, delta, p.Remaining())
		}
		p.Deployed += delta
		c.Initial += delta
	case delta < 0:
		c.Initial += delta
		returnTroops(p, -delta)
	}
	return delta, nil
}

func (h *Hierarchy) Get(id int) *Unit {
	if id < 0 || id >= len(h.units) {
		return nil
	}
	return h.units[id]
}

// Lookup finds a unit by name, recalled ones included.
func (h *Hierarchy) Lookup(name string) *Unit {
	id, ok := h.byName[name]
	if !ok {
		return nil
	}
	return h.units[id]
}

// FindChild returns the named non-recalled child of parent.
func (h *Hierarchy) FindChild(parent int, name string) *Unit {
	for _, id := range h.children[parent] {
		if u := h.units[id]; u.Name == name && !u.Recalled {
			return u
		}
	}
	return nil
}

func (h *Hierarchy) Children(parent int) []*Unit {
	ids := h.children[parent]
	out := make([]*Unit, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.units[id])
	}
	return out
}

// Root walks parent links up to the faction root.
func (h *Hierarchy) Root(id int) *Unit {
	u := h.Get(id)
	for steps := 0; u != nil && u.Parent != NoParent && steps <= len(h.units); steps++ {
		u = h.Get(u.Parent)
	}
	return u
}

func (h *Hierarchy) FactionRoot(f Faction) *Unit {
	id, ok := h.roots[f]
	if !ok {
		return nil
	}
	return h.units[id]
}

// Depth is the number of parent links between id and its root.
func (h *Hierarchy) Depth(id int) int {
	d := 0
	for u := h.Get(id); u != nil && u.Parent != NoParent && d <= len(h.units); u = h.Get(u.Parent) {
		d++
	}
	return d
}

// Units returns every unit ever created, in id order.
func (h *Hierarchy) Units() []*Unit {
	return h.units
}

// Active returns the units still in the fight, in id order.
func (h *Hierarchy) Active() []*Unit {
	var out []*Unit
	for _, u := range h.units {
		if u.Active() {
			out = append(out, u)
		}
	}
	return out
}

// ActiveIDs snapshots the ids of active units for iteration that may spawn or
// recall along the way.
func (h *Hierarchy) ActiveIDs() []int {
	var out []int
	for _, u := range h.units {
		if u.Active() {
			out = append(out, u.ID)
		}
	}
	return out
}

// Totals sums remaining troops and counts active units of a faction.
func (h *Hierarchy) Totals(f Faction) (troops, units int) {
	for _, u := range h.units {
		if u.Faction == f && u.Active() {
			troops += u.Remaining()
			units++
		}
	}
	return troops, units
}

// UniqueName generates an unused "<parent>_Sub<N>" identifier.
func (h *Hierarchy) UniqueName(parent int) string {
	base := "Unit"
	if p := h.Get(parent); p != nil {
		base = p.Name
	}
	for {
		name := fmt.Sprintf("%s_Sub%d", base, h.suffix)
		h.suffix++
		if _, taken := h.byName[name]; !taken {
			return name
		}
	}
}

// SelfCreated reports whether u was spawned by its parent rather than seeded.
func (h *Hierarchy) SelfCreated(u *Unit) bool {
	p := h.Get(u.Parent)
	return p != nil && strings.HasPrefix(u.Name, p.Name+"_")
}

// Verify checks the arena's structural and accounting invariants.
func (h *Hierarchy) Verify() error {
	var err error
	roots := 0
	for _, u := range h.units {
		if u.Initial < 0 || u.Deployed < 0 || u.Lost < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: negative troop count", u.Name))
		}
		if u.Remaining() == 0 && !u.Recalled && !u.Terminal() {
			err = multierr.Append(err, fmt.Errorf("%s: no troops but stage %s", u.Name, u.Stage))
		}
		switch {
		case u.Recalled:
			if u.Parent != NoParent {
				err = multierr.Append(err, fmt.Errorf("%s: recalled but still attached", u.Name))
			}
			if len(h.children[u.ID]) > 0 {
				err = multierr.Append(err, fmt.Errorf("%s: recalled with orphaned children", u.Name))
			}
		case u.Parent == NoParent:
			roots++
		default:
			p := h.Get(u.Parent)
			if p == nil || p.Recalled {
				err = multierr.Append(err, fmt.Errorf("%s: parent missing or recalled", u.Name))
			} else if p.Faction != u.Faction {
				err = multierr.Append(err, fmt.Errorf("%s: faction differs from parent %s", u.Name, p.Name))
			}
		}
	}
	if roots != len(h.roots) {
		err = multierr.Append(err, fmt.Errorf("found %d roots, want %d", roots, len(h.roots)))
	}
	return err
}
