package kb

import "github.com/signalsfoundry/tasking-planner/model"

// PointingGoal asks for Satellite to end up pointing at Direction.
type PointingGoal struct {
	Satellite model.SatelliteID
	Direction model.Direction
}

// Multigoal is a partial target state. Only the pointing and image entries
// it names constrain a plan; everything else is left free. A Multigoal is
// built once by the problem loader and never mutated during planning.
type Multigoal struct {
	Name string

	pointing      map[model.SatelliteID]model.Direction
	pointingOrder []model.SatelliteID
	images        []model.ImageKey
	imageSet      map[model.ImageKey]struct{}
}

// NewMultigoal returns an empty goal.
func NewMultigoal(name string) *Multigoal {
	return &Multigoal{
		Name:     name,
		pointing: make(map[model.SatelliteID]model.Direction),
		imageSet: make(map[model.ImageKey]struct{}),
	}
}

// SetPointing requires sat to point at d. Re-setting a satellite keeps its
// original enumeration position.
func (g *Multigoal) SetPointing(sat model.SatelliteID, d model.Direction) {
	if _, ok := g.pointing[sat]; !ok {
		g.pointingOrder = append(g.pointingOrder, sat)
	}
	g.pointing[sat] = d
}

// RequireImage adds image k to the goal.
func (g *Multigoal) RequireImage(k model.ImageKey) {
	if _, ok := g.imageSet[k]; ok {
		return
	}
	g.imageSet[k] = struct{}{}
	g.images = append(g.images, k)
}

// Pointing returns the goal direction for sat, if the goal constrains it.
func (g *Multigoal) Pointing(sat model.SatelliteID) (model.Direction, bool) {
	d, ok := g.pointing[sat]
	return d, ok
}

// PointingGoals returns the pointing entries in declaration order.
func (g *Multigoal) PointingGoals() []PointingGoal {
	out := make([]PointingGoal, 0, len(g.pointingOrder))
	for _, sat := range g.pointingOrder {
		out = append(out, PointingGoal{Satellite: sat, Direction: g.pointing[sat]})
	}
	return out
}

// Images returns the required images in declaration order.
func (g *Multigoal) Images() []model.ImageKey {
	return append([]model.ImageKey(nil), g.images...)
}

// Len returns the number of goal atoms.
func (g *Multigoal) Len() int {
	return len(g.pointingOrder) + len(g.images)
}
