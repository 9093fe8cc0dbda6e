package scene

import "math"

// Transform is the pose of an object in canvas pixels. Members of an active
// selection hold a pose relative to the selection origin.
type Transform struct {
	Left  float64
	Top   float64
	Angle float64
	Scale float64
}

type Object struct {
	Name   string
	Source string
	Transform
}

// SavedObject is the absolute pose of an object with left, top and angle
// rounded to whole pixels and degrees.
type SavedObject struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Angle  float64 `json:"angle"`
	Scale  float64 `json:"scale"`
	Source string  `json:"src"`
}

// Selection is a transient group over scene objects. It references its members
// by pointer and never owns them; dissolving it bakes the group transform into
// every member.
type Selection struct {
	Transform
	members []*Object
}

func (g *Selection) Members() []string {
	names := make([]string, 0, len(g.members))
	for _, o := range g.members {
		names = append(names, o.Name)
	}
	return names
}

func (g *Selection) Contains(o *Object) bool {
	for _, m := range g.members {
		if m == o {
			return true
		}
	}
	return false
}

func (g *Selection) Translate(dx, dy float64) {
	g.Left += dx
	g.Top += dy
}

func (g *Selection) Rotate(degrees float64) {
	g.Angle += degrees
}

func (g *Selection) ScaleBy(factor float64) {
	g.Scale = g.scale() * factor
}

func (g *Selection) scale() float64 {
	if g.Scale == 0 {
		return 1
	}
	return g.Scale
}

// Resolve returns the absolute pose of o. When group is not nil, o is treated
// as a member whose transform is relative to the group origin.
func Resolve(o Object, group *Selection) SavedObject {
	t := compose(o.Transform, group)
	return SavedObject{
		Top:    math.Round(t.Top),
		Left:   math.Round(t.Left),
		Angle:  math.Round(t.Angle),
		Scale:  t.Scale,
		Source: o.Source,
	}
}

func compose(t Transform, group *Selection) Transform {
	if group == nil {
		return t
	}

	if group.Angle != 0 {
		t.Left, t.Top = rotate(t.Left, t.Top, group.Angle)
		t.Angle += group.Angle
	}

	if f := group.scale(); f != 1 {
		t.Scale *= f
		t.Top *= f
		t.Left *= f
	}

	t.Top += group.Top
	t.Left += group.Left
	return t
}

// rotate turns (x, y) about the origin by degrees, clockwise on a y-down canvas.
func rotate(x, y, degrees float64) (float64, float64) {
	if degrees == 0 || (x == 0 && y == 0) {
		return x, y
	}
	rad := degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	return x*cos - y*sin, x*sin + y*cos
}
