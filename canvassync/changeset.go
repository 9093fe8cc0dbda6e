package canvassync

import "fmt"

type Attribute uint8

const (
	AttrLeft Attribute = iota + 1
	AttrTop
	AttrAngle
	AttrScale
	AttrZIndex
)

func (a Attribute) String() string {
	switch a {
	case AttrLeft:
		return "left"
	case AttrTop:
		return "top"
	case AttrAngle:
		return "angle"
	case AttrScale:
		return "scale"
	case AttrZIndex:
		return "zIndex"
	}
	return fmt.Sprintf("attribute(%d)", uint8(a))
}

// ObjectEvent carries one attribute value in wire units: left and top as
// fractions of the canvas width and height, angle in degrees, scale in
// scaled units and z-index as a position.
type ObjectEvent struct {
	Attribute Attribute
	Value     float64
}

// ObjectDelta groups consecutive events of one object. Receivers apply deltas
// in list order since z-index moves depend on each other.
type ObjectDelta struct {
	Name   string
	Events []ObjectEvent
}

type ImageInfo struct {
	Name   string
	Source string
	Left   float64
	Top    float64
	Angle  float64
	Scale  int64
}

// ChangeSet is one tick of scene changes. A Reset change set is a keyframe:
// Added lists every object back to front and replaces the receiver's scene.
type ChangeSet struct {
	Added   []ImageInfo
	Removed []string
	Objects []ObjectDelta
	Reset   bool
}

func (cs ChangeSet) Empty() bool {
	return !cs.Reset && len(cs.Added) == 0 && len(cs.Removed) == 0 && len(cs.Objects) == 0
}

// Events returns every event recorded for name, in order.
func (cs ChangeSet) Events(name string) []ObjectEvent {
	var events []ObjectEvent
	for _, d := range cs.Objects {
		if d.Name == name {
			events = append(events, d.Events...)
		}
	}
	return events
}
