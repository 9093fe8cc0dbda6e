package scene

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Observer is notified of structural scene changes as they happen.
type Observer interface {
	ObjectAdded(o *Object)
	ObjectRemoved(name string)
	ObjectMoved(name string, index int)
}

// Scene is an ordered collection of image objects, back to front, with at
// most one active selection. A Scene is not safe for concurrent use.
type Scene struct {
	canvas   Canvas
	objects  []*Object
	active   *Selection
	nextID   int
	observer Observer
}

func New(width float64) *Scene {
	return &Scene{canvas: Canvas{Width: width}}
}

func (s *Scene) SetObserver(o Observer) {
	s.observer = o
}

func (s *Scene) Canvas() Canvas {
	return s.canvas
}

func (s *Scene) Len() int {
	return len(s.objects)
}

// Objects returns the scene objects back to front.
func (s *Scene) Objects() []*Object {
	return slices.Clone(s.objects)
}

func (s *Scene) Get(name string) (*Object, bool) {
	i := s.IndexOf(name)
	if i < 0 {
		return nil, false
	}
	return s.objects[i], true
}

func (s *Scene) IndexOf(name string) int {
	return slices.IndexFunc(s.objects, func(o *Object) bool { return o.Name == name })
}

// Add places a new figure at the canvas center with a generated name.
func (s *Scene) Add(source string) *Object {
	left, top := s.canvas.Center()
	o := &Object{
		Name:      "o" + strconv.Itoa(s.nextID),
		Source:    source,
		Transform: Transform{Left: left, Top: top, Scale: 1},
	}
	s.nextID++
	s.insert(o)
	return o
}

// AddNamed adds an object under a caller chosen name. Generated names never
// collide with names added this way.
func (s *Scene) AddNamed(name, source string, t Transform) (*Object, error) {
	if _, exists := s.Get(name); exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateName, name)
	}
	if n, ok := strings.CutPrefix(name, "o"); ok {
		if id, err := strconv.Atoi(n); err == nil && id >= s.nextID {
			s.nextID = id + 1
		}
	}
	o := &Object{Name: name, Source: source, Transform: t}
	s.insert(o)
	return o, nil
}

func (s *Scene) insert(o *Object) {
	s.objects = append(s.objects, o)
	if s.observer != nil {
		s.observer.ObjectAdded(o)
	}
}

func (s *Scene) Remove(name string) bool {
	i := s.IndexOf(name)
	if i < 0 {
		return false
	}
	o := s.objects[i]
	if s.active != nil && s.active.Contains(o) {
		s.active.members = slices.DeleteFunc(s.active.members, func(m *Object) bool { return m == o })
		if len(s.active.members) == 0 {
			s.active = nil
		}
	}
	s.objects = slices.Delete(s.objects, i, i+1)
	if s.observer != nil {
		s.observer.ObjectRemoved(name)
	}
	return true
}

// Clear removes every object.
func (s *Scene) Clear() {
	s.Discard()
	for len(s.objects) > 0 {
		s.Remove(s.objects[0].Name)
	}
}

// MoveTo changes the z-index of an object. Out of range indexes are clamped.
func (s *Scene) MoveTo(name string, index int) bool {
	from := s.IndexOf(name)
	if from < 0 {
		return false
	}
	index = max(0, min(index, len(s.objects)-1))
	if from == index {
		return false
	}
	o := s.objects[from]
	s.objects = slices.Delete(s.objects, from, from+1)
	s.objects = slices.Insert(s.objects, index, o)
	if s.observer != nil {
		s.observer.ObjectMoved(name, index)
	}
	return true
}

// Select makes names the active selection and brings them to the top of the
// z-order, the i-th selected object landing on index len-k+i. Two or more
// objects are grouped under a selection centered on their mean position.
func (s *Scene) Select(names ...string) *Selection {
	s.Discard()

	selected := make([]*Object, 0, len(names))
	for _, name := range names {
		if o, ok := s.Get(name); ok && !slices.Contains(selected, o) {
			selected = append(selected, o)
		}
	}
	if len(selected) == 0 {
		return nil
	}

	n, k := len(s.objects), len(selected)
	if k < n {
		// Highest target first, so earlier moves never shift settled objects.
		for i := k - 1; i >= 0; i-- {
			s.MoveTo(selected[i].Name, n-k+i)
		}
	}

	if k == 1 {
		return nil
	}

	g := &Selection{Transform: Transform{Scale: 1}, members: selected}
	for _, o := range selected {
		g.Left += o.Left / float64(k)
		g.Top += o.Top / float64(k)
	}
	for _, o := range selected {
		o.Left -= g.Left
		o.Top -= g.Top
	}
	s.active = g
	return g
}

// Selection returns the active selection or nil.
func (s *Scene) Selection() *Selection {
	return s.active
}

// Discard dissolves the active selection, baking the group transform into
// each member.
func (s *Scene) Discard() {
	g := s.active
	if g == nil {
		return
	}
	s.active = nil
	for _, o := range g.members {
		o.Transform = compose(o.Transform, g)
	}
}

func (s *Scene) groupOf(o *Object) *Selection {
	if s.active != nil && s.active.Contains(o) {
		return s.active
	}
	return nil
}

func (s *Scene) Resolve(name string) (SavedObject, bool) {
	o, ok := s.Get(name)
	if !ok {
		return SavedObject{}, false
	}
	return Resolve(*o, s.groupOf(o)), true
}

// Snapshot resolves every object. Members of the active selection keep their
// local transform; resolution happens on the copy.
func (s *Scene) Snapshot() Snapshot {
	snap := make(Snapshot, len(s.objects))
	for _, o := range s.objects {
		snap[o.Name] = Resolve(*o, s.groupOf(o))
	}
	return snap
}

// Resize sets a new canvas width and rescales every object to keep its
// relative position and size.
func (s *Scene) Resize(width float64) {
	prev := s.canvas.Width
	s.canvas.Width = width
	if prev == 0 || width == prev {
		return
	}
	s.Discard()
	f := width / prev
	for _, o := range s.objects {
		o.Left *= f
		o.Top *= f
		o.Scale *= f
	}
}
