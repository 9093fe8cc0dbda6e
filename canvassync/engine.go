package canvassync

import (
	"slices"

	"imagine/scene"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Source is the scene the engine diffs against.
type Source interface {
	Canvas() scene.Canvas
	Snapshot() scene.Snapshot
	Objects() []*scene.Object
}

type pendingAdd struct {
	name  string
	saved scene.SavedObject
}

type pendingMove struct {
	name  string
	index int
}

// Engine turns scene changes into change sets. Transform attributes are level
// diffs between the last emitted snapshot and the live one; adds, removals and
// z-index moves are recorded as they happen through the scene.Observer
// methods.
type Engine struct {
	baseline      scene.Snapshot
	adds          []pendingAdd
	removed       []string
	moves         []pendingMove
	keyframeEvery int
	sinceKeyframe int
	log           zerolog.Logger
}

func NewEngine(keyframeEvery int) *Engine {
	return &Engine{
		baseline:      scene.Snapshot{},
		keyframeEvery: keyframeEvery,
		log:           log.With().Str("component", "delta-engine").Logger(),
	}
}

// Reset takes src as the new baseline and drops every pending event.
func (e *Engine) Reset(src Source) {
	e.baseline = src.Snapshot()
	e.adds, e.removed, e.moves = nil, nil, nil
	e.sinceKeyframe = 0
}

func (e *Engine) ObjectAdded(o *scene.Object) {
	e.adds = append(e.adds, pendingAdd{name: o.Name, saved: scene.Resolve(*o, nil)})
}

func (e *Engine) ObjectRemoved(name string) {
	if i := slices.IndexFunc(e.adds, func(a pendingAdd) bool { return a.name == name }); i >= 0 {
		// Never sent, so nobody has to forget it.
		e.adds = slices.Delete(e.adds, i, i+1)
		e.moves = slices.DeleteFunc(e.moves, func(m pendingMove) bool { return m.name == name })
		return
	}
	e.removed = append(e.removed, name)
}

func (e *Engine) ObjectMoved(name string, index int) {
	e.moves = append(e.moves, pendingMove{name: name, index: index})
}

// Tick diffs src against the baseline. It reports false when nothing changed
// or when the tick failed; a failed tick keeps the baseline and the pending
// events for the next one.
func (e *Engine) Tick(src Source) (cs ChangeSet, emit bool) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error().Interface("panic", r).Msg("Tick skipped")
			cs, emit = ChangeSet{}, false
		}
	}()

	snap := src.Snapshot()
	canvas := src.Canvas()
	cs = e.diff(snap, canvas)

	e.sinceKeyframe++
	if !cs.Empty() && e.keyframeEvery > 0 && e.sinceKeyframe >= e.keyframeEvery {
		cs = keyframe(src.Objects(), snap, canvas)
		e.sinceKeyframe = 0
	}

	e.baseline = snap
	e.adds, e.removed, e.moves = nil, nil, nil
	return cs, !cs.Empty()
}

func (e *Engine) diff(snap scene.Snapshot, canvas scene.Canvas) ChangeSet {
	var cs ChangeSet

	added := make(map[string]bool, len(e.adds))
	for _, a := range e.adds {
		added[a.name] = true
		saved, ok := snap[a.name]
		if !ok {
			saved = a.saved
		}
		cs.Added = append(cs.Added, imageInfo(a.name, saved, canvas))
	}

	cs.Removed = slices.Clone(e.removed)

	deltaIndex := map[string]int{}
	for _, m := range e.moves {
		if _, ok := snap[m.name]; !ok {
			continue
		}
		ev := ObjectEvent{Attribute: AttrZIndex, Value: float64(m.index)}
		if n := len(cs.Objects); n > 0 && cs.Objects[n-1].Name == m.name {
			cs.Objects[n-1].Events = append(cs.Objects[n-1].Events, ev)
			continue
		}
		cs.Objects = append(cs.Objects, ObjectDelta{Name: m.name, Events: []ObjectEvent{ev}})
		deltaIndex[m.name] = len(cs.Objects) - 1
	}

	for _, name := range e.baseline.Names() {
		now, ok := snap[name]
		if !ok || added[name] {
			continue
		}
		events := levelDiff(e.baseline[name], now, canvas)
		if len(events) == 0 {
			continue
		}
		if i, ok := deltaIndex[name]; ok {
			cs.Objects[i].Events = append(cs.Objects[i].Events, events...)
			continue
		}
		cs.Objects = append(cs.Objects, ObjectDelta{Name: name, Events: events})
	}
	return cs
}

func levelDiff(old, now scene.SavedObject, canvas scene.Canvas) []ObjectEvent {
	var events []ObjectEvent
	if now.Left != old.Left {
		events = append(events, ObjectEvent{Attribute: AttrLeft, Value: canvas.NormalizeLeft(now.Left)})
	}
	if now.Top != old.Top {
		events = append(events, ObjectEvent{Attribute: AttrTop, Value: canvas.NormalizeTop(now.Top)})
	}
	if now.Angle != old.Angle {
		events = append(events, ObjectEvent{Attribute: AttrAngle, Value: now.Angle})
	}
	if now.Scale != old.Scale {
		events = append(events, ObjectEvent{Attribute: AttrScale, Value: float64(canvas.NormalizeScale(now.Scale))})
	}
	return events
}

func imageInfo(name string, saved scene.SavedObject, canvas scene.Canvas) ImageInfo {
	return ImageInfo{
		Name:   name,
		Source: saved.Source,
		Left:   canvas.NormalizeLeft(saved.Left),
		Top:    canvas.NormalizeTop(saved.Top),
		Angle:  saved.Angle,
		Scale:  canvas.NormalizeScale(saved.Scale),
	}
}

func keyframe(objects []*scene.Object, snap scene.Snapshot, canvas scene.Canvas) ChangeSet {
	cs := ChangeSet{Reset: true}
	for _, o := range objects {
		if saved, ok := snap[o.Name]; ok {
			cs.Added = append(cs.Added, imageInfo(o.Name, saved, canvas))
		}
	}
	return cs
}
