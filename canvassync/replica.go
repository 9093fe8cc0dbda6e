package canvassync

import (
	"context"
	"fmt"
	"math"
	"time"

	"imagine/internal/ticker"
	"imagine/scene"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultFrameInterval = 16 * time.Millisecond

// Replica is the read-only copy of a remote scene. Transform deltas are
// animated over one sender tick instead of snapping.
type Replica struct {
	scene    *scene.Scene
	duration time.Duration
	ease     Easing
	now      func() time.Time
	frames   time.Duration
	tweens   map[string]map[Attribute]*tween
	incoming chan []byte
	views    chan command
	done     chan struct{}
	log      zerolog.Logger
}

type ReplicaOption func(*Replica)

func WithAnimationDuration(d time.Duration) ReplicaOption {
	return func(r *Replica) { r.duration = d }
}

func WithEasing(e Easing) ReplicaOption {
	return func(r *Replica) { r.ease = e }
}

func WithClock(now func() time.Time) ReplicaOption {
	return func(r *Replica) { r.now = now }
}

func WithFrameInterval(d time.Duration) ReplicaOption {
	return func(r *Replica) { r.frames = d }
}

func NewReplica(width float64, opts ...ReplicaOption) *Replica {
	r := &Replica{
		scene:    scene.New(width),
		duration: DefaultTickInterval,
		ease:     Linear,
		now:      time.Now,
		frames:   DefaultFrameInterval,
		tweens:   map[string]map[Attribute]*tween{},
		incoming: make(chan []byte, 64),
		views:    make(chan command),
		done:     make(chan struct{}),
		log:      log.With().Str("component", "replica").Logger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Scene exposes the replica scene to the goroutine driving Apply and Advance.
func (r *Replica) Scene() *scene.Scene {
	return r.scene
}

// Apply applies a change set received at now. Malformed entries are logged
// and skipped; Apply never panics.
func (r *Replica) Apply(cs ChangeSet, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("Change set skipped")
		}
	}()

	r.Advance(now)

	if cs.Reset {
		r.applyKeyframe(cs.Added, now)
		return
	}

	// Removals first: the engine drops an add that is removed within the same
	// tick, so a name in both lists was removed and then created again.
	for _, name := range cs.Removed {
		r.forget(name)
	}

	for _, info := range cs.Added {
		r.add(info)
	}

	canvas := r.scene.Canvas()
	for _, d := range cs.Objects {
		o, ok := r.scene.Get(d.Name)
		if !ok {
			r.log.Debug().Str("object", d.Name).Msg("Delta for unknown object")
			continue
		}
		for _, e := range d.Events {
			switch e.Attribute {
			case AttrZIndex:
				r.scene.MoveTo(d.Name, int(e.Value))
			case AttrLeft:
				r.animate(o, AttrLeft, canvas.DenormalizeLeft(e.Value), now)
			case AttrTop:
				r.animate(o, AttrTop, canvas.DenormalizeTop(e.Value), now)
			case AttrAngle:
				r.animate(o, AttrAngle, e.Value, now)
			case AttrScale:
				r.animate(o, AttrScale, canvas.DenormalizeScale(int64(math.Round(e.Value))), now)
			default:
				r.log.Warn().Str("object", d.Name).Stringer("attribute", e.Attribute).Msg("Unknown attribute ignored")
			}
		}
	}
}

func (r *Replica) add(info ImageInfo) {
	if _, exists := r.scene.Get(info.Name); exists {
		// Names restart at o0 with every new artist.
		r.log.Debug().Str("object", info.Name).Msg("Object added twice, replacing it")
		r.forget(info.Name)
	}
	if _, err := r.scene.AddNamed(info.Name, info.Source, r.transformOf(info)); err != nil {
		r.log.Warn().Err(err).Str("object", info.Name).Msg("Failed to add object")
	}
}

func (r *Replica) forget(name string) {
	for r.scene.Remove(name) {
	}
	delete(r.tweens, name)
}

func (r *Replica) transformOf(info ImageInfo) scene.Transform {
	canvas := r.scene.Canvas()
	return scene.Transform{
		Left:  canvas.DenormalizeLeft(info.Left),
		Top:   canvas.DenormalizeTop(info.Top),
		Angle: info.Angle,
		Scale: canvas.DenormalizeScale(info.Scale),
	}
}

// applyKeyframe makes the scene hold exactly objects, in order. Objects that
// survive with the same figure glide to their new pose.
func (r *Replica) applyKeyframe(objects []ImageInfo, now time.Time) {
	keep := make(map[string]bool, len(objects))
	for _, info := range objects {
		keep[info.Name] = true
	}
	for _, o := range r.scene.Objects() {
		if !keep[o.Name] {
			r.forget(o.Name)
		}
	}
	for i, info := range objects {
		if o, ok := r.scene.Get(info.Name); ok && o.Source == info.Source {
			r.animateTo(o, r.transformOf(info), now)
		} else {
			r.add(info)
		}
		r.scene.MoveTo(info.Name, i)
	}
}

func (r *Replica) animateTo(o *scene.Object, t scene.Transform, now time.Time) {
	r.animate(o, AttrLeft, t.Left, now)
	r.animate(o, AttrTop, t.Top, now)
	r.animate(o, AttrAngle, t.Angle, now)
	r.animate(o, AttrScale, t.Scale, now)
}

func (r *Replica) animate(o *scene.Object, attr Attribute, target float64, now time.Time) {
	from := value(o, attr)
	if attr == AttrAngle {
		from = shortestStart(from, target)
		o.Angle = from
	}
	if from == target {
		delete(r.tweens[o.Name], attr)
		return
	}
	if r.tweens[o.Name] == nil {
		r.tweens[o.Name] = map[Attribute]*tween{}
	}
	r.tweens[o.Name][attr] = &tween{from: from, to: target, start: now}
}

// Advance moves every running animation to its value at now and reports
// whether any animation is still running.
func (r *Replica) Advance(now time.Time) bool {
	for name, byAttr := range r.tweens {
		o, ok := r.scene.Get(name)
		if !ok {
			delete(r.tweens, name)
			continue
		}
		for attr, tw := range byAttr {
			v, done := tw.at(now, r.duration, r.ease)
			setValue(o, attr, v)
			if done {
				delete(byAttr, attr)
			}
		}
		if len(byAttr) == 0 {
			delete(r.tweens, name)
		}
	}
	return len(r.tweens) > 0
}

// Resize follows a new local canvas width. Running animations are finished
// first.
func (r *Replica) Resize(width float64) {
	r.Advance(r.now().Add(r.duration))
	r.scene.Resize(width)
}

func value(o *scene.Object, attr Attribute) float64 {
	switch attr {
	case AttrLeft:
		return o.Left
	case AttrTop:
		return o.Top
	case AttrAngle:
		return o.Angle
	case AttrScale:
		return o.Scale
	}
	return 0
}

func setValue(o *scene.Object, attr Attribute, v float64) {
	switch attr {
	case AttrLeft:
		o.Left = v
	case AttrTop:
		o.Top = v
	case AttrAngle:
		o.Angle = v
	case AttrScale:
		o.Scale = v
	}
}

// Deliver queues an encoded change set for Run, keeping arrival order.
func (r *Replica) Deliver(ctx context.Context, data []byte) error {
	select {
	case r.incoming <- data:
		return nil
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// View runs fn on the replica goroutine.
func (r *Replica) View(ctx context.Context, fn func(*scene.Scene)) error {
	cmd := command{fn: fn, result: make(chan error, 1)}
	select {
	case r.views <- cmd:
	case <-r.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.result:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run decodes and applies delivered change sets and steps animations on every
// frame until ctx is done.
func (r *Replica) Run(ctx context.Context, tickers ticker.Creator) {
	frames, stop := tickers.Create(r.frames)
	defer stop()
	defer close(r.done)

	for {
		select {
		case <-ctx.Done():
			return
		case data := <-r.incoming:
			cs, err := Unmarshal(data)
			if err != nil {
				r.log.Warn().Err(err).Int("bytes", len(data)).Msg("Dropped change set")
				continue
			}
			r.Apply(cs, r.now())
		case now := <-frames:
			r.Advance(now)
		case cmd := <-r.views:
			cmd.result <- r.view(cmd.fn)
		}
	}
}

func (r *Replica) view(fn func(*scene.Scene)) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: %v", ErrCommandFailed, rec)
		}
	}()
	fn(r.scene)
	return nil
}
