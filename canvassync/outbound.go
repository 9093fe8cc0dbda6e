package canvassync

import (
	"context"
	"fmt"
	"time"

	"imagine/internal/ticker"
	"imagine/scene"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultTickInterval = 200 * time.Millisecond

// Sender delivers an encoded change set to the rest of the room. Delivery is
// best effort.
type Sender interface {
	SendCanvasEvent(ctx context.Context, data []byte, keyframe bool) error
}

type command struct {
	fn     func(*scene.Scene)
	result chan error
}

// Outbound owns an authoring scene. Scene mutations submitted through Do and
// the periodic ticks run on the goroutine executing Run, so no tick ever
// observes a half applied edit.
type Outbound struct {
	scene    *scene.Scene
	engine   *Engine
	sender   Sender
	tickers  ticker.Creator
	interval time.Duration
	commands chan command
	done     chan struct{}
	log      zerolog.Logger
}

type OutboundOption func(*Outbound)

func WithTickInterval(d time.Duration) OutboundOption {
	return func(o *Outbound) { o.interval = d }
}

func WithKeyframeEvery(ticks int) OutboundOption {
	return func(o *Outbound) { o.engine.keyframeEvery = ticks }
}

func NewOutbound(s *scene.Scene, sender Sender, tickers ticker.Creator, opts ...OutboundOption) *Outbound {
	o := &Outbound{
		scene:    s,
		engine:   NewEngine(0),
		sender:   sender,
		tickers:  tickers,
		interval: DefaultTickInterval,
		commands: make(chan command),
		done:     make(chan struct{}),
		log:      log.With().Str("component", "outbound-sync").Logger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	s.SetObserver(o.engine)
	o.engine.Reset(s)
	return o
}

func (o *Outbound) Interval() time.Duration {
	return o.interval
}

// Run ticks until ctx is done. Once Run returns no further tick is taken and
// Do fails with ErrStopped.
func (o *Outbound) Run(ctx context.Context) {
	ticks, stop := o.tickers.Create(o.interval)
	defer stop()
	defer close(o.done)
	defer o.scene.SetObserver(nil)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticks:
			o.tick(ctx)
		case cmd := <-o.commands:
			cmd.result <- o.apply(cmd.fn)
		}
	}
}

func (o *Outbound) tick(ctx context.Context) {
	cs, emit := o.engine.Tick(o.scene)
	if !emit {
		return
	}
	if err := o.sender.SendCanvasEvent(ctx, Marshal(cs), cs.Reset); err != nil {
		o.log.Warn().Err(err).Msg("Failed to send change set")
	}
}

func (o *Outbound) apply(fn func(*scene.Scene)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			o.log.Error().Interface("panic", r).Msg("Scene command failed")
			err = fmt.Errorf("%w: %v", ErrCommandFailed, r)
		}
	}()
	fn(o.scene)
	return nil
}

// Do runs fn against the scene between two ticks and waits for it.
func (o *Outbound) Do(ctx context.Context, fn func(*scene.Scene)) error {
	cmd := command{fn: fn, result: make(chan error, 1)}
	select {
	case o.commands <- cmd:
	case <-o.done:
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
