package view

import (
	"context"
	"errors"
	"log"
	"time"

	"golang.org/x/time/rate"
)

// ErrLoopStopped is returned by Do after the loop has exited
var ErrLoopStopped = errors.New("view loop stopped")

// FrameSink receives scene frames published by a loop
type FrameSink interface {
	PublishFrame(viewID string, scene Scene)
}

// FrameSinkFunc adapts a function to FrameSink
type FrameSinkFunc func(viewID string, scene Scene)

// PublishFrame implements FrameSink
func (f FrameSinkFunc) PublishFrame(viewID string, scene Scene) {
	f(viewID, scene)
}

// TickObserver is notified after every frame that advanced the simulation
type TickObserver interface {
	ObserveTicks(viewID string, ticks int, alpha float64)
}

type command struct {
	fn   func(*Controller)
	done chan struct{}
}

// Loop drives one controller from a single goroutine. Frame timer ticks and
// commands submitted through Do run to completion one at a time, so the
// controller never sees concurrent access.
type Loop struct {
	id       string
	ctrl     *Controller
	sink     FrameSink
	observer TickObserver

	interval      time.Duration
	ticksPerFrame int
	limiter       *rate.Limiter

	cmds  chan command
	done  chan struct{}
	dirty bool
}

// NewLoop creates a loop for ctrl identified by id. Frames are published to
// sink at most cfg.PublishRate times per second while the simulation runs;
// the frame in which it cools is always published.
func NewLoop(id string, ctrl *Controller, sink FrameSink, observer TickObserver) *Loop {
	cfg := ctrl.cfg
	return &Loop{
		id:            id,
		ctrl:          ctrl,
		sink:          sink,
		observer:      observer,
		interval:      cfg.FrameInterval,
		ticksPerFrame: cfg.TicksPerFrame,
		limiter:       rate.NewLimiter(rate.Limit(cfg.PublishRate), 1),
		cmds:          make(chan command),
		done:          make(chan struct{}),
		dirty:         true,
	}
}

// ID returns the view identifier
func (l *Loop) ID() string {
	return l.id
}

// Done is closed when Run returns
func (l *Loop) Done() <-chan struct{} {
	return l.done
}

// Run processes frames and commands until ctx is cancelled. The controller
// is closed on return.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.ctrl.Close()

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	log.Printf("View %s started (%d ms frames)", l.id, l.interval.Milliseconds())
	for {
		select {
		case <-ctx.Done():
			log.Printf("View %s stopped", l.id)
			return ctx.Err()

		case cmd := <-l.cmds:
			cmd.fn(l.ctrl)
			close(cmd.done)
			l.dirty = true

		case <-ticker.C:
			l.frame()
		}
	}
}

// frame runs up to ticksPerFrame simulation steps and publishes the scene
func (l *Loop) frame() {
	wasRunning := l.ctrl.Running()
	ticks := 0
	for ticks < l.ticksPerFrame && l.ctrl.Running() {
		l.ctrl.Tick()
		ticks++
	}

	if ticks > 0 && l.observer != nil {
		l.observer.ObserveTicks(l.id, ticks, l.ctrl.Alpha())
	}

	if ticks == 0 && !l.dirty {
		return
	}

	cooled := wasRunning && !l.ctrl.Running()
	if l.ctrl.Running() && !cooled && !l.limiter.Allow() {
		l.dirty = true
		return
	}

	l.dirty = false
	if cooled {
		log.Printf("View %s settled (alpha %.4f)", l.id, l.ctrl.Alpha())
	}
	if l.sink != nil {
		l.sink.PublishFrame(l.id, l.ctrl.Snapshot())
	}
}

// Do runs fn on the loop goroutine and waits for it to finish
func (l *Loop) Do(ctx context.Context, fn func(*Controller)) error {
	cmd := command{fn: fn, done: make(chan struct{})}

	select {
	case l.cmds <- cmd:
	case <-l.done:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-cmd.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
