package combo

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kero/internal/model"
)

// Sink receives completed combo snapshots.
type Sink interface {
	Upsert(ctx context.Context, snap model.ComboSnapshot) error
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(ctx context.Context, snap model.ComboSnapshot) error

// Upsert calls f.
func (f SinkFunc) Upsert(ctx context.Context, snap model.ComboSnapshot) error {
	return f(ctx, snap)
}

// Options configures an Aggregator.
type Options struct {
	Sink Sink
	// Terminator is the key whose release asks the caller to stop. Empty
	// disables it.
	Terminator model.KeyToken
	Logger     logrus.FieldLogger
}

// Aggregator emits one snapshot per hold-and-release gesture.
//
// A snapshot is taken on a release only when the previous event was a
// press, so releasing a three-key combo one finger at a time reports it
// once. Releasing and re-pressing keys in overlapping succession can
// therefore under-report combos.
type Aggregator struct {
	held         *HeldSet
	lastWasPress atomic.Bool
	sink         Sink
	terminator   model.KeyToken
	log          logrus.FieldLogger
	inflight     sync.WaitGroup
}

// New constructs an Aggregator with an empty held set.
func New(opts Options) *Aggregator {
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Aggregator{
		held:       NewHeldSet(),
		sink:       opts.Sink,
		terminator: opts.Terminator,
		log:        log,
	}
}

// KeyDown records a press.
func (a *Aggregator) KeyDown(token model.KeyToken) {
	a.held.Insert(token)
	a.lastWasPress.Store(true)
}

// KeyUp records a release. If it completes a gesture the combo is handed to
// the sink before token leaves the held set. It returns true when token is
// the terminator key.
//
// Concurrent releases after one press emit at most one snapshot: only the
// release that flips lastWasPress takes it.
func (a *Aggregator) KeyUp(ctx context.Context, token model.KeyToken) bool {
	if a.lastWasPress.CompareAndSwap(true, false) {
		if keys := a.held.Snapshot(); len(keys) > 0 {
			a.emit(ctx, model.NewComboSnapshot(keys))
		}
	}
	a.held.Remove(token)
	return a.terminator != "" && token == a.terminator
}

// Handle dispatches a hook event. It returns true when the event was the
// release of the terminator key.
func (a *Aggregator) Handle(ctx context.Context, ev model.KeyEvent) bool {
	switch ev.Transition {
	case model.Down:
		a.KeyDown(ev.Token)
		return false
	case model.Up:
		return a.KeyUp(ctx, ev.Token)
	default:
		a.log.WithField("transition", ev.Transition).Warn("Ignoring unknown key transition")
		return false
	}
}

// Held returns a sorted copy of the currently held keys.
func (a *Aggregator) Held() []model.KeyToken {
	return a.held.Snapshot()
}

// HeldCount returns the number of currently held keys.
func (a *Aggregator) HeldCount() int {
	return a.held.Len()
}

// Wait blocks until no snapshot is being handed to the sink.
func (a *Aggregator) Wait() {
	a.inflight.Wait()
}

func (a *Aggregator) emit(ctx context.Context, snap model.ComboSnapshot) {
	if a.sink == nil {
		return
	}
	a.inflight.Add(1)
	defer a.inflight.Done()

	if err := a.sink.Upsert(ctx, snap); err != nil {
		// Store errors must not reach the hook; the combo is dropped.
		a.log.WithError(err).WithField("keys", snap.Keys).Error("Failed to record combo")
		return
	}
	a.log.WithField("keys", snap.Keys).Debug("Recorded combo")
}
