// Package recorder wires a keyboard hook to the combo aggregator and store.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kero/internal/combo"
	"github.com/verte-zerg/kero/internal/hook"
	"github.com/verte-zerg/kero/internal/model"
)

// DefaultTerminator is the key whose release stops the recorder.
const DefaultTerminator model.KeyToken = "Escape"

var errTerminated = errors.New("terminator key released")

// Options configures Run.
type Options struct {
	Source     hook.Source
	Sink       combo.Sink
	Terminator model.KeyToken
	Logger     logrus.FieldLogger
}

// Run records combos until the terminator key is released, ctx is done, or
// the source fails. It returns after the last pending combo is stored; a
// terminator release or ctx cancellation returns nil.
func Run(ctx context.Context, opts Options) error {
	if opts.Source == nil {
		return fmt.Errorf("recorder source is nil")
	}
	if opts.Sink == nil {
		return fmt.Errorf("recorder sink is nil")
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}

	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	// Writes outlive a stop request so the final combo is kept.
	storeCtx := context.WithoutCancel(ctx)

	agg := combo.New(combo.Options{
		Sink:       opts.Sink,
		Terminator: opts.Terminator,
		Logger:     log,
	})

	var terminated atomic.Bool
	log.Info(startupMessage(opts.Terminator))
	err := opts.Source.Stream(streamCtx, func(ev model.KeyEvent) error {
		if terminated.Load() {
			return errTerminated
		}
		if agg.Handle(storeCtx, ev) {
			terminated.Store(true)
			cancel()
			return errTerminated
		}
		return nil
	})
	agg.Wait()
	if n := agg.HeldCount(); n > 0 {
		log.WithField("count", n).Debug("Keys still held at exit were not recorded")
	}

	switch {
	case terminated.Load():
		log.WithField("key", opts.Terminator).Info("Terminator key released, stopping.")
		return nil
	case ctx.Err() != nil && (err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		log.Info("Stop requested, stopping.")
		return nil
	case err != nil:
		return fmt.Errorf("keyboard hook failed: %w", err)
	default:
		log.Info("Keyboard source ended, stopping.")
		return nil
	}
}

// startupMessage names the key that stops the recorder.
func startupMessage(terminator model.KeyToken) string {
	switch terminator {
	case "":
		return "Keyboard recorder is running."
	case DefaultTerminator:
		return "Keyboard recorder is running. Press Esc to exit."
	default:
		return fmt.Sprintf("Keyboard recorder is running. Press %s to exit.", terminator)
	}
}
