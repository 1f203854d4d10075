//go:build linux

package hook

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/kero/internal/model"
)

const (
	evKey = 0x01

	keyReleased = 0
	keyPressed  = 1
	keyRepeated = 2
)

var deviceGlobs = []string{
	"/dev/input/by-path/*-event-kbd",
	"/dev/input/by-id/*-event-kbd",
}

// inputEvent mirrors struct input_event from linux/input.h.
type inputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type evdevSource struct {
	devices []string
	opts    Options
}

func nativeSource(opts Options) Source {
	return &evdevSource{devices: opts.Devices, opts: opts}
}

// Stream reads every keyboard device on its own goroutine. Events from all
// devices are delivered to emit one at a time.
func (s *evdevSource) Stream(ctx context.Context, emit func(model.KeyEvent) error) error {
	paths, err := s.resolveDevices()
	if err != nil {
		return err
	}

	files := make([]*os.File, 0, len(paths))
	closeAll := func() {
		for _, f := range files {
			if cerr := f.Close(); cerr != nil {
				// Best-effort close; readers see os.ErrClosed.
				_ = cerr
			}
		}
	}
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			closeAll()
			if os.IsPermission(err) {
				return fmt.Errorf("failed to open %s (is the user in the input group?): %w", path, err)
			}
			return fmt.Errorf("failed to open %s: %w", path, err)
		}
		files = append(files, f)
	}
	s.opts.Logger.WithField("devices", paths).Info("Reading keyboard devices")

	var emitMu sync.Mutex
	serialEmit := func(ev model.KeyEvent) error {
		emitMu.Lock()
		defer emitMu.Unlock()
		return emit(ev)
	}

	g, gctx := errgroup.WithContext(ctx)
	var closeOnce sync.Once
	g.Go(func() error {
		<-gctx.Done()
		closeOnce.Do(closeAll)
		return nil
	})
	for i := range files {
		f := files[i]
		g.Go(func() error {
			err := readDevice(gctx, f, serialEmit)
			if err != nil && gctx.Err() != nil && errors.Is(err, os.ErrClosed) {
				return nil
			}
			if err == nil {
				return fmt.Errorf("keyboard device %s closed", f.Name())
			}
			return err
		})
	}
	err = g.Wait()
	closeOnce.Do(closeAll)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func (s *evdevSource) resolveDevices() ([]string, error) {
	if len(s.devices) > 0 {
		return s.devices, nil
	}
	seen := map[string]struct{}{}
	var out []string
	for _, pattern := range deviceGlobs {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			target, err := filepath.EvalSymlinks(m)
			if err != nil {
				target = m
			}
			if _, ok := seen[target]; ok {
				continue
			}
			seen[target] = struct{}{}
			out = append(out, target)
		}
	}
	if len(out) == 0 {
		return nil, ErrNoDevices
	}
	return out, nil
}

// readDevice decodes input events from r until EOF or a read error. Key
// repeats and non-key events are skipped.
func readDevice(ctx context.Context, r io.Reader, emit func(model.KeyEvent) error) error {
	var ev inputEvent
	for {
		if err := binary.Read(r, binary.NativeEndian, &ev); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if ev.Type != evKey {
			continue
		}
		var transition model.Transition
		switch ev.Value {
		case keyPressed:
			transition = model.Down
		case keyReleased:
			transition = model.Up
		case keyRepeated:
			continue
		default:
			continue
		}
		sec, nsec := ev.Time.Unix()
		if err := emit(model.KeyEvent{
			Token:      keyName(ev.Code),
			Transition: transition,
			Time:       time.Unix(sec, nsec),
		}); err != nil {
			return err
		}
	}
}
