package hook

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/verte-zerg/kero/internal/model"
)

var (
	// ErrUnsupported indicates no native keyboard hook exists for this platform.
	ErrUnsupported = errors.New("keyboard capture is not supported on this platform")
	// ErrAccessibilityPermission indicates the host must grant Accessibility trust.
	ErrAccessibilityPermission = errors.New("macOS accessibility permission required for keyboard capture")
	// ErrNoDevices indicates no keyboard input device was found.
	ErrNoDevices = errors.New("no keyboard input devices found")
)

// Source delivers key events until ctx is done or emit fails.
type Source interface {
	Stream(ctx context.Context, emit func(model.KeyEvent) error) error
}

// SourceFunc adapts a function literal to the Source interface.
type SourceFunc func(ctx context.Context, emit func(model.KeyEvent) error) error

// Stream calls the underlying function.
func (f SourceFunc) Stream(ctx context.Context, emit func(model.KeyEvent) error) error {
	return f(ctx, emit)
}

// Options configures the native source.
type Options struct {
	// Devices lists input device paths; empty means auto-detect.
	Devices []string
	Clock   func() time.Time
	Logger  logrus.FieldLogger
}

func (o Options) withDefaults() Options {
	if o.Clock == nil {
		o.Clock = time.Now
	}
	if o.Logger == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		o.Logger = l
	}
	return o
}

// Native returns the platform keyboard hook.
func Native(opts Options) Source {
	return nativeSource(opts.withDefaults())
}
