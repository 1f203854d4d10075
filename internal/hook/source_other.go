//go:build !linux && !darwin

package hook

import (
	"context"

	"github.com/verte-zerg/kero/internal/model"
)

func nativeSource(Options) Source {
	return SourceFunc(func(context.Context, func(model.KeyEvent) error) error {
		return ErrUnsupported
	})
}
