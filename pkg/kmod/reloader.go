// SPDX-License-Identifier: Apache-2.0

package kmod

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sys/unix"
)

var nolog = zerolog.Nop()

// Reloader swaps the in-memory copy of a kernel module for the on-disk one.
type Reloader struct {
	logger *zerolog.Logger
	ops    moduleOperations
}

type ReloaderOption = func(r *Reloader)

// WithReloaderLogger allows injecting a logger instance for the reloader.
func WithReloaderLogger(logger *zerolog.Logger) ReloaderOption {
	return func(r *Reloader) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// withOperations substitutes the low-level module operations, used by tests.
func withOperations(ops moduleOperations) ReloaderOption {
	return func(r *Reloader) {
		if ops != nil {
			r.ops = ops
		}
	}
}

func NewReloader(opts ...ReloaderOption) *Reloader {
	r := &Reloader{
		logger: &nolog,
		ops:    &defaultOperations{},
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Reload rebuilds the module dependency index and then replaces the loaded
// module with the current on-disk artifact.
//
// depmod always runs, even when the swap is skipped, so that the next boot
// resolves the freshly installed artifact. A module that cannot be unloaded
// because it is in use yields OutcomeSkippedBusy and no error. A module that
// was unloaded but cannot be loaded again is a hard failure: the host is
// left without the driver until the cause is fixed.
func (r *Reloader) Reload(ctx context.Context, name string) (Outcome, error) {
	if err := r.ops.depmod(ctx); err != nil {
		return "", DepmodError.Wrap(err, "failed to rebuild module dependency index")
	}
	r.logger.Debug().Msg("Module dependency index rebuilt")

	wasLoaded, err := r.ops.isLoaded(name)
	if err != nil {
		return "", UnloadError.Wrap(err, "failed to check if module %s is loaded", name)
	}

	if wasLoaded {
		if err := r.ops.unload(name); err != nil {
			if errors.Is(err, unix.EBUSY) {
				r.logger.Warn().Str("module", name).
					Msg("Module is in use and cannot be unloaded, new build takes effect on next boot")
				return OutcomeSkippedBusy, nil
			}
			return "", UnloadError.Wrap(err, "failed to unload module %s", name)
		}
		r.logger.Info().Str("module", name).Msg("Module unloaded")
	}

	if err := r.ops.load(name); err != nil {
		if wasLoaded {
			return "", LoadAfterUnloadError.Wrap(err,
				"module %s was unloaded but the replacement failed to load", name)
		}
		return "", LoadError.Wrap(err, "failed to load module %s", name)
	}

	r.logger.Info().Str("module", name).Msg("Module loaded")
	return OutcomeReloaded, nil
}
