// SPDX-License-Identifier: Apache-2.0

package kmod

import "context"

// Outcome describes the result of a reload attempt.
type Outcome string

const (
	// OutcomeReloaded means the module was unloaded (if needed) and the
	// patched build is now live.
	OutcomeReloaded Outcome = "reloaded"
	// OutcomeSkippedBusy means the module was in use and could not be
	// unloaded; the patched build becomes live on next boot.
	OutcomeSkippedBusy Outcome = "skipped-busy"
)

// ModuleReloader swaps the running module for the current on-disk build.
// *Reloader is the production implementation.
type ModuleReloader interface {
	Reload(ctx context.Context, name string) (Outcome, error)
}

// moduleOperations defines the low-level operations for kernel module management
// This interface can be easily mocked for testing
type moduleOperations interface {
	depmod(ctx context.Context) error
	load(name string) error
	unload(name string) error
	isLoaded(name string) (bool, error)
}
