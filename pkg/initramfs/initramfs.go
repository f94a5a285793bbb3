// SPDX-License-Identifier: Apache-2.0

// Package initramfs regenerates the boot-time module image after the live
// module tree changed, so the patched driver also survives into early boot.
package initramfs

import (
	"context"
	"os/exec"
	"strings"

	"github.com/joomcode/errorx"
	"github.com/rs/zerolog"
)

// candidate is one known initramfs generator invocation.
type candidate struct {
	tool string
	args []string
}

// candidates in probe order; the first tool present on the host is used.
var candidates = []candidate{
	{tool: "update-initramfs", args: []string{"-u"}},
	{tool: "dracut", args: []string{"-f"}},
	{tool: "mkinitcpio", args: []string{"-P"}},
}

var nolog = zerolog.Nop()

// Refresher invokes the host's initramfs generator, if any.
type Refresher struct {
	logger   *zerolog.Logger
	run      func(ctx context.Context, tool string, args ...string) (string, error)
	lookPath func(file string) (string, error)
}

type Option = func(r *Refresher)

// WithLogger allows injecting a logger instance for the refresher.
func WithLogger(logger *zerolog.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithRunner substitutes the command runner, mainly for tests.
func WithRunner(run func(ctx context.Context, tool string, args ...string) (string, error)) Option {
	return func(r *Refresher) {
		if run != nil {
			r.run = run
		}
	}
}

// WithLookPath substitutes binary lookup, mainly for tests.
func WithLookPath(lookPath func(file string) (string, error)) Option {
	return func(r *Refresher) {
		if lookPath != nil {
			r.lookPath = lookPath
		}
	}
}

func NewRefresher(opts ...Option) *Refresher {
	r := &Refresher{
		logger:   &nolog,
		run:      runTool,
		lookPath: exec.LookPath,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Refresh runs the first initramfs generator found on the host. A host with
// no generator is a silent no-op (tool == "", nil error). A generator that
// fails returns its name and an error; callers treat that as a warning
// since only future boots are affected, never the change just applied.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	for _, c := range candidates {
		if _, err := r.lookPath(c.tool); err != nil {
			continue
		}

		r.logger.Info().Str("tool", c.tool).Msg("Refreshing initramfs")
		out, err := r.run(ctx, c.tool, c.args...)
		if err != nil {
			return c.tool, errorx.ExternalError.Wrap(err,
				"%s failed: %s", c.tool, strings.TrimSpace(out))
		}

		r.logger.Info().Str("tool", c.tool).Msg("Initramfs refreshed")
		return c.tool, nil
	}

	r.logger.Debug().Msg("No initramfs generator found, skipping refresh")
	return "", nil
}

func runTool(ctx context.Context, tool string, args ...string) (string, error) {
	out, err := exec.CommandContext(ctx, tool, args...).CombinedOutput()
	return string(out), err
}
