// SPDX-License-Identifier: Apache-2.0

package kmod

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// Builder compiles an out-of-tree kernel module from a prepared source tree.
type Builder interface {
	// Build compiles the module sources against the headers of the given
	// kernel release and returns the path of the produced artifact.
	Build(ctx context.Context, sourceDir string, kernelRelease string) (string, error)
}

// buildRunner executes the build command in dir and returns its combined output.
type buildRunner = func(ctx context.Context, dir string, name string, args ...string) (string, error)

// MakeBuilder builds the module by invoking the kernel build system:
//
//	make -C /lib/modules/<release>/build M=<sourceDir> modules
//
// The build is treated as opaque; any non-zero exit is a build failure.
type MakeBuilder struct {
	logger   *zerolog.Logger
	artifact string
	run      buildRunner
}

type BuilderOption = func(b *MakeBuilder)

// WithBuilderLogger allows injecting a logger instance for the builder.
func WithBuilderLogger(logger *zerolog.Logger) BuilderOption {
	return func(b *MakeBuilder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithBuilderRunner substitutes the command runner, mainly for tests.
func WithBuilderRunner(run buildRunner) BuilderOption {
	return func(b *MakeBuilder) {
		if run != nil {
			b.run = run
		}
	}
}

func NewMakeBuilder(artifact string, opts ...BuilderOption) *MakeBuilder {
	b := &MakeBuilder{
		logger:   &nolog,
		artifact: artifact,
		run:      runCombined,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

func (b *MakeBuilder) Build(ctx context.Context, sourceDir string, kernelRelease string) (string, error) {
	buildDir := filepath.Join("/lib/modules", kernelRelease, "build")

	b.logger.Info().
		Str("source_dir", sourceDir).
		Str("kernel_release", kernelRelease).
		Msg("Building kernel module")

	out, err := b.run(ctx, sourceDir, "make", "-C", buildDir, "M="+sourceDir, "modules")
	if err != nil {
		return "", BuildError.Wrap(err, "module build failed: %s", tail(out, 20))
	}

	artifactPath := filepath.Join(sourceDir, b.artifact)
	if _, err := os.Stat(artifactPath); err != nil {
		return "", BuildError.Wrap(err, "build succeeded but artifact %s was not produced", artifactPath)
	}

	b.logger.Info().Str("artifact", artifactPath).Msg("Kernel module built")
	return artifactPath, nil
}

func runCombined(ctx context.Context, dir string, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// tail returns the last n lines of s, enough build output to diagnose a
// failure without dumping the whole compiler log into the error chain.
func tail(s string, n int) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
