// SPDX-License-Identifier: Apache-2.0

package kmod

import (
	"bufio"
	"context"
	"os"
	"os/exec"
	"strings"

	"pault.ag/go/modprobe"
)

const procModulesPath = "/proc/modules"

// defaultOperations implements moduleOperations against the running kernel.
// Load and unload go through the module syscalls rather than shelling out,
// so an EBUSY from an in-use module surfaces as a plain errno.
type defaultOperations struct{}

func (o *defaultOperations) depmod(ctx context.Context) error {
	return exec.CommandContext(ctx, "depmod", "-a").Run()
}

func (o *defaultOperations) load(name string) error {
	return modprobe.Load(name, "")
}

func (o *defaultOperations) unload(name string) error {
	return modprobe.Remove(name)
}

func (o *defaultOperations) isLoaded(name string) (bool, error) {
	f, err := os.Open(procModulesPath)
	if err != nil {
		return false, err
	}
	defer f.Close()

	// module names use underscores in /proc/modules
	want := strings.ReplaceAll(name, "-", "_")

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) > 0 && fields[0] == want {
			return true, nil
		}
	}

	return false, scanner.Err()
}
