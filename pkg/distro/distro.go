// SPDX-License-Identifier: Apache-2.0

// Package distro classifies the running Linux distribution into one of the
// families the driver lifecycle cares about. Detection is read-only and
// always produces a value; hosts that cannot be classified map to
// FamilyUnknown rather than an error.
package distro

import (
	"bufio"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Family identifies a group of distributions sharing the same kernel
// packaging hook mechanism.
type Family string

const (
	FamilyDebian  Family = "debian"
	FamilyArch    Family = "arch"
	FamilyFedora  Family = "fedora"
	FamilyUnknown Family = "unknown"
)

const (
	OSReleaseFileName  = "os-release"
	LSBReleaseFileName = "lsb-release"

	EtcOSReleasePath  = "/etc/os-release"
	EtcLSBReleasePath = "/etc/lsb-release"
)

// familyMapping maps release IDs (and ID_LIKE tokens) onto families.
var familyMapping = map[string]Family{
	"debian":      FamilyDebian,
	"ubuntu":      FamilyDebian,
	"linuxmint":   FamilyDebian,
	"pop":         FamilyDebian,
	"arch":        FamilyArch,
	"manjaro":     FamilyArch,
	"endeavouros": FamilyArch,
	"fedora":      FamilyFedora,
	"rhel":        FamilyFedora,
	"centos":      FamilyFedora,
	"nobara":      FamilyFedora,
}

var nolog = zerolog.Nop()

// Detector probes host release files to determine the distribution family.
type Detector struct {
	// list of files to check in order
	// files are mapped in releaseFilePaths
	fileCheckSequence []string

	// mapping of release file name to path
	releaseFilePaths map[string]string

	logger *zerolog.Logger
}

type Option = func(d *Detector)

// WithReleasePaths allows injecting custom release file path locations.
func WithReleasePaths(paths map[string]string) Option {
	return func(d *Detector) {
		if paths != nil {
			d.releaseFilePaths = paths
		}
	}
}

// WithCheckSequence allows injecting the sequence for release path checks.
func WithCheckSequence(seq []string) Option {
	return func(d *Detector) {
		d.fileCheckSequence = seq
	}
}

// WithLogger allows injecting a logger instance for the detector.
func WithLogger(logger *zerolog.Logger) Option {
	return func(d *Detector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

func NewDetector(opts ...Option) *Detector {
	d := &Detector{
		fileCheckSequence: []string{
			OSReleaseFileName,
			LSBReleaseFileName,
		},
		releaseFilePaths: map[string]string{
			OSReleaseFileName:  EtcOSReleasePath,
			LSBReleaseFileName: EtcLSBReleasePath,
		},
		logger: &nolog,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Detect returns the distribution family of the host. It never fails; any
// host that cannot be classified is reported as FamilyUnknown.
func (d *Detector) Detect() Family {
	for _, releaseFileName := range d.fileCheckSequence {
		path, found := d.releaseFilePaths[releaseFileName]
		if !found {
			continue
		}

		family, err := d.scanReleaseFile(releaseFileName, path)
		if err != nil {
			d.logger.Debug().Str("path", path).Err(err).Msg("Release file probe failed")
			continue
		}
		if family != FamilyUnknown {
			d.logger.Info().Str("path", path).Str("family", string(family)).Msg("Detected distribution family")
			return family
		}
	}

	d.logger.Warn().Msg("Could not classify distribution, reporting unknown family")
	return FamilyUnknown
}

func (d *Detector) scanReleaseFile(releaseFileName string, path string) (Family, error) {
	switch releaseFileName {
	case LSBReleaseFileName:
		return d.extractFamily(path, "DISTRIB_ID=", "")
	default:
		return d.extractFamily(path, "ID=", "ID_LIKE=")
	}
}

// extractFamily scans the release file for the ID line and, failing that,
// the ID_LIKE line. ID_LIKE may carry multiple space separated tokens; the
// first one with a known mapping wins.
func (d *Detector) extractFamily(path string, idPrefix string, idLikePrefix string) (Family, error) {
	f, err := os.Open(path)
	if err != nil {
		return FamilyUnknown, err
	}
	defer f.Close()

	var idLike string

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, idPrefix) {
			if family, found := familyMapping[extractVal(line)]; found {
				return family, nil
			}
		} else if idLikePrefix != "" && strings.HasPrefix(line, idLikePrefix) {
			idLike = extractVal(line)
		}
	}

	for _, token := range strings.Fields(idLike) {
		if family, found := familyMapping[token]; found {
			return family, nil
		}
	}

	return FamilyUnknown, scanner.Err()
}

// extractVal extracts the value part from the line.
// It assumes the value is separated by '=' and returns the second part after trimming quotes.
func extractVal(line string) string {
	parts := strings.SplitN(line, "=", 2)
	if len(parts) == 2 {
		return strings.ToLower(strings.Trim(strings.TrimSpace(parts[1]), "\""))
	}

	return ""
}
