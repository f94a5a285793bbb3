// SPDX-License-Identifier: Apache-2.0

package sanity

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/joomcode/errorx"
)

// Security validation patterns for paths
var (
	// shellMetachars contains dangerous shell metacharacters that should be rejected
	shellMetachars = regexp.MustCompile("[;&|$\x60<>(){}[\\]*?~]")

	// validPathChars ensures paths only contain safe characters
	// Allows: alphanumeric, forward slash, dash, underscore, dot
	validPathChars = regexp.MustCompile(`^[a-zA-Z0-9/_.\-]+$`)

	// validIdentifier matches safe lowercase identifiers (module names,
	// package names, unit names)
	validIdentifier = regexp.MustCompile(`^[a-z0-9]([a-z0-9\-_.]*[a-z0-9])?$`)
)

// Contains reports whether val is present in slice.
func Contains[T comparable](val T, slice []T) bool {
	for _, itm := range slice {
		if itm == val {
			return true
		}
	}

	return false
}

// ValidateIdentifier ensures the input is a safe lowercase identifier.
func ValidateIdentifier(s string) error {
	if !validIdentifier.MatchString(s) {
		return errorx.IllegalArgument.New("invalid identifier: %s", s)
	}

	return nil
}

// ValidateVersion ensures the input is a valid semantic version.
// Partial versions like "1.0" are accepted.
func ValidateVersion(s string) error {
	if _, err := semver.NewVersion(s); err != nil {
		return errorx.IllegalArgument.Wrap(err, "invalid version: %s", s)
	}

	return nil
}

// SanitizePath validates and sanitizes the given path according to strict security rules.
//
// Specifically, it:
//  1. Rejects paths containing shell metacharacters (e.g., ; & | $ ` < > ( ) { } [ ] * ? ~).
//  2. Rejects path traversal attempts (e.g., segments like "../", "/..", or paths ending with "..").
//  3. Requires the input path to be absolute.
//  4. Normalizes the path by removing redundant slashes and dot directories (using filepath.Clean).
//  5. May return a cleaned version of the input path that differs from the original.
//
// Returns the sanitized (cleaned) path, or an error if the input is invalid or unsafe.
func SanitizePath(path string) (string, error) {
	if path == "" {
		return "", errorx.IllegalArgument.New("path cannot be empty")
	}

	// Ensure it's an absolute path
	if !filepath.IsAbs(path) {
		return "", errorx.IllegalArgument.New("path must be absolute: %s", path)
	}

	// Check for path traversal patterns BEFORE cleaning
	// This catches patterns like "../", "/..", and paths ending with ".."
	// which could allow escaping the intended directory structure
	for _, segment := range strings.Split(path, "/") {
		if segment == ".." {
			return "", errorx.IllegalArgument.New("path cannot contain '..' segments: %s", path)
		}
	}

	// Check for shell metacharacters in the original path
	if shellMetachars.MatchString(path) {
		return "", errorx.IllegalArgument.New("path contains shell metacharacters: %s", path)
	}

	// Check for valid characters in the original path
	if !validPathChars.MatchString(path) {
		return "", errorx.IllegalArgument.New("path contains invalid characters: %s", path)
	}

	return filepath.Clean(path), nil
}
