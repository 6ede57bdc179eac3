// Package security guards the files the CLI writes and the names the viewer
// hands to browsers.
package security

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideAllowed is returned for output paths that resolve outside every
// allowed directory.
var ErrOutsideAllowed = errors.New("path outside allowed directories")

// canonical resolves symlinks in path. For a path that does not exist yet,
// the nearest existing ancestor is resolved and the rest re-attached, so a
// symlinked parent cannot redirect a new file.
func canonical(path string) (string, error) {
	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	for dir := filepath.Dir(abs); ; dir = filepath.Dir(dir) {
		if resolved, err := filepath.EvalSymlinks(dir); err == nil {
			rest, err := filepath.Rel(dir, abs)
			if err != nil {
				return "", err
			}
			return filepath.Join(resolved, rest), nil
		}
		if filepath.Dir(dir) == dir {
			return abs, nil
		}
	}
}

// ValidateWithin reports an error unless path resolves inside dir.
func ValidateWithin(path, dir string) error {
	p, err := canonical(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	d, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	d, err = filepath.Abs(d)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", dir, err)
	}
	rel, err := filepath.Rel(d, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("%s escapes %s: %w", path, dir, ErrOutsideAllowed)
	}
	return nil
}

// ValidateOutputPath accepts figure and catalogue paths under the working
// directory or the system temp directory.
func ValidateOutputPath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("working directory: %w", err)
	}
	for _, dir := range []string{cwd, os.TempDir()} {
		if ValidateWithin(path, dir) == nil {
			return nil
		}
	}
	return fmt.Errorf("%s: must be under %s or %s: %w", path, cwd, os.TempDir(), ErrOutsideAllowed)
}

// maxFilenameLen caps SanitizeFilename output.
const maxFilenameLen = 96

// SanitizeFilename turns a structure name into a file name stem: runs of
// anything other than ASCII letters, digits, '.', '_' and '-' become one
// underscore, and leading or trailing dots and underscores are dropped.
func SanitizeFilename(name string) string {
	var b strings.Builder
	under := false
	for _, r := range name {
		if b.Len() >= maxFilenameLen {
			break
		}
		ok := r == '.' || r == '_' || r == '-' ||
			(r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
		switch {
		case ok:
			b.WriteRune(r)
			under = r == '_'
		case !under:
			b.WriteByte('_')
			under = true
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "structure"
	}
	return out
}
