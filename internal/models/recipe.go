package models

import (
	"fmt"
	"path/filepath"
	"strings"
)

// LicenseDir is the directory, relative to a destination root, holding
// per-package license files.
const LicenseDir = "usr/share/licenses"

// Recipe represents a parsed package recipe. It is immutable input data:
// nothing in the build lifecycle modifies it.
type Recipe struct {
	// Core metadata
	Name          string
	Version       string
	Release       int
	License       []string
	Architectures []Architecture
	Depends       []Dependency
	MakeDepends   []Dependency
	Description   string
	URL           string

	// Path is the recipe file the metadata was read from
	Path string

	// Functions lists the shell functions declared by the recipe
	Functions []string
}

// FullVersion returns version-release as pacman prints it
func (r *Recipe) FullVersion() string {
	return fmt.Sprintf("%s-%d", r.Version, r.Release)
}

// HasFunction reports whether the recipe declares the named function
func (r *Recipe) HasFunction(name string) bool {
	for _, fn := range r.Functions {
		if fn == name {
			return true
		}
	}
	return false
}

// LicenseInstallPath returns where the license file lives under a
// destination root.
func (r *Recipe) LicenseInstallPath() string {
	return filepath.Join(LicenseDir, r.Name, "LICENSE")
}

// SourceRoot returns the directory hooks run in: the parent of the
// directory containing the recipe.
func (r *Recipe) SourceRoot() string {
	dir, err := filepath.Abs(filepath.Dir(r.Path))
	if err != nil {
		dir = filepath.Clean(filepath.Dir(r.Path))
	}
	return filepath.Dir(dir)
}

// StartDir returns the directory containing the recipe
func (r *Recipe) StartDir() string {
	dir, err := filepath.Abs(filepath.Dir(r.Path))
	if err != nil {
		return filepath.Clean(filepath.Dir(r.Path))
	}
	return dir
}

// Dependency is a package name with an optional version constraint
type Dependency struct {
	Name     string
	Operator string
	Version  string
}

// Constraint returns the operator and version, e.g. ">=3.12"
func (d Dependency) Constraint() string {
	return d.Operator + d.Version
}

// String returns the dependency specifier as written in a recipe
func (d Dependency) String() string {
	return d.Name + d.Constraint()
}

// Architecture is a build target for a package
type Architecture string

const (
	ArchAny      Architecture = "any"
	ArchX8664    Architecture = "x86_64"
	ArchI686     Architecture = "i686"
	ArchAarch64  Architecture = "aarch64"
	ArchArmv7h   Architecture = "armv7h"
	ArchRiscv64  Architecture = "riscv64"
	ArchPentium4 Architecture = "pentium4"
)

// KnownArchitectures lists every architecture a recipe may declare
var KnownArchitectures = []Architecture{
	ArchAny,
	ArchX8664,
	ArchI686,
	ArchAarch64,
	ArchArmv7h,
	ArchRiscv64,
	ArchPentium4,
}

// ParseArchitecture converts a string into a known Architecture
func ParseArchitecture(s string) (Architecture, error) {
	for _, a := range KnownArchitectures {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("unknown architecture %q", s)
}

// JoinDependencies renders dependencies as a space separated list
func JoinDependencies(deps []Dependency) string {
	parts := make([]string, 0, len(deps))
	for _, d := range deps {
		parts = append(parts, d.String())
	}
	return strings.Join(parts, " ")
}
