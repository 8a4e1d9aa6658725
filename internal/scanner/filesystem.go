package scanner

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ralt/pkgbuilder/internal/utils"
	"github.com/sirupsen/logrus"
)

// Recipe file names
const (
	PKGBUILDName = "PKGBUILD"
	SRCINFOName  = ".SRCINFO"
)

// FileSystemScanner implements Scanner interface for filesystem scanning
type FileSystemScanner struct{}

// NewFileSystemScanner creates a new filesystem scanner
func NewFileSystemScanner() *FileSystemScanner {
	return &FileSystemScanner{}
}

// Scan recursively scans a directory for recipes. A directory holding both
// a PKGBUILD and a .SRCINFO reports only the PKGBUILD.
func (s *FileSystemScanner) Scan(ctx context.Context, dir string) ([]ScannedRecipe, error) {
	var recipes []ScannedRecipe

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Check context cancellation
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}

		rt := s.DetectType(path)
		if rt == TypeUnknown {
			return nil
		}
		if rt == TypeSRCINFO && utils.FileExists(filepath.Join(filepath.Dir(path), PKGBUILDName)) {
			return nil
		}

		logrus.Debugf("Found %s: %s", rt, path)
		recipes = append(recipes, ScannedRecipe{Path: path, Type: rt})
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory: %w", err)
	}

	logrus.Infof("Found %d recipes in %s", len(recipes), dir)
	return recipes, nil
}

// DetectType determines the recipe type of a file from its name
func (s *FileSystemScanner) DetectType(path string) RecipeType {
	switch filepath.Base(path) {
	case PKGBUILDName:
		return TypePKGBUILD
	case SRCINFOName:
		return TypeSRCINFO
	default:
		return TypeUnknown
	}
}

// Locate resolves a file or directory argument to a PKGBUILD path
func Locate(path string) (string, error) {
	if path == "" {
		path = "."
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}

	if !info.IsDir() {
		return path, nil
	}

	candidate := filepath.Join(path, PKGBUILDName)
	if !utils.FileExists(candidate) {
		return "", fmt.Errorf("no %s found in %s", PKGBUILDName, path)
	}
	return candidate, nil
}
