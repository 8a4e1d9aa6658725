package scanner

import "context"

// RecipeType represents the kind of recipe file found
type RecipeType int

const (
	TypeUnknown RecipeType = iota
	TypePKGBUILD
	TypeSRCINFO
)

// String returns the string representation of RecipeType
func (rt RecipeType) String() string {
	switch rt {
	case TypePKGBUILD:
		return "PKGBUILD"
	case TypeSRCINFO:
		return ".SRCINFO"
	default:
		return "unknown"
	}
}

// ScannedRecipe represents a recipe file found during scanning
type ScannedRecipe struct {
	Path string
	Type RecipeType
}

// Scanner interface for finding recipes
type Scanner interface {
	// Scan recursively scans a directory for recipes
	Scan(ctx context.Context, dir string) ([]ScannedRecipe, error)

	// DetectType determines the recipe type of a file
	DetectType(path string) RecipeType
}
