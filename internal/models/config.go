package models

// Build modes
const (
	// ModeNative runs the setuptools commands directly
	ModeNative = "native"
	// ModeScript runs the recipe's own build and package functions
	ModeScript = "script"
)

// BuildConfig contains configuration for a recipe build
type BuildConfig struct {
	// Input/Output
	RecipePath string
	DestDir    string

	// Lifecycle
	Mode      string
	Python    string
	NoBuild   bool
	NoPackage bool

	// SourceDateEpoch is exported as SOURCE_DATE_EPOCH when non-zero
	SourceDateEpoch int64

	// Manifest of the destination tree
	ManifestPath        string
	ManifestCompression string

	// Signing
	GPGKeyPath    string
	GPGPassphrase string
}
