package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ralt/pkgbuilder/internal/builder"
	"github.com/ralt/pkgbuilder/internal/manifest"
	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/ralt/pkgbuilder/internal/recipe"
	"github.com/ralt/pkgbuilder/internal/scanner"
	"github.com/ralt/pkgbuilder/internal/signer"
	"github.com/ralt/pkgbuilder/internal/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	// BuildOutputDir is where setup.py build leaves its output in the source root
	BuildOutputDir = "build"

	// PublicKeySuffix names the exported signing key next to a signed manifest
	PublicKeySuffix = ".pub.asc"
)

// NewBuildCmd creates the build command
func NewBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [recipe]",
		Short: "Run the recipe's build and package steps",
		Long: `Parses and validates the recipe, runs its build step in the project
root, then installs the license and the built package into the
destination root. The package step never runs after a failed build.

The exit status is that of the first external command that failed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			config := buildConfigFrom(v, args)

			// Validate configuration
			if err := validateConfig(&config); err != nil {
				return err
			}

			logrus.Debugf("Configuration: %+v", config)

			return runBuild(cmd.Context(), &config, &builder.ExecRunner{Stdout: cmd.ErrOrStderr()})
		},
	}

	// Input/Output flags
	cmd.Flags().StringP("dest", "d", "./pkgdir", "Destination root to stage the package into")

	// Lifecycle flags
	cmd.Flags().String("mode", models.ModeNative, "How to run the hooks: native (setuptools) or script (recipe functions)")
	cmd.Flags().String("python", builder.DefaultPython, "Python interpreter used by native mode")
	cmd.Flags().Bool("no-build", false, "Skip the build step (requires the build/ output of an earlier run)")
	cmd.Flags().Bool("no-package", false, "Skip the package step")
	cmd.Flags().Int64("source-date-epoch", 0, "Export SOURCE_DATE_EPOCH to the hooks for reproducible output")

	// Manifest flags
	cmd.Flags().String("manifest", "", "Write a manifest of the destination root to this path")
	cmd.Flags().String("manifest-compression", utils.CompressionGzip, "Manifest compression: none, gzip, zstd, xz")

	// GPG signing flags
	cmd.Flags().StringP("gpg-key", "k", "", "Path to GPG private key used to sign the manifest")
	cmd.Flags().StringP("gpg-passphrase", "p", "", "GPG key passphrase")

	return cmd
}

func validateConfig(config *models.BuildConfig) error {
	if config.DestDir == "" && !config.NoPackage {
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("dest is required"),
		}
	}

	switch config.Mode {
	case "":
		config.Mode = models.ModeNative
	case models.ModeNative, models.ModeScript:
	default:
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("mode must be %q or %q, got %q", models.ModeNative, models.ModeScript, config.Mode),
		}
	}

	switch config.ManifestCompression {
	case "":
		config.ManifestCompression = utils.CompressionGzip
	case utils.CompressionNone, utils.CompressionGzip, utils.CompressionZstd, utils.CompressionXz:
	default:
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unsupported manifest compression %q", config.ManifestCompression),
		}
	}

	if config.GPGKeyPath != "" && config.ManifestPath == "" {
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("gpg-key requires manifest"),
		}
	}

	if config.SourceDateEpoch < 0 {
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("source-date-epoch must not be negative"),
		}
	}

	return nil
}

func runBuild(ctx context.Context, config *models.BuildConfig, runner builder.Runner) error {
	// Step 1: Load the recipe
	path, err := scanner.Locate(config.RecipePath)
	if err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to locate recipe: %w", err),
		}
	}

	logrus.Infof("Reading recipe: %s", path)
	rcp, err := recipe.ParseFile(ctx, path)
	if err != nil {
		return err
	}

	if err := recipe.Validate(rcp); err != nil {
		return err
	}

	logrus.Infof("Making package: %s %s", rcp.Name, rcp.FullVersion())

	var manifestSigner signer.Signer
	if config.GPGKeyPath != "" {
		gpgSigner, err := signer.NewGPGSigner(config.GPGKeyPath, config.GPGPassphrase)
		if err != nil {
			return &models.PkgBuildError{
				Type: models.ErrSigning,
				Err:  fmt.Errorf("failed to initialize GPG signer: %w", err),
			}
		}
		manifestSigner = gpgSigner
	}

	// Step 2: Run the hooks
	b := builder.New(config, runner)

	if config.NoBuild {
		// setup.py install --skip-build needs the output of an earlier build
		if !config.NoPackage && !utils.DirExists(filepath.Join(rcp.SourceRoot(), BuildOutputDir)) {
			return &models.PkgBuildError{
				Type:    models.ErrInvalidConfig,
				Package: rcp.Name,
				Err:     fmt.Errorf("no-build requires an earlier build: %s not found in %s", BuildOutputDir, rcp.SourceRoot()),
			}
		}
		logrus.Warn("Skipping build()")
	} else if err := b.Build(ctx, rcp); err != nil {
		return err
	}

	if config.NoPackage {
		logrus.Warn("Skipping package()")
		return nil
	}

	if err := b.Package(ctx, rcp, config.DestDir); err != nil {
		return err
	}

	// Step 3: Record the destination tree
	if config.ManifestPath != "" {
		if err := writeManifest(ctx, config, manifestSigner); err != nil {
			return err
		}
	}

	logrus.Infof("Finished making: %s %s", rcp.Name, rcp.FullVersion())
	logrus.Infof("Destination root: %s", config.DestDir)

	return nil
}

func writeManifest(ctx context.Context, config *models.BuildConfig, s signer.Signer) error {
	m, err := manifest.Generate(ctx, config.DestDir)
	if err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to generate manifest: %w", err),
		}
	}

	data, err := manifest.Encode(m, config.ManifestCompression)
	if err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to encode manifest: %w", err),
		}
	}

	if err := utils.WriteFile(config.ManifestPath, data, 0644); err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to write manifest: %w", err),
		}
	}
	logrus.Infof("Wrote manifest (%d entries): %s", len(m.Entries), config.ManifestPath)

	if s == nil {
		return nil
	}

	signature, err := s.SignDetached(data)
	if err != nil {
		return &models.PkgBuildError{
			Type: models.ErrSigning,
			Err:  fmt.Errorf("failed to sign manifest: %w", err),
		}
	}

	sigPath := config.ManifestPath + ".sig"
	if err := utils.WriteFile(sigPath, signature, 0644); err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to write manifest signature: %w", err),
		}
	}
	logrus.Infof("Signed manifest: %s", sigPath)

	// Export the public half so 'verify --public-key' can check the signature
	pub, err := s.GetPublicKey()
	if err != nil {
		return &models.PkgBuildError{
			Type: models.ErrSigning,
			Err:  fmt.Errorf("failed to export public key: %w", err),
		}
	}

	pubPath := config.ManifestPath + PublicKeySuffix
	if err := utils.WriteFile(pubPath, pub, 0644); err != nil {
		return &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to write public key: %w", err),
		}
	}
	logrus.Debugf("Wrote public key: %s", pubPath)

	return nil
}
