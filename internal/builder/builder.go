package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/ralt/pkgbuilder/internal/utils"
	"github.com/sirupsen/logrus"
	"mvdan.cc/sh/v3/syntax"
)

// LicenseFile is the license file read from the source root
const LicenseFile = "LICENSE"

// LicenseMode is the permission set on the installed license
const LicenseMode os.FileMode = 0644

// Builder drives the build and package hooks of a recipe
type Builder struct {
	Runner    Runner
	Toolchain Toolchain

	// Mode selects between the setuptools commands (models.ModeNative) and
	// the recipe's own shell functions (models.ModeScript).
	Mode string

	// Env is the base environment handed to every command
	Env []string

	// SourceDateEpoch is exported as SOURCE_DATE_EPOCH when non-zero
	SourceDateEpoch int64
}

// New creates a Builder from a build configuration
func New(config *models.BuildConfig, runner Runner) *Builder {
	mode := config.Mode
	if mode == "" {
		mode = models.ModeNative
	}

	return &Builder{
		Runner:          runner,
		Toolchain:       Toolchain{Python: config.Python},
		Mode:            mode,
		Env:             os.Environ(),
		SourceDateEpoch: config.SourceDateEpoch,
	}
}

// Run builds then packages the recipe into destRoot. Package is not
// attempted when Build fails.
func (b *Builder) Run(ctx context.Context, rcp *models.Recipe, destRoot string) error {
	if err := b.Build(ctx, rcp); err != nil {
		return err
	}
	return b.Package(ctx, rcp, destRoot)
}

// Build runs the build hook in the recipe's source root
func (b *Builder) Build(ctx context.Context, rcp *models.Recipe) error {
	srcRoot := rcp.SourceRoot()
	logrus.Infof("==> Starting build() for %s %s", rcp.Name, rcp.FullVersion())

	var cmd Command
	switch b.Mode {
	case models.ModeScript:
		script, err := b.functionScript(rcp, "build")
		if err != nil {
			return &models.PkgBuildError{Type: models.ErrBuildFailure, Package: rcp.Name, Err: err}
		}
		cmd = Command{Dir: srcRoot, Env: b.env(rcp, ""), Script: script}
	case models.ModeNative:
		if !utils.FileExists(filepath.Join(srcRoot, SetupScript)) {
			return &models.PkgBuildError{
				Type:    models.ErrBuildFailure,
				Package: rcp.Name,
				Err:     fmt.Errorf("%s not found in %s", SetupScript, srcRoot),
			}
		}
		cmd = Command{Dir: srcRoot, Env: b.env(rcp, ""), Args: b.Toolchain.BuildArgs()}
	default:
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unknown build mode %q", b.Mode),
		}
	}

	if err := b.run(ctx, rcp, cmd, models.ErrBuildFailure); err != nil {
		return err
	}

	logrus.Info("==> Build finished")
	return nil
}

// Package installs the license and then the built package into destRoot.
// A missing license aborts before anything is written.
func (b *Builder) Package(ctx context.Context, rcp *models.Recipe, destRoot string) error {
	absDest, err := filepath.Abs(destRoot)
	if err != nil {
		return &models.PkgBuildError{
			Type:    models.ErrPackageFailure,
			Package: rcp.Name,
			Err:     fmt.Errorf("invalid destination root: %w", err),
		}
	}

	srcRoot := rcp.SourceRoot()
	logrus.Infof("==> Starting package() for %s into %s", rcp.Name, absDest)

	licenseSrc := filepath.Join(srcRoot, LicenseFile)
	if !utils.FileExists(licenseSrc) {
		return &models.PkgBuildError{
			Type:    models.ErrPackageFailure,
			Package: rcp.Name,
			Err:     fmt.Errorf("license file not found: %s", licenseSrc),
		}
	}

	var cmd Command
	switch b.Mode {
	case models.ModeScript:
		script, err := b.functionScript(rcp, "package")
		if err != nil {
			return &models.PkgBuildError{Type: models.ErrPackageFailure, Package: rcp.Name, Err: err}
		}
		cmd = Command{Dir: srcRoot, Env: b.env(rcp, absDest), Script: script}
	case models.ModeNative:
		cmd = Command{Dir: srcRoot, Env: b.env(rcp, absDest), Args: b.Toolchain.InstallArgs(absDest)}
	default:
		return &models.PkgBuildError{
			Type: models.ErrInvalidConfig,
			Err:  fmt.Errorf("unknown build mode %q", b.Mode),
		}
	}

	licenseDst := filepath.Join(absDest, rcp.LicenseInstallPath())
	if err := utils.InstallFile(licenseSrc, licenseDst, LicenseMode); err != nil {
		return &models.PkgBuildError{
			Type:    models.ErrPackageFailure,
			Package: rcp.Name,
			Err:     fmt.Errorf("failed to install license: %w", err),
		}
	}
	logrus.Debugf("Installed %s", licenseDst)

	if err := b.run(ctx, rcp, cmd, models.ErrPackageFailure); err != nil {
		return err
	}

	logrus.Info("==> Package finished")
	return nil
}

func (b *Builder) run(ctx context.Context, rcp *models.Recipe, cmd Command, errType models.ErrorType) error {
	res, err := b.Runner.Run(ctx, cmd)
	if err != nil {
		return &models.PkgBuildError{
			Type:    errType,
			Package: rcp.Name,
			Err:     fmt.Errorf("failed to run %s: %w", cmd, err),
		}
	}

	if res.ExitCode != 0 {
		return &models.PkgBuildError{
			Type:     errType,
			Package:  rcp.Name,
			ExitCode: res.ExitCode,
			Output:   res.Output,
			Err:      fmt.Errorf("%s exited with status %d", cmd, res.ExitCode),
		}
	}

	return nil
}

// functionScript returns a program that loads the recipe and calls fn
func (b *Builder) functionScript(rcp *models.Recipe, fn string) (string, error) {
	if !rcp.HasFunction(fn) {
		return "", fmt.Errorf("recipe does not declare %s()", fn)
	}

	path, err := syntax.Quote(rcp.Path, syntax.LangBash)
	if err != nil {
		return "", fmt.Errorf("cannot quote recipe path: %w", err)
	}

	return fmt.Sprintf("set -e\nsource %s\n%s\n", path, fn), nil
}

// env returns the base environment plus the variables hooks rely on
func (b *Builder) env(rcp *models.Recipe, destRoot string) []string {
	env := append([]string{}, b.Env...)
	env = append(env,
		"srcdir="+rcp.SourceRoot(),
		"startdir="+rcp.StartDir(),
		"pkgname="+rcp.Name,
		"pkgver="+rcp.Version,
		"pkgrel="+strconv.Itoa(rcp.Release),
	)
	if destRoot != "" {
		env = append(env, "pkgdir="+destRoot)
	}
	if b.SourceDateEpoch != 0 {
		env = append(env, "SOURCE_DATE_EPOCH="+strconv.FormatInt(b.SourceDateEpoch, 10))
	}
	return env
}
