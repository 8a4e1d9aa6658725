package builder

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingRunner records commands and answers with canned results
type recordingRunner struct {
	calls   []Command
	results []*Result
}

func (r *recordingRunner) Run(ctx context.Context, cmd Command) (*Result, error) {
	r.calls = append(r.calls, cmd)
	if len(r.results) >= len(r.calls) {
		return r.results[len(r.calls)-1], nil
	}
	return &Result{}, nil
}

// setupProject creates <root>/setup.py, <root>/LICENSE and
// <root>/pkg/PKGBUILD and returns root and the recipe.
func setupProject(t *testing.T, withLicense bool) (string, *models.Recipe) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, SetupScript), []byte("from setuptools import setup\nsetup()\n"), 0644))
	if withLicense {
		require.NoError(t, os.WriteFile(filepath.Join(root, LicenseFile), []byte("GNU GENERAL PUBLIC LICENSE\n"), 0600))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))

	rcp := &models.Recipe{
		Name:          "python-bredos-common",
		Version:       "1.0",
		Release:       1,
		Architectures: []models.Architecture{models.ArchAny},
		Path:          filepath.Join(root, "pkg", "PKGBUILD"),
		Functions:     []string{"build", "package"},
	}
	return root, rcp
}

func TestRunNative(t *testing.T) {
	root, rcp := setupProject(t, true)
	dest := filepath.Join(t.TempDir(), "pkgdir")

	runner := &recordingRunner{}
	b := &Builder{Runner: runner, Mode: models.ModeNative}

	require.NoError(t, b.Run(context.Background(), rcp, dest))

	require.Len(t, runner.calls, 2)
	assert.Equal(t, root, runner.calls[0].Dir)
	assert.Equal(t, []string{"python", "setup.py", "build"}, runner.calls[0].Args)
	assert.Equal(t, root, runner.calls[1].Dir)
	assert.Equal(t, []string{
		"python", "setup.py", "install", "--root=" + dest, "--optimize=1", "--skip-build",
	}, runner.calls[1].Args)
	assert.Contains(t, runner.calls[1].Env, "pkgdir="+dest)

	licensePath := filepath.Join(dest, "usr", "share", "licenses", "python-bredos-common", "LICENSE")
	info, err := os.Stat(licensePath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	data, err := os.ReadFile(licensePath)
	require.NoError(t, err)
	assert.Equal(t, "GNU GENERAL PUBLIC LICENSE\n", string(data))
}

func TestPackageMissingLicense(t *testing.T) {
	_, rcp := setupProject(t, false)
	dest := filepath.Join(t.TempDir(), "pkgdir")

	runner := &recordingRunner{}
	b := &Builder{Runner: runner, Mode: models.ModeNative}

	err := b.Package(context.Background(), rcp, dest)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrPackageFailure))
	assert.Empty(t, runner.calls, "installer must not run without a license")

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr), "destination must stay untouched")
}

func TestBuildFailureSkipsPackage(t *testing.T) {
	_, rcp := setupProject(t, true)
	dest := filepath.Join(t.TempDir(), "pkgdir")

	runner := &recordingRunner{results: []*Result{{ExitCode: 2, Output: "error: invalid command 'build'\n"}}}
	b := &Builder{Runner: runner, Mode: models.ModeNative}

	err := b.Run(context.Background(), rcp, dest)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrBuildFailure))
	assert.Equal(t, 2, models.ExitCode(err))

	var pe *models.PkgBuildError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "error: invalid command 'build'\n", pe.Output)

	assert.Len(t, runner.calls, 1)
	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
}

func TestInstallFailure(t *testing.T) {
	_, rcp := setupProject(t, true)
	dest := filepath.Join(t.TempDir(), "pkgdir")

	runner := &recordingRunner{results: []*Result{{}, {ExitCode: 1, Output: "permission denied"}}}
	b := &Builder{Runner: runner, Mode: models.ModeNative}

	err := b.Run(context.Background(), rcp, dest)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrPackageFailure))
	assert.Equal(t, 1, models.ExitCode(err))
	assert.Len(t, runner.calls, 2)
}

func TestBuildMissingSetupScript(t *testing.T) {
	root, rcp := setupProject(t, true)
	require.NoError(t, os.Remove(filepath.Join(root, SetupScript)))

	runner := &recordingRunner{}
	b := &Builder{Runner: runner, Mode: models.ModeNative}

	err := b.Build(context.Background(), rcp)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrBuildFailure))
	assert.Empty(t, runner.calls)
}

func TestUnknownMode(t *testing.T) {
	_, rcp := setupProject(t, true)
	b := &Builder{Runner: &recordingRunner{}, Mode: "docker"}

	err := b.Build(context.Background(), rcp)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrInvalidConfig))
}

func TestNewDefaults(t *testing.T) {
	b := New(&models.BuildConfig{Python: "python3.12", SourceDateEpoch: 1700000000}, NewExecRunner())
	assert.Equal(t, models.ModeNative, b.Mode)
	assert.Equal(t, []string{"python3.12", "setup.py", "build"}, b.Toolchain.BuildArgs())

	rcp := &models.Recipe{Name: "a", Version: "1", Release: 2, Path: "/src/a/pkg/PKGBUILD"}
	env := b.env(rcp, "/dest")
	assert.Contains(t, env, "SOURCE_DATE_EPOCH=1700000000")
	assert.Contains(t, env, "srcdir=/src/a")
	assert.Contains(t, env, "startdir=/src/a/pkg")
	assert.Contains(t, env, "pkgrel=2")
	assert.Contains(t, env, "pkgdir=/dest")
}
