package models

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPkgBuildError(t *testing.T) {
	base := errors.New("boom")
	err := fmt.Errorf("wrapped: %w", &PkgBuildError{
		Type:     ErrBuildFailure,
		Package:  "python-bredos-common",
		ExitCode: 2,
		Err:      base,
	})

	assert.Equal(t, "wrapped: [BuildFailure] python-bredos-common: boom", err.Error())
	assert.ErrorIs(t, err, base)
	assert.True(t, IsType(err, ErrBuildFailure))
	assert.False(t, IsType(err, ErrPackageFailure))
	assert.Equal(t, 2, ExitCode(err))

	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 1, ExitCode(base))
	assert.Equal(t, 1, ExitCode(&PkgBuildError{Type: ErrInvalidRecipe, Err: base}))
	assert.Equal(t, "[InvalidRecipe] boom", (&PkgBuildError{Type: ErrInvalidRecipe, Err: base}).Error())
}

func TestRecipeHelpers(t *testing.T) {
	r := &Recipe{
		Name:      "python-bredos-common",
		Version:   "1.0",
		Release:   1,
		Path:      "/home/panda/python-common/pkg/PKGBUILD",
		Functions: []string{"build", "package"},
	}

	assert.Equal(t, "1.0-1", r.FullVersion())
	assert.Equal(t, "usr/share/licenses/python-bredos-common/LICENSE", r.LicenseInstallPath())
	assert.Equal(t, "/home/panda/python-common", r.SourceRoot())
	assert.Equal(t, "/home/panda/python-common/pkg", r.StartDir())
	assert.True(t, r.HasFunction("package"))
	assert.False(t, r.HasFunction("check"))
}

func TestDependency(t *testing.T) {
	d := Dependency{Name: "python", Operator: ">=", Version: "3.12"}
	assert.Equal(t, ">=3.12", d.Constraint())
	assert.Equal(t, "python>=3.12", d.String())
	assert.Equal(t, "python>=3.12 pyalpm", JoinDependencies([]Dependency{d, {Name: "pyalpm"}}))
}

func TestParseArchitecture(t *testing.T) {
	a, err := ParseArchitecture("aarch64")
	assert.NoError(t, err)
	assert.Equal(t, ArchAarch64, a)

	_, err = ParseArchitecture("sparc64")
	assert.Error(t, err)
}
