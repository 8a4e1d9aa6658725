package recipe

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ralt/pkgbuilder/internal/models"
)

// RequiredFunctions are the lifecycle hooks every recipe must declare
var RequiredFunctions = []string{"build", "package"}

// Validate checks the recipe invariants and returns every violation found
func Validate(rcp *models.Recipe) error {
	var errs []error

	if rcp.Name == "" {
		errs = append(errs, fmt.Errorf("pkgname is empty"))
	} else if err := validateName(rcp.Name); err != nil {
		errs = append(errs, err)
	}

	if rcp.Version == "" {
		errs = append(errs, fmt.Errorf("pkgver is empty"))
	} else if strings.ContainsAny(rcp.Version, ":/- \t\n") {
		errs = append(errs, fmt.Errorf("pkgver %q contains ':', '/', '-' or whitespace", rcp.Version))
	}

	if rcp.Release < 1 {
		errs = append(errs, fmt.Errorf("pkgrel must be a positive integer, got %d", rcp.Release))
	}

	if len(rcp.Architectures) == 0 {
		errs = append(errs, fmt.Errorf("arch is empty"))
	}
	for _, a := range rcp.Architectures {
		if _, err := models.ParseArchitecture(string(a)); err != nil {
			errs = append(errs, err)
		}
		if a == models.ArchAny && len(rcp.Architectures) > 1 {
			errs = append(errs, fmt.Errorf("arch 'any' cannot be combined with other architectures"))
		}
	}

	for _, fn := range RequiredFunctions {
		if !rcp.HasFunction(fn) {
			errs = append(errs, fmt.Errorf("missing %s() function", fn))
		}
	}

	if len(errs) == 0 {
		return nil
	}
	return &models.PkgBuildError{
		Type:    models.ErrInvalidRecipe,
		Package: rcp.Name,
		Err:     errors.Join(errs...),
	}
}

func validateName(name string) error {
	if strings.HasPrefix(name, "-") || strings.HasPrefix(name, ".") {
		return fmt.Errorf("pkgname %q must not start with '-' or '.'", name)
	}
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || strings.ContainsRune("@._+-", r) {
			continue
		}
		return fmt.Errorf("pkgname %q contains invalid character %q", name, r)
	}
	return nil
}
