package recipe

import (
	"fmt"
	"strings"

	"github.com/ralt/pkgbuilder/internal/models"
)

// operators ordered so two-character forms match before their prefixes
var operators = []string{">=", "<=", "=", "<", ">"}

// ParseDependency splits a specifier such as "python>=3.12" into its name
// and constraint.
func ParseDependency(spec string) (models.Dependency, error) {
	if strings.ContainsAny(spec, " \t\n") {
		return models.Dependency{}, fmt.Errorf("dependency %q contains whitespace", spec)
	}

	idx := strings.IndexAny(spec, "<>=")
	if idx < 0 {
		if spec == "" {
			return models.Dependency{}, fmt.Errorf("empty dependency")
		}
		return models.Dependency{Name: spec}, nil
	}

	dep := models.Dependency{Name: spec[:idx]}
	rest := spec[idx:]
	for _, op := range operators {
		if strings.HasPrefix(rest, op) {
			dep.Operator = op
			dep.Version = rest[len(op):]
			break
		}
	}

	if dep.Name == "" {
		return models.Dependency{}, fmt.Errorf("dependency %q has no name", spec)
	}
	if dep.Version == "" {
		return models.Dependency{}, fmt.Errorf("dependency %q has an operator but no version", spec)
	}
	if strings.ContainsAny(dep.Version, "<>=") {
		return models.Dependency{}, fmt.Errorf("dependency %q has more than one operator", spec)
	}

	return dep, nil
}
