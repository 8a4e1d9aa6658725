package recipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDependency(t *testing.T) {
	tests := []struct {
		spec     string
		name     string
		operator string
		version  string
	}{
		{"python>=3.12", "python", ">=", "3.12"},
		{"pyalpm", "pyalpm", "", ""},
		{"glibc<=2.40", "glibc", "<=", "2.40"},
		{"foo=1.0-2", "foo", "=", "1.0-2"},
		{"bar<2", "bar", "<", "2"},
		{"baz>1:1.0", "baz", ">", "1:1.0"},
	}

	for _, tt := range tests {
		t.Run(tt.spec, func(t *testing.T) {
			dep, err := ParseDependency(tt.spec)
			require.NoError(t, err)
			assert.Equal(t, tt.name, dep.Name)
			assert.Equal(t, tt.operator, dep.Operator)
			assert.Equal(t, tt.version, dep.Version)
			assert.Equal(t, tt.spec, dep.String())
		})
	}
}

func TestParseDependencyInvalid(t *testing.T) {
	for _, spec := range []string{"", ">=1", "python>=", "python>=1<2", "py thon"} {
		_, err := ParseDependency(spec)
		assert.Error(t, err, spec)
	}
}
