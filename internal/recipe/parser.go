package recipe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/sirupsen/logrus"
	"mvdan.cc/sh/v3/expand"
	"mvdan.cc/sh/v3/interp"
	"mvdan.cc/sh/v3/syntax"
)

// FileName is the conventional recipe file name
const FileName = "PKGBUILD"

// ParseFile reads and evaluates the recipe at path
func ParseFile(ctx context.Context, path string) (*models.Recipe, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &models.PkgBuildError{
			Type: models.ErrFileOp,
			Err:  fmt.Errorf("failed to open recipe: %w", err),
		}
	}
	defer f.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}

	return parse(ctx, f, abs, filepath.Dir(abs))
}

// Parse evaluates a recipe read from r. name is used in error positions and
// becomes the recipe's Path.
func Parse(ctx context.Context, r io.Reader, name string) (*models.Recipe, error) {
	return parse(ctx, r, name, "")
}

func parse(ctx context.Context, r io.Reader, name, dir string) (*models.Recipe, error) {
	file, err := syntax.NewParser(syntax.Variant(syntax.LangBash)).Parse(r, name)
	if err != nil {
		return nil, &models.PkgBuildError{
			Type: models.ErrRecipeParse,
			Err:  fmt.Errorf("syntax error: %w", err),
		}
	}

	// Top-level evaluation happens with no environment, no external
	// commands and no file writes.
	sb := &sandbox{}
	opts := []interp.RunnerOption{
		interp.Env(expand.ListEnviron()),
		interp.StdIO(nil, io.Discard, io.Discard),
		interp.ExecHandlers(sb.exec),
		interp.OpenHandler(sb.open),
	}
	if dir != "" {
		opts = append(opts, interp.Dir(dir))
	}

	runner, err := interp.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create interpreter: %w", err)
	}

	err = runner.Run(ctx, file)
	if sb.violation != nil {
		err = sb.violation
	}
	var exitStatus interp.ExitStatus
	if err != nil && !errors.As(err, &exitStatus) {
		return nil, &models.PkgBuildError{
			Type: models.ErrRecipeParse,
			Err:  fmt.Errorf("failed to evaluate %s: %w", name, err),
		}
	}

	return fromVars(name, runner.Vars, runner.Funcs)
}

// fromVars maps the evaluated shell variables onto a Recipe
func fromVars(path string, vars map[string]expand.Variable, funcs map[string]*syntax.Stmt) (*models.Recipe, error) {
	rcp := &models.Recipe{
		Path:        path,
		Name:        scalar(vars, "pkgname"),
		Version:     scalar(vars, "pkgver"),
		Description: scalar(vars, "pkgdesc"),
		URL:         scalar(vars, "url"),
		License:     list(vars, "license"),
	}

	if rel := scalar(vars, "pkgrel"); rel != "" {
		n, err := strconv.Atoi(rel)
		if err != nil {
			return nil, &models.PkgBuildError{
				Type:    models.ErrRecipeParse,
				Package: rcp.Name,
				Err:     fmt.Errorf("pkgrel %q is not an integer", rel),
			}
		}
		rcp.Release = n
	}

	for _, a := range list(vars, "arch") {
		rcp.Architectures = append(rcp.Architectures, models.Architecture(a))
	}

	var err error
	if rcp.Depends, err = parseDependencies(list(vars, "depends")); err != nil {
		return nil, &models.PkgBuildError{Type: models.ErrRecipeParse, Package: rcp.Name, Err: err}
	}
	if rcp.MakeDepends, err = parseDependencies(list(vars, "makedepends")); err != nil {
		return nil, &models.PkgBuildError{Type: models.ErrRecipeParse, Package: rcp.Name, Err: err}
	}

	for fn := range funcs {
		rcp.Functions = append(rcp.Functions, fn)
	}
	sort.Strings(rcp.Functions)

	logrus.Debugf("Parsed recipe %s %s (functions: %s)", rcp.Name, rcp.FullVersion(), strings.Join(rcp.Functions, ", "))
	return rcp, nil
}

func parseDependencies(specs []string) ([]models.Dependency, error) {
	var deps []models.Dependency
	for _, spec := range specs {
		dep, err := ParseDependency(spec)
		if err != nil {
			return nil, err
		}
		deps = append(deps, dep)
	}
	return deps, nil
}

// scalar returns a variable's string value; for arrays, the first element
func scalar(vars map[string]expand.Variable, name string) string {
	v, ok := vars[name]
	if !ok {
		return ""
	}
	if v.Kind == expand.Indexed {
		if len(v.List) == 0 {
			return ""
		}
		return v.List[0]
	}
	return v.Str
}

// list returns a variable's elements; a plain string counts as one element
func list(vars map[string]expand.Variable, name string) []string {
	v, ok := vars[name]
	if !ok {
		return nil
	}
	switch v.Kind {
	case expand.Indexed:
		out := make([]string, 0, len(v.List))
		for _, s := range v.List {
			if s != "" {
				out = append(out, s)
			}
		}
		return out
	case expand.String:
		if v.Str == "" {
			return nil
		}
		return []string{v.Str}
	default:
		return nil
	}
}

// sandbox rejects side effects while a recipe's top level is evaluated and
// remembers the first one attempted.
type sandbox struct {
	violation error
}

func (sb *sandbox) reject(err error) error {
	if sb.violation == nil {
		sb.violation = err
	}
	return err
}

func (sb *sandbox) exec(next interp.ExecHandlerFunc) interp.ExecHandlerFunc {
	return func(ctx context.Context, args []string) error {
		return sb.reject(fmt.Errorf("external command %q is not allowed at recipe top level", args[0]))
	}
}

func (sb *sandbox) open(ctx context.Context, path string, flag int, perm os.FileMode) (io.ReadWriteCloser, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 && path != "/dev/null" {
		return nil, sb.reject(fmt.Errorf("writing %s is not allowed at recipe top level", path))
	}
	return interp.DefaultOpenHandler()(ctx, path, flag, perm)
}
