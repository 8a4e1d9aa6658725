package builder

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ralt/pkgbuilder/internal/manifest"
	"github.com/ralt/pkgbuilder/internal/models"
	"github.com/ralt/pkgbuilder/internal/recipe"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecRunner(t *testing.T) {
	r := NewExecRunner()
	dir := t.TempDir()

	res, err := r.Run(context.Background(), Command{Dir: dir, Args: []string{"echo", "hello world"}})
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "hello world\n", res.Output)

	res, err = r.Run(context.Background(), Command{Dir: dir, Script: "echo failing\nexit 3\n"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "failing\n", res.Output)

	res, err = r.Run(context.Background(), Command{Dir: dir, Env: []string{"GREETING=hi"}, Script: "echo \"$GREETING\"; pwd"})
	require.NoError(t, err)
	assert.Equal(t, "hi\n"+dir+"\n", res.Output)

	_, err = r.Run(context.Background(), Command{Dir: dir})
	assert.Error(t, err)
}

func TestExecRunnerLogsOutputBeforeReturning(t *testing.T) {
	logger := logrus.StandardLogger()
	hook := new(test.Hook)
	oldHooks := logger.ReplaceHooks(logrus.LevelHooks{})
	oldLevel := logger.GetLevel()
	oldOut := logger.Out
	logger.AddHook(hook)
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(io.Discard)
	t.Cleanup(func() {
		logger.ReplaceHooks(oldHooks)
		logger.SetLevel(oldLevel)
		logger.SetOutput(oldOut)
	})

	res, err := NewExecRunner().Run(context.Background(), Command{Dir: t.TempDir(), Script: "echo one; printf two"})
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo", res.Output)

	var lines []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.DebugLevel && !strings.HasPrefix(e.Message, "Running: ") {
			lines = append(lines, e.Message)
		}
	}
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestLogWriter(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	w := &logWriter{logger: logger, level: logrus.DebugLevel}
	_, err := w.Write([]byte("running build\ncopying "))
	require.NoError(t, err)
	require.Len(t, hook.AllEntries(), 1)
	assert.Equal(t, "running build", hook.LastEntry().Message)

	_, err = w.Write([]byte("setup.py\nwriting"))
	require.NoError(t, err)
	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, "copying setup.py", hook.LastEntry().Message)

	w.Flush()
	require.Len(t, hook.AllEntries(), 3)
	assert.Equal(t, "writing", hook.LastEntry().Message)

	w.Flush()
	assert.Len(t, hook.AllEntries(), 3)
}

const scriptRecipe = `pkgname=demo
pkgver=1.0
pkgrel=1
arch=(any)
build() {
    echo "built $pkgname $SOURCE_DATE_EPOCH" > "$srcdir/build.stamp"
}
package() {
    echo "$pkgver-$pkgrel" > "$pkgdir/usr/share/licenses/$pkgname/VERSION"
}
`

func writeScriptProject(t *testing.T, body string) (string, *models.Recipe) {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, LicenseFile), []byte("MIT\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "pkg"), 0755))
	path := filepath.Join(root, "pkg", recipe.FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))

	rcp, err := recipe.ParseFile(context.Background(), path)
	require.NoError(t, err)
	return root, rcp
}

func TestRunScriptMode(t *testing.T) {
	root, rcp := writeScriptProject(t, scriptRecipe)
	dest := filepath.Join(t.TempDir(), "pkgdir")

	b := &Builder{Runner: NewExecRunner(), Mode: models.ModeScript, SourceDateEpoch: 42}
	require.NoError(t, b.Run(context.Background(), rcp, dest))

	stamp, err := os.ReadFile(filepath.Join(root, "build.stamp"))
	require.NoError(t, err)
	assert.Equal(t, "built demo 42\n", string(stamp))

	version, err := os.ReadFile(filepath.Join(dest, "usr", "share", "licenses", "demo", "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "1.0-1\n", string(version))
}

func TestRunScriptModeBuildFailure(t *testing.T) {
	body := `pkgname=demo
pkgver=1.0
pkgrel=1
arch=(any)
build() {
    echo "compiler exploded"
    exit 4
}
package() {
    echo ran > "$srcdir/package.stamp"
}
`
	root, rcp := writeScriptProject(t, body)
	dest := filepath.Join(t.TempDir(), "pkgdir")

	b := &Builder{Runner: NewExecRunner(), Mode: models.ModeScript}
	err := b.Run(context.Background(), rcp, dest)
	require.Error(t, err)
	assert.True(t, models.IsType(err, models.ErrBuildFailure))
	assert.Equal(t, 4, models.ExitCode(err))

	var pe *models.PkgBuildError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "compiler exploded\n", pe.Output)

	_, statErr := os.Stat(filepath.Join(root, "package.stamp"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestRunIsIdempotent(t *testing.T) {
	_, rcp := setupProject(t, true)

	// echo stands in for the interpreter so both hooks succeed without
	// touching the destination beyond the license.
	b := &Builder{Runner: NewExecRunner(), Mode: models.ModeNative, Toolchain: Toolchain{Python: "echo"}}

	destA := filepath.Join(t.TempDir(), "a")
	destB := filepath.Join(t.TempDir(), "b")
	require.NoError(t, b.Run(context.Background(), rcp, destA))
	require.NoError(t, b.Run(context.Background(), rcp, destB))

	ma, err := manifest.Generate(context.Background(), destA)
	require.NoError(t, err)
	mb, err := manifest.Generate(context.Background(), destB)
	require.NoError(t, err)

	assert.Empty(t, manifest.Diff(ma, mb))
	assert.NotEmpty(t, ma.Entries)
}
