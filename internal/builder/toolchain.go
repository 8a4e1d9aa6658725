package builder

// DefaultPython is the interpreter used when none is configured
const DefaultPython = "python"

// SetupScript is the project description file setuptools reads
const SetupScript = "setup.py"

// Toolchain builds the argument vectors of the setuptools commands
type Toolchain struct {
	Python string
}

func (t Toolchain) python() string {
	if t.Python == "" {
		return DefaultPython
	}
	return t.Python
}

// BuildArgs returns the command that builds the package in place
func (t Toolchain) BuildArgs() []string {
	return []string{t.python(), SetupScript, "build"}
}

// InstallArgs returns the command that installs the already-built package
// into destRoot.
func (t Toolchain) InstallArgs(destRoot string) []string {
	return []string{
		t.python(), SetupScript, "install",
		"--root=" + destRoot,
		"--optimize=1",
		"--skip-build",
	}
}
