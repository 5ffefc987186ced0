// Package hostenv describes the environment a service process runs in: the
// executable hosting it, whether that executable is self-contained, and where
// generic host and interpreter executables live when it is not.
//
// An Environment is usually obtained with Load, which reads CYBERSERVICE_*
// environment variables (optionally seeded from dotenv files) and fills in
// defaults derived from the running executable.
package hostenv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

const (
	defaultHostName    = "servicehost"
	defaultInterpreter = "interpreter"
	libDirName         = "lib"
)

// Environment is the runtime environment of a service process.
type Environment struct {
	// Frozen is true when the executable carries everything it needs to
	// run the service (the normal case for a Go binary). When false,
	// the service is run by a generic host executable and worker
	// processes are run by an interpreter executable.
	Frozen bool `env:"CYBERSERVICE_FROZEN,default=true"`

	// Executable is the path of the current process' executable.
	Executable string `env:"CYBERSERVICE_EXECUTABLE"`

	// Program is the program the generic host runs when the
	// environment is not frozen.
	Program string `env:"CYBERSERVICE_PROGRAM"`

	// HostName is the file name of the generic service host executable.
	HostName string `env:"CYBERSERVICE_HOST_NAME"`

	// HostArgs are passed to the generic host before the program path.
	// They are separated by white space.
	HostArgs string `env:"CYBERSERVICE_HOST_ARGS"`

	// ScriptsDir is where the generic service host is expected to be.
	ScriptsDir string `env:"CYBERSERVICE_SCRIPTS_DIR"`

	// LibDir is where the generic service host is installed by its
	// distribution, and copied from if it is missing from ScriptsDir.
	LibDir string `env:"CYBERSERVICE_LIB_DIR"`

	// Interpreter is the file name of the executable that runs worker
	// processes. It is resolved relative to Executable.
	Interpreter string `env:"CYBERSERVICE_INTERPRETER"`
}

// Load returns the Environment of the current process. Each dotenv file is
// loaded into the process environment first; files that do not exist are
// skipped and variables that are already set are not overridden.
func Load(dotenvFiles ...string) (Environment, error) {
	for _, filePath := range dotenvFiles {
		err := godotenv.Load(filePath)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Environment{}, fmt.Errorf("failed to load environment file '%s' - %w", filePath, err)
		}
	}

	var env Environment
	err := envdecode.Decode(&env)
	if err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Environment{}, fmt.Errorf("failed to decode environment variables - %w", err)
	}

	if len(env.Executable) == 0 {
		exePath, err := os.Executable()
		if err != nil {
			return Environment{}, fmt.Errorf("failed to get executable path - %w", err)
		}
		env.Executable = exePath
	}

	if len(env.Program) == 0 && len(os.Args) > 0 {
		program, err := filepath.Abs(os.Args[0])
		if err == nil {
			env.Program = program
		}
	}

	return env.WithDefaults(), nil
}

// WithDefaults returns a copy of the Environment with empty fields set to
// their defaults. Executable must already be set for the directory defaults
// to be meaningful.
func (o Environment) WithDefaults() Environment {
	exeDir := filepath.Dir(o.Executable)

	if len(o.HostName) == 0 {
		o.HostName = ExecutableName(defaultHostName)
	}

	if len(o.Interpreter) == 0 {
		o.Interpreter = ExecutableName(defaultInterpreter)
	}

	if len(o.ScriptsDir) == 0 {
		o.ScriptsDir = exeDir
	}

	if len(o.LibDir) == 0 {
		o.LibDir = filepath.Join(exeDir, libDirName)
	}

	return o
}

// HostArguments returns HostArgs split on white space.
func (o Environment) HostArguments() []string {
	return strings.Fields(o.HostArgs)
}

// BaseDir returns the directory containing the entry point of the
// application: the executable's directory when frozen, otherwise the
// directory of the hosted program.
func (o Environment) BaseDir() string {
	if o.Frozen || len(o.Program) == 0 {
		return filepath.Dir(o.Executable)
	}

	return filepath.Dir(o.Program)
}

// ExecutableName appends the platform's executable suffix to name.
func ExecutableName(name string) string {
	if runtime.GOOS == "windows" && !strings.HasSuffix(strings.ToLower(name), ".exe") {
		return name + ".exe"
	}

	return name
}
