// Package hostexe resolves the executable that hosts a service.
//
// A frozen (self-contained) executable hosts itself. Otherwise the service
// is hosted by a generic service host executable that must live in the
// environment's scripts directory; its distribution installs it in the
// library directory, so Locate copies it into place the first time it is
// needed.
package hostexe

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/otiai10/copy"
	"github.com/stephen-fox/cyberservice/hostenv"
)

// ErrHostNotFound is matched by HostNotFoundError when using errors.Is.
var ErrHostNotFound = errors.New("service host executable not found")

// HostNotFoundError is returned when the generic service host executable is
// missing from both the scripts and library directories.
type HostNotFoundError struct {
	// Path is the library path that was tried last.
	Path string
}

func (o *HostNotFoundError) Error() string {
	return "service host executable not found in library location '" + o.Path + "'"
}

func (o *HostNotFoundError) Is(target error) bool {
	return target == ErrHostNotFound
}

// Locate returns the path to the executable that hosts the service
// described by env.
//
// If the host is missing from env.ScriptsDir but present in env.LibDir, it is
// copied into env.ScriptsDir first. Calling Locate again is then a no-op.
func Locate(env hostenv.Environment) (string, error) {
	if env.Frozen {
		return env.Executable, nil
	}

	primary := filepath.Join(env.ScriptsDir, env.HostName)
	if isFile(primary) {
		return primary, nil
	}

	secondary := filepath.Join(env.LibDir, env.HostName)
	if !isFile(secondary) {
		return "", &HostNotFoundError{
			Path: secondary,
		}
	}

	err := copy.Copy(secondary, primary, copy.Options{
		PreserveTimes: true,
		Sync:          true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to copy service host from '%s' to '%s' - %w",
			secondary, primary, err)
	}

	return primary, nil
}

// LaunchArgs returns the arguments the service host needs to run the
// service. A frozen executable needs none. A generic host is given the
// environment's host arguments followed by the absolute path of the program.
func LaunchArgs(env hostenv.Environment) []string {
	if env.Frozen {
		return nil
	}

	args := env.HostArguments()
	if len(env.Program) > 0 {
		program, err := filepath.Abs(env.Program)
		if err != nil {
			program = env.Program
		}
		args = append(args, program)
	}

	return args
}

func isFile(filePath string) bool {
	info, err := os.Stat(filePath)
	if err != nil {
		return false
	}

	return !info.IsDir()
}
