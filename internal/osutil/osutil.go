// Package osutil runs the operating system's service management tools.
package osutil

import (
	"fmt"
	"os/exec"
	"strings"
)

// RunDaemonCli runs exePath with args and returns its trimmed combined
// output and exit code. A non-nil error includes the output.
func RunDaemonCli(exePath string, args ...string) (string, int, error) {
	s := exec.Command(exePath, args...)
	output, err := s.CombinedOutput()
	trimmedOutput := strings.TrimSpace(string(output))

	exitCode := -1
	if s.ProcessState != nil {
		exitCode = s.ProcessState.ExitCode()
	}

	if err != nil {
		return trimmedOutput, exitCode,
			fmt.Errorf("failed to execute '%s %s' - %s - output: %s",
				exePath, strings.Join(args, " "), err.Error(), trimmedOutput)
	}

	return trimmedOutput, exitCode, nil
}
