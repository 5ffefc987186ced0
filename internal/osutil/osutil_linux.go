package osutil

import (
	"os/exec"
)

var (
	systemctlExeDirPaths = []string{"/bin", "/usr/bin"}
)

// IsSystemd returns the path to 'systemctl' and true if the system is
// managed by systemd.
func IsSystemd() (string, bool) {
	for _, dirPath := range systemctlExeDirPaths {
		exePath := dirPath + "/systemctl"
		_, err := exec.Command(exePath, "--version").CombinedOutput()
		if err == nil {
			return exePath, true
		}
	}

	return "", false
}
