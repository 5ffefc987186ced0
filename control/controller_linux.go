package control

import (
	"fmt"
)

func NewController(controllerConfig ControllerConfig) (Controller, error) {
	err := controllerConfig.Validate()
	if err != nil {
		return nil, err
	}

	if systemctlPath, isSystemd := isSystemd(); isSystemd {
		return newSystemdController(controllerConfig, systemctlPath)
	}

	return nil, fmt.Errorf("failed to find systemd - it is the only supported service manager on linux")
}
