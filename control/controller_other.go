//go:build !windows && !linux && !darwin
// +build !windows,!linux,!darwin

package control

import (
	"fmt"
	"runtime"
)

func NewController(controllerConfig ControllerConfig) (Controller, error) {
	err := controllerConfig.Validate()
	if err != nil {
		return nil, err
	}

	return nil, fmt.Errorf("service management is not supported on %s", runtime.GOOS)
}
