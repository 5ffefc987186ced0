//go:build !windows
// +build !windows

package control

const (
	// RunOnlyWhenLoggedIn specifies that the service should run only
	// when the service's owner is logged in. The 'RunAs' field in the
	// ControllerConfig must be set to the current user's name. This
	// option does not take effect if the 'RunAs' field is not set.
	//
	// The following ControllerConfig example demonstrates how to
	// specify this option:
	//
	//	current, err := user.Current()
	//	if err != nil {
	//		return err
	//	}
	//
	//	config := control.ControllerConfig{
	//		ServiceName:           "test",
	//		ExePath:               exePath,
	//		RunAs:                 current.Username,
	//		SystemSpecificOptions: map[control.SystemSpecificOption]interface{}{
	//			control.RunOnlyWhenLoggedIn: "",
	//		},
	//	}
	RunOnlyWhenLoggedIn SystemSpecificOption = "run_only_when_logged_in"
)
