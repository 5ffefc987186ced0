package control

const (
	// PasswordOption is used to specify the password for a user when
	// installing a service that will run as that user. The following
	// example ControllerConfig demonstrates this option by reading
	// the user's password from an environment variable:
	//
	//	config := control.ControllerConfig{
	//		ServiceName:           "test",
	//		ExePath:               exePath,
	//		RunAs:                 ".\\stephen",
	//		SystemSpecificOptions: map[control.SystemSpecificOption]interface{}{
	//			control.PasswordOption: control.GetPassword(func() (string, error) {
	//				p, ok := os.LookupEnv("SERVICE_PASSWORD")
	//				if !ok {
	//					return "", fmt.Errorf("password environment variable was not set")
	//				}
	//				return p, nil
	//			}),
	//		},
	//	}
	PasswordOption SystemSpecificOption = "password"
)

// GetPassword represents a function that will return a user's password when
// installing a service that will run as that user. See the documentation for
// PasswordOption for more information.
type GetPassword func() (string, error)
