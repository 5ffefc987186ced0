// Package control provides functionality for managing a service.
//
// The control subpackage provides the following interface:
// 	- Controller
//
// The Controller is used to control the state of a service. Implementations
// communicate with the operating system's service manager to query a
// service's status, start or stop it, and install, update and remove it.
// A Controller is configured using the ControllerConfig struct. This struct
// provides the necessary information about a service (such as its name).
// It also provides customization options, such as the start up type.
//
// Execute turns a Command (for example, a command line argument) into the
// corresponding Controller call.
package control
