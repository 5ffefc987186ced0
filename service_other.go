//go:build !windows && !linux && !darwin
// +build !windows,!linux,!darwin

package cyberservice

// runAsService always fails, as no service manager is supported on this
// operating system. Administrative commands fail too, but 'debug' works.
func runAsService(Descriptor, Service) error {
	return ErrNotLaunchedByManager
}
