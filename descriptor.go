package cyberservice

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/stephen-fox/cyberservice/control"
)

// Descriptor identifies a service and describes how it is installed.
type Descriptor struct {
	// Name is the unique name of the service. It must not contain
	// white space or path separators. On macOS it must be in reverse
	// DNS format (e.g., com.github.thedude.myapp).
	Name string

	// DisplayName is shown by the service manager. Name is used when
	// it is empty.
	DisplayName string

	// Description is shown by the service manager.
	Description string

	// ExePath is the executable that hosts the service. When empty,
	// it is resolved using the hostexe package.
	ExePath string

	// Arguments are passed to the host executable when the service
	// manager starts it.
	Arguments []string

	// StartType is the service's start up behavior. The service must
	// be started manually if it is empty.
	StartType control.StartType

	// RunAs is the account the service runs as.
	RunAs string

	// Password returns RunAs' password. It is required on Windows when
	// RunAs is set.
	Password func() (string, error)

	// StopTimeout bounds how long administrative commands wait for the
	// service to stop. The operating system's default is used if it is
	// zero.
	StopTimeout time.Duration
}

// Validate returns a non-nil error if the Descriptor cannot identify a
// service.
func (o Descriptor) Validate() error {
	if len(o.Name) == 0 {
		return fmt.Errorf("service name must be specified")
	}

	if strings.ContainsAny(o.Name, " \t\r\n/\\") {
		return fmt.Errorf("service name '%s' must not contain white space or path separators", o.Name)
	}

	return nil
}

// displayName returns DisplayName, or Name if it is empty.
func (o Descriptor) displayName() string {
	if len(o.DisplayName) == 0 {
		return o.Name
	}

	return o.DisplayName
}

type descriptorFile struct {
	Name        string   `toml:"name"`
	DisplayName string   `toml:"display_name"`
	Description string   `toml:"description"`
	ExePath     string   `toml:"exe_path"`
	Arguments   []string `toml:"arguments"`
	StartType   string   `toml:"start_type"`
	RunAs       string   `toml:"run_as"`
	StopTimeout string   `toml:"stop_timeout"`
}

// LoadDescriptorFile reads a TOML file and returns base with every field the
// file sets replaced. For example:
//
// 	display_name = "My Service"
// 	description  = "Does my things."
// 	arguments    = ["-config", "C:\\ProgramData\\MyService\\config.toml"]
// 	start_type   = "auto"
// 	stop_timeout = "30s"
func LoadDescriptorFile(filePath string, base Descriptor) (Descriptor, error) {
	var f descriptorFile
	_, err := toml.DecodeFile(filePath, &f)
	if err != nil {
		return Descriptor{}, fmt.Errorf("failed to decode service descriptor file '%s' - %w", filePath, err)
	}

	d := base

	if len(f.Name) > 0 {
		d.Name = f.Name
	}

	if len(f.DisplayName) > 0 {
		d.DisplayName = f.DisplayName
	}

	if len(f.Description) > 0 {
		d.Description = f.Description
	}

	if len(f.ExePath) > 0 {
		d.ExePath = f.ExePath
	}

	if f.Arguments != nil {
		d.Arguments = f.Arguments
	}

	if len(f.StartType) > 0 {
		d.StartType, err = control.ParseStartType(f.StartType)
		if err != nil {
			return Descriptor{}, err
		}
	}

	if len(f.RunAs) > 0 {
		d.RunAs = f.RunAs
	}

	if len(f.StopTimeout) > 0 {
		d.StopTimeout, err = time.ParseDuration(f.StopTimeout)
		if err != nil {
			return Descriptor{}, fmt.Errorf("failed to parse stop timeout '%s' - %w", f.StopTimeout, err)
		}
	}

	err = d.Validate()
	if err != nil {
		return Descriptor{}, err
	}

	return d, nil
}
