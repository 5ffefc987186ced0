package control

import (
	"fmt"
	"io/ioutil"
	"os"
	"os/user"
	"path/filepath"
	"strconv"

	"github.com/coreos/go-systemd/unit"
	"github.com/stephen-fox/cyberservice/internal/osutil"
)

const (
	userArgument        = "--user"
	daemonReloadCommand = "daemon-reload"
)

var isSystemd = osutil.IsSystemd

type systemdController struct {
	systemctlPath string
	serviceName   string
	unitFilePath  string
	unitContents  []byte
	addUserArg    bool
	startType     StartType
}

func (o *systemdController) Status() (Status, error) {
	initInfo, statErr := os.Stat(o.unitFilePath)
	if statErr != nil || initInfo.IsDir() {
		return NotInstalled, nil
	}

	_, exitCode, statusErr := osutil.RunDaemonCli(o.systemctlPath, o.args("status", o.serviceName)...)
	if statusErr != nil {
		switch exitCode {
		case 3:
			return Stopped, nil
		case 1:
			return StoppedDead, nil
		}
	}

	if exitCode == 0 {
		return Running, nil
	}

	return Unknown, nil
}

func (o *systemdController) Install() error {
	err := o.writeUnit()
	if err != nil {
		return err
	}

	switch o.startType {
	case StartImmediately:
		err := o.Start()
		if err != nil {
			return err
		}
		fallthrough
	case StartOnLoad:
		_, _, err := osutil.RunDaemonCli(o.systemctlPath, o.args("enable", o.serviceName)...)
		if err != nil {
			return err
		}
	case ManualStart:
	}

	return nil
}

func (o *systemdController) Update() error {
	initInfo, statErr := os.Stat(o.unitFilePath)
	if statErr != nil || initInfo.IsDir() {
		return fmt.Errorf("service '%s' is not installed", o.serviceName)
	}

	err := o.writeUnit()
	if err != nil {
		return err
	}

	action := "disable"
	if o.startType == StartOnLoad || o.startType == StartImmediately {
		action = "enable"
	}

	_, _, err = osutil.RunDaemonCli(o.systemctlPath, o.args(action, o.serviceName)...)
	if err != nil {
		return err
	}

	return nil
}

func (o *systemdController) Uninstall() error {
	// Try to stop the service. Ignore any errors because it might be
	// stopped already, or the stop failed (which there is nothing
	// we can do about).
	o.Stop()
	osutil.RunDaemonCli(o.systemctlPath, o.args("disable", o.serviceName)...)

	err := os.Remove(o.unitFilePath)
	if err != nil {
		return err
	}

	_, _, err = osutil.RunDaemonCli(o.systemctlPath, o.args(daemonReloadCommand)...)
	if err != nil {
		return err
	}

	return nil
}

func (o *systemdController) Start() error {
	_, _, err := osutil.RunDaemonCli(o.systemctlPath, o.args("start", o.serviceName)...)
	if err != nil {
		return err
	}

	return nil
}

func (o *systemdController) Stop() error {
	_, _, err := osutil.RunDaemonCli(o.systemctlPath, o.args("stop", o.serviceName)...)
	if err != nil {
		return err
	}

	return nil
}

func (o *systemdController) writeUnit() error {
	err := os.MkdirAll(filepath.Dir(o.unitFilePath), 0755)
	if err != nil {
		return fmt.Errorf("failed to create systemd unit directory - %w", err)
	}

	err = ioutil.WriteFile(o.unitFilePath, o.unitContents, 0644)
	if err != nil {
		return fmt.Errorf("failed to write systemd unit file - %w", err)
	}

	_, _, err = osutil.RunDaemonCli(o.systemctlPath, o.args(daemonReloadCommand)...)
	if err != nil {
		return err
	}

	return nil
}

func (o *systemdController) args(args ...string) []string {
	if o.addUserArg {
		return append([]string{userArgument}, args...)
	}

	return args
}

func newSystemdController(config ControllerConfig, systemctlPath string) (*systemdController, error) {
	addUserToUnit, unitFilePath, specifyUserArg, err := runSettings(config)
	if err != nil {
		return nil, err
	}

	unitContents, err := systemdUnit(config, addUserToUnit)
	if err != nil {
		return nil, err
	}

	return &systemdController{
		systemctlPath: systemctlPath,
		serviceName:   config.ServiceName,
		unitFilePath:  unitFilePath,
		unitContents:  unitContents,
		addUserArg:    specifyUserArg,
		startType:     config.StartType,
	}, nil
}

// systemdUnit returns the contents of the service's unit file. The service
// reports its status using sd_notify, so the unit is of type 'notify'.
func systemdUnit(config ControllerConfig, addUser bool) ([]byte, error) {
	description := config.Description
	if len(description) == 0 {
		description = config.displayName()
	}

	unitOptions := []*unit.UnitOption{
		unit.NewUnitOption("Unit", "Description", description),
		unit.NewUnitOption("Service", "Type", "notify"),
		unit.NewUnitOption("Service", "NotifyAccess", "main"),
		unit.NewUnitOption("Service", "ExecStart", config.commandLine()),
		unit.NewUnitOption("Service", "Restart", "on-failure"),
	}

	if config.StopTimeout > 0 {
		unitOptions = append(unitOptions, unit.NewUnitOption("Service", "TimeoutStopSec",
			strconv.Itoa(int(config.StopTimeout.Seconds()))))
	}

	if addUser {
		unitOptions = append(unitOptions, unit.NewUnitOption("Service", "User", config.RunAs))
	}

	unitOptions = append(unitOptions, unit.NewUnitOption("Install", "WantedBy", "multi-user.target"))

	unitContents, err := ioutil.ReadAll(unit.Serialize(unitOptions))
	if err != nil {
		return nil, fmt.Errorf("failed to read from unit reader - %w", err)
	}

	return unitContents, nil
}

// runSettings returns whether the user should be specified in the unit config
// file, the unit file path, and whether '--user' needs to be specified when
// running the 'systemctl' command.
func runSettings(config ControllerConfig) (bool, string, bool, error) {
	defaultUnitPath := fmt.Sprintf("/etc/systemd/system/%s.service", config.ServiceName)
	if len(config.RunAs) == 0 {
		return false, defaultUnitPath, false, nil
	}

	current, err := user.Current()
	if err != nil {
		return false, "", false, fmt.Errorf("failed to get current user - %w", err)
	}

	_, onlyRunWhenLoggedIn := config.SystemSpecificOptions[RunOnlyWhenLoggedIn]
	if onlyRunWhenLoggedIn {
		if config.RunAs == current.Username {
			return false, fmt.Sprintf("%s/.config/systemd/user/%s.service", current.HomeDir, config.ServiceName),
				true, nil
		}
		return false, "", false,
			fmt.Errorf("the '%s' option cannot be used when the current user is not the RunAs user",
				RunOnlyWhenLoggedIn)
	}

	return true, defaultUnitPath, false, nil
}
