package cyberservice

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stephen-fox/cyberservice/control"
	"github.com/stephen-fox/cyberservice/hostenv"
	"github.com/stephen-fox/cyberservice/hostexe"
)

const (
	debugCommand = "debug"

	usageCommands = `Commands:
  install   Install the service
  update    Update the installed service's configuration
  remove    Stop and remove the service (alias: uninstall)
  start     Start the service
  stop      Stop the service
  restart   Stop the service if it is running, then start it
  status    Print the service's status
  debug     Run the service in this console (Ctrl+C stops it)
`
)

// Swapped out in tests.
var (
	runUnderManager = runAsService
	runDebug        = runConsole
	newController   = control.NewController
	loadEnvironment = hostenv.Load
	locateHost      = hostexe.Locate

	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
)

// ParseCommandLine runs the service or an administrative command, depending
// on the program's command line arguments. See ParseArgs.
func ParseCommandLine(descriptor Descriptor, service Service) error {
	return ParseArgs(descriptor, service, os.Args[1:])
}

// ParseArgs runs the service or an administrative command, depending on
// args (which exclude the program name).
//
// With no arguments, it registers with the service manager and runs the
// service, returning once the service has stopped. If the process was not
// started by the service manager, it falls back to HandleCommandLine.
//
// With arguments, it calls HandleCommandLine without registering.
func ParseArgs(descriptor Descriptor, service Service, args []string) error {
	if len(args) == 0 {
		err := descriptor.Validate()
		if err != nil {
			return err
		}

		err = runUnderManager(descriptor, service)
		if !errors.Is(err, ErrNotLaunchedByManager) {
			return err
		}
	}

	return HandleCommandLine(descriptor, service, args)
}

// HandleCommandLine executes the administrative command in args. The syntax
// is '[options] <command>'; run with '-h' for details.
func HandleCommandLine(descriptor Descriptor, service Service, args []string) error {
	flags := flag.NewFlagSet(descriptor.Name, flag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.String("config", "", "Path to a TOML file that overrides the service's descriptor")
	envPath := flags.String("env", "", "Path to a dotenv file with CYBERSERVICE_* environment variables")
	startup := flags.String("startup", "", "How the service starts: 'manual', 'auto', or 'immediate' (install, update)")
	username := flags.String("username", "", "The account the service runs as (install, update)")
	password := flags.String("password", "", "The password of the -username account (install, update)")
	wait := flags.Int("wait", 0, "Seconds to wait for the service to stop (stop, restart, remove)")
	flags.Usage = func() {
		printUsage(flags)
	}

	err := flags.Parse(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return &CommandError{
			reason: err.Error(),
		}
	}

	if flags.NArg() == 0 {
		flags.Usage()
		return &CommandError{
			reason: "a command must be specified",
		}
	}

	if len(*configPath) > 0 {
		descriptor, err = LoadDescriptorFile(*configPath, descriptor)
		if err != nil {
			return err
		}
	}

	if len(*startup) > 0 {
		descriptor.StartType, err = control.ParseStartType(*startup)
		if err != nil {
			return &CommandError{
				reason: err.Error(),
			}
		}
	}

	if len(*username) > 0 {
		descriptor.RunAs = *username
	}

	if len(*password) > 0 {
		p := *password
		descriptor.Password = func() (string, error) {
			return p, nil
		}
	}

	if *wait > 0 {
		descriptor.StopTimeout = time.Duration(*wait) * time.Second
	}

	err = descriptor.Validate()
	if err != nil {
		return err
	}

	var envFiles []string
	if len(*envPath) > 0 {
		envFiles = append(envFiles, *envPath)
	}

	commandArg := flags.Arg(0)
	if commandArg == debugCommand {
		return runDebug(descriptor, service)
	}

	command, err := control.ParseCommand(commandArg)
	if err != nil {
		flags.Usage()
		return &CommandError{
			command:   commandArg,
			isUnknown: true,
		}
	}

	config, err := controllerConfig(descriptor, command, envFiles)
	if err != nil {
		return err
	}

	controller, err := newController(config)
	if err != nil {
		return err
	}

	output, err := control.Execute(command, controller)
	if err != nil {
		return err
	}

	if len(output) > 0 {
		fmt.Fprintln(stdout, output)
	}

	cliLogger().WithField("service", descriptor.Name).Infof("executed '%s' service control command", command)

	return nil
}

// controllerConfig converts the Descriptor into a ControllerConfig. If the
// Descriptor has no executable, the service host is resolved; installing or
// updating the service may copy the host into place.
func controllerConfig(d Descriptor, command control.Command, envFiles []string) (control.ControllerConfig, error) {
	exePath := d.ExePath
	args := d.Arguments

	if len(exePath) == 0 {
		env, err := loadEnvironment(envFiles...)
		if err != nil {
			return control.ControllerConfig{}, err
		}

		switch command {
		case control.Install, control.Update:
			exePath, err = locateHost(env)
			if err != nil {
				return control.ControllerConfig{}, err
			}
		default:
			exePath = env.Executable
		}

		args = append(hostexe.LaunchArgs(env), d.Arguments...)
	}

	return control.ControllerConfig{
		ServiceName:           d.Name,
		DisplayName:           d.displayName(),
		Description:           d.Description,
		ExePath:               exePath,
		Arguments:             args,
		RunAs:                 d.RunAs,
		StartType:             d.StartType,
		StopTimeout:           d.StopTimeout,
		SystemSpecificOptions: systemSpecificOptions(d),
	}, nil
}

func cliLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(stderr)
	return logger
}

func printUsage(flags *flag.FlagSet) {
	w := flags.Output()
	fmt.Fprintf(w, "Usage: %s [options] <command>\n\n", filepath.Base(os.Args[0]))
	fmt.Fprint(w, usageCommands)
	fmt.Fprintln(w, "\nOptions:")
	flags.PrintDefaults()
}
