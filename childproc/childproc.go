// Package childproc launches worker processes from a service.
//
// When a service runs inside a generic host executable, that host cannot run
// general purpose workloads itself. Configure returns a Launcher that points
// worker processes at the right executable for the environment, and Launcher
// tags each worker with its name so that the re-executed program can tell
// that it should run the worker (see WorkerName) instead of the service.
package childproc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stephen-fox/cyberservice/hostenv"
)

// WorkerEnv is the environment variable that carries the worker name to a
// worker process.
const WorkerEnv = "CYBERSERVICE_WORKER"

// Launcher starts worker processes using an explicit executable.
type Launcher struct {
	// Executable is the executable that runs worker processes.
	Executable string

	// Args are placed before the per-worker arguments.
	Args []string

	// Env is appended to the current process' environment.
	Env []string

	// Dir is the worker's working directory. The current directory is
	// used if it is empty.
	Dir string
}

// Configure returns the Launcher to use in env. A frozen executable runs its
// own workers. Otherwise workers are run by the environment's interpreter,
// which is located next to the current executable, and are given the hosted
// program as their first argument.
func Configure(env hostenv.Environment) Launcher {
	if env.Frozen {
		return Launcher{
			Executable: env.Executable,
		}
	}

	var args []string
	if len(env.Program) > 0 {
		args = append(args, env.Program)
	}

	return Launcher{
		Executable: filepath.Join(filepath.Dir(env.Executable), env.Interpreter),
		Args:       args,
	}
}

// Command returns a command that runs the named worker. The command is
// killed if ctx is done before it exits.
func (o Launcher) Command(ctx context.Context, worker string, args ...string) *exec.Cmd {
	allArgs := make([]string, 0, len(o.Args)+len(args))
	allArgs = append(allArgs, o.Args...)
	allArgs = append(allArgs, args...)

	cmd := exec.CommandContext(ctx, o.Executable, allArgs...)
	cmd.Dir = o.Dir
	cmd.Env = append(os.Environ(), o.Env...)
	cmd.Env = append(cmd.Env, WorkerEnv+"="+worker)

	return cmd
}

// Start starts the named worker and returns a handle for it.
func (o Launcher) Start(ctx context.Context, worker string, args ...string) (*Process, error) {
	cmd := o.Command(ctx, worker, args...)

	err := cmd.Start()
	if err != nil {
		return nil, fmt.Errorf("failed to start worker '%s' - %w", worker, err)
	}

	p := &Process{
		name: worker,
		cmd:  cmd,
		done: make(chan struct{}),
	}

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.waitErr = err
		p.mu.Unlock()
		close(p.done)
	}()

	return p, nil
}

// WorkerName returns the worker name this process was started for, if it
// was started by a Launcher.
func WorkerName() (string, bool) {
	name, ok := os.LookupEnv(WorkerEnv)
	if !ok || len(name) == 0 {
		return "", false
	}

	return name, true
}

// Process is a worker process started by a Launcher.
type Process struct {
	name    string
	cmd     *exec.Cmd
	done    chan struct{}
	mu      sync.Mutex
	waitErr error
}

// Name returns the worker name.
func (o *Process) Name() string {
	return o.name
}

// Pid returns the operating system process ID.
func (o *Process) Pid() int {
	return o.cmd.Process.Pid
}

// Exited is closed once the process has exited.
func (o *Process) Exited() <-chan struct{} {
	return o.done
}

// Wait blocks until the process exits and returns its exit error.
func (o *Process) Wait() error {
	<-o.done

	o.mu.Lock()
	defer o.mu.Unlock()

	return o.waitErr
}

// Terminate kills the process immediately. It does not wait for the process
// to exit. Terminating a process that already exited is not an error.
func (o *Process) Terminate() error {
	select {
	case <-o.done:
		return nil
	default:
	}

	err := o.cmd.Process.Kill()
	if err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("failed to terminate worker '%s' - %w", o.name, err)
	}

	return nil
}

// Exists reports whether the process is still running.
func (o *Process) Exists() (bool, error) {
	select {
	case <-o.done:
		return false, nil
	default:
	}

	return Exists(o.Pid())
}

// Exists reports whether a process with the given ID exists.
func Exists(pid int) (bool, error) {
	return process.PidExists(int32(pid))
}
