package control

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeController struct {
	status   Status
	calls    []string
	startErr error
}

func (o *fakeController) Status() (Status, error) {
	o.calls = append(o.calls, "status")
	return o.status, nil
}

func (o *fakeController) Install() error {
	o.calls = append(o.calls, "install")
	return nil
}

func (o *fakeController) Update() error {
	o.calls = append(o.calls, "update")
	return nil
}

func (o *fakeController) Uninstall() error {
	o.calls = append(o.calls, "uninstall")
	return nil
}

func (o *fakeController) Start() error {
	o.calls = append(o.calls, "start")
	return o.startErr
}

func (o *fakeController) Stop() error {
	o.calls = append(o.calls, "stop")
	return nil
}

func TestExecuteDispatch(t *testing.T) {
	tests := []struct {
		command Command
		calls   []string
	}{
		{Install, []string{"install"}},
		{Update, []string{"update"}},
		{Remove, []string{"uninstall"}},
		{Start, []string{"start"}},
		{Stop, []string{"stop"}},
	}

	for _, test := range tests {
		t.Run(test.command.string(), func(t *testing.T) {
			c := &fakeController{}
			output, err := Execute(test.command, c)
			require.NoError(t, err)
			assert.Empty(t, output)
			assert.Equal(t, test.calls, c.calls)
		})
	}
}

func TestExecuteStatus(t *testing.T) {
	c := &fakeController{status: Running}

	output, err := Execute(GetStatus, c)
	require.NoError(t, err)
	assert.Equal(t, "running", output)
}

func TestExecuteRestart(t *testing.T) {
	c := &fakeController{status: Running}
	_, err := Execute(Restart, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "stop", "start"}, c.calls)

	c = &fakeController{status: Stopped}
	_, err = Execute(Restart, c)
	require.NoError(t, err)
	assert.Equal(t, []string{"status", "start"}, c.calls)
}

func TestExecuteWrapsErrors(t *testing.T) {
	denied := errors.New("access is denied")
	c := &fakeController{startErr: denied}

	_, err := Execute(Start, c)
	require.Error(t, err)
	assert.True(t, errors.Is(err, denied))
	assert.Contains(t, err.Error(), "failed to start service")
}

func TestExecuteUnknownCommand(t *testing.T) {
	_, err := Execute(Command("explode"), &fakeController{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestParseCommand(t *testing.T) {
	for _, supported := range SupportedCommands() {
		c, err := ParseCommand(supported)
		require.NoError(t, err)
		assert.Equal(t, Command(supported), c)
	}

	c, err := ParseCommand("uninstall")
	require.NoError(t, err)
	assert.Equal(t, Remove, c)

	_, err = ParseCommand("debug")
	assert.True(t, errors.Is(err, ErrUnknownCommand))
}

func TestParseStartType(t *testing.T) {
	st, err := ParseStartType("")
	require.NoError(t, err)
	assert.Equal(t, ManualStart, st)

	st, err = ParseStartType("AUTO")
	require.NoError(t, err)
	assert.Equal(t, StartOnLoad, st)

	st, err = ParseStartType("immediate")
	require.NoError(t, err)
	assert.Equal(t, StartImmediately, st)

	_, err = ParseStartType("disabled")
	assert.Error(t, err)
}

func TestControllerConfigValidate(t *testing.T) {
	assert.Error(t, ControllerConfig{ExePath: "/bin/app"}.Validate())
	assert.Error(t, ControllerConfig{ServiceName: "app"}.Validate())
	assert.NoError(t, ControllerConfig{ServiceName: "app", ExePath: "/bin/app"}.Validate())
}

func TestCommandLine(t *testing.T) {
	config := ControllerConfig{
		ExePath:   "/opt/my app/host",
		Arguments: []string{"-u", "/srv/app/main prog"},
	}

	assert.Equal(t, `"/opt/my app/host" -u "/srv/app/main prog"`, config.commandLine())
	assert.Equal(t, "", config.displayName())

	config.ServiceName = "Svc1"
	assert.Equal(t, "Svc1", config.displayName())
}

func TestSupportedCommandsString(t *testing.T) {
	assert.Equal(t, "'status', 'install', 'update', 'remove', 'start', 'stop', 'restart'",
		SupportedCommandsString())
}
