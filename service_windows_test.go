package cyberservice

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows/svc"
)

type handlerResult struct {
	specific bool
	exitCode uint32
}

func runHandler(t *testing.T, service Service, requests []svc.Cmd) ([]svc.Status, handlerResult, *serviceHandler) {
	t.Helper()

	handler := &serviceHandler{
		instance: NewInstance(testDescriptor(), service, nil, nil),
	}

	r := make(chan svc.ChangeRequest)
	changes := make(chan svc.Status, 16)
	result := make(chan handlerResult, 1)

	go func() {
		specific, exitCode := handler.Execute(nil, r, changes)
		result <- handlerResult{specific: specific, exitCode: exitCode}
	}()

	for _, cmd := range requests {
		select {
		case r <- svc.ChangeRequest{Cmd: cmd}:
		case res := <-result:
			result <- res
		}
	}

	var res handlerResult
	select {
	case res = <-result:
	case <-time.After(10 * time.Second):
		t.Fatal("handler did not return")
	}

	close(changes)
	var states []svc.Status
	for s := range changes {
		states = append(states, s)
	}

	return states, res, handler
}

func stateList(statuses []svc.Status) []svc.State {
	var states []svc.State
	for _, s := range statuses {
		states = append(states, s.State)
	}
	return states
}

func TestServiceHandlerStop(t *testing.T) {
	statuses, res, handler := runHandler(t, Base{}, []svc.Cmd{svc.Pause, svc.Interrogate, svc.Stop})

	assert.Equal(t, handlerResult{}, res)
	assert.NoError(t, handler.err())
	assert.Equal(t, []svc.State{svc.StartPending, svc.Running, svc.Running, svc.StopPending}, stateList(statuses))
	assert.Equal(t, svc.AcceptStop|svc.AcceptShutdown, statuses[1].Accepts)
}

func TestServiceHandlerShutdown(t *testing.T) {
	statuses, res, _ := runHandler(t, Base{}, []svc.Cmd{svc.Shutdown})

	assert.Equal(t, handlerResult{}, res)
	assert.Equal(t, []svc.State{svc.StartPending, svc.Running, svc.StopPending}, stateList(statuses))
}

func TestServiceHandlerExitCodes(t *testing.T) {
	tests := []struct {
		name     string
		service  *fakeService
		requests []svc.Cmd
		exitCode uint32
		hook     Hook
	}{
		{
			name:     "start",
			service:  &fakeService{startErr: errors.New("no config")},
			exitCode: 1,
			hook:     StartHook,
		},
		{
			name:     "stop",
			service:  &fakeService{mainWait: true, stopErr: errors.New("stuck")},
			requests: []svc.Cmd{svc.Stop},
			exitCode: 2,
			hook:     StopHook,
		},
		{
			name:     "main",
			service:  &fakeService{mainErr: errors.New("boom")},
			exitCode: 3,
			hook:     MainHook,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			statuses, res, handler := runHandler(t, test.service, test.requests)

			assert.Equal(t, handlerResult{specific: true, exitCode: test.exitCode}, res)
			assert.NotContains(t, stateList(statuses), svc.Stopped)

			var le *LifecycleError
			require.True(t, errors.As(handler.err(), &le))
			assert.Equal(t, test.hook, le.Hook)
		})
	}
}

func TestToServiceStatus(t *testing.T) {
	assert.Equal(t, svc.Status{State: svc.StartPending}, toServiceStatus(StartPending))
	assert.Equal(t, svc.Status{State: svc.Running, Accepts: svc.AcceptStop | svc.AcceptShutdown}, toServiceStatus(Running))
	assert.Equal(t, svc.Status{State: svc.StopPending}, toServiceStatus(StopPending))
	assert.Equal(t, svc.Status{State: svc.Stopped}, toServiceStatus(Stopped))
}
