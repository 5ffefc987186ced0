package cyberservice

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stephen-fox/cyberservice/childproc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sleeperWorker = "sleeper"
	pollInterval  = 50 * time.Millisecond
)

// TestHelperProcess is not a real test. It is the worker process started by
// workerService when this test binary is re-executed.
func TestHelperProcess(t *testing.T) {
	name, ok := childproc.WorkerName()
	if !ok {
		return
	}

	if name == sleeperWorker {
		time.Sleep(time.Minute)
	}

	os.Exit(0)
}

type recorder struct {
	mu       sync.Mutex
	statuses []Status
	messages []string
}

func (o *recorder) report(s Status) {
	o.mu.Lock()
	o.statuses = append(o.statuses, s)
	o.mu.Unlock()
}

func (o *recorder) Log(message string) {
	o.mu.Lock()
	o.messages = append(o.messages, message)
	o.mu.Unlock()
}

func (o *recorder) reported() []Status {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]Status(nil), o.statuses...)
}

func (o *recorder) logged() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.messages...)
}

type hookCalls struct {
	mu    sync.Mutex
	calls []string
}

func (o *hookCalls) add(hook string) {
	o.mu.Lock()
	o.calls = append(o.calls, hook)
	o.mu.Unlock()
}

func (o *hookCalls) get() []string {
	o.mu.Lock()
	defer o.mu.Unlock()

	return append([]string(nil), o.calls...)
}

// fakeService records each hook call and fails the hooks it is told to.
type fakeService struct {
	Base
	hooks    hookCalls
	startErr error
	stopErr  error
	mainErr  error
	mainWait bool
}

func (o *fakeService) Start(*Instance) error {
	o.hooks.add("start")
	return o.startErr
}

func (o *fakeService) Main(instance *Instance) error {
	o.hooks.add("main")
	if o.mainWait {
		instance.StopSignal().Wait()
	}
	return o.mainErr
}

func (o *fakeService) Stop(*Instance) error {
	o.hooks.add("stop")
	return o.stopErr
}

// countingService logs a message each iteration of its main loop and
// returns after a fixed number of them.
type countingService struct {
	Base
	iterations int
}

func (o *countingService) Main(instance *Instance) error {
	for i := 0; i < o.iterations; i++ {
		instance.Log("tick")
		if instance.StopSignal().WaitTimeout(time.Millisecond) {
			return nil
		}
	}

	return nil
}

// workerService runs a worker process until a stop is requested.
type workerService struct {
	Base
	launcher childproc.Launcher
	worker   *childproc.Process
	started  chan struct{}
}

func (o *workerService) Start(*Instance) error {
	p, err := o.launcher.Start(context.Background(), sleeperWorker)
	if err != nil {
		return err
	}
	o.worker = p
	close(o.started)
	return nil
}

func (o *workerService) Main(instance *Instance) error {
	for {
		if instance.StopSignal().WaitTimeout(pollInterval) {
			return nil
		}

		select {
		case <-o.worker.Exited():
			return nil
		default:
		}
	}
}

func (o *workerService) Stop(*Instance) error {
	return o.worker.Terminate()
}

func testDescriptor() Descriptor {
	return Descriptor{
		Name: "cyberservice-test",
	}
}

func execute(t *testing.T, instance *Instance, requests chan Request, rec *recorder) <-chan error {
	t.Helper()

	result := make(chan error, 1)
	go func() {
		result <- instance.Execute(requests, rec.report)
	}()

	return result
}

func waitResult(t *testing.T, result <-chan error) error {
	t.Helper()

	select {
	case err := <-result:
		return err
	case <-time.After(10 * time.Second):
		t.Fatal("instance did not finish")
		return nil
	}
}

func waitForStatus(t *testing.T, instance *Instance, status Status) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for instance.Status() != status {
		if time.Now().After(deadline) {
			t.Fatalf("instance did not reach '%s', it is '%s'", status, instance.Status())
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBaseMainReturnsOnStop(t *testing.T) {
	rec := &recorder{}
	instance := NewInstance(testDescriptor(), Base{}, nil, rec)
	requests := make(chan Request)

	result := execute(t, instance, requests, rec)
	waitForStatus(t, instance, Running)

	requests <- StopRequest

	require.NoError(t, waitResult(t, result))
	assert.Equal(t, []Status{StartPending, Running, StopPending, Stopped}, rec.reported())
	assert.True(t, instance.StopSignal().IsSet())
}

func TestMainReturningStopsInstance(t *testing.T) {
	rec := &recorder{}
	instance := NewInstance(testDescriptor(), &countingService{iterations: 3}, nil, rec)

	err := waitResult(t, execute(t, instance, make(chan Request), rec))
	require.NoError(t, err)

	assert.Equal(t, []string{"tick", "tick", "tick"}, rec.logged())
	assert.Equal(t, []Status{StartPending, Running, StopPending, Stopped}, rec.reported())
	assert.Equal(t, Stopped, instance.Status())
	assert.True(t, instance.StopSignal().IsSet())
}

func TestStartFailureSkipsMain(t *testing.T) {
	rec := &recorder{}
	service := &fakeService{startErr: errors.New("no config")}
	instance := NewInstance(testDescriptor(), service, nil, rec)

	err := waitResult(t, execute(t, instance, make(chan Request), rec))

	var le *LifecycleError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, StartHook, le.Hook)
	assert.Equal(t, uint32(1), le.exitCode())
	assert.Equal(t, service.startErr, errors.Unwrap(err))

	assert.Equal(t, []string{"start"}, service.hooks.get())
	assert.Equal(t, []Status{StartPending, Stopped}, rec.reported())
}

func TestMainFailure(t *testing.T) {
	rec := &recorder{}
	service := &fakeService{mainErr: errors.New("boom")}
	instance := NewInstance(testDescriptor(), service, nil, rec)

	err := waitResult(t, execute(t, instance, make(chan Request), rec))

	var le *LifecycleError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, MainHook, le.Hook)
	assert.Equal(t, uint32(3), le.exitCode())
	assert.Equal(t, []Status{StartPending, Running, StopPending, Stopped}, rec.reported())
}

func TestStopFailure(t *testing.T) {
	rec := &recorder{}
	service := &fakeService{
		mainWait: true,
		stopErr:  errors.New("stuck"),
	}
	instance := NewInstance(testDescriptor(), service, nil, rec)
	requests := make(chan Request)

	result := execute(t, instance, requests, rec)
	waitForStatus(t, instance, Running)
	requests <- StopRequest

	err := waitResult(t, result)

	var le *LifecycleError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, StopHook, le.Hook)
	assert.Equal(t, uint32(2), le.exitCode())
	assert.Equal(t, Stopped, instance.Status())
}

func TestDuplicateStopRequestsCallStopOnce(t *testing.T) {
	rec := &recorder{}
	release := make(chan struct{})
	service := &blockingService{release: release}
	instance := NewInstance(testDescriptor(), service, nil, rec)
	requests := make(chan Request)

	result := execute(t, instance, requests, rec)
	waitForStatus(t, instance, Running)

	requests <- StopRequest
	requests <- ShutdownRequest
	requests <- StopRequest
	close(release)

	require.NoError(t, waitResult(t, result))
	assert.Equal(t, int32(1), service.stops())
	assert.Equal(t, []Status{StartPending, Running, StopPending, Stopped}, rec.reported())
}

// blockingService keeps Main running after the StopSignal is set until
// release is closed.
type blockingService struct {
	Base
	release chan struct{}
	mu      sync.Mutex
	count   int32
}

func (o *blockingService) Main(*Instance) error {
	<-o.release
	return nil
}

func (o *blockingService) Stop(*Instance) error {
	o.mu.Lock()
	o.count++
	o.mu.Unlock()
	return nil
}

func (o *blockingService) stops() int32 {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.count
}

func TestInterrogateReportsCurrentStatus(t *testing.T) {
	rec := &recorder{}
	instance := NewInstance(testDescriptor(), Base{}, nil, rec)
	requests := make(chan Request)

	result := execute(t, instance, requests, rec)
	waitForStatus(t, instance, Running)

	requests <- Interrogate
	requests <- StopRequest

	require.NoError(t, waitResult(t, result))
	assert.Equal(t, []Status{StartPending, Running, Running, StopPending, Stopped}, rec.reported())
}

func TestClosedRequestChannelDoesNotStop(t *testing.T) {
	rec := &recorder{}
	instance := NewInstance(testDescriptor(), &countingService{iterations: 2}, nil, rec)
	requests := make(chan Request)
	close(requests)

	require.NoError(t, waitResult(t, execute(t, instance, requests, rec)))
	assert.Len(t, rec.logged(), 2)
}

func TestInstanceExecutesOnce(t *testing.T) {
	rec := &recorder{}
	instance := NewInstance(testDescriptor(), &countingService{}, nil, rec)

	require.NoError(t, instance.Execute(nil, rec.report))
	assert.Error(t, instance.Execute(nil, rec.report))
}

func TestStopTerminatesWorker(t *testing.T) {
	rec := &recorder{}
	service := &workerService{
		launcher: childproc.Launcher{
			Executable: os.Args[0],
			Args:       []string{"-test.run=TestHelperProcess"},
		},
		started: make(chan struct{}),
	}
	instance := NewInstance(testDescriptor(), service, nil, rec)
	requests := make(chan Request)

	result := execute(t, instance, requests, rec)
	waitForStatus(t, instance, Running)
	<-service.started

	exists, err := service.worker.Exists()
	require.NoError(t, err)
	require.True(t, exists)

	stopAt := time.Now()
	requests <- StopRequest

	require.NoError(t, waitResult(t, result))
	assert.Less(t, int64(time.Since(stopAt)), int64(time.Second))

	select {
	case <-service.worker.Exited():
	case <-time.After(5 * time.Second):
		t.Fatal("worker process was not terminated")
	}

	exists, err = service.worker.Exists()
	require.NoError(t, err)
	assert.False(t, exists)
	assert.Equal(t, []Status{StartPending, Running, StopPending, Stopped}, rec.reported())
}

func TestNewInstanceDefaults(t *testing.T) {
	instance := NewInstance(testDescriptor(), Base{}, nil, nil)

	assert.Equal(t, "cyberservice-test", instance.Descriptor().Name)
	assert.Equal(t, Unknown, instance.Status())
	assert.Equal(t, "cyberservice-test", instance.Logger().Data["service"])
	instance.Log("dropped")
}
