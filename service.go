package cyberservice

import (
	"fmt"
	"io/ioutil"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"github.com/stephen-fox/cyberservice/evlog"
)

// Service is implemented by the application to be run as a service.
// Embed Base to inherit the default implementation of each method.
//
// A non-nil error (or a panic) from any method is not retried or
// suppressed: the instance stops and the service manager records a
// failure. Recoverable faults must be handled by the implementation.
type Service interface {
	// Start is called once, after the service manager has been told the
	// service is starting and before Main. It must not block for long:
	// the service manager does not consider the service running until
	// Start returns, and may give up on it.
	Start(*Instance) error

	// Main is called once, in its own goroutine, after Start returns.
	// The service runs for as long as Main has not returned. Main must
	// return promptly once the instance's StopSignal is set, or once
	// some condition invalidated by Stop no longer holds.
	Main(*Instance) error

	// Stop is called when the service manager asks the service to stop,
	// after the StopSignal is set. Main may still be running. Stop must
	// release resources (e.g., terminate worker processes) and must not
	// block for long.
	Stop(*Instance) error
}

// Base provides the default behavior of a Service: Main waits for the
// StopSignal, and Start and Stop do nothing.
type Base struct{}

func (Base) Start(*Instance) error {
	return nil
}

func (Base) Main(instance *Instance) error {
	instance.StopSignal().Wait()
	return nil
}

func (Base) Stop(*Instance) error {
	return nil
}

// Instance is a single run of a Service.
type Instance struct {
	descriptor Descriptor
	service    Service
	signal     *StopSignal
	status     statusTracker
	logger     *logrus.Entry
	sink       evlog.Sink
	executed   int32
}

// NewInstance returns an Instance that runs service. Log entries are written
// to logger and Log messages to sink. Either may be nil, in which case the
// output is discarded.
func NewInstance(descriptor Descriptor, service Service, logger *logrus.Logger, sink evlog.Sink) *Instance {
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(ioutil.Discard)
	}

	if sink == nil {
		sink = evlog.Discard
	}

	return &Instance{
		descriptor: descriptor,
		service:    service,
		signal:     NewStopSignal(),
		logger:     logger.WithField("service", descriptor.Name),
		sink:       sink,
	}
}

// Descriptor returns the service's Descriptor.
func (o *Instance) Descriptor() Descriptor {
	return o.descriptor
}

// StopSignal returns the signal that is set when a stop is requested.
func (o *Instance) StopSignal() *StopSignal {
	return o.signal
}

// Status returns the instance's current status.
func (o *Instance) Status() Status {
	return o.status.get()
}

// Logger returns the instance's structured logger.
func (o *Instance) Logger() *logrus.Entry {
	return o.logger
}

// Log writes an informational message to the event log.
func (o *Instance) Log(message string) {
	o.sink.Log(message)
}

// Execute runs the service's lifecycle and returns once Main has returned
// (or Start or Stop failed). requests delivers control requests from the
// service manager, and report is called, in order, for every status the
// instance enters. An Instance can only be executed once.
func (o *Instance) Execute(requests <-chan Request, report func(Status)) error {
	if !atomic.CompareAndSwapInt32(&o.executed, 0, 1) {
		return fmt.Errorf("service instance '%s' was already executed", o.descriptor.Name)
	}

	o.status.setReporter(report)

	o.status.advance(StartPending)
	o.logger.Debug("starting")

	err := o.service.Start(o)
	if err != nil {
		o.signal.Set()
		o.status.advance(Stopped)
		o.logger.WithError(err).Error("start failed")
		return &LifecycleError{Hook: StartHook, Err: err}
	}

	o.status.advance(Running)
	o.logger.Info("running")

	mainDone := make(chan error, 1)
	go func() {
		mainDone <- o.service.Main(o)
	}()

	stopRequested := false

	for {
		select {
		case req, ok := <-requests:
			if !ok {
				requests = nil
				continue
			}

			switch req {
			case Interrogate:
				o.status.interrogate()
			case StopRequest, ShutdownRequest:
				if stopRequested {
					continue
				}
				stopRequested = true

				o.logger.WithField("request", req.String()).Info("stop requested")
				o.status.advance(StopPending)
				o.signal.Set()

				err := o.service.Stop(o)
				if err != nil {
					o.status.advance(Stopped)
					o.logger.WithError(err).Error("stop failed")
					return &LifecycleError{Hook: StopHook, Err: err}
				}
			}
		case err := <-mainDone:
			o.status.advance(StopPending)
			o.signal.Set()
			o.status.advance(Stopped)

			if err != nil {
				o.logger.WithError(err).Error("main failed")
				return &LifecycleError{Hook: MainHook, Err: err}
			}

			o.logger.Info("stopped")
			return nil
		}
	}
}
