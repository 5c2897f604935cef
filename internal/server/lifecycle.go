// Package server runs the long-lived parts of the buttonmen server and stops
// them in order when the process is asked to exit.
package server

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
)

// Service is a long-running component. Start blocks until the service is
// stopped or fails; Stop must make a running Start return.
type Service interface {
	Start() error
	Stop()
}

// FuncService adapts a start/stop function pair into the Service interface.
type FuncService struct {
	StartFn func() error
	StopFn  func()
}

// Start calls the underlying start function.
func (f *FuncService) Start() error { return f.StartFn() }

// Stop calls the underlying stop function.
func (f *FuncService) Stop() { f.StopFn() }

// Lifecycle starts services in registration order and stops them in reverse.
type Lifecycle struct {
	logger       *zap.Logger
	stopTimeout  time.Duration
	mu           sync.Mutex
	services     []namedService
	handleSignal bool
}

type namedService struct {
	name    string
	service Service
}

// NewLifecycle creates a Lifecycle that stops on SIGINT or SIGTERM. Each
// Stop call is given stopTimeout before the lifecycle moves on; zero means
// wait indefinitely.
//
// Precondition: logger must be non-nil.
func NewLifecycle(logger *zap.Logger, stopTimeout time.Duration) *Lifecycle {
	return &Lifecycle{logger: logger, stopTimeout: stopTimeout, handleSignal: true}
}

// Add registers a named service.
//
// Precondition: name must be non-empty; svc must be non-nil.
func (l *Lifecycle) Add(name string, svc Service) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.services = append(l.services, namedService{name: name, service: svc})
}

// Run starts all services and blocks until a signal arrives, ctx is done,
// or a service fails. It returns the first service failure, if any.
//
// Postcondition: Stop has been called on every service.
func (l *Lifecycle) Run(ctx context.Context) error {
	l.mu.Lock()
	services := append([]namedService(nil), l.services...)
	l.mu.Unlock()

	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, len(services))
	for _, ns := range services {
		go func() {
			l.logger.Info("starting service", zap.String("service", ns.name))
			if err := ns.service.Start(); err != nil {
				errCh <- fmt.Errorf("service %s: %w", ns.name, err)
			}
		}()
	}
	l.logger.Info("all services started", zap.Int("count", len(services)))

	sigCh := make(chan os.Signal, 1)
	if l.handleSignal {
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigCh)
	}

	var runErr error
	select {
	case sig := <-sigCh:
		l.logger.Info("received signal, shutting down", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		l.logger.Error("service error, shutting down", zap.Error(runErr))
	case <-ctx.Done():
		l.logger.Info("context cancelled, shutting down")
	}

	if err := l.shutdown(services); err != nil {
		runErr = errors.Join(runErr, err)
	}
	l.logger.Info("shutdown complete", zap.Duration("uptime", time.Since(start)))
	return runErr
}

// ErrStopTimeout reports a service that did not stop within the timeout.
var ErrStopTimeout = errors.New("server: service did not stop in time")

func (l *Lifecycle) shutdown(services []namedService) error {
	var errs []error
	for i := len(services) - 1; i >= 0; i-- {
		ns := services[i]
		begin := time.Now()
		done := make(chan struct{})
		go func() {
			ns.service.Stop()
			close(done)
		}()
		var timeout <-chan time.Time
		if l.stopTimeout > 0 {
			timer := time.NewTimer(l.stopTimeout)
			defer timer.Stop()
			timeout = timer.C
		}
		select {
		case <-done:
			l.logger.Info("service stopped",
				zap.String("service", ns.name),
				zap.Duration("elapsed", time.Since(begin)),
			)
		case <-timeout:
			l.logger.Warn("service stop timed out", zap.String("service", ns.name))
			errs = append(errs, fmt.Errorf("%w: %s", ErrStopTimeout, ns.name))
		}
	}
	return errors.Join(errs...)
}
