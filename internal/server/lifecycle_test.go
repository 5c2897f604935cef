package server

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"google.golang.org/grpc"
)

// blockingService runs until Stop closes its quit channel.
type blockingService struct {
	started chan struct{}
	quit    chan struct{}
	stopped atomic.Bool
	startFn func() error
	stopFn  func()
	once    sync.Once
}

func newBlockingService() *blockingService {
	return &blockingService{started: make(chan struct{}), quit: make(chan struct{})}
}

func (s *blockingService) Start() error {
	close(s.started)
	if s.startFn != nil {
		return s.startFn()
	}
	<-s.quit
	return nil
}

func (s *blockingService) Stop() {
	if s.stopFn != nil {
		s.stopFn()
	}
	s.stopped.Store(true)
	s.once.Do(func() { close(s.quit) })
}

func newTestLifecycle(t *testing.T, timeout time.Duration) *Lifecycle {
	lc := NewLifecycle(zaptest.NewLogger(t), timeout)
	lc.handleSignal = false
	return lc
}

func waitStarted(t *testing.T, svcs ...*blockingService) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for _, s := range svcs {
		select {
		case <-s.started:
		case <-deadline:
			t.Fatal("services did not start in time")
		}
	}
}

func TestLifecycleStartsAndStopsServices(t *testing.T) {
	lc := newTestLifecycle(t, time.Second)
	svc1 := newBlockingService()
	svc2 := newBlockingService()
	lc.Add("svc1", svc1)
	lc.Add("svc2", svc2)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()

	waitStarted(t, svc1, svc2)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not shut down in time")
	}
	assert.True(t, svc1.stopped.Load())
	assert.True(t, svc2.stopped.Load())
}

func TestLifecycleReturnsServiceFailure(t *testing.T) {
	lc := newTestLifecycle(t, time.Second)
	boom := errors.New("bind failed")
	healthy := newBlockingService()
	broken := newBlockingService()
	broken.startFn = func() error { return boom }
	lc.Add("healthy", healthy)
	lc.Add("broken", broken)

	err := lc.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, healthy.stopped.Load())
}

func TestLifecycleStopTimeout(t *testing.T) {
	lc := newTestLifecycle(t, 50*time.Millisecond)
	release := make(chan struct{})
	defer close(release)
	stuck := newBlockingService()
	stuck.stopFn = func() { <-release }
	lc.Add("stuck", stuck)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx) }()
	waitStarted(t, stuck)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopTimeout)
	case <-time.After(5 * time.Second):
		t.Fatal("lifecycle did not honour the stop timeout")
	}
}

func TestFuncService_DelegatesToFuncs(t *testing.T) {
	var calls []string
	svc := &FuncService{
		StartFn: func() error { calls = append(calls, "start"); return nil },
		StopFn:  func() { calls = append(calls, "stop") },
	}
	require.NoError(t, svc.Start())
	svc.Stop()
	assert.Equal(t, []string{"start", "stop"}, calls)
}

func TestGRPCServiceServesAndStops(t *testing.T) {
	svc, err := NewGRPCService("127.0.0.1:0", grpc.NewServer(), zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.NotEqual(t, "127.0.0.1:0", svc.Addr())

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	svc.Stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("grpc service did not stop")
	}
}
