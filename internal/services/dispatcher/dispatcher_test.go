package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fgeck/magic-packet/internal/models"
	"github.com/fgeck/magic-packet/internal/services/wol"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock implementations.
type mockWOLService struct {
	wakeFunc func(ctx context.Context, cfg models.TargetConfig) (*models.WOLResult, error)

	mu    sync.Mutex
	calls []models.TargetConfig
}

func (m *mockWOLService) Wake(ctx context.Context, cfg models.TargetConfig) (*models.WOLResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, cfg)
	m.mu.Unlock()

	if m.wakeFunc != nil {
		return m.wakeFunc(ctx, cfg)
	}
	return &models.WOLResult{PacketSent: true, Target: cfg.IP + ":9", Bytes: wol.MagicPacketSize}, nil
}

func (m *mockWOLService) Calls() []models.TargetConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.TargetConfig(nil), m.calls...)
}

type mockConfigSource struct {
	mu  sync.Mutex
	cfg models.TargetConfig
}

func (m *mockConfigSource) Load() models.TargetConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

func (m *mockConfigSource) Set(cfg models.TargetConfig) {
	m.mu.Lock()
	m.cfg = cfg
	m.mu.Unlock()
}

type mockDialog struct {
	showFunc func(ctx context.Context) error
	shown    atomic.Int32
}

func (m *mockDialog) Show(ctx context.Context) error {
	m.shown.Add(1)
	if m.showFunc != nil {
		return m.showFunc(ctx)
	}
	return nil
}

type mockNotifier struct {
	ch chan models.Notification
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{ch: make(chan models.Notification, 16)}
}

func (m *mockNotifier) Notify(n models.Notification) {
	m.ch <- n
}

func (m *mockNotifier) next(t *testing.T) models.Notification {
	t.Helper()
	select {
	case n := <-m.ch:
		return n
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for notification")
		return models.Notification{}
	}
}

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func validConfig() models.TargetConfig {
	return models.TargetConfig{MAC: "AA:BB:CC:DD:EE:FF", IP: "192.168.1.255"}
}

func startDispatcher(t *testing.T, d *Impl) <-chan error {
	t.Helper()

	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(context.Background()) }()

	t.Cleanup(func() {
		_ = d.TrySubmit(models.ActionQuit)
	})

	return errCh
}

func waitRun(t *testing.T, errCh <-chan error) error {
	t.Helper()
	select {
	case err := <-errCh:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not stop")
		return nil
	}
}

func TestRun_SendPacket_Success(t *testing.T) {
	wolSvc := &mockWOLService{}
	config := &mockConfigSource{cfg: validConfig()}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, config, nil, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))

	n := notifier.next(t)
	assert.True(t, n.Success)
	assert.Equal(t, models.ActionSendPacket, n.Action)
	assert.Contains(t, n.Message, "AA:BB:CC:DD:EE:FF")

	require.Len(t, wolSvc.Calls(), 1)
	assert.Equal(t, validConfig(), wolSvc.Calls()[0])
}

func TestRun_SendPacket_ReadsConfigPerSend(t *testing.T) {
	wolSvc := &mockWOLService{}
	config := &mockConfigSource{cfg: validConfig()}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, config, nil, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	notifier.next(t)

	updated := models.TargetConfig{MAC: "11-22-33-44-55-66", IP: "10.0.0.255"}
	config.Set(updated)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	notifier.next(t)

	calls := wolSvc.Calls()
	require.Len(t, calls, 2)
	assert.Equal(t, updated, calls[1])
}

func TestRun_SendPacket_InvalidAddressRecovers(t *testing.T) {
	wolSvc := &mockWOLService{
		wakeFunc: func(_ context.Context, cfg models.TargetConfig) (*models.WOLResult, error) {
			if cfg.MAC == "" {
				return &models.WOLResult{Error: fmt.Errorf("%w %q", wol.ErrInvalidAddress, cfg.MAC)}, nil
			}
			return &models.WOLResult{PacketSent: true, Target: cfg.IP + ":9"}, nil
		},
	}
	config := &mockConfigSource{}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, config, nil, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	n := notifier.next(t)
	assert.False(t, n.Success)
	assert.Contains(t, n.Message, "Invalid MAC address")

	config.Set(validConfig())
	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	assert.True(t, notifier.next(t).Success)
}

func TestRun_SendPacket_TransportErrorRecovers(t *testing.T) {
	wolSvc := &mockWOLService{
		wakeFunc: func(_ context.Context, _ models.TargetConfig) (*models.WOLResult, error) {
			return &models.WOLResult{Error: fmt.Errorf("%w: permission denied", wol.ErrTransport)}, nil
		},
	}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{cfg: validConfig()}, nil, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	n := notifier.next(t)
	assert.False(t, n.Success)
	assert.Contains(t, n.Message, "permission denied")

	assert.Eventually(t, func() bool { return d.State() == StateIdle }, time.Second, 5*time.Millisecond)
	assert.Len(t, wolSvc.Calls(), 1, "failures are not retried")
}

func TestRun_SendPacket_ServiceError(t *testing.T) {
	wolSvc := &mockWOLService{
		wakeFunc: func(_ context.Context, _ models.TargetConfig) (*models.WOLResult, error) {
			return nil, errors.New("boom")
		},
	}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{cfg: validConfig()}, nil, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	n := notifier.next(t)
	assert.False(t, n.Success)
	assert.Contains(t, n.Message, "boom")
}

func TestRun_ShowConfig(t *testing.T) {
	dialog := &mockDialog{}
	wolSvc := &mockWOLService{}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{}, dialog, notifier)
	errCh := startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionShowConfig))
	require.NoError(t, d.Submit(context.Background(), models.ActionQuit))

	require.NoError(t, waitRun(t, errCh))
	assert.Equal(t, int32(1), dialog.shown.Load())
	assert.Empty(t, wolSvc.Calls())
}

func TestRun_ShowConfig_BlocksLoop(t *testing.T) {
	release := make(chan struct{})
	opened := make(chan struct{})
	dialog := &mockDialog{
		showFunc: func(_ context.Context) error {
			close(opened)
			<-release
			return nil
		},
	}
	wolSvc := &mockWOLService{}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{cfg: validConfig()}, dialog, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionShowConfig))
	<-opened
	assert.Equal(t, StateProcessing, d.State())

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, wolSvc.Calls(), "send must wait for the dialog to close")

	close(release)
	assert.True(t, notifier.next(t).Success)
	assert.Len(t, wolSvc.Calls(), 1)
}

func TestRun_ShowConfig_DialogError(t *testing.T) {
	dialog := &mockDialog{
		showFunc: func(_ context.Context) error { return errors.New("no editor") },
	}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), &mockWOLService{}, &mockConfigSource{}, dialog, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionShowConfig))
	n := notifier.next(t)
	assert.False(t, n.Success)
	assert.Equal(t, models.ActionShowConfig, n.Action)
	assert.Contains(t, n.Message, "no editor")
}

func TestRun_ShowConfig_NoDialog(t *testing.T) {
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), &mockWOLService{}, &mockConfigSource{}, nil, notifier)
	startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionShowConfig))
	n := notifier.next(t)
	assert.False(t, n.Success)
	assert.Contains(t, n.Message, "not available")
}

func TestRun_Quit(t *testing.T) {
	wolSvc := &mockWOLService{}

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{cfg: validConfig()}, nil, nil)
	errCh := startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionQuit))
	require.NoError(t, waitRun(t, errCh))

	assert.Equal(t, StateTerminated, d.State())
	select {
	case <-d.Done():
	default:
		t.Fatal("Done channel not closed after quit")
	}

	assert.ErrorIs(t, d.Submit(context.Background(), models.ActionSendPacket), ErrTerminated)
	assert.ErrorIs(t, d.TrySubmit(models.ActionSendPacket), ErrTerminated)
	assert.ErrorIs(t, d.Run(context.Background()), ErrTerminated)
	assert.Empty(t, wolSvc.Calls())
}

func TestRun_ContextCancelled(t *testing.T) {
	d := NewWithServices(testLogger(), &mockWOLService{}, &mockConfigSource{}, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	cancel()

	assert.ErrorIs(t, waitRun(t, errCh), context.Canceled)
	assert.Equal(t, StateTerminated, d.State())
}

func TestSubmit_BlockedSubmitReleasedOnTermination(t *testing.T) {
	d := NewWithServices(testLogger(), &mockWOLService{}, &mockConfigSource{}, nil, nil)

	// Fill the only slot without a running loop.
	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))

	submitErr := make(chan error, 1)
	go func() { submitErr <- d.Submit(context.Background(), models.ActionSendPacket) }()

	time.Sleep(20 * time.Millisecond)
	d.terminate()

	select {
	case err := <-submitErr:
		assert.ErrorIs(t, err, ErrTerminated)
	case <-time.After(2 * time.Second):
		t.Fatal("blocked Submit was not released")
	}
}

func TestSubmit_ContextCancelled(t *testing.T) {
	d := NewWithServices(testLogger(), &mockWOLService{}, &mockConfigSource{}, nil, nil)
	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, d.Submit(ctx, models.ActionSendPacket), context.DeadlineExceeded)
}

func TestDispatcher_OneActionAtATime(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	started := make(chan struct{}, 8)
	release := make(chan struct{})

	wolSvc := &mockWOLService{
		wakeFunc: func(_ context.Context, cfg models.TargetConfig) (*models.WOLResult, error) {
			n := inFlight.Add(1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			started <- struct{}{}
			<-release
			inFlight.Add(-1)
			return &models.WOLResult{PacketSent: true, Target: cfg.IP + ":9"}, nil
		},
	}
	notifier := newMockNotifier()

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{cfg: validConfig()}, nil, notifier)
	errCh := startDispatcher(t, d)

	require.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
	<-started
	assert.Equal(t, StateProcessing, d.State())

	// One action may wait in the slot; anything beyond that is dropped.
	require.NoError(t, d.TrySubmit(models.ActionSendPacket))
	assert.ErrorIs(t, d.TrySubmit(models.ActionSendPacket), ErrBusy)

	close(release)
	notifier.next(t)
	notifier.next(t)

	require.NoError(t, d.Submit(context.Background(), models.ActionQuit))
	require.NoError(t, waitRun(t, errCh))

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Len(t, wolSvc.Calls(), 2)
}

func TestDispatcher_ConcurrentProducers(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32

	wolSvc := &mockWOLService{
		wakeFunc: func(_ context.Context, cfg models.TargetConfig) (*models.WOLResult, error) {
			n := inFlight.Add(1)
			for {
				cur := maxInFlight.Load()
				if n <= cur || maxInFlight.CompareAndSwap(cur, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			inFlight.Add(-1)
			return &models.WOLResult{PacketSent: true, Target: cfg.IP + ":9"}, nil
		},
	}
	notifier := newMockNotifier()
	notifier.ch = make(chan models.Notification, 64)

	d := NewWithServices(testLogger(), wolSvc, &mockConfigSource{cfg: validConfig()}, nil, notifier)
	errCh := startDispatcher(t, d)

	const producers = 20
	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, d.Submit(context.Background(), models.ActionSendPacket))
		}()
	}
	wg.Wait()

	require.NoError(t, d.Submit(context.Background(), models.ActionQuit))
	require.NoError(t, waitRun(t, errCh))

	assert.Equal(t, int32(1), maxInFlight.Load())
	assert.Len(t, wolSvc.Calls(), producers)
}
