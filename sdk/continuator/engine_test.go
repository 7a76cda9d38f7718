package continuator

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/leandrodaf/continuator/internal/logger"
	"github.com/leandrodaf/continuator/internal/schedule/schedtest"
	"github.com/leandrodaf/continuator/sdk/contracts"
	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"
)

func newTestEngine(t *testing.T, client contracts.ClientMIDI, opts ...Option) *Engine {
	t.Helper()
	opts = append([]Option{WithLogger(logger.NewZapLoggerFrom(zaptest.NewLogger(t)))}, opts...)
	e, err := New(client, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return e
}

// start runs the engine in the background and waits for capture to begin.
func start(t *testing.T, e *Engine, client *fakeClient) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()
	select {
	case <-client.capturing:
	case err := <-done:
		cancel()
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatalf("capture never started")
	}
	return cancel, done
}

func expectSent(t *testing.T, client *fakeClient, want contracts.MIDI) {
	t.Helper()
	select {
	case got := <-client.sent:
		got.Timestamp = 0
		if got != want {
			t.Fatalf("sent %+v, want %+v", got, want)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for %+v", want)
	}
}

func stop(t *testing.T, cancel context.CancelFunc, done <-chan error) {
	t.Helper()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after cancel")
	}
}

func TestEngine_ReplaysPhraseTransposed(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(t, client, WithSilenceThreshold(50*time.Millisecond))
	cancel, done := start(t, e, client)

	client.play(0x90, 60, 100)
	client.play(0x80, 60, 0)

	expectSent(t, client, contracts.MIDI{Command: 0x90, Note: 62, Velocity: 100})
	expectSent(t, client, contracts.MIDI{Command: 0x80, Note: 62, Velocity: 0})

	stop(t, cancel, done)

	st := e.Stats()
	if st.Messages != 2 || st.Replays != 1 || st.Completed != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if e.State() != Idle {
		t.Fatalf("state=%s", e.State())
	}
	if !client.stopped || !client.closed {
		t.Fatalf("devices not released: stopped=%v closed=%v", client.stopped, client.closed)
	}
}

func TestEngine_NewInputInterruptsReplay(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(t, client, WithSilenceThreshold(300*time.Millisecond))
	cancel, done := start(t, e, client)

	client.play(0x90, 60, 100)
	time.Sleep(150 * time.Millisecond)
	client.play(0x80, 60, 0)

	// replayed note on, then interrupt well before its note off is due
	expectSent(t, client, contracts.MIDI{Command: 0x90, Note: 62, Velocity: 100})
	client.play(0x90, 67, 100)
	expectSent(t, client, contracts.MIDI{Command: 0x80, Note: 62, Velocity: 0})

	time.Sleep(400 * time.Millisecond)
	stop(t, cancel, done)

	if n := client.sends(); n != 2 {
		t.Fatalf("sent %d messages, want 2", n)
	}
	st := e.Stats()
	if st.Interrupted != 1 || st.Compensations != 1 || st.Completed != 0 {
		t.Fatalf("stats=%+v", st)
	}
}

func TestEngine_ShutdownSilencesReplay(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(t, client, WithSilenceThreshold(50*time.Millisecond))
	cancel, done := start(t, e, client)

	client.play(0x91, 48, 90)
	time.Sleep(500 * time.Millisecond)
	client.play(0x81, 48, 0)

	expectSent(t, client, contracts.MIDI{Command: 0x91, Note: 50, Velocity: 90})
	stop(t, cancel, done)
	expectSent(t, client, contracts.MIDI{Command: 0x80, Note: 50, Velocity: 0})
}

func TestEngine_NoDevicesDoesNothing(t *testing.T) {
	cases := []struct {
		name    string
		setup   func(c *fakeClient)
		wantErr error
	}{
		{"no inputs", func(c *fakeClient) { c.inputs = nil }, ErrNoInputDevices},
		{"no outputs", func(c *fakeClient) { c.outputs = nil }, ErrNoOutputDevices},
		{"platform unavailable", func(c *fakeClient) { c.listErr = errors.New("MIDI functionality is not available") }, ErrNoInputDevices},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newFakeClient()
			tc.setup(client)
			e := newTestEngine(t, client)

			err := e.Run(context.Background())
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err=%v, want %v", err, tc.wantErr)
			}
			select {
			case <-client.capturing:
				t.Fatalf("capture started without devices")
			default:
			}
			if client.sends() != 0 || client.selectedIn != -1 || client.selectedOut != -1 {
				t.Fatalf("client touched: sends=%d in=%d out=%d", client.sends(), client.selectedIn, client.selectedOut)
			}
			if !client.stopped || !client.closed {
				t.Fatalf("client not released: stopped=%v closed=%v", client.stopped, client.closed)
			}
		})
	}
}

func TestEngine_DeviceSelection(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(t, client, WithInputName("keystation"), WithOutputDevice(0))
	cancel, done := start(t, e, client)
	stop(t, cancel, done)

	if client.selectedIn != 1 || client.selectedOut != 0 {
		t.Fatalf("selected in=%d out=%d", client.selectedIn, client.selectedOut)
	}
}

func TestEngine_RunTwice(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(t, client)
	cancel, done := start(t, e, client)
	defer stop(t, cancel, done)

	if err := e.Run(context.Background()); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("second Run: %v", err)
	}
}

func TestEngine_CloseAggregatesErrors(t *testing.T) {
	client := newFakeClient()
	client.stopErr = errors.New("input busy")
	client.closeErr = errors.New("output gone")
	e := newTestEngine(t, client)

	err := e.Close()
	if got := len(multierr.Errors(err)); got != 2 {
		t.Fatalf("expected 2 errors, got %d: %v", got, err)
	}
	if !errors.Is(err, client.stopErr) || !errors.Is(err, client.closeErr) {
		t.Fatalf("errors not wrapped: %v", err)
	}
	if e.Close() != err {
		t.Fatalf("second Close returned a different result")
	}
}

func TestNew_RejectsBadOptions(t *testing.T) {
	if _, err := New(nil); !errors.Is(err, ErrNilClient) {
		t.Fatalf("nil client: %v", err)
	}
	client := newFakeClient()
	if _, err := New(client, WithSilenceThreshold(0)); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("zero threshold: %v", err)
	}
	if _, err := New(client, WithEventBuffer(-1)); !errors.Is(err, ErrInvalidOption) {
		t.Fatalf("negative buffer: %v", err)
	}
}

func TestPickDevice(t *testing.T) {
	devices := []contracts.DeviceInfo{{Name: "IAC Driver Bus 1"}, {Name: "Keystation 49 MIDI 2"}, {Name: "Keystation 49"}}
	cases := []struct {
		name    string
		byName  string
		index   int
		want    int
		wantErr bool
	}{
		{"index", "", 2, 2, false},
		{"exact name wins over substring", "Keystation 49", 0, 2, false},
		{"substring, case-insensitive", "iac", 2, 0, false},
		{"unknown name", "Launchpad", 0, 0, true},
		{"index out of range", "", 3, 0, true},
		{"negative index", "", -1, 0, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := pickDevice(devices, c.byName, c.index)
			if c.wantErr {
				if !errors.Is(err, ErrDeviceNotFound) {
					t.Fatalf("err=%v", err)
				}
				return
			}
			if err != nil || got != c.want {
				t.Fatalf("got %d, %v; want %d", got, err, c.want)
			}
		})
	}
}

func TestEngine_OverdueSilenceEndsPhraseBeforeNextMessage(t *testing.T) {
	now := schedtest.Epoch
	client := newFakeClient()
	e := newTestEngine(t, client, WithClock(func() time.Time { return now }))

	// the loop never got to its timer: messages arrive straight after each
	// other while the clock moves on
	e.handle(contracts.MIDI{Command: 0x90, Note: 60, Velocity: 100})
	now = now.Add(300 * time.Millisecond)
	e.handle(contracts.MIDI{Command: 0x80, Note: 60})
	now = now.Add(1500 * time.Millisecond)
	e.handle(contracts.MIDI{Command: 0x90, Note: 67, Velocity: 100})

	st := e.session.Stats()
	if st.Replays != 1 || st.Interrupted != 1 {
		t.Fatalf("stats=%+v", st)
	}
	if n := e.session.PhraseLen(); n != 1 {
		t.Fatalf("phrase length=%d, want only the new note", n)
	}
	expectSent(t, client, contracts.MIDI{Command: 0x90, Note: 62, Velocity: 100})
	expectSent(t, client, contracts.MIDI{Command: 0x80, Note: 62, Velocity: 0})
}

func TestEngine_EventTime(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(t, client, WithSilenceThreshold(time.Second))
	now := time.Now()
	stamp := func(d time.Duration) uint64 { return uint64(now.Add(d).UnixNano()) }

	cases := []struct {
		name  string
		stamp uint64
		want  time.Time
	}{
		{"no stamp", 0, now},
		{"recent stamp", stamp(-200 * time.Millisecond), now.Add(-200 * time.Millisecond)},
		{"future stamp", stamp(50 * time.Millisecond), now},
		{"stale stamp", stamp(-time.Second), now},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := e.eventTime(c.stamp, now)
			if !got.Equal(c.want) {
				t.Fatalf("got %v, want %v", got, c.want)
			}
			if !strings.Contains(got.String(), "m=") {
				t.Fatalf("monotonic reading lost: %v", got)
			}
		})
	}
}
