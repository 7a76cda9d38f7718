// Package continuator listens to a MIDI input, waits for the player to pause,
// and answers by replaying the phrase transposed on a MIDI output.
//
// A minimal program:
//
//	client, err := midi.NewMIDIClient(contracts.WithMIDIEventFilter(continuator.NoteFilter))
//	if err != nil {
//		return err
//	}
//	engine, err := continuator.New(client)
//	if err != nil {
//		return err
//	}
//	return engine.Run(ctx)
package continuator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/leandrodaf/continuator/internal/logger"
	"github.com/leandrodaf/continuator/internal/phrase"
	"github.com/leandrodaf/continuator/internal/schedule"
	"github.com/leandrodaf/continuator/sdk/contracts"
	"go.uber.org/multierr"
)

// Errors returned by New and Run.
var (
	ErrNilClient       = errors.New("nil MIDI client")
	ErrNoInputDevices  = errors.New("no MIDI input devices available")
	ErrNoOutputDevices = errors.New("no MIDI output devices available")
	ErrDeviceNotFound  = errors.New("MIDI device not found")
	ErrAlreadyRunning  = errors.New("engine already running")
	ErrInvalidOption   = errors.New("invalid engine option")
)

// NoteFilter limits a client's capture to note messages.
var NoteFilter = contracts.MIDIEventFilter{
	Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
}

// Stats counts what the engine has done. See phrase.Stats.
type Stats = phrase.Stats

// State is the engine's position in its capture/replay cycle.
type State = phrase.State

const (
	Idle      = phrase.Idle
	Recording = phrase.Recording
	Replaying = phrase.Replaying
)

// Engine owns one input, one output and the phrase session between them.
//
// Everything that touches the session (incoming events, the silence timer,
// replay deliveries) runs on the goroutine executing Run, so a replay can be
// cancelled without racing its own deliveries.
type Engine struct {
	client  contracts.ClientMIDI
	options Options
	logger  contracts.Logger
	queue   *schedule.Queue
	session *phrase.Session
	events  chan contracts.MIDI

	mu      sync.Mutex
	running bool
	stats   Stats
	state   State

	closeOnce sync.Once
	closeErr  error
}

// New returns an engine that will use client for both input and output.
func New(client contracts.ClientMIDI, opts ...Option) (*Engine, error) {
	if client == nil {
		return nil, ErrNilClient
	}
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.SilenceThreshold <= 0 {
		return nil, fmt.Errorf("%w: silence threshold must be positive, got %s", ErrInvalidOption, options.SilenceThreshold)
	}
	if options.EventBuffer <= 0 {
		return nil, fmt.Errorf("%w: event buffer must be positive, got %d", ErrInvalidOption, options.EventBuffer)
	}
	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}

	e := &Engine{
		client:  client,
		options: options,
		logger:  options.Logger,
		queue:   schedule.NewQueue(options.Now),
		events:  make(chan contracts.MIDI, options.EventBuffer),
	}
	e.session = phrase.NewSession(e.queue, phrase.SinkFunc(e.send), options.Logger, phrase.Config{
		SilenceThreshold: options.SilenceThreshold,
		Transpose:        options.Transpose,
	})
	return e, nil
}

// Run selects the devices, starts capturing and processes input until ctx is
// done. On the way out it silences any replay still sounding and releases
// both devices. If no input or output device is available Run releases the
// client and returns an error without recording or sending anything. An
// Engine runs at most once.
func (e *Engine) Run(ctx context.Context) error {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return ErrAlreadyRunning
	}
	e.running = true
	e.mu.Unlock()

	if err := e.connect(); err != nil {
		return multierr.Append(err, e.Close())
	}
	e.client.StartCapture(e.events)
	e.logger.Info("Listening for phrases",
		e.logger.Field().Duration("silenceThreshold", e.options.SilenceThreshold),
		e.logger.Field().Int("transpose", e.options.Transpose))

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		e.arm(timer)
		select {
		case <-ctx.Done():
			return e.shutdown()
		case ev := <-e.events:
			e.handle(ev)
		case <-timer.C:
			e.queue.RunDue(e.queue.Now())
		}
		e.publish()
	}
}

// Close stops capturing and closes the output. Run calls it on exit; calling
// it again is harmless.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		e.closeErr = multierr.Append(
			wrapErr("stop input", e.client.Stop()),
			wrapErr("close output", e.client.CloseOutput()),
		)
	})
	return e.closeErr
}

// Stats returns a snapshot of the engine counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

// State returns the engine's position in its capture/replay cycle.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) connect() error {
	inputs, err := e.client.ListDevices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoInputDevices, err)
	}
	if len(inputs) == 0 {
		return ErrNoInputDevices
	}
	in, err := pickDevice(inputs, e.options.InputName, e.options.InputDevice)
	if err != nil {
		return fmt.Errorf("input: %w", err)
	}

	outputs, err := e.client.ListOutputDevices()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNoOutputDevices, err)
	}
	if len(outputs) == 0 {
		return ErrNoOutputDevices
	}
	out, err := pickDevice(outputs, e.options.OutputName, e.options.OutputDevice)
	if err != nil {
		return fmt.Errorf("output: %w", err)
	}

	if err := e.client.SelectDevice(in); err != nil {
		return fmt.Errorf("select input %q: %w", inputs[in].Name, err)
	}
	if err := e.client.SelectOutputDevice(out); err != nil {
		return fmt.Errorf("select output %q: %w", outputs[out].Name, err)
	}

	e.logger.Info("Using MIDI devices",
		e.logger.Field().String("input", inputs[in].String()),
		e.logger.Field().String("output", outputs[out].String()))
	return nil
}

// pickDevice resolves name (exact, then case-insensitive substring) or, when
// name is empty, checks index against the list.
func pickDevice(devices []contracts.DeviceInfo, name string, index int) (int, error) {
	if name != "" {
		for i, d := range devices {
			if d.Name == name {
				return i, nil
			}
		}
		lower := strings.ToLower(name)
		for i, d := range devices {
			if strings.Contains(strings.ToLower(d.Name), lower) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("%w: no device named %q", ErrDeviceNotFound, name)
	}
	if index < 0 || index >= len(devices) {
		return 0, fmt.Errorf("%w: index %d out of %d devices", ErrDeviceNotFound, index, len(devices))
	}
	return index, nil
}

// handle runs whatever fell due up to the message's time before the message
// itself, so a silence deadline that passed while the message waited in the
// channel still ends the phrase.
func (e *Engine) handle(ev contracts.MIDI) {
	at := e.eventTime(ev.Timestamp, e.queue.Now())
	e.queue.RunDue(at)
	e.session.HandleMessage(ev.Command, ev.Note, ev.Velocity, at)
}

// eventTime returns when a message stamped at stamp (Unix nanoseconds, 0 for
// none) was received. The driver stamp is used unless it is in the future or
// staler than a whole silence period, and is rebased onto now so the result
// keeps now's monotonic reading.
func (e *Engine) eventTime(stamp uint64, now time.Time) time.Time {
	if stamp == 0 {
		return now
	}
	age := now.Sub(time.Unix(0, int64(stamp)))
	if age < 0 || age >= e.options.SilenceThreshold {
		return now
	}
	return now.Add(-age)
}

func (e *Engine) send(status, note, velocity byte) error {
	return e.client.Send(contracts.MIDI{
		Timestamp: uint64(e.queue.Now().UnixNano()),
		Command:   status,
		Note:      note,
		Velocity:  velocity,
	})
}

// arm points timer at the earliest pending task.
func (e *Engine) arm(timer *time.Timer) {
	next, ok := e.queue.Next()
	if !ok {
		timer.Stop()
		return
	}
	d := next.Sub(e.queue.Now())
	if d < 0 {
		d = 0
	}
	timer.Reset(d)
}

func (e *Engine) publish() {
	stats, state := e.session.Stats(), e.session.State()
	e.mu.Lock()
	e.stats, e.state = stats, state
	e.mu.Unlock()
}

func (e *Engine) shutdown() error {
	e.session.Shutdown()
	e.publish()

	stats := e.Stats()
	e.logger.Info("Stopping",
		e.logger.Field().Uint64("messages", stats.Messages),
		e.logger.Field().Uint64("replays", stats.Replays),
		e.logger.Field().Uint64("interrupted", stats.Interrupted))
	return e.Close()
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
