//go:build linux
// +build linux

package midilinux

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leandrodaf/continuator/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// Error definitions for MIDI connection and handling issues.
var (
	ErrDriverUnavailable   = errors.New("rtmidi driver unavailable")
	ErrNoMIDIDevices       = errors.New("no MIDI devices found")
	ErrInvalidMIDIDevice   = errors.New("invalid MIDI device")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI device")
	ErrNoOutputSelected    = errors.New("no MIDI output device selected")
	ErrClientStopped       = errors.New("MIDI client stopped")
)

// ClientMid manages MIDI input and output on Linux through rtmidi (ALSA).
type ClientMid struct {
	logger          contracts.Logger
	drv             *rtmididrv.Driver
	midiEventFilter *contracts.MIDIEventFilter
	eventChannel    atomic.Value // chan contracts.MIDI

	mu         sync.Mutex
	in         drivers.In
	stopListen func()
	capturing  bool
	out        drivers.Out
	send       func(msg midi.Message) error
	stopped    bool
}

// NewMIDIClient opens the rtmidi driver.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDriverUnavailable, err)
	}
	options.Logger.Info("MIDI client successfully created", options.Logger.Field().String("driver", drv.String()))

	return &ClientMid{
		logger:          options.Logger,
		drv:             drv,
		midiEventFilter: options.MIDIEventFilter,
	}, nil
}

// ListDevices returns the available input ports.
func (m *ClientMid) ListDevices() ([]contracts.DeviceInfo, error) {
	ins, err := m.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI inputs: %w", err)
	}
	if len(ins) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(ins))
	for i, in := range ins {
		devices[i] = contracts.DeviceInfo{Name: in.String(), EntityName: in.String()}
	}
	return devices, nil
}

// SelectDevice opens input port deviceID and starts listening. Messages are
// dropped until StartCapture provides a channel.
func (m *ClientMid) SelectDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return ErrClientStopped
	}
	ins, err := m.drv.Ins()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI inputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(ins) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	m.closeInputLocked()

	in := ins[deviceID]
	if err := in.Open(); err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	stop, err := midi.ListenTo(in, m.handleMessage, midi.HandleError(func(listenErr error) {
		m.logger.Warn("MIDI listener error",
			m.logger.Field().String("deviceName", in.String()),
			m.logger.Field().Error("error", listenErr))
	}))
	if err != nil {
		_ = in.Close()
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}

	m.in = in
	m.stopListen = stop
	m.logger.Info("MIDI device selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", in.String()))
	return nil
}

func (m *ClientMid) handleMessage(msg midi.Message, _ int32) {
	eventChannel, _ := m.eventChannel.Load().(chan contracts.MIDI)
	if eventChannel == nil {
		return
	}

	data := msg.Bytes()
	if len(data) < 3 {
		// program change, realtime clock and friends carry fewer bytes
		return
	}
	if !m.midiEventFilter.Allows(data[0]) {
		return
	}

	event := contracts.MIDI{
		Timestamp: uint64(time.Now().UnixNano()),
		Command:   data[0],
		Note:      data[1],
		Velocity:  data[2],
	}
	select {
	case eventChannel <- event:
	default:
		m.logger.Warn("Event buffer full; dropping MIDI event")
	}
}

// StartCapture starts forwarding input to eventChannel.
func (m *ClientMid) StartCapture(eventChannel chan contracts.MIDI) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if eventChannel == nil {
		m.logger.Error("StartCapture called with nil eventChannel")
		return
	}
	if m.in == nil {
		m.logger.Error("Cannot start capture: no MIDI device selected")
		return
	}
	if m.capturing {
		m.logger.Warn("Capture already started; replacing event channel")
	}

	m.logger.Info("Starting MIDI event capture")
	m.eventChannel.Store(eventChannel)
	m.capturing = true
}

// Stop stops capturing and closes the input port. The client cannot capture
// again afterwards.
func (m *ClientMid) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return nil
	}
	m.stopped = true
	m.closeInputLocked()
	m.logger.Info("MIDI capture stopped")
	return m.releaseDriverLocked()
}

func (m *ClientMid) closeInputLocked() {
	if m.stopListen != nil {
		m.stopListen()
		m.stopListen = nil
	}
	if m.in != nil {
		_ = m.in.Close()
		m.in = nil
	}
	m.capturing = false
	m.eventChannel.Store(make(chan contracts.MIDI))
}

// ListOutputDevices returns the available output ports.
func (m *ClientMid) ListOutputDevices() ([]contracts.DeviceInfo, error) {
	outs, err := m.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI outputs: %w", err)
	}
	if len(outs) == 0 {
		m.logger.Warn(ErrNoMIDIDevices.Error())
		return nil, ErrNoMIDIDevices
	}
	devices := make([]contracts.DeviceInfo, len(outs))
	for i, out := range outs {
		devices[i] = contracts.DeviceInfo{Name: out.String(), EntityName: out.String()}
	}
	return devices, nil
}

// SelectOutputDevice opens output port deviceID for Send.
func (m *ClientMid) SelectOutputDevice(deviceID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	outs, err := m.drv.Outs()
	if err != nil {
		return fmt.Errorf("error retrieving MIDI outputs: %w", err)
	}
	if deviceID < 0 || deviceID >= len(outs) {
		m.logger.Error(ErrInvalidMIDIDevice.Error(), m.logger.Field().Int("deviceID", deviceID))
		return ErrInvalidMIDIDevice
	}

	if m.out != nil {
		_ = m.out.Close()
		m.out, m.send = nil, nil
	}

	out := outs[deviceID]
	send, err := midi.SendTo(out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	m.out = out
	m.send = send
	m.logger.Info("MIDI output selected",
		m.logger.Field().Int("deviceID", deviceID),
		m.logger.Field().String("deviceName", out.String()))
	return nil
}

// Send writes one short message to the selected output.
func (m *ClientMid) Send(event contracts.MIDI) error {
	m.mu.Lock()
	send := m.send
	m.mu.Unlock()

	if send == nil {
		return ErrNoOutputSelected
	}
	return send(midi.Message{event.Command, event.Note, event.Velocity})
}

// CloseOutput closes the output port.
func (m *ClientMid) CloseOutput() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var err error
	if m.out != nil {
		err = m.out.Close()
		m.out, m.send = nil, nil
		m.logger.Info("MIDI output closed")
	}
	if relErr := m.releaseDriverLocked(); err == nil {
		err = relErr
	}
	return err
}

// releaseDriverLocked closes the driver once input is stopped and no output
// is open.
func (m *ClientMid) releaseDriverLocked() error {
	if !m.stopped || m.out != nil || m.drv == nil {
		return nil
	}
	err := m.drv.Close()
	m.drv = nil
	return err
}
