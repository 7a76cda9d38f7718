//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/continuator/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the dummy client.
var ErrUnavailable = errors.New("winmm MIDI functionality is not available on this platform")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient initializes a dummy MIDI client for non-Windows systems.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI client for non-Windows system")
	return &dummyMIDIClient{
		logger: options.Logger,
	}, nil
}

// ListDevices reports that MIDI input is unavailable on this platform.
func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, ErrUnavailable
}

// SelectDevice reports that MIDI input is unavailable on this platform.
func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return ErrUnavailable
}

// StartCapture only logs; nothing will ever be captured.
func (m *dummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
}

// Stop is a no-op.
func (m *dummyMIDIClient) Stop() error {
	return nil
}

// ListOutputDevices reports that MIDI output is unavailable on this platform.
func (m *dummyMIDIClient) ListOutputDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListOutputDevices called on dummy MIDI client")
	return nil, ErrUnavailable
}

// SelectOutputDevice reports that MIDI output is unavailable on this platform.
func (m *dummyMIDIClient) SelectOutputDevice(deviceID int) error {
	m.logger.Warn("SelectOutputDevice called on dummy MIDI client")
	return ErrUnavailable
}

// Send always fails.
func (m *dummyMIDIClient) Send(event contracts.MIDI) error {
	return ErrUnavailable
}

// CloseOutput is a no-op.
func (m *dummyMIDIClient) CloseOutput() error {
	return nil
}
