//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/continuator/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the dummy client.
var ErrUnavailable = errors.New("CoreMIDI functionality is not available on this platform")

// DummyMIDIClient stands in for the CoreMIDI client off macOS.
type DummyMIDIClient struct {
	logger contracts.Logger
}

func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI client for non-macOS system")
	return &DummyMIDIClient{
		logger: options.Logger,
	}, nil
}

func (m *DummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, ErrUnavailable
}

func (m *DummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return ErrUnavailable
}

func (m *DummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
}

func (m *DummyMIDIClient) Stop() error {
	return nil
}

func (m *DummyMIDIClient) ListOutputDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListOutputDevices called on dummy MIDI client")
	return nil, ErrUnavailable
}

func (m *DummyMIDIClient) SelectOutputDevice(deviceID int) error {
	m.logger.Warn("SelectOutputDevice called on dummy MIDI client")
	return ErrUnavailable
}

func (m *DummyMIDIClient) Send(event contracts.MIDI) error {
	return ErrUnavailable
}

func (m *DummyMIDIClient) CloseOutput() error {
	return nil
}
