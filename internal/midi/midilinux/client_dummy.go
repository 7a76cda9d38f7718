//go:build !linux
// +build !linux

package midilinux

import (
	"errors"

	"github.com/leandrodaf/continuator/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the dummy client.
var ErrUnavailable = errors.New("rtmidi MIDI functionality is not available on this platform")

type dummyMIDIClient struct {
	logger contracts.Logger
}

// NewMIDIClient returns a client that reports rtmidi as unavailable.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Info("Using dummy MIDI client for non-Linux system")
	return &dummyMIDIClient{logger: options.Logger}, nil
}

func (m *dummyMIDIClient) ListDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListDevices called on dummy MIDI client")
	return nil, ErrUnavailable
}

func (m *dummyMIDIClient) SelectDevice(deviceID int) error {
	m.logger.Warn("SelectDevice called on dummy MIDI client")
	return ErrUnavailable
}

func (m *dummyMIDIClient) StartCapture(eventChannel chan contracts.MIDI) {
	m.logger.Warn("StartCapture called on dummy MIDI client")
}

func (m *dummyMIDIClient) Stop() error {
	return nil
}

func (m *dummyMIDIClient) ListOutputDevices() ([]contracts.DeviceInfo, error) {
	m.logger.Warn("ListOutputDevices called on dummy MIDI client")
	return nil, ErrUnavailable
}

func (m *dummyMIDIClient) SelectOutputDevice(deviceID int) error {
	m.logger.Warn("SelectOutputDevice called on dummy MIDI client")
	return ErrUnavailable
}

func (m *dummyMIDIClient) Send(event contracts.MIDI) error {
	return ErrUnavailable
}

func (m *dummyMIDIClient) CloseOutput() error {
	return nil
}
