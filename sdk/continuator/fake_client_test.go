package continuator

import (
	"sync"

	"github.com/leandrodaf/continuator/sdk/contracts"
)

// fakeClient is an in-memory contracts.ClientMIDI.
type fakeClient struct {
	mu sync.Mutex

	inputs   []contracts.DeviceInfo
	outputs  []contracts.DeviceInfo
	listErr  error
	stopErr  error
	closeErr error

	selectedIn  int
	selectedOut int
	capture     chan contracts.MIDI
	capturing   chan struct{}
	sent        chan contracts.MIDI
	sendCount   int
	stopped     bool
	closed      bool
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		inputs:      []contracts.DeviceInfo{{Name: "Midi Through Port-0"}, {Name: "Keystation 49 MIDI 1"}},
		outputs:     []contracts.DeviceInfo{{Name: "FLUID Synth"}, {Name: "Keystation 49 MIDI 1"}},
		selectedIn:  -1,
		selectedOut: -1,
		capturing:   make(chan struct{}),
		sent:        make(chan contracts.MIDI, 64),
	}
}

func (f *fakeClient) ListDevices() ([]contracts.DeviceInfo, error) {
	return f.inputs, f.listErr
}

func (f *fakeClient) SelectDevice(deviceID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedIn = deviceID
	return nil
}

func (f *fakeClient) StartCapture(eventChannel chan contracts.MIDI) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.capture = eventChannel
	close(f.capturing)
}

func (f *fakeClient) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return f.stopErr
}

func (f *fakeClient) ListOutputDevices() ([]contracts.DeviceInfo, error) {
	return f.outputs, f.listErr
}

func (f *fakeClient) SelectOutputDevice(deviceID int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.selectedOut = deviceID
	return nil
}

func (f *fakeClient) Send(event contracts.MIDI) error {
	f.mu.Lock()
	f.sendCount++
	f.mu.Unlock()
	f.sent <- event
	return nil
}

func (f *fakeClient) CloseOutput() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return f.closeErr
}

// play pushes a note message as a platform callback would.
func (f *fakeClient) play(status, note, velocity byte) {
	f.mu.Lock()
	ch := f.capture
	f.mu.Unlock()
	ch <- contracts.MIDI{Command: status, Note: note, Velocity: velocity}
}

func (f *fakeClient) sends() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sendCount
}
