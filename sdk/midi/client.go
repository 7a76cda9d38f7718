package midi

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/continuator/internal/midi/mididarwin"
	"github.com/leandrodaf/continuator/internal/midi/midilinux"
	"github.com/leandrodaf/continuator/internal/midi/midiwindows"
	"github.com/leandrodaf/continuator/sdk/contracts"
)

// ErrUnsupportedOS is returned when the operating system is not supported by the MIDI client.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI client initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,  // CoreMIDI
	"windows": midiwindows.NewMIDIClient, // winmm
	"linux":   midilinux.NewMIDIClient,   // rtmidi over ALSA
}

// NewClient initializes a MIDI client for the current operating system.
// It returns ErrUnsupportedOS for systems without a backend.
func NewClient(opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	return newClientFor(runtime.GOOS, opts)
}

func newClientFor(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if initializer, exists := clientInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}
