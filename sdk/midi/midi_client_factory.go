package midi

import (
	"github.com/leandrodaf/continuator/sdk/contracts"
)

// NewMIDIClient creates the platform MIDI client configured by opts.
//
// Unset options default to a production zap logger at info level and a
// CoreMIDI client named "Continuator".
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}

	client, err := NewClient(&options)
	if err != nil {
		return nil, err
	}

	return client, nil
}
