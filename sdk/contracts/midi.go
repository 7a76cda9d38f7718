package contracts

// MIDI represents a MIDI event with a timestamp, command, note, and velocity.
type MIDI struct {
	Timestamp uint64 // Timestamp is the arrival time in Unix nanoseconds; zero means "now".
	Command   byte   // Command is the raw status byte, channel nibble included (e.g. 0x93).
	Note      byte   // Note represents the MIDI note number (0-127).
	Velocity  byte   // Velocity indicates the strength of the note being played (0-127).
}

// ClientMIDI defines an interface for MIDI client operations.
//
// The input half (ListDevices, SelectDevice, StartCapture, Stop) delivers
// events from one selected source. The output half (ListOutputDevices,
// SelectOutputDevice, Send, CloseOutput) writes to one selected destination.
type ClientMIDI interface {
	Stop() error                         // Stops capturing and disconnects the input device.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI input devices.
	SelectDevice(deviceID int) error     // Selects a MIDI input device by its ID.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI events and sends them to the specified channel.

	ListOutputDevices() ([]DeviceInfo, error) // Lists all available MIDI output devices.
	SelectOutputDevice(deviceID int) error    // Selects and opens a MIDI output device by its ID.
	Send(event MIDI) error                    // Writes a single short message to the selected output.
	CloseOutput() error                       // Closes the output device.
}
