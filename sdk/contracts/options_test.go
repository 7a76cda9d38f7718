package contracts

import "testing"

func TestMIDIEventFilter_Allows(t *testing.T) {
	f := &MIDIEventFilter{Commands: []MIDICommand{NoteOn, NoteOff}}
	for _, status := range []byte{0x80, 0x85, 0x8F, 0x90, 0x9F} {
		if !f.Allows(status) {
			t.Fatalf("status 0x%X rejected", status)
		}
	}
	for _, status := range []byte{0xA0, 0xB3, 0xC0, 0xF8, 0x40} {
		if f.Allows(status) {
			t.Fatalf("status 0x%X allowed", status)
		}
	}
	var none *MIDIEventFilter
	if !none.Allows(0xB0) {
		t.Fatalf("nil filter rejected a message")
	}
}
