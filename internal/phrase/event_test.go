package phrase

import "testing"

func TestClassify_NoteRanges(t *testing.T) {
	for status := 0; status < 256; status++ {
		for _, vel := range []byte{0, 1, 64, 127} {
			got := Classify(byte(status), vel)
			var want Kind
			switch {
			case status >= 144 && status <= 159 && vel > 0:
				want = NoteOn
			case status >= 128 && status <= 159:
				want = NoteOff
			default:
				want = Other
			}
			if got != want {
				t.Fatalf("Classify(%d, %d) = %s, want %s", status, vel, got, want)
			}
		}
	}
}

func TestClassify_Examples(t *testing.T) {
	cases := []struct {
		name     string
		status   byte
		velocity byte
		want     Kind
	}{
		{"note on ch1", 0x90, 100, NoteOn},
		{"note on ch16", 0x9F, 1, NoteOn},
		{"note on zero velocity", 0x90, 0, NoteOff},
		{"note off ch1", 0x80, 0, NoteOff},
		{"note off with release velocity", 0x8A, 64, NoteOff},
		{"poly aftertouch", 0xA0, 10, Other},
		{"control change", 0xB0, 127, Other},
		{"data byte", 0x3C, 100, Other},
		{"clock", 0xF8, 0, Other},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Classify(c.status, c.velocity); got != c.want {
				t.Fatalf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestEvent_String(t *testing.T) {
	ev := Event{Kind: NoteOn, Status: 0x92, Note: 60, Velocity: 90}
	if got := ev.String(); got != "NoteOn(ch=3 note=60 vel=90)" {
		t.Fatalf("String() = %q", got)
	}
}
