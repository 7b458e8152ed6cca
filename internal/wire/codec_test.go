package wire

import (
	"bytes"
	"strings"
	"testing"
)

// decode of an encoded frame has to cross the one skipped byte at
// offset 14, so round-trip tests prepend it the way the gateway does.
func gatewayFrame(cmd int, body string) []byte {
	buf := Encode(cmd, "\x00"+body)
	return buf
}

func TestEncodeHeaderLayout(t *testing.T) {
	frame := Encode(5, "hello")

	want := []byte("\x1b\x09" + "0005" + "000005" + "00" + "hello")
	if !bytes.Equal(frame, want) {
		t.Fatalf("Encode(5, hello) = %q, want %q", frame, want)
	}
}

func TestEncodeBodyLengthInBytes(t *testing.T) {
	// Multi-byte UTF-8 content must be counted in bytes, not runes.
	frame := Encode(2, "안녕")
	if got := string(frame[6:12]); got != "000006" {
		t.Fatalf("body length field = %q, want %q", got, "000006")
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		cmd    int
		body   string
		fields []string
	}{
		{"empty body", 0, "", []string{""}},
		{"single field", 5, "hello", []string{"hello"}},
		{"multiple fields", 5, "a\x0cb\x0cc", []string{"a", "b", "c"}},
		{"trailing separator", 2, "x\x0c", []string{"x", ""}},
		{"max command id", 9999, "body", []string{"body"}},
		{"unicode fields", 5, "안녕\x0cuser", []string{"안녕", "user"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame, err := Decode(gatewayFrame(tt.cmd, tt.body))
			if err != nil {
				t.Fatalf("Decode returned error: %v", err)
			}
			if frame.Command != tt.cmd {
				t.Errorf("command = %d, want %d", frame.Command, tt.cmd)
			}
			if len(frame.Fields) != len(tt.fields) {
				t.Fatalf("fields = %q, want %q", frame.Fields, tt.fields)
			}
			for i := range tt.fields {
				if frame.Fields[i] != tt.fields[i] {
					t.Errorf("field %d = %q, want %q", i, frame.Fields[i], tt.fields[i])
				}
			}
		})
	}
}

func TestDecodeSkipsByteAfterHeader(t *testing.T) {
	// The body starts at offset 15; whatever sits at offset 14 must
	// never leak into the first field.
	raw := append([]byte("\x1b\x09"+"0005"+"000006"+"00"), 'X')
	raw = append(raw, "hello"...)

	frame, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if frame.Fields[0] != "hello" {
		t.Fatalf("first field = %q, want %q", frame.Fields[0], "hello")
	}
}

func TestDecodeMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  []byte
	}{
		{"short buffer", []byte("\x1b\x090005")},
		{"non-numeric command", []byte("\x1b\x09" + "ABCD" + "000000" + "00" + "\x00")},
		{"empty buffer", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Decode(tt.raw); err == nil {
				t.Fatalf("Decode(%q) succeeded, want error", tt.raw)
			}
		})
	}
}

func TestDecodeHeaderOnly(t *testing.T) {
	frame, err := Decode([]byte("\x1b\x09" + "0088" + "000000" + "00"))
	if err != nil {
		t.Fatalf("Decode returned error: %v", err)
	}
	if frame.Command != CmdStreamClosed {
		t.Errorf("command = %d, want %d", frame.Command, CmdStreamClosed)
	}
	if len(frame.Fields) != 1 || frame.Fields[0] != "" {
		t.Errorf("fields = %q, want one empty field", frame.Fields)
	}
}

func TestFrameFieldLenient(t *testing.T) {
	frame := Frame{Command: CmdChat, Fields: []string{"only"}}

	if got := frame.Field(0); got != "only" {
		t.Errorf("Field(0) = %q", got)
	}
	if got := frame.Field(7); got != "" {
		t.Errorf("Field(7) = %q, want empty", got)
	}
	if got := frame.IntField(7); got != 0 {
		t.Errorf("IntField(7) = %d, want 0", got)
	}
}

func TestConnectFrameShape(t *testing.T) {
	// The handshake literal is opaque but still has to carry a valid
	// header claiming command 1 and a 6 byte body.
	if !strings.HasPrefix(ConnectFrame, "\x1b\x09") {
		t.Fatal("connect frame missing magic bytes")
	}
	if got := ConnectFrame[2:6]; got != "0001" {
		t.Errorf("connect frame command = %q, want %q", got, "0001")
	}
	if got := ConnectFrame[6:12]; got != "000006" {
		t.Errorf("connect frame length = %q, want %q", got, "000006")
	}
}
