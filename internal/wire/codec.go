// Package wire implements the SOOP chat gateway frame format: a
// 14-byte text-rendered header followed by a form-feed delimited body.
// The layout is reverse engineered and every constant here is a
// platform invariant.
package wire

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Service commands carried in the frame header. The gateway speaks
// many more; unknown ids must be tolerated by callers.
const (
	CmdPing             = 0
	CmdLogin            = 1
	CmdJoin             = 2
	CmdJoinPartUser     = 4
	CmdChat             = 5
	CmdUserTimeout      = 8
	CmdSetUserFlag      = 12
	CmdInOutManager     = 13
	CmdSubNickname      = 14
	CmdBalloon          = 18
	CmdIce1             = 19
	CmdIce2             = 21
	CmdSlowMode         = 23
	CmdBlockWordsList   = 54
	CmdSystemNotice     = 58
	CmdPoll             = 75
	CmdBalloonAd        = 87
	CmdStreamClosed     = 88
	CmdSubscriptionNew  = 91
	CmdSubscription     = 93
	CmdChannelNotice    = 104
	CmdBalloonAdStation = 107
	CmdSubscriptionGift = 108
	CmdChatOGQ          = 109
	CmdOGQGift          = 118
	CmdMission          = 121
)

const (
	// headerSize is the fixed header length: 2 magic bytes, 4-digit
	// command id, 6-digit body length, 2 literal '0' bytes.
	headerSize = 14
	// bodyOffset is where the incoming body starts. The byte at
	// offset 14 is skipped; its purpose is undocumented and the
	// offset is reproduced as observed on the wire.
	bodyOffset = 15

	magic0 = 0x1b
	magic1 = 0x09

	// FieldSep delimits the positional fields of a frame body.
	FieldSep = "\x0c"
	// ListSep delimits secondary lists nested inside a single field
	// (banned words, freeze eligibility entries).
	ListSep = "\x06"
	// PairSep delimits the role/tier halves of a flag field.
	PairSep = "|"

	// PingBody is the single control character body of a PING frame.
	PingBody = "\x0c"
)

// ConnectFrame is the fixed handshake frame sent immediately after the
// socket opens. The payload is opaque; it is reproduced byte for byte.
const ConnectFrame = "\x1b\x09\x30\x30\x30\x31\x30\x30\x30\x30\x30\x36\x30\x30\x0c\x0c\x0c\x31\x36\x0c"

// ErrBadFrame reports an incoming buffer whose header cannot be parsed.
var ErrBadFrame = errors.New("wire: malformed frame header")

// Frame is a decoded incoming frame.
type Frame struct {
	Command int
	Fields  []string
}

// Field returns the i-th positional field, or the empty string when
// the frame is shorter than the layout expects. Decoders use it so a
// truncated field list never faults.
func (f Frame) Field(i int) string {
	if i < 0 || i >= len(f.Fields) {
		return ""
	}
	return f.Fields[i]
}

// IntField parses the i-th field as a decimal integer, returning zero
// for absent or non-numeric fields.
func (f Frame) IntField(i int) int {
	n, err := strconv.Atoi(f.Field(i))
	if err != nil {
		return 0
	}
	return n
}

// Encode builds an outgoing frame for cmd with the given body. The
// body length is rendered in bytes.
func Encode(cmd int, body string) []byte {
	buf := make([]byte, 0, headerSize+len(body))
	buf = append(buf, magic0, magic1)
	buf = append(buf, fmt.Sprintf("%04d", cmd)...)
	buf = append(buf, fmt.Sprintf("%06d", len(body))...)
	buf = append(buf, '0', '0')
	buf = append(buf, body...)
	return buf
}

// Decode parses an incoming buffer into a Frame. The command id lives
// in header bytes [2,6); the content-length sub-field at [6,12) is
// present for format parity but not load bearing. The body is decoded
// as UTF-8 and split on FieldSep.
func Decode(buf []byte) (Frame, error) {
	if len(buf) < headerSize {
		return Frame{}, fmt.Errorf("%w: %d bytes", ErrBadFrame, len(buf))
	}
	cmd, err := strconv.Atoi(string(buf[2:6]))
	if err != nil {
		return Frame{}, fmt.Errorf("%w: command %q", ErrBadFrame, buf[2:6])
	}
	body := ""
	if len(buf) > bodyOffset {
		body = string(buf[bodyOffset:])
	}
	return Frame{Command: cmd, Fields: strings.Split(body, FieldSep)}, nil
}
