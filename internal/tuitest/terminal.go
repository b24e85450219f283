package tuitest

import (
	"bytes"
	"io"
)

// terminalReply answers a capability query the way a dark xterm would, so
// lipgloss settles on a background without waiting for a timeout.
type terminalReply struct {
	query, reply []byte
}

var terminalReplies = []terminalReply{
	{[]byte("\x1b[6n"), []byte("\x1b[1;1R")},
	{[]byte("\x1b]10;?\x07"), []byte("\x1b]10;rgb:ffff/e6e6/f2f2\x07")},
	{[]byte("\x1b]10;?\x1b\\"), []byte("\x1b]10;rgb:ffff/e6e6/f2f2\x1b\\")},
	{[]byte("\x1b]11;?\x07"), []byte("\x1b]11;rgb:1c1c/1212/2222\x07")},
	{[]byte("\x1b]11;?\x1b\\"), []byte("\x1b]11;rgb:1c1c/1212/2222\x1b\\")},
}

const (
	responderBufferLimit = 256
	responderTail        = 64
)

type terminalResponder struct {
	w   io.Writer
	buf []byte
}

func newTerminalResponder(w io.Writer) *terminalResponder {
	return &terminalResponder{w: w, buf: make([]byte, 0, responderBufferLimit)}
}

// Process feeds program output through the responder. Queries split across
// reads are still answered, in the order they were written.
func (tr *terminalResponder) Process(chunk []byte) {
	tr.buf = append(tr.buf, chunk...)
	for tr.answerNext() {
	}
	if len(tr.buf) > responderBufferLimit {
		tr.buf = tr.buf[len(tr.buf)-responderTail:]
	}
}

func (tr *terminalResponder) answerNext() bool {
	first, end := -1, 0
	var reply []byte
	for _, r := range terminalReplies {
		idx := bytes.Index(tr.buf, r.query)
		if idx < 0 || (first >= 0 && idx >= first) {
			continue
		}
		first, end, reply = idx, idx+len(r.query), r.reply
	}
	if first < 0 {
		return false
	}
	tr.buf = tr.buf[end:]
	_, _ = tr.w.Write(reply)
	return true
}
