package transcriber

import (
	"errors"
	"fmt"
)

// StreamError is a failure reported by the recognizer, either as an error
// message or as an abnormal close frame.
type StreamError struct {
	Code    int // websocket close code, zero for in-band error messages
	Message string
}

func (e *StreamError) Error() string {
	if e == nil {
		return "stream error"
	}
	if e.Code != 0 {
		return fmt.Sprintf("stream closed (%d): %s", e.Code, e.Message)
	}
	return "stream error: " + e.Message
}

// Fatal reports whether the server ended the session.
func (e *StreamError) Fatal() bool {
	return e != nil && e.Code != 0
}

// IsFatal reports whether err ended the streaming session.
func IsFatal(err error) bool {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Fatal()
	}
	return errors.Is(err, ErrNotConnected)
}
