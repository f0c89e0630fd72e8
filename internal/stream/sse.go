// Package stream writes chain run events as server-sent events.
package stream

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"

	"horse.fit/telephone/internal/telephone"
)

// Frame is the wire form of one event.
type Frame struct {
	Type        telephone.EventType `json:"type"`
	CurrentStep int                 `json:"currentStep,omitempty"`
	TotalSteps  int                 `json:"totalSteps,omitempty"`
	Step        *telephone.Step     `json:"step,omitempty"`
	Result      *telephone.Result   `json:"result,omitempty"`
	Error       string              `json:"error,omitempty"`
}

// FrameOf converts an event to its wire form. Complete frames carry only the result.
func FrameOf(ev telephone.Event) Frame {
	switch ev.Type {
	case telephone.EventProgress:
		return Frame{Type: ev.Type, CurrentStep: ev.CurrentStep, TotalSteps: ev.TotalSteps, Step: ev.Step}
	case telephone.EventComplete:
		return Frame{Type: ev.Type, Result: ev.Result}
	default:
		message := "unknown error occurred"
		if ev.Err != nil {
			message = ev.Err.Error()
		}
		return Frame{Type: telephone.EventError, Error: message}
	}
}

// SetHeaders prepares a response for an event stream.
func SetHeaders(h http.Header) {
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
}

// Encoder writes one frame per event and flushes after each.
type Encoder struct {
	w       io.Writer
	flusher http.Flusher
	buf     bytes.Buffer
}

// NewEncoder wraps w. Writers that implement http.Flusher are flushed after every frame.
func NewEncoder(w io.Writer) *Encoder {
	flusher, _ := w.(http.Flusher)
	return &Encoder{w: w, flusher: flusher}
}

// Send writes ev as a "data:" frame. It blocks until the writer accepts the frame.
func (e *Encoder) Send(ev telephone.Event) error {
	payload, err := json.Marshal(FrameOf(ev))
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", ev.Type, err)
	}
	e.buf.Reset()
	e.buf.WriteString("data: ")
	e.buf.Write(payload)
	e.buf.WriteString("\n\n")
	if _, err := e.w.Write(e.buf.Bytes()); err != nil {
		return fmt.Errorf("write %s frame: %w", ev.Type, err)
	}
	if e.flusher != nil {
		e.flusher.Flush()
	}
	return nil
}

// Pump forwards events from seq to enc in order. It returns after the terminal
// event or at the first write failure; leaving the loop stops the run. tap, if
// set, sees every event that was written.
func Pump(seq iter.Seq[telephone.Event], enc *Encoder, tap func(telephone.Event)) error {
	for ev := range seq {
		if err := enc.Send(ev); err != nil {
			return err
		}
		if tap != nil {
			tap(ev)
		}
		if ev.Terminal() {
			return nil
		}
	}
	return nil
}
