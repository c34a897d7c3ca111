package sse

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

const (
	dataPrefix   = "data: "
	doneSentinel = "[DONE]"
)

// BackendError carries an error reported inside the stream itself,
// as opposed to a transport failure.
type BackendError struct {
	Message string
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend reported error: %s", e.Message)
}

// event is the wire payload carried by each "data: " line. Two delta shapes
// occur in the wild: a bare top-level content field, and the OpenAI chat
// completion chunk where the text sits under choices[].delta.
type event struct {
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices,omitempty"`
}

// delta returns the content carried by the event, whichever shape it uses.
func (ev *event) delta() string {
	if ev.Content != "" {
		return ev.Content
	}
	if len(ev.Choices) > 0 {
		return ev.Choices[0].Delta.Content
	}
	return ""
}

// Decoder turns a chunked completion stream into an ordered sequence of
// content deltas. Each call to Next consumes lines until it can return the
// next delta, io.EOF on the [DONE] sentinel or end of stream, or an error.
//
// Lines without the "data: " prefix are ignored. A line whose payload fails
// to parse is skipped with a diagnostic and never terminates the sequence.
// The decoder is single-pass: no line is ever reprocessed.
type Decoder struct {
	scanner *bufio.Scanner
	done    bool

	// Diagnostic hook for skipped lines. Optional.
	OnSkip func(line string, err error)
}

func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	// Buffer for long delta lines
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	return &Decoder{scanner: scanner}
}

// Next returns the next content delta. It returns io.EOF after the sentinel
// line or when the underlying stream ends, and *BackendError when a decoded
// event carries an error field.
func (d *Decoder) Next() (string, error) {
	if d.done {
		return "", io.EOF
	}

	for d.scanner.Scan() {
		line := strings.TrimSpace(d.scanner.Text())
		if !strings.HasPrefix(line, dataPrefix) {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, dataPrefix))

		if payload == doneSentinel {
			d.done = true
			return "", io.EOF
		}

		var ev event
		if err := json.Unmarshal([]byte(payload), &ev); err != nil {
			d.skip(line, err)
			continue
		}

		if ev.Error != "" {
			d.done = true
			return "", &BackendError{Message: ev.Error}
		}

		// Empty deltas are legal keep-alive events
		content := ev.delta()
		if content == "" {
			continue
		}

		return content, nil
	}

	d.done = true
	if err := d.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (d *Decoder) skip(line string, err error) {
	if d.OnSkip != nil {
		d.OnSkip(line, err)
	}
}
