package sse

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func drain(t *testing.T, d *Decoder) ([]string, error) {
	t.Helper()
	var deltas []string
	for {
		delta, err := d.Next()
		if err != nil {
			return deltas, err
		}
		deltas = append(deltas, delta)
	}
}

func TestDecoderBasicStream(t *testing.T) {
	raw := "data: {\"content\":\"Hel\"}\n" +
		"data: {\"content\":\"lo\"}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(raw))
	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
}

func TestDecoderSkipsNonDataLines(t *testing.T) {
	raw := ": keep-alive comment\n" +
		"event: message\n" +
		"data: {\"content\":\"A\"}\n" +
		"\n" +
		"data: {\"content\":\"B\"}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(raw))
	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"A", "B"}, deltas)
}

func TestDecoderMalformedLineDoesNotAbort(t *testing.T) {
	raw := "data: {\"content\":\"A\"}\n" +
		"data: {not json at all\n" +
		"data: {\"content\":\"B\"}\n" +
		"data: [DONE]\n"

	var skipped []string
	d := NewDecoder(strings.NewReader(raw))
	d.OnSkip = func(line string, err error) {
		skipped = append(skipped, line)
		assert.Error(t, err)
	}

	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"A", "B"}, deltas)
	assert.Len(t, skipped, 1)
}

func TestDecoderBackendError(t *testing.T) {
	raw := "data: {\"content\":\"partial\"}\n" +
		"data: {\"error\":\"model overloaded\"}\n" +
		"data: {\"content\":\"never seen\"}\n"

	d := NewDecoder(strings.NewReader(raw))

	delta, err := d.Next()
	assert.NoError(t, err)
	assert.Equal(t, "partial", delta)

	_, err = d.Next()
	var backendErr *BackendError
	assert.ErrorAs(t, err, &backendErr)
	assert.Equal(t, "model overloaded", backendErr.Message)

	// Terminal: everything after the error is EOF
	_, err = d.Next()
	assert.Equal(t, io.EOF, err)
}

func TestDecoderStreamEndsWithoutSentinel(t *testing.T) {
	raw := "data: {\"content\":\"only\"}\n"

	d := NewDecoder(strings.NewReader(raw))
	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"only"}, deltas)
}

func TestDecoderChatCompletionChunks(t *testing.T) {
	raw := "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"lo\"}}]}\n" +
		"data: {\"choices\":[{\"delta\":{}}]}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(raw))
	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"Hel", "lo"}, deltas)
}

func TestDecoderMixedDeltaShapes(t *testing.T) {
	raw := "data: {\"content\":\"A\"}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"B\"}}]}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(raw))
	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"A", "B"}, deltas)
}

func TestDecoderEmptyDeltasIgnored(t *testing.T) {
	raw := "data: {\"content\":\"\"}\n" +
		"data: {\"content\":\"x\"}\n" +
		"data: [DONE]\n"

	d := NewDecoder(strings.NewReader(raw))
	deltas, err := drain(t, d)

	assert.Equal(t, io.EOF, err)
	assert.Equal(t, []string{"x"}, deltas)
}
