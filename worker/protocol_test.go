package worker

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	payload := []byte("a proof, or at least something shaped like one")
	require.NoError(t, WriteFrame(&buf, payload))

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestReadFrameRejectsOversizedLength(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))
	// overwrite the length prefix with something absurd
	big := make([]byte, 8)
	big[7] = 0xFF
	buf2 := bytes.NewBuffer(append(big, []byte{1, 2, 3}...))
	_, err := ReadFrame(buf2)
	assert.Error(t, err)
}

func TestResponseRoundTrip(t *testing.T) {
	for _, tc := range []struct {
		kind ResponseKind
		body []byte
	}{
		{ResponseProof, []byte("a proof")},
		{ResponseCancelled, nil},
		{ResponseError, []byte("boom")},
	} {
		frame := EncodeResponse(tc.kind, tc.body)
		kind, body, err := DecodeResponse(frame)
		require.NoError(t, err)
		assert.Equal(t, tc.kind, kind)
		assert.Equal(t, tc.body, body)
	}
}

func TestDecodeResponseRejectsEmptyFrame(t *testing.T) {
	_, _, err := DecodeResponse(nil)
	assert.Error(t, err)
}

func TestFrameEmptyPayload(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, nil))
	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Empty(t, got)
}
