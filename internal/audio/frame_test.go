package audio_test

import (
	"strings"
	"testing"

	"github.com/book-expert/voiceclone-service/internal/audio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeFrame_Prefix(t *testing.T) {
	t.Parallel()

	frame := audio.EncodeFrame([]byte{0x01, 0x02, 0x03})
	assert.True(t, strings.HasPrefix(frame, "data:audio/raw;base64,"))
	assert.True(t, audio.IsAudioFrame(frame))
}

func TestDecodeFrame_RoundTrip(t *testing.T) {
	t.Parallel()

	pcm := []byte{0x00, 0x7f, 0xff, 0x80, 0x01}
	frame := audio.EncodeFrame(pcm)

	got, err := audio.DecodeFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, pcm, got)
}

func TestDecodeFrame_RejectsOtherMessages(t *testing.T) {
	t.Parallel()

	_, err := audio.DecodeFrame(`{"error":"Please upload a reference audio file first."}`)
	require.ErrorIs(t, err, audio.ErrNotAudioFrame)
	assert.False(t, audio.IsAudioFrame("plain text"))
}

func TestDecodeFrame_BadBase64(t *testing.T) {
	t.Parallel()

	_, err := audio.DecodeFrame(audio.FramePrefix + "!!not-base64!!")
	require.Error(t, err)
}
