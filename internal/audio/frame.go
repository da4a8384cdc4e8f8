package audio

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// FramePrefix marks a synthesized-audio text frame on the WebSocket. The
// payload after the prefix is base64-encoded 16-bit little-endian mono PCM.
const FramePrefix = "data:audio/raw;base64,"

// ErrNotAudioFrame indicates that a WebSocket text frame does not carry audio.
var ErrNotAudioFrame = errors.New("message is not an audio frame")

// EncodeFrame packs PCM samples into the data-URI text frame sent to clients.
func EncodeFrame(pcm []byte) string {
	return FramePrefix + base64.StdEncoding.EncodeToString(pcm)
}

// DecodeFrame unpacks a data-URI text frame back into PCM samples.
func DecodeFrame(message string) ([]byte, error) {
	payload, found := strings.CutPrefix(message, FramePrefix)
	if !found {
		return nil, ErrNotAudioFrame
	}

	pcm, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to decode audio frame payload: %w", err)
	}

	return pcm, nil
}

// IsAudioFrame reports whether a text frame carries synthesized audio.
func IsAudioFrame(message string) bool {
	return strings.HasPrefix(message, FramePrefix)
}
