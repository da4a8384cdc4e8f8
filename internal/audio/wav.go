// Package audio provides the PCM and WAV handling used on both sides of the
// voice-clone wire: the server decodes engine output and the client wraps
// received samples into a playable file.
package audio

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// WAV container constants for 16-bit PCM.
const (
	wavHeaderSize   = 44
	riffHeaderSize  = 12
	pcmFormatCode   = 1
	bitsPerSample   = 16
	bytesPerSample  = 2
	fmtChunkMinSize = 16
)

var (
	// ErrEmptyPCM indicates that there are no samples to encode.
	ErrEmptyPCM = errors.New("pcm data cannot be empty")
	// ErrInvalidSampleRate indicates a non-positive sample rate.
	ErrInvalidSampleRate = errors.New("sample rate must be positive")
	// ErrNotWAV indicates that the data does not carry a RIFF/WAVE header.
	ErrNotWAV = errors.New("data is not a WAV file")
	// ErrUnsupportedFormat indicates a WAV encoding other than 16-bit PCM.
	ErrUnsupportedFormat = errors.New("unsupported WAV format: expected 16-bit PCM")
	// ErrTruncatedWAV indicates the container is shorter than its chunks claim.
	ErrTruncatedWAV = errors.New("truncated WAV data")
)

// EncodeWAV wraps 16-bit little-endian mono PCM samples in a WAV container.
func EncodeWAV(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm) == 0 {
		return nil, ErrEmptyPCM
	}

	if sampleRate <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidSampleRate, sampleRate)
	}

	const channels = 1

	byteRate := sampleRate * channels * bytesPerSample
	blockAlign := channels * bytesPerSample

	out := make([]byte, wavHeaderSize+len(pcm))

	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(wavHeaderSize-8+len(pcm)))
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], fmtChunkMinSize)
	binary.LittleEndian.PutUint16(out[20:22], pcmFormatCode)
	binary.LittleEndian.PutUint16(out[22:24], channels)
	binary.LittleEndian.PutUint32(out[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], bitsPerSample)

	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[wavHeaderSize:], pcm)

	return out, nil
}

// ParseWAV extracts 16-bit PCM samples and the sample rate from a WAV
// container. Multi-channel audio is downmixed to mono by averaging the
// interleaved samples, matching how reference audio is conditioned.
func ParseWAV(data []byte) ([]byte, int, error) {
	if len(data) < riffHeaderSize ||
		string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return nil, 0, ErrNotWAV
	}

	var (
		sampleRate int
		channels   int
		pcm        []byte
		haveFmt    bool
		haveData   bool
	)

	offset := riffHeaderSize
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8

		if body+chunkSize > len(data) {
			return nil, 0, ErrTruncatedWAV
		}

		switch chunkID {
		case "fmt ":
			if chunkSize < fmtChunkMinSize {
				return nil, 0, ErrTruncatedWAV
			}

			format := binary.LittleEndian.Uint16(data[body : body+2])
			channels = int(binary.LittleEndian.Uint16(data[body+2 : body+4]))
			sampleRate = int(binary.LittleEndian.Uint32(data[body+4 : body+8]))
			bits := binary.LittleEndian.Uint16(data[body+14 : body+16])

			if format != pcmFormatCode || bits != bitsPerSample || channels < 1 {
				return nil, 0, ErrUnsupportedFormat
			}

			haveFmt = true
		case "data":
			pcm = data[body : body+chunkSize]
			haveData = true
		}

		// Chunks are word aligned.
		offset = body + chunkSize + chunkSize%2
	}

	if !haveFmt || !haveData {
		return nil, 0, ErrNotWAV
	}

	if channels > 1 {
		pcm = downmix(pcm, channels)
	}

	return pcm, sampleRate, nil
}

// downmix averages interleaved 16-bit samples across channels.
func downmix(pcm []byte, channels int) []byte {
	frames := len(pcm) / (bytesPerSample * channels)
	mono := make([]byte, frames*bytesPerSample)

	for frame := range frames {
		var sum int

		for channel := range channels {
			idx := (frame*channels + channel) * bytesPerSample
			sum += int(int16(binary.LittleEndian.Uint16(pcm[idx : idx+2])))
		}

		avg := sum / channels
		binary.LittleEndian.PutUint16(mono[frame*bytesPerSample:], uint16(int16(avg)))
	}

	return mono
}
