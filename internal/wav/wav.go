package wav

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// HeaderSize is the length of the canonical PCM WAV header.
const HeaderSize = 44

const (
	fmtChunkSize = 16
	formatPCM    = 1
)

// ErrInvalidFormat is returned when framing parameters cannot describe a PCM stream.
var ErrInvalidFormat = errors.New("invalid pcm format")

// Header is the decoded form of a canonical 44-byte PCM WAV header.
type Header struct {
	FileSize      uint32 // total file size minus 8
	AudioFormat   uint16
	Channels      uint16
	SampleRate    uint32
	ByteRate      uint32
	BlockAlign    uint16
	BitsPerSample uint16
	DataSize      uint32
}

// Duration returns the playback length of the data chunk.
func (h Header) Duration() time.Duration {
	if h.ByteRate == 0 {
		return 0
	}
	return time.Duration(float64(h.DataSize) / float64(h.ByteRate) * float64(time.Second))
}

// SampleWidth converts a bit depth into bytes per sample.
// Depths that are not a positive multiple of 8 are rejected rather than truncated.
func SampleWidth(bitDepth int) (uint16, error) {
	if bitDepth <= 0 || bitDepth%8 != 0 {
		return 0, fmt.Errorf("%w: bit depth %d is not a multiple of 8", ErrInvalidFormat, bitDepth)
	}
	width := bitDepth / 8
	if width > 4 {
		return 0, fmt.Errorf("%w: bit depth %d exceeds 32", ErrInvalidFormat, bitDepth)
	}
	return uint16(width), nil
}

// Frame wraps raw little-endian PCM samples in a WAV container.
// The sample bytes are copied after the header unchanged.
func Frame(pcm []byte, sampleRate uint32, channels, sampleWidth uint16) ([]byte, error) {
	switch {
	case sampleWidth < 1 || sampleWidth > 4:
		return nil, fmt.Errorf("%w: sample width %d not in 1..4", ErrInvalidFormat, sampleWidth)
	case channels < 1:
		return nil, fmt.Errorf("%w: channel count must be >= 1", ErrInvalidFormat)
	case sampleRate < 1:
		return nil, fmt.Errorf("%w: sample rate must be >= 1", ErrInvalidFormat)
	}
	if uint64(len(pcm)) > uint64(^uint32(0))-36 {
		return nil, fmt.Errorf("%w: %d bytes of audio exceed the RIFF size limit", ErrInvalidFormat, len(pcm))
	}

	dataSize := uint32(len(pcm))
	le := binary.LittleEndian
	out := make([]byte, HeaderSize+len(pcm))

	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], 36+dataSize)
	copy(out[8:12], "WAVE")

	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], fmtChunkSize)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], channels)
	le.PutUint32(out[24:28], sampleRate)
	le.PutUint32(out[28:32], sampleRate*uint32(channels)*uint32(sampleWidth))
	le.PutUint16(out[32:34], channels*sampleWidth)
	le.PutUint16(out[34:36], sampleWidth*8)

	copy(out[36:40], "data")
	le.PutUint32(out[40:44], dataSize)
	copy(out[HeaderSize:], pcm)

	return out, nil
}

// ParseHeader decodes the header produced by Frame.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("wav data too short: need %d bytes, got %d", HeaderSize, len(b))
	}
	if string(b[0:4]) != "RIFF" {
		return Header{}, errors.New("invalid wav: missing RIFF marker")
	}
	if string(b[8:12]) != "WAVE" {
		return Header{}, errors.New("invalid wav: missing WAVE marker")
	}
	if string(b[12:16]) != "fmt " {
		return Header{}, errors.New("invalid wav: missing fmt chunk")
	}
	if string(b[36:40]) != "data" {
		return Header{}, errors.New("invalid wav: missing data chunk")
	}

	le := binary.LittleEndian
	return Header{
		FileSize:      le.Uint32(b[4:8]),
		AudioFormat:   le.Uint16(b[20:22]),
		Channels:      le.Uint16(b[22:24]),
		SampleRate:    le.Uint32(b[24:28]),
		ByteRate:      le.Uint32(b[28:32]),
		BlockAlign:    le.Uint16(b[32:34]),
		BitsPerSample: le.Uint16(b[34:36]),
		DataSize:      le.Uint32(b[40:44]),
	}, nil
}
