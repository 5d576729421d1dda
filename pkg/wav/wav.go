// Package wav converts raw 16-bit linear PCM audio to and from the
// uncompressed RIFF/WAVE container format.
//
// Generative speech APIs deliver synthesized audio as a base64-encoded stream
// of little-endian int16 mono samples with no container around them. This
// package turns such a payload into a playable .wav file ([DecodeBase64]
// followed by [Encode]) and reads it back ([Decode]) for verification or
// downstream processing.
//
// All functions are pure: they never retry, never block, and allocate only
// their output buffer. Malformed input is a terminal condition — callers must
// surface the error rather than retry, since the input will not become valid
// on a second attempt.
package wav

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"time"
)

// WAV container constants. Only uncompressed 16-bit mono PCM is supported.
const (
	// HeaderSize is the fixed size in bytes of the RIFF/fmt/data header
	// written by [Encode].
	HeaderSize = 44

	formatPCM     = 1
	numChannels   = 1
	bitsPerSample = 16
	bytesPerFrame = numChannels * bitsPerSample / 8
)

// DecodeError reports a payload that is not valid standard-alphabet base64.
type DecodeError struct {
	err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wav: invalid base64 payload: %v", e.err)
}

func (e *DecodeError) Unwrap() error { return e.err }

// MalformedAudioError reports PCM data or container bytes that cannot
// represent 16-bit mono audio.
type MalformedAudioError struct {
	Reason string
}

func (e *MalformedAudioError) Error() string {
	return "wav: malformed audio: " + e.Reason
}

// DecodeBase64 decodes a standard-alphabet base64 string into raw bytes.
// It applies no transformation beyond the decoding itself; the result is the
// exact byte sequence that was encoded. Returns a [*DecodeError] if s contains
// characters outside the base64 alphabet or has invalid padding.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, &DecodeError{err: err}
	}
	return data, nil
}

// Encode wraps raw little-endian int16 mono PCM bytes in a WAV container.
//
// The output is a single buffer of exactly 44+len(pcm) bytes: the RIFF chunk
// descriptor, a 16-byte "fmt " sub-chunk describing PCM/mono/16-bit at
// sampleRate, and a "data" sub-chunk followed by the untouched sample bytes.
// All multi-byte header fields are little-endian and reflect the exact
// payload length.
//
// Returns a [*MalformedAudioError] if len(pcm) is odd (a whole number of
// 16-bit samples is required) or sampleRate is not positive.
func Encode(pcm []byte, sampleRate int) ([]byte, error) {
	if len(pcm)%2 != 0 {
		return nil, &MalformedAudioError{
			Reason: fmt.Sprintf("odd byte count %d for int16 samples", len(pcm)),
		}
	}
	if sampleRate <= 0 {
		return nil, &MalformedAudioError{
			Reason: fmt.Sprintf("sample rate must be positive, got %d", sampleRate),
		}
	}

	le := binary.LittleEndian
	out := make([]byte, HeaderSize+len(pcm))

	// RIFF chunk descriptor.
	copy(out[0:4], "RIFF")
	le.PutUint32(out[4:8], uint32(HeaderSize-8+len(pcm)))
	copy(out[8:12], "WAVE")

	// "fmt " sub-chunk.
	copy(out[12:16], "fmt ")
	le.PutUint32(out[16:20], 16)
	le.PutUint16(out[20:22], formatPCM)
	le.PutUint16(out[22:24], numChannels)
	le.PutUint32(out[24:28], uint32(sampleRate))
	le.PutUint32(out[28:32], uint32(sampleRate*bytesPerFrame))
	le.PutUint16(out[32:34], bytesPerFrame)
	le.PutUint16(out[34:36], bitsPerSample)

	// "data" sub-chunk.
	copy(out[36:40], "data")
	le.PutUint32(out[40:44], uint32(len(pcm)))
	copy(out[HeaderSize:], pcm)

	return out, nil
}

// Decode parses a WAV container produced by [Encode] (or any standard
// PCM/mono/16-bit WAV with the canonical 44-byte header) and returns the raw
// sample bytes and the sample rate. The returned slice aliases data.
func Decode(data []byte) (pcm []byte, sampleRate int, err error) {
	if len(data) < HeaderSize {
		return nil, 0, &MalformedAudioError{
			Reason: fmt.Sprintf("need at least %d bytes, got %d", HeaderSize, len(data)),
		}
	}
	if string(data[0:4]) != "RIFF" {
		return nil, 0, &MalformedAudioError{Reason: "missing RIFF header"}
	}
	if string(data[8:12]) != "WAVE" {
		return nil, 0, &MalformedAudioError{Reason: "missing WAVE format tag"}
	}
	if string(data[12:16]) != "fmt " {
		return nil, 0, &MalformedAudioError{Reason: "missing fmt sub-chunk"}
	}
	if string(data[36:40]) != "data" {
		return nil, 0, &MalformedAudioError{Reason: "missing data sub-chunk"}
	}

	le := binary.LittleEndian
	if f := le.Uint16(data[20:22]); f != formatPCM {
		return nil, 0, &MalformedAudioError{
			Reason: fmt.Sprintf("unsupported audio format %d, only PCM is supported", f),
		}
	}
	if ch := le.Uint16(data[22:24]); ch != numChannels {
		return nil, 0, &MalformedAudioError{
			Reason: fmt.Sprintf("unsupported channel count %d, only mono is supported", ch),
		}
	}
	if bits := le.Uint16(data[34:36]); bits != bitsPerSample {
		return nil, 0, &MalformedAudioError{
			Reason: fmt.Sprintf("unsupported bit depth %d, only 16-bit is supported", bits),
		}
	}

	rate := int(le.Uint32(data[24:28]))
	if rate <= 0 {
		return nil, 0, &MalformedAudioError{Reason: "sample rate is zero"}
	}

	size := int(le.Uint32(data[40:44]))
	if size > len(data)-HeaderSize {
		return nil, 0, &MalformedAudioError{
			Reason: fmt.Sprintf("data chunk declares %d bytes but only %d remain", size, len(data)-HeaderSize),
		}
	}

	return data[HeaderSize : HeaderSize+size], rate, nil
}

// FileInfo summarises the audio parameters of a WAV container.
type FileInfo struct {
	SampleRate int
	Samples    int
	Duration   time.Duration
}

// Info extracts [FileInfo] from a WAV container without copying the samples.
func Info(data []byte) (*FileInfo, error) {
	pcm, rate, err := Decode(data)
	if err != nil {
		return nil, err
	}
	samples := len(pcm) / 2
	return &FileInfo{
		SampleRate: rate,
		Samples:    samples,
		Duration:   time.Duration(samples) * time.Second / time.Duration(rate),
	}, nil
}

// Duration reports the playback duration of a WAV container.
func Duration(data []byte) (time.Duration, error) {
	info, err := Info(data)
	if err != nil {
		return 0, err
	}
	return info.Duration, nil
}
