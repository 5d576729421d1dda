package wav_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"
	"time"

	"github.com/voxtools/voxify/pkg/wav"
)

func TestDecodeBase64(t *testing.T) {
	got, err := wav.DecodeBase64("SGVsbG8=")
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	want := []byte{72, 101, 108, 108, 111} // "Hello"
	if !bytes.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestDecodeBase64_Empty(t *testing.T) {
	got, err := wav.DecodeBase64("")
	if err != nil {
		t.Fatalf("DecodeBase64: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty output, got %d bytes", len(got))
	}
}

func TestDecodeBase64_InvalidAlphabet(t *testing.T) {
	_, err := wav.DecodeBase64("not!valid")
	var de *wav.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestDecodeBase64_BadPadding(t *testing.T) {
	_, err := wav.DecodeBase64("SGVsbG8")
	var de *wav.DecodeError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DecodeError, got %v", err)
	}
}

func TestEncode_HeaderLayout(t *testing.T) {
	pcm := []byte{0x00, 0x01, 0x00, 0x02}
	out, err := wav.Encode(pcm, 16000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) != 48 {
		t.Fatalf("total length: got %d, want 48", len(out))
	}

	le := binary.LittleEndian
	if got := string(out[0:4]); got != "RIFF" {
		t.Errorf("chunk id: got %q, want \"RIFF\"", got)
	}
	if got := le.Uint32(out[4:8]); got != 40 {
		t.Errorf("chunk size: got %d, want 40", got)
	}
	if got := string(out[8:12]); got != "WAVE" {
		t.Errorf("format: got %q, want \"WAVE\"", got)
	}
	if got := string(out[12:16]); got != "fmt " {
		t.Errorf("fmt id: got %q, want \"fmt \"", got)
	}
	if got := le.Uint32(out[16:20]); got != 16 {
		t.Errorf("fmt size: got %d, want 16", got)
	}
	if got := le.Uint16(out[20:22]); got != 1 {
		t.Errorf("audio format: got %d, want 1 (PCM)", got)
	}
	if got := le.Uint16(out[22:24]); got != 1 {
		t.Errorf("channels: got %d, want 1", got)
	}
	if got := le.Uint32(out[24:28]); got != 16000 {
		t.Errorf("sample rate: got %d, want 16000", got)
	}
	if got := le.Uint32(out[28:32]); got != 32000 {
		t.Errorf("byte rate: got %d, want 32000", got)
	}
	if got := le.Uint16(out[32:34]); got != 2 {
		t.Errorf("block align: got %d, want 2", got)
	}
	if got := le.Uint16(out[34:36]); got != 16 {
		t.Errorf("bits per sample: got %d, want 16", got)
	}
	if got := string(out[36:40]); got != "data" {
		t.Errorf("data id: got %q, want \"data\"", got)
	}
	if got := le.Uint32(out[40:44]); got != 4 {
		t.Errorf("data size: got %d, want 4", got)
	}
	if !bytes.Equal(out[44:], pcm) {
		t.Errorf("sample bytes altered: got %v, want %v", out[44:], pcm)
	}
}

func TestEncode_OddLength(t *testing.T) {
	_, err := wav.Encode([]byte{0x01, 0x02, 0x03}, 16000)
	var me *wav.MalformedAudioError
	if !errors.As(err, &me) {
		t.Fatalf("expected *MalformedAudioError, got %v", err)
	}
}

func TestEncode_BadSampleRate(t *testing.T) {
	for _, rate := range []int{0, -16000} {
		_, err := wav.Encode([]byte{0x01, 0x02}, rate)
		var me *wav.MalformedAudioError
		if !errors.As(err, &me) {
			t.Errorf("rate %d: expected *MalformedAudioError, got %v", rate, err)
		}
	}
}

func TestEncode_EmptyPayload(t *testing.T) {
	out, err := wav.Encode(nil, 24000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(out) != wav.HeaderSize {
		t.Errorf("length: got %d, want %d", len(out), wav.HeaderSize)
	}
}

func TestRoundTrip(t *testing.T) {
	pcm := samplesToBytes([]int16{0, 1, -1, 32767, -32768, 12345})
	for _, rate := range []int{8000, 16000, 24000, 48000} {
		encoded, err := wav.Encode(pcm, rate)
		if err != nil {
			t.Fatalf("Encode rate %d: %v", rate, err)
		}
		gotPCM, gotRate, err := wav.Decode(encoded)
		if err != nil {
			t.Fatalf("Decode rate %d: %v", rate, err)
		}
		if gotRate != rate {
			t.Errorf("rate: got %d, want %d", gotRate, rate)
		}
		if !bytes.Equal(gotPCM, pcm) {
			t.Errorf("rate %d: samples not byte-exact after round trip", rate)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	valid, err := wav.Encode(samplesToBytes([]int16{1, 2}), 16000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	cases := map[string][]byte{
		"truncated":     valid[:20],
		"bad riff":      mutate(valid, 0, 'X'),
		"bad wave":      mutate(valid, 8, 'X'),
		"bad fmt":       mutate(valid, 12, 'X'),
		"bad data":      mutate(valid, 36, 'X'),
		"not pcm":       mutate(valid, 20, 3),
		"stereo":        mutate(valid, 22, 2),
		"8 bit":         mutate(valid, 34, 8),
		"oversize data": mutate(valid, 40, 0xFF),
	}
	for name, data := range cases {
		_, _, err := wav.Decode(data)
		var me *wav.MalformedAudioError
		if !errors.As(err, &me) {
			t.Errorf("%s: expected *MalformedAudioError, got %v", name, err)
		}
	}
}

func TestDuration(t *testing.T) {
	// One second of silence at 16 kHz.
	pcm := make([]byte, 16000*2)
	encoded, err := wav.Encode(pcm, 16000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	d, err := wav.Duration(encoded)
	if err != nil {
		t.Fatalf("Duration: %v", err)
	}
	if d != time.Second {
		t.Errorf("got %v, want 1s", d)
	}
}

func TestInfo(t *testing.T) {
	pcm := samplesToBytes([]int16{1, 2, 3, 4})
	encoded, err := wav.Encode(pcm, 8000)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	info, err := wav.Info(encoded)
	if err != nil {
		t.Fatalf("Info: %v", err)
	}
	if info.SampleRate != 8000 {
		t.Errorf("sample rate: got %d, want 8000", info.SampleRate)
	}
	if info.Samples != 4 {
		t.Errorf("samples: got %d, want 4", info.Samples)
	}
}

// mutate returns a copy of data with data[i] replaced by b.
func mutate(data []byte, i int, b byte) []byte {
	out := bytes.Clone(data)
	out[i] = b
	return out
}

// samplesToBytes converts int16 samples to their little-endian byte representation.
func samplesToBytes(samples []int16) []byte {
	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(buf[i*2:], uint16(s))
	}
	return buf
}
