package pcm

import (
	"bytes"
	"encoding/binary"
	"testing"
)

func samplesToBytes(samples ...int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func TestEncodeThenRead_PreservesSamples(t *testing.T) {
	in := samplesToBytes(0, 1200, -1200, 32767, -32768, 7)
	wavBytes, err := EncodeWAV(in, 16000, 1)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !bytes.HasPrefix(wavBytes, []byte("RIFF")) {
		t.Fatalf("missing RIFF header")
	}
	out, f, err := ReadWAV(bytes.NewReader(wavBytes))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if f.SampleRate != 16000 || f.Channels != 1 || f.BitDepth != 16 {
		t.Fatalf("unexpected format %+v", f)
	}
	if !bytes.Equal(in, out) {
		t.Fatalf("samples differ: %v vs %v", in, out)
	}
}

func TestWriteWAV_RejectsOddLength(t *testing.T) {
	if _, err := EncodeWAV([]byte{1, 2, 3}, 16000, 1); err == nil {
		t.Fatalf("expected alignment error")
	}
}

func TestReadWAV_RejectsGarbage(t *testing.T) {
	if _, _, err := ReadWAV(bytes.NewReader([]byte("definitely not a wav file"))); err == nil {
		t.Fatalf("expected error")
	}
}
