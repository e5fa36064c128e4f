// Package pcm converts between 16-bit little-endian PCM and WAV containers.
package pcm

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes 16-bit little-endian samples as a WAV stream.
func WriteWAV(w io.WriteSeeker, data []byte, sampleRate, channels int) error {
	if len(data)%2 != 0 {
		return fmt.Errorf("pcm payload not aligned")
	}
	if sampleRate <= 0 || channels <= 0 {
		return fmt.Errorf("invalid format: rate=%d channels=%d", sampleRate, channels)
	}
	buffer := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: 16,
	}
	samples := make([]int, len(data)/2)
	for i := range samples {
		samples[i] = int(int16(binary.LittleEndian.Uint16(data[i*2:])))
	}
	buffer.Data = samples

	enc := wav.NewEncoder(w, sampleRate, 16, channels, 1)
	if err := enc.Write(buffer); err != nil {
		return fmt.Errorf("write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("close wav encoder: %w", err)
	}
	return nil
}

// EncodeWAV returns data wrapped in an in-memory WAV container.
func EncodeWAV(data []byte, sampleRate, channels int) ([]byte, error) {
	var sb seekBuffer
	if err := WriteWAV(&sb, data, sampleRate, channels); err != nil {
		return nil, err
	}
	return sb.buf, nil
}

// Format describes a decoded WAV stream.
type Format struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// ReadWAV decodes a 16-bit WAV stream into little-endian PCM bytes.
func ReadWAV(r io.ReadSeeker) ([]byte, Format, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, Format{}, errors.New("invalid wav file")
	}
	f := Format{SampleRate: int(dec.SampleRate), Channels: int(dec.NumChans), BitDepth: int(dec.BitDepth)}
	if f.BitDepth != 16 {
		return nil, f, fmt.Errorf("unsupported bit depth %d", f.BitDepth)
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, f, fmt.Errorf("read pcm: %w", err)
	}
	out := make([]byte, len(buf.Data)*2)
	for i, s := range buf.Data {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(int16(s)))
	}
	return out, f, nil
}

// seekBuffer is an io.WriteSeeker over a growable byte slice; the WAV encoder
// seeks back to patch chunk sizes on Close.
type seekBuffer struct {
	buf []byte
	pos int
}

func (s *seekBuffer) Write(p []byte) (int, error) {
	end := s.pos + len(p)
	if end > len(s.buf) {
		s.buf = append(s.buf, make([]byte, end-len(s.buf))...)
	}
	copy(s.buf[s.pos:], p)
	s.pos = end
	return len(p), nil
}

func (s *seekBuffer) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(s.pos) + offset
	case io.SeekEnd:
		next = int64(len(s.buf)) + offset
	default:
		return 0, errors.New("seek: invalid whence")
	}
	if next < 0 {
		return 0, errors.New("seek: negative position")
	}
	s.pos = int(next)
	return next, nil
}
