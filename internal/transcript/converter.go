package transcript

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/pcm"
	"github.com/mattn/go-shellwords"
)

const (
	canonicalSampleRate = 16000
	canonicalChannels   = 1
)

// FFmpegConverter shells out to ffmpeg to produce canonical PCM.
type FFmpegConverter struct {
	cmd    []string
	logger *slog.Logger
	// TempDir overrides os.TempDir for the intermediate files.
	TempDir string
}

// NewFFmpegConverter parses command (e.g. "ffmpeg -loglevel error") into argv.
func NewFFmpegConverter(command string, logger *slog.Logger) (*FFmpegConverter, error) {
	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse ffmpeg command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("ffmpeg command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpegConverter{cmd: args, logger: logger.With(slog.String("component", "ffmpeg"))}, nil
}

// Convert writes audio to a temp file, transcodes it and decodes the result.
// Both temp files are removed on every return path.
func (c *FFmpegConverter) Convert(ctx context.Context, audio []byte) (Waveform, error) {
	in, err := os.CreateTemp(c.TempDir, "gd_in_*.webm")
	if err != nil {
		return Waveform{}, fmt.Errorf("temp input: %w", err)
	}
	inPath := in.Name()
	defer removeTemp(c.logger, inPath)
	_, werr := in.Write(audio)
	cerr := in.Close()
	if werr != nil {
		return Waveform{}, fmt.Errorf("write temp input: %w", werr)
	}
	if cerr != nil {
		return Waveform{}, fmt.Errorf("close temp input: %w", cerr)
	}

	out, err := os.CreateTemp(c.TempDir, "gd_out_*.wav")
	if err != nil {
		return Waveform{}, fmt.Errorf("temp output: %w", err)
	}
	outPath := out.Name()
	_ = out.Close()
	defer removeTemp(c.logger, outPath)

	args := append([]string{}, c.cmd[1:]...)
	args = append(args,
		"-i", inPath,
		"-acodec", "pcm_s16le",
		"-ac", strconv.Itoa(canonicalChannels),
		"-ar", strconv.Itoa(canonicalSampleRate),
		"-y", outPath,
	)
	command := exec.CommandContext(ctx, c.cmd[0], args...)
	var stderr bytes.Buffer
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return Waveform{}, fmt.Errorf("ffmpeg failed: %w: %s", err, lastLine(stderr.String()))
	}

	f, err := os.Open(outPath)
	if err != nil {
		return Waveform{}, fmt.Errorf("open converted audio: %w", err)
	}
	defer f.Close()
	data, format, err := pcm.ReadWAV(f)
	if err != nil {
		return Waveform{}, fmt.Errorf("decode converted audio: %w", err)
	}
	if format.SampleRate != canonicalSampleRate || format.Channels != canonicalChannels {
		return Waveform{}, fmt.Errorf("unexpected converted format: rate=%d channels=%d", format.SampleRate, format.Channels)
	}
	return Waveform{PCM: data, SampleRate: format.SampleRate, Channels: format.Channels}, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}
