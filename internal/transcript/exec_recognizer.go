package transcript

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/pcm"
	"github.com/mattn/go-shellwords"
)

// ExecRecognizer runs a local speech-to-text command (for example a
// whisper.cpp wrapper). The command receives --audio <wav> and optionally
// --model and --language, and must print {"text": "..."} on stdout.
type ExecRecognizer struct {
	cmd       []string
	modelPath string
	language  string
	logger    *slog.Logger
	// TempDir overrides os.TempDir for the WAV handed to the command.
	TempDir string
}

type execResult struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

func NewExecRecognizer(command, modelPath, language string, logger *slog.Logger) (*ExecRecognizer, error) {
	args, err := shellwords.NewParser().Parse(command)
	if err != nil {
		return nil, fmt.Errorf("parse stt command: %w", err)
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("stt command is empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExecRecognizer{
		cmd:       args,
		modelPath: modelPath,
		language:  language,
		logger:    logger.With(slog.String("component", "stt_exec")),
	}, nil
}

func (r *ExecRecognizer) Recognize(ctx context.Context, w Waveform) (string, error) {
	file, err := os.CreateTemp(r.TempDir, "gd_stt_*.wav")
	if err != nil {
		return "", fmt.Errorf("temp file: %w", err)
	}
	path := file.Name()
	defer removeTemp(r.logger, path)

	werr := pcm.WriteWAV(file, w.PCM, w.SampleRate, w.Channels)
	if cerr := file.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", werr
	}

	args := append([]string{}, r.cmd[1:]...)
	args = append(args, "--audio", path)
	if r.modelPath != "" {
		args = append(args, "--model", r.modelPath)
	}
	if r.language != "" {
		args = append(args, "--language", r.language)
	}

	command := exec.CommandContext(ctx, r.cmd[0], args...)
	var stdout, stderr bytes.Buffer
	command.Stdout = &stdout
	command.Stderr = &stderr
	if err := command.Run(); err != nil {
		return "", fmt.Errorf("stt command failed: %w: %s", err, lastLine(stderr.String()))
	}

	var resp execResult
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return "", fmt.Errorf("decode stt response: %w", err)
	}
	return resp.Text, nil
}
