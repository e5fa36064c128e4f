package transcript

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/MokkshKapur/Ai-powered-GD-Room/internal/pcm"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported on windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755); err != nil {
		t.Fatalf("write script: %v", err)
	}
	return path
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected temp dir to be empty, found %d entries (first %s)", len(entries), entries[0].Name())
	}
}

func TestFFmpegConverter_DecodesOutputAndCleansUp(t *testing.T) {
	binDir, tmpDir := t.TempDir(), t.TempDir()
	fixture, err := pcm.EncodeWAV([]byte{1, 0, 2, 0, 3, 0, 4, 0}, 16000, 1)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	fixturePath := filepath.Join(binDir, "fixture.wav")
	if err := os.WriteFile(fixturePath, fixture, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	script := writeScript(t, binDir, "fake-ffmpeg", `for a; do last="$a"; done
cp "`+fixturePath+`" "$last"
`)
	conv, err := NewFFmpegConverter(script+" -loglevel error", discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	conv.TempDir = tmpDir

	w, err := conv.Convert(context.Background(), []byte("webm-bytes"))
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if w.SampleRate != 16000 || w.Channels != 1 || len(w.PCM) != 8 {
		t.Fatalf("unexpected waveform %+v", w)
	}
	assertEmptyDir(t, tmpDir)
}

func TestFFmpegConverter_FailureCleansUp(t *testing.T) {
	binDir, tmpDir := t.TempDir(), t.TempDir()
	script := writeScript(t, binDir, "fake-ffmpeg", "echo 'Invalid data found when processing input' >&2\nexit 1\n")
	conv, err := NewFFmpegConverter(script, discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	conv.TempDir = tmpDir
	if _, err := conv.Convert(context.Background(), []byte("garbage")); err == nil {
		t.Fatalf("expected conversion error")
	}
	assertEmptyDir(t, tmpDir)
}

func TestFFmpegConverter_RejectsWrongRate(t *testing.T) {
	binDir, tmpDir := t.TempDir(), t.TempDir()
	fixture, err := pcm.EncodeWAV([]byte{1, 0, 2, 0}, 8000, 1)
	if err != nil {
		t.Fatalf("fixture: %v", err)
	}
	fixturePath := filepath.Join(binDir, "fixture.wav")
	if err := os.WriteFile(fixturePath, fixture, 0o600); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	script := writeScript(t, binDir, "fake-ffmpeg", `for a; do last="$a"; done
cp "`+fixturePath+`" "$last"
`)
	conv, _ := NewFFmpegConverter(script, discardLogger())
	conv.TempDir = tmpDir
	if _, err := conv.Convert(context.Background(), []byte("x")); err == nil {
		t.Fatalf("expected format error")
	}
	assertEmptyDir(t, tmpDir)
}

func TestNewFFmpegConverter_EmptyCommand(t *testing.T) {
	if _, err := NewFFmpegConverter("   ", discardLogger()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestExecRecognizer_ParsesOutput(t *testing.T) {
	binDir, tmpDir := t.TempDir(), t.TempDir()
	script := writeScript(t, binDir, "fake-whisper", `while [ $# -gt 0 ]; do
  if [ "$1" = "--audio" ]; then audio="$2"; fi
  shift
done
[ -s "$audio" ] || { echo "missing audio" >&2; exit 2; }
echo '{"text":"from whisper","confidence":0.9}'
`)
	rec, err := NewExecRecognizer(script, "/models/base.en", "en", discardLogger())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	rec.TempDir = tmpDir
	text, err := rec.Recognize(context.Background(), Waveform{PCM: make([]byte, 320), SampleRate: 16000, Channels: 1})
	if err != nil {
		t.Fatalf("recognize: %v", err)
	}
	if text != "from whisper" {
		t.Fatalf("unexpected text %q", text)
	}
	assertEmptyDir(t, tmpDir)
}

func TestExecRecognizer_CommandFailure(t *testing.T) {
	binDir, tmpDir := t.TempDir(), t.TempDir()
	script := writeScript(t, binDir, "fake-whisper", "exit 3\n")
	rec, _ := NewExecRecognizer(script, "", "", discardLogger())
	rec.TempDir = tmpDir
	if _, err := rec.Recognize(context.Background(), Waveform{PCM: make([]byte, 4), SampleRate: 16000, Channels: 1}); err == nil {
		t.Fatalf("expected error")
	}
	assertEmptyDir(t, tmpDir)
}
