package transcribe

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/neilberkman/lectern/pkg/executor"
)

// WhisperCPP runs a local whisper.cpp binary
type WhisperCPP struct {
	exec     executor.Executor
	binary   string
	model    string
	language string
	threads  int
}

// NewWhisperCPP creates the local backend. language "" means auto-detect.
func NewWhisperCPP(exec executor.Executor, binary, model, language string, threads int) *WhisperCPP {
	if binary == "" {
		binary = "whisper-cli"
	}
	if threads <= 0 {
		threads = 4
	}
	return &WhisperCPP{
		exec:     exec,
		binary:   binary,
		model:    model,
		language: language,
		threads:  threads,
	}
}

// Name implements Transcriber
func (w *WhisperCPP) Name() string {
	return "whisper.cpp"
}

// Transcribe implements Transcriber. whisper.cpp writes <prefix>.txt next
// to a temp prefix, which is read back and removed.
func (w *WhisperCPP) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	if w.model == "" {
		return "", fmt.Errorf("whisper model path is not configured")
	}

	tmp, err := os.MkdirTemp("", "lectern-whisper-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmp)
	prefix := filepath.Join(tmp, "transcript")

	args := []string{
		"-m", w.model,
		"-f", audioPath,
		"-otxt",
		"-of", prefix,
		"-t", strconv.Itoa(w.threads),
		"-np",
	}
	if language == "" {
		language = w.language
	}
	if language != "" {
		args = append(args, "-l", language)
	}

	if _, err := w.exec.Execute(ctx, w.binary, args...); err != nil {
		return "", fmt.Errorf("whisper transcribe: %w", err)
	}

	data, err := os.ReadFile(prefix + ".txt")
	if err != nil {
		return "", fmt.Errorf("read whisper output: %w", err)
	}
	return joinLines(string(data)), nil
}

// joinLines collapses whisper's one-segment-per-line output into prose
func joinLines(s string) string {
	var parts []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			parts = append(parts, line)
		}
	}
	return strings.Join(parts, " ")
}
