// Package transcribe turns lecture audio and video into text.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/settings"
	"github.com/neilberkman/lectern/pkg/executor"
)

var (
	audioExts = map[string]bool{".wav": true, ".mp3": true, ".flac": true, ".ogg": true, ".m4a": true}
	videoExts = map[string]bool{".mp4": true, ".avi": true, ".mov": true, ".mkv": true, ".webm": true, ".flv": true}
)

// IsAudio reports whether path has a known audio extension
func IsAudio(path string) bool {
	return audioExts[strings.ToLower(filepath.Ext(path))]
}

// IsVideo reports whether path has a known video extension
func IsVideo(path string) bool {
	return videoExts[strings.ToLower(filepath.Ext(path))]
}

// IsMedia reports whether path is audio or video
func IsMedia(path string) bool {
	return IsAudio(path) || IsVideo(path)
}

// Transcriber converts a 16 kHz mono WAV (or any audio the backend
// accepts) into text. language is an ISO-639-1 tag; "" lets the backend
// use its default or detect it.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath, language string) (string, error)
	Name() string
}

// Media dispatches a media file to the transcriber for the current ASR mode,
// extracting the audio track from video first.
type Media struct {
	exec   executor.Executor
	ffmpeg string
	// backends keyed by ASR mode; a missing mode is a configuration error
	backends map[string]Transcriber
}

// NewMedia creates a dispatcher. ffmpeg defaults to "ffmpeg" on PATH.
func NewMedia(exec executor.Executor, ffmpeg string, backends map[string]Transcriber) *Media {
	if ffmpeg == "" {
		ffmpeg = "ffmpeg"
	}
	return &Media{exec: exec, ffmpeg: ffmpeg, backends: backends}
}

// Transcribe returns the transcript of path using the backend for mode
func (m *Media) Transcribe(ctx context.Context, path, mode, language string) (string, error) {
	if mode == "" {
		mode = settings.ASRFree
	}
	backend, ok := m.backends[mode]
	if !ok || backend == nil {
		return "", errs.E(errs.Config, "transcribe", fmt.Errorf("no speech-to-text backend configured for mode %q", mode))
	}

	if _, err := os.Stat(path); err != nil {
		return "", errs.E(errs.Validation, "transcribe", err)
	}

	audio := path
	if !IsAudio(path) {
		tmp, err := os.MkdirTemp("", "lectern-audio-")
		if err != nil {
			return "", fmt.Errorf("create temp dir: %w", err)
		}
		defer os.RemoveAll(tmp)

		extracted, err := m.ExtractAudio(ctx, path, tmp)
		switch {
		case err == nil:
			audio = extracted
		case IsVideo(path):
			return "", err
		default:
			// unknown extension: treat it as audio the backend may understand
			log.Printf("[transcribe] no audio track extracted from %s, sending as is: %v", filepath.Base(path), err)
		}
	}

	log.Printf("[transcribe] %s via %s", filepath.Base(path), backend.Name())
	text, err := backend.Transcribe(ctx, audio, language)
	if err != nil {
		return "", errs.E(errs.Upstream, "transcribe", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errs.E(errs.Validation, "transcribe", errors.New("no speech recognised"))
	}
	return text, nil
}

// ExtractAudio writes a 16 kHz mono PCM WAV of path's audio track into dir
func (m *Media) ExtractAudio(ctx context.Context, path, dir string) (string, error) {
	out := filepath.Join(dir, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))+".wav")
	args := []string{
		"-i", path,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		out,
	}
	if _, err := m.exec.Execute(ctx, m.ffmpeg, args...); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w", err)
	}
	return out, nil
}
