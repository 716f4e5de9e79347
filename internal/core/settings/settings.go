// Package settings persists the small runtime key/value configuration
// (ASR mode, model provider) that can change without a restart.
package settings

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/BurntSushi/toml"
	"github.com/neilberkman/lectern/internal/core/errs"
)

const (
	KeyASRMode     = "asr_mode"
	KeyLLMProvider = "llm_provider"

	ASRFree = "free"
	ASRFast = "fast"

	ProviderNVIDIA = "nvidia"
	ProviderGroq   = "groq"
	ProviderOpenAI = "openai"
)

// Defaults applied when the file is missing a known key
var Defaults = map[string]string{
	KeyASRMode:     ASRFree,
	KeyLLMProvider: ProviderNVIDIA,
}

var allowed = map[string][]string{
	KeyASRMode:     {ASRFree, ASRFast},
	KeyLLMProvider: {ProviderNVIDIA, ProviderGroq, ProviderOpenAI},
}

// Store caches the settings file in memory and rewrites it whole on every
// mutation. Writes go through a temp file and rename. Only keys the user set
// are persisted; Defaults are merged on read.
type Store struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
}

// Open loads path. A missing file means every key is at its default.
func Open(path string) (*Store, error) {
	s := &Store{
		path:   path,
		values: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read settings: %w", err)
	default:
		if _, err := toml.Decode(string(data), &s.values); err != nil {
			return nil, fmt.Errorf("parse settings %s: %w", path, err)
		}
	}
	return s, nil
}

// Validate rejects values outside the allowed set for known keys
func Validate(key, value string) error {
	options, known := allowed[key]
	if !known {
		return nil
	}
	for _, o := range options {
		if value == o {
			return nil
		}
	}
	return errs.Validationf("settings", "invalid %s %q (allowed: %v)", key, value, options)
}

// Get returns a copy of all settings
func (s *Store) Get() map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.copyLocked()
}

// Snapshot returns a copy of all settings plus whether each key was set explicitly
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	explicit := make(map[string]bool, len(s.values))
	for k := range s.values {
		explicit[k] = true
	}
	return Snapshot{Values: s.copyLocked(), Explicit: explicit}
}

// GetKey returns the value for key, or def when unset
func (s *Store) GetKey(key, def string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	if v, ok := Defaults[key]; ok {
		return v
	}
	return def
}

// Set stores a single key
func (s *Store) Set(key, value string) error {
	_, err := s.Update(map[string]string{key: value})
	return err
}

// Update validates and merges updates, persists, and returns the full map.
// Nothing is applied if any value is invalid.
func (s *Store) Update(updates map[string]string) (map[string]string, error) {
	for k, v := range updates {
		if k == "" {
			return nil, errs.Validationf("settings", "empty key")
		}
		if err := Validate(k, v); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.values)+len(updates))
	for k, v := range s.values {
		next[k] = v
	}
	for k, v := range updates {
		next[k] = v
	}
	if err := s.writeLocked(next); err != nil {
		return nil, err
	}
	s.values = next
	return s.copyLocked(), nil
}

// copyLocked returns the user-set values over Defaults
func (s *Store) copyLocked() map[string]string {
	out := make(map[string]string, len(Defaults)+len(s.values))
	for k, v := range Defaults {
		out[k] = v
	}
	for k, v := range s.values {
		out[k] = v
	}
	return out
}

func (s *Store) writeLocked(values map[string]string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(values); err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*.toml")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}

// Snapshot is an immutable view handed to per-call consumers
type Snapshot struct {
	Values   map[string]string
	Explicit map[string]bool
}

// Provider returns the configured provider name and whether the user set it
func (s Snapshot) Provider() (string, bool) {
	return s.Values[KeyLLMProvider], s.Explicit[KeyLLMProvider]
}

// ASRMode returns the speech-to-text mode
func (s Snapshot) ASRMode() string {
	if v := s.Values[KeyASRMode]; v != "" {
		return v
	}
	return ASRFree
}
