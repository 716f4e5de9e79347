package cli

import (
	"fmt"
	"os"
	"runtime"

	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/config"
	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/neilberkman/lectern/internal/core/settings"
	"github.com/neilberkman/lectern/internal/core/transcribe"
	"github.com/neilberkman/lectern/pkg/executor"
)

// app is everything a command needs, opened from the config directory
type app struct {
	cfg      *config.Config
	db       *db.DB
	settings *settings.Store
	agent    *agent.Agent
}

func openApp() (*app, error) {
	cfg, err := config.Load(configDir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	database, err := db.New(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	store, err := settings.Open(cfg.SettingsPath())
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("failed to open settings: %w", err)
	}
	prompts, err := cfg.Prompts()
	if err != nil {
		_ = database.Close()
		return nil, err
	}

	selector := llm.NewSelector(cfg.SelectorOptions(), nil)
	ag := agent.New(database, store, selector.Current(store), agent.Options{
		Prompts:  &prompts,
		Media:    newMedia(cfg),
		Language: cfg.Language,
	})

	return &app{cfg: cfg, db: database, settings: store, agent: ag}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

func newMedia(cfg *config.Config) *transcribe.Media {
	exec := executor.New()
	backends := map[string]transcribe.Transcriber{}
	if cfg.WhisperModel != "" {
		backends[settings.ASRFree] = transcribe.NewWhisperCPP(exec, cfg.WhisperPath, cfg.WhisperModel, cfg.Language, runtime.NumCPU())
	}
	if key := cfg.Keys[settings.ProviderGroq]; key != "" {
		backends[settings.ASRFast] = transcribe.NewGroq(key, cfg.BaseURLs[settings.ProviderGroq], "")
	}
	return transcribe.NewMedia(exec, cfg.FFmpegPath, backends)
}
