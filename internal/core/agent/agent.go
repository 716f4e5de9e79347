// Package agent orchestrates the store, the summary generator and the
// language model for the front ends.
package agent

import (
	"context"
	"log"

	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/neilberkman/lectern/internal/core/models"
	"github.com/neilberkman/lectern/internal/core/settings"
	"github.com/neilberkman/lectern/internal/core/summarization"
	"github.com/neilberkman/lectern/internal/core/transcribe"
)

// Agent is the entry point shared by the CLI, HTTP API and MCP server
type Agent struct {
	db        *db.DB
	settings  *settings.Store
	provider  llm.ProviderFunc
	prompts   llm.Prompts
	generator *summarization.Generator
	media     *transcribe.Media
	language  string
}

// Options holds the optional collaborators
type Options struct {
	Prompts *llm.Prompts
	// Media transcribes audio and video; nil disables media ingestion
	Media *transcribe.Media
	// Language is the speech-to-text language used when a call names none
	Language string
}

// New wires an agent. provider is resolved before every model call.
func New(database *db.DB, settingsStore *settings.Store, provider llm.ProviderFunc, opts Options) *Agent {
	prompts := llm.DefaultPrompts()
	if opts.Prompts != nil {
		prompts = *opts.Prompts
	}
	return &Agent{
		db:        database,
		settings:  settingsStore,
		provider:  provider,
		prompts:   prompts,
		generator: summarization.NewGenerator(database, provider, prompts),
		media:     opts.Media,
		language:  opts.Language,
	}
}

// Generator exposes the summary generator for background workers
func (a *Agent) Generator() *summarization.Generator {
	return a.generator
}

// AddResult is the outcome of adding a session
type AddResult struct {
	Session *models.Session
	// Summary is set when auto-summarize ran and succeeded
	Summary string
}

// CreateClass creates an empty class
func (a *Agent) CreateClass(name, code, color string) (*models.Class, error) {
	return a.db.CreateClass(name, code, color)
}

// AddSession stores a session and optionally summarizes it. When the
// session is stored but summarizing fails, the result is returned together
// with a PartialFailure error.
func (a *Agent) AddSession(ctx context.Context, classID, title, content string, metadata models.Metadata, autoSummarize bool) (*AddResult, error) {
	session, err := a.db.AddSession(classID, title, content, metadata)
	if err != nil {
		return nil, err
	}
	log.Printf("[agent] added session %s to %s (%d bytes)", session.SessionID, classID, len(content))

	res := &AddResult{Session: session}
	if !autoSummarize {
		return res, nil
	}

	summary, err := a.generator.SummarizeSession(ctx, classID, session.SessionID)
	if err != nil {
		return res, errs.E(errs.PartialFailure, "summarize new session", err, classID, session.SessionID)
	}
	res.Summary = summary
	summaryCopy := summary
	res.Session.Summary = &summaryCopy
	return res, nil
}

// SummarizeSession regenerates the summary and insights of one session
func (a *Agent) SummarizeSession(ctx context.Context, classID, sessionID string) (string, error) {
	return a.generator.SummarizeSession(ctx, classID, sessionID)
}
