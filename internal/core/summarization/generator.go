// Package summarization produces per-session summaries and insights and
// sweeps sessions that have not been summarized yet.
package summarization

import (
	"context"
	"log"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/neilberkman/lectern/internal/core/models"
)

const (
	insightsTemperature = 0.2
	summaryTemperature  = 0.5
)

// Store is the subset of the session store the generator writes through
type Store interface {
	GetSession(classID, sessionID string) (*models.Session, error)
	UpdateSessionSummary(classID, sessionID, summary string) error
	UpdateSessionInsights(classID, sessionID string, insights models.Insights) error
}

// Generator runs the insights and summary calls for one session
type Generator struct {
	store    Store
	provider llm.ProviderFunc
	prompts  llm.Prompts
}

// NewGenerator creates a generator. provider is resolved on every call.
func NewGenerator(store Store, provider llm.ProviderFunc, prompts llm.Prompts) *Generator {
	return &Generator{
		store:    store,
		provider: provider,
		prompts:  prompts,
	}
}

// SummarizeSession extracts insights (best effort) and then generates and
// stores the summary, which it returns. Insight failures are logged and
// never stop the summary.
func (g *Generator) SummarizeSession(ctx context.Context, classID, sessionID string) (string, error) {
	session, err := g.store.GetSession(classID, sessionID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", errs.E(errs.NotFound, "summarize", errs.ErrSessionNotFound, classID, sessionID)
	}

	provider, err := g.provider()
	if err != nil {
		return "", err
	}

	if insights, err := g.insights(ctx, provider, session); err != nil {
		log.Printf("[summarize] insights skipped for %s/%s: %v", classID, sessionID, err)
	} else if err := g.store.UpdateSessionInsights(classID, sessionID, *insights); err != nil {
		log.Printf("[summarize] failed to store insights for %s/%s: %v", classID, sessionID, err)
	}

	msgs, err := g.prompts.SessionMessages(g.prompts.SummarySystem, g.prompts.SummaryUser, session.Title, session.Content)
	if err != nil {
		return "", err
	}
	resp, err := provider.Complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: summaryTemperature,
	})
	if err != nil {
		return "", err
	}

	if err := g.store.UpdateSessionSummary(classID, sessionID, resp.Text); err != nil {
		return "", err
	}
	log.Printf("[summarize] %s/%s summarized with %s", classID, sessionID, provider.Name())
	return resp.Text, nil
}

func (g *Generator) insights(ctx context.Context, provider llm.Provider, session *models.Session) (*models.Insights, error) {
	msgs, err := g.prompts.SessionMessages(g.prompts.InsightsSystem, g.prompts.InsightsUser, session.Title, session.Content)
	if err != nil {
		return nil, err
	}
	resp, err := provider.Complete(ctx, llm.Request{
		Messages:    msgs,
		Temperature: insightsTemperature,
		JSON:        true,
	})
	if err != nil {
		return nil, err
	}
	return llm.ParseInsights(resp.Text)
}
