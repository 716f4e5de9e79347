package agent

import (
	"context"
	"log"
	"strings"

	"github.com/neilberkman/lectern/internal/core/corpus"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/neilberkman/lectern/internal/core/models"
)

const answerTemperature = 0.6

// AskQuestion answers a question from one class's sessions
func (a *Agent) AskQuestion(ctx context.Context, classID, question string) (string, error) {
	p, req, err := a.classRequest(classID, question)
	if err != nil {
		return "", err
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// AskQuestionStream is AskQuestion with the answer delivered as it is
// generated. Closing the stream aborts the request.
func (a *Agent) AskQuestionStream(ctx context.Context, classID, question string) (*llm.Stream, error) {
	p, req, err := a.classRequest(classID, question)
	if err != nil {
		return nil, err
	}
	return llm.StreamText(ctx, p, req), nil
}

// AskAcrossClasses answers from the given classes, or from every class
// when classIDs is empty. Unknown IDs are skipped.
func (a *Agent) AskAcrossClasses(ctx context.Context, question string, classIDs []string) (string, error) {
	p, req, err := a.acrossRequest(question, classIDs)
	if err != nil {
		return "", err
	}
	resp, err := p.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// AskAcrossClassesStream is the streaming form of AskAcrossClasses
func (a *Agent) AskAcrossClassesStream(ctx context.Context, question string, classIDs []string) (*llm.Stream, error) {
	p, req, err := a.acrossRequest(question, classIDs)
	if err != nil {
		return nil, err
	}
	return llm.StreamText(ctx, p, req), nil
}

// ClassContext returns the grounding text for one class
func (a *Agent) ClassContext(classID string) (string, error) {
	class, err := a.db.GetClass(classID)
	if err != nil {
		return "", err
	}
	if class == nil {
		return "", errs.E(errs.NotFound, "build context", errs.ErrClassNotFound, classID)
	}
	return corpus.BuildClassContext(class)
}

func (a *Agent) classRequest(classID, question string) (llm.Provider, llm.Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, llm.Request{}, errs.Validationf("ask", "question is empty")
	}

	grounding, err := a.ClassContext(classID)
	if err != nil {
		return nil, llm.Request{}, err
	}
	return a.request(a.prompts.AnswerSystem, grounding, question)
}

func (a *Agent) acrossRequest(question string, classIDs []string) (llm.Provider, llm.Request, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, llm.Request{}, errs.Validationf("ask", "question is empty")
	}

	classes, err := a.resolveClasses(classIDs)
	if err != nil {
		return nil, llm.Request{}, err
	}
	grounding, err := corpus.BuildCrossClassContext(classes)
	if err != nil {
		return nil, llm.Request{}, err
	}
	return a.request(a.prompts.AcrossSystem, grounding, question)
}

func (a *Agent) request(system, grounding, question string) (llm.Provider, llm.Request, error) {
	msgs, err := a.prompts.QuestionMessages(system, grounding, question)
	if err != nil {
		return nil, llm.Request{}, err
	}
	p, err := a.provider()
	if err != nil {
		return nil, llm.Request{}, err
	}
	return p, llm.Request{
		Messages:    msgs,
		Temperature: answerTemperature,
	}, nil
}

// resolveClasses loads the named classes with their sessions, or all of
// them when ids is empty
func (a *Agent) resolveClasses(ids []string) ([]models.Class, error) {
	if len(ids) == 0 {
		all, err := a.db.ListClasses()
		if err != nil {
			return nil, err
		}
		for _, c := range all {
			ids = append(ids, c.ClassID)
		}
	}

	var classes []models.Class
	for _, id := range ids {
		c, err := a.db.GetClass(id)
		if err != nil {
			return nil, err
		}
		if c == nil {
			log.Printf("[agent] skipping unknown class %s", id)
			continue
		}
		classes = append(classes, *c)
	}
	return classes, nil
}
