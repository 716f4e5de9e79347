package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	defaultTopP      = 0.95
	defaultMaxTokens = 2048
)

// ChatProvider implements Provider over any langchaingo chat model.
// All three hosted backends speak the OpenAI chat-completions protocol.
type ChatProvider struct {
	name  string
	model string
	llm   llms.Model
	// thinkDirective toggles reasoning with a /think or /no_think system line
	thinkDirective bool
}

// NewChatProvider wraps an existing langchaingo model
func NewChatProvider(name, model string, m llms.Model, thinkDirective bool) *ChatProvider {
	return &ChatProvider{
		name:           name,
		model:          model,
		llm:            m,
		thinkDirective: thinkDirective,
	}
}

// NewOpenAICompatible creates a provider for an OpenAI-compatible endpoint
func NewOpenAICompatible(name, model, baseURL, apiKey string) (*ChatProvider, error) {
	opts := []openai.Option{
		openai.WithToken(apiKey),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s client: %w", name, err)
	}

	// Nemotron reasoning models switch thinking with a system directive
	thinkDirective := strings.Contains(strings.ToLower(model), "nemotron")
	return NewChatProvider(name, model, client, thinkDirective), nil
}

// Name implements Provider
func (p *ChatProvider) Name() string {
	return p.name
}

// Model implements Provider
func (p *ChatProvider) Model() string {
	return p.model
}

// Complete implements Provider
func (p *ChatProvider) Complete(ctx context.Context, req Request) (Response, error) {
	resp, err := p.llm.GenerateContent(ctx, p.messages(req), p.callOptions(req)...)
	if err != nil {
		return Response{}, p.upstream("completion", err)
	}
	if resp == nil || len(resp.Choices) == 0 || resp.Choices[0] == nil {
		return Response{}, p.upstream("completion", errors.New("empty response"))
	}

	choice := resp.Choices[0]
	reasoning, text := splitThinking(choice.Content)
	if r, ok := choice.GenerationInfo["ReasoningContent"].(string); ok && r != "" {
		reasoning = strings.TrimSpace(r)
	}
	return Response{Text: text, Reasoning: reasoning}, nil
}

// Stream implements Provider. Closing the stream cancels the request.
func (p *ChatProvider) Stream(ctx context.Context, req Request) (*Stream, error) {
	messages := p.messages(req)
	opts := p.callOptions(req)

	return NewStream(ctx, func(ctx context.Context, emit Emit) error {
		var splitter thinkSplitter
		streamOpts := append(opts, llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
			for _, f := range splitter.feed(string(chunk)) {
				if err := emit(f); err != nil {
					return err
				}
			}
			return nil
		}))

		if _, err := p.llm.GenerateContent(ctx, messages, streamOpts...); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return p.upstream("stream", err)
		}
		for _, f := range splitter.flush() {
			if err := emit(f); err != nil {
				return err
			}
		}
		return nil
	}), nil
}

func (p *ChatProvider) upstream(op string, err error) error {
	return errs.E(errs.Upstream, fmt.Sprintf("%s %s (%s)", p.name, op, p.model), err)
}

func (p *ChatProvider) messages(req Request) []llms.MessageContent {
	msgs := req.Messages
	if p.thinkDirective {
		directive := "/no_think"
		if req.Thinking {
			directive = "/think"
		}
		if len(msgs) > 0 && msgs[0].Role == RoleSystem {
			first := Message{Role: RoleSystem, Content: directive + "\n" + msgs[0].Content}
			msgs = append([]Message{first}, msgs[1:]...)
		} else {
			msgs = append([]Message{System(directive)}, msgs...)
		}
	}

	out := make([]llms.MessageContent, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, llms.TextParts(chatType(m.Role), m.Content))
	}
	return out
}

func chatType(r Role) llms.ChatMessageType {
	switch r {
	case RoleSystem:
		return llms.ChatMessageTypeSystem
	case RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

func (p *ChatProvider) callOptions(req Request) []llms.CallOption {
	topP := req.TopP
	if topP == 0 {
		topP = defaultTopP
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}

	opts := []llms.CallOption{
		llms.WithTemperature(req.Temperature),
		llms.WithTopP(topP),
		llms.WithMaxTokens(maxTokens),
	}
	if req.JSON {
		opts = append(opts, llms.WithJSONMode())
	}
	return opts
}
