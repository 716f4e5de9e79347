package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/tmc/langchaingo/llms"
)

// fakeModel is an llms.Model that replays canned chunks
type fakeModel struct {
	chunks    []string
	info      map[string]any
	err       error
	gotMsgs   []llms.MessageContent
	gotOpts   llms.CallOptions
	blockNext chan struct{} // when set, each chunk waits for ctx or this
}

func (f *fakeModel) GenerateContent(ctx context.Context, msgs []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMsgs = msgs
	for _, o := range options {
		o(&f.gotOpts)
	}
	if f.err != nil {
		return nil, f.err
	}

	if f.gotOpts.StreamingFunc != nil {
		for _, c := range f.chunks {
			if f.blockNext != nil {
				select {
				case <-ctx.Done():
					return nil, ctx.Err()
				case <-f.blockNext:
				}
			}
			if err := f.gotOpts.StreamingFunc(ctx, []byte(c)); err != nil {
				return nil, err
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{
		{Content: strings.Join(f.chunks, ""), GenerationInfo: f.info},
	}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, f, prompt, options...)
}

func textOf(m llms.MessageContent) string {
	var b strings.Builder
	for _, p := range m.Parts {
		if t, ok := p.(llms.TextContent); ok {
			b.WriteString(t.Text)
		}
	}
	return b.String()
}

func TestChatProvider_Complete(t *testing.T) {
	m := &fakeModel{chunks: []string{"<think>hmm</think>", "Mitochondria produce ATP."}}
	p := NewChatProvider("nvidia", "nemotron", m, true)

	resp, err := p.Complete(context.Background(), Request{
		Messages:    []Message{System("be brief"), User("what?")},
		Temperature: 0.2,
		JSON:        true,
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Text != "Mitochondria produce ATP." || resp.Reasoning != "hmm" {
		t.Errorf("Complete() = %+v", resp)
	}

	if got := textOf(m.gotMsgs[0]); got != "/no_think\nbe brief" {
		t.Errorf("system message = %q", got)
	}
	if m.gotMsgs[0].Role != llms.ChatMessageTypeSystem || m.gotMsgs[1].Role != llms.ChatMessageTypeHuman {
		t.Errorf("roles = %v, %v", m.gotMsgs[0].Role, m.gotMsgs[1].Role)
	}
	if m.gotOpts.Temperature != 0.2 || m.gotOpts.TopP != defaultTopP || m.gotOpts.MaxTokens != defaultMaxTokens || !m.gotOpts.JSONMode {
		t.Errorf("call options = %+v", m.gotOpts)
	}
}

func TestChatProvider_ThinkDirective(t *testing.T) {
	tests := []struct {
		name      string
		directive bool
		thinking  bool
		msgs      []Message
		wantFirst string
		wantLen   int
	}{
		{"disabled", false, true, []Message{User("q")}, "q", 1},
		{"think on", true, true, []Message{System("s"), User("q")}, "/think\ns", 2},
		{"no system message", true, false, []Message{User("q")}, "/no_think", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &fakeModel{chunks: []string{"ok"}}
			p := NewChatProvider("x", "y", m, tt.directive)
			if _, err := p.Complete(context.Background(), Request{Messages: tt.msgs, Thinking: tt.thinking}); err != nil {
				t.Fatal(err)
			}
			if len(m.gotMsgs) != tt.wantLen {
				t.Fatalf("got %d messages, want %d", len(m.gotMsgs), tt.wantLen)
			}
			if got := textOf(m.gotMsgs[0]); got != tt.wantFirst {
				t.Errorf("first message = %q, want %q", got, tt.wantFirst)
			}
		})
	}
	// the caller's slice is left alone
	msgs := []Message{System("s")}
	p := NewChatProvider("x", "y", &fakeModel{chunks: []string{"ok"}}, true)
	_, _ = p.Complete(context.Background(), Request{Messages: msgs})
	if msgs[0].Content != "s" {
		t.Errorf("request messages mutated: %q", msgs[0].Content)
	}
}

func TestChatProvider_ReasoningFromGenerationInfo(t *testing.T) {
	m := &fakeModel{chunks: []string{"answer"}, info: map[string]any{"ReasoningContent": " thought "}}
	resp, err := NewChatProvider("groq", "m", m, false).Complete(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Reasoning != "thought" || resp.Text != "answer" {
		t.Errorf("Complete() = %+v", resp)
	}
}

func TestChatProvider_UpstreamError(t *testing.T) {
	m := &fakeModel{err: errors.New("401 unauthorized")}
	p := NewChatProvider("openai", "gpt", m, false)

	if _, err := p.Complete(context.Background(), Request{}); !errs.Is(err, errs.Upstream) {
		t.Errorf("Complete() error = %v, want Upstream", err)
	}

	s, err := p.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := Collect(s); !errs.Is(err, errs.Upstream) {
		t.Errorf("stream error = %v, want Upstream", err)
	}
}

func TestChatProvider_StreamMatchesComplete(t *testing.T) {
	chunks := []string{"<thi", "nk>plan</th", "ink>\n", "Cells ", "need ", "ATP."}
	p := NewChatProvider("nvidia", "m", &fakeModel{chunks: chunks}, false)

	full, err := p.Complete(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}

	s, err := p.Stream(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}
	var text []string
	if err := TextOnly(s, func(chunk string) error {
		text = append(text, chunk)
		return nil
	}); err != nil {
		t.Fatalf("TextOnly() error = %v", err)
	}

	if got := strings.Join(text, ""); got != full.Text {
		t.Errorf("streamed %q, complete %q", got, full.Text)
	}
	if len(text) < 2 {
		t.Errorf("expected incremental chunks, got %v", text)
	}
}

func TestChatProvider_StreamClose(t *testing.T) {
	m := &fakeModel{chunks: []string{"a", "b", "c"}, blockNext: make(chan struct{}, 1)}
	s, err := NewChatProvider("x", "y", m, false).Stream(context.Background(), Request{})
	if err != nil {
		t.Fatal(err)
	}

	m.blockNext <- struct{}{}
	f, ok := s.Next()
	if !ok || f.Text != "a" {
		t.Fatalf("Next() = %+v, %v", f, ok)
	}

	s.Close()
	if _, ok := s.Next(); ok {
		t.Error("Next() after Close should report end")
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() after Close = %v", err)
	}
}
