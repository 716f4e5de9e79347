package mcp

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/neilberkman/lectern/internal/core/settings"
)

type echoProvider struct{ last llm.Request }

func (p *echoProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	p.last = req
	return llm.Response{Text: "Mitochondria."}, nil
}

func (p *echoProvider) Stream(ctx context.Context, req llm.Request) (*llm.Stream, error) {
	return llm.NewStream(ctx, func(ctx context.Context, emit llm.Emit) error {
		return emit(llm.Fragment{Kind: llm.FragmentText, Text: "Mitochondria."})
	}), nil
}

func (p *echoProvider) Name() string  { return "echo" }
func (p *echoProvider) Model() string { return "echo" }

func setup(t *testing.T) (*db.DB, *agent.Agent, *echoProvider) {
	t.Helper()
	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "lectern.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	store, err := settings.Open(filepath.Join(dir, "settings.toml"))
	if err != nil {
		t.Fatal(err)
	}
	p := &echoProvider{}
	return database, agent.New(database, store, func() (llm.Provider, error) { return p, nil }, agent.Options{}), p
}

func call(t *testing.T, h toolHandler, args map[string]any) (string, bool) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("handler error = %v", err)
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("unexpected content %T", res.Content[0])
	}
	return text.Text, res.IsError
}

func TestTools(t *testing.T) {
	database, ag, p := setup(t)
	class, _ := database.CreateClass("Biology", "BIO", "")
	sess, _ := database.AddSession(class.ClassID, "Cells", "Mitochondria produce ATP.", nil)

	out, isErr := call(t, makeListClassesHandler(database), nil)
	if isErr {
		t.Fatalf("list_classes error: %s", out)
	}
	var list struct{ Classes []ClassSummary }
	if err := json.Unmarshal([]byte(out), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Classes) != 1 || list.Classes[0].SessionsCount != 1 || list.Classes[0].Code != "BIO" {
		t.Errorf("classes = %+v", list.Classes)
	}

	out, _ = call(t, makeGetClassHandler(database), map[string]any{"class_id": class.ClassID})
	var detail ClassDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatal(err)
	}
	if len(detail.Sessions) != 1 || detail.Sessions[0].Title != "Cells" {
		t.Errorf("class detail = %+v", detail)
	}

	out, _ = call(t, makeGetSessionHandler(database), map[string]any{"class_id": class.ClassID, "session_id": sess.SessionID})
	if !strings.Contains(out, "Mitochondria produce ATP.") {
		t.Errorf("get_session = %s", out)
	}

	out, _ = call(t, makeSearchSessionsHandler(database), map[string]any{"query": "ATP"})
	var found struct{ Sessions []SessionMatch }
	if err := json.Unmarshal([]byte(out), &found); err != nil {
		t.Fatal(err)
	}
	if len(found.Sessions) != 1 || found.Sessions[0].SessionID != sess.SessionID {
		t.Errorf("search_sessions = %s", out)
	}

	out, isErr = call(t, makeAskQuestionHandler(ag), map[string]any{"class_id": class.ClassID, "question": "What makes ATP?"})
	if isErr || out != "Mitochondria." {
		t.Errorf("ask_question = %q (error %v)", out, isErr)
	}
	if !strings.Contains(p.last.Messages[len(p.last.Messages)-1].Content, "Question: What makes ATP?") {
		t.Errorf("prompt = %+v", p.last.Messages)
	}

	out, isErr = call(t, makeAskAcrossHandler(ag), map[string]any{"question": "What makes ATP?", "class_ids": []string{class.ClassID}})
	if isErr || out != "Mitochondria." {
		t.Errorf("ask_across_classes = %q (error %v)", out, isErr)
	}
}

func TestTools_Errors(t *testing.T) {
	database, ag, _ := setup(t)
	empty, _ := database.CreateClass("Empty", "", "")

	tests := []struct {
		name string
		h    toolHandler
		args map[string]any
		want string
	}{
		{"missing class", makeGetClassHandler(database), map[string]any{"class_id": "nope"}, "not found"},
		{"missing session", makeGetSessionHandler(database), map[string]any{"class_id": empty.ClassID, "session_id": "x"}, "not found"},
		{"empty class", makeAskQuestionHandler(ag), map[string]any{"class_id": empty.ClassID, "question": "why?"}, "nothing to search"},
		{"empty question", makeAskQuestionHandler(ag), map[string]any{"class_id": empty.ClassID, "question": " "}, "validation"},
		{"no classes match", makeAskAcrossHandler(ag), map[string]any{"question": "why?", "class_ids": []string{"nope"}}, "nothing to search"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, isErr := call(t, tt.h, tt.args)
			if !isErr {
				t.Fatalf("expected tool error, got %q", out)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("error = %q, want it to mention %q", out, tt.want)
			}
		})
	}
}
