package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/neilberkman/lectern/internal/core/agent"
	"github.com/neilberkman/lectern/internal/core/db"
	"github.com/neilberkman/lectern/internal/core/errs"
	"github.com/neilberkman/lectern/internal/core/llm"
	"github.com/neilberkman/lectern/internal/core/settings"
	"github.com/neilberkman/lectern/internal/core/transcribe"
)

type cannedProvider struct {
	chunks []string
	err    error
}

func (p *cannedProvider) Complete(ctx context.Context, req llm.Request) (llm.Response, error) {
	if p.err != nil {
		return llm.Response{}, p.err
	}
	if req.JSON {
		return llm.Response{Text: `{"most_important": "cells"}`}, nil
	}
	return llm.Response{Text: strings.Join(p.chunks, "")}, nil
}

func (p *cannedProvider) Stream(ctx context.Context, req llm.Request) (*llm.Stream, error) {
	return llm.NewStream(ctx, func(ctx context.Context, emit llm.Emit) error {
		for _, c := range p.chunks {
			if err := emit(llm.Fragment{Kind: llm.FragmentText, Text: c}); err != nil {
				return err
			}
		}
		return p.err
	}), nil
}

func (p *cannedProvider) Name() string  { return "canned" }
func (p *cannedProvider) Model() string { return "canned-1" }

type testServer struct {
	srv      *Server
	db       *db.DB
	provider *cannedProvider
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	return newTestServerWith(t, agent.Options{})
}

func newTestServerWith(t *testing.T, opts agent.Options) *testServer {
	t.Helper()
	dir := t.TempDir()
	database, err := db.New(filepath.Join(dir, "lectern.db"))
	if err != nil {
		t.Fatalf("db.New() error = %v", err)
	}
	t.Cleanup(func() { database.Close() })

	store, err := settings.Open(filepath.Join(dir, "settings.toml"))
	if err != nil {
		t.Fatal(err)
	}

	p := &cannedProvider{chunks: []string{"ATP ", "is made ", "in mitochondria."}}
	ag := agent.New(database, store, func() (llm.Provider, error) { return p, nil }, opts)
	srv := New(Deps{DB: database, Agent: ag, Settings: store, UploadDir: dir, MaxUploadMB: 1})
	return &testServer{srv: srv, db: database, provider: p}
}

func (ts *testServer) do(t *testing.T, method, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var r io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := ts.srv.App().Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(raw, &out); err != nil {
			t.Fatalf("decode %s: %v", raw, err)
		}
	}
	return resp, out
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, body := ts.do(t, "GET", "/health", nil)
	if resp.StatusCode != 200 || body["ok"] != true {
		t.Errorf("GET /health = %d %v", resp.StatusCode, body)
	}
}

func TestClassLifecycle(t *testing.T) {
	ts := newTestServer(t)

	resp, body := ts.do(t, "POST", "/api/classes", map[string]string{"name": "Biology 101"})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("create = %d %v", resp.StatusCode, body)
	}
	class := body["class"].(map[string]any)
	id := class["class_id"].(string)
	if !strings.HasPrefix(id, "biology-101-") {
		t.Errorf("class_id = %q", id)
	}

	resp, body = ts.do(t, "POST", "/api/class/"+id+"/sessions", map[string]any{
		"title":   "Cells",
		"content": "Mitochondria produce ATP.",
	})
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("add session = %d %v", resp.StatusCode, body)
	}
	sid := body["session"].(map[string]any)["session_id"].(string)

	_, body = ts.do(t, "GET", "/api/class/"+id, nil)
	got := body["class"].(map[string]any)
	if got["sessions_count"].(float64) != 1 || len(got["sessions"].([]any)) != 1 {
		t.Errorf("class = %v", got)
	}

	_, body = ts.do(t, "GET", "/api/class/"+id+"/session/"+sid, nil)
	if body["session"].(map[string]any)["content"] != "Mitochondria produce ATP." {
		t.Errorf("session = %v", body)
	}

	resp, body = ts.do(t, "POST", "/api/summary/"+id+"/"+sid, nil)
	if resp.StatusCode != 200 || body["summary"] != "ATP is made in mitochondria." {
		t.Errorf("summary = %d %v", resp.StatusCode, body)
	}

	_, body = ts.do(t, "GET", "/api/classes", nil)
	if len(body["classes"].([]any)) != 1 {
		t.Errorf("classes = %v", body)
	}

	resp, _ = ts.do(t, "DELETE", "/api/class/"+id, nil)
	if resp.StatusCode != 200 {
		t.Errorf("delete = %d", resp.StatusCode)
	}
	resp, _ = ts.do(t, "DELETE", "/api/class/"+id, nil)
	if resp.StatusCode != 404 {
		t.Errorf("second delete = %d, want 404", resp.StatusCode)
	}
}

func TestErrorStatuses(t *testing.T) {
	ts := newTestServer(t)
	empty, _ := ts.db.CreateClass("Empty", "", "")
	full, _ := ts.db.CreateClass("Full", "", "")
	if _, err := ts.db.AddSession(full.ClassID, "", "content", nil); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		setup  func()
		want   int
	}{
		{"missing class", "GET", "/api/class/nope", nil, nil, 404},
		{"missing session", "GET", "/api/class/" + full.ClassID + "/session/nope", nil, nil, 404},
		{"create without name", "POST", "/api/classes", map[string]string{}, nil, 400},
		{"add to missing class", "POST", "/api/class/nope/sessions", map[string]string{"content": "x"}, nil, 404},
		{"empty question", "POST", "/api/chat/" + full.ClassID, map[string]string{"question": ""}, nil, 400},
		{"nothing to search", "POST", "/api/chat/" + empty.ClassID, map[string]string{"question": "why?"}, nil, 422},
		{"bad setting", "PUT", "/api/settings", map[string]string{"asr_mode": "turbo"}, nil, 400},
		{"upstream", "POST", "/api/chat/" + full.ClassID, map[string]string{"question": "why?"}, func() {
			ts.provider.err = errs.E(errs.Upstream, "complete", errors.New("503"))
		}, 502},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.setup != nil {
				tt.setup()
			}
			resp, body := ts.do(t, tt.method, tt.path, tt.body)
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d (%v)", resp.StatusCode, tt.want, body)
			}
			if body["ok"] != false {
				t.Errorf("ok = %v", body["ok"])
			}
		})
	}
}

func TestChat(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")
	if _, err := ts.db.AddSession(class.ClassID, "", "Mitochondria produce ATP.", nil); err != nil {
		t.Fatal(err)
	}

	_, body := ts.do(t, "POST", "/api/chat/"+class.ClassID, map[string]any{"question": "What makes ATP?"})
	if body["answer"] != "ATP is made in mitochondria." {
		t.Errorf("chat = %v", body)
	}

	_, body = ts.do(t, "POST", "/api/chat-all", map[string]any{"question": "What makes ATP?", "class_ids": []string{"missing", class.ClassID}})
	if body["answer"] != "ATP is made in mitochondria." {
		t.Errorf("chat-all = %v", body)
	}
}

func TestChat_Stream(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")
	if _, err := ts.db.AddSession(class.ClassID, "", "Mitochondria produce ATP.", nil); err != nil {
		t.Fatal(err)
	}

	data, _ := json.Marshal(map[string]any{"question": "What makes ATP?", "stream": true})
	req := httptest.NewRequest("POST", "/api/chat/"+class.ClassID, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
	events, texts := parseSSE(t, resp.Body)
	if strings.Join(texts, "") != "ATP is made in mitochondria." {
		t.Errorf("streamed text = %q", strings.Join(texts, ""))
	}
	if events[len(events)-1] != "done" {
		t.Errorf("last event = %q, want done", events[len(events)-1])
	}
}

func TestChat_StreamError(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")
	if _, err := ts.db.AddSession(class.ClassID, "", "content", nil); err != nil {
		t.Fatal(err)
	}
	ts.provider.err = errs.E(errs.Upstream, "stream", errors.New("connection reset"))

	req := httptest.NewRequest("POST", "/api/chat/"+class.ClassID+"?stream=true", strings.NewReader(`{"question":"why?"}`))
	req.Header.Set("Content-Type", "application/json")
	resp, err := ts.srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	events, texts := parseSSE(t, resp.Body)
	if len(texts) != 3 {
		t.Errorf("chunks before failure = %d, want 3", len(texts))
	}
	if events[len(events)-1] != "error" {
		t.Errorf("last event = %q, want error", events[len(events)-1])
	}
}

// parseSSE returns every event name and the text of each chunk event
func parseSSE(t *testing.T, r io.Reader) ([]string, []string) {
	t.Helper()
	raw, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	var events, texts []string
	for _, block := range strings.Split(strings.TrimSpace(string(raw)), "\n\n") {
		var event, data string
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				data = strings.TrimPrefix(line, "data: ")
			}
		}
		events = append(events, event)
		if event == "chunk" {
			var payload struct{ Text string }
			if err := json.Unmarshal([]byte(data), &payload); err != nil {
				t.Fatalf("chunk data %q: %v", data, err)
			}
			texts = append(texts, payload.Text)
		}
	}
	if len(events) == 0 {
		t.Fatal("no events")
	}
	return events, texts
}

func TestUpload(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("class_id", class.ClassID)
	_ = mw.WriteField("auto_summarize", "false")
	fw, _ := mw.CreateFormFile("file", "week_3-krebs_cycle.md")
	_, _ = fw.Write([]byte("# Krebs cycle\nAcetyl-CoA enters the cycle."))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := ts.srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("upload = %d %v", resp.StatusCode, body)
	}
	sess := body["session"].(map[string]any)
	if sess["title"] != "Week 3 Krebs Cycle" {
		t.Errorf("title = %v", sess["title"])
	}
	if _, ok := body["summary"]; ok {
		t.Error("auto_summarize=false should not summarize")
	}
}

type languageRecorder struct{ got []string }

func (r *languageRecorder) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	r.got = append(r.got, language)
	return "Hola a todos.", nil
}

func (r *languageRecorder) Name() string { return "recorder" }

func postUpload(t *testing.T, ts *testServer, fields map[string]string, filename string) (*http.Response, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	fw, _ := mw.CreateFormFile("file", filename)
	_, _ = fw.Write([]byte("RIFF"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := ts.srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var body map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&body)
	return resp, body
}

func TestUpload_Language(t *testing.T) {
	rec := &languageRecorder{}
	media := transcribe.NewMedia(nil, "", map[string]transcribe.Transcriber{settings.ASRFree: rec})
	ts := newTestServerWith(t, agent.Options{Media: media})
	class, _ := ts.db.CreateClass("Spanish", "", "")

	resp, body := postUpload(t, ts, map[string]string{
		"class_id":       class.ClassID,
		"language":       "ES",
		"auto_summarize": "false",
	}, "clase.wav")
	if resp.StatusCode != fiber.StatusCreated {
		t.Fatalf("upload = %d %v", resp.StatusCode, body)
	}
	if len(rec.got) != 1 || rec.got[0] != "es" {
		t.Errorf("languages sent = %v, want [es]", rec.got)
	}

	resp, body = postUpload(t, ts, map[string]string{
		"class_id": class.ClassID,
		"language": "not a language",
	}, "clase.wav")
	if resp.StatusCode != 400 {
		t.Errorf("invalid language status = %d %v, want 400", resp.StatusCode, body)
	}
}

func TestDeleteClass_PartialFailure(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")

	root := filepath.Dir(ts.db.ClassDir(class.ClassID))
	if err := os.RemoveAll(root); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(root, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	resp, body := ts.do(t, "DELETE", "/api/class/"+class.ClassID, nil)
	if resp.StatusCode != fiber.StatusMultiStatus {
		t.Fatalf("status = %d %v, want 207", resp.StatusCode, body)
	}
	if body["deleted"] != true || body["ok"] != false || body["kind"] != errs.PartialFailure.String() {
		t.Errorf("body = %v", body)
	}

	resp, _ = ts.do(t, "GET", "/api/class/"+class.ClassID, nil)
	if resp.StatusCode != 404 {
		t.Errorf("class still served after delete: %d", resp.StatusCode)
	}
}

func TestUpload_Unsupported(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("class_id", class.ClassID)
	fw, _ := mw.CreateFormFile("file", "grades.xlsx")
	_, _ = fw.Write([]byte("x"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := ts.srv.App().Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestSettings(t *testing.T) {
	ts := newTestServer(t)

	_, body := ts.do(t, "GET", "/api/settings", nil)
	if body["settings"].(map[string]any)["asr_mode"] != "free" {
		t.Errorf("settings = %v", body)
	}

	resp, body := ts.do(t, "PUT", "/api/settings", map[string]string{"asr_mode": "fast", "llm_provider": "groq"})
	if resp.StatusCode != 200 {
		t.Fatalf("put = %d %v", resp.StatusCode, body)
	}
	got := body["settings"].(map[string]any)
	if got["asr_mode"] != "fast" || got["llm_provider"] != "groq" {
		t.Errorf("settings = %v", got)
	}
}

func TestSearch(t *testing.T) {
	ts := newTestServer(t)
	class, _ := ts.db.CreateClass("Bio", "", "")
	if _, err := ts.db.AddSession(class.ClassID, "Krebs", "The citric acid cycle oxidizes acetyl-CoA.", nil); err != nil {
		t.Fatal(err)
	}

	_, body := ts.do(t, "GET", "/api/search?q=citric&class_id="+class.ClassID, nil)
	results := body["results"].([]any)
	if len(results) != 1 || results[0].(map[string]any)["title"] != "Krebs" {
		t.Errorf("results = %v", body)
	}

	resp, _ := ts.do(t, "GET", "/api/search", nil)
	if resp.StatusCode != 400 {
		t.Errorf("empty query status = %d, want 400", resp.StatusCode)
	}
}
