package llm

import (
	"os"
	"path/filepath"
	"testing"
)

func TestQuestionMessages(t *testing.T) {
	p := DefaultPrompts()
	msgs, err := p.QuestionMessages(p.AnswerSystem, "Class: <Bio> & more", "What is ATP?")
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 2 || msgs[0].Role != RoleSystem || msgs[1].Role != RoleUser {
		t.Fatalf("messages = %+v", msgs)
	}
	want := "Context:\nClass: <Bio> & more\n\nQuestion: What is ATP?"
	if msgs[1].Content != want {
		t.Errorf("user message = %q, want %q", msgs[1].Content, want)
	}
}

func TestLoadPrompts_Overrides(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "answer_system.txt"), []byte("  Be terse.\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary_system.txt"), []byte("\n"), 0644); err != nil {
		t.Fatal(err)
	}

	p, err := LoadPrompts(dir)
	if err != nil {
		t.Fatalf("LoadPrompts() error = %v", err)
	}
	def := DefaultPrompts()
	if p.AnswerSystem != "Be terse." {
		t.Errorf("AnswerSystem = %q", p.AnswerSystem)
	}
	if p.SummarySystem != def.SummarySystem {
		t.Error("empty override file should keep the default")
	}
	if p.QuestionUser != def.QuestionUser {
		t.Error("missing override file should keep the default")
	}

	if _, err := LoadPrompts(filepath.Join(dir, "nope")); err != nil {
		t.Errorf("missing dir should not fail: %v", err)
	}
}
